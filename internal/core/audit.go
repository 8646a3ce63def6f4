package core

// audit.go attaches creation and update provenance to entity mutations.
//
// Creation stamps CreatedBy/CreatedDate and clears the update pair.
// Updates carry the stored creation pair forward untouched and set
// UpdatedBy/UpdatedDate. Both the interactive path and seed ingestion go
// through these helpers so provenance is recorded the same way.

import "time"

// Clock returns the current time. Tests substitute a fixed clock.
type Clock func() time.Time

// systemClock truncates to microseconds, the precision of the database column.
func systemClock() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// createdAudit returns provenance for a new entity.
func createdAudit(actor string, now time.Time) Audit {
	return Audit{
		CreatedBy:   actor,
		CreatedDate: now,
	}
}

// updatedAudit returns stored provenance with the update pair set.
func updatedAudit(stored Audit, actor string, now time.Time) Audit {
	by := actor
	at := now
	return Audit{
		CreatedBy:   stored.CreatedBy,
		CreatedDate: stored.CreatedDate,
		UpdatedBy:   &by,
		UpdatedDate: &at,
	}
}
