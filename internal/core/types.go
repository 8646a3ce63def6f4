package core

import "time"

// Field limits mirrored by the database column sizes.
const (
	MaxTypeLen        = 127
	MaxSubTypeLen     = 127
	MaxDescriptionLen = 128
	MaxExtensionLen   = 260
	MaxActorLen       = 50
)

// SeedActor is the audit identity used for rows created by seed ingestion.
const SeedActor = "seed"

// Audit holds creation and update provenance for an entity.
// UpdatedBy and UpdatedDate stay nil until the first update.
type Audit struct {
	CreatedBy   string     `json:"createdBy"`
	CreatedDate time.Time  `json:"createdDate"`
	UpdatedBy   *string    `json:"updatedBy,omitempty"`
	UpdatedDate *time.Time `json:"updatedDate,omitempty"`
}

// MimeType is a type/subtype media classification.
// Extensions are not embedded; fetch them by MimeType ID.
type MimeType struct {
	ID          int    `json:"id"`
	Type        string `json:"type"`
	SubType     string `json:"subType"`
	Description string `json:"description,omitempty"`
	Audit
}

// String returns the "type/subType" form.
func (m MimeType) String() string {
	return m.Type + "/" + m.SubType
}

// FileExtension associates a normalized extension with exactly one MimeType.
type FileExtension struct {
	ID         int    `json:"id"`
	MimeTypeID int    `json:"mimeTypeId"`
	Extension  string `json:"extension"`
	Audit
}

// Key returns the composite identity of the extension row.
func (f FileExtension) Key() FileExtensionKey {
	return FileExtensionKey{ID: f.ID, MimeTypeID: f.MimeTypeID}
}

// FileExtensionKey is the composite identity (id, mimeTypeId).
type FileExtensionKey struct {
	ID         int `json:"id"`
	MimeTypeID int `json:"mimeTypeId"`
}

// MimeTypeDetail is a MimeType together with the extensions it owns.
type MimeTypeDetail struct {
	MimeType
	Extensions []FileExtension `json:"extensions"`
}

// ListOptions filters and pages a MimeType listing.
// Search is a case-sensitive substring match on type, subType or description.
// A zero Limit means no limit.
type ListOptions struct {
	Search string
	Limit  int
	Offset int
}

// ExtensionListOptions filters and pages a FileExtension listing.
// A zero MimeTypeID matches every owner.
type ExtensionListOptions struct {
	MimeTypeID int
	Search     string
	Limit      int
	Offset     int
}
