package core

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Registry is the CRUD entry point over mime types and file extensions.
// It enforces the registry invariants before anything reaches the store and
// translates store constraint violations into the same typed errors.
//
// Writes are serialized by mu and hold it across the store transaction and
// the lookup index invalidation, so lookups never see a half-applied write.
type Registry struct {
	store Store
	now   Clock

	mu    sync.RWMutex
	index *expirable.LRU[string, []MimeType]
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock overrides the clock used for audit timestamps.
func WithClock(c Clock) Option {
	return func(r *Registry) {
		if c != nil {
			r.now = c
		}
	}
}

// WithLookupCache enables the extension lookup index with the given
// capacity and entry lifetime. A size <= 0 disables the index.
func WithLookupCache(size int, ttl time.Duration) Option {
	return func(r *Registry) {
		if size <= 0 {
			r.index = nil
			return
		}
		r.index = expirable.NewLRU[string, []MimeType](size, nil, ttl)
	}
}

// NewRegistry creates a Registry backed by store.
func NewRegistry(store Store, opts ...Option) *Registry {
	r := &Registry{
		store: store,
		now:   systemClock,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Ping reports whether the underlying store is reachable.
func (r *Registry) Ping(ctx context.Context) error {
	return r.store.Ping(ctx)
}

// ----------------------------------------------------------------------------
// Mime types
// ----------------------------------------------------------------------------

// ListMimeTypes returns mime types ordered by type then subType.
func (r *Registry) ListMimeTypes(ctx context.Context, opts ListOptions) ([]MimeType, error) {
	var out []MimeType
	err := r.store.View(ctx, func(q Querier) error {
		var err error
		out, err = q.ListMimeTypes(ctx, opts)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list mime types: %w", err)
	}
	return out, nil
}

// CountMimeTypes returns the number of mime types matching opts, ignoring paging.
func (r *Registry) CountMimeTypes(ctx context.Context, opts ListOptions) (int, error) {
	var n int
	err := r.store.View(ctx, func(q Querier) error {
		var err error
		n, err = q.CountMimeTypes(ctx, opts)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("count mime types: %w", err)
	}
	return n, nil
}

// GetMimeType returns a mime type with the extensions it owns.
func (r *Registry) GetMimeType(ctx context.Context, id int) (MimeTypeDetail, error) {
	const op = "get"
	var out MimeTypeDetail
	err := r.store.View(ctx, func(q Querier) error {
		m, err := q.GetMimeType(ctx, id)
		if err != nil {
			return translate(op, EntityMimeType, strconv.Itoa(id), err)
		}
		exts, err := q.ListFileExtensions(ctx, ExtensionListOptions{MimeTypeID: id})
		if err != nil {
			return err
		}
		out = MimeTypeDetail{MimeType: m, Extensions: exts}
		return nil
	})
	if err != nil {
		return MimeTypeDetail{}, wrapUnexpected(op, EntityMimeType, err)
	}
	return out, nil
}

// MimeTypeByName returns the mime type with the exact (type, subType) pair.
func (r *Registry) MimeTypeByName(ctx context.Context, typ, subType string) (MimeType, error) {
	const op = "get"
	var out MimeType
	err := r.store.View(ctx, func(q Querier) error {
		m, err := q.GetMimeTypeByName(ctx, typ, subType)
		if err != nil {
			return translate(op, EntityMimeType, typ+"/"+subType, err)
		}
		out = m
		return nil
	})
	if err != nil {
		return MimeType{}, wrapUnexpected(op, EntityMimeType, err)
	}
	return out, nil
}

// AddMimeType inserts a new mime type attributed to actor.
func (r *Registry) AddMimeType(ctx context.Context, actor string, m MimeType) (MimeType, error) {
	const op = "add"
	if err := validateMimeType(op, actor, m); err != nil {
		return MimeType{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var out MimeType
	err := r.store.Update(ctx, func(tx Tx) error {
		if err := ensureNameFree(ctx, tx, op, m, 0); err != nil {
			return err
		}
		row := MimeType{
			Type:        m.Type,
			SubType:     m.SubType,
			Description: m.Description,
			Audit:       createdAudit(actor, r.now()),
		}
		inserted, err := tx.InsertMimeType(ctx, row)
		if err != nil {
			return translate(op, EntityMimeType, m.String(), err)
		}
		out = inserted
		return nil
	})
	if err != nil {
		return MimeType{}, wrapUnexpected(op, EntityMimeType, err)
	}
	return out, nil
}

// UpdateMimeType overwrites type, subType and description of the mime type
// identified by m.ID. The ID and creation audit fields are preserved.
func (r *Registry) UpdateMimeType(ctx context.Context, actor string, m MimeType) (MimeType, error) {
	const op = "update"
	if err := validateMimeType(op, actor, m); err != nil {
		return MimeType{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var out MimeType
	err := r.store.Update(ctx, func(tx Tx) error {
		stored, err := tx.GetMimeType(ctx, m.ID)
		if err != nil {
			return translate(op, EntityMimeType, strconv.Itoa(m.ID), err)
		}
		if stored.Type != m.Type || stored.SubType != m.SubType {
			if err := ensureNameFree(ctx, tx, op, m, stored.ID); err != nil {
				return err
			}
		}
		stored.Type = m.Type
		stored.SubType = m.SubType
		stored.Description = m.Description
		stored.Audit = updatedAudit(stored.Audit, actor, r.now())

		updated, err := tx.UpdateMimeType(ctx, stored)
		if err != nil {
			return translate(op, EntityMimeType, m.String(), err)
		}
		out = updated
		return nil
	})
	if err != nil {
		return MimeType{}, wrapUnexpected(op, EntityMimeType, err)
	}

	// Cached lookup results embed the old type/subType.
	r.purgeIndex()
	return out, nil
}

// DeleteMimeType removes a mime type that owns no file extensions.
func (r *Registry) DeleteMimeType(ctx context.Context, id int) error {
	const op = "delete"
	key := strconv.Itoa(id)

	r.mu.Lock()
	defer r.mu.Unlock()

	err := r.store.Update(ctx, func(tx Tx) error {
		stored, err := tx.GetMimeType(ctx, id)
		if err != nil {
			return translate(op, EntityMimeType, key, err)
		}
		owned, err := tx.CountFileExtensions(ctx, ExtensionListOptions{MimeTypeID: id})
		if err != nil {
			return err
		}
		if owned > 0 {
			return &Error{
				Kind:   ErrConflict,
				Op:     op,
				Entity: EntityMimeType,
				Key:    stored.String(),
				Msg:    fmt.Sprintf("owns %d file extension(s); remove them first", owned),
			}
		}
		if err := tx.DeleteMimeType(ctx, id); err != nil {
			return translate(op, EntityMimeType, stored.String(), err)
		}
		return nil
	})
	if err != nil {
		return wrapUnexpected(op, EntityMimeType, err)
	}

	r.purgeIndex()
	return nil
}

// ----------------------------------------------------------------------------
// File extensions
// ----------------------------------------------------------------------------

// ListFileExtensions returns file extensions ordered by extension.
func (r *Registry) ListFileExtensions(ctx context.Context, opts ExtensionListOptions) ([]FileExtension, error) {
	var out []FileExtension
	err := r.store.View(ctx, func(q Querier) error {
		var err error
		out, err = q.ListFileExtensions(ctx, opts)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list file extensions: %w", err)
	}
	return out, nil
}

// CountFileExtensions returns the number of extensions matching opts, ignoring paging.
func (r *Registry) CountFileExtensions(ctx context.Context, opts ExtensionListOptions) (int, error) {
	var n int
	err := r.store.View(ctx, func(q Querier) error {
		var err error
		n, err = q.CountFileExtensions(ctx, opts)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("count file extensions: %w", err)
	}
	return n, nil
}

// GetFileExtension returns the extension with the composite identity key.
func (r *Registry) GetFileExtension(ctx context.Context, key FileExtensionKey) (FileExtension, error) {
	const op = "get"
	var out FileExtension
	err := r.store.View(ctx, func(q Querier) error {
		f, err := q.GetFileExtension(ctx, key)
		if err != nil {
			return translate(op, EntityFileExtension, keyString(key), err)
		}
		out = f
		return nil
	})
	if err != nil {
		return FileExtension{}, wrapUnexpected(op, EntityFileExtension, err)
	}
	return out, nil
}

// FileExtensionByValue returns the extension row registered for extension.
func (r *Registry) FileExtensionByValue(ctx context.Context, extension string) (FileExtension, error) {
	const op = "get"
	ext := NormalizeExtension(extension)
	var out FileExtension
	err := r.store.View(ctx, func(q Querier) error {
		f, err := q.GetFileExtensionByValue(ctx, ext)
		if err != nil {
			return translate(op, EntityFileExtension, ext, err)
		}
		out = f
		return nil
	})
	if err != nil {
		return FileExtension{}, wrapUnexpected(op, EntityFileExtension, err)
	}
	return out, nil
}

// AddFileExtension registers a normalized extension for an existing mime type.
func (r *Registry) AddFileExtension(ctx context.Context, actor string, f FileExtension) (FileExtension, error) {
	const op = "add"
	raw := f.Extension
	f.Extension = NormalizeExtension(raw)
	if err := validateFileExtension(op, actor, raw, f); err != nil {
		return FileExtension{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var out FileExtension
	err := r.store.Update(ctx, func(tx Tx) error {
		if err := ensureOwnerExists(ctx, tx, op, f); err != nil {
			return err
		}
		if err := ensureExtensionFree(ctx, tx, op, f.Extension, 0); err != nil {
			return err
		}
		row := FileExtension{
			MimeTypeID: f.MimeTypeID,
			Extension:  f.Extension,
			Audit:      createdAudit(actor, r.now()),
		}
		inserted, err := tx.InsertFileExtension(ctx, row)
		if err != nil {
			return translate(op, EntityFileExtension, f.Extension, err)
		}
		out = inserted
		return nil
	})
	if err != nil {
		return FileExtension{}, wrapUnexpected(op, EntityFileExtension, err)
	}

	r.invalidate(out.Extension)
	return out, nil
}

// UpdateFileExtension overwrites the extension value of the row identified by
// (f.ID, f.MimeTypeID). The identity and creation audit fields are preserved.
func (r *Registry) UpdateFileExtension(ctx context.Context, actor string, f FileExtension) (FileExtension, error) {
	const op = "update"
	raw := f.Extension
	f.Extension = NormalizeExtension(raw)
	if err := validateFileExtension(op, actor, raw, f); err != nil {
		return FileExtension{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var out FileExtension
	var previous string
	err := r.store.Update(ctx, func(tx Tx) error {
		stored, err := tx.GetFileExtension(ctx, f.Key())
		if err != nil {
			return translate(op, EntityFileExtension, keyString(f.Key()), err)
		}
		if stored.Extension != f.Extension {
			if err := ensureExtensionFree(ctx, tx, op, f.Extension, stored.ID); err != nil {
				return err
			}
		}
		previous = stored.Extension
		stored.Extension = f.Extension
		stored.Audit = updatedAudit(stored.Audit, actor, r.now())

		updated, err := tx.UpdateFileExtension(ctx, stored)
		if err != nil {
			return translate(op, EntityFileExtension, f.Extension, err)
		}
		out = updated
		return nil
	})
	if err != nil {
		return FileExtension{}, wrapUnexpected(op, EntityFileExtension, err)
	}

	r.invalidate(previous, out.Extension)
	return out, nil
}

// DeleteFileExtension removes the extension with the composite identity key.
func (r *Registry) DeleteFileExtension(ctx context.Context, key FileExtensionKey) error {
	const op = "delete"

	r.mu.Lock()
	defer r.mu.Unlock()

	var removed string
	err := r.store.Update(ctx, func(tx Tx) error {
		stored, err := tx.GetFileExtension(ctx, key)
		if err != nil {
			return translate(op, EntityFileExtension, keyString(key), err)
		}
		if err := tx.DeleteFileExtension(ctx, key); err != nil {
			return translate(op, EntityFileExtension, stored.Extension, err)
		}
		removed = stored.Extension
		return nil
	})
	if err != nil {
		return wrapUnexpected(op, EntityFileExtension, err)
	}

	r.invalidate(removed)
	return nil
}

// ----------------------------------------------------------------------------
// Invariant checks (run inside the write transaction)
// ----------------------------------------------------------------------------

// ensureNameFree fails when another mime type (other than selfID) already
// uses m's (type, subType) pair.
func ensureNameFree(ctx context.Context, q Querier, op string, m MimeType, selfID int) error {
	existing, err := q.GetMimeTypeByName(ctx, m.Type, m.SubType)
	switch {
	case errors.Is(err, ErrRowNotFound):
		return nil
	case err != nil:
		return err
	case existing.ID == selfID:
		return nil
	}
	return &Error{
		Kind:   ErrValidation,
		Op:     op,
		Entity: EntityMimeType,
		Key:    m.String(),
		Field:  "type/subType",
		Msg:    "is already registered",
		Err:    ErrDuplicateKey,
	}
}

// ensureExtensionFree fails when another row (other than selfID) already
// holds extension, whichever mime type owns it.
func ensureExtensionFree(ctx context.Context, q Querier, op, extension string, selfID int) error {
	existing, err := q.GetFileExtensionByValue(ctx, extension)
	switch {
	case errors.Is(err, ErrRowNotFound):
		return nil
	case err != nil:
		return err
	case existing.ID == selfID:
		return nil
	}
	return &Error{
		Kind:   ErrValidation,
		Op:     op,
		Entity: EntityFileExtension,
		Key:    extension,
		Field:  "extension",
		Msg:    fmt.Sprintf("is already registered to mime type %d", existing.MimeTypeID),
		Err:    ErrDuplicateKey,
	}
}

// ensureOwnerExists fails when f.MimeTypeID does not resolve.
func ensureOwnerExists(ctx context.Context, q Querier, op string, f FileExtension) error {
	_, err := q.GetMimeType(ctx, f.MimeTypeID)
	if errors.Is(err, ErrRowNotFound) {
		return &Error{
			Kind:   ErrValidation,
			Op:     op,
			Entity: EntityFileExtension,
			Key:    f.Extension,
			Field:  "mimeTypeId",
			Msg:    fmt.Sprintf("mime type %d does not exist", f.MimeTypeID),
			Err:    ErrMissingReference,
		}
	}
	return err
}

// ----------------------------------------------------------------------------
// Error translation
// ----------------------------------------------------------------------------

// translate converts store-level sentinels into typed registry errors.
// Errors that are already typed, or that are unexpected, pass through.
func translate(op, entity, key string, err error) error {
	if _, ok := AsError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, ErrRowNotFound):
		return notFoundErr(op, entity, key)
	case errors.Is(err, ErrDuplicateKey):
		return &Error{Kind: ErrValidation, Op: op, Entity: entity, Key: key, Msg: "is already registered", Err: err}
	case errors.Is(err, ErrMissingReference):
		return &Error{Kind: ErrValidation, Op: op, Entity: entity, Key: key, Field: "mimeTypeId", Msg: "does not reference an existing mime type", Err: err}
	case errors.Is(err, ErrRestricted):
		return &Error{Kind: ErrConflict, Op: op, Entity: entity, Key: key, Msg: "still owns file extensions", Err: err}
	}
	return err
}

// wrapUnexpected adds operation context to errors that did not originate as
// typed registry errors (store failures, cancellation). Typed errors are
// returned unchanged.
func wrapUnexpected(op, entity string, err error) error {
	if _, ok := AsError(err); ok {
		return err
	}
	if translated := translate(op, entity, "", err); translated != err {
		return translated
	}
	return fmt.Errorf("%s %s: %w", op, entity, err)
}

func keyString(key FileExtensionKey) string {
	return fmt.Sprintf("%d:%d", key.MimeTypeID, key.ID)
}
