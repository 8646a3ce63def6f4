// Package memory provides an in-process implementation of core.Store.
//
// Rows live in flat tables keyed by surrogate ID; associations are
// reconstructed by scanning on the foreign key. Update runs under an
// exclusive lock and records an undo entry for every write, replaying them
// in reverse if the unit fails or its context is cancelled before commit.
// The same unique and restrict constraints as the PostgreSQL schema are
// enforced here, so the Registry sees identical store-level errors.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/JonMunkholm/mimereg/internal/core"
)

// Store is an in-memory registry store. The zero value is not usable; call New.
type Store struct {
	mu sync.RWMutex

	mimeTypes  map[int]core.MimeType
	extensions map[int]core.FileExtension

	nextMimeTypeID  int
	nextExtensionID int
}

var _ core.Store = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		mimeTypes:  make(map[int]core.MimeType),
		extensions: make(map[int]core.FileExtension),
	}
}

// Ping always succeeds.
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// View runs fn under a shared lock.
func (s *Store) View(ctx context.Context, fn func(q core.Querier) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(reader{s})
}

// Update runs fn under an exclusive lock. Writes are undone when fn fails or
// ctx is done by the time fn returns.
func (s *Store) Update(ctx context.Context, fn func(tx core.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	t := &tx{reader: reader{s}}
	if err := fn(t); err != nil {
		t.rollback()
		return err
	}
	if err := ctx.Err(); err != nil {
		t.rollback()
		return err
	}
	return nil
}

// ----------------------------------------------------------------------------
// Reads
// ----------------------------------------------------------------------------

// reader implements core.Querier. Callers hold s.mu.
type reader struct {
	s *Store
}

func (r reader) ListMimeTypes(_ context.Context, opts core.ListOptions) ([]core.MimeType, error) {
	rows := r.filterMimeTypes(opts.Search)
	return page(rows, opts.Limit, opts.Offset), nil
}

func (r reader) CountMimeTypes(_ context.Context, opts core.ListOptions) (int, error) {
	return len(r.filterMimeTypes(opts.Search)), nil
}

func (r reader) filterMimeTypes(search string) []core.MimeType {
	rows := make([]core.MimeType, 0, len(r.s.mimeTypes))
	for _, m := range r.s.mimeTypes {
		if search != "" &&
			!strings.Contains(m.Type, search) &&
			!strings.Contains(m.SubType, search) &&
			!strings.Contains(m.Description, search) {
			continue
		}
		rows = append(rows, m)
	}
	sortMimeTypes(rows)
	return rows
}

func (r reader) GetMimeType(_ context.Context, id int) (core.MimeType, error) {
	m, ok := r.s.mimeTypes[id]
	if !ok {
		return core.MimeType{}, core.ErrRowNotFound
	}
	return m, nil
}

func (r reader) GetMimeTypeByName(_ context.Context, typ, subType string) (core.MimeType, error) {
	for _, m := range r.s.mimeTypes {
		if m.Type == typ && m.SubType == subType {
			return m, nil
		}
	}
	return core.MimeType{}, core.ErrRowNotFound
}

func (r reader) ListFileExtensions(_ context.Context, opts core.ExtensionListOptions) ([]core.FileExtension, error) {
	rows := r.filterExtensions(opts)
	return page(rows, opts.Limit, opts.Offset), nil
}

func (r reader) CountFileExtensions(_ context.Context, opts core.ExtensionListOptions) (int, error) {
	return len(r.filterExtensions(opts)), nil
}

func (r reader) filterExtensions(opts core.ExtensionListOptions) []core.FileExtension {
	rows := make([]core.FileExtension, 0)
	for _, f := range r.s.extensions {
		if opts.MimeTypeID != 0 && f.MimeTypeID != opts.MimeTypeID {
			continue
		}
		if opts.Search != "" && !strings.Contains(f.Extension, opts.Search) {
			continue
		}
		rows = append(rows, f)
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Extension < rows[j].Extension
	})
	return rows
}

func (r reader) GetFileExtension(_ context.Context, key core.FileExtensionKey) (core.FileExtension, error) {
	f, ok := r.s.extensions[key.ID]
	if !ok || f.MimeTypeID != key.MimeTypeID {
		return core.FileExtension{}, core.ErrRowNotFound
	}
	return f, nil
}

func (r reader) GetFileExtensionByValue(_ context.Context, extension string) (core.FileExtension, error) {
	for _, f := range r.s.extensions {
		if f.Extension == extension {
			return f, nil
		}
	}
	return core.FileExtension{}, core.ErrRowNotFound
}

func (r reader) MimeTypesByExtension(_ context.Context, extension string) ([]core.MimeType, error) {
	seen := make(map[int]bool)
	var out []core.MimeType
	for _, f := range r.s.extensions {
		if f.Extension != extension || seen[f.MimeTypeID] {
			continue
		}
		if m, ok := r.s.mimeTypes[f.MimeTypeID]; ok {
			seen[m.ID] = true
			out = append(out, m)
		}
	}
	sortMimeTypes(out)
	return out, nil
}

// ----------------------------------------------------------------------------
// Writes
// ----------------------------------------------------------------------------

// tx implements core.Tx on top of reader with an undo log.
type tx struct {
	reader
	undo []func()
}

func (t *tx) rollback() {
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
}

func (t *tx) InsertMimeType(ctx context.Context, m core.MimeType) (core.MimeType, error) {
	if _, err := t.GetMimeTypeByName(ctx, m.Type, m.SubType); err == nil {
		return core.MimeType{}, core.ErrDuplicateKey
	}
	t.s.nextMimeTypeID++
	m.ID = t.s.nextMimeTypeID
	t.s.mimeTypes[m.ID] = m

	id := m.ID
	t.undo = append(t.undo, func() { delete(t.s.mimeTypes, id) })
	return m, nil
}

func (t *tx) UpdateMimeType(ctx context.Context, m core.MimeType) (core.MimeType, error) {
	prev, ok := t.s.mimeTypes[m.ID]
	if !ok {
		return core.MimeType{}, core.ErrRowNotFound
	}
	if other, err := t.GetMimeTypeByName(ctx, m.Type, m.SubType); err == nil && other.ID != m.ID {
		return core.MimeType{}, core.ErrDuplicateKey
	}
	t.s.mimeTypes[m.ID] = m
	t.undo = append(t.undo, func() { t.s.mimeTypes[prev.ID] = prev })
	return m, nil
}

func (t *tx) DeleteMimeType(_ context.Context, id int) error {
	prev, ok := t.s.mimeTypes[id]
	if !ok {
		return core.ErrRowNotFound
	}
	for _, f := range t.s.extensions {
		if f.MimeTypeID == id {
			return core.ErrRestricted
		}
	}
	delete(t.s.mimeTypes, id)
	t.undo = append(t.undo, func() { t.s.mimeTypes[prev.ID] = prev })
	return nil
}

func (t *tx) InsertFileExtension(ctx context.Context, f core.FileExtension) (core.FileExtension, error) {
	if _, ok := t.s.mimeTypes[f.MimeTypeID]; !ok {
		return core.FileExtension{}, core.ErrMissingReference
	}
	if _, err := t.GetFileExtensionByValue(ctx, f.Extension); err == nil {
		return core.FileExtension{}, core.ErrDuplicateKey
	}
	t.s.nextExtensionID++
	f.ID = t.s.nextExtensionID
	t.s.extensions[f.ID] = f

	id := f.ID
	t.undo = append(t.undo, func() { delete(t.s.extensions, id) })
	return f, nil
}

func (t *tx) UpdateFileExtension(ctx context.Context, f core.FileExtension) (core.FileExtension, error) {
	prev, err := t.GetFileExtension(ctx, f.Key())
	if err != nil {
		return core.FileExtension{}, err
	}
	if other, err := t.GetFileExtensionByValue(ctx, f.Extension); err == nil && other.ID != f.ID {
		return core.FileExtension{}, core.ErrDuplicateKey
	}
	t.s.extensions[f.ID] = f
	t.undo = append(t.undo, func() { t.s.extensions[prev.ID] = prev })
	return f, nil
}

func (t *tx) DeleteFileExtension(ctx context.Context, key core.FileExtensionKey) error {
	prev, err := t.GetFileExtension(ctx, key)
	if err != nil {
		return err
	}
	delete(t.s.extensions, key.ID)
	t.undo = append(t.undo, func() { t.s.extensions[prev.ID] = prev })
	return nil
}

// ----------------------------------------------------------------------------
// Helpers
// ----------------------------------------------------------------------------

func sortMimeTypes(rows []core.MimeType) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Type != rows[j].Type {
			return rows[i].Type < rows[j].Type
		}
		return rows[i].SubType < rows[j].SubType
	})
}

// page applies offset and limit; a limit <= 0 returns everything after offset.
func page[T any](rows []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(rows) {
		return []T{}
	}
	rows = rows[offset:]
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows
}
