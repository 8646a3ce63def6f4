package core

import "context"

// Querier is the read side of the persistence boundary.
//
// Lookups by identity return ErrRowNotFound when nothing matches.
// Extension arguments are always normalized by the caller.
type Querier interface {
	ListMimeTypes(ctx context.Context, opts ListOptions) ([]MimeType, error)
	CountMimeTypes(ctx context.Context, opts ListOptions) (int, error)
	GetMimeType(ctx context.Context, id int) (MimeType, error)
	GetMimeTypeByName(ctx context.Context, typ, subType string) (MimeType, error)

	ListFileExtensions(ctx context.Context, opts ExtensionListOptions) ([]FileExtension, error)
	CountFileExtensions(ctx context.Context, opts ExtensionListOptions) (int, error)
	GetFileExtension(ctx context.Context, key FileExtensionKey) (FileExtension, error)
	GetFileExtensionByValue(ctx context.Context, extension string) (FileExtension, error)

	// MimeTypesByExtension returns the distinct mime types owning extension,
	// ordered by type then subType.
	MimeTypesByExtension(ctx context.Context, extension string) ([]MimeType, error)
}

// Tx is one atomic unit of work against the store.
//
// Writes return ErrDuplicateKey on unique violations, ErrMissingReference
// when a foreign key does not resolve, ErrRestricted when a delete is blocked
// by dependent rows and ErrRowNotFound when the target row is absent.
type Tx interface {
	Querier

	InsertMimeType(ctx context.Context, m MimeType) (MimeType, error)
	UpdateMimeType(ctx context.Context, m MimeType) (MimeType, error)
	DeleteMimeType(ctx context.Context, id int) error

	InsertFileExtension(ctx context.Context, f FileExtension) (FileExtension, error)
	UpdateFileExtension(ctx context.Context, f FileExtension) (FileExtension, error)
	DeleteFileExtension(ctx context.Context, key FileExtensionKey) error
}

// Store acquires a persistence handle for exactly one logical operation and
// releases it on every exit path.
type Store interface {
	// View runs fn against a read-only handle.
	View(ctx context.Context, fn func(q Querier) error) error

	// Update runs fn in a single transaction. The transaction commits only
	// when fn returns nil and ctx is still live; otherwise nothing persists.
	Update(ctx context.Context, fn func(tx Tx) error) error

	// Ping reports whether the store is reachable.
	Ping(ctx context.Context) error
}
