// Package core provides the business logic for the MIME type registry.
//
// This package is the heart of the registry, containing all domain logic
// independent of any transport or persistence engine. It can be used by the
// HTTP API, the CLI, the seed pipeline or tests without modification.
//
// # Architecture
//
// The package is organized around a few key concepts:
//
//   - Entities: [MimeType] and [FileExtension], each carrying [Audit] fields.
//   - Store: the persistence boundary ([Store], [Querier], [Tx]). Adapters
//     live in internal/store and report constraint violations with the
//     store-level sentinels ([ErrDuplicateKey], [ErrRestricted], ...).
//   - Registry: the CRUD entry point. It normalizes, validates, stamps audit
//     fields and runs each mutation in exactly one store transaction.
//   - Lookup: [Registry.FindByExtension] resolves an extension to mime types
//     through an LRU index kept consistent with every write.
//
// # Invariants
//
//   - (type, subType) is unique across mime types, case-sensitive.
//   - A normalized extension is unique across all file extensions,
//     regardless of owning mime type.
//   - A mime type that owns file extensions cannot be deleted.
//   - Updates never change IDs, the owning mime type of an extension, or
//     the creation audit pair.
//
// # Error Handling
//
// Every failure the caller can act on is an [*Error] whose Kind is one of
// [ErrValidation], [ErrNotFound], [ErrConflict] or [ErrIngestion]:
//
//	if errors.Is(err, core.ErrConflict) {
//	    // mime type still owns extensions
//	}
//
// [MapError] converts any error into a user-facing message with a support
// code.
package core
