package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/JonMunkholm/mimereg/internal/core"
)

// queries implements core.Tx over a DBTX. Read-only callers only see it
// through core.Querier.
type queries struct {
	db DBTX
}

const mimeTypeColumns = `id, type, sub_type, description,
	created_by, created_date, updated_by, updated_date`

const fileExtensionColumns = `id, mime_type_id, extension,
	created_by, created_date, updated_by, updated_date`

// mimeTypeFilter matches a case-sensitive substring in any text column.
// strpos is used over LIKE so % and _ in the search are literal.
const mimeTypeFilter = `($1 = '' OR strpos(type, $1) > 0 OR strpos(sub_type, $1) > 0 OR strpos(description, $1) > 0)`

const fileExtensionFilter = `($1 = 0 OR mime_type_id = $1) AND ($2 = '' OR strpos(extension, $2) > 0)`

func scanMimeType(row pgx.Row) (core.MimeType, error) {
	var m core.MimeType
	err := row.Scan(
		&m.ID, &m.Type, &m.SubType, &m.Description,
		&m.CreatedBy, &m.CreatedDate, &m.UpdatedBy, &m.UpdatedDate,
	)
	return m, err
}

func scanFileExtension(row pgx.Row) (core.FileExtension, error) {
	var f core.FileExtension
	err := row.Scan(
		&f.ID, &f.MimeTypeID, &f.Extension,
		&f.CreatedBy, &f.CreatedDate, &f.UpdatedBy, &f.UpdatedDate,
	)
	return f, err
}

func collectMimeTypes(rows pgx.Rows, err error) ([]core.MimeType, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]core.MimeType, 0)
	for rows.Next() {
		m, err := scanMimeType(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func collectFileExtensions(rows pgx.Rows, err error) ([]core.FileExtension, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]core.FileExtension, 0)
	for rows.Next() {
		f, err := scanFileExtension(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// ----------------------------------------------------------------------------
// Mime types
// ----------------------------------------------------------------------------

func (q *queries) ListMimeTypes(ctx context.Context, opts core.ListOptions) ([]core.MimeType, error) {
	query := `SELECT ` + mimeTypeColumns + `
		FROM mime_types
		WHERE ` + mimeTypeFilter + `
		ORDER BY type, sub_type
		LIMIT $2 OFFSET $3`

	out, err := collectMimeTypes(q.db.Query(ctx, query, opts.Search, limitArg(opts.Limit), offsetArg(opts.Offset)))
	if err != nil {
		return nil, fmt.Errorf("list mime types: %w", err)
	}
	return out, nil
}

func (q *queries) CountMimeTypes(ctx context.Context, opts core.ListOptions) (int, error) {
	var n int
	err := q.db.QueryRow(ctx, `SELECT count(*) FROM mime_types WHERE `+mimeTypeFilter, opts.Search).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count mime types: %w", err)
	}
	return n, nil
}

func (q *queries) GetMimeType(ctx context.Context, id int) (core.MimeType, error) {
	m, err := scanMimeType(q.db.QueryRow(ctx,
		`SELECT `+mimeTypeColumns+` FROM mime_types WHERE id = $1`, id))
	return m, mapError(err, nil)
}

func (q *queries) GetMimeTypeByName(ctx context.Context, typ, subType string) (core.MimeType, error) {
	m, err := scanMimeType(q.db.QueryRow(ctx,
		`SELECT `+mimeTypeColumns+` FROM mime_types WHERE type = $1 AND sub_type = $2`, typ, subType))
	return m, mapError(err, nil)
}

func (q *queries) InsertMimeType(ctx context.Context, m core.MimeType) (core.MimeType, error) {
	query := `
		INSERT INTO mime_types (type, sub_type, description, created_by, created_date, updated_by, updated_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + mimeTypeColumns

	out, err := scanMimeType(q.db.QueryRow(ctx, query,
		m.Type, m.SubType, m.Description,
		m.CreatedBy, m.CreatedDate, m.UpdatedBy, m.UpdatedDate,
	))
	return out, mapError(err, nil)
}

func (q *queries) UpdateMimeType(ctx context.Context, m core.MimeType) (core.MimeType, error) {
	query := `
		UPDATE mime_types
		SET type = $2, sub_type = $3, description = $4, updated_by = $5, updated_date = $6
		WHERE id = $1
		RETURNING ` + mimeTypeColumns

	out, err := scanMimeType(q.db.QueryRow(ctx, query,
		m.ID, m.Type, m.SubType, m.Description, m.UpdatedBy, m.UpdatedDate,
	))
	return out, mapError(err, nil)
}

func (q *queries) DeleteMimeType(ctx context.Context, id int) error {
	tag, err := q.db.Exec(ctx, `DELETE FROM mime_types WHERE id = $1`, id)
	if err != nil {
		return mapError(err, core.ErrRestricted)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrRowNotFound
	}
	return nil
}

// ----------------------------------------------------------------------------
// File extensions
// ----------------------------------------------------------------------------

func (q *queries) ListFileExtensions(ctx context.Context, opts core.ExtensionListOptions) ([]core.FileExtension, error) {
	query := `SELECT ` + fileExtensionColumns + `
		FROM file_extensions
		WHERE ` + fileExtensionFilter + `
		ORDER BY extension
		LIMIT $3 OFFSET $4`

	out, err := collectFileExtensions(q.db.Query(ctx, query,
		opts.MimeTypeID, opts.Search, limitArg(opts.Limit), offsetArg(opts.Offset)))
	if err != nil {
		return nil, fmt.Errorf("list file extensions: %w", err)
	}
	return out, nil
}

func (q *queries) CountFileExtensions(ctx context.Context, opts core.ExtensionListOptions) (int, error) {
	var n int
	err := q.db.QueryRow(ctx, `SELECT count(*) FROM file_extensions WHERE `+fileExtensionFilter,
		opts.MimeTypeID, opts.Search).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count file extensions: %w", err)
	}
	return n, nil
}

func (q *queries) GetFileExtension(ctx context.Context, key core.FileExtensionKey) (core.FileExtension, error) {
	f, err := scanFileExtension(q.db.QueryRow(ctx,
		`SELECT `+fileExtensionColumns+` FROM file_extensions WHERE id = $1 AND mime_type_id = $2`,
		key.ID, key.MimeTypeID))
	return f, mapError(err, nil)
}

func (q *queries) GetFileExtensionByValue(ctx context.Context, extension string) (core.FileExtension, error) {
	f, err := scanFileExtension(q.db.QueryRow(ctx,
		`SELECT `+fileExtensionColumns+` FROM file_extensions WHERE extension = $1`, extension))
	return f, mapError(err, nil)
}

func (q *queries) MimeTypesByExtension(ctx context.Context, extension string) ([]core.MimeType, error) {
	query := `
		SELECT DISTINCT m.id, m.type, m.sub_type, m.description,
			m.created_by, m.created_date, m.updated_by, m.updated_date
		FROM mime_types m
		JOIN file_extensions f ON f.mime_type_id = m.id
		WHERE f.extension = $1
		ORDER BY m.type, m.sub_type`

	out, err := collectMimeTypes(q.db.Query(ctx, query, extension))
	if err != nil {
		return nil, fmt.Errorf("mime types by extension: %w", err)
	}
	return out, nil
}

func (q *queries) InsertFileExtension(ctx context.Context, f core.FileExtension) (core.FileExtension, error) {
	query := `
		INSERT INTO file_extensions (mime_type_id, extension, created_by, created_date, updated_by, updated_date)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + fileExtensionColumns

	out, err := scanFileExtension(q.db.QueryRow(ctx, query,
		f.MimeTypeID, f.Extension,
		f.CreatedBy, f.CreatedDate, f.UpdatedBy, f.UpdatedDate,
	))
	return out, mapError(err, core.ErrMissingReference)
}

func (q *queries) UpdateFileExtension(ctx context.Context, f core.FileExtension) (core.FileExtension, error) {
	query := `
		UPDATE file_extensions
		SET extension = $3, updated_by = $4, updated_date = $5
		WHERE id = $1 AND mime_type_id = $2
		RETURNING ` + fileExtensionColumns

	out, err := scanFileExtension(q.db.QueryRow(ctx, query,
		f.ID, f.MimeTypeID, f.Extension, f.UpdatedBy, f.UpdatedDate,
	))
	return out, mapError(err, nil)
}

func (q *queries) DeleteFileExtension(ctx context.Context, key core.FileExtensionKey) error {
	tag, err := q.db.Exec(ctx,
		`DELETE FROM file_extensions WHERE id = $1 AND mime_type_id = $2`, key.ID, key.MimeTypeID)
	if err != nil {
		return mapError(err, nil)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrRowNotFound
	}
	return nil
}
