package uploads

import (
	"context"
	"database/sql"
	"errors"

	"notes-upload/internal/wizard"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a new draft.
func (r *PGRepo) Create(ctx context.Context, rec Record) error {
	const query = `
INSERT INTO upload_drafts (
    id,
    owner_key,
    step,
    title,
    subject,
    faculty,
    description,
    unit,
    sem,
    file_key,
    file_name,
    file_mime,
    file_size,
    page_count,
    excerpt,
    created_at,
    updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`

	f := fileColumns(rec.File)
	_, err := r.DB.ExecContext(
		ctx,
		query,
		rec.ID,
		rec.OwnerKey,
		int(rec.Step),
		rec.Details.Title,
		rec.Details.Subject,
		rec.Details.Faculty,
		rec.Details.Description,
		rec.Details.Unit,
		rec.Details.Sem,
		f.key,
		f.name,
		f.mime,
		f.size,
		f.pages,
		f.excerpt,
		rec.CreatedAt,
		rec.UpdatedAt,
	)
	return err
}

// Get fetches a draft by ID for its owner.
func (r *PGRepo) Get(ctx context.Context, ownerKey, id string) (Record, error) {
	const query = `
SELECT id, owner_key, step, title, subject, faculty, description, unit, sem,
       file_key, file_name, file_mime, file_size, page_count, excerpt, created_at, updated_at
FROM upload_drafts
WHERE owner_key = $1 AND id = $2
LIMIT 1`
	var rec Record
	var step int
	var fileKey sql.NullString
	var ref FileRef
	err := r.DB.QueryRowContext(ctx, query, ownerKey, id).Scan(
		&rec.ID,
		&rec.OwnerKey,
		&step,
		&rec.Details.Title,
		&rec.Details.Subject,
		&rec.Details.Faculty,
		&rec.Details.Description,
		&rec.Details.Unit,
		&rec.Details.Sem,
		&fileKey,
		&ref.Name,
		&ref.MimeType,
		&ref.SizeBytes,
		&ref.PageCount,
		&ref.Excerpt,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}
	rec.Step = wizard.Step(step)
	if fileKey.Valid {
		ref.Key = fileKey.String
		rec.File = &ref
	}
	return rec, nil
}

// Update overwrites the mutable columns of a draft.
func (r *PGRepo) Update(ctx context.Context, rec Record) error {
	const query = `
UPDATE upload_drafts
SET step = $1, title = $2, subject = $3, faculty = $4, description = $5, unit = $6, sem = $7,
    file_key = $8, file_name = $9, file_mime = $10, file_size = $11, page_count = $12, excerpt = $13,
    updated_at = $14
WHERE owner_key = $15 AND id = $16`

	f := fileColumns(rec.File)
	res, err := r.DB.ExecContext(
		ctx,
		query,
		int(rec.Step),
		rec.Details.Title,
		rec.Details.Subject,
		rec.Details.Faculty,
		rec.Details.Description,
		rec.Details.Unit,
		rec.Details.Sem,
		f.key,
		f.name,
		f.mime,
		f.size,
		f.pages,
		f.excerpt,
		rec.UpdatedAt,
		rec.OwnerKey,
		rec.ID,
	)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

// Delete removes a draft.
func (r *PGRepo) Delete(ctx context.Context, ownerKey, id string) error {
	const query = `DELETE FROM upload_drafts WHERE owner_key = $1 AND id = $2`
	res, err := r.DB.ExecContext(ctx, query, ownerKey, id)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

type fileCols struct {
	key     sql.NullString
	name    string
	mime    string
	size    int64
	pages   int
	excerpt string
}

func fileColumns(f *FileRef) fileCols {
	if f == nil {
		return fileCols{}
	}
	return fileCols{
		key:     sql.NullString{String: f.Key, Valid: f.Key != ""},
		name:    f.Name,
		mime:    f.MimeType,
		size:    f.SizeBytes,
		pages:   f.PageCount,
		excerpt: f.Excerpt,
	}
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

var _ Repo = (*PGRepo)(nil)
