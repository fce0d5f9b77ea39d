package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/creostudios/backend/pkg/models"
)

func (r *SQLiteRepo) CreateFile(ctx context.Context, f *models.UploadedFile) (int64, error) {
	if f == nil {
		return 0, fmt.Errorf("file is nil")
	}

	created := f.Created
	if created == 0 {
		created = now()
	}
	res, err := r.conn.Exec(ctx, `INSERT INTO uploaded_files (filename, original_filename, file_type, mime_type, file_data, file_size, uploaded_by, created) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		f.Filename, f.OriginalFilename, f.FileType, f.MimeType, f.Data, f.Size, f.UploadedBy, created)
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

func (r *SQLiteRepo) GetFileByID(ctx context.Context, id int64) (*models.UploadedFile, error) {
	row := r.conn.QueryRow(ctx, `SELECT id, filename, original_filename, file_type, mime_type, file_data, file_size, uploaded_by, created FROM uploaded_files WHERE id = ?`, id)
	var f models.UploadedFile
	if err := row.Scan(&f.ID, &f.Filename, &f.OriginalFilename, &f.FileType, &f.MimeType, &f.Data, &f.Size, &f.UploadedBy, &f.Created); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, err
	}

	return &f, nil
}

// ListFiles returns file metadata newest-first. The blob itself is not
// selected; Data stays nil on listed rows.
func (r *SQLiteRepo) ListFiles(ctx context.Context) ([]models.UploadedFile, error) {
	rows, err := r.conn.QueryRows(ctx, `SELECT id, filename, original_filename, file_type, mime_type, file_size, uploaded_by, created FROM uploaded_files ORDER BY created DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.UploadedFile
	for rows.Next() {
		var f models.UploadedFile
		if err := rows.Scan(&f.ID, &f.Filename, &f.OriginalFilename, &f.FileType, &f.MimeType, &f.Size, &f.UploadedBy, &f.Created); err != nil {
			return nil, err
		}

		out = append(out, f)
	}

	return out, rows.Err()
}
