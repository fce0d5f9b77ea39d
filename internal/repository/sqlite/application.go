package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/creostudios/backend/pkg/models"
)

const applicationColumns = `id, client_name, city, service_type, project_description, reference_images, days, user_email, status, created, delivery_file_url, delivery_apk_url, delivery_github_url, delivery_deployed_url, delivery_notes, delivered_at`

func (r *SQLiteRepo) CreateApplication(ctx context.Context, a *models.Application) (int64, error) {
	if a == nil {
		return 0, fmt.Errorf("application is nil")
	}

	created := a.Created
	if created == 0 {
		created = now()
	}
	status := a.Status
	if status == "" {
		status = models.StatusPending
	}
	res, err := r.conn.Exec(ctx, `INSERT INTO applications (client_name, city, service_type, project_description, reference_images, days, user_email, status, created) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ClientName, a.City, string(a.ServiceType), a.ProjectDescription, a.ReferenceImages, a.Days, a.UserEmail, string(status), created)
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

func (r *SQLiteRepo) GetApplicationByID(ctx context.Context, id int64) (*models.Application, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+applicationColumns+` FROM applications WHERE id = ?`, id)
	a, err := scanApplication(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, err
	}

	return a, nil
}

func (r *SQLiteRepo) ListByOwner(ctx context.Context, email string) ([]models.Application, error) {
	rows, err := r.conn.QueryRows(ctx, `SELECT `+applicationColumns+` FROM applications WHERE user_email = ? ORDER BY created DESC, id DESC`, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectApplications(rows)
}

func (r *SQLiteRepo) ListAll(ctx context.Context) ([]models.Application, error) {
	rows, err := r.conn.QueryRows(ctx, `SELECT `+applicationColumns+` FROM applications ORDER BY created DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectApplications(rows)
}

func (r *SQLiteRepo) UpdateStatus(ctx context.Context, id int64, status models.Status) error {
	_, err := r.conn.Exec(ctx, `UPDATE applications SET status = ? WHERE id = ?`, string(status), id)
	return err
}

// SetDelivery writes every delivery field, stamps delivered_at and forces the
// status to completed in a single statement.
func (r *SQLiteRepo) SetDelivery(ctx context.Context, id int64, d *models.Delivery, deliveredAt int64) error {
	if d == nil {
		return fmt.Errorf("delivery is nil")
	}

	_, err := r.conn.Exec(ctx, `UPDATE applications SET delivery_file_url = ?, delivery_apk_url = ?, delivery_github_url = ?, delivery_deployed_url = ?, delivery_notes = ?, delivered_at = ?, status = ? WHERE id = ?`,
		d.FileURL, d.APKURL, d.GithubURL, d.DeployedURL, d.Notes, deliveredAt, string(models.StatusCompleted), id)
	return err
}

func scanApplication(scan func(dest ...any) error) (*models.Application, error) {
	var a models.Application
	var deliveredAt sql.NullInt64
	if err := scan(&a.ID, &a.ClientName, &a.City, &a.ServiceType, &a.ProjectDescription, &a.ReferenceImages, &a.Days, &a.UserEmail, &a.Status, &a.Created,
		&a.DeliveryFileURL, &a.DeliveryAPKURL, &a.DeliveryGithubURL, &a.DeliveryDeployedURL, &a.DeliveryNotes, &deliveredAt); err != nil {
		return nil, err
	}

	if deliveredAt.Valid {
		a.DeliveredAt = &deliveredAt.Int64
	}

	return &a, nil
}

func collectApplications(rows *sql.Rows) ([]models.Application, error) {
	var out []models.Application
	for rows.Next() {
		a, err := scanApplication(rows.Scan)
		if err != nil {
			return nil, err
		}

		out = append(out, *a)
	}

	return out, rows.Err()
}
