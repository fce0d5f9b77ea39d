package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/creostudios/backend/pkg/models"
)

// Supersede removes any prior challenge for the email before inserting the
// new one, so at most one row per email survives.
func (r *SQLiteRepo) Supersede(ctx context.Context, o *models.OTP) (int64, error) {
	if o == nil {
		return 0, fmt.Errorf("otp is nil")
	}

	if _, err := r.conn.Exec(ctx, `DELETE FROM otps WHERE email = ?`, o.Email); err != nil {
		return 0, err
	}

	created := o.Created
	if created == 0 {
		created = now()
	}
	res, err := r.conn.Exec(ctx, `INSERT INTO otps (email, code, created) VALUES (?, ?, ?)`, o.Email, o.Code, created)
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

func (r *SQLiteRepo) GetOTPByEmail(ctx context.Context, email string) (*models.OTP, error) {
	row := r.conn.QueryRow(ctx, `SELECT id, email, code, created FROM otps WHERE email = ? ORDER BY created DESC LIMIT 1`, email)
	var o models.OTP
	if err := row.Scan(&o.ID, &o.Email, &o.Code, &o.Created); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, err
	}

	return &o, nil
}

func (r *SQLiteRepo) DeleteOTPByEmail(ctx context.Context, email string) error {
	_, err := r.conn.Exec(ctx, `DELETE FROM otps WHERE email = ?`, email)
	return err
}
