package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/creostudios/backend/pkg/models"
)

func (r *SQLiteRepo) CreateUser(ctx context.Context, u *models.User) (int64, error) {
	if u == nil {
		return 0, fmt.Errorf("user is nil")
	}

	created := u.Created
	if created == 0 {
		created = now()
	}
	res, err := r.conn.Exec(ctx, `INSERT INTO users (name, email, password_hash, verified, is_admin, created) VALUES (?, ?, ?, ?, ?, ?)`,
		u.Name, u.Email, u.PasswordHash, boolToInt(u.Verified), boolToInt(u.IsAdmin), created)
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

func (r *SQLiteRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	row := r.conn.QueryRow(ctx, `SELECT id, name, email, password_hash, verified, is_admin, created FROM users WHERE email = ?`, email)
	var u models.User
	var verified, isAdmin int
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &verified, &isAdmin, &u.Created); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, err
	}

	u.Verified = verified != 0
	u.IsAdmin = isAdmin != 0

	return &u, nil
}

func (r *SQLiteRepo) SetVerified(ctx context.Context, email string) error {
	_, err := r.conn.Exec(ctx, `UPDATE users SET verified = 1 WHERE email = ?`, email)
	return err
}

func (r *SQLiteRepo) SetAdmin(ctx context.Context, email string, admin bool) error {
	_, err := r.conn.Exec(ctx, `UPDATE users SET is_admin = ? WHERE email = ?`, boolToInt(admin), email)
	return err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
