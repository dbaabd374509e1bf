package repository

import (
	"context"
	"time"

	"github.com/divyesh007-delta/Placify-1/internal/model"
)

const adminColumns = `
	id, admin_id, email, name, password_hash, student_id, role, department,
	permissions, is_active, created_by, last_login, created_at, updated_at`

func scanAdmin(row interface{ Scan(...interface{}) error }) (model.Admin, error) {
	var ad model.Admin
	err := row.Scan(
		&ad.ID,
		&ad.AdminID,
		&ad.Email,
		&ad.Name,
		&ad.PasswordHash,
		&ad.StudentID,
		&ad.Role,
		&ad.Department,
		&ad.Permissions,
		&ad.IsActive,
		&ad.CreatedBy,
		&ad.LastLogin,
		&ad.CreatedAt,
		&ad.UpdatedAt,
	)
	return ad, err
}

func (s *Store) CreateAdmin(ctx context.Context, ad model.Admin) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO admins (
			id, admin_id, email, name, password_hash, student_id, role,
			department, permissions, is_active, created_by, last_login,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`, ad.ID, ad.AdminID, ad.Email, ad.Name, ad.PasswordHash, ad.StudentID,
		ad.Role, ad.Department, ad.Permissions, ad.IsActive, ad.CreatedBy,
		ad.LastLogin, ad.CreatedAt, ad.UpdatedAt)
	return err
}

func (s *Store) GetAdminByID(ctx context.Context, id string) (model.Admin, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+adminColumns+` FROM admins WHERE id = $1`, id)
	return scanAdmin(row)
}

func (s *Store) GetActiveAdminByEmail(ctx context.Context, email string) (model.Admin, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+adminColumns+` FROM admins WHERE email = $1 AND is_active = true
	`, email)
	return scanAdmin(row)
}

func (s *Store) AdminWithRoleExists(ctx context.Context, email, role string) bool {
	return exists(ctx, s.pool, `SELECT 1 FROM admins WHERE email = $1 AND role = $2`, email, role)
}

func (s *Store) SuperAdminExists(ctx context.Context) bool {
	return exists(ctx, s.pool, `SELECT 1 FROM admins WHERE role = 'super_admin'`)
}

func (s *Store) TouchAdminLogin(ctx context.Context, email string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE admins SET last_login = $2 WHERE email = $1
	`, email, time.Now().UTC())
	return err
}

func (s *Store) DeleteSubAdmin(ctx context.Context, email string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM admins WHERE email = $1 AND role = 'sub_admin'
	`, email)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) ListSubAdmins(ctx context.Context) ([]model.Admin, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+adminColumns+` FROM admins
		WHERE role = 'sub_admin'
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var admins []model.Admin
	for rows.Next() {
		ad, err := scanAdmin(rows)
		if err != nil {
			return nil, err
		}
		admins = append(admins, ad)
	}
	return admins, rows.Err()
}
