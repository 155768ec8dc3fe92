package repository

import (
	"context"
	"database/sql"
	"time"

	"fleet-admin/internal/shared/model"
)

const userColumns = `id, full_name, email, password_digest, company, profile, phone, status, is_protected, created_at, updated_at`

func scanUser(row interface{ Scan(...interface{}) error }) (*model.User, error) {
	u := &model.User{}
	var company, phone sql.NullString
	err := row.Scan(&u.ID, &u.FullName, &u.Email, &u.PasswordDigest,
		&company, &u.Profile, &phone, &u.Status, &u.IsProtected,
		&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	u.Company = company.String
	u.Phone = phone.String
	return u, nil
}

// CreateUser 创建员工账号
func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	_, err := s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO users (`+userColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`),
		user.ID, user.FullName, user.Email, user.PasswordDigest,
		user.Company, user.Profile, user.Phone, user.Status, user.IsProtected,
		user.CreatedAt, user.UpdatedAt,
	)
	return s.wrapWriteErr(err)
}

// GetUserByID 通过 ID 查找账号
func (s *Store) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, s.rebind(
		`SELECT `+userColumns+` FROM users WHERE id = $1`), id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return u, err
}

// GetUserByEmail 通过规范化邮箱查找账号
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, s.rebind(
		`SELECT `+userColumns+` FROM users WHERE email = $1`), model.NormalizeEmail(email)))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return u, err
}

// ListUsers 列出所有账号
func (s *Store) ListUsers(ctx context.Context) ([]*model.User, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT `+userColumns+` FROM users ORDER BY created_at DESC`))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []*model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// UpdateUser 整体更新账号记录
func (s *Store) UpdateUser(ctx context.Context, user *model.User) error {
	user.UpdatedAt = time.Now()
	res, err := s.db.ExecContext(ctx, s.rebind(
		`UPDATE users SET full_name = $1, email = $2, password_digest = $3, company = $4,
		        profile = $5, phone = $6, status = $7, is_protected = $8, updated_at = $9
		 WHERE id = $10`),
		user.FullName, user.Email, user.PasswordDigest, user.Company,
		user.Profile, user.Phone, user.Status, user.IsProtected, user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		return s.wrapWriteErr(err)
	}
	return affectedOrNotFound(res)
}

// UpdateUserDigest 只更新密码摘要
func (s *Store) UpdateUserDigest(ctx context.Context, id, digest string) error {
	res, err := s.db.ExecContext(ctx, s.rebind(
		`UPDATE users SET password_digest = $1, updated_at = $2 WHERE id = $3`),
		digest, time.Now(), id,
	)
	if err != nil {
		return err
	}
	return affectedOrNotFound(res)
}

// DeleteUser 删除账号
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM users WHERE id = $1`), id)
	if err != nil {
		return err
	}
	return affectedOrNotFound(res)
}

// CountUsers 账号总数
func (s *Store) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}
