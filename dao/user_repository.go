package dao

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"tidyup-backend/model"
)

const userColumns = `id, name, email, password_hash, bio, location_id, role, token_balance, xp, level,
	current_streak, longest_streak, last_active_date, created_at, updated_at`

type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Insert(ctx context.Context, user *model.User) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO users (id, name, email, password_hash, bio, location_id, role, token_balance, xp, level, created_at, updated_at)
		VALUES (:id, :name, :email, :password_hash, :bio, :location_id, :role, :token_balance, :xp, :level, :created_at, :updated_at)
	`, user)
	if isDuplicate(err) {
		return ErrDuplicate
	}
	return err
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
}

func (r *UserRepository) getOne(ctx context.Context, query string, args ...interface{}) (*model.User, error) {
	var u model.User
	if err := r.db.GetContext(ctx, &u, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id, name, bio string, locationID *string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET name = ?, bio = ?, location_id = ? WHERE id = ?`, name, bio, locationID, id)
	return err
}

func (r *UserRepository) CreateSSOLink(ctx context.Context, link *model.SSOLink) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO sso_links (id, user_id, provider, subject, email, created_at)
		VALUES (:id, :user_id, :provider, :subject, :email, :created_at)
	`, link)
	if isDuplicate(err) {
		return ErrDuplicate
	}
	return err
}

func (r *UserRepository) GetSSOLink(ctx context.Context, provider, subject string) (*model.SSOLink, error) {
	var l model.SSOLink
	err := r.db.GetContext(ctx, &l, `
		SELECT id, user_id, provider, subject, email, created_at
		FROM sso_links WHERE provider = ? AND subject = ?
	`, provider, subject)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &l, nil
}

func (r *UserRepository) ListSSOLinks(ctx context.Context, userID string) ([]model.SSOLink, error) {
	var links []model.SSOLink
	err := r.db.SelectContext(ctx, &links, `
		SELECT id, user_id, provider, subject, email, created_at
		FROM sso_links WHERE user_id = ? ORDER BY created_at
	`, userID)
	return links, err
}

func (r *UserRepository) DeleteSSOLink(ctx context.Context, userID, provider string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sso_links WHERE user_id = ? AND provider = ?`, userID, provider)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *UserRepository) SetRole(ctx context.Context, id, role string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET role = ? WHERE id = ?`, role, id)
	return err
}
