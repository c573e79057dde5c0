package dao

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"tidyup-backend/model"
)

type NotificationRepository struct {
	db *sqlx.DB
}

func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, n *model.Notification) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO notifications (id, user_id, kind, title, body, ref_id, created_at)
		VALUES (:id, :user_id, :kind, :title, :body, :ref_id, :created_at)
	`, n)
	return err
}

func (r *NotificationRepository) GetByID(ctx context.Context, id string) (*model.Notification, error) {
	var n model.Notification
	return getOrNil(&n, r.db.GetContext(ctx, &n, `
		SELECT id, user_id, kind, title, body, ref_id, read_at, created_at FROM notifications WHERE id = ?
	`, id))
}

func (r *NotificationRepository) ListByUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]model.Notification, error) {
	query := `SELECT id, user_id, kind, title, body, ref_id, read_at, created_at FROM notifications WHERE user_id = ?`
	if unreadOnly {
		query += " AND read_at IS NULL"
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT ?"

	var list []model.Notification
	err := r.db.SelectContext(ctx, &list, query, userID, limit)
	return list, err
}

func (r *NotificationRepository) MarkRead(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE notifications SET read_at = ? WHERE id = ? AND read_at IS NULL`, at, id)
	return err
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID string, at time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE notifications SET read_at = ? WHERE user_id = ? AND read_at IS NULL`, at, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *NotificationRepository) CountUnread(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM notifications WHERE user_id = ? AND read_at IS NULL`, userID)
	return n, err
}
