package dao

import (
	"context"

	"github.com/jmoiron/sqlx"

	"tidyup-backend/model"
)

type AuditRepository struct {
	db *sqlx.DB
}

func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Create(ctx context.Context, l *model.AuditLog) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO audit_logs (id, actor_id, action, target_type, target_id, detail, created_at)
		VALUES (:id, :actor_id, :action, :target_type, :target_id, :detail, :created_at)
	`, l)
	return err
}

func (r *AuditRepository) List(ctx context.Context, limit, offset int) ([]model.AuditLog, error) {
	var list []model.AuditLog
	err := r.db.SelectContext(ctx, &list, `
		SELECT id, actor_id, action, target_type, target_id, detail, created_at
		FROM audit_logs ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?
	`, limit, offset)
	return list, err
}
