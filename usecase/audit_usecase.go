package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"tidyup-backend/model"
	"tidyup-backend/pkg/idgen"
)

type AuditStore interface {
	Create(ctx context.Context, l *model.AuditLog) error
	List(ctx context.Context, limit, offset int) ([]model.AuditLog, error)
}

type AuditUsecase struct {
	store AuditStore
	log   *zap.Logger
}

func NewAuditUsecase(store AuditStore, log *zap.Logger) *AuditUsecase {
	return &AuditUsecase{store: store, log: log}
}

func (u *AuditUsecase) Audit(ctx context.Context, actorID, action, targetType, targetID, detail string) {
	entry := &model.AuditLog{
		ID:         idgen.New(),
		ActorID:    actorID,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		Detail:     detail,
		CreatedAt:  time.Now(),
	}
	if err := u.store.Create(ctx, entry); err != nil {
		u.log.Error("failed to write audit log", zap.String("action", action), zap.String("target_id", targetID), zap.Error(err))
	}
}

func (u *AuditUsecase) List(ctx context.Context, actor Actor, limit, offset int) ([]model.AuditLog, error) {
	if !actor.IsAdmin() {
		return nil, forbidden("admin access only")
	}
	if offset < 0 {
		offset = 0
	}
	return u.store.List(ctx, clampLimit(limit, 50, 200), offset)
}
