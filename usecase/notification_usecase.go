package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"tidyup-backend/model"
	"tidyup-backend/pkg/hub"
	"tidyup-backend/pkg/idgen"
)

type NotificationStore interface {
	Create(ctx context.Context, n *model.Notification) error
	GetByID(ctx context.Context, id string) (*model.Notification, error)
	ListByUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]model.Notification, error)
	MarkRead(ctx context.Context, id string, at time.Time) error
	MarkAllRead(ctx context.Context, userID string, at time.Time) (int64, error)
	CountUnread(ctx context.Context, userID string) (int, error)
}

type NotificationUsecase struct {
	store NotificationStore
	hub   Broadcaster
	log   *zap.Logger
	now   func() time.Time
}

func NewNotificationUsecase(store NotificationStore, hub Broadcaster, log *zap.Logger) *NotificationUsecase {
	return &NotificationUsecase{store: store, hub: hub, log: log, now: time.Now}
}

// Notify persists a notification and pushes it to the user's hub group.
func (u *NotificationUsecase) Notify(ctx context.Context, userID, kind, title, body, refID string) {
	n := &model.Notification{
		ID:        idgen.New(),
		UserID:    userID,
		Kind:      kind,
		Title:     title,
		Body:      body,
		RefID:     refID,
		CreatedAt: u.now(),
	}
	if err := u.store.Create(ctx, n); err != nil {
		u.log.Warn("failed to store notification", zap.String("user_id", userID), zap.String("kind", kind), zap.Error(err))
		return
	}
	if u.hub != nil {
		u.hub.Broadcast(hub.UserGroup(userID), "notification.created", n)
	}
}

func (u *NotificationUsecase) List(ctx context.Context, userID string, unreadOnly bool, limit int) ([]model.Notification, error) {
	return u.store.ListByUser(ctx, userID, unreadOnly, clampLimit(limit, 50, 200))
}

func (u *NotificationUsecase) MarkRead(ctx context.Context, id, userID string) error {
	n, err := u.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if n == nil || n.UserID != userID {
		return notFound("notification")
	}
	if n.ReadAt != nil {
		return nil
	}
	return u.store.MarkRead(ctx, id, u.now())
}

func (u *NotificationUsecase) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return u.store.MarkAllRead(ctx, userID, u.now())
}

func (u *NotificationUsecase) UnreadCount(ctx context.Context, userID string) (int, error) {
	return u.store.CountUnread(ctx, userID)
}
