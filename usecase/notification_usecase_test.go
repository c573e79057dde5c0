package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tidyup-backend/model"
	"tidyup-backend/pkg/hub"
)

type notificationStore struct {
	rows      map[string]*model.Notification
	createErr error
}

func (s *notificationStore) Create(_ context.Context, n *model.Notification) error {
	if s.createErr != nil {
		return s.createErr
	}
	cp := *n
	s.rows[n.ID] = &cp
	return nil
}

func (s *notificationStore) GetByID(_ context.Context, id string) (*model.Notification, error) {
	n, ok := s.rows[id]
	if !ok {
		return nil, nil
	}
	cp := *n
	return &cp, nil
}

func (s *notificationStore) ListByUser(_ context.Context, userID string, unreadOnly bool, limit int) ([]model.Notification, error) {
	var out []model.Notification
	for _, n := range s.rows {
		if n.UserID == userID && (!unreadOnly || n.ReadAt == nil) && len(out) < limit {
			out = append(out, *n)
		}
	}
	return out, nil
}

func (s *notificationStore) MarkRead(_ context.Context, id string, at time.Time) error {
	s.rows[id].ReadAt = &at
	return nil
}

func (s *notificationStore) MarkAllRead(_ context.Context, userID string, at time.Time) (int64, error) {
	var n int64
	for _, row := range s.rows {
		if row.UserID == userID && row.ReadAt == nil {
			row.ReadAt = &at
			n++
		}
	}
	return n, nil
}

func (s *notificationStore) CountUnread(_ context.Context, userID string) (int, error) {
	n := 0
	for _, row := range s.rows {
		if row.UserID == userID && row.ReadAt == nil {
			n++
		}
	}
	return n, nil
}

func TestNotifications(t *testing.T) {
	store := &notificationStore{rows: map[string]*model.Notification{}}
	rec := &recorder{}
	u := NewNotificationUsecase(store, rec, zap.NewNop())
	ctx := context.Background()

	u.Notify(ctx, "u1", model.NotifyMessage, "New message", "hi", "chat_1")
	u.Notify(ctx, "u1", model.NotifyQuest, "Quest complete", "", "daily_chatter")
	u.Notify(ctx, "u2", model.NotifyMessage, "New message", "yo", "chat_2")
	assert.Equal(t, []string{
		hub.UserGroup("u1") + " notification.created",
		hub.UserGroup("u1") + " notification.created",
		hub.UserGroup("u2") + " notification.created",
	}, rec.broadcasts)

	list, err := u.List(ctx, "u1", true, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)

	assert.ErrorIs(t, u.MarkRead(ctx, list[0].ID, "u2"), ErrNotFound)
	require.NoError(t, u.MarkRead(ctx, list[0].ID, "u1"))
	require.NoError(t, u.MarkRead(ctx, list[0].ID, "u1"))

	count, err := u.UnreadCount(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	n, err := u.MarkAllRead(ctx, "u1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	count, err = u.UnreadCount(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestNotifySwallowsStoreErrors(t *testing.T) {
	store := &notificationStore{rows: map[string]*model.Notification{}, createErr: errors.New("db down")}
	rec := &recorder{}
	u := NewNotificationUsecase(store, rec, zap.NewNop())

	u.Notify(context.Background(), "u1", model.NotifyMessage, "New message", "hi", "chat_1")
	assert.Empty(t, rec.broadcasts)
}

type auditStore struct {
	rows          []model.AuditLog
	limit, offset int
}

func (s *auditStore) Create(_ context.Context, l *model.AuditLog) error {
	s.rows = append(s.rows, *l)
	return nil
}

func (s *auditStore) List(_ context.Context, limit, offset int) ([]model.AuditLog, error) {
	s.limit, s.offset = limit, offset
	return s.rows, nil
}

func TestAudit(t *testing.T) {
	store := &auditStore{}
	u := NewAuditUsecase(store, zap.NewNop())
	ctx := context.Background()

	u.Audit(ctx, "u1", "item.delete", "item", "item_1", "Lamp")
	require.Len(t, store.rows, 1)
	assert.Equal(t, "item.delete", store.rows[0].Action)
	assert.NotEmpty(t, store.rows[0].ID)

	_, err := u.List(ctx, Actor{UserID: "u1", Role: model.RoleUser}, 10, 0)
	assert.ErrorIs(t, err, ErrForbidden)

	logs, err := u.List(ctx, Actor{UserID: "root", Role: model.RoleAdmin}, 1000, -5)
	require.NoError(t, err)
	assert.Len(t, logs, 1)
	assert.Equal(t, 200, store.limit)
	assert.Equal(t, 0, store.offset)
}
