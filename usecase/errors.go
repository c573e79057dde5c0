package usecase

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"tidyup-backend/dao"
	"tidyup-backend/model"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")

	ErrInsufficientTokens = dao.ErrInsufficientTokens
)

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID string
	Role   string
}

func (a Actor) IsAdmin() bool { return a.Role == model.RoleAdmin }

// EventRecorder feeds gamification.
type EventRecorder interface {
	Record(ctx context.Context, userID, event string) error
}

// Notifier delivers user notifications. Failures are logged, not returned.
type Notifier interface {
	Notify(ctx context.Context, userID, kind, title, body, refID string)
}

// Auditor writes the audit trail. Failures are logged, not returned.
type Auditor interface {
	Audit(ctx context.Context, actorID, action, targetType, targetID, detail string)
}

// Broadcaster pushes events to hub groups.
type Broadcaster interface {
	Broadcast(group, event string, data interface{})
}

// track records a gamification event without failing the caller.
func track(ctx context.Context, rec EventRecorder, log *zap.Logger, userID, event string) {
	if rec == nil {
		return
	}
	if err := rec.Record(ctx, userID, event); err != nil {
		log.Warn("gamification event failed", zap.String("user_id", userID), zap.String("event", event), zap.Error(err))
	}
}

// kindError carries a user-facing message and matches one of the sentinels above.
type kindError struct {
	msg  string
	kind error
}

func (e *kindError) Error() string        { return e.msg }
func (e *kindError) Is(target error) bool { return target == e.kind }

func invalid(msg string) error      { return &kindError{msg: msg, kind: ErrInvalidInput} }
func notFound(what string) error    { return &kindError{msg: what + " not found", kind: ErrNotFound} }
func forbidden(msg string) error    { return &kindError{msg: msg, kind: ErrForbidden} }
func conflict(msg string) error     { return &kindError{msg: msg, kind: ErrConflict} }
func unauthorized(msg string) error { return &kindError{msg: msg, kind: ErrUnauthorized} }

func clampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
