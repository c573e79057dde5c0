package model

import "time"

const (
	NotifyTransaction = "transaction"
	NotifyMessage     = "message"
	NotifyComment     = "comment"
	NotifyQuest       = "quest"
	NotifyAchievement = "achievement"
	NotifyLevelUp     = "level_up"
)

// MaxCodeLen is the width of quest and achievement codes, which also travel
// in Notification.RefID.
const MaxCodeLen = 50

type Notification struct {
	ID        string     `json:"id" db:"id"`
	UserID    string     `json:"user_id" db:"user_id"`
	Kind      string     `json:"kind" db:"kind"`
	Title     string     `json:"title" db:"title"`
	Body      string     `json:"body" db:"body"`
	RefID     string     `json:"ref_id,omitempty" db:"ref_id"`
	ReadAt    *time.Time `json:"read_at,omitempty" db:"read_at"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

type AuditLog struct {
	ID         string    `json:"id" db:"id"`
	ActorID    string    `json:"actor_id" db:"actor_id"`
	Action     string    `json:"action" db:"action"`
	TargetType string    `json:"target_type" db:"target_type"`
	TargetID   string    `json:"target_id" db:"target_id"`
	Detail     string    `json:"detail" db:"detail"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
