package model

import "time"

// Gamification events recorded by the usecases.
const (
	EventItemListed     = "item_listed"
	EventTradeCompleted = "trade_completed"
	EventPostCreated    = "post_created"
	EventCommentCreated = "comment_created"
	EventMessageSent    = "message_sent"
	EventDailyLogin     = "daily_login"
)

const (
	PeriodDaily  = "daily"
	PeriodWeekly = "weekly"
	PeriodOnce   = "once"
)

type Quest struct {
	Code         string  `json:"code" yaml:"code"`
	Title        string  `json:"title" yaml:"title"`
	Event        string  `json:"event" yaml:"event"`
	Target       int     `json:"target" yaml:"target"`
	Period       string  `json:"period" yaml:"period"`
	RewardXP     int     `json:"reward_xp" yaml:"reward_xp"`
	RewardTokens float64 `json:"reward_tokens" yaml:"reward_tokens"`
}

type Achievement struct {
	Code         string  `json:"code" yaml:"code"`
	Title        string  `json:"title" yaml:"title"`
	Event        string  `json:"event" yaml:"event"`
	Threshold    int     `json:"threshold" yaml:"threshold"`
	RewardXP     int     `json:"reward_xp" yaml:"reward_xp"`
	RewardTokens float64 `json:"reward_tokens" yaml:"reward_tokens"`
}

type QuestProgress struct {
	UserID      string     `json:"-" db:"user_id"`
	QuestCode   string     `json:"quest_code" db:"quest_code"`
	PeriodKey   string     `json:"period_key" db:"period_key"`
	Progress    int        `json:"progress" db:"progress"`
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`
}

type UserAchievement struct {
	UserID          string    `json:"-" db:"user_id"`
	AchievementCode string    `json:"achievement_code" db:"achievement_code"`
	UnlockedAt      time.Time `json:"unlocked_at" db:"unlocked_at"`
}

type QuestStatus struct {
	Quest
	PeriodKey string `json:"period_key"`
	Progress  int    `json:"progress"`
	Completed bool   `json:"completed"`
}

type GamificationStatus struct {
	XP            int               `json:"xp"`
	Level         int               `json:"level"`
	NextLevelXP   int               `json:"next_level_xp"` // 0 at max level
	CurrentStreak int               `json:"current_streak"`
	LongestStreak int               `json:"longest_streak"`
	Quests        []QuestStatus     `json:"quests"`
	Achievements  []UserAchievement `json:"achievements"`
}

type LeaderboardEntry struct {
	Rank   int    `json:"rank"`
	UserID string `json:"user_id" db:"user_id"`
	Name   string `json:"name" db:"name"`
	XP     int    `json:"xp" db:"xp"`
	Level  int    `json:"level" db:"level"`
}
