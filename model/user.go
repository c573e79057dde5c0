package model

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID             string     `json:"id" db:"id"`
	Name           string     `json:"name" db:"name"`
	Email          string     `json:"email" db:"email"`
	PasswordHash   *string    `json:"-" db:"password_hash"` // Nullable for SSO-only accounts
	Bio            string     `json:"bio" db:"bio"`
	LocationID     *string    `json:"location_id,omitempty" db:"location_id"`
	Role           string     `json:"role" db:"role"`
	TokenBalance   float64    `json:"token_balance" db:"token_balance"`
	XP             int        `json:"xp" db:"xp"`
	Level          int        `json:"level" db:"level"`
	CurrentStreak  int        `json:"current_streak" db:"current_streak"`
	LongestStreak  int        `json:"longest_streak" db:"longest_streak"`
	LastActiveDate *time.Time `json:"last_active_date,omitempty" db:"last_active_date"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}

// PublicProfile is what other users can see.
type PublicProfile struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Bio           string    `json:"bio"`
	Level         int       `json:"level"`
	XP            int       `json:"xp"`
	CurrentStreak int       `json:"current_streak"`
	LongestStreak int       `json:"longest_streak"`
	CreatedAt     time.Time `json:"created_at"`
}

func (u *User) Public() PublicProfile {
	return PublicProfile{
		ID:            u.ID,
		Name:          u.Name,
		Bio:           u.Bio,
		Level:         u.Level,
		XP:            u.XP,
		CurrentStreak: u.CurrentStreak,
		LongestStreak: u.LongestStreak,
		CreatedAt:     u.CreatedAt,
	}
}

type SSOLink struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Provider  string    `json:"provider" db:"provider"`
	Subject   string    `json:"subject" db:"subject"`
	Email     string    `json:"email" db:"email"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
