package model

import "time"

const (
	PostPublished = "published"
	PostDeleted   = "deleted"
)

type Post struct {
	ID           string         `json:"id" db:"id"`
	AuthorID     string         `json:"author_id" db:"author_id"`
	Title        string         `json:"title" db:"title"`
	Body         string         `json:"body" db:"body"`
	Status       string         `json:"status" db:"status"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at" db:"updated_at"`
	CommentCount int            `json:"comment_count" db:"comment_count"`
	Reactions    map[string]int `json:"reactions,omitempty" db:"-"`
}

type Comment struct {
	ID        string    `json:"id" db:"id"`
	PostID    string    `json:"post_id" db:"post_id"`
	AuthorID  string    `json:"author_id" db:"author_id"`
	Body      string    `json:"body" db:"body"`
	Deleted   bool      `json:"-" db:"deleted"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

var ReactionKinds = []string{"like", "love", "laugh", "wow", "sad"}

type Reaction struct {
	PostID string `json:"post_id" db:"post_id"`
	UserID string `json:"user_id" db:"user_id"`
	Kind   string `json:"kind" db:"kind"`
}
