package model

import "time"

type Chat struct {
	ID            string    `json:"id" db:"id"`
	ItemID        string    `json:"item_id" db:"item_id"`
	BuyerID       string    `json:"buyer_id" db:"buyer_id"`
	SellerID      string    `json:"seller_id" db:"seller_id"`
	LastMessageAt time.Time `json:"last_message_at" db:"last_message_at"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UnreadCount   int       `json:"unread_count" db:"unread_count"`
}

func (c *Chat) IsParticipant(userID string) bool {
	return c.BuyerID == userID || c.SellerID == userID
}

type Message struct {
	ID        string     `json:"id" db:"id"`
	ChatID    string     `json:"chat_id" db:"chat_id"`
	SenderID  string     `json:"sender_id" db:"sender_id"`
	Content   string     `json:"content" db:"content"`
	ReadAt    *time.Time `json:"read_at,omitempty" db:"read_at"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}
