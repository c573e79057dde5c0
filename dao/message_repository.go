package dao

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"tidyup-backend/model"
)

// MessageRepository stores chats and their messages.
type MessageRepository struct {
	db *sqlx.DB
}

func NewMessageRepository(db *sqlx.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) GetOrCreate(ctx context.Context, c *model.Chat) (*model.Chat, error) {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT IGNORE INTO chats (id, item_id, buyer_id, seller_id, last_message_at, created_at)
		VALUES (:id, :item_id, :buyer_id, :seller_id, :last_message_at, :created_at)
	`, c)
	if err != nil {
		return nil, err
	}
	var chat model.Chat
	err = r.db.GetContext(ctx, &chat, `
		SELECT id, item_id, buyer_id, seller_id, last_message_at, created_at
		FROM chats WHERE item_id = ? AND buyer_id = ?
	`, c.ItemID, c.BuyerID)
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

func (r *MessageRepository) GetByID(ctx context.Context, id string) (*model.Chat, error) {
	var chat model.Chat
	return getOrNil(&chat, r.db.GetContext(ctx, &chat, `
		SELECT id, item_id, buyer_id, seller_id, last_message_at, created_at
		FROM chats WHERE id = ?
	`, id))
}

// ListByUser returns the user's chats, most recently active first, with the
// number of messages the user has not read yet.
func (r *MessageRepository) ListByUser(ctx context.Context, userID string) ([]model.Chat, error) {
	var chats []model.Chat
	err := r.db.SelectContext(ctx, &chats, `
		SELECT c.id, c.item_id, c.buyer_id, c.seller_id, c.last_message_at, c.created_at,
			(SELECT COUNT(*) FROM messages m
			 WHERE m.chat_id = c.id AND m.sender_id <> ? AND m.read_at IS NULL) AS unread_count
		FROM chats c
		WHERE c.buyer_id = ? OR c.seller_id = ?
		ORDER BY c.last_message_at DESC
	`, userID, userID, userID)
	return chats, err
}

func (r *MessageRepository) CreateMessage(ctx context.Context, m *model.Message) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.NamedExecContext(ctx, `
		INSERT INTO messages (id, chat_id, sender_id, content, created_at)
		VALUES (:id, :chat_id, :sender_id, :content, :created_at)
	`, m); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE chats SET last_message_at = ? WHERE id = ?`, m.CreatedAt, m.ChatID); err != nil {
		return err
	}
	return tx.Commit()
}

// ListMessages returns up to limit messages older than before (or the latest
// ones when before is nil) in chronological order.
func (r *MessageRepository) ListMessages(ctx context.Context, chatID string, before *time.Time, limit int) ([]model.Message, error) {
	query := `SELECT id, chat_id, sender_id, content, read_at, created_at FROM messages WHERE chat_id = ?`
	args := []interface{}{chatID}
	if before != nil {
		query += " AND created_at < ?"
		args = append(args, *before)
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT ?"
	args = append(args, limit)

	var msgs []model.Message
	if err := r.db.SelectContext(ctx, &msgs, query, args...); err != nil {
		return nil, err
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

func (r *MessageRepository) MarkRead(ctx context.Context, chatID, readerID string, at time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE messages SET read_at = ?
		WHERE chat_id = ? AND sender_id <> ? AND read_at IS NULL
	`, at, chatID, readerID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
