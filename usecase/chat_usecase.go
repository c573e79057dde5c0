package usecase

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"tidyup-backend/model"
	"tidyup-backend/pkg/hub"
	"tidyup-backend/pkg/idgen"
)

type ChatStore interface {
	// GetOrCreate returns the chat for (item, buyer), creating c if missing.
	GetOrCreate(ctx context.Context, c *model.Chat) (*model.Chat, error)
	GetByID(ctx context.Context, id string) (*model.Chat, error)
	ListByUser(ctx context.Context, userID string) ([]model.Chat, error)
	// CreateMessage stores m and bumps the chat's last_message_at.
	CreateMessage(ctx context.Context, m *model.Message) error
	ListMessages(ctx context.Context, chatID string, before *time.Time, limit int) ([]model.Message, error)
	MarkRead(ctx context.Context, chatID, readerID string, at time.Time) (int64, error)
}

type ChatUsecase struct {
	chats  ChatStore
	items  ItemStore
	hub    Broadcaster
	notify Notifier
	events EventRecorder
	log    *zap.Logger
	now    func() time.Time
}

func NewChatUsecase(chats ChatStore, items ItemStore, hub Broadcaster, notify Notifier, events EventRecorder, log *zap.Logger) *ChatUsecase {
	return &ChatUsecase{chats: chats, items: items, hub: hub, notify: notify, events: events, log: log, now: time.Now}
}

func (u *ChatUsecase) Open(ctx context.Context, buyerID, itemID string) (*model.Chat, error) {
	item, err := u.items.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil || item.Status == model.ItemDeleted {
		return nil, notFound("item")
	}
	if item.SellerID == buyerID {
		return nil, forbidden("cannot open a chat on your own item")
	}
	now := u.now()
	return u.chats.GetOrCreate(ctx, &model.Chat{
		ID:            idgen.New(),
		ItemID:        item.ID,
		BuyerID:       buyerID,
		SellerID:      item.SellerID,
		LastMessageAt: now,
		CreatedAt:     now,
	})
}

func (u *ChatUsecase) ListMine(ctx context.Context, userID string) ([]model.Chat, error) {
	chats, err := u.chats.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if chats == nil {
		chats = []model.Chat{}
	}
	return chats, nil
}

func (u *ChatUsecase) Messages(ctx context.Context, chatID, userID string, before *time.Time, limit int) ([]model.Message, error) {
	if _, err := u.participant(ctx, chatID, userID); err != nil {
		return nil, err
	}
	msgs, err := u.chats.ListMessages(ctx, chatID, before, clampLimit(limit, 50, 200))
	if err != nil {
		return nil, err
	}
	if msgs == nil {
		msgs = []model.Message{}
	}
	return msgs, nil
}

func (u *ChatUsecase) Send(ctx context.Context, chatID, senderID, content string) (*model.Message, error) {
	chat, err := u.participant(ctx, chatID, senderID)
	if err != nil {
		return nil, err
	}
	content = strings.TrimSpace(content)
	if n := utf8.RuneCountInString(content); n < 1 || n > 2000 {
		return nil, invalid("message must be 1 to 2000 characters")
	}

	msg := &model.Message{
		ID:        idgen.New(),
		ChatID:    chat.ID,
		SenderID:  senderID,
		Content:   content,
		CreatedAt: u.now(),
	}
	if err := u.chats.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}

	u.hub.Broadcast(hub.ChatGroup(chat.ID), "message.created", msg)
	recipient := chat.BuyerID
	if senderID == chat.BuyerID {
		recipient = chat.SellerID
	}
	u.notify.Notify(ctx, recipient, model.NotifyMessage, "New message", preview(content), chat.ID)
	track(ctx, u.events, u.log, senderID, model.EventMessageSent)
	return msg, nil
}

// HandleHubSend accepts "send" frames for chat groups.
func (u *ChatUsecase) HandleHubSend(ctx context.Context, userID, group, content string) error {
	chatID, ok := strings.CutPrefix(group, "chat:")
	if !ok || chatID == "" {
		return invalid("messages can only be sent to chat groups")
	}
	_, err := u.Send(ctx, chatID, userID, content)
	return err
}

func (u *ChatUsecase) MarkRead(ctx context.Context, chatID, userID string) (int64, error) {
	if _, err := u.participant(ctx, chatID, userID); err != nil {
		return 0, err
	}
	n, err := u.chats.MarkRead(ctx, chatID, userID, u.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		u.hub.Broadcast(hub.ChatGroup(chatID), "message.read", map[string]interface{}{"reader_id": userID, "count": n})
	}
	return n, nil
}

func (u *ChatUsecase) participant(ctx context.Context, chatID, userID string) (*model.Chat, error) {
	chat, err := u.chats.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if chat == nil || !chat.IsParticipant(userID) {
		return nil, notFound("chat")
	}
	return chat, nil
}

func preview(s string) string {
	if utf8.RuneCountInString(s) <= 80 {
		return s
	}
	return string([]rune(s)[:80]) + "…"
}
