package usecase

import (
	"context"
	"strings"

	"tidyup-backend/pkg/hub"
)

// HubAccess decides which hub groups a user may join.
type HubAccess struct {
	chats ChatStore
	txs   TransactionStore
}

func NewHubAccess(chats ChatStore, txs TransactionStore) *HubAccess {
	return &HubAccess{chats: chats, txs: txs}
}

func (a *HubAccess) Authorize(ctx context.Context, userID, group string) error {
	kind, id, ok := strings.Cut(group, ":")
	if !ok || id == "" {
		return hub.ErrForbidden
	}
	switch kind {
	case "chat":
		chat, err := a.chats.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if chat != nil && chat.IsParticipant(userID) {
			return nil
		}
	case "transaction":
		t, err := a.txs.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if t != nil && t.IsParty(userID) {
			return nil
		}
	}
	return hub.ErrForbidden
}
