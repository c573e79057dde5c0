package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"tidyup-backend/dao"
	"tidyup-backend/model"
	"tidyup-backend/pkg/hub"
	"tidyup-backend/pkg/idgen"
	"tidyup-backend/pkg/metrics"
)

type TransactionStore interface {
	// Open debits the buyer, holds the escrow and reserves the item atomically.
	Open(ctx context.Context, t *model.Transaction, e *model.Escrow) error
	GetByID(ctx context.Context, id string) (*model.Transaction, error)
	ListByUser(ctx context.Context, userID, status string) ([]model.Transaction, error)
	// Transition locks the row, applies fn and settles the escrow on a status
	// change. It returns the updated row and the status before fn ran.
	Transition(ctx context.Context, id string, fn func(t *model.Transaction) error) (*model.Transaction, string, error)
	ListStalePending(ctx context.Context, before time.Time) ([]model.Transaction, error)
}

type TransactionUsecase struct {
	store  TransactionStore
	items  ItemStore
	events EventRecorder
	notify Notifier
	audit  Auditor
	hub    Broadcaster
	expiry time.Duration
	log    *zap.Logger
	now    func() time.Time
}

func NewTransactionUsecase(store TransactionStore, items ItemStore, events EventRecorder, notify Notifier, audit Auditor, hub Broadcaster, expiry time.Duration, log *zap.Logger) *TransactionUsecase {
	return &TransactionUsecase{
		store:  store,
		items:  items,
		events: events,
		notify: notify,
		audit:  audit,
		hub:    hub,
		expiry: expiry,
		log:    log,
		now:    time.Now,
	}
}

func (u *TransactionUsecase) Open(ctx context.Context, buyerID, itemID string) (*model.Transaction, error) {
	item, err := u.items.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil || item.Status == model.ItemDeleted {
		return nil, notFound("item")
	}
	if item.SellerID == buyerID {
		return nil, forbidden("cannot buy your own item")
	}
	if item.Status != model.ItemOnSale {
		return nil, conflict("item is not on sale")
	}

	now := u.now()
	t := &model.Transaction{
		ID:        idgen.New(),
		ItemID:    item.ID,
		BuyerID:   buyerID,
		SellerID:  item.SellerID,
		Amount:    item.Price,
		Status:    model.TxPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	e := &model.Escrow{
		ID:            idgen.New(),
		TransactionID: t.ID,
		Amount:        t.Amount,
		Status:        model.EscrowHeld,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := u.store.Open(ctx, t, e); err != nil {
		switch {
		case errors.Is(err, dao.ErrInsufficientTokens):
			return nil, fmt.Errorf("need %.2f tokens: %w", t.Amount, ErrInsufficientTokens)
		case errors.Is(err, dao.ErrItemUnavailable):
			return nil, conflict("item is no longer available at this price")
		}
		return nil, err
	}

	metrics.RecordTransition(model.TxPending)
	u.audit.Audit(ctx, buyerID, "transaction.open", "transaction", t.ID, fmt.Sprintf("item=%s amount=%.2f", t.ItemID, t.Amount))
	u.notify.Notify(ctx, t.SellerID, model.NotifyTransaction, "New purchase request", item.Title, t.ID)
	u.hub.Broadcast(hub.UserGroup(t.SellerID), "transaction.opened", t)
	return t, nil
}

func (u *TransactionUsecase) Get(ctx context.Context, id string, actor Actor) (*model.Transaction, error) {
	t, err := u.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil || (!t.IsParty(actor.UserID) && !actor.IsAdmin()) {
		return nil, notFound("transaction")
	}
	return t, nil
}

func (u *TransactionUsecase) ListMine(ctx context.Context, userID, status string) ([]model.Transaction, error) {
	switch status {
	case "", model.TxPending, model.TxCompleted, model.TxCancelled, model.TxDisputed:
	default:
		return nil, invalid("unknown status")
	}
	list, err := u.store.ListByUser(ctx, userID, status)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []model.Transaction{}
	}
	return list, nil
}

func (u *TransactionUsecase) Confirm(ctx context.Context, id, userID string) (*model.Transaction, error) {
	return u.transition(ctx, id, userID, "transaction.confirm", confirmTransition(userID, u.now()))
}

func (u *TransactionUsecase) Cancel(ctx context.Context, id, userID string) (*model.Transaction, error) {
	return u.transition(ctx, id, userID, "transaction.cancel", cancelTransition(userID))
}

func (u *TransactionUsecase) Dispute(ctx context.Context, id, userID, reason string) (*model.Transaction, error) {
	reason, err := validateReason(reason)
	if err != nil {
		return nil, err
	}
	return u.transition(ctx, id, userID, "transaction.dispute", disputeTransition(userID, reason))
}

func (u *TransactionUsecase) Resolve(ctx context.Context, id string, actor Actor, outcome string) (*model.Transaction, error) {
	if !actor.IsAdmin() {
		return nil, forbidden("admin access only")
	}
	if outcome != ResolveRelease && outcome != ResolveRefund {
		return nil, invalid("outcome must be release or refund")
	}
	return u.transition(ctx, id, actor.UserID, "transaction.resolve."+outcome, resolveTransition(outcome, u.now()))
}

// ExpireStale cancels pending transactions older than the escrow expiry and
// returns how many were cancelled.
func (u *TransactionUsecase) ExpireStale(ctx context.Context) (int, error) {
	stale, err := u.store.ListStalePending(ctx, u.now().Add(-u.expiry))
	if err != nil {
		return 0, err
	}
	expired := 0
	for _, t := range stale {
		_, err := u.transition(ctx, t.ID, "system", "transaction.expire", expireTransition)
		if errors.Is(err, ErrConflict) {
			continue // settled meanwhile
		}
		if err != nil {
			return expired, err
		}
		expired++
	}
	return expired, nil
}

func (u *TransactionUsecase) transition(ctx context.Context, id, actorID, action string, fn func(t *model.Transaction) error) (*model.Transaction, error) {
	t, prev, err := u.store.Transition(ctx, id, fn)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, notFound("transaction")
	}
	if prev != t.Status {
		u.afterStatusChange(ctx, t, actorID, action)
	} else {
		u.audit.Audit(ctx, actorID, action, "transaction", t.ID, t.Status)
		u.hub.Broadcast(hub.TransactionGroup(t.ID), "transaction.updated", t)
	}
	return t, nil
}

func (u *TransactionUsecase) afterStatusChange(ctx context.Context, t *model.Transaction, actorID, action string) {
	metrics.RecordTransition(t.Status)
	u.audit.Audit(ctx, actorID, action, "transaction", t.ID, t.Status)
	u.hub.Broadcast(hub.TransactionGroup(t.ID), "transaction."+t.Status, t)

	title := "Transaction " + t.Status
	for _, party := range []string{t.BuyerID, t.SellerID} {
		u.notify.Notify(ctx, party, model.NotifyTransaction, title, fmt.Sprintf("%.2f tokens", t.Amount), t.ID)
	}
	if t.Status == model.TxCompleted {
		track(ctx, u.events, u.log, t.BuyerID, model.EventTradeCompleted)
		track(ctx, u.events, u.log, t.SellerID, model.EventTradeCompleted)
	}
}
