package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tidyup-backend/model"
)

const (
	buyer  = "user_buyer"
	seller = "user_seller"
	admin  = "user_admin"
)

func newTradeFixture(t *testing.T) (*TransactionUsecase, *market, *recorder) {
	t.Helper()
	m := newMarket()
	m.balances[buyer] = 100
	m.balances[seller] = 20
	m.items["item_1"] = &model.Item{ID: "item_1", SellerID: seller, Title: "Desk lamp", Price: 12.5, Status: model.ItemOnSale}

	rec := &recorder{}
	u := NewTransactionUsecase(txStore{m}, itemStore{m}, rec, rec, rec, rec, 72*time.Hour, zap.NewNop())
	return u, m, rec
}

func TestTransactionOpen(t *testing.T) {
	u, m, rec := newTradeFixture(t)
	before := m.total()

	tx, err := u.Open(context.Background(), buyer, "item_1")
	require.NoError(t, err)

	assert.Equal(t, model.TxPending, tx.Status)
	assert.Equal(t, 12.5, tx.Amount)
	assert.Equal(t, 87.5, m.balances[buyer])
	assert.Equal(t, model.ItemReserved, m.items["item_1"].Status)
	assert.Equal(t, model.EscrowHeld, m.escrows[tx.ID].Status)
	assert.Equal(t, before, m.total())
	assert.Contains(t, rec.audits, "transaction.open")
	require.Len(t, rec.notices, 1)
	assert.Equal(t, seller, rec.notices[0].UserID)
}

func TestTransactionOpenRejects(t *testing.T) {
	t.Run("own item", func(t *testing.T) {
		u, _, _ := newTradeFixture(t)
		_, err := u.Open(context.Background(), seller, "item_1")
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("missing item", func(t *testing.T) {
		u, _, _ := newTradeFixture(t)
		_, err := u.Open(context.Background(), buyer, "nope")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("not on sale", func(t *testing.T) {
		u, m, _ := newTradeFixture(t)
		m.items["item_1"].Status = model.ItemSold
		_, err := u.Open(context.Background(), buyer, "item_1")
		assert.ErrorIs(t, err, ErrConflict)
	})

	t.Run("insufficient balance", func(t *testing.T) {
		u, m, rec := newTradeFixture(t)
		m.balances[buyer] = 5
		_, err := u.Open(context.Background(), buyer, "item_1")
		assert.ErrorIs(t, err, ErrInsufficientTokens)
		assert.Equal(t, 5.0, m.balances[buyer])
		assert.Equal(t, model.ItemOnSale, m.items["item_1"].Status)
		assert.Empty(t, m.txs)
		assert.Empty(t, rec.audits)
	})
}

func TestTransactionConfirmByBothParties(t *testing.T) {
	u, m, rec := newTradeFixture(t)
	ctx := context.Background()
	before := m.total()

	tx, err := u.Open(ctx, buyer, "item_1")
	require.NoError(t, err)

	tx, err = u.Confirm(ctx, tx.ID, buyer)
	require.NoError(t, err)
	assert.Equal(t, model.TxPending, tx.Status)
	assert.True(t, tx.BuyerConfirmed)
	assert.Empty(t, rec.events)
	assert.Contains(t, rec.audits, "transaction.confirm", "a confirmation that leaves the trade pending is still audited")
	assert.Contains(t, rec.broadcasts, "transaction:"+tx.ID+" transaction.updated")

	tx, err = u.Confirm(ctx, tx.ID, seller)
	require.NoError(t, err)
	assert.Equal(t, model.TxCompleted, tx.Status)
	require.NotNil(t, tx.CompletedAt)

	assert.Equal(t, 32.5, m.balances[seller])
	assert.Equal(t, 87.5, m.balances[buyer])
	assert.Equal(t, model.EscrowReleased, m.escrows[tx.ID].Status)
	assert.Equal(t, model.ItemSold, m.items["item_1"].Status)
	require.NotNil(t, m.items["item_1"].BuyerID)
	assert.Equal(t, buyer, *m.items["item_1"].BuyerID)
	assert.Equal(t, before, m.total())

	assert.ElementsMatch(t, []string{buyer + ":" + model.EventTradeCompleted, seller + ":" + model.EventTradeCompleted}, rec.events)
	assert.Contains(t, rec.broadcasts, "transaction:"+tx.ID+" transaction.completed")

	confirms := 0
	for _, a := range rec.audits {
		if a == "transaction.confirm" {
			confirms++
		}
	}
	assert.Equal(t, 2, confirms)

	_, err = u.Confirm(ctx, tx.ID, buyer)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestTransactionCancelRefunds(t *testing.T) {
	u, m, rec := newTradeFixture(t)
	ctx := context.Background()

	tx, err := u.Open(ctx, buyer, "item_1")
	require.NoError(t, err)

	tx, err = u.Cancel(ctx, tx.ID, seller)
	require.NoError(t, err)
	assert.Equal(t, model.TxCancelled, tx.Status)
	assert.Equal(t, 100.0, m.balances[buyer])
	assert.Equal(t, 20.0, m.balances[seller])
	assert.Equal(t, model.EscrowRefunded, m.escrows[tx.ID].Status)
	assert.Equal(t, model.ItemOnSale, m.items["item_1"].Status)
	assert.Empty(t, rec.events)

	_, err = u.Cancel(ctx, tx.ID, buyer)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestTransactionPermissions(t *testing.T) {
	u, _, _ := newTradeFixture(t)
	ctx := context.Background()

	tx, err := u.Open(ctx, buyer, "item_1")
	require.NoError(t, err)

	_, err = u.Confirm(ctx, tx.ID, "stranger")
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = u.Cancel(ctx, tx.ID, "stranger")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = u.Get(ctx, tx.ID, Actor{UserID: "stranger", Role: model.RoleUser})
	assert.ErrorIs(t, err, ErrNotFound)
	got, err := u.Get(ctx, tx.ID, Actor{UserID: admin, Role: model.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, tx.ID, got.ID)

	_, err = u.Confirm(ctx, "missing", buyer)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTransactionDisputeAndResolve(t *testing.T) {
	tests := []struct {
		outcome      string
		wantStatus   string
		wantBuyer    float64
		wantSeller   float64
		wantItem     string
		wantEscrow   string
		tradeCounted bool
	}{
		{ResolveRelease, model.TxCompleted, 87.5, 32.5, model.ItemSold, model.EscrowReleased, true},
		{ResolveRefund, model.TxCancelled, 100, 20, model.ItemOnSale, model.EscrowRefunded, false},
	}
	for _, tt := range tests {
		t.Run(tt.outcome, func(t *testing.T) {
			u, m, rec := newTradeFixture(t)
			ctx := context.Background()

			tx, err := u.Open(ctx, buyer, "item_1")
			require.NoError(t, err)

			_, err = u.Dispute(ctx, tx.ID, buyer, "   ")
			assert.ErrorIs(t, err, ErrInvalidInput)

			tx, err = u.Dispute(ctx, tx.ID, buyer, " never arrived ")
			require.NoError(t, err)
			assert.Equal(t, model.TxDisputed, tx.Status)
			assert.Equal(t, "never arrived", tx.DisputeReason)
			assert.Equal(t, model.EscrowHeld, m.escrows[tx.ID].Status)

			_, err = u.Confirm(ctx, tx.ID, seller)
			assert.ErrorIs(t, err, ErrConflict)

			_, err = u.Resolve(ctx, tx.ID, Actor{UserID: seller, Role: model.RoleUser}, tt.outcome)
			assert.ErrorIs(t, err, ErrForbidden)
			_, err = u.Resolve(ctx, tx.ID, Actor{UserID: admin, Role: model.RoleAdmin}, "split")
			assert.ErrorIs(t, err, ErrInvalidInput)

			tx, err = u.Resolve(ctx, tx.ID, Actor{UserID: admin, Role: model.RoleAdmin}, tt.outcome)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, tx.Status)
			assert.Equal(t, tt.wantBuyer, m.balances[buyer])
			assert.Equal(t, tt.wantSeller, m.balances[seller])
			assert.Equal(t, tt.wantItem, m.items["item_1"].Status)
			assert.Equal(t, tt.wantEscrow, m.escrows[tx.ID].Status)
			assert.Equal(t, tt.tradeCounted, len(rec.events) == 2)
			assert.Contains(t, rec.audits, "transaction.resolve."+tt.outcome)
		})
	}
}

func TestTransactionExpireStale(t *testing.T) {
	u, m, rec := newTradeFixture(t)
	ctx := context.Background()
	m.items["item_2"] = &model.Item{ID: "item_2", SellerID: seller, Price: 10, Status: model.ItemOnSale}

	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	u.now = func() time.Time { return start }
	old, err := u.Open(ctx, buyer, "item_1")
	require.NoError(t, err)

	u.now = func() time.Time { return start.Add(48 * time.Hour) }
	fresh, err := u.Open(ctx, buyer, "item_2")
	require.NoError(t, err)

	u.now = func() time.Time { return start.Add(73 * time.Hour) }
	n, err := u.ExpireStale(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.Equal(t, model.TxCancelled, m.txs[old.ID].Status)
	assert.Equal(t, model.TxPending, m.txs[fresh.ID].Status)
	assert.Equal(t, model.ItemOnSale, m.items["item_1"].Status)
	assert.Equal(t, 90.0, m.balances[buyer])
	assert.Contains(t, rec.audits, "transaction.expire")
}

func TestTransactionListMine(t *testing.T) {
	u, _, _ := newTradeFixture(t)
	ctx := context.Background()

	_, err := u.ListMine(ctx, buyer, "bogus")
	assert.ErrorIs(t, err, ErrInvalidInput)

	list, err := u.ListMine(ctx, buyer, "")
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)

	_, err = u.Open(ctx, buyer, "item_1")
	require.NoError(t, err)
	list, err = u.ListMine(ctx, seller, model.TxPending)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
