package usecase

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tidyup-backend/model"
)

func newItemFixture() (*ItemUsecase, *market, *recorder) {
	m := newMarket()
	rec := &recorder{}
	return NewItemUsecase(itemStore{m}, catalogStore{}, rec, rec, zap.NewNop()), m, rec
}

func validInput() ItemInput {
	return ItemInput{
		Title:       " Paperback bundle ",
		Description: "Ten crime novels",
		CategoryID:  "cat_books",
		ConditionID: "cond_good",
		BasePrice:   33.333,
	}
}

func TestCreateItem(t *testing.T) {
	u, m, rec := newItemFixture()

	item, err := u.CreateItem(context.Background(), seller, validInput())
	require.NoError(t, err)
	assert.Equal(t, "Paperback bundle", item.Title)
	assert.Equal(t, 33.33, item.BasePrice)
	assert.Equal(t, 15.0, item.Price) // 33.333 * 0.75 * 0.6
	assert.Equal(t, model.ItemOnSale, item.Status)
	assert.Contains(t, m.items, item.ID)
	assert.Equal(t, []string{seller + ":" + model.EventItemListed}, rec.events)
}

func TestCreateItemValidation(t *testing.T) {
	u, m, _ := newItemFixture()
	bogus := "loc_atlantis"

	tests := map[string]func(in *ItemInput){
		"empty title":       func(in *ItemInput) { in.Title = "  " },
		"long title":        func(in *ItemInput) { in.Title = strings.Repeat("x", 101) },
		"zero price":        func(in *ItemInput) { in.BasePrice = 0 },
		"huge price":        func(in *ItemInput) { in.BasePrice = 1_000_001 },
		"unknown category":  func(in *ItemInput) { in.CategoryID = "cat_spaceships" },
		"unknown condition": func(in *ItemInput) { in.ConditionID = "cond_mint" },
		"unknown location":  func(in *ItemInput) { in.LocationID = &bogus },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			in := validInput()
			mutate(&in)
			_, err := u.CreateItem(context.Background(), seller, in)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
	assert.Empty(t, m.items)
}

func TestUpdateAndDeleteItem(t *testing.T) {
	u, m, rec := newItemFixture()
	ctx := context.Background()

	item, err := u.CreateItem(ctx, seller, validInput())
	require.NoError(t, err)

	in := validInput()
	in.ConditionID = "cond_new"
	in.BasePrice = 10
	_, err = u.UpdateItem(ctx, item.ID, buyer, in)
	assert.ErrorIs(t, err, ErrForbidden)
	updated, err := u.UpdateItem(ctx, item.ID, seller, in)
	require.NoError(t, err)
	assert.Equal(t, 6.0, updated.Price)

	m.items[item.ID].Status = model.ItemReserved
	_, err = u.UpdateItem(ctx, item.ID, seller, in)
	assert.ErrorIs(t, err, ErrConflict)
	assert.ErrorIs(t, u.DeleteItem(ctx, item.ID, seller), ErrConflict)

	m.items[item.ID].Status = model.ItemOnSale
	require.NoError(t, u.DeleteItem(ctx, item.ID, seller))
	assert.Equal(t, model.ItemDeleted, m.items[item.ID].Status)
	assert.Contains(t, rec.audits, "item.delete")

	_, err = u.GetItemByID(ctx, item.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListItems(t *testing.T) {
	u, m, _ := newItemFixture()
	ctx := context.Background()
	m.items["a"] = &model.Item{ID: "a", Status: model.ItemOnSale}
	m.items["b"] = &model.Item{ID: "b", Status: model.ItemSold}

	items, err := u.ListItems(ctx, model.ItemFilter{})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "a", items[0].ID)

	_, err = u.ListItems(ctx, model.ItemFilter{Status: model.ItemDeleted})
	assert.ErrorIs(t, err, ErrInvalidInput)

	lo, hi := 50.0, 10.0
	_, err = u.ListItems(ctx, model.ItemFilter{MinPrice: &lo, MaxPrice: &hi})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

// purchaseDuringWrite reserves the item from another request after the
// seller's read but before the seller's write lands.
type purchaseDuringWrite struct {
	itemStore
	purchase func()
}

func (s purchaseDuringWrite) Update(ctx context.Context, item *model.Item) error {
	if s.purchase != nil {
		s.purchase()
	}
	return s.itemStore.Update(ctx, item)
}

func TestEditRacingPurchaseKeepsReservation(t *testing.T) {
	tests := map[string]func(u *ItemUsecase, id string) error{
		"update": func(u *ItemUsecase, id string) error {
			in := validInput()
			in.BasePrice = 5
			_, err := u.UpdateItem(context.Background(), id, seller, in)
			return err
		},
		"delete": func(u *ItemUsecase, id string) error {
			return u.DeleteItem(context.Background(), id, seller)
		},
	}
	for name, edit := range tests {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			m := newMarket()
			m.balances[buyer] = 100
			m.balances["user_late"] = 100
			rec := &recorder{}
			trades := NewTransactionUsecase(txStore{m}, itemStore{m}, rec, rec, rec, rec, time.Hour, zap.NewNop())

			var firstTx *model.Transaction
			store := purchaseDuringWrite{itemStore: itemStore{m}}
			items := NewItemUsecase(&store, catalogStore{}, rec, rec, zap.NewNop())
			item, err := items.CreateItem(ctx, seller, validInput())
			require.NoError(t, err)

			store.purchase = func() {
				var err error
				firstTx, err = trades.Open(ctx, buyer, item.ID)
				require.NoError(t, err)
			}
			assert.ErrorIs(t, edit(items, item.ID), ErrConflict)

			require.NotNil(t, firstTx)
			assert.Equal(t, model.ItemReserved, m.items[item.ID].Status)
			assert.Equal(t, firstTx.Amount, m.items[item.ID].Price)

			_, err = trades.Open(ctx, "user_late", item.ID)
			assert.ErrorIs(t, err, ErrConflict)
			assert.Len(t, m.escrows, 1)
		})
	}
}
