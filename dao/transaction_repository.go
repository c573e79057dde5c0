package dao

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"tidyup-backend/model"
	"tidyup-backend/pkg/pricing"
)

const transactionColumns = `id, item_id, buyer_id, seller_id, amount, status, buyer_confirmed, seller_confirmed,
	dispute_reason, created_at, updated_at, completed_at`

// TransactionRepository owns every write that moves tokens. Balances,
// escrows and item status change together inside one database transaction.
type TransactionRepository struct {
	db *sqlx.DB
}

func NewTransactionRepository(db *sqlx.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Open(ctx context.Context, t *model.Transaction, e *model.Escrow) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var item struct {
			Status string  `db:"status"`
			Price  float64 `db:"price"`
		}
		err := tx.GetContext(ctx, &item, `SELECT status, price FROM items WHERE id = ? FOR UPDATE`, t.ItemID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrItemUnavailable
		}
		if err != nil {
			return err
		}
		if item.Status != model.ItemOnSale || pricing.Round2(item.Price) != pricing.Round2(t.Amount) {
			return ErrItemUnavailable
		}

		res, err := tx.ExecContext(ctx,
			`UPDATE users SET token_balance = token_balance - ? WHERE id = ? AND token_balance >= ?`,
			t.Amount, t.BuyerID, t.Amount)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return ErrInsufficientTokens
		}

		if _, err := tx.NamedExecContext(ctx, `
			INSERT INTO transactions (id, item_id, buyer_id, seller_id, amount, status, created_at, updated_at)
			VALUES (:id, :item_id, :buyer_id, :seller_id, :amount, :status, :created_at, :updated_at)
		`, t); err != nil {
			return err
		}
		if _, err := tx.NamedExecContext(ctx, `
			INSERT INTO escrows (id, transaction_id, amount, status, created_at, updated_at)
			VALUES (:id, :transaction_id, :amount, :status, :created_at, :updated_at)
		`, e); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `UPDATE items SET status = ? WHERE id = ?`, model.ItemReserved, t.ItemID)
		return err
	})
}

func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*model.Transaction, error) {
	var t model.Transaction
	return getOrNil(&t, r.db.GetContext(ctx, &t, `SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id))
}

func (r *TransactionRepository) ListByUser(ctx context.Context, userID, status string) ([]model.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE (buyer_id = ? OR seller_id = ?)`
	args := []interface{}{userID, userID}
	if status != "" {
		query += " AND status = ?"
		args = append(args, status)
	}
	query += " ORDER BY created_at DESC"

	var list []model.Transaction
	err := r.db.SelectContext(ctx, &list, query, args...)
	return list, err
}

func (r *TransactionRepository) ListStalePending(ctx context.Context, before time.Time) ([]model.Transaction, error) {
	var list []model.Transaction
	err := r.db.SelectContext(ctx, &list, `
		SELECT `+transactionColumns+` FROM transactions
		WHERE status = ? AND created_at < ?
		ORDER BY created_at
	`, model.TxPending, before)
	return list, err
}

// Transition returns (nil, "", nil) when the transaction does not exist.
func (r *TransactionRepository) Transition(ctx context.Context, id string, fn func(t *model.Transaction) error) (*model.Transaction, string, error) {
	var (
		t    model.Transaction
		prev string
	)
	found := true
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &t, `SELECT `+transactionColumns+` FROM transactions WHERE id = ? FOR UPDATE`, id)
		if errors.Is(err, sql.ErrNoRows) {
			found = false
			return nil
		}
		if err != nil {
			return err
		}
		prev = t.Status
		if err := fn(&t); err != nil {
			return err
		}

		t.UpdatedAt = time.Now()
		if _, err := tx.NamedExecContext(ctx, `
			UPDATE transactions SET
				status           = :status,
				buyer_confirmed  = :buyer_confirmed,
				seller_confirmed = :seller_confirmed,
				dispute_reason   = :dispute_reason,
				updated_at       = :updated_at,
				completed_at     = :completed_at
			WHERE id = :id
		`, &t); err != nil {
			return err
		}
		if t.Status == prev {
			return nil
		}
		return settle(ctx, tx, &t)
	})
	if err != nil {
		return nil, prev, err
	}
	if !found {
		return nil, "", nil
	}
	return &t, prev, nil
}

// settle moves the held escrow to the party the new status favours.
func settle(ctx context.Context, tx *sqlx.Tx, t *model.Transaction) error {
	var (
		escrowStatus string
		payee        string
		itemQuery    string
		itemArgs     []interface{}
	)
	switch t.Status {
	case model.TxCompleted:
		escrowStatus, payee = model.EscrowReleased, t.SellerID
		itemQuery = `UPDATE items SET status = ?, buyer_id = ? WHERE id = ?`
		itemArgs = []interface{}{model.ItemSold, t.BuyerID, t.ItemID}
	case model.TxCancelled:
		escrowStatus, payee = model.EscrowRefunded, t.BuyerID
		itemQuery = `UPDATE items SET status = ? WHERE id = ? AND status = ?`
		itemArgs = []interface{}{model.ItemOnSale, t.ItemID, model.ItemReserved}
	default:
		return nil
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE escrows SET status = ?, updated_at = ? WHERE transaction_id = ? AND status = ?`,
		escrowStatus, t.UpdatedAt, t.ID, model.EscrowHeld)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n != 1 {
		return fmt.Errorf("escrow for transaction %s is not held", t.ID)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE users SET token_balance = token_balance + ? WHERE id = ?`, t.Amount, payee); err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, itemQuery, itemArgs...)
	return err
}
