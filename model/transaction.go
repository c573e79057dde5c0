package model

import "time"

const (
	TxPending   = "pending"
	TxCompleted = "completed"
	TxCancelled = "cancelled"
	TxDisputed  = "disputed"
)

const (
	EscrowHeld     = "held"
	EscrowReleased = "released"
	EscrowRefunded = "refunded"
)

type Transaction struct {
	ID              string     `json:"id" db:"id"`
	ItemID          string     `json:"item_id" db:"item_id"`
	BuyerID         string     `json:"buyer_id" db:"buyer_id"`
	SellerID        string     `json:"seller_id" db:"seller_id"`
	Amount          float64    `json:"amount" db:"amount"`
	Status          string     `json:"status" db:"status"`
	BuyerConfirmed  bool       `json:"buyer_confirmed" db:"buyer_confirmed"`
	SellerConfirmed bool       `json:"seller_confirmed" db:"seller_confirmed"`
	DisputeReason   string     `json:"dispute_reason,omitempty" db:"dispute_reason"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty" db:"completed_at"`
}

func (t *Transaction) IsParty(userID string) bool {
	return t.BuyerID == userID || t.SellerID == userID
}

// Counterparty returns the other side of the trade.
func (t *Transaction) Counterparty(userID string) string {
	if t.BuyerID == userID {
		return t.SellerID
	}
	return t.BuyerID
}

type Escrow struct {
	ID            string    `json:"id" db:"id"`
	TransactionID string    `json:"transaction_id" db:"transaction_id"`
	Amount        float64   `json:"amount" db:"amount"`
	Status        string    `json:"status" db:"status"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}
