package usecase

import (
	"strings"
	"time"
	"unicode/utf8"

	"tidyup-backend/model"
)

// The functions below mutate a transaction loaded under a row lock. The store
// persists the result and settles the escrow when the status changes.

func confirmTransition(userID string, now time.Time) func(t *model.Transaction) error {
	return func(t *model.Transaction) error {
		if !t.IsParty(userID) {
			return forbidden("not a party to this transaction")
		}
		if t.Status != model.TxPending {
			return conflict("transaction is " + t.Status)
		}
		if t.BuyerID == userID {
			t.BuyerConfirmed = true
		} else {
			t.SellerConfirmed = true
		}
		if t.BuyerConfirmed && t.SellerConfirmed {
			t.Status = model.TxCompleted
			t.CompletedAt = &now
		}
		return nil
	}
}

func cancelTransition(userID string) func(t *model.Transaction) error {
	return func(t *model.Transaction) error {
		if !t.IsParty(userID) {
			return forbidden("not a party to this transaction")
		}
		if t.Status != model.TxPending {
			return conflict("transaction is " + t.Status)
		}
		t.Status = model.TxCancelled
		return nil
	}
}

func disputeTransition(userID, reason string) func(t *model.Transaction) error {
	return func(t *model.Transaction) error {
		if !t.IsParty(userID) {
			return forbidden("not a party to this transaction")
		}
		if t.Status != model.TxPending {
			return conflict("transaction is " + t.Status)
		}
		t.Status = model.TxDisputed
		t.DisputeReason = reason
		return nil
	}
}

const (
	ResolveRelease = "release"
	ResolveRefund  = "refund"
)

func resolveTransition(outcome string, now time.Time) func(t *model.Transaction) error {
	return func(t *model.Transaction) error {
		if t.Status != model.TxDisputed {
			return conflict("transaction is " + t.Status)
		}
		switch outcome {
		case ResolveRelease:
			t.Status = model.TxCompleted
			t.CompletedAt = &now
		case ResolveRefund:
			t.Status = model.TxCancelled
		}
		return nil
	}
}

// expireTransition cancels a transaction only if it is still pending.
func expireTransition(t *model.Transaction) error {
	if t.Status != model.TxPending {
		return conflict("transaction is " + t.Status)
	}
	t.Status = model.TxCancelled
	return nil
}

func validateReason(reason string) (string, error) {
	reason = strings.TrimSpace(reason)
	if n := utf8.RuneCountInString(reason); n < 1 || n > 500 {
		return "", invalid("reason must be 1 to 500 characters")
	}
	return reason, nil
}
