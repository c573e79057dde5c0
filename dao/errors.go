package dao

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

var (
	// ErrDuplicate is returned when a unique key is violated.
	ErrDuplicate = errors.New("duplicate entry")
	// ErrInsufficientTokens is returned when a debit would make a balance negative.
	ErrInsufficientTokens = errors.New("insufficient token balance")
	// ErrItemUnavailable is returned when an item is no longer on sale at the expected price.
	ErrItemUnavailable = errors.New("item is not available")
)

func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}
