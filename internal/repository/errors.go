package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/trungpqhe173313/SEP490-sub002/internal/model"
)

// ErrSessionNotRunning is returned when a package is appended to a session that is
// not Running for the submitting device at insert time.
var ErrSessionNotRunning = errors.New("production session is not running on this device")

// NegativeStockError reports the first ledger row a batch would drive below zero.
type NegativeStockError struct {
	Key      model.StockKey
	Current  int64
	Delta    int64
	Position int
}

func (e *NegativeStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: have %d, change %d", e.Key, e.Current, e.Delta)
}

const pgUniqueViolation = "23505"

// IsUniqueViolation reports whether err is a postgres unique constraint violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
