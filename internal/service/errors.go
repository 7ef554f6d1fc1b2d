package service

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Isba24ha/Barliberty-vultr/internal/models"
)

// ErrNothingToMerge is the benign no-op outcome of MergeItems: the submitted
// cart matches the order's current items exactly, so no write is produced.
// Callers surface it as a warning, not a failure.
var ErrNothingToMerge = errors.New("merge changes nothing")

// ValidationError rejects request input before any write happens.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func validationf(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// ConflictError rejects an operation because the current persisted state
// does not allow it (occupied table, duplicate open session, non-pending
// order). The caller should re-fetch state and retry.
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string { return e.Reason }

// InvalidTransitionError rejects an illegal order status change. No partial
// state change is permitted.
type InvalidTransitionError struct {
	From models.OrderStatus
	To   models.OrderStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("illegal order transition %s -> %s", e.From, e.To)
}

// OverpaymentError rejects a credit settlement above the outstanding
// balance. The ledger never goes negative: a client cannot end up with
// credit in their favor.
type OverpaymentError struct {
	Outstanding decimal.Decimal
	Amount      decimal.Decimal
}

func (e *OverpaymentError) Error() string {
	return fmt.Sprintf("payment of %s exceeds outstanding credit of %s",
		e.Amount.StringFixed(2), e.Outstanding.StringFixed(2))
}
