package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrRecordNotFound = errors.New("record not found")
	ErrDuplicateKey   = errors.New("duplicate key")
	ErrUnknown        = errors.New("unknown error")

	ErrCustomerInactive   = errors.New("customer is inactive")
	ErrCartNotActive      = errors.New("cart is not active")
	ErrCartEmpty          = errors.New("cart is empty")
	ErrOwnerConflict      = errors.New("owner conflict")
	ErrReservationExpired = errors.New("reservation expired")
)

// InsufficientCreditError возвращается при попытке зарезервировать сумму, превышающую
// доступный кредитный лимит покупателя.
type InsufficientCreditError struct {
	CustomerID string
	Available  decimal.Decimal
	Requested  decimal.Decimal
}

func NewInsufficientCreditError(customerID string, available, requested decimal.Decimal) error {
	return &InsufficientCreditError{
		CustomerID: customerID,
		Available:  available,
		Requested:  requested,
	}
}

func (e *InsufficientCreditError) Error() string {
	return fmt.Sprintf(
		"insufficient credit for customer %s: available %s, requested %s",
		e.CustomerID,
		e.Available.String(),
		e.Requested.String(),
	)
}
