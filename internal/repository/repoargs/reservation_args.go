package repoargs

import (
	"time"

	"github.com/shopspring/decimal"
)

type ReservationCreate struct {
	ID            string
	CustomerID    string
	OrderID       string
	Amount        decimal.Decimal
	BalanceBefore decimal.Decimal
	BalanceAfter  decimal.Decimal
	ReservedAt    time.Time
	ExpiresAt     time.Time
}
