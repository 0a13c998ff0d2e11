package repoargs

import (
	"github.com/shopspring/decimal"

	"github.com/fsdevblog/groph-checkout/internal/domain"
)

type CreditTransactionCreate struct {
	ID            string
	CustomerID    string
	Type          domain.TransactionType
	Amount        decimal.Decimal
	BalanceBefore decimal.Decimal
	BalanceAfter  decimal.Decimal
	ReferenceID   string
	Description   string
	CreatedBy     string
}
