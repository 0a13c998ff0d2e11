package api

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"github.com/fsdevblog/groph-checkout/internal/checkout"
	"github.com/fsdevblog/groph-checkout/internal/domain"
	"github.com/fsdevblog/groph-checkout/internal/service"
)

// Checkouter интерфейс исключительно для моков.
type Checkouter interface {
	Execute(ctx context.Context, cartID, customerID string, opts checkout.FlowOptions) *checkout.Result
}

type CreditServicer interface {
	GetCreditSummary(ctx context.Context, customerID string) (*service.CreditSummary, error)
	GetCreditTransactions(ctx context.Context, customerID string, limit uint) ([]domain.CreditTransaction, error)
}
