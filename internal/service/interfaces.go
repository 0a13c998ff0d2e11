package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fsdevblog/groph-checkout/internal/domain"
	"github.com/fsdevblog/groph-checkout/internal/repository/repoargs"
)

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

type CustomerRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Customer, error)
	// FindByIDForUpdate берет эксклюзивную блокировку строки покупателя до конца
	// текущей транзакции.
	FindByIDForUpdate(ctx context.Context, id string) (*domain.Customer, error)
	UpdateUsedCredit(ctx context.Context, id string, usedCredit decimal.Decimal) error
}

type ReservationRepository interface {
	Create(ctx context.Context, args repoargs.ReservationCreate) (*domain.CreditReservation, error)
	FindActiveByOrderID(ctx context.Context, orderID string) (*domain.CreditReservation, error)
	FindExpiredActive(ctx context.Context, before time.Time, limit uint) ([]domain.CreditReservation, error)
	MarkCaptured(ctx context.Context, id string, capturedAt time.Time) error
	MarkReleased(ctx context.Context, id string, status domain.ReservationStatus, releasedAt time.Time) error
}

type CreditTransactionRepository interface {
	Create(ctx context.Context, args repoargs.CreditTransactionCreate) (*domain.CreditTransaction, error)
	GetByCustomerID(ctx context.Context, customerID string, limit uint) ([]domain.CreditTransaction, error)
}

type CartRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Cart, error)
	FindByIDForUpdate(ctx context.Context, id string) (*domain.Cart, error)
	GetItems(ctx context.Context, cartID string) ([]domain.CartItem, error)
	MarkConverted(ctx context.Context, cartID string, orderID string) error
}

type OrderRepository interface {
	Create(ctx context.Context, args repoargs.OrderCreate) (*domain.Order, error)
	CreateItems(ctx context.Context, items []repoargs.OrderItemCreate) error
	FindByID(ctx context.Context, id string) (*domain.Order, error)
	// NextOrderNumber выдает следующий номер заказа за день day. Счетчик живет в
	// отдельной строке, конкурентные вызовы сериализуются блокировкой этой строки.
	NextOrderNumber(ctx context.Context, prefix string, day time.Time) (string, error)
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error
	UpdatePaymentStatus(ctx context.Context, id string, status domain.PaymentStatus) error
}

// Clock абстрагирует системное время: таймстемпы резервов, проверка истечения и
// датирование номеров заказов в тестах работают с фиксированным временем.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock возвращает Clock поверх time.Now.
func SystemClock() Clock { return systemClock{} }
