package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Customer struct {
	ID          string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Name        string
	Active      bool
	CreditLimit decimal.Decimal
	UsedCredit  decimal.Decimal
}

// AvailableCredit возвращает доступный кредитный лимит покупателя.
func (c *Customer) AvailableCredit() decimal.Decimal {
	return c.CreditLimit.Sub(c.UsedCredit)
}

// CreditReservation — холд на кредитном лимите покупателя под конкретный заказ.
// Жизненный цикл резерва не зависит от жизненного цикла заказа.
type CreditReservation struct {
	ID            string
	CustomerID    string
	OrderID       string
	Amount        decimal.Decimal
	BalanceBefore decimal.Decimal
	BalanceAfter  decimal.Decimal
	Status        ReservationStatus
	ReservedAt    time.Time
	ExpiresAt     time.Time
	CapturedAt    *time.Time
	ReleasedAt    *time.Time
}

// CreditTransaction — неизменяемая запись в кредитном леджере. Записи только добавляются,
// никогда не обновляются и не удаляются.
type CreditTransaction struct {
	ID            string
	CreatedAt     time.Time
	CustomerID    string
	Type          TransactionType
	Amount        decimal.Decimal
	BalanceBefore decimal.Decimal
	BalanceAfter  decimal.Decimal
	ReferenceID   string
	Description   string
	CreatedBy     string
}

type Cart struct {
	ID         string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	CustomerID string
	Status     CartStatus
	// OrderID заполняется при конвертации корзины в заказ.
	OrderID         *string
	Subtotal        decimal.Decimal
	Tax             decimal.Decimal
	Discount        decimal.Decimal
	Shipping        decimal.Decimal
	Total           decimal.Decimal
	ShippingAddress string
	BillingAddress  string
}

type CartItem struct {
	ID        string
	CartID    string
	ProductID string
	Name      string
	Quantity  int32
	UnitPrice decimal.Decimal
	LineTotal decimal.Decimal
}

type Order struct {
	ID              string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	CustomerID      string
	CartID          string
	OrderNumber     string
	Status          OrderStatus
	PaymentStatus   PaymentStatus
	Subtotal        decimal.Decimal
	Tax             decimal.Decimal
	Discount        decimal.Decimal
	Shipping        decimal.Decimal
	Total           decimal.Decimal
	ShippingAddress string
	BillingAddress  string
}

type OrderItem struct {
	ID        string
	OrderID   string
	ProductID string
	Name      string
	Quantity  int32
	UnitPrice decimal.Decimal
	LineTotal decimal.Decimal
}
