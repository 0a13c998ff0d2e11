package repoargs

import (
	"github.com/shopspring/decimal"
)

type OrderCreate struct {
	ID              string
	CustomerID      string
	CartID          string
	OrderNumber     string
	Subtotal        decimal.Decimal
	Tax             decimal.Decimal
	Discount        decimal.Decimal
	Shipping        decimal.Decimal
	Total           decimal.Decimal
	ShippingAddress string
	BillingAddress  string
}

type OrderItemCreate struct {
	ID        string
	OrderID   string
	ProductID string
	Name      string
	Quantity  int32
	UnitPrice decimal.Decimal
	LineTotal decimal.Decimal
}
