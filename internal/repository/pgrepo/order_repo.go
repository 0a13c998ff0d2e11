package pgrepo

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/fsdevblog/groph-checkout/internal/domain"
	"github.com/fsdevblog/groph-checkout/internal/repository/repoargs"
	"github.com/fsdevblog/groph-checkout/pkg/uow"
)

const orderColumns = `id, created_at, updated_at, customer_id, cart_id, order_number,
	status, payment_status, subtotal, tax, discount, shipping, total,
	shipping_address, billing_address`

type OrderRepository struct {
	db uow.DBTX
}

func NewOrderRepository(db uow.DBTX) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) Create(ctx context.Context, args repoargs.OrderCreate) (*domain.Order, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO orders
			(id, customer_id, cart_id, order_number, status, payment_status,
			subtotal, tax, discount, shipping, total, shipping_address, billing_address)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING `+orderColumns,
		args.ID, args.CustomerID, args.CartID, args.OrderNumber,
		domain.OrderStatusConfirmed, domain.PaymentStatusUnpaid,
		args.Subtotal, args.Tax, args.Discount, args.Shipping, args.Total,
		args.ShippingAddress, args.BillingAddress,
	)
	order, err := scanOrder(row)
	if err != nil {
		return nil, convertErr(err, "creating order `%s`", args.OrderNumber)
	}
	return order, nil
}

func (r *OrderRepository) CreateItems(ctx context.Context, items []repoargs.OrderItemCreate) error {
	batch := &pgx.Batch{}
	for _, item := range items {
		batch.Queue(`
			INSERT INTO order_items (id, order_id, product_id, name, quantity, unit_price, line_total)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			item.ID, item.OrderID, item.ProductID, item.Name, item.Quantity, item.UnitPrice, item.LineTotal,
		)
	}
	results := r.db.SendBatch(ctx, batch)
	defer results.Close()

	for i := range items {
		if _, err := results.Exec(); err != nil {
			return convertErr(err, "creating order item `%s`", items[i].ID)
		}
	}
	return nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	row := r.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	order, err := scanOrder(row)
	if err != nil {
		return nil, convertErr(err, "finding order `%s`", id)
	}
	return order, nil
}

// NextOrderNumber выдает следующий номер заказа формата PREFIX-YYYYMMDD-NNNNNN.
// Счетчик дня хранится отдельной строкой; upsert с инкрементом сериализует
// конкурентные вызовы блокировкой этой строки вместо гонки на max()-скане.
func (r *OrderRepository) NextOrderNumber(ctx context.Context, prefix string, day time.Time) (string, error) {
	dateStamp := day.Format("20060102")

	var seq int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO order_number_counters (day, last_seq)
		VALUES ($1, 1)
		ON CONFLICT (day) DO UPDATE SET last_seq = order_number_counters.last_seq + 1
		RETURNING last_seq`,
		dateStamp,
	).Scan(&seq)
	if err != nil {
		return "", convertErr(err, "incrementing order number counter for day `%s`", dateStamp)
	}

	return fmt.Sprintf("%s-%s-%06d", prefix, dateStamp, seq), nil
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE orders SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	if err != nil {
		return convertErr(err, "updating status of order `%s`", id)
	}
	if tag.RowsAffected() == 0 {
		return convertErr(errNoRowsAffected, "updating status of order `%s`", id)
	}
	return nil
}

func (r *OrderRepository) UpdatePaymentStatus(ctx context.Context, id string, status domain.PaymentStatus) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE orders SET payment_status = $2, updated_at = now() WHERE id = $1`, id, status)
	if err != nil {
		return convertErr(err, "updating payment status of order `%s`", id)
	}
	if tag.RowsAffected() == 0 {
		return convertErr(errNoRowsAffected, "updating payment status of order `%s`", id)
	}
	return nil
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var o domain.Order
	err := row.Scan(
		&o.ID, &o.CreatedAt, &o.UpdatedAt, &o.CustomerID, &o.CartID, &o.OrderNumber,
		&o.Status, &o.PaymentStatus, &o.Subtotal, &o.Tax, &o.Discount, &o.Shipping, &o.Total,
		&o.ShippingAddress, &o.BillingAddress,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}
