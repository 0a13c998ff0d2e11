package pgrepo

import (
	"context"

	"github.com/fsdevblog/groph-checkout/internal/domain"
	"github.com/fsdevblog/groph-checkout/pkg/uow"
)

const cartColumns = `id, created_at, updated_at, customer_id, status, order_id,
	subtotal, tax, discount, shipping, total, shipping_address, billing_address`

type CartRepository struct {
	db uow.DBTX
}

func NewCartRepository(db uow.DBTX) *CartRepository {
	return &CartRepository{db: db}
}

func (r *CartRepository) FindByID(ctx context.Context, id string) (*domain.Cart, error) {
	row := r.db.QueryRow(ctx, `SELECT `+cartColumns+` FROM carts WHERE id = $1`, id)
	cart, err := scanCart(row)
	if err != nil {
		return nil, convertErr(err, "finding cart `%s`", id)
	}
	return cart, nil
}

// FindByIDForUpdate блокирует строку корзины: конвертация корзины в заказ
// сериализуется по корзине.
func (r *CartRepository) FindByIDForUpdate(ctx context.Context, id string) (*domain.Cart, error) {
	row := r.db.QueryRow(ctx, `SELECT `+cartColumns+` FROM carts WHERE id = $1 FOR UPDATE`, id)
	cart, err := scanCart(row)
	if err != nil {
		return nil, convertErr(err, "locking cart `%s`", id)
	}
	return cart, nil
}

func (r *CartRepository) GetItems(ctx context.Context, cartID string) ([]domain.CartItem, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, cart_id, product_id, name, quantity, unit_price, line_total
		FROM cart_items
		WHERE cart_id = $1
		ORDER BY id`,
		cartID,
	)
	if err != nil {
		return nil, convertErr(err, "getting items of cart `%s`", cartID)
	}
	defer rows.Close()

	var items []domain.CartItem
	for rows.Next() {
		var item domain.CartItem
		if scanErr := rows.Scan(
			&item.ID, &item.CartID, &item.ProductID, &item.Name,
			&item.Quantity, &item.UnitPrice, &item.LineTotal,
		); scanErr != nil {
			return nil, convertErr(scanErr, "scanning item of cart `%s`", cartID)
		}
		items = append(items, item)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, convertErr(rowsErr, "getting items of cart `%s`", cartID)
	}
	return items, nil
}

// MarkConverted помечает корзину CONVERTED и проставляет обратную ссылку на заказ.
// Одна корзина конвертируется ровно в один заказ.
func (r *CartRepository) MarkConverted(ctx context.Context, cartID string, orderID string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE carts
		SET status = $2, order_id = $3, updated_at = now()
		WHERE id = $1 AND status = $4`,
		cartID, domain.CartStatusConverted, orderID, domain.CartStatusActive,
	)
	if err != nil {
		return convertErr(err, "converting cart `%s`", cartID)
	}
	if tag.RowsAffected() == 0 {
		return convertErr(errNoRowsAffected, "converting cart `%s`", cartID)
	}
	return nil
}

func scanCart(row rowScanner) (*domain.Cart, error) {
	var c domain.Cart
	err := row.Scan(
		&c.ID, &c.CreatedAt, &c.UpdatedAt, &c.CustomerID, &c.Status, &c.OrderID,
		&c.Subtotal, &c.Tax, &c.Discount, &c.Shipping, &c.Total,
		&c.ShippingAddress, &c.BillingAddress,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
