package pgrepo

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/fsdevblog/groph-checkout/internal/domain"
	"github.com/fsdevblog/groph-checkout/pkg/uow"
)

const customerColumns = `id, created_at, updated_at, name, active, credit_limit, used_credit`

type CustomerRepository struct {
	db uow.DBTX
}

func NewCustomerRepository(db uow.DBTX) *CustomerRepository {
	return &CustomerRepository{db: db}
}

func (r *CustomerRepository) FindByID(ctx context.Context, id string) (*domain.Customer, error) {
	row := r.db.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, id)
	customer, err := scanCustomer(row)
	if err != nil {
		return nil, convertErr(err, "finding customer `%s`", id)
	}
	return customer, nil
}

// FindByIDForUpdate берет эксклюзивную блокировку строки покупателя. Вызывать только
// внутри транзакции; блокировка держится до коммита или отката.
func (r *CustomerRepository) FindByIDForUpdate(ctx context.Context, id string) (*domain.Customer, error) {
	row := r.db.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1 FOR UPDATE`, id)
	customer, err := scanCustomer(row)
	if err != nil {
		return nil, convertErr(err, "locking customer `%s`", id)
	}
	return customer, nil
}

func (r *CustomerRepository) UpdateUsedCredit(ctx context.Context, id string, usedCredit decimal.Decimal) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE customers SET used_credit = $2, updated_at = now() WHERE id = $1`, id, usedCredit)
	if err != nil {
		return convertErr(err, "updating used credit for customer `%s`", id)
	}
	if tag.RowsAffected() == 0 {
		return convertErr(errNoRowsAffected, "updating used credit for customer `%s`", id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCustomer(row rowScanner) (*domain.Customer, error) {
	var c domain.Customer
	err := row.Scan(
		&c.ID, &c.CreatedAt, &c.UpdatedAt, &c.Name, &c.Active, &c.CreditLimit, &c.UsedCredit,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
