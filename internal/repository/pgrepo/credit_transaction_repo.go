package pgrepo

import (
	"context"

	"github.com/fsdevblog/groph-checkout/internal/domain"
	"github.com/fsdevblog/groph-checkout/internal/repository/repoargs"
	"github.com/fsdevblog/groph-checkout/pkg/uow"
)

const creditTransactionColumns = `id, created_at, customer_id, type, amount,
	balance_before, balance_after, reference_id, description, created_by`

// CreditTransactionRepository работает с append-only леджером: записи создаются и
// читаются, UPDATE и DELETE отсутствуют намеренно.
type CreditTransactionRepository struct {
	db uow.DBTX
}

func NewCreditTransactionRepository(db uow.DBTX) *CreditTransactionRepository {
	return &CreditTransactionRepository{db: db}
}

func (r *CreditTransactionRepository) Create(
	ctx context.Context,
	args repoargs.CreditTransactionCreate,
) (*domain.CreditTransaction, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO credit_transactions
			(id, customer_id, type, amount, balance_before, balance_after, reference_id, description, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+creditTransactionColumns,
		args.ID, args.CustomerID, args.Type, args.Amount, args.BalanceBefore, args.BalanceAfter,
		args.ReferenceID, args.Description, args.CreatedBy,
	)
	transaction, err := scanCreditTransaction(row)
	if err != nil {
		return nil, convertErr(err, "creating credit transaction for reference `%s`", args.ReferenceID)
	}
	return transaction, nil
}

// GetByCustomerID возвращает записи леджера покупателя, новые первыми.
func (r *CreditTransactionRepository) GetByCustomerID(
	ctx context.Context,
	customerID string,
	limit uint,
) ([]domain.CreditTransaction, error) {
	safeLimit, safeLimitErr := safeConvertUintToInt32(limit)
	if safeLimitErr != nil {
		return nil, convertErr(safeLimitErr, "converting limit to int32")
	}

	rows, err := r.db.Query(ctx, `
		SELECT `+creditTransactionColumns+`
		FROM credit_transactions
		WHERE customer_id = $1
		ORDER BY created_at DESC
		LIMIT $2`,
		customerID, safeLimit,
	)
	if err != nil {
		return nil, convertErr(err, "getting credit transactions for customer `%s`", customerID)
	}
	defer rows.Close()

	var transactions []domain.CreditTransaction
	for rows.Next() {
		transaction, scanErr := scanCreditTransaction(rows)
		if scanErr != nil {
			return nil, convertErr(scanErr, "scanning credit transaction")
		}
		transactions = append(transactions, *transaction)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, convertErr(rowsErr, "getting credit transactions for customer `%s`", customerID)
	}
	return transactions, nil
}

func scanCreditTransaction(row rowScanner) (*domain.CreditTransaction, error) {
	var t domain.CreditTransaction
	err := row.Scan(
		&t.ID, &t.CreatedAt, &t.CustomerID, &t.Type, &t.Amount,
		&t.BalanceBefore, &t.BalanceAfter, &t.ReferenceID, &t.Description, &t.CreatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
