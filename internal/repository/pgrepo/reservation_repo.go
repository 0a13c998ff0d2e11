package pgrepo

import (
	"context"
	"time"

	"github.com/fsdevblog/groph-checkout/internal/domain"
	"github.com/fsdevblog/groph-checkout/internal/repository/repoargs"
	"github.com/fsdevblog/groph-checkout/pkg/uow"
)

const reservationColumns = `id, customer_id, order_id, amount, balance_before, balance_after,
	status, reserved_at, expires_at, captured_at, released_at`

type ReservationRepository struct {
	db uow.DBTX
}

func NewReservationRepository(db uow.DBTX) *ReservationRepository {
	return &ReservationRepository{db: db}
}

func (r *ReservationRepository) Create(
	ctx context.Context,
	args repoargs.ReservationCreate,
) (*domain.CreditReservation, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO credit_reservations
			(id, customer_id, order_id, amount, balance_before, balance_after, status, reserved_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+reservationColumns,
		args.ID, args.CustomerID, args.OrderID, args.Amount, args.BalanceBefore, args.BalanceAfter,
		domain.ReservationStatusActive, args.ReservedAt, args.ExpiresAt,
	)
	reservation, err := scanReservation(row)
	if err != nil {
		return nil, convertErr(err, "creating reservation for order `%s`", args.OrderID)
	}
	return reservation, nil
}

func (r *ReservationRepository) FindActiveByOrderID(
	ctx context.Context,
	orderID string,
) (*domain.CreditReservation, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+reservationColumns+`
		FROM credit_reservations
		WHERE order_id = $1 AND status = $2`,
		orderID, domain.ReservationStatusActive,
	)
	reservation, err := scanReservation(row)
	if err != nil {
		return nil, convertErr(err, "finding active reservation for order `%s`", orderID)
	}
	return reservation, nil
}

// FindExpiredActive возвращает активные резервы с истекшим сроком, старые первыми.
func (r *ReservationRepository) FindExpiredActive(
	ctx context.Context,
	before time.Time,
	limit uint,
) ([]domain.CreditReservation, error) {
	safeLimit, safeLimitErr := safeConvertUintToInt32(limit)
	if safeLimitErr != nil {
		return nil, convertErr(safeLimitErr, "converting limit to int32")
	}

	rows, err := r.db.Query(ctx, `
		SELECT `+reservationColumns+`
		FROM credit_reservations
		WHERE status = $1 AND expires_at < $2
		ORDER BY expires_at
		LIMIT $3`,
		domain.ReservationStatusActive, before, safeLimit,
	)
	if err != nil {
		return nil, convertErr(err, "finding expired reservations")
	}
	defer rows.Close()

	var reservations []domain.CreditReservation
	for rows.Next() {
		reservation, scanErr := scanReservation(rows)
		if scanErr != nil {
			return nil, convertErr(scanErr, "scanning expired reservation")
		}
		reservations = append(reservations, *reservation)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, convertErr(rowsErr, "finding expired reservations")
	}
	return reservations, nil
}

func (r *ReservationRepository) MarkCaptured(ctx context.Context, id string, capturedAt time.Time) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE credit_reservations
		SET status = $2, captured_at = $3
		WHERE id = $1 AND status = $4`,
		id, domain.ReservationStatusCaptured, capturedAt, domain.ReservationStatusActive,
	)
	if err != nil {
		return convertErr(err, "capturing reservation `%s`", id)
	}
	if tag.RowsAffected() == 0 {
		return convertErr(errNoRowsAffected, "capturing reservation `%s`", id)
	}
	return nil
}

// MarkReleased переводит активный резерв в RELEASED либо EXPIRED.
func (r *ReservationRepository) MarkReleased(
	ctx context.Context,
	id string,
	status domain.ReservationStatus,
	releasedAt time.Time,
) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE credit_reservations
		SET status = $2, released_at = $3
		WHERE id = $1 AND status = $4`,
		id, status, releasedAt, domain.ReservationStatusActive,
	)
	if err != nil {
		return convertErr(err, "releasing reservation `%s`", id)
	}
	if tag.RowsAffected() == 0 {
		return convertErr(errNoRowsAffected, "releasing reservation `%s`", id)
	}
	return nil
}

func scanReservation(row rowScanner) (*domain.CreditReservation, error) {
	var res domain.CreditReservation
	err := row.Scan(
		&res.ID, &res.CustomerID, &res.OrderID, &res.Amount, &res.BalanceBefore, &res.BalanceAfter,
		&res.Status, &res.ReservedAt, &res.ExpiresAt, &res.CapturedAt, &res.ReleasedAt,
	)
	if err != nil {
		return nil, err
	}
	return &res, nil
}
