package checkout

import (
	"context"
	"errors"
	"net"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgDeadlockDetected     = "40P01"
	pgSerializationFailure = "40001"

	baseBackoff = 100 * time.Millisecond
	maxBackoff  = 5 * time.Second
)

// isRetryableError отделяет транзиентные сбои от бизнес-ошибок. Ретраим только
// дедлоки/конфликты сериализации, отказ соединения и таймауты; нарушение бизнес-правила
// (нехватка кредита, not found) повторять бессмысленно.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgDeadlockDetected || pgErr.Code == pgSerializationFailure
	}

	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}

// backoffDelay возвращает задержку перед повтором: min(100ms * 2^attempt, 5s),
// attempt считается с нуля.
func backoffDelay(attempt int) time.Duration {
	delay := baseBackoff << uint(attempt) //nolint:gosec
	if delay > maxBackoff || delay <= 0 {
		return maxBackoff
	}
	return delay
}
