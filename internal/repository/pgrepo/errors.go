package pgrepo

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/fsdevblog/groph-checkout/internal/domain"
)

const (
	uniqueViolationCode = "23505"
)

// errNoRowsAffected сигнализирует что UPDATE не нашел целевую строку.
var errNoRowsAffected = errors.New("no rows affected")

// convertErr преобразует ошибку к стандартному виду для слоя репозитория.
// Особенности:
//   - Для pgx.ErrNoRows возвращает domain.ErrRecordNotFound.
//   - Для нарушения уникального ключа (23505) возвращает domain.ErrDuplicateKey.
//   - Дедлоки и конфликты сериализации (40P01, 40001) пробрасываются как есть —
//     их классифицирует ретрай-логика оркестратора.
//   - Все остальные ошибки возвращаются как domain.ErrUnknown с оригинальным сообщением.
func convertErr(err error, format string, formatArgs ...any) error {
	if err == nil {
		return nil
	}

	msg := fmt.Sprintf(format, formatArgs...)

	if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, errNoRowsAffected) {
		return fmt.Errorf("[repository/%s] %w", msg, domain.ErrRecordNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if isUniqueViolationErr(pgErr) {
			return fmt.Errorf("[repository/%s] %w: %s", msg, domain.ErrDuplicateKey, pgErr.Message)
		}
		if isTransientErr(pgErr) {
			return fmt.Errorf("[repository/%s]: %w", msg, err)
		}
	}

	return fmt.Errorf("[repository/%s] %w: %s", msg, domain.ErrUnknown, err.Error())
}

func isUniqueViolationErr(err *pgconn.PgError) bool {
	return err.Code == uniqueViolationCode
}

func isTransientErr(err *pgconn.PgError) bool {
	return err.Code == "40P01" || err.Code == "40001"
}
