package pgrepo

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fsdevblog/groph-checkout/internal/domain"
)

func TestConvertErr(t *testing.T) {
	cases := []struct {
		err     error
		wantIs  error
		name    string
		wantMsg string
	}{
		{name: "nil", err: nil, wantIs: nil},
		{name: "no rows", err: pgx.ErrNoRows, wantIs: domain.ErrRecordNotFound},
		{name: "no rows affected", err: errNoRowsAffected, wantIs: domain.ErrRecordNotFound},
		{
			name:   "wrapped no rows",
			err:    fmt.Errorf("scan: %w", pgx.ErrNoRows),
			wantIs: domain.ErrRecordNotFound,
		},
		{
			name:   "unique violation",
			err:    &pgconn.PgError{Code: "23505", Message: "duplicate key value"},
			wantIs: domain.ErrDuplicateKey,
		},
		{
			name:   "other pg error",
			err:    &pgconn.PgError{Code: "23514", Message: "check constraint violated"},
			wantIs: domain.ErrUnknown,
		},
		{name: "plain error", err: errors.New("boom"), wantIs: domain.ErrUnknown},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			got := convertErr(tt.err, "customer: %s", "find")
			if tt.wantIs == nil {
				assert.NoError(t, got)
				return
			}
			require.Error(t, got)
			assert.ErrorIs(t, got, tt.wantIs)
			assert.Contains(t, got.Error(), "[repository/customer: find]")
		})
	}
}

func TestConvertErr_TransientPassthrough(t *testing.T) {
	// Дедлоки и конфликты сериализации не заворачиваются в ErrUnknown: их должна
	// увидеть ретрай-логика как *pgconn.PgError.
	for _, code := range []string{"40P01", "40001"} {
		t.Run(code, func(t *testing.T) {
			original := &pgconn.PgError{Code: code, Message: "transient"}
			got := convertErr(original, "reservation: %s", "update")

			var pgErr *pgconn.PgError
			require.ErrorAs(t, got, &pgErr)
			assert.Equal(t, code, pgErr.Code)
			assert.NotErrorIs(t, got, domain.ErrUnknown)
		})
	}
}
