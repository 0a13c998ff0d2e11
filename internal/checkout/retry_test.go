package checkout

import (
	"context"
	"errors"
	"fmt"
	"syscall"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/fsdevblog/groph-checkout/internal/domain"
)

type timeoutErr struct{}

func (timeoutErr) Error() string { return "i/o timeout" }

func (timeoutErr) Timeout() bool { return true }

func (timeoutErr) Temporary() bool { return true }

func TestIsRetryableError(t *testing.T) {
	cases := []struct {
		err  error
		name string
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "deadlock", err: &pgconn.PgError{Code: "40P01"}, want: true},
		{name: "serialization failure", err: &pgconn.PgError{Code: "40001"}, want: true},
		{name: "unique violation", err: &pgconn.PgError{Code: "23505"}, want: false},
		{
			name: "wrapped deadlock",
			err:  fmt.Errorf("step: %w", &pgconn.PgError{Code: "40P01"}),
			want: true,
		},
		{name: "connection refused", err: syscall.ECONNREFUSED, want: true},
		{name: "connection reset", err: syscall.ECONNRESET, want: true},
		{name: "deadline exceeded", err: context.DeadlineExceeded, want: true},
		{name: "net timeout", err: timeoutErr{}, want: true},
		{
			name: "insufficient credit",
			err:  domain.NewInsufficientCreditError("c", decimal.Zero, decimal.NewFromInt(100)),
			want: false,
		},
		{name: "not found", err: domain.ErrRecordNotFound, want: false},
		{name: "plain error", err: errors.New("boom"), want: false},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isRetryableError(tt.err))
		})
	}
}

func TestBackoffDelay(t *testing.T) {
	cases := []struct {
		name    string
		attempt int
		want    time.Duration
	}{
		{name: "first retry", attempt: 0, want: 100 * time.Millisecond},
		{name: "second retry", attempt: 1, want: 200 * time.Millisecond},
		{name: "third retry", attempt: 2, want: 400 * time.Millisecond},
		{name: "capped", attempt: 10, want: 5 * time.Second},
		{name: "overflow guard", attempt: 63, want: 5 * time.Second},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, backoffDelay(tt.attempt))
		})
	}
}
