// Package expiry периодически освобождает истекшие кредитные резервы. Истечение
// проверяется и при захвате, но без фонового обхода резервы брошенных чекаутов
// держали бы кредитный лимит до следующего обращения к заказу.
package expiry

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	defaultSweepInterval          = time.Minute
	defaultLimitPerIteration uint = 100
)

// Expirer — часть финансового сервиса, нужная процессору.
type Expirer interface {
	ExpireReservations(ctx context.Context, limit uint) (int, error)
}

// Processor обходит активные резервы с истекшим сроком и освобождает их.
type Processor struct {
	svs               Expirer
	l                 *logrus.Entry
	sweepInterval     time.Duration
	limitPerIteration uint
}

func New(svs Expirer, l *logrus.Logger) *Processor {
	return &Processor{
		svs: svs,
		l: l.WithFields(logrus.Fields{
			"component": "expiry",
			"module":    "processor",
		}),
		sweepInterval:     defaultSweepInterval,
		limitPerIteration: defaultLimitPerIteration,
	}
}

// SetSweepInterval устанавливает базовый интервал между итерациями.
func (p *Processor) SetSweepInterval(interval time.Duration) *Processor {
	if interval > 0 {
		p.sweepInterval = interval
	}
	return p
}

// SetLimitPerIteration устанавливает максимум резервов, обрабатываемых за итерацию.
func (p *Processor) SetLimitPerIteration(limit uint) *Processor {
	if limit > 0 {
		p.limitPerIteration = limit
	}
	return p
}

// Run крутит обход до отмены контекста. Интервал между итерациями рассыпается
// джиттером, чтобы несколько инстансов не ходили в БД синхронно.
func (p *Processor) Run(ctx context.Context) {
	p.l.WithFields(logrus.Fields{
		"sweepInterval":     p.sweepInterval.String(),
		"limitPerIteration": p.limitPerIteration,
	}).Info("Starting")

	for {
		select {
		case <-ctx.Done():
			p.l.Info("Got stop signal, exiting...")
			return
		case <-time.After(jitterDuration(p.sweepInterval, 0.15, 0.15)):
			if err := p.sweep(ctx); err != nil {
				p.l.WithError(err).Error("sweep error")
			}
		}
	}
}

func (p *Processor) sweep(ctx context.Context) error {
	expired, err := p.svs.ExpireReservations(ctx, p.limitPerIteration)
	if err != nil {
		return errors.Wrap(err, "expiring reservations")
	}
	if expired > 0 {
		p.l.WithField("expired", expired).Info("released expired reservations")
	}
	return nil
}
