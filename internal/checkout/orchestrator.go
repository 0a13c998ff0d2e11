// Package checkout оркестрирует многошаговую транзакцию чекаута: резерв кредита,
// создание заказа, захват оплаты — с ретраями на шагах и компенсациями при сбое.
package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/fsdevblog/groph-checkout/internal/events"
	"github.com/fsdevblog/groph-checkout/internal/service"
)

const (
	// DefaultMaxRetries — число повторов шага после первой неудачной попытки.
	DefaultMaxRetries = 3
	// DefaultFlowTimeout — общий дедлайн одного прогона чекаута.
	DefaultFlowTimeout = 30 * time.Second
)

//go:generate mockgen -source=orchestrator.go -destination=mocks/mocks.go -package=mocks

// Ledger — операции финансового сервиса, которые дергает оркестратор. К хранилищу
// напрямую оркестратор не обращается.
type Ledger interface {
	ValidateCart(ctx context.Context, cartID, customerID string) (*service.CartSummary, error)
	ReserveCredit(ctx context.Context, args service.ReserveCreditArgs) (*service.ReserveCreditResult, error)
	CreateOrder(ctx context.Context, args service.CreateOrderArgs) (*service.CreateOrderResult, error)
	CaptureCredit(ctx context.Context, orderID, userID string) (*service.CaptureCreditResult, error)
	ReleaseCredit(ctx context.Context, orderID, reason string) (*service.ReleaseCreditResult, error)
	RollbackOrder(ctx context.Context, args service.RollbackOrderArgs) error
}

// StockReserver — внешняя система резервирования стока.
type StockReserver interface {
	Reserve(ctx context.Context, orderID, cartID string) error
	Release(ctx context.Context, orderID string) error
}

// NopStockReserver — заглушка на время, пока инвентарный сервис не подключен.
type NopStockReserver struct{}

func (NopStockReserver) Reserve(context.Context, string, string) error { return nil }

func (NopStockReserver) Release(context.Context, string) error { return nil }

// Config — настройки оркестратора. Нулевое значение дает дефолтное поведение:
// компенсации и ретраи включены.
type Config struct {
	DisableCompensation bool
	DisableRetry        bool
	MaxRetries          int
	FlowTimeout         time.Duration
}

func (c *Config) applyDefaults() {
	if c.MaxRetries <= 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.FlowTimeout <= 0 {
		c.FlowTimeout = DefaultFlowTimeout
	}
}

// FlowOptions — опции одного прогона. Нулевое значение запускает полный пайплайн.
type FlowOptions struct {
	SkipCreditReservation bool
	SkipStockReservation  bool
	// Metadata — произвольные атрибуты вызова; ключ "user_id" используется как
	// инициатор операций леджера.
	Metadata map[string]string
}

// Result — структурированный итог прогона. Execute никогда не возвращает ошибку
// наружу: сбой описывается полями Error и Steps.
type Result struct {
	Success       bool
	FlowID        string
	Status        FlowStatus
	OrderID       string
	OrderNumber   string
	ReservationID string
	TransactionID string
	Steps         []StepRecord
	Error         string
}

type Orchestrator struct {
	ledger    Ledger
	stock     StockReserver
	publisher events.Publisher
	conf      Config
	l         *logrus.Entry
}

func New(ledger Ledger, stock StockReserver, publisher events.Publisher, conf Config, l *logrus.Logger) *Orchestrator {
	conf.applyDefaults()
	if stock == nil {
		stock = NopStockReserver{}
	}
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Orchestrator{
		ledger:    ledger,
		stock:     stock,
		publisher: publisher,
		conf:      conf,
		l: l.WithFields(logrus.Fields{
			"component": "checkout",
			"module":    "orchestrator",
		}),
	}
}

// Execute прогоняет корзину через фиксированный пайплайн чекаута. Шаги выполняются
// строго последовательно; любой сбой переводит флоу в FAILED и запускает компенсации
// успевших выполниться шагов в обратном порядке.
func (o *Orchestrator) Execute(ctx context.Context, cartID, customerID string, opts FlowOptions) *Result {
	st := newFlowState(uuid.NewString(), cartID, customerID)
	log := o.l.WithFields(logrus.Fields{
		"flow_id":     st.id,
		"cart_id":     cartID,
		"customer_id": customerID,
	})
	log.Info("checkout flow started")

	// Компенсации выполняются даже если дедлайн флоу уже истек.
	compCtx := context.WithoutCancel(ctx)
	flowCtx, cancel := context.WithTimeout(ctx, o.conf.FlowTimeout)
	defer cancel()

	comps := newCompensationList()
	var (
		orderID       string
		orderNumber   string
		reservationID string
		transactionID string
		total         decimal.Decimal
	)
	userID := opts.Metadata["user_id"]

	flowErr := func() error {
		// VALIDATE_CART
		if err := o.runStep(flowCtx, st, StepValidateCart, log, func(c context.Context) error {
			summary, err := o.ledger.ValidateCart(c, cartID, customerID)
			if err != nil {
				return err
			}
			total = summary.Total
			return nil
		}); err != nil {
			return err
		}

		// RESERVE_CREDIT
		if opts.SkipCreditReservation {
			st.skip(StepReserveCredit)
		} else {
			if err := o.runStep(flowCtx, st, StepReserveCredit, log, func(c context.Context) error {
				// id заказа генерируется здесь: резерв ссылается на заказ,
				// которого еще нет в хранилище.
				if orderID == "" {
					orderID = uuid.NewString()
				}
				res, err := o.ledger.ReserveCredit(c, service.ReserveCreditArgs{
					CustomerID: customerID,
					OrderID:    orderID,
					Amount:     total,
					UserID:     userID,
				})
				if err != nil {
					return err
				}
				reservationID = res.ReservationID
				return nil
			}); err != nil {
				return err
			}
			st.status = FlowCreditReserved
			st.step(StepReserveCredit).HasCompensation = true
			releaseOrderID := orderID
			comps.register("release_credit", func(c context.Context) error {
				_, err := o.ledger.ReleaseCredit(c, releaseOrderID, "checkout flow rolled back")
				return err
			})
		}

		// RESERVE_STOCK
		if opts.SkipStockReservation {
			st.skip(StepReserveStock)
		} else {
			if err := o.runStep(flowCtx, st, StepReserveStock, log, func(c context.Context) error {
				if orderID == "" {
					orderID = uuid.NewString()
				}
				return o.stock.Reserve(c, orderID, cartID)
			}); err != nil {
				return err
			}
			st.status = FlowStockReserved
			st.step(StepReserveStock).HasCompensation = true
			releaseOrderID := orderID
			comps.register("release_stock", func(c context.Context) error {
				return o.stock.Release(c, releaseOrderID)
			})
		}

		// CREATE_ORDER
		if err := o.runStep(flowCtx, st, StepCreateOrder, log, func(c context.Context) error {
			res, err := o.ledger.CreateOrder(c, service.CreateOrderArgs{
				CartID:     cartID,
				CustomerID: customerID,
				OrderID:    orderID,
			})
			if err != nil {
				return err
			}
			orderID = res.OrderID
			orderNumber = res.OrderNumber
			return nil
		}); err != nil {
			return err
		}
		st.status = FlowOrderCreated
		st.step(StepCreateOrder).HasCompensation = true
		cancelOrderID := orderID
		comps.register("cancel_order", func(c context.Context) error {
			// Кредит и сток снимаются собственными компенсациями, поэтому оба
			// флага выключены — иначе получили бы двойное освобождение.
			return o.ledger.RollbackOrder(c, service.RollbackOrderArgs{
				OrderID:       cancelOrderID,
				Reason:        "checkout flow rolled back",
				ReleaseCredit: false,
				ReleaseStock:  false,
			})
		})

		// CAPTURE_PAYMENT — только если кредит резервировался.
		if opts.SkipCreditReservation {
			st.skip(StepCapturePayment)
		} else {
			if err := o.runStep(flowCtx, st, StepCapturePayment, log, func(c context.Context) error {
				res, err := o.ledger.CaptureCredit(c, orderID, userID)
				if err != nil {
					return err
				}
				transactionID = res.TransactionID
				return nil
			}); err != nil {
				return err
			}
			st.status = FlowPaymentCaptured
		}

		// FINALIZE — терминальная бухгалтерия, безопасна при повторе.
		if err := o.runStep(flowCtx, st, StepFinalize, log, func(c context.Context) error {
			o.publisher.CheckoutCompleted(c, events.CheckoutCompletedPayload{
				FlowID:        st.id,
				CartID:        cartID,
				CustomerID:    customerID,
				OrderID:       orderID,
				OrderNumber:   orderNumber,
				ReservationID: reservationID,
				TransactionID: transactionID,
				Total:         total,
			})
			return nil
		}); err != nil {
			return err
		}
		st.status = FlowCompleted
		return nil
	}()

	if flowErr == nil {
		log.WithFields(logrus.Fields{
			"order_id":     orderID,
			"order_number": orderNumber,
		}).Info("checkout flow completed")
		return &Result{
			Success:       true,
			FlowID:        st.id,
			Status:        st.status,
			OrderID:       orderID,
			OrderNumber:   orderNumber,
			ReservationID: reservationID,
			TransactionID: transactionID,
			Steps:         st.snapshot(),
		}
	}

	st.status = FlowFailed
	log.WithError(flowErr).Error("checkout flow failed")

	if !o.conf.DisableCompensation && comps.len() > 0 {
		st.status = FlowRollingBack
		comps.runReverse(compCtx, log)
		st.status = FlowRolledBack
	} else if !o.conf.DisableCompensation {
		// Компенсировать нечего, но семантика итогового статуса та же.
		st.status = FlowRolledBack
	}

	o.publisher.CheckoutRolledBack(compCtx, events.CheckoutRolledBackPayload{
		FlowID:     st.id,
		CartID:     cartID,
		CustomerID: customerID,
		OrderID:    orderID,
		FailedStep: string(failedStepName(st)),
		Reason:     flowErr.Error(),
	})

	return &Result{
		Success:       false,
		FlowID:        st.id,
		Status:        st.status,
		OrderID:       orderID,
		OrderNumber:   orderNumber,
		ReservationID: reservationID,
		TransactionID: transactionID,
		Steps:         st.snapshot(),
		Error:         flowErr.Error(),
	}
}

// runStep выполняет шаг с ретраями. Транзиентные ошибки повторяются с экспоненциальным
// бэкоффом до исчерпания MaxRetries, бизнес-ошибки падают сразу. Ошибка записывается
// в StepRecord и возвращается на уровень флоу.
func (o *Orchestrator) runStep(
	ctx context.Context,
	st *flowState,
	name StepName,
	log *logrus.Entry,
	fn func(ctx context.Context) error,
) error {
	rec := st.step(name)
	rec.StartedAt = time.Now()
	stepLog := log.WithField("step", string(name))

	var err error
	for attempt := 0; ; attempt++ {
		rec.Attempts = attempt + 1
		err = fn(ctx)
		if err == nil {
			rec.Status = StepStatusCompleted
			rec.FinishedAt = time.Now()
			rec.Duration = rec.FinishedAt.Sub(rec.StartedAt)
			stepLog.WithFields(logrus.Fields{
				"attempts":    rec.Attempts,
				"duration_ms": rec.Duration.Milliseconds(),
			}).Info("step completed")
			return nil
		}

		if o.conf.DisableRetry || attempt >= o.conf.MaxRetries || !isRetryableError(err) {
			break
		}

		delay := backoffDelay(attempt)
		stepLog.WithError(err).WithFields(logrus.Fields{
			"attempt":  attempt + 1,
			"retry_in": delay.String(),
		}).Warn("step failed, retrying")

		select {
		case <-ctx.Done():
			err = fmt.Errorf("step %s: %w", name, ctx.Err())
			rec.Status = StepStatusFailed
			rec.FinishedAt = time.Now()
			rec.Duration = rec.FinishedAt.Sub(rec.StartedAt)
			rec.Error = err.Error()
			return err
		case <-time.After(delay):
		}
	}

	rec.Status = StepStatusFailed
	rec.FinishedAt = time.Now()
	rec.Duration = rec.FinishedAt.Sub(rec.StartedAt)
	rec.Error = err.Error()
	stepLog.WithError(err).WithField("attempts", rec.Attempts).Error("step failed")
	return fmt.Errorf("step %s: %w", name, err)
}

func failedStepName(st *flowState) StepName {
	for _, rec := range st.steps {
		if rec.Status == StepStatusFailed {
			return rec.Name
		}
	}
	return ""
}
