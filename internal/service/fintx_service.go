package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fsdevblog/groph-checkout/internal/domain"
	"github.com/fsdevblog/groph-checkout/internal/repository/repoargs"
	"github.com/fsdevblog/groph-checkout/pkg/uow"
)

const (
	opReserveCredit      = "reserve_credit"
	opCreateOrder        = "create_order"
	opCaptureCredit      = "capture_credit"
	opReleaseCredit      = "release_credit"
	opRollbackOrder      = "rollback_order"
	opExpireReservations = "expire_reservation"

	// DefaultReservationTimeout — срок жизни кредитного резерва по умолчанию.
	DefaultReservationTimeout = 30 * time.Minute
	// DefaultOrderNumberPrefix — префикс номера заказа по умолчанию.
	DefaultOrderNumberPrefix = "ORD"

	systemActor = "system"
)

// FinTxConfig — настройки финансового сервиса. Нулевые значения заменяются
// дефолтами при конструировании.
type FinTxConfig struct {
	ReservationTimeout time.Duration
	OrderNumberPrefix  string
	Clock              Clock
}

func (c *FinTxConfig) applyDefaults() {
	if c.ReservationTimeout <= 0 {
		c.ReservationTimeout = DefaultReservationTimeout
	}
	if c.OrderNumberPrefix == "" {
		c.OrderNumberPrefix = DefaultOrderNumberPrefix
	}
	if c.Clock == nil {
		c.Clock = SystemClock()
	}
}

// FinancialTransactionService выполняет каждую операцию чекаута как одну атомарную
// транзакцию против леджера. Инвариант usedCredit <= creditLimit обеспечивается
// эксклюзивной блокировкой строки покупателя на время транзакции.
type FinancialTransactionService struct {
	uow      uow.UOW
	custRepo CustomerRepository
	cartRepo CartRepository
	resRepo  ReservationRepository
	txRepo   CreditTransactionRepository
	conf     FinTxConfig
}

func NewFinancialTransactionService(u uow.UOW, conf FinTxConfig) (*FinancialTransactionService, error) {
	conf.applyDefaults()

	custRepo, custErr := uow.GetRepositoryAs[CustomerRepository](u, uow.RepositoryName(repoargs.CustomerRepoName))
	if custErr != nil {
		return nil, custErr
	}
	cartRepo, cartErr := uow.GetRepositoryAs[CartRepository](u, uow.RepositoryName(repoargs.CartRepoName))
	if cartErr != nil {
		return nil, cartErr
	}
	resRepo, resErr := uow.GetRepositoryAs[ReservationRepository](u, uow.RepositoryName(repoargs.ReservationRepoName))
	if resErr != nil {
		return nil, resErr
	}
	txRepo, txErr := uow.GetRepositoryAs[CreditTransactionRepository](
		u, uow.RepositoryName(repoargs.CreditTransactionRepoName))
	if txErr != nil {
		return nil, txErr
	}

	return &FinancialTransactionService{
		uow:      u,
		custRepo: custRepo,
		cartRepo: cartRepo,
		resRepo:  resRepo,
		txRepo:   txRepo,
		conf:     conf,
	}, nil
}

type ReserveCreditArgs struct {
	CustomerID string
	OrderID    string
	Amount     decimal.Decimal
	UserID     string
}

type ReserveCreditResult struct {
	ReservationID   string
	AvailableCredit decimal.Decimal
	ReservedAmount  decimal.Decimal
}

// ReserveCredit создает холд на кредитном лимите покупателя под заказ OrderID.
//
// Алгоритм работы:
//  1. Блокирует строку покупателя на время транзакции.
//  2. Если для OrderID уже существует активный резерв, возвращает его без создания
//     дубликата (безопасный ретрай шага оркестратора).
//  3. Проверяет доступный лимит; при нехватке возвращает *domain.InsufficientCreditError.
//  4. Создает резерв и увеличивает usedCredit в той же транзакции.
func (s *FinancialTransactionService) ReserveCredit(
	ctx context.Context,
	args ReserveCreditArgs,
) (*ReserveCreditResult, error) {
	var result *ReserveCreditResult

	txErr := s.uow.Do(ctx, opReserveCredit, func(c context.Context, tx uow.TX) error {
		custRepo, custRepoErr := uow.GetAs[CustomerRepository](tx, uow.RepositoryName(repoargs.CustomerRepoName))
		if custRepoErr != nil {
			return custRepoErr
		}
		resRepo, resRepoErr := uow.GetAs[ReservationRepository](tx, uow.RepositoryName(repoargs.ReservationRepoName))
		if resRepoErr != nil {
			return resRepoErr
		}

		customer, custErr := custRepo.FindByIDForUpdate(c, args.CustomerID)
		if custErr != nil {
			return custErr
		}
		if !customer.Active {
			return fmt.Errorf("customer %s: %w", customer.ID, domain.ErrCustomerInactive)
		}

		existing, existingErr := resRepo.FindActiveByOrderID(c, args.OrderID)
		if existingErr == nil {
			result = &ReserveCreditResult{
				ReservationID:   existing.ID,
				AvailableCredit: customer.AvailableCredit(),
				ReservedAmount:  existing.Amount,
			}
			return nil
		}
		if !errors.Is(existingErr, domain.ErrRecordNotFound) {
			return existingErr
		}

		available := customer.AvailableCredit()
		if args.Amount.GreaterThan(available) {
			return domain.NewInsufficientCreditError(customer.ID, available, args.Amount)
		}

		now := s.conf.Clock.Now()
		balanceAfter := customer.UsedCredit.Add(args.Amount)
		reservation, resErr := resRepo.Create(c, repoargs.ReservationCreate{
			ID:            uuid.NewString(),
			CustomerID:    customer.ID,
			OrderID:       args.OrderID,
			Amount:        args.Amount,
			BalanceBefore: customer.UsedCredit,
			BalanceAfter:  balanceAfter,
			ReservedAt:    now,
			ExpiresAt:     now.Add(s.conf.ReservationTimeout),
		})
		if resErr != nil {
			return resErr
		}

		if updErr := custRepo.UpdateUsedCredit(c, customer.ID, balanceAfter); updErr != nil {
			return updErr
		}

		result = &ReserveCreditResult{
			ReservationID:   reservation.ID,
			AvailableCredit: customer.CreditLimit.Sub(balanceAfter),
			ReservedAmount:  args.Amount,
		}
		return nil
	})
	if txErr != nil {
		return nil, fmt.Errorf("reserving credit for order %s: %w", args.OrderID, txErr)
	}
	return result, nil
}

type CreateOrderArgs struct {
	CartID     string
	CustomerID string
	// OrderID — заранее сгенерированный id заказа: резерв кредита создается до
	// появления заказа и ссылается на тот же id.
	OrderID string
}

type CreateOrderResult struct {
	OrderID     string
	OrderNumber string
}

// CreateOrder конвертирует корзину в заказ: снапшот сумм и позиций, генерация номера
// заказа и пометка корзины CONVERTED — все в одной транзакции.
func (s *FinancialTransactionService) CreateOrder(
	ctx context.Context,
	args CreateOrderArgs,
) (*CreateOrderResult, error) {
	var result *CreateOrderResult

	txErr := s.uow.Do(ctx, opCreateOrder, func(c context.Context, tx uow.TX) error {
		cartRepo, cartRepoErr := uow.GetAs[CartRepository](tx, uow.RepositoryName(repoargs.CartRepoName))
		if cartRepoErr != nil {
			return cartRepoErr
		}
		orderRepo, orderRepoErr := uow.GetAs[OrderRepository](tx, uow.RepositoryName(repoargs.OrderRepoName))
		if orderRepoErr != nil {
			return orderRepoErr
		}

		cart, cartErr := cartRepo.FindByIDForUpdate(c, args.CartID)
		if cartErr != nil {
			return cartErr
		}
		if cart.Status != domain.CartStatusActive {
			return fmt.Errorf("cart %s has status %s: %w", cart.ID, cart.Status, domain.ErrCartNotActive)
		}
		if cart.CustomerID != "" && cart.CustomerID != args.CustomerID {
			return fmt.Errorf("cart %s belongs to another customer: %w", cart.ID, domain.ErrOwnerConflict)
		}

		items, itemsErr := cartRepo.GetItems(c, cart.ID)
		if itemsErr != nil {
			return itemsErr
		}
		if len(items) == 0 {
			return fmt.Errorf("cart %s: %w", cart.ID, domain.ErrCartEmpty)
		}

		orderNumber, numErr := orderRepo.NextOrderNumber(c, s.conf.OrderNumberPrefix, s.conf.Clock.Now())
		if numErr != nil {
			return numErr
		}

		orderID := args.OrderID
		if orderID == "" {
			orderID = uuid.NewString()
		}

		order, orderErr := orderRepo.Create(c, repoargs.OrderCreate{
			ID:              orderID,
			CustomerID:      args.CustomerID,
			CartID:          cart.ID,
			OrderNumber:     orderNumber,
			Subtotal:        cart.Subtotal,
			Tax:             cart.Tax,
			Discount:        cart.Discount,
			Shipping:        cart.Shipping,
			Total:           cart.Total,
			ShippingAddress: cart.ShippingAddress,
			BillingAddress:  cart.BillingAddress,
		})
		if orderErr != nil {
			return orderErr
		}

		orderItems := make([]repoargs.OrderItemCreate, len(items))
		for i, item := range items {
			orderItems[i] = repoargs.OrderItemCreate{
				ID:        uuid.NewString(),
				OrderID:   order.ID,
				ProductID: item.ProductID,
				Name:      item.Name,
				Quantity:  item.Quantity,
				UnitPrice: item.UnitPrice,
				LineTotal: item.LineTotal,
			}
		}
		if itemsCreateErr := orderRepo.CreateItems(c, orderItems); itemsCreateErr != nil {
			return itemsCreateErr
		}

		if convErr := cartRepo.MarkConverted(c, cart.ID, order.ID); convErr != nil {
			return convErr
		}

		result = &CreateOrderResult{
			OrderID:     order.ID,
			OrderNumber: order.OrderNumber,
		}
		return nil
	})
	if txErr != nil {
		return nil, fmt.Errorf("creating order from cart %s: %w", args.CartID, txErr)
	}
	return result, nil
}

type CaptureCreditResult struct {
	TransactionID   string
	CapturedAmount  decimal.Decimal
	RemainingCredit decimal.Decimal
}

// CaptureCredit превращает активный резерв по заказу в зафиксированный дебет леджера.
//
// Баланс уже был сдвинут при резервировании, поэтому дебетовая запись аудитная:
// balanceAfter == balanceBefore, повторного списания не происходит.
//
// Если резерв истек, он помечается EXPIRED, usedCredit восстанавливается (эти изменения
// коммитятся) и возвращается ошибка domain.ErrReservationExpired — падение операции
// с побочным эффектом.
func (s *FinancialTransactionService) CaptureCredit(
	ctx context.Context,
	orderID string,
	userID string,
) (*CaptureCreditResult, error) {
	var result *CaptureCreditResult
	var expired bool

	txErr := s.uow.Do(ctx, opCaptureCredit, func(c context.Context, tx uow.TX) error {
		resRepo, resRepoErr := uow.GetAs[ReservationRepository](tx, uow.RepositoryName(repoargs.ReservationRepoName))
		if resRepoErr != nil {
			return resRepoErr
		}
		custRepo, custRepoErr := uow.GetAs[CustomerRepository](tx, uow.RepositoryName(repoargs.CustomerRepoName))
		if custRepoErr != nil {
			return custRepoErr
		}
		txRepo, txRepoErr := uow.GetAs[CreditTransactionRepository](
			tx, uow.RepositoryName(repoargs.CreditTransactionRepoName))
		if txRepoErr != nil {
			return txRepoErr
		}
		orderRepo, orderRepoErr := uow.GetAs[OrderRepository](tx, uow.RepositoryName(repoargs.OrderRepoName))
		if orderRepoErr != nil {
			return orderRepoErr
		}

		reservation, resErr := resRepo.FindActiveByOrderID(c, orderID)
		if resErr != nil {
			return fmt.Errorf("no active reservation for order %s: %w", orderID, resErr)
		}

		now := s.conf.Clock.Now()
		if now.After(reservation.ExpiresAt) {
			expired = true
			_, relErr := s.releaseInTx(c, tx, reservation, domain.ReservationStatusExpired,
				"reservation expired before capture", systemActor)
			return relErr
		}

		customer, custErr := custRepo.FindByIDForUpdate(c, reservation.CustomerID)
		if custErr != nil {
			return custErr
		}

		createdBy := userID
		if createdBy == "" {
			createdBy = systemActor
		}
		transaction, createErr := txRepo.Create(c, repoargs.CreditTransactionCreate{
			ID:            uuid.NewString(),
			CustomerID:    customer.ID,
			Type:          domain.TransactionTypeDebit,
			Amount:        reservation.Amount,
			BalanceBefore: customer.UsedCredit,
			BalanceAfter:  customer.UsedCredit,
			ReferenceID:   orderID,
			Description:   fmt.Sprintf("credit capture for order %s", orderID),
			CreatedBy:     createdBy,
		})
		if createErr != nil {
			return createErr
		}

		if capErr := resRepo.MarkCaptured(c, reservation.ID, now); capErr != nil {
			return capErr
		}
		if payErr := orderRepo.UpdatePaymentStatus(c, orderID, domain.PaymentStatusPaid); payErr != nil {
			return payErr
		}

		result = &CaptureCreditResult{
			TransactionID:   transaction.ID,
			CapturedAmount:  reservation.Amount,
			RemainingCredit: customer.AvailableCredit(),
		}
		return nil
	})
	if txErr != nil {
		return nil, fmt.Errorf("capturing credit for order %s: %w", orderID, txErr)
	}
	if expired {
		return nil, fmt.Errorf("capturing credit for order %s: %w", orderID, domain.ErrReservationExpired)
	}
	return result, nil
}

type ReleaseCreditResult struct {
	ReleasedAmount decimal.Decimal
}

// ReleaseCredit снимает активный холд по заказу и восстанавливает usedCredit.
// Если активного резерва нет, операция no-op с нулевой суммой.
func (s *FinancialTransactionService) ReleaseCredit(
	ctx context.Context,
	orderID string,
	reason string,
) (*ReleaseCreditResult, error) {
	result := &ReleaseCreditResult{ReleasedAmount: decimal.Zero}

	txErr := s.uow.Do(ctx, opReleaseCredit, func(c context.Context, tx uow.TX) error {
		amount, err := s.releaseActiveByOrderID(c, tx, orderID, reason)
		if err != nil {
			return err
		}
		result.ReleasedAmount = amount
		return nil
	})
	if txErr != nil {
		return nil, fmt.Errorf("releasing credit for order %s: %w", orderID, txErr)
	}
	return result, nil
}

type RollbackOrderArgs struct {
	OrderID       string
	Reason        string
	ReleaseCredit bool
	ReleaseStock  bool
}

// RollbackOrder отменяет заказ. Освобождение кредита и стока управляется флагами:
// компенсация шага создания заказа вызывает откат с выключенными флагами, потому что
// у резерва кредита и у стока есть собственные независимые компенсации.
func (s *FinancialTransactionService) RollbackOrder(ctx context.Context, args RollbackOrderArgs) error {
	txErr := s.uow.Do(ctx, opRollbackOrder, func(c context.Context, tx uow.TX) error {
		orderRepo, orderRepoErr := uow.GetAs[OrderRepository](tx, uow.RepositoryName(repoargs.OrderRepoName))
		if orderRepoErr != nil {
			return orderRepoErr
		}

		order, orderErr := orderRepo.FindByID(c, args.OrderID)
		if orderErr != nil {
			return orderErr
		}

		if args.ReleaseCredit {
			if _, relErr := s.releaseActiveByOrderID(c, tx, order.ID, args.Reason); relErr != nil {
				return relErr
			}
		}
		// Резервы стока живут у внешнего коллаборатора, в леджере их нет; флаг
		// ReleaseStock здесь ничего не пишет и оставлен за вызывающей стороной.

		return orderRepo.UpdateStatus(c, order.ID, domain.OrderStatusCancelled)
	})
	if txErr != nil {
		return fmt.Errorf("rolling back order %s: %w", args.OrderID, txErr)
	}
	return nil
}

// releaseActiveByOrderID — внутренний путь освобождения резерва в рамках уже открытой
// транзакции. Возвращает нулевую сумму если активного резерва по заказу нет.
func (s *FinancialTransactionService) releaseActiveByOrderID(
	ctx context.Context,
	tx uow.TX,
	orderID string,
	reason string,
) (decimal.Decimal, error) {
	resRepo, resRepoErr := uow.GetAs[ReservationRepository](tx, uow.RepositoryName(repoargs.ReservationRepoName))
	if resRepoErr != nil {
		return decimal.Zero, resRepoErr
	}

	reservation, resErr := resRepo.FindActiveByOrderID(ctx, orderID)
	if resErr != nil {
		if errors.Is(resErr, domain.ErrRecordNotFound) {
			return decimal.Zero, nil
		}
		return decimal.Zero, resErr
	}

	if reason == "" {
		reason = fmt.Sprintf("credit release for order %s", orderID)
	}
	return s.releaseInTx(ctx, tx, reservation, domain.ReservationStatusReleased, reason, systemActor)
}

// releaseInTx восстанавливает usedCredit по резерву и переводит резерв в статус status
// (RELEASED либо EXPIRED). Пишет кредитовую запись леджера с атрибуцией.
func (s *FinancialTransactionService) releaseInTx(
	ctx context.Context,
	tx uow.TX,
	reservation *domain.CreditReservation,
	status domain.ReservationStatus,
	reason string,
	createdBy string,
) (decimal.Decimal, error) {
	custRepo, custRepoErr := uow.GetAs[CustomerRepository](tx, uow.RepositoryName(repoargs.CustomerRepoName))
	if custRepoErr != nil {
		return decimal.Zero, custRepoErr
	}
	txRepo, txRepoErr := uow.GetAs[CreditTransactionRepository](
		tx, uow.RepositoryName(repoargs.CreditTransactionRepoName))
	if txRepoErr != nil {
		return decimal.Zero, txRepoErr
	}
	resRepo, resRepoErr := uow.GetAs[ReservationRepository](tx, uow.RepositoryName(repoargs.ReservationRepoName))
	if resRepoErr != nil {
		return decimal.Zero, resRepoErr
	}

	customer, custErr := custRepo.FindByIDForUpdate(ctx, reservation.CustomerID)
	if custErr != nil {
		return decimal.Zero, custErr
	}

	balanceAfter := customer.UsedCredit.Sub(reservation.Amount)
	if _, createErr := txRepo.Create(ctx, repoargs.CreditTransactionCreate{
		ID:            uuid.NewString(),
		CustomerID:    customer.ID,
		Type:          domain.TransactionTypeCredit,
		Amount:        reservation.Amount,
		BalanceBefore: customer.UsedCredit,
		BalanceAfter:  balanceAfter,
		ReferenceID:   reservation.OrderID,
		Description:   reason,
		CreatedBy:     createdBy,
	}); createErr != nil {
		return decimal.Zero, createErr
	}

	if updErr := custRepo.UpdateUsedCredit(ctx, customer.ID, balanceAfter); updErr != nil {
		return decimal.Zero, updErr
	}

	if markErr := resRepo.MarkReleased(ctx, reservation.ID, status, s.conf.Clock.Now()); markErr != nil {
		return decimal.Zero, markErr
	}
	return reservation.Amount, nil
}

// CartSummary — снапшот корзины для первого шага чекаута: итоговая сумма нужна
// оркестратору до создания заказа, чтобы зарезервировать кредит.
type CartSummary struct {
	CartID    string
	ItemCount int
	Total     decimal.Decimal
}

// ValidateCart проверяет что корзина существует, активна, непуста и принадлежит
// покупателю. Возвращает снапшот сумм без блокировок.
func (s *FinancialTransactionService) ValidateCart(
	ctx context.Context,
	cartID string,
	customerID string,
) (*CartSummary, error) {
	cart, cartErr := s.cartRepo.FindByID(ctx, cartID)
	if cartErr != nil {
		return nil, fmt.Errorf("validating cart %s: %w", cartID, cartErr)
	}
	if cart.Status != domain.CartStatusActive {
		return nil, fmt.Errorf("validating cart %s: %w", cartID, domain.ErrCartNotActive)
	}
	if cart.CustomerID != "" && cart.CustomerID != customerID {
		return nil, fmt.Errorf("validating cart %s: %w", cartID, domain.ErrOwnerConflict)
	}

	items, itemsErr := s.cartRepo.GetItems(ctx, cartID)
	if itemsErr != nil {
		return nil, fmt.Errorf("validating cart %s: %w", cartID, itemsErr)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("validating cart %s: %w", cartID, domain.ErrCartEmpty)
	}

	return &CartSummary{
		CartID:    cart.ID,
		ItemCount: len(items),
		Total:     cart.Total,
	}, nil
}

// ExpireReservations находит активные резервы с истекшим сроком и освобождает каждый
// в отдельной транзакции. Возвращает число обработанных резервов.
func (s *FinancialTransactionService) ExpireReservations(ctx context.Context, limit uint) (int, error) {
	stale, staleErr := s.resRepo.FindExpiredActive(ctx, s.conf.Clock.Now(), limit)
	if staleErr != nil {
		return 0, fmt.Errorf("finding expired reservations: %w", staleErr)
	}

	var expired int
	for i := range stale {
		orderID := stale[i].OrderID
		txErr := s.uow.Do(ctx, opExpireReservations, func(c context.Context, tx uow.TX) error {
			resRepo, resRepoErr := uow.GetAs[ReservationRepository](tx, uow.RepositoryName(repoargs.ReservationRepoName))
			if resRepoErr != nil {
				return resRepoErr
			}
			// Перечитываем под транзакцией: резерв мог быть захвачен или снят между
			// выборкой и обработкой.
			reservation, resErr := resRepo.FindActiveByOrderID(c, orderID)
			if resErr != nil {
				if errors.Is(resErr, domain.ErrRecordNotFound) {
					return nil
				}
				return resErr
			}
			if !s.conf.Clock.Now().After(reservation.ExpiresAt) {
				return nil
			}
			_, relErr := s.releaseInTx(c, tx, reservation, domain.ReservationStatusExpired,
				"reservation expired", systemActor)
			return relErr
		})
		if txErr != nil {
			return expired, fmt.Errorf("expiring reservation for order %s: %w", orderID, txErr)
		}
		expired++
	}
	return expired, nil
}

// CreditSummary — текущее состояние кредитной линии покупателя.
type CreditSummary struct {
	CustomerID      string
	CreditLimit     decimal.Decimal
	UsedCredit      decimal.Decimal
	AvailableCredit decimal.Decimal
}

func (s *FinancialTransactionService) GetCreditSummary(
	ctx context.Context,
	customerID string,
) (*CreditSummary, error) {
	customer, err := s.custRepo.FindByID(ctx, customerID)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	return &CreditSummary{
		CustomerID:      customer.ID,
		CreditLimit:     customer.CreditLimit,
		UsedCredit:      customer.UsedCredit,
		AvailableCredit: customer.AvailableCredit(),
	}, nil
}

// GetCreditTransactions возвращает записи леджера покупателя, новые первыми.
func (s *FinancialTransactionService) GetCreditTransactions(
	ctx context.Context,
	customerID string,
	limit uint,
) ([]domain.CreditTransaction, error) {
	transactions, err := s.txRepo.GetByCustomerID(ctx, customerID, limit)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	return transactions, nil
}
