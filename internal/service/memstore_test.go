package service

// Стейтфул фейки хранилища для тестов сервиса: свойства вроде инварианта кредита или
// побочного эффекта истекшего капчура проверяются на настоящем состоянии, а не на
// сценарных моках. Тесты однопоточные, блокировки строк не эмулируются.

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fsdevblog/groph-checkout/internal/domain"
	"github.com/fsdevblog/groph-checkout/internal/repository/repoargs"
	"github.com/fsdevblog/groph-checkout/pkg/uow"
)

type memStore struct {
	mu           sync.Mutex
	customers    map[string]*domain.Customer
	carts        map[string]*domain.Cart
	cartItems    map[string][]domain.CartItem
	orders       map[string]*domain.Order
	orderItems   map[string][]domain.OrderItem
	reservations map[string]*domain.CreditReservation
	transactions []domain.CreditTransaction
	orderSeq     map[string]int64
}

func newMemStore() *memStore {
	return &memStore{
		customers:    make(map[string]*domain.Customer),
		carts:        make(map[string]*domain.Cart),
		cartItems:    make(map[string][]domain.CartItem),
		orders:       make(map[string]*domain.Order),
		orderItems:   make(map[string][]domain.OrderItem),
		reservations: make(map[string]*domain.CreditReservation),
		orderSeq:     make(map[string]int64),
	}
}

func (s *memStore) addCustomer(id string, limit, used decimal.Decimal, active bool) {
	s.customers[id] = &domain.Customer{
		ID:          id,
		Name:        "customer " + id,
		Active:      active,
		CreditLimit: limit,
		UsedCredit:  used,
	}
}

func (s *memStore) addCart(cart domain.Cart, items ...domain.CartItem) {
	c := cart
	s.carts[cart.ID] = &c
	s.cartItems[cart.ID] = items
}

func (s *memStore) addOrder(order domain.Order) {
	o := order
	s.orders[order.ID] = &o
}

func (s *memStore) activeReservations(customerID string) []domain.CreditReservation {
	var out []domain.CreditReservation
	for _, res := range s.reservations {
		if res.CustomerID == customerID && res.Status == domain.ReservationStatusActive {
			out = append(out, *res)
		}
	}
	return out
}

// memUOW реализует uow.UOW поверх memStore. Do не эмулирует откаты: сервис обязан
// не оставлять частичных изменений сам, а тесты проверяют итоговое состояние.
type memUOW struct {
	store *memStore
}

func newMemUOW(store *memStore) *memUOW {
	return &memUOW{store: store}
}

func (u *memUOW) Register(uow.RepositoryName, uow.RepositoryFactory) error { return nil }

func (u *memUOW) Do(ctx context.Context, _ string, fn func(context.Context, uow.TX) error) error {
	u.store.mu.Lock()
	defer u.store.mu.Unlock()
	return fn(ctx, &memTX{store: u.store})
}

func (u *memUOW) GetRepository(name uow.RepositoryName) (uow.Repository, error) {
	return repoByName(u.store, name)
}

type memTX struct {
	store *memStore
}

func (t *memTX) Get(name uow.RepositoryName) (uow.Repository, error) {
	return repoByName(t.store, name)
}

func repoByName(store *memStore, name uow.RepositoryName) (uow.Repository, error) {
	switch repoargs.RepositoryName(name) {
	case repoargs.CustomerRepoName:
		return &memCustomerRepo{store: store}, nil
	case repoargs.ReservationRepoName:
		return &memReservationRepo{store: store}, nil
	case repoargs.CreditTransactionRepoName:
		return &memCreditTransactionRepo{store: store}, nil
	case repoargs.CartRepoName:
		return &memCartRepo{store: store}, nil
	case repoargs.OrderRepoName:
		return &memOrderRepo{store: store}, nil
	default:
		return nil, uow.ErrRepositoryNotRegistered
	}
}

type memCustomerRepo struct {
	store *memStore
}

func (r *memCustomerRepo) FindByID(_ context.Context, id string) (*domain.Customer, error) {
	customer, ok := r.store.customers[id]
	if !ok {
		return nil, fmt.Errorf("customer `%s`: %w", id, domain.ErrRecordNotFound)
	}
	c := *customer
	return &c, nil
}

func (r *memCustomerRepo) FindByIDForUpdate(ctx context.Context, id string) (*domain.Customer, error) {
	return r.FindByID(ctx, id)
}

func (r *memCustomerRepo) UpdateUsedCredit(_ context.Context, id string, usedCredit decimal.Decimal) error {
	customer, ok := r.store.customers[id]
	if !ok {
		return fmt.Errorf("customer `%s`: %w", id, domain.ErrRecordNotFound)
	}
	customer.UsedCredit = usedCredit
	return nil
}

type memReservationRepo struct {
	store *memStore
}

func (r *memReservationRepo) Create(
	_ context.Context,
	args repoargs.ReservationCreate,
) (*domain.CreditReservation, error) {
	for _, res := range r.store.reservations {
		if res.OrderID == args.OrderID && res.Status == domain.ReservationStatusActive {
			return nil, fmt.Errorf("active reservation for order `%s`: %w", args.OrderID, domain.ErrDuplicateKey)
		}
	}
	reservation := &domain.CreditReservation{
		ID:            args.ID,
		CustomerID:    args.CustomerID,
		OrderID:       args.OrderID,
		Amount:        args.Amount,
		BalanceBefore: args.BalanceBefore,
		BalanceAfter:  args.BalanceAfter,
		Status:        domain.ReservationStatusActive,
		ReservedAt:    args.ReservedAt,
		ExpiresAt:     args.ExpiresAt,
	}
	r.store.reservations[args.ID] = reservation
	res := *reservation
	return &res, nil
}

func (r *memReservationRepo) FindActiveByOrderID(
	_ context.Context,
	orderID string,
) (*domain.CreditReservation, error) {
	for _, res := range r.store.reservations {
		if res.OrderID == orderID && res.Status == domain.ReservationStatusActive {
			cp := *res
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("active reservation for order `%s`: %w", orderID, domain.ErrRecordNotFound)
}

func (r *memReservationRepo) FindExpiredActive(
	_ context.Context,
	before time.Time,
	limit uint,
) ([]domain.CreditReservation, error) {
	var out []domain.CreditReservation
	for _, res := range r.store.reservations {
		if res.Status == domain.ReservationStatusActive && res.ExpiresAt.Before(before) {
			out = append(out, *res)
			if uint(len(out)) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (r *memReservationRepo) MarkCaptured(_ context.Context, id string, capturedAt time.Time) error {
	res, ok := r.store.reservations[id]
	if !ok || res.Status != domain.ReservationStatusActive {
		return fmt.Errorf("reservation `%s`: %w", id, domain.ErrRecordNotFound)
	}
	res.Status = domain.ReservationStatusCaptured
	at := capturedAt
	res.CapturedAt = &at
	return nil
}

func (r *memReservationRepo) MarkReleased(
	_ context.Context,
	id string,
	status domain.ReservationStatus,
	releasedAt time.Time,
) error {
	res, ok := r.store.reservations[id]
	if !ok || res.Status != domain.ReservationStatusActive {
		return fmt.Errorf("reservation `%s`: %w", id, domain.ErrRecordNotFound)
	}
	res.Status = status
	at := releasedAt
	res.ReleasedAt = &at
	return nil
}

type memCreditTransactionRepo struct {
	store *memStore
}

func (r *memCreditTransactionRepo) Create(
	_ context.Context,
	args repoargs.CreditTransactionCreate,
) (*domain.CreditTransaction, error) {
	transaction := domain.CreditTransaction{
		ID:            args.ID,
		CreatedAt:     time.Now(),
		CustomerID:    args.CustomerID,
		Type:          args.Type,
		Amount:        args.Amount,
		BalanceBefore: args.BalanceBefore,
		BalanceAfter:  args.BalanceAfter,
		ReferenceID:   args.ReferenceID,
		Description:   args.Description,
		CreatedBy:     args.CreatedBy,
	}
	r.store.transactions = append(r.store.transactions, transaction)
	return &transaction, nil
}

func (r *memCreditTransactionRepo) GetByCustomerID(
	_ context.Context,
	customerID string,
	limit uint,
) ([]domain.CreditTransaction, error) {
	var out []domain.CreditTransaction
	for i := len(r.store.transactions) - 1; i >= 0 && uint(len(out)) < limit; i-- {
		if r.store.transactions[i].CustomerID == customerID {
			out = append(out, r.store.transactions[i])
		}
	}
	return out, nil
}

type memCartRepo struct {
	store *memStore
}

func (r *memCartRepo) FindByID(_ context.Context, id string) (*domain.Cart, error) {
	cart, ok := r.store.carts[id]
	if !ok {
		return nil, fmt.Errorf("cart `%s`: %w", id, domain.ErrRecordNotFound)
	}
	c := *cart
	return &c, nil
}

func (r *memCartRepo) FindByIDForUpdate(ctx context.Context, id string) (*domain.Cart, error) {
	return r.FindByID(ctx, id)
}

func (r *memCartRepo) GetItems(_ context.Context, cartID string) ([]domain.CartItem, error) {
	return r.store.cartItems[cartID], nil
}

func (r *memCartRepo) MarkConverted(_ context.Context, cartID string, orderID string) error {
	cart, ok := r.store.carts[cartID]
	if !ok || cart.Status != domain.CartStatusActive {
		return fmt.Errorf("cart `%s`: %w", cartID, domain.ErrRecordNotFound)
	}
	cart.Status = domain.CartStatusConverted
	id := orderID
	cart.OrderID = &id
	return nil
}

type memOrderRepo struct {
	store *memStore
}

func (r *memOrderRepo) Create(_ context.Context, args repoargs.OrderCreate) (*domain.Order, error) {
	if _, exists := r.store.orders[args.ID]; exists {
		return nil, fmt.Errorf("order `%s`: %w", args.ID, domain.ErrDuplicateKey)
	}
	order := &domain.Order{
		ID:              args.ID,
		CreatedAt:       time.Now(),
		CustomerID:      args.CustomerID,
		CartID:          args.CartID,
		OrderNumber:     args.OrderNumber,
		Status:          domain.OrderStatusConfirmed,
		PaymentStatus:   domain.PaymentStatusUnpaid,
		Subtotal:        args.Subtotal,
		Tax:             args.Tax,
		Discount:        args.Discount,
		Shipping:        args.Shipping,
		Total:           args.Total,
		ShippingAddress: args.ShippingAddress,
		BillingAddress:  args.BillingAddress,
	}
	r.store.orders[args.ID] = order
	o := *order
	return &o, nil
}

func (r *memOrderRepo) CreateItems(_ context.Context, items []repoargs.OrderItemCreate) error {
	for _, item := range items {
		r.store.orderItems[item.OrderID] = append(r.store.orderItems[item.OrderID], domain.OrderItem{
			ID:        item.ID,
			OrderID:   item.OrderID,
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			LineTotal: item.LineTotal,
		})
	}
	return nil
}

func (r *memOrderRepo) FindByID(_ context.Context, id string) (*domain.Order, error) {
	order, ok := r.store.orders[id]
	if !ok {
		return nil, fmt.Errorf("order `%s`: %w", id, domain.ErrRecordNotFound)
	}
	o := *order
	return &o, nil
}

func (r *memOrderRepo) NextOrderNumber(_ context.Context, prefix string, day time.Time) (string, error) {
	dateStamp := day.Format("20060102")
	r.store.orderSeq[dateStamp]++
	return fmt.Sprintf("%s-%s-%06d", prefix, dateStamp, r.store.orderSeq[dateStamp]), nil
}

func (r *memOrderRepo) UpdateStatus(_ context.Context, id string, status domain.OrderStatus) error {
	order, ok := r.store.orders[id]
	if !ok {
		return fmt.Errorf("order `%s`: %w", id, domain.ErrRecordNotFound)
	}
	order.Status = status
	return nil
}

func (r *memOrderRepo) UpdatePaymentStatus(_ context.Context, id string, status domain.PaymentStatus) error {
	order, ok := r.store.orders[id]
	if !ok {
		return fmt.Errorf("order `%s`: %w", id, domain.ErrRecordNotFound)
	}
	order.PaymentStatus = status
	return nil
}

// fakeClock — управляемое время для проверок истечения резервов.
type fakeClock struct {
	now time.Time
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }
