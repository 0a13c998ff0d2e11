package checkout

import (
	"time"
)

// FlowStatus — состояние машины состояний одного прогона чекаута. Все состояния кроме
// COMPLETED и ROLLED_BACK переходные.
type FlowStatus string

const (
	FlowInitiated       FlowStatus = "INITIATED"
	FlowCreditReserved  FlowStatus = "CREDIT_RESERVED"
	FlowStockReserved   FlowStatus = "STOCK_RESERVED"
	FlowOrderCreated    FlowStatus = "ORDER_CREATED"
	FlowPaymentCaptured FlowStatus = "PAYMENT_CAPTURED"
	FlowCompleted       FlowStatus = "COMPLETED"
	FlowFailed          FlowStatus = "FAILED"
	FlowRollingBack     FlowStatus = "ROLLING_BACK"
	FlowRolledBack      FlowStatus = "ROLLED_BACK"
)

type StepName string

const (
	StepValidateCart   StepName = "VALIDATE_CART"
	StepReserveCredit  StepName = "RESERVE_CREDIT"
	StepReserveStock   StepName = "RESERVE_STOCK"
	StepCreateOrder    StepName = "CREATE_ORDER"
	StepCapturePayment StepName = "CAPTURE_PAYMENT"
	StepFinalize       StepName = "FINALIZE"
)

// pipeline — фиксированный порядок шагов чекаута.
var pipeline = []StepName{
	StepValidateCart,
	StepReserveCredit,
	StepReserveStock,
	StepCreateOrder,
	StepCapturePayment,
	StepFinalize,
}

type StepStatus string

const (
	StepStatusPending   StepStatus = "PENDING"
	StepStatusCompleted StepStatus = "COMPLETED"
	StepStatusFailed    StepStatus = "FAILED"
	StepStatusSkipped   StepStatus = "SKIPPED"
)

// StepRecord — запись о выполнении одного шага в рамках прогона.
type StepRecord struct {
	Name            StepName
	Status          StepStatus
	StartedAt       time.Time
	FinishedAt      time.Time
	Duration        time.Duration
	Attempts        int
	Error           string
	HasCompensation bool
}

// flowState — локальное состояние одного прогона. Живет только пока выполняется
// Execute, никуда не персистится.
type flowState struct {
	id         string
	cartID     string
	customerID string
	status     FlowStatus
	// steps хранит записи в порядке пайплайна, byName дает поиск по имени.
	steps  []*StepRecord
	byName map[StepName]*StepRecord
}

func newFlowState(id, cartID, customerID string) *flowState {
	st := &flowState{
		id:         id,
		cartID:     cartID,
		customerID: customerID,
		status:     FlowInitiated,
		steps:      make([]*StepRecord, 0, len(pipeline)),
		byName:     make(map[StepName]*StepRecord, len(pipeline)),
	}
	for _, name := range pipeline {
		rec := &StepRecord{Name: name, Status: StepStatusPending}
		st.steps = append(st.steps, rec)
		st.byName[name] = rec
	}
	return st
}

func (s *flowState) step(name StepName) *StepRecord {
	return s.byName[name]
}

func (s *flowState) skip(name StepName) {
	s.byName[name].Status = StepStatusSkipped
}

func (s *flowState) snapshot() []StepRecord {
	out := make([]StepRecord, len(s.steps))
	for i, rec := range s.steps {
		out[i] = *rec
	}
	return out
}
