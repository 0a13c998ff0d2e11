package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/suite"

	"github.com/fsdevblog/groph-checkout/internal/checkout"
	"github.com/fsdevblog/groph-checkout/internal/logger"
	"github.com/fsdevblog/groph-checkout/internal/transport/api/mocks"
	"github.com/fsdevblog/groph-checkout/internal/transport/api/testutils"
)

type CheckoutHandlerTestSuite struct {
	suite.Suite
	router       *gin.Engine
	mockCheckout *mocks.MockCheckouter
}

func TestCheckoutHandlerSuite(t *testing.T) {
	suite.Run(t, new(CheckoutHandlerTestSuite))
}

func (s *CheckoutHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	mockCtrl := gomock.NewController(s.T())
	defer mockCtrl.Finish()

	s.mockCheckout = mocks.NewMockCheckouter(mockCtrl)

	s.router = New(RouterArgs{
		Logger:          logger.New(io.Discard),
		CheckoutService: s.mockCheckout,
		CreditService:   mocks.NewMockCreditServicer(mockCtrl),
	})
}

func (s *CheckoutHandlerTestSuite) postCheckout(payload []byte) *http.Response {
	return testutils.MakeRequest(testutils.RequestArgs{
		Router: s.router,
		Method: http.MethodPost,
		URL:    RouteGroup + CheckoutRoute,
		Body:   bytes.NewReader(payload),
	}, testutils.WithHeader("Content-Type", "application/json"))
}

func (s *CheckoutHandlerTestSuite) TestExecute_Success() {
	successResult := &checkout.Result{
		Success:     true,
		FlowID:      "flow-1",
		Status:      checkout.FlowCompleted,
		OrderID:     "order-1",
		OrderNumber: "ORD-20250615-000001",
		Steps: []checkout.StepRecord{
			{Name: checkout.StepValidateCart, Status: checkout.StepStatusCompleted, Attempts: 1},
			{Name: checkout.StepFinalize, Status: checkout.StepStatusCompleted, Attempts: 1},
		},
	}

	s.mockCheckout.EXPECT().
		Execute(gomock.Any(), "cart-1", "customer-1", gomock.Any()).
		DoAndReturn(func(_ context.Context, _, _ string, opts checkout.FlowOptions) *checkout.Result {
			// nil в reserve_* трактуется как включено.
			s.False(opts.SkipCreditReservation)
			s.False(opts.SkipStockReservation)
			s.Equal("user-1", opts.Metadata["user_id"])
			return successResult
		}).Times(1)

	payload := []byte(`{"cart_id":"cart-1","customer_id":"customer-1","metadata":{"user_id":"user-1"}}`)
	response := s.postCheckout(payload)
	defer response.Body.Close()

	s.Require().Equal(http.StatusOK, response.StatusCode)

	var body CheckoutResponse
	s.Require().NoError(json.NewDecoder(response.Body).Decode(&body))
	s.True(body.Success)
	s.Equal("flow-1", body.FlowID)
	s.Equal(string(checkout.FlowCompleted), body.Status)
	s.Equal("ORD-20250615-000001", body.OrderNumber)
	s.Len(body.Steps, 2)
}

func (s *CheckoutHandlerTestSuite) TestExecute_FlowFailed() {
	failedResult := &checkout.Result{
		Success: false,
		FlowID:  "flow-2",
		Status:  checkout.FlowRolledBack,
		Error:   "step RESERVE_CREDIT: insufficient credit",
		Steps: []checkout.StepRecord{
			{Name: checkout.StepValidateCart, Status: checkout.StepStatusCompleted, Attempts: 1},
			{
				Name:     checkout.StepReserveCredit,
				Status:   checkout.StepStatusFailed,
				Attempts: 1,
				Error:    "insufficient credit",
			},
		},
	}

	s.mockCheckout.EXPECT().
		Execute(gomock.Any(), "cart-1", "customer-1", gomock.Any()).
		Return(failedResult).Times(1)

	payload := []byte(`{"cart_id":"cart-1","customer_id":"customer-1"}`)
	response := s.postCheckout(payload)
	defer response.Body.Close()

	// Сбой флоу — штатный структурированный ответ, а не 5xx.
	s.Require().Equal(http.StatusUnprocessableEntity, response.StatusCode)

	var body CheckoutResponse
	s.Require().NoError(json.NewDecoder(response.Body).Decode(&body))
	s.False(body.Success)
	s.Equal(string(checkout.FlowRolledBack), body.Status)
	s.NotEmpty(body.Error)
}

func (s *CheckoutHandlerTestSuite) TestExecute_SkipFlags() {
	disabled := false
	raw, err := json.Marshal(CheckoutParams{
		CartID:        "cart-1",
		CustomerID:    "customer-1",
		ReserveCredit: &disabled,
		ReserveStock:  &disabled,
	})
	s.Require().NoError(err)

	s.mockCheckout.EXPECT().
		Execute(gomock.Any(), "cart-1", "customer-1", gomock.Any()).
		DoAndReturn(func(_ context.Context, _, _ string, opts checkout.FlowOptions) *checkout.Result {
			s.True(opts.SkipCreditReservation)
			s.True(opts.SkipStockReservation)
			return &checkout.Result{Success: true, Status: checkout.FlowCompleted}
		}).Times(1)

	response := s.postCheckout(raw)
	defer response.Body.Close()

	s.Equal(http.StatusOK, response.StatusCode)
}

func (s *CheckoutHandlerTestSuite) TestExecute_BadRequest() {
	// Сервис не должен вызываться при невалидном теле.
	s.mockCheckout.EXPECT().
		Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Times(0)

	cases := []struct {
		name    string
		payload []byte
	}{
		{name: "not json", payload: []byte("not json at all")},
		{name: "missing cart_id", payload: []byte(`{"customer_id":"customer-1"}`)},
		{name: "missing customer_id", payload: []byte(`{"cart_id":"cart-1"}`)},
	}

	for _, t := range cases {
		s.Run(t.name, func() {
			response := s.postCheckout(t.payload)
			defer response.Body.Close()
			s.Equal(http.StatusBadRequest, response.StatusCode)
		})
	}
}
