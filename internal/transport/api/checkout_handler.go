package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fsdevblog/groph-checkout/internal/checkout"
)

type CheckoutHandler struct {
	svs Checkouter
}

func NewCheckoutHandler(svs Checkouter) *CheckoutHandler {
	return &CheckoutHandler{
		svs: svs,
	}
}

type CheckoutParams struct {
	CartID     string `json:"cart_id" binding:"required"`
	CustomerID string `json:"customer_id" binding:"required"`
	// ReserveCredit/ReserveStock по умолчанию включены; nil трактуется как true.
	ReserveCredit *bool             `json:"reserve_credit"`
	ReserveStock  *bool             `json:"reserve_stock"`
	Metadata      map[string]string `json:"metadata"`
}

type CheckoutStepResponse struct {
	Name     string `json:"name"`
	Status   string `json:"status"`
	Attempts int    `json:"attempts,omitempty"`
	Error    string `json:"error,omitempty"`
}

type CheckoutResponse struct {
	Success       bool                   `json:"success"`
	FlowID        string                 `json:"flow_id"`
	Status        string                 `json:"status"`
	OrderID       string                 `json:"order_id,omitempty"`
	OrderNumber   string                 `json:"order_number,omitempty"`
	ReservationID string                 `json:"reservation_id,omitempty"`
	TransactionID string                 `json:"transaction_id,omitempty"`
	Steps         []CheckoutStepResponse `json:"steps"`
	Error         string                 `json:"error,omitempty"`
}

// Execute запускает чекаут флоу. Сбой флоу — не ошибка HTTP слоя: ответ 422 со
// структурированным результатом и пошаговой диагностикой.
func (h *CheckoutHandler) Execute(c *gin.Context) {
	var params CheckoutParams
	if bindErr := c.ShouldBindJSON(&params); bindErr != nil {
		_ = c.AbortWithError(http.StatusBadRequest, bindErr).SetType(gin.ErrorTypeBind)
		return
	}

	opts := checkout.FlowOptions{
		Metadata: params.Metadata,
	}
	if params.ReserveCredit != nil && !*params.ReserveCredit {
		opts.SkipCreditReservation = true
	}
	if params.ReserveStock != nil && !*params.ReserveStock {
		opts.SkipStockReservation = true
	}

	result := h.svs.Execute(c.Request.Context(), params.CartID, params.CustomerID, opts)

	status := http.StatusOK
	if !result.Success {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, convertCheckoutResult(result))
}

func convertCheckoutResult(result *checkout.Result) *CheckoutResponse {
	steps := make([]CheckoutStepResponse, len(result.Steps))
	for i, step := range result.Steps {
		steps[i] = CheckoutStepResponse{
			Name:     string(step.Name),
			Status:   string(step.Status),
			Attempts: step.Attempts,
			Error:    step.Error,
		}
	}
	return &CheckoutResponse{
		Success:       result.Success,
		FlowID:        result.FlowID,
		Status:        string(result.Status),
		OrderID:       result.OrderID,
		OrderNumber:   result.OrderNumber,
		ReservationID: result.ReservationID,
		TransactionID: result.TransactionID,
		Steps:         steps,
		Error:         result.Error,
	}
}
