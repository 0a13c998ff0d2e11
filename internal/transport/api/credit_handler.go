package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fsdevblog/groph-checkout/internal/domain"
)

const defaultTransactionsLimit uint = 50

type CreditHandler struct {
	svs CreditServicer
}

func NewCreditHandler(svs CreditServicer) *CreditHandler {
	return &CreditHandler{
		svs: svs,
	}
}

type CreditSummaryResponse struct {
	CustomerID      string  `json:"customer_id"`
	CreditLimit     float64 `json:"credit_limit"`
	UsedCredit      float64 `json:"used_credit"`
	AvailableCredit float64 `json:"available_credit"`
}

func (h *CreditHandler) Summary(c *gin.Context) {
	customerID := c.Param("customerID")

	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	summary, err := h.svs.GetCreditSummary(reqCtx, customerID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			c.AbortWithStatus(http.StatusNotFound)
			return
		}
		_ = c.AbortWithError(http.StatusInternalServerError, err).SetType(gin.ErrorTypePrivate)
		return
	}

	c.JSON(http.StatusOK, &CreditSummaryResponse{
		CustomerID:      summary.CustomerID,
		CreditLimit:     summary.CreditLimit.InexactFloat64(),
		UsedCredit:      summary.UsedCredit.InexactFloat64(),
		AvailableCredit: summary.AvailableCredit.InexactFloat64(),
	})
}

type CreditTransactionResponseItem struct {
	ID            string  `json:"id"`
	Type          string  `json:"type"`
	Amount        float64 `json:"amount"`
	BalanceBefore float64 `json:"balance_before"`
	BalanceAfter  float64 `json:"balance_after"`
	ReferenceID   string  `json:"reference_id"`
	Description   string  `json:"description"`
	CreatedAt     string  `json:"created_at"`
}

func (h *CreditHandler) Transactions(c *gin.Context) {
	customerID := c.Param("customerID")

	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	transactions, err := h.svs.GetCreditTransactions(reqCtx, customerID, defaultTransactionsLimit)
	if err != nil {
		_ = c.AbortWithError(http.StatusInternalServerError, err).SetType(gin.ErrorTypePrivate)
		return
	}

	response := make([]CreditTransactionResponseItem, len(transactions))
	for i, transaction := range transactions {
		response[i] = CreditTransactionResponseItem{
			ID:            transaction.ID,
			Type:          string(transaction.Type),
			Amount:        transaction.Amount.InexactFloat64(),
			BalanceBefore: transaction.BalanceBefore.InexactFloat64(),
			BalanceAfter:  transaction.BalanceAfter.InexactFloat64(),
			ReferenceID:   transaction.ReferenceID,
			Description:   transaction.Description,
			CreatedAt:     transaction.CreatedAt.Format(time.RFC3339),
		}
	}

	c.JSON(http.StatusOK, response)
}
