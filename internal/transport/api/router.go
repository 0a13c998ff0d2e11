package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/fsdevblog/groph-checkout/internal/transport/api/middlewares"
)

const (
	DefaultServiceTimeout = 3 * time.Second
)

const (
	RouteGroup              = "/api"
	CheckoutRoute           = "/checkout"
	CreditSummaryRoute      = "/customers/:customerID/credit"
	CreditTransactionsRoute = "/customers/:customerID/credit/transactions"
)

type RouterArgs struct {
	Logger          *logrus.Logger
	CheckoutService Checkouter
	CreditService   CreditServicer
}

func New(args RouterArgs) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if args.Logger != nil {
		r.Use(middlewares.Logger(args.Logger))
	}
	r.Use(middlewares.Errors())

	checkoutHandler := NewCheckoutHandler(args.CheckoutService)
	creditHandler := NewCreditHandler(args.CreditService)

	api := r.Group(RouteGroup)

	api.POST(CheckoutRoute, checkoutHandler.Execute)
	api.GET(CreditSummaryRoute, creditHandler.Summary)
	api.GET(CreditTransactionsRoute, creditHandler.Transactions)
	return r
}
