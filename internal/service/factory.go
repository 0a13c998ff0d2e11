package service

import (
	"fmt"

	"github.com/fsdevblog/groph-checkout/pkg/uow"
)

type AppServices struct {
	FinTxService *FinancialTransactionService
}

func Factory(unitOfWork uow.UOW, conf FinTxConfig) (*AppServices, error) {
	finTxService, finTxErr := NewFinancialTransactionService(unitOfWork, conf)
	if finTxErr != nil {
		return nil, fmt.Errorf("service factory: %s", finTxErr.Error())
	}

	return &AppServices{
		FinTxService: finTxService,
	}, nil
}
