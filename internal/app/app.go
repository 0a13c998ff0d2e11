package app

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/fsdevblog/groph-checkout/internal/checkout"
	"github.com/fsdevblog/groph-checkout/internal/config"
	"github.com/fsdevblog/groph-checkout/internal/events"
	"github.com/fsdevblog/groph-checkout/internal/expiry"
	"github.com/fsdevblog/groph-checkout/internal/repository/pgrepo"
	"github.com/fsdevblog/groph-checkout/internal/repository/repoargs"
	"github.com/fsdevblog/groph-checkout/internal/service"
	"github.com/fsdevblog/groph-checkout/internal/transport/api"
	"github.com/fsdevblog/groph-checkout/pkg/uow"

	// driver for migration applying postgres.
	_ "github.com/golang-migrate/migrate/v4/database/postgres" //nolint:revive
	// driver to get migrations from files (*.sql in our case).
	_ "github.com/golang-migrate/migrate/v4/source/file" //nolint:revive
)

type App struct {
	Config *config.Config
	Logger *logrus.Logger
}

func New(conf *config.Config, l *logrus.Logger) *App {
	return &App{
		Config: conf,
		Logger: l,
	}
}

func (a *App) Run() error {
	notifyCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.Logger.Infof("Starting app with config: %+v", a.Config)
	conn, connErr := pgrepo.Connect(notifyCtx, a.Config.MigrationsDir, a.Config.DatabaseDSN, a.Logger)
	if connErr != nil {
		return fmt.Errorf("app run: %s", connErr.Error())
	}
	defer conn.Close()

	unitOfWork, uowErr := initUOW(conn)
	if uowErr != nil {
		return fmt.Errorf("app run: %s", uowErr.Error())
	}

	services, sErr := service.Factory(unitOfWork, service.FinTxConfig{
		ReservationTimeout: time.Duration(a.Config.ReservationTimeoutMinutes) * time.Minute,
		OrderNumberPrefix:  a.Config.OrderNumberPrefix,
	})
	if sErr != nil {
		return fmt.Errorf("app run: %s", sErr.Error())
	}

	var publisher events.Publisher = events.Nop{}
	if len(a.Config.KafkaBrokers) > 0 {
		kafkaPublisher := events.NewKafkaPublisher(a.Config.KafkaBrokers, "checkout-api", a.Logger)
		defer func() {
			if closeErr := kafkaPublisher.Close(); closeErr != nil {
				a.Logger.WithError(closeErr).Warn("closing kafka publisher")
			}
		}()
		publisher = kafkaPublisher
	}

	orchestrator := checkout.New(
		services.FinTxService,
		checkout.NopStockReserver{},
		publisher,
		checkout.Config{
			MaxRetries:  a.Config.CheckoutMaxRetries,
			FlowTimeout: a.Config.CheckoutTimeout,
		},
		a.Logger,
	)

	router := api.New(api.RouterArgs{
		Logger:          a.Logger,
		CheckoutService: orchestrator,
		CreditService:   services.FinTxService,
	})

	errChan := make(chan error, 1)

	go func() {
		if runErr := router.Run(a.Config.RunAddress); runErr != nil {
			errChan <- runErr
		}
	}()

	sweeper := expiry.New(services.FinTxService, a.Logger).
		SetSweepInterval(a.Config.ExpirySweepInterval).
		SetLimitPerIteration(100) //nolint:mnd

	go sweeper.Run(notifyCtx)

	select {
	case <-notifyCtx.Done():
		return notifyCtx.Err() //nolint:wrapcheck
	case err := <-errChan:
		return err
	}
}

func initUOW(conn *pgxpool.Pool) (*uow.UnitOfWork, error) {
	unitOfWork := uow.NewUnitOfWork(conn)

	factories := map[repoargs.RepositoryName]uow.RepositoryFactory{
		repoargs.CustomerRepoName: func(dbtx uow.DBTX) uow.Repository {
			return pgrepo.NewCustomerRepository(dbtx)
		},
		repoargs.ReservationRepoName: func(dbtx uow.DBTX) uow.Repository {
			return pgrepo.NewReservationRepository(dbtx)
		},
		repoargs.CreditTransactionRepoName: func(dbtx uow.DBTX) uow.Repository {
			return pgrepo.NewCreditTransactionRepository(dbtx)
		},
		repoargs.CartRepoName: func(dbtx uow.DBTX) uow.Repository {
			return pgrepo.NewCartRepository(dbtx)
		},
		repoargs.OrderRepoName: func(dbtx uow.DBTX) uow.Repository {
			return pgrepo.NewOrderRepository(dbtx)
		},
	}

	for name, factory := range factories {
		if regErr := unitOfWork.Register(uow.RepositoryName(name), factory); regErr != nil {
			return nil, fmt.Errorf("init UOW: %s", regErr.Error())
		}
	}

	return unitOfWork, nil
}
