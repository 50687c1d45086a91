package di

import (
	"database/sql"
	"fmt"
	"log"

	"paycore/internal/adapters/inbound/http/controllers"
	httpRouter "paycore/internal/adapters/inbound/http/router"
	esplorachain "paycore/internal/adapters/outbound/chain/esplora"
	evmchain "paycore/internal/adapters/outbound/chain/evm"
	chainshared "paycore/internal/adapters/outbound/chain/shared"
	solanachain "paycore/internal/adapters/outbound/chain/solana"
	tronchain "paycore/internal/adapters/outbound/chain/tron"
	postgresqlbalance "paycore/internal/adapters/outbound/persistence/postgresql/balance"
	postgresqlbootstrap "paycore/internal/adapters/outbound/persistence/postgresql/bootstrap"
	postgresqldepositaddress "paycore/internal/adapters/outbound/persistence/postgresql/depositaddress"
	postgresqldepositledger "paycore/internal/adapters/outbound/persistence/postgresql/depositledger"
	postgresqlexternalpayment "paycore/internal/adapters/outbound/persistence/postgresql/externalpayment"
	postgresqlshared "paycore/internal/adapters/outbound/persistence/postgresql/shared"
	processorhttp "paycore/internal/adapters/outbound/processor/http"
	rateshttp "paycore/internal/adapters/outbound/rates/http"
	"paycore/internal/adapters/outbound/wallet/deterministic"
	portsin "paycore/internal/application/ports/in"
	portsout "paycore/internal/application/ports/out"
	usecases "paycore/internal/application/use_cases"
	"paycore/internal/domain/policies"
	valueobjects "paycore/internal/domain/value_objects"
	"paycore/internal/infrastructure/config"
	"paycore/internal/infrastructure/httpserver"
	"paycore/internal/infrastructure/metrics"
	"paycore/internal/infrastructure/watcher"

	"github.com/prometheus/client_golang/prometheus"
)

type Container struct {
	Database                     *sql.DB
	Server                       *httpserver.Server
	InitializePersistenceUseCase portsin.InitializePersistenceUseCase
	WatchWorkers                 []*watcher.Worker
	Metrics                      *metrics.Metrics
}

func Build(cfg config.Config, logger *log.Logger) (Container, error) {
	registry := prometheus.NewRegistry()
	collector := metrics.New(registry)

	persistenceGateway := postgresqlbootstrap.NewGateway(
		cfg.DatabaseURL,
		cfg.DatabaseTarget,
		cfg.MigrationsPath,
		logger,
	)
	initializePersistenceUseCase := usecases.NewInitializePersistenceUseCase(persistenceGateway)
	databasePool := postgresqlshared.NewDatabasePool(cfg.DatabaseURL, logger)

	ledgerRepository := postgresqldepositledger.NewRepository(databasePool, logger)
	balanceRepository := postgresqlbalance.NewRepository(databasePool, logger)
	paymentRepository := postgresqlexternalpayment.NewRepository(databasePool, logger)
	addressRepository := postgresqldepositaddress.NewRepository(databasePool, logger)

	deriver, deriverErr := deterministic.NewDeriver(cfg.DerivationSecret)
	if deriverErr != nil {
		return Container{}, fmt.Errorf("address deriver: %s", deriverErr.Message)
	}

	policy := policies.NewConfirmationPolicy(cfg.ConfirmationThresholds)
	sources, sourcesErr := buildChainSources(cfg, policy)
	if sourcesErr != nil {
		return Container{}, sourcesErr
	}

	rateSource := rateshttp.NewSource(rateshttp.Config{
		Client: chainshared.Config{BaseURL: cfg.RateProviderURL},
	})
	processorGateway := processorhttp.NewGateway(processorhttp.Config{
		BaseURL: cfg.ProcessorAPIURL,
		APIKey:  cfg.ProcessorAPIKey,
	})

	healthUseCase := usecases.NewGetHealthUseCase()
	allocateUseCase := usecases.NewAllocateDepositAddressUseCase(addressRepository, deriver)
	watchUseCase := usecases.NewWatchChainCycleUseCase(
		sources,
		addressRepository,
		ledgerRepository,
		rateSource,
		policy,
		cfg.ReorgWindow,
		cfg.ConfirmBatchSize,
	)
	createInvoiceUseCase := usecases.NewCreateInvoiceUseCase(
		processorGateway,
		paymentRepository,
		usecases.NewSystemClock(),
		cfg.InvoiceTTL,
	)
	webhookUseCase := usecases.NewHandleProcessorWebhookUseCase(paymentRepository, cfg.ProcessorWebhookSecret)
	getBalanceUseCase := usecases.NewGetBalanceUseCase(balanceRepository)
	debitUseCase := usecases.NewDebitBalanceUseCase(balanceRepository)
	creditUseCase := usecases.NewCreditBalanceUseCase(balanceRepository)
	listDepositsUseCase := usecases.NewListUserDepositsUseCase(ledgerRepository)

	var watchWorkers []*watcher.Worker
	if cfg.WatcherEnabled {
		for chain := range sources {
			watchWorkers = append(watchWorkers, watcher.NewWorker(
				chain,
				cfg.WatchPollInterval,
				watchUseCase,
				collector,
				logger,
			))
		}
	}

	healthController := controllers.NewHealthController(healthUseCase, logger)
	swaggerController := controllers.NewSwaggerController(cfg.OpenAPISpecPath, logger)
	depositAddressesController := controllers.NewDepositAddressesController(allocateUseCase, logger)
	balancesController := controllers.NewBalancesController(getBalanceUseCase, debitUseCase, creditUseCase, collector, logger)
	invoicesController := controllers.NewInvoicesController(createInvoiceUseCase, logger)
	webhooksController := controllers.NewWebhooksController(webhookUseCase, collector, logger)
	depositsController := controllers.NewDepositsController(listDepositsUseCase, logger)

	router := httpRouter.New(httpRouter.Dependencies{
		HealthController:           healthController,
		SwaggerController:          swaggerController,
		DepositAddressesController: depositAddressesController,
		BalancesController:         balancesController,
		InvoicesController:         invoicesController,
		WebhooksController:         webhooksController,
		DepositsController:         depositsController,
		MetricsGatherer:            registry,
	})

	server := httpserver.New(cfg.Address(), router, logger)

	return Container{
		Database:                     databasePool,
		Server:                       server,
		InitializePersistenceUseCase: initializePersistenceUseCase,
		WatchWorkers:                 watchWorkers,
		Metrics:                      collector,
	}, nil
}

func buildChainSources(cfg config.Config, policy policies.ConfirmationPolicy) (map[valueobjects.Chain]portsout.ChainActivitySource, error) {
	sources := make(map[valueobjects.Chain]portsout.ChainActivitySource, len(cfg.ChainProviders))

	for chain, provider := range cfg.ChainProviders {
		clientCfg := chainshared.Config{
			BaseURL:           provider.URL,
			APIKeyHeader:      provider.APIKeyHeader,
			APIKey:            provider.APIKey,
			RequestsPerSecond: provider.RequestsPerSecond,
			Burst:             provider.Burst,
		}
		cursorLag := policy.ReobserveDepth(chain)

		switch chain {
		case valueobjects.ChainBTC, valueobjects.ChainLTC:
			source, appErr := esplorachain.NewSource(esplorachain.Config{
				Chain:           chain,
				Client:          clientCfg,
				CursorLagBlocks: cursorLag,
			})
			if appErr != nil {
				return nil, fmt.Errorf("chain source %s: %s", chain, appErr.Message)
			}
			sources[chain] = source
		case valueobjects.ChainUSDTERC20, valueobjects.ChainUSDCERC20:
			source, appErr := evmchain.NewSource(evmchain.Config{
				Chain:           chain,
				Client:          clientCfg,
				TokenContract:   provider.TokenContract,
				CursorLagBlocks: cursorLag,
			})
			if appErr != nil {
				return nil, fmt.Errorf("chain source %s: %s", chain, appErr.Message)
			}
			sources[chain] = source
		case valueobjects.ChainUSDTTRC20:
			source, appErr := tronchain.NewSource(tronchain.Config{
				Client:          clientCfg,
				TokenContract:   provider.TokenContract,
				CursorLagBlocks: cursorLag,
			})
			if appErr != nil {
				return nil, fmt.Errorf("chain source %s: %s", chain, appErr.Message)
			}
			sources[chain] = source
		case valueobjects.ChainSOL:
			sources[chain] = solanachain.NewSource(solanachain.Config{
				Client:         clientCfg,
				CursorLagSlots: cursorLag,
			})
		default:
			return nil, fmt.Errorf("chain source %s: no adapter available", chain)
		}
	}
	return sources, nil
}
