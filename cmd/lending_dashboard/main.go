package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"lending_dashboard/internal/app/service"
	dex_client "lending_dashboard/internal/client"
	"lending_dashboard/internal/infrastructure/configloader"
	evmclient "lending_dashboard/internal/infrastructure/network/client"
	"lending_dashboard/internal/infrastructure/registry"
	"lending_dashboard/internal/infrastructure/restapi"
	"lending_dashboard/internal/infrastructure/wallet"
	"lending_dashboard/internal/pkg/logger"
	"lending_dashboard/pkg/metrics"

	slogzap "github.com/samber/slog-zap/v2"
	"go.uber.org/zap"
)

const defaultConfigPath = "config/config.yml"

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = defaultConfigPath
	}

	zapLogger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL: failed to initialize zap logger: %v\n", err)
		os.Exit(1)
	}
	defer zapLogger.Sync()

	cfg, err := configloader.Load(configPath)
	if err != nil {
		zapLogger.Fatal("Failed to load configuration", zap.String("path", configPath), zap.Error(err))
	}

	slogLevel := slog.LevelInfo
	if strings.EqualFold(cfg.Logging.Level, "debug") {
		slogLevel = slog.LevelDebug
	}
	slogHandler := slogzap.Option{
		Level:  slogLevel,
		Logger: zapLogger,
	}.NewZapHandler()
	logger.SetGlobal(slog.New(slogHandler))

	logger.Info("Lending dashboard service starting", "config", configPath)
	appLogger := logger.NewSlogAdapter()

	metrics.MustRegisterMetrics()

	assetRegistry, err := registry.LoadFromFile(cfg.Registry.AssetFilePath, appLogger)
	if err != nil {
		logger.Fatal("Failed to load asset registry", "path", cfg.Registry.AssetFilePath, "error", err)
	}

	rpcCallTimeout := time.Duration(cfg.Performance.RPCCallTimeoutSeconds) * time.Second
	chainClient, err := evmclient.NewEVMClient(cfg.Chain, rpcCallTimeout, appLogger)
	if err != nil {
		logger.Fatal("Failed to initialize chain client", "error", err)
	}

	submitter, err := wallet.NewKeySubmitterFromEnv(chainClient.EthClient(), cfg.Chain.SignerKeyEnv, cfg.Chain.ChainID, appLogger)
	if err != nil {
		logger.Fatal("Failed to initialize transaction submitter", "error", err)
	}

	gateway := evmclient.NewProtocolGateway(cfg.Chain, cfg.Orchestrator.ReferralCode, submitter, appLogger)

	dexScreenerTimeout := time.Duration(cfg.Prices.RequestTimeoutMillis) * time.Millisecond
	dexScreenerClient := dex_client.NewDEXScreenerClient(
		cfg.Prices.DEXScreenerBaseURL,
		dexScreenerTimeout,
		zapLogger,
		cfg.Prices.MaxTokensPerBatchRequest,
	)

	priceService := service.NewPriceService(assetRegistry, dexScreenerClient, appLogger, &cfg.Prices)
	if err := priceService.LoadAndCachePrices(context.Background()); err != nil {
		// The static price table still serves lookups; keep running.
		logger.Warn("Initial price load failed, falling back to static prices", "error", err)
	}

	positionService := service.NewPositionService(
		assetRegistry,
		chainClient,
		priceService,
		appLogger,
		cfg.Performance.MaxConcurrentRoutines,
	)

	transactionService := service.NewTransactionService(
		assetRegistry,
		chainClient,
		gateway,
		appLogger,
		time.Duration(cfg.Orchestrator.ApprovalSettleMillis)*time.Millisecond,
	)

	positionHandler := restapi.NewPositionHandler(positionService, appLogger)
	operationHandler := restapi.NewOperationHandler(transactionService, appLogger)
	router := restapi.SetupRouter(positionHandler, operationHandler, cfg.Server.AllowedOrigins)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		logger.Info("HTTP server listening", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server failed", "error", err)
		}
	}()

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)
	<-signalChan

	logger.Info("Shutdown signal received, stopping HTTP server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	} else {
		logger.Info("HTTP server stopped cleanly")
	}

	logger.Info("Lending dashboard service stopped")
}
