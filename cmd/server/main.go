package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	pricingapp "github.com/shipstack/backend/internal/application/pricing"
	shipmentapp "github.com/shipstack/backend/internal/application/shipment"
	walletapp "github.com/shipstack/backend/internal/application/wallet"
	domaincourier "github.com/shipstack/backend/internal/domain/courier"
	"github.com/shipstack/backend/internal/infrastructure/config"
	"github.com/shipstack/backend/internal/infrastructure/courier"
	"github.com/shipstack/backend/internal/infrastructure/logger"
	"github.com/shipstack/backend/internal/infrastructure/persistence"
	"github.com/shipstack/backend/internal/infrastructure/persistence/models"
	"github.com/shipstack/backend/internal/interfaces/http/handler"
	"github.com/shipstack/backend/internal/interfaces/http/middleware"
	"github.com/shipstack/backend/internal/interfaces/http/router"
)

const version = "1.0.0"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting Shipstack Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Database connection with GORM logging backed by zap
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	if err := db.DB.AutoMigrate(
		&models.WalletModel{},
		&models.WalletTransactionModel{},
		&models.ShipmentOrderModel{},
		&models.RateRuleModel{},
	); err != nil {
		log.Fatal("Failed to migrate database schema", zap.Error(err))
	}

	// Repositories
	walletUow := persistence.NewGormWalletUnitOfWork(db.DB)
	orderRepo := persistence.NewGormShipmentOrderRepository(db.DB)
	rateRuleRepo := persistence.NewGormRateRuleRepository(db.DB)

	// Courier adapters; only enabled couriers are registered
	registry := courier.NewRegistry()
	registerAdapters(registry, cfg, log)
	log.Info("Courier registry initialized",
		zap.Int("adapters", len(registry.List())),
	)

	// Application services
	pricer := pricingapp.NewEngine(rateRuleRepo, log)
	walletSvc := walletapp.NewService(walletUow, log)
	shipmentSvc := shipmentapp.NewService(registry, pricer, walletSvc, orderRepo, log,
		shipmentapp.WithRateQuoteTimeout(cfg.Pricing.CourierTimeout))

	// HTTP engine
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(logger.Recovery(log))

	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Routes
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(handler.NewSystemHandler(db, version))
	r.Register(handler.NewShipmentHandler(shipmentSvc))
	r.Register(handler.NewWalletHandler(walletSvc, decimal.NewFromFloat(cfg.Wallet.DefaultCreditLimit)))
	r.Register(handler.NewRateRuleHandler(rateRuleRepo))
	r.Register(handler.NewCourierHandler(registry))
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	log.Info("Server exited")
}

// registerAdapters builds one adapter per enabled courier. A misconfigured
// courier fails startup rather than surfacing at booking time.
func registerAdapters(registry *courier.Registry, cfg *config.Config, log *zap.Logger) {
	type adapterFactory struct {
		code domaincourier.CourierCode
		cfg  config.CourierConfig
		make func(config.CourierConfig, *zap.Logger) (domaincourier.CourierService, error)
	}

	factories := []adapterFactory{
		{domaincourier.CourierCodeDelhivery, cfg.Couriers.Delhivery, func(c config.CourierConfig, l *zap.Logger) (domaincourier.CourierService, error) {
			return courier.NewDelhiveryAdapter(c, l)
		}},
		{domaincourier.CourierCodeBlitz, cfg.Couriers.Blitz, func(c config.CourierConfig, l *zap.Logger) (domaincourier.CourierService, error) {
			return courier.NewBlitzAdapter(c, l)
		}},
		{domaincourier.CourierCodeEkart, cfg.Couriers.Ekart, func(c config.CourierConfig, l *zap.Logger) (domaincourier.CourierService, error) {
			return courier.NewEkartAdapter(c, l)
		}},
		{domaincourier.CourierCodeXpressbees, cfg.Couriers.Xpressbees, func(c config.CourierConfig, l *zap.Logger) (domaincourier.CourierService, error) {
			return courier.NewXpressbeesAdapter(c, l)
		}},
		{domaincourier.CourierCodeInnofulfill, cfg.Couriers.Innofulfill, func(c config.CourierConfig, l *zap.Logger) (domaincourier.CourierService, error) {
			return courier.NewInnofulfillAdapter(c, l)
		}},
	}

	for _, f := range factories {
		if !f.cfg.Enabled {
			continue
		}
		adapter, err := f.make(f.cfg, log)
		if err != nil {
			log.Fatal("Failed to initialize courier adapter",
				zap.String("courier", f.code.String()),
				zap.Error(err),
			)
		}
		registry.Register(adapter)
		log.Info("Courier adapter registered", zap.String("courier", f.code.String()))
	}
}
