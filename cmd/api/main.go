package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zllovesuki/scribe/backend"
	"github.com/zllovesuki/scribe/config"
	"github.com/zllovesuki/scribe/customer"
	"github.com/zllovesuki/scribe/external"
	"github.com/zllovesuki/scribe/subscription"
	"github.com/zllovesuki/scribe/user"

	"github.com/TheZeroSlave/zapsentry"
	"github.com/getsentry/sentry-go"
	"github.com/go-chi/chi"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Build-time injected variables
var (
	Version = ""
)

func main() {
	var logger *zap.Logger
	var dotFile string
	var err error

	// Determine running environment and initialize structural logger
	env := os.Getenv("ENV")
	if config.EnvProduction == env {
		dotFile = ".env.production"
		logger, err = zap.NewProduction()
	} else {
		dotFile = ".env.development"
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatalf("Cannot initialize logger: %v\n", err)
	}
	logger = logger.With(zap.String("Version", Version))

	// Initialize sentry for error reporting
	if err := sentry.Init(sentry.ClientOptions{
		Environment: env,
		Debug:       config.EnvProduction != env,
	}); err != nil {
		logger.Fatal("Cannot initialize sentry",
			zap.Error(err),
		)
	}
	defer sentry.Flush(time.Second * 2)

	// Attach sentry to zap so we can do automatic error capturing
	sentryCfg := zapsentry.Configuration{
		Level: zapcore.ErrorLevel,
		Tags: map[string]string{
			"component": "api",
		},
	}
	core, err := zapsentry.NewCore(sentryCfg, zapsentry.NewSentryClientFromClient(sentry.CurrentHub().Client()))
	if err != nil {
		logger.Error("Cannot attach sentry to zap",
			zap.Error(err),
		)
	}
	logger = zapsentry.AttachCoreToLogger(core, logger)

	defer logger.Sync()

	// Load configurations from dotFile. Absence is not fatal: configurations
	// may come from the real environment
	if err := godotenv.Load(dotFile); err != nil {
		logger.Warn("Cannot load configurations from .env",
			zap.Error(err),
		)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Cannot load configurations",
			zap.Error(err),
		)
	}

	stripeClient := external.NewStripeClient(cfg.StripeSecretKey)

	// Initialize backend connections. Missing credentials degrade the handle
	// instead of crashing, so failures surface at the point of use
	backendHandle, err := backend.New(backend.Options{
		ProjectID:       cfg.GoogleProjectID,
		CredentialsFile: cfg.GoogleCredentialsFile,
		Logger:          logger,
	})
	if err != nil {
		logger.Fatal("Cannot initialize backend handle",
			zap.Error(err),
		)
	}
	defer backendHandle.Close()

	userStore, err := user.NewFirestoreStore(backendHandle)
	if err != nil {
		logger.Fatal("Cannot initialize user store",
			zap.Error(err),
		)
	}

	directory, err := user.NewFirebaseDirectory(backendHandle)
	if err != nil {
		logger.Fatal("Cannot initialize user directory",
			zap.Error(err),
		)
	}

	userManager, err := user.NewManager(user.Options{
		Store:     userStore,
		Directory: directory,
		Logger:    logger,
	})
	if err != nil {
		logger.Fatal("Cannot initialize UserManager",
			zap.Error(err),
		)
	}

	customerManager, err := customer.NewManager(customer.ManagerOptions{
		Customers: stripeClient.Customers,
		Logger:    logger,
	})
	if err != nil {
		logger.Fatal("Cannot initialize CustomerManager",
			zap.Error(err),
		)
	}

	checkoutManager, err := subscription.NewManager(subscription.ManagerOptions{
		Sessions: stripeClient.CheckoutSessions,
		Prices: subscription.PriceIDs{
			Premium:       cfg.StripePricePremium,
			PremiumYearly: cfg.StripePricePremiumYearly,
		},
		Logger: logger,
	})
	if err != nil {
		logger.Fatal("Cannot initialize CheckoutManager",
			zap.Error(err),
		)
	}

	subscriptionRouter, err := subscription.NewService(subscription.Options{
		Users:        userManager,
		Customers:    customerManager,
		Checkout:     checkoutManager,
		RedirectBase: cfg.RedirectBase(),
		Logger:       logger,
	})
	if err != nil {
		logger.Fatal("Cannot initialize Subscription Service Router",
			zap.Error(err),
		)
	}

	rootRouter := chi.NewRouter()
	rootRouter.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	rootRouter.Mount("/subscription", subscriptionRouter.Router())

	srv := &http.Server{
		Handler: rootRouter,
		Addr:    cfg.ListenAddr,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Cannot start API server",
				zap.Error(err),
			)
		}
	}()

	logger.Info("API server started",
		zap.String("Addr", cfg.ListenAddr),
		zap.String("RedirectBase", cfg.RedirectBase()),
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Cannot gracefully shutdown API server",
			zap.Error(err),
		)
	}
}
