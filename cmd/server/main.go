package main // Entry point package

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/receipt-vault/internal/config"
	"github.com/iliyamo/receipt-vault/internal/database"
	"github.com/iliyamo/receipt-vault/internal/gate"
	"github.com/iliyamo/receipt-vault/internal/handler"
	"github.com/iliyamo/receipt-vault/internal/middleware"
	"github.com/iliyamo/receipt-vault/internal/payment"
	"github.com/iliyamo/receipt-vault/internal/queue"
	"github.com/iliyamo/receipt-vault/internal/repository"
	"github.com/iliyamo/receipt-vault/internal/router"
	qp "github.com/iliyamo/receipt-vault/internal/service"
	"github.com/iliyamo/receipt-vault/internal/settings"
	"github.com/iliyamo/receipt-vault/internal/storage"
)

func main() {
	// .env is a development convenience; in production the variables come
	// from the real environment and the file simply does not exist.
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	cfg := config.Load()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	users := repository.NewUserRepo(db)
	feedback := repository.NewFeedbackRepo(db)
	receipts := repository.NewReceiptRepo(db)
	settingsRepo := repository.NewSettingsRepo(db)

	settingsStore := settings.NewStore(settingsRepo)
	entitlement := gate.New(settingsStore)
	provider := payment.NewStripeProvider(cfg)

	// No object store is deployed yet; the Disabled stand-in keeps the
	// receipt endpoints honest (503 on upload-url) while deletion cleanup
	// degrades to logged no-ops in the consumer.
	var objects storage.ObjectStore = storage.Disabled{}

	// Best-effort background cleanup of orphaned objects. The consumer
	// reconnects on its own; a missing broker only disables cleanup.
	go func() {
		if err := queue.StartCleanupConsumer(objects); err != nil {
			log.Printf("cleanup consumer disabled: %v", err)
		}
	}()

	h := router.Handlers{
		Auth:       handler.NewAuthHandler(cfg, users, settingsStore),
		Activation: handler.NewActivationHandler(users, provider),
		Receipts:   handler.NewReceiptHandler(receipts, objects, entitlement, qp.PublishStorageCleanup),
		Users:      handler.NewAdminUserHandler(cfg, users, qp.PublishStorageCleanup),
		Settings:   handler.NewAdminSettingsHandler(settingsStore),
		Feedback:   handler.NewAdminFeedbackHandler(feedback),
	}

	rdb := config.NewRedisClient()
	rateLimit := middleware.NewRateLimiter(config.LoadRateLimitConfig(), rdb)

	e := echo.New()
	e.HideBanner = true
	router.Register(e, h, cfg.JWTSecret, rateLimit)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
