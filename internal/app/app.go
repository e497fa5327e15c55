package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "hasyx/docs"
	"hasyx/internal/config"
	"hasyx/internal/handlers"
	"hasyx/internal/metrics"
	"hasyx/internal/models"
	"hasyx/internal/payments"
	"hasyx/internal/pdf"
	"hasyx/internal/repositories"
	"hasyx/internal/routes"
	"hasyx/internal/services"
	"hasyx/internal/utils"
)

type stores struct {
	db            *sql.DB // nil для in-memory
	attempts      repositories.AttemptRepository
	payments      repositories.PaymentRepository
	subscriptions repositories.SubscriptionRepository
	failures      repositories.ActionFailureRepository
}

// openStores подключает PostgreSQL, если задан DSN, иначе всё хранится в памяти.
func openStores(ctx context.Context, dsn string) (*stores, error) {
	if dsn == "" {
		log.Printf("[app] database.url не задан, используется in-memory хранилище")
		mem := repositories.NewMemoryStore()
		return &stores{
			attempts:      mem.Attempts(),
			payments:      mem.Payments(),
			subscriptions: mem.Subscriptions(),
			failures:      mem.ActionFailures(),
		}, nil
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	if err := repositories.EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &stores{
		db:            db,
		attempts:      repositories.NewAttemptRepository(db),
		payments:      repositories.NewPaymentRepository(db),
		subscriptions: repositories.NewSubscriptionRepository(db),
		failures:      repositories.NewActionFailureRepository(db),
	}, nil
}

func (s *stores) Close() {
	if s.db == nil {
		return
	}
	if err := s.db.Close(); err != nil {
		log.Printf("Ошибка закрытия БД: %v", err)
	}
}

func Run() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Ошибка загрузки конфига: ", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// === Store ===
	st, err := openStores(ctx, cfg.Database.DSN)
	if err != nil {
		log.Fatal("Ошибка подключения к БД: ", err)
	}
	defer st.Close()

	// === Delivery ===
	dispatcher := services.NewDispatcher()
	if cfg.Email.SMTPHost != "" {
		dispatcher.Register(models.ProviderEmail, services.NewEmailService(
			cfg.Email.SMTPHost,
			cfg.Email.SMTPPort,
			cfg.Email.SMTPUser,
			cfg.Email.SMTPPassword,
			cfg.Email.FromEmail,
		))
	}
	// Mobizon: без ключа работает в dry-run
	mobizonClient := utils.NewClientWithOptions(cfg.Mobizon.APIKey, cfg.Mobizon.SenderID, cfg.Mobizon.DryRun)
	dispatcher.Register(models.ProviderPhone, services.NewSMSSender(mobizonClient))

	tg, err := services.NewTelegramService(cfg.Telegram.BotToken, cfg.Telegram.AdminChatID)
	if err != nil {
		log.Printf("[app] telegram отключён: %v", err)
	}
	if tg != nil {
		dispatcher.Register(models.ProviderTelegram, tg)
	}

	// === Services ===
	v := cfg.Verification
	verifyService := services.NewVerificationService(st.attempts, dispatcher, services.VerificationOptions{
		TTL:          v.CodeTTL,
		MaxAttempts:  v.MaxAttempts,
		CodeHashCost: v.CodeHashCost,
		Resend:       services.ResendPolicy{MaxSends: v.ResendMax, Window: v.ResendWindow},
	})

	registry, err := payments.NewRegistryFromConfig(cfg.Payments)
	if err != nil {
		log.Fatal("Ошибка конфигурации платёжных провайдеров: ", err)
	}
	receipts := pdf.NewReceiptGenerator(cfg.Files.RootDir, cfg.Files.FontPath)
	actions := services.SubscriptionActions(st.subscriptions)
	actions = append(actions, services.ReceiptAction(receipts))
	if tg != nil {
		actions = append(actions, services.AdminNotifyAction(tg))
	}
	webhookService := services.NewWebhookService(registry, st.payments, st.failures, actions...)
	log.Printf("[app] платёжные провайдеры: %v", registry.Names())

	var tokens *utils.TokenIssuer
	if cfg.Auth.JWTSecret != "" {
		tokens = utils.NewTokenIssuer(cfg.Auth.JWTSecret, v.TokenTTL)
	} else {
		log.Printf("[app] auth.jwt_secret пуст: токены подтверждения не выдаются, /admin недоступен")
	}

	// === Handlers ===
	verifyHandler := handlers.NewVerifyHandler(verifyService, tokens)
	paymentHandler := handlers.NewPaymentHandler(webhookService)
	adminHandler := handlers.NewAdminHandler(webhookService, verifyService, v.CleanupAfter)

	// === Gin ===
	metrics.Register()
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/healthz", healthz(st.db))

	routes.SetupRoutes(router, []byte(cfg.Auth.JWTSecret), verifyHandler, paymentHandler, adminHandler)

	if v.CleanupPeriod > 0 {
		go runCleanup(ctx, verifyService, v.CleanupPeriod, v.CleanupAfter)
	}

	// === Run ===
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("Сервер запущен на %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Ошибка запуска сервера: ", err)
		}
	}()

	<-ctx.Done()
	log.Printf("[app] остановка сервера")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[app] shutdown: %v", err)
	}
}

func runCleanup(ctx context.Context, s *services.VerificationService, every, olderThan time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Cleanup(ctx, olderThan); err != nil {
				log.Printf("[verify][cleanup] %v", err)
			}
		}
	}
}

func healthz(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db != nil {
			if err := db.PingContext(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
