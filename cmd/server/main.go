package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mailer8/mailer8/internal/config"
	"github.com/mailer8/mailer8/internal/database"
	"github.com/mailer8/mailer8/internal/email"
	"github.com/mailer8/mailer8/internal/handler"
	"github.com/mailer8/mailer8/internal/logger"
	"github.com/mailer8/mailer8/internal/middleware"
	"github.com/mailer8/mailer8/internal/repository"
	"github.com/mailer8/mailer8/internal/router"
	"github.com/mailer8/mailer8/internal/scheduler"
	"github.com/mailer8/mailer8/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	log.Info().Str("version", "1.0.0").Msg("starting Mailer8 server")

	// Connect to PostgreSQL
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()
	log.Info().Msg("connected to PostgreSQL")

	// Connect to Redis
	rdb, err := database.NewRedis(cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("connected to Redis")

	// Initialize repositories
	customerRepo := repository.NewCustomerRepository(db)
	templateRepo := repository.NewTemplateRepository(db)
	settingRepo := repository.NewSettingRepository(db)
	emailLogRepo := repository.NewEmailLogRepository(db)

	// Initialize email sender
	sender, err := newSender(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize email sender")
	}
	log.Info().Str("provider", cfg.Email.Provider).Msg("email sender initialized")

	// Initialize services
	settingsSvc := service.NewSettingsService(settingRepo, templateRepo, cfg, log)
	dispatchSvc := service.NewDispatchService(customerRepo, emailLogRepo, settingsSvc, sender, cfg, log)
	gate := service.NewScheduleGate(settingsSvc, log)

	// Start internal scheduler when enabled (development/always-on mode)
	if cfg.Cron.InternalScheduler {
		sched := scheduler.New(dispatchSvc, cfg.Cron, log)
		sched.Start()
		defer sched.Stop()
	} else {
		log.Info().Msg("internal scheduler disabled, relying on external cron trigger")
	}

	// Initialize handlers
	h := handler.New(db, rdb, log, cfg, dispatchSvc, gate, emailLogRepo)

	// Initialize middleware
	mw := middleware.New(rdb, log, cfg)

	// Set up router
	r := router.New(h, mw, log)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

// newSender builds the configured email provider.
func newSender(cfg *config.Config) (email.Sender, error) {
	switch cfg.Email.Provider {
	case "gmail":
		if cfg.Email.Gmail.CredentialsJSON != "" {
			return email.NewGmailSender(context.Background(), email.GmailConfig{
				CredentialsJSON: cfg.Email.Gmail.CredentialsJSON,
				SenderAddress:   cfg.Email.FromAddress,
				SenderName:      cfg.Email.FromName,
			})
		}
		return email.NewGmailSenderWithToken(context.Background(),
			cfg.Email.Gmail.ClientID,
			cfg.Email.Gmail.ClientSecret,
			cfg.Email.Gmail.RefreshToken,
			cfg.Email.FromAddress,
			cfg.Email.FromName,
		)
	case "smtp":
		return email.NewSMTPSender(email.SMTPConfig{
			Host:          cfg.Email.SMTP.Host,
			Port:          cfg.Email.SMTP.Port,
			Username:      cfg.Email.SMTP.Username,
			Password:      cfg.Email.SMTP.Password,
			SenderAddress: cfg.Email.FromAddress,
			SenderName:    cfg.Email.FromName,
		})
	default:
		return nil, fmt.Errorf("unknown email provider %q", cfg.Email.Provider)
	}
}
