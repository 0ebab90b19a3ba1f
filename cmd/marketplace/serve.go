package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"translation_marketplace/internal/app"
	"translation_marketplace/internal/domain/notify"
	"translation_marketplace/internal/infra/config"
	idb "translation_marketplace/internal/infra/database"
	"translation_marketplace/internal/infra/email"
	infrainvoice "translation_marketplace/internal/infra/invoice"
	"translation_marketplace/internal/infra/logger"
	"translation_marketplace/internal/infra/scheduler"
	"translation_marketplace/internal/infra/telegram"

	"github.com/spf13/cobra"
	"gopkg.in/telebot.v3"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the marketplace service with the reminder scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func runServe() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger.Init(cfg)
	log := logger.Get()
	log.WithFields(map[string]any{
		"environment": cfg.Environment,
		"provider":    cfg.EmailProvider,
	}).Info("configuration loaded")

	db, err := idb.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()
	log.Info("database connection established")

	requestRepo := idb.NewPostgresRequestRepository(db)
	reminderRepo := idb.NewPostgresReminderRepository(db)
	translatorRepo := idb.NewPostgresTranslatorRepository(db)
	ratingRepo := idb.NewPostgresRatingRepository(db)

	sender, err := email.NewSender(cfg)
	if err != nil {
		return err
	}

	var alerter notify.Alerter
	var bot *telebot.Bot
	if cfg.TelegramToken != "" && cfg.AdminTelegramID != 0 {
		bot, err = telebot.NewBot(telebot.Settings{
			Token:  cfg.TelegramToken,
			Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
			OnError: func(err error, c telebot.Context) {
				log.WithError(err).Error("telebot error")
			},
		})
		if err != nil {
			return err
		}
		alerter = telegram.NewTelebotAlerter(bot, cfg.AdminTelegramID)
		log.Info("telegram operator channel enabled")
	}

	invoiceGen := infrainvoice.NewTextGenerator(infrainvoice.CompanyInfo{
		Name:    cfg.CompanyName,
		Address: cfg.CompanyAddress,
		Phone:   cfg.CompanyPhone,
		Email:   cfg.CompanyEmail,
	})

	notifier := app.NewNotificationService(sender, alerter, invoiceGen, cfg.AdminEmails, log, cfg.DispatchTimeout)
	reminderService := app.NewReminderService(requestRepo, reminderRepo, notifier, log, cfg.MaxDispatchAttempts)
	requestService := app.NewRequestService(requestRepo, translatorRepo, ratingRepo, reminderService, notifier, invoiceGen, log)

	rootCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if bot != nil {
		telegram.RegisterAdminHandlers(rootCtx, bot, requestService, requestRepo, cfg.AdminTelegramID, log.WithField("component", "telegram"))
		go bot.Start()
		defer bot.Stop()
		log.Info("operator command handlers registered")
	}

	reminderScheduler := scheduler.NewReminderScheduler(
		reminderService,
		log,
		cfg.CronSpecReminderCheck,
		cfg.CronSpecResync,
		cfg.CronSpecCleanup,
		time.Duration(cfg.JobRetentionDays)*24*time.Hour,
	)
	if err := reminderScheduler.Start(); err != nil {
		return err
	}

	log.Info("marketplace service started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	reminderScheduler.Stop()
	log.Info("shut down gracefully")
	return nil
}
