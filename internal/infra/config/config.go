package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application.
type AppConfig struct {
	DatabaseURL string

	// Administrators notified on assignments and completions.
	AdminEmails []string

	// Email delivery. Provider is "smtp" or "mailgun".
	EmailProvider string
	EmailFrom     string
	SMTPHost      string
	SMTPPort      string
	SMTPUsername  string
	SMTPPassword  string
	MailgunDomain string
	MailgunAPIKey string

	// Optional Telegram alert channel for operational notices.
	TelegramToken   string
	AdminTelegramID int64

	CronSpecReminderCheck string // fire-loop tick
	CronSpecCleanup       string // fired-job retention pass
	CronSpecResync        string // out-of-band reschedule repair

	JobRetentionDays    int
	MaxDispatchAttempts int
	DispatchTimeout     time.Duration

	// Issuing-company letterhead rendered on invoices.
	CompanyName    string
	CompanyAddress string
	CompanyPhone   string
	CompanyEmail   string

	LogLevel    string
	Environment string
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	adminEmails := os.Getenv("ADMIN_EMAILS")
	if adminEmails == "" {
		return nil, fmt.Errorf("ADMIN_EMAILS is not set")
	}
	for _, addr := range strings.Split(adminEmails, ",") {
		if addr = strings.TrimSpace(addr); addr != "" {
			cfg.AdminEmails = append(cfg.AdminEmails, addr)
		}
	}

	cfg.EmailProvider = strings.ToLower(os.Getenv("EMAIL_PROVIDER"))
	if cfg.EmailProvider == "" {
		cfg.EmailProvider = "smtp"
	}
	cfg.EmailFrom = os.Getenv("EMAIL_FROM")
	if cfg.EmailFrom == "" {
		return nil, fmt.Errorf("EMAIL_FROM is not set")
	}
	cfg.SMTPHost = os.Getenv("SMTP_HOST")
	cfg.SMTPPort = os.Getenv("SMTP_PORT")
	cfg.SMTPUsername = os.Getenv("SMTP_USERNAME")
	cfg.SMTPPassword = os.Getenv("SMTP_PASSWORD")
	cfg.MailgunDomain = os.Getenv("MAILGUN_DOMAIN")
	cfg.MailgunAPIKey = os.Getenv("MAILGUN_API_KEY")

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	if adminTGStr := os.Getenv("ADMIN_TELEGRAM_ID"); adminTGStr != "" {
		var err error
		cfg.AdminTelegramID, err = strconv.ParseInt(adminTGStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ADMIN_TELEGRAM_ID: %w", err)
		}
	}

	cfg.CronSpecReminderCheck = os.Getenv("CRON_SPEC_REMINDER_CHECK")
	if cfg.CronSpecReminderCheck == "" {
		cfg.CronSpecReminderCheck = "*/15 * * * *" // Default: every 15 minutes
	}
	cfg.CronSpecCleanup = os.Getenv("CRON_SPEC_CLEANUP")
	if cfg.CronSpecCleanup == "" {
		cfg.CronSpecCleanup = "0 0 * * 1" // Default: Mondays at midnight
	}
	cfg.CronSpecResync = os.Getenv("CRON_SPEC_RESYNC")
	if cfg.CronSpecResync == "" {
		cfg.CronSpecResync = "0 * * * *" // Default: hourly
	}

	var err error
	cfg.JobRetentionDays, err = intEnv("JOB_RETENTION_DAYS", 7)
	if err != nil {
		return nil, err
	}
	cfg.MaxDispatchAttempts, err = intEnv("MAX_DISPATCH_ATTEMPTS", 5)
	if err != nil {
		return nil, err
	}
	dispatchSecs, err := intEnv("DISPATCH_TIMEOUT_SECONDS", 30)
	if err != nil {
		return nil, err
	}
	cfg.DispatchTimeout = time.Duration(dispatchSecs) * time.Second

	cfg.CompanyName = os.Getenv("COMPANY_NAME")
	if cfg.CompanyName == "" {
		cfg.CompanyName = "Translation Marketplace"
	}
	cfg.CompanyAddress = os.Getenv("COMPANY_ADDRESS")
	cfg.CompanyPhone = os.Getenv("COMPANY_PHONE")
	cfg.CompanyEmail = os.Getenv("COMPANY_EMAIL")
	if cfg.CompanyEmail == "" {
		cfg.CompanyEmail = cfg.EmailFrom
	}

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	return cfg, nil
}

func intEnv(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}
