package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

// Config represents the full application configuration surface.
type Config struct {
	Log       LogConfig
	Server    ServerConfig
	MongoDB   MongoDBConfig
	Board     BoardConfig
	Defaults  DefaultsConfig
	Capture   CaptureConfig
	WhatsApp  WhatsAppConfig
	Sheets    SheetsConfig
	Reporting ReportingConfig
}

// LogConfig selects the logging verbosity.
type LogConfig struct {
	Level string
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port string
}

// MongoDBConfig holds settings for MongoDB.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// BoardConfig drives the order board re-evaluation.
type BoardConfig struct {
	PollSchedule string
	Timezone     string
}

// Location resolves the board timezone.
func (b BoardConfig) Location() (*time.Location, error) {
	return time.LoadLocation(b.Timezone)
}

// DefaultsConfig seeds the settings singleton on first start.
type DefaultsConfig struct {
	ContainerTareKg float64
	MinimumStockKg  float64
}

// CaptureConfig tunes scale photo sessions.
type CaptureConfig struct {
	JPEGQuality int
	SessionTTL  time.Duration
}

// WhatsAppConfig contains credentials for the Meta WhatsApp Cloud API used
// for alerts. Alerts are disabled when AccessToken is empty.
type WhatsAppConfig struct {
	AccessToken    string
	PhoneNumberID  string
	BaseURL        string
	APIVersion     string
	AlertRecipient string
}

// Enabled reports whether alerts can be delivered.
func (w WhatsAppConfig) Enabled() bool {
	return w.AccessToken != "" && w.PhoneNumberID != "" && w.AlertRecipient != ""
}

// SheetsConfig contains configuration for the weighing journal export.
// The export is disabled when SpreadsheetID is empty.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
}

// Enabled reports whether the journal export is configured.
func (s SheetsConfig) Enabled() bool {
	return s.SpreadsheetID != ""
}

// ReportingConfig holds scheduler-related settings.
type ReportingConfig struct {
	CronSchedule string
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Missing .env files are acceptable when configuration comes from the
		// environment directly.
		_ = godotenv.Load()
	}

	tare, err := getenvFloat("DEFAULT_CONTAINER_TARE_KG", 3)
	if err != nil {
		return nil, err
	}
	minStock, err := getenvFloat("DEFAULT_MIN_STOCK_KG", 1000)
	if err != nil {
		return nil, err
	}
	quality, err := getenvInt("CAPTURE_JPEG_QUALITY", 85)
	if err != nil {
		return nil, err
	}
	ttl, err := getenvDuration("CAPTURE_SESSION_TTL", 10*time.Minute)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Log: LogConfig{
			Level: getenvWithDefault("LOG_LEVEL", "info"),
		},
		Server: ServerConfig{
			Port: getenvWithDefault("APP_PORT", "8080"),
		},
		MongoDB: MongoDBConfig{
			URI:    os.Getenv("MONGODB_URI"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "avicola"),
		},
		Board: BoardConfig{
			PollSchedule: getenvWithDefault("BOARD_POLL_SCHEDULE", "@every 60s"),
			Timezone:     getenvWithDefault("TIMEZONE", "America/Lima"),
		},
		Defaults: DefaultsConfig{
			ContainerTareKg: tare,
			MinimumStockKg:  minStock,
		},
		Capture: CaptureConfig{
			JPEGQuality: quality,
			SessionTTL:  ttl,
		},
		WhatsApp: WhatsAppConfig{
			AccessToken:    os.Getenv("WHATSAPP_TOKEN"),
			PhoneNumberID:  os.Getenv("WHATSAPP_PHONE_NUMBER_ID"),
			BaseURL:        getenvWithDefault("WHATSAPP_BASE_URL", "https://graph.facebook.com"),
			APIVersion:     getenvWithDefault("WHATSAPP_API_VERSION", "v20.0"),
			AlertRecipient: os.Getenv("WHATSAPP_ALERT_RECIPIENT"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_DATABASE_ID"),
		},
		Reporting: ReportingConfig{
			CronSchedule: getenvWithDefault("REPORT_CRON_SCHEDULE", "0 20 * * *"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	switch {
	case c.MongoDB.URI == "":
		return errors.New("MONGODB_URI must be provided")
	case c.MongoDB.DBName == "":
		return errors.New("MONGODB_DB_NAME must not be empty")
	}

	if c.Board.PollSchedule == "" {
		return errors.New("BOARD_POLL_SCHEDULE must not be empty")
	}
	if _, err := c.Board.Location(); err != nil {
		return fmt.Errorf("TIMEZONE is invalid: %w", err)
	}

	if c.Defaults.ContainerTareKg < 0 {
		return errors.New("DEFAULT_CONTAINER_TARE_KG must not be negative")
	}
	if c.Defaults.MinimumStockKg < 0 {
		return errors.New("DEFAULT_MIN_STOCK_KG must not be negative")
	}

	if c.Capture.JPEGQuality < 1 || c.Capture.JPEGQuality > 100 {
		return errors.New("CAPTURE_JPEG_QUALITY must be between 1 and 100")
	}
	if c.Capture.SessionTTL <= 0 {
		return errors.New("CAPTURE_SESSION_TTL must be positive")
	}

	if c.WhatsApp.AccessToken != "" {
		if c.WhatsApp.PhoneNumberID == "" {
			return errors.New("WHATSAPP_PHONE_NUMBER_ID must be provided with WHATSAPP_TOKEN")
		}
		if c.WhatsApp.BaseURL == "" || c.WhatsApp.APIVersion == "" {
			return errors.New("WHATSAPP_BASE_URL and WHATSAPP_API_VERSION must not be empty")
		}
	}

	if c.Sheets.SpreadsheetID != "" && c.Sheets.CredentialsPath == "" {
		return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH must be provided with GOOGLE_SHEET_DATABASE_ID")
	}

	if c.Reporting.CronSchedule == "" {
		return errors.New("REPORT_CRON_SCHEDULE must be provided")
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvFloat(key string, fallback float64) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number: %w", key, err)
	}
	return value, nil
}

func getenvInt(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return value, nil
}

func getenvDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	return value, nil
}
