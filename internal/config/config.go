package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the full application configuration surface.
type Config struct {
	Server    ServerConfig
	Sheets    SheetsConfig
	Storage   StorageConfig
	OCR       OCRConfig
	Imaging   ImagingConfig
	MongoDB   MongoDBConfig
	WhatsApp  WhatsAppConfig
	Reporting ReportingConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port     string
	LogLevel string
}

// SheetsConfig contains the service credential used to write every driver's ledger.
// The credential may be given inline (client email + private key) or as a JSON key file.
type SheetsConfig struct {
	ClientEmail     string
	PrivateKey      string
	CredentialsPath string
	SheetName       string
}

// HasCredentials reports whether any form of ledger credential was supplied.
func (c SheetsConfig) HasCredentials() bool {
	if c.CredentialsPath != "" {
		return true
	}
	return c.ClientEmail != "" && c.PrivateKey != ""
}

// StorageConfig holds blob storage settings for receipt photos.
type StorageConfig struct {
	Bucket          string
	CredentialsPath string
	PublicBaseURL   string
}

// OCRConfig selects and configures the OCR text source.
type OCRConfig struct {
	Provider       string
	Language       string
	AnthropicKey   string
	AnthropicModel string
	GeminiKey      string
	GeminiModel    string
}

// ImagingConfig controls the capture normalizer.
type ImagingConfig struct {
	MaxWidth int
	Quality  float64
}

// MongoDBConfig holds settings for MongoDB.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// WhatsAppConfig contains credentials for the Meta WhatsApp Cloud API.
// Notifications are disabled when AccessToken is empty.
type WhatsAppConfig struct {
	AccessToken   string
	PhoneNumberID string
	BaseURL       string
	APIVersion    string
}

// Enabled reports whether outbound WhatsApp notifications can be sent.
func (c WhatsAppConfig) Enabled() bool {
	return c.AccessToken != "" && c.PhoneNumberID != ""
}

// ReportingConfig holds scheduler-related settings.
type ReportingConfig struct {
	CronSchedule string
	Timezone     string
	AdminPhone   string
}

// Location resolves the configured timezone.
func (c ReportingConfig) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
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
		// Missing .env files are acceptable when configuration comes from the environment directly.
		_ = godotenv.Load()
	}

	maxWidth, err := getenvInt("IMAGE_MAX_WIDTH", 1200)
	if err != nil {
		return nil, err
	}
	quality, err := getenvFloat("IMAGE_QUALITY", 0.8)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:     getenvWithDefault("APP_PORT", "8080"),
			LogLevel: getenvWithDefault("LOG_LEVEL", "info"),
		},
		Sheets: SheetsConfig{
			ClientEmail:     os.Getenv("GOOGLE_SHEETS_CLIENT_EMAIL"),
			PrivateKey:      strings.ReplaceAll(os.Getenv("GOOGLE_SHEETS_PRIVATE_KEY"), `\n`, "\n"),
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SheetName:       getenvWithDefault("LEDGER_SHEET_NAME", "Hoja 1"),
		},
		Storage: StorageConfig{
			Bucket:          os.Getenv("GCS_BUCKET"),
			CredentialsPath: os.Getenv("GCS_CREDENTIALS_PATH"),
			PublicBaseURL:   getenvWithDefault("GCS_PUBLIC_BASE_URL", "https://storage.googleapis.com"),
		},
		OCR: OCRConfig{
			Provider:       strings.ToLower(getenvWithDefault("OCR_PROVIDER", "anthropic")),
			Language:       getenvWithDefault("OCR_LANGUAGE", "spa"),
			AnthropicKey:   os.Getenv("ANTHROPIC_API_KEY"),
			AnthropicModel: getenvWithDefault("ANTHROPIC_MODEL", "claude-3-haiku-20240307"),
			GeminiKey:      os.Getenv("GEMINI_API_KEY"),
			GeminiModel:    getenvWithDefault("GEMINI_MODEL", "gemini-2.5-flash"),
		},
		Imaging: ImagingConfig{
			MaxWidth: maxWidth,
			Quality:  quality,
		},
		MongoDB: MongoDBConfig{
			URI:    getenvWithDefault("MONGODB_URI", "mongodb://localhost:27017"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "remitos"),
		},
		WhatsApp: WhatsAppConfig{
			AccessToken:   os.Getenv("WHATSAPP_TOKEN"),
			PhoneNumberID: os.Getenv("WHATSAPP_PHONE_NUMBER_ID"),
			BaseURL:       getenvWithDefault("WHATSAPP_BASE_URL", "https://graph.facebook.com"),
			APIVersion:    getenvWithDefault("WHATSAPP_API_VERSION", "v20.0"),
		},
		Reporting: ReportingConfig{
			CronSchedule: getenvWithDefault("REPORT_CRON_SCHEDULE", "0 21 * * *"),
			Timezone:     getenvWithDefault("TIMEZONE", "America/Argentina/Buenos_Aires"),
			AdminPhone:   os.Getenv("ADMIN_PHONE"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
// Ledger credentials are not checked here; their absence is reported per
// submission as a Misconfigured ledger error.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	if c.Sheets.SheetName == "" {
		return errors.New("LEDGER_SHEET_NAME must not be empty")
	}

	if c.Storage.Bucket == "" {
		return errors.New("GCS_BUCKET must be provided")
	}

	switch c.OCR.Provider {
	case "anthropic":
		if c.OCR.AnthropicKey == "" {
			return errors.New("ANTHROPIC_API_KEY must be provided when OCR_PROVIDER=anthropic")
		}
	case "gemini":
		if c.OCR.GeminiKey == "" {
			return errors.New("GEMINI_API_KEY must be provided when OCR_PROVIDER=gemini")
		}
	default:
		return fmt.Errorf("unsupported OCR_PROVIDER %q", c.OCR.Provider)
	}

	if c.Imaging.MaxWidth <= 0 {
		return errors.New("IMAGE_MAX_WIDTH must be positive")
	}

	if c.Imaging.Quality <= 0 || c.Imaging.Quality > 1 {
		return errors.New("IMAGE_QUALITY must be within (0, 1]")
	}

	if c.MongoDB.URI == "" {
		return errors.New("MONGODB_URI must be provided")
	}

	if c.Reporting.CronSchedule == "" {
		return errors.New("REPORT_CRON_SCHEDULE must be provided")
	}

	if _, err := c.Reporting.Location(); err != nil {
		return fmt.Errorf("TIMEZONE is invalid: %w", err)
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func getenvFloat(key string, fallback float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number: %w", key, err)
	}
	return f, nil
}
