// Package config loads the daemon's configuration from an optional YAML
// file plus environment variables, following the teacher's internal/config
// split between Load (YAML) and LoadFromEnv (YAML + env overrides).
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DatabaseConfig holds connection parameters for the relational store.
type DatabaseConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	Name string `yaml:"name"`
	User string `yaml:"user"`
	Pass string `yaml:"pass"`
	URL  string `yaml:"url"` // overrides Host/Port/Name/User/Pass when set
}

// DSN builds a postgres connection string, preferring URL if set.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s sslmode=disable",
		d.Host, d.Port, d.Name, d.User, d.Pass)
}

// SenderConfig holds credentials for one ESP / messaging provider.
type SenderConfig struct {
	SESAccessKey       string `yaml:"ses_access_key"`
	SESSecretKey       string `yaml:"ses_secret_key"`
	SESRegion          string `yaml:"ses_region"`
	SparkPostAPIKey    string `yaml:"sparkpost_api_key"`
	MailgunAPIKey      string `yaml:"mailgun_api_key"`
	MailgunDomain      string `yaml:"mailgun_domain"`
	TwilioAccountSID   string `yaml:"twilio_account_sid"`
	TwilioAuthToken    string `yaml:"twilio_auth_token"`
	TwilioWhatsAppFrom string `yaml:"twilio_whatsapp_from"`
}

// WebhookConfig holds signature-verification material for inbound webhooks.
type WebhookConfig struct {
	SendGridPublicKeyB64 string `yaml:"sendgrid_public_key_b64"`
	SendGridBearerToken  string `yaml:"sendgrid_bearer_token"`
	TwilioAuthToken      string `yaml:"twilio_auth_token"`
	TwilioPublicURL      string `yaml:"twilio_public_url"`
}

// IngestConfig controls per-platform scheduler cadence and rate limiting.
type IngestConfig struct {
	LinkedInScrapeInterval  time.Duration `yaml:"linkedin_scrape_interval"`
	InstagramScrapeInterval time.Duration `yaml:"instagram_scrape_interval"`
	MapsScrapeInterval      time.Duration `yaml:"maps_scrape_interval"`
	LinkedInRatePerMinute   int           `yaml:"linkedin_rate_per_minute"`
	InstagramRatePerMinute  int           `yaml:"instagram_rate_per_minute"`
	MapsRatePerMinute       int           `yaml:"maps_rate_per_minute"`
	GoogleMapsAPIKey        string        `yaml:"google_maps_api_key"`
	MapsQuery               string        `yaml:"maps_query"`
	MapsLocation            string        `yaml:"maps_location"`
	MapsIndustry            string        `yaml:"maps_industry"`
	LinkedInImportPath      string        `yaml:"linkedin_import_path"`
	InstagramImportPath     string        `yaml:"instagram_import_path"`
}

// Config is the daemon's fully resolved configuration.
type Config struct {
	Database    DatabaseConfig `yaml:"database"`
	Sender      SenderConfig   `yaml:"sender"`
	Webhook     WebhookConfig  `yaml:"webhook"`
	Ingest      IngestConfig   `yaml:"ingest"`
	WorkerCount int            `yaml:"worker_count"`
	MetricsPort int            `yaml:"metrics_port"`
	WebhookPort int            `yaml:"webhook_port"`
	RedisURL    string         `yaml:"redis_url"`
}

// defaults returns a Config populated with the same fallbacks the
// original env-only deployment used.
func defaults() Config {
	return Config{
		Database: DatabaseConfig{Host: "localhost", Port: 5432, Name: "leadgen", User: "leadgen"},
		Sender:   SenderConfig{SESRegion: "us-east-1"},
		Ingest: IngestConfig{
			LinkedInScrapeInterval:  time.Hour,
			InstagramScrapeInterval: time.Hour,
			MapsScrapeInterval:      time.Hour,
			LinkedInRatePerMinute:   20,
			InstagramRatePerMinute:  20,
			MapsRatePerMinute:       20,
		},
		WorkerCount: 2,
		MetricsPort: 9090,
		WebhookPort: 8080,
		RedisURL:    "redis://localhost:6379/0",
	}
}

// Load reads a YAML config file at path on top of the built-in
// defaults. A missing file is not an error — callers typically follow
// Load with LoadFromEnv to layer environment overrides on top.
func Load(path string) (*Config, error) {
	cfg := defaults()
	if path == "" {
		return &cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cfg, nil
}

// LoadFromEnv loads the YAML config at path (if any), loads a .env file
// if present, then overlays environment variables — the same two-stage
// resolution the teacher's deployment uses so secrets never need to
// live in the checked-in YAML.
func LoadFromEnv(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	_ = godotenv.Load()

	if v := os.Getenv("DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("DB_PORT"); v != "" {
		cfg.Database.Port = getenvInt("DB_PORT", cfg.Database.Port)
	}
	if v := os.Getenv("DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("DB_PASS"); v != "" {
		cfg.Database.Pass = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}

	if v := os.Getenv("SES_ACCESS_KEY"); v != "" {
		cfg.Sender.SESAccessKey = v
	}
	if v := os.Getenv("SES_SECRET_KEY"); v != "" {
		cfg.Sender.SESSecretKey = v
	}
	if v := os.Getenv("SES_REGION"); v != "" {
		cfg.Sender.SESRegion = v
	}
	if v := os.Getenv("SPARKPOST_API_KEY"); v != "" {
		cfg.Sender.SparkPostAPIKey = v
	}
	if v := os.Getenv("MAILGUN_API_KEY"); v != "" {
		cfg.Sender.MailgunAPIKey = v
	}
	if v := os.Getenv("MAILGUN_DOMAIN"); v != "" {
		cfg.Sender.MailgunDomain = v
	}
	if v := os.Getenv("TWILIO_ACCOUNT_SID"); v != "" {
		cfg.Sender.TwilioAccountSID = v
	}
	if v := os.Getenv("TWILIO_AUTH_TOKEN"); v != "" {
		cfg.Sender.TwilioAuthToken = v
		cfg.Webhook.TwilioAuthToken = v
	}
	if v := os.Getenv("TWILIO_WHATSAPP_FROM"); v != "" {
		cfg.Sender.TwilioWhatsAppFrom = v
	}

	if v := os.Getenv("SENDGRID_EVENT_PUBLIC_KEY"); v != "" {
		cfg.Webhook.SendGridPublicKeyB64 = v
	}
	if v := os.Getenv("SENDGRID_WEBHOOK_TOKEN"); v != "" {
		cfg.Webhook.SendGridBearerToken = v
	}
	if v := os.Getenv("TWILIO_WEBHOOK_URL"); v != "" {
		cfg.Webhook.TwilioPublicURL = v
	}

	if v := os.Getenv("GOOGLE_MAPS_API_KEY"); v != "" {
		cfg.Ingest.GoogleMapsAPIKey = v
	}
	cfg.Ingest.MapsQuery = getenv("MAPS_QUERY", cfg.Ingest.MapsQuery)
	cfg.Ingest.MapsLocation = getenv("MAPS_LOCATION", cfg.Ingest.MapsLocation)
	cfg.Ingest.MapsIndustry = getenv("MAPS_INDUSTRY", cfg.Ingest.MapsIndustry)
	cfg.Ingest.LinkedInImportPath = getenv("LINKEDIN_IMPORT_PATH", cfg.Ingest.LinkedInImportPath)
	cfg.Ingest.InstagramImportPath = getenv("INSTAGRAM_IMPORT_PATH", cfg.Ingest.InstagramImportPath)
	cfg.Ingest.LinkedInScrapeInterval = getenvDuration("LINKEDIN_SCRAPE_INTERVAL", cfg.Ingest.LinkedInScrapeInterval)
	cfg.Ingest.InstagramScrapeInterval = getenvDuration("INSTAGRAM_SCRAPE_INTERVAL", cfg.Ingest.InstagramScrapeInterval)
	cfg.Ingest.MapsScrapeInterval = getenvDuration("MAPS_SCRAPE_INTERVAL", cfg.Ingest.MapsScrapeInterval)
	cfg.Ingest.LinkedInRatePerMinute = getenvInt("LINKEDIN_RATE_LIMIT_PER_MINUTE", cfg.Ingest.LinkedInRatePerMinute)
	cfg.Ingest.InstagramRatePerMinute = getenvInt("INSTAGRAM_RATE_LIMIT_PER_MINUTE", cfg.Ingest.InstagramRatePerMinute)
	cfg.Ingest.MapsRatePerMinute = getenvInt("MAPS_RATE_LIMIT_PER_MINUTE", cfg.Ingest.MapsRatePerMinute)

	cfg.WorkerCount = getenvInt("WORKER_COUNT", cfg.WorkerCount)
	cfg.MetricsPort = getenvInt("METRICS_PORT", cfg.MetricsPort)
	cfg.WebhookPort = getenvInt("WEBHOOK_PORT", cfg.WebhookPort)
	cfg.RedisURL = getenv("REDIS_URL", cfg.RedisURL)

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
