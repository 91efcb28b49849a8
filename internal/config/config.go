package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port     int
	LogLevel string
	Env      string
	DB       DBConfig
	Gateway  GatewayConfig
	Kafka    KafkaConfig
	Reaper   ReaperConfig
}

// DBConfig holds the database configuration
type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// GatewayConfig holds the outbound notification gateway endpoints
type GatewayConfig struct {
	EmailBaseURL string
	SMSBaseURL   string
	APIKey       string
}

// KafkaConfig holds the lifecycle event publishing configuration. Publishing
// is disabled when no brokers are configured.
type KafkaConfig struct {
	Brokers     []string
	EventsTopic string
}

// ReaperConfig holds the scheduler interval and the escalation thresholds
// for both tracks
type ReaperConfig struct {
	Interval time.Duration
	Online   OnlineThresholds
	Grace    GraceThresholds
}

// OnlineThresholds are the age thresholds for the online-payment track
type OnlineThresholds struct {
	FirstReminder time.Duration
	FinalReminder time.Duration
	DeleteAfter   time.Duration
}

// GraceThresholds are the age thresholds for the grace-period track
type GraceThresholds struct {
	FirstReminder  time.Duration
	SecondReminder time.Duration
	FinalReminder  time.Duration
	DeleteAfter    time.Duration
}

// getEnv retrieves the value of an environment variable or returns a default value if not set.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}

	return defaultValue
}

// Load reads the configuration from environment variables and, when
// REAPER_POLICY_FILE is set, overlays the escalation policy from that YAML
// file.
func Load() (*Config, error) {
	port, err := strconv.Atoi(getEnv("PORT", "8080"))

	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))

	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	interval, err := time.ParseDuration(getEnv("REAPER_INTERVAL", "5m"))

	if err != nil {
		return nil, fmt.Errorf("invalid REAPER_INTERVAL: %w", err)
	}

	var brokers []string
	if raw := getEnv("KAFKA_BROKERS", ""); raw != "" {
		for _, b := range strings.Split(raw, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
	}

	cfg := &Config{
		Port:     port,
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Env:      getEnv("APP_ENV", "development"),
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     dbPort,
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			Name:     getEnv("DB_NAME", "shopops"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Gateway: GatewayConfig{
			EmailBaseURL: getEnv("EMAIL_GATEWAY_URL", "http://localhost:8090"),
			SMSBaseURL:   getEnv("SMS_GATEWAY_URL", "http://localhost:8091"),
			APIKey:       getEnv("GATEWAY_API_KEY", ""),
		},
		Kafka: KafkaConfig{
			Brokers:     brokers,
			EventsTopic: getEnv("KAFKA_EVENTS_TOPIC", "order-lifecycle-events"),
		},
		Reaper: ReaperConfig{
			Interval: interval,
			Online:   DefaultOnlineThresholds(),
			Grace:    DefaultGraceThresholds(),
		},
	}

	if path := getEnv("REAPER_POLICY_FILE", ""); path != "" {
		if err := cfg.applyPolicyFile(path); err != nil {
			return nil, fmt.Errorf("failed to load policy file %s: %w", path, err)
		}
	}

	return cfg, nil
}

// DefaultOnlineThresholds returns the built-in online-payment escalation
// ladder: first reminder at 1 minute, final warning at 15 minutes, deletion
// at 1 hour.
func DefaultOnlineThresholds() OnlineThresholds {
	return OnlineThresholds{
		FirstReminder: 1 * time.Minute,
		FinalReminder: 15 * time.Minute,
		DeleteAfter:   60 * time.Minute,
	}
}

// DefaultGraceThresholds returns the built-in grace-period escalation
// ladder: reminders at 6, 24 and 48 hours, deletion after the 3-day window.
func DefaultGraceThresholds() GraceThresholds {
	return GraceThresholds{
		FirstReminder:  6 * time.Hour,
		SecondReminder: 24 * time.Hour,
		FinalReminder:  48 * time.Hour,
		DeleteAfter:    72 * time.Hour,
	}
}

// policyFile mirrors the YAML escalation policy document. Durations are
// strings ("15m", "48h") parsed with time.ParseDuration; empty fields keep
// their defaults.
type policyFile struct {
	Interval      string `yaml:"interval"`
	OnlinePayment struct {
		FirstReminder string `yaml:"firstReminder"`
		FinalReminder string `yaml:"finalReminder"`
		DeleteAfter   string `yaml:"deleteAfter"`
	} `yaml:"onlinePayment"`
	GracePeriod struct {
		FirstReminder  string `yaml:"firstReminder"`
		SecondReminder string `yaml:"secondReminder"`
		FinalReminder  string `yaml:"finalReminder"`
		DeleteAfter    string `yaml:"deleteAfter"`
	} `yaml:"gracePeriod"`
}

func (c *Config) applyPolicyFile(path string) error {
	data, err := os.ReadFile(path)

	if err != nil {
		return err
	}

	var pf policyFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return fmt.Errorf("invalid YAML: %w", err)
	}

	overrides := []struct {
		raw string
		dst *time.Duration
	}{
		{pf.Interval, &c.Reaper.Interval},
		{pf.OnlinePayment.FirstReminder, &c.Reaper.Online.FirstReminder},
		{pf.OnlinePayment.FinalReminder, &c.Reaper.Online.FinalReminder},
		{pf.OnlinePayment.DeleteAfter, &c.Reaper.Online.DeleteAfter},
		{pf.GracePeriod.FirstReminder, &c.Reaper.Grace.FirstReminder},
		{pf.GracePeriod.SecondReminder, &c.Reaper.Grace.SecondReminder},
		{pf.GracePeriod.FinalReminder, &c.Reaper.Grace.FinalReminder},
		{pf.GracePeriod.DeleteAfter, &c.Reaper.Grace.DeleteAfter},
	}

	for _, o := range overrides {
		if o.raw == "" {
			continue
		}

		d, err := time.ParseDuration(o.raw)

		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", o.raw, err)
		}

		*o.dst = d
	}

	return nil
}

// GetDBConnString returns the database connection string
func (c *Config) GetDBConnString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host, c.DB.Port, c.DB.User, c.DB.Password, c.DB.Name, c.DB.SSLMode)
}
