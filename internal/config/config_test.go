package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePolicyFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "development", cfg.Env)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Equal(t, "order-lifecycle-events", cfg.Kafka.EventsTopic)

	assert.Equal(t, 5*time.Minute, cfg.Reaper.Interval)
	assert.Equal(t, 1*time.Minute, cfg.Reaper.Online.FirstReminder)
	assert.Equal(t, 15*time.Minute, cfg.Reaper.Online.FinalReminder)
	assert.Equal(t, 60*time.Minute, cfg.Reaper.Online.DeleteAfter)
	assert.Equal(t, 6*time.Hour, cfg.Reaper.Grace.FirstReminder)
	assert.Equal(t, 24*time.Hour, cfg.Reaper.Grace.SecondReminder)
	assert.Equal(t, 48*time.Hour, cfg.Reaper.Grace.FinalReminder)
	assert.Equal(t, 72*time.Hour, cfg.Reaper.Grace.DeleteAfter)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("REAPER_INTERVAL", "30s")
	t.Setenv("KAFKA_BROKERS", "broker1:9092, broker2:9092")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 30*time.Second, cfg.Reaper.Interval)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.Kafka.Brokers)
}

func TestLoad_InvalidValues(t *testing.T) {
	testCases := map[string]struct {
		key   string
		value string
	}{
		"non-numeric port":    {key: "PORT", value: "eighty"},
		"non-numeric db port": {key: "DB_PORT", value: "x"},
		"unparsable interval": {key: "REAPER_INTERVAL", value: "five minutes"},
		"missing policy file": {key: "REAPER_POLICY_FILE", value: "/nonexistent/policy.yaml"},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_PolicyFileOverrides(t *testing.T) {
	path := writePolicyFile(t, `
interval: 1m
onlinePayment:
  firstReminder: 2m
  deleteAfter: 30m
gracePeriod:
  finalReminder: 36h
  deleteAfter: 96h
`)
	t.Setenv("REAPER_POLICY_FILE", path)

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 1*time.Minute, cfg.Reaper.Interval)
	assert.Equal(t, 2*time.Minute, cfg.Reaper.Online.FirstReminder)
	assert.Equal(t, 30*time.Minute, cfg.Reaper.Online.DeleteAfter)
	assert.Equal(t, 36*time.Hour, cfg.Reaper.Grace.FinalReminder)
	assert.Equal(t, 96*time.Hour, cfg.Reaper.Grace.DeleteAfter)

	// Fields absent from the file keep their defaults
	assert.Equal(t, 15*time.Minute, cfg.Reaper.Online.FinalReminder)
	assert.Equal(t, 6*time.Hour, cfg.Reaper.Grace.FirstReminder)
}

func TestLoad_PolicyFileRejectsBadDurations(t *testing.T) {
	path := writePolicyFile(t, `
onlinePayment:
  firstReminder: soon
`)
	t.Setenv("REAPER_POLICY_FILE", path)

	_, err := Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid duration")
}

func TestLoad_PolicyFileRejectsBadYAML(t *testing.T) {
	path := writePolicyFile(t, "interval: [unclosed")
	t.Setenv("REAPER_POLICY_FILE", path)

	_, err := Load()
	assert.Error(t, err)
}

func TestGetDBConnString(t *testing.T) {
	cfg := &Config{
		DB: DBConfig{
			Host:     "db.internal",
			Port:     5433,
			User:     "reaper",
			Password: "secret",
			Name:     "orders",
			SSLMode:  "require",
		},
	}

	assert.Equal(t,
		"host=db.internal port=5433 user=reaper password=secret dbname=orders sslmode=require",
		cfg.GetDBConnString())
}
