package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("KAFKA_BROKERS", "")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "8080", cfg.Server.Port)
	require.Equal(t, "dogwalk", cfg.Database.DBName)
	require.Equal(t, "mock", cfg.Payments.PSP)
	require.Equal(t, "postgres", cfg.Storage.Driver)
	require.False(t, cfg.Kafka.Enabled())
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "cfg.yaml")
	require.NoError(t, os.WriteFile(p, []byte(`
server:
  port: "9000"
  read_timeout: 5s
database:
  host: "db.internal"
  name: "walks"
kafka:
  brokers: ["kafka-1:9092", "kafka-2:9092"]
  walk_events_topic: "walks.v1"
payments:
  psp: "stripe"
realtime:
  driver: "memory"
storage:
  driver: "memory"
  migrate: true
`), 0o600))

	t.Setenv("CONFIG_FILE", p)
	t.Setenv("SERVER_PORT", "9100")
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "9100", cfg.Server.Port)
	require.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	require.Equal(t, 10*time.Second, cfg.Server.WriteTimeout)
	require.Equal(t, "db.internal", cfg.Database.Host)
	require.Equal(t, "walks", cfg.Database.DBName)
	require.Equal(t, "5432", cfg.Database.Port)
	require.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	require.Equal(t, "walks.v1", cfg.Kafka.WalkEventsTopic)
	require.True(t, cfg.Kafka.Enabled())
	require.Equal(t, "stripe", cfg.Payments.PSP)
	require.Equal(t, "memory", cfg.Realtime.Driver)
	require.True(t, cfg.Storage.Migrate)
	require.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_BrokerList(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("KAFKA_BROKERS", " kafka-1:9092, ,kafka-2:9092")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := Load()
	require.Error(t, err)
}
