package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "0123456789abcdef0123456789abcdef"

func TestLoad(t *testing.T) {
	t.Run("yaml file overrides defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "postledger.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9090"
  host_token: "host-secret"
auth:
  signing_key: "`+testKey+`"
kafka:
  brokers: ["localhost:9092"]
relay:
  interval: 250ms
`), 0o600))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, ":9090", cfg.Server.Addr)
		assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
		assert.Equal(t, 250*time.Millisecond, cfg.Relay.Interval)
		assert.Equal(t, "ujunox", cfg.Contract.Denom, "unset fields keep defaults")
		assert.Equal(t, "bank.send", cfg.Kafka.Topic)
		assert.Equal(t, -1, cfg.Redis.DB)
		assert.Equal(t, "postledger:", cfg.Redis.KeyPrefix)
	})

	t.Run("environment wins over the file", func(t *testing.T) {
		t.Setenv("POSTLEDGER_HOST_TOKEN", "from-env")
		t.Setenv("POSTLEDGER_JWT_SIGNING_KEY", testKey)
		t.Setenv("POSTLEDGER_KAFKA_BROKERS", "a:9092, b:9092,")
		t.Setenv("POSTLEDGER_RATE_LIMIT_PER_SECOND", "2.5")
		t.Setenv("POSTLEDGER_REDIS_DB", "2")
		t.Setenv("POSTLEDGER_REDIS_KEY_PREFIX", "ledger-a:")

		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, "from-env", cfg.Server.HostToken)
		assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
		assert.InDelta(t, 2.5, cfg.RateLimit.PerSecond, 1e-9)
		assert.Equal(t, 2, cfg.Redis.DB)
		assert.Equal(t, "ledger-a:", cfg.Redis.KeyPrefix)
	})

	t.Run("malformed env values are reported", func(t *testing.T) {
		t.Setenv("POSTLEDGER_HOST_TOKEN", "x")
		t.Setenv("POSTLEDGER_JWT_SIGNING_KEY", testKey)
		t.Setenv("POSTLEDGER_RELAY_INTERVAL", "soon")

		_, err := Load("")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "POSTLEDGER_RELAY_INTERVAL")
	})

	t.Run("missing secrets fail validation", func(t *testing.T) {
		_, err := Load("")
		require.Error(t, err)
		msg := err.Error()
		assert.True(t, strings.Contains(msg, "host_token") && strings.Contains(msg, "signing_key"), msg)
	})
}
