package redis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"postledger/internal/platform/config"
)

func TestOptions(t *testing.T) {
	t.Run("negative db keeps the index from the URL", func(t *testing.T) {
		cfg := config.Default().Redis
		cfg.URL = "redis://localhost:6379/3"

		opts, err := options(cfg)
		require.NoError(t, err)
		assert.Equal(t, 3, opts.DB)
		assert.Equal(t, cfg.PoolSize, opts.PoolSize)
	})

	t.Run("configured db overrides the URL", func(t *testing.T) {
		cfg := config.Default().Redis
		cfg.URL = "redis://localhost:6379/3"
		cfg.DB = 5

		opts, err := options(cfg)
		require.NoError(t, err)
		assert.Equal(t, 5, opts.DB)
	})

	t.Run("malformed URL", func(t *testing.T) {
		cfg := config.Default().Redis
		cfg.URL = "http://localhost"

		_, err := options(cfg)
		require.Error(t, err)
	})
}
