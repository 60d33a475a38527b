package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "127.0.0.1:50051", c.ServerEndpointAddr)
	assert.Equal(t, 3*time.Second, c.OnlineCheckInterval)
	assert.Equal(t, "medkeeper.db", c.DatabaseDSN)
	assert.Equal(t, "argon2id", c.KDFAlgorithm)
	assert.Zero(t, c.UnlockTimeout)
}

func TestLoadConfig_UsesDefaultsBeforeParsing(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"testbin"}

	cfg := LoadConfig()

	require.NotNil(t, cfg, "LoadConfig must not return nil")
	assert.Equal(t, "127.0.0.1:50051", cfg.ServerEndpointAddr)
	assert.Equal(t, 3*time.Second, cfg.OnlineCheckInterval)
}

func TestLoadConfig_FlagsOverrideDefaults(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"testbin", "-k", "pbkdf2-sha256", "-t", "30"}

	cfg := LoadConfig()

	assert.Equal(t, "pbkdf2-sha256", cfg.KDFAlgorithm)
	assert.Equal(t, 30*time.Second, cfg.UnlockTimeout)
	assert.Equal(t, "medkeeper.db", cfg.DatabaseDSN)
}
