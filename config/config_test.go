package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"BITFINEX_WS_ENDPOINT", "FEED_PAIRS", "FEED_CHANNELS", "DEBUG", "DESYNC_THRESHOLD", "DESYNC_WINDOW"} {
		t.Setenv(key, "")
	}

	conf := Load()

	assert.Equal(t, defaultBitfinexEndpoint, conf.BitfinexEndpoint)
	assert.Equal(t, []string{"BTC_USD"}, conf.Pairs)
	assert.Equal(t, []string{"ticker", "trades", "book"}, conf.Channels)
	assert.Equal(t, []string{"bitfinex"}, conf.AvailableProviders)
	assert.Equal(t, defaultDesyncThreshold, conf.DesyncThreshold)
	assert.Equal(t, defaultDesyncWindow, conf.DesyncWindow)
	assert.False(t, DebugMode)
}

func TestLoad_FromEnvFile(t *testing.T) {
	for _, key := range []string{"FEED_PAIRS", "FEED_CHANNELS", "DEBUG", "DESYNC_THRESHOLD", "DESYNC_WINDOW"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	t.Cleanup(func() { DebugMode = false })

	env := filepath.Join(t.TempDir(), ".env")
	content := "FEED_PAIRS=BTC_USD, ETH_USD\nFEED_CHANNELS=book-R0-F0-100\nDEBUG=true\nDESYNC_THRESHOLD=3\nDESYNC_WINDOW=30s\n"
	assert.NoError(t, os.WriteFile(env, []byte(content), 0o600))

	conf := Load(env, filepath.Join(t.TempDir(), "missing.env"))

	assert.Equal(t, []string{"BTC_USD", "ETH_USD"}, conf.Pairs)
	assert.Equal(t, []string{"book-R0-F0-100"}, conf.Channels)
	assert.Equal(t, 3, conf.DesyncThreshold)
	assert.Equal(t, 30*time.Second, conf.DesyncWindow)
	assert.True(t, DebugMode)
}
