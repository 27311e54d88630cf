package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var DebugMode = false

const (
	defaultBitfinexEndpoint = "wss://api-pub.bitfinex.com/ws/2"
	defaultRPCAddr          = ":50051"
	defaultMetricsAddr      = ":8080"
	defaultDesyncThreshold  = 10
	defaultDesyncWindow     = time.Minute
)

type Config struct {
	BitfinexEndpoint   string
	Pairs              []string
	Channels           []string
	RPCAddr            string
	MetricsAddr        string
	AvailableProviders []string
	DesyncThreshold    int
	DesyncWindow       time.Duration
}

// Load reads the given env files (missing files are skipped) and builds the
// config from the environment.
func Load(files ...string) *Config {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			log.Printf("[config] skipping env file %s: %v", f, err)
		}
	}

	DebugMode = getBool("DEBUG")

	return &Config{
		BitfinexEndpoint:   getString("BITFINEX_WS_ENDPOINT", defaultBitfinexEndpoint),
		Pairs:              getList("FEED_PAIRS", "BTC_USD"),
		Channels:           getList("FEED_CHANNELS", "ticker,trades,book"),
		RPCAddr:            getString("RPC_ADDR", defaultRPCAddr),
		MetricsAddr:        getString("METRICS_ADDR", defaultMetricsAddr),
		AvailableProviders: getList("AVAILABLE_PROVIDERS", "bitfinex"),
		DesyncThreshold:    getInt("DESYNC_THRESHOLD", defaultDesyncThreshold),
		DesyncWindow:       getDuration("DESYNC_WINDOW", defaultDesyncWindow),
	}
}

func getString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getList(key, fallback string) []string {
	var out []string
	for _, item := range strings.Split(getString(key, fallback), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func getBool(key string) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && v
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
