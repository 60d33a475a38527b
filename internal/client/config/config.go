package config

import (
	"time"

	"github.com/dmitrijs2005/medkeeper/internal/cryptox"
)

// Config holds runtime settings for the medkeeper CLI.
//
// Fields:
//   - ServerEndpointAddr: host:port of the profile server's gRPC endpoint.
//   - OnlineCheckInterval: how often the client checks server reachability.
//   - DatabaseDSN: path of the local SQLite database.
//   - KDFAlgorithm: password key derivation, "argon2id" or "pbkdf2-sha256".
//     Must match the algorithm used when the master key was first wrapped.
//   - UnlockTimeout: upper bound for one unlock attempt; zero means none.
type Config struct {
	ServerEndpointAddr  string
	OnlineCheckInterval time.Duration
	DatabaseDSN         string
	KDFAlgorithm        string
	UnlockTimeout       time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.OnlineCheckInterval = 3 * time.Second
	c.DatabaseDSN = "medkeeper.db"
	c.KDFAlgorithm = cryptox.AlgorithmArgon2id
	c.UnlockTimeout = 0
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
