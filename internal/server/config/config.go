// Package config handles configuration for the server component: defaults,
// a JSON file, environment variables and command-line flags, in that order.
package config

import "time"

// Config holds runtime settings for the sync server.
//
// An empty DatabaseDSN selects the in-memory store. SecretKey signs the
// HS256 access tokens; the default is for development only.
type Config struct {
	EndpointAddrGRPC            string        `env:"GOPHSYNC_GRPC_ADDR"`
	DatabaseDSN                 string        `env:"GOPHSYNC_DATABASE_DSN"`
	SecretKey                   string        `env:"GOPHSYNC_SECRET_KEY"`
	AccessTokenValidityDuration time.Duration `env:"GOPHSYNC_TOKEN_TTL"`
}

// LoadDefaults populates Config with development defaults.
func (c *Config) LoadDefaults() {
	c.EndpointAddrGRPC = ":50051"
	c.DatabaseDSN = ""
	c.SecretKey = "secretKey"
	c.AccessTokenValidityDuration = 24 * time.Hour
}

// LoadConfig builds a Config from defaults, then the optional JSON file,
// then the environment and finally command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}
