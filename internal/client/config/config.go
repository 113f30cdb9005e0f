package config

import "time"

// Config holds runtime settings for the sync client.
//
// Durations are time.Duration values; flags take them in seconds.
type Config struct {
	ServerEndpointAddr   string
	DatabasePath         string
	OnlineCheckInterval  time.Duration
	ProbeTimeout         time.Duration
	ImmediateSyncTimeout time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.DatabasePath = "gophsync.db"
	c.OnlineCheckInterval = 3 * time.Second
	c.ProbeTimeout = 3 * time.Second
	c.ImmediateSyncTimeout = 4 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	cfg.fillNonPositive()
	return cfg
}

// fillNonPositive restores defaults for durations that are zero or negative;
// a zero probe interval would stop the connectivity monitor from starting.
func (c *Config) fillNonPositive() {
	var d Config
	d.LoadDefaults()
	if c.OnlineCheckInterval <= 0 {
		c.OnlineCheckInterval = d.OnlineCheckInterval
	}
	if c.ProbeTimeout <= 0 {
		c.ProbeTimeout = d.ProbeTimeout
	}
	if c.ImmediateSyncTimeout <= 0 {
		c.ImmediateSyncTimeout = d.ImmediateSyncTimeout
	}
}
