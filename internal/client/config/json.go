package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/gophsync/internal/flagx"
	"github.com/dmitrijs2005/gophsync/internal/timex"
)

// JsonConfig is the on-disk shape of the config file. Durations accept
// "3s" style strings or integer nanoseconds.
type JsonConfig struct {
	ServerEndpointAddr   string         `json:"server_endpoint_addr"`
	DatabasePath         string         `json:"database_path"`
	OnlineCheckInterval  timex.Duration `json:"online_check_interval"`
	ProbeTimeout         timex.Duration `json:"probe_timeout"`
	ImmediateSyncTimeout timex.Duration `json:"immediate_sync_timeout"`
}

// parseJson overlays cfg with the file named by -c / -config. Keys missing
// from the file leave the current values alone. Read or decode errors panic.
func parseJson(cfg *Config) {
	path := flagx.ConfigPath(os.Args[1:])
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.ServerEndpointAddr != "" {
		cfg.ServerEndpointAddr = jc.ServerEndpointAddr
	}
	if jc.DatabasePath != "" {
		cfg.DatabasePath = jc.DatabasePath
	}
	if jc.OnlineCheckInterval.Duration > 0 {
		cfg.OnlineCheckInterval = jc.OnlineCheckInterval.Duration
	}
	if jc.ProbeTimeout.Duration > 0 {
		cfg.ProbeTimeout = jc.ProbeTimeout.Duration
	}
	if jc.ImmediateSyncTimeout.Duration > 0 {
		cfg.ImmediateSyncTimeout = jc.ImmediateSyncTimeout.Duration
	}
}
