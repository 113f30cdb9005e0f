package config

import (
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{
			name: "all flags",
			args: []string{"cmd", "-a", "127.0.0.1:9090", "-d", "/tmp/x.db", "-i", "10", "-t", "2"},
			expected: &Config{
				ServerEndpointAddr:   "127.0.0.1:9090",
				DatabasePath:         "/tmp/x.db",
				OnlineCheckInterval:  10 * time.Second,
				ImmediateSyncTimeout: 2 * time.Second,
			},
		},
		{
			name: "foreign flags ignored",
			args: []string{"cmd", "-c", "cfg.json", "-i", "5"},
			expected: &Config{
				OnlineCheckInterval: 5 * time.Second,
			},
		},
		{
			name:     "zero interval keeps current value",
			args:     []string{"cmd", "-i", "0", "-t", "-3"},
			expected: &Config{},
		},
		{name: "bad interval", args: []string{"cmd", "-i", "abc"}, expectPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args
			cfg := &Config{}

			if tt.expectPanic {
				require.Panics(t, func() { parseFlags(cfg) })
				return
			}
			require.NotPanics(t, func() { parseFlags(cfg) })
			assert.Empty(t, cmp.Diff(tt.expected, cfg))
		})
	}
}

func TestParseFlags_KeepsSubSecondDurationsWhenAbsent(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	os.Args = []string{"cmd", "-a", "host:1"}
	cfg := &Config{OnlineCheckInterval: 500 * time.Millisecond, ImmediateSyncTimeout: 1500 * time.Millisecond}
	parseFlags(cfg)

	assert.Equal(t, 500*time.Millisecond, cfg.OnlineCheckInterval)
	assert.Equal(t, 1500*time.Millisecond, cfg.ImmediateSyncTimeout)
}
