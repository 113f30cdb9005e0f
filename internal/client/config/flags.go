package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/gophsync/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
//	-a string   address and port of the sync server
//	-d string   path to the local SQLite database
//	-i int      online check interval in seconds
//	-t int      immediate sync timeout in seconds
//
// Only these flags are parsed; the rest of os.Args belongs to other loaders.
// Durations are overwritten only when their flag is given with a positive
// value, so sub-second values from JSON survive.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-i", "-t"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "address and port to access server")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "path to local database file")
	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	syncTimeout := fs.Int("t", int(cfg.ImmediateSyncTimeout.Seconds()), "immediate sync timeout (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "i":
			if *onlineCheckInterval > 0 {
				cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
			}
		case "t":
			if *syncTimeout > 0 {
				cfg.ImmediateSyncTimeout = time.Duration(*syncTimeout) * time.Second
			}
		}
	})
}
