// Package config loads runtime configuration for the sync client.
//
// Sources, later ones winning:
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config.
//  3. Command-line flags.
//
// Flags
//
//	-a string   address:port of the sync server
//	-d string   local database path
//	-i int      online status check interval (seconds)
//	-t int      immediate sync timeout (seconds)
//
// # JSON schema
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "database_path": "gophsync.db",
//	  "online_check_interval": "3s",
//	  "probe_timeout": "3s",
//	  "immediate_sync_timeout": "4s"
//	}
package config
