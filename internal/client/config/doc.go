// Package config loads runtime configuration for the medkeeper CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   address:port of the profile server gRPC endpoint
//	-i int      online status check interval (seconds)
//	-d string   path of the local SQLite database
//	-k string   key derivation algorithm (argon2id | pbkdf2-sha256)
//	-t int      unlock attempt timeout (seconds, 0 = none)
//
// # JSON schema
//
// The JSON loader uses timex.Duration for intervals, so values can be either
// strings like "3s" or integer nanoseconds:
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "online_check_interval": "3s",
//	  "database_dsn": "medkeeper.db",
//	  "kdf_algorithm": "argon2id",
//	  "unlock_timeout": "30s"
//	}
//
// Note: This package does not read environment variables directly; use the
// JSON file or flags to configure values.
package config
