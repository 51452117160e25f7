// Package config loads runtime configuration for the iMotr client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-b string   base URL of the iMotr API
//	-t int      request timeout (seconds)
//	-d string   path of the local credential database
//
// # JSON schema
//
// The JSON loader uses timex.Duration for the timeout, so values can be
// either strings like "15s" or integer nanoseconds:
//
//	{
//	  "api_base_url": "https://mayan.live",
//	  "request_timeout": "15s",
//	  "credential_db": "imotr.db",
//	  "app_version": "1.4.2"
//	}
//
// Note: This package does not read environment variables directly; use the
// JSON file or flags to configure values.
package config
