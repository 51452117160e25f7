package config

import "time"

// Config holds runtime settings for the iMotr client.
//
// Fields:
//   - APIBaseURL: base URL of the iMotr API, e.g. https://mayan.live.
//   - RequestTimeout: default timeout applied to every API request.
//   - CredentialDB: path (or DSN) of the local sqlite credential store.
//   - AppVersion: version string reported in the device record.
type Config struct {
	APIBaseURL     string
	RequestTimeout time.Duration
	CredentialDB   string
	AppVersion     string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIBaseURL = "https://mayan.live"
	c.RequestTimeout = 15 * time.Second
	c.CredentialDB = "imotr.db"
	c.AppVersion = "dev"
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
