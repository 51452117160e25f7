package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{
			name: "overrides base url and timeout",
			args: []string{"cmd", "-b", "https://staging.mayan.live", "-t", "30"},
			expected: &Config{
				APIBaseURL:     "https://staging.mayan.live",
				RequestTimeout: 30 * time.Second,
				CredentialDB:   "imotr.db",
				AppVersion:     "dev",
			},
		},
		{
			name: "overrides db path",
			args: []string{"cmd", "-d", "/tmp/creds.db"},
			expected: &Config{
				APIBaseURL:     "https://mayan.live",
				RequestTimeout: 15 * time.Second,
				CredentialDB:   "/tmp/creds.db",
				AppVersion:     "dev",
			},
		},
		{
			name:        "incorrect timeout panics",
			args:        []string{"cmd", "-t", "abc"},
			expectPanic: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			origArgs := os.Args
			defer func() { os.Args = origArgs }()
			os.Args = tt.args

			cfg := &Config{}
			cfg.LoadDefaults()

			if tt.expectPanic {
				assert.Panics(t, func() { parseFlags(cfg) })
				return
			}

			parseFlags(cfg)
			assert.Equal(t, tt.expected, cfg)
		})
	}
}
