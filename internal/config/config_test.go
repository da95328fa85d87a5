package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marians/genesisclient/internal/core"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"GENESIS_SITE", "GENESIS_USERNAME", "GENESIS_PASSWORD",
		"GENESIS_TIMEOUT_SECS", "GENESIS_MAX_RETRIES", "GENESIS_RATE_LIMIT",
		"GENESIS_COLLAPSE_WHITESPACE", "GENESIS_EXPORT_STRATEGY",
		"GENESIS_STORE_KIND", "GENESIS_STORE_DIR", "GENESIS_STORE_BUCKET",
		"GENESIS_LOG_LEVEL", "GENESIS_LOG_FORMAT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 60*time.Second, cfg.Transport.Timeout())
	assert.Equal(t, StoreLocal, cfg.Store.Kind)
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("GENESIS_SITE", "LDNRW")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "LDNRW", cfg.Site)
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "genesis.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
site: DESTATIS
username: alice
transport:
  timeout_secs: 10
  max_retries: 2
parser:
  collapse_whitespace: true
store:
  kind: s3
  endpoint: localhost:9000
  bucket: exports
`), 0o644))

	t.Setenv("GENESIS_USERNAME", "bob")
	t.Setenv("GENESIS_RATE_LIMIT", "1.5")
	t.Setenv("GENESIS_MAX_RETRIES", "not-a-number")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "DESTATIS", cfg.Site)
	assert.Equal(t, "bob", cfg.Username)
	assert.Equal(t, 10, cfg.Transport.TimeoutSecs)
	assert.Equal(t, 2, cfg.Transport.MaxRetries)
	assert.Equal(t, 1.5, cfg.Transport.RateLimit)
	assert.True(t, cfg.Parser.CollapseWhitespace)
	assert.Equal(t, StoreS3, cfg.Store.Kind)
	assert.Equal(t, "exports", cfg.Store.Bucket)
	assert.True(t, cfg.Store.UseSSL)
	require.NoError(t, cfg.Validate())
}

func TestLoad_InvalidYAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("site: [unterminated"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "no site", mutate: func(c *Config) { c.Site = "" }, wantErr: true},
		{name: "unknown site", mutate: func(c *Config) { c.Site = "SACHSEN" }, wantErr: true},
		{name: "unknown strategy", mutate: func(c *Config) { c.Export.Strategy = "magic" }, wantErr: true},
		{name: "mime strategy", mutate: func(c *Config) { c.Export.Strategy = "mime" }},
		{name: "negative retries", mutate: func(c *Config) { c.Transport.MaxRetries = -1 }, wantErr: true},
		{name: "s3 without bucket", mutate: func(c *Config) { c.Store.Kind = StoreS3; c.Store.Endpoint = "x" }, wantErr: true},
		{name: "unknown store", mutate: func(c *Config) { c.Store.Kind = "ftp" }, wantErr: true},
		{name: "unknown log format", mutate: func(c *Config) { c.Logging.Format = "xml" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Site = core.SiteDestatis
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
