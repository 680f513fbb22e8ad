package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Full(t *testing.T) {
	cfg, err := Parse([]byte(`
coinspot:
  site: https://example.test/
  min_interval: 2s
  timeout: 10s
my_currency: aud
deposits_since: 2021-03-04
sheets:
  spreadsheet_id: sheet-123
  credentials_file: creds.json
  write_rate: 0.5
  holdings_table: "'My Holdings'!A2:D"
wal_dir: /tmp/values
watch_interval: 5m
web_addr: 127.0.0.1:9000
web_tls_domains: [folio.example.com]
reference_pricer: Bybit
reference_quote: usdt
`))
	require.NoError(t, err)

	assert.Equal(t, "https://example.test", cfg.Site)
	assert.Equal(t, 2*time.Second, cfg.MinInterval)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.Equal(t, "AUD", cfg.MyCurrency)
	assert.Equal(t, time.Date(2021, 3, 4, 0, 0, 0, 0, time.UTC), cfg.DepositsSince)
	assert.True(t, cfg.SheetsEnabled())
	assert.Equal(t, 0.5, cfg.WriteRate)
	assert.Equal(t, "'My Holdings'!A2:D", cfg.Ranges.HoldingsTable)
	assert.Equal(t, "Summary!G5", cfg.Ranges.Spent, "unset ranges keep defaults")
	assert.Equal(t, 5*time.Minute, cfg.WatchInterval)
	assert.Equal(t, []string{"folio.example.com"}, cfg.WebTLSDomains)
	assert.Equal(t, PricerBybit, cfg.ReferencePricer)
	assert.Equal(t, "USDT", cfg.ReferenceQuote)
}

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte(`{}`))
	require.NoError(t, err)

	assert.Equal(t, "https://www.coinspot.com.au", cfg.Site)
	assert.Equal(t, time.Second, cfg.MinInterval)
	assert.Equal(t, time.Date(2020, 11, 1, 0, 0, 0, 0, time.UTC), cfg.DepositsSince)
	assert.False(t, cfg.SheetsEnabled())
	assert.Equal(t, PricerBinance, cfg.ReferencePricer)
}

func TestParse_Invalid(t *testing.T) {
	tests := map[string]string{
		"negative interval": "coinspot:\n  min_interval: -1s\n",
		"zero watch":        "watch_interval: 0s\n",
		"bad date":          "deposits_since: 01/11/2020\n",
		"unknown pricer":    "reference_pricer: kraken\n",
		"no currency":       "my_currency: ' '\n",
		"negative rate":     "sheets:\n  write_rate: -1\n",
		"not yaml":          "coinspot: [",
		"tls without addr":  "web_addr: ''\nweb_tls_domains: [folio.example.com]\n",
	}

	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("my_currency: nzd\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "NZD", cfg.MyCurrency)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestCredentialFromEnv(t *testing.T) {
	t.Setenv(EnvAPIKey, "key")
	t.Setenv(EnvAPISecret, "secret")

	cred := CredentialFromEnv()
	assert.Equal(t, "key", cred.Key)
	assert.Equal(t, []byte("secret"), cred.Secret)

	cfg := Config{Credential: cred}
	assert.True(t, cfg.HasCredential())
	assert.NotContains(t, cred.String(), "secret")
}
