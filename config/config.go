package config

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/vadiminshakov/coinfolio/internal/clients"
	"github.com/vadiminshakov/coinfolio/internal/services/sheetupdater"
)

const (
	EnvAPIKey    = "COINSPOT_API_KEY"
	EnvAPISecret = "COINSPOT_API_SECRET"

	DefaultPath   = "coinfolio.yaml"
	depositLayout = "2006-01-02"
)

// Reference price feeds.
const (
	PricerNone    = ""
	PricerBinance = "binance"
	PricerBybit   = "bybit"
)

type Config struct {
	Site          string
	MinInterval   time.Duration
	Timeout       time.Duration
	Credential    clients.Credential
	MyCurrency    string
	DepositsSince time.Time

	SpreadsheetID   string
	CredentialsFile string
	WriteRate       float64
	Ranges          sheetupdater.Ranges

	WALDir          string
	WatchInterval   time.Duration
	WebAddr         string
	WebTLSDomains   []string
	CertCacheDir    string
	ReferencePricer string
	ReferenceQuote  string

	Debug bool
	Setup bool
	// Args command to run; empty starts the interactive shell.
	Args []string
}

// SheetsEnabled reports whether a spreadsheet is configured.
func (c Config) SheetsEnabled() bool {
	return c.SpreadsheetID != ""
}

// HasCredential reports whether private endpoints can be called.
func (c Config) HasCredential() bool {
	return c.Credential.Key != "" && len(c.Credential.Secret) > 0
}

type ConfigTmp struct {
	CoinSpot struct {
		Site        string        `yaml:"site"`
		MinInterval time.Duration `yaml:"min_interval,omitempty"`
		Timeout     time.Duration `yaml:"timeout,omitempty"`
	} `yaml:"coinspot"`
	MyCurrency    string `yaml:"my_currency"`
	DepositsSince string `yaml:"deposits_since,omitempty"`
	Sheets        struct {
		SpreadsheetID   string  `yaml:"spreadsheet_id,omitempty"`
		CredentialsFile string  `yaml:"credentials_file,omitempty"`
		WriteRate       float64 `yaml:"write_rate,omitempty"`
		SpentRange      string  `yaml:"spent_range,omitempty"`
		UpdateDateRange string  `yaml:"update_date_range,omitempty"`
		UpdateTimeRange string  `yaml:"update_time_range,omitempty"`
		TotalValueRange string  `yaml:"total_value_range,omitempty"`
		ValueTable      string  `yaml:"value_table,omitempty"`
		GainsTable      string  `yaml:"gains_table,omitempty"`
		HoldingsTable   string  `yaml:"holdings_table,omitempty"`
		DepositsTable   string  `yaml:"deposits_table,omitempty"`
	} `yaml:"sheets"`
	WALDir          string        `yaml:"wal_dir,omitempty"`
	WatchInterval   time.Duration `yaml:"watch_interval,omitempty"`
	WebAddr         string        `yaml:"web_addr,omitempty"`
	WebTLSDomains   []string      `yaml:"web_tls_domains,omitempty"`
	CertCacheDir    string        `yaml:"cert_cache_dir,omitempty"`
	ReferencePricer string        `yaml:"reference_pricer,omitempty"`
	ReferenceQuote  string        `yaml:"reference_quote,omitempty"`
}

// Defaults returns the YAML template the wizard starts from.
func Defaults() ConfigTmp {
	var c ConfigTmp
	c.CoinSpot.Site = "https://www.coinspot.com.au"
	c.CoinSpot.MinInterval = time.Second
	c.CoinSpot.Timeout = 30 * time.Second
	c.MyCurrency = "AUD"
	c.DepositsSince = "2020-11-01"
	c.Sheets.CredentialsFile = "credentials.json"
	c.Sheets.WriteRate = 1
	c.Sheets.SpentRange = "Summary!G5"
	c.Sheets.UpdateDateRange = "Summary!G4"
	c.Sheets.UpdateTimeRange = "Summary!H4"
	c.Sheets.TotalValueRange = "Summary!G6"
	c.Sheets.ValueTable = "Values!A1"
	c.Sheets.GainsTable = "Values!E1"
	c.Sheets.HoldingsTable = "Holdings!A2:D"
	c.Sheets.DepositsTable = "Spent!A1"
	c.WALDir = "./wal/values"
	c.WatchInterval = 15 * time.Minute
	c.WebAddr = ":8080"
	c.ReferencePricer = PricerBinance
	c.ReferenceQuote = "USDT"
	return c
}

// Get parses command-line flags, loads the YAML config and the API
// credential from the environment.
func Get() (Config, error) {
	path := flag.String("config", DefaultPath, "path to yaml config")
	setup := flag.Bool("setup", false, "run the configuration wizard")
	debug := flag.Bool("debug", false, "verbose logging")
	flag.Parse()

	cfg := Config{Debug: *debug, Setup: *setup, Args: flag.Args()}
	if cfg.Setup {
		return cfg, nil
	}

	loaded, err := Load(*path)
	if err != nil {
		return Config{}, err
	}
	loaded.Debug, loaded.Setup, loaded.Args = cfg.Debug, cfg.Setup, cfg.Args
	loaded.Credential = CredentialFromEnv()

	return loaded, nil
}

// CredentialFromEnv reads the CoinSpot key pair from the environment.
func CredentialFromEnv() clients.Credential {
	return clients.Credential{
		Key:    os.Getenv(EnvAPIKey),
		Secret: []byte(os.Getenv(EnvAPISecret)),
	}
}

// Load reads a YAML config. A missing file at the default path yields the
// defaults.
func Load(path string) (Config, error) {
	tmp := Defaults()

	f, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(f, &tmp); err != nil {
			return Config{}, errors.Wrapf(err, "parse %s", path)
		}
	case os.IsNotExist(err) && path == DefaultPath:
	default:
		return Config{}, errors.Wrap(err, "read config")
	}

	return fromTmp(tmp)
}

// Parse builds a config from YAML bytes on top of the defaults.
func Parse(data []byte) (Config, error) {
	tmp := Defaults()
	if err := yaml.Unmarshal(data, &tmp); err != nil {
		return Config{}, errors.Wrap(err, "parse config")
	}
	return fromTmp(tmp)
}

func fromTmp(c ConfigTmp) (Config, error) {
	if c.CoinSpot.Site == "" {
		return Config{}, fmt.Errorf("'coinspot.site' is required")
	}
	if c.CoinSpot.MinInterval <= 0 {
		return Config{}, fmt.Errorf("incorrect 'coinspot.min_interval' param in yaml config (must be positive), got %s", c.CoinSpot.MinInterval)
	}
	if c.CoinSpot.Timeout <= 0 {
		return Config{}, fmt.Errorf("incorrect 'coinspot.timeout' param in yaml config (must be positive), got %s", c.CoinSpot.Timeout)
	}
	if c.WatchInterval <= 0 {
		return Config{}, fmt.Errorf("incorrect 'watch_interval' param in yaml config (must be positive), got %s", c.WatchInterval)
	}
	if c.Sheets.WriteRate < 0 {
		return Config{}, fmt.Errorf("incorrect 'sheets.write_rate' param in yaml config (must not be negative), got %v", c.Sheets.WriteRate)
	}
	if len(c.WebTLSDomains) > 0 && c.WebAddr == "" {
		return Config{}, fmt.Errorf("'web_tls_domains' needs 'web_addr'")
	}
	if strings.TrimSpace(c.MyCurrency) == "" {
		return Config{}, fmt.Errorf("'my_currency' is required")
	}

	pricer := strings.ToLower(strings.TrimSpace(c.ReferencePricer))
	switch pricer {
	case PricerNone, PricerBinance, PricerBybit:
	default:
		return Config{}, fmt.Errorf("incorrect 'reference_pricer' param in yaml config: %q (binance, bybit or empty)", c.ReferencePricer)
	}

	var since time.Time
	if c.DepositsSince != "" {
		t, err := time.Parse(depositLayout, c.DepositsSince)
		if err != nil {
			return Config{}, fmt.Errorf("incorrect 'deposits_since' param in yaml config (correct format is 2020-11-01), error: %w", err)
		}
		since = t
	}

	return Config{
		Site:            strings.TrimRight(c.CoinSpot.Site, "/"),
		MinInterval:     c.CoinSpot.MinInterval,
		Timeout:         c.CoinSpot.Timeout,
		MyCurrency:      strings.ToUpper(strings.TrimSpace(c.MyCurrency)),
		DepositsSince:   since,
		SpreadsheetID:   c.Sheets.SpreadsheetID,
		CredentialsFile: c.Sheets.CredentialsFile,
		WriteRate:       c.Sheets.WriteRate,
		Ranges: sheetupdater.Ranges{
			Spent:         c.Sheets.SpentRange,
			UpdateDate:    c.Sheets.UpdateDateRange,
			UpdateTime:    c.Sheets.UpdateTimeRange,
			TotalValue:    c.Sheets.TotalValueRange,
			ValueTable:    c.Sheets.ValueTable,
			GainsTable:    c.Sheets.GainsTable,
			HoldingsTable: c.Sheets.HoldingsTable,
			DepositsTable: c.Sheets.DepositsTable,
		},
		WALDir:          c.WALDir,
		WatchInterval:   c.WatchInterval,
		WebAddr:         c.WebAddr,
		WebTLSDomains:   c.WebTLSDomains,
		CertCacheDir:    c.CertCacheDir,
		ReferencePricer: pricer,
		ReferenceQuote:  strings.ToUpper(c.ReferenceQuote),
	}, nil
}
