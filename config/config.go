// Package config loads service configuration from an optional config.yaml
// with environment variable overrides. Environment always wins so the
// deployment contract stays env-driven.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	// ErrUnknownProvider means: PROVIDER does not name a known adapter
	ErrUnknownProvider = errors.New("unknown provider")
	// ErrUnknownDatabase means: DATABASE does not name a known store
	ErrUnknownDatabase = errors.New("unknown database")
	// ErrMissingCredential means: the selected adapter needs a credential that is unset
	ErrMissingCredential = errors.New("missing credential")
)

// Known provider adapters
const (
	ProviderCoinAPI       = "coinapi"
	ProviderCryptoCompare = "cryptocompare"
	ProviderKaiko         = "kaiko"
)

// Known store backends
const (
	DatabaseMongoDB = "mongodb"
)

const (
	defaultMongoURI = "mongodb://localhost:27017/ledger-countervalue"
	defaultPort     = "8088"

	// MaxMinimalDays clamps MINIMAL_DAYS_TO_CONSIDER_EXCHANGE
	MaxMinimalDays     = 30
	defaultMinimalDays = 20
)

// Config is the full service configuration.
type Config struct {
	Provider string `yaml:"provider"`
	Database string `yaml:"database"`
	MongoURI string `yaml:"mongodb_uri"`
	Port     string `yaml:"port"`

	CoinAPIKey      string `yaml:"coinapi_key"`
	KaikoKey        string `yaml:"kaiko_key"`
	KaikoKeyWSS     string `yaml:"kaiko_key_wss"`
	KaikoRegion     string `yaml:"kaiko_region"`
	KaikoAPIVersion string `yaml:"kaiko_api_version"`
	UseKaikoWSS     bool   `yaml:"use_kaiko_wss"`
	CMCAPIKey       string `yaml:"cmc_api_key"`

	BlacklistExchanges []string `yaml:"blacklist_exchanges"`

	MinimalDaysToConsiderExchange int `yaml:"minimal_days_to_consider_exchange"`

	DisablePrefetch  bool `yaml:"disable_prefetch"`
	HackSyncInServer bool `yaml:"hack_sync_in_server"`
	DebugLiveRates   bool `yaml:"debug_live_rates"`

	blacklist map[string]bool
}

// Load reads the yaml file if it exists, applies environment overrides,
// and normalises derived fields. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{
		Provider:                      ProviderCryptoCompare,
		Database:                      DatabaseMongoDB,
		MongoURI:                      defaultMongoURI,
		Port:                          defaultPort,
		KaikoRegion:                   "eu",
		KaikoAPIVersion:               "v1",
		MinimalDaysToConsiderExchange: defaultMinimalDays,
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, err
		}
	}

	cfg.applyEnv()
	cfg.normalise()
	return cfg, nil
}

func (c *Config) applyEnv() {
	envString(&c.Provider, "PROVIDER")
	envString(&c.Database, "DATABASE")
	envString(&c.MongoURI, "MONGODB_URI")
	envString(&c.Port, "PORT")
	envString(&c.CoinAPIKey, "COINAPI_KEY")
	envString(&c.KaikoKey, "KAIKO_KEY")
	envString(&c.KaikoKeyWSS, "KAIKO_KEY_WSS")
	envString(&c.KaikoRegion, "KAIKO_REGION")
	envString(&c.KaikoAPIVersion, "KAIKO_API_VERSION")
	envString(&c.CMCAPIKey, "CMC_API_KEY")
	envBool(&c.UseKaikoWSS, "USE_KAIKO_WSS")
	envBool(&c.DisablePrefetch, "DISABLE_PREFETCH")
	envBool(&c.HackSyncInServer, "HACK_SYNC_IN_SERVER")
	envBool(&c.DebugLiveRates, "DEBUG_LIVE_RATES")

	if v := os.Getenv("BLACKLIST_EXCHANGES"); v != "" {
		c.BlacklistExchanges = strings.Split(v, ",")
	}
	if v := os.Getenv("MINIMAL_DAYS_TO_CONSIDER_EXCHANGE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MinimalDaysToConsiderExchange = n
		}
	}
}

func (c *Config) normalise() {
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	c.Database = strings.ToLower(strings.TrimSpace(c.Database))
	if c.MinimalDaysToConsiderExchange > MaxMinimalDays {
		c.MinimalDaysToConsiderExchange = MaxMinimalDays
	}
	c.blacklist = make(map[string]bool, len(c.BlacklistExchanges))
	for _, e := range c.BlacklistExchanges {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" {
			c.blacklist[e] = true
		}
	}
}

// Validate enforces the startup contract: known provider and database,
// credentials present for every adapter the process will exercise.
// syncEnabled reports whether the recurrent sync jobs run in this
// process, which pulls in the CoinMarketCap source.
func (c *Config) Validate(syncEnabled bool) error {
	if syncEnabled && c.CMCAPIKey == "" {
		return fmt.Errorf("%w: CMC_API_KEY", ErrMissingCredential)
	}
	switch c.Provider {
	case ProviderCryptoCompare:
	case ProviderCoinAPI:
		if c.CoinAPIKey == "" {
			return fmt.Errorf("%w: COINAPI_KEY", ErrMissingCredential)
		}
	case ProviderKaiko:
		if c.KaikoKey == "" {
			return fmt.Errorf("%w: KAIKO_KEY", ErrMissingCredential)
		}
		if c.UseKaikoWSS && c.KaikoKeyWSS == "" {
			return fmt.Errorf("%w: KAIKO_KEY_WSS", ErrMissingCredential)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownProvider, c.Provider)
	}

	switch c.Database {
	case DatabaseMongoDB:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDatabase, c.Database)
	}
	return nil
}

// IsBlacklisted reports whether the exchange id is excluded from all read
// APIs. Comparison is case-insensitive.
func (c *Config) IsBlacklisted(exchange string) bool {
	return c.blacklist[strings.ToLower(exchange)]
}

func envString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// envBool treats any value other than "", "0" and "false" as true.
func envBool(dst *bool, key string) {
	v := strings.ToLower(os.Getenv(key))
	if v == "" {
		return
	}
	*dst = v != "0" && v != "false"
}
