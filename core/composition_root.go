package core

import (
	"context"
	"fmt"
	"log"

	"github.com/countervalue/market-cache/api"
	"github.com/countervalue/market-cache/config"
	"github.com/countervalue/market-cache/liverates"
	"github.com/countervalue/market-cache/marketcap"
	"github.com/countervalue/market-cache/prefetch"
	"github.com/countervalue/market-cache/provider"
	"github.com/countervalue/market-cache/provider/coinapi"
	"github.com/countervalue/market-cache/provider/cryptocompare"
	"github.com/countervalue/market-cache/provider/kaiko"
	"github.com/countervalue/market-cache/rates"
	"github.com/countervalue/market-cache/refresh"
	"github.com/countervalue/market-cache/stats"
	"github.com/countervalue/market-cache/store"
	"github.com/countervalue/market-cache/store/mongostore"
)

// Mode selects which half of the engine a process runs.
type Mode string

const (
	// ModeServer runs the read HTTP API.
	ModeServer Mode = "server"
	// ModeSync runs the ingestion pipelines (live rates, prefetch, stats,
	// market cap).
	ModeSync Mode = "sync"
)

// Setup creates and registers all services for the given mode.
func Setup(ctx context.Context, cfg *config.Config, mode Mode) (*Registry, error) {
	registry := NewRegistry()

	prov, err := newProvider(cfg)
	if err != nil {
		return nil, err
	}
	if err := prov.Init(ctx); err != nil {
		return nil, fmt.Errorf("provider init: %w", err)
	}

	st, err := newStore(cfg)
	if err != nil {
		return nil, err
	}
	if lifecycle, ok := st.(Interface); ok {
		registry.Register(lifecycle)
	}

	engine := refresh.NewEngine(prov, st, cfg.MinimalDaysToConsiderExchange)

	// the recurrent market-cap refresh runs only alongside the sync
	// pipelines; the read process answers from the stored snapshot
	runSync := mode == ModeSync || cfg.HackSyncInServer
	marketCapService := marketcap.NewService(st, marketcap.NewCMCClient(cfg.CMCAPIKey), runSync)
	registry.Register(marketCapService)

	if runSync {
		registerSyncServices(registry, cfg, prov, st, engine)
	}

	if mode == ModeServer {
		ratesService := rates.NewService(engine, st, cfg)
		registry.Register(api.New(cfg.Port, ratesService, marketCapService, st))
	}

	return registry, nil
}

func registerSyncServices(registry *Registry, cfg *config.Config, prov provider.Provider, st store.Store, engine *refresh.Engine) {
	registry.Register(stats.NewBatchJob(st, cfg.MinimalDaysToConsiderExchange))

	if streamingEnabled(cfg) {
		registry.Register(liverates.NewService(prov, st, engine, cfg.DebugLiveRates))
	} else {
		log.Printf("Setup: live rates pipeline disabled for provider %s", cfg.Provider)
	}

	if cfg.DisablePrefetch {
		log.Printf("Setup: prefetch disabled")
	} else {
		registry.Register(prefetch.NewService(st, engine))
	}
}

func newProvider(cfg *config.Config) (provider.Provider, error) {
	switch cfg.Provider {
	case config.ProviderCryptoCompare:
		return cryptocompare.New(""), nil
	case config.ProviderCoinAPI:
		return coinapi.New(cfg.CoinAPIKey), nil
	case config.ProviderKaiko:
		return kaiko.New(kaiko.Options{
			APIKey:     cfg.KaikoKey,
			WSSKey:     cfg.KaikoKeyWSS,
			Region:     cfg.KaikoRegion,
			APIVersion: cfg.KaikoAPIVersion,
			UseWSS:     cfg.UseKaikoWSS,
		}), nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownProvider, cfg.Provider)
	}
}

func newStore(cfg *config.Config) (store.Store, error) {
	switch cfg.Database {
	case config.DatabaseMongoDB:
		return mongostore.New(cfg.MongoURI), nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownDatabase, cfg.Database)
	}
}

func streamingEnabled(cfg *config.Config) bool {
	return cfg.Provider != config.ProviderKaiko || cfg.UseKaikoWSS
}
