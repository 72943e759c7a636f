package cli

import (
	"modelman/internal/catalog"
	"modelman/internal/config"
	"modelman/internal/connectivity"
	"modelman/internal/gateway"
	"modelman/internal/health"
	"modelman/internal/store"
	"modelman/internal/transport"
	"modelman/pkg/logger"
)

// CLIContext carries the loaded configuration into commands.
type CLIContext struct {
	Config     *config.Config
	ConfigPath string
	Offline    bool
}

// App is the wired component graph one command session uses. It replaces
// module-level singletons: built once, passed by reference.
type App struct {
	Client       *transport.Client
	Deduplicator *transport.Deduplicator
	Gateway      *gateway.Gateway
	Monitor      *health.Monitor
	Connectivity *connectivity.Manual
	Cache        *catalog.Cache
	Store        *store.Store
}

// BuildApp wires the full component graph from the configuration.
func (c *CLIContext) BuildApp() (*App, error) {
	client := transport.NewClient(transport.Config{
		BaseURL:  c.Config.Backend.BaseURL,
		APIToken: c.Config.Backend.APIToken,
		Timeout:  c.Config.Backend.GetTimeout(),
		Retry: transport.RetryPolicy{
			MaxRetries:  c.Config.Backend.MaxRetries,
			BaseDelay:   transport.DefaultBaseDelay,
			Exponential: true,
		},
	})
	dd := transport.NewDeduplicator(client, c.Config.Dedupe.GetGrace())
	gw := gateway.New(dd)
	monitor := health.NewMonitor(client, health.Options{
		Interval:     c.Config.Health.GetInterval(),
		ProbeTimeout: c.Config.Health.GetTimeout(),
		ProbePath:    gateway.BasePath + "/health",
	})
	conn := connectivity.NewManual(!c.Offline)

	var cache *catalog.Cache
	if c.Config.Cache.Enabled() {
		path := c.Config.Cache.Path
		if path == "" {
			var err error
			path, err = config.DefaultCachePath()
			if err != nil {
				return nil, err
			}
		}
		var err error
		cache, err = catalog.Open(path)
		if err != nil {
			// The cache is an optional layer; run without it.
			log := logger.With("cli")
			log.Warn().Err(err).Msg("Failed to open catalog cache")
		}
	}

	opts := store.Options{
		Connectivity: conn,
		Monitor:      monitor,
	}
	if cache != nil {
		opts.Cache = cache
	}
	st := store.New(gw, opts)

	return &App{
		Client:       client,
		Deduplicator: dd,
		Gateway:      gw,
		Monitor:      monitor,
		Connectivity: conn,
		Cache:        cache,
		Store:        st,
	}, nil
}

// Close releases the app's resources.
func (a *App) Close() {
	a.Store.Close()
	if a.Cache != nil {
		a.Cache.Close()
	}
}
