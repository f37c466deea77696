package main

import (
	"fmt"
	"os"

	"github.com/gokaycavdar/go-netguard/pkg/config"
	"github.com/gokaycavdar/go-netguard/pkg/engine"
	"github.com/gokaycavdar/go-netguard/pkg/geoip"
	"github.com/gokaycavdar/go-netguard/pkg/logging"
	"github.com/gokaycavdar/go-netguard/pkg/metrics"
	"github.com/gokaycavdar/go-netguard/pkg/models"
	"github.com/gokaycavdar/go-netguard/pkg/netstat"
	"github.com/gokaycavdar/go-netguard/pkg/rules"
	"github.com/gokaycavdar/go-netguard/pkg/scoring"
	"github.com/gokaycavdar/go-netguard/pkg/storage"
)

// app holds the long-lived collaborators shared by every command.
type app struct {
	cfg     *config.Config
	logger  logging.Logger
	metrics *metrics.Metrics
	cache   *storage.GeoCache
	closers []func()
}

func newApp() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	a := &app{
		cfg:     cfg,
		logger:  logging.New("netguard", os.Stderr, cfg.LogLevel()),
		metrics: metrics.New(),
	}

	resolver, err := a.buildResolver()
	if err != nil {
		a.Close()
		return nil, err
	}
	a.cache = storage.NewGeoCache(resolver, storage.NewMemoryStore(cfg.Geo.CacheTTL))
	a.cache.SetObserver(a.metrics)
	return a, nil
}

func (a *app) buildResolver() (geoip.Resolver, error) {
	geo := a.cfg.Geo
	ipapi := func() geoip.Resolver {
		return geoip.NewIPAPIResolver(geo.IPAPIURL, geo.LookupTimeout)
	}
	mmdb := func() (geoip.Resolver, error) {
		r, err := geoip.NewMMDBResolver(geo.CityDB, geo.ASNDB)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, r.Close)
		return r, nil
	}

	switch geo.Provider {
	case config.ProviderMMDB:
		return mmdb()
	case config.ProviderChain:
		local, err := mmdb()
		if err != nil {
			return nil, err
		}
		return geoip.Chain{local, ipapi()}, nil
	default:
		return ipapi(), nil
	}
}

// enumerator returns the live connection source configured for this host.
func (a *app) enumerator() netstat.Enumerator {
	return netstat.NewDefault(a.cfg.Scan.ProcRoot, a.cfg.Scan.MaxConnections)
}

func (a *app) investigator(enum netstat.Enumerator) (*engine.Investigator, error) {
	scan := a.cfg.Scan
	classifier := rules.Default(models.NewPortSet(scan.SuspiciousPorts...))
	if scan.BlocklistPath != "" {
		blocklist, err := rules.LoadBlocklistRule(scan.BlocklistPath)
		if err != nil {
			return nil, fmt.Errorf("loading blocklist: %w", err)
		}
		classifier.AddRule(blocklist)
		a.logger.Info("blocklist loaded", map[string]string{
			"path":    scan.BlocklistPath,
			"entries": fmt.Sprint(blocklist.Count()),
		})
	}
	aggregator := scoring.NewAggregator(
		models.NewPortSet(scan.SuspiciousPorts...),
		models.NewPortSet(scan.SecurePorts...),
	)

	maxLookups := scan.MaxLookups
	if maxLookups == 0 {
		// Zero in the config means no lookups; zero in engine.Options means
		// the engine default.
		maxLookups = engine.NoLookups
	}
	return engine.New(enum, a.cache, engine.Options{
		MaxLookups:     maxLookups,
		LookupTimeout:  a.cfg.Geo.LookupTimeout,
		ResolvePrivate: a.cfg.Geo.ResolvePrivate,
		Classifier:     classifier,
		Aggregator:     &aggregator,
		Logger:         a.logger,
		Recorder:       a.metrics,
	}), nil
}

func (a *app) Close() {
	for _, c := range a.closers {
		c()
	}
}
