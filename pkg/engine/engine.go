// Package engine drives investigation passes: it takes a connection snapshot,
// resolves geolocation within a per-pass quota, classifies every connection
// and rolls the results up into an InvestigationReport.
package engine

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/gokaycavdar/go-netguard/pkg/geoip"
	"github.com/gokaycavdar/go-netguard/pkg/logging"
	"github.com/gokaycavdar/go-netguard/pkg/models"
	"github.com/gokaycavdar/go-netguard/pkg/netstat"
	"github.com/gokaycavdar/go-netguard/pkg/rules"
	"github.com/gokaycavdar/go-netguard/pkg/scoring"
)

// Defaults applied when Options leaves a field zero.
const (
	DefaultMaxLookups    = 15
	DefaultLookupTimeout = 3 * time.Second
	TopCountryCount      = 5
)

// NoLookups disables geolocation when used as a lookup quota.
const NoLookups = -1

// Recorder receives every finished report.
type Recorder interface {
	ObserveReport(report *models.InvestigationReport)
}

// Options tunes an Investigator.
type Options struct {
	// MaxLookups bounds how many distinct addresses Run resolves per pass.
	// Zero means DefaultMaxLookups; NoLookups (any negative value) disables
	// resolution.
	MaxLookups int

	// LookupTimeout bounds each individual resolver call.
	// Zero means DefaultLookupTimeout.
	LookupTimeout time.Duration

	// ResolvePrivate sends private and loopback addresses to the resolver.
	// They are skipped by default since public geolocation services cannot
	// place them.
	ResolvePrivate bool

	// Classifier defaults to rules.Default with the default suspicious ports.
	Classifier *rules.Classifier

	// Aggregator defaults to scoring.Default.
	Aggregator *scoring.Aggregator

	Logger   logging.Logger
	Recorder Recorder
}

// Investigator is the orchestrator of one or many investigation passes.
//
// Architecture Principles:
//   - The investigator owns all geolocation calls; rules only see the record
//   - Classification and aggregation are pure and hold no state between passes
//   - Per-connection failures become data on the report, never aborted passes
//
// An Investigator is safe for concurrent use as long as its resolver is; the
// storage.GeoCache it is normally given serializes per-address misses.
//
// Usage:
//
//	cache := storage.NewGeoCache(resolver, storage.NewMemoryStore(time.Hour))
//	inv := engine.New(netstat.NewDefault(netstat.DefaultProcRoot, 200), cache, engine.Options{})
//	report := inv.Run(ctx)
type Investigator struct {
	enumerator netstat.Enumerator
	geo        geoip.Resolver
	classifier *rules.Classifier
	aggregator scoring.Aggregator
	opts       Options
	logger     logging.Logger
	hostname   string

	now   func() time.Time
	newID func() string
}

// New creates an Investigator reading connections from enumerator and
// geolocation from geo.
func New(enumerator netstat.Enumerator, geo geoip.Resolver, opts Options) *Investigator {
	if opts.MaxLookups == 0 {
		opts.MaxLookups = DefaultMaxLookups
	}
	if opts.LookupTimeout <= 0 {
		opts.LookupTimeout = DefaultLookupTimeout
	}

	inv := &Investigator{
		enumerator: enumerator,
		geo:        geo,
		classifier: opts.Classifier,
		aggregator: scoring.Default(),
		opts:       opts,
		logger:     opts.Logger,
		now:        time.Now,
		newID:      func() string { return uuid.NewString() },
	}
	if inv.classifier == nil {
		inv.classifier = rules.Default(models.NewPortSet(models.DefaultSuspiciousPorts...))
	}
	if opts.Aggregator != nil {
		inv.aggregator = *opts.Aggregator
	}
	if inv.logger == nil {
		inv.logger = logging.Nop()
	}
	if h, err := os.Hostname(); err == nil {
		inv.hostname = h
	}
	return inv
}

// MaxLookups returns the per-pass lookup quota used by Run.
func (inv *Investigator) MaxLookups() int {
	return inv.opts.MaxLookups
}

// Run takes a fresh snapshot from the enumerator and investigates it.
//
// Enumeration failures do not fail the pass: the report is built over an empty
// connection list and carries the failure in its Error field.
func (inv *Investigator) Run(ctx context.Context) *models.InvestigationReport {
	start := inv.now()
	conns, err := inv.enumerator.Connections(ctx)
	if err != nil {
		kind := netstat.KindOf(err)
		inv.logger.Warn("connection enumeration failed", map[string]string{
			"kind":  string(kind),
			"error": err.Error(),
		})
		report := inv.investigate(ctx, start, nil, inv.opts.MaxLookups)
		report.Error = &models.PassError{Kind: string(kind), Message: err.Error()}
		return inv.finish(report, start)
	}
	return inv.finish(inv.investigate(ctx, start, conns, inv.opts.MaxLookups), start)
}

// Investigate classifies an already captured snapshot, resolving at most
// maxLookups distinct addresses. Unlike Options.MaxLookups, zero is taken
// literally here; both zero and NoLookups resolve nothing.
func (inv *Investigator) Investigate(ctx context.Context, conns []models.Connection, maxLookups int) *models.InvestigationReport {
	start := inv.now()
	return inv.finish(inv.investigate(ctx, start, conns, maxLookups), start)
}

func (inv *Investigator) investigate(ctx context.Context, start time.Time, conns []models.Connection, maxLookups int) *models.InvestigationReport {
	report := &models.InvestigationReport{
		ID:          inv.newID(),
		Hostname:    inv.hostname,
		StartedAt:   start,
		Connections: []models.ClassifiedConnection{},
	}
	report.Metadata.ConnectionsScanned = len(conns)

	pass := lookupPass{
		inv:      inv,
		ctx:      ctx,
		quota:    maxLookups,
		resolved: make(map[string]*models.GeoRecord),
	}

	for _, c := range conns {
		if !c.HasRemote() {
			report.Metadata.ListeningSkipped++
			continue
		}
		if c.Process == "" {
			c.Process = models.UnknownProcess
		}

		geo := pass.resolve(c.Remote.Address)
		if geo.Status == models.GeoSkipped {
			report.Metadata.GeoSkipped++
		}

		verdict := inv.classifier.Evaluate(rules.NewInput(c.Remote.Port, c.State, geo, c.Remote.Address))
		report.Connections = append(report.Connections, models.ClassifiedConnection{
			Connection: c,
			Geo:        geo,
			RiskLevel:  verdict.Level,
			Risks:      verdict.Reasons,
			IsPrivate:  verdict.Private,
		})
	}
	report.Metadata.GeoLookups = pass.lookups

	report.Security = inv.aggregator.Aggregate(report.Connections)
	report.Summary = summarize(report.Connections)
	return report
}

func (inv *Investigator) finish(report *models.InvestigationReport, start time.Time) *models.InvestigationReport {
	report.Duration = inv.now().Sub(start)

	inv.logger.Info("investigation complete", map[string]string{
		"id":          report.ID,
		"connections": strconv.Itoa(report.Summary.TotalConnections),
		"lookups":     strconv.Itoa(report.Metadata.GeoLookups),
		"score":       strconv.Itoa(report.Security.Score),
		"grade":       string(report.Security.Grade),
		"duration":    report.Duration.String(),
	})
	if inv.opts.Recorder != nil {
		inv.opts.Recorder.ObserveReport(report)
	}
	return report
}

func summarize(conns []models.ClassifiedConnection) models.ReportSummary {
	s := models.ReportSummary{
		TotalConnections: len(conns),
		TopCountries:     scoring.TopCountries(conns, TopCountryCount),
	}
	for _, c := range conns {
		if c.IsPrivate {
			s.PrivateConnections++
		} else {
			s.ExternalConnections++
		}
	}
	return s
}

// lookupPass tracks quota and per-pass memoization for one investigation.
type lookupPass struct {
	inv      *Investigator
	ctx      context.Context
	quota    int
	lookups  int
	resolved map[string]*models.GeoRecord
}

// resolve returns the record for ip. An address seen earlier in the pass
// reuses its record without consuming quota.
func (p *lookupPass) resolve(ip string) *models.GeoRecord {
	if rec, ok := p.resolved[ip]; ok {
		return rec
	}
	rec := p.lookup(ip)
	p.resolved[ip] = rec
	return rec
}

func (p *lookupPass) lookup(ip string) *models.GeoRecord {
	addr, invalid := geoip.ValidateIP(ip)
	if invalid != nil {
		return invalid
	}
	if rules.IsLocal(addr) && !p.inv.opts.ResolvePrivate {
		return models.NewGeoSkipped(ip, models.FailurePrivate, "Private address not resolved")
	}
	if p.lookups >= p.quota {
		return models.NewGeoSkipped(ip, models.FailureQuota, "Lookup limit reached")
	}
	p.lookups++

	ctx, cancel := context.WithTimeout(p.ctx, p.inv.opts.LookupTimeout)
	defer cancel()
	rec := p.inv.geo.Resolve(ctx, ip)
	if rec == nil {
		rec = models.NewGeoFailure(ip, models.GeoError, models.FailureMalformed, "resolver returned no record")
	}
	if rec.Failed() {
		p.inv.logger.Debug("geolocation lookup failed", map[string]string{
			"ip":      ip,
			"kind":    string(rec.FailureKind),
			"message": rec.Message,
		})
	}
	return rec
}
