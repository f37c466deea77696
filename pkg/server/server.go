// Package server exposes investigations and geolocation lookups over HTTP.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/gokaycavdar/go-netguard/pkg/geoip"
	"github.com/gokaycavdar/go-netguard/pkg/logging"
	"github.com/gokaycavdar/go-netguard/pkg/models"
)

// MaxBulkAddresses bounds a single bulk geolocation request.
const MaxBulkAddresses = 100

// DefaultBulkTimeout bounds a whole bulk geolocation request.
const DefaultBulkTimeout = 10 * time.Second

// bulkWorkers is how many addresses of one bulk request resolve at once.
const bulkWorkers = 8

// Investigator runs one investigation pass.
type Investigator interface {
	Run(ctx context.Context) *models.InvestigationReport
}

// ReverseLookup returns the host names registered for ip.
type ReverseLookup func(ctx context.Context, ip string) ([]string, error)

// Options configures a Server. Zero values disable the optional parts.
type Options struct {
	Logger logging.Logger

	// Metrics is mounted on /metrics when set.
	Metrics http.Handler

	// RateLimit is the sustained request rate allowed on the geolocation
	// endpoints, in requests per second. Zero disables limiting.
	RateLimit float64
	RateBurst int

	// LookupTimeout bounds each geolocation and reverse DNS call.
	LookupTimeout time.Duration

	// BulkTimeout bounds a whole bulk request. Addresses not resolved in time
	// are returned as skipped. Defaults to DefaultBulkTimeout.
	BulkTimeout time.Duration

	// Reverse defaults to the system resolver.
	Reverse ReverseLookup
}

// Server is the HTTP API.
type Server struct {
	investigator Investigator
	geo          geoip.Resolver
	reverse      ReverseLookup
	logger       logging.Logger
	timeout      time.Duration
	bulkTimeout  time.Duration
	router       *gin.Engine
}

// New builds the router. geo is normally the shared storage.GeoCache.
func New(investigator Investigator, geo geoip.Resolver, opts Options) *Server {
	s := &Server{
		investigator: investigator,
		geo:          geo,
		reverse:      opts.Reverse,
		logger:       opts.Logger,
		timeout:      opts.LookupTimeout,
		bulkTimeout:  opts.BulkTimeout,
	}
	if s.logger == nil {
		s.logger = logging.Nop()
	}
	if s.reverse == nil {
		s.reverse = net.DefaultResolver.LookupAddr
	}
	if s.timeout <= 0 {
		s.timeout = 3 * time.Second
	}
	if s.bulkTimeout <= 0 {
		s.bulkTimeout = DefaultBulkTimeout
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.logger))

	r.GET("/healthz", s.handleHealth)

	api := r.Group("/api/v1")
	api.GET("/network", s.handleNetwork)
	api.GET("/security", s.handleSecurity)

	geoGroup := api.Group("/geolocation")
	if opts.RateLimit > 0 {
		geoGroup.Use(rateLimit(rate.NewLimiter(rate.Limit(opts.RateLimit), max(opts.RateBurst, 1))))
	}
	geoGroup.GET("/:ip", s.handleGeolocation)
	geoGroup.POST("/bulk", s.handleBulkGeolocation)

	if opts.Metrics != nil {
		r.GET("/metrics", gin.WrapH(opts.Metrics))
	}

	s.router = r
	return s
}

// Handler returns the router as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", map[string]string{"addr": addr})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		s.logger.Info("http server stopped", nil)
		return nil
	}
}

func requestLogger(logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request", map[string]string{
			"method":  c.Request.Method,
			"path":    c.FullPath(),
			"status":  strconv.Itoa(c.Writer.Status()),
			"latency": time.Since(start).String(),
			"client":  c.ClientIP(),
		})
	}
}

func rateLimit(limiter *rate.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
