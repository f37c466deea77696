package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/gokaycavdar/go-netguard/pkg/models"
)

func TestCacheObserver(t *testing.T) {
	m := New()
	m.CacheHit()
	m.CacheHit()
	m.CacheMiss(models.GeoSuccess)
	m.CacheMiss(models.GeoError)

	if got := testutil.ToFloat64(m.cacheHits); got != 2 {
		t.Errorf("cache hits = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.cacheMisses); got != 2 {
		t.Errorf("cache misses = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.geoLookups.WithLabelValues("error")); got != 1 {
		t.Errorf("error lookups = %v, want 1", got)
	}
}

func TestObserveReport(t *testing.T) {
	m := New()
	m.ObserveReport(&models.InvestigationReport{
		Duration: 250 * time.Millisecond,
		Connections: []models.ClassifiedConnection{
			{RiskLevel: models.RiskInfo},
			{RiskLevel: models.RiskDanger},
			{RiskLevel: models.RiskDanger},
		},
		Security: models.SecuritySummary{Score: 64},
	})
	m.ObserveReport(&models.InvestigationReport{
		Security: models.SecuritySummary{Score: 100},
		Error:    &models.PassError{Kind: "permission", Message: "denied"},
	})

	if got := testutil.ToFloat64(m.investigations); got != 2 {
		t.Errorf("investigations = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.connections.WithLabelValues("danger")); got != 2 {
		t.Errorf("danger connections = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.enumerationFailures.WithLabelValues("permission")); got != 1 {
		t.Errorf("permission failures = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.lastScore); got != 100 {
		t.Errorf("last score = %v, want 100", got)
	}
	if n := testutil.CollectAndCount(m.passDuration); n != 1 {
		t.Errorf("histogram series = %d, want 1", n)
	}
}

func TestHandler(t *testing.T) {
	m := New()
	m.CacheHit()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "netguard_geo_cache_hits_total 1") {
		t.Errorf("exposition missing cache hits:\n%s", rec.Body.String())
	}
}
