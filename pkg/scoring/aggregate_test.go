package scoring

import (
	"reflect"
	"strings"
	"testing"

	"github.com/gokaycavdar/go-netguard/pkg/models"
)

func conn(ip string, port int, level models.RiskLevel) models.ClassifiedConnection {
	return models.ClassifiedConnection{
		Connection: models.Connection{
			Protocol: models.ProtocolTCP,
			Remote:   &models.Endpoint{Address: ip, Port: port},
			State:    "ESTABLISHED",
			Process:  models.UnknownProcess,
		},
		RiskLevel: level,
		Risks:     []string{},
	}
}

func repeat(n int, c models.ClassifiedConnection) []models.ClassifiedConnection {
	out := make([]models.ClassifiedConnection, n)
	for i := range out {
		out[i] = c
	}
	return out
}

func TestAggregateEmpty(t *testing.T) {
	for _, in := range [][]models.ClassifiedConnection{nil, {}} {
		s := Default().Aggregate(in)
		if s.Score != 100 || s.Grade != models.GradeExcellent {
			t.Errorf("got score %d grade %s, want 100 Excellent", s.Score, s.Grade)
		}
		if s.Warnings+s.Threats+s.Secure+s.SuspiciousPorts+s.GeoFailures+s.Total != 0 {
			t.Errorf("expected all counts zero, got %+v", s)
		}
	}
}

func TestAggregateWarningsAndDanger(t *testing.T) {
	var conns []models.ClassifiedConnection
	conns = append(conns, repeat(2, conn("203.0.113.1", 80, models.RiskWarning))...)
	conns = append(conns, conn("203.0.113.2", 80, models.RiskDanger))
	conns = append(conns, repeat(7, conn("203.0.113.3", 80, models.RiskInfo))...)

	s := Default().Aggregate(conns)

	if s.Total != 10 || s.Warnings != 2 || s.Threats != 1 {
		t.Fatalf("unexpected counts %+v", s)
	}
	if s.Secure != 0 || s.SuspiciousPorts != 0 || s.GeoFailures != 0 {
		t.Fatalf("unexpected port/geo counts %+v", s)
	}
	// 100 - 2*4 - 1*10 = 82, minus 5 because no connection uses a secure port.
	if s.Score != 77 {
		t.Errorf("score = %d, want 77", s.Score)
	}
	if s.Grade != models.GradeGood {
		t.Errorf("grade = %s, want Good", s.Grade)
	}
}

func TestAggregateClampsAtZero(t *testing.T) {
	s := Default().Aggregate(repeat(50, conn("198.51.100.1", 4444, models.RiskDanger)))
	if s.Score != 0 {
		t.Errorf("score = %d, want 0", s.Score)
	}
	if s.Grade != models.GradePoor {
		t.Errorf("grade = %s, want Poor", s.Grade)
	}
	if s.Threats != 50 || s.SuspiciousPorts != 50 {
		t.Errorf("unexpected counts %+v", s)
	}
}

func TestAggregateSuspiciousPortCap(t *testing.T) {
	// Info-level connections on suspicious ports isolate the capped penalty.
	conns := repeat(10, conn("198.51.100.1", 3389, models.RiskInfo))
	conns = append(conns, repeat(40, conn("198.51.100.2", 443, models.RiskInfo))...)

	s := Default().Aggregate(conns)
	if s.Score != 80 {
		t.Errorf("score = %d, want 100 - min(30, 20) = 80", s.Score)
	}
}

func TestAggregateGeoFailureCap(t *testing.T) {
	failed := conn("198.51.100.1", 443, models.RiskInfo)
	failed.Geo = &models.GeoRecord{Status: models.GeoError, FailureKind: models.FailureTimeout}
	skipped := conn("198.51.100.2", 443, models.RiskInfo)
	skipped.Geo = models.NewGeoSkipped("198.51.100.2", models.FailureQuota, "lookup limit reached")

	tests := []struct {
		name      string
		conns     []models.ClassifiedConnection
		wantFails int
		wantScore int
	}{
		{"three failures", repeat(3, failed), 3, 97},
		{"capped at ten", repeat(25, failed), 25, 90},
		{"skipped is not a failure", repeat(5, skipped), 0, 100},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := Default().Aggregate(tc.conns)
			if s.GeoFailures != tc.wantFails || s.Score != tc.wantScore {
				t.Errorf("got failures=%d score=%d, want %d %d", s.GeoFailures, s.Score, tc.wantFails, tc.wantScore)
			}
		})
	}
}

func TestAggregateSecureRatioPenalty(t *testing.T) {
	tests := []struct {
		name      string
		secure    int
		other     int
		wantScore int
	}{
		{"below twenty percent", 1, 9, 95},
		{"exactly twenty percent", 2, 8, 100},
		{"all secure", 5, 0, 100},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			conns := repeat(tc.secure, conn("198.51.100.1", 443, models.RiskInfo))
			conns = append(conns, repeat(tc.other, conn("198.51.100.2", 8080, models.RiskInfo))...)
			if s := Default().Aggregate(conns); s.Score != tc.wantScore {
				t.Errorf("score = %d, want %d", s.Score, tc.wantScore)
			}
		})
	}
}

func TestGradeThresholds(t *testing.T) {
	tests := map[int]models.Grade{
		100: models.GradeExcellent,
		85:  models.GradeExcellent,
		84:  models.GradeGood,
		70:  models.GradeGood,
		69:  models.GradeFair,
		55:  models.GradeFair,
		54:  models.GradePoor,
		0:   models.GradePoor,
	}
	for score, want := range tests {
		if got := models.GradeFor(score); got != want {
			t.Errorf("GradeFor(%d) = %s, want %s", score, got, want)
		}
	}
}

func TestAggregateIsStateless(t *testing.T) {
	agg := Default()
	bad := agg.Aggregate(repeat(20, conn("198.51.100.1", 4444, models.RiskDanger)))
	good := agg.Aggregate(repeat(5, conn("198.51.100.1", 443, models.RiskInfo)))
	if bad.Score != 0 || good.Score != 100 {
		t.Errorf("scores %d then %d, want 0 then 100", bad.Score, good.Score)
	}
}

func TestRecommendations(t *testing.T) {
	geoUS := &models.GeoRecord{Status: models.GeoSuccess, Country: "United States"}
	var conns []models.ClassifiedConnection
	for i := 0; i < 4; i++ {
		c := conn("198.51.100.1", 8080, models.RiskWarning)
		c.Geo = geoUS
		conns = append(conns, c)
	}
	danger := conn("198.51.100.9", 4444, models.RiskDanger)
	conns = append(conns, danger)

	s := Default().Aggregate(conns)
	joined := strings.Join(s.Recommendations, "\n")
	for _, want := range []string{
		"CRITICAL: 1 threat(s) detected",
		"WARNING: 4 connections flagged",
		"1 connection(s) using suspicious ports",
		"Few secure connections detected",
		"Many connections to United States",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("recommendations missing %q:\n%s", want, joined)
		}
	}

	clean := Default().Aggregate(repeat(3, conn("198.51.100.1", 443, models.RiskInfo)))
	if !reflect.DeepEqual(clean.Recommendations, []string{"Excellent security posture! Keep monitoring regularly."}) {
		t.Errorf("unexpected clean recommendations %q", clean.Recommendations)
	}
}

func TestRiskFactors(t *testing.T) {
	var conns []models.ClassifiedConnection
	for port := 1000; port < 1012; port++ {
		c := conn("203.0.113.50", port, models.RiskInfo)
		c.Process = "nmap"
		conns = append(conns, c)
	}
	browser := conn("140.82.112.3", 443, models.RiskInfo)
	browser.Process = "firefox"
	conns = append(conns, browser)

	s := Default().Aggregate(conns)
	want := []string{
		"12 connections from nmap",
		"1 connections from firefox",
		"203.0.113.50 connected to 12 different ports",
	}
	if !reflect.DeepEqual(s.RiskFactors, want) {
		t.Errorf("RiskFactors = %q, want %q", s.RiskFactors, want)
	}
}

func TestTopCountries(t *testing.T) {
	mk := func(country string, status models.GeoStatus) models.ClassifiedConnection {
		c := conn("198.51.100.1", 443, models.RiskInfo)
		c.Geo = &models.GeoRecord{Status: status, Country: country}
		return c
	}
	conns := []models.ClassifiedConnection{
		mk("Germany", models.GeoSuccess),
		mk("France", models.GeoSuccess),
		mk("Japan", models.GeoSuccess),
		mk("France", models.GeoSuccess),
		mk("Brazil", models.GeoSuccess),
		mk("Canada", models.GeoSuccess),
		mk("Spain", models.GeoSuccess),
		mk("Germany", models.GeoSuccess),
		mk("Narnia", models.GeoFail),
		mk("", models.GeoSuccess),
	}

	got := TopCountries(conns, 5)
	want := []models.CountryCount{
		{Country: "Germany", Count: 2},
		{Country: "France", Count: 2},
		{Country: "Japan", Count: 1},
		{Country: "Brazil", Count: 1},
		{Country: "Canada", Count: 1},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("TopCountries = %+v, want %+v", got, want)
	}

	if got := TopCountries(nil, 5); len(got) != 0 {
		t.Errorf("expected no countries, got %+v", got)
	}
}
