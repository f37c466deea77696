package geoip

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gokaycavdar/go-netguard/pkg/models"
)

// DefaultIPAPIURL is the free ip-api.com endpoint.
const DefaultIPAPIURL = "http://ip-api.com"

const ipAPIFields = "status,message,country,countryCode,regionName,city,lat,lon,timezone,isp,org,as,query"

// IPAPIResolver queries the ip-api.com JSON API.
type IPAPIResolver struct {
	BaseURL   string
	Client    *http.Client
	UserAgent string
}

// NewIPAPIResolver returns a resolver for baseURL whose HTTP client gives up
// after timeout. Callers may still bound individual calls with a context.
func NewIPAPIResolver(baseURL string, timeout time.Duration) *IPAPIResolver {
	if baseURL == "" {
		baseURL = DefaultIPAPIURL
	}
	return &IPAPIResolver{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		Client:    &http.Client{Timeout: timeout},
		UserAgent: "go-netguard/1.0",
	}
}

type ipAPIResponse struct {
	Status      string  `json:"status"`
	Message     string  `json:"message"`
	Country     string  `json:"country"`
	CountryCode string  `json:"countryCode"`
	RegionName  string  `json:"regionName"`
	City        string  `json:"city"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	Timezone    string  `json:"timezone"`
	ISP         string  `json:"isp"`
	Org         string  `json:"org"`
	AS          string  `json:"as"`
}

// Resolve implements Resolver.
func (r *IPAPIResolver) Resolve(ctx context.Context, ip string) *models.GeoRecord {
	if _, failure := ValidateIP(ip); failure != nil {
		failure.Source = "ip-api"
		return failure
	}

	fail := func(status models.GeoStatus, kind models.FailureKind, msg string) *models.GeoRecord {
		rec := models.NewGeoFailure(ip, status, kind, msg)
		rec.Source = "ip-api"
		return rec
	}

	url := fmt.Sprintf("%s/json/%s?fields=%s", r.BaseURL, ip, ipAPIFields)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fail(models.GeoError, models.FailureNetwork, fmt.Sprintf("building request: %v", err))
	}
	req.Header.Set("Accept", "application/json")
	if r.UserAgent != "" {
		req.Header.Set("User-Agent", r.UserAgent)
	}

	client := r.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		if isTimeout(ctx, err) {
			return fail(models.GeoError, models.FailureTimeout, "Request timeout")
		}
		return fail(models.GeoError, models.FailureNetwork, fmt.Sprintf("Request failed: %v", err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return fail(models.GeoError, models.FailureQuota, "rate limited by provider")
	case resp.StatusCode != http.StatusOK:
		return fail(models.GeoError, models.FailureNetwork, fmt.Sprintf("provider returned status %d", resp.StatusCode))
	}

	var body ipAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		if isTimeout(ctx, err) {
			return fail(models.GeoError, models.FailureTimeout, "Request timeout")
		}
		return fail(models.GeoError, models.FailureMalformed, fmt.Sprintf("decoding response: %v", err))
	}

	if body.Status != string(models.GeoSuccess) {
		msg := body.Message
		if msg == "" {
			msg = "Unknown error"
		}
		return fail(models.GeoFail, models.FailureRejected, msg)
	}

	return &models.GeoRecord{
		IP:          ip,
		Status:      models.GeoSuccess,
		Source:      "ip-api",
		City:        body.City,
		Region:      body.RegionName,
		Country:     body.Country,
		CountryCode: body.CountryCode,
		Latitude:    body.Lat,
		Longitude:   body.Lon,
		Timezone:    body.Timezone,
		ISP:         body.ISP,
		ASN:         body.AS,
		Org:         body.Org,
	}
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}
