package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/gokaycavdar/go-netguard/pkg/geoip"
	"github.com/gokaycavdar/go-netguard/pkg/models"
)

type bulkRequest struct {
	IPs []string `json:"ips" binding:"required"`
}

type geolocationResponse struct {
	Geolocation *models.GeoRecord `json:"geolocation"`
	Hostnames   []string          `json:"hostnames"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleNetwork(c *gin.Context) {
	c.JSON(http.StatusOK, s.investigator.Run(c.Request.Context()))
}

func (s *Server) handleSecurity(c *gin.Context) {
	report := s.investigator.Run(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"id":       report.ID,
		"security": report.Security,
		"summary":  report.Summary,
		"error":    report.Error,
	})
}

func (s *Server) handleGeolocation(c *gin.Context) {
	ip := c.Param("ip")
	if _, invalid := geoip.ValidateIP(ip); invalid != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": invalid.Message})
		return
	}

	c.JSON(http.StatusOK, geolocationResponse{
		Geolocation: s.resolve(c.Request.Context(), ip),
		Hostnames:   s.hostnames(c.Request.Context(), ip),
	})
}

func (s *Server) handleBulkGeolocation(c *gin.Context) {
	var req bulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "request body must be {\"ips\": [...]}"})
		return
	}
	if len(req.IPs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no addresses given"})
		return
	}
	if len(req.IPs) > MaxBulkAddresses {
		c.JSON(http.StatusBadRequest, gin.H{"error": "at most 100 addresses per request"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.bulkTimeout)
	defer cancel()

	results := make([]*models.GeoRecord, len(req.IPs))
	var g errgroup.Group
	g.SetLimit(bulkWorkers)
	for i, ip := range req.IPs {
		if _, invalid := geoip.ValidateIP(ip); invalid != nil {
			results[i] = invalid
			continue
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				results[i] = models.NewGeoSkipped(ip, models.FailureTimeout, "Bulk request deadline exceeded")
				return nil
			}
			results[i] = s.resolve(ctx, ip)
			return nil
		})
	}
	_ = g.Wait()

	c.JSON(http.StatusOK, gin.H{"results": results, "count": len(results)})
}

func (s *Server) resolve(ctx context.Context, ip string) *models.GeoRecord {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.geo.Resolve(ctx, ip)
}

// hostnames is informational only; failures yield an empty list.
func (s *Server) hostnames(ctx context.Context, ip string) []string {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	names, err := s.reverse(ctx, ip)
	if err != nil {
		s.logger.Debug("reverse lookup failed", map[string]string{"ip": ip, "error": err.Error()})
		return []string{}
	}
	if names == nil {
		return []string{}
	}
	return names
}
