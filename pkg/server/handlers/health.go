// Package handlers implements the HTTP endpoint handlers.
package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/blackvectorops/pano"
)

// Build information - can be set at build time using ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// HealthHandler handles health check requests
type HealthHandler struct {
	client *pano.Client
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(client *pano.Client) *HealthHandler {
	return &HealthHandler{client: client}
}

// HealthCheck handles GET /health - basic liveness check
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "pano",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   Version,
	})
}

// LivenessCheck handles GET /live
func (h *HealthHandler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "alive",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// ReadinessCheck handles GET /ready
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	response := gin.H{
		"status":    "ready",
		"service":   "pano",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    gin.H{},
	}

	allHealthy := true
	checks := response["checks"].(gin.H)

	if h.client != nil {
		// Listing snapshots exercises the store without side effects.
		start := time.Now()
		_, err := h.client.ListInvestigations(c.Request.Context())
		duration := time.Since(start)

		if err != nil {
			checks["snapshot_store"] = gin.H{
				"status":   "unhealthy",
				"error":    err.Error(),
				"duration": duration.String(),
			}
			allHealthy = false
		} else {
			checks["snapshot_store"] = gin.H{
				"status":   "healthy",
				"duration": duration.String(),
			}
		}

		checks["graph"] = gin.H{
			"status": "healthy",
			"nodes":  h.client.Graph().NodeCount(),
			"edges":  h.client.Graph().EdgeCount(),
		}
	} else {
		checks["client"] = gin.H{
			"status": "unhealthy",
			"error":  "client not initialized",
		}
		allHealthy = false
	}

	if !allHealthy {
		response["status"] = "not ready"
		c.JSON(http.StatusServiceUnavailable, response)
		return
	}
	c.JSON(http.StatusOK, response)
}

// DetailedHealthCheck handles GET /health/detailed
func (h *HealthHandler) DetailedHealthCheck(c *gin.Context) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "pano",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"build": gin.H{
			"version":    Version,
			"git_commit": GitCommit,
			"build_time": BuildTime,
			"go_version": GoVersion,
		},
		"runtime": gin.H{
			"goroutines": runtime.NumGoroutine(),
			"heap_alloc": mem.HeapAlloc,
			"heap_sys":   mem.HeapSys,
			"num_gc":     mem.NumGC,
			"gomaxprocs": runtime.GOMAXPROCS(0),
			"num_cpu":    runtime.NumCPU(),
		},
	})
}
