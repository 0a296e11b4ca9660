// Package server exposes the investigation toolkit over HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/blackvectorops/pano"
	"github.com/blackvectorops/pano/pkg/config"
	"github.com/blackvectorops/pano/pkg/server/handlers"
	"github.com/blackvectorops/pano/pkg/telemetry"
)

// Server represents the HTTP server
type Server struct {
	config *config.Config
	router *gin.Engine
	client *pano.Client
	server *http.Server
}

// New creates a new server instance
func New(cfg *config.Config, client *pano.Client) *Server {
	return &Server{
		config: cfg,
		client: client,
	}
}

// Setup sets up the server routes and middleware
func (s *Server) Setup() {
	// Set gin mode
	gin.SetMode(s.config.Server.Mode)

	// Create router
	s.router = gin.New()

	// Add middleware
	s.router.Use(gin.Logger())
	s.router.Use(gin.Recovery())
	s.router.Use(corsMiddleware())
	s.router.Use(contextMiddleware())

	// Setup routes
	s.setupRoutes()

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.router,
	}
}

// Router returns the configured gin engine. Setup must be called first.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// setupRoutes sets up all the routes
func (s *Server) setupRoutes() {
	// Create handlers
	healthHandler := handlers.NewHealthHandler(s.client)
	graphHandler := handlers.NewGraphHandler(s.client)
	transformHandler := handlers.NewTransformHandler(s.client)
	investigationHandler := handlers.NewInvestigationHandler(s.client)

	// Health endpoints
	s.router.GET("/health", healthHandler.HealthCheck)
	s.router.GET("/ready", healthHandler.ReadinessCheck)
	s.router.GET("/live", healthHandler.LivenessCheck)
	s.router.GET("/health/detailed", healthHandler.DetailedHealthCheck)

	// API v1 routes
	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/entity-types", graphHandler.ListEntityTypes)

		v1.GET("/graph", graphHandler.GetGraph)
		v1.DELETE("/graph", graphHandler.ClearGraph)

		v1.POST("/nodes", graphHandler.CreateNode)
		v1.GET("/nodes/:id", graphHandler.GetNode)
		v1.PATCH("/nodes/:id", graphHandler.UpdateNode)
		v1.DELETE("/nodes/:id", graphHandler.RemoveNode)

		v1.POST("/edges", graphHandler.CreateEdge)

		v1.GET("/transforms", transformHandler.ListTransforms)
		v1.POST("/transforms/run", transformHandler.RunTransform)

		v1.POST("/enrich", investigationHandler.Enrich)

		v1.POST("/investigations", investigationHandler.SaveInvestigation)
		v1.GET("/investigations", investigationHandler.ListInvestigations)
		v1.POST("/investigations/:name/load", investigationHandler.LoadInvestigation)
		v1.DELETE("/investigations/:name", investigationHandler.DeleteInvestigation)

		v1.GET("/timeline", investigationHandler.GetTimeline)
		v1.POST("/timeline", investigationHandler.AddTimelineEvent)
		v1.DELETE("/timeline/:id", investigationHandler.RemoveTimelineEvent)
	}
}

// Start starts the server
func (s *Server) Start() error {
	fmt.Printf("Starting server on %s\n", s.server.Addr)
	return s.server.ListenAndServe()
}

// Stop stops the server gracefully
func (s *Server) Stop(ctx context.Context) error {
	fmt.Println("Stopping server...")
	return s.server.Shutdown(ctx)
}

// corsMiddleware adds CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Header("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, PATCH, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// contextMiddleware tags request contexts for telemetry
func contextMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := telemetry.WithRequestSource(c.Request.Context(), "server")
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
