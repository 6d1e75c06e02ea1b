package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ZanzyTHEbar/collab-o-meter/internal/database"
	"github.com/ZanzyTHEbar/collab-o-meter/internal/engine"
	"github.com/ZanzyTHEbar/collab-o-meter/internal/errors"
	"github.com/ZanzyTHEbar/collab-o-meter/internal/middleware"
	"github.com/ZanzyTHEbar/collab-o-meter/internal/monitoring"
	"github.com/ZanzyTHEbar/collab-o-meter/internal/ratelimit"
	"github.com/ZanzyTHEbar/collab-o-meter/internal/resilience"
	"github.com/ZanzyTHEbar/collab-o-meter/internal/security"
	"github.com/ZanzyTHEbar/collab-o-meter/internal/types"
)

const version = "1.0.0"

// HealthCheck probes one backing component
type HealthCheck func(ctx context.Context) error

// server holds everything the HTTP handlers need. Database, limiter,
// breakers and compression are optional.
type server struct {
	engine      *engine.Engine
	database    *database.DB
	security    *security.SecurityMiddleware
	metrics     *monitoring.Metrics
	logger      *monitoring.Logger
	limiter     *ratelimit.RateLimiter
	breakers    *resilience.BreakerRegistry
	compression *middleware.CompressionMiddleware
	checks      map[string]HealthCheck
}

func setupRouter(s *server) *gin.Engine {
	r := gin.New()

	r.Use(monitoring.RequestIDMiddleware())
	r.Use(monitoring.MonitoringMiddleware(s.metrics, s.logger))
	r.Use(errors.ErrorHandler())
	r.Use(errors.RecoveryHandler())
	r.Use(s.security.CORSConfig())
	r.Use(s.security.SecurityHeaders)
	if s.compression != nil {
		r.Use(s.compression.Handler())
	}

	r.GET("/health", s.handleHealth)
	r.GET("/metrics", s.handleMetrics)

	api := r.Group("/")
	if s.limiter != nil {
		api.Use(s.limiter.IPRateLimitMiddleware())
	}
	api.Use(s.security.ValidateContentType, s.security.LimitBody, s.security.RequestTimeout)

	api.POST("/predict", s.handlePredict)
	api.POST("/team", s.handleTeam)
	api.POST("/opportunities", s.handleOpportunities)
	api.POST("/scenario", s.handleScenario)

	return r
}

// bindJSON decodes the body, reporting malformed input as a validation error
func bindJSON(c *gin.Context, v interface{}) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		_ = c.Error(errors.NewValidationError("invalid request body", err.Error()))
		return false
	}
	return true
}

func (s *server) handlePredict(c *gin.Context) {
	var req types.PredictRequest
	if !bindJSON(c, &req) {
		return
	}

	a, b := security.SanitizeID(req.EntityA), security.SanitizeID(req.EntityB)
	if err := s.security.ValidateMembers([]types.EntityID{a, b}); err != nil {
		_ = c.Error(err)
		return
	}

	pred, err := s.engine.Predict(c.Request.Context(), a, b)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, pred)
}

func (s *server) handleTeam(c *gin.Context) {
	var req types.TeamRequest
	if !bindJSON(c, &req) {
		return
	}

	members := sanitizeMembers(req.Members)
	if err := s.security.ValidateMembers(members); err != nil {
		_ = c.Error(err)
		return
	}

	team, err := s.engine.AnalyzeTeam(c.Request.Context(), members)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, team)
}

func (s *server) handleOpportunities(c *gin.Context) {
	var req types.OpportunityRequest
	if !bindJSON(c, &req) {
		return
	}

	id := security.SanitizeID(req.EntityID)
	if err := s.security.ValidateEntityID(id); err != nil {
		_ = c.Error(err)
		return
	}
	kind, err := engine.ParseOpportunityType(req.Type)
	if err != nil {
		_ = c.Error(err)
		return
	}

	search, err := s.engine.FindOpportunities(c.Request.Context(), engine.OpportunityQuery{
		EntityID:       id,
		Type:           kind,
		MinProbability: req.MinProbability,
		Limit:          req.Limit,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, search)
}

func (s *server) handleScenario(c *gin.Context) {
	var req types.ScenarioRequest
	if !bindJSON(c, &req) {
		return
	}

	members := sanitizeMembers(req.Members)
	if err := s.security.ValidateMembers(members); err != nil {
		_ = c.Error(err)
		return
	}

	result, err := s.engine.PredictScenario(c.Request.Context(), members, req.Scenario)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (s *server) handleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := "ok"
	code := http.StatusOK
	components := make(map[string]string, len(s.checks))
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			components[name] = err.Error()
			status = "degraded"
			code = http.StatusServiceUnavailable
			continue
		}
		components[name] = "ok"
	}

	c.JSON(code, gin.H{
		"status":     status,
		"timestamp":  time.Now().Format(time.RFC3339),
		"version":    version,
		"components": components,
	})
}

func (s *server) handleMetrics(c *gin.Context) {
	stats := s.metrics.GetStats()
	if s.breakers != nil {
		stats["circuit_breakers"] = s.breakers.States()
	}
	if s.limiter != nil {
		stats["rate_limiter"] = s.limiter.GetStats()
	}
	if s.compression != nil {
		stats["compression"] = s.compression.GetStats()
	}
	if s.database != nil {
		stats["database_pool"] = s.database.GetPoolStats()
	}

	c.JSON(http.StatusOK, stats)
}

func sanitizeMembers(members []types.EntityID) []types.EntityID {
	out := make([]types.EntityID, len(members))
	for i, m := range members {
		out[i] = security.SanitizeID(m)
	}
	return out
}
