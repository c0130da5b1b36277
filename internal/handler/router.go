// Package handler wires the HTTP surface: the Azure DevOps pass-through
// routes, the recommendation endpoint and the per-resourceId registries.
package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/khushigoel4699/Testplansserver/internal/ado"
	"github.com/khushigoel4699/Testplansserver/internal/metrics"
	"github.com/khushigoel4699/Testplansserver/internal/recommend"
	"github.com/khushigoel4699/Testplansserver/internal/service"
	"github.com/khushigoel4699/Testplansserver/internal/websocket"
)

// Dependencies are the collaborators the router hands to its handlers.
// Metrics and Hub are optional.
type Dependencies struct {
	Lifecycle         *ado.Lifecycle
	Recommender       recommend.Recommender
	Integrations      service.IntegrationService
	DefaultTestPlanID int
	Metrics           *metrics.Metrics
	Hub               *websocket.Hub
	Logger            *slog.Logger
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(deps Dependencies) *gin.Engine {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	service.RegisterValidators()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(logger))
	r.Use(corsMiddleware())
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware())
	}
	r.Use(ErrorFormatter())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":            "healthy",
			"timestamp":         time.Now().UTC().Format(time.RFC3339),
			"clientInitialized": deps.Lifecycle.Ready(),
		})
	})
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, endpointDirectory())
	})
	if deps.Metrics != nil {
		r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	gate := ReadinessGate(deps.Lifecycle)

	api := r.Group("/api", gate)
	{
		NewTestPlanHandler(deps.Lifecycle).RegisterRoutes(api)
		NewTestCaseHandler(deps.Lifecycle).RegisterRoutes(api)
		NewRecommendationHandler(deps.Lifecycle, deps.Recommender, deps.DefaultTestPlanID, deps.Metrics).RegisterRoutes(api)
	}

	NewIntegrationHandler(deps.Integrations).RegisterRoutes(r, gate)
	if deps.Hub != nil {
		NewEventsHandler(deps.Hub, logger).RegisterRoutes(r)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":              "Not Found",
			"message":            "Route " + c.Request.Method + " " + c.Request.URL.Path + " not found",
			"availableEndpoints": "/",
		})
	})

	return r
}

func endpointDirectory() gin.H {
	return gin.H{
		"message": "Azure DevOps Test Plans API server",
		"endpoints": gin.H{
			"health": "GET /health",
			"testPlans": gin.H{
				"list":            "GET /api/testplans",
				"get":             "GET /api/testplans/:id",
				"create":          "POST /api/testplans",
				"update":          "PUT /api/testplans/:id",
				"delete":          "DELETE /api/testplans/:id",
				"recommendations": "POST /api/testplans/recommendations",
			},
			"testCases": gin.H{
				"create":         "POST /api/testcases",
				"get":            "GET /api/testcases/:id",
				"batch":          "POST /api/testcases/batch",
				"addToSuite":     "POST /api/testplans/:planId/suites/:suiteId/testcases",
				"listSuiteCases": "GET /api/testplans/:planId/suites/:suiteId/testcases",
			},
			"builds": gin.H{
				"testResults": "GET /api/builds/:buildId/testresults",
			},
			"integrations": gin.H{
				"saveConnection": "POST /:resourceId/saveConnection",
				"getConnection":  "GET /:resourceId",
				"adoPlans":       "GET /:resourceId/ado_plans",
				"createIssue":    "POST /:resourceId/createIssue/:testCaseId",
				"events":         "GET /:resourceId/events",
			},
			"metrics": "GET /metrics",
		},
	}
}
