package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/khushigoel4699/Testplansserver/internal/ado"
	"github.com/khushigoel4699/Testplansserver/internal/metrics"
	"github.com/khushigoel4699/Testplansserver/internal/recommend"
)

// RecommendationHandler serves AI test plan recommendations.
type RecommendationHandler struct {
	vendor            ado.Source
	recommender       recommend.Recommender
	defaultTestPlanID int
	metrics           *metrics.Metrics
}

// NewRecommendationHandler 创建处理器. m may be nil.
func NewRecommendationHandler(vendor ado.Source, recommender recommend.Recommender, defaultTestPlanID int, m *metrics.Metrics) *RecommendationHandler {
	return &RecommendationHandler{
		vendor:            vendor,
		recommender:       recommender,
		defaultTestPlanID: defaultTestPlanID,
		metrics:           m,
	}
}

// RegisterRoutes 注册路由
func (h *RecommendationHandler) RegisterRoutes(api *gin.RouterGroup) {
	api.POST("/testplans/recommendations", h.GenerateRecommendations)
}

// RecommendationRequest carries the PRD. testPlanId may be a number or a
// numeric string.
type RecommendationRequest struct {
	PRD        string      `json:"prd"`
	TestPlanID interface{} `json:"testPlanId"`
}

func (h *RecommendationHandler) GenerateRecommendations(c *gin.Context) {
	var req RecommendationRequest
	_ = c.ShouldBindJSON(&req)

	if strings.TrimSpace(req.PRD) == "" {
		badRequest(c, "PRD (Product Requirements Document) is required")
		return
	}

	planID, ok := h.resolveTestPlanID(c, req.TestPlanID)
	if !ok {
		return
	}

	client, err := h.vendor.Client()
	if err != nil {
		fail(c, err)
		return
	}

	result, err := h.recommender.Generate(c.Request.Context(), client, recommend.Request{
		PRD:        req.PRD,
		TestPlanID: planID,
	})
	h.observe(err)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": result})
}

// resolveTestPlanID reads testPlanId from the body. A missing, empty or zero
// value falls back to the configured default.
func (h *RecommendationHandler) resolveTestPlanID(c *gin.Context, raw interface{}) (int, bool) {
	switch v := raw.(type) {
	case nil:
	case float64:
		if v == 0 {
			break
		}
		if id, ok := positiveInt(v); ok {
			return id, true
		}
		badRequest(c, "testPlanId must be a positive integer")
		return 0, false
	case string:
		v = strings.TrimSpace(v)
		if v == "" || v == "0" {
			break
		}
		if id, ok := positiveInt(v); ok {
			return id, true
		}
		badRequest(c, "testPlanId must be a positive integer")
		return 0, false
	default:
		badRequest(c, "testPlanId must be a positive integer")
		return 0, false
	}

	if h.defaultTestPlanID > 0 {
		return h.defaultTestPlanID, true
	}
	badRequest(c, "testPlanId is required (provide it in the request body or set TEST_PLAN_ID)")
	return 0, false
}

func (h *RecommendationHandler) observe(err error) {
	if h.metrics == nil {
		return
	}
	switch {
	case err == nil:
		h.metrics.ObserveRecommendation(metrics.OutcomeSuccess)
	case recommend.IsConfigError(err):
		h.metrics.ObserveRecommendation(metrics.OutcomeConfigError)
	case recommend.IsParseError(err):
		h.metrics.ObserveRecommendation(metrics.OutcomeParseError)
	default:
		h.metrics.ObserveRecommendation(metrics.OutcomeUpstream)
	}
}
