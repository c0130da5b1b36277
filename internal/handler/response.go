package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/khushigoel4699/Testplansserver/internal/ado"
	"github.com/khushigoel4699/Testplansserver/internal/recommend"
	"github.com/khushigoel4699/Testplansserver/internal/service"
)

// ErrorFormatter writes the {error, message, timestamp, path} body for the
// last error a handler attached with c.Error, unless a response was already
// written.
func ErrorFormatter() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err
		status, title := classify(err)
		c.JSON(status, gin.H{
			"error":     title,
			"message":   err.Error(),
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"path":      c.Request.URL.Path,
		})
	}
}

// classify maps an error onto its HTTP status and title.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ado.ErrNotInitialized):
		return http.StatusInternalServerError, "Azure DevOps client not initialized"
	case errors.Is(err, ado.ErrNotFound), errors.Is(err, service.ErrConnectionNotFound):
		return http.StatusNotFound, "Not Found"
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest, "Bad Request"
	case recommend.IsConfigError(err):
		return http.StatusServiceUnavailable, "Azure OpenAI not configured"
	case recommend.IsParseError(err):
		return http.StatusBadGateway, "Failed to parse recommendations"
	case recommend.IsUpstreamError(err):
		return http.StatusBadGateway, "Failed to generate recommendations"
	default:
		return http.StatusInternalServerError, "Internal Server Error"
	}
}

// fail hands err to the ErrorFormatter.
func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

func badRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
		"error":   "Bad Request",
		"message": message,
	})
}

// bindJSON decodes and validates the body into req. A missing body or a
// failed binding rule answers 400 with message.
func bindJSON(c *gin.Context, req any, message string) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		badRequest(c, bindErrorMessage(err, message))
		return false
	}
	return true
}

func bindErrorMessage(err error, message string) string {
	var invalid validator.ValidationErrors
	if errors.As(err, &invalid) || errors.Is(err, io.EOF) {
		return message
	}
	return "Invalid request body: " + err.Error()
}

// intParam parses a numeric path parameter, answering 400 when it is not an
// integer.
func intParam(c *gin.Context, name, label string) (int, bool) {
	v, err := strconv.Atoi(c.Param(name))
	if err != nil {
		badRequest(c, "Invalid "+label+": must be a number")
		return 0, false
	}
	return v, true
}
