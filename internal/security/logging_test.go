package security

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLoggingTestRouter(middleware gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware)
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/v1/users/:userId/memories", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/v1/admin/stats", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestRequestLogFieldsIncludesUserParam(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	_, r := gin.CreateTestContext(rec)

	var fields []interface{}
	r.GET("/v1/users/:userId/memories", func(c *gin.Context) {
		fields = requestLogFields(c, 5*time.Millisecond)
		c.Status(http.StatusOK)
	})
	req := httptest.NewRequest(http.MethodGet, "/v1/users/holly/memories", nil)
	r.ServeHTTP(rec, req)

	require.NotEmpty(t, fields)
	assert.Contains(t, fields, "userId")
	assert.Contains(t, fields, "holly")
	assert.Contains(t, fields, "/v1/users/:userId/memories")
}

func TestRequestLogFieldsOmitsUserParamWhenAbsent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	_, r := gin.CreateTestContext(rec)

	var fields []interface{}
	r.GET("/health", func(c *gin.Context) {
		fields = requestLogFields(c, time.Millisecond)
		c.Status(http.StatusOK)
	})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	r.ServeHTTP(rec, req)

	require.NotEmpty(t, fields)
	assert.NotContains(t, fields, "userId")
}

func TestAccessLogMiddlewarePassesRequestsThrough(t *testing.T) {
	r := newLoggingTestRouter(AccessLogMiddleware("/health"))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/users/holly/memories", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminAuditMiddlewareRequiresJustification(t *testing.T) {
	r := newLoggingTestRouter(AdminAuditMiddleware(true))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/admin/stats", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/admin/stats", nil)
	req.Header.Set("X-Justification", "weekly maintenance")
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminAuditMiddlewareIgnoresNonAdminRoutes(t *testing.T) {
	r := newLoggingTestRouter(AdminAuditMiddleware(true))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/users/holly/memories", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
