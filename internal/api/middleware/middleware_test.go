package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/princeprakhar/yamdb-backend/internal/authz"
	"github.com/princeprakhar/yamdb-backend/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrincipalFromDefaultsToAnonymous(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Equal(t, authz.Anonymous(), PrincipalFrom(c))

	c.Set(principalKey, "not a principal")
	assert.False(t, PrincipalFrom(c).Authenticated())
}

func TestRateLimitMiddlewareRejectsOverLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limit, err := RateLimitMiddleware(&config.Config{RateLimitRPS: 2})
	require.NoError(t, err)

	router := gin.New()
	router.Use(limit)
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func limitedRouter(t *testing.T, rps int) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	limit, err := RateLimitMiddleware(&config.Config{RateLimitRPS: rps})
	require.NoError(t, err)

	router := gin.New()
	require.NoError(t, router.SetTrustedProxies(nil))
	router.Use(limit)
	router.GET("/titles/:title_id", func(c *gin.Context) { c.Status(http.StatusOK) })
	return router
}

func TestRateLimitSharesBucketAcrossPathIDs(t *testing.T) {
	router := limitedRouter(t, 2)

	codes := make([]int, 0, 3)
	for _, path := range []string{"/titles/1", "/titles/2", "/titles/3"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRateLimitIgnoresUntrustedForwardedFor(t *testing.T) {
	router := limitedRouter(t, 2)

	codes := make([]int, 0, 3)
	for _, spoofed := range []string{"203.0.113.1", "203.0.113.2", "203.0.113.3"} {
		req := httptest.NewRequest(http.MethodGet, "/titles/1", nil)
		req.Header.Set("X-Forwarded-For", spoofed)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRateLimitMiddlewareBadRedisURL(t *testing.T) {
	_, err := RateLimitMiddleware(&config.Config{RateLimitRPS: 1, RedisURL: "not-a-url://"})
	assert.Error(t, err)
}

func TestRequestLoggerKeepsValidInboundID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestLogger())
	router.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("request_id")) })

	inbound := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, inbound)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, inbound, w.Header().Get(RequestIDHeader))
	assert.Equal(t, inbound, w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "<script>")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	_, err := uuid.Parse(w.Header().Get(RequestIDHeader))
	assert.NoError(t, err, "a malformed inbound id is replaced")
}
