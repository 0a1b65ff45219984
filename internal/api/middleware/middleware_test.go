package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	echo := func(c *gin.Context) {
		body, _ := io.ReadAll(c.Request.Body)
		c.String(http.StatusOK, string(body))
	}
	r.GET("/ping", echo)
	r.POST("/echo", echo)
	r.GET("/panic", func(c *gin.Context) { panic("boom") })
	return r
}

func request(r http.Handler, method, path, body, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if remoteAddr != "" {
		req.RemoteAddr = remoteAddr
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRecovery(t *testing.T) {
	r := newEngine(Recovery(), Logger())
	w := request(r, http.MethodGet, "/panic", "", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"code":"INTERNAL_ERROR","message":"internal server error"}`, w.Body.String())
}

func TestBodySizeLimit(t *testing.T) {
	r := newEngine(BodySizeLimit(8))

	w := request(r, http.MethodPost, "/echo", "short", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "short", w.Body.String())

	w = request(r, http.MethodPost, "/echo", "this body is too long", "")
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Contains(t, w.Body.String(), "REQUEST_TOO_LARGE")
}

func TestRateLimit_PerClient(t *testing.T) {
	r := newEngine(RateLimit(2, time.Minute))

	assert.Equal(t, http.StatusOK, request(r, http.MethodGet, "/ping", "", "10.0.0.1:1000").Code)
	assert.Equal(t, http.StatusOK, request(r, http.MethodGet, "/ping", "", "10.0.0.1:1001").Code)

	w := request(r, http.MethodGet, "/ping", "", "10.0.0.1:1002")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "30", w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "TOO_MANY_REQUESTS")

	// 其他客戶端不受影響
	assert.Equal(t, http.StatusOK, request(r, http.MethodGet, "/ping", "", "10.0.0.2:1000").Code)
}

func TestRateLimiter_Refills(t *testing.T) {
	rl := NewRateLimiter(1, 20*time.Millisecond)
	require.True(t, rl.Allow("a"))
	require.False(t, rl.Allow("a"))

	assert.Eventually(t, func() bool { return rl.Allow("a") }, time.Second, 5*time.Millisecond)
}

func TestDeduplication(t *testing.T) {
	r := newEngine(Deduplication(time.Minute))

	w := request(r, http.MethodPost, "/echo", `{"a":1}`, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `{"a":1}`, w.Body.String(), "body must be readable after hashing")

	assert.Equal(t, http.StatusTooManyRequests, request(r, http.MethodPost, "/echo", `{"a":1}`, "").Code)
	assert.Equal(t, http.StatusOK, request(r, http.MethodPost, "/echo", `{"a":2}`, "").Code)

	// GET 不去重
	assert.Equal(t, http.StatusOK, request(r, http.MethodGet, "/ping", "", "").Code)
	assert.Equal(t, http.StatusOK, request(r, http.MethodGet, "/ping", "", "").Code)
}

func TestDeduplication_WindowExpires(t *testing.T) {
	r := newEngine(Deduplication(10 * time.Millisecond))

	require.Equal(t, http.StatusOK, request(r, http.MethodPost, "/echo", "x", "").Code)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, http.StatusOK, request(r, http.MethodPost, "/echo", "x", "").Code)
}

func TestTimeout(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Timeout(10 * time.Millisecond))
	r.GET("/slow", func(c *gin.Context) {
		<-c.Request.Context().Done()
	})
	r.GET("/fast", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	w := request(r, http.MethodGet, "/slow", "", "")
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)

	w = request(r, http.MethodGet, "/fast", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
}

