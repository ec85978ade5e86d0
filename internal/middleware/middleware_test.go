package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pigjjun/board/backend/internal/models"
)

var secret = []byte("test-secret")

func init() {
	gin.SetMode(gin.TestMode)
}

func echoUser(c *gin.Context) {
	id, ok := c.Get("user_id")
	c.JSON(http.StatusOK, gin.H{"user_id": id, "ok": ok, "device": c.GetString("device_id")})
}

func TestAuthMiddleware(t *testing.T) {
	r := gin.New()
	r.GET("/p", AuthMiddleware(secret), echoUser)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/p", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, err := IssueToken(secret, &models.User{ID: 12, Handle: "someone"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/p", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":12,"ok":true,"device":""}`, w.Body.String())

	forged, err := IssueToken([]byte("other"), &models.User{ID: 12})
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/p", nil)
	req.Header.Set("Authorization", "Bearer "+forged)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestOptionalAuth(t *testing.T) {
	r := gin.New()
	r.GET("/p", OptionalAuth(secret), echoUser)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/p", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":null,"ok":false,"device":""}`, w.Body.String())
}

func TestDeviceCookie(t *testing.T) {
	r := gin.New()
	r.GET("/p", Device(), echoUser)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/p", nil))
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, DeviceCookie, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/p", nil)
	req.AddCookie(cookies[0])
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Empty(t, w.Result().Cookies(), "known device gets no new cookie")
	assert.Contains(t, w.Body.String(), cookies[0].Value)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	defer rl.Close()

	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"))

	r := gin.New()
	r.GET("/p", RateLimit(rl), echoUser)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/p", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	r.ServeHTTP(httptest.NewRecorder(), req)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}
