package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"civiclens/backend/internal/api/middleware"
	"civiclens/backend/internal/localization"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newRouter(rdb *redis.Client, limit int) *gin.Engine {
	return newLocalizedRouter(rdb, nil, limit)
}

func newLocalizedRouter(rdb *redis.Client, l *localization.Localizer, limit int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/submit", middleware.SubmissionRateLimiter(rdb, l, "submissions", limit, time.Hour, zap.NewNop()), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})
	return r
}

func post(r http.Handler, ip string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/submit", nil)
	req.RemoteAddr = ip + ":5555"
	r.ServeHTTP(w, req)
	return w
}

func TestSubmissionRateLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	r := newRouter(rdb, 2)

	assert.Equal(t, http.StatusCreated, post(r, "10.0.0.1").Code)
	assert.Equal(t, http.StatusCreated, post(r, "10.0.0.1").Code)

	w := post(r, "10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "3600", w.Header().Get("Retry-After"))

	// Other clients have their own budget.
	assert.Equal(t, http.StatusCreated, post(r, "10.0.0.2").Code)

	assert.Equal(t, time.Hour, mr.TTL("submissions:10.0.0.1"))

	mr.FastForward(time.Hour + time.Second)
	assert.Equal(t, http.StatusCreated, post(r, "10.0.0.1").Code)
}

func TestSubmissionRateLimiter_Disabled(t *testing.T) {
	r := newRouter(nil, 1)
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusCreated, post(r, "10.0.0.1").Code)
	}
}

func TestSubmissionRateLimiter_RedisDown(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	mr.Close()

	r := newRouter(rdb, 1)
	assert.Equal(t, http.StatusCreated, post(r, "10.0.0.1").Code)
}

func TestSubmissionRateLimiter_RestoresMissingWindow(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	r := newRouter(rdb, 10)

	// A counter left behind without a TTL, as after a lost EXPIRE.
	require.NoError(t, mr.Set("submissions:10.0.0.3", "5"))
	require.Zero(t, mr.TTL("submissions:10.0.0.3"))

	assert.Equal(t, http.StatusCreated, post(r, "10.0.0.3").Code)
	assert.Equal(t, time.Hour, mr.TTL("submissions:10.0.0.3"))

	mr.FastForward(time.Hour + time.Second)
	assert.False(t, mr.Exists("submissions:10.0.0.3"))
}

func TestSubmissionRateLimiter_LocalizedRejection(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	l, err := localization.NewLocalizer("../../localization/locales")
	require.NoError(t, err)
	r := newLocalizedRouter(rdb, l, 1)

	assert.Equal(t, http.StatusCreated, post(r, "10.0.0.4").Code)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/submit", nil)
	req.RemoteAddr = "10.0.0.4:5555"
	req.Header.Set("Accept-Language", "uk-UA,uk;q=0.9")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, l.GetString("uk", "error.rate_limited"), body.Error)
	assert.NotEqual(t, l.GetString("en", "error.rate_limited"), body.Error)
}
