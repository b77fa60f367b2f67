package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMiddleware_RecordsMatchedRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	r.GET("/comics/:slug", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/comics/one-piece", "/comics/naruto", "/missing"} {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, path, nil)
		r.ServeHTTP(w, req)
	}

	assert.Equal(t, float64(2), testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/comics/:slug", "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "unmatched", "404")))
	assert.Greater(t, testutil.CollectAndCount(httpRequestDurationSeconds), 0)
}

func TestObserveImageUpload(t *testing.T) {
	Init()
	before := testutil.ToFloat64(imageUploadsTotal.WithLabelValues("cover", "error"))

	ObserveImageUpload("cover", errors.New("boom"), 20*time.Millisecond)
	ObserveImageUpload("cover", nil, 10*time.Millisecond)

	assert.Equal(t, before+1, testutil.ToFloat64(imageUploadsTotal.WithLabelValues("cover", "error")))
	assert.GreaterOrEqual(t, testutil.ToFloat64(imageUploadsTotal.WithLabelValues("cover", "ok")), float64(1))
}

func TestObserveCache(t *testing.T) {
	Init()
	ObserveCache("followers", "hit")
	ObserveCache("followers", "hit")
	assert.GreaterOrEqual(t, testutil.ToFloat64(cacheRequestsTotal.WithLabelValues("followers", "hit")), float64(2))
}
