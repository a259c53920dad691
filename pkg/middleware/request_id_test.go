package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/rsierra/ex-maps/pkg/httpclient"
	"github.com/rsierra/ex-maps/pkg/logger"
)

func newRequestIDRouter(capture *string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID())
	router.GET("/ping", func(c *gin.Context) {
		*capture = logger.RequestIDFromContext(c.Request.Context())
		c.Status(http.StatusOK)
	})
	return router
}

func TestRequestIDGenerated(t *testing.T) {
	var captured string
	router := newRequestIDRouter(&captured)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.NotEmpty(t, captured)
	_, err := uuid.Parse(captured)
	assert.NoError(t, err)
	assert.Equal(t, captured, w.Header().Get(httpclient.RequestIDHeader))
}

func TestRequestIDPropagated(t *testing.T) {
	var captured string
	router := newRequestIDRouter(&captured)

	id := uuid.New().String()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(httpclient.RequestIDHeader, id)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, id, captured)
	assert.Equal(t, id, w.Header().Get(httpclient.RequestIDHeader))
}

func TestRequestIDInvalidReplaced(t *testing.T) {
	var captured string
	router := newRequestIDRouter(&captured)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(httpclient.RequestIDHeader, "not-a-uuid")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.NotEqual(t, "not-a-uuid", captured)
	_, err := uuid.Parse(captured)
	assert.NoError(t, err)
}
