package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func setupIngestRouter(token string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := NewHandler(nil, nil, nil)
	r.POST("/api/ingest", IngestAuth(token), handler.PostIngest)
	return r
}

func TestPostIngestRequiresToken(t *testing.T) {
	router := setupIngestRouter("secret")

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/ingest", strings.NewReader(`{"term_code":"FA2025"}`))
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("POST", "/api/ingest", strings.NewReader(`{"term_code":"FA2025"}`))
	req.Header.Set("Authorization", "Bearer wrong")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPostIngestUnconfiguredToken(t *testing.T) {
	router := setupIngestRouter("")

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/ingest", strings.NewReader(`{"term_code":"FA2025"}`))
	req.Header.Set("Authorization", "Bearer anything")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestPostIngestRejectsBadBody(t *testing.T) {
	router := setupIngestRouter("secret")

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/ingest", strings.NewReader(`{}`))
	req.Header.Set("Authorization", "Bearer secret")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
