package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/flathunt/platform/shared/logging"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestNewRouter_Health(t *testing.T) {
	tests := []struct {
		name   string
		health HealthCheck
		want   int
	}{
		{"no check", nil, http.StatusOK},
		{"healthy", func(context.Context) error { return nil }, http.StatusOK},
		{"store down", func(context.Context) error { return errors.New("no reachable servers") }, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := NewRouter("account-service", logging.Nop(), tt.health)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
			assert.Equal(t, tt.want, w.Code)
			assert.Contains(t, w.Body.String(), "account-service")
			assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
		})
	}
}

func TestNewRouter_Metrics(t *testing.T) {
	router := NewRouter("listing-service", logging.Nop(), nil)
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "flathunt_http_requests_total")
}

func TestNewRouter_RecoversPanics(t *testing.T) {
	router := NewRouter("svc", logging.Nop(), nil)
	router.GET("/boom", func(*gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "ok")
	})
	go func() { done <- Serve(ctx, lis, handler, logging.Nop(), time.Second) }()

	resp, err := http.Get("http://" + lis.Addr().String())
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "ok", string(body))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestRun_BadAddress(t *testing.T) {
	err := Run(context.Background(), "not-an-address", http.NotFoundHandler(), logging.Nop(), time.Second)
	assert.Error(t, err)
}
