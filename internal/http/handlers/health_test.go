package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/geocoder89/addressbook/internal/http/handlers"
	"github.com/gin-gonic/gin"
)

func TestReadyz(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		ping       func(ctx context.Context) error
		wantStatus int
	}{
		{name: "no ping", wantStatus: http.StatusOK},
		{name: "db up", ping: func(context.Context) error { return nil }, wantStatus: http.StatusOK},
		{name: "db down", ping: func(context.Context) error { return errors.New("dial tcp: refused") }, wantStatus: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := handlers.NewHealthHandler(tt.ping)

			r := gin.New()
			r.GET("/healthz", h.Healthz)
			r.GET("/readyz", h.Readyz)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
			if w.Code != tt.wantStatus {
				t.Fatalf("readyz: got %d, want %d", w.Code, tt.wantStatus)
			}

			// liveness never depends on the database
			w = httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
			if w.Code != http.StatusOK {
				t.Fatalf("healthz: got %d", w.Code)
			}
		})
	}
}
