package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bobmcallan/navcheck/internal/common"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestRecoveryMiddleware(t *testing.T) {
	handler := recoveryMiddleware(common.NewSilentLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/kpis", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("Expected 500, got %d", rr.Code)
	}
}

func TestCorrelationIDMiddleware(t *testing.T) {
	tests := []struct {
		name   string
		header string
		value  string
		want   string
	}{
		{"request id", "X-Request-ID", "req-1", "req-1"},
		{"correlation id", "X-Correlation-ID", "corr-1", "corr-1"},
		{"generated", "", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			rr := httptest.NewRecorder()
			correlationIDMiddleware(okHandler).ServeHTTP(rr, req)

			got := rr.Header().Get("X-Correlation-ID")
			if tt.want != "" && got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
			if tt.want == "" && len(got) != 8 {
				t.Errorf("Expected generated 8-char id, got %q", got)
			}
		})
	}
}

func TestCORSMiddleware(t *testing.T) {
	tests := []struct {
		name    string
		origins []string
		origin  string
		want    string
	}{
		{"wildcard", []string{"*"}, "https://ops.example.com", "*"},
		{"listed origin", []string{"https://ops.example.com"}, "https://ops.example.com", "https://ops.example.com"},
		{"unlisted origin", []string{"https://ops.example.com"}, "https://evil.example.com", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/kpis", nil)
			req.Header.Set("Origin", tt.origin)
			rr := httptest.NewRecorder()
			corsMiddleware(tt.origins)(okHandler).ServeHTTP(rr, req)

			if got := rr.Header().Get("Access-Control-Allow-Origin"); got != tt.want {
				t.Errorf("Expected allow-origin %q, got %q", tt.want, got)
			}
		})
	}
}

func TestCORSMiddleware_Preflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/api/validations/run", nil)
	rr := httptest.NewRecorder()
	corsMiddleware([]string{"*"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("preflight should not reach the handler")
	})).ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Errorf("Expected 204, got %d", rr.Code)
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	handler := rateLimitMiddleware(0.001, 2, common.NewSilentLogger())(okHandler)

	codes := make([]int, 0, 3)
	var retryAfter string
	for i := 0; i < 3; i++ {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/kpis", nil))
		codes = append(codes, rr.Code)
		if rr.Code == http.StatusTooManyRequests {
			retryAfter = rr.Header().Get("Retry-After")
		}
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("Expected [200 200 429], got %v", codes)
	}
	if retryAfter == "" || retryAfter == "0" {
		t.Errorf("Expected a positive Retry-After, got %q", retryAfter)
	}

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if rr.Code != http.StatusOK {
		t.Errorf("Health checks should bypass the limiter, got %d", rr.Code)
	}
}

func TestRateLimitMiddleware_Disabled(t *testing.T) {
	handler := rateLimitMiddleware(0, 0, common.NewSilentLogger())(okHandler)
	for i := 0; i < 100; i++ {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/kpis", nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, rr.Code)
		}
	}
}
