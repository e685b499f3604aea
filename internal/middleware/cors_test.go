package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCORS(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	tests := []struct {
		name        string
		allowed     []string
		origin      string
		method      string
		wantOrigin  string
		wantCreds   string
		wantStatus  int
		preflighted bool
	}{
		{name: "explicit origin", allowed: []string{"https://orlo.example"}, origin: "https://orlo.example", method: http.MethodGet, wantOrigin: "https://orlo.example", wantCreds: "true", wantStatus: http.StatusTeapot},
		{name: "wildcard has no credentials", allowed: []string{"*"}, origin: "https://other.example", method: http.MethodGet, wantOrigin: "https://other.example", wantStatus: http.StatusTeapot},
		{name: "unknown origin", allowed: []string{"https://orlo.example"}, origin: "https://evil.example", method: http.MethodGet, wantStatus: http.StatusTeapot},
		{name: "preflight", allowed: []string{"https://orlo.example"}, origin: "https://orlo.example", method: http.MethodOptions, wantOrigin: "https://orlo.example", wantCreds: "true", wantStatus: http.StatusNoContent, preflighted: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/chat", nil)
			req.Header.Set("Origin", tt.origin)
			if tt.preflighted {
				req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			}
			rec := httptest.NewRecorder()

			CORS(tt.allowed)(next).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Fatalf("expected allow-origin %q, got %q", tt.wantOrigin, got)
			}
			if got := rec.Header().Get("Access-Control-Allow-Credentials"); got != tt.wantCreds {
				t.Fatalf("expected allow-credentials %q, got %q", tt.wantCreds, got)
			}
		})
	}
}
