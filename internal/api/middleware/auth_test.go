package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAPIKeyAuth(t *testing.T) {
	handler := APIKeyAuth("test-secret")(okHandler())

	tests := []struct {
		name       string
		method     string
		authHeader string
		wantStatus int
	}{
		{
			name:       "valid key",
			method:     http.MethodGet,
			authHeader: "Bearer test-secret",
			wantStatus: http.StatusOK,
		},
		{
			name:       "wrong key rejected",
			method:     http.MethodGet,
			authHeader: "Bearer some-other-token",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "missing header",
			method:     http.MethodGet,
			authHeader: "",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "malformed header",
			method:     http.MethodGet,
			authHeader: "test-secret",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "wrong scheme",
			method:     http.MethodGet,
			authHeader: "Basic dGVzdDp0ZXN0",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "CORS preflight bypasses auth",
			method:     http.MethodOptions,
			authHeader: "",
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/v1/assess", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestAPIKeyAuth_StoresKeyInContext(t *testing.T) {
	var gotKey string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = GetAPIKey(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/assess", nil)
	req.Header.Set("Authorization", "Bearer test-secret")
	rec := httptest.NewRecorder()

	APIKeyAuth("test-secret")(inner).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "test-secret", gotKey)
}

func TestAdminAuth(t *testing.T) {
	handler := APIKeyAuth("test-secret")(AdminAuth("admin-secret")(okHandler()))

	tests := []struct {
		name       string
		adminToken string
		wantStatus int
	}{
		{
			name:       "valid admin token",
			adminToken: "admin-secret",
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing admin token",
			adminToken: "",
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "wrong admin token",
			adminToken: "guess",
			wantStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/reconcile", nil)
			req.Header.Set("Authorization", "Bearer test-secret")
			if tt.adminToken != "" {
				req.Header.Set("X-Admin-Token", tt.adminToken)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}
