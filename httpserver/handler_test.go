package httpserver

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/ruteri/kongcloak/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func signedToken(t *testing.T, claims jwt.Claims) string {
	t.Helper()
	// The handler never verifies signatures, any key will do.
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	require.NoError(t, err)
	return token
}

func dataRouter() http.Handler {
	r := chi.NewRouter()
	NewDataHandler(DefaultClientID, DefaultRole, discardLogger()).Register(r)
	return r
}

func TestHandleData(t *testing.T) {
	subscribed := signedToken(t, jwt.MapClaims{
		"sub":             "alice",
		"resource_access": map[string]any{"demo-client": map[string]any{"roles": []string{"subscribed"}}},
	})
	otherRole := signedToken(t, jwt.MapClaims{
		"resource_access": map[string]any{"demo-client": map[string]any{"roles": []string{"viewer"}}},
	})
	otherClient := signedToken(t, jwt.MapClaims{
		"resource_access": map[string]any{"account": map[string]any{"roles": []string{"subscribed"}}},
	})
	noAccess := signedToken(t, jwt.MapClaims{"sub": "bob"})

	tests := []struct {
		name          string
		authorization string
		wantCode      int
		wantBody      string
		outcome       string
	}{
		{name: "no credentials", wantCode: http.StatusOK, wantBody: "", outcome: "anonymous"},
		{name: "subscribed", authorization: "Bearer " + subscribed, wantCode: http.StatusOK, wantBody: `["cat","dog","cow"]`, outcome: "granted"},
		{name: "token without scheme", authorization: subscribed, wantCode: http.StatusOK, wantBody: `["cat","dog","cow"]`, outcome: "granted"},
		{name: "other role", authorization: "Bearer " + otherRole, wantCode: http.StatusOK, wantBody: `[]`, outcome: "denied"},
		{name: "role on other client", authorization: "Bearer " + otherClient, wantCode: http.StatusOK, wantBody: `[]`, outcome: "denied"},
		{name: "no resource access", authorization: "Bearer " + noAccess, wantCode: http.StatusOK, wantBody: `[]`, outcome: "denied"},
		{name: "garbage", authorization: "Bearer not-a-token", wantCode: http.StatusUnauthorized, outcome: "invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := testutil.ToFloat64(metrics.DataRequests.WithLabelValues(tt.outcome))

			req := httptest.NewRequest(http.MethodGet, "/data", nil)
			if tt.authorization != "" {
				req.Header.Set("Authorization", tt.authorization)
			}
			rec := httptest.NewRecorder()
			dataRouter().ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantCode == http.StatusOK {
				if tt.wantBody == "" {
					assert.Empty(t, rec.Body.String())
				} else {
					assert.JSONEq(t, tt.wantBody, rec.Body.String())
				}
			} else {
				assert.Contains(t, rec.Body.String(), ErrMalformedToken.Error())
				assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			}

			assert.Equal(t, before+1, testutil.ToFloat64(metrics.DataRequests.WithLabelValues(tt.outcome)))
		})
	}
}

func TestAccessClaims_HasClientRole(t *testing.T) {
	claims := &AccessClaims{ResourceAccess: map[string]ClientAccess{
		"demo-client": {Roles: []string{"reader", "subscribed"}},
	}}

	assert.True(t, claims.HasClientRole("demo-client", "subscribed"))
	assert.False(t, claims.HasClientRole("demo-client", "admin"))
	assert.False(t, claims.HasClientRole("other", "subscribed"))
	assert.False(t, (&AccessClaims{}).HasClientRole("demo-client", "subscribed"))
}

func TestHandleIndex(t *testing.T) {
	r := chi.NewRouter()
	IndexHandler{}.Register(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, indexHTML, rec.Body.Bytes())
	assert.Contains(t, rec.Body.String(), "<html")
}
