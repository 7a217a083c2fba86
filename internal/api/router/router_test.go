package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voyago/travel-concierge/internal/http/handlers"
	"github.com/voyago/travel-concierge/internal/observability/metrics"
	"github.com/voyago/travel-concierge/internal/requirements"
	"github.com/voyago/travel-concierge/internal/safety"
	"github.com/voyago/travel-concierge/internal/session"
	"github.com/voyago/travel-concierge/internal/turn"
)

type emptyExtractor struct{}

func (emptyExtractor) Extract(context.Context, string, *requirements.TravelRequirements) (*requirements.ExtractionResult, error) {
	return &requirements.ExtractionResult{}, nil
}

func newTestRouter(t *testing.T, adminSecret string) (http.Handler, session.Store) {
	t.Helper()
	store := session.NewMemoryStore()
	processor := turn.NewProcessor(
		store, nil,
		requirements.NewManager(emptyExtractor{}, nil),
		safety.NewGate(nil, time.Second, nil),
		nil, nil,
		metrics.NewTurnMetrics(prometheus.NewRegistry()),
		nil,
	)
	handler := handlers.NewTravelHandler(processor, store, nil, nil)
	return New(&Config{
		TravelHandler:   handler,
		AdminAuthSecret: adminSecret,
	}), store
}

func TestHealthRoute(t *testing.T) {
	r, _ := newTestRouter(t, "")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTurnRoute(t *testing.T) {
	r, _ := newTestRouter(t, "")
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/travel/turn", strings.NewReader(`{"text": "hello"}`))
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "session_id")
}

func TestSessionRoute(t *testing.T) {
	r, store := newTestRouter(t, "")
	sess := session.NewSession()
	require.NoError(t, store.Put(context.Background(), sess, 0))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/travel/session/"+sess.ID, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminRoutesRequireJWT(t *testing.T) {
	r, store := newTestRouter(t, "test-secret")
	sess := session.NewSession()
	require.NoError(t, store.Put(context.Background(), sess, 0))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/admin/sessions/"+sess.ID, nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/admin/sessions/"+sess.ID, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestAdminRoutesAbsentWithoutSecret(t *testing.T) {
	r, _ := newTestRouter(t, "")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/admin/sessions/abc", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
