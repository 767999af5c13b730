package admin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/vanish/internal/logging"
	"github.com/dmitrijs2005/vanish/internal/observability/metrics"
	"github.com/dmitrijs2005/vanish/internal/server/auth"
	"github.com/dmitrijs2005/vanish/internal/server/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("admin-secret")

type fakeDB struct{ err error }

func (f fakeDB) Ping(context.Context) error { return f.err }

type fakeReports struct {
	gotLimit int
	out      []*models.Report
	err      error
}

func (f *fakeReports) ListOpen(ctx context.Context, limit int) ([]*models.Report, error) {
	f.gotLimit = limit
	return f.out, f.err
}

type fakeEvents struct {
	gotMedia string
	gotChat  string
	gotLimit int
}

func (f *fakeEvents) ListByMedia(ctx context.Context, mediaID string) ([]*models.SecurityEvent, error) {
	f.gotMedia = mediaID
	return []*models.SecurityEvent{
		{ID: 1, ChatID: "c1", MediaID: mediaID, ActorID: "bob", Type: models.EventClaimed,
			Metadata: map[string]string{"outcome": "failed", "reason": "already_viewed"}},
	}, nil
}

func (f *fakeEvents) ListByChat(ctx context.Context, chatID string, limit int) ([]*models.SecurityEvent, error) {
	f.gotChat, f.gotLimit = chatID, limit
	return nil, nil
}

func newTestRouter(db fakeDB, reps *fakeReports, evs *fakeEvents) http.Handler {
	reg := prometheus.NewRegistry()
	_ = metrics.Register(reg, "vanish")
	return NewRouter(Deps{
		DB:        db,
		Reports:   reps,
		Events:    evs,
		Gatherer:  reg,
		JWTSecret: secret,
		Logger:    logging.Discard(),
	})
}

func bearer(t *testing.T) string {
	t.Helper()
	tok, err := auth.GenerateToken("mod-1", secret, time.Hour)
	require.NoError(t, err)
	return "Bearer " + tok
}

func do(h http.Handler, method, target, authz string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	req.RemoteAddr = "10.0.0.1:1234"
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	rec := do(newTestRouter(fakeDB{}, &fakeReports{}, &fakeEvents{}), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = do(newTestRouter(fakeDB{err: errors.New("down")}, &fakeReports{}, &fakeEvents{}), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestRouter(fakeDB{}, &fakeReports{}, &fakeEvents{})
	do(h, http.MethodGet, "/healthz", "")

	rec := do(h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `http_requests_total{method="GET",path="/healthz",service="vanish",status="200"}`))
}

func TestModeration_RequiresBearer(t *testing.T) {
	h := newTestRouter(fakeDB{}, &fakeReports{}, &fakeEvents{})

	assert.Equal(t, http.StatusUnauthorized, do(h, http.MethodGet, "/moderation/reports", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(h, http.MethodGet, "/moderation/reports", "Bearer nope").Code)
}

func TestModeration_Reports(t *testing.T) {
	reps := &fakeReports{out: []*models.Report{{ID: "r1", MediaID: "m1", ReporterID: "bob", Reason: "spam", Status: "open"}}}
	h := newTestRouter(fakeDB{}, reps, &fakeEvents{})

	rec := do(h, http.MethodGet, "/moderation/reports?limit=5", bearer(t))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, reps.gotLimit)

	var out []reportDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out, 1)
	assert.Equal(t, "spam", out[0].Reason)

	assert.Equal(t, http.StatusBadRequest, do(h, http.MethodGet, "/moderation/reports?limit=x", bearer(t)).Code)

	reps.err = errors.New("db")
	assert.Equal(t, http.StatusInternalServerError, do(h, http.MethodGet, "/moderation/reports", bearer(t)).Code)
}

func TestModeration_Events(t *testing.T) {
	evs := &fakeEvents{}
	h := newTestRouter(fakeDB{}, &fakeReports{}, evs)

	rec := do(h, http.MethodGet, "/moderation/media/m-42/events", bearer(t))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "m-42", evs.gotMedia)

	var out []eventDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out, 1)
	assert.Equal(t, "already_viewed", out[0].Metadata["reason"])

	rec = do(h, http.MethodGet, "/moderation/chats/c1/events", bearer(t))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "c1", evs.gotChat)
	assert.Equal(t, defaultEventsLimit, evs.gotLimit)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestBearerAuth_SetsSubject(t *testing.T) {
	var got string
	h := bearerAuth(secret, logging.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = SubjectFrom(r.Context())
	}))
	do(h, http.MethodGet, "/", bearer(t))
	assert.Equal(t, "mod-1", got)
}
