// Package admin serves the operator HTTP surface: health, prometheus
// metrics and the read-only moderation endpoints.
package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrijs2005/vanish/internal/logging"
	"github.com/dmitrijs2005/vanish/internal/server/models"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type ReportLister interface {
	ListOpen(ctx context.Context, limit int) ([]*models.Report, error)
}

type EventLister interface {
	ListByMedia(ctx context.Context, mediaID string) ([]*models.SecurityEvent, error)
	ListByChat(ctx context.Context, chatID string, limit int) ([]*models.SecurityEvent, error)
}

// Deps are the collaborators of the router.
type Deps struct {
	DB        Pinger
	Reports   ReportLister
	Events    EventLister
	Gatherer  prometheus.Gatherer
	JWTSecret []byte
	Logger    logging.Logger
}

const defaultEventsLimit = 200

// NewRouter wires the admin routes. Moderation routes require a bearer
// access token signed with the server secret.
func NewRouter(d Deps) http.Handler {
	h := &handlers{deps: d, logger: d.Logger.With("module", "admin")}

	r := chi.NewRouter()
	r.Use(WithMetrics)
	r.Use(httprate.LimitByIP(120, 1*time.Minute))

	r.Get("/healthz", h.healthz)
	if d.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/moderation", func(r chi.Router) {
		r.Use(bearerAuth(d.JWTSecret, h.logger))
		r.Get("/reports", h.listReports)
		r.Get("/media/{id}/events", h.mediaEvents)
		r.Get("/chats/{id}/events", h.chatEvents)
	})

	return r
}

type handlers struct {
	deps   Deps
	logger logging.Logger
}

type reportDTO struct {
	ID         string    `json:"id"`
	MediaID    string    `json:"media_id"`
	ChatID     string    `json:"chat_id"`
	ReporterID string    `json:"reporter_id"`
	Reason     string    `json:"reason"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

type eventDTO struct {
	ID        int64             `json:"id"`
	ChatID    string            `json:"chat_id"`
	MediaID   string            `json:"media_id,omitempty"`
	ActorID   string            `json:"actor_id"`
	Type      string            `json:"type"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

func toEventDTOs(in []*models.SecurityEvent) []eventDTO {
	out := make([]eventDTO, 0, len(in))
	for _, e := range in {
		out = append(out, eventDTO{
			ID:        e.ID,
			ChatID:    e.ChatID,
			MediaID:   e.MediaID,
			ActorID:   e.ActorID,
			Type:      string(e.Type),
			Metadata:  e.Metadata,
			CreatedAt: e.CreatedAt,
		})
	}
	return out
}

func (h *handlers) healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.deps.DB.Ping(ctx); err != nil {
		h.logger.Error(ctx, "health check failed", "error", err)
		http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// limitParam parses ?limit=, falling back to def for a missing value.
func limitParam(r *http.Request, def int) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func (h *handlers) listReports(w http.ResponseWriter, r *http.Request) {
	limit, ok := limitParam(r, 0)
	if !ok {
		http.Error(w, "invalid limit", http.StatusBadRequest)
		return
	}
	reps, err := h.deps.Reports.ListOpen(r.Context(), limit)
	if err != nil {
		h.logger.Error(r.Context(), "list reports failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	out := make([]reportDTO, 0, len(reps))
	for _, rep := range reps {
		out = append(out, reportDTO{
			ID:         rep.ID,
			MediaID:    rep.MediaID,
			ChatID:     rep.ChatID,
			ReporterID: rep.ReporterID,
			Reason:     rep.Reason,
			Status:     rep.Status,
			CreatedAt:  rep.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handlers) mediaEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.deps.Events.ListByMedia(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.logger.Error(r.Context(), "list media events failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, toEventDTOs(events))
}

func (h *handlers) chatEvents(w http.ResponseWriter, r *http.Request) {
	limit, ok := limitParam(r, defaultEventsLimit)
	if !ok {
		http.Error(w, "invalid limit", http.StatusBadRequest)
		return
	}
	events, err := h.deps.Events.ListByChat(r.Context(), chi.URLParam(r, "id"), limit)
	if err != nil {
		h.logger.Error(r.Context(), "list chat events failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, toEventDTOs(events))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
