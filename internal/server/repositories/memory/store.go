// Package memory is an in-process RepositoryManager for development and
// tests. A transaction holds the store's single mutex for its whole
// duration, so transactions are fully serialised; on error the store is
// restored from a snapshot taken at the start.
//
// Inside WithTx only the Repositories passed to fn may be used. Calling the
// manager's own repositories from fn deadlocks.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/vanish/internal/common"
	"github.com/dmitrijs2005/vanish/internal/server/models"
	"github.com/dmitrijs2005/vanish/internal/server/repositories/events"
	"github.com/dmitrijs2005/vanish/internal/server/repositories/grants"
	"github.com/dmitrijs2005/vanish/internal/server/repositories/media"
	"github.com/dmitrijs2005/vanish/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/vanish/internal/server/repositories/reports"
)

type grantKey struct {
	mediaID     string
	recipientID string
}

type state struct {
	media       map[string]models.MediaItem
	grants      map[grantKey]models.PermissionGrant
	events      []models.SecurityEvent
	reports     []models.Report
	nextEventID int64
}

func (s *state) clone() *state {
	c := &state{
		media:       make(map[string]models.MediaItem, len(s.media)),
		grants:      make(map[grantKey]models.PermissionGrant, len(s.grants)),
		events:      append([]models.SecurityEvent(nil), s.events...),
		reports:     append([]models.Report(nil), s.reports...),
		nextEventID: s.nextEventID,
	}
	for k, v := range s.media {
		c.media[k] = v
	}
	for k, v := range s.grants {
		c.grants[k] = v
	}
	return c
}

// Store implements repomanager.RepositoryManager in memory.
type Store struct {
	mu  sync.Mutex
	st  *state
	now func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the clock used for created_at columns.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		st: &state{
			media:  map[string]models.MediaItem{},
			grants: map[grantKey]models.PermissionGrant{},
		},
		now: time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

var _ repomanager.RepositoryManager = (*Store)(nil)

func (s *Store) Media() media.Repository     { return &mediaRepo{repos{s: s}} }
func (s *Store) Grants() grants.Repository   { return &grantRepo{repos{s: s}} }
func (s *Store) Events() events.Repository   { return &eventRepo{repos{s: s}} }
func (s *Store) Reports() reports.Repository { return &reportRepo{repos{s: s}} }

func (s *Store) RunMigrations(ctx context.Context) error { return nil }
func (s *Store) Ping(ctx context.Context) error          { return nil }
func (s *Store) Close() error                            { return nil }

// WithTx runs fn with exclusive access to the store.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, r repomanager.Repositories) error) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	defer func() {
		if p := recover(); p != nil {
			s.st = snapshot
			panic(p)
		}
		if err != nil {
			s.st = snapshot
		}
	}()

	return fn(ctx, txRepos{repos{s: s, inTx: true}})
}

// repos locks the store per call unless it is bound to a transaction that
// already holds the lock.
type repos struct {
	s    *Store
	inTx bool
}

func (r repos) lock() func() {
	if r.inTx {
		return func() {}
	}
	r.s.mu.Lock()
	return r.s.mu.Unlock
}

type txRepos struct{ r repos }

func (t txRepos) Media() media.Repository     { return &mediaRepo{t.r} }
func (t txRepos) Grants() grants.Repository   { return &grantRepo{t.r} }
func (t txRepos) Events() events.Repository   { return &eventRepo{t.r} }
func (t txRepos) Reports() reports.Repository { return &reportRepo{t.r} }

type mediaRepo struct{ repos }

func (r *mediaRepo) Create(ctx context.Context, item *models.MediaItem) error {
	defer r.lock()()
	if _, ok := r.s.st.media[item.ID]; ok {
		return fmt.Errorf("db error: duplicate media id %q", item.ID)
	}
	item.CreatedAt = r.s.now().UTC()
	r.s.st.media[item.ID] = *item
	return nil
}

func (r *mediaRepo) GetByID(ctx context.Context, id string) (*models.MediaItem, error) {
	defer r.lock()()
	item, ok := r.s.st.media[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &item, nil
}

func (r *mediaRepo) ListByChat(ctx context.Context, chatID string) ([]*models.MediaItem, error) {
	defer r.lock()()
	var out []*models.MediaItem
	for _, item := range r.s.st.media {
		if item.ChatID == chatID && item.DeletedAt == nil {
			item := item
			out = append(out, &item)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *mediaRepo) SoftDelete(ctx context.Context, id string, at time.Time) (bool, error) {
	defer r.lock()()
	item, ok := r.s.st.media[id]
	if !ok || item.DeletedAt != nil {
		return false, nil
	}
	item.DeletedAt = &at
	r.s.st.media[id] = item
	return true, nil
}

func (r *mediaRepo) SoftDeleteExpired(ctx context.Context, now time.Time, grace, unopenedTTL time.Duration) (int64, error) {
	defer r.lock()()
	live := map[string]bool{}
	for k, g := range r.s.st.grants {
		item, ok := r.s.st.media[k.mediaID]
		if ok && grantKeepsItem(&item, &g, now, grace, unopenedTTL) {
			live[k.mediaID] = true
		}
	}
	var n int64
	for id, item := range r.s.st.media {
		if item.DeletedAt != nil || live[id] {
			continue
		}
		at := now
		item.DeletedAt = &at
		item.Reaped = true
		r.s.st.media[id] = item
		n++
	}
	return n, nil
}

// grantKeepsItem mirrors the NOT EXISTS clause of the postgres reaper query.
func grantKeepsItem(item *models.MediaItem, g *models.PermissionGrant, now time.Time, grace, unopenedTTL time.Duration) bool {
	cutoff := now.Add(-grace)
	switch {
	case g.Revoked:
		return g.RevokedAt != nil && g.RevokedAt.After(cutoff)
	case g.ConsumedAt != nil:
		return g.ConsumedAt.After(cutoff)
	case g.OpenedAt == nil:
		return g.CreatedAt.After(now.Add(-unopenedTTL))
	case item.TimerSeconds > 0:
		return g.OpenedAt.Add(time.Duration(item.TimerSeconds) * time.Second).After(cutoff)
	default:
		return g.OpenedAt.After(now.Add(-unopenedTTL))
	}
}

type grantRepo struct{ repos }

func (r *grantRepo) CreateMany(ctx context.Context, gs []*models.PermissionGrant) error {
	defer r.lock()()
	for _, g := range gs {
		k := grantKey{g.MediaID, g.RecipientID}
		if _, ok := r.s.st.grants[k]; ok {
			return fmt.Errorf("db error: duplicate grant %s/%s", g.MediaID, g.RecipientID)
		}
	}
	now := r.s.now().UTC()
	for _, g := range gs {
		g.CreatedAt = now
		r.s.st.grants[grantKey{g.MediaID, g.RecipientID}] = *g
	}
	return nil
}

func (r *grantRepo) get(mediaID, recipientID string) (*models.PermissionGrant, error) {
	g, ok := r.s.st.grants[grantKey{mediaID, recipientID}]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &g, nil
}

func (r *grantRepo) Get(ctx context.Context, mediaID, recipientID string) (*models.PermissionGrant, error) {
	defer r.lock()()
	return r.get(mediaID, recipientID)
}

// GetForUpdate needs no row lock: a transaction already owns the store.
func (r *grantRepo) GetForUpdate(ctx context.Context, mediaID, recipientID string) (*models.PermissionGrant, error) {
	return r.Get(ctx, mediaID, recipientID)
}

func (r *grantRepo) ListByMedia(ctx context.Context, mediaID string) ([]*models.PermissionGrant, error) {
	defer r.lock()()
	var out []*models.PermissionGrant
	for k, g := range r.s.st.grants {
		if k.mediaID == mediaID {
			g := g
			out = append(out, &g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RecipientID < out[j].RecipientID })
	return out, nil
}

func (r *grantRepo) RecordClaim(ctx context.Context, mediaID, recipientID string, at time.Time) (*models.PermissionGrant, error) {
	defer r.lock()()
	g, err := r.get(mediaID, recipientID)
	if err != nil || g.Revoked {
		return nil, common.ErrorNotFound
	}
	if g.OpenedAt == nil {
		opened := at
		g.OpenedAt = &opened
	}
	g.ViewCount++
	last := at
	g.LastViewedAt = &last
	r.s.st.grants[grantKey{mediaID, recipientID}] = *g
	return g, nil
}

func (r *grantRepo) MarkFinalized(ctx context.Context, mediaID, recipientID string, at time.Time, consume bool) (bool, error) {
	defer r.lock()()
	g, err := r.get(mediaID, recipientID)
	if err != nil {
		return false, nil
	}
	changed := false
	if g.FinalizedAt == nil {
		t := at
		g.FinalizedAt = &t
		changed = true
	}
	if consume && g.ConsumedAt == nil {
		t := at
		g.ConsumedAt = &t
		changed = true
	}
	r.s.st.grants[grantKey{mediaID, recipientID}] = *g
	return changed, nil
}

func (r *grantRepo) RevokeAll(ctx context.Context, mediaID string, at time.Time) (int64, error) {
	defer r.lock()()
	var n int64
	for k, g := range r.s.st.grants {
		if k.mediaID != mediaID || g.Revoked {
			continue
		}
		t := at
		g.Revoked = true
		g.RevokedAt = &t
		r.s.st.grants[k] = g
		n++
	}
	return n, nil
}

type eventRepo struct{ repos }

func copyMeta(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (r *eventRepo) Append(ctx context.Context, e *models.SecurityEvent) error {
	defer r.lock()()
	r.s.st.nextEventID++
	e.ID = r.s.st.nextEventID
	e.CreatedAt = r.s.now().UTC()
	stored := *e
	stored.Metadata = copyMeta(e.Metadata)
	r.s.st.events = append(r.s.st.events, stored)
	return nil
}

func (r *eventRepo) filter(keep func(*models.SecurityEvent) bool) []*models.SecurityEvent {
	var out []*models.SecurityEvent
	for i := range r.s.st.events {
		e := r.s.st.events[i]
		if keep(&e) {
			e.Metadata = copyMeta(e.Metadata)
			out = append(out, &e)
		}
	}
	return out
}

func (r *eventRepo) ListByMedia(ctx context.Context, mediaID string) ([]*models.SecurityEvent, error) {
	defer r.lock()()
	return r.filter(func(e *models.SecurityEvent) bool { return e.MediaID == mediaID }), nil
}

func (r *eventRepo) ListByChat(ctx context.Context, chatID string, limit int) ([]*models.SecurityEvent, error) {
	defer r.lock()()
	out := r.filter(func(e *models.SecurityEvent) bool { return e.ChatID == chatID })
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

type reportRepo struct{ repos }

func (r *reportRepo) Create(ctx context.Context, rep *models.Report) error {
	defer r.lock()()
	rep.CreatedAt = r.s.now().UTC()
	r.s.st.reports = append(r.s.st.reports, *rep)
	return nil
}

func (r *reportRepo) ListOpen(ctx context.Context, limit int) ([]*models.Report, error) {
	defer r.lock()()
	var out []*models.Report
	for i := range r.s.st.reports {
		rep := r.s.st.reports[i]
		if rep.Status != models.ReportStatusOpen {
			continue
		}
		out = append(out, &rep)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
