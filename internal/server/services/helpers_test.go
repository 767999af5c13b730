package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/vanish/internal/logging"
	"github.com/dmitrijs2005/vanish/internal/server/models"
	"github.com/dmitrijs2005/vanish/internal/server/repositories/memory"
	"github.com/dmitrijs2005/vanish/internal/server/visibility"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fakeBlobs struct {
	getURL string
	getErr error
	gotKey string
	putErr error
}

func (f *fakeBlobs) PresignPut(ctx context.Context, ownerID string) (string, string, error) {
	if f.putErr != nil {
		return "", "", f.putErr
	}
	return "media/" + ownerID + "/k", "https://put", nil
}

func (f *fakeBlobs) PresignGet(ctx context.Context, key string) (string, error) {
	f.gotKey = key
	return f.getURL, f.getErr
}

type testEnv struct {
	clock   *testClock
	store   *memory.Store
	blobs   *fakeBlobs
	audit   *AuditLog
	media   *MediaService
	view    *ViewService
	reports *ReportService
}

func newEnv(t *testing.T, policy visibility.Policy) *testEnv {
	t.Helper()
	clk := &testClock{t: t0}
	store := memory.NewStore(memory.WithClock(clk.Now))
	blobs := &fakeBlobs{getURL: "https://get"}
	log := logging.Discard()
	audit := NewAuditLog(store, log)

	e := &testEnv{
		clock:   clk,
		store:   store,
		blobs:   blobs,
		audit:   audit,
		media:   NewMediaService(store, audit, blobs, log),
		view:    NewViewService(store, audit, blobs, NewClaimLimiter(0, 0), policy, log),
		reports: NewReportService(store, audit, log),
	}
	e.media.now = clk.Now
	e.view.now = clk.Now
	e.reports.now = clk.Now
	return e
}

// send creates an item from alice to the given recipients in chat c1.
func (e *testEnv) send(t *testing.T, timer int, viewOnce bool, recipients ...string) string {
	t.Helper()
	id, err := e.media.Create(context.Background(), CreateParams{
		OwnerID:      "alice",
		ChatID:       "c1",
		Type:         models.MediaTypeImage,
		StorageRef:   "media/alice/blob",
		TimerSeconds: timer,
		ViewOnce:     viewOnce,
		Recipients:   recipients,
	})
	require.NoError(t, err)
	return id
}

func (e *testEnv) grant(t *testing.T, mediaID, recipient string) *models.PermissionGrant {
	t.Helper()
	g, err := e.store.Grants().Get(context.Background(), mediaID, recipient)
	require.NoError(t, err)
	return g
}

func (e *testEnv) events(t *testing.T, mediaID string, typ models.EventType) []*models.SecurityEvent {
	t.Helper()
	all, err := e.audit.ListByMedia(context.Background(), mediaID)
	require.NoError(t, err)
	var out []*models.SecurityEvent
	for _, ev := range all {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}
