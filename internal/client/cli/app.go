package cli

import (
	"bufio"
	"context"
	"database/sql"
	"io"
	"log"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/vanish/internal/client/client"
	"github.com/dmitrijs2005/vanish/internal/client/config"
	"github.com/dmitrijs2005/vanish/internal/client/flow"
	"github.com/dmitrijs2005/vanish/internal/client/playback"
	"github.com/dmitrijs2005/vanish/internal/client/repositories/pending"
	"github.com/dmitrijs2005/vanish/internal/client/viewer"
	"github.com/dmitrijs2005/vanish/internal/filex"
	"github.com/dmitrijs2005/vanish/internal/logging"
	"golang.org/x/term"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// tokenHolder is implemented by clients whose token can change at runtime.
type tokenHolder interface {
	AccessToken() string
	SetAccessToken(token string)
}

// upload is what the upload flow hands to the create flow.
type upload struct {
	Key  string
	Kind string
}

type App struct {
	config  *config.Config
	api     client.Client
	db      *sql.DB
	outbox  pending.Repository
	retrier *viewer.Retrier
	player  *playback.Coordinator
	logger  logging.Logger
	reader  *bufio.Reader
	out     io.Writer
	isTTY   bool

	mu      sync.Mutex
	mode    Mode
	uploads *flow.Future[upload]
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	if _, err := filex.EnsureParentDir(c.PendingDBPath); err != nil {
		return nil, err
	}

	db, err := client.InitDatabase(ctx, c.PendingDBPath)
	if err != nil {
		log.Printf("error initializing database: %s", err.Error())
		return nil, err
	}

	apiClient, err := client.NewVanishClient(c.ServerEndpointAddr, c.AccessToken)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	a := newApp(c, apiClient, pending.NewSQLiteRepository(db), os.Stdin, os.Stdout)
	a.db = db
	a.isTTY = term.IsTerminal(int(os.Stdout.Fd()))
	return a, nil
}

func newApp(c *config.Config, api client.Client, outbox pending.Repository, in io.Reader, out io.Writer) *App {
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))
	return &App{
		config:  c,
		api:     api,
		outbox:  outbox,
		retrier: viewer.NewRetrier(api, outbox, c.RetryInterval, logger),
		player:  playback.NewCoordinator(),
		logger:  logger,
		reader:  bufio.NewReader(in),
		out:     &lockedWriter{w: out},
		uploads: flow.NewFuture[upload](),
	}
}

func (a *App) setMode(mode Mode) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.mode != mode {
		a.mode = mode
		log.Printf("Switched to %s mode\n", mode)
	}
}

func (a *App) currentMode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

func (a *App) isLoggedIn() bool {
	th, ok := a.api.(tokenHolder)
	return !ok || th.AccessToken() != ""
}

// Run starts the background workers and blocks in the REPL.
func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer a.Close()

	go a.retrier.Run(ctx)
	go a.StartOnlineStatusWatcher(ctx, 5*time.Second)

	a.Root(ctx)
}

func (a *App) Close() {
	if err := a.api.Close(); err != nil {
		log.Printf("close client: %v", err)
	}
	if a.db != nil {
		_ = a.db.Close()
	}
}

func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := a.api.Ping(pctx)
		cancel()

		if err != nil {
			a.setMode(ModeOffline)
		} else {
			a.setMode(ModeOnline)
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}

// lockedWriter serialises output of the REPL and the countdown renderer.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
