package cli

import (
	"bufio"
	"context"
	"database/sql"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/medkeeper/internal/client/client"
	"github.com/dmitrijs2005/medkeeper/internal/client/config"
	"github.com/dmitrijs2005/medkeeper/internal/client/profiles"
	"github.com/dmitrijs2005/medkeeper/internal/client/services"
	"github.com/dmitrijs2005/medkeeper/internal/client/unlock"
	"github.com/dmitrijs2005/medkeeper/internal/cryptox"
	"github.com/dmitrijs2005/medkeeper/internal/keystore"
	"github.com/dmitrijs2005/medkeeper/internal/logging"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// unlocker is the part of unlock.Controller the CLI drives.
type unlocker interface {
	AttemptUnlock(ctx context.Context, password []byte) error
	IsUnlocked() bool
	Lock()
	State() unlock.State
}

// masterKeyHolder gives scoped access to the session master key.
type masterKeyHolder interface {
	WithMasterKey(fn func(key cryptox.Key) error) error
}

type App struct {
	config *config.Config
	log    logging.Logger

	client client.Client
	auth   authenticator
	db     *sql.DB

	unlocker unlocker
	keys     masterKeyHolder
	busy     *busyIndicator

	reader *bufio.Reader
	out    io.Writer

	mu             sync.Mutex
	mode           Mode
	userID         string
	userName       string
	failedAttempts int
}

func NewApp(c *config.Config, log logging.Logger) (*App, error) {
	ctx := context.Background()

	kdf, err := cryptox.NewKDF(c.KDFAlgorithm)
	if err != nil {
		return nil, err
	}

	db, err := client.InitDatabase(ctx, c.DatabaseDSN)
	if err != nil {
		log.Error(ctx, "error initializing database", "error", err)
		return nil, err
	}

	apiClient, err := client.NewProfileClient(c.ServerEndpointAddr)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	authSvc := services.NewAuthService(apiClient, db, kdf, log)

	keys := keystore.New()
	remote := profiles.NewRemoteStore(apiClient).WithRefresher(authSvc)
	store := profiles.NewCachedStore(remote, db, log)
	ctrl := unlock.NewController(store, keys, kdf, log)

	a := &App{
		config:   c,
		log:      log.With("module", "cli"),
		client:   apiClient,
		auth:     authSvc,
		db:       db,
		unlocker: ctrl,
		keys:     keys,
		busy:     newBusyIndicator(os.Stderr),
		reader:   bufio.NewReader(os.Stdin),
		out:      os.Stdout,
	}
	ctrl.OnStateChange(a.busy.update)

	return a, nil
}

// Run restores a saved session, starts the connectivity watcher and blocks
// in the REPL until the user exits or ctx is done.
func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer a.close()

	if err := a.restoreSession(ctx); err != nil {
		a.log.Warn(ctx, "failed to restore session", "error", err)
	}

	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)

	printlnFn("Welcome to medkeeper CLI (type 'help' for commands)")
	runREPL(ctx, a, a.getStatus, a.reader)
}

func (a *App) close() {
	if a.unlocker != nil {
		a.unlocker.Lock()
	}
	if a.client != nil {
		_ = a.client.Close()
	}
	if a.db != nil {
		_ = a.db.Close()
	}
	keystore.Purge()
}

func (a *App) isUnlocked() bool {
	return a.unlocker != nil && a.unlocker.IsUnlocked()
}

func (a *App) Mode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

func (a *App) setMode(mode Mode) {
	a.mu.Lock()
	changed := a.mode != mode
	a.mode = mode
	a.mu.Unlock()

	if changed {
		a.log.Info(context.Background(), "connectivity changed", "mode", string(mode))
	}
}

func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	a.checkConnectivity(ctx)
	for {
		select {
		case <-ticker.C:
			a.checkConnectivity(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) checkConnectivity(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := a.client.Ping(ctx); err != nil {
		a.setMode(ModeOffline)
		return
	}
	a.setMode(ModeOnline)
}
