package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/satpel-tasikmalaya/jembatan/internal/blob"
	"github.com/satpel-tasikmalaya/jembatan/internal/config"
	"github.com/satpel-tasikmalaya/jembatan/internal/dashboard"
	"github.com/satpel-tasikmalaya/jembatan/internal/localstore"
	"github.com/satpel-tasikmalaya/jembatan/internal/logging"
	"github.com/satpel-tasikmalaya/jembatan/internal/metrics"
	"github.com/satpel-tasikmalaya/jembatan/internal/mongostore"
	"github.com/satpel-tasikmalaya/jembatan/internal/view"
	"github.com/satpel-tasikmalaya/jembatan/pkg/types"
)

// session is one started dashboard with every store it was built from.
// The caller must call close.
type session struct {
	cfg       types.Config
	log       *logrus.Logger
	logCloser io.Closer
	local     *localstore.Store
	remote    *mongostore.Store
	board     *view.Board
	metrics   *metrics.Metrics
	dash      *dashboard.Dashboard
}

// loadConfig resolves the directories and reads config.yaml. The returned
// config carries the resolved data directory.
func (f *rootFlags) loadConfig() (types.Config, error) {
	configDir, err := f.resolveConfigDir()
	if err != nil {
		return types.Config{}, sysError(fmt.Errorf("resolve config dir: %w", err))
	}
	cfg, err := config.Load(configDir)
	if err != nil {
		return types.Config{}, userError(err)
	}
	dataDir, err := f.resolveDataDir(cfg.DataDir)
	if err != nil {
		return types.Config{}, sysError(fmt.Errorf("resolve data dir: %w", err))
	}
	cfg.DataDir = dataDir
	return cfg, nil
}

// openSession loads configuration, attaches the local store, connects
// the optional remote and photo stores, and starts a dashboard. A remote
// or photo store that cannot be reached is logged and left out.
func (f *rootFlags) openSession(ctx context.Context) (*session, error) {
	cfg, err := f.loadConfig()
	if err != nil {
		return nil, err
	}
	log, logCloser, err := logging.New(cfg.Log)
	if err != nil {
		return nil, userError(err)
	}

	s := &session{
		cfg:       cfg,
		log:       log,
		logCloser: logCloser,
		local:     localstore.NewStore(),
		board:     view.NewBoard(),
		metrics:   metrics.New(nil),
	}
	if err := s.local.Attach(cfg.DataDir); err != nil {
		logCloser.Close()
		return nil, sysError(fmt.Errorf("attach local store: %w", err))
	}

	opts := dashboard.Options{
		Local: s.local,
		Surfaces: dashboard.Surfaces{
			Map: s.board, List: s.board, Cards: s.board, Status: s.board, Stats: s.board,
		},
		Logger:   log,
		Observer: s.metrics,
	}
	if cfg.Remote.Enabled() {
		remote, err := mongostore.Connect(ctx, cfg.Remote, log)
		if err != nil {
			log.WithError(err).Warn("remote store unavailable, using local storage")
		} else {
			s.remote = remote
			opts.Remote = remote
		}
	}
	if cfg.Photos.Enabled() {
		photos, err := blob.New(ctx, cfg.Photos)
		if err != nil {
			log.WithError(err).Warn("photo storage unavailable")
		} else {
			opts.Photos = photos
		}
	}

	s.dash, err = dashboard.New(opts)
	if err != nil {
		s.close()
		return nil, sysError(err)
	}
	if err := s.dash.Start(ctx); err != nil {
		s.close()
		return nil, sysError(err)
	}
	return s, nil
}

// mirror refreshes the local snapshot from the remote store after a write,
// so the change is kept even when its change-stream push has not arrived
// before the session closes.
func (s *session) mirror(ctx context.Context) {
	if err := s.dash.Sync(ctx); err != nil {
		s.log.WithError(err).Warn("mirroring remote records")
	}
}

// close releases the dashboard and every store. Errors are logged.
func (s *session) close() {
	if s.dash != nil {
		if err := s.dash.Close(); err != nil {
			s.log.WithError(err).Warn("closing dashboard")
		}
	}
	if s.remote != nil {
		if err := s.remote.Close(context.Background()); err != nil {
			s.log.WithError(err).Warn("closing remote store")
		}
	}
	if err := s.local.Detach(); err != nil {
		s.log.WithError(err).Warn("detaching local store")
	}
	s.logCloser.Close()
}
