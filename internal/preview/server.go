// Package preview serves a continuously re-rendered document over HTTP for
// local authoring: rebuild on file change, optional fixed-interval rebuild,
// metrics and run history on the side.
package preview

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron/v2"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"git.home.luguber.info/inful/docweave/internal/flatten"
	ferrors "git.home.luguber.info/inful/docweave/internal/foundation/errors"
	"git.home.luguber.info/inful/docweave/internal/logfields"
	"git.home.luguber.info/inful/docweave/internal/observability"
	"git.home.luguber.info/inful/docweave/internal/state"
)

// debounceWindow coalesces editor write bursts into one rebuild.
const debounceWindow = 200 * time.Millisecond

// Options configures a preview server.
type Options struct {
	RootFile        string
	Address         string
	Watch           bool
	RebuildInterval time.Duration
	Registry        *prom.Registry
	Store           *state.Store // optional run history
}

// Server renders one root file and serves the latest result.
type Server struct {
	proc *flatten.Processor
	opts Options

	mu      sync.RWMutex
	current string
	lastErr error
	builtAt time.Time
}

// New creates a preview server around an existing processor.
func New(proc *flatten.Processor, opts Options) *Server {
	return &Server{proc: proc, opts: opts}
}

// Run builds once, then serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.rebuild(ctx)

	rebuildCh := make(chan struct{}, 1)
	requestRebuild := func() {
		select {
		case rebuildCh <- struct{}{}:
		default:
		}
	}

	if s.opts.Watch {
		watcher, err := s.startWatcher(requestRebuild)
		if err != nil {
			return err
		}
		defer func() { _ = watcher.Close() }()
	}

	if s.opts.RebuildInterval > 0 {
		scheduler, err := gocron.NewScheduler()
		if err != nil {
			return ferrors.WrapError(err, ferrors.CategoryInternal, "create rebuild scheduler").Build()
		}
		if _, err := scheduler.NewJob(
			gocron.DurationJob(s.opts.RebuildInterval),
			gocron.NewTask(requestRebuild),
		); err != nil {
			return ferrors.WrapError(err, ferrors.CategoryInternal, "schedule rebuild job").Build()
		}
		scheduler.Start()
		defer func() { _ = scheduler.Shutdown() }()
	}

	go func() {
		debounce := time.NewTimer(0)
		if !debounce.Stop() {
			<-debounce.C
		}
		for {
			select {
			case <-ctx.Done():
				return
			case <-rebuildCh:
				debounce.Reset(debounceWindow)
			case <-debounce.C:
				s.rebuild(ctx)
			}
		}
	}()

	srv := &http.Server{
		Addr:              s.opts.Address,
		Handler:           s.handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	observability.InfoContext(ctx, "Preview server listening",
		logfields.Path(s.opts.RootFile), logfields.Src(s.opts.Address))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		s.mu.RLock()
		current, lastErr := s.current, s.lastErr
		s.mu.RUnlock()

		if lastErr != nil {
			http.Error(w, lastErr.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(current))
	})

	if s.opts.Registry != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(s.opts.Registry, promhttp.HandlerOpts{}))
	}

	if s.opts.Store != nil {
		mux.HandleFunc("/runs", func(w http.ResponseWriter, r *http.Request) {
			runs, err := s.opts.Store.Recent(r.Context(), 50)
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(runs)
		})
	}

	return mux
}

// startWatcher watches the root file's directory tree.
func (s *Server) startWatcher(onChange func()) (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "create file watcher").Build()
	}

	rootDir := filepath.Dir(s.opts.RootFile)
	walkErr := filepath.WalkDir(rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
	if walkErr != nil {
		_ = watcher.Close()
		return nil, ferrors.WrapError(walkErr, ferrors.CategoryFileSystem, "watch source tree").
			WithContext("dir", rootDir).Build()
	}

	go func() {
		for {
			select {
			case evt, ok := <-watcher.Events:
				if !ok {
					return
				}
				if evt.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
					// New directories need watching too.
					if evt.Op&fsnotify.Create != 0 {
						if info, err := os.Stat(evt.Name); err == nil && info.IsDir() {
							_ = watcher.Add(evt.Name)
						}
					}
					onChange()
				}
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	return watcher, nil
}

func (s *Server) rebuild(ctx context.Context) {
	s.proc.ResetCache()
	res, err := s.proc.RenderFile(ctx, s.opts.RootFile)

	s.mu.Lock()
	s.lastErr = err
	if err == nil {
		s.current = res.Output
		s.builtAt = time.Now()
	}
	s.mu.Unlock()

	if err != nil {
		observability.ErrorContext(ctx, "Preview rebuild failed", logfields.Error(err))
		return
	}
	observability.InfoContext(ctx, "Preview rebuilt",
		logfields.DurationMS(float64(res.Duration.Milliseconds())))
}
