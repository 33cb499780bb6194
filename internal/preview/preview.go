// Package preview serves the generated site locally and rebuilds it when
// guides or layouts change.
package preview

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/guidebuilder/internal/config"
	"git.home.luguber.info/inful/guidebuilder/internal/logfields"
	"git.home.luguber.info/inful/guidebuilder/internal/metrics"
)

const (
	debounceDelay   = 300 * time.Millisecond
	shutdownTimeout = 5 * time.Second
)

// BuildFunc performs one full site build.
type BuildFunc func(ctx context.Context) error

// Options configures a preview run.
type Options struct {
	// Listener overrides the listener on preview.port.
	Listener net.Listener
	// MetricsHandler is mounted on /metrics when set.
	MetricsHandler http.Handler
	Recorder       metrics.Recorder
}

// Run builds the site, serves cfg.Output.Directory and rebuilds on change
// until ctx is canceled. The initial build may fail; the server then shows
// the error until a rebuild succeeds.
func Run(ctx context.Context, cfg *config.Config, build BuildFunc, opts Options) error {
	status := &buildStatus{}
	worker := newRebuilder(build, status, opts.Recorder)
	worker.rebuild(ctx, triggerInitial)

	ln := opts.Listener
	if ln == nil {
		var err error
		ln, err = net.Listen("tcp", fmt.Sprintf(":%d", cfg.Preview.Port))
		if err != nil {
			return fmt.Errorf("listen on port %d: %w", cfg.Preview.Port, err)
		}
	}
	srv := &http.Server{
		Handler:           newHandler(cfg.Output.Directory, status, opts.MetricsHandler),
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()
	defer shutdown(srv)
	slog.Info("Preview server listening", logfields.URL("http://"+ln.Addr().String()))

	watcher, err := newWatcher(cfg.Content.Directory, cfg.Render.LayoutsDirectory)
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	workerCtx, stopWorker := context.WithCancel(ctx)
	defer func() {
		stopWorker()
		<-worker.Done()
	}()
	go worker.Run(workerCtx)

	if every := cfg.Preview.RebuildEvery(); every > 0 {
		sched, err := newScheduler(every, worker)
		if err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()
	}

	deb := newDebouncer(debounceDelay)
	defer deb.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("Shutting down preview server...")
			return nil
		case err := <-serveErr:
			if err != nil {
				return fmt.Errorf("preview server: %w", err)
			}
			return nil
		case <-deb.C():
			worker.Request(triggerWatch)
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if handleFileEvent(watcher, ev) {
				deb.Trigger()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watcher error", logfields.Error(err))
		}
	}
}

func shutdown(srv *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Warn("HTTP server shutdown error", logfields.Error(err))
	}
}

var errorPage = template.Must(template.New("error").Parse(`<!DOCTYPE html>
<html><head><title>Build failed</title></head>
<body><h1>Build failed</h1><pre>{{.}}</pre><p>Fix the error and save to rebuild.</p></body></html>
`))

// newHandler serves the output directory. Until a build has succeeded,
// every request gets the last build error instead.
func newHandler(outputDir string, status *buildStatus, metricsHandler http.Handler) http.Handler {
	mux := http.NewServeMux()
	if metricsHandler != nil {
		mux.Handle("/metrics", metricsHandler)
	}
	files := http.FileServer(http.Dir(filepath.Clean(outputDir)))
	mux.Handle("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err, good := status.getStatus(); err != nil && !good {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = errorPage.Execute(w, err.Error())
			return
		}
		files.ServeHTTP(w, r)
	}))
	return mux
}
