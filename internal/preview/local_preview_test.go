package preview

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"git.home.luguber.info/inful/guidebuilder/internal/config"
)

func TestShouldIgnoreEvent(t *testing.T) {
	require.True(t, shouldIgnoreEvent("/tmp/.hidden.md"))
	require.True(t, shouldIgnoreEvent("/tmp/#foo#"))
	require.True(t, shouldIgnoreEvent("/tmp/foo.swp"))
	require.True(t, shouldIgnoreEvent("/tmp/foo.md~"))
	require.True(t, shouldIgnoreEvent("/tmp/.DS_Store"))
	require.True(t, shouldIgnoreEvent("/tmp/4913"))
	require.False(t, shouldIgnoreEvent("/tmp/visible.md"))
	require.False(t, shouldIgnoreEvent("/tmp/finance/intro.mdx"))
}

func TestDebouncer_CoalescesBurst(t *testing.T) {
	defer goleak.VerifyNone(t)

	d := newDebouncer(20 * time.Millisecond)
	defer d.Stop()
	for range 5 {
		d.Trigger()
		time.Sleep(2 * time.Millisecond)
	}

	select {
	case <-d.C():
	case <-time.After(time.Second):
		t.Fatal("no debounced signal")
	}
	select {
	case <-d.C():
		t.Fatal("burst produced more than one signal")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestRebuilder_OneRunningOnePending(t *testing.T) {
	defer goleak.VerifyNone(t)

	var builds atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	build := func(context.Context) error {
		builds.Add(1)
		once.Do(func() {
			close(started)
			<-release
		})
		return nil
	}

	status := &buildStatus{}
	r := newRebuilder(build, status, nil)
	ctx, cancel := context.WithCancel(context.Background())
	go r.Run(ctx)

	r.Request(triggerWatch)
	<-started
	for range 10 {
		r.Request(triggerWatch)
	}
	close(release)

	require.Eventually(t, func() bool { return builds.Load() == 2 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	require.EqualValues(t, 2, builds.Load())

	err, good := status.getStatus()
	require.NoError(t, err)
	require.True(t, good)

	cancel()
	<-r.Done()
}

func TestRebuilder_RecordsFailure(t *testing.T) {
	status := &buildStatus{}
	r := newRebuilder(func(context.Context) error { return errors.New("bad guide") }, status, nil)
	r.rebuild(context.Background(), triggerInitial)

	err, good := status.getStatus()
	require.EqualError(t, err, "bad guide")
	require.False(t, good)
}

func TestHandler_ShowsErrorUntilFirstGoodBuild(t *testing.T) {
	out := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(out, "index.html"), []byte("home"), 0o600))
	status := &buildStatus{}
	status.setError(errors.New("missing order in finance/intro.md"))

	metricsHit := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { _, _ = io.WriteString(w, "metrics") })
	h := newHandler(out, status, metricsHit)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Contains(t, rec.Body.String(), "missing order in finance/intro.md")

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, "metrics", rec.Body.String())

	status.setSuccess()
	status.setError(errors.New("later failure"))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "home", rec.Body.String())
}

func TestRun_RebuildsOnChange(t *testing.T) {
	base := t.TempDir()
	cfg := &config.Config{
		Content: config.ContentConfig{Directory: filepath.Join(base, "content")},
		Output:  config.OutputConfig{Directory: filepath.Join(base, "public")},
	}
	require.NoError(t, os.MkdirAll(filepath.Join(cfg.Content.Directory, "finance"), 0o750))
	require.NoError(t, os.MkdirAll(cfg.Output.Directory, 0o750))

	var builds atomic.Int32
	build := func(context.Context) error {
		n := builds.Add(1)
		return os.WriteFile(filepath.Join(cfg.Output.Directory, "index.html"), []byte{byte('0' + n)}, 0o600)
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Run(ctx, cfg, build, Options{Listener: ln}) }()

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}, Timeout: time.Second}
	get := func() string {
		resp, err := client.Get("http://" + ln.Addr().String() + "/")
		if err != nil {
			return ""
		}
		defer func() { _ = resp.Body.Close() }()
		body, _ := io.ReadAll(resp.Body)
		return string(body)
	}
	require.Eventually(t, func() bool { return get() == "1" }, 2*time.Second, 10*time.Millisecond)

	// Give the watcher time to register before writing.
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Content.Directory, "finance", "intro.md"), []byte("---\norder: 1\n---\n"), 0o600))
	require.Eventually(t, func() bool { return builds.Load() >= 2 }, 3*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("preview did not shut down")
	}
}
