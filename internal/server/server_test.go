package server

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/foodgram/gateway/internal/testutil"
)

func listen(t *testing.T) net.Listener {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	return ln
}

func TestServer_ServeAndShutdown(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "pong")
	})
	srv := New("public", handler, "127.0.0.1:0", Timeouts{Shutdown: 2 * time.Second}, testutil.DiscardLogger())

	var (
		mu    sync.Mutex
		order []string
	)
	record := func(name string) ShutdownFunc {
		return func(context.Context) error {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			return nil
		}
	}
	srv.OnShutdown("redis", record("redis"))
	srv.OnShutdown("watcher", record("watcher"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, listen(t)) }()

	<-srv.Ready()
	resp, err := http.Get("http://" + srv.Addr() + "/ping")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != "pong" {
		t.Errorf("body = %q, want pong", body)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}

	if strings.Join(order, ",") != "watcher,redis" {
		t.Errorf("shutdown order = %v, want LIFO", order)
	}
}

func TestServer_ShutdownErrorsJoined(t *testing.T) {
	srv := New("ops", http.NotFoundHandler(), "127.0.0.1:0", Timeouts{}, testutil.DiscardLogger())

	errA := errors.New("close redis")
	errB := errors.New("close postgres")
	srv.OnShutdown("a", func(context.Context) error { return errA })
	srv.OnShutdown("b", func(context.Context) error { return errB })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := srv.Serve(ctx, listen(t))
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Errorf("expected both shutdown errors, got %v", err)
	}
}

func TestServer_RunListenError(t *testing.T) {
	ln := listen(t)
	defer ln.Close()

	srv := New("public", http.NotFoundHandler(), ln.Addr().String(), Timeouts{}, testutil.DiscardLogger())
	if err := srv.Run(context.Background()); err == nil {
		t.Error("expected error when address is in use")
	}
}

func TestServer_Addr(t *testing.T) {
	srv := New("public", http.NotFoundHandler(), ":8080", Timeouts{}, testutil.DiscardLogger())
	if srv.Addr() != ":8080" {
		t.Errorf("Addr() = %q before serving", srv.Addr())
	}
	if srv.Name() != "public" {
		t.Errorf("Name() = %q", srv.Name())
	}
}
