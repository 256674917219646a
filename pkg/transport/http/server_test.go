package http

import (
	"context"
	"io"
	"net"
	gohttp "net/http"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/rhuss/coursehub/pkg/auth"
	"github.com/rhuss/coursehub/pkg/auth/basic"
	"github.com/rhuss/coursehub/pkg/storage/memory"
)

func testDeps(t *testing.T) Deps {
	t.Helper()
	store := memory.New()
	hasher, err := auth.NewBcryptHasher(bcrypt.MinCost)
	if err != nil {
		t.Fatalf("NewBcryptHasher: %v", err)
	}
	return Deps{
		Store:         store,
		Hasher:        hasher,
		Authenticator: basic.New(store, hasher),
	}
}

func TestServerStartsAndAcceptsRequests(t *testing.T) {
	srv := NewServer(testDeps(t), WithAddr("127.0.0.1:0"))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen error: %v", err)
	}
	addr := ln.Addr().String()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.ServeOn(ctx, ln) }()

	resp, err := gohttp.Get("http://" + addr + "/")
	if err != nil {
		t.Fatalf("GET error: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if resp.StatusCode != gohttp.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, gohttp.StatusOK)
	}
	if len(body) == 0 {
		t.Error("empty welcome body")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("ServeOn returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop after cancel")
	}
}

func TestServerFunctionalOptions(t *testing.T) {
	srv := NewServer(testDeps(t),
		WithAddr(":9999"),
		WithMaxBodySize(1024),
		WithMetricsPath(""),
		WithTimeouts(5*time.Second, 7*time.Second),
		WithShutdownTimeout(10*time.Second),
	)

	if srv.config.Addr != ":9999" {
		t.Errorf("addr = %q, want %q", srv.config.Addr, ":9999")
	}
	if srv.config.MaxBodySize != 1024 {
		t.Errorf("max body size = %d, want %d", srv.config.MaxBodySize, 1024)
	}
	if srv.config.ShutdownTimeout != 10*time.Second {
		t.Errorf("shutdown timeout = %v, want %v", srv.config.ShutdownTimeout, 10*time.Second)
	}
	if srv.httpServer.ReadTimeout != 5*time.Second || srv.httpServer.WriteTimeout != 7*time.Second {
		t.Errorf("timeouts = %v/%v, want 5s/7s", srv.httpServer.ReadTimeout, srv.httpServer.WriteTimeout)
	}
	if srv.adapter.config.MetricsPath != "" {
		t.Errorf("metrics path = %q, want disabled", srv.adapter.config.MetricsPath)
	}
}
