// Curatarr - Curated Plex Collection Synchronization
// Copyright 2026 Curatarr Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/curatarr/curatarr

package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestObservabilityHandler(t *testing.T) {
	handler := NewObservabilityHandler()

	t.Run("healthz", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
			t.Errorf("body = %q", rec.Body.String())
		}
	})

	t.Run("metrics", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "# HELP") {
			t.Error("metrics exposition missing")
		}
	})

	t.Run("unknown path", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/anything", nil))
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})
}

// blockingServer imitates http.Server: ListenAndServe blocks until Shutdown.
type blockingServer struct {
	started  chan struct{}
	release  chan struct{}
	shutdown bool
}

func newBlockingServer() *blockingServer {
	return &blockingServer{started: make(chan struct{}), release: make(chan struct{})}
}

func (b *blockingServer) ListenAndServe() error {
	close(b.started)
	<-b.release
	return http.ErrServerClosed
}

func (b *blockingServer) Shutdown(_ context.Context) error {
	b.shutdown = true
	close(b.release)
	return nil
}

func TestHTTPServiceGracefulShutdown(t *testing.T) {
	server := newBlockingServer()
	svc := NewHTTPService(server, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	<-server.started
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Serve returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
	if !server.shutdown {
		t.Error("Shutdown was never called")
	}
}

type failingServer struct{}

func (failingServer) ListenAndServe() error            { return errors.New("bind: address in use") }
func (failingServer) Shutdown(_ context.Context) error { return nil }

func TestHTTPServiceStartupFailure(t *testing.T) {
	svc := NewHTTPService(failingServer{}, time.Second)
	if err := svc.Serve(context.Background()); err == nil {
		t.Fatal("expected startup error to surface")
	}
}
