// RPO Engine - Sales Performance Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rpoengine

package services

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/rpoengine/internal/config"
)

var _ suture.Service = (*HTTPServerService)(nil)

// fakeServer blocks in ListenAndServe until Shutdown, unless listenErr is set.
type fakeServer struct {
	listenErr   error
	shutdownErr error
	started     chan struct{}
	stopped     chan struct{}
	// shutdownBudget is the time left on the Shutdown context when it was called.
	shutdownBudget time.Duration
}

func newFakeServer() *fakeServer {
	return &fakeServer{started: make(chan struct{}), stopped: make(chan struct{})}
}

func (f *fakeServer) ListenAndServe() error {
	close(f.started)
	if f.listenErr != nil {
		return f.listenErr
	}
	<-f.stopped
	return http.ErrServerClosed
}

func (f *fakeServer) Shutdown(ctx context.Context) error {
	if dl, ok := ctx.Deadline(); ok {
		f.shutdownBudget = time.Until(dl)
	}
	close(f.stopped)
	return f.shutdownErr
}

// serveUntilStarted runs svc and waits for the fake to be listening.
func serveUntilStarted(t *testing.T, svc *HTTPServerService, f *fakeServer) (context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()
	select {
	case <-f.started:
	case <-time.After(time.Second):
		cancel()
		t.Fatal("server did not start")
	}
	return cancel, errCh
}

func TestNewHTTPServer(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.ServerConfig
		wantAddr string
	}{
		{"all interfaces", config.ServerConfig{Host: "0.0.0.0", Port: 3857, Timeout: 30 * time.Second}, "0.0.0.0:3857"},
		{"loopback", config.ServerConfig{Host: "127.0.0.1", Port: 8080, Timeout: 2 * time.Minute}, "127.0.0.1:8080"},
		{"ipv6", config.ServerConfig{Host: "::1", Port: 9000, Timeout: time.Second}, "[::1]:9000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewHTTPServer(tt.cfg, http.NotFoundHandler())
			if s.Addr != tt.wantAddr {
				t.Errorf("Addr = %q, want %q", s.Addr, tt.wantAddr)
			}
			if s.ReadTimeout != tt.cfg.Timeout || s.WriteTimeout != tt.cfg.Timeout {
				t.Errorf("read/write = %v/%v, want %v", s.ReadTimeout, s.WriteTimeout, tt.cfg.Timeout)
			}
			if s.IdleTimeout != 2*tt.cfg.Timeout {
				t.Errorf("IdleTimeout = %v", s.IdleTimeout)
			}
			if s.ReadHeaderTimeout != 10*time.Second {
				t.Errorf("ReadHeaderTimeout = %v", s.ReadHeaderTimeout)
			}
		})
	}
}

func TestShutdownTimeout(t *testing.T) {
	tests := []struct {
		name       string
		configured time.Duration
		want       time.Duration
	}{
		{"unset", 0, DefaultShutdownTimeout},
		{"negative", -time.Second, DefaultShutdownTimeout},
		{"configured", 3 * time.Second, 3 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeServer()
			svc := NewHTTPServerService(f, tt.configured)
			cancel, errCh := serveUntilStarted(t, svc, f)
			cancel()
			if err := <-errCh; !errors.Is(err, context.Canceled) {
				t.Fatalf("Serve = %v, want context.Canceled", err)
			}
			if f.shutdownBudget > tt.want || f.shutdownBudget < tt.want-time.Second {
				t.Errorf("shutdown budget = %v, want about %v", f.shutdownBudget, tt.want)
			}
		})
	}
}

func TestServeErrors(t *testing.T) {
	t.Run("bind failure", func(t *testing.T) {
		bindErr := errors.New("bind: address already in use")
		f := newFakeServer()
		f.listenErr = bindErr
		err := NewHTTPServerService(f, time.Second).Serve(context.Background())
		if !errors.Is(err, bindErr) {
			t.Errorf("Serve = %v, want %v", err, bindErr)
		}
	})

	t.Run("shutdown failure", func(t *testing.T) {
		stuck := errors.New("connections still open")
		f := newFakeServer()
		f.shutdownErr = stuck
		cancel, errCh := serveUntilStarted(t, NewHTTPServerService(f, time.Second), f)
		cancel()
		if err := <-errCh; !errors.Is(err, stuck) {
			t.Errorf("Serve = %v, want %v", err, stuck)
		}
	})
}

func TestHTTPServiceUnderSupervisor(t *testing.T) {
	f := newFakeServer()
	svc := NewHTTPServerService(f, time.Second)
	if svc.String() != "http-server" {
		t.Errorf("String = %q", svc.String())
	}

	sup := suture.New("api", suture.Spec{Timeout: 2 * time.Second})
	sup.Add(svc)
	ctx, cancel := context.WithCancel(context.Background())
	done := sup.ServeBackground(ctx)

	select {
	case <-f.started:
	case <-time.After(time.Second):
		t.Fatal("supervisor did not start the server")
	}
	cancel()
	<-done

	select {
	case <-f.stopped:
	default:
		t.Error("server was not shut down")
	}
}

func TestNewHTTPServerServesHandler(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "ok")
	})
	server := NewHTTPServer(config.ServerConfig{Host: "127.0.0.1", Port: port, Timeout: 5 * time.Second}, handler)
	if server.Addr != "127.0.0.1:"+strconv.Itoa(port) {
		t.Fatalf("Addr = %q", server.Addr)
	}

	svc := NewHTTPServerService(server, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	url := "http://" + server.Addr + "/"
	var resp *http.Response
	deadline := time.Now().Add(2 * time.Second)
	for {
		resp, err = http.Get(url)
		if err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("server never answered: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != "ok" {
		t.Errorf("body = %q", body)
	}

	cancel()
	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve = %v, want context.Canceled", err)
	}
}
