// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tickit Contributors

package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tickit/tickit/internal/observability"
	"github.com/tickit/tickit/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeMigrator records the calls made by the migrate and status commands.
type fakeMigrator struct {
	mu          sync.Mutex
	calls       []string
	steps       int
	forced      int
	version     uint
	dirty       bool
	status      store.MigrationStatus
	err         error
	closeCalled bool
}

func (m *fakeMigrator) record(call string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
	return m.err
}

func (m *fakeMigrator) Up() error   { return m.record("up") }
func (m *fakeMigrator) Down() error { return m.record("down") }

func (m *fakeMigrator) Steps(n int) error {
	m.steps = n
	return m.record("steps")
}

func (m *fakeMigrator) Version() (uint, bool, error) {
	return m.version, m.dirty, m.record("version")
}

func (m *fakeMigrator) Force(v int) error {
	m.forced = v
	return m.record("force")
}

func (m *fakeMigrator) Status() (store.MigrationStatus, error) {
	return m.status, m.record("status")
}

func (m *fakeMigrator) Close() error {
	m.closeCalled = true
	return nil
}

func (m *fakeMigrator) factory() func(string) (Migrator, error) {
	return func(string) (Migrator, error) { return m, nil }
}

// fakeServer is a Server whose serve loop is driven by the test.
type fakeServer struct {
	mu       sync.Mutex
	addr     string
	startErr error
	errCh    chan error
	started  chan struct{}
	stopped  bool
	handler  http.Handler
}

func newFakeServer(addr string) *fakeServer {
	return &fakeServer{addr: addr, errCh: make(chan error, 1), started: make(chan struct{})}
}

func (s *fakeServer) Start() (<-chan error, error) {
	if s.startErr != nil {
		return nil, s.startErr
	}
	close(s.started)
	return s.errCh, nil
}

func (s *fakeServer) Stop(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.stopped {
		s.stopped = true
		close(s.errCh)
	}
	return nil
}

func (s *fakeServer) Addr() string { return s.addr }

func (s *fakeServer) isStopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

// fakeObsServer adds metrics and keeps the readiness checker for inspection.
type fakeObsServer struct {
	*fakeServer
	metrics *observability.Metrics
	ready   observability.ReadinessChecker
}

func newFakeObsServer(addr string, ready observability.ReadinessChecker) *fakeObsServer {
	return &fakeObsServer{
		fakeServer: newFakeServer(addr),
		metrics:    observability.NewMetrics(prometheus.NewRegistry()),
		ready:      ready,
	}
}

func (s *fakeObsServer) Metrics() *observability.Metrics { return s.metrics }
