package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"premiere/internal/alerts"
	"premiere/internal/config"
	"premiere/internal/daemon"
	"premiere/internal/daemonrun"
	"premiere/internal/testsupport"
	"premiere/internal/tracker"
)

var cliNow = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

type sentMessage struct {
	UserID  string
	Message string
}

type recordingDeliverer struct {
	mu   sync.Mutex
	sent []sentMessage
}

func (r *recordingDeliverer) Name() string { return "recording" }

func (r *recordingDeliverer) Deliver(_ context.Context, userID, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sentMessage{UserID: userID, Message: message})
	return nil
}

func (r *recordingDeliverer) messages() []sentMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]sentMessage(nil), r.sent...)
}

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	provider   *testsupport.FakeProvider
	deliverer  *recordingDeliverer
	clock      *testsupport.Clock
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, opts...)
	t.Setenv("HOME", filepath.Join(testsupport.BaseDir(cfg), "home"))

	env := &cliTestEnv{
		cfg:        cfg,
		configPath: filepath.Join(testsupport.BaseDir(cfg), "config.toml"),
		provider:   testsupport.NewFakeProvider(),
		deliverer:  &recordingDeliverer{},
		clock:      testsupport.NewClock(cliNow),
	}
	env.writeConfig(t)
	return env
}

func (e *cliTestEnv) writeConfig(t *testing.T) {
	t.Helper()
	data, err := toml.Marshal(e.cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(e.configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

// build wires components around the fake provider and recording deliverer.
func (e *cliTestEnv) build(cfg *config.Config, logger *slog.Logger) (*daemonrun.Components, error) {
	store, err := alerts.Open(cfg)
	if err != nil {
		return nil, err
	}
	service, scheduler := tracker.Build(cfg, store, e.provider, logger, tracker.WithClock(e.clock.Now))
	d, err := daemon.New(cfg, scheduler, store, e.deliverer, logger, daemon.WithClock(e.clock.Now))
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return &daemonrun.Components{
		Config:    cfg,
		Logger:    logger,
		Store:     store,
		Provider:  e.provider,
		Service:   service,
		Scheduler: scheduler,
		Deliverer: e.deliverer,
		Daemon:    d,
	}, nil
}

func (e *cliTestEnv) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommandWithBuilder(e.build)
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", e.configPath}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
