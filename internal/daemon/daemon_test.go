package daemon_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"premiere/internal/alerts"
	"premiere/internal/config"
	"premiere/internal/daemon"
	"premiere/internal/logging"
	"premiere/internal/testsupport"
	"premiere/internal/tracker"
)

var cycleDay = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

type recordingDeliverer struct {
	mu   sync.Mutex
	sent map[string][]string
	fail map[string]error
}

func newRecordingDeliverer() *recordingDeliverer {
	return &recordingDeliverer{sent: make(map[string][]string), fail: make(map[string]error)}
}

func (r *recordingDeliverer) Name() string { return "recording" }

func (r *recordingDeliverer) Deliver(_ context.Context, userID, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail[userID]; err != nil {
		return err
	}
	r.sent[userID] = append(r.sent[userID], message)
	return nil
}

func (r *recordingDeliverer) messages(userID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.sent[userID]...)
}

// blockingRunner holds RunCycle until release is closed.
type blockingRunner struct {
	entered chan struct{}
	release chan struct{}
	ctxErr  chan error
}

func newBlockingRunner() *blockingRunner {
	return &blockingRunner{
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
		ctxErr:  make(chan error, 1),
	}
}

func (b *blockingRunner) RunCycle(ctx context.Context, asOf time.Time) (tracker.CycleResult, error) {
	b.entered <- struct{}{}
	<-b.release
	b.ctxErr <- ctx.Err()
	return tracker.CycleResult{AsOf: asOf}, nil
}

type harness struct {
	cfg       *config.Config
	store     *alerts.Store
	provider  *testsupport.FakeProvider
	clock     *testsupport.Clock
	deliverer *recordingDeliverer
	scheduler *tracker.Scheduler
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	provider := testsupport.NewFakeProvider()
	clock := testsupport.NewClock(cycleDay)
	_, scheduler := tracker.Build(cfg, store, provider, logging.NewNop(), tracker.WithClock(clock.Now))
	return &harness{
		cfg:       cfg,
		store:     store,
		provider:  provider,
		clock:     clock,
		deliverer: newRecordingDeliverer(),
		scheduler: scheduler,
	}
}

func (h *harness) daemon(t *testing.T, runner daemon.CycleRunner) *daemon.Daemon {
	t.Helper()
	if runner == nil {
		runner = h.scheduler
	}
	d, err := daemon.New(h.cfg, runner, h.store, h.deliverer, logging.NewNop(), daemon.WithClock(h.clock.Now))
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func TestDaemonStartStop(t *testing.T) {
	h := newHarness(t)
	d := h.daemon(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	status := d.Status(ctx)
	if !status.Running {
		t.Fatal("expected daemon to report running")
	}
	if status.NextRun.IsZero() {
		// The loop publishes the next run asynchronously.
		deadline := time.Now().Add(time.Second)
		for status.NextRun.IsZero() && time.Now().Before(deadline) {
			time.Sleep(10 * time.Millisecond)
			status = d.Status(ctx)
		}
	}
	if want := time.Date(2025, 3, 2, 9, 30, 0, 0, time.UTC); !status.NextRun.Equal(want) {
		t.Fatalf("next run = %v, want %v", status.NextRun, want)
	}

	// Second start should fail
	if err := d.Start(ctx); err == nil {
		t.Fatal("expected second start to fail")
	}

	d.Stop()
	status = d.Status(ctx)
	if status.Running {
		t.Fatal("expected daemon to be stopped")
	}
}

func TestSecondInstanceIsLockedOut(t *testing.T) {
	h := newHarness(t)
	first := h.daemon(t, nil)
	second := h.daemon(t, nil)

	ctx := context.Background()
	if err := first.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := second.Start(ctx); !errors.Is(err, daemon.ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
	if _, err := second.RunOnce(ctx, cycleDay); !errors.Is(err, daemon.ErrLocked) {
		t.Fatalf("expected RunOnce to be locked out, got %v", err)
	}

	first.Stop()
	if _, err := second.RunOnce(ctx, cycleDay); err != nil {
		t.Fatalf("RunOnce after stop: %v", err)
	}
}

func TestRunOnceDeliversNotifications(t *testing.T) {
	h := newHarness(t)
	h.provider.AddMovie("movie-1", "Arrival", 2025)
	testsupport.MustInsert(t, h.store, "u1", "movie-1", "", cycleDay)
	testsupport.MustInsert(t, h.store, "u2", "movie-1", "", cycleDay)
	testsupport.MustInsert(t, h.store, "u3", "movie-1", "", cycleDay.AddDate(0, 0, 3))
	d := h.daemon(t, nil)

	summary, err := d.RunOnce(context.Background(), cycleDay)
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if summary.ID == "" {
		t.Fatal("expected a cycle id")
	}
	if summary.Due != 2 || summary.Processed != 2 || summary.Delivered != 2 || summary.DeliveryFailed != 0 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	for _, user := range []string{"u1", "u2"} {
		got := h.deliverer.messages(user)
		if len(got) != 1 || !strings.HasPrefix(got[0], tracker.MessageMovieOut) {
			t.Fatalf("%s received %q", user, got)
		}
	}
	if got := h.deliverer.messages("u3"); len(got) != 0 {
		t.Fatalf("future release delivered early: %q", got)
	}

	status := d.Status(context.Background())
	if status.LastCycle == nil || status.LastCycle.ID != summary.ID {
		t.Fatalf("expected last cycle %s, got %+v", summary.ID, status.LastCycle)
	}
	if status.Alerts.Total != 1 || status.Alerts.Due != 0 {
		t.Fatalf("unexpected alert stats %+v", status.Alerts)
	}
	if status.DatabasePath != h.cfg.DatabasePath() || status.LockFilePath != h.cfg.LockPath() {
		t.Fatalf("unexpected paths in %+v", status)
	}
}

func TestDeliveryFailureDoesNotRestoreRecord(t *testing.T) {
	h := newHarness(t)
	h.provider.AddMovie("movie-1", "Arrival", 2025)
	testsupport.MustInsert(t, h.store, "u1", "movie-1", "", cycleDay)
	testsupport.MustInsert(t, h.store, "u2", "movie-1", "", cycleDay)
	h.deliverer.fail["u1"] = errors.New("chat not found")
	d := h.daemon(t, nil)

	summary, err := d.RunOnce(context.Background(), cycleDay)
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if summary.Delivered != 1 || summary.DeliveryFailed != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	rec, err := h.store.Get(context.Background(), alerts.Key{UserID: "u1", TitleID: "movie-1"})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec != nil {
		t.Fatalf("record restored after failed delivery: %+v", rec)
	}
}

func TestRunNowRequiresStartedDaemon(t *testing.T) {
	h := newHarness(t)
	d := h.daemon(t, nil)
	if _, err := d.RunNow(context.Background(), cycleDay); !errors.Is(err, daemon.ErrNotRunning) {
		t.Fatalf("expected ErrNotRunning, got %v", err)
	}
}

func TestCyclesDoNotOverlap(t *testing.T) {
	h := newHarness(t)
	runner := newBlockingRunner()
	d := h.daemon(t, runner)
	ctx := context.Background()
	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := d.RunNow(ctx, cycleDay)
		done <- err
	}()
	<-runner.entered

	if _, err := d.RunNow(ctx, cycleDay); !errors.Is(err, daemon.ErrCycleRunning) {
		t.Fatalf("expected ErrCycleRunning, got %v", err)
	}
	if !d.Status(ctx).CycleRunning {
		t.Fatal("expected status to report the running cycle")
	}

	close(runner.release)
	if err := <-done; err != nil {
		t.Fatalf("first cycle: %v", err)
	}
}

func TestStopDrainsInFlightCycle(t *testing.T) {
	h := newHarness(t)
	runner := newBlockingRunner()
	d := h.daemon(t, runner)
	ctx, cancel := context.WithCancel(context.Background())
	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	go func() { _, _ = d.RunNow(ctx, cycleDay) }()
	<-runner.entered

	stopped := make(chan struct{})
	go func() {
		cancel()
		d.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("Stop returned before the in-flight cycle finished")
	case <-time.After(50 * time.Millisecond):
	}

	close(runner.release)
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return after the cycle finished")
	}
	if err := <-runner.ctxErr; err != nil {
		t.Fatalf("cycle context was canceled: %v", err)
	}
}

func TestNextRunUsesConfiguredZone(t *testing.T) {
	h := newHarness(t)
	h.cfg.Scheduler.Timezone = "America/New_York"
	h.cfg.Scheduler.RunAt = "08:00"
	if err := h.cfg.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	d := h.daemon(t, nil)
	ny := h.cfg.Location()

	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{"before run time", time.Date(2025, 3, 1, 7, 0, 0, 0, ny), time.Date(2025, 3, 1, 8, 0, 0, 0, ny)},
		{"exactly at run time", time.Date(2025, 3, 1, 8, 0, 0, 0, ny), time.Date(2025, 3, 2, 8, 0, 0, 0, ny)},
		{"after run time", time.Date(2025, 3, 1, 20, 0, 0, 0, ny), time.Date(2025, 3, 2, 8, 0, 0, 0, ny)},
		{"utc input", time.Date(2025, 3, 1, 2, 0, 0, 0, time.UTC), time.Date(2025, 3, 1, 8, 0, 0, 0, ny)},
		{"across dst change", time.Date(2025, 3, 8, 9, 0, 0, 0, ny), time.Date(2025, 3, 9, 8, 0, 0, 0, ny)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := d.NextRun(tc.now); !got.Equal(tc.want) {
				t.Fatalf("NextRun(%v) = %v, want %v", tc.now, got, tc.want)
			}
		})
	}
}
