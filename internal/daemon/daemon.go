package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"premiere/internal/alerts"
	"premiere/internal/config"
	"premiere/internal/logging"
	"premiere/internal/notifications"
	"premiere/internal/services"
	"premiere/internal/tracker"
)

var (
	// ErrCycleRunning is returned when a cycle is requested while another is in flight.
	ErrCycleRunning = errors.New("scheduling cycle already running")
	// ErrLocked is returned when another process holds the instance lock.
	ErrLocked = errors.New("another premiere instance is already running")
	// ErrNotRunning is returned by operations that need a started daemon.
	ErrNotRunning = errors.New("daemon not running")
)

// CycleRunner runs one scheduling pass.
type CycleRunner interface {
	RunCycle(ctx context.Context, asOf time.Time) (tracker.CycleResult, error)
}

// StatsSource reports alert counts for status output.
type StatsSource interface {
	Stats(ctx context.Context, asOf time.Time) (alerts.Stats, error)
	Path() string
}

// CycleSummary describes a finished cycle.
type CycleSummary struct {
	ID             string    `json:"id"`
	AsOf           time.Time `json:"as_of"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
	Due            int       `json:"due"`
	Processed      int       `json:"processed"`
	Skipped        int       `json:"skipped"`
	Failed         int       `json:"failed"`
	Delivered      int       `json:"delivered"`
	DeliveryFailed int       `json:"delivery_failed"`
	Error          string    `json:"error,omitempty"`
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool          `json:"running"`
	CycleRunning bool          `json:"cycle_running"`
	NextRun      time.Time     `json:"next_run"`
	LastCycle    *CycleSummary `json:"last_cycle,omitempty"`
	Alerts       alerts.Stats  `json:"alerts"`
	DatabasePath string        `json:"database_path"`
	LockFilePath string        `json:"lock_file_path"`
	Deliverer    string        `json:"deliverer"`
}

// Option customizes a Daemon.
type Option func(*Daemon)

// WithClock overrides the wall clock used for scheduling.
func WithClock(now func() time.Time) Option {
	return func(d *Daemon) {
		if now != nil {
			d.now = now
		}
	}
}

// Daemon runs scheduling cycles once a day and enforces single-instance execution.
type Daemon struct {
	cfg       *config.Config
	logger    *slog.Logger
	runner    CycleRunner
	stats     StatsSource
	deliverer notifications.Deliverer
	now       func() time.Time

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cycling atomic.Bool
	cycleMu sync.Mutex

	mu        sync.Mutex
	cancel    context.CancelFunc
	loopDone  chan struct{}
	nextRun   time.Time
	lastCycle *CycleSummary
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, runner CycleRunner, stats StatsSource, deliverer notifications.Deliverer, logger *slog.Logger, opts ...Option) (*Daemon, error) {
	if cfg == nil || runner == nil || stats == nil || deliverer == nil {
		return nil, errors.New("daemon requires config, cycle runner, stats source, and deliverer")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	lockPath := cfg.LockPath()
	d := &Daemon{
		cfg:       cfg,
		logger:    logging.NewComponentLogger(logger, "daemon"),
		runner:    runner,
		stats:     stats,
		deliverer: deliverer,
		now:       time.Now,
		lockPath:  lockPath,
		lock:      flock.New(lockPath),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Start acquires the instance lock and launches the daily timer loop.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return ErrLocked
	}

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	d.mu.Lock()
	d.cancel = cancel
	d.loopDone = done
	d.mu.Unlock()
	d.running.Store(true)

	go func() {
		defer close(done)
		d.loop(loopCtx)
	}()

	d.logger.Info("premiere daemon started",
		logging.String("lock", d.lockPath),
		logging.String("run_at", d.cfg.Scheduler.RunAt),
		logging.String("timezone", d.cfg.Location().String()),
		logging.String("deliverer", d.deliverer.Name()),
	)
	return nil
}

// Stop cancels the timer loop, waits for an in-flight cycle to finish, and
// releases the instance lock.
func (d *Daemon) Stop() {
	if !d.running.Swap(false) {
		return
	}

	d.mu.Lock()
	cancel, done := d.cancel, d.loopDone
	d.cancel, d.loopDone = nil, nil
	d.nextRun = time.Time{}
	d.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
	// Manual cycles hold cycleMu for their whole run.
	d.cycleMu.Lock()
	d.cycleMu.Unlock()

	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.logger.Info("premiere daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	return nil
}

// RunNow runs a cycle for asOf inside a started daemon.
func (d *Daemon) RunNow(ctx context.Context, asOf time.Time) (CycleSummary, error) {
	if !d.running.Load() {
		return CycleSummary{}, ErrNotRunning
	}
	return d.runCycle(ctx, asOf)
}

// RunOnce runs a single cycle without starting the timer loop. It takes the
// instance lock for the duration so it never races a running daemon.
func (d *Daemon) RunOnce(ctx context.Context, asOf time.Time) (CycleSummary, error) {
	if d.running.Load() {
		return d.runCycle(ctx, asOf)
	}
	ok, err := d.lock.TryLock()
	if err != nil {
		return CycleSummary{}, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return CycleSummary{}, ErrLocked
	}
	defer func() {
		if err := d.lock.Unlock(); err != nil {
			d.logger.Warn("failed to release daemon lock", logging.Error(err))
		}
	}()
	return d.runCycle(ctx, asOf)
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	d.mu.Lock()
	next := d.nextRun
	var last *CycleSummary
	if d.lastCycle != nil {
		copied := *d.lastCycle
		last = &copied
	}
	d.mu.Unlock()

	status := Status{
		Running:      d.running.Load(),
		CycleRunning: d.cycling.Load(),
		NextRun:      next,
		LastCycle:    last,
		DatabasePath: d.stats.Path(),
		LockFilePath: d.lockPath,
		Deliverer:    d.deliverer.Name(),
	}
	stats, err := d.stats.Stats(ctx, d.now())
	if err != nil {
		d.logger.Warn("alert stats unavailable", logging.Error(err))
	} else {
		status.Alerts = stats
	}
	return status
}

// NextRun returns the first configured run time strictly after now.
func (d *Daemon) NextRun(now time.Time) time.Time {
	hour, minute := d.cfg.RunAt()
	return nextRunAfter(now, hour, minute, d.cfg.Location())
}

func nextRunAfter(now time.Time, hour, minute int, loc *time.Location) time.Time {
	local := now.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, loc)
	if !next.After(local) {
		next = time.Date(local.Year(), local.Month(), local.Day()+1, hour, minute, 0, 0, loc)
	}
	return next
}

func (d *Daemon) loop(ctx context.Context) {
	if d.cfg.Scheduler.RunOnStart {
		d.scheduledCycle(ctx)
	}
	for {
		next := d.NextRun(d.now())
		d.mu.Lock()
		d.nextRun = next
		d.mu.Unlock()

		d.logger.Debug("next cycle scheduled", logging.Time("next_run", next))
		timer := time.NewTimer(next.Sub(d.now()))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			d.scheduledCycle(ctx)
		}
	}
}

func (d *Daemon) scheduledCycle(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if _, err := d.runCycle(ctx, d.now()); err != nil {
		if errors.Is(err, ErrCycleRunning) {
			d.logger.Info("scheduled cycle skipped; manual cycle in progress")
			return
		}
		d.logger.Error("scheduled cycle failed", logging.Error(err))
	}
}

func (d *Daemon) runCycle(ctx context.Context, asOf time.Time) (CycleSummary, error) {
	if !d.cycleMu.TryLock() {
		return CycleSummary{}, ErrCycleRunning
	}
	defer d.cycleMu.Unlock()
	d.cycling.Store(true)
	defer d.cycling.Store(false)

	id := uuid.NewString()
	// Stopping the daemon must not abort a cycle halfway through its records.
	ctx = services.WithCycleID(context.WithoutCancel(ctx), id)
	logger := logging.WithContext(ctx, d.logger)

	summary := CycleSummary{ID: id, AsOf: asOf, StartedAt: d.now()}
	logger.Info("cycle started", logging.Time("as_of", asOf))

	result, err := d.runner.RunCycle(ctx, asOf)
	if err != nil {
		summary.FinishedAt = d.now()
		summary.Error = err.Error()
		d.record(summary)
		return summary, fmt.Errorf("run cycle: %w", err)
	}
	summary.AsOf = result.AsOf
	summary.Due = result.Due
	summary.Processed = result.Processed
	summary.Skipped = result.Skipped
	summary.Failed = result.Failed

	report := notifications.DeliverAll(ctx, d.deliverer, toMessages(result.Notifications), d.cfg.Notifications.Concurrency)
	summary.Delivered = report.Sent
	summary.DeliveryFailed = len(report.Failures)
	for _, failure := range report.Failures {
		logging.WarnWithContext(logger, "notification delivery failed", "notification_delivery_failed",
			logging.String(logging.FieldUserID, failure.Message.UserID),
			logging.String(logging.FieldTitleID, failure.Message.TitleID),
			logging.String("deliverer", d.deliverer.Name()),
			logging.String(logging.FieldImpact, "user was not notified; alert state already advanced"),
			logging.Error(failure.Err),
		)
	}

	summary.FinishedAt = d.now()
	d.record(summary)
	logger.Info("cycle completed",
		logging.Int("due", summary.Due),
		logging.Int("processed", summary.Processed),
		logging.Int("skipped", summary.Skipped),
		logging.Int("failed", summary.Failed),
		logging.Int("delivered", summary.Delivered),
		logging.Int("delivery_failed", summary.DeliveryFailed),
		logging.Duration("elapsed", summary.FinishedAt.Sub(summary.StartedAt)),
	)
	return summary, nil
}

func (d *Daemon) record(summary CycleSummary) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lastCycle = &summary
}

func toMessages(items []tracker.Notification) []notifications.Message {
	messages := make([]notifications.Message, 0, len(items))
	for _, item := range items {
		messages = append(messages, notifications.Message{
			UserID:  item.UserID,
			TitleID: item.TitleID,
			Text:    item.Message,
		})
	}
	return messages
}
