// Package runner drives one evaluation from the service list to the side
// channels and always leaves an outcome line in the audit log.
package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hamed0406/statusnotifier/internal/auditlog"
	"github.com/hamed0406/statusnotifier/internal/domain"
	"github.com/hamed0406/statusnotifier/internal/publish"
	"github.com/hamed0406/statusnotifier/internal/repo"
	"github.com/hamed0406/statusnotifier/internal/report"
)

type State string

const (
	StateStart        State = "start"
	StateConfigLoaded State = "config_loaded"
	StateProbed       State = "probed"
	StateRendered     State = "rendered"
	StateNotified     State = "notified_if_needed"
	StatePublished    State = "published"
	StateDone         State = "done"
	StateFailed       State = "failed"
)

// ServiceLoader returns the ordered service list. Its error is fatal.
type ServiceLoader func() ([]domain.Service, error)

type StatusChecker interface {
	CheckAll(ctx context.Context, services []domain.Service) []domain.ServiceStatus
}

type Dispatcher interface {
	Notify(ctx context.Context, unhealthy []domain.ServiceStatus) error
}

type Publisher interface {
	Publish(ctx context.Context, compact, human string) publish.Outcome
}

type Appender interface {
	Append(msg string) error
}

type Observer interface {
	Observe(statuses []domain.ServiceStatus, at time.Time)
}

type Runner struct {
	Logger  *zap.Logger
	Load    ServiceLoader
	Checker StatusChecker
	Audit   Appender

	// Optional side channels; nil disables them.
	Dispatcher Dispatcher
	Publisher  Publisher
	Snapshots  repo.SnapshotStore
	Metrics    Observer

	now   func() time.Time
	newID func() string
}

func New(logger *zap.Logger, load ServiceLoader, checker StatusChecker, audit Appender) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		Logger:  logger,
		Load:    load,
		Checker: checker,
		Audit:   audit,
		now:     time.Now,
		newID:   func() string { return uuid.NewString() },
	}
}

// Result describes a finished run. Only State, Err and the status sets
// matter for control flow; the side channel fields are informational.
type Result struct {
	RunID     string
	State     State
	Visited   []State
	Statuses  []domain.ServiceStatus
	Unhealthy []domain.ServiceStatus

	Notified    bool
	NotifyErr   error
	Published   *publish.Outcome
	SnapshotErr error

	Err error
}

func (res Result) OK() bool { return res.State == StateDone }

func (res *Result) enter(s State) {
	res.State = s
	res.Visited = append(res.Visited, s)
}

// Run performs one evaluation. It never panics; a failed run is reported
// through Result.State and Result.Err.
func (r *Runner) Run(ctx context.Context) (res Result) {
	res.RunID = r.newID()
	res.enter(StateStart)
	log := r.Logger.With(zap.String("run_id", res.RunID))
	started := r.now()

	defer func() {
		if p := recover(); p != nil {
			res.Err = fmt.Errorf("run panicked: %v", p)
		}
		if res.Err != nil {
			res.enter(StateFailed)
			log.Error("run_failed", zap.Error(res.Err))
			r.audit(log, res.Err.Error())
			return
		}
		res.enter(StateDone)
		log.Info("run_done",
			zap.Int("services", len(res.Statuses)),
			zap.Int("unhealthy", len(res.Unhealthy)),
			zap.Duration("took", r.now().Sub(started)),
		)
		r.audit(log, auditlog.SuccessLine)
	}()

	services, err := r.Load()
	if err != nil {
		res.Err = fmt.Errorf("load services: %w", err)
		return res
	}
	res.enter(StateConfigLoaded)
	log.Info("config_loaded", zap.Int("services", len(services)))

	res.Statuses = r.Checker.CheckAll(ctx, services)
	if len(res.Statuses) != len(services) {
		res.Err = fmt.Errorf("checker returned %d statuses for %d services", len(res.Statuses), len(services))
		return res
	}
	res.enter(StateProbed)
	checkedAt := r.now().UTC()

	compact, err := report.Compact(res.Statuses)
	if err != nil {
		res.Err = err
		return res
	}
	r.audit(log, compact)
	human, htmlErr := report.HTML(res.Statuses)
	if htmlErr != nil {
		log.Warn("render_html_failed", zap.Error(htmlErr))
	}
	res.enter(StateRendered)

	if r.Metrics != nil {
		r.Metrics.Observe(res.Statuses, checkedAt)
	}

	res.Unhealthy = domain.Unhealthy(res.Statuses)
	if len(res.Unhealthy) > 0 && r.Dispatcher != nil {
		res.NotifyErr = contain(func() error { return r.Dispatcher.Notify(ctx, res.Unhealthy) })
		res.Notified = res.NotifyErr == nil
		if res.NotifyErr != nil {
			log.Warn("notify_failed", zap.Strings("unhealthy", domain.Names(res.Unhealthy)), zap.Error(res.NotifyErr))
		}
	}
	res.enter(StateNotified)

	if r.Snapshots != nil {
		snap := domain.Snapshot{RunID: res.RunID, CheckedAt: checkedAt, Statuses: res.Statuses}
		res.SnapshotErr = contain(func() error { return r.Snapshots.Save(ctx, snap) })
		if res.SnapshotErr != nil {
			log.Warn("snapshot_save_failed", zap.Error(res.SnapshotErr))
		}
	}

	if r.Publisher != nil && htmlErr == nil {
		var out publish.Outcome
		if err := contain(func() error { out = r.Publisher.Publish(ctx, compact, human); return nil }); err != nil {
			out.ConnectErr = err
		}
		res.Published = &out
		if err := out.Err(); err != nil {
			log.Warn("publish_failed", zap.Error(err))
		} else {
			log.Info("published")
		}
		res.enter(StatePublished)
	}
	return res
}

// Evaluate loads the services and probes them without touching side channels.
func (r *Runner) Evaluate(ctx context.Context) ([]domain.ServiceStatus, error) {
	services, err := r.Load()
	if err != nil {
		return nil, fmt.Errorf("load services: %w", err)
	}
	statuses := r.Checker.CheckAll(ctx, services)
	if r.Metrics != nil {
		r.Metrics.Observe(statuses, r.now().UTC())
	}
	return statuses, nil
}

func (r *Runner) audit(log *zap.Logger, line string) {
	if r.Audit == nil {
		return
	}
	if err := r.Audit.Append(line); err != nil {
		log.Warn("audit_append_failed", zap.Error(err))
	}
}

var errSideChannelPanic = errors.New("side channel panicked")

// contain runs a side channel call, turning a panic into an error.
func contain(fn func() error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v", errSideChannelPanic, p)
		}
	}()
	return fn()
}
