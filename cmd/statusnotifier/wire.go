package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/statusnotifier/internal/auditlog"
	"github.com/hamed0406/statusnotifier/internal/config"
	"github.com/hamed0406/statusnotifier/internal/domain"
	"github.com/hamed0406/statusnotifier/internal/logging"
	"github.com/hamed0406/statusnotifier/internal/metrics"
	"github.com/hamed0406/statusnotifier/internal/notify"
	"github.com/hamed0406/statusnotifier/internal/probe"
	"github.com/hamed0406/statusnotifier/internal/publish"
	"github.com/hamed0406/statusnotifier/internal/repo"
	"github.com/hamed0406/statusnotifier/internal/repo/postgres"
	"github.com/hamed0406/statusnotifier/internal/runner"
)

type app struct {
	runner  *runner.Runner
	metrics *metrics.Metrics
	audit   *auditlog.Sink
	store   repo.SnapshotStore
	closers []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// openLogger builds the diagnostics logger. A failure is still recorded in
// the audit log before it is returned.
func openLogger(cfg config.Config) (*zap.Logger, error) {
	log, err := logging.NewLogger(logging.Options{Dir: cfg.LogDir, Level: cfg.LogLevel})
	if err == nil {
		return log, nil
	}
	err = fmt.Errorf("init logger: %w", err)
	audit := auditlog.Open(cfg.LogFile, cfg.LogFileMaxMB)
	_ = audit.Append(err.Error())
	_ = audit.Close()
	return nil, err
}

// wire assembles a runner from cfg. Optional side channels are only
// attached when configured.
func wire(ctx context.Context, cfg config.Config, log *zap.Logger) *app {
	audit := auditlog.Open(cfg.LogFile, cfg.LogFileMaxMB)
	a := &app{audit: audit, metrics: metrics.New()}
	a.closers = append(a.closers, func() { _ = audit.Close() })

	checker := probe.NewHTTPChecker(cfg.ProbeTimeout, log)
	checker.DiagnoseDNS = cfg.DiagnoseDNS
	agg := probe.NewAggregator(checker, log, cfg.Concurrency)

	load := func() ([]domain.Service, error) { return config.LoadServices(cfg.ServicesPath) }
	r := runner.New(log, load, agg, audit)
	r.Metrics = a.metrics

	var notifiers notify.Multi
	if cfg.Mail.Enabled() {
		notifiers = append(notifiers, notify.Named("email", notify.NewEmail(notify.EmailConfig{
			Host:       cfg.Mail.Host,
			Port:       cfg.Mail.Port,
			Username:   cfg.Mail.Username,
			Password:   cfg.Mail.Password,
			Sender:     cfg.Mail.Sender,
			Recipients: cfg.Mail.Recipients,
		})))
	}
	if cfg.Slack.Enabled() {
		notifiers = append(notifiers, notify.Named("slack", notify.NewSlack(cfg.Slack.Webhook)))
	}
	if len(notifiers) > 0 {
		r.Dispatcher = notify.NewDispatcher(notifiers, audit, log)
	} else {
		log.Info("notifications_disabled")
	}

	if cfg.SFTP.Enabled() {
		conn := publish.NewSFTPConnector(publish.SFTPConfig{
			Host:           cfg.SFTP.Host,
			Port:           cfg.SFTP.Port,
			Username:       cfg.SFTP.Username,
			Password:       cfg.SFTP.Password,
			KeyPath:        cfg.SFTP.KeyPath,
			KnownHostsPath: cfg.SFTP.KnownHostsPath,
			Timeout:        cfg.SFTP.Timeout,
		})
		r.Publisher = publish.NewPublisher(conn, cfg.SFTP.RemoteDir, log)
	}

	if cfg.DatabaseURL != "" {
		if store := openPostgres(ctx, cfg.DatabaseURL, log); store != nil {
			a.store = store
			a.closers = append(a.closers, store.Close)
			r.Snapshots = store
		}
	}

	a.runner = r
	return a
}

// openPostgres returns nil when the database is unusable; snapshots are optional.
func openPostgres(ctx context.Context, dsn string, log *zap.Logger) *postgres.Store {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	store, err := postgres.New(ctx, dsn, log)
	if err != nil {
		log.Warn("snapshot_store_unavailable", zap.Error(err))
		return nil
	}
	if err := store.EnsureSchema(ctx); err != nil {
		log.Warn("snapshot_schema_failed", zap.Error(err))
		store.Close()
		return nil
	}
	return store
}
