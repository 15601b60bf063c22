package notify

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/hamed0406/statusnotifier/internal/auditlog"
	"github.com/hamed0406/statusnotifier/internal/domain"
	"github.com/hamed0406/statusnotifier/internal/report"
)

const (
	SubjectPrefix = "Problem detected: "
	BodyPrefix    = "The following services are offline or returned an error:\n\n"
)

// Appender is the audit trail the dispatcher records rejections in.
type Appender interface {
	Append(msg string) error
}

type Dispatcher struct {
	Notifier Notifier
	Audit    Appender
	Logger   *zap.Logger
}

func NewDispatcher(n Notifier, audit Appender, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{Notifier: n, Audit: audit, Logger: logger}
}

// Compose builds the alert for a non-empty unhealthy set.
func Compose(unhealthy []domain.ServiceStatus) (domain.Alert, error) {
	compact, err := report.Compact(unhealthy)
	if err != nil {
		return domain.Alert{}, err
	}
	return domain.Alert{
		Subject: SubjectPrefix + strings.Join(domain.Names(unhealthy), ", "),
		Body:    BodyPrefix + compact,
	}, nil
}

// Notify sends the alert. Rejected recipients are logged as a warning and
// not returned; transport failures are returned for the caller to log.
func (d *Dispatcher) Notify(ctx context.Context, unhealthy []domain.ServiceStatus) error {
	if len(unhealthy) == 0 {
		return nil
	}
	alert, err := Compose(unhealthy)
	if err != nil {
		return err
	}

	var failed error
	for _, e := range multierr.Errors(d.Notifier.Send(ctx, alert.Subject, alert.Body)) {
		var rej *RejectedError
		if errors.As(e, &rej) {
			d.Logger.Warn("mail_rejected",
				zap.Strings("recipients", rej.Recipients),
				zap.Int("delivered", rej.Delivered),
			)
			if d.Audit != nil {
				if aerr := d.Audit.Append(auditlog.MailWarning); aerr != nil {
					d.Logger.Warn("audit_append_failed", zap.Error(aerr))
				}
			}
			continue
		}
		failed = multierr.Append(failed, e)
	}
	if failed == nil {
		d.Logger.Info("alert_sent",
			zap.String("subject", alert.Subject),
			zap.Int("unhealthy", len(unhealthy)),
		)
	}
	return failed
}
