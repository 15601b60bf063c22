package probe

import (
	"context"

	"github.com/hamed0406/statusnotifier/internal/domain"
)

// Checker probes a single service. Implementations never return an error:
// every failure is folded into the returned status.
type Checker interface {
	Check(ctx context.Context, svc domain.Service) domain.ServiceStatus
}

// CheckerFunc adapts a plain function to Checker.
type CheckerFunc func(ctx context.Context, svc domain.Service) domain.ServiceStatus

func (f CheckerFunc) Check(ctx context.Context, svc domain.Service) domain.ServiceStatus {
	return f(ctx, svc)
}

// Classify maps a completed HTTP response code to a status.
// Only 2xx counts as online.
func Classify(svc domain.Service, code int) domain.ServiceStatus {
	if code >= 200 && code < 300 {
		return domain.Online(svc)
	}
	return domain.Errored(svc, code)
}
