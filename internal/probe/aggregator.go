package probe

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hamed0406/statusnotifier/internal/domain"
)

// Aggregator probes a whole service list concurrently.
type Aggregator struct {
	Checker Checker
	Logger  *zap.Logger
	// Limit caps in-flight probes; zero or less means one goroutine per service.
	Limit int
}

func NewAggregator(checker Checker, logger *zap.Logger, limit int) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{Checker: checker, Logger: logger, Limit: limit}
}

// CheckAll returns exactly one status per service, in input order. It only
// returns after every probe has settled.
func (a *Aggregator) CheckAll(ctx context.Context, services []domain.Service) []domain.ServiceStatus {
	out := make([]domain.ServiceStatus, len(services))

	var g errgroup.Group
	if a.Limit > 0 {
		g.SetLimit(a.Limit)
	}
	for i, svc := range services {
		i, svc := i, svc
		g.Go(func() error {
			out[i] = a.checkOne(ctx, svc)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (a *Aggregator) checkOne(ctx context.Context, svc domain.Service) (st domain.ServiceStatus) {
	defer func() {
		if r := recover(); r != nil {
			a.Logger.Error("probe_panic",
				zap.String("service", svc.Name),
				zap.String("panic", fmt.Sprint(r)),
			)
			st = domain.Offline(svc)
		}
	}()
	return a.Checker.Check(ctx, svc)
}
