package probe

import (
	"context"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/statusnotifier/internal/domain"
)

const DefaultTimeout = 10 * time.Second

type HTTPChecker struct {
	Client *http.Client
	Logger *zap.Logger
	// DiagnoseDNS runs a DNS lookup for offline endpoints and logs the class.
	DiagnoseDNS bool
}

func NewHTTPChecker(timeout time.Duration, logger *zap.Logger) *HTTPChecker {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPChecker{
		Client: &http.Client{Timeout: timeout},
		Logger: logger,
	}
}

func (h *HTTPChecker) Check(ctx context.Context, svc domain.Service) domain.ServiceStatus {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, svc.URL, nil)
	if err != nil {
		h.offline(ctx, svc, start, err)
		return domain.Offline(svc)
	}

	resp, err := h.Client.Do(req)
	if err != nil {
		h.offline(ctx, svc, start, err)
		return domain.Offline(svc)
	}
	defer resp.Body.Close()
	// drain so the connection can be reused
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	st := Classify(svc, resp.StatusCode)
	h.Logger.Debug("probe_done",
		zap.String("service", svc.Name),
		zap.String("url", svc.URL),
		zap.Int("status_code", resp.StatusCode),
		zap.String("status", string(st.Status)),
		zap.Float64("latency_ms", time.Since(start).Seconds()*1000),
	)
	return st
}

func (h *HTTPChecker) offline(ctx context.Context, svc domain.Service, start time.Time, err error) {
	fields := []zap.Field{
		zap.String("service", svc.Name),
		zap.String("url", svc.URL),
		zap.Float64("latency_ms", time.Since(start).Seconds()*1000),
		zap.Error(err),
	}
	if h.DiagnoseDNS {
		dns := CheckDNS(ctx, nil, extractHost(svc.URL))
		fields = append(fields,
			zap.String("dns_class", string(dns.Class)),
			zap.Strings("nameservers", dns.Nameservers),
			zap.String("resolver_error", dns.ResolverError),
		)
	}
	h.Logger.Warn("probe_offline", fields...)
}
