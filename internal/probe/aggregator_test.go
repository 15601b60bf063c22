package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hamed0406/statusnotifier/internal/domain"
)

func TestAggregator_PreservesOrderAndLength(t *testing.T) {
	// later services answer first
	chk := CheckerFunc(func(ctx context.Context, svc domain.Service) domain.ServiceStatus {
		d := map[string]time.Duration{"a": 30 * time.Millisecond, "b": 15 * time.Millisecond, "c": 0}
		time.Sleep(d[svc.Name])
		return domain.Online(svc)
	})
	in := []domain.Service{{Name: "a"}, {Name: "b"}, {Name: "c"}}

	out := NewAggregator(chk, nil, 0).CheckAll(context.Background(), in)
	if len(out) != len(in) {
		t.Fatalf("want %d results, got %d", len(in), len(out))
	}
	for i := range in {
		if out[i].Name != in[i].Name {
			t.Fatalf("order broken at %d: %v", i, domain.Names(out))
		}
	}
}

func TestAggregator_EmptyInput(t *testing.T) {
	out := NewAggregator(CheckerFunc(func(ctx context.Context, svc domain.Service) domain.ServiceStatus {
		t.Fatal("checker must not be called")
		return domain.ServiceStatus{}
	}), nil, 0).CheckAll(context.Background(), nil)
	if len(out) != 0 {
		t.Fatalf("want empty, got %+v", out)
	}
}

func TestAggregator_ProbesRunConcurrently(t *testing.T) {
	var inFlight, peak int32
	chk := CheckerFunc(func(ctx context.Context, svc domain.Service) domain.ServiceStatus {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(50 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return domain.Online(svc)
	})
	in := make([]domain.Service, 5)
	for i := range in {
		in[i] = domain.Service{Name: string(rune('a' + i))}
	}

	NewAggregator(chk, nil, 0).CheckAll(context.Background(), in)
	if peak != 5 {
		t.Fatalf("want all 5 probes in flight together, peak was %d", peak)
	}

	atomic.StoreInt32(&peak, 0)
	NewAggregator(chk, nil, 2).CheckAll(context.Background(), in)
	if peak > 2 {
		t.Fatalf("limit 2 exceeded, peak was %d", peak)
	}
}

func TestAggregator_PanickingCheckerBecomesOffline(t *testing.T) {
	chk := CheckerFunc(func(ctx context.Context, svc domain.Service) domain.ServiceStatus {
		if svc.Name == "boom" {
			panic("checker exploded")
		}
		return domain.Online(svc)
	})
	out := NewAggregator(chk, nil, 0).CheckAll(context.Background(),
		[]domain.Service{{Name: "ok"}, {Name: "boom"}})
	if out[0].Status != domain.HealthOnline || out[1].Status != domain.HealthOffline {
		t.Fatalf("unexpected statuses: %+v", out)
	}
}

func TestAggregator_MixedHTTPOutcomes(t *testing.T) {
	mk := func(code int) *httptest.Server {
		s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(code)
		}))
		t.Cleanup(s.Close)
		return s
	}
	in := []domain.Service{
		{Name: "n1", URL: mk(200).URL},
		{Name: "n2", URL: mk(500).URL},
		{Name: "n3", URL: unreachableURL(t)},
	}

	out := NewAggregator(NewHTTPChecker(2*time.Second, nil), nil, 0).CheckAll(context.Background(), in)
	got := []string{}
	for _, s := range out {
		got = append(got, s.Name+":"+string(s.Status))
	}
	want := "n1:online n2:error n3:offline"
	if strings.Join(got, " ") != want {
		t.Fatalf("want %q, got %q", want, strings.Join(got, " "))
	}
	if out[1].StatusCode != 500 {
		t.Fatalf("want code 500 on n2, got %d", out[1].StatusCode)
	}
}
