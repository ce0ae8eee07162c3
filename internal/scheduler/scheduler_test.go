package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MrSnakeDoc/marks/internal/auth"
	"github.com/MrSnakeDoc/marks/internal/dashboard"
	"github.com/MrSnakeDoc/marks/internal/domain"
	"github.com/MrSnakeDoc/marks/internal/index"
	"github.com/MrSnakeDoc/marks/internal/logger"
)

type signedOutAuth struct{ hub *auth.Hub }

func (a signedOutAuth) CurrentUser(context.Context, string) (*domain.User, error) { return nil, nil }
func (a signedOutAuth) OnAuthStateChange(sid string, fn func(auth.Event)) auth.Subscription {
	return a.hub.Subscribe(sid, fn)
}
func (a signedOutAuth) SignInWithOAuth(context.Context, string) (string, error) { return "", nil }
func (a signedOutAuth) SignOut(context.Context, string) error                   { return nil }
func (a signedOutAuth) AccessToken(context.Context, string) (string, error)     { return "", nil }

type emptyTable struct{}

func (emptyTable) List(context.Context, string) ([]domain.Bookmark, error)    { return nil, nil }
func (emptyTable) Insert(context.Context, string, domain.Draft, string) error { return nil }
func (emptyTable) Delete(context.Context, string, domain.ID) error            { return nil }

func TestPageCollector_Collect(t *testing.T) {
	log := logger.New("error", false)
	hub := auth.NewHub()
	idx := index.NewPageIndex()
	factory := func(sid string) *dashboard.Page {
		return dashboard.New(sid, signedOutAuth{hub: hub}, emptyTable{}, log)
	}
	idx.Acquire(context.Background(), "browser-1", factory)
	idx.Acquire(context.Background(), "browser-2", factory)

	pc := NewPageCollector(idx, log, time.Hour, 30*time.Minute, nil)

	if got := pc.Collect(); got != 0 {
		t.Fatalf("Collect() on fresh pages = %d, want 0", got)
	}

	pc.now = func() time.Time { return time.Now().Add(31 * time.Minute) }
	if got := pc.Collect(); got != 2 {
		t.Errorf("Collect() = %d, want 2", got)
	}
	if idx.Count() != 0 {
		t.Errorf("index count = %d, want 0", idx.Count())
	}
	if hub.Subscribers("browser-1") != 0 {
		t.Error("collected page still subscribed to auth events")
	}
}

func TestPageCollector_ManualTrigger(t *testing.T) {
	log := logger.New("error", false)
	hub := auth.NewHub()
	idx := index.NewPageIndex()
	idx.Acquire(context.Background(), "browser-1", func(sid string) *dashboard.Page {
		return dashboard.New(sid, signedOutAuth{hub: hub}, emptyTable{}, log)
	})

	trigger := make(chan struct{})
	pc := NewPageCollector(idx, log, time.Hour, time.Minute, trigger)
	pc.now = func() time.Time { return time.Now().Add(time.Hour) }

	pc.Start(context.Background())
	defer pc.Stop()
	trigger <- struct{}{}

	deadline := time.Now().Add(2 * time.Second)
	for idx.Count() != 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if idx.Count() != 0 {
		t.Errorf("index count = %d after manual trigger, want 0", idx.Count())
	}
}

func TestNewPageCollectorDefaults(t *testing.T) {
	pc := NewPageCollector(index.NewPageIndex(), logger.New("error", false), 0, 0, nil)
	if pc.interval != DefaultCollectInterval {
		t.Errorf("interval = %v, want %v", pc.interval, DefaultCollectInterval)
	}
	if pc.ttl != DefaultPageIdleTTL {
		t.Errorf("ttl = %v, want %v", pc.ttl, DefaultPageIdleTTL)
	}
}

// flakyRelay fails a few times, then blocks until cancelled.
type flakyRelay struct {
	runs     atomic.Int32
	failures int32
}

func (r *flakyRelay) Run(ctx context.Context) error {
	if r.runs.Add(1) <= r.failures {
		return errors.New("connection reset")
	}
	<-ctx.Done()
	return ctx.Err()
}

func TestEventRelayRestarts(t *testing.T) {
	relay := &flakyRelay{failures: 2}
	er := NewEventRelay(relay, logger.New("error", false))
	er.minBackoff = time.Millisecond
	er.maxBackoff = 2 * time.Millisecond

	er.Start(context.Background())

	deadline := time.Now().Add(2 * time.Second)
	for relay.runs.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	er.Stop()

	if got := relay.runs.Load(); got != 3 {
		t.Errorf("runs = %d, want 3 (two failures then a healthy run)", got)
	}
}

func TestEventRelayStopsWithContext(t *testing.T) {
	relay := &flakyRelay{}
	er := NewEventRelay(relay, logger.New("error", false))

	ctx, cancel := context.WithCancel(context.Background())
	er.Start(ctx)
	cancel()

	select {
	case <-er.done:
	case <-time.After(2 * time.Second):
		t.Fatal("relay loop did not exit after context cancellation")
	}
}
