package sweeper

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/robalobadob/emojiworld/apps/go-server/internal/presence"
	"github.com/robalobadob/emojiworld/apps/go-server/internal/store"
)

type countingSweeper struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (c *countingSweeper) Sweep(ctx context.Context, now time.Time, timeout time.Duration) (int, int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return 0, 0, c.err
}

func (c *countingSweeper) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func TestRunOnceEvictsStalePlayers(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := context.Background()
	old := time.Now().Add(-time.Hour)
	reg := presence.NewRegistry(st, presence.WithClock(func() time.Time { return old }))
	_, _, _ = reg.Upsert(ctx, "idle", "Idle", 1, 1, "🙂")

	New(presence.NewRegistry(st), time.Second, 30*time.Second).RunOnce(ctx)

	list, _ := presence.NewRegistry(st).List(ctx)
	if len(list) != 0 {
		t.Fatalf("expected idle player to be evicted, got %+v", list)
	}
}

func TestRunKeepsGoingAfterErrorsAndStopsOnCancel(t *testing.T) {
	s := &countingSweeper{err: errors.New("boom")}
	l := New(s, 5*time.Millisecond, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		l.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for s.Calls() < 3 {
		select {
		case <-deadline:
			t.Fatalf("sweeper stopped ticking after errors, calls=%d", s.Calls())
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not return after cancel")
	}
}
