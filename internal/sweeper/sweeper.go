// internal/sweeper/sweeper.go
//
// Periodic eviction of stale players.
// Runs on a fixed interval regardless of request traffic. Failures are logged
// and the loop keeps going; nothing here can stop the process.

package sweeper

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/emojiworld/apps/go-server/internal/game"
)

// Sweeper is the registry operation the loop drives.
type Sweeper interface {
	Sweep(ctx context.Context, now time.Time, timeout time.Duration) (removed, remaining int, err error)
}

// Loop drives Sweep every Interval with the given player Timeout.
type Loop struct {
	target   Sweeper
	interval time.Duration
	timeout  time.Duration
	now      game.Clock
}

// New constructs a Loop.
func New(target Sweeper, interval, timeout time.Duration) *Loop {
	return &Loop{target: target, interval: interval, timeout: timeout, now: game.SystemClock}
}

// Run sweeps every interval until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) {
	t := time.NewTicker(l.interval)
	defer t.Stop()
	log.Info().Dur("interval", l.interval).Dur("timeout", l.timeout).Msg("player sweeper started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("player sweeper stopped")
			return
		case <-t.C:
			l.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single sweep and logs the outcome.
func (l *Loop) RunOnce(ctx context.Context) {
	removed, remaining, err := l.target.Sweep(ctx, l.now(), l.timeout)
	if err != nil {
		log.Warn().Err(err).Msg("player sweep failed")
		return
	}
	if removed > 0 {
		log.Info().Int("removed", removed).Int("remaining", remaining).Msg("swept stale players")
		return
	}
	log.Debug().Int("remaining", remaining).Msg("sweep: nothing stale")
}
