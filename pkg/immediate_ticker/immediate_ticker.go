package immediateticker

import (
	"context"
	"time"
)

// ImmediateTicker ticks once right away and then every interval. C is closed
// after ctx is done.
type ImmediateTicker struct {
	C <-chan time.Time
}

func New(ctx context.Context, interval time.Duration) *ImmediateTicker {
	c := make(chan time.Time)
	t := time.NewTicker(interval)

	go func() {
		defer close(c)
		defer t.Stop()

		now := time.Now()
		for {
			select {
			case c <- now:
			case <-ctx.Done():
				return
			}

			select {
			case now = <-t.C:
			case <-ctx.Done():
				return
			}
		}
	}()

	return &ImmediateTicker{C: c}
}
