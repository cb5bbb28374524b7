// Package batch runs work against rate-limited upstreams in fixed-size
// batches separated by a delay.
package batch

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Sleep is the real-time Sleeper.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Queue runs at most Size tasks at once and waits Delay between batches.
type Queue struct {
	Size  int
	Delay time.Duration
	Sleep Sleeper // nil means Sleep
}

// Run calls fn for every index in [0, n), batch by batch. A batch always runs
// to completion: its tasks see a context that is not cancelled with ctx, so
// upstream calls already issued can finish and fill caches. Cancelling ctx
// stops further batches and Run returns ctx.Err().
func (q Queue) Run(ctx context.Context, n int, fn func(ctx context.Context, i int)) error {
	size := max(q.Size, 1)
	sleep := q.Sleep
	if sleep == nil {
		sleep = Sleep
	}
	detached := context.WithoutCancel(ctx)

	for start := 0; start < n; start += size {
		if err := ctx.Err(); err != nil {
			return err
		}
		if start > 0 {
			if err := sleep(ctx, q.Delay); err != nil {
				return err
			}
		}

		var g errgroup.Group
		for i := start; i < min(start+size, n); i++ {
			g.Go(func() error {
				fn(detached, i)
				return nil
			})
		}
		_ = g.Wait()
	}
	return ctx.Err()
}
