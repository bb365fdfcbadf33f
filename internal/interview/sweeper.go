package interview

import (
	"context"
	"log"
	"time"
)

// Sweeper drops entries that have been idle since cutoff.
type Sweeper interface {
	Sweep(cutoff time.Time) int
}

// RunSweeper removes entries idle for longer than ttl every interval
// until ctx is done. A non-positive ttl disables sweeping. what names
// the entries in logs.
func RunSweeper(ctx context.Context, what string, s Sweeper, ttl, interval time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if interval <= 0 {
		interval = time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			if n := s.Sweep(now.Add(-ttl)); n > 0 {
				log.Printf("[sweeper] removed %d idle %s", n, what)
			}
		}
	}
}
