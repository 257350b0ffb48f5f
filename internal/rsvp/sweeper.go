package rsvp

import (
	"context"
	"fmt"
	"time"
)

// RunSweeper removes orphaned relations every interval until ctx is done.
func (s *RSVPService) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.SweepOrphans(ctx); err != nil && ctx.Err() == nil {
				s.Logger.Error("RSVP", fmt.Sprintf("Orphan sweep failed: %v", err))
			}
		}
	}
}
