package session

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// StartPruner deletes idle sessions on a fixed cadence until ctx is
// cancelled. A non-positive ttl disables pruning.
func StartPruner(ctx context.Context, store Store, ttl, interval time.Duration) {
	if ttl <= 0 {
		return
	}
	if interval <= 0 {
		interval = time.Hour
	}

	logger := log.With().Str("component", "session-pruner").Logger()
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed, err := store.PruneExpired(ctx, time.Now().Add(-ttl))
				if err != nil {
					logger.Error().Err(err).Msg("prune failed")
					continue
				}
				if removed > 0 {
					logger.Info().Int("removed", removed).Msg("pruned idle sessions")
				}
			}
		}
	}()
}
