package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type EscrowExpirer interface {
	ExpireStale(ctx context.Context) (int, error)
}

type LeaderboardRebuilder interface {
	RebuildLeaderboards(ctx context.Context) error
}

type LimiterCleaner interface {
	Cleanup(maxIdle time.Duration) int
}

// Defaults returns the server's standard job set.
func Defaults(escrow EscrowExpirer, boards LeaderboardRebuilder, limiter LimiterCleaner, log *zap.Logger) []Job {
	return []Job{
		{
			Name:     "expire_escrows",
			Schedule: "@every 15m",
			Timeout:  5 * time.Minute,
			Run: func(ctx context.Context) error {
				n, err := escrow.ExpireStale(ctx)
				if n > 0 {
					log.Info("expired stale transactions", zap.Int("count", n))
				}
				return err
			},
		},
		{
			Name:     "rebuild_leaderboards",
			Schedule: "@hourly",
			Timeout:  2 * time.Minute,
			Run:      boards.RebuildLeaderboards,
		},
		{
			Name:     "cleanup_rate_limiters",
			Schedule: "@every 10m",
			Run: func(context.Context) error {
				limiter.Cleanup(30 * time.Minute)
				return nil
			},
		},
	}
}
