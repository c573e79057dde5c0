package dao

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"

	"tidyup-backend/model"
)

// LeaderboardCache keeps one Redis sorted set per board.
type LeaderboardCache struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

func NewLeaderboardCache(rdb *redis.Client, ttl time.Duration) *LeaderboardCache {
	return &LeaderboardCache{rdb: rdb, prefix: "tidyup:leaderboard:", ttl: ttl}
}

func (c *LeaderboardCache) key(board string) string {
	return c.prefix + board
}

func (c *LeaderboardCache) Incr(ctx context.Context, board, userID string, xp int) error {
	pipe := c.rdb.TxPipeline()
	pipe.ZIncrBy(ctx, c.key(board), float64(xp), userID)
	pipe.Expire(ctx, c.key(board), c.ttl)
	_, err := pipe.Exec(ctx)
	return err
}

// Top returns entries without names or levels; callers fill those in.
func (c *LeaderboardCache) Top(ctx context.Context, board string, limit int) ([]model.LeaderboardEntry, error) {
	zs, err := c.rdb.ZRevRangeWithScores(ctx, c.key(board), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	out := make([]model.LeaderboardEntry, 0, len(zs))
	for i, z := range zs {
		id, _ := z.Member.(string)
		out = append(out, model.LeaderboardEntry{Rank: i + 1, UserID: id, XP: int(z.Score)})
	}
	return out, nil
}

func (c *LeaderboardCache) Replace(ctx context.Context, board string, entries []model.LeaderboardEntry) error {
	key := c.key(board)
	pipe := c.rdb.TxPipeline()
	pipe.Del(ctx, key)
	if len(entries) > 0 {
		members := make([]*redis.Z, len(entries))
		for i, e := range entries {
			members[i] = &redis.Z{Score: float64(e.XP), Member: e.UserID}
		}
		pipe.ZAdd(ctx, key, members...)
		pipe.Expire(ctx, key, c.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}
