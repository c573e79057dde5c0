package usecase

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tidyup-backend/config"
	"tidyup-backend/model"
)

func day(y int, m time.Month, d, hour int) time.Time {
	return time.Date(y, m, d, hour, 0, 0, 0, time.UTC)
}

func TestNextStreak(t *testing.T) {
	now := day(2026, 5, 10, 15)
	ptr := func(t time.Time) *time.Time { return &t }

	tests := []struct {
		name                  string
		last                  *time.Time
		current, longest      int
		wantCurrent, wantLong int
		wantChanged           bool
	}{
		{"first activity", nil, 0, 0, 1, 1, true},
		{"same day", ptr(day(2026, 5, 10, 1)), 4, 6, 4, 6, false},
		{"yesterday extends", ptr(day(2026, 5, 9, 23)), 4, 4, 5, 5, true},
		{"yesterday keeps longest", ptr(day(2026, 5, 9, 8)), 2, 9, 3, 9, true},
		{"gap resets", ptr(day(2026, 5, 7, 12)), 8, 8, 1, 8, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, l, changed := NextStreak(tt.last, tt.current, tt.longest, now)
			assert.Equal(t, tt.wantCurrent, c)
			assert.Equal(t, tt.wantLong, l)
			assert.Equal(t, tt.wantChanged, changed)
		})
	}
}

func TestLevelFor(t *testing.T) {
	thresholds := config.DefaultGamification().LevelThresholds
	tests := map[int]int{0: 1, 99: 1, 100: 2, 249: 2, 250: 3, 7999: 7, 8000: 8, 50000: 8}
	for xp, want := range tests {
		assert.Equal(t, want, LevelFor(xp, thresholds), "xp=%d", xp)
	}
	assert.Equal(t, 100, NextLevelXP(1, thresholds))
	assert.Equal(t, 0, NextLevelXP(8, thresholds))
}

func TestPeriodKey(t *testing.T) {
	now := day(2027, 1, 1, 10) // Friday of ISO week 53 of 2026
	assert.Equal(t, "2027-01-01", PeriodKey(model.PeriodDaily, now))
	assert.Equal(t, "2026-W53", PeriodKey(model.PeriodWeekly, now))
	assert.Equal(t, model.PeriodOnce, PeriodKey(model.PeriodOnce, now))

	assert.Equal(t, day(2026, 12, 28, 0), WeekStart(now))
	assert.Equal(t, day(2026, 5, 4, 0), WeekStart(day(2026, 5, 10, 23)))
	assert.Equal(t, day(2026, 5, 4, 0), WeekStart(day(2026, 5, 4, 0)))
}

type questKey struct{ user, code, period string }

// gameStore is an in-memory GamificationStore.
type gameStore struct {
	users        map[string]*model.User
	counters     map[string]int
	achievements map[string]time.Time
	quests       map[questKey]*model.QuestProgress
	xpEvents     []string
	tokens       map[string]float64
}

func newGameStore(users ...*model.User) *gameStore {
	s := &gameStore{
		users:        map[string]*model.User{},
		counters:     map[string]int{},
		achievements: map[string]time.Time{},
		quests:       map[questKey]*model.QuestProgress{},
		tokens:       map[string]float64{},
	}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *gameStore) GetUser(_ context.Context, userID string) (*model.User, error) {
	u, ok := s.users[userID]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (s *gameStore) UsersByIDs(_ context.Context, ids []string) (map[string]*model.User, error) {
	out := map[string]*model.User{}
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

func (s *gameStore) UpdateStreak(_ context.Context, userID string, current, longest int, d time.Time) error {
	u := s.users[userID]
	u.CurrentStreak, u.LongestStreak, u.LastActiveDate = current, longest, &d
	return nil
}

func (s *gameStore) AddXP(_ context.Context, userID string, amount int) (int, error) {
	s.users[userID].XP += amount
	return s.users[userID].XP, nil
}

func (s *gameStore) SetLevel(_ context.Context, userID string, level int) error {
	s.users[userID].Level = level
	return nil
}

func (s *gameStore) AddTokens(_ context.Context, userID string, amount float64) error {
	s.tokens[userID] += amount
	s.users[userID].TokenBalance += amount
	return nil
}

func (s *gameStore) AddXPEvent(_ context.Context, _, event string, _ int, _ time.Time) error {
	s.xpEvents = append(s.xpEvents, event)
	return nil
}

func (s *gameStore) IncrementCounter(_ context.Context, userID, event string) (int, error) {
	s.counters[userID+":"+event]++
	return s.counters[userID+":"+event], nil
}

func (s *gameStore) UnlockAchievement(_ context.Context, userID, code string, at time.Time) (bool, error) {
	key := userID + ":" + code
	if _, ok := s.achievements[key]; ok {
		return false, nil
	}
	s.achievements[key] = at
	return true, nil
}

func (s *gameStore) ListAchievements(_ context.Context, userID string) ([]model.UserAchievement, error) {
	var out []model.UserAchievement
	for key, at := range s.achievements {
		if code, ok := cutUser(key, userID); ok {
			out = append(out, model.UserAchievement{UserID: userID, AchievementCode: code, UnlockedAt: at})
		}
	}
	return out, nil
}

func cutUser(key, userID string) (string, bool) {
	prefix := userID + ":"
	if len(key) > len(prefix) && key[:len(prefix)] == prefix {
		return key[len(prefix):], true
	}
	return "", false
}

func (s *gameStore) IncrementQuest(_ context.Context, userID, code, periodKey string, target int, at time.Time) (bool, error) {
	k := questKey{userID, code, periodKey}
	p, ok := s.quests[k]
	if !ok {
		p = &model.QuestProgress{UserID: userID, QuestCode: code, PeriodKey: periodKey}
		s.quests[k] = p
	}
	if p.CompletedAt != nil {
		return false, nil
	}
	p.Progress++
	if p.Progress >= target {
		p.CompletedAt = &at
		return true, nil
	}
	return false, nil
}

func (s *gameStore) GetQuestProgress(_ context.Context, userID, code, periodKey string) (*model.QuestProgress, error) {
	p, ok := s.quests[questKey{userID, code, periodKey}]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (s *gameStore) LeaderboardAllTime(_ context.Context, limit int) ([]model.LeaderboardEntry, error) {
	var out []model.LeaderboardEntry
	for _, u := range s.users {
		if u.XP > 0 {
			out = append(out, model.LeaderboardEntry{UserID: u.ID, Name: u.Name, XP: u.XP, Level: u.Level})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].XP > out[j].XP })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *gameStore) LeaderboardSince(ctx context.Context, _ time.Time, limit int) ([]model.LeaderboardEntry, error) {
	return s.LeaderboardAllTime(ctx, limit)
}

// memBoards is an in-memory LeaderboardCache.
type memBoards struct {
	scores map[string]map[string]int
	err    error
}

func (c *memBoards) Incr(_ context.Context, board, userID string, xp int) error {
	if c.scores[board] == nil {
		c.scores[board] = map[string]int{}
	}
	c.scores[board][userID] += xp
	return nil
}

func (c *memBoards) Top(_ context.Context, board string, limit int) ([]model.LeaderboardEntry, error) {
	if c.err != nil {
		return nil, c.err
	}
	var out []model.LeaderboardEntry
	for id, xp := range c.scores[board] {
		out = append(out, model.LeaderboardEntry{UserID: id, XP: xp})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].XP > out[j].XP })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (c *memBoards) Replace(_ context.Context, board string, entries []model.LeaderboardEntry) error {
	c.scores[board] = map[string]int{}
	for _, e := range entries {
		c.scores[board][e.UserID] = e.XP
	}
	return nil
}

func newGameFixture(now time.Time) (*GamificationUsecase, *gameStore, *memBoards, *recorder) {
	store := newGameStore(&model.User{ID: "u1", Name: "Alice", Level: 1})
	boards := &memBoards{scores: map[string]map[string]int{}}
	rec := &recorder{}
	u := NewGamificationUsecase(store, boards, rec, config.DefaultGamification(), zap.NewNop())
	u.now = func() time.Time { return now }
	return u, store, boards, rec
}

func TestRecordAwardsXPAndStreak(t *testing.T) {
	now := day(2026, 5, 10, 9)
	u, store, boards, _ := newGameFixture(now)
	ctx := context.Background()

	require.NoError(t, u.Record(ctx, "u1", model.EventMessageSent))
	user := store.users["u1"]
	assert.Equal(t, 1, user.XP)
	assert.Equal(t, 1, user.CurrentStreak)
	require.NotNil(t, user.LastActiveDate)
	assert.Equal(t, day(2026, 5, 10, 0), *user.LastActiveDate)
	assert.Equal(t, 1, boards.scores[LeaderboardAll]["u1"])
	assert.Equal(t, 1, boards.scores["weekly:2026-W19"]["u1"])

	u.now = func() time.Time { return now.AddDate(0, 0, 1) }
	require.NoError(t, u.Record(ctx, "u1", model.EventMessageSent))
	assert.Equal(t, 2, store.users["u1"].CurrentStreak)
	assert.Equal(t, 2, store.users["u1"].LongestStreak)

	assert.ErrorIs(t, u.Record(ctx, "ghost", model.EventMessageSent), ErrNotFound)
}

func TestRecordCompletesQuestOncePerPeriod(t *testing.T) {
	now := day(2026, 5, 10, 9)
	u, store, _, rec := newGameFixture(now)
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		require.NoError(t, u.Record(ctx, "u1", model.EventMessageSent))
	}
	// 7 messages at 1 XP plus one daily_chatter reward of 10.
	assert.Equal(t, 17, store.users["u1"].XP)
	p := store.quests[questKey{"u1", "daily_chatter", "2026-05-10"}]
	require.NotNil(t, p)
	assert.Equal(t, 5, p.Progress)
	assert.NotNil(t, p.CompletedAt)

	var quests int
	for _, n := range rec.notices {
		if n.Kind == model.NotifyQuest {
			quests++
		}
	}
	assert.Equal(t, 1, quests)

	u.now = func() time.Time { return now.AddDate(0, 0, 1) }
	require.NoError(t, u.Record(ctx, "u1", model.EventMessageSent))
	next := store.quests[questKey{"u1", "daily_chatter", "2026-05-11"}]
	require.NotNil(t, next)
	assert.Equal(t, 1, next.Progress)
	assert.Nil(t, next.CompletedAt)
}

func TestRecordUnlocksAchievementOnce(t *testing.T) {
	u, store, _, rec := newGameFixture(day(2026, 5, 10, 9))
	ctx := context.Background()

	require.NoError(t, u.Record(ctx, "u1", model.EventTradeCompleted))
	require.NoError(t, u.Record(ctx, "u1", model.EventTradeCompleted))

	assert.Contains(t, store.achievements, "u1:first_sale")
	var unlocked int
	for _, n := range rec.notices {
		if n.Kind == model.NotifyAchievement {
			unlocked++
		}
	}
	assert.Equal(t, 1, unlocked)
	// Two trades at 50 XP plus first_sale at 25.
	assert.Equal(t, 125, store.users["u1"].XP)
	assert.Equal(t, 2, store.users["u1"].Level)
	assert.Contains(t, store.xpEvents, "achievement:first_sale")
}

func TestRecordLevelUpNotifies(t *testing.T) {
	u, store, _, rec := newGameFixture(day(2026, 5, 10, 9))
	store.users["u1"].XP = 95

	require.NoError(t, u.Record(context.Background(), "u1", model.EventItemListed))

	assert.Equal(t, 2, store.users["u1"].Level)
	var levelUps []notice
	for _, n := range rec.notices {
		if n.Kind == model.NotifyLevelUp {
			levelUps = append(levelUps, n)
		}
	}
	require.Len(t, levelUps, 1)
	assert.Equal(t, "You reached level 2", levelUps[0].Body)
	// first_steps and daily_lister both pay a token bonus.
	assert.Equal(t, 3.0, store.tokens["u1"])
}

func TestStatus(t *testing.T) {
	now := day(2026, 5, 10, 9)
	u, store, _, _ := newGameFixture(now)
	ctx := context.Background()

	require.NoError(t, u.Record(ctx, "u1", model.EventPostCreated))

	st, err := u.Status(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 5, st.XP)
	assert.Equal(t, 1, st.CurrentStreak)
	assert.Equal(t, 100, st.NextLevelXP)
	assert.Len(t, st.Quests, len(config.DefaultGamification().Quests))
	for _, q := range st.Quests {
		if q.Code == "weekly_voice" {
			assert.Equal(t, 1, q.Progress)
			assert.Equal(t, "2026-W19", q.PeriodKey)
		}
	}
	assert.NotNil(t, st.Achievements)

	u.now = func() time.Time { return now.AddDate(0, 0, 3) }
	st, err = u.Status(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, st.CurrentStreak, "streak shown as broken after a missed day")
	assert.Equal(t, 1, store.users["u1"].LongestStreak)
}

func TestLeaderboard(t *testing.T) {
	now := day(2026, 5, 10, 9)
	u, store, boards, _ := newGameFixture(now)
	store.users["u2"] = &model.User{ID: "u2", Name: "Bob", Level: 3}
	ctx := context.Background()

	_, err := u.Leaderboard(ctx, "monthly", 10)
	assert.ErrorIs(t, err, ErrInvalidInput)

	boards.scores[LeaderboardAll] = map[string]int{"u1": 40, "u2": 300}
	entries, err := u.Leaderboard(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, model.LeaderboardEntry{Rank: 1, UserID: "u2", Name: "Bob", XP: 300, Level: 3}, entries[0])
	assert.Equal(t, 2, entries[1].Rank)

	t.Run("falls back to the database", func(t *testing.T) {
		boards.err = errors.New("redis down")
		defer func() { boards.err = nil }()
		store.users["u1"].XP = 10
		store.users["u2"].XP = 20

		entries, err := u.Leaderboard(ctx, LeaderboardWeekly, 1)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "u2", entries[0].UserID)
		assert.Equal(t, 1, entries[0].Rank)
	})

	t.Run("rebuild", func(t *testing.T) {
		require.NoError(t, u.RebuildLeaderboards(ctx))
		assert.Equal(t, map[string]int{"u1": 10, "u2": 20}, boards.scores[LeaderboardAll])
		assert.Equal(t, map[string]int{"u1": 10, "u2": 20}, boards.scores["weekly:2026-W19"])
	})
}

func TestLeaderboardWithoutCache(t *testing.T) {
	store := newGameStore(&model.User{ID: "u1", Name: "Alice", XP: 5, Level: 1})
	u := NewGamificationUsecase(store, nil, nil, config.DefaultGamification(), zap.NewNop())

	entries, err := u.Leaderboard(context.Background(), LeaderboardAll, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 1, entries[0].Rank)
	require.NoError(t, u.RebuildLeaderboards(context.Background()))
	require.NoError(t, u.Record(context.Background(), "u1", model.EventCommentCreated))
}
