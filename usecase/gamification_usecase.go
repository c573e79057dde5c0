package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"tidyup-backend/config"
	"tidyup-backend/model"
	"tidyup-backend/pkg/metrics"
)

const (
	LeaderboardAll    = "all"
	LeaderboardWeekly = "weekly"
)

type GamificationStore interface {
	GetUser(ctx context.Context, userID string) (*model.User, error)
	UsersByIDs(ctx context.Context, ids []string) (map[string]*model.User, error)
	UpdateStreak(ctx context.Context, userID string, current, longest int, day time.Time) error
	// AddXP atomically adds amount and returns the new total.
	AddXP(ctx context.Context, userID string, amount int) (int, error)
	SetLevel(ctx context.Context, userID string, level int) error
	AddTokens(ctx context.Context, userID string, amount float64) error
	AddXPEvent(ctx context.Context, userID, event string, amount int, at time.Time) error
	// IncrementCounter adds one to the lifetime counter and returns the new total.
	IncrementCounter(ctx context.Context, userID, event string) (int, error)
	// UnlockAchievement reports false when it was already unlocked.
	UnlockAchievement(ctx context.Context, userID, code string, at time.Time) (bool, error)
	ListAchievements(ctx context.Context, userID string) ([]model.UserAchievement, error)
	// IncrementQuest bumps progress unless already completed; completedNow is
	// true only for the call that reaches target.
	IncrementQuest(ctx context.Context, userID, code, periodKey string, target int, at time.Time) (completedNow bool, err error)
	GetQuestProgress(ctx context.Context, userID, code, periodKey string) (*model.QuestProgress, error)
	LeaderboardAllTime(ctx context.Context, limit int) ([]model.LeaderboardEntry, error)
	LeaderboardSince(ctx context.Context, since time.Time, limit int) ([]model.LeaderboardEntry, error)
}

// LeaderboardCache keeps ranked scores per board key.
type LeaderboardCache interface {
	Incr(ctx context.Context, board, userID string, xp int) error
	Top(ctx context.Context, board string, limit int) ([]model.LeaderboardEntry, error)
	Replace(ctx context.Context, board string, entries []model.LeaderboardEntry) error
}

type GamificationUsecase struct {
	store  GamificationStore
	cache  LeaderboardCache
	notify Notifier
	rules  config.Gamification
	log    *zap.Logger
	now    func() time.Time
}

func NewGamificationUsecase(store GamificationStore, cache LeaderboardCache, notify Notifier, rules config.Gamification, log *zap.Logger) *GamificationUsecase {
	return &GamificationUsecase{store: store, cache: cache, notify: notify, rules: rules, log: log, now: time.Now}
}

// Record applies one activity event: streak, XP, achievements and quests.
func (u *GamificationUsecase) Record(ctx context.Context, userID, event string) error {
	now := u.now().UTC()
	user, err := u.store.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return notFound("user")
	}
	metrics.RecordGamificationEvent(event)

	current, longest, changed := NextStreak(user.LastActiveDate, user.CurrentStreak, user.LongestStreak, now)
	if changed {
		if err := u.store.UpdateStreak(ctx, userID, current, longest, truncateDay(now)); err != nil {
			return fmt.Errorf("update streak: %w", err)
		}
	}

	if err := u.award(ctx, user, event, u.rules.XP[event], 0); err != nil {
		return err
	}

	total, err := u.store.IncrementCounter(ctx, userID, event)
	if err != nil {
		return fmt.Errorf("increment counter: %w", err)
	}
	for _, a := range u.rules.Achievements {
		if a.Event != event || total < a.Threshold {
			continue
		}
		unlocked, err := u.store.UnlockAchievement(ctx, userID, a.Code, now)
		if err != nil {
			return fmt.Errorf("unlock achievement: %w", err)
		}
		if !unlocked {
			continue
		}
		if err := u.award(ctx, user, "achievement:"+a.Code, a.RewardXP, a.RewardTokens); err != nil {
			return err
		}
		u.notifyUser(ctx, userID, model.NotifyAchievement, "Achievement unlocked", a.Title, a.Code)
	}

	for _, q := range u.rules.Quests {
		if q.Event != event {
			continue
		}
		completed, err := u.store.IncrementQuest(ctx, userID, q.Code, PeriodKey(q.Period, now), q.Target, now)
		if err != nil {
			return fmt.Errorf("quest progress: %w", err)
		}
		if !completed {
			continue
		}
		if err := u.award(ctx, user, "quest:"+q.Code, q.RewardXP, q.RewardTokens); err != nil {
			return err
		}
		u.notifyUser(ctx, userID, model.NotifyQuest, "Quest complete", q.Title, q.Code)
	}
	return nil
}

// award grants xp and tokens, keeping user.XP and user.Level current.
func (u *GamificationUsecase) award(ctx context.Context, user *model.User, source string, xp int, tokens float64) error {
	if tokens > 0 {
		if err := u.store.AddTokens(ctx, user.ID, tokens); err != nil {
			return fmt.Errorf("award tokens: %w", err)
		}
	}
	if xp <= 0 {
		return nil
	}

	total, err := u.store.AddXP(ctx, user.ID, xp)
	if err != nil {
		return fmt.Errorf("award xp: %w", err)
	}
	if err := u.store.AddXPEvent(ctx, user.ID, source, xp, u.now()); err != nil {
		return fmt.Errorf("record xp event: %w", err)
	}
	user.XP = total

	if level := LevelFor(total, u.rules.LevelThresholds); level > user.Level {
		if err := u.store.SetLevel(ctx, user.ID, level); err != nil {
			return fmt.Errorf("set level: %w", err)
		}
		user.Level = level
		u.notifyUser(ctx, user.ID, model.NotifyLevelUp, "Level up!", fmt.Sprintf("You reached level %d", level), "")
	}

	if u.cache != nil {
		for _, board := range []string{LeaderboardAll, u.weeklyBoard()} {
			if err := u.cache.Incr(ctx, board, user.ID, xp); err != nil {
				u.log.Warn("leaderboard cache update failed", zap.String("board", board), zap.Error(err))
			}
		}
	}
	return nil
}

func (u *GamificationUsecase) notifyUser(ctx context.Context, userID, kind, title, body, ref string) {
	if u.notify != nil {
		u.notify.Notify(ctx, userID, kind, title, body, ref)
	}
}

func (u *GamificationUsecase) Status(ctx context.Context, userID string) (*model.GamificationStatus, error) {
	user, err := u.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, notFound("user")
	}

	now := u.now().UTC()
	current := user.CurrentStreak
	// A streak is broken once a full day passes without activity.
	if user.LastActiveDate != nil && truncateDay(*user.LastActiveDate).Before(truncateDay(now).AddDate(0, 0, -1)) {
		current = 0
	}

	status := &model.GamificationStatus{
		XP:            user.XP,
		Level:         user.Level,
		NextLevelXP:   NextLevelXP(user.Level, u.rules.LevelThresholds),
		CurrentStreak: current,
		LongestStreak: user.LongestStreak,
		Quests:        []model.QuestStatus{},
	}

	for _, q := range u.rules.Quests {
		key := PeriodKey(q.Period, now)
		qs := model.QuestStatus{Quest: q, PeriodKey: key}
		p, err := u.store.GetQuestProgress(ctx, userID, q.Code, key)
		if err != nil {
			return nil, err
		}
		if p != nil {
			qs.Progress = p.Progress
			qs.Completed = p.CompletedAt != nil
		}
		status.Quests = append(status.Quests, qs)
	}

	if status.Achievements, err = u.store.ListAchievements(ctx, userID); err != nil {
		return nil, err
	}
	if status.Achievements == nil {
		status.Achievements = []model.UserAchievement{}
	}
	return status, nil
}

func (u *GamificationUsecase) Leaderboard(ctx context.Context, period string, limit int) ([]model.LeaderboardEntry, error) {
	limit = clampLimit(limit, 10, 100)

	var board string
	switch period {
	case "", LeaderboardAll:
		board = LeaderboardAll
	case LeaderboardWeekly:
		board = u.weeklyBoard()
	default:
		return nil, invalid("period must be all or weekly")
	}

	if u.cache != nil {
		entries, err := u.cache.Top(ctx, board, limit)
		if err == nil && len(entries) > 0 {
			return u.fillNames(ctx, entries)
		}
		if err != nil {
			u.log.Warn("leaderboard cache read failed", zap.String("board", board), zap.Error(err))
		}
	}

	entries, err := u.fromStore(ctx, board, limit)
	if err != nil {
		return nil, err
	}
	return rank(entries), nil
}

// RebuildLeaderboards recomputes cached boards from the database.
func (u *GamificationUsecase) RebuildLeaderboards(ctx context.Context) error {
	if u.cache == nil {
		return nil
	}
	for _, board := range []string{LeaderboardAll, u.weeklyBoard()} {
		entries, err := u.fromStore(ctx, board, 1000)
		if err != nil {
			return err
		}
		if err := u.cache.Replace(ctx, board, entries); err != nil {
			return err
		}
	}
	return nil
}

func (u *GamificationUsecase) fromStore(ctx context.Context, board string, limit int) ([]model.LeaderboardEntry, error) {
	if board == LeaderboardAll {
		return u.store.LeaderboardAllTime(ctx, limit)
	}
	return u.store.LeaderboardSince(ctx, WeekStart(u.now()), limit)
}

func (u *GamificationUsecase) weeklyBoard() string {
	return LeaderboardWeekly + ":" + PeriodKey(model.PeriodWeekly, u.now())
}

func (u *GamificationUsecase) fillNames(ctx context.Context, entries []model.LeaderboardEntry) ([]model.LeaderboardEntry, error) {
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.UserID
	}
	users, err := u.store.UsersByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		if user, ok := users[entries[i].UserID]; ok {
			entries[i].Name = user.Name
			entries[i].Level = user.Level
		}
	}
	return rank(entries), nil
}

func rank(entries []model.LeaderboardEntry) []model.LeaderboardEntry {
	if entries == nil {
		return []model.LeaderboardEntry{}
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}
