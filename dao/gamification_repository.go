package dao

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"tidyup-backend/model"
	"tidyup-backend/pkg/idgen"
)

// GamificationRepository persists XP, streaks, quest progress and achievements.
type GamificationRepository struct {
	db *sqlx.DB
}

func NewGamificationRepository(db *sqlx.DB) *GamificationRepository {
	return &GamificationRepository{db: db}
}

func (r *GamificationRepository) GetUser(ctx context.Context, userID string) (*model.User, error) {
	var u model.User
	return getOrNil(&u, r.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE id = ?`, userID))
}

func (r *GamificationRepository) UsersByIDs(ctx context.Context, ids []string) (map[string]*model.User, error) {
	out := make(map[string]*model.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	query, args, err := sqlx.In(`SELECT `+userColumns+` FROM users WHERE id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	var users []model.User
	if err := r.db.SelectContext(ctx, &users, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	for i := range users {
		out[users[i].ID] = &users[i]
	}
	return out, nil
}

func (r *GamificationRepository) UpdateStreak(ctx context.Context, userID string, current, longest int, day time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET current_streak = ?, longest_streak = ?, last_active_date = ? WHERE id = ?
	`, current, longest, day.Format("2006-01-02"), userID)
	return err
}

func (r *GamificationRepository) AddXP(ctx context.Context, userID string, amount int) (int, error) {
	var total int
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `UPDATE users SET xp = xp + ? WHERE id = ?`, amount, userID); err != nil {
			return err
		}
		return tx.GetContext(ctx, &total, `SELECT xp FROM users WHERE id = ?`, userID)
	})
	return total, err
}

func (r *GamificationRepository) SetLevel(ctx context.Context, userID string, level int) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET level = ? WHERE id = ?`, level, userID)
	return err
}

func (r *GamificationRepository) AddTokens(ctx context.Context, userID string, amount float64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET token_balance = token_balance + ? WHERE id = ?`, amount, userID)
	return err
}

func (r *GamificationRepository) AddXPEvent(ctx context.Context, userID, event string, amount int, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO xp_events (id, user_id, event, amount, created_at) VALUES (?, ?, ?, ?, ?)
	`, idgen.New(), userID, event, amount, at)
	return err
}

func (r *GamificationRepository) IncrementCounter(ctx context.Context, userID, event string) (int, error) {
	var total int
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO user_counters (user_id, event, total) VALUES (?, ?, 1)
			ON DUPLICATE KEY UPDATE total = total + 1
		`, userID, event); err != nil {
			return err
		}
		return tx.GetContext(ctx, &total, `SELECT total FROM user_counters WHERE user_id = ? AND event = ?`, userID, event)
	})
	return total, err
}

func (r *GamificationRepository) UnlockAchievement(ctx context.Context, userID, code string, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT IGNORE INTO user_achievements (user_id, achievement_code, unlocked_at) VALUES (?, ?, ?)
	`, userID, code, at)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *GamificationRepository) ListAchievements(ctx context.Context, userID string) ([]model.UserAchievement, error) {
	var list []model.UserAchievement
	err := r.db.SelectContext(ctx, &list, `
		SELECT user_id, achievement_code, unlocked_at FROM user_achievements
		WHERE user_id = ? ORDER BY unlocked_at
	`, userID)
	return list, err
}

func (r *GamificationRepository) IncrementQuest(ctx context.Context, userID, code, periodKey string, target int, at time.Time) (bool, error) {
	completedNow := false
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT IGNORE INTO quest_progress (user_id, quest_code, period_key, progress) VALUES (?, ?, ?, 0)
		`, userID, code, periodKey); err != nil {
			return err
		}
		var p model.QuestProgress
		if err := tx.GetContext(ctx, &p, `
			SELECT user_id, quest_code, period_key, progress, completed_at FROM quest_progress
			WHERE user_id = ? AND quest_code = ? AND period_key = ? FOR UPDATE
		`, userID, code, periodKey); err != nil {
			return err
		}
		if p.CompletedAt != nil {
			return nil
		}
		p.Progress++
		if p.Progress >= target {
			p.CompletedAt = &at
			completedNow = true
		}
		_, err := tx.ExecContext(ctx, `
			UPDATE quest_progress SET progress = ?, completed_at = ?
			WHERE user_id = ? AND quest_code = ? AND period_key = ?
		`, p.Progress, p.CompletedAt, userID, code, periodKey)
		return err
	})
	return completedNow, err
}

func (r *GamificationRepository) GetQuestProgress(ctx context.Context, userID, code, periodKey string) (*model.QuestProgress, error) {
	var p model.QuestProgress
	return getOrNil(&p, r.db.GetContext(ctx, &p, `
		SELECT user_id, quest_code, period_key, progress, completed_at FROM quest_progress
		WHERE user_id = ? AND quest_code = ? AND period_key = ?
	`, userID, code, periodKey))
}

func (r *GamificationRepository) LeaderboardAllTime(ctx context.Context, limit int) ([]model.LeaderboardEntry, error) {
	var list []model.LeaderboardEntry
	err := r.db.SelectContext(ctx, &list, `
		SELECT id AS user_id, name, xp, level FROM users
		WHERE xp > 0
		ORDER BY xp DESC, id
		LIMIT ?
	`, limit)
	return list, err
}

// LeaderboardSince ranks users by XP earned from since onwards.
func (r *GamificationRepository) LeaderboardSince(ctx context.Context, since time.Time, limit int) ([]model.LeaderboardEntry, error) {
	var list []model.LeaderboardEntry
	err := r.db.SelectContext(ctx, &list, `
		SELECT e.user_id, u.name, SUM(e.amount) AS xp, u.level
		FROM xp_events e JOIN users u ON u.id = e.user_id
		WHERE e.created_at >= ?
		GROUP BY e.user_id, u.name, u.level
		ORDER BY xp DESC, e.user_id
		LIMIT ?
	`, since, limit)
	return list, err
}
