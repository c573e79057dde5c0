package usecase

import (
	"fmt"
	"time"

	"tidyup-backend/model"
)

// NextStreak applies one day of activity at now (UTC calendar days).
// changed is false when the user was already active today.
func NextStreak(lastActive *time.Time, current, longest int, now time.Time) (newCurrent, newLongest int, changed bool) {
	today := truncateDay(now)
	switch {
	case lastActive == nil:
		newCurrent = 1
	case truncateDay(*lastActive).Equal(today):
		return current, longest, false
	case truncateDay(*lastActive).Equal(today.AddDate(0, 0, -1)):
		newCurrent = current + 1
	default:
		newCurrent = 1
	}
	newLongest = longest
	if newCurrent > newLongest {
		newLongest = newCurrent
	}
	return newCurrent, newLongest, true
}

// LevelFor returns the 1-based level reached with xp.
func LevelFor(xp int, thresholds []int) int {
	level := 1
	for i := 1; i < len(thresholds); i++ {
		if xp >= thresholds[i] {
			level = i + 1
		}
	}
	return level
}

// NextLevelXP is the xp needed for the level after level, 0 at max level.
func NextLevelXP(level int, thresholds []int) int {
	if level < len(thresholds) {
		return thresholds[level]
	}
	return 0
}

// PeriodKey identifies the quest period containing now.
func PeriodKey(period string, now time.Time) string {
	now = now.UTC()
	switch period {
	case model.PeriodDaily:
		return now.Format("2006-01-02")
	case model.PeriodWeekly:
		year, week := now.ISOWeek()
		return fmt.Sprintf("%d-W%02d", year, week)
	default:
		return model.PeriodOnce
	}
}

// WeekStart is Monday 00:00 UTC of the ISO week containing now.
func WeekStart(now time.Time) time.Time {
	day := truncateDay(now)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
