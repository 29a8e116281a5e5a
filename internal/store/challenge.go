package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/startracker/internal/model"
)

// ChallengeStore tracks weekly challenge check-ins. A progress row covers
// one (child, reward, Monday-keyed week); day flags are set once and never
// cleared, and the completion bonus is paid exactly once per row.
type ChallengeStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewChallengeStore(db *sql.DB) *ChallengeStore {
	return &ChallengeStore{db: db, now: time.Now}
}

// CheckInResult reports either the just-awarded completion bonus or the
// number of days checked in so far this week.
type CheckInResult struct {
	BonusAwarded  bool `json:"bonus_awarded"`
	BonusStars    int  `json:"bonus_stars,omitempty"`
	DaysCompleted int  `json:"days_completed"`
}

// CheckIn marks today's flag on the current week's progress row, creating
// the row lazily on the first check-in of the week. Checking in twice on
// one day fails with ErrAlreadyCheckedIn. When the seventh flag lands and
// the bonus has not been paid, one earn transaction for the reward's
// weekly bonus is posted and the bonus_awarded flag set, all in the same
// transaction.
func (s *ChallengeStore) CheckIn(childID, rewardID int64) (*CheckInResult, error) {
	now := s.now()
	week := weekStart(now)
	day := weekdayIndex(now)
	dayCol := fmt.Sprintf("day_%d", day)

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var bonusStars int
	var rewardName string
	err = tx.QueryRow(`SELECT weekly_bonus_stars, name FROM rewards WHERE id = ?`, rewardID).Scan(&bonusStars, &rewardName)
	if err == sql.ErrNoRows {
		return nil, ErrRewardNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get reward: %w", err)
	}

	progress, err := getProgress(tx, childID, rewardID, week)
	if err != nil {
		return nil, err
	}

	if progress == nil {
		result, err := tx.Exec(
			`INSERT INTO weekly_challenge_progress (child_id, reward_id, week_start, `+dayCol+`) VALUES (?, ?, ?, 1)`,
			childID, rewardID, week,
		)
		if err != nil {
			return nil, fmt.Errorf("insert progress: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("last insert id: %w", err)
		}
		progress = &model.WeeklyChallengeProgress{ID: id, ChildID: childID, RewardID: rewardID, WeekStart: week}
		progress.Days[day-1] = true
	} else {
		if progress.Days[day-1] {
			return nil, ErrAlreadyCheckedIn
		}
		if _, err := tx.Exec(
			`UPDATE weekly_challenge_progress SET `+dayCol+` = 1 WHERE id = ?`,
			progress.ID,
		); err != nil {
			return nil, fmt.Errorf("update progress: %w", err)
		}
		progress.Days[day-1] = true
	}

	result := &CheckInResult{DaysCompleted: progress.DaysCompleted()}

	if progress.AllDaysDone() && !progress.BonusAwarded {
		// Guarded flag flip: zero rows means another check-in already
		// claimed the bonus, so no payout happens here.
		res, err := tx.Exec(
			`UPDATE weekly_challenge_progress SET bonus_awarded = 1 WHERE id = ? AND bonus_awarded = 0`,
			progress.ID,
		)
		if err != nil {
			return nil, fmt.Errorf("mark bonus awarded: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("mark bonus awarded: %w", err)
		}
		if n == 1 {
			if err := insertTransaction(tx, childID, model.TxEarn, bonusStars, "Weekly challenge complete: "+rewardName, model.RefChallenge, progress.ID); err != nil {
				return nil, err
			}
			result.BonusAwarded = true
			result.BonusStars = bonusStars
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return result, nil
}

func scanProgress(scanner interface{ Scan(...any) error }) (*model.WeeklyChallengeProgress, error) {
	var p model.WeeklyChallengeProgress
	var days [7]int
	var awarded int

	err := scanner.Scan(
		&p.ID, &p.ChildID, &p.RewardID, &p.WeekStart,
		&days[0], &days[1], &days[2], &days[3], &days[4], &days[5], &days[6],
		&awarded, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	for i, d := range days {
		p.Days[i] = d != 0
	}
	p.BonusAwarded = awarded != 0
	return &p, nil
}

const progressCols = `id, child_id, reward_id, week_start, day_1, day_2, day_3, day_4, day_5, day_6, day_7, bonus_awarded, created_at`

func getProgress(q querier, childID, rewardID int64, week string) (*model.WeeklyChallengeProgress, error) {
	row := q.QueryRow(
		`SELECT `+progressCols+` FROM weekly_challenge_progress WHERE child_id = ? AND reward_id = ? AND week_start = ?`,
		childID, rewardID, week,
	)
	p, err := scanProgress(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get progress: %w", err)
	}
	return p, nil
}

// CurrentWeek returns a child's progress rows for the running week with the
// reward attached.
func (s *ChallengeStore) CurrentWeek(childID int64) ([]model.WeeklyChallengeProgress, error) {
	rows, err := s.db.Query(
		`SELECT `+progressCols+` FROM weekly_challenge_progress WHERE child_id = ? AND week_start = ? ORDER BY reward_id ASC`,
		childID, weekStart(s.now()),
	)
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}
	defer rows.Close()

	var progresses []model.WeeklyChallengeProgress
	for rows.Next() {
		p, err := scanProgress(rows)
		if err != nil {
			return nil, fmt.Errorf("scan progress: %w", err)
		}
		progresses = append(progresses, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate progress: %w", err)
	}
	rows.Close()

	for i := range progresses {
		row := s.db.QueryRow(`SELECT `+rewardCols+` FROM rewards WHERE id = ?`, progresses[i].RewardID)
		r, err := scanReward(row)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("get progress reward: %w", err)
		}
		progresses[i].Reward = r
	}
	return progresses, nil
}
