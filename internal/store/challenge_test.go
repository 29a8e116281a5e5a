package store

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/dukerupert/startracker/internal/model"
)

func setupChallengeTest(t *testing.T) (*ChallengeStore, *LedgerStore, *sql.DB, int64, int64) {
	t.Helper()
	db := setupTestDB(t)
	childID := createTestChild(t, db, "Mia")

	reward, err := NewRewardStore(db).Create(&model.Reward{
		Name:              "Reading streak",
		IsWeeklyChallenge: true,
		WeeklyBonusStars:  10,
	})
	if err != nil {
		t.Fatalf("create reward: %v", err)
	}
	return NewChallengeStore(db), NewLedgerStore(db), db, childID, reward.ID
}

// monday is a fixed Monday used as the base of test weeks.
var monday = date(2026, time.January, 5)

func TestCheckInCreatesRowLazily(t *testing.T) {
	cs, _, db, childID, rewardID := setupChallengeTest(t)
	cs.now = func() time.Time { return monday }

	result, err := cs.CheckIn(childID, rewardID)
	if err != nil {
		t.Fatalf("check in: %v", err)
	}
	if result.DaysCompleted != 1 {
		t.Errorf("days completed = %d, want 1", result.DaysCompleted)
	}
	if result.BonusAwarded {
		t.Error("bonus awarded after one day")
	}
	if n := countRows(t, db, `SELECT COUNT(*) FROM weekly_challenge_progress WHERE child_id = ?`, childID); n != 1 {
		t.Errorf("got %d progress rows, want 1", n)
	}
}

func TestCheckInSameDayTwiceFails(t *testing.T) {
	cs, _, _, childID, rewardID := setupChallengeTest(t)
	cs.now = func() time.Time { return monday }

	if _, err := cs.CheckIn(childID, rewardID); err != nil {
		t.Fatalf("first check in: %v", err)
	}
	if _, err := cs.CheckIn(childID, rewardID); !errors.Is(err, ErrAlreadyCheckedIn) {
		t.Errorf("err = %v, want ErrAlreadyCheckedIn", err)
	}
}

func TestCheckInUnknownReward(t *testing.T) {
	cs, _, _, childID, _ := setupChallengeTest(t)

	if _, err := cs.CheckIn(childID, 999); !errors.Is(err, ErrRewardNotFound) {
		t.Errorf("err = %v, want ErrRewardNotFound", err)
	}
}

func TestCheckInSevenDaysAwardsBonusOnce(t *testing.T) {
	cs, ls, _, childID, rewardID := setupChallengeTest(t)

	for i := 0; i < 7; i++ {
		d := monday.AddDate(0, 0, i)
		cs.now = func() time.Time { return d }
		result, err := cs.CheckIn(childID, rewardID)
		if err != nil {
			t.Fatalf("check in day %d: %v", i+1, err)
		}
		if i < 6 && result.BonusAwarded {
			t.Errorf("bonus awarded on day %d", i+1)
		}
		if i == 6 {
			if !result.BonusAwarded {
				t.Error("bonus not awarded on day 7")
			}
			if result.BonusStars != 10 {
				t.Errorf("bonus stars = %d, want 10", result.BonusStars)
			}
		}
	}

	balance, _ := ls.Balance(childID)
	if balance != 10 {
		t.Errorf("balance = %d, want 10", balance)
	}

	// The bonus transaction is posted exactly once.
	txs, _ := ls.ListByChild(childID, 0)
	if len(txs) != 1 {
		t.Errorf("got %d transactions, want 1", len(txs))
	}
}

func TestCheckInBonusFlagFlipsOnce(t *testing.T) {
	cs, ls, db, childID, rewardID := setupChallengeTest(t)

	for i := 0; i < 6; i++ {
		d := monday.AddDate(0, 0, i)
		cs.now = func() time.Time { return d }
		if _, err := cs.CheckIn(childID, rewardID); err != nil {
			t.Fatalf("check in day %d: %v", i+1, err)
		}
	}

	// The flag already flipped, as if another check-in won the race.
	if _, err := db.Exec(
		`UPDATE weekly_challenge_progress SET bonus_awarded = 1 WHERE child_id = ?`, childID,
	); err != nil {
		t.Fatalf("set bonus flag: %v", err)
	}

	sunday := monday.AddDate(0, 0, 6)
	cs.now = func() time.Time { return sunday }
	result, err := cs.CheckIn(childID, rewardID)
	if err != nil {
		t.Fatalf("check in day 7: %v", err)
	}
	if result.BonusAwarded {
		t.Error("bonus awarded a second time")
	}
	if result.DaysCompleted != 7 {
		t.Errorf("days completed = %d, want 7", result.DaysCompleted)
	}

	balance, _ := ls.Balance(childID)
	if balance != 0 {
		t.Errorf("balance = %d, want 0", balance)
	}
}

func TestCheckInNewWeekStartsFresh(t *testing.T) {
	cs, ls, db, childID, rewardID := setupChallengeTest(t)

	for i := 0; i < 7; i++ {
		d := monday.AddDate(0, 0, i)
		cs.now = func() time.Time { return d }
		if _, err := cs.CheckIn(childID, rewardID); err != nil {
			t.Fatalf("check in day %d: %v", i+1, err)
		}
	}

	// Next Monday: a fresh row, one day done, no new bonus.
	nextMonday := monday.AddDate(0, 0, 7)
	cs.now = func() time.Time { return nextMonday }
	result, err := cs.CheckIn(childID, rewardID)
	if err != nil {
		t.Fatalf("check in next week: %v", err)
	}
	if result.DaysCompleted != 1 {
		t.Errorf("days completed = %d, want 1", result.DaysCompleted)
	}
	if result.BonusAwarded {
		t.Error("bonus awarded on first day of new week")
	}
	if n := countRows(t, db, `SELECT COUNT(*) FROM weekly_challenge_progress WHERE child_id = ?`, childID); n != 2 {
		t.Errorf("got %d progress rows, want 2", n)
	}

	balance, _ := ls.Balance(childID)
	if balance != 10 {
		t.Errorf("balance = %d, want 10", balance)
	}
}

func TestCurrentWeekAttachesReward(t *testing.T) {
	cs, _, _, childID, rewardID := setupChallengeTest(t)
	cs.now = func() time.Time { return monday }

	if _, err := cs.CheckIn(childID, rewardID); err != nil {
		t.Fatalf("check in: %v", err)
	}

	progress, err := cs.CurrentWeek(childID)
	if err != nil {
		t.Fatalf("current week: %v", err)
	}
	if len(progress) != 1 {
		t.Fatalf("got %d progress rows, want 1", len(progress))
	}
	if progress[0].Reward == nil || progress[0].Reward.Name != "Reading streak" {
		t.Errorf("reward not attached: %+v", progress[0].Reward)
	}
	if !progress[0].Days[0] {
		t.Error("Monday flag not set")
	}
}
