package store

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/dukerupert/startracker/internal/model"
)

func setupRewardTest(t *testing.T) (*RewardStore, *LedgerStore, *sql.DB, int64) {
	t.Helper()
	db := setupTestDB(t)
	childID := createTestChild(t, db, "Mia")
	return NewRewardStore(db), NewLedgerStore(db), db, childID
}

func grantStars(t *testing.T, ls *LedgerStore, childID int64, amount int) {
	t.Helper()
	if err := ls.Record(childID, model.TxEarn, amount, "test grant", model.RefEvaluation, 1); err != nil {
		t.Fatalf("grant stars: %v", err)
	}
}

func TestRedeemPaidDebitsAndPends(t *testing.T) {
	rs, ls, _, childID := setupRewardTest(t)
	grantStars(t, ls, childID, 20)

	reward, err := rs.Create(&model.Reward{Name: "Movie night", StarCost: 10})
	if err != nil {
		t.Fatalf("create reward: %v", err)
	}

	redemption, err := rs.Redeem(childID, reward.ID)
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if redemption.Status != model.RedemptionPending {
		t.Errorf("status = %q, want pending", redemption.Status)
	}
	if redemption.StarsSpent != 10 {
		t.Errorf("stars_spent = %d, want 10", redemption.StarsSpent)
	}

	// Debit posts immediately, before approval.
	balance, _ := ls.Balance(childID)
	if balance != 10 {
		t.Errorf("balance = %d, want 10", balance)
	}

	txs, _ := ls.ListByReference(model.RefRedemption, redemption.ID)
	if len(txs) != 1 || txs[0].Amount != -10 {
		t.Errorf("redeem transactions = %+v, want one of -10", txs)
	}
}

func TestRedeemInsufficientStars(t *testing.T) {
	rs, ls, _, childID := setupRewardTest(t)
	grantStars(t, ls, childID, 4)

	reward, _ := rs.Create(&model.Reward{Name: "Movie night", StarCost: 10})

	_, err := rs.Redeem(childID, reward.ID)
	var insufficient *InsufficientStarsError
	if !errors.As(err, &insufficient) {
		t.Fatalf("err = %v, want InsufficientStarsError", err)
	}
	if insufficient.Need != 10 || insufficient.Have != 4 {
		t.Errorf("need/have = %d/%d, want 10/4", insufficient.Need, insufficient.Have)
	}

	// The failed attempt leaves no trace.
	balance, _ := ls.Balance(childID)
	if balance != 4 {
		t.Errorf("balance = %d, want 4", balance)
	}
}

func TestRedeemUnknownReward(t *testing.T) {
	rs, _, _, childID := setupRewardTest(t)

	if _, err := rs.Redeem(childID, 999); !errors.Is(err, ErrRewardNotFound) {
		t.Errorf("err = %v, want ErrRewardNotFound", err)
	}
}

func TestRedeemFreeDailyOncePerDay(t *testing.T) {
	rs, ls, _, childID := setupRewardTest(t)

	reward, _ := rs.Create(&model.Reward{Name: "Extra story", IsFreeDaily: true})

	day := date(2026, time.January, 5)
	rs.now = func() time.Time { return day }

	redemption, err := rs.Redeem(childID, reward.ID)
	if err != nil {
		t.Fatalf("free redeem: %v", err)
	}
	if redemption.Status != model.RedemptionApproved {
		t.Errorf("status = %q, want approved", redemption.Status)
	}
	if redemption.ApprovedAt == nil {
		t.Error("approved_at not set on free claim")
	}

	// Free claims never touch the ledger.
	balance, _ := ls.Balance(childID)
	if balance != 0 {
		t.Errorf("balance = %d, want 0", balance)
	}

	if _, err := rs.Redeem(childID, reward.ID); !errors.Is(err, ErrAlreadyClaimedToday) {
		t.Errorf("second claim err = %v, want ErrAlreadyClaimedToday", err)
	}

	// Next day is claimable again.
	next := day.AddDate(0, 0, 1)
	rs.now = func() time.Time { return next }
	if _, err := rs.Redeem(childID, reward.ID); err != nil {
		t.Errorf("next-day claim: %v", err)
	}
}

func TestApproveStampsWithoutLedgerEffect(t *testing.T) {
	rs, ls, _, childID := setupRewardTest(t)
	grantStars(t, ls, childID, 20)

	reward, _ := rs.Create(&model.Reward{Name: "Movie night", StarCost: 10})
	redemption, _ := rs.Redeem(childID, reward.ID)

	if err := rs.Approve(redemption.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}

	got, _ := rs.GetRedemption(redemption.ID)
	if got.Status != model.RedemptionApproved {
		t.Errorf("status = %q, want approved", got.Status)
	}
	if got.ApprovedAt == nil {
		t.Error("approved_at not set")
	}

	balance, _ := ls.Balance(childID)
	if balance != 10 {
		t.Errorf("balance = %d, want 10", balance)
	}
}

func TestApproveUnknownRedemption(t *testing.T) {
	rs, _, _, _ := setupRewardTest(t)

	if err := rs.Approve(999); !errors.Is(err, ErrRedemptionNotFound) {
		t.Errorf("err = %v, want ErrRedemptionNotFound", err)
	}
}

func TestRejectRefundsByDeletion(t *testing.T) {
	rs, ls, db, childID := setupRewardTest(t)
	grantStars(t, ls, childID, 20)

	reward, _ := rs.Create(&model.Reward{Name: "Movie night", StarCost: 10})
	redemption, _ := rs.Redeem(childID, reward.ID)

	if err := rs.Reject(redemption.ID); err != nil {
		t.Fatalf("reject: %v", err)
	}

	got, _ := rs.GetRedemption(redemption.ID)
	if got.Status != model.RedemptionRejected {
		t.Errorf("status = %q, want rejected", got.Status)
	}

	// Balance returns to its pre-redemption value.
	balance, _ := ls.Balance(childID)
	if balance != 20 {
		t.Errorf("balance = %d, want 20", balance)
	}
	if n := countRows(t, db, `SELECT COUNT(*) FROM star_transactions WHERE reference_type = ? AND reference_id = ?`, model.RefRedemption, redemption.ID); n != 0 {
		t.Errorf("got %d leftover transactions, want 0", n)
	}
}

func TestDeleteRedemptionRefunds(t *testing.T) {
	rs, ls, _, childID := setupRewardTest(t)
	grantStars(t, ls, childID, 20)

	reward, _ := rs.Create(&model.Reward{Name: "Movie night", StarCost: 10})
	redemption, _ := rs.Redeem(childID, reward.ID)

	if err := rs.DeleteRedemption(redemption.ID); err != nil {
		t.Fatalf("delete redemption: %v", err)
	}

	got, _ := rs.GetRedemption(redemption.ID)
	if got != nil {
		t.Errorf("redemption still present: %+v", got)
	}
	balance, _ := ls.Balance(childID)
	if balance != 20 {
		t.Errorf("balance = %d, want 20", balance)
	}
}

func TestListPendingOldestFirst(t *testing.T) {
	rs, ls, _, childID := setupRewardTest(t)
	grantStars(t, ls, childID, 100)

	first, _ := rs.Create(&model.Reward{Name: "First", StarCost: 5})
	second, _ := rs.Create(&model.Reward{Name: "Second", StarCost: 5})

	r1, _ := rs.Redeem(childID, first.ID)
	rs.Redeem(childID, second.ID)

	pending, err := rs.ListPendingRedemptions()
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("got %d pending, want 2", len(pending))
	}
	if pending[0].ID != r1.ID {
		t.Errorf("first pending = %d, want %d", pending[0].ID, r1.ID)
	}
}

func TestRewardDeleteRemovesHistory(t *testing.T) {
	rs, ls, db, childID := setupRewardTest(t)
	grantStars(t, ls, childID, 20)

	reward, _ := rs.Create(&model.Reward{Name: "Movie night", StarCost: 10})
	rs.Redeem(childID, reward.ID)

	if err := rs.Delete(reward.ID); err != nil {
		t.Fatalf("delete reward: %v", err)
	}
	if n := countRows(t, db, `SELECT COUNT(*) FROM reward_redemptions WHERE reward_id = ?`, reward.ID); n != 0 {
		t.Errorf("got %d redemptions, want 0", n)
	}
	got, _ := rs.GetByID(reward.ID)
	if got != nil {
		t.Errorf("reward still present: %+v", got)
	}
}
