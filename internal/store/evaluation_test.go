package store

import (
	"database/sql"
	"testing"
	"time"

	"github.com/dukerupert/startracker/internal/model"
)

func setupEvaluationTest(t *testing.T) (*EvaluationStore, *LedgerStore, *sql.DB, int64) {
	t.Helper()
	db := setupTestDB(t)
	childID := createTestChild(t, db, "Mia")
	return NewEvaluationStore(db), NewLedgerStore(db), db, childID
}

func createActivityType(t *testing.T, db *sql.DB, name string, levels [3]int) int64 {
	t.Helper()
	at, err := NewCatalogStore(db).CreateActivityType(name, "⭐", "", levels, 0)
	if err != nil {
		t.Fatalf("create activity type: %v", err)
	}
	return at.ID
}

func createPenaltyType(t *testing.T, db *sql.DB, name, kind string, value int) int64 {
	t.Helper()
	pt, err := NewCatalogStore(db).CreatePenaltyType(name, "", kind, value, "")
	if err != nil {
		t.Fatalf("create penalty type: %v", err)
	}
	return pt.ID
}

func TestSubmitComputesTotals(t *testing.T) {
	es, ls, db, childID := setupEvaluationTest(t)

	homework := createActivityType(t, db, "Homework", [3]int{1, 3, 5})
	reading := createActivityType(t, db, "Reading", [3]int{2, 3, 4})
	bonus := createPenaltyType(t, db, "Helped sibling", model.PenaltyKindBonus, 1)
	penalty := createPenaltyType(t, db, "Yelling", model.PenaltyKindPenalty, 2)

	result, err := es.Submit(childID, []model.ActivityRating{
		{ActivityTypeID: homework, StarLevel: 3},
		{ActivityTypeID: reading, StarLevel: 2},
	}, []int64{bonus, penalty}, "good day", 0)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	// 5 + 3 from activities, +1 bonus; 2 deducted.
	if result.Earned != 9 {
		t.Errorf("earned = %d, want 9", result.Earned)
	}
	if result.Deducted != 2 {
		t.Errorf("deducted = %d, want 2", result.Deducted)
	}

	balance, _ := ls.Balance(childID)
	if balance != 7 {
		t.Errorf("balance = %d, want 7", balance)
	}

	txs, _ := ls.ListByChild(childID, 0)
	if len(txs) != 2 {
		t.Fatalf("got %d transactions, want 2", len(txs))
	}
}

func TestSubmitBonusStoredNegative(t *testing.T) {
	es, _, db, childID := setupEvaluationTest(t)

	bonus := createPenaltyType(t, db, "Extra kind", model.PenaltyKindBonus, 2)
	if _, err := es.Submit(childID, nil, []int64{bonus}, "", 0); err != nil {
		t.Fatalf("submit: %v", err)
	}

	eval, err := es.GetToday(childID)
	if err != nil {
		t.Fatalf("get today: %v", err)
	}
	if len(eval.Penalties) != 1 {
		t.Fatalf("got %d penalties, want 1", len(eval.Penalties))
	}
	if eval.Penalties[0].StarsDeducted != -2 {
		t.Errorf("stars_deducted = %d, want -2", eval.Penalties[0].StarsDeducted)
	}
	if eval.TotalStarsEarned != 2 || eval.TotalStarsDeducted != 0 {
		t.Errorf("totals = %d/%d, want 2/0", eval.TotalStarsEarned, eval.TotalStarsDeducted)
	}
}

func TestSubmitUnknownActivityScoresRawLevel(t *testing.T) {
	es, ls, _, childID := setupEvaluationTest(t)

	result, err := es.Submit(childID, []model.ActivityRating{
		{ActivityTypeID: 999, StarLevel: 2},
	}, nil, "", 0)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Earned != 2 {
		t.Errorf("earned = %d, want 2", result.Earned)
	}

	balance, _ := ls.Balance(childID)
	if balance != 2 {
		t.Errorf("balance = %d, want 2", balance)
	}
}

func TestSubmitUnknownPenaltyDeductsOne(t *testing.T) {
	es, _, _, childID := setupEvaluationTest(t)

	result, err := es.Submit(childID, nil, []int64{999}, "", 0)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Deducted != 1 {
		t.Errorf("deducted = %d, want 1", result.Deducted)
	}
}

func TestResubmitReplacesEvaluation(t *testing.T) {
	es, ls, db, childID := setupEvaluationTest(t)

	homework := createActivityType(t, db, "Homework", [3]int{1, 3, 5})

	if _, err := es.Submit(childID, []model.ActivityRating{
		{ActivityTypeID: homework, StarLevel: 3},
	}, nil, "first pass", 0); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if _, err := es.Submit(childID, []model.ActivityRating{
		{ActivityTypeID: homework, StarLevel: 1},
	}, nil, "corrected", 0); err != nil {
		t.Fatalf("second submit: %v", err)
	}

	// Only the latest submission counts, in the ledger and in the record.
	balance, _ := ls.Balance(childID)
	if balance != 1 {
		t.Errorf("balance = %d, want 1", balance)
	}
	if n := countRows(t, db, `SELECT COUNT(*) FROM daily_evaluations WHERE child_id = ?`, childID); n != 1 {
		t.Errorf("got %d evaluation rows, want 1", n)
	}

	eval, _ := es.GetToday(childID)
	if eval.Notes != "corrected" {
		t.Errorf("notes = %q, want %q", eval.Notes, "corrected")
	}
	if len(eval.Details) != 1 || eval.Details[0].StarsEarned != 1 {
		t.Errorf("details not replaced: %+v", eval.Details)
	}
}

func TestSubmitEmptyPayloadWritesZeroEvaluation(t *testing.T) {
	es, ls, _, childID := setupEvaluationTest(t)

	result, err := es.Submit(childID, nil, nil, "", 0)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Earned != 0 || result.Deducted != 0 {
		t.Errorf("totals = %d/%d, want 0/0", result.Earned, result.Deducted)
	}

	eval, _ := es.GetToday(childID)
	if eval == nil {
		t.Fatal("expected a zero-total evaluation, got nil")
	}

	// Zero totals post no transactions.
	txs, _ := ls.ListByChild(childID, 0)
	if len(txs) != 0 {
		t.Errorf("got %d transactions, want 0", len(txs))
	}
}

func TestGetTodayNilWhenAbsent(t *testing.T) {
	es, _, _, childID := setupEvaluationTest(t)

	eval, err := es.GetToday(childID)
	if err != nil {
		t.Fatalf("get today: %v", err)
	}
	if eval != nil {
		t.Errorf("expected nil, got %+v", eval)
	}
}

func TestHistoryNewestFirst(t *testing.T) {
	es, _, _, childID := setupEvaluationTest(t)

	day := date(2026, time.January, 5)
	for i := 0; i < 3; i++ {
		d := day.AddDate(0, 0, i)
		es.now = func() time.Time { return d }
		if _, err := es.Submit(childID, []model.ActivityRating{{ActivityTypeID: 999, StarLevel: 1}}, nil, "", 0); err != nil {
			t.Fatalf("submit day %d: %v", i, err)
		}
	}

	evals, err := es.History(childID, 0)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(evals) != 3 {
		t.Fatalf("got %d evaluations, want 3", len(evals))
	}
	if evals[0].EvalDate != "2026-01-07" || evals[2].EvalDate != "2026-01-05" {
		t.Errorf("order = %s ... %s, want 2026-01-07 ... 2026-01-05", evals[0].EvalDate, evals[2].EvalDate)
	}
}

func TestMonthBoundaries(t *testing.T) {
	es, _, _, childID := setupEvaluationTest(t)

	for _, d := range []time.Time{
		date(2026, time.January, 31),
		date(2026, time.February, 1),
		date(2026, time.February, 28),
		date(2026, time.March, 1),
	} {
		d := d
		es.now = func() time.Time { return d }
		if _, err := es.Submit(childID, nil, nil, "", 0); err != nil {
			t.Fatalf("submit %s: %v", localDate(d), err)
		}
	}

	evals, err := es.Month(childID, 2026, 2)
	if err != nil {
		t.Fatalf("month: %v", err)
	}
	if len(evals) != 2 {
		t.Fatalf("got %d evaluations, want 2", len(evals))
	}
	if evals[0].EvalDate != "2026-02-01" || evals[1].EvalDate != "2026-02-28" {
		t.Errorf("dates = %s, %s", evals[0].EvalDate, evals[1].EvalDate)
	}
}
