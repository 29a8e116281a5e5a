package store

import (
	"testing"

	"github.com/dukerupert/startracker/internal/model"
)

func TestLedgerBalanceSumsEntries(t *testing.T) {
	db := setupTestDB(t)
	ls := NewLedgerStore(db)
	childID := createTestChild(t, db, "Mia")

	if err := ls.Record(childID, model.TxEarn, 9, "Daily evaluation", model.RefEvaluation, 1); err != nil {
		t.Fatalf("record earn: %v", err)
	}
	if err := ls.Record(childID, model.TxPenalty, -2, "Penalties", model.RefEvaluation, 1); err != nil {
		t.Fatalf("record penalty: %v", err)
	}
	if err := ls.Record(childID, model.TxRedeem, -5, "Redeemed: Ice cream", model.RefRedemption, 1); err != nil {
		t.Fatalf("record redeem: %v", err)
	}

	balance, err := ls.Balance(childID)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 2 {
		t.Errorf("balance = %d, want 2", balance)
	}
}

func TestLedgerBalanceEmptyIsZero(t *testing.T) {
	db := setupTestDB(t)
	ls := NewLedgerStore(db)
	childID := createTestChild(t, db, "Mia")

	balance, err := ls.Balance(childID)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 0 {
		t.Errorf("balance = %d, want 0", balance)
	}
}

func TestLedgerDeleteByReference(t *testing.T) {
	db := setupTestDB(t)
	ls := NewLedgerStore(db)
	childID := createTestChild(t, db, "Mia")

	ls.Record(childID, model.TxEarn, 9, "eval", model.RefEvaluation, 7)
	ls.Record(childID, model.TxPenalty, -2, "eval penalties", model.RefEvaluation, 7)
	// Same numeric id, different reference type: must survive the delete.
	ls.Record(childID, model.TxRedeem, -5, "redeem", model.RefRedemption, 7)

	if err := ls.DeleteByReference(model.RefEvaluation, 7); err != nil {
		t.Fatalf("delete by reference: %v", err)
	}

	balance, _ := ls.Balance(childID)
	if balance != -5 {
		t.Errorf("balance = %d, want -5", balance)
	}

	txs, err := ls.ListByReference(model.RefRedemption, 7)
	if err != nil {
		t.Fatalf("list by reference: %v", err)
	}
	if len(txs) != 1 {
		t.Fatalf("got %d redemption transactions, want 1", len(txs))
	}
}

func TestLedgerResetBalance(t *testing.T) {
	db := setupTestDB(t)
	ls := NewLedgerStore(db)
	childID := createTestChild(t, db, "Mia")

	ls.Record(childID, model.TxEarn, 9, "eval", model.RefEvaluation, 1)
	ls.Record(childID, model.TxRedeem, -3, "redeem", model.RefRedemption, 1)

	posted, err := ls.ResetBalance(childID)
	if err != nil {
		t.Fatalf("reset balance: %v", err)
	}
	if posted != -6 {
		t.Errorf("posted = %d, want -6", posted)
	}

	balance, _ := ls.Balance(childID)
	if balance != 0 {
		t.Errorf("balance = %d, want 0", balance)
	}
	// History survives: earn, redeem, and the reset entry.
	if n := countRows(t, db, `SELECT COUNT(*) FROM star_transactions WHERE child_id = ?`, childID); n != 3 {
		t.Errorf("got %d transactions, want 3", n)
	}

	// Resetting a zero balance posts nothing.
	posted, err = ls.ResetBalance(childID)
	if err != nil {
		t.Fatalf("reset zero balance: %v", err)
	}
	if posted != 0 {
		t.Errorf("posted = %d, want 0", posted)
	}
	if n := countRows(t, db, `SELECT COUNT(*) FROM star_transactions WHERE child_id = ?`, childID); n != 3 {
		t.Errorf("got %d transactions after no-op reset, want 3", n)
	}
}

func TestLedgerListByChildNewestFirst(t *testing.T) {
	db := setupTestDB(t)
	ls := NewLedgerStore(db)
	childID := createTestChild(t, db, "Mia")

	ls.Record(childID, model.TxEarn, 1, "first", model.RefEvaluation, 1)
	ls.Record(childID, model.TxEarn, 2, "second", model.RefEvaluation, 2)
	ls.Record(childID, model.TxEarn, 3, "third", model.RefEvaluation, 3)

	txs, err := ls.ListByChild(childID, 2)
	if err != nil {
		t.Fatalf("list by child: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("got %d transactions, want 2", len(txs))
	}
	if txs[0].Description != "third" || txs[1].Description != "second" {
		t.Errorf("order = %q, %q, want third, second", txs[0].Description, txs[1].Description)
	}
}

func TestLedgerAllBalances(t *testing.T) {
	db := setupTestDB(t)
	ls := NewLedgerStore(db)
	mia := createTestChild(t, db, "Mia")
	noah := createTestChild(t, db, "Noah")

	ls.Record(mia, model.TxEarn, 3, "eval", model.RefEvaluation, 1)
	ls.Record(noah, model.TxEarn, 8, "eval", model.RefEvaluation, 2)

	balances, err := ls.AllBalances()
	if err != nil {
		t.Fatalf("all balances: %v", err)
	}
	if len(balances) != 2 {
		t.Fatalf("got %d balances, want 2", len(balances))
	}
	if balances[0].ChildName != "Noah" || balances[0].TotalStars != 8 {
		t.Errorf("top balance = %s/%d, want Noah/8", balances[0].ChildName, balances[0].TotalStars)
	}
	if balances[1].TotalStars != 3 {
		t.Errorf("second balance = %d, want 3", balances[1].TotalStars)
	}
}
