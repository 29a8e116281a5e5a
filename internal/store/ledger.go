package store

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/startracker/internal/model"
)

// LedgerStore reads and writes the star transaction log. The log is
// append-only: corrections happen by adding entries or deleting everything
// tied to one reference, never by editing an entry in place. A child's
// balance is always the sum of their entries.
type LedgerStore struct {
	db *sql.DB
}

func NewLedgerStore(db *sql.DB) *LedgerStore {
	return &LedgerStore{db: db}
}

// querier is satisfied by both *sql.DB and *sql.Tx so the ledger helpers
// can run inside the multi-table transactions of the evaluation, challenge,
// and redemption stores.
type querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

func insertTransaction(q querier, childID int64, txType string, amount int, description, refType string, refID int64) error {
	_, err := q.Exec(
		`INSERT INTO star_transactions (child_id, type, amount, description, reference_type, reference_id) VALUES (?, ?, ?, ?, ?, ?)`,
		childID, txType, amount, description, refType, refID,
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func deleteTransactionsByReference(q querier, refType string, refID int64) error {
	_, err := q.Exec(
		`DELETE FROM star_transactions WHERE reference_type = ? AND reference_id = ?`,
		refType, refID,
	)
	if err != nil {
		return fmt.Errorf("delete transactions by reference: %w", err)
	}
	return nil
}

func sumBalance(q querier, childID int64) (int, error) {
	var balance int
	err := q.QueryRow(
		`SELECT COALESCE(SUM(amount), 0) FROM star_transactions WHERE child_id = ?`,
		childID,
	).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("sum balance: %w", err)
	}
	return balance, nil
}

// Record appends one entry to a child's ledger.
func (s *LedgerStore) Record(childID int64, txType string, amount int, description string, refType string, refID int64) error {
	return insertTransaction(s.db, childID, txType, amount, description, refType, refID)
}

// Balance returns the sum of all of a child's transaction amounts.
func (s *LedgerStore) Balance(childID int64) (int, error) {
	return sumBalance(s.db, childID)
}

// ResetBalance posts a compensating reset entry that brings a child's
// balance to zero. History stays intact; the reset is just another entry.
// Returns the amount posted, zero if the balance was already zero.
func (s *LedgerStore) ResetBalance(childID int64) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	balance, err := sumBalance(tx, childID)
	if err != nil {
		return 0, err
	}
	if balance == 0 {
		return 0, nil
	}

	if err := insertTransaction(tx, childID, model.TxReset, -balance, "Balance reset", "", 0); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return -balance, nil
}

// DeleteByReference removes every entry tied to one logical event,
// reversing its ledger effect exactly.
func (s *LedgerStore) DeleteByReference(refType string, refID int64) error {
	return deleteTransactionsByReference(s.db, refType, refID)
}

func scanTransaction(scanner interface{ Scan(...any) error }) (*model.StarTransaction, error) {
	var t model.StarTransaction
	var refType sql.NullString
	var refID sql.NullInt64

	err := scanner.Scan(&t.ID, &t.ChildID, &t.Type, &t.Amount, &t.Description, &refType, &refID, &t.CreatedAt)
	if err != nil {
		return nil, err
	}

	if refType.Valid {
		t.ReferenceType = &refType.String
	}
	if refID.Valid {
		t.ReferenceID = &refID.Int64
	}
	return &t, nil
}

const transactionCols = `id, child_id, type, amount, description, reference_type, reference_id, created_at`

// ListByChild returns a child's transactions, newest first.
func (s *LedgerStore) ListByChild(childID int64, limit int) ([]model.StarTransaction, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT `+transactionCols+` FROM star_transactions WHERE child_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`,
		childID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txs []model.StarTransaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txs = append(txs, *t)
	}
	return txs, rows.Err()
}

// ListByReference returns the entries tied to one logical event.
func (s *LedgerStore) ListByReference(refType string, refID int64) ([]model.StarTransaction, error) {
	rows, err := s.db.Query(
		`SELECT `+transactionCols+` FROM star_transactions WHERE reference_type = ? AND reference_id = ? ORDER BY id ASC`,
		refType, refID,
	)
	if err != nil {
		return nil, fmt.Errorf("list transactions by reference: %w", err)
	}
	defer rows.Close()

	var txs []model.StarTransaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txs = append(txs, *t)
	}
	return txs, rows.Err()
}

// AllBalances returns a balance row per child, highest balance first.
func (s *LedgerStore) AllBalances() ([]model.ChildStarBalance, error) {
	rows, err := s.db.Query(`
		SELECT c.id, c.name, COALESCE(SUM(t.amount), 0)
		FROM children c
		LEFT JOIN star_transactions t ON t.child_id = c.id
		GROUP BY c.id, c.name
		ORDER BY 3 DESC, c.name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list balances: %w", err)
	}
	defer rows.Close()

	var balances []model.ChildStarBalance
	for rows.Next() {
		var b model.ChildStarBalance
		if err := rows.Scan(&b.ChildID, &b.ChildName, &b.TotalStars); err != nil {
			return nil, fmt.Errorf("scan balance: %w", err)
		}
		balances = append(balances, b)
	}
	return balances, rows.Err()
}
