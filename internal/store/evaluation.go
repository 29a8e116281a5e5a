package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/startracker/internal/model"
)

// EvaluationStore owns the daily evaluation records and their derived
// ledger transactions. Each (child, local date) has at most one evaluation;
// resubmitting replaces the previous details, penalties, and transactions
// so the net ledger effect always equals the latest payload.
type EvaluationStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewEvaluationStore(db *sql.DB) *EvaluationStore {
	return &EvaluationStore{db: db, now: time.Now}
}

// SubmitResult reports the totals the submission just posted to the ledger.
type SubmitResult struct {
	Earned   int `json:"earned"`
	Deducted int `json:"deducted"`
}

// Submit records today's evaluation for a child. The whole operation runs
// in one transaction: either the evaluation row, its detail rows, and its
// ledger transactions all land, or none do.
//
// Missing or inactive activity types score the raw level number; missing
// penalty types count as a magnitude-1 penalty. An empty payload still
// writes a zero-total evaluation so "evaluated with nothing notable" is
// distinguishable from "never evaluated".
func (s *EvaluationStore) Submit(childID int64, ratings []model.ActivityRating, penaltyIDs []int64, notes string, evaluatedBy int64) (*SubmitResult, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	activityMap, err := loadActivityMap(tx)
	if err != nil {
		return nil, err
	}
	penaltyMap, err := loadPenaltyMap(tx)
	if err != nil {
		return nil, err
	}

	totalEarned := 0
	totalDeducted := 0

	details := make([]model.EvaluationDetail, 0, len(ratings))
	for _, r := range ratings {
		stars := r.StarLevel
		if a, ok := activityMap[r.ActivityTypeID]; ok {
			stars = a.StarsForLevel(r.StarLevel)
		}
		totalEarned += stars
		details = append(details, model.EvaluationDetail{
			ActivityTypeID: r.ActivityTypeID,
			StarLevel:      r.StarLevel,
			StarsEarned:    stars,
		})
	}

	penalties := make([]model.EvaluationPenalty, 0, len(penaltyIDs))
	for _, pid := range penaltyIDs {
		value := 1
		kind := model.PenaltyKindPenalty
		if p, ok := penaltyMap[pid]; ok {
			value = p.StarDeduction
			kind = p.Kind
		}
		deducted := value
		if kind == model.PenaltyKindBonus {
			totalEarned += value
			deducted = -value // bonus stored negative in the deducted column
		} else {
			totalDeducted += value
		}
		penalties = append(penalties, model.EvaluationPenalty{
			PenaltyTypeID: pid,
			StarsDeducted: deducted,
		})
	}

	today := localDate(s.now())

	var evalID int64
	err = tx.QueryRow(
		`SELECT id FROM daily_evaluations WHERE child_id = ? AND eval_date = ?`,
		childID, today,
	).Scan(&evalID)

	switch {
	case err == sql.ErrNoRows:
		result, err := tx.Exec(
			`INSERT INTO daily_evaluations (child_id, eval_date, notes, total_stars_earned, total_stars_deducted, evaluated_by) VALUES (?, ?, ?, ?, ?, ?)`,
			childID, today, notes, totalEarned, totalDeducted, nullID(evaluatedBy),
		)
		if err != nil {
			return nil, fmt.Errorf("insert evaluation: %w", err)
		}
		evalID, err = result.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("last insert id: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("get existing evaluation: %w", err)
	default:
		// Resubmission: wipe the old details and ledger effect, then
		// rewrite in place under the same evaluation id.
		if _, err := tx.Exec(`DELETE FROM evaluation_details WHERE evaluation_id = ?`, evalID); err != nil {
			return nil, fmt.Errorf("delete old details: %w", err)
		}
		if _, err := tx.Exec(`DELETE FROM evaluation_penalties WHERE evaluation_id = ?`, evalID); err != nil {
			return nil, fmt.Errorf("delete old penalties: %w", err)
		}
		if err := deleteTransactionsByReference(tx, model.RefEvaluation, evalID); err != nil {
			return nil, err
		}
		if _, err := tx.Exec(
			`UPDATE daily_evaluations SET notes = ?, total_stars_earned = ?, total_stars_deducted = ?, evaluated_by = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
			notes, totalEarned, totalDeducted, nullID(evaluatedBy), evalID,
		); err != nil {
			return nil, fmt.Errorf("update evaluation: %w", err)
		}
	}

	for _, d := range details {
		if _, err := tx.Exec(
			`INSERT INTO evaluation_details (evaluation_id, activity_type_id, star_level, stars_earned) VALUES (?, ?, ?, ?)`,
			evalID, d.ActivityTypeID, d.StarLevel, d.StarsEarned,
		); err != nil {
			return nil, fmt.Errorf("insert detail: %w", err)
		}
	}
	for _, p := range penalties {
		if _, err := tx.Exec(
			`INSERT INTO evaluation_penalties (evaluation_id, penalty_type_id, stars_deducted) VALUES (?, ?, ?)`,
			evalID, p.PenaltyTypeID, p.StarsDeducted,
		); err != nil {
			return nil, fmt.Errorf("insert penalty: %w", err)
		}
	}

	if totalEarned > 0 {
		if err := insertTransaction(tx, childID, model.TxEarn, totalEarned, "Daily evaluation "+today, model.RefEvaluation, evalID); err != nil {
			return nil, err
		}
	}
	if totalDeducted > 0 {
		if err := insertTransaction(tx, childID, model.TxPenalty, -totalDeducted, "Penalties "+today, model.RefEvaluation, evalID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return &SubmitResult{Earned: totalEarned, Deducted: totalDeducted}, nil
}

func nullID(id int64) sql.NullInt64 {
	if id == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: id, Valid: true}
}

func loadActivityMap(q querier) (map[int64]*model.ActivityType, error) {
	rows, err := q.Query(`SELECT ` + activityTypeCols + ` FROM activity_types`)
	if err != nil {
		return nil, fmt.Errorf("load activity types: %w", err)
	}
	defer rows.Close()

	m := make(map[int64]*model.ActivityType)
	for rows.Next() {
		a, err := scanActivityType(rows)
		if err != nil {
			return nil, fmt.Errorf("scan activity type: %w", err)
		}
		m[a.ID] = a
	}
	return m, rows.Err()
}

func loadPenaltyMap(q querier) (map[int64]*model.PenaltyType, error) {
	rows, err := q.Query(`SELECT ` + penaltyTypeCols + ` FROM penalty_types`)
	if err != nil {
		return nil, fmt.Errorf("load penalty types: %w", err)
	}
	defer rows.Close()

	m := make(map[int64]*model.PenaltyType)
	for rows.Next() {
		p, err := scanPenaltyType(rows)
		if err != nil {
			return nil, fmt.Errorf("scan penalty type: %w", err)
		}
		m[p.ID] = p
	}
	return m, rows.Err()
}

// --- Query methods ---

func scanEvaluation(scanner interface{ Scan(...any) error }) (*model.DailyEvaluation, error) {
	var e model.DailyEvaluation
	var evaluatedBy sql.NullInt64

	err := scanner.Scan(
		&e.ID, &e.ChildID, &e.EvalDate, &e.Notes,
		&e.TotalStarsEarned, &e.TotalStarsDeducted,
		&evaluatedBy, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if evaluatedBy.Valid {
		e.EvaluatedBy = &evaluatedBy.Int64
	}
	return &e, nil
}

const evaluationCols = `id, child_id, eval_date, notes, total_stars_earned, total_stars_deducted, evaluated_by, created_at, updated_at`

// GetToday returns today's evaluation with details and penalties, or nil if
// the child has not been evaluated today.
func (s *EvaluationStore) GetToday(childID int64) (*model.DailyEvaluation, error) {
	row := s.db.QueryRow(
		`SELECT `+evaluationCols+` FROM daily_evaluations WHERE child_id = ? AND eval_date = ?`,
		childID, localDate(s.now()),
	)
	e, err := scanEvaluation(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get today evaluation: %w", err)
	}
	if err := s.loadDetailRows(e); err != nil {
		return nil, err
	}
	return e, nil
}

// History returns a child's evaluations newest first, details included.
func (s *EvaluationStore) History(childID int64, limit int) ([]model.DailyEvaluation, error) {
	if limit <= 0 {
		limit = 30
	}
	return s.listEvaluations(
		`SELECT `+evaluationCols+` FROM daily_evaluations WHERE child_id = ? ORDER BY eval_date DESC LIMIT ?`,
		childID, limit,
	)
}

// Month returns a child's evaluations within one calendar month, oldest
// first, for the calendar view.
func (s *EvaluationStore) Month(childID int64, year, month int) ([]model.DailyEvaluation, error) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.Local)
	end := start.AddDate(0, 1, -1)
	return s.listEvaluations(
		`SELECT `+evaluationCols+` FROM daily_evaluations WHERE child_id = ? AND eval_date >= ? AND eval_date <= ? ORDER BY eval_date ASC`,
		childID, localDate(start), localDate(end),
	)
}

func (s *EvaluationStore) listEvaluations(query string, args ...any) ([]model.DailyEvaluation, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list evaluations: %w", err)
	}
	defer rows.Close()

	var evals []model.DailyEvaluation
	for rows.Next() {
		e, err := scanEvaluation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan evaluation: %w", err)
		}
		evals = append(evals, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate evaluations: %w", err)
	}
	rows.Close()

	for i := range evals {
		if err := s.loadDetailRows(&evals[i]); err != nil {
			return nil, err
		}
	}
	return evals, nil
}

// loadDetailRows attaches detail and penalty rows, joined to the catalog for
// display names. Left joins: the catalog entry may have been deleted since.
func (s *EvaluationStore) loadDetailRows(e *model.DailyEvaluation) error {
	rows, err := s.db.Query(`
		SELECT d.id, d.evaluation_id, d.activity_type_id, d.star_level, d.stars_earned,
		       COALESCE(a.name, ''), COALESCE(a.icon, '')
		FROM evaluation_details d
		LEFT JOIN activity_types a ON a.id = d.activity_type_id
		WHERE d.evaluation_id = ?
		ORDER BY d.id ASC`, e.ID)
	if err != nil {
		return fmt.Errorf("list details: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var d model.EvaluationDetail
		if err := rows.Scan(&d.ID, &d.EvaluationID, &d.ActivityTypeID, &d.StarLevel, &d.StarsEarned, &d.ActivityName, &d.ActivityIcon); err != nil {
			return fmt.Errorf("scan detail: %w", err)
		}
		e.Details = append(e.Details, d)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	rows.Close()

	prows, err := s.db.Query(`
		SELECT p.id, p.evaluation_id, p.penalty_type_id, p.stars_deducted,
		       COALESCE(t.name, ''), COALESCE(t.icon, '')
		FROM evaluation_penalties p
		LEFT JOIN penalty_types t ON t.id = p.penalty_type_id
		WHERE p.evaluation_id = ?
		ORDER BY p.id ASC`, e.ID)
	if err != nil {
		return fmt.Errorf("list penalties: %w", err)
	}
	defer prows.Close()

	for prows.Next() {
		var p model.EvaluationPenalty
		if err := prows.Scan(&p.ID, &p.EvaluationID, &p.PenaltyTypeID, &p.StarsDeducted, &p.PenaltyName, &p.PenaltyIcon); err != nil {
			return fmt.Errorf("scan penalty: %w", err)
		}
		e.Penalties = append(e.Penalties, p)
	}
	return prows.Err()
}
