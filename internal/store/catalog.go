package store

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/startracker/internal/model"
)

// CatalogStore manages the activity and penalty/bonus type definitions that
// evaluations are scored against.
type CatalogStore struct {
	db *sql.DB
}

func NewCatalogStore(db *sql.DB) *CatalogStore {
	return &CatalogStore{db: db}
}

// --- Activity type methods ---

func scanActivityType(scanner interface{ Scan(...any) error }) (*model.ActivityType, error) {
	var a model.ActivityType
	var active int

	err := scanner.Scan(
		&a.ID, &a.Name, &a.Icon, &a.Description,
		&a.StarLevel1, &a.StarLevel2, &a.StarLevel3,
		&active, &a.SortOrder, &a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	a.Active = active != 0
	return &a, nil
}

const activityTypeCols = `id, name, icon, description, star_level_1, star_level_2, star_level_3, active, sort_order, created_at`

func (s *CatalogStore) CreateActivityType(name, icon, description string, starLevels [3]int, sortOrder int) (*model.ActivityType, error) {
	result, err := s.db.Exec(
		`INSERT INTO activity_types (name, icon, description, star_level_1, star_level_2, star_level_3, sort_order) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		name, icon, description, starLevels[0], starLevels[1], starLevels[2], sortOrder,
	)
	if err != nil {
		return nil, fmt.Errorf("insert activity type: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetActivityType(id)
}

func (s *CatalogStore) GetActivityType(id int64) (*model.ActivityType, error) {
	row := s.db.QueryRow(`SELECT `+activityTypeCols+` FROM activity_types WHERE id = ?`, id)
	a, err := scanActivityType(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get activity type: %w", err)
	}
	return a, nil
}

func (s *CatalogStore) ListActivityTypes() ([]model.ActivityType, error) {
	return s.listActivityTypes(`SELECT ` + activityTypeCols + ` FROM activity_types ORDER BY sort_order ASC, name ASC`)
}

// ListActiveActivityTypes returns the types offered on the evaluation form.
// Inactive types stay scoreable for historical payloads but are not listed.
func (s *CatalogStore) ListActiveActivityTypes() ([]model.ActivityType, error) {
	return s.listActivityTypes(`SELECT ` + activityTypeCols + ` FROM activity_types WHERE active = 1 ORDER BY sort_order ASC, name ASC`)
}

func (s *CatalogStore) listActivityTypes(query string) ([]model.ActivityType, error) {
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("list activity types: %w", err)
	}
	defer rows.Close()

	var types []model.ActivityType
	for rows.Next() {
		a, err := scanActivityType(rows)
		if err != nil {
			return nil, fmt.Errorf("scan activity type: %w", err)
		}
		types = append(types, *a)
	}
	return types, rows.Err()
}

func (s *CatalogStore) UpdateActivityType(id int64, name, icon, description string, starLevels [3]int, active bool, sortOrder int) (*model.ActivityType, error) {
	var a int
	if active {
		a = 1
	}

	_, err := s.db.Exec(
		`UPDATE activity_types SET name = ?, icon = ?, description = ?, star_level_1 = ?, star_level_2 = ?, star_level_3 = ?, active = ?, sort_order = ? WHERE id = ?`,
		name, icon, description, starLevels[0], starLevels[1], starLevels[2], a, sortOrder, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update activity type: %w", err)
	}
	return s.GetActivityType(id)
}

func (s *CatalogStore) DeleteActivityType(id int64) error {
	_, err := s.db.Exec(`DELETE FROM activity_types WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete activity type: %w", err)
	}
	return nil
}

// --- Penalty type methods ---

func scanPenaltyType(scanner interface{ Scan(...any) error }) (*model.PenaltyType, error) {
	var p model.PenaltyType
	var active int

	err := scanner.Scan(&p.ID, &p.Name, &p.Description, &p.Kind, &p.StarDeduction, &p.Icon, &active, &p.CreatedAt)
	if err != nil {
		return nil, err
	}

	p.Active = active != 0
	return &p, nil
}

const penaltyTypeCols = `id, name, description, kind, star_deduction, icon, active, created_at`

func (s *CatalogStore) CreatePenaltyType(name, description, kind string, starDeduction int, icon string) (*model.PenaltyType, error) {
	if kind != model.PenaltyKindBonus {
		kind = model.PenaltyKindPenalty
	}
	if icon == "" {
		if kind == model.PenaltyKindBonus {
			icon = "🌟"
		} else {
			icon = "⚠️"
		}
	}

	result, err := s.db.Exec(
		`INSERT INTO penalty_types (name, description, kind, star_deduction, icon) VALUES (?, ?, ?, ?, ?)`,
		name, description, kind, starDeduction, icon,
	)
	if err != nil {
		return nil, fmt.Errorf("insert penalty type: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetPenaltyType(id)
}

func (s *CatalogStore) GetPenaltyType(id int64) (*model.PenaltyType, error) {
	row := s.db.QueryRow(`SELECT `+penaltyTypeCols+` FROM penalty_types WHERE id = ?`, id)
	p, err := scanPenaltyType(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get penalty type: %w", err)
	}
	return p, nil
}

func (s *CatalogStore) ListPenaltyTypes() ([]model.PenaltyType, error) {
	return s.listPenaltyTypes(`SELECT ` + penaltyTypeCols + ` FROM penalty_types ORDER BY created_at ASC, id ASC`)
}

func (s *CatalogStore) ListActivePenaltyTypes() ([]model.PenaltyType, error) {
	return s.listPenaltyTypes(`SELECT ` + penaltyTypeCols + ` FROM penalty_types WHERE active = 1 ORDER BY created_at ASC, id ASC`)
}

func (s *CatalogStore) listPenaltyTypes(query string) ([]model.PenaltyType, error) {
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("list penalty types: %w", err)
	}
	defer rows.Close()

	var types []model.PenaltyType
	for rows.Next() {
		p, err := scanPenaltyType(rows)
		if err != nil {
			return nil, fmt.Errorf("scan penalty type: %w", err)
		}
		types = append(types, *p)
	}
	return types, rows.Err()
}

func (s *CatalogStore) UpdatePenaltyType(id int64, name, description, kind string, starDeduction int, icon string, active bool) (*model.PenaltyType, error) {
	if kind != model.PenaltyKindBonus {
		kind = model.PenaltyKindPenalty
	}
	var a int
	if active {
		a = 1
	}

	_, err := s.db.Exec(
		`UPDATE penalty_types SET name = ?, description = ?, kind = ?, star_deduction = ?, icon = ?, active = ? WHERE id = ?`,
		name, description, kind, starDeduction, icon, a, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update penalty type: %w", err)
	}
	return s.GetPenaltyType(id)
}

// DeletePenaltyType removes a penalty type together with the evaluation
// rows that reference it.
func (s *CatalogStore) DeletePenaltyType(id int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM evaluation_penalties WHERE penalty_type_id = ?`, id); err != nil {
		return fmt.Errorf("delete evaluation penalties: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM penalty_types WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete penalty type: %w", err)
	}
	return tx.Commit()
}
