package model

import "time"

// ActivityType defines how many stars each rating level (1-3) is worth.
// Values are copied into evaluation detail rows at submission time.
type ActivityType struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Icon        string    `json:"icon"`
	Description string    `json:"description"`
	StarLevel1  int       `json:"star_level_1"`
	StarLevel2  int       `json:"star_level_2"`
	StarLevel3  int       `json:"star_level_3"`
	Active      bool      `json:"active"`
	SortOrder   int       `json:"sort_order"`
	CreatedAt   time.Time `json:"created_at"`
}

// StarsForLevel maps a 1-3 rating to the configured star value.
// Out-of-range levels fall back to the raw level number.
func (a *ActivityType) StarsForLevel(level int) int {
	switch level {
	case 1:
		return a.StarLevel1
	case 2:
		return a.StarLevel2
	case 3:
		return a.StarLevel3
	}
	return level
}

const (
	PenaltyKindPenalty = "penalty"
	PenaltyKindBonus   = "bonus"
)

// PenaltyType is a fixed star adjustment selectable during evaluation.
// StarDeduction is a positive magnitude; Kind decides the sign.
type PenaltyType struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Kind          string    `json:"kind"`
	StarDeduction int       `json:"star_deduction"`
	Icon          string    `json:"icon"`
	Active        bool      `json:"active"`
	CreatedAt     time.Time `json:"created_at"`
}
