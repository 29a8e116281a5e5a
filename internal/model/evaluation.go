package model

import "time"

// DailyEvaluation is the single per-(child, date) record of a day's review.
// Resubmitting the same day replaces its details, penalties, and derived
// ledger transactions rather than appending to them.
type DailyEvaluation struct {
	ID                 int64               `json:"id"`
	ChildID            int64               `json:"child_id"`
	EvalDate           string              `json:"eval_date"`
	Notes              string              `json:"notes"`
	TotalStarsEarned   int                 `json:"total_stars_earned"`
	TotalStarsDeducted int                 `json:"total_stars_deducted"`
	EvaluatedBy        *int64              `json:"evaluated_by"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
	Details            []EvaluationDetail  `json:"details,omitempty"`
	Penalties          []EvaluationPenalty `json:"penalties,omitempty"`
}

// EvaluationDetail is one rated activity. StarsEarned is the catalog value
// at submission time, not a live reference.
type EvaluationDetail struct {
	ID             int64  `json:"id"`
	EvaluationID   int64  `json:"evaluation_id"`
	ActivityTypeID int64  `json:"activity_type_id"`
	StarLevel      int    `json:"star_level"`
	StarsEarned    int    `json:"stars_earned"`
	ActivityName   string `json:"activity_name,omitempty"`
	ActivityIcon   string `json:"activity_icon,omitempty"`
}

// EvaluationPenalty is one selected penalty or bonus. StarsDeducted is
// positive for penalties and negative for bonuses, so summing the column
// yields the net deduction.
type EvaluationPenalty struct {
	ID            int64  `json:"id"`
	EvaluationID  int64  `json:"evaluation_id"`
	PenaltyTypeID int64  `json:"penalty_type_id"`
	StarsDeducted int    `json:"stars_deducted"`
	PenaltyName   string `json:"penalty_name,omitempty"`
	PenaltyIcon   string `json:"penalty_icon,omitempty"`
}

// ActivityRating is the submitted (activity, level) pair for one evaluation.
type ActivityRating struct {
	ActivityTypeID int64 `json:"activity_type_id"`
	StarLevel      int   `json:"star_level"`
}
