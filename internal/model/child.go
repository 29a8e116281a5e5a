package model

import "time"

type Child struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Name      string    `json:"name"`
	AvatarURL string    `json:"avatar_url"`
	BirthDate *string   `json:"birth_date"`
	Username  *string   `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// ChildStarBalance is a dashboard row: one child and their current balance.
type ChildStarBalance struct {
	ChildID    int64  `json:"child_id"`
	ChildName  string `json:"child_name"`
	TotalStars int    `json:"total_stars"`
}
