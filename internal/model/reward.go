package model

import "time"

const (
	TierWeekly  = "weekly"
	TierMonthly = "monthly"
	TierYearly  = "yearly"
)

type Reward struct {
	ID                int64     `json:"id"`
	Name              string    `json:"name"`
	Description       string    `json:"description"`
	ImageURL          string    `json:"image_url"`
	StarCost          int       `json:"star_cost"`
	Tier              string    `json:"tier"`
	IsFreeDaily       bool      `json:"is_free_daily"`
	IsWeeklyChallenge bool      `json:"is_weekly_challenge"`
	WeeklyBonusStars  int       `json:"weekly_bonus_stars"`
	Active            bool      `json:"active"`
	CreatedAt         time.Time `json:"created_at"`
}

const (
	RedemptionPending  = "pending"
	RedemptionApproved = "approved"
	RedemptionRejected = "rejected"
)

type RewardRedemption struct {
	ID         int64      `json:"id"`
	ChildID    int64      `json:"child_id"`
	RewardID   int64      `json:"reward_id"`
	StarsSpent int        `json:"stars_spent"`
	Status     string     `json:"status"`
	RedeemedAt time.Time  `json:"redeemed_at"`
	ApprovedAt *time.Time `json:"approved_at"`
	Reward     *Reward    `json:"reward,omitempty"`
}

// WeeklyChallengeProgress tracks the seven daily check-in flags for one
// child, reward, and Monday-keyed week. Rows from prior weeks are history.
type WeeklyChallengeProgress struct {
	ID           int64     `json:"id"`
	ChildID      int64     `json:"child_id"`
	RewardID     int64     `json:"reward_id"`
	WeekStart    string    `json:"week_start"`
	Days         [7]bool   `json:"days"`
	BonusAwarded bool      `json:"bonus_awarded"`
	CreatedAt    time.Time `json:"created_at"`
	Reward       *Reward   `json:"reward,omitempty"`
}

// DaysCompleted counts the day flags that are set.
func (p *WeeklyChallengeProgress) DaysCompleted() int {
	n := 0
	for _, d := range p.Days {
		if d {
			n++
		}
	}
	return n
}

// AllDaysDone reports whether every day Mon-Sun has been checked in.
func (p *WeeklyChallengeProgress) AllDaysDone() bool {
	return p.DaysCompleted() == 7
}
