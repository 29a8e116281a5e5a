package model

import "time"

const (
	TxEarn    = "earn"
	TxPenalty = "penalty"
	TxRedeem  = "redeem"
	TxReset   = "reset"
)

// Reference types for StarTransaction.ReferenceID. Row ids are only unique
// per table, so the type disambiguates which table the reference points at.
const (
	RefEvaluation = "evaluation"
	RefRedemption = "redemption"
	RefChallenge  = "challenge"
)

// StarTransaction is an append-only ledger entry. A child's balance is
// always the sum of their transaction amounts; entries are never edited,
// only appended or deleted as a reference-scoped group.
type StarTransaction struct {
	ID            int64     `json:"id"`
	ChildID       int64     `json:"child_id"`
	Type          string    `json:"type"`
	Amount        int       `json:"amount"`
	Description   string    `json:"description"`
	ReferenceType *string   `json:"reference_type"`
	ReferenceID   *int64    `json:"reference_id"`
	CreatedAt     time.Time `json:"created_at"`
}
