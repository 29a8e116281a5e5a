package store

import (
	"errors"
	"fmt"
)

// Domain errors returned by the ledger, evaluation, challenge, and
// redemption operations. Handlers map these to 4xx responses; anything
// else is a storage failure.
var (
	ErrAlreadyCheckedIn    = errors.New("already checked in today")
	ErrAlreadyClaimedToday = errors.New("free reward already claimed today")
	ErrRewardNotFound      = errors.New("reward not found")
	ErrRedemptionNotFound  = errors.New("redemption not found")
	ErrChildNotFound       = errors.New("child not found")
)

// InsufficientStarsError reports exactly how short the balance is, so the
// caller can show the shortfall rather than a generic failure.
type InsufficientStarsError struct {
	Need int
	Have int
}

func (e *InsufficientStarsError) Error() string {
	return fmt.Sprintf("not enough stars: need %d, have %d", e.Need, e.Have)
}
