package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/dukerupert/startracker/internal/model"
)

type RewardStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewRewardStore(db *sql.DB) *RewardStore {
	return &RewardStore{db: db, now: time.Now}
}

// --- Reward catalog methods ---

func scanReward(scanner interface{ Scan(...any) error }) (*model.Reward, error) {
	var r model.Reward
	var freeDaily, weeklyChallenge, active int

	err := scanner.Scan(
		&r.ID, &r.Name, &r.Description, &r.ImageURL, &r.StarCost, &r.Tier,
		&freeDaily, &weeklyChallenge, &r.WeeklyBonusStars, &active, &r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	r.IsFreeDaily = freeDaily != 0
	r.IsWeeklyChallenge = weeklyChallenge != 0
	r.Active = active != 0
	return &r, nil
}

const rewardCols = `id, name, description, image_url, star_cost, tier, is_free_daily, is_weekly_challenge, weekly_bonus_stars, active, created_at`

func (s *RewardStore) Create(r *model.Reward) (*model.Reward, error) {
	result, err := s.db.Exec(
		`INSERT INTO rewards (name, description, image_url, star_cost, tier, is_free_daily, is_weekly_challenge, weekly_bonus_stars) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Name, r.Description, r.ImageURL, r.StarCost, r.Tier, boolInt(r.IsFreeDaily), boolInt(r.IsWeeklyChallenge), r.WeeklyBonusStars,
	)
	if err != nil {
		return nil, fmt.Errorf("insert reward: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (s *RewardStore) GetByID(id int64) (*model.Reward, error) {
	row := s.db.QueryRow(`SELECT `+rewardCols+` FROM rewards WHERE id = ?`, id)
	r, err := scanReward(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get reward: %w", err)
	}
	return r, nil
}

// List returns all rewards ordered by star cost.
func (s *RewardStore) List() ([]model.Reward, error) {
	return s.listRewards(`SELECT ` + rewardCols + ` FROM rewards ORDER BY star_cost ASC, name ASC`)
}

// ListActive returns only active rewards ordered by star cost.
func (s *RewardStore) ListActive() ([]model.Reward, error) {
	return s.listRewards(`SELECT ` + rewardCols + ` FROM rewards WHERE active = 1 ORDER BY star_cost ASC, name ASC`)
}

func (s *RewardStore) listRewards(query string) ([]model.Reward, error) {
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("list rewards: %w", err)
	}
	defer rows.Close()

	var rewards []model.Reward
	for rows.Next() {
		r, err := scanReward(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reward: %w", err)
		}
		rewards = append(rewards, *r)
	}
	return rewards, rows.Err()
}

func (s *RewardStore) Update(id int64, r *model.Reward) (*model.Reward, error) {
	_, err := s.db.Exec(
		`UPDATE rewards SET name = ?, description = ?, image_url = ?, star_cost = ?, tier = ?, is_free_daily = ?, is_weekly_challenge = ?, weekly_bonus_stars = ?, active = ? WHERE id = ?`,
		r.Name, r.Description, r.ImageURL, r.StarCost, r.Tier, boolInt(r.IsFreeDaily), boolInt(r.IsWeeklyChallenge), r.WeeklyBonusStars, boolInt(r.Active), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update reward: %w", err)
	}
	return s.GetByID(id)
}

// Delete removes a reward together with its challenge progress and
// redemption history.
func (s *RewardStore) Delete(id int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM weekly_challenge_progress WHERE reward_id = ?`, id); err != nil {
		return fmt.Errorf("delete challenge progress: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM reward_redemptions WHERE reward_id = ?`, id); err != nil {
		return fmt.Errorf("delete redemptions: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM rewards WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete reward: %w", err)
	}
	return tx.Commit()
}

// --- Redemption methods ---

func scanRedemption(scanner interface{ Scan(...any) error }) (*model.RewardRedemption, error) {
	var r model.RewardRedemption
	var approvedAt sql.NullTime

	err := scanner.Scan(&r.ID, &r.ChildID, &r.RewardID, &r.StarsSpent, &r.Status, &r.RedeemedAt, &approvedAt)
	if err != nil {
		return nil, err
	}

	if approvedAt.Valid {
		r.ApprovedAt = &approvedAt.Time
	}
	return &r, nil
}

const redemptionCols = `id, child_id, reward_id, stars_spent, status, redeemed_at, approved_at`

// Redeem exchanges stars for a reward. Free-daily rewards are claimable
// once per calendar day at zero cost and auto-approve without touching the
// ledger. Paid rewards debit the full cost at request time and wait for a
// parent's approval; the debit transaction references the redemption so a
// later reject or delete can reverse it exactly.
func (s *RewardStore) Redeem(childID, rewardID int64) (*model.RewardRedemption, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRow(`SELECT `+rewardCols+` FROM rewards WHERE id = ?`, rewardID)
	reward, err := scanReward(row)
	if err == sql.ErrNoRows {
		return nil, ErrRewardNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get reward: %w", err)
	}

	var id int64
	if reward.IsFreeDaily {
		today := localDate(s.now())

		var existing int64
		err := tx.QueryRow(
			`SELECT id FROM reward_redemptions WHERE child_id = ? AND reward_id = ? AND free_date = ?`,
			childID, rewardID, today,
		).Scan(&existing)
		if err == nil {
			return nil, ErrAlreadyClaimedToday
		}
		if err != sql.ErrNoRows {
			return nil, fmt.Errorf("check free claim: %w", err)
		}

		result, err := tx.Exec(
			`INSERT INTO reward_redemptions (child_id, reward_id, stars_spent, status, free_date, approved_at) VALUES (?, ?, 0, ?, ?, CURRENT_TIMESTAMP)`,
			childID, rewardID, model.RedemptionApproved, today,
		)
		if err != nil {
			// Unique (child, reward, free_date) closes the race between
			// the check above and this insert.
			if strings.Contains(err.Error(), "UNIQUE") {
				return nil, ErrAlreadyClaimedToday
			}
			return nil, fmt.Errorf("insert free redemption: %w", err)
		}
		if id, err = result.LastInsertId(); err != nil {
			return nil, fmt.Errorf("last insert id: %w", err)
		}
	} else {
		balance, err := sumBalance(tx, childID)
		if err != nil {
			return nil, err
		}
		if balance < reward.StarCost {
			return nil, &InsufficientStarsError{Need: reward.StarCost, Have: balance}
		}

		result, err := tx.Exec(
			`INSERT INTO reward_redemptions (child_id, reward_id, stars_spent, status) VALUES (?, ?, ?, ?)`,
			childID, rewardID, reward.StarCost, model.RedemptionPending,
		)
		if err != nil {
			return nil, fmt.Errorf("insert redemption: %w", err)
		}
		if id, err = result.LastInsertId(); err != nil {
			return nil, fmt.Errorf("last insert id: %w", err)
		}

		if err := insertTransaction(tx, childID, model.TxRedeem, -reward.StarCost, "Redeemed: "+reward.Name, model.RefRedemption, id); err != nil {
			return nil, err
		}
	}

	rrow := tx.QueryRow(`SELECT `+redemptionCols+` FROM reward_redemptions WHERE id = ?`, id)
	redemption, err := scanRedemption(rrow)
	if err != nil {
		return nil, fmt.Errorf("get redemption: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	redemption.Reward = reward
	return redemption, nil
}

func (s *RewardStore) GetRedemption(id int64) (*model.RewardRedemption, error) {
	row := s.db.QueryRow(`SELECT `+redemptionCols+` FROM reward_redemptions WHERE id = ?`, id)
	r, err := scanRedemption(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get redemption: %w", err)
	}
	return r, nil
}

// Approve marks a pending redemption approved. The star debit was already
// posted at redeem time, so approval has no ledger effect.
func (s *RewardStore) Approve(id int64) error {
	result, err := s.db.Exec(
		`UPDATE reward_redemptions SET status = ?, approved_at = CURRENT_TIMESTAMP WHERE id = ?`,
		model.RedemptionApproved, id,
	)
	if err != nil {
		return fmt.Errorf("approve redemption: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrRedemptionNotFound
	}
	return nil
}

// Reject marks a redemption rejected and deletes the transactions that
// reference it, restoring the balance to its pre-redemption value. The
// refund is reversal by deletion, never a compensating entry that could
// drift from the original amount.
func (s *RewardStore) Reject(id int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(`UPDATE reward_redemptions SET status = ? WHERE id = ?`, model.RedemptionRejected, id)
	if err != nil {
		return fmt.Errorf("reject redemption: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrRedemptionNotFound
	}

	if err := deleteTransactionsByReference(tx, model.RefRedemption, id); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteRedemption removes the redemption row and its transactions
// outright. Same refund semantics as Reject.
func (s *RewardStore) DeleteRedemption(id int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := deleteTransactionsByReference(tx, model.RefRedemption, id); err != nil {
		return err
	}

	result, err := tx.Exec(`DELETE FROM reward_redemptions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete redemption: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrRedemptionNotFound
	}
	return tx.Commit()
}

// ListRedemptionsByChild returns a child's redemptions newest first with
// the reward attached.
func (s *RewardStore) ListRedemptionsByChild(childID int64) ([]model.RewardRedemption, error) {
	rows, err := s.db.Query(
		`SELECT `+redemptionCols+` FROM reward_redemptions WHERE child_id = ? ORDER BY redeemed_at DESC, id DESC`,
		childID,
	)
	if err != nil {
		return nil, fmt.Errorf("list redemptions: %w", err)
	}
	defer rows.Close()

	var redemptions []model.RewardRedemption
	for rows.Next() {
		r, err := scanRedemption(rows)
		if err != nil {
			return nil, fmt.Errorf("scan redemption: %w", err)
		}
		redemptions = append(redemptions, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate redemptions: %w", err)
	}
	rows.Close()

	for i := range redemptions {
		row := s.db.QueryRow(`SELECT `+rewardCols+` FROM rewards WHERE id = ?`, redemptions[i].RewardID)
		r, err := scanReward(row)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("get redemption reward: %w", err)
		}
		redemptions[i].Reward = r
	}
	return redemptions, nil
}

// ListPendingRedemptions returns all pending redemptions, oldest first, for
// the parent approval queue.
func (s *RewardStore) ListPendingRedemptions() ([]model.RewardRedemption, error) {
	rows, err := s.db.Query(
		`SELECT `+redemptionCols+` FROM reward_redemptions WHERE status = ? ORDER BY redeemed_at ASC, id ASC`,
		model.RedemptionPending,
	)
	if err != nil {
		return nil, fmt.Errorf("list pending redemptions: %w", err)
	}
	defer rows.Close()

	var redemptions []model.RewardRedemption
	for rows.Next() {
		r, err := scanRedemption(rows)
		if err != nil {
			return nil, fmt.Errorf("scan redemption: %w", err)
		}
		redemptions = append(redemptions, *r)
	}
	return redemptions, rows.Err()
}
