package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/startracker/internal/auth"
	"github.com/dukerupert/startracker/internal/model"
	"github.com/dukerupert/startracker/internal/push"
	"github.com/dukerupert/startracker/internal/store"
	"github.com/dukerupert/startracker/internal/websocket"
)

// RewardHandler manages the reward catalog and the redemption workflow.
type RewardHandler struct {
	rewards  *store.RewardStore
	children *store.ChildStore
	subs     *store.PushStore
	pusher   *push.Service
	hub      *websocket.Hub
	logger   *slog.Logger
}

func NewRewardHandler(rs *store.RewardStore, cs *store.ChildStore, ps *store.PushStore, pusher *push.Service, hub *websocket.Hub, logger *slog.Logger) *RewardHandler {
	return &RewardHandler{rewards: rs, children: cs, subs: ps, pusher: pusher, hub: hub, logger: logger}
}

type rewardRequest struct {
	Name              string `json:"name"`
	Description       string `json:"description"`
	ImageURL          string `json:"image_url"`
	StarCost          int    `json:"star_cost"`
	Tier              string `json:"tier"`
	IsFreeDaily       bool   `json:"is_free_daily"`
	IsWeeklyChallenge bool   `json:"is_weekly_challenge"`
	WeeklyBonusStars  int    `json:"weekly_bonus_stars"`
	Active            *bool  `json:"active"`
}

func (r *rewardRequest) validate() string {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return "name is required"
	}
	if r.StarCost < 0 {
		return "star_cost must not be negative"
	}
	if r.IsFreeDaily && r.StarCost != 0 {
		return "free daily rewards must have zero star cost"
	}
	switch r.Tier {
	case model.TierWeekly, model.TierMonthly, model.TierYearly:
	case "":
		r.Tier = model.TierWeekly
	default:
		return "tier must be weekly, monthly, or yearly"
	}
	return ""
}

func (h *RewardHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !auth.IsParent(r.Context()) {
		writeError(w, http.StatusForbidden, "parent role required")
		return
	}

	var req rewardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	reward, err := h.rewards.Create(&model.Reward{
		Name:              req.Name,
		Description:       req.Description,
		ImageURL:          req.ImageURL,
		StarCost:          req.StarCost,
		Tier:              req.Tier,
		IsFreeDaily:       req.IsFreeDaily,
		IsWeeklyChallenge: req.IsWeeklyChallenge,
		WeeklyBonusStars:  req.WeeklyBonusStars,
	})
	if err != nil {
		h.logger.Error("create reward", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create reward")
		return
	}
	writeJSON(w, http.StatusCreated, reward)
}

func (h *RewardHandler) List(w http.ResponseWriter, r *http.Request) {
	var (
		rewards []model.Reward
		err     error
	)
	if r.URL.Query().Get("active") == "true" || !auth.IsParent(r.Context()) {
		rewards, err = h.rewards.ListActive()
	} else {
		rewards, err = h.rewards.List()
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list rewards")
		return
	}
	if rewards == nil {
		rewards = []model.Reward{}
	}
	writeJSON(w, http.StatusOK, rewards)
}

func (h *RewardHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	reward, err := h.rewards.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get reward")
		return
	}
	if reward == nil {
		writeError(w, http.StatusNotFound, "reward not found")
		return
	}
	writeJSON(w, http.StatusOK, reward)
}

func (h *RewardHandler) Update(w http.ResponseWriter, r *http.Request) {
	if !auth.IsParent(r.Context()) {
		writeError(w, http.StatusForbidden, "parent role required")
		return
	}

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.rewards.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get reward")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "reward not found")
		return
	}

	var req rewardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	active := existing.Active
	if req.Active != nil {
		active = *req.Active
	}

	reward, err := h.rewards.Update(id, &model.Reward{
		Name:              req.Name,
		Description:       req.Description,
		ImageURL:          req.ImageURL,
		StarCost:          req.StarCost,
		Tier:              req.Tier,
		IsFreeDaily:       req.IsFreeDaily,
		IsWeeklyChallenge: req.IsWeeklyChallenge,
		WeeklyBonusStars:  req.WeeklyBonusStars,
		Active:            active,
	})
	if err != nil {
		h.logger.Error("update reward", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update reward")
		return
	}
	writeJSON(w, http.StatusOK, reward)
}

func (h *RewardHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if !auth.IsParent(r.Context()) {
		writeError(w, http.StatusForbidden, "parent role required")
		return
	}

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	if err := h.rewards.Delete(id); err != nil {
		h.logger.Error("delete reward", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete reward")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type redeemRequest struct {
	ChildID int64 `json:"child_id"`
}

// Redeem requests a reward for a child. Parents redeem on any child's
// behalf; a signed-in child redeems for themselves.
func (h *RewardHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	rewardID, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid reward id")
		return
	}

	// Body is optional: a signed-in child redeems for themselves.
	var req redeemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	ac, _ := auth.FromContext(r.Context())
	if ac.Role == auth.RoleChild {
		req.ChildID = ac.ChildID
	}
	if req.ChildID == 0 {
		writeError(w, http.StatusBadRequest, "child_id is required")
		return
	}
	if !auth.CanAccessChild(r.Context(), req.ChildID) {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	redemption, err := h.rewards.Redeem(req.ChildID, rewardID)
	if err != nil {
		var insufficient *store.InsufficientStarsError
		if !errors.As(err, &insufficient) && !errors.Is(err, store.ErrAlreadyClaimedToday) {
			h.logger.Error("redeem reward", "child_id", req.ChildID, "reward_id", rewardID, "error", err)
		}
		writeStoreError(w, err)
		return
	}

	if h.hub != nil {
		h.hub.Broadcast(websocket.NewMessage("redemption", "created", redemption.ID, req.ChildID, map[string]any{
			"status": redemption.Status,
		}))
	}
	if redemption.Status == model.RedemptionPending {
		go h.notifyPending(req.ChildID, redemption)
	}
	writeJSON(w, http.StatusCreated, redemption)
}

// notifyPending pushes a note to every subscribed device so a parent can
// approve or reject the request.
func (h *RewardHandler) notifyPending(childID int64, redemption *model.RewardRedemption) {
	if h.pusher == nil || h.subs == nil {
		return
	}

	child, err := h.children.GetByID(childID)
	if err != nil || child == nil {
		return
	}
	rewardName := ""
	if redemption.Reward != nil {
		rewardName = redemption.Reward.Name
	}

	subs, err := h.subs.ListAll()
	if err != nil {
		h.logger.Error("list push subscriptions", "error", err)
		return
	}
	payload := push.Payload{
		Title: "Reward request",
		Body:  child.Name + " wants to redeem " + rewardName,
		URL:   "/redemptions",
		Tag:   "redemption",
	}
	for i := range subs {
		if err := h.pusher.Send(&subs[i], payload); err != nil {
			if errors.Is(err, push.ErrExpired) {
				h.subs.Delete(subs[i].ID)
				continue
			}
			h.logger.Warn("send push", "endpoint", subs[i].Endpoint, "error", err)
		}
	}
}

// ListRedemptions returns a child's redemption history, newest first.
func (h *RewardHandler) ListRedemptions(w http.ResponseWriter, r *http.Request) {
	childID, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid child id")
		return
	}
	if !auth.CanAccessChild(r.Context(), childID) {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	redemptions, err := h.rewards.ListRedemptionsByChild(childID)
	if err != nil {
		h.logger.Error("list redemptions", "child_id", childID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list redemptions")
		return
	}
	if redemptions == nil {
		redemptions = []model.RewardRedemption{}
	}
	writeJSON(w, http.StatusOK, redemptions)
}

// ListPending returns the parent approval queue, oldest first.
func (h *RewardHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	if !auth.IsParent(r.Context()) {
		writeError(w, http.StatusForbidden, "parent role required")
		return
	}

	redemptions, err := h.rewards.ListPendingRedemptions()
	if err != nil {
		h.logger.Error("list pending redemptions", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list pending redemptions")
		return
	}
	if redemptions == nil {
		redemptions = []model.RewardRedemption{}
	}
	writeJSON(w, http.StatusOK, redemptions)
}

// Approve grants a pending redemption. The stars were already debited at
// redeem time, so this only stamps the approval.
func (h *RewardHandler) Approve(w http.ResponseWriter, r *http.Request) {
	if !auth.IsParent(r.Context()) {
		writeError(w, http.StatusForbidden, "parent role required")
		return
	}

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	if err := h.rewards.Approve(id); err != nil {
		writeStoreError(w, err)
		return
	}

	redemption, err := h.rewards.GetRedemption(id)
	if err != nil || redemption == nil {
		writeError(w, http.StatusInternalServerError, "failed to get redemption")
		return
	}

	if h.hub != nil {
		h.hub.Broadcast(websocket.NewMessage("redemption", "approved", id, redemption.ChildID, nil))
	}
	writeJSON(w, http.StatusOK, redemption)
}

// Reject declines a redemption and refunds the stars by deleting the
// debit transactions.
func (h *RewardHandler) Reject(w http.ResponseWriter, r *http.Request) {
	if !auth.IsParent(r.Context()) {
		writeError(w, http.StatusForbidden, "parent role required")
		return
	}

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	if err := h.rewards.Reject(id); err != nil {
		writeStoreError(w, err)
		return
	}

	redemption, err := h.rewards.GetRedemption(id)
	if err != nil || redemption == nil {
		writeError(w, http.StatusInternalServerError, "failed to get redemption")
		return
	}

	if h.hub != nil {
		h.hub.Broadcast(websocket.NewMessage("redemption", "rejected", id, redemption.ChildID, nil))
	}
	writeJSON(w, http.StatusOK, redemption)
}

// DeleteRedemption erases a redemption and its ledger entries, same refund
// semantics as Reject.
func (h *RewardHandler) DeleteRedemption(w http.ResponseWriter, r *http.Request) {
	if !auth.IsParent(r.Context()) {
		writeError(w, http.StatusForbidden, "parent role required")
		return
	}

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	redemption, err := h.rewards.GetRedemption(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get redemption")
		return
	}
	if redemption == nil {
		writeError(w, http.StatusNotFound, "redemption not found")
		return
	}

	if err := h.rewards.DeleteRedemption(id); err != nil {
		writeStoreError(w, err)
		return
	}

	if h.hub != nil {
		h.hub.Broadcast(websocket.NewMessage("redemption", "deleted", id, redemption.ChildID, nil))
	}
	w.WriteHeader(http.StatusNoContent)
}
