package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dukerupert/startracker/internal/auth"
	"github.com/dukerupert/startracker/internal/model"
	"github.com/dukerupert/startracker/internal/store"
	"github.com/dukerupert/startracker/internal/websocket"
)

// LedgerHandler reads star balances and transaction history. Balances are
// never stored; they are always the sum of a child's transactions.
type LedgerHandler struct {
	ledger *store.LedgerStore
	hub    *websocket.Hub
	logger *slog.Logger
}

func NewLedgerHandler(ls *store.LedgerStore, hub *websocket.Hub, logger *slog.Logger) *LedgerHandler {
	return &LedgerHandler{ledger: ls, hub: hub, logger: logger}
}

func (h *LedgerHandler) Balance(w http.ResponseWriter, r *http.Request) {
	childID, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid child id")
		return
	}
	if !auth.CanAccessChild(r.Context(), childID) {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	balance, err := h.ledger.Balance(childID)
	if err != nil {
		h.logger.Error("get balance", "child_id", childID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get balance")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"child_id": childID, "balance": balance})
}

func (h *LedgerHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	childID, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid child id")
		return
	}
	if !auth.CanAccessChild(r.Context(), childID) {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, _ = strconv.Atoi(v)
	}

	txs, err := h.ledger.ListByChild(childID, limit)
	if err != nil {
		h.logger.Error("list transactions", "child_id", childID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list transactions")
		return
	}
	if txs == nil {
		txs = []model.StarTransaction{}
	}
	writeJSON(w, http.StatusOK, txs)
}

// Reset posts a compensating entry that zeroes a child's balance while
// keeping the full transaction history. Parent-only.
func (h *LedgerHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if !auth.IsParent(r.Context()) {
		writeError(w, http.StatusForbidden, "parent role required")
		return
	}
	childID, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid child id")
		return
	}

	posted, err := h.ledger.ResetBalance(childID)
	if err != nil {
		h.logger.Error("reset balance", "child_id", childID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to reset balance")
		return
	}

	if h.hub != nil {
		h.hub.Broadcast(websocket.NewMessage("balance", "reset", childID, childID, nil))
	}
	writeJSON(w, http.StatusOK, map[string]any{"child_id": childID, "posted": posted, "balance": 0})
}

// AllBalances returns every child's balance for the family dashboard.
func (h *LedgerHandler) AllBalances(w http.ResponseWriter, r *http.Request) {
	if !auth.IsParent(r.Context()) {
		writeError(w, http.StatusForbidden, "parent role required")
		return
	}

	balances, err := h.ledger.AllBalances()
	if err != nil {
		h.logger.Error("list balances", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list balances")
		return
	}
	if balances == nil {
		balances = []model.ChildStarBalance{}
	}
	writeJSON(w, http.StatusOK, balances)
}
