package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/dukerupert/startracker/internal/store"
)

func parseIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

func parsePathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(r.PathValue(name), 10, 64)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeStoreError maps domain errors to 4xx responses with actionable
// messages; anything else is a generic 500.
func writeStoreError(w http.ResponseWriter, err error) {
	var insufficient *store.InsufficientStarsError

	switch {
	case errors.Is(err, store.ErrAlreadyCheckedIn),
		errors.Is(err, store.ErrAlreadyClaimedToday):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, store.ErrRewardNotFound),
		errors.Is(err, store.ErrRedemptionNotFound),
		errors.Is(err, store.ErrChildNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &insufficient):
		writeError(w, http.StatusBadRequest, insufficient.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
