package handler

import (
	"net/http"
	"strings"
	"time"

	"cozy-dates-go/internal/apperr"
	coupledomain "cozy-dates-go/internal/domain/couple"
	"cozy-dates-go/internal/metrics"
)

const (
	actionCreate = "create"
	actionJoin   = "join"
	actionLeave  = "leave"
)

var errUnknownAction = apperr.Validation("action must be one of create, join, leave")

type coupleActionRequest struct {
	Action     string `json:"action"`
	Name       string `json:"name"`
	InviteCode string `json:"inviteCode"`
}

type coupleSummaryResponse struct {
	ID         string  `json:"id"`
	Name       *string `json:"name"`
	InviteCode *string `json:"inviteCode"`
}

type coupleActionResponse struct {
	Couple           *coupleSummaryResponse `json:"couple"`
	MembershipStatus *string                `json:"membershipStatus"`
	MembershipRole   *string                `json:"membershipRole"`
}

// CoupleAction dispatches the pairing actions a client can request.
func (h *Handlers) CoupleAction(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req coupleActionRequest
	if err := decodeJSON(r, &req); err != nil {
		invalidJSON(w)
		return
	}
	action := strings.ToLower(strings.TrimSpace(req.Action))
	started := time.Now()

	var (
		result *coupledomain.Result
		err    error
	)
	switch action {
	case actionCreate:
		result, err = h.Couples.Create(r.Context(), user.ID, req.Name)
	case actionJoin:
		result, err = h.Couples.Join(r.Context(), user.ID, req.InviteCode)
	case actionLeave:
		result, err = h.Couples.Leave(r.Context(), user.ID)
	default:
		err = errUnknownAction
	}
	if err != nil {
		h.metrics.ObserveAction(actionLabel(action), apperr.KindOf(err).String(), time.Since(started))
		h.fail(w, "couple_actions."+actionLabel(action)+": action failed", err, "user_id", user.ID, "action", action)
		return
	}

	h.metrics.ObserveAction(action, metrics.OutcomeOK, time.Since(started))
	h.log.Info("couple_actions."+action+": done", "user_id", user.ID, "couple_id", result.Couple.ID)
	writeJSON(w, http.StatusOK, toActionResponse(result))
}

func actionLabel(action string) string {
	switch action {
	case actionCreate, actionJoin, actionLeave:
		return action
	default:
		return "unknown"
	}
}

func toActionResponse(result *coupledomain.Result) coupleActionResponse {
	var response coupleActionResponse
	if result == nil {
		return response
	}
	if result.Couple != nil {
		response.Couple = toCoupleSummary(result.Couple)
	}
	if result.Status != "" {
		status := string(result.Status)
		response.MembershipStatus = &status
	}
	if result.Role != nil {
		role := string(*result.Role)
		response.MembershipRole = &role
	}
	return response
}

func toCoupleSummary(couple *coupledomain.Couple) *coupleSummaryResponse {
	return &coupleSummaryResponse{
		ID:         couple.ID,
		Name:       couple.Name,
		InviteCode: couple.InviteCode,
	}
}
