package handler

import (
	"net/http"
	"time"

	coupledomain "cozy-dates-go/internal/domain/couple"
	"github.com/go-chi/chi/v5"
)

type renameCoupleRequest struct {
	Name string `json:"name"`
}

type inviteRequest struct {
	Email string `json:"email"`
}

type memberResponse struct {
	ProfileID string    `json:"profileId"`
	Name      string    `json:"name"`
	AvatarURL *string   `json:"avatarUrl"`
	Role      *string   `json:"role"`
	JoinedAt  time.Time `json:"joinedAt"`
}

type overviewResponse struct {
	State            string                 `json:"state"`
	Profile          *profileResponse       `json:"profile"`
	Couple           *coupleSummaryResponse `json:"couple"`
	MembershipStatus *string                `json:"membershipStatus"`
	MembershipRole   *string                `json:"membershipRole"`
	Members          []memberResponse       `json:"members"`
}

type invitationResponse struct {
	Couple    *coupleSummaryResponse `json:"couple"`
	InvitedAt time.Time              `json:"invitedAt"`
}

type pendingInviteResponse struct {
	ProfileID string `json:"profileId"`
	CoupleID  string `json:"coupleId"`
	Status    string `json:"membershipStatus"`
}

func (h *Handlers) GetCoupleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	overview, err := h.Couples.Overview(r.Context(), user.ID)
	if err != nil {
		h.fail(w, "couples.get_me: overview failed", err, "user_id", user.ID)
		return
	}

	writeJSON(w, http.StatusOK, toOverviewResponse(overview))
}

func (h *Handlers) RenameCouple(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req renameCoupleRequest
	if err := decodeJSON(r, &req); err != nil {
		invalidJSON(w)
		return
	}

	couple, err := h.Couples.Rename(r.Context(), user.ID, req.Name)
	if err != nil {
		h.fail(w, "couples.rename: rename failed", err, "user_id", user.ID)
		return
	}

	writeJSON(w, http.StatusOK, toCoupleSummary(couple))
}

func (h *Handlers) InvitePartner(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req inviteRequest
	if err := decodeJSON(r, &req); err != nil {
		invalidJSON(w)
		return
	}

	membership, err := h.Couples.Invite(r.Context(), user.ID, req.Email)
	if err != nil {
		h.fail(w, "couples.invite: invite failed", err, "user_id", user.ID)
		return
	}

	h.log.Info("couples.invite: invitation sent", "user_id", user.ID, "couple_id", membership.CoupleID, "invitee_id", membership.ProfileID)
	writeJSON(w, http.StatusCreated, pendingInviteResponse{
		ProfileID: membership.ProfileID,
		CoupleID:  membership.CoupleID,
		Status:    string(membership.Status),
	})
}

func (h *Handlers) ListInvitations(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	invitations, err := h.Couples.ListInvitations(r.Context(), user.ID)
	if err != nil {
		h.fail(w, "invitations.list: list failed", err, "user_id", user.ID)
		return
	}

	response := make([]invitationResponse, 0, len(invitations))
	for i := range invitations {
		response = append(response, invitationResponse{
			Couple:    toCoupleSummary(&invitations[i].Couple),
			InvitedAt: invitations[i].InvitedAt,
		})
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *Handlers) AcceptInvitation(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	coupleID := chi.URLParam(r, "couple_id")

	result, err := h.Couples.AcceptInvitation(r.Context(), user.ID, coupleID)
	if err != nil {
		h.fail(w, "invitations.accept: accept failed", err, "user_id", user.ID, "couple_id", coupleID)
		return
	}

	writeJSON(w, http.StatusOK, toActionResponse(result))
}

func (h *Handlers) DeclineInvitation(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	coupleID := chi.URLParam(r, "couple_id")

	result, err := h.Couples.DeclineInvitation(r.Context(), user.ID, coupleID)
	if err != nil {
		h.fail(w, "invitations.decline: decline failed", err, "user_id", user.ID, "couple_id", coupleID)
		return
	}

	writeJSON(w, http.StatusOK, toActionResponse(result))
}

// ActivateOnboarding runs behind RequireVerified, so the caller's email is confirmed.
func (h *Handlers) ActivateOnboarding(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	result, err := h.Couples.ActivateFromOnboarding(r.Context(), user.ID)
	if err != nil {
		h.fail(w, "onboarding.activate: activation failed", err, "user_id", user.ID)
		return
	}

	writeJSON(w, http.StatusOK, toActionResponse(result))
}

func toOverviewResponse(overview *coupledomain.Overview) overviewResponse {
	response := overviewResponse{
		State:   string(overview.State),
		Profile: toProfileResponse(overview.Profile),
		Members: make([]memberResponse, 0, len(overview.Members)),
	}
	if overview.Couple != nil {
		response.Couple = toCoupleSummary(overview.Couple)
	}
	if overview.Membership != nil {
		action := toActionResponse(&coupledomain.Result{
			Status: overview.Membership.Status,
			Role:   overview.Membership.Role,
		})
		response.MembershipStatus = action.MembershipStatus
		response.MembershipRole = action.MembershipRole
	}
	for _, member := range overview.Members {
		item := memberResponse{
			ProfileID: member.ProfileID,
			Name:      member.Name,
			AvatarURL: member.AvatarURL,
			JoinedAt:  member.JoinedAt,
		}
		if member.Role != nil {
			role := string(*member.Role)
			item.Role = &role
		}
		response.Members = append(response.Members, item)
	}
	return response
}
