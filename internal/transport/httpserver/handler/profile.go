package handler

import (
	"net/http"
	"time"

	profiledomain "cozy-dates-go/internal/domain/profile"
)

type profileResponse struct {
	ID           string     `json:"id"`
	Email        *string    `json:"email"`
	DisplayName  *string    `json:"displayName"`
	AvatarURL    *string    `json:"avatarUrl"`
	Theme        *string    `json:"theme"`
	FirstName    *string    `json:"firstName"`
	LastName     *string    `json:"lastName"`
	Nickname     *string    `json:"nickname"`
	Age          *int       `json:"age"`
	ContactEmail *string    `json:"contactEmail"`
	ConfirmedAt  *time.Time `json:"confirmedAt"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

type updateProfileRequest struct {
	DisplayName  *string `json:"displayName"`
	AvatarURL    *string `json:"avatarUrl"`
	Theme        *string `json:"theme"`
	FirstName    *string `json:"firstName"`
	LastName     *string `json:"lastName"`
	Nickname     *string `json:"nickname"`
	Age          *int    `json:"age"`
	ContactEmail *string `json:"contactEmail"`
}

type authMeResponse struct {
	ID             string `json:"id"`
	Email          string `json:"email"`
	Name           string `json:"name"`
	AvatarURL      string `json:"avatarUrl"`
	EmailConfirmed bool   `json:"emailConfirmed"`
}

func (h *Handlers) AuthMe(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, authMeResponse{
		ID:             user.ID,
		Email:          user.Email,
		Name:           user.Name,
		AvatarURL:      user.AvatarURL,
		EmailConfirmed: user.EmailConfirmed,
	})
}

func (h *Handlers) GetProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	profile, err := h.Profiles.GetProfile(r.Context(), user.ID)
	if err != nil {
		h.fail(w, "profile.get: get profile failed", err, "user_id", user.ID)
		return
	}

	writeJSON(w, http.StatusOK, toProfileResponse(profile))
}

func (h *Handlers) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req updateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		invalidJSON(w)
		return
	}

	profile, err := h.Profiles.UpdateProfile(r.Context(), user.ID, profiledomain.UpdateInput{
		DisplayName:  req.DisplayName,
		AvatarURL:    req.AvatarURL,
		Theme:        req.Theme,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Nickname:     req.Nickname,
		Age:          req.Age,
		ContactEmail: req.ContactEmail,
	})
	if err != nil {
		h.fail(w, "profile.update: update profile failed", err, "user_id", user.ID)
		return
	}

	writeJSON(w, http.StatusOK, toProfileResponse(profile))
}

func toProfileResponse(profile *profiledomain.Profile) *profileResponse {
	if profile == nil {
		return nil
	}
	return &profileResponse{
		ID:           profile.ID,
		Email:        profile.Email,
		DisplayName:  profile.DisplayName,
		AvatarURL:    profile.AvatarURL,
		Theme:        profile.Theme,
		FirstName:    profile.FirstName,
		LastName:     profile.LastName,
		Nickname:     profile.Nickname,
		Age:          profile.Age,
		ContactEmail: profile.ContactEmail,
		ConfirmedAt:  profile.ConfirmedAt,
		CreatedAt:    profile.CreatedAt,
		UpdatedAt:    profile.UpdatedAt,
	}
}
