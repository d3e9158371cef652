package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/recyclequest/internal/common"
	"github.com/dmitrijs2005/recyclequest/internal/server/middleware"
	"github.com/dmitrijs2005/recyclequest/internal/server/respond"
	"github.com/dmitrijs2005/recyclequest/internal/server/services"
)

const logoutMessage = "Successfully logged out"

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type passwordResetRequest struct {
	Email string `json:"email"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var in services.RegisterInput
	if !decodeJSON(w, r, &in) {
		return
	}

	user, err := h.users.Register(r.Context(), in)
	h.authEvent("register", err)
	if err != nil {
		writeError(w, err)
		return
	}

	respond.JSON(w, http.StatusCreated, user.ToResponse())
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if !decodeJSON(w, r, &in) {
		return
	}

	user, err := h.users.Authenticate(r.Context(), in.Email, in.Password)
	h.authEvent("login", err)
	if err != nil {
		writeError(w, err)
		return
	}

	token, err := h.users.IssueToken(user)
	if err != nil {
		writeError(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, token)
}

func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, common.ErrorInternal)
		return
	}
	respond.JSON(w, http.StatusOK, user.ToResponse())
}

// UpdateProfile decodes into ProfilePatch, so fields other than the names
// and location are dropped before they reach the service.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, common.ErrorInternal)
		return
	}

	var patch services.ProfilePatch
	if !decodeJSON(w, r, &patch) {
		return
	}

	updated, err := h.users.UpdateProfile(r.Context(), user, patch)
	h.authEvent("profile_update", err)
	if err != nil {
		writeError(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, updated.ToResponse())
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, common.ErrorInternal)
		return
	}

	token, err := h.users.IssueToken(user)
	h.authEvent("refresh", err)
	if err != nil {
		writeError(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, token)
}

func (h *Handler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var in passwordResetRequest
	if !decodeJSON(w, r, &in) {
		return
	}

	msg := h.users.RequestPasswordReset(r.Context(), in.Email)
	respond.JSON(w, http.StatusOK, respond.Message{Message: msg})
}

func (h *Handler) ConfirmPasswordReset(w http.ResponseWriter, r *http.Request) {
	var in services.PasswordResetConfirmInput
	if !decodeJSON(w, r, &in) {
		return
	}

	msg, err := h.users.ConfirmPasswordReset(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, respond.Message{Message: msg})
}

// Logout is acknowledgement only: tokens stay valid until they expire.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, respond.Message{Message: logoutMessage})
}
