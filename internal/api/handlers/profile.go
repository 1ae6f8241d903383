package handlers

import (
	"net/http"

	"github.com/dom/notely/internal/api/response"
	"github.com/dom/notely/internal/service"
	"go.uber.org/zap"
)

type ProfileHandler struct {
	profileService *service.ProfileService
	log            *zap.Logger
}

func NewProfileHandler(profileService *service.ProfileService, log *zap.Logger) *ProfileHandler {
	return &ProfileHandler{profileService: profileService, log: log}
}

// UpdateProfileRequest is a partial update. Absent fields are left as they are.
type UpdateProfileRequest struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Username  *string `json:"username"`
	Email     *string `json:"email"`
	Avatar    *string `json:"avatar"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	profile, err := h.profileService.GetProfile(r.Context(), id.UserID)
	if err != nil {
		writeError(w, r, h.log, "profile.GetProfile", err)
		return
	}

	response.JSON(w, http.StatusOK, "", profile)
}

func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.log, "profile.UpdateProfile", err)
		return
	}

	profile, err := h.profileService.UpdateProfile(r.Context(), id.UserID, service.UpdateProfileInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Username:  req.Username,
		Email:     req.Email,
		Avatar:    req.Avatar,
	})
	if err != nil {
		writeError(w, r, h.log, "profile.UpdateProfile", err)
		return
	}

	response.JSON(w, http.StatusOK, "Profile updated successfully", profile)
}

func (h *ProfileHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	var req ChangePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.log, "profile.ChangePassword", err)
		return
	}

	err := h.profileService.ChangePassword(r.Context(), id.UserID, service.ChangePasswordInput{
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		writeError(w, r, h.log, "profile.ChangePassword", err)
		return
	}

	response.JSON(w, http.StatusOK, "Password updated successfully", nil)
}

// AvatarUploadURL hands out a presigned PUT for a new avatar image. The
// client uploads directly to storage and then saves avatarUrl through
// UpdateProfile.
func (h *ProfileHandler) AvatarUploadURL(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	target, err := h.profileService.AvatarUploadURL(r.Context(), id.UserID)
	if err != nil {
		writeError(w, r, h.log, "profile.AvatarUploadURL", err)
		return
	}

	response.JSON(w, http.StatusOK, "", target)
}
