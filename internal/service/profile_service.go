package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dom/notely/internal/domain"
	"github.com/dom/notely/internal/password"
	"github.com/dom/notely/internal/repository"
	"github.com/dom/notely/internal/storage"
	"github.com/google/uuid"
)

// AvatarStore hands out upload locations for avatar images.
type AvatarStore interface {
	PresignUpload(ctx context.Context, userID uuid.UUID) (*storage.UploadTarget, error)
}

type ProfileService struct {
	userRepo repository.UserRepository
	hasher   password.Hasher
	avatars  AvatarStore
}

func NewProfileService(userRepo repository.UserRepository, hasher password.Hasher, avatars AvatarStore) *ProfileService {
	return &ProfileService{
		userRepo: userRepo,
		hasher:   hasher,
		avatars:  avatars,
	}
}

// UpdateProfileInput overwrites only the fields that are set.
type UpdateProfileInput struct {
	FirstName *string
	LastName  *string
	Username  *string
	Email     *string
	Avatar    *string
}

type ChangePasswordInput struct {
	CurrentPassword string
	NewPassword     string
	ConfirmPassword string
}

func (s *ProfileService) GetProfile(ctx context.Context, userID uuid.UUID) (*domain.Profile, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user.Profile(), nil
}

func (s *ProfileService) UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*domain.Profile, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	// Names, username and email may be changed but never blanked; the avatar may be cleared.
	var blank []string
	set := func(name string, value *string, dst *string) {
		if value == nil {
			return
		}
		v := strings.TrimSpace(*value)
		if v == "" {
			blank = append(blank, name)
			return
		}
		*dst = v
	}
	set("firstName", input.FirstName, &user.FirstName)
	set("lastName", input.LastName, &user.LastName)
	set("username", input.Username, &user.Username)
	set("email", input.Email, &user.Email)
	if len(blank) > 0 {
		return nil, fmt.Errorf("%w: %s must not be empty", domain.ErrValidation, strings.Join(blank, ", "))
	}
	if input.Avatar != nil {
		user.Avatar = strings.TrimSpace(*input.Avatar)
	}

	if input.Email != nil {
		if err := validEmail(user.Email); err != nil {
			return nil, err
		}
	}

	if input.Username != nil || input.Email != nil {
		taken, err := s.userRepo.Taken(ctx, user.Username, user.Email, user.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, fmt.Errorf("%w: email or username", domain.ErrDuplicate)
		}
	}

	user.UpdatedAt = time.Now()
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user.Profile(), nil
}

func (s *ProfileService) ChangePassword(ctx context.Context, userID uuid.UUID, input ChangePasswordInput) error {
	if err := required(
		field("currentPassword", input.CurrentPassword),
		field("newPassword", input.NewPassword),
		field("confirmPassword", input.ConfirmPassword),
	); err != nil {
		return err
	}
	if input.NewPassword != input.ConfirmPassword {
		return fmt.Errorf("%w: new password and confirmation do not match", domain.ErrValidation)
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.hasher.Compare(user.PasswordHash, input.CurrentPassword); err != nil {
		if errors.Is(err, password.ErrMismatch) {
			return fmt.Errorf("%w: incorrect current password", domain.ErrInvalidCredentials)
		}
		return err
	}

	hash, err := s.hasher.Hash(input.NewPassword)
	if err != nil {
		return err
	}
	return s.userRepo.UpdatePassword(ctx, user.ID, hash)
}

// AvatarUploadURL returns a presigned location the caller can upload a new
// avatar image to.
func (s *ProfileService) AvatarUploadURL(ctx context.Context, userID uuid.UUID) (*storage.UploadTarget, error) {
	if s.avatars == nil {
		return nil, fmt.Errorf("%w: avatar storage is not configured", domain.ErrUnavailable)
	}
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.avatars.PresignUpload(ctx, userID)
}
