package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dom/notely/internal/domain"
	"github.com/dom/notely/internal/password"
	"github.com/dom/notely/internal/repository/postgres"
	"github.com/dom/notely/internal/service"
	"github.com/dom/notely/internal/storage"
	"github.com/dom/notely/internal/testutil"
)

type stubAvatars struct{}

func (stubAvatars) PresignUpload(_ context.Context, userID uuid.UUID) (*storage.UploadTarget, error) {
	return &storage.UploadTarget{Method: "PUT", Key: "avatars/" + userID.String() + "/x"}, nil
}

func TestProfileService_ChangePassword(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repos := postgres.NewRepositories(testDB.DB)
	hasher := password.NewBcrypt(4)
	profileService := service.NewProfileService(repos.User, hasher, nil)
	ctx := context.Background()

	user, _ := testutil.NewUserBuilder().WithPassword("current").Build(t, testDB.DB)

	tests := []struct {
		name    string
		userID  uuid.UUID
		input   service.ChangePasswordInput
		wantErr error
	}{
		{
			name:    "mismatch is rejected even with the right current password",
			userID:  user.ID,
			input:   service.ChangePasswordInput{CurrentPassword: "current", NewPassword: "a", ConfirmPassword: "b"},
			wantErr: domain.ErrValidation,
		},
		{
			name:    "missing current",
			userID:  user.ID,
			input:   service.ChangePasswordInput{NewPassword: "a", ConfirmPassword: "a"},
			wantErr: domain.ErrValidation,
		},
		{
			name:    "wrong current",
			userID:  user.ID,
			input:   service.ChangePasswordInput{CurrentPassword: "guess", NewPassword: "a", ConfirmPassword: "a"},
			wantErr: domain.ErrInvalidCredentials,
		},
		{
			name:    "unknown user",
			userID:  uuid.New(),
			input:   service.ChangePasswordInput{CurrentPassword: "current", NewPassword: "a", ConfirmPassword: "a"},
			wantErr: domain.ErrNotFound,
		},
		{
			name:   "success",
			userID: user.ID,
			input:  service.ChangePasswordInput{CurrentPassword: "current", NewPassword: "next", ConfirmPassword: "next"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := profileService.ChangePassword(ctx, tt.userID, tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)

			stored, err := repos.User.GetByID(ctx, tt.userID)
			require.NoError(t, err)
			assert.NoError(t, hasher.Compare(stored.PasswordHash, tt.input.NewPassword))
		})
	}
}

func TestProfileService_UpdateProfile(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repos := postgres.NewRepositories(testDB.DB)
	profileService := service.NewProfileService(repos.User, password.NewBcrypt(4), nil)
	ctx := context.Background()

	user, _ := testutil.NewUserBuilder().Build(t, testDB.DB)
	other, _ := testutil.NewUserBuilder().Build(t, testDB.DB)

	profile, err := profileService.UpdateProfile(ctx, user.ID, service.UpdateProfileInput{
		FirstName: ptr("  Trimmed  "),
		Avatar:    ptr("https://cdn.example.com/me.png"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Trimmed", profile.FirstName)
	assert.Equal(t, user.LastName, profile.LastName)
	assert.Equal(t, "https://cdn.example.com/me.png", profile.Avatar)

	_, err = profileService.UpdateProfile(ctx, user.ID, service.UpdateProfileInput{Email: ptr(other.Email)})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	_, err = profileService.UpdateProfile(ctx, uuid.New(), service.UpdateProfileInput{FirstName: ptr("x")})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	got, err := profileService.GetProfile(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Trimmed", got.FirstName)
	assert.Equal(t, user.Email, got.Email)
}

func TestProfileService_AvatarUploadURL(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repos := postgres.NewRepositories(testDB.DB)
	ctx := context.Background()

	user, _ := testutil.NewUserBuilder().Build(t, testDB.DB)

	disabled := service.NewProfileService(repos.User, password.NewBcrypt(4), nil)
	_, err := disabled.AvatarUploadURL(ctx, user.ID)
	assert.ErrorIs(t, err, domain.ErrUnavailable)

	enabled := service.NewProfileService(repos.User, password.NewBcrypt(4), stubAvatars{})
	target, err := enabled.AvatarUploadURL(ctx, user.ID)
	require.NoError(t, err)
	assert.Contains(t, target.Key, user.ID.String())

	_, err = enabled.AvatarUploadURL(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
