package service

import (
	"github.com/dom/notely/internal/config"
	"github.com/dom/notely/internal/limiter"
	"github.com/dom/notely/internal/password"
	"github.com/dom/notely/internal/repository"
	"github.com/dom/notely/internal/token"
	"go.uber.org/zap"
)

type Services struct {
	Auth    *AuthService
	Note    *NoteService
	Profile *ProfileService
}

// NewServices wires the services. avatars may be nil when object storage is
// not configured.
func NewServices(repos *repository.Repositories, cfg *config.Config, lim limiter.Limiter, avatars AvatarStore, log *zap.Logger) *Services {
	tokens := token.NewIssuer(token.Config{
		Secret: []byte(cfg.JWTSecret),
		Issuer: cfg.JWTIssuer,
		TTL:    cfg.TokenTTL(),
	})
	hasher := password.NewBcrypt(cfg.BcryptCost)

	return &Services{
		Auth:    NewAuthService(repos.User, hasher, tokens, lim),
		Note:    NewNoteService(repos.Note, repos.NoteEvent, log),
		Profile: NewProfileService(repos.User, hasher, avatars),
	}
}
