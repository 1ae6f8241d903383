package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dom/notely/internal/domain"
	"github.com/dom/notely/internal/limiter"
	"github.com/dom/notely/internal/password"
	"github.com/dom/notely/internal/repository"
	"github.com/dom/notely/internal/token"
	"github.com/google/uuid"
)

type AuthService struct {
	userRepo repository.UserRepository
	hasher   password.Hasher
	tokens   *token.Issuer
	limiter  limiter.Limiter
}

// NewAuthService builds the service; lim may be nil to disable login throttling.
func NewAuthService(userRepo repository.UserRepository, hasher password.Hasher, tokens *token.Issuer, lim limiter.Limiter) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		hasher:   hasher,
		tokens:   tokens,
		limiter:  lim,
	}
}

type RegisterInput struct {
	FirstName string
	LastName  string
	Username  string
	Email     string
	Password  string
}

type LoginInput struct {
	// ID is either the email or the username.
	ID       string
	Password string
	ClientIP string
}

type AuthResult struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	input.FirstName = strings.TrimSpace(input.FirstName)
	input.LastName = strings.TrimSpace(input.LastName)
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(input.Email)

	if err := required(
		field("firstName", input.FirstName),
		field("lastName", input.LastName),
		field("username", input.Username),
		field("email", input.Email),
		field("password", input.Password),
	); err != nil {
		return nil, err
	}
	if err := validEmail(input.Email); err != nil {
		return nil, err
	}

	taken, err := s.userRepo.Taken(ctx, input.Username, input.Email, uuid.Nil)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, fmt.Errorf("%w: email or username", domain.ErrDuplicate)
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &domain.User{
		ID:           uuid.New(),
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// The unique indexes still catch a concurrent registration racing past Taken.
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	return s.issue(user)
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	input.ID = strings.TrimSpace(input.ID)
	if err := required(field("id", input.ID), field("password", input.Password)); err != nil {
		return nil, err
	}

	ipHash := limiter.HashIP(input.ClientIP)
	if s.limiter != nil {
		allowed, _, err := s.limiter.Allow(ctx, input.ID, ipHash)
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, domain.ErrRateLimited
		}
	}

	user, err := s.userRepo.GetByLogin(ctx, input.ID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return nil, s.loginFailed(ctx, input.ID, ipHash)
	case err != nil:
		return nil, err
	}

	if err := s.hasher.Compare(user.PasswordHash, input.Password); err != nil {
		if errors.Is(err, password.ErrMismatch) {
			return nil, s.loginFailed(ctx, input.ID, ipHash)
		}
		return nil, err
	}

	if s.limiter != nil {
		if err := s.limiter.Success(ctx, input.ID, ipHash); err != nil {
			return nil, err
		}
	}
	return s.issue(user)
}

// loginFailed records the failure and picks the error to report. Unknown
// users and wrong passwords are indistinguishable to the caller.
func (s *AuthService) loginFailed(ctx context.Context, login string, ipHash []byte) error {
	if s.limiter == nil {
		return domain.ErrInvalidCredentials
	}
	blocked, _, err := s.limiter.Failure(ctx, login, ipHash)
	if err != nil {
		return err
	}
	if blocked {
		return domain.ErrRateLimited
	}
	return domain.ErrInvalidCredentials
}

func (s *AuthService) issue(user *domain.User) (*AuthResult, error) {
	signed, exp, err := s.tokens.Issue(token.Identity{
		UserID:    user.ID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Username:  user.Username,
		Email:     user.Email,
	})
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Token: signed, ExpiresAt: exp}, nil
}

// ValidateToken verifies a bearer token and returns the identity it carries.
func (s *AuthService) ValidateToken(tokenString string) (token.Identity, error) {
	id, err := s.tokens.Verify(tokenString)
	if err != nil {
		return token.Identity{}, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}
	return id, nil
}
