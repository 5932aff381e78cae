package auth

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/tradedesk/tradedesk/internal/shared"
)

// Service wraps authentication business rules.
type Service struct {
	repo      Repository
	tokens    *Tokens
	validator *shared.Validator
}

// NewService constructs a new Service.
func NewService(repo Repository, tokens *Tokens, validator *shared.Validator) *Service {
	if validator == nil {
		validator = shared.NewValidator()
	}
	return &Service{repo: repo, tokens: tokens, validator: validator}
}

// Authenticate validates username/password credentials.
func (s *Service) Authenticate(ctx context.Context, creds Credentials) (Account, error) {
	if err := s.validator.Struct(creds); err != nil {
		return Account{}, err
	}
	account, err := s.repo.FindByUsername(ctx, creds.Username)
	if errors.Is(err, shared.ErrNotFound) {
		return Account{}, shared.ErrInvalidCredentials
	}
	if err != nil {
		return Account{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(creds.Password)); err != nil {
		return Account{}, shared.ErrInvalidCredentials
	}
	return account, nil
}

// Login authenticates and issues a bearer token.
func (s *Service) Login(ctx context.Context, creds Credentials) (Session, error) {
	account, err := s.Authenticate(ctx, creds)
	if err != nil {
		return Session{}, err
	}
	p := account.Principal()
	token, exp, err := s.tokens.Issue(ctx, p)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: token, ExpiresAt: exp, User: p}, nil
}

// Logout revokes the principal's token.
func (s *Service) Logout(ctx context.Context, p shared.Principal) error {
	if p.TokenID == "" {
		return nil
	}
	return s.tokens.Revoke(ctx, p.TokenID)
}

// Resolve returns the principal of a bearer token.
func (s *Service) Resolve(ctx context.Context, token string) (shared.Principal, error) {
	return s.tokens.Verify(ctx, token)
}

// EnsureAdmin creates or resets the administrator account.
func (s *Service) EnsureAdmin(ctx context.Context, name, username, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	_, err = s.repo.UpsertAdmin(ctx, name, username, string(hash))
	return err
}
