package account

import (
	"context"
	"errors"
	"strings"
	"time"

	"koperasi-storefront/internal/domain"
	accountrepo "koperasi-storefront/internal/repository/account"
	rolerepo "koperasi-storefront/internal/repository/role"
	tokenrepo "koperasi-storefront/internal/repository/token"
	"koperasi-storefront/internal/validate"

	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials is returned when email/password do not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Service is the session service: signup, login, logout and token lookup.
type Service struct {
	repo      accountrepo.Repository
	roles     rolerepo.Repository
	tokens    *tokenManager
	accessTTL time.Duration
	validate  *validate.Validator
}

// New creates a Service issuing sessions valid for sessionTTL.
func New(repo accountrepo.Repository, tokens tokenrepo.Repository, roles rolerepo.Repository, sessionTTL time.Duration) *Service {
	if sessionTTL <= 0 {
		sessionTTL = 48 * time.Hour
	}
	return &Service{
		repo:      repo,
		roles:     roles,
		tokens:    newTokenManager(tokens),
		accessTTL: sessionTTL,
		validate:  validate.New(),
	}
}

// SignupInput captures fields expected by the signup endpoint.
type SignupInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"min=6"`
	FullName string `json:"fullName" validate:"required"`
	Phone    string `json:"phone" validate:"min=10"`
}

// Signup registers a new account and opens a session for it.
func (s *Service) Signup(ctx context.Context, in SignupInput) (*domain.Account, string, error) {
	in = SignupInput{
		Email:    strings.TrimSpace(strings.ToLower(in.Email)),
		Password: strings.TrimSpace(in.Password),
		FullName: strings.TrimSpace(in.FullName),
		Phone:    strings.TrimSpace(in.Phone),
	}
	if err := s.validate.Struct(in); err != nil {
		return nil, "", err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}

	acc, err := s.repo.Create(ctx, domain.Account{
		Email:        in.Email,
		PasswordHash: string(hashed),
		FullName:     in.FullName,
		Phone:        in.Phone,
	})
	if err != nil {
		return nil, "", err
	}
	token, err := s.tokens.Issue(ctx, acc.ID, s.accessTTL)
	if err != nil {
		return nil, "", err
	}
	return acc, token, nil
}

// Login validates credentials and returns a new session token plus the account.
func (s *Service) Login(ctx context.Context, email, password string) (*domain.Account, string, error) {
	password = strings.TrimSpace(password)
	acc, err := s.repo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(ctx, acc.ID, s.accessTTL)
	if err != nil {
		return nil, "", err
	}
	return acc, token, nil
}

// Logout destroys the session. Unknown tokens are not an error.
func (s *Service) Logout(ctx context.Context, token string) error {
	if err := s.tokens.Revoke(ctx, token); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return nil
}

// LookupByToken returns the actor behind a valid session token, or
// domain.ErrAuthRequired. Storage failures are passed through.
func (s *Service) LookupByToken(ctx context.Context, token string) (*domain.Actor, error) {
	if strings.TrimSpace(token) == "" {
		return nil, domain.ErrAuthRequired
	}
	accountID, err := s.tokens.Validate(ctx, token)
	if err != nil {
		return nil, err
	}
	acc, err := s.repo.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrAuthRequired
		}
		return nil, err
	}
	return &domain.Actor{ID: acc.ID, Email: acc.Email, Name: acc.FullName}, nil
}

// IsAdmin performs one role lookup; the answer is never cached.
func (s *Service) IsAdmin(ctx context.Context, accountID string) (bool, error) {
	return s.roles.Has(ctx, accountID, domain.RoleAdmin)
}

// GrantAdmin assigns the admin role to the account registered under email.
func (s *Service) GrantAdmin(ctx context.Context, email string) (*domain.Account, error) {
	acc, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return acc, s.roles.Grant(ctx, acc.ID, domain.RoleAdmin)
}

// RevokeAdmin removes the admin role from the account registered under email.
func (s *Service) RevokeAdmin(ctx context.Context, email string) (*domain.Account, error) {
	acc, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return acc, s.roles.Revoke(ctx, acc.ID, domain.RoleAdmin)
}

// PurgeExpired removes expired session tokens.
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	return s.tokens.PurgeExpired(ctx)
}

// SessionTTLSeconds exposes the session lifetime in seconds.
func (s *Service) SessionTTLSeconds() int {
	return int(s.accessTTL.Seconds())
}
