package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"hrms/internal/domain/errs"
)

const DefaultTokenTTL = 12 * time.Hour

type Service struct {
	Store    StoreAPI
	Secret   string
	TokenTTL time.Duration
}

func NewService(store StoreAPI, secret string) *Service {
	return &Service{Store: store, Secret: secret, TokenTTL: DefaultTokenTTL}
}

type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      User      `json:"user"`
}

// Login verifies the password and issues an access token. Unknown emails and
// wrong passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	email = normalizeEmail(email)
	user, err := s.Store.FindActiveUserByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return LoginResult{}, ErrInvalidCredentials
	}
	if err != nil {
		return LoginResult{}, err
	}
	if err := CheckPassword(user.PasswordHash, password); err != nil {
		return LoginResult{}, ErrInvalidCredentials
	}

	token, err := GenerateToken(s.Secret, Claims{UserID: user.ID, EmployeeID: user.EmployeeID, Role: user.Role}, s.TokenTTL)
	if err != nil {
		return LoginResult{}, err
	}
	if err := s.Store.UpdateLastLogin(ctx, user.ID); err != nil {
		slog.Warn("update last login failed", "userId", user.ID, "err", err)
	}
	return LoginResult{Token: token, ExpiresAt: time.Now().Add(s.TokenTTL), User: user}, nil
}

// CreateUser hashes password and stores a new active user.
func (s *Service) CreateUser(ctx context.Context, email, password, role, employeeID string) (string, error) {
	email = normalizeEmail(email)
	if email == "" {
		return "", errs.Invalid("email", "is required")
	}
	if len(password) < 8 {
		return "", errs.Invalid("password", "must be at least 8 characters")
	}
	if !ValidRole(role) {
		return "", errs.Invalid("role", "unknown role "+role)
	}
	hash, err := HashPassword(password)
	if err != nil {
		return "", err
	}
	return s.Store.CreateUser(ctx, User{
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		EmployeeID:   employeeID,
		Status:       UserStatusActive,
	})
}

// EnsureUser creates the user unless one with the email already exists.
func (s *Service) EnsureUser(ctx context.Context, email, password, role, employeeID string) error {
	_, err := s.CreateUser(ctx, email, password, role, employeeID)
	if errors.Is(err, ErrUserExists) {
		return nil
	}
	return err
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
