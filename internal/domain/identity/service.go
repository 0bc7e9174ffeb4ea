package identity

import (
	"context"
	"fmt"
	"strings"

	"github.com/digidocs/digidocs/internal/platform/auth"
)

// TokenIssuer issues a signed credential for an authenticated user.
type TokenIssuer interface {
	Issue(userID int64, username, role, name string) (string, error)
}

type Service struct {
	repo   Repository
	issuer TokenIssuer
}

func NewService(repo Repository, issuer TokenIssuer) *Service {
	return &Service{repo: repo, issuer: issuer}
}

// LoginResult carries the authenticated user and the issued credential.
type LoginResult struct {
	UserID int64
	Role   string
	Name   string
	Token  string
}

// Login verifies the username/password pair and issues a token.
func (s *Service) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", ErrValidation)
	}

	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("look up user: %w", err)
	}
	if user == nil || !auth.CheckPassword(password, user.Password) {
		return nil, ErrInvalidCredentials
	}

	token, err := s.issuer.Issue(user.ID, user.Username, user.Role, user.Name)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	return &LoginResult{
		UserID: user.ID,
		Role:   user.Role,
		Name:   user.Name,
		Token:  token,
	}, nil
}

// RegisterResult carries the new user id and the issued credential.
type RegisterResult struct {
	UserID int64
	Token  string
}

// Register creates a new user. New users always get the assistant role.
func (s *Service) Register(ctx context.Context, username, password, name string) (*RegisterResult, error) {
	if strings.TrimSpace(username) == "" || password == "" || strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: username, password and name are required", ErrValidation)
	}

	existing, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("look up user: %w", err)
	}
	if existing != nil {
		return nil, ErrUsernameTaken
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &User{
		Username: username,
		Password: hash,
		Name:     name,
		Role:     auth.RoleAssistant,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	token, err := s.issuer.Issue(user.ID, user.Username, user.Role, user.Name)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	return &RegisterResult{UserID: user.ID, Token: token}, nil
}
