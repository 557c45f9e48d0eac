package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"anycomp/internal/domain"
)

type AuthService struct {
	client *Client
}

func (s *AuthService) Login(ctx context.Context, req domain.LoginRequest) (*domain.AuthResult, error) {
	var out domain.AuthResult
	if err := s.client.call(ctx, http.MethodPost, "auth/login", req, &out); err != nil {
		return nil, err
	}
	if out.User == nil || out.Token == "" {
		return nil, fmt.Errorf("login response is missing user or token")
	}
	return &out, nil
}

func (s *AuthService) Register(ctx context.Context, req domain.RegisterRequest) (*domain.AuthResult, error) {
	var out domain.AuthResult
	if err := s.client.call(ctx, http.MethodPost, "auth/register", req, &out); err != nil {
		return nil, err
	}
	if out.User == nil || out.Token == "" {
		return nil, fmt.Errorf("register response is missing user or token")
	}
	return &out, nil
}

// Me returns the current user. Both {data:{user}} and {data:user} are
// accepted.
func (s *AuthService) Me(ctx context.Context) (*domain.User, error) {
	var raw json.RawMessage
	if err := s.client.call(ctx, http.MethodGet, "auth/me", nil, &raw); err != nil {
		return nil, err
	}

	var wrapped struct {
		User *domain.User `json:"user"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.User != nil {
		return wrapped.User, nil
	}

	var user domain.User
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, fmt.Errorf("decode current user: %w", err)
	}
	if user.ID == "" {
		return nil, fmt.Errorf("current user response has no id")
	}
	return &user, nil
}
