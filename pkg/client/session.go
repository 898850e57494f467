// Package client is a Go client for the PenCraft API. Session holds the
// signed-in identity and reconciles it from server responses.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrValidation         = errors.New("invalid input")
	ErrConflict           = errors.New("conflict")
	ErrNotAuthenticated   = errors.New("not authenticated")
)

// APIError is a non-2xx response. It unwraps to one of the package sentinels
// when the status maps to one.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("pencraft: %d %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized:
		return ErrInvalidCredentials
	case http.StatusBadRequest:
		return ErrValidation
	case http.StatusConflict:
		return ErrConflict
	}
	return nil
}

type User struct {
	ID          uuid.UUID   `json:"id"`
	Username    string      `json:"username"`
	Email       string      `json:"email"`
	FirstName   string      `json:"first_name"`
	LastName    string      `json:"last_name"`
	Name        string      `json:"name"`
	Bio         string      `json:"bio"`
	AvatarURL   *string     `json:"avatar_url"`
	Communities []uuid.UUID `json:"communities"`
	CreatedAt   time.Time   `json:"created_at"`
}

func (u *User) clone() *User {
	if u == nil {
		return nil
	}
	cp := *u
	cp.Communities = append([]uuid.UUID{}, u.Communities...)
	return &cp
}

type RegisterRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password,omitempty"`
	FirstName       string `json:"first_name,omitempty"`
	LastName        string `json:"last_name,omitempty"`
}

// UserUpdate is a partial profile update; nil fields are left alone.
type UserUpdate struct {
	Username  *string `json:"username,omitempty"`
	Email     *string `json:"email,omitempty"`
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Bio       *string `json:"bio,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}

type Session struct {
	baseURL string
	http    *http.Client
	tokens  TokenStore

	mu            sync.RWMutex
	user          *User
	token         string
	authenticated bool
	loading       bool
	err           error
}

// NewSession restores a persisted token if there is one. Call Refresh to
// load the user it belongs to.
func NewSession(baseURL string, tokens TokenStore, httpClient *http.Client) (*Session, error) {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	if tokens == nil {
		tokens = NewMemoryTokenStore()
	}

	token, err := tokens.Load()
	if err != nil {
		return nil, fmt.Errorf("load token: %w", err)
	}

	return &Session{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		tokens:  tokens,
		token:   token,
	}, nil
}

func (s *Session) User() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user.clone()
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticated
}

func (s *Session) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *Session) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

func (s *Session) ClearError() {
	s.mu.Lock()
	s.err = nil
	s.mu.Unlock()
}

type authPayload struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

func (s *Session) Login(ctx context.Context, email, password string) error {
	return s.authenticate(ctx, "/api/auth/login", map[string]string{"email": email, "password": password})
}

func (s *Session) Register(ctx context.Context, req RegisterRequest) error {
	return s.authenticate(ctx, "/api/auth/register", req)
}

func (s *Session) authenticate(ctx context.Context, path string, body any) error {
	s.begin()

	var out authPayload
	err := s.do(ctx, http.MethodPost, path, "", body, &out)
	if err == nil && (out.User == nil || out.Token == "") {
		err = fmt.Errorf("pencraft: malformed auth response")
	}
	if err == nil {
		err = s.tokens.Save(out.Token)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.err = err
		s.user, s.token, s.authenticated = nil, "", false
		return err
	}
	s.user, s.token, s.authenticated, s.err = out.User, out.Token, true, nil
	return nil
}

// Refresh reloads the current user with the stored token.
func (s *Session) Refresh(ctx context.Context) error {
	token := s.Token()
	if token == "" {
		return ErrNotAuthenticated
	}

	var out struct {
		User *User `json:"user"`
	}
	if err := s.do(ctx, http.MethodGet, "/api/auth/me", token, nil, &out); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
			s.reset()
		}
		return s.fail(err)
	}
	s.setUser(out.User)
	return nil
}

// Logout revokes the token server-side when possible and always clears the
// local session.
func (s *Session) Logout(ctx context.Context) error {
	token := s.Token()
	var remoteErr error
	if token != "" {
		remoteErr = s.do(ctx, http.MethodPost, "/api/auth/logout", token, nil, nil)
	}
	s.reset()
	if err := s.tokens.Clear(); err != nil {
		return err
	}
	return remoteErr
}

func (s *Session) UpdateUser(ctx context.Context, update UserUpdate) error {
	u, token, err := s.current()
	if err != nil {
		return err
	}

	var out struct {
		User *User `json:"user"`
	}
	if err := s.do(ctx, http.MethodPut, "/api/users/"+u.ID.String(), token, update, &out); err != nil {
		return s.fail(err)
	}
	s.setUser(out.User)
	return nil
}

// AddUserCommunity joins the community. Joining an already-joined community
// is not an error.
func (s *Session) AddUserCommunity(ctx context.Context, communityID uuid.UUID) error {
	return s.changeCommunity(ctx, http.MethodPut, communityID)
}

func (s *Session) RemoveUserCommunity(ctx context.Context, communityID uuid.UUID) error {
	return s.changeCommunity(ctx, http.MethodDelete, communityID)
}

func (s *Session) changeCommunity(ctx context.Context, method string, communityID uuid.UUID) error {
	u, token, err := s.current()
	if err != nil {
		return err
	}

	var out struct {
		User *User `json:"user"`
	}
	path := fmt.Sprintf("/api/users/%s/communities/%s", u.ID, communityID)
	if err := s.do(ctx, method, path, token, nil, &out); err != nil {
		return s.fail(err)
	}
	s.setUser(out.User)
	return nil
}

func (s *Session) current() (*User, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.authenticated || s.user == nil {
		return nil, "", ErrNotAuthenticated
	}
	return s.user.clone(), s.token, nil
}

func (s *Session) begin() {
	s.mu.Lock()
	s.loading = true
	s.err = nil
	s.mu.Unlock()
}

func (s *Session) fail(err error) error {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
	return err
}

func (s *Session) setUser(u *User) {
	if u == nil {
		return
	}
	s.mu.Lock()
	s.user = u
	s.authenticated = true
	s.err = nil
	s.mu.Unlock()
}

func (s *Session) reset() {
	s.mu.Lock()
	s.user, s.token, s.authenticated, s.err = nil, "", false, nil
	s.mu.Unlock()
}

func (s *Session) do(ctx context.Context, method, path, token string, body, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		if apiErr.Error == "" {
			apiErr.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: apiErr.Error}
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
