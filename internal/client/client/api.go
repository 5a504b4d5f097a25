package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Sentinel errors surfaced to the CLI. ErrUnavailable covers transport
// failures (server unreachable); ErrUnauthorized covers 401/403 responses.
var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
)

// TokenPair is the credential pair returned by the auth endpoints.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	UserID       string `json:"userId,omitempty"`
	Role         string `json:"role,omitempty"`
}

// APIClient talks to the coachsync REST API.
type APIClient struct {
	baseURL string
	http    *http.Client
}

func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

type apiEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *struct {
		Code string `json:"code"`
	} `json:"error,omitempty"`
}

// do sends one request and decodes the response envelope into out (when
// out is non-nil). Transport errors map to ErrUnavailable, 401/403 to
// ErrUnauthorized, other non-2xx statuses to a generic error carrying the
// server's error code.
func (c *APIClient) do(ctx context.Context, method, path, token string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	var env apiEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil && resp.StatusCode < 300 {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		code := "UNKNOWN"
		if env.Error != nil {
			code = env.Error.Code
		}
		return fmt.Errorf("server error %d (%s)", resp.StatusCode, code)
	}

	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("failed to decode response data: %w", err)
		}
	}
	return nil
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

// Register creates an account and returns the initial token pair.
func (c *APIClient) Register(ctx context.Context, email, password, role string) (*TokenPair, error) {
	var pair TokenPair
	err := c.do(ctx, http.MethodPost, "/api/auth/register", "",
		credentials{Email: email, Password: password, Role: role}, &pair)
	if err != nil {
		return nil, err
	}
	return &pair, nil
}

// Login exchanges credentials for a token pair.
func (c *APIClient) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	var pair TokenPair
	err := c.do(ctx, http.MethodPost, "/api/auth/login", "",
		credentials{Email: email, Password: password}, &pair)
	if err != nil {
		return nil, err
	}
	return &pair, nil
}

type refreshBody struct {
	RefreshToken string `json:"refreshToken"`
}

// Refresh rotates the refresh token and returns a fresh pair.
func (c *APIClient) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	var pair TokenPair
	err := c.do(ctx, http.MethodPost, "/api/auth/refresh", "",
		refreshBody{RefreshToken: refreshToken}, &pair)
	if err != nil {
		return nil, err
	}
	return &pair, nil
}

// Logout revokes the current access token and drops the refresh session.
func (c *APIClient) Logout(ctx context.Context, accessToken, refreshToken string) error {
	return c.do(ctx, http.MethodPost, "/api/auth/logout", accessToken,
		refreshBody{RefreshToken: refreshToken}, nil)
}

// Ping probes the health endpoint; nil means the server is reachable.
func (c *APIClient) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/api/health", "", nil, nil)
}

type exerciseList struct {
	Exercises []json.RawMessage `json:"exercises"`
}

// FetchExercises downloads the exercise library as raw payloads, ready for
// local caching.
func (c *APIClient) FetchExercises(ctx context.Context, token string) ([]json.RawMessage, error) {
	var list exerciseList
	if err := c.do(ctx, http.MethodGet, "/api/exercises", token, nil, &list); err != nil {
		return nil, err
	}
	return list.Exercises, nil
}

// PostEvent submits one workout mutation directly. The action doubles as
// the path suffix, matching offline replay.
func (c *APIClient) PostEvent(ctx context.Context, token, action string, payload json.RawMessage) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/"+action, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("server error %d", resp.StatusCode)
	}
	return nil
}
