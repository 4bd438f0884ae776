// Package client talks to the platform API. Client satisfies auth.Provider
// so the session store can drive sign-in over HTTP, and ProfileFetcher
// feeds the role tracker.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	retry "github.com/appleboy/go-httpretry"

	"github.com/marketingreboot/reboot-api/internal/auth"
	"github.com/marketingreboot/reboot-api/internal/models"
	"github.com/marketingreboot/reboot-api/internal/services"
	"github.com/marketingreboot/reboot-api/pkg/dto"
)

const DefaultTimeout = 10 * time.Second

var ErrUnexpectedResponse = errors.New("unexpected response from api")

type Client struct {
	baseURL string
	http    *retry.Client
}

// New returns a client for the API rooted at baseURL, e.g.
// http://localhost:8080. Requests are retried on network errors and 5xx.
func New(baseURL string, timeout time.Duration) (*Client, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	rc, err := retry.NewRealtimeClient(
		retry.WithHTTPClient(&http.Client{Timeout: timeout}),
		retry.WithMaxRetries(2),
		retry.WithInitialRetryDelay(200*time.Millisecond),
		retry.WithMaxRetryDelay(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create retry client: %w", err)
	}

	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/") + "/api/v1",
		http:    rc,
	}, nil
}

func (c *Client) SignUp(ctx context.Context, params auth.SignUpParams) (*auth.Session, error) {
	status, body, err := c.post(ctx, "/auth/signup", dto.SignUpRequest{
		Email:    params.Email,
		Password: params.Password,
		FullName: params.Metadata.FullName,
		Username: params.Metadata.Username,
	})
	if err != nil {
		return nil, err
	}

	if status == http.StatusBadRequest {
		switch {
		case bytes.Contains(body, []byte("already registered")):
			return nil, auth.ErrEmailTaken
		case bytes.Contains(body, []byte("at least")):
			return nil, services.ErrPasswordTooShort
		}
	}
	if status != http.StatusCreated {
		return nil, apiError(status, body)
	}
	return decodeSession(body)
}

func (c *Client) SignIn(ctx context.Context, email, password string) (*auth.Session, error) {
	status, body, err := c.post(ctx, "/auth/signin", dto.SignInRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}

	if status == http.StatusUnauthorized {
		return nil, auth.ErrInvalidCredentials
	}
	if status != http.StatusOK {
		return nil, apiError(status, body)
	}
	return decodeSession(body)
}

func (c *Client) SignOut(ctx context.Context, refreshToken string) error {
	status, body, err := c.post(ctx, "/auth/signout", dto.RefreshTokenRequest{RefreshToken: refreshToken})
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return apiError(status, body)
	}
	return nil
}

func (c *Client) Refresh(ctx context.Context, refreshToken string) (*auth.Session, error) {
	status, body, err := c.post(ctx, "/auth/refresh", dto.RefreshTokenRequest{RefreshToken: refreshToken})
	if err != nil {
		return nil, err
	}

	if status == http.StatusUnauthorized || status == http.StatusBadRequest {
		return nil, auth.ErrInvalidToken
	}
	if status != http.StatusOK {
		return nil, apiError(status, body)
	}
	return decodeSession(body)
}

// GetUser asks the server who the access token belongs to.
func (c *Client) GetUser(ctx context.Context, accessToken string) (*models.Identity, error) {
	status, body, err := c.get(ctx, "/auth/session", accessToken)
	if err != nil {
		return nil, err
	}

	if status == http.StatusUnauthorized {
		return nil, auth.ErrInvalidToken
	}
	if status != http.StatusOK {
		return nil, apiError(status, body)
	}

	var resp dto.CurrentSessionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnexpectedResponse, err)
	}
	if resp.Identity == nil {
		return nil, auth.ErrInvalidToken
	}
	return resp.Identity, nil
}

// Me loads the caller's profile, creating it server side on first use.
func (c *Client) Me(ctx context.Context, accessToken string) (*dto.MeResponse, error) {
	status, body, err := c.get(ctx, "/profiles/me", accessToken)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, apiError(status, body)
	}

	var resp dto.MeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnexpectedResponse, err)
	}
	return &resp, nil
}

func (c *Client) post(ctx context.Context, path string, payload any) (int, []byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := c.http.Post(ctx, c.baseURL+path,
		retry.WithBody("application/json", bytes.NewReader(data)),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("request %s: %w", path, err)
	}
	return readResponse(resp)
}

func (c *Client) get(ctx context.Context, path, accessToken string) (int, []byte, error) {
	resp, err := c.http.Get(ctx, c.baseURL+path,
		retry.WithHeader("Authorization", "Bearer "+accessToken),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("request %s: %w", path, err)
	}
	return readResponse(resp)
}

func readResponse(resp *http.Response) (int, []byte, error) {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: failed to read response", ErrUnexpectedResponse)
	}
	return resp.StatusCode, body, nil
}

func decodeSession(body []byte) (*auth.Session, error) {
	var resp dto.SessionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnexpectedResponse, err)
	}
	if resp.AccessToken == "" || resp.Identity == nil {
		return nil, fmt.Errorf("%w: session without token or identity", ErrUnexpectedResponse)
	}
	return &auth.Session{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresAt:    resp.ExpiresAt,
		Identity:     resp.Identity,
	}, nil
}

func apiError(status int, body []byte) error {
	preview := string(body)
	if len(preview) > 200 {
		preview = preview[:200] + "..."
	}
	return fmt.Errorf("%w: HTTP %d - %s", ErrUnexpectedResponse, status, preview)
}
