// Package remote is the client for the target service's HTTP API: the
// two-step creation protocol (user, then member profile) plus the admin
// login used by repair passes.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog"
)

// APIError is a structured non-2xx response. The message is surfaced
// verbatim in the run ledger.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.Status, e.Message)
}

// CreateUserRequest is the create-principal payload.
type CreateUserRequest struct {
	Email      string  `json:"email"`
	Password   string  `json:"password"`
	FirstName  string  `json:"firstName"`
	LastName   string  `json:"lastName"`
	Phone      *string `json:"phone"`
	BirthDate  *string `json:"birthDate"`
	NIF        *string `json:"nif"`
	Address    *string `json:"address"`
	PostalCode *string `json:"postalCode"`
	City       *string `json:"city"`
}

// MemberProfileRequest is the create-dependent payload.
type MemberProfileRequest struct {
	MembershipStatus  int     `json:"membershipStatus"`
	MemberSince       *string `json:"memberSince"`
	PaymentPreference string  `json:"paymentPreference"`
}

// Client talks to the target API. Calls are synchronous with a bounded
// timeout; transport and 5xx failures are retried with exponential
// backoff, 4xx responses are not.
type Client struct {
	baseURL       string
	http          *http.Client
	token         string
	logger        zerolog.Logger
	maxTries      uint
	retryInterval time.Duration
}

// New creates a client for the API at baseURL.
func New(baseURL string, timeout time.Duration, logger zerolog.Logger) *Client {
	return &Client{
		baseURL:       baseURL,
		http:          &http.Client{Timeout: timeout},
		logger:        logger,
		maxTries:      3,
		retryInterval: 500 * time.Millisecond,
	}
}

// Login authenticates as an operator and keeps the bearer token for
// subsequent calls.
func (c *Client) Login(ctx context.Context, email, password string) error {
	var out struct {
		Token string `json:"token"`
	}
	payload := map[string]string{"email": email, "password": password}
	if err := c.postJSON(ctx, "/api/auth/login", payload, &out); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	if out.Token == "" {
		return fmt.Errorf("login response carried no token")
	}
	c.token = out.Token
	return nil
}

// CreateUser submits the principal identity and returns the new user id.
// The password in the request is known to be discarded by the service;
// the ledger keeps the one we intended (see credential repair).
func (c *Client) CreateUser(ctx context.Context, req CreateUserRequest) (int64, error) {
	var out struct {
		ID int64 `json:"id"`
	}
	if err := c.postJSON(ctx, "/api/users", req, &out); err != nil {
		return 0, err
	}
	return out.ID, nil
}

// CreateMemberProfile attaches the membership sub-resource to an
// existing user.
func (c *Client) CreateMemberProfile(ctx context.Context, userID int64, req MemberProfileRequest) error {
	path := fmt.Sprintf("/api/users/%d/member-profile", userID)
	return c.postJSON(ctx, path, req, nil)
}

func (c *Client) postJSON(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	attempt := func() (struct{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return struct{}{}, backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			c.logger.Debug().Err(err).Str("path", path).Msg("request failed, may retry")
			return struct{}{}, err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			if out != nil {
				if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
					return struct{}{}, backoff.Permanent(fmt.Errorf("failed to decode response: %w", err))
				}
			}
			return struct{}{}, nil
		}

		apiErr := &APIError{Status: resp.StatusCode, Message: readErrorMessage(resp.Body)}
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return struct{}{}, backoff.Permanent(apiErr)
		}
		c.logger.Debug().Int("status", resp.StatusCode).Str("path", path).Msg("server error, may retry")
		return struct{}{}, apiErr
	}

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = c.retryInterval
	_, err = backoff.Retry(ctx, attempt,
		backoff.WithBackOff(expo),
		backoff.WithMaxTries(c.maxTries),
	)
	return err
}

// readErrorMessage extracts the structured "message" field from an error
// body, falling back to the truncated raw body.
func readErrorMessage(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil || len(raw) == 0 {
		return "no response body"
	}
	var parsed struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &parsed); err == nil && parsed.Message != "" {
		return parsed.Message
	}
	msg := string(raw)
	if len(msg) > 150 {
		msg = msg[:150]
	}
	return msg
}
