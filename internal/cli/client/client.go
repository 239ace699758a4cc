// Package client is the HTTP request layer for the Storelane API.
//
// Every request carries a JSON content type and, when the token store holds
// one, a bearer token. Non-2xx responses become *APIError carrying the
// server's message verbatim; 2xx bodies are decoded into typed responses and
// validated before use, so a malformed server reply surfaces as
// ErrMalformedResponse rather than a zero-valued struct.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/storelane-dev/storelane/internal/cli/auth"
)

// ErrMalformedResponse indicates a 2xx reply whose body did not match the
// expected shape
var ErrMalformedResponse = errors.New("malformed server response")

// APIError is a non-2xx response normalized into an error.
// Message is the server-provided text when present, a generic fallback otherwise.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// Client represents an HTTP client for the Storelane API
type Client struct {
	baseURL    string
	host       string
	httpClient *http.Client
	tokens     auth.TokenStore
}

// New creates a new API client. baseURL includes the scheme, e.g.
// "https://api.storelane.dev".
func New(baseURL string, tokens auth.TokenStore) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid API URL %q", baseURL)
	}

	return &Client{
		baseURL: baseURL,
		host:    u.Host,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		tokens: tokens,
	}, nil
}

// SetHTTPClient sets a custom HTTP client
func (c *Client) SetHTTPClient(httpClient *http.Client) {
	c.httpClient = httpClient
}

// Host returns the API host, used as the token-store key
func (c *Client) Host() string {
	return c.host
}

// validatable responses reject bodies missing required fields
type validatable interface {
	validate() error
}

// do dispatches one request. reqBody and out may be nil.
func (c *Client) do(ctx context.Context, method, path string, reqBody, out any) error {
	var body io.Reader
	if reqBody != nil {
		jsonData, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if token, err := c.tokens.LoadToken(c.host); err == nil && token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return normalizeError(resp)
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if v, ok := out.(validatable); ok {
		if err := v.validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
	}
	return nil
}

// normalizeError turns a non-2xx response into an *APIError, preferring the
// server's own message ("error" or "message" key) over the generic fallback
func normalizeError(resp *http.Response) error {
	apiErr := &APIError{
		Status:  resp.StatusCode,
		Message: fmt.Sprintf("request failed (status %d %s)", resp.StatusCode, http.StatusText(resp.StatusCode)),
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return apiErr
	}

	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Error != "" {
			apiErr.Message = payload.Error
		} else if payload.Message != "" {
			apiErr.Message = payload.Message
		}
	}
	return apiErr
}

// User represents the authenticated account as returned by the server
type User struct {
	ID              string `json:"id"`
	Email           string `json:"email"`
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	IsEmailVerified bool   `json:"isEmailVerified"`
}

func (u *User) validate() error {
	if u.ID == "" || u.Email == "" {
		return errors.New("user missing id or email")
	}
	return nil
}

// LoginResponse represents a successful login or registration completion
type LoginResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

func (r *LoginResponse) validate() error {
	if r.Token == "" {
		return errors.New("missing token")
	}
	if r.User == nil {
		return errors.New("missing user")
	}
	return r.User.validate()
}

// MeResponse wraps the current user
type MeResponse struct {
	User *User `json:"user"`
}

func (r *MeResponse) validate() error {
	if r.User == nil {
		return errors.New("missing user")
	}
	return r.User.validate()
}

// AckResponse is a server acknowledgement with a human-readable message
type AckResponse struct {
	Message string `json:"message"`
}

// ResetTicketResponse carries the single-use password-reset ticket
type ResetTicketResponse struct {
	Token string `json:"token"`
}

func (r *ResetTicketResponse) validate() error {
	if r.Token == "" {
		return errors.New("missing reset ticket")
	}
	return nil
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// InitiateRegistrationRequest starts the two-phase registration flow
type InitiateRegistrationRequest struct {
	Email           string `json:"email"`
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// CompleteRegistrationRequest redeems the emailed code
type CompleteRegistrationRequest struct {
	Email     string `json:"email"`
	OTP       string `json:"otp"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Password  string `json:"password"`
}

// CompletePasswordResetRequest finalizes the new password
type CompletePasswordResetRequest struct {
	Token           string `json:"token"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// Login authenticates and returns the session token and user
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	var out LoginResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/login", LoginRequest{
		Email:    email,
		Password: password,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Me verifies the stored token and returns the current user
func (c *Client) Me(ctx context.Context) (*User, error) {
	var out MeResponse
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

// InitiateRegistration asks the server to email a verification code
func (c *Client) InitiateRegistration(ctx context.Context, req InitiateRegistrationRequest) (*AckResponse, error) {
	var out AckResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/register/initiate", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CompleteRegistration redeems the code and creates the account
func (c *Client) CompleteRegistration(ctx context.Context, req CompleteRegistrationRequest) (*LoginResponse, error) {
	var out LoginResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/register/complete", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// InitiatePasswordReset asks the server to email a reset code
func (c *Client) InitiatePasswordReset(ctx context.Context, email string) (*AckResponse, error) {
	var out AckResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/password-reset/initiate", map[string]string{
		"email": email,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyPasswordResetOTP redeems the reset code for a single-use ticket.
// The ticket is not a session token and must not be stored.
func (c *Client) VerifyPasswordResetOTP(ctx context.Context, email, otpCode string) (string, error) {
	var out ResetTicketResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/password-reset/verify-otp", map[string]string{
		"email": email,
		"otp":   otpCode,
	}, &out)
	if err != nil {
		return "", err
	}
	return out.Token, nil
}

// CompletePasswordReset sets a new password using the reset ticket
func (c *Client) CompletePasswordReset(ctx context.Context, ticket, password, confirmPassword string) (*AckResponse, error) {
	var out AckResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/password-reset/complete", CompletePasswordResetRequest{
		Token:           ticket,
		Password:        password,
		ConfirmPassword: confirmPassword,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ResendOTP reissues a code for either flow ("register" or "reset-password")
func (c *Client) ResendOTP(ctx context.Context, email, purpose string) (*AckResponse, error) {
	var out AckResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/resend-otp", map[string]string{
		"email": email,
		"type":  purpose,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout notifies the server. Callers treat failures as best-effort.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
}

// Store represents a retail location
type Store struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

// Product represents a catalog item stocked at a store
type Product struct {
	ID         string `json:"id"`
	StoreID    string `json:"storeId"`
	Name       string `json:"name"`
	SKU        string `json:"sku"`
	PriceCents int64  `json:"priceCents"`
	Quantity   int64  `json:"quantity"`
}

// ListStores returns all stores
func (c *Client) ListStores(ctx context.Context) ([]Store, error) {
	var out []Store
	if err := c.do(ctx, http.MethodGet, "/api/stores", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListProducts returns the products stocked at a store
func (c *Client) ListProducts(ctx context.Context, storeID string) ([]Product, error) {
	var out []Product
	if err := c.do(ctx, http.MethodGet, "/api/stores/"+storeID+"/products", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
