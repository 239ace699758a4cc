// Package session is the single source of truth for the CLI's authentication
// state. The Manager mediates every auth network operation, persists the
// bearer token through the token store, and fans out state changes to
// subscribers. A stored token is never trusted without a verification
// round-trip at startup.
package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/storelane-dev/storelane/internal/cli/auth"
	"github.com/storelane-dev/storelane/internal/cli/client"
)

// DefaultResendCooldown is the client-side gap between OTP resends.
// Pure UX: the server independently rate-limits reissues.
const DefaultResendCooldown = 60 * time.Second

// ErrResendCooldown is returned when a resend is requested before the
// client-side cooldown has elapsed. No network call is made.
var ErrResendCooldown = errors.New("a code was sent moments ago, wait before resending")

// State is the session snapshot handed to subscribers. It is replaced
// wholesale on every transition, never mutated field by field, so observers
// cannot see a half-updated session.
type State struct {
	User            *client.User
	Token           string
	IsLoading       bool
	IsAuthenticated bool
}

// SubscriberFunc receives each new state snapshot
type SubscriberFunc func(State)

// Subscription identifies one subscriber for unsubscribing
type Subscription int

// Manager holds the session and performs all auth operations
type Manager struct {
	api    *client.Client
	tokens auth.TokenStore
	host   string

	mu          sync.Mutex
	state       State
	initialized bool
	subscribers map[Subscription]SubscriberFunc
	nextSub     Subscription
	lastResend  map[string]time.Time

	cooldown time.Duration
	now      func() time.Time
}

// NewManager creates a session manager starting in the loading state
func NewManager(api *client.Client, tokens auth.TokenStore) *Manager {
	return &Manager{
		api:         api,
		tokens:      tokens,
		host:        api.Host(),
		state:       State{IsLoading: true},
		subscribers: make(map[Subscription]SubscriberFunc),
		lastResend:  make(map[string]time.Time),
		cooldown:    DefaultResendCooldown,
		now:         time.Now,
	}
}

// SetClock overrides the time source (tests only)
func (m *Manager) SetClock(fn func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = fn
}

// Current returns the latest session snapshot
func (m *Manager) Current() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Subscribe registers a callback for state changes. Notification is
// synchronous and ordered by subscription.
func (m *Manager) Subscribe(fn SubscriberFunc) Subscription {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextSub
	m.nextSub++
	m.subscribers[id] = fn
	return id
}

// Unsubscribe removes a subscriber. Idempotent.
func (m *Manager) Unsubscribe(id Subscription) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.subscribers, id)
}

// setState replaces the session atomically and notifies subscribers
func (m *Manager) setState(next State) {
	m.mu.Lock()
	m.state = next
	subs := make([]Subscription, 0, len(m.subscribers))
	for id := range m.subscribers {
		subs = append(subs, id)
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i] < subs[j] })
	fns := make([]SubscriberFunc, len(subs))
	for i, id := range subs {
		fns[i] = m.subscribers[id]
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn(next)
	}
}

// Initialize resolves the startup session exactly once per process.
// Without a stored token it settles to anonymous with no network call;
// with one it verifies against the server and clears the token on any
// failure. Later calls are no-ops.
func (m *Manager) Initialize(ctx context.Context) error {
	m.mu.Lock()
	if m.initialized {
		m.mu.Unlock()
		return nil
	}
	m.initialized = true
	m.mu.Unlock()

	token, err := m.tokens.LoadToken(m.host)
	if err != nil || token == "" {
		m.setState(State{})
		if err != nil && !errors.Is(err, auth.ErrNoToken) {
			return fmt.Errorf("failed to read token store: %w", err)
		}
		return nil
	}

	user, err := m.api.Me(ctx)
	if err != nil {
		// Stored token is stale or bogus; drop it and start anonymous
		_ = m.tokens.DeleteToken(m.host)
		m.setState(State{})
		return nil
	}

	m.setState(State{
		User:            user,
		Token:           token,
		IsAuthenticated: true,
	})
	return nil
}

// Login authenticates with credentials. On failure the session is untouched.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	resp, err := m.api.Login(ctx, email, password)
	if err != nil {
		return err
	}

	if err := m.tokens.SaveToken(m.host, resp.Token); err != nil {
		return fmt.Errorf("failed to save authentication token: %w", err)
	}

	m.setState(State{
		User:            resp.User,
		Token:           resp.Token,
		IsAuthenticated: true,
	})
	return nil
}

// InitiateRegistration asks for a verification code. Session state is not
// touched; the caller advances its flow on success.
func (m *Manager) InitiateRegistration(ctx context.Context, input PendingRegistration) error {
	_, err := m.api.InitiateRegistration(ctx, client.InitiateRegistrationRequest{
		Email:           input.Email,
		FirstName:       input.FirstName,
		LastName:        input.LastName,
		Password:        input.Password,
		ConfirmPassword: input.ConfirmPassword,
	})
	if err != nil {
		return err
	}
	m.markResend(authPurposeRegister)
	return nil
}

// CompleteRegistration redeems the code. Success behaves like login;
// failure leaves the session unchanged.
func (m *Manager) CompleteRegistration(ctx context.Context, input PendingRegistration, otpCode string) error {
	resp, err := m.api.CompleteRegistration(ctx, client.CompleteRegistrationRequest{
		Email:     input.Email,
		OTP:       otpCode,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Password:  input.Password,
	})
	if err != nil {
		return err
	}

	if err := m.tokens.SaveToken(m.host, resp.Token); err != nil {
		return fmt.Errorf("failed to save authentication token: %w", err)
	}

	m.setState(State{
		User:            resp.User,
		Token:           resp.Token,
		IsAuthenticated: true,
	})
	return nil
}

// InitiatePasswordReset asks for a reset code. No session mutation.
func (m *Manager) InitiatePasswordReset(ctx context.Context, email string) error {
	if _, err := m.api.InitiatePasswordReset(ctx, email); err != nil {
		return err
	}
	m.markResend(authPurposeReset)
	return nil
}

// VerifyPasswordResetOTP redeems the code for a reset ticket. The ticket is
// returned to the caller only: it never authenticates the session and never
// touches the token store.
func (m *Manager) VerifyPasswordResetOTP(ctx context.Context, email, otpCode string) (string, error) {
	return m.api.VerifyPasswordResetOTP(ctx, email, otpCode)
}

// CompletePasswordReset finalizes the new password. Does not log in; the
// caller routes to login afterwards.
func (m *Manager) CompletePasswordReset(ctx context.Context, ticket, password, confirmPassword string) error {
	_, err := m.api.CompletePasswordReset(ctx, ticket, password, confirmPassword)
	return err
}

// ResendOTP reissues a code for either flow, subject to the client cooldown.
// Inside the cooldown no request is sent at all.
func (m *Manager) ResendOTP(ctx context.Context, email, purpose string) error {
	m.mu.Lock()
	last, seen := m.lastResend[purpose]
	if seen && m.now().Sub(last) < m.cooldown {
		m.mu.Unlock()
		return ErrResendCooldown
	}
	m.mu.Unlock()

	if _, err := m.api.ResendOTP(ctx, email, purpose); err != nil {
		return err
	}
	m.markResend(purpose)
	return nil
}

// Logout clears the session no matter what. The server call is best-effort;
// this is the one place a network failure is deliberately swallowed.
func (m *Manager) Logout(ctx context.Context) {
	_ = m.api.Logout(ctx)
	_ = m.tokens.DeleteToken(m.host)
	m.setState(State{})
}

func (m *Manager) markResend(purpose string) {
	m.mu.Lock()
	m.lastResend[purpose] = m.now()
	m.mu.Unlock()
}

const (
	authPurposeRegister = "register"
	authPurposeReset    = "reset-password"
)
