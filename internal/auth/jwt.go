package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const ticketPurpose = "password-reset"

var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrInvalidTicket = errors.New("invalid reset ticket")
)

// SessionClaims are the claims carried by a bearer session token.
// Purpose is never set on session tokens; it surfaces here only so a reset
// ticket presented as a bearer token can be detected and rejected.
type SessionClaims struct {
	UserID  string `json:"userId"`
	Email   string `json:"email"`
	Purpose string `json:"purpose,omitempty"`
	jwt.RegisteredClaims
}

// TicketClaims are the claims carried by a password-reset ticket.
// A ticket is not a session token: Purpose distinguishes the two so neither
// is accepted where the other is expected, and TicketID points at the
// single-use ResetTicket row.
type TicketClaims struct {
	UserID   string `json:"userId"`
	TicketID string `json:"ticketId"`
	Purpose  string `json:"purpose"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies session tokens and reset tickets
type TokenManager struct {
	secret    []byte
	tokenTTL  time.Duration
	ticketTTL time.Duration
}

// NewTokenManager creates a TokenManager with the given HMAC secret and lifetimes
func NewTokenManager(secret string, tokenTTL, ticketTTL time.Duration) *TokenManager {
	return &TokenManager{
		secret:    []byte(secret),
		tokenTTL:  tokenTTL,
		ticketTTL: ticketTTL,
	}
}

// GenerateToken creates a new session token for a user. The expiry claim is
// the backstop for sessions the client never explicitly logs out of.
func (m *TokenManager) GenerateToken(userID, email string) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.tokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// ValidateToken validates a session token and returns its claims
func (m *TokenManager) ValidateToken(tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, m.keyFunc)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid || claims.Purpose != "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// GenerateResetTicket creates a short-lived, purpose-tagged reset ticket
// bound to a ResetTicket row
func (m *TokenManager) GenerateResetTicket(userID, ticketID string) (string, error) {
	now := time.Now()
	claims := TicketClaims{
		UserID:   userID,
		TicketID: ticketID,
		Purpose:  ticketPurpose,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ticketTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// ValidateResetTicket validates a reset ticket and returns its claims.
// Session tokens are rejected here even though they share the signing key.
func (m *TokenManager) ValidateResetTicket(tokenString string) (*TicketClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &TicketClaims{}, m.keyFunc)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ticket: %w", err)
	}

	claims, ok := token.Claims.(*TicketClaims)
	if !ok || !token.Valid || claims.Purpose != ticketPurpose || claims.TicketID == "" {
		return nil, ErrInvalidTicket
	}
	return claims, nil
}

func (m *TokenManager) keyFunc(token *jwt.Token) (interface{}, error) {
	// Validate signing method
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return m.secret, nil
}
