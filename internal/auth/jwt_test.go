package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokenManager() *TokenManager {
	return NewTokenManager("test-secret", time.Hour, 15*time.Minute)
}

func TestSessionTokenRoundTrip(t *testing.T) {
	tm := newTestTokenManager()

	token, err := tm.GenerateToken("u1", "a@example.com")
	require.NoError(t, err)

	claims, err := tm.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "a@example.com", claims.Email)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	tm := newTestTokenManager()

	_, err := tm.ValidateToken("not-a-token")
	assert.Error(t, err)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	other := NewTokenManager("other-secret", time.Hour, 15*time.Minute)
	token, err := other.GenerateToken("u1", "a@example.com")
	require.NoError(t, err)

	_, err = newTestTokenManager().ValidateToken(token)
	assert.Error(t, err)
}

func TestExpiredTokenRejected(t *testing.T) {
	tm := NewTokenManager("test-secret", -time.Minute, 15*time.Minute)
	token, err := tm.GenerateToken("u1", "a@example.com")
	require.NoError(t, err)

	_, err = tm.ValidateToken(token)
	assert.Error(t, err)
}

func TestResetTicketRoundTrip(t *testing.T) {
	tm := newTestTokenManager()

	ticket, err := tm.GenerateResetTicket("u1", "t1")
	require.NoError(t, err)

	claims, err := tm.ValidateResetTicket(ticket)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "t1", claims.TicketID)
}

func TestTokenKindsAreNotInterchangeable(t *testing.T) {
	tm := newTestTokenManager()

	ticket, err := tm.GenerateResetTicket("u1", "t1")
	require.NoError(t, err)
	token, err := tm.GenerateToken("u1", "a@example.com")
	require.NoError(t, err)

	// A reset ticket must not pass as a session token
	_, err = tm.ValidateToken(ticket)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// And a session token must not pass as a reset ticket
	_, err = tm.ValidateResetTicket(token)
	assert.ErrorIs(t, err, ErrInvalidTicket)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("Password1")
	require.NoError(t, err)
	assert.NotEqual(t, "Password1", hash)

	assert.NoError(t, VerifyPassword("Password1", hash))
	assert.Error(t, VerifyPassword("Password2", hash))
}
