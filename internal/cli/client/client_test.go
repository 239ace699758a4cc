package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storelane-dev/storelane/internal/cli/auth"
)

// memoryTokenStore is an in-memory auth.TokenStore for tests
type memoryTokenStore struct {
	tokens map[string]string
}

func newMemoryTokenStore() *memoryTokenStore {
	return &memoryTokenStore{tokens: make(map[string]string)}
}

func (m *memoryTokenStore) SaveToken(host, token string) error {
	m.tokens[host] = token
	return nil
}

func (m *memoryTokenStore) LoadToken(host string) (string, error) {
	token, ok := m.tokens[host]
	if !ok {
		return "", auth.ErrNoToken
	}
	return token, nil
}

func (m *memoryTokenStore) DeleteToken(host string) error {
	delete(m.tokens, host)
	return nil
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *memoryTokenStore) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	tokens := newMemoryTokenStore()
	c, err := New(server.URL, tokens)
	require.NoError(t, err)
	return c, tokens
}

func TestNewRejectsInvalidURL(t *testing.T) {
	_, err := New("not a url", newMemoryTokenStore())
	assert.Error(t, err)

	_, err = New("", newMemoryTokenStore())
	assert.Error(t, err)
}

func TestRequestHeaders(t *testing.T) {
	var gotContentType, gotAuthorization string
	c, tokens := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		gotAuthorization = r.Header.Get("Authorization")
		w.Write([]byte(`{"message":"ok"}`))
	})

	_, err := c.InitiatePasswordReset(context.Background(), "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, "application/json", gotContentType)
	assert.Empty(t, gotAuthorization, "no bearer header without a stored token")

	require.NoError(t, tokens.SaveToken(c.Host(), "tok-123"))

	_, err = c.InitiatePasswordReset(context.Background(), "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-123", gotAuthorization)
}

func TestErrorNormalization(t *testing.T) {
	t.Run("server error key is carried verbatim", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"Invalid email or password"}`))
		})

		_, err := c.Login(context.Background(), "a@example.com", "wrong")
		require.Error(t, err)

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
		assert.Equal(t, "Invalid email or password", apiErr.Message)
	})

	t.Run("message key is the fallback", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"message":"something else"}`))
		})

		_, err := c.Login(context.Background(), "a@example.com", "pw")
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, "something else", apiErr.Message)
	})

	t.Run("unparseable body falls back to a generic message", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte("<html>upstream broke</html>"))
		})

		_, err := c.Login(context.Background(), "a@example.com", "pw")
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusBadGateway, apiErr.Status)
		assert.Contains(t, apiErr.Message, "502")
	})
}

func TestMalformedSuccessResponse(t *testing.T) {
	t.Run("invalid JSON", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("not json"))
		})

		_, err := c.Login(context.Background(), "a@example.com", "pw")
		assert.ErrorIs(t, err, ErrMalformedResponse)
	})

	t.Run("missing required fields", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"user":{"id":"u1","email":"a@example.com"}}`))
		})

		// 2xx without a token must not look like a successful login
		_, err := c.Login(context.Background(), "a@example.com", "pw")
		assert.ErrorIs(t, err, ErrMalformedResponse)
	})

	t.Run("empty reset ticket", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{}`))
		})

		_, err := c.VerifyPasswordResetOTP(context.Background(), "a@example.com", "123456")
		assert.ErrorIs(t, err, ErrMalformedResponse)
	})
}

func TestLoginDecodesResponse(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/auth/login", r.URL.Path)
		w.Write([]byte(`{"token":"tok-1","user":{"id":"u1","email":"a@example.com","firstName":"A","lastName":"B","isEmailVerified":true}}`))
	})

	resp, err := c.Login(context.Background(), "a@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", resp.Token)
	assert.Equal(t, "a@example.com", resp.User.Email)
	assert.True(t, resp.User.IsEmailVerified)
}

func TestContextCancellation(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"message":"ok"}`))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.InitiatePasswordReset(ctx, "a@example.com")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
