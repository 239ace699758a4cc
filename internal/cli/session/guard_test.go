package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name string
		state State
		req  Requirement
		want Decision
	}{
		{"loading waits for authenticated entry", State{IsLoading: true}, RequireAuthenticated, Wait},
		{"loading waits for anonymous entry", State{IsLoading: true}, RequireAnonymous, Wait},
		{"loading waits even if a stale flag says authenticated", State{IsLoading: true, IsAuthenticated: true}, RequireAuthenticated, Wait},
		{"authenticated user proceeds", State{IsAuthenticated: true}, RequireAuthenticated, Proceed},
		{"anonymous user is sent to login", State{}, RequireAuthenticated, RedirectLogin},
		{"anonymous user proceeds to login screen", State{}, RequireAnonymous, Proceed},
		{"authenticated user is sent home from login screen", State{IsAuthenticated: true}, RequireAnonymous, RedirectHome},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.state, tt.req))
		})
	}
}
