package session

// Requirement is what a guarded entry point expects of the session
type Requirement int

const (
	// RequireAuthenticated admits only signed-in sessions
	RequireAuthenticated Requirement = iota
	// RequireAnonymous admits only signed-out sessions (login, register)
	RequireAnonymous
)

// Decision is the guard outcome
type Decision int

const (
	// Wait means the session is still resolving; show a loading indicator
	Wait Decision = iota
	// Proceed admits the caller
	Proceed
	// RedirectLogin sends an anonymous caller to the login entry point
	RedirectLogin
	// RedirectHome sends an authenticated caller to the landing entry point
	RedirectHome
)

// Resolve decides what a guarded entry point should do. Pure function of
// {IsLoading, IsAuthenticated}; guards make no network calls.
func Resolve(state State, req Requirement) Decision {
	if state.IsLoading {
		return Wait
	}

	switch req {
	case RequireAuthenticated:
		if state.IsAuthenticated {
			return Proceed
		}
		return RedirectLogin
	case RequireAnonymous:
		if state.IsAuthenticated {
			return RedirectHome
		}
		return Proceed
	}
	return Wait
}
