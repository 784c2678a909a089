// Package session implements the top-level session state machine: credential
// acquisition, authentication, the MFA challenge cycle, and the data-fetch
// phases that populate the shared account list.
package session

// State of the session. The happy path is linear; MfaPending is the one
// branch, entered from Authenticating and re-enterable on chained challenges.
type State int

const (
	StateUninitiated State = iota
	StateAuthenticating
	StateMfaPending
	StateAuthenticated
	StateDataFetched
	StateReady
)

// Progress maps a state to the bootstrap progress percentage shown to the
// user. MfaPending holds the authentication-phase figure.
func (s State) Progress() int {
	switch s {
	case StateAuthenticating, StateMfaPending:
		return 25
	case StateAuthenticated:
		return 50
	case StateDataFetched:
		return 75
	case StateReady:
		return 100
	default:
		return 0
	}
}

func (s State) String() string {
	switch s {
	case StateAuthenticating:
		return "authenticating"
	case StateMfaPending:
		return "mfa pending"
	case StateAuthenticated:
		return "authenticated"
	case StateDataFetched:
		return "data fetched"
	case StateReady:
		return "ready"
	default:
		return "uninitiated"
	}
}

// Message is the status line for the bootstrap screen.
func (s State) Message() string {
	switch s {
	case StateAuthenticating:
		return "Logging in..."
	case StateMfaPending:
		return "Waiting for MFA confirmation"
	case StateAuthenticated:
		return "Fetching accounts..."
	case StateDataFetched:
		return "Fetching balances..."
	case StateReady:
		return "Ready"
	default:
		return "Waiting for credentials"
	}
}
