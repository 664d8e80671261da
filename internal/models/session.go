package models

// Role is the privilege tier of a signed-in user. Developer strictly supersedes admin.
type Role string

const (
	RoleDev   Role = "dev"
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Outranks reports whether r grants at least the privileges of other.
func (r Role) Outranks(other Role) bool {
	return r.rank() >= other.rank()
}

func (r Role) rank() int {
	switch r {
	case RoleDev:
		return 3
	case RoleAdmin:
		return 2
	case RoleUser:
		return 1
	}
	return 0
}

// Outcome is the tri-state result of a single privilege lookup.
type Outcome int

const (
	// OutcomeIndeterminate covers timeouts and failures. It is never read as affirmation.
	OutcomeIndeterminate Outcome = iota
	OutcomeDenied
	OutcomeAffirmed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAffirmed:
		return "affirmed"
	case OutcomeDenied:
		return "denied"
	default:
		return "indeterminate"
	}
}

// OutcomeOf maps a boolean lookup answer to an Outcome.
func OutcomeOf(ok bool) Outcome {
	if ok {
		return OutcomeAffirmed
	}
	return OutcomeDenied
}

// Identity is the authenticated caller taken from a verified access token.
type Identity struct {
	UserID string
	Email  string
}

// SessionUser is the resolved view of who is signed in and what they may do.
type SessionUser struct {
	ID    string  `json:"id"`
	Email string  `json:"email"`
	Nome  *string `json:"nome,omitempty"`
	Role  Role    `json:"role"`
}

// AuthEvent names an authentication state change reported by the client.
type AuthEvent string

const (
	EventInitialSession AuthEvent = "INITIAL_SESSION"
	EventSignedIn       AuthEvent = "SIGNED_IN"
	EventTokenRefreshed AuthEvent = "TOKEN_REFRESHED"
	EventSignedOut      AuthEvent = "SIGNED_OUT"
)

// Valid reports whether e is a known event.
func (e AuthEvent) Valid() bool {
	switch e {
	case EventInitialSession, EventSignedIn, EventTokenRefreshed, EventSignedOut:
		return true
	}
	return false
}
