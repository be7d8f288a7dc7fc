package domain

// Phase is the authentication phase of a session.
type Phase int

const (
	PhaseUninitialized Phase = iota
	PhaseLoading
	PhaseAuthenticated
	PhaseAnonymous
	PhaseError
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseUninitialized:
		return "uninitialized"
	case PhaseLoading:
		return "loading"
	case PhaseAuthenticated:
		return "authenticated"
	case PhaseAnonymous:
		return "anonymous"
	case PhaseError:
		return "error"
	default:
		return "unknown"
	}
}

// SessionState is the current authentication state. Identity is only set in
// PhaseAuthenticated and Reason only in PhaseError.
type SessionState struct {
	Phase    Phase
	Identity Identity
	Reason   string
}

// Uninitialized is the state before initialization starts.
func Uninitialized() SessionState { return SessionState{Phase: PhaseUninitialized} }

// Loading is the state while an identity service call is in flight.
func Loading() SessionState { return SessionState{Phase: PhaseLoading} }

// Authenticated is the signed-in state for id.
func Authenticated(id Identity) SessionState {
	return SessionState{Phase: PhaseAuthenticated, Identity: id}
}

// Anonymous is the signed-out state.
func Anonymous() SessionState { return SessionState{Phase: PhaseAnonymous} }

// Failed is the error state with a human-readable reason.
func Failed(reason string) SessionState {
	return SessionState{Phase: PhaseError, Reason: reason}
}

// IsTransient reports whether the state is Uninitialized or Loading.
func (s SessionState) IsTransient() bool {
	return s.Phase == PhaseUninitialized || s.Phase == PhaseLoading
}

// IsAuthenticated reports whether the state is Authenticated.
func (s SessionState) IsAuthenticated() bool {
	return s.Phase == PhaseAuthenticated
}

// String returns the phase name, with the reason for error states.
func (s SessionState) String() string {
	if s.Phase == PhaseError && s.Reason != "" {
		return s.Phase.String() + ": " + s.Reason
	}
	return s.Phase.String()
}
