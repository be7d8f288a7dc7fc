// Package session holds the client's authentication state.
//
// A Store is the single source of truth for whether the user is signed in.
// It reads the persisted token once at start, resolves it against the
// identity service and mediates every later sign-up, sign-in, sign-out and
// profile update. Consumers read the state through State or Subscribe and
// never touch the credential store themselves.
//
// Mutating calls are ordered by a generation counter: a call whose result
// arrives after a newer call has started is discarded, so a slow sign-in
// can never resurrect a session that was signed out in the meantime.
package session
