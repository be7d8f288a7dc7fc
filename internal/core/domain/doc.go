// Package domain defines the core domain models for the Emplo client.
//
// Domain models are pure values without IO dependencies. This package contains:
//
//   - Identity and IdentityPatch: the signed-in principal and partial updates to it
//   - Credentials and Registration: transient sign-in and sign-up forms
//   - SessionState: the authentication phase held by the session store
//   - Errors: the client error taxonomy (transport, rejected, validation, unauthenticated)
//
// Forms validate themselves before any call reaches the identity service.
package domain
