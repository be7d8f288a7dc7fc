// Package identity is the HTTP/JSON client of the Emplo identity service.
//
// Each call returns the decoded payload or a *RemoteError that unwraps to
// one of domain.ErrTransportFailure, domain.ErrRejectedByServer or
// domain.ErrMalformedResponse. The client never retries.
package identity
