// Package buildinfo exposes the version stamped into the emplo binary.
//
// Values are injected via ldflags:
//
//	go build -ldflags "-X github.com/emplo-ai/emplo/internal/infra/buildinfo.Version=v1.0.0 \
//	  -X github.com/emplo-ai/emplo/internal/infra/buildinfo.Commit=abc123"
//
// The version also forms the User-Agent sent to the identity service.
package buildinfo
