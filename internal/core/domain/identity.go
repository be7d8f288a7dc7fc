package domain

import (
	"sort"
	"strings"
)

// Role is the kind of account on the platform.
type Role string

const (
	RoleCandidate Role = "candidate"
	RoleEmployer  Role = "employer"
)

// Roles lists every accepted role.
func Roles() []Role {
	return []Role{RoleCandidate, RoleEmployer}
}

// Identity is the signed-in principal as known to the client.
type Identity struct {
	ID        string `json:"id" yaml:"id"`
	Email     string `json:"email" yaml:"email"`
	FirstName string `json:"firstName" yaml:"first_name"`
	LastName  string `json:"lastName" yaml:"last_name"`
	Role      Role   `json:"role" yaml:"role"`
}

// DisplayName returns "First Last", falling back to the email.
func (i Identity) DisplayName() string {
	name := strings.TrimSpace(i.FirstName + " " + i.LastName)
	if name == "" {
		return i.Email
	}
	return name
}

// IsZero reports whether no field is set.
func (i Identity) IsZero() bool {
	return i == Identity{}
}

// IdentityPatch is a partial identity. A nil field is absent and is left
// untouched when the patch is applied.
type IdentityPatch struct {
	Email     *string `json:"email,omitempty"`
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
	Role      *Role   `json:"role,omitempty"`
}

// Apply merges the present fields of p into id and returns the result.
func (p IdentityPatch) Apply(id Identity) Identity {
	if p.Email != nil {
		id.Email = *p.Email
	}
	if p.FirstName != nil {
		id.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		id.LastName = *p.LastName
	}
	if p.Role != nil {
		id.Role = *p.Role
	}
	return id
}

// IsEmpty reports whether no field is present.
func (p IdentityPatch) IsEmpty() bool {
	return p.Email == nil && p.FirstName == nil && p.LastName == nil && p.Role == nil
}

// Fields returns the names of the present fields in wire form.
func (p IdentityPatch) Fields() []string {
	var fields []string
	if p.Email != nil {
		fields = append(fields, "email")
	}
	if p.FirstName != nil {
		fields = append(fields, "firstName")
	}
	if p.LastName != nil {
		fields = append(fields, "lastName")
	}
	if p.Role != nil {
		fields = append(fields, "role")
	}
	return fields
}

// patchKeys maps accepted spellings of patch keys to setters.
var patchKeys = map[string]func(*IdentityPatch, string){
	"email":      func(p *IdentityPatch, v string) { p.Email = &v },
	"firstname":  func(p *IdentityPatch, v string) { p.FirstName = &v },
	"first_name": func(p *IdentityPatch, v string) { p.FirstName = &v },
	"lastname":   func(p *IdentityPatch, v string) { p.LastName = &v },
	"last_name":  func(p *IdentityPatch, v string) { p.LastName = &v },
	"role": func(p *IdentityPatch, v string) {
		r := Role(v)
		p.Role = &r
	},
}

// ParsePatch builds a patch from key/value pairs. Unknown keys are rejected
// with ErrValidationFailure; the id of an identity is never patchable.
func ParsePatch(values map[string]string) (IdentityPatch, error) {
	var (
		p       IdentityPatch
		unknown []string
	)
	for k, v := range values {
		set, ok := patchKeys[strings.ToLower(strings.TrimSpace(k))]
		if !ok {
			unknown = append(unknown, k)
			continue
		}
		set(&p, v)
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return IdentityPatch{}, ErrValidationFailure.WithDetails("unknown profile field(s): " + strings.Join(unknown, ", "))
	}
	return p, nil
}

// Credentials is an email/password pair used for sign-in. It is never
// persisted and must not be logged.
type Credentials struct {
	Email    string
	Password string
}

// Registration carries the sign-up form.
type Registration struct {
	Email     string
	Password  string
	Role      Role
	FirstName string
	LastName  string
}

// Name returns the full name sent to the identity service.
func (r Registration) Name() string {
	return strings.TrimSpace(r.FirstName + " " + r.LastName)
}
