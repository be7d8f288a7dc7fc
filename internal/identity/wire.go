package identity

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	"github.com/emplo-ai/emplo/internal/core/domain"
)

// Ack is the identity service's answer to a registration.
type Ack struct {
	ID    string
	Email string
}

// Grant is the result of a successful sign-in.
type Grant struct {
	Token     string
	TokenType string
	Identity  domain.Identity
}

var errNoToken = errors.New("login response has no access_token")

// flexString accepts a JSON string or number.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// wireIdentity is an identity object as the service sends it. The service
// may use name/userType instead of firstName/lastName/role.
type wireIdentity struct {
	ID        flexString `json:"id"`
	Email     string     `json:"email"`
	FirstName string     `json:"firstName"`
	LastName  string     `json:"lastName"`
	Role      string     `json:"role"`
	Name      string     `json:"name"`
	UserType  string     `json:"userType"`
}

func (w wireIdentity) toDomain() domain.Identity {
	id := domain.Identity{
		ID:        string(w.ID),
		Email:     w.Email,
		FirstName: w.FirstName,
		LastName:  w.LastName,
		Role:      domain.Role(w.Role),
	}
	if id.FirstName == "" && id.LastName == "" && w.Name != "" {
		id.FirstName, id.LastName = splitName(w.Name)
	}
	if id.Role == "" {
		id.Role = domain.Role(w.UserType)
	}
	return id
}

// splitName splits on the first space.
func splitName(name string) (first, last string) {
	name = strings.TrimSpace(name)
	first, last, _ = strings.Cut(name, " ")
	return first, strings.TrimSpace(last)
}

func decodeIdentity(body []byte) (domain.Identity, error) {
	var w wireIdentity
	if err := json.Unmarshal(body, &w); err != nil {
		return domain.Identity{}, err
	}
	id := w.toDomain()
	if id.ID == "" && id.Email == "" {
		return domain.Identity{}, errors.New("identity has neither id nor email")
	}
	return id, nil
}

type wireRegistration struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	UserType string `json:"userType"`
	Name     string `json:"name"`
}

type wireAck struct {
	ID    flexString `json:"id"`
	Email string     `json:"email"`
}

type wireCredentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// wireGrant is the login response. User is an identity object or a display
// name string; top-level id and email fill its gaps.
type wireGrant struct {
	AccessToken string          `json:"access_token"`
	TokenType   string          `json:"token_type"`
	User        json.RawMessage `json:"user"`
	ID          flexString      `json:"id"`
	Email       string          `json:"email"`
}

func decodeGrant(body []byte) (Grant, error) {
	var w wireGrant
	if err := json.Unmarshal(body, &w); err != nil {
		return Grant{}, err
	}
	if w.AccessToken == "" {
		return Grant{}, errNoToken
	}

	var id domain.Identity
	user := bytes.TrimSpace(w.User)
	switch {
	case len(user) == 0 || bytes.Equal(user, []byte("null")):
	case user[0] == '{':
		var wi wireIdentity
		if err := json.Unmarshal(user, &wi); err != nil {
			return Grant{}, err
		}
		id = wi.toDomain()
	case user[0] == '"':
		var name string
		if err := json.Unmarshal(user, &name); err != nil {
			return Grant{}, err
		}
		id.FirstName, id.LastName = splitName(name)
	default:
		return Grant{}, errors.New("login response user is neither object nor string")
	}

	if id.ID == "" {
		id.ID = string(w.ID)
	}
	if id.Email == "" {
		id.Email = w.Email
	}
	if id.FirstName == id.Email && id.LastName == "" {
		// The service falls back to the email when no name is on file.
		id.FirstName = ""
	}

	tokenType := w.TokenType
	if tokenType == "" {
		tokenType = "bearer"
	}
	return Grant{Token: w.AccessToken, TokenType: tokenType, Identity: id}, nil
}

// wirePatch is a partial identity in either request or response form.
type wirePatch struct {
	Email     *string `json:"email,omitempty"`
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
	Role      *string `json:"role,omitempty"`
	Name      *string `json:"name,omitempty"`
	UserType  *string `json:"userType,omitempty"`
}

func encodePatch(p domain.IdentityPatch) wirePatch {
	w := wirePatch{Email: p.Email, FirstName: p.FirstName, LastName: p.LastName}
	if p.Role != nil {
		r := string(*p.Role)
		w.Role = &r
	}
	return w
}

func decodePatch(body []byte) (domain.IdentityPatch, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return domain.IdentityPatch{}, nil
	}
	var w wirePatch
	if err := json.Unmarshal(body, &w); err != nil {
		return domain.IdentityPatch{}, err
	}
	p := domain.IdentityPatch{Email: w.Email, FirstName: w.FirstName, LastName: w.LastName}
	if p.FirstName == nil && p.LastName == nil && w.Name != nil {
		first, last := splitName(*w.Name)
		p.FirstName, p.LastName = &first, &last
	}
	role := w.Role
	if role == nil {
		role = w.UserType
	}
	if role != nil {
		r := domain.Role(*role)
		p.Role = &r
	}
	return p, nil
}

// serverMessage extracts a human-readable message from an error body. It
// understands {"message": "..."} and FastAPI's {"detail": "..."} including
// the list form used for request validation errors.
func serverMessage(body []byte) string {
	var e struct {
		Message string          `json:"message"`
		Detail  json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &e); err != nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	detail := bytes.TrimSpace(e.Detail)
	if len(detail) == 0 {
		return ""
	}
	switch detail[0] {
	case '"':
		var s string
		if json.Unmarshal(detail, &s) == nil {
			return s
		}
	case '[':
		var items []struct {
			Msg string `json:"msg"`
		}
		if json.Unmarshal(detail, &items) == nil && len(items) > 0 {
			return items[0].Msg
		}
	}
	return ""
}
