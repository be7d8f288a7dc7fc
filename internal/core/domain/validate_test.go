package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRegistration() Registration {
	return Registration{
		Email:     "a@x.com",
		Password:  "Passw0rd",
		Role:      RoleCandidate,
		FirstName: "Jane",
		LastName:  "Doe",
	}
}

func TestRegistration_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Registration)
		wantErr string
	}{
		{"valid", func(*Registration) {}, ""},
		{"short first name", func(r *Registration) { r.FirstName = "J" }, "first name is required"},
		{"missing last name", func(r *Registration) { r.LastName = "" }, "LastName"},
		{"bad email", func(r *Registration) { r.Email = "not-an-email" }, "valid email"},
		{"short password", func(r *Registration) { r.Password = "Pa0" }, "at least 8 characters"},
		{"no capital", func(r *Registration) { r.Password = "passw0rdx" }, "capital letter"},
		{"no digit", func(r *Registration) { r.Password = "Password" }, "1 number"},
		{"unknown role", func(r *Registration) { r.Role = "admin" }, "user type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRegistration()
			tt.mutate(&r)
			err := r.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidationFailure))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCredentials_Validate(t *testing.T) {
	assert.NoError(t, Credentials{Email: "a@x.com", Password: "x"}.Validate())

	err := Credentials{Email: "a@x.com"}.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidationFailure))

	err = Credentials{Email: "nope", Password: "x"}.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidationFailure))
}

func TestIdentityPatch_Validate(t *testing.T) {
	role := Role("admin")
	employer := RoleEmployer

	assert.NoError(t, IdentityPatch{FirstName: strptr("Jane")}.Validate())
	assert.NoError(t, IdentityPatch{Role: &employer}.Validate())

	for name, p := range map[string]IdentityPatch{
		"empty":        {},
		"bad email":    {Email: strptr("nope")},
		"short name":   {LastName: strptr("D")},
		"unknown role": {Role: &role},
		"blank name":   {FirstName: strptr("")},
	} {
		t.Run(name, func(t *testing.T) {
			err := p.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidationFailure))
		})
	}
}
