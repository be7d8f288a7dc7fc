package domain

import (
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

var (
	hasCapital = regexp.MustCompile(`[A-Z]`)
	hasDigit   = regexp.MustCompile(`[0-9]`)
)

// Validate checks the sign-in form.
func (c Credentials) Validate() error {
	return asValidationFailure(validation.ValidateStruct(&c,
		validation.Field(&c.Email, validation.Required, is.Email),
		validation.Field(&c.Password, validation.Required),
	))
}

// Validate checks the sign-up form with the same rules the web form enforces.
func (r Registration) Validate() error {
	return asValidationFailure(validation.ValidateStruct(&r,
		validation.Field(&r.FirstName, validation.Required, validation.Length(2, 200).Error("first name is required")),
		validation.Field(&r.LastName, validation.Required, validation.Length(2, 200).Error("last name is required")),
		validation.Field(&r.Email, validation.Required, is.Email.Error("please enter a valid email")),
		validation.Field(&r.Password,
			validation.Required,
			validation.Length(8, 0).Error("password must be at least 8 characters"),
			validation.Match(hasCapital).Error("password must contain at least 1 capital letter"),
			validation.Match(hasDigit).Error("password must contain at least 1 number"),
		),
		validation.Field(&r.Role, validation.Required, validation.In(RoleCandidate, RoleEmployer).Error("please select a user type")),
	))
}

// Validate checks the present fields of a patch. An empty patch is invalid.
func (p IdentityPatch) Validate() error {
	if p.IsEmpty() {
		return ErrValidationFailure.WithDetails("no profile fields to update")
	}
	return asValidationFailure(validation.ValidateStruct(&p,
		validation.Field(&p.Email, validation.NilOrNotEmpty, is.Email),
		validation.Field(&p.FirstName, validation.NilOrNotEmpty, validation.Length(2, 200)),
		validation.Field(&p.LastName, validation.NilOrNotEmpty, validation.Length(2, 200)),
		validation.Field(&p.Role, validation.NilOrNotEmpty, validation.In(RoleCandidate, RoleEmployer)),
	))
}

func asValidationFailure(err error) error {
	if err == nil {
		return nil
	}
	return ErrValidationFailure.WithDetails(err.Error()).WithCause(err)
}
