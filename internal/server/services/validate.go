package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/dmitrijs2005/projecthub/internal/common"
	"github.com/go-playground/validator/v10"
)

const (
	msgRequired      = "This field is required."
	msgInvalidEmail  = "Enter a valid email address."
	msgPasswordMatch = "Password and Confirm Password don't match"
	msgEmailTaken    = "user with this email already exists."
)

// validate is shared by all services; validator caches struct metadata and
// is safe for concurrent use.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// NormalizeEmail trims the address and lowercases its domain part. The
// local part is kept as given.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at] + "@" + strings.ToLower(email[at+1:])
}

// emailProblem returns the validation message for email, or "".
func emailProblem(email string) string {
	if email == "" {
		return msgRequired
	}
	if err := validate.Var(email, "email,max=254"); err != nil {
		return msgInvalidEmail
	}
	return ""
}

// invalidEmail wraps a field error so it matches both common.ErrValidation
// and common.ErrInvalidEmail.
func invalidEmail(field, msg string) error {
	return fmt.Errorf("%w: %w", common.ErrInvalidEmail, common.NewValidationError(field, msg))
}

// checkStruct runs the struct's `validate` tags and converts failures into
// a *common.ValidationError keyed by json field name.
func checkStruct(s any) *common.ValidationError {
	verr := &common.ValidationError{}
	err := validate.Struct(s)
	if err == nil {
		return verr
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		verr.Add(common.NonFieldErrors, err.Error())
		return verr
	}
	for _, fe := range fieldErrs {
		name, _, _ := strings.Cut(fe.Field(), "[")
		verr.Add(name, fieldMessage(fe))
	}
	return verr
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return msgRequired
	case "email":
		return msgInvalidEmail
	case "max":
		return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
	case "min":
		return fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param())
	case "uuid":
		return "Must be a valid UUID."
	default:
		return "Invalid value."
	}
}

// errOrNil returns nil for an empty ValidationError so callers can write
// `return errOrNil(verr)`.
func errOrNil(verr *common.ValidationError) error {
	if verr == nil || verr.Empty() {
		return nil
	}
	return verr
}

// checkPasswords validates the new password and its confirmation into verr.
func checkPasswords(verr *common.ValidationError, password, password2 string) {
	switch {
	case password == "":
		verr.Add("password", msgRequired)
	case len(password) < common.MinPasswordLength:
		verr.Add("password", fmt.Sprintf("Ensure this field has at least %d characters.", common.MinPasswordLength))
	case len(password) > 255:
		verr.Add("password", "Ensure this field has no more than 255 characters.")
	}
	if password2 == "" {
		verr.Add("password2", msgRequired)
	}
	if password != "" && password2 != "" && password != password2 {
		verr.Add(common.NonFieldErrors, msgPasswordMatch)
	}
}
