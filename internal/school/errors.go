package school

import "errors"

// Reason codes surfaced to callers of the federation flow.
const (
	CodeInvalidEmail     = "invalid_email"
	CodeDomainNotAllowed = "domain_not_allowed"
	CodeNotSchoolEmail   = "not_school_email"
	CodeUpdateFailed     = "update_failed"
	CodeInferenceFailed  = "school_inference_failed"
)

var (
	// ErrInvalidEmail indicates the address is not a syntactically valid email.
	ErrInvalidEmail = errors.New("invalid email address")

	// ErrDomainNotAllowed indicates the email domain is on the blocked list.
	ErrDomainNotAllowed = errors.New("email domain not allowed")

	// ErrNotSchoolEmail indicates no school matched while a match is required.
	ErrNotSchoolEmail = errors.New("email does not belong to a known school")

	// ErrUpdateFailed indicates the inferred school could not be persisted.
	ErrUpdateFailed = errors.New("failed to update profile school")
)

// ErrorCode returns the reason code for an inference error, or "" for nil.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidEmail):
		return CodeInvalidEmail
	case errors.Is(err, ErrDomainNotAllowed):
		return CodeDomainNotAllowed
	case errors.Is(err, ErrNotSchoolEmail):
		return CodeNotSchoolEmail
	case errors.Is(err, ErrUpdateFailed):
		return CodeUpdateFailed
	default:
		return CodeInferenceFailed
	}
}

// IsPolicyError reports whether err rejects the email itself.
func IsPolicyError(err error) bool {
	return errors.Is(err, ErrInvalidEmail) ||
		errors.Is(err, ErrDomainNotAllowed) ||
		errors.Is(err, ErrNotSchoolEmail)
}
