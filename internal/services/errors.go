package services

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"

	"github.com/unimatch/authbridge/internal/models"
)

// ErrorKind classifies why a federation attempt failed.
type ErrorKind string

const (
	KindProofInvalid       ErrorKind = "proof_invalid"
	KindIdentityIncomplete ErrorKind = "identity_incomplete"
	KindProfileConflict    ErrorKind = "profile_conflict"
	KindPolicyRejected     ErrorKind = "policy_rejected"
	KindTokenInvalid       ErrorKind = "token_invalid"
	KindTransient          ErrorKind = "transient"
	KindInternal           ErrorKind = "internal"
)

// Caller-visible failure codes. School policy codes come from package school.
const (
	CodeMissingToken        = "missing_token"
	CodeMissingCode         = "missing_code"
	CodeInvalidState        = "invalid_state"
	CodeUnknownProvider     = "unknown_provider"
	CodeOAuthFailed         = "oauth_failed"
	CodeConfirmFailed       = "confirm_failed"
	CodeNoUserInfo          = "no_user_info"
	CodeMissingEmail        = "missing_email"
	CodeProfileUpsertFailed = "profile_upsert_failed"
)

var (
	ErrUnauthenticated   = errors.New("unauthenticated")
	ErrProfileNotFound   = errors.New("profile not found")
	ErrUnknownProvider   = errors.New("unknown identity provider")
	ErrEmailFlowDisabled = errors.New("email confirmation is not configured")
	ErrInvalidEmail      = errors.New("invalid email address")
	ErrMagicLinkFailed   = errors.New("failed to send magic link")
	ErrRedirectNotFound  = errors.New("pending redirect not found or expired")
	ErrMissingEmail      = errors.New("identity has no email")
)

// FlowError is the terminal failure of a federation attempt. Code is the only
// part shown to the caller; Err is kept for logs.
type FlowError struct {
	Kind ErrorKind
	Code string
	Err  error
}

func (e *FlowError) Error() string {
	if e.Err == nil {
		return e.Code
	}
	return e.Code + ": " + e.Err.Error()
}

func (e *FlowError) Unwrap() error {
	return e.Err
}

// failureCode is the code reported when a flow fails outside a named step.
func failureCode(flow string) string {
	if flow == models.FlowEmail {
		return CodeConfirmFailed
	}
	return CodeOAuthFailed
}

// isTransientStoreError reports whether err looks like the store being
// unreachable rather than rejecting the write.
func isTransientStoreError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, driver.ErrBadConn) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
