package models

import "time"

// Federation flow names
const (
	FlowOAuth = "oauth"
	FlowEmail = "email"
)

// PendingRedirect is the per-attempt state captured before the caller leaves
// for the identity provider. It lives in a TTL cache under an opaque handle.
type PendingRedirect struct {
	CallbackURL string    `json:"callback_url"`
	Flow        string    `json:"flow"`
	Provider    string    `json:"provider,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
