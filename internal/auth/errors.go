package auth

import (
	"errors"
	"fmt"
	"net"
	"net/url"

	"github.com/unimatch/authbridge/internal/core"

	"golang.org/x/oauth2"
)

var (
	// ErrUnverifiedEmail marks an assertion whose email the provider has not verified.
	ErrUnverifiedEmail = errors.New("email address not verified by provider")

	// ErrMissingIDToken marks a token response without an id_token.
	ErrMissingIDToken = errors.New("token response carries no id_token")
)

// classifyExchangeError maps an oauth2 exchange failure onto the core sentinels.
// Rejections by the provider become ErrProofRejected, everything else
// (DNS, refused connections, timeouts, 5xx) becomes ErrProviderUnavailable.
func classifyExchangeError(provider string, err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		if retrieveErr.Response != nil && retrieveErr.Response.StatusCode >= 500 {
			return fmt.Errorf("%w: %s token endpoint: %v", core.ErrProviderUnavailable, provider, err)
		}
		return fmt.Errorf("%w: %s: %v", core.ErrProofRejected, provider, err)
	}
	var netErr net.Error
	var urlErr *url.Error
	if errors.As(err, &netErr) || errors.As(err, &urlErr) {
		return fmt.Errorf("%w: %s: %v", core.ErrProviderUnavailable, provider, err)
	}
	return fmt.Errorf("%w: %s: %v", core.ErrProofRejected, provider, err)
}

// classifyStatus maps an HTTP status from a provider API onto the core sentinels.
func classifyStatus(provider string, status int, body []byte) error {
	preview := string(body)
	if len(preview) > 200 {
		preview = preview[:200] + "..."
	}
	if status >= 500 || status == 429 {
		return fmt.Errorf("%w: %s: HTTP %d - %s", core.ErrProviderUnavailable, provider, status, preview)
	}
	return fmt.Errorf("%w: %s: HTTP %d - %s", core.ErrProofRejected, provider, status, preview)
}
