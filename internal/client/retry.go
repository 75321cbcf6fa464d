package client

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"time"

	httpclient "github.com/appleboy/go-httpclient"
	retry "github.com/appleboy/go-httpretry"
)

const defaultAuthHeader = "X-API-Secret"

// CreateOptimizedTransport returns a pooled transport for outbound provider calls.
func CreateOptimizedTransport(insecureSkipVerify bool) *http.Transport {
	// #nosec G402 -- InsecureSkipVerify is user-configurable for development/testing
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   20,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: time.Second,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: insecureSkipVerify,
		},
	}
}

// CreateAuthClient creates a plain HTTP client that authenticates every request.
// It never retries; callers that verify one-time proofs rely on that.
func CreateAuthClient(
	authMode, authSecret, authHeader string,
	timeout time.Duration,
	insecureSkipVerify bool,
) (*http.Client, error) {
	if authHeader == "" {
		authHeader = defaultAuthHeader
	}

	client, err := httpclient.NewAuthClient(
		authMode,
		authSecret,
		httpclient.WithTimeout(timeout),
		httpclient.WithTransport(CreateOptimizedTransport(insecureSkipVerify)),
		httpclient.WithHeaderName(authHeader),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth client: %w", err)
	}
	return client, nil
}

// CreateRetryClient creates an HTTP client with retry support.
// It is used for idempotent lookups against public directories.
func CreateRetryClient(
	timeout time.Duration,
	insecureSkipVerify bool,
	maxRetries int,
	retryDelay, maxRetryDelay time.Duration,
) (*retry.Client, error) {
	client, err := CreateAuthClient(httpclient.AuthModeNone, "", "", timeout, insecureSkipVerify)
	if err != nil {
		return nil, err
	}

	// Wrap with retry client
	retryClient, err := retry.NewRealtimeClient(
		retry.WithHTTPClient(client),
		retry.WithMaxRetries(maxRetries),
		retry.WithInitialRetryDelay(retryDelay),
		retry.WithMaxRetryDelay(maxRetryDelay),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create retry client: %w", err)
	}

	return retryClient, nil
}
