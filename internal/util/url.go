package util

import (
	"net/url"
	"strings"
)

// IsCallbackAllowed reports whether callbackURL is an absolute http(s) URL
// whose origin is one of allowedOrigins. Origins are compared as
// scheme://host[:port], case-insensitively.
func IsCallbackAllowed(callbackURL string, allowedOrigins []string) bool {
	if callbackURL == "" {
		return false
	}

	// Must not contain newlines or carriage returns (header injection)
	if strings.ContainsAny(callbackURL, "\r\n") || strings.Contains(callbackURL, "\\") {
		return false
	}

	origin := Origin(callbackURL)
	if origin == "" {
		return false
	}
	for _, allowed := range allowedOrigins {
		if strings.EqualFold(origin, strings.TrimRight(allowed, "/")) {
			return true
		}
	}
	return false
}

// ResolveCallback returns callbackURL when it is allowed, otherwise
// defaultURL. The origin of defaultURL is always allowed.
func ResolveCallback(callbackURL, defaultURL string, allowedOrigins []string) string {
	origins := allowedOrigins
	if o := Origin(defaultURL); o != "" {
		origins = append([]string{o}, allowedOrigins...)
	}
	if IsCallbackAllowed(callbackURL, origins) {
		return callbackURL
	}
	return defaultURL
}

// Origin returns scheme://host of an absolute http(s) URL, or "".
func Origin(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return ""
	}
	// Reject javascript:, data:, and other non-http(s) schemes
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return ""
	}
	if u.User != nil {
		return ""
	}
	return scheme + "://" + strings.ToLower(u.Host)
}

// AppendQuery sets key=value on rawURL's query string, preserving the
// existing parameters and fragment.
func AppendQuery(rawURL, key, value string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		sep := "?"
		if strings.Contains(rawURL, "?") {
			sep = "&"
		}
		return rawURL + sep + url.Values{key: {value}}.Encode()
	}
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String()
}
