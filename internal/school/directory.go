package school

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/unimatch/authbridge/internal/core"

	retry "github.com/appleboy/go-httpretry"
	"golang.org/x/sync/singleflight"
)

// university is one record of a hipolabs-compatible /search response.
type university struct {
	Name    string   `json:"name"`
	Domains []string `json:"domains"`
	Country string   `json:"country"`
}

// Directory resolves school names from a university-domains search API.
// Answers, including "no match", are cached per domain.
type Directory struct {
	client  *retry.Client
	baseURL string
	cache   core.Cache[string]
	ttl     time.Duration
	group   singleflight.Group
}

// NewDirectory creates a directory client against baseURL.
func NewDirectory(client *retry.Client, baseURL string, cache core.Cache[string], ttl time.Duration) *Directory {
	return &Directory{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		cache:   cache,
		ttl:     ttl,
	}
}

// Lookup tries the full domain first, then its registrable domain.
// It returns "" when the directory knows no school for either.
func (d *Directory) Lookup(ctx context.Context, domain string) (string, error) {
	domain = normalizeDomain(domain)
	name, err := d.lookupCached(ctx, domain)
	if err != nil || name != "" {
		return name, err
	}

	if root := RegistrableDomain(domain); root != domain {
		return d.lookupCached(ctx, root)
	}
	return "", nil
}

func (d *Directory) lookupCached(ctx context.Context, domain string) (string, error) {
	v, err, _ := d.group.Do(domain, func() (any, error) {
		return d.cache.GetWithFetch(ctx, "school:"+domain, d.ttl, d.search)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (d *Directory) search(ctx context.Context, key string) (string, error) {
	domain := strings.TrimPrefix(key, "school:")
	endpoint := d.baseURL + "/search?" + url.Values{"domain": {domain}}.Encode()

	resp, err := d.client.Get(ctx, endpoint)
	if err != nil {
		return "", fmt.Errorf("directory request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("directory returned HTTP %d", resp.StatusCode)
	}

	var results []university
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4<<20)).Decode(&results); err != nil {
		return "", fmt.Errorf("failed to decode directory response: %w", err)
	}

	// The search endpoint matches substrings, so insist on an exact domain.
	for _, u := range results {
		for _, ud := range u.Domains {
			if normalizeDomain(ud) == domain && u.Name != "" {
				return u.Name, nil
			}
		}
	}
	return "", nil
}
