package school

import (
	"strings"

	"golang.org/x/net/publicsuffix"
)

// Rules maps email domains to school names.
type Rules struct {
	domains map[string]string
	blocked map[string]struct{}
}

// NewRules builds a rule set. Keys are matched case-insensitively.
func NewRules(domains map[string]string, blocked []string) *Rules {
	r := &Rules{
		domains: make(map[string]string, len(domains)),
		blocked: make(map[string]struct{}, len(blocked)),
	}
	for d, school := range domains {
		d = normalizeDomain(d)
		if d != "" && school != "" {
			r.domains[d] = school
		}
	}
	for _, d := range blocked {
		if d = normalizeDomain(d); d != "" {
			r.blocked[d] = struct{}{}
		}
	}
	return r
}

// Blocked reports whether domain or any of its parents is blocked.
func (r *Rules) Blocked(domain string) bool {
	for _, d := range Candidates(domain) {
		if _, ok := r.blocked[d]; ok {
			return true
		}
	}
	return false
}

// Match returns the school for the most specific configured domain.
func (r *Rules) Match(domain string) (string, bool) {
	for _, d := range Candidates(domain) {
		if school, ok := r.domains[d]; ok {
			return school, true
		}
	}
	return "", false
}

// Candidates lists domain and its parent domains, most specific first,
// stopping at the registrable domain. "cs.gsb.columbia.edu" yields
// cs.gsb.columbia.edu, gsb.columbia.edu, columbia.edu.
func Candidates(domain string) []string {
	domain = normalizeDomain(domain)
	if domain == "" {
		return nil
	}

	root, err := publicsuffix.EffectiveTLDPlusOne(domain)
	if err != nil {
		// A bare public suffix or malformed name has no parents worth trying.
		return []string{domain}
	}

	out := []string{domain}
	for d := domain; d != root; {
		_, parent, ok := strings.Cut(d, ".")
		if !ok {
			break
		}
		out = append(out, parent)
		d = parent
	}
	return out
}

// RegistrableDomain returns the eTLD+1 of domain, or domain itself when none exists.
func RegistrableDomain(domain string) string {
	domain = normalizeDomain(domain)
	if root, err := publicsuffix.EffectiveTLDPlusOne(domain); err == nil {
		return root
	}
	return domain
}

func normalizeDomain(d string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(d)), ".")
}
