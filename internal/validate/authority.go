package validate

import (
	"net/url"
	"strings"
)

// AuthorityTier classifies how official a source's host is
type AuthorityTier int

const (
	TierUnknown   AuthorityTier = 0
	TierPrimary   AuthorityTier = 1 // the city itself or another government body
	TierSecondary AuthorityTier = 2 // hosted open-data and agenda platforms
	TierTertiary  AuthorityTier = 3 // everything else
)

func (t AuthorityTier) String() string {
	switch t {
	case TierPrimary:
		return "primary"
	case TierSecondary:
		return "secondary"
	case TierTertiary:
		return "tertiary"
	default:
		return "unknown"
	}
}

// MarshalText encodes the tier by name
func (t AuthorityTier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// governmentSuffixes mark public-sector hosts across common national schemes
var governmentSuffixes = []string{
	".gov", ".gc.ca", ".gouv.fr", ".gouv.qc.ca", ".gov.uk", ".gov.au", ".govt.nz", ".mil",
}

// platformSuffixes host municipal open data, budgets and council agendas
var platformSuffixes = []string{
	"arcgis.com", "socrata.com", "opendatasoft.com", "ckan.io", "escribemeetings.com",
	"legistar.com", "granicus.com", "civicweb.net", "openbook.questica.com",
}

// AuthorityClassifier classifies source URLs into authority tiers
type AuthorityClassifier struct {
	official map[string]bool
}

// NewAuthorityClassifier creates a classifier. Official hosts (typically the city's
// own site) and their subdomains classify as primary.
func NewAuthorityClassifier(officialHosts ...string) *AuthorityClassifier {
	c := &AuthorityClassifier{official: make(map[string]bool)}
	for _, h := range officialHosts {
		if h = normalizeHost(h); h != "" {
			c.official[h] = true
		}
	}
	return c
}

// Classify classifies a URL into an authority tier
func (a *AuthorityClassifier) Classify(rawURL string) AuthorityTier {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return TierUnknown
	}
	host := normalizeHost(parsed.Host)

	for official := range a.official {
		if host == official || strings.HasSuffix(host, "."+official) {
			return TierPrimary
		}
	}
	if hasSuffix(host, governmentSuffixes) {
		return TierPrimary
	}
	if hasSuffix(host, platformSuffixes) {
		return TierSecondary
	}
	return TierTertiary
}

func hasSuffix(host string, suffixes []string) bool {
	for _, s := range suffixes {
		bare := strings.TrimPrefix(s, ".")
		if host == bare || strings.HasSuffix(host, "."+bare) {
			return true
		}
	}
	return false
}

// normalizeHost lowercases a host and drops the port and a leading www.
func normalizeHost(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	if h, _, ok := strings.Cut(host, ":"); ok {
		host = h
	}
	return strings.TrimPrefix(host, "www.")
}
