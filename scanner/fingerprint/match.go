package fingerprint

import (
	"strings"

	"latchkey/catalog"
)

// Match returns every profile whose fingerprint block is satisfied by
// resp (spec.md §4.C). Rules are evaluated in this fixed order for each
// profile:
//
//  1. resp.PathAndQuery must appear in profile.Fingerprint.URL (mandatory).
//  2. If declared, profile.Fingerprint.Status must equal resp.StatusCode.
//  3. If declared, profile.Fingerprint.BasicAuthRealm must be a substring
//     of the WWW-Authenticate header.
//  4. If declared, profile.Fingerprint.Body must be a substring of the body.
//
// A profile matches iff rule 1 holds AND every declared optional check
// (2-4) passes; undeclared checks impose no constraint. This pins the
// AND-semantics spec.md §4.C/§9 calls for — the source this was distilled
// from (changeme.py get_fingerprint_matches) flips a single `match`
// boolean across checks in a way whose outcome depends on iteration
// order; that ambiguity is deliberately not reproduced here.
func Match(resp *Response, profiles []*catalog.Profile) []*catalog.Profile {
	var matches []*catalog.Profile
	for _, p := range profiles {
		if matchesProfile(resp, p) {
			matches = append(matches, p)
		}
	}
	return matches
}

func matchesProfile(resp *Response, p *catalog.Profile) bool {
	if !pathMatches(resp.PathAndQuery, p.Fingerprint.URL) {
		return false
	}

	if p.Fingerprint.Status != nil && *p.Fingerprint.Status != resp.StatusCode {
		return false
	}

	if p.Fingerprint.BasicAuthRealm != "" {
		if !strings.Contains(resp.Header.Get("WWW-Authenticate"), p.Fingerprint.BasicAuthRealm) {
			return false
		}
	}

	if p.Fingerprint.Body != "" {
		if !strings.Contains(resp.Body, p.Fingerprint.Body) {
			return false
		}
	}

	return true
}

func pathMatches(pathAndQuery string, candidates []string) bool {
	for _, c := range candidates {
		if c == pathAndQuery {
			return true
		}
	}
	return false
}
