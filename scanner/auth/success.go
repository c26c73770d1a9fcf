package auth

import (
	"io"
	"net/http"

	"latchkey/catalog"
)

// Success evaluates a probe response against profile.Auth.Success
// (spec.md §4.E). Starting from true: if Status is declared and doesn't
// match, false; if still true and Body is declared, its compiled regexp
// must find a match in the body, else false.
func Success(statusCode int, body string, p *catalog.Profile) bool {
	s := p.Auth.Success
	match := true

	if s.Status != nil && *s.Status != statusCode {
		match = false
	}

	if match {
		if re := s.BodyRegexp(); re != nil && !re.MatchString(body) {
			match = false
		}
	}

	return match
}

// readBody drains resp's body. Probe responses (unlike the fingerprint
// Response) are consumed once and discarded, so there's no need for the
// fuller fingerprint.Response wrapper here.
func readBody(resp *http.Response) (string, error) {
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}
