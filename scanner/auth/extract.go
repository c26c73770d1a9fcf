// Package auth implements the Auth Probes, Success Evaluator, and
// Session/CSRF Extractor (spec.md §4.D, §4.E, §4.F).
package auth

import (
	"bytes"

	"github.com/PuerkitoBio/goquery"

	"latchkey/catalog"
	"latchkey/scanner/fingerprint"
)

// ExtractCSRF evaluates profile.Auth.CSRF against resp's body, the same way
// the XPath //input[@name="<csrf>"]/@value would (spec.md §4.F), using
// goquery's CSS selection over the parsed HTML instead of an XPath engine.
// Returns ("", false) if csrf is not declared, or if declared but the field
// could not be found.
func ExtractCSRF(resp *fingerprint.Response, p *catalog.Profile) (string, bool) {
	name := p.Auth.CSRF
	if name == "" {
		return "", false
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Raw))
	if err != nil {
		return "", false
	}

	sel := doc.Find(`input[name="` + name + `"]`).First()
	if sel.Length() == 0 {
		return "", false
	}
	value, exists := sel.Attr("value")
	if !exists {
		return "", false
	}
	return value, true
}

// ExtractSession looks up the cookie named by profile.Auth.SessionID in
// resp's cookie jar (spec.md §4.F). Returns ("", false) if sessionid is not
// declared, or if declared but the cookie is absent.
func ExtractSession(resp *fingerprint.Response, p *catalog.Profile) (string, bool) {
	name := p.Auth.SessionID
	if name == "" {
		return "", false
	}
	return resp.Cookie(name)
}

// RequiredAuxiliariesPresent reports whether every auxiliary the profile
// declares (csrf, sessionid) was obtainable. A profile that declares either
// and can't obtain it must be skipped for this target (spec.md §4.F).
func RequiredAuxiliariesPresent(resp *fingerprint.Response, p *catalog.Profile) bool {
	if p.Auth.CSRF != "" {
		if _, ok := ExtractCSRF(resp, p); !ok {
			return false
		}
	}
	if p.Auth.SessionID != "" {
		if _, ok := ExtractSession(resp, p); !ok {
			return false
		}
	}
	return true
}
