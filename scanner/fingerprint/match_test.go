package fingerprint

import (
	"net/http"
	"testing"

	"latchkey/catalog"
)

func intPtr(i int) *int { return &i }

func profileWithFingerprint(fp catalog.Fingerprint) *catalog.Profile {
	return &catalog.Profile{Name: "P", Fingerprint: fp}
}

func TestMatch_RequiresPathMembership(t *testing.T) {
	resp := &Response{PathAndQuery: "/other"}
	profiles := []*catalog.Profile{
		profileWithFingerprint(catalog.Fingerprint{URL: []string{"/"}}),
	}
	if got := Match(resp, profiles); len(got) != 0 {
		t.Fatalf("expected no match for unlisted path, got %d", len(got))
	}
}

func TestMatch_BasicAuthScenario(t *testing.T) {
	// Scenario 1 from spec.md §8: 401 + WWW-Authenticate realm.
	resp := &Response{
		PathAndQuery: "/",
		StatusCode:   401,
		Header:       http.Header{"Www-Authenticate": []string{`Basic realm="Router"`}},
	}
	profiles := []*catalog.Profile{
		profileWithFingerprint(catalog.Fingerprint{
			URL:            []string{"/"},
			Status:         intPtr(401),
			BasicAuthRealm: "Router",
		}),
	}
	got := Match(resp, profiles)
	if len(got) != 1 {
		t.Fatalf("expected 1 match, got %d", len(got))
	}
}

func TestMatch_BodyRequiredAndAbsent(t *testing.T) {
	resp := &Response{PathAndQuery: "/", StatusCode: 200, Body: "nothing interesting"}
	profiles := []*catalog.Profile{
		profileWithFingerprint(catalog.Fingerprint{URL: []string{"/"}, Body: "Welcome"}),
	}
	if got := Match(resp, profiles); len(got) != 0 {
		t.Fatalf("expected no match when declared body substring is absent, got %d", len(got))
	}
}

func TestMatch_AndSemanticsAcrossChecks(t *testing.T) {
	// Status matches but body does not: overall must be false (AND, not OR).
	resp := &Response{PathAndQuery: "/", StatusCode: 200, Body: "nope"}
	profiles := []*catalog.Profile{
		profileWithFingerprint(catalog.Fingerprint{
			URL:    []string{"/"},
			Status: intPtr(200),
			Body:   "Welcome",
		}),
	}
	if got := Match(resp, profiles); len(got) != 0 {
		t.Fatalf("AND semantics violated: expected no match, got %d", len(got))
	}
}

func TestMatch_MonotoneInDeclaredConstraints(t *testing.T) {
	// spec.md §8: removing a declared optional check never turns a
	// matching response into a non-matching one.
	resp := &Response{PathAndQuery: "/", StatusCode: 200, Body: "Welcome page"}

	withBody := profileWithFingerprint(catalog.Fingerprint{URL: []string{"/"}, Status: intPtr(200), Body: "Welcome"})
	withoutBody := profileWithFingerprint(catalog.Fingerprint{URL: []string{"/"}, Status: intPtr(200)})

	gotWith := Match(resp, []*catalog.Profile{withBody})
	gotWithout := Match(resp, []*catalog.Profile{withoutBody})

	if len(gotWith) == 1 && len(gotWithout) != 1 {
		t.Fatalf("removing a declared check turned a match into a non-match")
	}
}

func TestMatch_NoOptionalChecksAlwaysMatchesOnPath(t *testing.T) {
	resp := &Response{PathAndQuery: "/admin", StatusCode: 500, Body: "anything"}
	profiles := []*catalog.Profile{
		profileWithFingerprint(catalog.Fingerprint{URL: []string{"/admin"}}),
	}
	if got := Match(resp, profiles); len(got) != 1 {
		t.Fatalf("expected match when no optional checks declared, got %d", len(got))
	}
}

func TestMatch_PathWithQueryString(t *testing.T) {
	resp := &Response{PathAndQuery: "/login?next=/"}
	profiles := []*catalog.Profile{
		profileWithFingerprint(catalog.Fingerprint{URL: []string{"/login?next=/"}}),
	}
	if got := Match(resp, profiles); len(got) != 1 {
		t.Fatalf("expected match including query string, got %d", len(got))
	}
}
