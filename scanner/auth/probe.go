package auth

import (
	"net/http"
	"net/url"
	"strings"

	"latchkey/catalog"
	"latchkey/logx"
	"latchkey/scanner/httpclient"
)

// MatchResult is one confirmed default-credential hit (spec.md §4.D): the
// profile and credential that succeeded, and the URL it succeeded against.
type MatchResult struct {
	Profile    *catalog.Profile
	Credential catalog.Credential
	TargetURL  string
}

// Request bundles what every probe strategy needs beyond the client and
// profile: the fingerprint URL that was matched, plus any auxiliaries the
// Session/CSRF Extractor pulled from the fingerprint response.
type Request struct {
	Client          *httpclient.Client
	FingerprintURL  string
	Profile         *catalog.Profile
	SessionCookie   string // empty if profile.Auth.SessionID is not declared
	SessionCookieOK bool
	CSRFValue       string // empty if profile.Auth.CSRF is not declared
	CSRFValueOK     bool
	Log             *logx.Logger
}

// Probe dispatches to the strategy named by req.Profile.Auth.Type
// (spec.md §4.D).
func Probe(req Request) []MatchResult {
	switch req.Profile.Auth.Type {
	case catalog.ProbeBasic:
		return probeBasic(req)
	case catalog.ProbeForm:
		return probeHTTP(req, true)
	case catalog.ProbeGet:
		return probeHTTP(req, false)
	default:
		return nil
	}
}

// probeBasic implements 4.D.1: one GET per credential, authenticated via
// HTTP Basic, against the fingerprint URL itself. A connection failure on
// one credential does not stop the loop (spec.md §9 — preserved
// divergence from Form/Get).
func probeBasic(req Request) []MatchResult {
	var matches []MatchResult

	for _, cred := range req.Profile.Auth.Credentials {
		httpReq, err := http.NewRequest(http.MethodGet, req.FingerprintURL, nil)
		if err != nil {
			req.Log.Debugf("basic: building request for %s: %v", req.FingerprintURL, err)
			continue
		}
		httpReq.SetBasicAuth(cred.Username, cred.Password)

		resp, err := req.Client.Do(httpReq)
		if err != nil {
			req.Log.Debugf("basic: request to %s failed: %v", req.FingerprintURL, err)
			continue
		}

		body, err := readBody(resp)
		if err != nil {
			req.Log.Debugf("basic: reading response from %s: %v", req.FingerprintURL, err)
			continue
		}

		if Success(resp.StatusCode, body, req.Profile) {
			req.Log.Criticalf("found %s default cred %s:%s at %s", req.Profile.Name, cred.Username, cred.Password, req.FingerprintURL)
			matches = append(matches, MatchResult{Profile: req.Profile, Credential: cred, TargetURL: req.FingerprintURL})
		} else {
			req.Log.Infof("invalid %s cred %s:%s at %s", req.Profile.Name, cred.Username, cred.Password, req.FingerprintURL)
		}
	}

	return matches
}

// probeHTTP implements 4.D.2 (form) and 4.D.3 (get): for each credential,
// for each login path (that iteration order, outer credential / inner
// path, is deliberate and testable per spec.md §4.D), build the static
// parameter set overlaid with the candidate credential and any CSRF value,
// and send it as a POST body (form) or a query string (get).
//
// A connection error aborts the entire probe for this profile and returns
// whatever matches were already collected (spec.md §4.D, §9) — unlike
// Basic, which keeps trying remaining credentials.
func probeHTTP(req Request, isForm bool) []MatchResult {
	var matches []MatchResult

	usernameField, passwordField := req.Profile.Auth.FieldNames()
	base := baseURL(req.FingerprintURL)

	for _, cred := range req.Profile.Auth.Credentials {
		params := req.Profile.Auth.StaticParams()
		params[usernameField] = cred.Username
		params[passwordField] = cred.Password
		if req.Profile.Auth.CSRF != "" && req.CSRFValueOK {
			params[req.Profile.Auth.CSRF] = req.CSRFValue
		}

		for _, path := range req.Profile.Auth.URL {
			loginURL := base + path

			resp, err := sendHTTP(req, loginURL, params, isForm)
			if err != nil {
				req.Log.Debugf("http: request to %s failed: %v", loginURL, err)
				return matches
			}

			body, err := readBody(resp)
			if err != nil {
				req.Log.Debugf("http: reading response from %s: %v", loginURL, err)
				return matches
			}

			if Success(resp.StatusCode, body, req.Profile) {
				req.Log.Criticalf("found %s default cred %s:%s at %s", req.Profile.Name, cred.Username, cred.Password, loginURL)
				matches = append(matches, MatchResult{Profile: req.Profile, Credential: cred, TargetURL: loginURL})
			} else {
				req.Log.Infof("invalid %s cred %s:%s at %s", req.Profile.Name, cred.Username, cred.Password, loginURL)
			}
		}
	}

	return matches
}

func sendHTTP(req Request, loginURL string, params map[string]string, isForm bool) (*http.Response, error) {
	values := make(url.Values, len(params))
	for k, v := range params {
		values.Set(k, v)
	}

	var httpReq *http.Request
	var err error
	if isForm {
		httpReq, err = http.NewRequest(http.MethodPost, loginURL, strings.NewReader(values.Encode()))
		if err == nil {
			httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	} else {
		httpReq, err = http.NewRequest(http.MethodGet, loginURL+"?"+values.Encode(), nil)
	}
	if err != nil {
		return nil, err
	}

	if req.SessionCookieOK {
		httpReq.AddCookie(&http.Cookie{Name: req.Profile.Auth.SessionID, Value: req.SessionCookie})
	}

	return req.Client.Do(httpReq)
}

// baseURL returns scheme://host[:port] of rawURL, matching changeme.py's
// get_base_url.
func baseURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Scheme + "://" + u.Host
}
