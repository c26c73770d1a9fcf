// Package fingerprint implements the Fingerprinter (spec.md §4.C):
// classifying a single HTTP response against the loaded catalogue.
package fingerprint

import (
	"io"
	"net/http"
)

// Response is the normalized view of a fingerprint GET that every rule in
// Match operates on. Capturing it up front (rather than re-reading the
// underlying *http.Response body) keeps the "single HTTP response"
// invariant (spec.md §1) honest: everything downstream — matching,
// session/CSRF extraction — reads from this one snapshot.
type Response struct {
	// PathAndQuery is the request's path plus "?query" if present,
	// matched against Profile.Fingerprint.URL (spec.md §4.C rule 1).
	PathAndQuery string
	StatusCode   int
	Header       http.Header
	Body         string
	Cookies      []*http.Cookie

	// Raw is kept for components (CSRF extraction) that need to parse
	// the body as HTML rather than scan it as a string.
	Raw []byte
}

// NewResponse builds a Response from a completed *http.Response, reading
// and closing its body.
func NewResponse(resp *http.Response) (*Response, error) {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	pathAndQuery := resp.Request.URL.Path
	if resp.Request.URL.RawQuery != "" {
		pathAndQuery += "?" + resp.Request.URL.RawQuery
	}

	return &Response{
		PathAndQuery: pathAndQuery,
		StatusCode:   resp.StatusCode,
		Header:       resp.Header,
		Body:         string(body),
		Cookies:      resp.Cookies(),
		Raw:          body,
	}, nil
}

// Cookie returns the named cookie's value and whether it was present.
func (r *Response) Cookie(name string) (string, bool) {
	for _, c := range r.Cookies {
		if c.Name == name {
			return c.Value, true
		}
	}
	return "", false
}
