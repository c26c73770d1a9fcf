// Package httpclient is the HTTP Adapter (spec.md §4.H): every outbound
// request in latchkey goes through a *http.Client built here, with
// timeout, optional proxy, and TLS verification disabled by contract —
// this tool is built to probe misconfigured devices that frequently serve
// self-signed or expired certificates.
package httpclient

import (
	"crypto/tls"
	"net"
	"net/http"
	"net/url"
	"time"
)

// Pool tuning constants, mirrored from the values the teacher's
// scanner/fingerprint.NewFingerprintScanner uses to build its own
// *http.Transport (that package lived in a "core" dependency the
// retrieval pack didn't include the body of; the call-site values are
// reproduced here rather than invented).
const (
	MaxIdleConns        = 100
	MaxIdleConnsPerHost = 10
	IdleConnTimeout     = 90 * time.Second
	DefaultDialTimeout  = 10 * time.Second
)

// Config configures the adapter (spec.md §4.H / §6 CLI surface: timeout,
// proxy).
type Config struct {
	// Timeout bounds every individual request (spec.md §5: "Every such
	// call is timeout-bounded by config.timeout").
	Timeout time.Duration

	// Proxy, if set, is applied uniformly to both http and https schemes
	// (spec.md §4.H: "single URL applied uniformly to both schemes").
	Proxy *url.URL
}

// Client wraps a *http.Client configured per Config. It is safe for
// concurrent use by every scan worker (spec.md §5: "must be safe under
// concurrent use (e.g. connection pool shared across workers)") — that
// guarantee comes directly from net/http.Client and its shared Transport.
type Client struct {
	http    *http.Client
	timeout time.Duration
}

// New builds a Client. TLS certificate verification is disabled
// unconditionally (spec.md §4.H): this is a scanning tool, not a browser.
func New(cfg Config) *Client {
	transport := &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec // intentional, spec.md §4.H
		DialContext: (&net.Dialer{
			Timeout:   DefaultDialTimeout,
			KeepAlive: DefaultDialTimeout,
		}).DialContext,
		MaxIdleConns:        MaxIdleConns,
		MaxIdleConnsPerHost: MaxIdleConnsPerHost,
		IdleConnTimeout:     IdleConnTimeout,
	}

	if cfg.Proxy != nil {
		proxyURL := cfg.Proxy
		transport.Proxy = func(*http.Request) (*url.URL, error) {
			return proxyURL, nil
		}
	}

	return &Client{
		http: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
			// A fingerprint or auth decision is made from a single
			// response (spec.md §1); don't silently chase redirects
			// past a small bound, but do allow the common single hop.
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
		timeout: cfg.Timeout,
	}
}

// Do issues req through the adapter's transport.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.http.Do(req)
}

// Raw exposes the underlying *http.Client for callers (e.g. auth probes)
// that need to pass it to helpers expecting the stdlib type directly.
func (c *Client) Raw() *http.Client {
	return c.http
}
