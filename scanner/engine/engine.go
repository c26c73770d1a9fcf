// Package engine implements the Scanner (spec.md §4.G): the
// bounded-concurrency driver that sequences fingerprint → extract → probe →
// evaluate for every target URL.
package engine

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"

	"latchkey/catalog"
	"latchkey/logx"
	"latchkey/scanner/auth"
	"latchkey/scanner/fingerprint"
	"latchkey/scanner/httpclient"
	"latchkey/scanner/target"
)

// Config is the scanner's {threads, timeout, proxy, fingerprint_only}
// configuration (spec.md §4.G).
type Config struct {
	Threads         int
	Timeout         time.Duration
	Proxy           *url.URL
	FingerprintOnly bool
}

// Result is one worker's outcome for a single candidate URL: the matched
// profile (if fingerprinting found one) and any confirmed credentials.
type Result struct {
	RunID     string
	URL       string
	Profile   *catalog.Profile
	Matches   []auth.MatchResult
	Err       error
}

// Run schedules one worker per probe, capped at cfg.Threads concurrently
// in-flight workers (spec.md §5: "New work is only admitted when active
// worker count is at or below the cap"), using the same
// sync.WaitGroup-plus-buffered-channel-semaphore idiom the fingerprint
// scanner this was adapted from uses for its own batch driver.
//
// Results carry no ordering guarantee between URLs (spec.md §4.G); within a
// single URL, fingerprint GET strictly precedes extraction, which strictly
// precedes the auth probe (spec.md §5).
func Run(ctx context.Context, probes []target.Probe, cfg Config, log *logx.Logger) []Result {
	runID := uuid.NewString()
	results := make([]Result, len(probes))

	client := httpclient.New(httpclient.Config{Timeout: cfg.Timeout, Proxy: cfg.Proxy})

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, cfg.Threads)

	for i, p := range probes {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(idx int, probe target.Probe) {
			defer wg.Done()
			defer func() { <-semaphore }()

			results[idx] = scanOne(ctx, client, probe, cfg, runID, log)
		}(i, p)
	}

	wg.Wait()
	return results
}

func scanOne(ctx context.Context, client *httpclient.Client, probe target.Probe, cfg Config, runID string, log *logx.Logger) Result {
	result := Result{RunID: runID, URL: probe.URL}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, probe.URL, nil)
	if err != nil {
		result.Err = err
		return result
	}

	httpResp, err := client.Do(httpReq)
	if err != nil {
		log.Debugf("fingerprint request to %s failed: %v", probe.URL, err)
		result.Err = err
		return result
	}

	resp, err := fingerprint.NewResponse(httpResp)
	if err != nil {
		log.Debugf("reading fingerprint response from %s: %v", probe.URL, err)
		result.Err = err
		return result
	}

	matched := fingerprint.Match(resp, []*catalog.Profile{probe.Profile})
	if len(matched) == 0 {
		return result
	}
	result.Profile = probe.Profile
	log.Infof("fingerprint matched %s at %s", probe.Profile.Name, probe.URL)

	if cfg.FingerprintOnly {
		return result
	}

	if !auth.RequiredAuxiliariesPresent(resp, probe.Profile) {
		log.Debugf("skipping %s at %s: required session/csrf auxiliary unavailable", probe.Profile.Name, probe.URL)
		return result
	}

	sessionCookie, sessionOK := auth.ExtractSession(resp, probe.Profile)
	csrfValue, csrfOK := auth.ExtractCSRF(resp, probe.Profile)

	result.Matches = auth.Probe(auth.Request{
		Client:          client,
		FingerprintURL:  probe.URL,
		Profile:         probe.Profile,
		SessionCookie:   sessionCookie,
		SessionCookieOK: sessionOK,
		CSRFValue:       csrfValue,
		CSRFValueOK:     csrfOK,
		Log:             log,
	})

	return result
}
