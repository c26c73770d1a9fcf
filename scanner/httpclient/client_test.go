package httpclient

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestNew_FetchesOverTLSWithSkippedVerification(t *testing.T) {
	srv := httptest.NewTLSServer(nil)
	defer srv.Close()

	c := New(Config{Timeout: 2 * time.Second})
	resp, err := c.Raw().Get(srv.URL)
	if err != nil {
		t.Fatalf("expected self-signed TLS to be accepted, got: %v", err)
	}
	resp.Body.Close()
}

func TestNew_RequestTimesOut(t *testing.T) {
	srv := httptest.NewServer(nil)
	defer srv.Close()

	c := New(Config{Timeout: 1 * time.Nanosecond})
	_, err := c.Raw().Get(srv.URL)
	if err == nil {
		t.Fatal("expected request to time out")
	}
}
