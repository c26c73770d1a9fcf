package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"latchkey/catalog"
	"latchkey/logx"
	"latchkey/scanner/httpclient"
)

func testClient() *httpclient.Client {
	return httpclient.New(httpclient.Config{Timeout: 5 * time.Second})
}

func TestProbeBasic_SucceedsOnCorrectCredential(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if ok && user == "admin" && pass == "admin" {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("Welcome"))
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	status := http.StatusOK
	p := &catalog.Profile{
		Name: "test-router",
		Auth: catalog.Auth{
			Type: catalog.ProbeBasic,
			Credentials: []catalog.Credential{
				{Username: "admin", Password: "wrong"},
				{Username: "admin", Password: "admin"},
			},
			Success: catalog.Success{Status: &status},
		},
	}

	got := Probe(Request{
		Client:         testClient(),
		FingerprintURL: srv.URL + "/",
		Profile:        p,
		Log:            logx.Nop(),
	})

	if len(got) != 1 {
		t.Fatalf("expected 1 match, got %d", len(got))
	}
	if got[0].Credential.Password != "admin" {
		t.Fatalf("expected the correct credential to match, got %+v", got[0].Credential)
	}
}

func TestProbeBasic_ContinuesAfterConnectionError(t *testing.T) {
	// The server drops the connection without answering for user "a", so
	// the first credential fails with a network error; "b" succeeds.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user, _, _ := r.BasicAuth(); user == "a" {
			conn, _, err := w.(http.Hijacker).Hijack()
			if err == nil {
				conn.Close()
			}
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	status := http.StatusOK
	p := &catalog.Profile{
		Name: "flaky-basic",
		Auth: catalog.Auth{
			Type: catalog.ProbeBasic,
			Credentials: []catalog.Credential{
				{Username: "a", Password: "a"},
				{Username: "b", Password: "b"},
			},
			Success: catalog.Success{Status: &status},
		},
	}

	// The loop must not abort after the first failure (spec.md §9: Basic
	// continues on error, unlike Form/Get), so "b" is still tried.
	got := Probe(Request{
		Client:         testClient(),
		FingerprintURL: srv.URL + "/",
		Profile:        p,
		Log:            logx.Nop(),
	})

	if len(got) != 1 || got[0].Credential.Username != "b" {
		t.Fatalf("expected the credential after the failed one to match, got %+v", got)
	}
}

func TestProbeForm_TriesCredentialOuterPathInner(t *testing.T) {
	var seenPaths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenPaths = append(seenPaths, r.URL.Path)
		r.ParseForm()
		if r.PostForm.Get("user") == "admin" && r.PostForm.Get("pass") == "admin" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	status := http.StatusOK
	p := &catalog.Profile{
		Name: "test-form",
		Auth: catalog.Auth{
			Type: catalog.ProbeForm,
			URL:  []string{"/login", "/admin/login"},
			Credentials: []catalog.Credential{
				{Username: "admin", Password: "admin"},
				{Username: "admin", Password: "wrong"},
			},
			Form: map[string]string{
				"username": "user",
				"password": "pass",
			},
			Success: catalog.Success{Status: &status},
		},
	}

	got := Probe(Request{
		Client:         testClient(),
		FingerprintURL: srv.URL + "/",
		Profile:        p,
		Log:            logx.Nop(),
	})

	if len(got) != 2 {
		t.Fatalf("expected a match for each login path with the correct credential, got %d", len(got))
	}
	// Credential-outer order visits every path for the first credential
	// before moving on to the second.
	if len(seenPaths) != 4 || seenPaths[0] != "/login" || seenPaths[1] != "/admin/login" ||
		seenPaths[2] != "/login" || seenPaths[3] != "/admin/login" {
		t.Fatalf("expected paths tried per credential in declared order, got %v", seenPaths)
	}
}

func TestProbeGet_SendsParametersAsQueryString(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		if r.URL.Query().Get("user") == "admin" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	status := http.StatusOK
	p := &catalog.Profile{
		Name: "test-get",
		Auth: catalog.Auth{
			Type:        catalog.ProbeGet,
			URL:         []string{"/login"},
			Credentials: []catalog.Credential{{Username: "admin", Password: "admin"}},
			Get: map[string]string{
				"username": "user",
				"password": "pass",
			},
			Success: catalog.Success{Status: &status},
		},
	}

	got := Probe(Request{
		Client:         testClient(),
		FingerprintURL: srv.URL + "/",
		Profile:        p,
		Log:            logx.Nop(),
	})

	if len(got) != 1 {
		t.Fatalf("expected 1 match, got %d", len(got))
	}
	if gotQuery == "" {
		t.Fatal("expected parameters to be sent as a query string")
	}
}

func TestProbeHTTP_AbortsProbeOnConnectionError(t *testing.T) {
	// The server drops the connection without answering for user "a", and
	// would accept "b"; the probe must stop at the first failure.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		if r.PostForm.Get("user") == "a" {
			conn, _, err := w.(http.Hijacker).Hijack()
			if err == nil {
				conn.Close()
			}
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	status := http.StatusOK
	p := &catalog.Profile{
		Name: "flaky-form",
		Auth: catalog.Auth{
			Type: catalog.ProbeForm,
			URL:  []string{"/login"},
			Credentials: []catalog.Credential{
				{Username: "a", Password: "a"},
				{Username: "b", Password: "b"},
			},
			Form:    map[string]string{"username": "user", "password": "pass"},
			Success: catalog.Success{Status: &status},
		},
	}

	got := Probe(Request{
		Client:         testClient(),
		FingerprintURL: srv.URL + "/",
		Profile:        p,
		Log:            logx.Nop(),
	})

	if len(got) != 0 {
		t.Fatalf("expected the probe to stop after the first connection error, got %d matches", len(got))
	}
}

func TestProbeForm_DoesNotShortCircuitOnFirstSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		if r.PostForm.Get("pass") == "admin" || r.PostForm.Get("pass") == "default" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	status := http.StatusOK
	p := &catalog.Profile{
		Name: "multi-cred",
		Auth: catalog.Auth{
			Type: catalog.ProbeForm,
			URL:  []string{"/login"},
			Credentials: []catalog.Credential{
				{Username: "admin", Password: "admin"},
				{Username: "admin", Password: "default"},
			},
			Form:    map[string]string{"username": "user", "password": "pass"},
			Success: catalog.Success{Status: &status},
		},
	}

	got := Probe(Request{
		Client:         testClient(),
		FingerprintURL: srv.URL + "/",
		Profile:        p,
		Log:            logx.Nop(),
	})

	if len(got) != 2 {
		t.Fatalf("expected both successful credentials to be reported, got %d", len(got))
	}
}
