package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testProfileYAML = `
name: test-router
category: router
contributor: test
default_port: 8080
ssl: false
fingerprint:
  url:
    - /
  status: 401
  basic_auth_realm: Router
auth:
  type: basic
  credentials:
    - username: admin
      password: admin
  success:
    status: 200
`

func writeTestCatalogue(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "router.yml"), []byte(testProfileYAML), 0o644); err != nil {
		t.Fatalf("writing test profile: %v", err)
	}
	return dir
}

func TestRun_ValidateReportsProfileAndCredentialCounts(t *testing.T) {
	dir := writeTestCatalogue(t)
	var out bytes.Buffer

	code := run([]string{"-catalogue", dir, "-validate"}, &out)
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d (output: %s)", code, out.String())
	}
	if !strings.Contains(out.String(), "1 profiles, 1 credentials") {
		t.Fatalf("expected profile/credential counts in output, got %q", out.String())
	}
}

func TestRun_DryRunPrintsExpandedURLsAndExits(t *testing.T) {
	dir := writeTestCatalogue(t)
	targetsFile := filepath.Join(t.TempDir(), "targets.txt")
	if err := os.WriteFile(targetsFile, []byte("10.0.0.1\n10.0.0.2\n"), 0o644); err != nil {
		t.Fatalf("writing targets file: %v", err)
	}

	var out bytes.Buffer
	code := run([]string{"-catalogue", dir, "-targets", targetsFile, "-dryrun"}, &out)
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 URLs (one per target), got %d: %v", len(lines), lines)
	}
	if !strings.Contains(lines[0], "http://10.0.0.1:8080/") {
		t.Fatalf("unexpected URL: %q", lines[0])
	}
}

func TestRun_RequiresATargetSource(t *testing.T) {
	dir := writeTestCatalogue(t)
	var out bytes.Buffer

	code := run([]string{"-catalogue", dir}, &out)
	if code != 2 {
		t.Fatalf("expected exit code 2 when no target source is given, got %d", code)
	}
}

func TestRun_RejectsInvalidProxy(t *testing.T) {
	dir := writeTestCatalogue(t)
	var out bytes.Buffer

	code := run([]string{"-catalogue", dir, "-subnet", "10.0.0.1", "-proxy", "not-a-url"}, &out)
	if code != 1 {
		t.Fatalf("expected exit code 1 for an invalid proxy, got %d", code)
	}
}

func TestRun_QueueWorkerRequiresRedisAddr(t *testing.T) {
	dir := writeTestCatalogue(t)
	var out bytes.Buffer

	code := run([]string{"-catalogue", dir, "-queue-worker"}, &out)
	if code != 2 {
		t.Fatalf("expected exit code 2 when -queue-worker is given without -redis-addr, got %d", code)
	}
}
