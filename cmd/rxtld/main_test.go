package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/x-stp/rxtld/internal/tldlist"
)

const testBody = "# Version 2024041000, Last Updated Wed Apr 10 07:07:01 2024 UTC\nCOM\nNET\nXN--P1AI\n"

func newListServer(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	hits := &atomic.Int32{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(testBody))
	}))
	t.Cleanup(srv.Close)
	return srv, hits
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestRootCommandOutputs(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name     string
		args     []string
		expected string
	}{
		{"No options", nil, "['# Version 2024041000, Last Updated Wed Apr 10 07:07:01 2024 UTC', 'COM', 'NET', 'XN--P1AI']\n"},
		{"Strip comment", []string{"-s", "#"}, "['COM', 'NET', 'XN--P1AI']\n"},
		{"Strip and lowercase", []string{"--strip", "#", "--lowercase"}, "['com', 'net', 'xn--p1ai']\n"},
		{"Repeated strip", []string{"-s", "#", "-s", "XN--"}, "['COM', 'NET']\n"},
		{"Several patterns after one flag", []string{"-s", "#", "XN--"}, "['COM', 'NET']\n"},
		{"Pattern with a comma", []string{"-s", "Version 2024041000, Last"}, "['COM', 'NET', 'XN--P1AI']\n"},
		{"Pattern with a double quote", []string{"-s", `"`}, "['# Version 2024041000, Last Updated Wed Apr 10 07:07:01 2024 UTC', 'COM', 'NET', 'XN--P1AI']\n"},
		{"Comma is not a separator", []string{"-s", "#,XN--"}, "['# Version 2024041000, Last Updated Wed Apr 10 07:07:01 2024 UTC', 'COM', 'NET', 'XN--P1AI']\n"},
		{"Lines format", []string{"-s", "#", "-l", "-f", "lines"}, "com\nnet\nxn--p1ai\n"},
		{"Unicode", []string{"-s", "#", "-u", "-f", "lines"}, "COM\nNET\nрф\n"},
		{"Everything stripped", []string{"-s", "#", "-s", "COM", "NET", "XN--"}, "[]\n"},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			srv, hits := newListServer(t)
			stdout, stderr, err := execute(t, append([]string{"--url", srv.URL}, tc.args...)...)
			if err != nil {
				t.Fatalf("execute: %v (stderr: %s)", err, stderr)
			}
			if stdout != tc.expected {
				t.Errorf("stdout = %q; want %q", stdout, tc.expected)
			}
			if hits.Load() != 1 {
				t.Errorf("expected exactly one request, got %d", hits.Load())
			}
		})
	}
}

func TestRootCommandFetchFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	stdout, stderr, err := execute(t, "--url", url, "-s", "#", "-l")
	if !errors.Is(err, errReported) {
		t.Fatalf("expected errReported, got %v", err)
	}
	if stdout != "Encountered an error while reading the file.\n" {
		t.Fatalf("unexpected stdout %q", stdout)
	}
	if !strings.Contains(stderr, "Error fetching data from URL") || !strings.Contains(stderr, "kind=connection") {
		t.Fatalf("expected failure detail on stderr, got:\n%s", stderr)
	}
}

func TestRootCommandHTTPStatusFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer srv.Close()

	stdout, stderr, err := execute(t, "--url", srv.URL)
	if !errors.Is(err, errReported) {
		t.Fatalf("expected errReported, got %v", err)
	}
	if stdout != "Encountered an error while reading the file.\n" {
		t.Fatalf("unexpected stdout %q", stdout)
	}
	if !strings.Contains(stderr, "status=410") {
		t.Fatalf("expected status in log, got:\n%s", stderr)
	}
}

func TestRootCommandDebugLogging(t *testing.T) {
	t.Parallel()

	srv, _ := newListServer(t)
	_, quiet, err := execute(t, "--url", srv.URL)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if strings.Contains(quiet, "level=DEBUG") {
		t.Fatalf("expected no debug logs without --debug, got:\n%s", quiet)
	}

	stdout, verbose, err := execute(t, "--url", srv.URL, "-d", "-s", "#")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(verbose, "level=DEBUG") || !strings.Contains(verbose, "xxh3=") {
		t.Fatalf("expected debug logs with --debug, got:\n%s", verbose)
	}
	if stdout != "['COM', 'NET', 'XN--P1AI']\n" {
		t.Fatalf("--debug must not change output, got %q", stdout)
	}
}

func TestRootCommandOutputFile(t *testing.T) {
	t.Parallel()

	srv, _ := newListServer(t)
	path := filepath.Join(t.TempDir(), "out", "tlds.txt")

	stdout, _, err := execute(t, "--url", srv.URL, "-s", "#", "-l", "-f", "lines", "-o", path)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if stdout != "" {
		t.Fatalf("expected nothing on stdout with --output, got %q", stdout)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(b) != "com\nnet\nxn--p1ai\n" {
		t.Fatalf("unexpected file content %q", string(b))
	}
}

func TestRootCommandRejectsBadFlags(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name string
		args []string
	}{
		{"Unknown format", []string{"-f", "yaml"}},
		{"Zero timeout", []string{"--timeout", "0s"}},
		{"Compress without output", []string{"--compress"}},
		{"Positional argument", []string{"COM"}},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			srv, hits := newListServer(t)
			stdout, _, err := execute(t, append([]string{"--url", srv.URL}, tc.args...)...)
			if err == nil || errors.Is(err, errReported) {
				t.Fatalf("expected a usage error, got %v", err)
			}
			if stdout != "" {
				t.Fatalf("expected no output, got %q", stdout)
			}
			if hits.Load() != 0 {
				t.Fatalf("expected no request on bad flags, got %d", hits.Load())
			}
		})
	}
}

func TestSaveThenSourceFile(t *testing.T) {
	t.Parallel()

	srv, hits := newListServer(t)
	dir := t.TempDir()
	saved := filepath.Join(dir, "tlds-alpha-by-domain.txt")
	metricsPath := filepath.Join(dir, "rxtld.prom")

	if _, stderr, err := execute(t, "save", "--url", srv.URL, "-o", saved, "--metrics-file", metricsPath); err != nil {
		t.Fatalf("save: %v (stderr: %s)", err, stderr)
	}
	b, err := os.ReadFile(saved)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(b) != testBody {
		t.Fatalf("saved copy differs from served list: %q", string(b))
	}
	m, err := os.ReadFile(metricsPath)
	if err != nil {
		t.Fatalf("ReadFile metrics: %v", err)
	}
	if !strings.Contains(string(m), `rxtld_fetch_total{source="http",status="ok"} 1`) {
		t.Fatalf("expected fetch counter in metrics file, got:\n%s", m)
	}

	stdout, _, err := execute(t, "--source-file", saved, "-s", "#", "-l")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if stdout != "['com', 'net', 'xn--p1ai']\n" {
		t.Fatalf("unexpected stdout %q", stdout)
	}
	if hits.Load() != 1 {
		t.Fatalf("--source-file must not touch the network, got %d requests", hits.Load())
	}
}

func TestSourceFileMissing(t *testing.T) {
	t.Parallel()

	stdout, stderr, err := execute(t, "--source-file", filepath.Join(t.TempDir(), "nope.txt"))
	if !errors.Is(err, errReported) {
		t.Fatalf("expected errReported, got %v", err)
	}
	if stdout != "Encountered an error while reading the file.\n" {
		t.Fatalf("unexpected stdout %q", stdout)
	}
	if !strings.Contains(stderr, "kind=file") {
		t.Fatalf("expected file failure in log, got:\n%s", stderr)
	}
}

func TestVerifySaved(t *testing.T) {
	t.Parallel()

	want, err := tldlist.NewDocument("http://example", []byte(testBody))
	if err != nil {
		t.Fatalf("NewDocument: %v", err)
	}
	dir := t.TempDir()
	good := filepath.Join(dir, "good.txt")
	bad := filepath.Join(dir, "bad.txt")
	if err := os.WriteFile(good, []byte(testBody), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := os.WriteFile(bad, []byte("COM\n"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	testCases := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"Matching copy", good, false},
		{"Different content", bad, true},
		{"Missing file", filepath.Join(dir, "missing.txt"), true},
	}
	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := verifySaved(context.Background(), tc.path, tldlist.DefaultMaxBytes, want)
			if (err != nil) != tc.wantErr {
				t.Fatalf("verifySaved(%s) error = %v; wantErr %v", tc.path, err, tc.wantErr)
			}
		})
	}
}

func TestSaveDefaultsToURLFilename(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(testBody))
	}))
	defer srv.Close()

	dir := t.TempDir()
	t.Chdir(dir)

	if _, stderr, err := execute(t, "save", "--url", srv.URL+"/TLD/tlds-alpha-by-domain.txt"); err != nil {
		t.Fatalf("save: %v (stderr: %s)", err, stderr)
	}
	if _, err := os.Stat(filepath.Join(dir, "tlds-alpha-by-domain.txt")); err != nil {
		t.Fatalf("expected list saved under its URL name: %v", err)
	}
}
