package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haukened/subdomains"
	"github.com/haukened/subdomains/internal/subdomains/config"
)

type runResult struct {
	code   int
	stdout string
	stderr string
}

// run executes the CLI against a private index in a temp dir.
func run(t *testing.T, stdin string, args ...string) runResult {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := execute(context.Background(), args, strings.NewReader(stdin), &stdout, &stderr)
	return runResult{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("SUBDOMAINS_INDEX_PATH", filepath.Join(dir, "index.db"))
	t.Setenv("SUBDOMAINS_CONFIG_FILE", "")
	t.Setenv("NO_COLOR", "1")
	return dir
}

func TestVersion(t *testing.T) {
	isolate(t)
	r := run(t, "", "version")
	assert.Equal(t, 0, r.code)
	assert.Equal(t, "subdomains "+subdomains.Version+"\n", r.stdout)
}

func TestParse_Text(t *testing.T) {
	isolate(t)
	r := run(t, "", "parse", "The", "URL", "is:", "ftp://ftp.example.com")
	assert.Equal(t, 0, r.code, r.stderr)
	assert.Equal(t, "example.com\tftp.example.com\tftp example com\n", r.stdout)
}

func TestParse_JSON(t *testing.T) {
	isolate(t)

	t.Run("matched", func(t *testing.T) {
		r := run(t, "", "parse", "--json", "Visit https://www.example.co.uk/page")
		require.Equal(t, 0, r.code, r.stderr)

		var got map[string]any
		require.NoError(t, json.Unmarshal([]byte(r.stdout), &got))
		want := map[string]any{
			"original_input":     "Visit https://www.example.co.uk/page",
			"matched":            true,
			"host":               "www.example.co.uk",
			"registrable_domain": "example.co.uk",
			"root_domain":        "co.uk",
			"tld":                "uk",
			"sld":                "co",
			"labels":             []any{"www", "example", "co", "uk"},
			"label_count":        4.0,
			"subdomains":         []any{"www", "example"},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("parse --json mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("unmatched", func(t *testing.T) {
		r := run(t, "", "parse", "--json", "no domain here")
		require.Equal(t, 0, r.code, r.stderr)

		var got map[string]any
		require.NoError(t, json.Unmarshal([]byte(r.stdout), &got))
		want := map[string]any{
			"original_input":     "no domain here",
			"matched":            false,
			"host":               nil,
			"registrable_domain": nil,
			"root_domain":        nil,
			"tld":                nil,
			"sld":                nil,
			"labels":             []any{},
			"label_count":        0.0,
			"subdomains":         []any{},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("parse --json mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestParse_Strict(t *testing.T) {
	isolate(t)

	r := run(t, "", "parse", "--strict", "not a domain")
	assert.Equal(t, 1, r.code)
	assert.Equal(t, "-\tnot a domain\n", r.stdout)
	assert.Contains(t, r.stderr, "Unable to parse the string for a domain name")

	r = run(t, "", "parse", "--strict", "example.com")
	assert.Equal(t, 0, r.code)
}

func TestParse_RequiresArgs(t *testing.T) {
	isolate(t)
	r := run(t, "", "parse")
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stderr, "requires at least 1 arg")
}

func TestScan_Stdin(t *testing.T) {
	isolate(t)
	input := "https://www.example.com/a\nnothing\nmail.example.com\nfoo.org\n"

	r := run(t, input, "scan")
	require.Equal(t, 0, r.code, r.stderr)
	assert.Equal(t,
		"example.com\twww.example.com\twww example com\n"+
			"-\tnothing\n"+
			"example.com\tmail.example.com\tmail example com\n"+
			"foo.org\tfoo.org\tfoo org\n",
		r.stdout)
	assert.Contains(t, r.stderr, "4 lines, 3 matched, 1 unmatched, 1 duplicates")
}

func TestScan_UniqueJSONFile(t *testing.T) {
	dir := isolate(t)
	in := filepath.Join(dir, "input.txt")
	require.NoError(t, os.WriteFile(in, []byte("a.example.com\nb.example.com\nexample.org\n"), 0o600))

	r := run(t, "", "scan", "--unique", "--json", "--file", in)
	require.Equal(t, 0, r.code, r.stderr)

	lines := strings.Split(strings.TrimSpace(r.stdout), "\n")
	require.Len(t, lines, 2)
	var first, second resultView
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Equal(t, 1, first.Line)
	assert.Equal(t, "a.example.com", first.OriginalInput)
	assert.Equal(t, 3, second.Line)
	require.NotNil(t, second.RootDomain)
	assert.Equal(t, "example.org", *second.RootDomain)
}

func TestScan_MissingFile(t *testing.T) {
	dir := isolate(t)
	r := run(t, "", "scan", "--file", filepath.Join(dir, "missing.txt"))
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stderr, "failed to open input")
}

func TestScan_UnknownInputFormat(t *testing.T) {
	isolate(t)
	r := run(t, "example.com\n", "scan", "--input-format", "xml")
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stderr, "unknown input format")
}

func TestScan_IndexAndMetrics(t *testing.T) {
	dir := isolate(t)
	metricsFile := filepath.Join(dir, "subdomains.prom")
	t.Setenv("SUBDOMAINS_METRICS_FILE", metricsFile)

	r := run(t, "www.example.com\nexample.com\nfoo.org\n", "scan", "--index")
	require.Equal(t, 0, r.code, r.stderr)
	r = run(t, "api.example.com\n", "scan", "--index")
	require.Equal(t, 0, r.code, r.stderr)

	r = run(t, "", "index", "top", "--limit", "1")
	require.Equal(t, 0, r.code, r.stderr)
	lines := strings.Split(strings.TrimSpace(r.stdout), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "COUNT")
	fields := strings.Fields(lines[1])
	require.Len(t, fields, 3)
	assert.Equal(t, []string{"3", "example.com"}, fields[:2])

	r = run(t, "", "index", "stats")
	require.Equal(t, 0, r.code, r.stderr)
	assert.Contains(t, r.stdout, "domains   2")
	assert.Contains(t, r.stdout, "runs      2")

	r = run(t, "", "index", "lookup", "Example.COM")
	require.Equal(t, 0, r.code, r.stderr)
	assert.Equal(t, []string{"3", "example.com"}, strings.Fields(strings.Split(strings.TrimSpace(r.stdout), "\n")[1])[:2])

	r = run(t, "", "index", "lookup", "missing.net")
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stderr, "missing.net is not in the index")

	r = run(t, "", "index", "suffix", ".org")
	require.Equal(t, 0, r.code, r.stderr)
	lines = strings.Split(strings.TrimSpace(r.stdout), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "foo.org", strings.Fields(lines[1])[1])

	body, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(body), "subdomains_lines_total 1")
}

func TestIndexTop_NegativeLimit(t *testing.T) {
	isolate(t)
	r := run(t, "", "index", "top", "--limit", "-1")
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stderr, "--limit must not be negative")
}

func TestConfigurationError(t *testing.T) {
	isolate(t)
	t.Setenv("SUBDOMAINS_WORKERS", "0")
	r := run(t, "", "version")
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stderr, "configuration error")
}

func TestConfigFileFlag(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("allow_unlisted_tld: true\n"), 0o600))

	r := run(t, "", "parse", "build.tgzx")
	assert.Equal(t, 0, r.code)
	assert.Equal(t, "-\tbuild.tgzx\n", r.stdout)

	r = run(t, "", "--config", path, "parse", "build.tgzx")
	assert.Equal(t, 0, r.code, r.stderr)
	assert.Equal(t, "build.tgzx\tbuild.tgzx\tbuild tgzx\n", r.stdout)
}

func TestBuildApplication(t *testing.T) {
	cfg := config.DEFAULT_APP_CONFIG
	cfg.IndexPath = filepath.Join(t.TempDir(), "index.db")
	cfg.CacheSize = 0

	app, err := buildApplication(&cfg)
	require.NoError(t, err)
	assert.NotNil(t, app.parser)
	assert.NotNil(t, app.metrics)
	assert.Equal(t, 0, app.cache.Len())

	run, err := app.newScanRun(scanSettings{useIndex: true})
	require.NoError(t, err)
	assert.NotNil(t, run.scanner)
	assert.NotNil(t, run.seen)
	require.NoError(t, run.close())
}
