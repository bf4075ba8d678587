package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/haukened/subdomains/internal/subdomains/repos/index"
	"github.com/haukened/subdomains/internal/subdomains/services/scanner"
)

var (
	matchColor     = color.New(color.FgGreen, color.Bold)
	duplicateColor = color.New(color.FgHiBlack)
	missColor      = color.New(color.FgYellow)
	headerColor    = color.New(color.FgCyan)
	errorColor     = color.New(color.FgRed)
)

// configureColor enables color only when w is a terminal and neither
// --no-color nor NO_COLOR asks otherwise.
func configureColor(w io.Writer, disabled bool) {
	color.NoColor = disabled || os.Getenv("NO_COLOR") != "" || !isTerminal(w)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// resultView is the JSON shape of one result. Absent values are null.
type resultView struct {
	Line              int      `json:"line,omitempty"`
	OriginalInput     string   `json:"original_input"`
	Matched           bool     `json:"matched"`
	Host              *string  `json:"host"`
	RegistrableDomain *string  `json:"registrable_domain"`
	RootDomain        *string  `json:"root_domain"`
	TLD               *string  `json:"tld"`
	SLD               *string  `json:"sld"`
	Labels            []string `json:"labels"`
	LabelCount        int      `json:"label_count"`
	Subdomains        []string `json:"subdomains"`
	Duplicate         bool     `json:"duplicate,omitempty"`
	Cached            bool     `json:"cached,omitempty"`
}

func newResultView(rec scanner.Record) resultView {
	res := rec.Result
	v := resultView{
		Line:          rec.Line,
		OriginalInput: res.Input,
		Matched:       res.Matched,
		Labels:        res.LabelsCopy(),
		LabelCount:    res.LabelCount,
		Subdomains:    res.Subdomains(),
		Duplicate:     rec.Duplicate,
		Cached:        rec.Cached,
	}
	if v.Subdomains == nil {
		v.Subdomains = []string{}
	}
	if res.Matched {
		v.Host = &res.Host
		v.RegistrableDomain = &res.RegistrableDomain
		v.RootDomain = &res.RootDomain
		v.TLD = &res.TLD
		v.SLD = &res.SLD
	}
	return v
}

func writeResult(w io.Writer, asJSON bool, rec scanner.Record) error {
	if asJSON {
		return json.NewEncoder(w).Encode(newResultView(rec))
	}
	res := rec.Result
	var err error
	switch {
	case !res.Matched:
		_, err = fmt.Fprintf(w, "%s\t%s\n", missColor.Sprint("-"), res.Input)
	case rec.Duplicate:
		_, err = fmt.Fprintf(w, "%s\t%s\t%s\n", duplicateColor.Sprint(res.RegistrableDomain), res.Host, strings.Join(res.Labels, " "))
	default:
		_, err = fmt.Fprintf(w, "%s\t%s\t%s\n", matchColor.Sprint(res.RegistrableDomain), res.Host, strings.Join(res.Labels, " "))
	}
	return err
}

func writeSummary(w io.Writer, sum scanner.Summary) {
	_, _ = headerColor.Fprintf(w, "run %s: %d lines, %d matched, %d unmatched, %d duplicates, %d cache hits, %d cache evictions in %s\n",
		sum.RunID, sum.Lines, sum.Matched, sum.Unmatched, sum.Duplicates, sum.CacheHits, sum.CacheEvictions, sum.Duration.Round(time.Millisecond))
}

func writeEntries(w io.Writer, entries []index.Entry) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = headerColor.Fprintln(tw, "COUNT\tDOMAIN\tLAST SEEN")
	for _, e := range entries {
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\n", e.Count, e.Domain, e.LastSeen.UTC().Format(time.RFC3339))
	}
	_ = tw.Flush()
}

func writeIndexStats(w io.Writer, path string, st index.Stats) {
	updated := "never"
	if st.UpdatedUnix > 0 {
		updated = time.Unix(st.UpdatedUnix, 0).UTC().Format(time.RFC3339)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintf(tw, "path\t%s\n", path)
	_, _ = fmt.Fprintf(tw, "domains\t%d\n", st.Domains)
	_, _ = fmt.Fprintf(tw, "runs\t%d\n", st.Runs)
	_, _ = fmt.Fprintf(tw, "last run\t%s\n", st.LastRunID)
	_, _ = fmt.Fprintf(tw, "updated\t%s\n", updated)
	_, _ = fmt.Fprintf(tw, "schema\t%d\n", st.Version)
	_ = tw.Flush()
}
