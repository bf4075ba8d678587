package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/haukened/subdomains"
	"github.com/haukened/subdomains/internal/subdomains/common/log"
	"github.com/haukened/subdomains/internal/subdomains/common/utils"
	"github.com/haukened/subdomains/internal/subdomains/config"
	"github.com/haukened/subdomains/internal/subdomains/repos/index"
	"github.com/haukened/subdomains/internal/subdomains/services/scanner"
)

// cli carries the state shared by the commands of one invocation.
type cli struct {
	stdin      io.Reader
	stdout     io.Writer
	stderr     io.Writer
	configPath string
	noColor    bool
	app        *Application
}

func newRootCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	c := &cli{stdin: stdin, stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:           appName,
		Short:         "Extract the registrable domain from URLs, host names and free text",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup()
		},
	}
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (YAML, JSON or TOML); defaults to $"+configFileEnv)
	root.PersistentFlags().BoolVar(&c.noColor, "no-color", false, "disable colored output")

	root.AddCommand(c.parseCommand(), c.scanCommand(), c.indexCommand(), c.versionCommand())
	return root
}

// execute runs the command line and returns the process exit code. Errors are
// printed once, here; cobra's own error output is silenced.
func execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	root := newRootCommand(stdin, stdout, stderr)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		_, _ = errorColor.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

func (c *cli) setup() error {
	path := c.configPath
	if path == "" {
		path = os.Getenv(configFileEnv)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	if err := log.Configure(cfg.Env, cfg.LogLevel); err != nil {
		return fmt.Errorf("logging configuration error: %w", err)
	}
	configureColor(c.stdout, c.noColor)

	app, err := buildApplication(cfg)
	if err != nil {
		return err
	}
	c.app = app
	return nil
}

func (c *cli) parseCommand() *cobra.Command {
	var strict, asJSON bool
	cmd := &cobra.Command{
		Use:   "parse <text>...",
		Short: "Print the first domain found in the arguments",
		Long: "Joins the arguments with spaces and prints the first domain found in the text.\n" +
			"With --strict, exits non-zero when no domain is found.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := strings.Join(args, " ")
			res := c.app.parser.Parse(input)
			if err := writeResult(c.stdout, asJSON, scanner.Record{Line: 0, Result: res}); err != nil {
				return err
			}
			if strict && !res.Matched {
				pe := &subdomains.ParseError{Input: input}
				log.Info(map[string]any{"detail": pe.Detail()}, "strict parse failed")
				return pe
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "fail when no domain is found")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}

func (c *cli) scanCommand() *cobra.Command {
	var (
		file        string
		unique      bool
		asJSON      bool
		useIndex    bool
		inputFormat string
	)
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Print the first domain of every input line",
		Long: "Reads lines from --file (or stdin) and prints one result per line, in input order.\n" +
			"With --index, domain counts are recorded in the index database.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in := c.stdin
			if file != "" && file != "-" {
				f, err := os.Open(file)
				if err != nil {
					return fmt.Errorf("failed to open input: %w", err)
				}
				defer f.Close()
				in = f
			}

			run, err := c.app.newScanRun(scanSettings{
				unique:      unique,
				useIndex:    useIndex,
				inputFormat: scanner.InputFormat(inputFormat),
			})
			if err != nil {
				return err
			}
			defer func() {
				if err := run.close(); err != nil {
					log.Warn(map[string]any{"error": err}, "failed to close index")
				}
			}()

			sum, err := run.scanner.Scan(cmd.Context(), in, func(rec scanner.Record) error {
				return writeResult(c.stdout, asJSON, rec)
			})
			if err != nil {
				return err
			}
			bits, hashes := run.seen.Params()
			log.Debug(map[string]any{
				"estimated_domains": run.seen.EstimatedCount(),
				"bits":              bits,
				"hashes":            hashes,
			}, "seen filter")
			writeSummary(c.stderr, sum)
			return c.app.writeMetrics()
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "input file, one entry per line (default stdin)")
	cmd.Flags().BoolVarP(&unique, "unique", "u", false, "print each registrable domain only once")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON lines")
	cmd.Flags().BoolVar(&useIndex, "index", false, "record domain counts in the index database")
	cmd.Flags().StringVar(&inputFormat, "input-format", string(scanner.InputText), "input line format: text or json")
	return cmd
}

func (c *cli) indexCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Inspect the domain index written by scan --index",
	}

	var limit int
	top := &cobra.Command{
		Use:   "top",
		Short: "List the most frequently seen domains",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit < 0 {
				return errors.New("--limit must not be negative")
			}
			store, err := c.app.openIndex()
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.Top(limit)
			if err != nil {
				return err
			}
			writeEntries(c.stdout, entries)
			return nil
		},
	}
	top.Flags().IntVarP(&limit, "limit", "n", 10, "number of domains to list (0 for all)")

	stats := &cobra.Command{
		Use:   "stats",
		Short: "Summarize the index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := c.app.openIndex()
			if err != nil {
				return err
			}
			defer store.Close()

			st, err := store.Stats()
			if err != nil {
				return err
			}
			writeIndexStats(c.stdout, c.app.config.IndexPath, st)
			return nil
		},
	}

	lookup := &cobra.Command{
		Use:   "lookup <domain>",
		Short: "Show the count and last sighting of one domain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.app.openIndex()
			if err != nil {
				return err
			}
			defer store.Close()

			name := utils.CanonicalHost(args[0])
			entry, found, err := store.Lookup(name)
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("%s is not in the index", name)
			}
			writeEntries(c.stdout, []index.Entry{entry})
			return nil
		},
	}

	var suffixLimit int
	suffix := &cobra.Command{
		Use:   "suffix <suffix>",
		Short: "List indexed domains under a public suffix, e.g. com or co.uk",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if suffixLimit < 0 {
				return errors.New("--limit must not be negative")
			}
			store, err := c.app.openIndex()
			if err != nil {
				return err
			}
			defer store.Close()

			var entries []index.Entry
			err = store.WithSuffix(utils.TrimLeadingDot(utils.CanonicalHost(args[0])), func(e index.Entry) bool {
				entries = append(entries, e)
				return suffixLimit == 0 || len(entries) < suffixLimit
			})
			if err != nil {
				return err
			}
			writeEntries(c.stdout, entries)
			return nil
		},
	}
	suffix.Flags().IntVarP(&suffixLimit, "limit", "n", 0, "maximum number of domains to list (0 for all)")

	cmd.AddCommand(top, stats, lookup, suffix)
	return cmd
}

func (c *cli) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(c.stdout, "%s %s\n", appName, subdomains.Version)
			return err
		},
	}
}
