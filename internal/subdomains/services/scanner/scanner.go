// Package scanner runs the parser over line-oriented input with a bounded
// worker pool, emitting one record per line in input order.
package scanner

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/haukened/subdomains/internal/subdomains/common/clock"
	"github.com/haukened/subdomains/internal/subdomains/common/log"
	"github.com/haukened/subdomains/internal/subdomains/domain"
)

// InputFormat selects how each input line is interpreted.
type InputFormat string

const (
	// InputText parses each line as free text.
	InputText InputFormat = "text"
	// InputJSON decodes each line as a JSON value first. Strings are parsed,
	// anything else yields an unmatched record.
	InputJSON InputFormat = "json"
)

const (
	defaultBatchSize = 256
	maxLineSize      = 1 << 20
)

var ErrNoParser = errors.New("scanner: parser is required")

// Record is the outcome for one input line.
type Record struct {
	Line      int
	Result    domain.ParseResult
	Duplicate bool
	Cached    bool
}

// Summary describes a completed scan.
type Summary struct {
	RunID      string
	Lines      int
	Matched    int
	Unmatched  int
	Duplicates int
	CacheHits  int
	Duration   time.Duration

	// CacheEvictions counts results evicted from the cache during this scan.
	CacheEvictions uint64
}

type Scanner struct {
	parser      Parser
	cache       ResultCache
	seen        SeenFilter
	index       Index
	metrics     Metrics
	logger      log.Logger
	clock       clock.Clock
	workers     int
	batchSize   int
	unique      bool
	inputFormat InputFormat
}

type Options struct {
	Parser  Parser
	Cache   ResultCache
	Seen    SeenFilter
	Index   Index
	Metrics Metrics
	Logger  log.Logger
	Clock   clock.Clock
	Workers int
	// BatchSize is the number of lines parsed concurrently before results
	// are emitted. Defaults to 256.
	BatchSize int
	// Unique suppresses records whose registrable domain was already seen. Requires Seen.
	Unique      bool
	InputFormat InputFormat
}

func New(opts Options) (*Scanner, error) {
	if opts.Parser == nil {
		return nil, ErrNoParser
	}
	switch opts.InputFormat {
	case "":
		opts.InputFormat = InputText
	case InputText, InputJSON:
	default:
		return nil, fmt.Errorf("scanner: unknown input format %q", opts.InputFormat)
	}
	if opts.Unique && opts.Seen == nil {
		return nil, errors.New("scanner: unique output requires a seen filter")
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	if opts.Logger == nil {
		opts.Logger = log.NewNoopLogger()
	}
	if opts.Clock == nil {
		opts.Clock = &clock.RealClock{}
	}
	if opts.Metrics == nil {
		opts.Metrics = noopMetrics{}
	}
	return &Scanner{
		parser:      opts.Parser,
		cache:       opts.Cache,
		seen:        opts.Seen,
		index:       opts.Index,
		metrics:     opts.Metrics,
		logger:      opts.Logger,
		clock:       opts.Clock,
		workers:     opts.Workers,
		batchSize:   opts.BatchSize,
		unique:      opts.Unique,
		inputFormat: opts.InputFormat,
	}, nil
}

// Scan reads r line by line and calls emit for every record in input order.
// With Unique set, duplicate records are counted but not emitted. Domain
// counts are recorded in the index, if any, once the input is exhausted.
//
// Lines are parsed in batches of up to BatchSize; a partial batch is flushed
// whenever the reader has nothing more ready, so interactive input is
// answered line by line. Cancelling ctx stops the scan even while r blocks.
func (s *Scanner) Scan(ctx context.Context, r io.Reader, emit func(Record) error) (Summary, error) {
	started := s.clock.Now()
	sum := Summary{RunID: uuid.NewString()}
	counts := make(map[string]uint64)

	var evictionsBefore uint64
	if s.cache != nil {
		_, _, evictionsBefore = s.cache.Stats()
	}

	done := make(chan struct{})
	defer close(done)
	lines, readErr := s.readLines(r, done)

	batch := make([]string, 0, s.batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		records, err := s.parseBatch(ctx, sum.Lines-len(batch), batch)
		if err != nil {
			return err
		}
		batch = batch[:0]
		for _, rec := range records {
			if err := s.collect(&sum, counts, rec, emit); err != nil {
				return err
			}
		}
		return nil
	}

	for {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		var (
			line string
			ok   bool
		)
		select {
		case line, ok = <-lines:
		default:
			// input is idle: answer what we have before blocking
			if err := flush(); err != nil {
				return sum, err
			}
			select {
			case line, ok = <-lines:
			case <-ctx.Done():
				return sum, ctx.Err()
			}
		}
		if !ok {
			break
		}

		batch = append(batch, line)
		sum.Lines++
		if len(batch) == s.batchSize {
			if err := flush(); err != nil {
				return sum, err
			}
		}
	}
	if err := <-readErr; err != nil {
		return sum, fmt.Errorf("failed to read input: %w", err)
	}
	if err := flush(); err != nil {
		return sum, err
	}

	if s.index != nil && len(counts) > 0 {
		if err := s.index.Record(sum.RunID, counts, s.clock.Now()); err != nil {
			return sum, fmt.Errorf("failed to record run %s: %w", sum.RunID, err)
		}
	}

	if s.cache != nil {
		hits, misses, evictions := s.cache.Stats()
		sum.CacheEvictions = evictions - evictionsBefore
		s.logger.Debug(map[string]any{
			"entries":   s.cache.Len(),
			"hits":      hits,
			"misses":    misses,
			"evictions": evictions,
		}, "result cache")
	}

	sum.Duration = s.clock.Now().Sub(started)
	s.metrics.ObserveScan(sum.Duration)
	s.logger.Info(map[string]any{
		"run_id":          sum.RunID,
		"lines":           sum.Lines,
		"matched":         sum.Matched,
		"duplicates":      sum.Duplicates,
		"cache_hits":      sum.CacheHits,
		"cache_evictions": sum.CacheEvictions,
		"duration":        sum.Duration,
	}, "scan complete")
	return sum, nil
}

// readLines feeds the lines of r to the returned channel until EOF, a read
// error, or done is closed. At EOF or on a read error the error channel
// receives the scanner's error after the line channel is closed. A Read
// blocked in r keeps the goroutine alive until it returns.
func (s *Scanner) readLines(r io.Reader, done <-chan struct{}) (<-chan string, <-chan error) {
	lines := make(chan string, s.batchSize)
	readErr := make(chan error, 1)
	go func() {
		defer close(readErr)
		defer close(lines)
		sc := bufio.NewScanner(r)
		sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-done:
				return
			}
		}
		readErr <- sc.Err()
	}()
	return lines, readErr
}

// parseBatch parses lines concurrently. offset is the number of lines that
// precede the batch.
func (s *Scanner) parseBatch(ctx context.Context, offset int, batch []string) ([]Record, error) {
	records := make([]Record, len(batch))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, line := range batch {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, cached := s.parseLine(line)
			records[i] = Record{Line: offset + i + 1, Result: res, Cached: cached}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return records, ctx.Err()
}

func (s *Scanner) parseLine(line string) (domain.ParseResult, bool) {
	if s.inputFormat == InputJSON {
		var v any
		if err := json.Unmarshal([]byte(line), &v); err != nil {
			s.logger.Debug(map[string]any{"line": line, "error": err}, "json_decode_failed")
			return domain.UnmatchedResult(line), false
		}
		text, ok := v.(string)
		if !ok {
			return s.parser.ParseAny(v), false
		}
		line = text
	}
	if s.cache == nil {
		return s.parser.Parse(line), false
	}
	if res, ok := s.cache.Get(line); ok {
		return res, true
	}
	res := s.parser.Parse(line)
	s.cache.Put(res)
	return res, false
}

// collect runs sequentially, in input order, so that "first seen" is well defined.
func (s *Scanner) collect(sum *Summary, counts map[string]uint64, rec Record, emit func(Record) error) error {
	s.metrics.ObserveLine()
	s.metrics.ObserveResult(rec.Result.Matched)
	if s.cache != nil {
		s.metrics.ObserveCache(rec.Cached)
	}
	if rec.Cached {
		sum.CacheHits++
	}

	if !rec.Result.Matched {
		sum.Unmatched++
		return emit(rec)
	}
	sum.Matched++
	key := domainKey(rec.Result)
	counts[key]++

	if s.seen != nil && s.seen.TestAndAdd(key) {
		rec.Duplicate = true
		sum.Duplicates++
		s.metrics.ObserveDuplicate()
		if s.unique {
			return nil
		}
	}
	return emit(rec)
}

// domainKey is the name a match is counted and de-duplicated under. The
// registrable domain keeps "a.example.co.uk" and "b.other.co.uk" apart, where
// the two-label root domain would merge them into "co.uk".
func domainKey(res domain.ParseResult) string {
	if res.RegistrableDomain != "" {
		return res.RegistrableDomain
	}
	return res.RootDomain
}

type noopMetrics struct{}

func (noopMetrics) ObserveLine()              {}
func (noopMetrics) ObserveResult(bool)        {}
func (noopMetrics) ObserveCache(bool)         {}
func (noopMetrics) ObserveDuplicate()         {}
func (noopMetrics) ObserveScan(time.Duration) {}
