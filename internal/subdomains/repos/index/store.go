// Package index persists registrable domains extracted by scans in a bbolt database.
package index

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"sort"
	"time"

	bbolt "go.etcd.io/bbolt"

	"github.com/haukened/subdomains/internal/subdomains/services/scanner"
)

var (
	bucketDomains = []byte("domains")
	bucketRuns    = []byte("runs")
	bucketMeta    = []byte("meta")

	keyLastRun  = []byte("last_run")
	keyUpdated  = []byte("updated")
	keyVersion  = []byte("version")
	schemaValue = uint64(1)
)

// ErrEmptyRunID is returned by Record when no run identifier is given.
var ErrEmptyRunID = errors.New("index: run id must not be empty")

// Entry is one indexed domain.
type Entry struct {
	Domain   string
	Count    uint64
	LastSeen time.Time
}

// Stats summarizes the index.
type Stats struct {
	Domains     uint64
	Runs        uint64
	LastRunID   string
	UpdatedUnix int64
	Version     uint64
}

// Store implements scanner.Index on bbolt.
type Store struct {
	db *bbolt.DB
}

// Open opens (or creates) the database at path and ensures buckets exist.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketDomains, bucketRuns, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return tx.Bucket(bucketMeta).Put(keyVersion, encodeUint64(schemaValue))
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Record adds counts to the stored totals and registers the run, in one transaction.
func (s *Store) Record(runID string, counts map[string]uint64, at time.Time) error {
	if runID == "" {
		return ErrEmptyRunID
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		domains := tx.Bucket(bucketDomains)
		var total uint64
		for name, n := range counts {
			if name == "" || n == 0 {
				continue
			}
			prev, _ := decodeEntry(domains.Get([]byte(name)))
			if err := domains.Put([]byte(name), encodeEntry(prev+n, at)); err != nil {
				return fmt.Errorf("put %q: %w", name, err)
			}
			total += n
		}
		if err := tx.Bucket(bucketRuns).Put([]byte(runID), encodeEntry(total, at)); err != nil {
			return err
		}
		meta := tx.Bucket(bucketMeta)
		if err := meta.Put(keyLastRun, []byte(runID)); err != nil {
			return err
		}
		return meta.Put(keyUpdated, encodeUint64(uint64(at.Unix())))
	})
}

// Lookup returns the entry for name.
func (s *Store) Lookup(name string) (Entry, bool, error) {
	var (
		e     Entry
		found bool
	)
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketDomains).Get([]byte(name))
		if v == nil {
			return nil
		}
		count, seen := decodeEntry(v)
		e = Entry{Domain: name, Count: count, LastSeen: seen}
		found = true
		return nil
	})
	return e, found, err
}

// Top returns up to limit entries ordered by count, then name.
// limit <= 0 returns every entry.
func (s *Store) Top(limit int) ([]Entry, error) {
	var out []Entry
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketDomains).ForEach(func(k, v []byte) error {
			count, seen := decodeEntry(v)
			out = append(out, Entry{Domain: string(k), Count: count, LastSeen: seen})
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Domain < out[j].Domain
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// WithSuffix visits entries whose domain ends in "."+suffix, in key order.
// visit returning false stops the walk.
func (s *Store) WithSuffix(suffix string, visit func(Entry) bool) error {
	want := []byte("." + suffix)
	return s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketDomains).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			if !bytes.HasSuffix(k, want) {
				continue
			}
			count, seen := decodeEntry(v)
			if !visit(Entry{Domain: string(k), Count: count, LastSeen: seen}) {
				return nil
			}
		}
		return nil
	})
}

// Stats reports bucket sizes and run metadata.
func (s *Store) Stats() (Stats, error) {
	var st Stats
	err := s.db.View(func(tx *bbolt.Tx) error {
		st.Domains = uint64(tx.Bucket(bucketDomains).Stats().KeyN)
		st.Runs = uint64(tx.Bucket(bucketRuns).Stats().KeyN)
		meta := tx.Bucket(bucketMeta)
		st.LastRunID = string(meta.Get(keyLastRun))
		if v := meta.Get(keyUpdated); len(v) == 8 {
			st.UpdatedUnix = int64(binary.BigEndian.Uint64(v))
		}
		if v := meta.Get(keyVersion); len(v) == 8 {
			st.Version = binary.BigEndian.Uint64(v)
		}
		return nil
	})
	if err != nil {
		return Stats{}, fmt.Errorf("read index stats: %w", err)
	}
	return st, nil
}

// entries are stored as count (8 bytes) followed by last-seen unix seconds (8 bytes).
func encodeEntry(count uint64, at time.Time) []byte {
	buf := make([]byte, 16)
	binary.BigEndian.PutUint64(buf[:8], count)
	binary.BigEndian.PutUint64(buf[8:], uint64(at.Unix()))
	return buf
}

func decodeEntry(v []byte) (uint64, time.Time) {
	if len(v) != 16 {
		return 0, time.Time{}
	}
	count := binary.BigEndian.Uint64(v[:8])
	seen := time.Unix(int64(binary.BigEndian.Uint64(v[8:])), 0).UTC()
	return count, seen
}

func encodeUint64(n uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, n)
	return buf
}

var _ scanner.Index = (*Store)(nil)
