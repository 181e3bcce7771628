package results

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/dgallion1/pagecraft/internal/engine"
	"github.com/oklog/ulid/v2"
)

// Record is one finished transformation kept for preview and download.
type Record struct {
	ID          string                `json:"result_id"`
	Filename    string                `json:"filename"`
	ContentType string                `json:"content_type"`
	Kind        engine.OutputKind     `json:"kind"`
	Source      engine.Source         `json:"source"`
	Operations  engine.OperationSet   `json:"operations"`
	Headings    []engine.HeadingEntry `json:"headings,omitempty"`
	InputName   string                `json:"input_name,omitempty"`
	InputFormat string                `json:"input_format,omitempty"`
	InputHash   string                `json:"input_hash"`
	Output      string                `json:"output"`
	CreatedAt   time.Time             `json:"created_at"`
}

// NewRecord captures an engine result. The download filename and content type
// follow the output kind.
func NewRecord(res *engine.Result, input string) *Record {
	return &Record{
		ID:          NewID(),
		Filename:    res.Kind.Filename(),
		ContentType: res.Kind.ContentType(),
		Kind:        res.Kind,
		Source:      res.Source,
		Operations:  res.Operations,
		Headings:    res.Headings,
		InputHash:   ContentHashHex([]byte(input)),
		Output:      res.Output,
		CreatedAt:   time.Now(),
	}
}

// NewID returns a fresh, time-sortable result id.
func NewID() string {
	return ulid.Make().String()
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}

// Store is a thread-safe in-memory result registry with TTL eviction.
// Records are treated as immutable once stored.
type Store struct {
	mu      sync.Mutex
	records map[string]*Record
	ttl     time.Duration
	now     func() time.Time
}

func NewStore(ttl time.Duration) *Store {
	return &Store{
		records: make(map[string]*Record),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *Store) Put(r *Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == "" {
		r.ID = NewID()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = s.now()
	}
	s.records[r.ID] = r
}

// Get returns the record for id, or nil when unknown or expired.
func (s *Store) Get(id string) *Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.records[id]
	if r == nil || s.expired(r) {
		return nil
	}
	return r
}

// Len reports how many records are held, expired ones included.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Cleanup removes expired records and returns how many it dropped.
func (s *Store) Cleanup() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, r := range s.records {
		if s.expired(r) {
			delete(s.records, id)
			n++
		}
	}
	return n
}

// Run calls Cleanup every interval until ctx is done.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Cleanup()
		}
	}
}

func (s *Store) expired(r *Record) bool {
	return s.ttl > 0 && s.now().Sub(r.CreatedAt) > s.ttl
}
