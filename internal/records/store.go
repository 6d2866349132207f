// Package records provides the Record Store: an append-only collection of
// report records persisted as one JSON array under a single key.
package records

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	apperrors "github.com/statistics102/course-monitor/internal/errors"
	"github.com/statistics102/course-monitor/internal/idgen"
	"github.com/statistics102/course-monitor/internal/kv"
	"github.com/statistics102/course-monitor/internal/logging"
	"github.com/statistics102/course-monitor/internal/models"
)

// Key is the slot holding the record collection.
const Key = "courseProgressData"

// Store reads and rewrites the full record collection on every change.
type Store struct {
	kv  kv.Store
	ids idgen.Generator
	now func() time.Time

	// serializes read-modify-write cycles within this process
	mu sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates a Record Store on top of store.
func NewStore(store kv.Store, ids idgen.Generator, opts ...Option) *Store {
	s := &Store{
		kv:  store,
		ids: ids,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type observer interface {
	Observe(id int64)
}

// Append stores a new record built from fields and returns its id.
func (s *Store) Append(ctx context.Context, fields models.ReportFields) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.load(ctx)
	if err != nil {
		return 0, err
	}

	var maxID int64
	for _, r := range existing {
		if r.ID > maxID {
			maxID = r.ID
		}
	}
	id := s.ids.Next()
	if id <= maxID {
		id = maxID + 1
		if o, ok := s.ids.(observer); ok {
			o.Observe(id)
		}
	}

	record := models.ReportRecord{
		ID:           id,
		Timestamp:    models.FormatTimestamp(s.now()),
		ReportFields: fields,
	}
	existing = append(existing, record)

	data, err := json.Marshal(existing)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternal, "failed to encode records", err)
	}
	if err := s.kv.Set(ctx, Key, data); err != nil {
		logging.Error("Failed to save record", err, map[string]interface{}{"id": id})
		return 0, err
	}

	logging.Debug("Record saved", map[string]interface{}{"id": id, "total": len(existing)})
	return id, nil
}

// ListAll returns every record in insertion order. The result is never nil.
func (s *Store) ListAll(ctx context.Context) ([]models.ReportRecord, error) {
	return s.load(ctx)
}

// Get returns the record with id. A miss is reported through ok.
func (s *Store) Get(ctx context.Context, id int64) (models.ReportRecord, bool, error) {
	all, err := s.load(ctx)
	if err != nil {
		return models.ReportRecord{}, false, err
	}
	for _, r := range all {
		if r.ID == id {
			return r, true, nil
		}
	}
	return models.ReportRecord{}, false, nil
}

// ClearAll removes the whole collection. Clearing an empty store succeeds.
func (s *Store) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.kv.Delete(ctx, Key); err != nil {
		logging.Error("Failed to clear records", err)
		return err
	}
	return nil
}

func (s *Store) load(ctx context.Context) ([]models.ReportRecord, error) {
	data, ok, err := s.kv.Get(ctx, Key)
	if err != nil {
		return nil, err
	}
	records := []models.ReportRecord{}
	if !ok || len(data) == 0 {
		return records, nil
	}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCorruptedData, "stored records are not valid JSON", err)
	}
	if records == nil {
		// the slot held a JSON null
		records = []models.ReportRecord{}
	}
	return records, nil
}
