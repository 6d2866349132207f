// Package attachments provides the Attachment Store: an append-only
// collection of file payloads, each tagged with its owning record's id and
// kept as a data URI inside one JSON array.
package attachments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/statistics102/course-monitor/internal/datauri"
	"github.com/statistics102/course-monitor/internal/downloads"
	apperrors "github.com/statistics102/course-monitor/internal/errors"
	"github.com/statistics102/course-monitor/internal/kv"
	"github.com/statistics102/course-monitor/internal/logging"
	"github.com/statistics102/course-monitor/internal/models"
)

// Key is the slot holding the attachment collection.
const Key = "courseProgressFiles"

// Store reads and rewrites the full attachment collection on every change.
type Store struct {
	kv    kv.Store
	codec datauri.Codec
	now   func() time.Time

	mu sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates an Attachment Store on top of store.
func NewStore(store kv.Store, codec datauri.Codec, opts ...Option) *Store {
	s := &Store{
		kv:    store,
		codec: codec,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AppendAsync reads and encodes src in the background, then appends the
// attachment tagged with ownerID. A read or encode failure resolves the
// result with an ENCODE_FAILED error and writes nothing. Cancelling ctx
// does not interrupt the work once started.
func (s *Store) AppendAsync(ctx context.Context, src FileSource, ownerID int64) *Pending {
	p := newPending()
	bg := context.WithoutCancel(ctx)
	go func() {
		p.resolve(s.append(bg, src, ownerID))
	}()
	return p
}

// Append is AppendAsync followed by Wait.
func (s *Store) Append(ctx context.Context, src FileSource, ownerID int64) (models.Attachment, error) {
	return s.AppendAsync(ctx, src, ownerID).Wait(ctx)
}

func (s *Store) append(ctx context.Context, src FileSource, ownerID int64) (models.Attachment, error) {
	data, err := s.encode(src)
	if err != nil {
		logging.Error("Failed to encode attachment", err, map[string]interface{}{"id": ownerID, "name": src.Name})
		return models.Attachment{}, err
	}

	att := models.Attachment{
		ID:        ownerID,
		Name:      src.Name,
		Type:      src.MediaType,
		Data:      data,
		Timestamp: models.FormatTimestamp(s.now()),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.load(ctx)
	if err != nil {
		return models.Attachment{}, err
	}
	existing = append(existing, att)

	raw, err := json.Marshal(existing)
	if err != nil {
		return models.Attachment{}, apperrors.Wrap(apperrors.ErrInternal, "failed to encode attachments", err)
	}
	if err := s.kv.Set(ctx, Key, raw); err != nil {
		logging.Error("Failed to save attachment", err, map[string]interface{}{"id": ownerID})
		return models.Attachment{}, err
	}

	logging.Debug("Attachment saved", map[string]interface{}{"id": ownerID, "name": att.Name, "encoded_bytes": len(data)})
	return att, nil
}

func (s *Store) encode(src FileSource) (string, error) {
	if src.Open == nil {
		return "", apperrors.New(apperrors.ErrEncodeFailed, "file source has no content")
	}
	rc, err := src.Open()
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrEncodeFailed, fmt.Sprintf("failed to open %q", src.Name), err)
	}
	defer rc.Close()

	content, err := io.ReadAll(rc)
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrEncodeFailed, fmt.Sprintf("failed to read %q", src.Name), err)
	}

	uri, err := s.codec.Encode(content, src.MediaType)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrEncodeFailed) {
			return "", err
		}
		return "", apperrors.Wrap(apperrors.ErrEncodeFailed, fmt.Sprintf("failed to encode %q", src.Name), err)
	}
	return uri, nil
}

// ListAll returns every attachment in insertion order. The result is never nil.
func (s *Store) ListAll(ctx context.Context) ([]models.Attachment, error) {
	return s.load(ctx)
}

// FindByOwner returns the first attachment whose id equals id.
func (s *Store) FindByOwner(ctx context.Context, id int64) (models.Attachment, bool, error) {
	all, err := s.load(ctx)
	if err != nil {
		return models.Attachment{}, false, err
	}
	att, ok := First(all, id)
	return att, ok, nil
}

// First returns the first attachment in all owned by id.
func First(all []models.Attachment, id int64) (models.Attachment, bool) {
	for _, a := range all {
		if a.ID == id {
			return a, true
		}
	}
	return models.Attachment{}, false
}

// Decode returns the original content and media type of att.
func (s *Store) Decode(att models.Attachment) ([]byte, string, error) {
	return s.codec.Decode(att.Data)
}

// TriggerDownload hands the attachment owned by id to saver under its
// original name. A missing attachment is a no-op and reports false.
func (s *Store) TriggerDownload(ctx context.Context, id int64, saver downloads.Saver) (bool, error) {
	att, ok, err := s.FindByOwner(ctx, id)
	if err != nil || !ok {
		return false, err
	}

	content, mediaType, err := s.Decode(att)
	if err != nil {
		return true, err
	}
	if att.Type != "" {
		mediaType = att.Type
	}

	path, err := saver.Save(ctx, att.Name, mediaType, bytes.NewReader(content))
	if err != nil {
		return true, err
	}
	logging.Info("Attachment downloaded", map[string]interface{}{"id": id, "path": path})
	return true, nil
}

// ClearAll removes the whole collection. Clearing an empty store succeeds.
func (s *Store) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.kv.Delete(ctx, Key); err != nil {
		logging.Error("Failed to clear attachments", err)
		return err
	}
	return nil
}

func (s *Store) load(ctx context.Context) ([]models.Attachment, error) {
	raw, ok, err := s.kv.Get(ctx, Key)
	if err != nil {
		return nil, err
	}
	all := []models.Attachment{}
	if !ok || len(raw) == 0 {
		return all, nil
	}
	if err := json.Unmarshal(raw, &all); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCorruptedData, "stored attachments are not valid JSON", err)
	}
	if all == nil {
		all = []models.Attachment{}
	}
	return all, nil
}
