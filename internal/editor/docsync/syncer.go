package docsync

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/tanishqkrk-asymmetri/bookleaf-mvp-sub000/internal/editor/document"
	"github.com/tanishqkrk-asymmetri/bookleaf-mvp-sub000/internal/models"
)

type Options struct {
	// Strict sends the last known version with every write so concurrent
	// writers get ErrVersionConflict instead of silently overwriting each other.
	Strict bool
	Logger *zap.Logger
}

// Syncer persists a document.Model through a Remote.
type Syncer struct {
	remote Remote
	model  *document.Model
	strict bool
	logger *zap.Logger

	mu       sync.Mutex
	version  int64
	revision uint64
}

func NewSyncer(remote Remote, model *document.Model, opts Options) *Syncer {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Syncer{remote: remote, model: model, strict: opts.Strict, logger: logger}
	model.Subscribe(func(document.Change) {
		s.mu.Lock()
		s.revision++
		s.mu.Unlock()
	})
	return s
}

func (s *Syncer) Model() *document.Model { return s.model }

// Version is the remote document version last observed.
func (s *Syncer) Version() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// Hydrate loads the remote collection into the model. An empty document or a
// failed fetch leaves the editor on the default template; it reports whether
// remote data was loaded.
func (s *Syncer) Hydrate(ctx context.Context) bool {
	snap, err := s.remote.FetchAll(ctx)
	if err != nil {
		s.logger.Warn("fetch templates failed, using default template", zap.Error(err))
		s.model.Replace(nil)
		return false
	}
	s.mu.Lock()
	s.version = snap.Version
	s.mu.Unlock()

	s.model.Replace(snap.Templates)
	if len(snap.Templates) == 0 {
		s.logger.Info("no stored templates, using default template")
		return false
	}
	s.logger.Debug("templates loaded", zap.Int("count", len(snap.Templates)), zap.Int64("version", snap.Version))
	return true
}

// SaveAll writes the whole collection. On success the stored array, with any
// server-assigned ids, replaces the local one unless the model changed meanwhile.
func (s *Syncer) SaveAll(ctx context.Context) error {
	base, rev := s.begin()
	snap, err := s.remote.SaveAll(ctx, s.model.Templates(), base)
	if err != nil {
		return s.fail("save templates", err)
	}
	s.adopt(snap, base, rev)
	return nil
}

// SaveCurrent writes only the selected template. A template the store has
// never seen is saved with the whole collection instead.
func (s *Syncer) SaveCurrent(ctx context.Context) error {
	cur := s.model.Current()
	base, rev := s.begin()
	snap, err := s.remote.UpdateOne(ctx, cur.ID, cur, base)
	if errors.Is(err, ErrNotFound) {
		s.logger.Debug("template not stored yet, saving collection", zap.String("id", cur.ID))
		return s.SaveAll(ctx)
	}
	if err != nil {
		return s.fail("save template", err)
	}
	s.adopt(snap, base, rev)
	return nil
}

// AddTemplate clones sourceID into a new selected template and saves the collection.
// The template stays in the model when the save fails.
func (s *Syncer) AddTemplate(ctx context.Context, sourceID, name string) (models.Template, error) {
	t, err := s.model.Add(sourceID, name)
	if err != nil {
		return models.Template{}, err
	}
	if err := s.SaveAll(ctx); err != nil {
		return t, err
	}
	return s.model.Current(), nil
}

// DeleteTemplate removes id and saves the collection. The last template is
// refused before anything is sent.
func (s *Syncer) DeleteTemplate(ctx context.Context, id string) error {
	if err := s.model.Delete(id); err != nil {
		return err
	}
	return s.SaveAll(ctx)
}

func (s *Syncer) begin() (base int64, rev uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.strict {
		base = s.version
	}
	return base, s.revision
}

func (s *Syncer) adopt(snap Snapshot, base int64, rev uint64) {
	s.mu.Lock()
	known := s.version
	if snap.Version < known {
		// a slower save finished after a newer one
		s.mu.Unlock()
		s.logger.Debug("ignoring stale save result",
			zap.Int64("known_version", known), zap.Int64("stored_version", snap.Version))
		return
	}
	s.version = snap.Version
	unchanged := s.revision == rev
	s.mu.Unlock()

	if base == 0 && known > 0 && snap.Version > known+1 {
		s.logger.Warn("overwrote a concurrent template write",
			zap.Int64("known_version", known), zap.Int64("stored_version", snap.Version))
	}
	if unchanged && len(snap.Templates) > 0 {
		s.model.Replace(snap.Templates)
	}
}

func (s *Syncer) fail(op string, err error) error {
	s.logger.Warn(op+" failed", zap.Error(err))
	return &SaveError{Op: op, Err: err}
}

// ShouldAutosave reports whether the cover carries user content worth saving:
// the title or the author name differs from its placeholder.
func ShouldAutosave(cover models.CoverData) bool {
	return cover.Front.Text.Title.Content != document.PlaceholderTitle ||
		cover.Front.Text.AuthorName.Content != document.PlaceholderAuthor
}
