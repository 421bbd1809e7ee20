// Package templates serves the shared template document: one stored array
// that every write replaces as a whole.
package templates

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tanishqkrk-asymmetri/bookleaf-mvp-sub000/internal/models"
)

var (
	ErrValidation      = errors.New("validation failed")
	ErrNotFound        = errors.New("template not found")
	ErrLastTemplate    = errors.New("cannot delete the last remaining template")
	ErrVersionConflict = errors.New("template document was modified concurrently")
)

// casRetries bounds the internal read-modify-write loop of element writes.
const casRetries = 3

// Snapshot is the document as returned to clients.
type Snapshot struct {
	Templates    []models.Template `json:"data"`
	Version      int64             `json:"version"`
	LastModified time.Time         `json:"lastModified"`
}

func snapshotOf(doc *models.TemplateDocument) Snapshot {
	if doc == nil {
		return Snapshot{Templates: []models.Template{}}
	}
	return Snapshot{
		Templates:    models.CloneTemplates(doc.AllTemplates),
		Version:      doc.Version,
		LastModified: doc.LastModified,
	}
}

type Service struct {
	repo   Repository
	logger *zap.Logger
	now    func() time.Time
}

func NewService(repo Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// FetchAll returns the stored collection, empty when nothing was saved yet.
func (s *Service) FetchAll(ctx context.Context) (Snapshot, error) {
	doc, err := s.repo.Load(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	return snapshotOf(doc), nil
}

// Get returns one stored template.
func (s *Service) Get(ctx context.Context, id string) (models.Template, error) {
	doc, err := s.repo.Load(ctx)
	if err != nil {
		return models.Template{}, err
	}
	if doc != nil {
		for _, t := range doc.AllTemplates {
			if t.ID == id {
				return t.Clone(), nil
			}
		}
	}
	return models.Template{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// SaveAll replaces the whole collection in one write. Templates without an id
// get a server id; every template is stamped with the write time.
func (s *Service) SaveAll(ctx context.Context, templates []models.Template, baseVersion int64) (Snapshot, error) {
	if len(templates) == 0 {
		return Snapshot{}, fmt.Errorf("%w: at least one template is required", ErrValidation)
	}
	if baseVersion < 0 {
		return Snapshot{}, fmt.Errorf("%w: version must not be negative", ErrValidation)
	}
	now := s.now()
	stored := models.CloneTemplates(templates)
	seen := make(map[string]struct{}, len(stored))
	for i := range stored {
		t := &stored[i]
		t.ID = strings.TrimSpace(t.ID)
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		if _, dup := seen[t.ID]; dup {
			return Snapshot{}, fmt.Errorf("%w: duplicate template id %q", ErrValidation, t.ID)
		}
		seen[t.ID] = struct{}{}
		if err := t.CoverData.Validate(); err != nil {
			return Snapshot{}, fmt.Errorf("%w: template %q: %v", ErrValidation, t.ID, err)
		}
		if t.CoverData.EditTrace == nil {
			t.CoverData.EditTrace = []models.EditEvent{}
		}
		t.UpdatedAt = now
	}

	doc, err := s.repo.Store(ctx, stored, now, baseVersion)
	if err != nil {
		return Snapshot{}, err
	}
	s.logger.Info("templates saved", zap.Int("count", len(stored)), zap.Int64("version", doc.Version))
	return snapshotOf(doc), nil
}

// UpdateInput is the replacement for one template. A nil Name keeps the stored name.
type UpdateInput struct {
	Name      *string
	CoverData models.CoverData
}

// UpdateOne replaces one template's cover and rewrites the whole document.
func (s *Service) UpdateOne(ctx context.Context, id string, in UpdateInput, baseVersion int64) (Snapshot, error) {
	if strings.TrimSpace(id) == "" {
		return Snapshot{}, fmt.Errorf("%w: template id is required", ErrValidation)
	}
	if err := in.CoverData.Validate(); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return s.modify(ctx, baseVersion, func(all []models.Template, now time.Time) ([]models.Template, error) {
		for i := range all {
			if all[i].ID != id {
				continue
			}
			all[i].CoverData = in.CoverData.Clone()
			if all[i].CoverData.EditTrace == nil {
				all[i].CoverData.EditTrace = []models.EditEvent{}
			}
			if in.Name != nil {
				all[i].Name = *in.Name
			}
			all[i].UpdatedAt = now
			return all, nil
		}
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	})
}

// DeleteOne filters one template out and rewrites the whole document.
// The last template cannot be deleted.
func (s *Service) DeleteOne(ctx context.Context, id string, baseVersion int64) (Snapshot, error) {
	return s.modify(ctx, baseVersion, func(all []models.Template, _ time.Time) ([]models.Template, error) {
		idx := -1
		for i := range all {
			if all[i].ID == id {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		if len(all) <= 1 {
			return nil, ErrLastTemplate
		}
		return append(all[:idx], all[idx+1:]...), nil
	})
}

// modify runs a read-modify-write of the stored array. With a client base
// version the write is conditional on it; without one, the service still
// guards its own read so concurrent element writes do not drop each other,
// retrying a few times before giving up.
func (s *Service) modify(ctx context.Context, baseVersion int64, fn func([]models.Template, time.Time) ([]models.Template, error)) (Snapshot, error) {
	if baseVersion < 0 {
		return Snapshot{}, fmt.Errorf("%w: version must not be negative", ErrValidation)
	}
	for attempt := 0; ; attempt++ {
		doc, err := s.repo.Load(ctx)
		if err != nil {
			return Snapshot{}, err
		}
		if doc == nil {
			return Snapshot{}, fmt.Errorf("%w: template document does not exist", ErrNotFound)
		}
		if baseVersion > 0 && doc.Version != baseVersion {
			return Snapshot{}, fmt.Errorf("%w: expected version %d, have %d", ErrVersionConflict, baseVersion, doc.Version)
		}

		now := s.now()
		next, err := fn(models.CloneTemplates(doc.AllTemplates), now)
		if err != nil {
			return Snapshot{}, err
		}

		expect := baseVersion
		if expect == AnyVersion {
			expect = doc.Version
		}
		if expect == 0 {
			expect = Unversioned
		}
		stored, err := s.repo.Store(ctx, next, now, expect)
		if errors.Is(err, ErrVersionConflict) && baseVersion == 0 && attempt+1 < casRetries {
			s.logger.Debug("template document changed during write, retrying", zap.Int("attempt", attempt+1))
			continue
		}
		if err != nil {
			return Snapshot{}, err
		}
		return snapshotOf(stored), nil
	}
}
