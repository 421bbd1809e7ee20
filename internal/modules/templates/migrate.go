package templates

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/tanishqkrk-asymmetri/bookleaf-mvp-sub000/internal/models"
)

// Migrate folds legacy one-document-per-template records into the single
// document. It does nothing once the document exists. It returns how many
// templates were migrated.
func (s *Service) Migrate(ctx context.Context) (int, error) {
	doc, err := s.repo.Load(ctx)
	if err != nil {
		return 0, err
	}
	if doc != nil {
		s.logger.Info("template document already exists, skipping legacy migration")
		return 0, nil
	}

	legacy, err := s.repo.LoadLegacy(ctx)
	if err != nil {
		return 0, err
	}
	if len(legacy) == 0 {
		s.logger.Info("no legacy templates found")
		return 0, nil
	}

	now := s.now()
	out := make([]models.Template, 0, len(legacy))
	for _, l := range legacy {
		t := models.Template{
			ID:        legacyID(l.ID),
			Name:      l.Name,
			CoverData: l.CoverData.Clone(),
			UpdatedAt: now,
		}
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		if t.CoverData.EditTrace == nil {
			t.CoverData.EditTrace = []models.EditEvent{}
		}
		if err := t.CoverData.Validate(); err != nil {
			s.logger.Warn("legacy template has invalid cover data, keeping it as is",
				zap.String("id", t.ID), zap.Error(err))
		}
		out = append(out, t)
	}

	if _, err := s.repo.Store(ctx, out, now, Absent); err != nil {
		if errors.Is(err, ErrVersionConflict) {
			s.logger.Warn("template document was created during migration, leaving it untouched")
			return 0, nil
		}
		return 0, err
	}
	s.logger.Info("legacy templates migrated", zap.Int("count", len(out)))
	return len(out), nil
}

func legacyID(v any) string {
	switch id := v.(type) {
	case primitive.ObjectID:
		return id.Hex()
	case string:
		return id
	case nil:
		return ""
	}
	return fmt.Sprint(v)
}
