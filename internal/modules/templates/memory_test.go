package templates

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/tanishqkrk-asymmetri/bookleaf-mvp-sub000/internal/models"
)

// memoryRepository stores the document in memory with the same version rules
// as the Mongo repository.
type memoryRepository struct {
	mu      sync.Mutex
	doc     *models.TemplateDocument
	legacy  []models.LegacyTemplate
	stores  int
	loadErr error
	// beforeStore runs once, inside Store, to simulate a concurrent writer.
	beforeStore func(doc *models.TemplateDocument)
	// legacyHook runs inside LoadLegacy, between Migrate's existence check and its write.
	legacyHook func()
}

func (m *memoryRepository) Load(context.Context) (*models.TemplateDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if m.doc == nil {
		return nil, nil
	}
	cp := *m.doc
	cp.AllTemplates = models.CloneTemplates(m.doc.AllTemplates)
	return &cp, nil
}

func (m *memoryRepository) Store(_ context.Context, templates []models.Template, now time.Time, expect int64) (*models.TemplateDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.beforeStore != nil && m.doc != nil {
		m.beforeStore(m.doc)
		m.beforeStore = nil
	}
	m.stores++
	switch {
	case expect == Absent && m.doc != nil,
		expect == Unversioned && (m.doc == nil || m.doc.Version != 0),
		expect > 0 && (m.doc == nil || m.doc.Version != expect):
		return nil, ErrVersionConflict
	}
	if m.doc == nil {
		m.doc = &models.TemplateDocument{ID: "templates"}
	}
	m.doc.AllTemplates = models.CloneTemplates(templates)
	m.doc.LastModified = now
	m.doc.Version++
	cp := *m.doc
	cp.AllTemplates = models.CloneTemplates(m.doc.AllTemplates)
	return &cp, nil
}

func (m *memoryRepository) LoadLegacy(context.Context) ([]models.LegacyTemplate, error) {
	if m.legacyHook != nil {
		m.mu.Lock()
		m.legacyHook()
		m.mu.Unlock()
	}
	if m.legacy == nil {
		return nil, errors.New("legacy collection missing")
	}
	return m.legacy, nil
}
