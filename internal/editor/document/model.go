// Package document holds the in-memory template collection an editor works on.
package document

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tanishqkrk-asymmetri/bookleaf-mvp-sub000/internal/models"
)

var (
	ErrNotFound     = errors.New("template not found")
	ErrLastTemplate = errors.New("cannot delete the last remaining template")
)

type ChangeKind int

const (
	ChangeUpdate ChangeKind = iota
	ChangeAdd
	ChangeDelete
	ChangeSelect
	ChangeReplace
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeUpdate:
		return "update"
	case ChangeAdd:
		return "add"
	case ChangeDelete:
		return "delete"
	case ChangeSelect:
		return "select"
	case ChangeReplace:
		return "replace"
	}
	return "unknown"
}

// Change is delivered to subscribers after each mutation.
type Change struct {
	Kind ChangeKind
	// Current is the selected template after the mutation.
	Current models.Template
}

// Model is the current template plus the full collection.
// All values handed out are deep copies; mutations never touch them.
type Model struct {
	// writeMu serializes mutations together with their notifications so
	// subscribers observe changes in mutation order.
	writeMu sync.Mutex
	mu      sync.RWMutex

	current   models.Template
	templates []models.Template

	listeners map[int]func(Change)
	nextSub   int
	now       func() time.Time
}

type Option func(*Model)

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Model) { m.now = now }
}

// New builds a model over templates, selecting the first one.
// An empty collection is replaced by the default template.
func New(templates []models.Template, opts ...Option) *Model {
	m := &Model{listeners: map[int]func(Change){}, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	m.replaceLocked(templates)
	return m
}

func (m *Model) Current() models.Template {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current.Clone()
}

func (m *Model) Templates() []models.Template {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return models.CloneTemplates(m.templates)
}

func (m *Model) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.templates)
}

// Select makes the template with id current.
func (m *Model) Select(id string) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	m.mu.Lock()
	idx := m.indexLocked(id)
	if idx < 0 {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	m.current = m.templates[idx].Clone()
	cur := m.current.Clone()
	m.mu.Unlock()

	m.notify(Change{Kind: ChangeSelect, Current: cur})
	return nil
}

// Update applies fn to a deep copy of the current cover and stores the result
// as the new current template, both in the current slot and in the collection.
func (m *Model) Update(fn func(*models.CoverData)) models.Template {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	m.mu.Lock()
	next := m.current.Clone()
	fn(&next.CoverData)
	m.storeCurrentLocked(next)
	cur := next.Clone()
	m.mu.Unlock()

	m.notify(Change{Kind: ChangeUpdate, Current: cur})
	return cur
}

// Set assigns value to field of the current cover.
func (m *Model) Set(field Field, value any) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	m.mu.Lock()
	next := m.current.Clone()
	if err := Apply(&next.CoverData, field, value); err != nil {
		m.mu.Unlock()
		return err
	}
	m.storeCurrentLocked(next)
	cur := next.Clone()
	m.mu.Unlock()

	m.notify(Change{Kind: ChangeUpdate, Current: cur})
	return nil
}

// SetPath is Set addressed by field names, e.g. ["front","text","title","content"].
// Paths that do not name an existing field fail with ErrMissingField.
func (m *Model) SetPath(path []string, value any) error {
	field, err := ParseField(path)
	if err != nil {
		return err
	}
	return m.Set(field, value)
}

// Rename changes the name of the current template.
func (m *Model) Rename(name string) models.Template {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	m.mu.Lock()
	next := m.current.Clone()
	next.Name = name
	m.storeCurrentLocked(next)
	cur := next.Clone()
	m.mu.Unlock()

	m.notify(Change{Kind: ChangeUpdate, Current: cur})
	return cur
}

// Add clones the cover of sourceID (the current template when empty) into a new
// template with a fresh placeholder id and an empty edit trace, appends it and selects it.
func (m *Model) Add(sourceID, name string) (models.Template, error) {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	m.mu.Lock()
	src := m.current
	if sourceID != "" {
		idx := m.indexLocked(sourceID)
		if idx < 0 {
			m.mu.Unlock()
			return models.Template{}, fmt.Errorf("%w: %s", ErrNotFound, sourceID)
		}
		src = m.templates[idx]
	}

	now := m.now()
	t := models.Template{
		ID:        m.freshIDLocked(now),
		Name:      name,
		CoverData: src.CoverData.Clone(),
	}
	if t.Name == "" {
		t.Name = fmt.Sprintf("Template %d", len(m.templates)+1)
	}
	t.CoverData.EditTrace = []models.EditEvent{}
	t.CoverData.LastEdited = now

	m.templates = append(m.templates, t)
	m.current = t.Clone()
	cur := t.Clone()
	m.mu.Unlock()

	m.notify(Change{Kind: ChangeAdd, Current: cur})
	return cur, nil
}

// Delete removes the template with id. The last template cannot be deleted.
// Deleting the current template selects the first remaining one.
func (m *Model) Delete(id string) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	m.mu.Lock()
	if len(m.templates) <= 1 {
		m.mu.Unlock()
		return ErrLastTemplate
	}
	idx := m.indexLocked(id)
	if idx < 0 {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	next := make([]models.Template, 0, len(m.templates)-1)
	next = append(next, m.templates[:idx]...)
	next = append(next, m.templates[idx+1:]...)
	m.templates = next
	if m.current.ID == id {
		m.current = m.templates[0].Clone()
	}
	cur := m.current.Clone()
	m.mu.Unlock()

	m.notify(Change{Kind: ChangeDelete, Current: cur})
	return nil
}

// Replace swaps in a freshly loaded collection. The selection is kept when its
// id survives, otherwise the first template becomes current.
func (m *Model) Replace(templates []models.Template) {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	m.mu.Lock()
	m.replaceLocked(templates)
	cur := m.current.Clone()
	m.mu.Unlock()

	m.notify(Change{Kind: ChangeReplace, Current: cur})
}

// Subscribe registers fn for every subsequent change. Listeners run synchronously
// after the mutation and must not mutate the model from the same goroutine.
func (m *Model) Subscribe(fn func(Change)) (cancel func()) {
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.listeners[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.listeners, id)
		m.mu.Unlock()
	}
}

func (m *Model) notify(c Change) {
	m.mu.RLock()
	fns := make([]func(Change), 0, len(m.listeners))
	for i := 0; i < m.nextSub; i++ {
		if fn, ok := m.listeners[i]; ok {
			fns = append(fns, fn)
		}
	}
	m.mu.RUnlock()

	for _, fn := range fns {
		fn(c)
	}
}

func (m *Model) replaceLocked(templates []models.Template) {
	if len(templates) == 0 {
		templates = []models.Template{DefaultTemplate(m.now())}
	}
	selected := m.current.ID
	m.templates = models.CloneTemplates(templates)

	idx := m.indexLocked(selected)
	if idx < 0 {
		idx = 0
	}
	m.current = m.templates[idx].Clone()
}

func (m *Model) storeCurrentLocked(t models.Template) {
	m.current = t.Clone()
	if idx := m.indexLocked(t.ID); idx >= 0 {
		m.templates[idx] = t.Clone()
	}
}

func (m *Model) indexLocked(id string) int {
	if id == "" {
		return -1
	}
	for i := range m.templates {
		if m.templates[i].ID == id {
			return i
		}
	}
	return -1
}

func (m *Model) freshIDLocked(now time.Time) string {
	for {
		id := models.NewPlaceholderID(now)
		if m.indexLocked(id) < 0 {
			return id
		}
		now = now.Add(time.Millisecond)
	}
}
