package docsync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tanishqkrk-asymmetri/bookleaf-mvp-sub000/internal/editor/document"
	"github.com/tanishqkrk-asymmetri/bookleaf-mvp-sub000/internal/models"
)

// memoryRemote mimics the template store: one document, version bumped per write.
type memoryRemote struct {
	mu        sync.Mutex
	templates []models.Template
	version   int64
	nextID    int

	fetchErr error
	saveErr  error
	bases    []int64
	saves    int
}

func (r *memoryRemote) FetchAll(context.Context) (Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fetchErr != nil {
		return Snapshot{}, r.fetchErr
	}
	return Snapshot{Templates: models.CloneTemplates(r.templates), Version: r.version}, nil
}

func (r *memoryRemote) SaveAll(_ context.Context, templates []models.Template, base int64) (Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bases = append(r.bases, base)
	r.saves++
	if r.saveErr != nil {
		return Snapshot{}, r.saveErr
	}
	if base != 0 && base != r.version {
		return Snapshot{}, fmt.Errorf("%w: have %d", ErrVersionConflict, r.version)
	}
	stored := models.CloneTemplates(templates)
	for i := range stored {
		if stored[i].ID == "" {
			r.nextID++
			stored[i].ID = fmt.Sprintf("srv-%d", r.nextID)
		}
		stored[i].UpdatedAt = time.Now()
	}
	r.templates = stored
	r.version++
	return Snapshot{Templates: models.CloneTemplates(stored), Version: r.version}, nil
}

func (r *memoryRemote) UpdateOne(_ context.Context, id string, t models.Template, base int64) (Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bases = append(r.bases, base)
	if id == "" {
		return Snapshot{}, ErrValidation
	}
	for i := range r.templates {
		if r.templates[i].ID == id {
			r.templates[i] = t.Clone()
			r.version++
			return Snapshot{Templates: models.CloneTemplates(r.templates), Version: r.version}, nil
		}
	}
	return Snapshot{}, ErrNotFound
}

func (r *memoryRemote) DeleteOne(_ context.Context, id string, base int64) (Snapshot, error) {
	return Snapshot{}, errors.New("not used")
}

func storedTemplate(id, title string) models.Template {
	t := document.DefaultTemplate(time.Now())
	t.ID = id
	t.Name = id
	t.CoverData.Front.Text.Title.Content = title
	return t
}

func TestHydrate_FallsBackToDefault(t *testing.T) {
	for name, remote := range map[string]*memoryRemote{
		"empty":     {},
		"transport": {fetchErr: errors.New("connection refused")},
	} {
		t.Run(name, func(t *testing.T) {
			model := document.New([]models.Template{storedTemplate("old", "Old")})
			s := NewSyncer(remote, model, Options{})

			assert.False(t, s.Hydrate(context.Background()))
			require.Equal(t, 1, model.Len())
			assert.Equal(t, document.DefaultTemplateID, model.Current().ID)
		})
	}
}

func TestHydrate_LoadsCollection(t *testing.T) {
	remote := &memoryRemote{templates: []models.Template{storedTemplate("a", "A"), storedTemplate("b", "B")}, version: 7}
	s := NewSyncer(remote, document.New(nil), Options{})

	assert.True(t, s.Hydrate(context.Background()))
	assert.Equal(t, 2, s.Model().Len())
	assert.Equal(t, "a", s.Model().Current().ID)
	assert.Equal(t, int64(7), s.Version())
}

func TestSaveAll_RoundTrip(t *testing.T) {
	remote := &memoryRemote{templates: []models.Template{storedTemplate("a", "A"), storedTemplate("b", "B")}, version: 1}
	fetched, err := remote.FetchAll(context.Background())
	require.NoError(t, err)

	s := NewSyncer(remote, document.New(fetched.Templates), Options{})
	require.NoError(t, s.SaveAll(context.Background()))

	again, err := remote.FetchAll(context.Background())
	require.NoError(t, err)
	ignore := cmpopts.IgnoreFields(models.Template{}, "UpdatedAt")
	assert.Empty(t, cmp.Diff(fetched.Templates, again.Templates, ignore))
	assert.Equal(t, int64(2), s.Version())
}

func TestSaveAll_AdoptsServerIDs(t *testing.T) {
	remote := &memoryRemote{}
	model := document.New([]models.Template{storedTemplate("", "Untitled")})
	s := NewSyncer(remote, model, Options{})

	require.NoError(t, s.SaveAll(context.Background()))
	assert.Equal(t, "srv-1", model.Current().ID)
}

func TestSaveAll_FailureKeepsLocalState(t *testing.T) {
	remote := &memoryRemote{saveErr: errors.New("503")}
	model := document.New([]models.Template{storedTemplate("a", "A")})
	s := NewSyncer(remote, model, Options{})
	require.NoError(t, model.Set(document.TitleContent, "Edited"))
	before := model.Templates()

	err := s.SaveAll(context.Background())
	var saveErr *SaveError
	require.ErrorAs(t, err, &saveErr)
	assert.True(t, saveErr.Retryable())
	assert.Empty(t, cmp.Diff(before, model.Templates()))
}

func TestSaveAll_LastWriterWinsSendsNoBase(t *testing.T) {
	remote := &memoryRemote{templates: []models.Template{storedTemplate("a", "A")}, version: 3}
	s := NewSyncer(remote, document.New(nil), Options{})
	s.Hydrate(context.Background())

	// another session writes in between
	_, err := remote.SaveAll(context.Background(), []models.Template{storedTemplate("x", "X")}, 0)
	require.NoError(t, err)

	require.NoError(t, s.SaveAll(context.Background()))
	assert.Equal(t, []int64{0, 0}, remote.bases)
	assert.Equal(t, int64(5), s.Version())
}

func TestSaveAll_StrictRejectsStaleWrite(t *testing.T) {
	remote := &memoryRemote{templates: []models.Template{storedTemplate("a", "A")}, version: 3}
	s := NewSyncer(remote, document.New(nil), Options{Strict: true})
	s.Hydrate(context.Background())

	require.NoError(t, s.SaveAll(context.Background()))
	_, err := remote.SaveAll(context.Background(), []models.Template{storedTemplate("x", "X")}, 0)
	require.NoError(t, err)

	err = s.SaveAll(context.Background())
	assert.ErrorIs(t, err, ErrVersionConflict)
	var saveErr *SaveError
	require.ErrorAs(t, err, &saveErr)
	assert.False(t, saveErr.Retryable())
	assert.Equal(t, []int64{3, 0, 4}, remote.bases)
}

func TestAddTemplate_SavesWholeCollection(t *testing.T) {
	remote := &memoryRemote{templates: []models.Template{storedTemplate("t1", "One")}, version: 1}
	s := NewSyncer(remote, document.New(nil), Options{})
	s.Hydrate(context.Background())

	added, err := s.AddTemplate(context.Background(), "t1", "")
	require.NoError(t, err)

	require.Len(t, remote.templates, 2)
	assert.Equal(t, "t1", remote.templates[0].ID)
	assert.Equal(t, added.ID, remote.templates[1].ID)
	assert.NotEqual(t, "t1", added.ID)
	assert.Equal(t, []models.EditEvent{}, remote.templates[1].CoverData.EditTrace)
}

func TestDeleteTemplate_LastIsRejectedLocally(t *testing.T) {
	remote := &memoryRemote{templates: []models.Template{storedTemplate("t1", "One")}, version: 1}
	s := NewSyncer(remote, document.New(nil), Options{})
	s.Hydrate(context.Background())

	err := s.DeleteTemplate(context.Background(), "t1")
	assert.ErrorIs(t, err, document.ErrLastTemplate)
	assert.Zero(t, remote.saves)
	assert.Len(t, remote.templates, 1)
}

func TestDeleteTemplate_SavesRemainder(t *testing.T) {
	remote := &memoryRemote{templates: []models.Template{storedTemplate("t1", "One"), storedTemplate("t2", "Two")}, version: 1}
	s := NewSyncer(remote, document.New(nil), Options{})
	s.Hydrate(context.Background())

	require.NoError(t, s.DeleteTemplate(context.Background(), "t1"))
	require.Len(t, remote.templates, 1)
	assert.Equal(t, "t2", remote.templates[0].ID)
	assert.Equal(t, "t2", s.Model().Current().ID)
}

func TestSaveCurrent_UnknownTemplateSavesCollection(t *testing.T) {
	remote := &memoryRemote{templates: []models.Template{storedTemplate("t1", "One")}, version: 1}
	model := document.New([]models.Template{storedTemplate("t1", "One"), storedTemplate("template-5", "New")})
	s := NewSyncer(remote, model, Options{})
	require.NoError(t, model.Select("template-5"))

	require.NoError(t, s.SaveCurrent(context.Background()))
	assert.Equal(t, 1, remote.saves)
	require.Len(t, remote.templates, 2)

	require.NoError(t, model.Set(document.TitleContent, "Renamed"))
	require.NoError(t, s.SaveCurrent(context.Background()))
	assert.Equal(t, 1, remote.saves)
	assert.Equal(t, "Renamed", remote.templates[1].CoverData.Front.Text.Title.Content)
	assert.Equal(t, "template-5", model.Current().ID)
}

func TestShouldAutosave(t *testing.T) {
	cover := document.DefaultTemplate(time.Now()).CoverData
	assert.False(t, ShouldAutosave(cover))

	cover.Front.Text.Title.Content = "Dune"
	assert.True(t, ShouldAutosave(cover))

	cover = document.DefaultTemplate(time.Now()).CoverData
	cover.Front.Text.AuthorName.Content = "Frank Herbert"
	assert.True(t, ShouldAutosave(cover))
}

func TestAdopt_IgnoresStaleResult(t *testing.T) {
	remote := &memoryRemote{templates: []models.Template{storedTemplate("a", "A")}, version: 7}
	s := NewSyncer(remote, document.New(nil), Options{Strict: true})
	require.True(t, s.Hydrate(context.Background()))

	base, rev := s.begin()
	require.Equal(t, int64(7), base)
	s.adopt(Snapshot{Templates: []models.Template{storedTemplate("old", "Old")}, Version: 5}, base, rev)

	assert.Equal(t, int64(7), s.Version())
	assert.Equal(t, "a", s.Model().Current().ID)

	require.NoError(t, s.Model().Set(document.TitleContent, "Newer"))
	require.NoError(t, s.SaveAll(context.Background()))
	assert.Equal(t, int64(8), s.Version())
	assert.Equal(t, []int64{7}, remote.bases)
}
