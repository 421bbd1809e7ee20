package editor

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tanishqkrk-asymmetri/bookleaf-mvp-sub000/internal/config"
	"github.com/tanishqkrk-asymmetri/bookleaf-mvp-sub000/internal/editor/docsync"
	"github.com/tanishqkrk-asymmetri/bookleaf-mvp-sub000/internal/editor/document"
	"github.com/tanishqkrk-asymmetri/bookleaf-mvp-sub000/internal/editor/snap"
	"github.com/tanishqkrk-asymmetri/bookleaf-mvp-sub000/internal/models"
)

type fakeBooks struct {
	mu      sync.Mutex
	books   map[string]models.BookModel
	upserts []models.BookUpsert
}

func (f *fakeBooks) GetBook(_ context.Context, id string) (models.BookModel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.books[id]
	if !ok {
		return models.BookModel{}, docsync.ErrNotFound
	}
	return b, nil
}

func (f *fakeBooks) UpsertBook(_ context.Context, req models.BookUpsert) (models.BookModel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts = append(f.upserts, req)
	return models.BookModel{Base: models.Base{ID: req.ID}, Title: req.Title, CoverData: req.CoverData}, nil
}

func (f *fakeBooks) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.upserts)
}

type emptyRemote struct{ docsync.Remote }

func (emptyRemote) FetchAll(context.Context) (docsync.Snapshot, error) {
	return docsync.Snapshot{}, nil
}

func bookConfig(quiet time.Duration) Config {
	return Config{Frame: snap.BookFrame(), AutosaveQuiet: quiet}
}

func TestConfigFromAppConfig(t *testing.T) {
	cfg, err := config.Parse(nil)
	require.NoError(t, err)

	assert.Equal(t, snap.TemplateFrame(), TemplateConfig(cfg).Frame)
	assert.Equal(t, snap.BookFrame(), BookConfig(cfg).Frame)
	assert.Equal(t, 2*time.Second, BookConfig(cfg).AutosaveQuiet)
}

func TestTemplateSession_OpenFallsBackToDefault(t *testing.T) {
	s := NewTemplateSession(emptyRemote{}, Config{Frame: snap.TemplateFrame()})
	s.Open(context.Background())

	assert.Equal(t, document.DefaultTemplateID, s.Model.Current().ID)
	title := s.Model.Current().CoverData.Front.Text.Title.Position
	assert.Equal(t, title, s.Drag.Get(document.SlotTitle).Position())
	require.NoError(t, s.Close(context.Background()))
}

func TestBookSession_PlaceholderContentDoesNotAutosave(t *testing.T) {
	store := &fakeBooks{books: map[string]models.BookModel{}}
	s := NewBookSession(store, "b1", bookConfig(10*time.Millisecond))
	require.NoError(t, s.Open(context.Background()))

	require.NoError(t, s.Model.Set(document.FrontColor, "#000000"))
	time.Sleep(40 * time.Millisecond)
	assert.Zero(t, store.count())
	assert.False(t, s.Saving())
}

func TestBookSession_AutosavesAfterQuietPeriod(t *testing.T) {
	store := &fakeBooks{books: map[string]models.BookModel{}}
	s := NewBookSession(store, "b1", bookConfig(20*time.Millisecond))
	require.NoError(t, s.Open(context.Background()))

	require.NoError(t, s.Model.Set(document.TitleContent, "D"))
	require.NoError(t, s.Model.Set(document.TitleContent, "Du"))
	require.NoError(t, s.Model.Set(document.TitleContent, "Dune"))
	assert.True(t, s.Saving())

	require.Eventually(t, func() bool { return store.count() == 1 && !s.Saving() }, time.Second, 5*time.Millisecond)

	got := store.upserts[0]
	assert.Equal(t, "b1", got.ID)
	assert.Equal(t, "Dune", got.Title)
	var cover models.CoverData
	require.NoError(t, json.Unmarshal([]byte(got.CoverData), &cover))
	assert.Equal(t, "Dune", cover.Front.Text.Title.Content)
}

func TestBookSession_OpenDecodesStoredCover(t *testing.T) {
	cover := document.DefaultTemplate(time.Now()).CoverData
	cover.Front.Text.Title.Content = "Stored"
	cover.Front.Text.Title.Position = models.Position{X: 11, Y: 22}
	raw, err := json.Marshal(cover)
	require.NoError(t, err)

	store := &fakeBooks{books: map[string]models.BookModel{
		"b1": {Base: models.Base{ID: "b1"}, Title: "Stored", CoverData: string(raw)},
	}}
	s := NewBookSession(store, "b1", bookConfig(time.Hour))
	require.NoError(t, s.Open(context.Background()))

	assert.Equal(t, "b1", s.Model.Current().ID)
	assert.Equal(t, "Stored", s.Model.Current().CoverData.Front.Text.Title.Content)
	assert.Equal(t, models.Position{X: 11, Y: 22}, s.Drag.Get(document.SlotTitle).Position())
}

func TestBookSession_CloseFlushesPendingSave(t *testing.T) {
	store := &fakeBooks{books: map[string]models.BookModel{}}
	s := NewBookSession(store, "b1", bookConfig(time.Hour))
	require.NoError(t, s.Open(context.Background()))

	require.NoError(t, s.Model.Set(document.AuthorNameContent, "Frank Herbert"))
	assert.Zero(t, store.count())

	require.NoError(t, s.Close(context.Background()))
	assert.Equal(t, 1, store.count())
	assert.Equal(t, "Frank Herbert", store.upserts[0].Author)
	assert.False(t, s.Saving())
}

func TestBookSession_AutosaveCarriesStoredImages(t *testing.T) {
	raw, err := json.Marshal(document.DefaultTemplate(time.Now()).CoverData)
	require.NoError(t, err)
	store := &fakeBooks{books: map[string]models.BookModel{
		"b1": {Base: models.Base{ID: "b1"}, CoverData: string(raw), FrontImageURL: "https://cdn/front.png", BackImageURL: "https://cdn/back.png"},
	}}
	s := NewBookSession(store, "b1", bookConfig(time.Hour))
	require.NoError(t, s.Open(context.Background()))

	require.NoError(t, s.Model.Set(document.TitleContent, "Dune"))
	require.NoError(t, s.Close(context.Background()))

	require.Equal(t, 1, store.count())
	assert.Equal(t, "https://cdn/front.png", store.upserts[0].FrontImageURL)
	assert.Equal(t, "https://cdn/back.png", store.upserts[0].BackImageURL)
}

func TestBookSession_DragCommitTriggersAutosave(t *testing.T) {
	store := &fakeBooks{books: map[string]models.BookModel{}}
	s := NewBookSession(store, "b1", bookConfig(time.Hour))
	require.NoError(t, s.Open(context.Background()))
	require.NoError(t, s.Model.Set(document.TitleContent, "Dune"))

	ctrl := s.Drag.Get(document.SlotTitle)
	require.NoError(t, ctrl.Start(ctrl.Position(), snap.Size{W: 40, H: 20}))
	_, err := ctrl.Stop(247.5, 405)
	require.NoError(t, err)

	// book surface center is (267.5, 415) with threshold 15
	assert.Equal(t, models.Position{X: 247.5, Y: 405}, s.Model.Current().CoverData.Front.Text.Title.Position)
	assert.True(t, s.Autosave.Pending())
	require.NoError(t, s.Close(context.Background()))
	assert.Equal(t, 1, store.count())
}
