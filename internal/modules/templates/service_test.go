package templates

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tanishqkrk-asymmetri/bookleaf-mvp-sub000/internal/editor/document"
	"github.com/tanishqkrk-asymmetri/bookleaf-mvp-sub000/internal/models"
)

var testNow = time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)

func newTestService(repo *memoryRepository) *Service {
	s := NewService(repo, nil)
	s.now = func() time.Time { return testNow }
	return s
}

func tpl(id, name string) models.Template {
	t := document.DefaultTemplate(testNow.Add(-time.Hour))
	t.ID = id
	t.Name = name
	return t
}

func seeded(templates ...models.Template) *memoryRepository {
	return &memoryRepository{doc: &models.TemplateDocument{
		ID:           "templates",
		AllTemplates: templates,
		Version:      1,
	}}
}

func TestFetchAll_EmptyWhenMissing(t *testing.T) {
	snap, err := newTestService(&memoryRepository{}).FetchAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []models.Template{}, snap.Templates)
	assert.Zero(t, snap.Version)
}

func TestSaveAll_AssignsIDsAndStamps(t *testing.T) {
	repo := &memoryRepository{}
	svc := newTestService(repo)

	in := []models.Template{tpl("template-1", "Kept"), tpl("", "New")}
	in[1].CoverData.EditTrace = nil
	snap, err := svc.SaveAll(context.Background(), in, 0)
	require.NoError(t, err)

	require.Len(t, snap.Templates, 2)
	assert.Equal(t, "template-1", snap.Templates[0].ID)
	assert.NotEmpty(t, snap.Templates[1].ID)
	assert.Equal(t, []models.EditEvent{}, snap.Templates[1].CoverData.EditTrace)
	for _, st := range snap.Templates {
		assert.Equal(t, testNow, st.UpdatedAt)
	}
	assert.Equal(t, int64(1), snap.Version)
	assert.Equal(t, testNow, snap.LastModified)
	assert.Empty(t, in[1].ID)
}

func TestSaveAll_RoundTripIsStable(t *testing.T) {
	repo := seeded(tpl("a", "A"), tpl("b", "B"))
	svc := newTestService(repo)

	first, err := svc.FetchAll(context.Background())
	require.NoError(t, err)
	_, err = svc.SaveAll(context.Background(), first.Templates, 0)
	require.NoError(t, err)
	second, err := svc.FetchAll(context.Background())
	require.NoError(t, err)

	assert.Empty(t, cmp.Diff(first.Templates, second.Templates, cmpopts.IgnoreFields(models.Template{}, "UpdatedAt")))
}

func TestSaveAll_Validation(t *testing.T) {
	svc := newTestService(&memoryRepository{})

	_, err := svc.SaveAll(context.Background(), nil, 0)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.SaveAll(context.Background(), []models.Template{tpl("x", "1"), tpl("x", "2")}, 0)
	assert.ErrorIs(t, err, ErrValidation)

	bad := tpl("y", "bad")
	bad.CoverData.Front.BackgroundType = "Video"
	_, err = svc.SaveAll(context.Background(), []models.Template{bad}, 0)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestSaveAll_VersionConflict(t *testing.T) {
	repo := seeded(tpl("a", "A"))
	svc := newTestService(repo)

	_, err := svc.SaveAll(context.Background(), []models.Template{tpl("a", "A")}, 7)
	assert.ErrorIs(t, err, ErrVersionConflict)

	snap, err := svc.SaveAll(context.Background(), []models.Template{tpl("a", "A")}, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), snap.Version)
}

func TestUpdateOne(t *testing.T) {
	repo := seeded(tpl("a", "A"), tpl("b", "B"))
	svc := newTestService(repo)

	cover := tpl("", "").CoverData
	cover.Front.Text.Title.Content = "Updated"
	name := "Renamed"
	snap, err := svc.UpdateOne(context.Background(), "b", UpdateInput{Name: &name, CoverData: cover}, 0)
	require.NoError(t, err)

	assert.Equal(t, "A", snap.Templates[0].Name)
	assert.Equal(t, "Renamed", snap.Templates[1].Name)
	assert.Equal(t, "Updated", snap.Templates[1].CoverData.Front.Text.Title.Content)
	assert.Equal(t, testNow, snap.Templates[1].UpdatedAt)

	_, err = svc.UpdateOne(context.Background(), "b", UpdateInput{CoverData: cover}, 0)
	require.NoError(t, err)
	stored, err := svc.Get(context.Background(), "b")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", stored.Name)
}

func TestUpdateOne_Errors(t *testing.T) {
	cover := tpl("", "").CoverData

	_, err := newTestService(seeded(tpl("a", "A"))).UpdateOne(context.Background(), "", UpdateInput{CoverData: cover}, 0)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = newTestService(&memoryRepository{}).UpdateOne(context.Background(), "a", UpdateInput{CoverData: cover}, 0)
	assert.ErrorIs(t, err, ErrNotFound)

	repo := seeded(tpl("a", "A"))
	_, err = newTestService(repo).UpdateOne(context.Background(), "zzz", UpdateInput{CoverData: cover}, 0)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Zero(t, repo.stores)
}

func TestUpdateOne_RetriesOnConcurrentWrite(t *testing.T) {
	repo := seeded(tpl("a", "A"), tpl("b", "B"))
	repo.beforeStore = func(doc *models.TemplateDocument) {
		doc.AllTemplates[0].Name = "changed elsewhere"
		doc.Version++
	}
	svc := newTestService(repo)

	cover := tpl("", "").CoverData
	cover.Spine.Color.ColorCode = "#abcdef"
	snap, err := svc.UpdateOne(context.Background(), "b", UpdateInput{CoverData: cover}, 0)
	require.NoError(t, err)

	assert.Equal(t, "changed elsewhere", snap.Templates[0].Name)
	assert.Equal(t, "#abcdef", snap.Templates[1].CoverData.Spine.Color.ColorCode)
	assert.Equal(t, 2, repo.stores)
}

func TestUpdateOne_StaleBaseVersion(t *testing.T) {
	repo := seeded(tpl("a", "A"))
	_, err := newTestService(repo).UpdateOne(context.Background(), "a", UpdateInput{CoverData: tpl("", "").CoverData}, 5)
	assert.ErrorIs(t, err, ErrVersionConflict)
}

func TestDeleteOne(t *testing.T) {
	repo := seeded(tpl("a", "A"), tpl("b", "B"))
	svc := newTestService(repo)

	snap, err := svc.DeleteOne(context.Background(), "a", 0)
	require.NoError(t, err)
	require.Len(t, snap.Templates, 1)
	assert.Equal(t, "b", snap.Templates[0].ID)

	_, err = svc.DeleteOne(context.Background(), "b", 0)
	assert.ErrorIs(t, err, ErrLastTemplate)

	_, err = svc.DeleteOne(context.Background(), "nope", 0)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Len(t, repo.doc.AllTemplates, 1)
}

func TestFetchAll_PropagatesLoadError(t *testing.T) {
	repo := &memoryRepository{loadErr: errors.New("mongo down")}
	_, err := newTestService(repo).FetchAll(context.Background())
	assert.EqualError(t, err, "mongo down")
}

func TestMigrate(t *testing.T) {
	oid := primitive.NewObjectID()
	repo := &memoryRepository{legacy: []models.LegacyTemplate{
		{ID: oid, Name: "Old one", CoverData: tpl("", "").CoverData},
		{ID: "string-id", Name: "Old two", CoverData: tpl("", "").CoverData},
	}}
	svc := newTestService(repo)

	n, err := svc.Migrate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.NotNil(t, repo.doc)
	assert.Equal(t, oid.Hex(), repo.doc.AllTemplates[0].ID)
	assert.Equal(t, "string-id", repo.doc.AllTemplates[1].ID)

	n, err = svc.Migrate(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 1, repo.stores)
}

func TestMigrate_NothingToDo(t *testing.T) {
	repo := &memoryRepository{legacy: []models.LegacyTemplate{}}
	n, err := newTestService(repo).Migrate(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Nil(t, repo.doc)
}

func TestUpdateOne_UnversionedDocumentStillGuarded(t *testing.T) {
	repo := seeded(tpl("a", "A"), tpl("b", "B"))
	repo.doc.Version = 0
	repo.beforeStore = func(doc *models.TemplateDocument) {
		doc.AllTemplates[0].Name = "changed elsewhere"
		doc.Version = 1
	}
	svc := newTestService(repo)

	cover := tpl("", "").CoverData
	cover.Spine.Color.ColorCode = "#123456"
	snap, err := svc.UpdateOne(context.Background(), "b", UpdateInput{CoverData: cover}, 0)
	require.NoError(t, err)

	assert.Equal(t, "changed elsewhere", snap.Templates[0].Name)
	assert.Equal(t, "#123456", snap.Templates[1].CoverData.Spine.Color.ColorCode)
	assert.Equal(t, int64(2), snap.Version)
	assert.Equal(t, 2, repo.stores)
}

func TestMigrate_DocumentCreatedConcurrently(t *testing.T) {
	repo := &memoryRepository{legacy: []models.LegacyTemplate{
		{ID: "legacy", Name: "Old", CoverData: tpl("", "").CoverData},
	}}
	live := tpl("live", "Live")
	repo.legacyHook = func() {
		repo.doc = &models.TemplateDocument{ID: "templates", AllTemplates: []models.Template{live}, Version: 3}
	}

	n, err := newTestService(repo).Migrate(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	require.Len(t, repo.doc.AllTemplates, 1)
	assert.Equal(t, "live", repo.doc.AllTemplates[0].ID)
	assert.Equal(t, int64(3), repo.doc.Version)
}

func TestNegativeBaseVersionRejected(t *testing.T) {
	repo := seeded(tpl("a", "A"))
	svc := newTestService(repo)

	_, err := svc.SaveAll(context.Background(), []models.Template{tpl("a", "A")}, Absent)
	assert.ErrorIs(t, err, ErrValidation)
	_, err = svc.DeleteOne(context.Background(), "a", Unversioned)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Zero(t, repo.stores)
}
