package document

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tanishqkrk-asymmetri/bookleaf-mvp-sub000/internal/models"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestModel(templates ...models.Template) *Model {
	return New(templates, WithClock(func() time.Time { return fixedNow }))
}

func sampleTemplate(id string) models.Template {
	t := DefaultTemplate(fixedNow.Add(-time.Hour))
	t.ID = id
	t.Name = "Sample " + id
	t.CoverData.EditTrace = []models.EditEvent{{Field: "front.color.colorCode", At: fixedNow}}
	return t
}

func TestNew_EmptyFallsBackToDefault(t *testing.T) {
	m := newTestModel()
	require.Equal(t, 1, m.Len())
	assert.Equal(t, DefaultTemplateID, m.Current().ID)
}

func TestUpdate_DoesNotMutatePrevious(t *testing.T) {
	m := newTestModel(sampleTemplate("t1"))
	before := m.Current()
	snapshot := before.Clone()

	after := m.Update(func(c *models.CoverData) {
		c.Front.Color.ColorCode = "#ff0000"
		c.EditTrace[0].Field = "mutated"
	})

	assert.Empty(t, cmp.Diff(snapshot, before))
	assert.Equal(t, "#ff0000", after.CoverData.Front.Color.ColorCode)
	assert.Equal(t, "#ff0000", m.Current().CoverData.Front.Color.ColorCode)
	assert.Equal(t, "#ff0000", m.Templates()[0].CoverData.Front.Color.ColorCode)
}

func TestUpdate_KeepsCollectionConsistent(t *testing.T) {
	m := newTestModel(sampleTemplate("t1"), sampleTemplate("t2"))
	require.NoError(t, m.Select("t2"))

	m.Update(func(c *models.CoverData) { c.Spine.Color.ColorCode = "#123456" })

	all := m.Templates()
	assert.NotEqual(t, "#123456", all[0].CoverData.Spine.Color.ColorCode)
	assert.Equal(t, "#123456", all[1].CoverData.Spine.Color.ColorCode)
	assert.Empty(t, cmp.Diff(all[1], m.Current()))
}

func TestSetPath_Idempotent(t *testing.T) {
	m := newTestModel(sampleTemplate("t1"))
	path := []string{"front", "text", "title", "position"}
	pos := models.Position{X: 223.5, Y: 381}

	require.NoError(t, m.SetPath(path, pos))
	once := m.Current()
	require.NoError(t, m.SetPath(path, pos))
	twice := m.Current()

	assert.Empty(t, cmp.Diff(once, twice))
	assert.Equal(t, pos, twice.CoverData.Front.Text.Title.Position)
}

func TestSetPath_MissingField(t *testing.T) {
	m := newTestModel(sampleTemplate("t1"))
	before := m.Current()

	err := m.SetPath([]string{"front", "text", "caption", "content"}, "x")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingField))
	assert.Empty(t, cmp.Diff(before, m.Current()))
}

func TestSet_TypeMismatchLeavesModelUntouched(t *testing.T) {
	m := newTestModel(sampleTemplate("t1"))
	before := m.Current()

	err := m.Set(FrontOverlayOpacity, "very")
	assert.True(t, errors.Is(err, ErrFieldType))
	err = m.Set(FrontOverlayOpacity, 2.0)
	assert.True(t, errors.Is(err, ErrFieldType))
	assert.Empty(t, cmp.Diff(before, m.Current()))
}

func TestAdd_ClonesWithFreshIdentity(t *testing.T) {
	m := newTestModel(sampleTemplate("t1"))

	added, err := m.Add("t1", "")
	require.NoError(t, err)

	all := m.Templates()
	require.Len(t, all, 2)
	assert.NotEqual(t, "t1", all[1].ID)
	assert.True(t, models.IsPlaceholderID(all[1].ID))
	assert.Equal(t, []models.EditEvent{}, all[1].CoverData.EditTrace)
	assert.Equal(t, fixedNow, all[1].CoverData.LastEdited)
	assert.Equal(t, all[0].CoverData.Front, all[1].CoverData.Front)
	assert.Equal(t, added.ID, m.Current().ID)
	assert.Len(t, all[0].CoverData.EditTrace, 1)
}

func TestAdd_UniqueIDsWithinSameMillisecond(t *testing.T) {
	m := newTestModel(sampleTemplate("t1"))
	a, err := m.Add("", "a")
	require.NoError(t, err)
	b, err := m.Add("", "b")
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestAdd_UnknownSource(t *testing.T) {
	m := newTestModel(sampleTemplate("t1"))
	_, err := m.Add("nope", "")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, 1, m.Len())
}

func TestDelete_LastTemplateRejected(t *testing.T) {
	m := newTestModel(sampleTemplate("t1"))
	before := m.Templates()

	err := m.Delete("t1")
	assert.True(t, errors.Is(err, ErrLastTemplate))
	assert.Empty(t, cmp.Diff(before, m.Templates()))
}

func TestDelete_SelectedFallsBackToFirst(t *testing.T) {
	m := newTestModel(sampleTemplate("t1"), sampleTemplate("t2"), sampleTemplate("t3"))
	require.NoError(t, m.Select("t2"))

	require.NoError(t, m.Delete("t2"))
	assert.Equal(t, "t1", m.Current().ID)
	assert.Equal(t, 2, m.Len())

	require.NoError(t, m.Select("t3"))
	require.NoError(t, m.Delete("t1"))
	assert.Equal(t, "t3", m.Current().ID)

	assert.True(t, errors.Is(m.Delete("missing"), ErrLastTemplate))
}

func TestDelete_Unknown(t *testing.T) {
	m := newTestModel(sampleTemplate("t1"), sampleTemplate("t2"))
	assert.True(t, errors.Is(m.Delete("missing"), ErrNotFound))
}

func TestReplace_KeepsSelection(t *testing.T) {
	m := newTestModel(sampleTemplate("t1"), sampleTemplate("t2"))
	require.NoError(t, m.Select("t2"))

	m.Replace([]models.Template{sampleTemplate("t0"), sampleTemplate("t2")})
	assert.Equal(t, "t2", m.Current().ID)

	m.Replace([]models.Template{sampleTemplate("t9")})
	assert.Equal(t, "t9", m.Current().ID)
}

func TestSubscribe_ReceivesChangesInOrder(t *testing.T) {
	m := newTestModel(sampleTemplate("t1"))
	var kinds []ChangeKind
	cancel := m.Subscribe(func(c Change) { kinds = append(kinds, c.Kind) })

	require.NoError(t, m.Set(TitleContent, "Dune"))
	_, err := m.Add("", "copy")
	require.NoError(t, err)
	require.NoError(t, m.Delete("t1"))
	cancel()
	require.NoError(t, m.Set(TitleContent, "ignored"))

	assert.Equal(t, []ChangeKind{ChangeUpdate, ChangeAdd, ChangeDelete}, kinds)
}
