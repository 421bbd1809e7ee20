package templates

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tanishqkrk-asymmetri/bookleaf-mvp-sub000/internal/models"
)

func newRouter(repo *memoryRepository) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(newTestService(repo)).RegisterRoutes(r.Group("/api/v1"), func(c *gin.Context) { c.Next() })
	return r
}

func do(r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeSnapshot(t *testing.T, w *httptest.ResponseRecorder) Snapshot {
	t.Helper()
	var snap Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	return snap
}

func TestHandler_GetEmpty(t *testing.T) {
	w := do(newRouter(&memoryRepository{}), http.MethodGet, "/api/v1/templates", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	assert.Equal(t, []any{}, raw["data"])
	assert.EqualValues(t, 0, raw["version"])
}

func TestHandler_SaveAllThenGet(t *testing.T) {
	r := newRouter(&memoryRepository{})

	w := do(r, http.MethodPut, "/api/v1/templates", SaveAllDTO{Templates: []models.Template{tpl("", "First")}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	saved := decodeSnapshot(t, w)
	require.Len(t, saved.Templates, 1)
	assert.NotEmpty(t, saved.Templates[0].ID)

	w = do(r, http.MethodGet, "/api/v1/templates", nil)
	got := decodeSnapshot(t, w)
	assert.Equal(t, saved.Templates[0].ID, got.Templates[0].ID)
	assert.Equal(t, int64(1), got.Version)
}

func TestHandler_ErrorStatuses(t *testing.T) {
	repo := seeded(tpl("only", "Only"))
	r := newRouter(repo)

	w := do(r, http.MethodDelete, "/api/v1/templates/only", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(r, http.MethodDelete, "/api/v1/templates/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(r, http.MethodDelete, "/api/v1/templates/only?version=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	cover := tpl("", "").CoverData
	w = do(r, http.MethodPut, "/api/v1/templates/only", map[string]any{"coverData": cover, "version": 9})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(r, http.MethodPut, "/api/v1/templates/only", map[string]any{"name": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var envelope map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.EqualValues(t, 0, envelope["ok"])
	assert.EqualValues(t, http.StatusBadRequest, envelope["code"])
}

func TestHandler_UpdateOne(t *testing.T) {
	r := newRouter(seeded(tpl("a", "A")))
	cover := tpl("", "").CoverData
	cover.Front.Text.Title.Content = "Via HTTP"

	w := do(r, http.MethodPut, "/api/v1/templates/a", map[string]any{"coverData": cover, "version": 1})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	snap := decodeSnapshot(t, w)
	assert.Equal(t, "Via HTTP", snap.Templates[0].CoverData.Front.Text.Title.Content)
	assert.Equal(t, int64(2), snap.Version)
}
