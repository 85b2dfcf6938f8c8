package style

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStyleRouter(t *testing.T, limit int) (*mux.Router, *Repository) {
	t.Helper()
	repo := NewRepository(NewMemoryStore(), limit)
	r := mux.NewRouter()
	NewHandler(repo, nil).RegisterRoutes(r)
	return r, repo
}

func TestHandleCreateStyle(t *testing.T) {
	router, _ := newStyleRouter(t, 20)

	payload, _ := json.Marshal(CreateStyleRequest{Name: "Acquerello", Description: "soft washes"})
	req := httptest.NewRequest(http.MethodPost, "/styles", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp CreateStyleResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Style)
	assert.Equal(t, "Acquerello", resp.Style.StyleName)
	assert.NotEmpty(t, resp.Style.StyleID)
}

func TestHandleCreateStyleQuotaConflict(t *testing.T) {
	router, repo := newStyleRouter(t, 1)

	_, err := repo.Create(context.Background(), "occupato", "")
	require.NoError(t, err)

	payload, _ := json.Marshal(CreateStyleRequest{Name: "uno di troppo"})
	req := httptest.NewRequest(http.MethodPost, "/styles", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)

	// 라이브러리는 변하지 않음
	styles, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, styles, 1)
}

func TestHandleListStyles(t *testing.T) {
	router, repo := newStyleRouter(t, 20)

	_, err := repo.Create(context.Background(), "matita", "")
	require.NoError(t, err)
	_, err = repo.Create(context.Background(), "pastello", "")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/styles", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp ListStylesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Len(t, resp.Styles, 2)
	assert.Equal(t, 20, resp.Limit)
}

func TestHandleDeleteStyle(t *testing.T) {
	router, repo := newStyleRouter(t, 20)

	entry, err := repo.Create(context.Background(), "matita", "")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodDelete, "/styles/"+entry.StyleID, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodDelete, "/styles/"+entry.StyleID, nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
