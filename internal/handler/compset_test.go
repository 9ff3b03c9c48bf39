package handler

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"compcore/internal/model"
	"compcore/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCompSetStore struct {
	sets map[string]model.CompSet
}

func (f *fakeCompSetStore) SaveCompSet(_ context.Context, set *model.CompSet) error {
	if f.sets == nil {
		f.sets = make(map[string]model.CompSet)
	}
	f.sets[set.ID] = *set
	return nil
}

func (f *fakeCompSetStore) UpdateCompSet(_ context.Context, set *model.CompSet) error {
	if _, ok := f.sets[set.ID]; !ok {
		return sql.ErrNoRows
	}
	f.sets[set.ID] = *set
	return nil
}

func (f *fakeCompSetStore) ListCompSets(_ context.Context) ([]model.CompSet, error) {
	out := make([]model.CompSet, 0, len(f.sets))
	for _, s := range f.sets {
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeCompSetStore) GetCompSet(_ context.Context, id string) (*model.CompSet, error) {
	if s, ok := f.sets[id]; ok {
		return &s, nil
	}
	return nil, nil
}

func newCompSetRouter(store *fakeCompSetStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewCompSetHandler(service.NewCompSetService(store, nil))
	r := gin.New()
	r.POST("/comp-sets", h.Save)
	r.PUT("/comp-sets/:id", h.Update)
	r.GET("/comp-sets/:id", h.Get)
	return r
}

func TestCompSetUpdateUnknownIDReturns404(t *testing.T) {
	router := newCompSetRouter(&fakeCompSetStore{})

	req := httptest.NewRequest(http.MethodPut, "/comp-sets/no-such-id",
		strings.NewReader(`{"name":"renamed","comparable_ids":[1]}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCompSetUpdateExisting(t *testing.T) {
	store := &fakeCompSetStore{sets: map[string]model.CompSet{
		"set-1": {ID: "set-1", Name: "original", ComparableIDs: []int64{1, 2}},
	}}
	router := newCompSetRouter(store)

	req := httptest.NewRequest(http.MethodPut, "/comp-sets/set-1",
		strings.NewReader(`{"name":"renamed","comparable_ids":[1,2,3]}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "renamed", store.sets["set-1"].Name)
	assert.Len(t, store.sets["set-1"].ComparableIDs, 3)
}

func TestCompSetGetUnknownIDReturns404(t *testing.T) {
	router := newCompSetRouter(&fakeCompSetStore{})

	req := httptest.NewRequest(http.MethodGet, "/comp-sets/no-such-id", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
