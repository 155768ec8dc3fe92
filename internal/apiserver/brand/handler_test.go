package brand

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"fleet-admin/internal/shared/model"
	"fleet-admin/internal/shared/storagetypes"
)

// ============================================================================
// Mock 存储
// ============================================================================

type mockStore struct {
	brands    map[string]*model.Brand
	modelRefs map[string]int64 // brandID -> 引用该品牌的车型数
	failing   bool
}

func newMockStore() *mockStore {
	return &mockStore{
		brands:    make(map[string]*model.Brand),
		modelRefs: make(map[string]int64),
	}
}

func (m *mockStore) CreateBrand(ctx context.Context, brand *model.Brand) error {
	if m.failing {
		return fmt.Errorf("store unavailable")
	}
	cp := *brand
	m.brands[brand.ID] = &cp
	return nil
}

func (m *mockStore) GetBrandByID(ctx context.Context, id string) (*model.Brand, error) {
	if m.failing {
		return nil, fmt.Errorf("store unavailable")
	}
	b, ok := m.brands[id]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (m *mockStore) ListBrands(ctx context.Context) ([]*model.Brand, error) {
	if m.failing {
		return nil, fmt.Errorf("store unavailable")
	}
	out := make([]*model.Brand, 0, len(m.brands))
	for _, b := range m.brands {
		cp := *b
		out = append(out, &cp)
	}
	return out, nil
}

func (m *mockStore) UpdateBrand(ctx context.Context, brand *model.Brand) error {
	if _, ok := m.brands[brand.ID]; !ok {
		return storagetypes.ErrNotFound
	}
	cp := *brand
	m.brands[brand.ID] = &cp
	return nil
}

func (m *mockStore) DeleteBrand(ctx context.Context, id string) error {
	if _, ok := m.brands[id]; !ok {
		return storagetypes.ErrNotFound
	}
	delete(m.brands, id)
	return nil
}

func (m *mockStore) CountBrands(ctx context.Context) (int64, error) {
	return int64(len(m.brands)), nil
}

func (m *mockStore) CountModelsByBrand(ctx context.Context, brandID string) (int64, error) {
	return m.modelRefs[brandID], nil
}

// ============================================================================
// 测试辅助
// ============================================================================

func setupMux(store *mockStore) *http.ServeMux {
	mux := http.NewServeMux()
	NewHandler(store, nil, nil).RegisterRoutes(mux)
	return mux
}

func doRequest(mux *http.ServeMux, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

// ============================================================================
// 测试
// ============================================================================

func TestCreateBrand(t *testing.T) {
	store := newMockStore()
	mux := setupMux(store)

	rec := doRequest(mux, http.MethodPost, "/api/v1/brands", map[string]string{"name": "Volvo", "country": "Sweden"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var created model.Brand
	json.Unmarshal(rec.Body.Bytes(), &created)
	if created.ID == "" || created.Name != "Volvo" {
		t.Errorf("created = %+v", created)
	}
	if _, ok := store.brands[created.ID]; !ok {
		t.Error("brand not persisted")
	}
}

func TestCreateBrand_Invalid(t *testing.T) {
	mux := setupMux(newMockStore())

	rec := doRequest(mux, http.MethodPost, "/api/v1/brands", map[string]string{"country": "Sweden"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing name: status = %d, want 400", rec.Code)
	}
}

func TestGetBrand(t *testing.T) {
	store := newMockStore()
	store.brands["brd-1"] = &model.Brand{ID: "brd-1", Name: "Scania"}
	mux := setupMux(store)

	rec := doRequest(mux, http.MethodGet, "/api/v1/brands/brd-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	rec = doRequest(mux, http.MethodGet, "/api/v1/brands/brd-missing", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing brand: status = %d, want 404", rec.Code)
	}
}

func TestUpdateBrand_Partial(t *testing.T) {
	store := newMockStore()
	store.brands["brd-1"] = &model.Brand{ID: "brd-1", Name: "Scania", Country: "Sweden"}
	mux := setupMux(store)

	rec := doRequest(mux, http.MethodPut, "/api/v1/brands/brd-1", map[string]string{"country": "Brazil"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	b := store.brands["brd-1"]
	if b.Country != "Brazil" || b.Name != "Scania" {
		t.Errorf("brand = %+v", b)
	}
}

func TestDeleteBrand(t *testing.T) {
	store := newMockStore()
	store.brands["brd-1"] = &model.Brand{ID: "brd-1", Name: "Scania"}
	mux := setupMux(store)

	rec := doRequest(mux, http.MethodDelete, "/api/v1/brands/brd-1", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}
	if _, ok := store.brands["brd-1"]; ok {
		t.Error("brand still present after delete")
	}
}

// 还有车型引用时拒绝删除
func TestDeleteBrand_WithModels(t *testing.T) {
	store := newMockStore()
	store.brands["brd-1"] = &model.Brand{ID: "brd-1", Name: "Scania"}
	store.modelRefs["brd-1"] = 3
	mux := setupMux(store)

	rec := doRequest(mux, http.MethodDelete, "/api/v1/brands/brd-1", nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409, body = %s", rec.Code, rec.Body.String())
	}
	if _, ok := store.brands["brd-1"]; !ok {
		t.Error("brand deleted despite refusal")
	}
}

func TestDeleteBrand_NotFound(t *testing.T) {
	mux := setupMux(newMockStore())
	rec := doRequest(mux, http.MethodDelete, "/api/v1/brands/brd-missing", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
