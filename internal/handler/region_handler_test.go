package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gsharma/indiainfo/internal/models"
	apierrors "github.com/gsharma/indiainfo/internal/pkg/errors"
)

// mockRegionService stubs service.RegionService with per-test funcs.
type mockRegionService struct {
	getStateInfo    func(ctx context.Context, name string) (*models.StateInfo, error)
	getDistrictInfo func(ctx context.Context, state, district string) (*models.District, error)
	stateCalls      int
}

func (m *mockRegionService) GetStateInfo(ctx context.Context, name string) (*models.StateInfo, error) {
	m.stateCalls++
	return m.getStateInfo(ctx, name)
}

func (m *mockRegionService) GetDistrictInfo(ctx context.Context, state, district string) (*models.District, error) {
	return m.getDistrictInfo(ctx, state, district)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestGetState_MissingName(t *testing.T) {
	svc := &mockRegionService{}
	h := NewRegionHandler(svc, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/state", nil)
	rec := httptest.NewRecorder()
	h.GetState(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "validation_error", body.Error.Code)

	// The store is never queried for a missing parameter.
	assert.Equal(t, 0, svc.stateCalls)
}

func TestGetState_Success(t *testing.T) {
	capital := "Patna"
	photo := "p"
	bio := "b"
	svc := &mockRegionService{
		getStateInfo: func(ctx context.Context, name string) (*models.StateInfo, error) {
			assert.Equal(t, "Bihar", name)
			return &models.StateInfo{
				State: models.State{ID: 1, Name: "Bihar", Capital: &capital},
				CM:    &models.ChiefMinister{Name: "Nitish Kumar", Photo: &photo, Bio: &bio},
				DistrictList: map[string][]string{
					"Patna": {"Patna", "Nalanda"},
				},
				DistrictCount: 2,
			}, nil
		},
	}
	h := NewRegionHandler(svc, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/state?name=Bihar", nil)
	rec := httptest.NewRecorder()
	h.GetState(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Bihar", body["name"])
	assert.Equal(t, "Patna", body["capital"])
	assert.Equal(t, float64(2), body["districts"])

	cm, ok := body["cm"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Nitish Kumar", cm["name"])

	list, ok := body["districtList"].(map[string]any)
	require.True(t, ok)
	assert.Len(t, list["Patna"], 2)
}

func TestGetState_NotFound(t *testing.T) {
	svc := &mockRegionService{
		getStateInfo: func(ctx context.Context, name string) (*models.StateInfo, error) {
			return nil, apierrors.NewNotFoundError("State")
		},
	}
	h := NewRegionHandler(svc, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/state?name=Atlantis", nil)
	rec := httptest.NewRecorder()
	h.GetState(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)

	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not_found", body.Error.Code)
	assert.Equal(t, "State not found", body.Error.Message)
}

func TestGetState_StoreErrorHidesDetail(t *testing.T) {
	svc := &mockRegionService{
		getStateInfo: func(ctx context.Context, name string) (*models.StateInfo, error) {
			return nil, errors.New("pq: connection refused on 10.0.0.7")
		},
	}
	h := NewRegionHandler(svc, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/state?name=Bihar", nil)
	rec := httptest.NewRecorder()
	h.GetState(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "10.0.0.7")
	assert.Contains(t, rec.Body.String(), "internal_error")
}

func TestGetDistrict_MissingParams(t *testing.T) {
	h := NewRegionHandler(&mockRegionService{}, testLogger())

	for _, target := range []string{
		"/api/district",
		"/api/district?state=Bihar",
		"/api/district?district=Patna",
	} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		rec := httptest.NewRecorder()
		h.GetDistrict(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "target %s", target)
	}
}

func TestGetDistrict_Success(t *testing.T) {
	svc := &mockRegionService{
		getDistrictInfo: func(ctx context.Context, state, district string) (*models.District, error) {
			assert.Equal(t, "Bihar", state)
			assert.Equal(t, "Patna", district)
			return &models.District{ID: 1, State: "Bihar", Name: "Patna", Division: "Patna"}, nil
		},
	}
	h := NewRegionHandler(svc, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/district?state=Bihar&district=Patna", nil)
	rec := httptest.NewRecorder()
	h.GetDistrict(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Patna", body["name"])
	assert.Equal(t, "Patna", body["division"])
}
