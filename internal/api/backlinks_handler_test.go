package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linkforge/linkwatch/internal/database"
	"github.com/linkforge/linkwatch/internal/domain"
	"github.com/linkforge/linkwatch/internal/engine"
)

// mockBacklinkStore backs the handler with in-memory behavior.
type mockBacklinkStore struct {
	byID       map[string]*domain.Backlink
	created    *domain.Backlink
	createErr  error
	listResult []*domain.Backlink
	listTotal  int
	listErr    error
	gotFilters database.BacklinkFilters
	stats      *database.BacklinkStats
}

func (m *mockBacklinkStore) Create(_ context.Context, bl *domain.Backlink) error {
	if m.createErr != nil {
		return m.createErr
	}
	bl.ID = "bl-created"
	m.created = bl
	return nil
}

func (m *mockBacklinkStore) GetByID(_ context.Context, id string) (*domain.Backlink, error) {
	bl, ok := m.byID[id]
	if !ok {
		return nil, database.ErrBacklinkNotFound
	}
	return bl, nil
}

func (m *mockBacklinkStore) List(_ context.Context, filters database.BacklinkFilters) ([]*domain.Backlink, int, error) {
	m.gotFilters = filters
	return m.listResult, m.listTotal, m.listErr
}

func (m *mockBacklinkStore) Stats(_ context.Context) (*database.BacklinkStats, error) {
	if m.stats == nil {
		return nil, errors.New("stats unavailable")
	}
	return m.stats, nil
}

func (m *mockBacklinkStore) Delete(_ context.Context, id string) error {
	if _, ok := m.byID[id]; !ok {
		return database.ErrBacklinkNotFound
	}
	delete(m.byID, id)
	return nil
}

// mockCheckLogStore serves canned logs.
type mockCheckLogStore struct {
	logs  []domain.CheckLog
	total int
}

func (m *mockCheckLogStore) ListByBacklinkID(_ context.Context, _ string, _, _ int) ([]domain.CheckLog, error) {
	return m.logs, nil
}

func (m *mockCheckLogStore) CountByBacklinkID(_ context.Context, _ string) (int, error) {
	return m.total, nil
}

// mockEngine returns canned outcomes.
type mockEngine struct {
	verifyOutcome  *engine.Outcome
	verifyErr      error
	monitorOutcome *engine.Outcome
	monitorErr     error
}

func (m *mockEngine) Verify(_ context.Context, _ *domain.Backlink) (*engine.Outcome, error) {
	return m.verifyOutcome, m.verifyErr
}

func (m *mockEngine) Monitor(_ context.Context, _ *domain.Backlink) (*engine.Outcome, error) {
	return m.monitorOutcome, m.monitorErr
}

func testBacklink(id string) *domain.Backlink {
	return &domain.Backlink{
		ID:                 id,
		SourceURL:          "https://blog.example.com/review",
		TargetURL:          "https://acme.dev/tool",
		LinkType:           domain.LinkTypeDofollow,
		VerificationStatus: domain.VerificationUnverified,
	}
}

func setupTestRouter(store *mockBacklinkStore, logs *mockCheckLogStore, eng *mockEngine) *gin.Engine {
	gin.SetMode(gin.TestMode)

	handler := NewBacklinksHandler(store, logs, eng)

	router := gin.New()
	router.POST("/backlinks", handler.Create)
	router.GET("/backlinks", handler.List)
	router.GET("/backlinks/stats", handler.Stats)
	router.GET("/backlinks/:id", handler.Get)
	router.DELETE("/backlinks/:id", handler.Delete)
	router.GET("/backlinks/:id/logs", handler.Logs)
	router.POST("/backlinks/:id/verify", handler.Verify)
	router.POST("/backlinks/:id/monitor", handler.Monitor)

	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	return w
}

func TestCreateBacklink(t *testing.T) {
	store := &mockBacklinkStore{}
	router := setupTestRouter(store, &mockCheckLogStore{}, &mockEngine{})

	w := doJSON(t, router, http.MethodPost, "/backlinks", CreateBacklinkRequest{
		SourceURL: "https://blog.example.com/review",
		TargetURL: "https://acme.dev/tool",
	})

	require.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, store.created)
	assert.Equal(t, "https://blog.example.com/review", store.created.SourceURL)
	assert.InDelta(t, 100.00, store.created.UptimePercentage, 0.001)
}

func TestCreateBacklinkValidation(t *testing.T) {
	tests := []struct {
		name string
		req  CreateBacklinkRequest
	}{
		{
			name: "missing target",
			req:  CreateBacklinkRequest{SourceURL: "https://blog.example.com/review"},
		},
		{
			name: "malformed source",
			req:  CreateBacklinkRequest{SourceURL: "not a url", TargetURL: "https://acme.dev/tool"},
		},
		{
			name: "unsupported scheme",
			req:  CreateBacklinkRequest{SourceURL: "https://blog.example.com", TargetURL: "ftp://acme.dev/tool"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &mockBacklinkStore{}
			router := setupTestRouter(store, &mockCheckLogStore{}, &mockEngine{})

			w := doJSON(t, router, http.MethodPost, "/backlinks", tt.req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Nil(t, store.created)
		})
	}
}

func TestListBacklinks(t *testing.T) {
	store := &mockBacklinkStore{
		listResult: []*domain.Backlink{testBacklink("bl-1"), testBacklink("bl-2")},
		listTotal:  7,
	}
	router := setupTestRouter(store, &mockCheckLogStore{}, &mockEngine{})

	w := doJSON(t, router, http.MethodGet, "/backlinks?status=verified&active=true&limit=2&offset=4", nil)

	require.Equal(t, http.StatusOK, w.Code)

	var resp ListBacklinksResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Backlinks, 2)
	assert.Equal(t, 7, resp.Total)
	assert.Equal(t, 2, resp.Limit)
	assert.Equal(t, 4, resp.Offset)

	assert.Equal(t, "verified", store.gotFilters.VerificationStatus)
	require.NotNil(t, store.gotFilters.IsActive)
	assert.True(t, *store.gotFilters.IsActive)
}

func TestGetBacklink(t *testing.T) {
	store := &mockBacklinkStore{byID: map[string]*domain.Backlink{"bl-1": testBacklink("bl-1")}}
	router := setupTestRouter(store, &mockCheckLogStore{}, &mockEngine{})

	w := doJSON(t, router, http.MethodGet, "/backlinks/bl-1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var bl domain.Backlink
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &bl))
	assert.Equal(t, "bl-1", bl.ID)
}

func TestGetBacklinkNotFound(t *testing.T) {
	router := setupTestRouter(&mockBacklinkStore{}, &mockCheckLogStore{}, &mockEngine{})

	w := doJSON(t, router, http.MethodGet, "/backlinks/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteBacklink(t *testing.T) {
	store := &mockBacklinkStore{byID: map[string]*domain.Backlink{"bl-1": testBacklink("bl-1")}}
	router := setupTestRouter(store, &mockCheckLogStore{}, &mockEngine{})

	w := doJSON(t, router, http.MethodDelete, "/backlinks/bl-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, store.byID)

	w = doJSON(t, router, http.MethodDelete, "/backlinks/bl-1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListLogs(t *testing.T) {
	status := http.StatusOK
	store := &mockBacklinkStore{byID: map[string]*domain.Backlink{"bl-1": testBacklink("bl-1")}}
	logs := &mockCheckLogStore{
		logs: []domain.CheckLog{
			{BacklinkID: "bl-1", CheckStatus: domain.CheckStatusSuccess, HTTPStatusCode: &status},
		},
		total: 12,
	}
	router := setupTestRouter(store, logs, &mockEngine{})

	w := doJSON(t, router, http.MethodGet, "/backlinks/bl-1/logs", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp ListLogsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Logs, 1)
	assert.Equal(t, 12, resp.Total)
	assert.Equal(t, domain.CheckStatusSuccess, resp.Logs[0].CheckStatus)
}

func TestStats(t *testing.T) {
	store := &mockBacklinkStore{stats: &database.BacklinkStats{
		TotalVerified: 6,
		TotalActive:   5,
		AverageUptime: 97.25,
	}}
	router := setupTestRouter(store, &mockCheckLogStore{}, &mockEngine{})

	w := doJSON(t, router, http.MethodGet, "/backlinks/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var stats database.BacklinkStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 6, stats.TotalVerified)
	assert.Equal(t, 5, stats.TotalActive)
	assert.InDelta(t, 97.25, stats.AverageUptime, 0.001)
}

func TestVerifyEndpoint(t *testing.T) {
	store := &mockBacklinkStore{byID: map[string]*domain.Backlink{"bl-1": testBacklink("bl-1")}}
	eng := &mockEngine{verifyOutcome: &engine.Outcome{
		Found:      true,
		LinkType:   domain.LinkTypeDofollow,
		AnchorText: "Acme Tool",
		Reason:     engine.ReasonOK,
	}}
	router := setupTestRouter(store, &mockCheckLogStore{}, eng)

	w := doJSON(t, router, http.MethodPost, "/backlinks/bl-1/verify", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp VerifyResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Verified)
	assert.Equal(t, domain.LinkTypeDofollow, resp.LinkType)
	assert.Equal(t, "Acme Tool", resp.AnchorText)
}

func TestVerifyEndpointLinkAbsent(t *testing.T) {
	store := &mockBacklinkStore{byID: map[string]*domain.Backlink{"bl-1": testBacklink("bl-1")}}
	eng := &mockEngine{verifyOutcome: &engine.Outcome{
		Found:    false,
		LinkType: domain.LinkTypeNone,
		Reason:   engine.ReasonNotFound,
	}}
	router := setupTestRouter(store, &mockCheckLogStore{}, eng)

	w := doJSON(t, router, http.MethodPost, "/backlinks/bl-1/verify", nil)

	// A missing link is a successful check with verified:false.
	require.Equal(t, http.StatusOK, w.Code)

	var resp VerifyResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Verified)
	assert.Contains(t, resp.Message, "not found")
}

func TestMonitorEndpoint(t *testing.T) {
	bl := testBacklink("bl-1")
	bl.IsVerified = true
	status := http.StatusOK
	store := &mockBacklinkStore{byID: map[string]*domain.Backlink{"bl-1": bl}}
	eng := &mockEngine{monitorOutcome: &engine.Outcome{
		Found:          true,
		LinkType:       domain.LinkTypeDofollow,
		HTTPStatus:     &status,
		ResponseTimeMs: 120,
		Uptime:         98.5,
		Reason:         engine.ReasonOK,
	}}
	router := setupTestRouter(store, &mockCheckLogStore{}, eng)

	w := doJSON(t, router, http.MethodPost, "/backlinks/bl-1/monitor", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp MonitorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, domain.CheckStatusSuccess, resp.Monitoring.Status)
	assert.Equal(t, int64(120), resp.Monitoring.ResponseTime)
	assert.InDelta(t, 98.5, resp.Monitoring.UptimePercentage, 0.001)
}

func TestMonitorEndpointUnverified(t *testing.T) {
	store := &mockBacklinkStore{byID: map[string]*domain.Backlink{"bl-1": testBacklink("bl-1")}}
	eng := &mockEngine{monitorErr: engine.ErrNotVerified}
	router := setupTestRouter(store, &mockCheckLogStore{}, eng)

	w := doJSON(t, router, http.MethodPost, "/backlinks/bl-1/monitor", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
