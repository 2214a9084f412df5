package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"

	"e-nagarpalika-portal/internal/config"
	"e-nagarpalika-portal/internal/core/services"
	"e-nagarpalika-portal/internal/core/workflow"
	"e-nagarpalika-portal/internal/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type memRepo struct {
	mu       sync.Mutex
	apps     map[string]workflow.Application
	conflict bool
}

func (r *memRepo) Create(_ context.Context, app *workflow.Application) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.apps[app.ID] = app.Clone()
	return nil
}

func (r *memRepo) FindByID(_ context.Context, id string) (*workflow.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	app, ok := r.apps[id]
	if !ok {
		return nil, workflow.ErrNotFound
	}
	c := app.Clone()
	return &c, nil
}

func (r *memRepo) FindByTicketOrEmail(_ context.Context, q string) (*workflow.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, app := range r.apps {
		if app.TicketNo == q || app.Request.Email == q {
			c := app.Clone()
			return &c, nil
		}
	}
	return nil, workflow.ErrNotFound
}

func (r *memRepo) FindMany(_ context.Context, f workflow.Filter, offset, limit int) ([]*workflow.Application, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*workflow.Application
	for _, app := range r.apps {
		if f.Matches(app) {
			c := app.Clone()
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, int64(len(out)), nil
}

func (r *memRepo) Count(ctx context.Context, f workflow.Filter) (int64, error) {
	_, n, err := r.FindMany(ctx, f, 0, 0)
	return n, err
}

func (r *memRepo) ConditionalUpdate(_ context.Context, app *workflow.Application, expected int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.apps[app.ID]
	if !ok {
		return workflow.ErrNotFound
	}
	if r.conflict || stored.Version != expected {
		return workflow.ErrConcurrentModification
	}
	app.Version = expected + 1
	r.apps[app.ID] = app.Clone()
	return nil
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

func newTestApp(t *testing.T) (*fiber.App, *memRepo) {
	t.Helper()
	cfg := &config.Config{AppMode: "dev", JWT: config.JWTConfig{Secret: testSecret, AccessTokenMins: 15}}
	repo := &memRepo{apps: map[string]workflow.Application{}}
	engine := workflow.NewEngine(nil)

	app := fiber.New()
	Setup(app, Dependencies{
		Config:       cfg,
		Auth:         services.NewAuthService(nil, nil, cfg),
		Applications: services.NewApplicationService(repo, engine, nil),
		Dashboard:    services.NewDashboardService(repo, engine.Policy()),
		HealthCheck:  func(context.Context) error { return nil },
	})
	return app, repo
}

func tokenFor(t *testing.T, identity string, role workflow.Role) string {
	t.Helper()
	tok, err := jwt.GenerateAccessToken(1, identity, string(role), testSecret, 15)
	require.NoError(t, err)
	return tok
}

func call(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp.StatusCode, env
}

var form = map[string]interface{}{
	"natureOfRequest": []string{"New User ID"},
	"sourceSystem":    []string{"SAP"},
	"employeeName":    "Asha Patil",
	"employeeCode":    "E-1042",
	"email":           "asha@example.com",
}

func submitForm(t *testing.T, app *fiber.App, token string) services.SubmitResult {
	t.Helper()
	status, env := call(t, app, http.MethodPost, "/api/v1/applications", token, form)
	require.Equal(t, http.StatusCreated, status, env.Error)
	var res services.SubmitResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	return res
}

func TestApplicationRoutes_Workflow(t *testing.T) {
	app, _ := newTestApp(t)
	employee := tokenFor(t, "emp001", workflow.RoleEmployee)
	assistant := tokenFor(t, "it.assistant", workflow.RoleITAssistant)
	officer := tokenFor(t, "it.officer", workflow.RoleITOfficer)

	status, _ := call(t, app, http.MethodPost, "/api/v1/applications", "", form)
	assert.Equal(t, http.StatusUnauthorized, status)

	res := submitForm(t, app, employee)
	path := "/api/v1/applications/" + res.ID

	status, env := call(t, app, http.MethodPut, path, officer, map[string]string{"action": "approve", "level": "ITOfficer"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, env.Error, "ITAssistant approval required")

	status, _ = call(t, app, http.MethodPut, path, employee, map[string]string{"action": "approve", "level": "ITAssistant"})
	assert.Equal(t, http.StatusForbidden, status)

	status, env = call(t, app, http.MethodPut, path, assistant, map[string]string{"action": "approve", "level": "ITAssistant"})
	require.Equal(t, http.StatusOK, status, env.Error)
	var view services.ApplicationView
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Equal(t, workflow.StageITOfficer, view.CurrentLevel)
	assert.Equal(t, workflow.FlowApproved, view.FlowStatus[workflow.StageITAssistant])

	status, env = call(t, app, http.MethodGet, "/api/v1/applications/track?query="+res.TicketNo, "", nil)
	require.Equal(t, http.StatusOK, status)
	var track services.ApplicationView
	require.NoError(t, json.Unmarshal(env.Data, &track))
	assert.Equal(t, "Forwarded to ITOfficer", track.StatusMessage)

	status, _ = call(t, app, http.MethodPut, "/api/v1/applications/missing", assistant, map[string]string{"action": "approve", "level": "ITAssistant"})
	assert.Equal(t, http.StatusNotFound, status)
}

func TestApplicationRoutes_Conflict(t *testing.T) {
	app, repo := newTestApp(t)
	res := submitForm(t, app, tokenFor(t, "emp001", workflow.RoleEmployee))

	repo.conflict = true
	status, _ := call(t, app, http.MethodPut, "/api/v1/applications/"+res.ID,
		tokenFor(t, "it.assistant", workflow.RoleITAssistant),
		map[string]string{"action": "approve", "level": "ITAssistant"})
	assert.Equal(t, http.StatusConflict, status)
}

func TestApplicationRoutes_ListAndDashboard(t *testing.T) {
	app, _ := newTestApp(t)
	employee := tokenFor(t, "emp001", workflow.RoleEmployee)
	submitForm(t, app, employee)
	submitForm(t, app, tokenFor(t, "clerk007", workflow.RoleClerk))

	status, env := call(t, app, http.MethodGet, "/api/v1/applications?status=pending", employee, nil)
	require.Equal(t, http.StatusOK, status)
	var page struct {
		Data []services.ApplicationView `json:"data"`
		Meta struct {
			Total int64 `json:"total"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Equal(t, int64(1), page.Meta.Total)
	assert.Equal(t, "emp001", page.Data[0].UserID)

	status, _ = call(t, app, http.MethodGet, "/api/v1/applications?status=bogus", employee, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, env = call(t, app, http.MethodGet, "/api/v1/dashboard", tokenFor(t, "it.head", workflow.RoleITHead), nil)
	require.Equal(t, http.StatusOK, status)
	var dash services.DashboardData
	require.NoError(t, json.Unmarshal(env.Data, &dash))
	assert.Equal(t, int64(2), dash.Total)
	assert.Equal(t, int64(2), dash.Counts[workflow.BucketPending])
}

func TestHealthRoutes(t *testing.T) {
	app, _ := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
