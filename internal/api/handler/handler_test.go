package handler_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/taaha-0548/Coders-Cup-Problems/internal/api/handler"
	"github.com/taaha-0548/Coders-Cup-Problems/internal/api/middleware"
	"github.com/taaha-0548/Coders-Cup-Problems/internal/app/service"
	"github.com/taaha-0548/Coders-Cup-Problems/internal/common"
	"github.com/taaha-0548/Coders-Cup-Problems/internal/domain/model"
)

type stubProblems struct {
	list []model.ProblemSummary
	err  error
}

func (s *stubProblems) ListProblems(ctx context.Context) ([]model.ProblemSummary, error) {
	return s.list, s.err
}

func (s *stubProblems) GetProblem(ctx context.Context, id string) (*model.Problem, error) {
	if s.err != nil {
		return nil, s.err
	}
	if id != "P1" {
		return nil, fmt.Errorf("problem %s: %w", id, common.ErrNotFound)
	}
	return &model.Problem{ID: "P1", Title: "Sum", VJLink: "l", Samples: []model.Sample{}}, nil
}

type stubAdmin struct {
	secret  string
	upserts []service.ProblemRequest
	updated string
	deleted string
	err     error
}

func (s *stubAdmin) Authorize(token string) error {
	if token != s.secret {
		return common.ErrUnauthorized
	}
	return nil
}

func (s *stubAdmin) Login(ctx context.Context, token string) error { return s.Authorize(token) }

func (s *stubAdmin) UpsertProblem(ctx context.Context, req service.ProblemRequest) error {
	s.upserts = append(s.upserts, req)
	return s.err
}

func (s *stubAdmin) UpdateProblem(ctx context.Context, id string, req service.ProblemRequest) error {
	s.updated = id
	return s.err
}

func (s *stubAdmin) DeleteProblem(ctx context.Context, id string) error {
	s.deleted = id
	return s.err
}

type stubContest struct {
	countdown, duration int
	minutes             int
	visible             *bool
	err                 error
}

func (s *stubContest) Schedule(ctx context.Context, countdown, duration int) (*model.ContestState, error) {
	s.countdown, s.duration = countdown, duration
	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC).Add(time.Duration(countdown) * time.Minute)
	end := start.Add(time.Duration(duration) * time.Minute)
	return &model.ContestState{Status: model.ContestPending, StartTime: &start, EndTime: &end}, s.err
}

func (s *stubContest) Start(ctx context.Context, duration int) (*model.ContestState, error) {
	s.duration = duration
	return &model.ContestState{Status: model.ContestRunning}, s.err
}

func (s *stubContest) AddTime(ctx context.Context, minutes int) error {
	s.minutes = minutes
	return s.err
}

func (s *stubContest) AddPrecountdownTime(ctx context.Context, minutes int) error {
	s.minutes = minutes
	return s.err
}

func (s *stubContest) Stop(ctx context.Context) error  { return s.err }
func (s *stubContest) Reset(ctx context.Context) error { return s.err }

func (s *stubContest) SetVisibility(ctx context.Context, visible bool) error {
	s.visible = &visible
	return s.err
}

func (s *stubContest) Status(ctx context.Context) (*service.StatusView, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &service.StatusView{Status: model.ContestPending, Message: "No active contest"}, nil
}

func (s *stubContest) LastUpdate(ctx context.Context) (*service.LastUpdateView, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &service.LastUpdateView{LastUpdate: 1700000000, Status: "ok", ContestStatus: model.ContestRunning}, nil
}

type stubHealth struct {
	err   error
	count int
}

func (s *stubHealth) Check(ctx context.Context) (*service.HealthReport, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &service.HealthReport{Status: "healthy", Database: "connected", CacheSize: 3}, nil
}

func (s *stubHealth) TestConnection(ctx context.Context) (int, error) { return s.count, s.err }

func serve(t *testing.T, mount func(chi.Router), method, path, body string, headers map[string]string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	r := chi.NewRouter()
	mount(r)

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var out map[string]interface{}
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return rec, out
}

func TestProblemRoutes(t *testing.T) {
	stub := &stubProblems{list: []model.ProblemSummary{{ID: "A", Title: "Alpha"}}}
	mount := handler.NewProblemHandler(stub).RegisterRoutes

	rec, _ := serve(t, mount, http.MethodGet, "/", "", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"time_limit":null`) {
		t.Fatalf("list: %d %s", rec.Code, rec.Body.String())
	}

	rec, out := serve(t, mount, http.MethodGet, "/P1", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("detail: %d", rec.Code)
	}
	if samples, ok := out["samples"].([]interface{}); !ok || len(samples) != 0 {
		t.Fatalf("expected samples: [], got %v", out["samples"])
	}

	rec, out = serve(t, mount, http.MethodGet, "/nope", "", nil)
	if rec.Code != http.StatusNotFound || out["error"] == nil {
		t.Fatalf("missing: %d %v", rec.Code, out)
	}
}

func TestProblemListDatastoreFailure(t *testing.T) {
	stub := &stubProblems{err: common.DependencyError("list", fmt.Errorf("connection refused"))}
	rec, out := serve(t, handler.NewProblemHandler(stub).RegisterRoutes, http.MethodGet, "/", "", nil)
	if rec.Code != http.StatusInternalServerError || !strings.Contains(out["error"].(string), "connection refused") {
		t.Fatalf("unexpected %d %v", rec.Code, out)
	}
}

func TestAdminLogin(t *testing.T) {
	stub := &stubAdmin{secret: "pw"}
	mount := handler.NewAdminHandler(stub).RegisterRoutes

	rec, out := serve(t, mount, http.MethodPost, "/login", "", map[string]string{middleware.AdminTokenHeader: "pw"})
	if rec.Code != http.StatusOK || out["message"] != "Login successful" {
		t.Fatalf("login: %d %v", rec.Code, out)
	}
	rec, out = serve(t, mount, http.MethodPost, "/login", "", map[string]string{middleware.AdminTokenHeader: "bad"})
	if rec.Code != http.StatusUnauthorized || out["error"] != "Invalid password" {
		t.Fatalf("bad login: %d %v", rec.Code, out)
	}
}

func TestAdminProblemMutations(t *testing.T) {
	stub := &stubAdmin{secret: "pw"}
	mount := handler.NewAdminHandler(stub).RegisterRoutes
	auth := map[string]string{middleware.AdminTokenHeader: "pw"}

	body := `{"id":"A","title":"T","timeLimit":2,"memoryLimit":"256 MB","statement":"s","input":"i","output":"o","constraints":"c","vjLink":"l","samples":[{"input":"1","output":"2"}]}`
	rec, out := serve(t, mount, http.MethodPost, "/problems", body, auth)
	if rec.Code != http.StatusOK || out["status"] != "success" {
		t.Fatalf("upsert: %d %v", rec.Code, out)
	}
	if len(stub.upserts) != 1 || *stub.upserts[0].TimeLimit.Ptr() != "2" || len(stub.upserts[0].Samples) != 1 {
		t.Fatalf("unexpected decoded request %+v", stub.upserts)
	}

	rec, _ = serve(t, mount, http.MethodPut, "/problems/A", body, auth)
	if rec.Code != http.StatusOK || stub.updated != "A" {
		t.Fatalf("update: %d %q", rec.Code, stub.updated)
	}

	rec, out = serve(t, mount, http.MethodDelete, "/problems/ghost-id", "", auth)
	if rec.Code != http.StatusOK || out["message"] != "Problem deleted successfully" || stub.deleted != "ghost-id" {
		t.Fatalf("delete: %d %v", rec.Code, out)
	}
}

func TestAdminProblemRoutesRequireToken(t *testing.T) {
	stub := &stubAdmin{secret: "pw"}
	mount := handler.NewAdminHandler(stub).RegisterRoutes

	rec, _ := serve(t, mount, http.MethodDelete, "/problems/A", "", nil)
	if rec.Code != http.StatusUnauthorized || stub.deleted != "" {
		t.Fatalf("expected 401 before any mutation, got %d", rec.Code)
	}
}

func TestAdminMalformedJSON(t *testing.T) {
	stub := &stubAdmin{secret: "pw"}
	rec, _ := serve(t, handler.NewAdminHandler(stub).RegisterRoutes, http.MethodPost, "/problems", `{"id":`, map[string]string{middleware.AdminTokenHeader: "pw"})
	if rec.Code != http.StatusBadRequest || len(stub.upserts) != 0 {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestTrailingDataAfterBodyIs400(t *testing.T) {
	stub := &stubContest{}
	mount := handler.NewContestHandler(stub).RegisterAdminRoutes

	for _, body := range []string{`{"minutes":5} garbage`, `{"minutes":5}{"minutes":7}`} {
		rec, out := serve(t, mount, http.MethodPost, "/add-time", body, nil)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("body %q: expected 400, got %d", body, rec.Code)
		}
		if out["error"] == nil {
			t.Fatalf("body %q: expected error body, got %v", body, out)
		}
	}
	if stub.minutes != 0 {
		t.Fatalf("service must not be called, minutes=%d", stub.minutes)
	}

	rec, _ := serve(t, mount, http.MethodPost, "/add-time", "{\"minutes\":5}\n", nil)
	if rec.Code != http.StatusOK || stub.minutes != 5 {
		t.Fatalf("trailing whitespace must be accepted, got %d minutes=%d", rec.Code, stub.minutes)
	}
}

func TestScheduleDefaultsAndResponse(t *testing.T) {
	stub := &stubContest{}
	mount := handler.NewContestHandler(stub).RegisterAdminRoutes

	rec, out := serve(t, mount, http.MethodPost, "/schedule", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("schedule: %d", rec.Code)
	}
	if stub.countdown != 5 || stub.duration != 120 {
		t.Fatalf("expected defaults 5/120, got %d/%d", stub.countdown, stub.duration)
	}
	if out["start_time"] != "2025-03-01T12:05:00Z" || out["end_time"] != "2025-03-01T14:05:00Z" {
		t.Fatalf("unexpected times %v", out)
	}

	_, _ = serve(t, mount, http.MethodPost, "/schedule", `{"countdown_minutes":0,"duration_minutes":10}`, nil)
	if stub.countdown != 0 || stub.duration != 10 {
		t.Fatalf("explicit zero countdown lost: %d/%d", stub.countdown, stub.duration)
	}
}

func TestContestAdminBodies(t *testing.T) {
	stub := &stubContest{}
	mount := handler.NewContestHandler(stub).RegisterAdminRoutes

	if rec, _ := serve(t, mount, http.MethodPost, "/start", `{"duration_minutes":90}`, nil); rec.Code != http.StatusOK || stub.duration != 90 {
		t.Fatalf("start: %d duration=%d", rec.Code, stub.duration)
	}
	if rec, _ := serve(t, mount, http.MethodPost, "/add-time", `{"minutes":15}`, nil); rec.Code != http.StatusOK || stub.minutes != 15 {
		t.Fatalf("add-time: %d minutes=%d", rec.Code, stub.minutes)
	}
	if rec, _ := serve(t, mount, http.MethodPost, "/add-precountdown-time", `{"minutes":3}`, nil); rec.Code != http.StatusOK || stub.minutes != 3 {
		t.Fatalf("add-precountdown-time: %d minutes=%d", rec.Code, stub.minutes)
	}
	if rec, out := serve(t, mount, http.MethodPost, "/visibility", `{"is_visible":true}`, nil); rec.Code != http.StatusOK || stub.visible == nil || !*stub.visible {
		t.Fatalf("visibility: %d %v", rec.Code, out)
	}
	for _, path := range []string{"/stop", "/reset"} {
		if rec, _ := serve(t, mount, http.MethodPost, path, "", nil); rec.Code != http.StatusOK {
			t.Fatalf("%s: %d", path, rec.Code)
		}
	}
}

func TestContestInvalidStateIs400(t *testing.T) {
	stub := &stubContest{err: fmt.Errorf("%w: no active contest", common.ErrInvalidState)}
	rec, out := serve(t, handler.NewContestHandler(stub).RegisterAdminRoutes, http.MethodPost, "/add-time", `{"minutes":15}`, nil)
	if rec.Code != http.StatusBadRequest || !strings.Contains(out["error"].(string), "no active contest") {
		t.Fatalf("unexpected %d %v", rec.Code, out)
	}
}

func TestContestPublicRoutes(t *testing.T) {
	stub := &stubContest{}
	mount := handler.NewContestHandler(stub).RegisterRoutes

	rec, out := serve(t, mount, http.MethodGet, "/status", "", nil)
	if rec.Code != http.StatusOK || out["message"] != "No active contest" || out["remaining_time"] != float64(0) {
		t.Fatalf("status: %d %v", rec.Code, out)
	}
	rec, out = serve(t, mount, http.MethodGet, "/last-update", "", nil)
	if rec.Code != http.StatusOK || out["last_update"] != float64(1700000000) || out["contest_status"] != "running" {
		t.Fatalf("last-update: %d %v", rec.Code, out)
	}
}

func TestLastUpdateFailureKeepsShape(t *testing.T) {
	stub := &stubContest{err: common.DependencyError("get", fmt.Errorf("timeout"))}
	rec, out := serve(t, handler.NewContestHandler(stub).RegisterRoutes, http.MethodGet, "/last-update", "", nil)
	if rec.Code != http.StatusInternalServerError || out["last_update"] != float64(0) || out["error"] == nil {
		t.Fatalf("unexpected %d %v", rec.Code, out)
	}
}

func TestHealthRoutes(t *testing.T) {
	mount := handler.NewHealthHandler(&stubHealth{count: 4}).RegisterRoutes

	rec, out := serve(t, mount, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK || out["cache_size"] != float64(3) {
		t.Fatalf("health: %d %v", rec.Code, out)
	}
	rec, out = serve(t, mount, http.MethodGet, "/test-connection", "", nil)
	if rec.Code != http.StatusOK || out["message"] != "Connected to database. Found 4 problems." || out["cache_enabled"] != true {
		t.Fatalf("test-connection: %d %v", rec.Code, out)
	}
	rec, out = serve(t, mount, http.MethodGet, "/info", "", nil)
	if rec.Code != http.StatusOK || out["version"] != "1.0" {
		t.Fatalf("info: %d %v", rec.Code, out)
	}
}

func TestHealthRoutesDatabaseDown(t *testing.T) {
	mount := handler.NewHealthHandler(&stubHealth{err: common.DependencyError("ping", fmt.Errorf("refused"))}).RegisterRoutes

	rec, out := serve(t, mount, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusInternalServerError || out["status"] != "unhealthy" || out["database"] != "disconnected" {
		t.Fatalf("health: %d %v", rec.Code, out)
	}
	rec, out = serve(t, mount, http.MethodGet, "/test-connection", "", nil)
	if rec.Code != http.StatusInternalServerError || out["status"] != "error" {
		t.Fatalf("test-connection: %d %v", rec.Code, out)
	}
}
