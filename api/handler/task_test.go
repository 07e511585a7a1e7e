package handler_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/tasknest/backend/api/handler"
	"github.com/tasknest/backend/domain"
	"github.com/tasknest/backend/internal/metrics"
	"github.com/tasknest/backend/internal/middleware"
	"github.com/tasknest/backend/internal/router"
	"github.com/tasknest/backend/repository"
	taskUC "github.com/tasknest/backend/usecase/task"
)

// memRepo is an in-memory task store with the same ownership and uniqueness
// semantics as the Postgres implementation.
type memRepo struct {
	mu    sync.Mutex
	tasks map[string]domain.Task
	calls int
	now   time.Time
}

func newMemRepo() *memRepo {
	return &memRepo{tasks: make(map[string]domain.Task), now: time.Now()}
}

func (r *memRepo) tick() time.Time {
	r.now = r.now.Add(time.Second)
	return r.now
}

func (r *memRepo) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.tasks {
		if existing.Owner == task.Owner && existing.Title == task.Title {
			return nil, domain.ErrTaskTitleTaken
		}
	}
	stored := *task
	stored.ID = uuid.NewString()
	stored.CreatedAt = r.tick()
	stored.UpdatedAt = stored.CreatedAt
	r.tasks[stored.ID] = stored
	return &stored, nil
}

func (r *memRepo) GetByID(ctx context.Context, id, owner string) (*domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	task, ok := r.tasks[id]
	if !ok || task.Owner != owner {
		return nil, domain.ErrTaskNotFound
	}
	return &task, nil
}

func (r *memRepo) List(ctx context.Context, owner string, page, pageSize int) (int64, []domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++

	var owned []domain.Task
	for _, task := range r.tasks {
		if task.Owner == owner {
			owned = append(owned, task)
		}
	}
	sort.Slice(owned, func(i, j int) bool { return owned[i].CreatedAt.After(owned[j].CreatedAt) })

	total := int64(len(owned))
	start := (page - 1) * pageSize
	if start >= len(owned) {
		return total, nil, nil
	}
	end := start + pageSize
	if end > len(owned) {
		end = len(owned)
	}
	return total, owned[start:end], nil
}

func (r *memRepo) Update(ctx context.Context, id, owner string, patch repository.TaskPatch) (*domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	task, ok := r.tasks[id]
	if !ok || task.Owner != owner {
		return nil, domain.ErrTaskNotFound
	}
	if patch.Title != nil {
		task.Title = *patch.Title
	}
	if patch.Description != nil {
		task.Description = *patch.Description
	}
	if patch.Status != nil {
		task.Status = *patch.Status
	}
	task.UpdatedAt = r.tick()
	r.tasks[id] = task
	return &task, nil
}

func (r *memRepo) Delete(ctx context.Context, id, owner string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	task, ok := r.tasks[id]
	if !ok || task.Owner != owner {
		return domain.ErrTaskNotFound
	}
	delete(r.tasks, id)
	return nil
}

type memCache struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func newMemCache() *memCache { return &memCache{entries: make(map[string][]byte)} }

func (c *memCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	payload, ok := c.entries[key]
	if !ok {
		return nil, nil
	}
	return payload, nil
}

func (c *memCache) Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = payload
	return nil
}

func (c *memCache) Invalidate(ctx context.Context, pattern string) error { return nil }

type memLimiter struct {
	mu     sync.Mutex
	limit  int
	counts map[string]int
}

func (l *memLimiter) Allow(ctx context.Context, identity string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.counts == nil {
		l.counts = make(map[string]int)
	}
	l.counts[identity]++
	return l.counts[identity] <= l.limit, nil
}

// staticResolver maps bearer tokens to principals the way the JWKS resolver
// would after signature verification.
type staticResolver struct {
	principals map[string]*domain.Principal
}

func (r *staticResolver) Resolve(token string) (*domain.Principal, error) {
	if p, ok := r.principals[token]; ok {
		return p, nil
	}
	return nil, domain.ErrUnauthorized
}

type okProber struct{}

func (okProber) Ping(ctx context.Context) error { return nil }

type testServer struct {
	handle fasthttp.RequestHandler
	repo   *memRepo
}

func newTestServer(t *testing.T, limit int) *testServer {
	t.Helper()

	repo := newMemRepo()
	uc := taskUC.New(repo, newMemCache(), nil, time.Minute, nil)

	resolver := &staticResolver{principals: map[string]*domain.Principal{
		"alice-token": {Username: "alice", Roles: []string{"admin", "user"}},
		"bob-token":   {Username: "bob", Roles: []string{"user"}},
	}}

	handlers := router.Handlers{
		Task:    apiHandler.NewTaskHandler(uc, nil, nil),
		Health:  apiHandler.NewHealthHandler(nil, nil, nil),
		Metrics: apiHandler.NewMetricsHandler(metrics.New(), okProber{}),
	}
	pipeline := router.Pipeline{
		Authenticate: middleware.Authenticate(resolver, nil),
		RequireUser:  middleware.RequireRoles(nil, "admin", "user"),
		RequireAdmin: middleware.RequireRoles(nil, "admin"),
		RateLimit:    middleware.RateLimit(&memLimiter{limit: limit}, nil),
	}

	return &testServer{handle: router.New(handlers, pipeline).Handler, repo: repo}
}

func (s *testServer) do(method, uri, token, body string) *fasthttp.RequestCtx {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(uri)
	if token != "" {
		ctx.Request.Header.Set("Authorization", "Bearer "+token)
	}
	if body != "" {
		ctx.Request.Header.SetContentType("application/json")
		ctx.Request.SetBodyString(body)
	}
	s.handle(ctx)
	return ctx
}

func decodeTask(t *testing.T, ctx *fasthttp.RequestCtx) map[string]interface{} {
	t.Helper()
	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &payload))
	return payload
}

func TestTaskLifecycle(t *testing.T) {
	server := newTestServer(t, 1000)

	// alice creates T1
	resp := server.do(http.MethodPost, "/tasks", "alice-token", `{"title":"T1","description":"first"}`)
	require.Equal(t, http.StatusCreated, resp.Response.StatusCode())
	created := decodeTask(t, resp)
	assert.Equal(t, "T1", created["title"])
	assert.Equal(t, domain.StatusPending, created["status"])
	assert.NotContains(t, created, "owner", "owner identity must not leak into responses")
	taskID := created["id"].(string)
	require.NotEmpty(t, taskID)

	// duplicate title for the same owner
	resp = server.do(http.MethodPost, "/tasks", "alice-token", `{"title":"T1"}`)
	assert.Equal(t, http.StatusBadRequest, resp.Response.StatusCode())

	// same title for a different owner is fine
	resp = server.do(http.MethodPost, "/tasks", "bob-token", `{"title":"T1"}`)
	assert.Equal(t, http.StatusCreated, resp.Response.StatusCode())
	bobTaskID := decodeTask(t, resp)["id"].(string)

	// alice lists her tasks
	resp = server.do(http.MethodGet, "/tasks?page=1&page_size=10", "alice-token", "")
	require.Equal(t, http.StatusOK, resp.Response.StatusCode())
	var page domain.TaskPage
	require.NoError(t, json.Unmarshal(resp.Response.Body(), &page))
	assert.Equal(t, int64(1), page.Total)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "T1", page.Items[0].Title)

	// alice reads her task, bob cannot
	resp = server.do(http.MethodGet, "/tasks/"+taskID, "alice-token", "")
	assert.Equal(t, http.StatusOK, resp.Response.StatusCode())
	resp = server.do(http.MethodGet, "/tasks/"+taskID, "bob-token", "")
	assert.Equal(t, http.StatusNotFound, resp.Response.StatusCode())

	// partial update
	resp = server.do(http.MethodPatch, "/tasks/"+taskID, "alice-token", `{"status":"completed"}`)
	require.Equal(t, http.StatusOK, resp.Response.StatusCode())
	updated := decodeTask(t, resp)
	assert.Equal(t, domain.StatusCompleted, updated["status"])
	assert.Equal(t, "T1", updated["title"])

	// delete and verify it is gone
	resp = server.do(http.MethodDelete, "/tasks/"+taskID, "alice-token", "")
	assert.Equal(t, http.StatusNoContent, resp.Response.StatusCode())
	resp = server.do(http.MethodGet, "/tasks/"+taskID, "alice-token", "")
	assert.Equal(t, http.StatusNotFound, resp.Response.StatusCode())
	resp = server.do(http.MethodDelete, "/tasks/"+taskID, "alice-token", "")
	assert.Equal(t, http.StatusNotFound, resp.Response.StatusCode())

	// bob's task is untouched
	resp = server.do(http.MethodGet, "/tasks/"+bobTaskID, "bob-token", "")
	assert.Equal(t, http.StatusOK, resp.Response.StatusCode())
}

func TestDeleteRequiresAdminRole(t *testing.T) {
	server := newTestServer(t, 1000)

	resp := server.do(http.MethodPost, "/tasks", "bob-token", `{"title":"mine"}`)
	require.Equal(t, http.StatusCreated, resp.Response.StatusCode())
	id := decodeTask(t, resp)["id"].(string)

	resp = server.do(http.MethodDelete, "/tasks/"+id, "bob-token", "")
	assert.Equal(t, http.StatusForbidden, resp.Response.StatusCode())

	// task survives the rejected delete
	resp = server.do(http.MethodGet, "/tasks/"+id, "bob-token", "")
	assert.Equal(t, http.StatusOK, resp.Response.StatusCode())
}

func TestAuthenticationRequired(t *testing.T) {
	server := newTestServer(t, 1000)

	for _, route := range []struct{ method, uri string }{
		{http.MethodPost, "/tasks"},
		{http.MethodGet, "/tasks"},
		{http.MethodGet, "/tasks/" + uuid.NewString()},
		{http.MethodPatch, "/tasks/" + uuid.NewString()},
		{http.MethodDelete, "/tasks/" + uuid.NewString()},
	} {
		resp := server.do(route.method, route.uri, "", "")
		assert.Equal(t, http.StatusUnauthorized, resp.Response.StatusCode(), "%s %s", route.method, route.uri)

		resp = server.do(route.method, route.uri, "forged-token", "")
		assert.Equal(t, http.StatusUnauthorized, resp.Response.StatusCode(), "%s %s with bad token", route.method, route.uri)
	}
}

func TestRateLimitExhaustion(t *testing.T) {
	server := newTestServer(t, 3)

	for i := 0; i < 3; i++ {
		resp := server.do(http.MethodGet, "/tasks", "alice-token", "")
		require.Equal(t, http.StatusOK, resp.Response.StatusCode())
	}

	listCallsBefore := server.repo.calls
	resp := server.do(http.MethodGet, "/tasks", "alice-token", "")
	assert.Equal(t, http.StatusTooManyRequests, resp.Response.StatusCode())
	assert.Equal(t, listCallsBefore, server.repo.calls, "rejected request must not reach the store")

	// bob has his own window
	resp = server.do(http.MethodGet, "/tasks", "bob-token", "")
	assert.Equal(t, http.StatusOK, resp.Response.StatusCode())
}

func TestMalformedTaskID(t *testing.T) {
	server := newTestServer(t, 1000)

	resp := server.do(http.MethodGet, "/tasks/not-a-uuid", "alice-token", "")
	assert.Equal(t, http.StatusNotFound, resp.Response.StatusCode())
}

func TestInvalidCreatePayload(t *testing.T) {
	server := newTestServer(t, 1000)

	for name, body := range map[string]string{
		"not json":       `{"title":`,
		"empty title":    `{"title":""}`,
		"invalid status": `{"title":"ok","status":"archived"}`,
		"title too long": fmt.Sprintf(`{"title":%q}`, strings.Repeat("x", 256)),
	} {
		resp := server.do(http.MethodPost, "/tasks", "alice-token", body)
		assert.Equal(t, http.StatusBadRequest, resp.Response.StatusCode(), name)
	}
}

func TestMetricsEndpointIsPublic(t *testing.T) {
	server := newTestServer(t, 1000)

	resp := server.do(http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, resp.Response.StatusCode())

	body := string(resp.Response.Body())
	assert.Contains(t, body, "db_up 1")
	assert.Contains(t, body, "db_query_latency_seconds")
	assert.Contains(t, body, "db_errors_total")
}
