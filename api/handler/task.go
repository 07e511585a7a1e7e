package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/tasknest/backend/api/transport"
	"github.com/tasknest/backend/domain"
	"github.com/tasknest/backend/internal/middleware"
	"github.com/tasknest/backend/pkg/httpcontext"
	"github.com/tasknest/backend/repository"
	taskUC "github.com/tasknest/backend/usecase/task"
)

type TaskHandler struct {
	baseHandler
	uc *taskUC.UseCase
}

func NewTaskHandler(uc *taskUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// CreateTask handles POST /tasks.
func (h *TaskHandler) CreateTask(ctx *fasthttp.RequestCtx) {
	principal := middleware.PrincipalFrom(ctx)
	if principal == nil {
		h.respondError(ctx, domain.ErrUnauthorized)
		return
	}

	var req transport.TaskCreateRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondError(ctx, domain.ErrInvalidPayload)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	created, err := h.uc.Create(stdCtx, principal.Username, req.Title, req.Description, req.Status)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondJSON(ctx, http.StatusCreated, created)
}

// GetTasks handles GET /tasks with page/page_size query parameters. Cache hits
// short-circuit serialization entirely.
func (h *TaskHandler) GetTasks(ctx *fasthttp.RequestCtx) {
	principal := middleware.PrincipalFrom(ctx)
	if principal == nil {
		h.respondError(ctx, domain.ErrUnauthorized)
		return
	}

	page := parseInt(string(ctx.QueryArgs().Peek("page")), 1)
	pageSize := parseInt(string(ctx.QueryArgs().Peek("page_size")), 10)

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	payload, err := h.uc.List(stdCtx, principal.Username, page, pageSize)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondRaw(ctx, http.StatusOK, payload)
}

// GetTask handles GET /tasks/{id}.
func (h *TaskHandler) GetTask(ctx *fasthttp.RequestCtx) {
	principal := middleware.PrincipalFrom(ctx)
	if principal == nil {
		h.respondError(ctx, domain.ErrUnauthorized)
		return
	}

	id, ok := taskID(ctx)
	if !ok {
		h.respondError(ctx, domain.ErrTaskNotFound)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	task, err := h.uc.Get(stdCtx, id, principal.Username)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondJSON(ctx, http.StatusOK, task)
}

// UpdateTask handles PATCH /tasks/{id}; only fields present in the body are
// applied.
func (h *TaskHandler) UpdateTask(ctx *fasthttp.RequestCtx) {
	principal := middleware.PrincipalFrom(ctx)
	if principal == nil {
		h.respondError(ctx, domain.ErrUnauthorized)
		return
	}

	id, ok := taskID(ctx)
	if !ok {
		h.respondError(ctx, domain.ErrTaskNotFound)
		return
	}

	var req transport.TaskUpdateRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondError(ctx, domain.ErrInvalidPayload)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	updated, err := h.uc.Update(stdCtx, id, principal.Username, repository.TaskPatch{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
	})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondJSON(ctx, http.StatusOK, updated)
}

// DeleteTask handles DELETE /tasks/{id}.
func (h *TaskHandler) DeleteTask(ctx *fasthttp.RequestCtx) {
	principal := middleware.PrincipalFrom(ctx)
	if principal == nil {
		h.respondError(ctx, domain.ErrUnauthorized)
		return
	}

	id, ok := taskID(ctx)
	if !ok {
		h.respondError(ctx, domain.ErrTaskNotFound)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.Delete(stdCtx, id, principal.Username); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondJSON(ctx, http.StatusNoContent, nil)
}

// taskID validates the path segment as a UUID. Malformed ids are reported as
// not-found, same as missing ones.
func taskID(ctx *fasthttp.RequestCtx) (string, bool) {
	raw, _ := ctx.UserValue("id").(string)
	if raw == "" {
		return "", false
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return "", false
	}
	return parsed.String(), true
}

func parseInt(value string, fallback int) int {
	if v, err := strconv.Atoi(value); err == nil {
		return v
	}
	return fallback
}
