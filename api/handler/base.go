package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/tasknest/backend/api/transport"
	"github.com/tasknest/backend/domain"
	"github.com/tasknest/backend/pkg/httpcontext"
)

type baseHandler struct {
	adapter *httpcontext.Adapter
	logger  *zap.Logger
}

func newBaseHandler(adapter *httpcontext.Adapter, logger *zap.Logger) baseHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return baseHandler{adapter: adapter, logger: logger}
}

func (h baseHandler) requestContext(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	if h.adapter != nil {
		return h.adapter.Attach(ctx)
	}
	return context.WithCancel(context.Background())
}

func (h baseHandler) respondJSON(ctx *fasthttp.RequestCtx, status int, payload interface{}) {
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	if payload == nil {
		return
	}
	body, _ := json.Marshal(payload)
	ctx.SetBody(body)
}

// respondRaw writes an already-serialized JSON payload verbatim.
func (h baseHandler) respondRaw(ctx *fasthttp.RequestCtx, status int, body []byte) {
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	ctx.SetBody(body)
}

func (h baseHandler) respondError(ctx *fasthttp.RequestCtx, err error) {
	status, code, message := mapError(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", zap.Error(err))
	}
	h.respondJSON(ctx, status, transport.ErrorResponse{Code: code, Message: message})
}

// mapError translates the domain taxonomy into client-facing statuses.
// Unknown errors collapse to a generic 500 so no internal detail leaks.
func mapError(err error) (int, string, string) {
	var dErr *domain.Error
	if errors.As(err, &dErr) {
		switch dErr.Code {
		case domain.ErrCodeUnauthorized:
			return http.StatusUnauthorized, string(dErr.Code), dErr.Message
		case domain.ErrCodeForbidden:
			return http.StatusForbidden, string(dErr.Code), dErr.Message
		case domain.ErrCodeInvalid:
			return http.StatusBadRequest, string(dErr.Code), dErr.Message
		case domain.ErrCodeConflict:
			// duplicate titles answer 400, not 409
			return http.StatusBadRequest, string(dErr.Code), dErr.Message
		case domain.ErrCodeNotFound:
			return http.StatusNotFound, string(dErr.Code), dErr.Message
		case domain.ErrCodeRateLimited:
			return http.StatusTooManyRequests, string(dErr.Code), dErr.Message
		case domain.ErrCodeUnavailable:
			return http.StatusServiceUnavailable, string(dErr.Code), dErr.Message
		}
	}
	return http.StatusInternalServerError, string(domain.ErrCodeInternal), "internal error"
}
