package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/tasknest/backend/domain"
	"github.com/tasknest/backend/repository"
)

// RequireRoles rejects principals whose role set does not intersect the
// allowed set. Must run after Authenticate.
func RequireRoles(logger *zap.Logger, allowed ...string) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			principal := PrincipalFrom(ctx)
			if principal == nil {
				respondError(ctx, http.StatusUnauthorized, domain.ErrCodeUnauthorized, "missing principal")
				return
			}
			if !principal.HasAnyRole(allowed...) {
				logger.Warn("access denied",
					zap.String("username", principal.Username),
					zap.Strings("required_roles", allowed),
					zap.Strings("user_roles", principal.Roles))
				respondError(ctx, http.StatusForbidden, domain.ErrCodeForbidden, "insufficient permissions")
				return
			}
			next(ctx)
		}
	}
}

// RateLimit checks the per-principal request quota before the handler body
// runs; a rejected request never reaches the store.
func RateLimit(limiter repository.RateLimiter, logger *zap.Logger) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			principal := PrincipalFrom(ctx)
			if principal == nil {
				respondError(ctx, http.StatusUnauthorized, domain.ErrCodeUnauthorized, "missing principal")
				return
			}

			checkCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()

			allowed, err := limiter.Allow(checkCtx, principal.Username)
			if err != nil {
				logger.Error("rate limit check failed", zap.Error(err))
				respondError(ctx, http.StatusInternalServerError, domain.ErrCodeInternal, "internal error")
				return
			}
			if !allowed {
				respondError(ctx, http.StatusTooManyRequests, domain.ErrCodeRateLimited, "rate limit exceeded, try again later")
				return
			}
			next(ctx)
		}
	}
}
