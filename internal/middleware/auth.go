package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/tasknest/backend/api/transport"
	"github.com/tasknest/backend/domain"
)

const principalKey = "principal"

// PrincipalResolver turns a bearer credential into a verified principal.
type PrincipalResolver interface {
	Resolve(token string) (*domain.Principal, error)
}

// Authenticate extracts the bearer token, resolves it to a principal and
// stores the principal on the request context. A missing or invalid credential
// answers 401; an unreachable identity provider answers 503.
func Authenticate(resolver PrincipalResolver, logger *zap.Logger) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			tokenString := extractToken(ctx)
			if tokenString == "" {
				respondError(ctx, http.StatusUnauthorized, domain.ErrCodeUnauthorized, "missing bearer token")
				return
			}

			principal, err := resolver.Resolve(tokenString)
			if err != nil {
				if domain.IsDomainError(err, domain.ErrCodeUnavailable) {
					respondError(ctx, http.StatusServiceUnavailable, domain.ErrCodeUnavailable, "authentication service unavailable")
					return
				}
				logger.Warn("authentication failed", zap.Error(err))
				respondError(ctx, http.StatusUnauthorized, domain.ErrCodeUnauthorized, "invalid or expired token")
				return
			}

			ctx.SetUserValue(principalKey, principal)
			next(ctx)
		}
	}
}

// PrincipalFrom returns the principal placed on the context by Authenticate.
func PrincipalFrom(ctx *fasthttp.RequestCtx) *domain.Principal {
	principal, _ := ctx.UserValue(principalKey).(*domain.Principal)
	return principal
}

func extractToken(ctx *fasthttp.RequestCtx) string {
	header := string(ctx.Request.Header.Peek("Authorization"))
	if header == "" {
		return ""
	}
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return header
}

func respondError(ctx *fasthttp.RequestCtx, status int, code domain.ErrorCode, message string) {
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	body, _ := json.Marshal(transport.ErrorResponse{Code: string(code), Message: message})
	ctx.SetBody(body)
}
