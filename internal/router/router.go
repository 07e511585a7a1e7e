package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/tasknest/backend/api/handler"
)

// Middleware wraps a request handler.
type Middleware func(fasthttp.RequestHandler) fasthttp.RequestHandler

type Handlers struct {
	Task    *apiHandler.TaskHandler
	Health  *apiHandler.HealthHandler
	Metrics *apiHandler.MetricsHandler
}

// Pipeline carries the guard middlewares in the order they must run:
// authenticate, authorize, rate-limit. A failed stage short-circuits.
type Pipeline struct {
	Authenticate Middleware
	RequireUser  Middleware
	RequireAdmin Middleware
	RateLimit    Middleware
}

func New(handlers Handlers, p Pipeline) *router.Router {
	r := router.New()

	r.GET("/health", handlers.Health.Check)
	r.GET("/metrics", handlers.Metrics.Expose)

	user := chain(p.Authenticate, p.RequireUser, p.RateLimit)
	admin := chain(p.Authenticate, p.RequireAdmin, p.RateLimit)

	r.POST("/tasks", user(handlers.Task.CreateTask))
	r.GET("/tasks", user(handlers.Task.GetTasks))
	r.GET("/tasks/{id}", user(handlers.Task.GetTask))
	r.PATCH("/tasks/{id}", user(handlers.Task.UpdateTask))
	r.DELETE("/tasks/{id}", admin(handlers.Task.DeleteTask))

	return r
}

func chain(middlewares ...Middleware) Middleware {
	return func(handler fasthttp.RequestHandler) fasthttp.RequestHandler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			if middlewares[i] != nil {
				handler = middlewares[i](handler)
			}
		}
		return handler
	}
}
