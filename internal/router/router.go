package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/fastygo/users/api/handler"
	"github.com/fastygo/users/internal/middleware"
)

const (
	usersPath = "/api/users"
	userPath  = usersPath + "/{id}"
)

type Handlers struct {
	User   *apiHandler.UserHandler
	Health *apiHandler.HealthHandler
}

// New registers every route and returns the root handler wrapped in mws.
func New(handlers Handlers, mws ...middleware.Middleware) fasthttp.RequestHandler {
	r := router.New()

	if handlers.Health != nil {
		r.GET("/health", handlers.Health.Check)
	}

	r.GET(usersPath, handlers.User.Search)
	r.POST(usersPath, handlers.User.CreateForm)
	r.PUT(usersPath, handlers.User.Replace)
	r.POST(usersPath+"/new", handlers.User.CreateJSON)
	r.GET(userPath, handlers.User.Get)
	r.PUT(userPath, handlers.User.UpdatePartial)
	r.PATCH(userPath, handlers.User.Patch)
	r.DELETE(userPath, handlers.User.Delete)

	return middleware.Chain(r.Handler, mws...)
}
