package contracts

import (
	"github.com/julienschmidt/httprouter"

	"autolibrarian/internal/auth/middleware"
)

// Handler registers its routes on the router, declaring the capability each
// route requires through the guard. Unauthenticated routes are an explicit
// declaration, not an omission.
type Handler interface {
	RegisterRoutes(router *httprouter.Router, guard *middleware.Guard)
}
