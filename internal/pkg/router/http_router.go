package router

import (
	"github.com/NicolasMarrai/healthmed/app/controllers"
	"github.com/NicolasMarrai/healthmed/internal/pkg/database"
	"github.com/NicolasMarrai/healthmed/internal/pkg/lessons"
	"github.com/NicolasMarrai/healthmed/internal/pkg/middleware"
	"github.com/NicolasMarrai/healthmed/internal/pkg/payments"
	"github.com/NicolasMarrai/healthmed/internal/pkg/session"

	"github.com/gofiber/fiber/v2"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// init session
	session.NewSessionStore()

	// Apply UserContext middleware globally as first middleware
	app.Use(middleware.UserContextMiddleware)

	// Initialize payment controller with the gateway-backed service
	controllers.InitializePaymentController(payments.NewServiceFromDB(database.GetDB()))

	// Initialize lesson controller with the CMS client
	controllers.InitializeLessonController(lessons.NewClientFromEnv())

	h.registerPublicRoutes(app)
	h.registerCSRFProtectedRoutes(app)
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}

func loggedInMiddleware(c *fiber.Ctx) error {
	// UserContextMiddleware already set all user context; handlers read it
	// via usercontext.GetUserContext(c).
	return c.Next()
}

// Auth middlewares live in internal/pkg/middleware/auth.go
