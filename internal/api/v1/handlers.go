package apiv1

import (
	"github.com/gofiber/fiber/v2"

	// Delegate to existing controllers to keep behavior consistent
	"github.com/NicolasMarrai/healthmed/app/controllers"
	"github.com/NicolasMarrai/healthmed/internal/pkg/middleware"
)

// Pong is the ping endpoint response.
type Pong struct {
	Ping string `json:"ping"`
}

// APIServer implements the versioned JSON API.
type APIServer struct{}

// NewAPIServer creates a new API server instance
func NewAPIServer() *APIServer {
	return &APIServer{}
}

// GetPing handles the ping endpoint
func (s *APIServer) GetPing(c *fiber.Ctx) error {
	response := Pong{
		Ping: "pong",
	}

	return c.Status(fiber.StatusOK).JSON(response)
}

// GetUserProfile returns account, subscription and payment history for the
// authenticated user. Security is enforced via session middleware attached
// in RegisterHandlers.
func (s *APIServer) GetUserProfile(c *fiber.Ctx) error {
	return controllers.HandleGetUserAccount(c)
}

// GetLessons returns the lesson catalog. Subscription-gated.
func (s *APIServer) GetLessons(c *fiber.Ctx) error {
	return controllers.HandleLessons(c)
}

// PostLessonViewed counts a lesson view. Subscription-gated.
func (s *APIServer) PostLessonViewed(c *fiber.Ctx) error {
	return controllers.HandleLessonViewed(c)
}

// PostCheckout creates a payment preference for the premium subscription.
func (s *APIServer) PostCheckout(c *fiber.Ctx) error {
	return controllers.HandleCreateCheckout(c)
}

// RegisterHandlers attaches the v1 routes to the given router group.
func RegisterHandlers(router fiber.Router, s *APIServer) {
	router.Get("/ping", s.GetPing)

	router.Get("/user/profile", middleware.RequireAPISessionAuth, s.GetUserProfile)
	router.Post("/checkout", middleware.RequireAPISessionAuth, s.PostCheckout)

	router.Get("/lessons", middleware.RequireActiveSubscription, s.GetLessons)
	router.Post("/lessons/:id/viewed", middleware.RequireActiveSubscription, s.PostLessonViewed)
}
