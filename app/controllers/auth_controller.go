package controllers

import (
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/NicolasMarrai/healthmed/app/models"
	"github.com/NicolasMarrai/healthmed/internal/pkg/database"
	"github.com/NicolasMarrai/healthmed/internal/pkg/hcaptcha"
	"github.com/NicolasMarrai/healthmed/internal/pkg/mail"
	"github.com/NicolasMarrai/healthmed/internal/pkg/session"
	"github.com/NicolasMarrai/healthmed/internal/pkg/statistics"
	icuser "github.com/NicolasMarrai/healthmed/internal/pkg/usercontext"
)

type registerRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	CaptchaToken string `json:"h_captcha_response"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleAuthRegister creates a new account. New users start behind the
// paywall with subscription_status = pending_payment.
func HandleAuthRegister(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "malformed_body", "request body could not be parsed")
	}

	if hcaptcha.Enabled() {
		valid, err := hcaptcha.Verify(req.CaptchaToken)
		if err != nil || !valid {
			if err != nil {
				log.Printf("hCaptcha validation error: %v", err)
			}
			return jsonError(c, fiber.StatusBadRequest, "captcha_failed", "captcha validation failed")
		}
	}

	user, err := models.CreateUser(req.Name, req.Email, req.Password)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "validation_failed", err.Error())
	}

	if err := database.GetDB().Create(&user).Error; err != nil {
		return jsonError(c, fiber.StatusConflict, "registration_failed", "account could not be created")
	}

	// Update statistics after registration
	go statistics.UpdateStatisticsCache()
	go func() {
		_ = mail.SendWelcomeMail(user.Email, user.Name)
	}()

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"user": fiber.Map{
			"id":                  user.ID,
			"name":                user.Name,
			"email":               user.Email,
			"subscription_status": user.SubscriptionStatus,
		},
	})
}

// HandleAuthLogin authenticates a user and establishes the web session.
func HandleAuthLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "malformed_body", "request body could not be parsed")
	}

	// notice: in production you should not inform the user
	// with detailed messages about login failures
	var user models.User
	result := database.GetDB().Where("email = ?", req.Email).First(&user)
	if result.Error != nil {
		return jsonError(c, fiber.StatusUnauthorized, "login_failed", "there is a problem with the login process")
	}

	if !models.CheckPasswordHash(req.Password, user.Password) {
		return jsonError(c, fiber.StatusUnauthorized, "login_failed", "there is a problem with the login process")
	}

	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "session_failed", fmt.Sprintf("something went wrong: %s", err))
	}

	sess.Set(icuser.AuthKey, true)
	sess.Set(icuser.KeyUserID, user.ID)
	sess.Set(icuser.KeyUsername, user.Name)
	sess.Set(icuser.KeyIsAdmin, user.Role == models.ROLE_ADMIN)
	if user.HasActiveSubscription() {
		sess.Set("subscription_status", user.SubscriptionStatus)
	}

	if err := sess.Save(); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "session_failed", fmt.Sprintf("something went wrong: %s", err))
	}

	database.GetDB().Model(&user).Update("last_login_at", time.Now())

	return c.JSON(fiber.Map{
		"success": true,
		"user": fiber.Map{
			"id":                  user.ID,
			"name":                user.Name,
			"subscription_status": user.SubscriptionStatus,
		},
	})
}

// HandleAuthLogout destroys the web session.
func HandleAuthLogout(c *fiber.Ctx) error {
	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "session_failed", "logged out (no sess)")
	}

	if err := sess.Destroy(); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "session_failed", fmt.Sprintf("something went wrong: %s", err))
	}

	c.Locals(icuser.KeyFromProtected, false)

	return c.JSON(fiber.Map{"success": true})
}
