package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"storefront/internal/controllers"
	"storefront/internal/models"
	"storefront/internal/session"
)

// ProfileHandler handles HTTP requests for the profile page.
type ProfileHandler struct {
	registry *controllers.Registry
	mirror   controllers.MirrorStore
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(registry *controllers.Registry, mirror controllers.MirrorStore) *ProfileHandler {
	return &ProfileHandler{registry: registry, mirror: mirror}
}

// RegisterRoutes registers the profile routes with the Fiber app.
func (h *ProfileHandler) RegisterRoutes(router fiber.Router) {
	profileRoutes := router.Group("/profile")
	profileRoutes.Get("/", h.HandleGetProfile)
	profileRoutes.Patch("/", h.HandleSubmit)
	profileRoutes.Patch("/avatar", h.HandleUpdateAvatar)
	profileRoutes.Post("/reset-password", h.HandleResetPassword)

	router.Get("/identity", h.HandleGetIdentity)
}

// HandleGetIdentity serves the cached identity mirror, letting other views
// display the current user without hitting the backend.
func (h *ProfileHandler) HandleGetIdentity(c *fiber.Ctx) error {
	cached, err := h.mirror.Load(userID(c))
	if err != nil {
		if errors.Is(err, session.ErrNoIdentity) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "No cached identity",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not read cached identity",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{"user": cached})
}

// HandleGetProfile loads the current user on first access and returns the
// profile view-state.
func (h *ProfileHandler) HandleGetProfile(c *fiber.Ctx) error {
	ctrl, err := h.registry.Profile(userID(c))
	if err != nil {
		return commandError(c, err)
	}
	if ctrl.View().Profile == nil {
		if err := ctrl.Load(requestContext(c)); err != nil {
			return commandError(c, err)
		}
	}
	return c.JSON(ctrl.View())
}

// HandleSubmit validates and persists the profile form.
func (h *ProfileHandler) HandleSubmit(c *fiber.Ctx) error {
	var form models.ProfileForm
	if err := c.BodyParser(&form); err != nil {
		log.Printf("Error parsing profile form body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	ctrl, err := h.registry.Profile(userID(c))
	if err != nil {
		return commandError(c, err)
	}
	if err := ctrl.Submit(requestContext(c), form); err != nil {
		return commandError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Profile updated",
		"view":    ctrl.View(),
	})
}

// HandleUpdateAvatar patches the avatar URL independently of the form.
func (h *ProfileHandler) HandleUpdateAvatar(c *fiber.Ctx) error {
	var body struct {
		Avatar string `json:"avatar"`
	}
	if err := c.BodyParser(&body); err != nil {
		log.Printf("Error parsing avatar request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	ctrl, err := h.registry.Profile(userID(c))
	if err != nil {
		return commandError(c, err)
	}
	if err := ctrl.UpdateAvatar(requestContext(c), body.Avatar); err != nil {
		return commandError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Avatar updated",
		"view":    ctrl.View(),
	})
}

// HandleResetPassword clears all local session state for the user and
// returns the credential-recovery route. No backend call is made.
func (h *ProfileHandler) HandleResetPassword(c *fiber.Ctx) error {
	ctrl, err := h.registry.Profile(userID(c))
	if err != nil {
		return commandError(c, err)
	}

	redirect := ctrl.ResetPassword()
	h.registry.Drop(userID(c))

	return c.JSON(fiber.Map{
		"message":  "Session cleared",
		"redirect": redirect,
	})
}
