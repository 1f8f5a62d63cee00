package handlers

import (
	"context"
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"storefront/internal/backend"
	"storefront/internal/controllers"
)

// OrderHandler handles HTTP requests for the order list page.
type OrderHandler struct {
	registry *controllers.Registry
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(registry *controllers.Registry) *OrderHandler {
	return &OrderHandler{registry: registry}
}

// RegisterRoutes registers the order routes with the Fiber app.
func (h *OrderHandler) RegisterRoutes(router fiber.Router) {
	orderRoutes := router.Group("/orders")
	orderRoutes.Get("/", h.HandleGetOrders)
	orderRoutes.Post("/refresh", h.HandleRefresh)
	orderRoutes.Post("/:id/cancel", h.HandleCancel)
	orderRoutes.Post("/:id/reorder", h.HandleReorder)
	orderRoutes.Patch("/:id/address", h.HandleChangeAddress)
	orderRoutes.Post("/:id/notes", h.HandleAddNote)
	orderRoutes.Post("/:id/notes/toggle", h.HandleToggleNotes)
}

// HandleGetOrders loads the user's active orders (first access) and returns
// the derived view-state: orders with their allowed actions plus the summary.
func (h *OrderHandler) HandleGetOrders(c *fiber.Ctx) error {
	ctrl := h.registry.Orders(userID(c))
	if len(ctrl.Orders()) == 0 {
		if err := ctrl.Load(requestContext(c)); err != nil {
			return commandError(c, err)
		}
	}
	return c.JSON(ctrl.View())
}

// HandleRefresh reloads the order list from the backend.
func (h *OrderHandler) HandleRefresh(c *fiber.Ctx) error {
	ctrl := h.registry.Orders(userID(c))
	if err := ctrl.Load(requestContext(c)); err != nil {
		return commandError(c, err)
	}
	return c.JSON(ctrl.View())
}

// HandleCancel requests cancellation of a waiting order.
func (h *OrderHandler) HandleCancel(c *fiber.Ctx) error {
	ctrl := h.registry.Orders(userID(c))
	if err := ctrl.Cancel(requestContext(c), c.Params("id")); err != nil {
		return commandError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Order cancelled",
		"view":    ctrl.View(),
	})
}

// HandleReorder rebuilds the cart from a cancelled order and deletes it.
func (h *OrderHandler) HandleReorder(c *fiber.Ctx) error {
	ctrl := h.registry.Orders(userID(c))
	if err := ctrl.Reorder(requestContext(c), c.Params("id")); err != nil {
		return commandError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Reorder complete",
		"view":    ctrl.View(),
	})
}

// HandleChangeAddress updates the delivery address of a shipping order.
func (h *OrderHandler) HandleChangeAddress(c *fiber.Ctx) error {
	var body struct {
		DeliveryAddress string `json:"deliveryAddress"`
	}
	if err := c.BodyParser(&body); err != nil {
		log.Printf("Error parsing address request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	ctrl := h.registry.Orders(userID(c))
	if err := ctrl.ChangeAddress(requestContext(c), c.Params("id"), body.DeliveryAddress); err != nil {
		return commandError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Address updated",
		"view":    ctrl.View(),
	})
}

// HandleAddNote appends a note to an order.
func (h *OrderHandler) HandleAddNote(c *fiber.Ctx) error {
	var body struct {
		Note string `json:"note"`
	}
	if err := c.BodyParser(&body); err != nil {
		log.Printf("Error parsing note request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	ctrl := h.registry.Orders(userID(c))
	if err := ctrl.AddNote(requestContext(c), c.Params("id"), body.Note); err != nil {
		return commandError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Note added",
		"view":    ctrl.View(),
	})
}

// HandleToggleNotes flips the notes panel for one order. Pure UI state.
func (h *OrderHandler) HandleToggleNotes(c *fiber.Ctx) error {
	ctrl := h.registry.Orders(userID(c))
	expanded := ctrl.ToggleNotes(c.Params("id"))
	return c.JSON(fiber.Map{
		"orderId":  c.Params("id"),
		"expanded": expanded,
	})
}

// userID reads the identity resolved by the auth middleware.
func userID(c *fiber.Ctx) string {
	id, _ := c.Locals("user_id").(string)
	return id
}

// requestContext carries the caller's bearer token so the backend client can
// forward it.
func requestContext(c *fiber.Ctx) context.Context {
	token, _ := c.Locals("token").(string)
	return backend.WithToken(c.UserContext(), token)
}

// commandError maps controller failures to HTTP responses: local validation
// failures are 400s, backend failures keep the backend's status and message,
// anything else is a 500.
func commandError(c *fiber.Ctx, err error) error {
	if controllers.IsValidation(err) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"error":   err.Error(),
		})
	}

	var be *backend.Error
	if errors.As(err, &be) {
		status := be.Status
		if status < 400 {
			status = fiber.StatusBadGateway
		}
		return c.Status(status).JSON(fiber.Map{
			"message": "Action failed",
			"error":   be.Message,
		})
	}

	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"message": "Action failed",
		"error":   err.Error(),
	})
}
