// Package checklists implements the REST API handlers for release
// checklists.
package checklists

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/releaseops/relman-backend/internal/services"
	"github.com/releaseops/relman-backend/model"
)

// PostChecklist handles POST requests for creating or updating a checklist.
func PostChecklist(store services.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req model.Checklist
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "Invalid request body: " + err.Error(),
			})
		}
		if req.Key == "" || req.Kind == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "Checklist key and kind are required",
			})
		}
		if _, ok := model.KindTitles[req.Kind]; !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "Unknown checklist kind: " + string(req.Kind),
			})
		}

		now := time.Now().UTC()
		if req.CreatedAt.IsZero() {
			req.CreatedAt = now
		}
		req.UpdatedAt = now

		if err := store.SaveChecklist(context.Background(), &req); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": err.Error(),
			})
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"success": true,
			"message": "Checklist saved",
			"key":     req.Key,
		})
	}
}

// GetChecklists handles GET requests for the checklist list.
func GetChecklists(store services.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		checklists, err := store.ListChecklists(context.Background())
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": err.Error(),
			})
		}
		return c.JSON(checklists)
	}
}

// GetContext handles GET requests for the rendering context of a checklist.
func GetContext(svc *services.ChecklistService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		data, err := svc.Context(context.Background(), c.Params("key"), nil)
		if err != nil {
			if errors.Is(err, services.ErrNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
					"success": false,
					"message": err.Error(),
				})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": err.Error(),
			})
		}
		return c.JSON(data)
	}
}
