// Package releases implements the REST API handlers for release operations.
package releases

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/releaseops/relman-backend/internal/services"
	"github.com/releaseops/relman-backend/model"
	"github.com/releaseops/relman-backend/util"
)

// parseAt interprets the optional ?at=YYYY-MM-DD query parameter. The zero
// time means "now".
func parseAt(c *fiber.Ctx) (time.Time, error) {
	raw := c.Query("at")
	if raw == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", raw)
}

func listHandler(fn func(context.Context, time.Time) ([]*model.Release, error)) fiber.Handler {
	return func(c *fiber.Ctx) error {
		at, err := parseAt(c)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "Invalid at date: " + err.Error(),
			})
		}
		releases, err := fn(context.Background(), at)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": err.Error(),
			})
		}
		return c.JSON(releases)
	}
}

func singleHandler(fn func(context.Context, time.Time) (*model.Release, error)) fiber.Handler {
	return func(c *fiber.Ctx) error {
		at, err := parseAt(c)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "Invalid at date: " + err.Error(),
			})
		}
		release, err := fn(context.Background(), at)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": err.Error(),
			})
		}
		if release == nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"message": "No matching release",
			})
		}
		return c.JSON(release)
	}
}

// GetPublished handles GET requests for the published release list.
func GetPublished(svc *services.ReleaseService) fiber.Handler {
	return listHandler(svc.Published)
}

// GetSupported handles GET requests for the supported release list.
func GetSupported(svc *services.ReleaseService) fiber.Handler {
	return listHandler(svc.Supported)
}

// GetUnsupported handles GET requests for the unsupported release list.
func GetUnsupported(svc *services.ReleaseService) fiber.Handler {
	return listHandler(svc.Unsupported)
}

// GetLTS handles GET requests for the supported LTS release list.
func GetLTS(svc *services.ReleaseService) fiber.Handler {
	return listHandler(svc.LTS)
}

// GetCurrent handles GET requests for the current release.
func GetCurrent(svc *services.ReleaseService) fiber.Handler {
	return singleHandler(svc.Current)
}

// GetPrevious handles GET requests for the previous release.
func GetPrevious(svc *services.ReleaseService) fiber.Handler {
	return singleHandler(svc.Previous)
}

// GetPreview handles GET requests for the preview release.
func GetPreview(svc *services.ReleaseService) fiber.Handler {
	return singleHandler(svc.Preview)
}

// GetCurrentVersion handles GET requests for the cached current version
// string.
func GetCurrentVersion(svc *services.ReleaseService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		version, err := svc.CurrentVersion(context.Background())
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": err.Error(),
			})
		}
		return c.JSON(fiber.Map{"version": version})
	}
}

// GetRelease handles GET requests for a single release by version.
func GetRelease(store services.ReleaseStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		release, err := store.GetRelease(context.Background(), c.Params("version"))
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
		return c.JSON(release)
	}
}

// PostRelease handles POST requests for creating or updating a release.
// Saving an active final micro release moves the previous micro of the same
// series to end-of-life.
func PostRelease(svc *services.ReleaseService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req model.Release
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "Invalid request body: " + err.Error(),
			})
		}
		if req.Version == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "Release version is required",
			})
		}

		if err := svc.Save(context.Background(), &req); err != nil {
			var verr *model.ValidationError
			if errors.As(err, &verr) || errors.Is(err, util.ErrMalformedVersion) {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"success": false,
					"message": err.Error(),
				})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": err.Error(),
			})
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"success": true,
			"message": "Release saved",
			"version": req.Version,
		})
	}
}
