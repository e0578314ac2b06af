// Package security implements the REST API handlers for security issues and
// advisory documents.
package security

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/releaseops/relman-backend/internal/services"
	"github.com/releaseops/relman-backend/model"
	"github.com/releaseops/relman-backend/util"
)

// PostIssue handles POST requests for creating or updating a security issue.
func PostIssue(store services.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req model.SecurityIssue
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "Invalid request body: " + err.Error(),
			})
		}
		if req.Key == "" {
			req.Key = util.SanitizeKey(req.CveID)
		}

		if err := req.Validate(); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": err.Error(),
			})
		}

		if err := store.SaveIssue(context.Background(), &req); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": err.Error(),
			})
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"success": true,
			"message": "Security issue saved",
			"cve_id":  req.CveID,
		})
	}
}

// linkRequest is the body of a POST linking an issue to a release.
type linkRequest struct {
	ReleaseVersion string `json:"release_version"`
	CommitHash     string `json:"commit_hash"`
}

// PostIssueRelease handles POST requests linking a security issue to a
// release that ships its fix. A non-empty commit hash is unique across all
// links.
func PostIssueRelease(store services.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := context.Background()
		issueKey := util.SanitizeKey(c.Params("cve"))

		issue, err := store.GetIssue(ctx, issueKey)
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

		var req linkRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "Invalid request body: " + err.Error(),
			})
		}

		if _, err := store.GetRelease(ctx, req.ReleaseVersion); err != nil {
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

		link := model.NewSecurityIssueReleaseLink(issue.Key, req.ReleaseVersion, req.CommitHash)
		if err := store.SaveLink(ctx, link); err != nil {
			if errors.Is(err, services.ErrConflict) {
				return c.Status(fiber.StatusConflict).JSON(fiber.Map{
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
			"message": "Issue linked to release",
		})
	}
}

// GetAdvisory handles GET requests for the advisory roll-up of one security
// release checklist: affected releases and branches, fix commit hashes and
// the CVE record of every issue. ?minified=true switches the CVE records to
// their compact JSON form.
func GetAdvisory(store services.Store, advisories *services.AdvisoryService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := context.Background()
		checklistKey := c.Params("key")

		if _, err := store.GetChecklist(ctx, checklistKey); err != nil {
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

		affected, err := advisories.AffectedReleases(ctx, checklistKey)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": err.Error(),
			})
		}
		branches, err := advisories.AffectedBranches(ctx, checklistKey)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": err.Error(),
			})
		}
		display, err := advisories.VersionDisplay(ctx, checklistKey)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": err.Error(),
			})
		}
		hashes, err := advisories.HashesByVersions(ctx, checklistKey)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": err.Error(),
			})
		}

		issues, err := advisories.CVEs(ctx, checklistKey)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": err.Error(),
			})
		}
		minified := c.QueryBool("minified")
		cves := make([]fiber.Map, 0, len(issues))
		for _, issue := range issues {
			var record string
			if minified {
				record, err = advisories.CVEMinifiedJSON(ctx, issue)
			} else {
				record, err = advisories.CVEJSON(ctx, issue)
			}
			if err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"success": false,
					"message": err.Error(),
				})
			}
			cves = append(cves, fiber.Map{
				"cve_id":   issue.CveID,
				"headline": issue.HeadlineForBlogpost(),
				"record":   record,
			})
		}

		return c.JSON(fiber.Map{
			"affected_releases": affected,
			"affected_branches": branches,
			"version":           display,
			"hashes":            hashes,
			"cves":              cves,
		})
	}
}
