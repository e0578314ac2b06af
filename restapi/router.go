// Package restapi provides the main router and initialization for REST API endpoints.
package restapi

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/releaseops/relman-backend/internal/services"
	"github.com/releaseops/relman-backend/restapi/modules/checklists"
	"github.com/releaseops/relman-backend/restapi/modules/releases"
	"github.com/releaseops/relman-backend/restapi/modules/security"
)

// Deps carries the services the REST routes are built over.
type Deps struct {
	Store      services.Store
	Releases   *services.ReleaseService
	Advisories *services.AdvisoryService
	Checklists *services.ChecklistService
}

// SetupRoutes configures all REST API routes and the GraphQL endpoint.
func SetupRoutes(app *fiber.App, deps Deps, schema graphql.Schema) {
	// API Group /api/v1
	api := app.Group("/api/v1")

	// GraphQL Route - Mounted within the api group to inherit path prefixes
	api.Post("/graphql", GraphQLHandler(schema))

	// Release Routes
	releaseGroup := api.Group("/releases")
	releaseGroup.Post("/", releases.PostRelease(deps.Releases))
	releaseGroup.Get("/published", releases.GetPublished(deps.Releases))
	releaseGroup.Get("/supported", releases.GetSupported(deps.Releases))
	releaseGroup.Get("/unsupported", releases.GetUnsupported(deps.Releases))
	releaseGroup.Get("/lts", releases.GetLTS(deps.Releases))
	releaseGroup.Get("/current", releases.GetCurrent(deps.Releases))
	releaseGroup.Get("/previous", releases.GetPrevious(deps.Releases))
	releaseGroup.Get("/preview", releases.GetPreview(deps.Releases))
	releaseGroup.Get("/current-version", releases.GetCurrentVersion(deps.Releases))
	releaseGroup.Get("/:version", releases.GetRelease(deps.Store))

	// Security Routes
	securityGroup := api.Group("/security")
	securityGroup.Post("/issues", security.PostIssue(deps.Store))
	securityGroup.Post("/issues/:cve/releases", security.PostIssueRelease(deps.Store))
	securityGroup.Get("/checklists/:key/advisory", security.GetAdvisory(deps.Store, deps.Advisories))

	// Checklist Routes
	checklistGroup := api.Group("/checklists")
	checklistGroup.Post("/", checklists.PostChecklist(deps.Store))
	checklistGroup.Get("/", checklists.GetChecklists(deps.Store))
	checklistGroup.Get("/:key/context", checklists.GetContext(deps.Checklists))
}
