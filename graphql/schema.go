// Package graphql assembles the root query schema from the per-domain
// modules.
package graphql

import (
	"github.com/graphql-go/graphql"

	"github.com/releaseops/relman-backend/graphql/modules/releases"
	"github.com/releaseops/relman-backend/graphql/modules/security"
	"github.com/releaseops/relman-backend/internal/services"
)

// CreateSchema builds the GraphQL schema over the injected services.
func CreateSchema(store services.Store, rel *services.ReleaseService, adv *services.AdvisoryService) (graphql.Schema, error) {
	fields := graphql.Fields{}
	for name, field := range releases.GetQueryFields(rel) {
		fields[name] = field
	}
	for name, field := range security.GetQueryFields(store, adv) {
		fields[name] = field
	}

	query := graphql.NewObject(graphql.ObjectConfig{
		Name:   "Query",
		Fields: fields,
	})

	return graphql.NewSchema(graphql.SchemaConfig{Query: query})
}
