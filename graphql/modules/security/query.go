// Package security defines the GraphQL queries for security advisories.
package security

import (
	"github.com/graphql-go/graphql"

	"github.com/releaseops/relman-backend/internal/services"
)

// GetQueryFields returns the security queries to be mounted in the root schema.
func GetQueryFields(store services.Store, advisories *services.AdvisoryService) graphql.Fields {
	return graphql.Fields{
		"securityIssues": &graphql.Field{
			Type: graphql.NewList(SecurityIssueType),
			Args: graphql.FieldConfigArgument{
				"checklist": &graphql.ArgumentConfig{Type: graphql.String},
			},
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				if checklist, ok := p.Args["checklist"].(string); ok && checklist != "" {
					return store.ListIssuesForChecklist(p.Context, checklist)
				}
				return store.ListIssues(p.Context)
			},
		},
		"securityIssue": &graphql.Field{
			Type: SecurityIssueType,
			Args: graphql.FieldConfigArgument{
				"cve": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
			},
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return store.GetIssue(p.Context, p.Args["cve"].(string))
			},
		},
		"cveJson": &graphql.Field{
			Type: graphql.String,
			Args: graphql.FieldConfigArgument{
				"cve":      &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				"minified": &graphql.ArgumentConfig{Type: graphql.Boolean},
			},
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				issue, err := store.GetIssue(p.Context, p.Args["cve"].(string))
				if err != nil {
					return nil, err
				}
				if minified, ok := p.Args["minified"].(bool); ok && minified {
					return advisories.CVEMinifiedJSON(p.Context, issue)
				}
				return advisories.CVEJSON(p.Context, issue)
			},
		},
		"hashesByBranch": &graphql.Field{
			Type: graphql.NewList(BranchHashType),
			Args: graphql.FieldConfigArgument{
				"cve": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
			},
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				issue, err := store.GetIssue(p.Context, p.Args["cve"].(string))
				if err != nil {
					return nil, err
				}
				return advisories.HashesByBranch(p.Context, issue)
			},
		},
		"affectedBranches": &graphql.Field{
			Type: graphql.NewList(graphql.String),
			Args: graphql.FieldConfigArgument{
				"checklist": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
			},
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return advisories.AffectedBranches(p.Context, p.Args["checklist"].(string))
			},
		},
	}
}
