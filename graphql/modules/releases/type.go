// Package releases defines the GraphQL types for release queries.
package releases

import (
	"github.com/graphql-go/graphql"

	"github.com/releaseops/relman-backend/model"
)

// ReleaseType represents one release record with its derived properties.
var ReleaseType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Release",
	Fields: graphql.Fields{
		// Version is stored under the _key tag, so the default resolver
		// cannot find it.
		"version": &graphql.Field{
			Type: graphql.String,
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				if release, ok := p.Source.(*model.Release); ok {
					return release.Version, nil
				}
				return nil, nil
			},
		},
		"is_active": &graphql.Field{Type: graphql.Boolean},
		"is_lts":    &graphql.Field{Type: graphql.Boolean},
		"date":      &graphql.Field{Type: graphql.DateTime},
		"eol_date":  &graphql.Field{Type: graphql.DateTime},
		"major":     &graphql.Field{Type: graphql.Int},
		"minor":     &graphql.Field{Type: graphql.Int},
		"micro":     &graphql.Field{Type: graphql.Int},
		"status":    &graphql.Field{Type: graphql.String},
		"iteration": &graphql.Field{Type: graphql.Int},
		"feature_version": &graphql.Field{
			Type: graphql.String,
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				if release, ok := p.Source.(*model.Release); ok {
					return release.FeatureVersion(), nil
				}
				return nil, nil
			},
		},
		"series": &graphql.Field{
			Type: graphql.String,
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				if release, ok := p.Source.(*model.Release); ok {
					return release.Series(), nil
				}
				return nil, nil
			},
		},
		"stable_branch": &graphql.Field{
			Type: graphql.String,
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				if release, ok := p.Source.(*model.Release); ok {
					return release.StableBranch(), nil
				}
				return nil, nil
			},
		},
		"is_pre_release": &graphql.Field{
			Type: graphql.Boolean,
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				if release, ok := p.Source.(*model.Release); ok {
					return release.IsPreRelease(), nil
				}
				return nil, nil
			},
		},
		"status_display": &graphql.Field{
			Type: graphql.String,
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				if release, ok := p.Source.(*model.Release); ok {
					return release.StatusDisplay(), nil
				}
				return nil, nil
			},
		},
	},
})
