// Package security defines the GraphQL types for security issue queries.
package security

import (
	"github.com/graphql-go/graphql"

	"github.com/releaseops/relman-backend/model"
)

// SecurityIssueType represents one vulnerability record.
var SecurityIssueType = graphql.NewObject(graphql.ObjectConfig{
	Name: "SecurityIssue",
	Fields: graphql.Fields{
		"cve_id":           &graphql.Field{Type: graphql.String},
		"cve_type":         &graphql.Field{Type: graphql.String},
		"other_type":       &graphql.Field{Type: graphql.String},
		"attack_type":      &graphql.Field{Type: graphql.String},
		"impact":           &graphql.Field{Type: graphql.String},
		"severity":         &graphql.Field{Type: graphql.String},
		"cvss_vector":      &graphql.Field{Type: graphql.String},
		"summary":          &graphql.Field{Type: graphql.String},
		"description":      &graphql.Field{Type: graphql.String},
		"reporter":         &graphql.Field{Type: graphql.String},
		"commit_hash_main": &graphql.Field{Type: graphql.String},
		"headline": &graphql.Field{
			Type: graphql.String,
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				if issue, ok := p.Source.(*model.SecurityIssue); ok {
					return issue.HeadlineForBlogpost(), nil
				}
				return nil, nil
			},
		},
		"suggested_severity": &graphql.Field{
			Type: graphql.String,
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				if issue, ok := p.Source.(*model.SecurityIssue); ok {
					return issue.SuggestedSeverity(), nil
				}
				return nil, nil
			},
		},
	},
})

// BranchHashType is one (branch, commit hash) pair of an issue's fixes.
var BranchHashType = graphql.NewObject(graphql.ObjectConfig{
	Name: "BranchHash",
	Fields: graphql.Fields{
		"branch": &graphql.Field{Type: graphql.String},
		"hash":   &graphql.Field{Type: graphql.String},
	},
})
