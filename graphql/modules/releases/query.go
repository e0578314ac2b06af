// Package releases defines the GraphQL queries for release support state.
package releases

import (
	"context"
	"fmt"
	"time"

	"github.com/graphql-go/graphql"

	"github.com/releaseops/relman-backend/internal/services"
	"github.com/releaseops/relman-backend/model"
)

// parseAt interprets the optional "at" argument as a reference date.
func parseAt(p graphql.ResolveParams) (time.Time, error) {
	raw, ok := p.Args["at"].(string)
	if !ok || raw == "" {
		return time.Time{}, nil
	}
	at, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid at date %q: %w", raw, err)
	}
	return at, nil
}

// GetQueryFields returns the release queries to be mounted in the root schema.
func GetQueryFields(svc *services.ReleaseService) graphql.Fields {
	atArg := graphql.FieldConfigArgument{
		"at": &graphql.ArgumentConfig{Type: graphql.String},
	}

	listResolver := func(fn func(context.Context, time.Time) ([]*model.Release, error)) graphql.FieldResolveFn {
		return func(p graphql.ResolveParams) (interface{}, error) {
			at, err := parseAt(p)
			if err != nil {
				return nil, err
			}
			return fn(p.Context, at)
		}
	}
	singleResolver := func(fn func(context.Context, time.Time) (*model.Release, error)) graphql.FieldResolveFn {
		return func(p graphql.ResolveParams) (interface{}, error) {
			at, err := parseAt(p)
			if err != nil {
				return nil, err
			}
			release, err := fn(p.Context, at)
			if err != nil || release == nil {
				return nil, err
			}
			return release, nil
		}
	}

	return graphql.Fields{
		"publishedReleases": &graphql.Field{
			Type:    graphql.NewList(ReleaseType),
			Args:    atArg,
			Resolve: listResolver(svc.Published),
		},
		"supportedReleases": &graphql.Field{
			Type:    graphql.NewList(ReleaseType),
			Args:    atArg,
			Resolve: listResolver(svc.Supported),
		},
		"unsupportedReleases": &graphql.Field{
			Type:    graphql.NewList(ReleaseType),
			Args:    atArg,
			Resolve: listResolver(svc.Unsupported),
		},
		"ltsReleases": &graphql.Field{
			Type:    graphql.NewList(ReleaseType),
			Args:    atArg,
			Resolve: listResolver(svc.LTS),
		},
		"currentRelease": &graphql.Field{
			Type:    ReleaseType,
			Args:    atArg,
			Resolve: singleResolver(svc.Current),
		},
		"previousRelease": &graphql.Field{
			Type:    ReleaseType,
			Args:    atArg,
			Resolve: singleResolver(svc.Previous),
		},
		"currentLtsRelease": &graphql.Field{
			Type:    ReleaseType,
			Args:    atArg,
			Resolve: singleResolver(svc.CurrentLTS),
		},
		"previousLtsRelease": &graphql.Field{
			Type:    ReleaseType,
			Args:    atArg,
			Resolve: singleResolver(svc.PreviousLTS),
		},
		"previewRelease": &graphql.Field{
			Type:    ReleaseType,
			Args:    atArg,
			Resolve: singleResolver(svc.Preview),
		},
		"currentVersion": &graphql.Field{
			Type: graphql.String,
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return svc.CurrentVersion(p.Context)
			},
		},
	}
}
