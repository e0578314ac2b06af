package services

import (
	"context"
	"fmt"

	"github.com/releaseops/relman-backend/config"
	"github.com/releaseops/relman-backend/model"
)

// ChecklistService assembles the template context used to render a release
// checklist document.
type ChecklistService struct {
	store Store
	cfg   config.Config
}

// NewChecklistService wires a ChecklistService.
func NewChecklistService(store Store, cfg config.Config) *ChecklistService {
	return &ChecklistService{store: store, cfg: cfg}
}

// slugInfo resolves the inputs of the per-kind slug and summary computations
// for one checklist: its linked release and, for pre-release and bugfix
// checklists, the version of the feature release they roll up to.
func (s *ChecklistService) slugInfo(ctx context.Context, c *model.Checklist, release *model.Release) (model.SlugInfo, error) {
	info := model.SlugInfo{
		Product: s.cfg.ProductName,
		Version: c.DisplayVersion(release),
		Status:  c.StatusName(release),
	}
	info.FinalVersion = info.Version
	if c.FeatureChecklistKey != "" {
		feature, err := s.store.GetChecklist(ctx, c.FeatureChecklistKey)
		if err != nil {
			return info, fmt.Errorf("feature checklist of %s: %w", c.Key, err)
		}
		info.FinalVersion = feature.ReleaseVersion
	}
	return info, nil
}

// Context builds the rendering context for a checklist: the checklist itself
// with its fields flattened, the linked releaser and release, and the
// computed slug, version and title. Entries in extra are merged in last and
// win over the computed ones.
func (s *ChecklistService) Context(ctx context.Context, checklistKey string, extra map[string]any) (map[string]any, error) {
	checklist, err := s.store.GetChecklist(ctx, checklistKey)
	if err != nil {
		return nil, err
	}

	var release *model.Release
	if checklist.ReleaseVersion != "" {
		release, err = s.store.GetRelease(ctx, checklist.ReleaseVersion)
		if err != nil {
			return nil, err
		}
	}

	var releaser *model.Releaser
	if checklist.ReleaserKey != "" {
		releaser, err = s.store.GetReleaser(ctx, checklist.ReleaserKey)
		if err != nil {
			return nil, err
		}
	}

	info, err := s.slugInfo(ctx, checklist, release)
	if err != nil {
		return nil, err
	}
	behavior := model.BehaviorFor(checklist.Kind)

	data := map[string]any{
		"instance": checklist,
		"releaser": releaser,
		"slug":     behavior.Slug(info),
		"version":  checklist.DisplayVersion(release),
		"title":    checklist.Title(),

		// Flattened checklist fields, mirroring the record shape.
		"when":                checklist.When,
		"created_at":          checklist.CreatedAt,
		"updated_at":          checklist.UpdatedAt,
		"tagline":             checklist.Tagline,
		"highlights":          checklist.Highlights,
		"forum_post":          checklist.ForumPost,
		"eom_release_version": checklist.EOMReleaseVersion,
		"eol_release_version": checklist.EOLReleaseVersion,
		"verbose_version":     checklist.VerboseVersion,

		"blogpost_link":      checklist.BlogpostLink(s.cfg.WeblogBaseURL, behavior.Slug(info)),
		"blogpost_template":  checklist.BlogpostTemplate(release),
		"blogpost_summary":   behavior.BlogpostSummary(checklist, info),
		"checklist_template": behavior.ChecklistTemplate(),
		"trove_classifier":   checklist.TroveClassifier(release),
		"status":             checklist.StatusName(release),
	}
	if release != nil {
		data["release"] = release
	}

	// A pre-release or bugfix checklist without its own forum post falls
	// back to the feature release's.
	if data["forum_post"] == "" && checklist.FeatureChecklistKey != "" {
		feature, err := s.store.GetChecklist(ctx, checklist.FeatureChecklistKey)
		if err == nil && feature.ForumPost != "" {
			data["forum_post"] = feature.ForumPost
		}
	}

	for k, v := range extra {
		data[k] = v
	}
	return data, nil
}
