package usecase

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/shepherd/pkg/domain/interfaces"
	"github.com/secmon-lab/shepherd/pkg/domain/model"
	"github.com/secmon-lab/shepherd/pkg/domain/types"
	"github.com/secmon-lab/shepherd/pkg/service/snyk"
	"github.com/secmon-lab/shepherd/pkg/utils/safepath"
)

const (
	// DefaultPageSize is how many organizations one listing page holds
	DefaultPageSize = 100
	// DefaultMaxPages caps pagination against a server that never
	// returns a short page
	DefaultMaxPages = 50

	// how many kept organizations the summary lists by name
	previewCount = 3
)

// Collect fetches every organization of a group, filters out the
// group's default organization, and writes the snapshot artifact.
type Collect struct {
	client   interfaces.SnykClient
	storage  interfaces.Storage
	apiBase  string
	pageSize int
	maxPages int
}

// CollectOption is a functional option for configuring Collect
type CollectOption func(*Collect)

// WithPageSize overrides the listing page size
func WithPageSize(n int) CollectOption {
	return func(u *Collect) {
		u.pageSize = n
	}
}

// WithMaxPages overrides the pagination safety ceiling
func WithMaxPages(n int) CollectOption {
	return func(u *Collect) {
		u.maxPages = n
	}
}

// WithAPIBase sets the API base URL recorded in snapshot metadata
func WithAPIBase(u string) CollectOption {
	return func(c *Collect) {
		c.apiBase = strings.TrimSuffix(u, "/")
	}
}

// NewCollect creates a Collect use case
func NewCollect(client interfaces.SnykClient, storage interfaces.Storage, opts ...CollectOption) *Collect {
	u := &Collect{
		client:   client,
		storage:  storage,
		apiBase:  snyk.DefaultAPIURL,
		pageSize: DefaultPageSize,
		maxPages: DefaultMaxPages,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// CollectInput carries the per-run parameters of a collection
type CollectInput struct {
	GroupID types.GroupID
	// Output is the snapshot path. Empty means a name derived from the
	// group name once it is known.
	Output string
	// BaseDir restricts where the snapshot may be written. Empty means
	// the current working directory.
	BaseDir string
}

// Execute runs the collection pipeline and returns the saved snapshot.
// An explicitly requested output path is validated before any network
// traffic happens.
func (u *Collect) Execute(ctx context.Context, input *CollectInput) (*model.Snapshot, error) {
	logger := ctxlog.From(ctx)

	if input == nil || input.GroupID == "" {
		return nil, goerr.New("group ID is required", goerr.T(model.ErrTagConfig))
	}

	outputPath := ""
	if input.Output != "" {
		validated, err := safepath.ValidateOutput(input.Output, input.BaseDir)
		if err != nil {
			return nil, err
		}
		outputPath = validated
	}

	logger.Info("fetching organizations", "group_id", input.GroupID)

	var (
		orgs      []model.Organization
		base      map[string]any
		groupName string
	)

	page := 1
	for {
		if err := ctx.Err(); err != nil {
			return nil, goerr.Wrap(err, "collection interrupted", goerr.V("page", page))
		}

		logger.Info("fetching page", "page", page)
		listing, err := u.client.GroupOrgs(ctx, input.GroupID, page, u.pageSize)
		if err != nil {
			return nil, err
		}

		// The first page carries the group fields every later page repeats
		if page == 1 {
			base = listing.Base
			groupName = listing.Name
		}
		orgs = append(orgs, listing.Orgs...)

		if len(listing.Orgs) < u.pageSize {
			break
		}
		if page >= u.maxPages {
			logger.Warn("stopped pagination at the page ceiling, result may be incomplete",
				"pages", page,
				"organizations", len(orgs))
			break
		}
		page++
	}

	if groupName == "" {
		groupName = input.GroupID.String()
	}
	logger.Info("found group", "group_name", groupName, "organizations", len(orgs))

	kept, excluded := model.ExcludeDefaultOrg(orgs, groupName)
	for _, org := range excluded {
		logger.Info("excluding organization",
			"name", org.Name,
			"id", org.ID,
			"pattern", model.DefaultOrgName(groupName))
	}

	if outputPath == "" {
		validated, err := safepath.ValidateOutput(defaultSnapshotFilename(groupName), input.BaseDir)
		if err != nil {
			return nil, err
		}
		outputPath = validated
	}

	endpoint := fmt.Sprintf("%s/group/%s/orgs", u.apiBase, input.GroupID)
	snapshot := model.NewSnapshot(input.GroupID, groupName, base, kept, excluded, endpoint)

	if err := u.storage.SaveSnapshot(ctx, outputPath, snapshot); err != nil {
		return nil, goerr.Wrap(err, "failed to save snapshot", goerr.V("path", outputPath))
	}

	logger.Info("snapshot saved",
		"path", outputPath,
		"group_id", input.GroupID,
		"group_name", groupName,
		"total_organizations", len(kept),
		"excluded_organizations", len(excluded),
	)
	for i, org := range kept {
		if i == previewCount {
			logger.Info("more organizations collected", "count", len(kept)-previewCount)
			break
		}
		logger.Info("collected organization", "name", org.Name, "id", org.ID)
	}

	return snapshot, nil
}

var (
	unsafeFilenameChars = regexp.MustCompile(`[<>:"/\\|?*]`)
	whitespaceRuns      = regexp.MustCompile(`\s+`)
)

// defaultSnapshotFilename derives a filesystem-safe snapshot file name
// from the group name
func defaultSnapshotFilename(groupName string) string {
	clean := unsafeFilenameChars.ReplaceAllString(groupName, "_")
	clean = whitespaceRuns.ReplaceAllString(clean, "_")
	clean = strings.Trim(clean, "_")
	return fmt.Sprintf("snyk_orgs_for_%s.json", clean)
}
