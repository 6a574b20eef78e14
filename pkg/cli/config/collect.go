package config

import (
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/shepherd/pkg/domain/model"
	"github.com/secmon-lab/shepherd/pkg/domain/types"
	"github.com/secmon-lab/shepherd/pkg/usecase"
	"github.com/urfave/cli/v3"
)

// Collect holds collector configuration
type Collect struct {
	GroupID  string
	Output   string
	BaseDir  string
	PageSize int
	MaxPages int
}

// Flags returns CLI flags for collector configuration
func (c *Collect) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "group-id",
			Usage:       "Snyk group ID to list organizations from",
			Category:    "Collect",
			Sources:     cli.EnvVars("SHEPHERD_GROUP_ID"),
			Destination: &c.GroupID,
		},
		&cli.StringFlag{
			Name:        "output",
			Usage:       "Snapshot output path (default: derived from the group name)",
			Category:    "Collect",
			Sources:     cli.EnvVars("SHEPHERD_OUTPUT"),
			Destination: &c.Output,
		},
		&cli.StringFlag{
			Name:        "base-dir",
			Usage:       "Directory file paths must stay within (default: working directory)",
			Category:    "Collect",
			Sources:     cli.EnvVars("SHEPHERD_BASE_DIR"),
			Destination: &c.BaseDir,
		},
		&cli.IntFlag{
			Name:        "page-size",
			Usage:       "Organizations per listing page",
			Category:    "Collect",
			Value:       usecase.DefaultPageSize,
			Sources:     cli.EnvVars("SHEPHERD_PAGE_SIZE"),
			Destination: &c.PageSize,
		},
		&cli.IntFlag{
			Name:        "max-pages",
			Usage:       "Safety ceiling on the number of listing pages",
			Category:    "Collect",
			Value:       usecase.DefaultMaxPages,
			Sources:     cli.EnvVars("SHEPHERD_MAX_PAGES"),
			Destination: &c.MaxPages,
		},
	}
}

// Validate validates the collector configuration
func (c *Collect) Validate() error {
	if c.GroupID == "" {
		return goerr.New("group ID is required", goerr.T(model.ErrTagConfig))
	}
	if c.PageSize <= 0 {
		return goerr.New("page size must be positive",
			goerr.V("page_size", c.PageSize),
			goerr.T(model.ErrTagConfig))
	}
	if c.MaxPages <= 0 {
		return goerr.New("max pages must be positive",
			goerr.V("max_pages", c.MaxPages),
			goerr.T(model.ErrTagConfig))
	}
	return nil
}

// Input builds the use case input from the configuration
func (c *Collect) Input() *usecase.CollectInput {
	return &usecase.CollectInput{
		GroupID: types.GroupID(c.GroupID),
		Output:  c.Output,
		BaseDir: c.BaseDir,
	}
}

// LogValue returns structured log value
func (c Collect) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("group_id", c.GroupID),
		slog.String("output", c.Output),
		slog.String("base_dir", c.BaseDir),
		slog.Int("page_size", c.PageSize),
		slog.Int("max_pages", c.MaxPages),
	)
}
