package config

import (
	"log/slog"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/shepherd/pkg/domain/model"
	"github.com/secmon-lab/shepherd/pkg/domain/types"
	"github.com/secmon-lab/shepherd/pkg/usecase"
	"github.com/urfave/cli/v3"
)

// Connect holds applicator configuration
type Connect struct {
	OrgsFile        string
	OutputLog       string
	BaseDir         string
	TenantID        string
	ConnectionID    string
	IntegrationID   string
	IntegrationType string
	Delay           time.Duration
}

// Flags returns CLI flags for applicator configuration
func (c *Connect) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "orgs-file",
			Usage:       "Snapshot file listing the organizations to connect",
			Category:    "Connect",
			Sources:     cli.EnvVars("SHEPHERD_ORGS_FILE"),
			Destination: &c.OrgsFile,
		},
		&cli.StringFlag{
			Name:        "output-log",
			Usage:       "Run log output path",
			Category:    "Connect",
			Value:       "connection_log.json",
			Sources:     cli.EnvVars("SHEPHERD_OUTPUT_LOG"),
			Destination: &c.OutputLog,
		},
		&cli.StringFlag{
			Name:        "base-dir",
			Usage:       "Directory file paths must stay within (default: working directory)",
			Category:    "Connect",
			Sources:     cli.EnvVars("SHEPHERD_BASE_DIR"),
			Destination: &c.BaseDir,
		},
		&cli.StringFlag{
			Name:        "tenant-id",
			Usage:       "Snyk tenant ID owning the broker connection",
			Category:    "Connect",
			Sources:     cli.EnvVars("SNYK_TENANT_ID"),
			Destination: &c.TenantID,
		},
		&cli.StringFlag{
			Name:        "connection-id",
			Usage:       "Universal Broker connection ID",
			Category:    "Connect",
			Sources:     cli.EnvVars("SHEPHERD_CONNECTION_ID"),
			Destination: &c.ConnectionID,
		},
		&cli.StringFlag{
			Name:        "integration-id",
			Usage:       "Integration ID bound to every organization",
			Category:    "Connect",
			Sources:     cli.EnvVars("SHEPHERD_INTEGRATION_ID"),
			Destination: &c.IntegrationID,
		},
		&cli.StringFlag{
			Name:        "integration-type",
			Usage:       "Integration type, e.g. github or gitlab",
			Category:    "Connect",
			Sources:     cli.EnvVars("SHEPHERD_INTEGRATION_TYPE"),
			Destination: &c.IntegrationType,
		},
		&cli.DurationFlag{
			Name:        "delay",
			Usage:       "Fixed delay between connection calls",
			Category:    "Connect",
			Value:       usecase.DefaultDelay,
			Sources:     cli.EnvVars("SHEPHERD_DELAY"),
			Destination: &c.Delay,
		},
	}
}

// Validate validates the applicator configuration
func (c *Connect) Validate() error {
	if c.Delay < 0 {
		return goerr.New("delay must not be negative",
			goerr.V("delay", c.Delay),
			goerr.T(model.ErrTagConfig))
	}
	return c.Input().Validate()
}

// Input builds the use case input from the configuration
func (c *Connect) Input() *usecase.ConnectInput {
	return &usecase.ConnectInput{
		OrgsFile:        c.OrgsFile,
		OutputLog:       c.OutputLog,
		BaseDir:         c.BaseDir,
		TenantID:        types.TenantID(c.TenantID),
		ConnectionID:    types.ConnectionID(c.ConnectionID),
		IntegrationID:   types.IntegrationID(c.IntegrationID),
		IntegrationType: c.IntegrationType,
	}
}

// LogValue returns structured log value
func (c Connect) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("orgs_file", c.OrgsFile),
		slog.String("output_log", c.OutputLog),
		slog.String("base_dir", c.BaseDir),
		slog.String("tenant_id", c.TenantID),
		slog.String("connection_id", c.ConnectionID),
		slog.String("integration_id", c.IntegrationID),
		slog.String("integration_type", c.IntegrationType),
		slog.Duration("delay", c.Delay),
	)
}
