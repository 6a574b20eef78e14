package config

import (
	"log/slog"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/shepherd/pkg/domain/model"
	"github.com/secmon-lab/shepherd/pkg/service/snyk"
	"github.com/urfave/cli/v3"
)

// Snyk holds Snyk API configuration. The API token is read from the
// environment only, never from a flag, so it cannot leak through argv
// or shell history.
type Snyk struct {
	APIURL           string
	RESTURL          string
	BrokerAPIVersion string

	token string
}

// Flags returns CLI flags for Snyk API configuration
func (s *Snyk) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "api-url",
			Usage:       "Snyk v1 API base URL",
			Category:    "Snyk",
			Value:       snyk.DefaultAPIURL,
			Sources:     cli.EnvVars("SNYK_API_URL"),
			Destination: &s.APIURL,
		},
		&cli.StringFlag{
			Name:        "rest-url",
			Usage:       "Snyk REST API base URL",
			Category:    "Snyk",
			Value:       snyk.DefaultRESTURL,
			Sources:     cli.EnvVars("SNYK_REST_API_URL"),
			Destination: &s.RESTURL,
		},
		&cli.StringFlag{
			Name:        "broker-api-version",
			Usage:       "Version parameter for the Universal Broker API",
			Category:    "Snyk",
			Value:       snyk.DefaultBrokerAPIVersion,
			Sources:     cli.EnvVars("SHEPHERD_BROKER_API_VERSION"),
			Destination: &s.BrokerAPIVersion,
		},
	}
}

// Load reads the API token from the SNYK_TOKEN environment variable.
// A missing token is a fatal configuration error and must surface
// before any network call.
func (s *Snyk) Load() error {
	s.token = os.Getenv("SNYK_TOKEN")
	if s.token == "" {
		return goerr.New("SNYK_TOKEN environment variable is not set",
			goerr.T(model.ErrTagConfig))
	}
	return nil
}

// Validate validates the Snyk configuration
func (s *Snyk) Validate() error {
	if s.APIURL == "" {
		return goerr.New("API URL is required", goerr.T(model.ErrTagConfig))
	}
	if s.RESTURL == "" {
		return goerr.New("REST API URL is required", goerr.T(model.ErrTagConfig))
	}
	if s.BrokerAPIVersion == "" {
		return goerr.New("broker API version is required", goerr.T(model.ErrTagConfig))
	}
	return nil
}

// Configure loads the token and returns a ready Snyk API client
func (s *Snyk) Configure() (*snyk.Client, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if err := s.Load(); err != nil {
		return nil, err
	}

	return snyk.New(s.token,
		snyk.WithAPIURL(s.APIURL),
		snyk.WithRESTURL(s.RESTURL),
		snyk.WithBrokerAPIVersion(s.BrokerAPIVersion),
	), nil
}

// LogValue returns structured log value. The token itself is never
// logged.
func (s Snyk) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("api_url", s.APIURL),
		slog.String("rest_url", s.RESTURL),
		slog.String("broker_api_version", s.BrokerAPIVersion),
		slog.Bool("has_token", s.token != ""),
	)
}
