// Package snyk is a thin client for the two Snyk API surfaces this tool
// touches: the v1 group organization listing and the REST Universal
// Broker connection mutation.
package snyk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/shepherd/pkg/domain/interfaces"
	"github.com/secmon-lab/shepherd/pkg/domain/model"
	"github.com/secmon-lab/shepherd/pkg/domain/types"
)

const (
	// DefaultAPIURL is the v1 API base used for group listings
	DefaultAPIURL = "https://api.snyk.io/v1"
	// DefaultRESTURL is the REST API base used for broker mutations
	DefaultRESTURL = "https://api.snyk.io/rest"
	// DefaultBrokerAPIVersion pins the experimental broker API revision
	DefaultBrokerAPIVersion = "2024-02-08~experimental"

	defaultTimeout = 30 * time.Second

	// debug logging truncates response bodies to this many bytes
	maxLoggedBody = 500
)

// Client calls the Snyk API. All methods issue exactly one HTTP request
// and never retry.
type Client struct {
	apiURL           string
	restURL          string
	token            string
	brokerAPIVersion string
	httpClient       *http.Client
}

var _ interfaces.SnykClient = (*Client)(nil)

// Option configures a Client
type Option func(*Client)

// WithAPIURL overrides the v1 API base URL
func WithAPIURL(u string) Option {
	return func(c *Client) {
		c.apiURL = strings.TrimSuffix(u, "/")
	}
}

// WithRESTURL overrides the REST API base URL
func WithRESTURL(u string) Option {
	return func(c *Client) {
		c.restURL = strings.TrimSuffix(u, "/")
	}
}

// WithBrokerAPIVersion overrides the broker API version query parameter
func WithBrokerAPIVersion(v string) Option {
	return func(c *Client) {
		c.brokerAPIVersion = v
	}
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// New creates a Snyk API client authenticated with token
func New(token string, opts ...Option) *Client {
	c := &Client{
		apiURL:           DefaultAPIURL,
		restURL:          DefaultRESTURL,
		token:            token,
		brokerAPIVersion: DefaultBrokerAPIVersion,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GroupOrgs fetches one page of the organization listing for a group.
// Authentication and lookup failures are returned as tagged errors so
// the caller can report a distinct message per cause.
func (c *Client) GroupOrgs(ctx context.Context, groupID types.GroupID, page, perPage int) (*model.OrgsPage, error) {
	endpoint := fmt.Sprintf("%s/group/%s/orgs", c.apiURL, url.PathEscape(groupID.String()))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build group listing request",
			goerr.V("group_id", groupID))
	}

	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("perPage", strconv.Itoa(perPage))
	req.URL.RawQuery = query.Encode()

	req.Header.Set("Authorization", "token "+c.token)
	req.Header.Set("Content-Type", "application/json")

	ctxlog.From(ctx).Debug("fetching group organizations",
		"url", req.URL.String(),
		"page", page,
		"per_page", perPage,
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, goerr.Wrap(err, "group listing request failed",
			goerr.V("group_id", groupID),
			goerr.V("page", page))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read group listing response",
			goerr.V("group_id", groupID),
			goerr.V("page", page))
	}

	switch resp.StatusCode {
	case http.StatusOK:
		// fall through to decode

	case http.StatusUnauthorized:
		return nil, goerr.New("authentication failed, check your API token",
			goerr.T(model.ErrTagAuth))

	case http.StatusNotFound:
		return nil, goerr.New("group not found or not accessible",
			goerr.V("group_id", groupID),
			goerr.T(model.ErrTagNotFound))

	default:
		return nil, goerr.New("unexpected response from group listing",
			goerr.V("group_id", groupID),
			goerr.V("page", page),
			goerr.V("status_code", resp.StatusCode),
			goerr.V("body", truncate(body)))
	}

	orgsPage, err := model.DecodeOrgsPage(body)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to decode group listing response",
			goerr.V("group_id", groupID),
			goerr.V("page", page))
	}

	ctxlog.From(ctx).Debug("fetched group organizations page",
		"page", page,
		"count", len(orgsPage.Orgs),
	)

	return orgsPage, nil
}

// ConnectOrg attaches one organization to a Universal Broker connection.
// Any HTTP response, success or not, is returned as a BrokerResponse for
// the caller to classify. An error is returned only when no HTTP
// response was obtained at all.
func (c *Client) ConnectOrg(ctx context.Context, connReq *model.ConnectionRequest) (*model.BrokerResponse, error) {
	if err := connReq.Validate(); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/tenants/%s/brokers/connections/%s/orgs/%s/integration",
		c.restURL,
		url.PathEscape(connReq.TenantID.String()),
		url.PathEscape(connReq.ConnectionID.String()),
		url.PathEscape(connReq.OrgID.String()),
	)

	payload, err := json.Marshal(map[string]any{
		"data": map[string]any{
			"integration_id": connReq.IntegrationID,
			"type":           connReq.IntegrationType,
		},
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to encode broker connection payload",
			goerr.V("org_id", connReq.OrgID),
			goerr.T(model.ErrTagMutation))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build broker connection request",
			goerr.V("org_id", connReq.OrgID),
			goerr.T(model.ErrTagMutation))
	}

	query := url.Values{}
	query.Set("version", c.brokerAPIVersion)
	req.URL.RawQuery = query.Encode()

	req.Header.Set("Authorization", "token "+c.token)
	req.Header.Set("Content-Type", "application/vnd.api+json")

	requestURL := req.URL.String()
	ctxlog.From(ctx).Debug("connecting organization to broker",
		"url", requestURL,
		"org_id", connReq.OrgID,
		"payload", string(payload),
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, goerr.Wrap(err, "broker connection request failed",
			goerr.V("org_id", connReq.OrgID),
			goerr.V("url", requestURL),
			goerr.T(model.ErrTagMutation))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read broker connection response",
			goerr.V("org_id", connReq.OrgID),
			goerr.V("url", requestURL),
			goerr.T(model.ErrTagMutation))
	}

	ctxlog.From(ctx).Debug("broker connection response",
		"org_id", connReq.OrgID,
		"status_code", resp.StatusCode,
		"body", truncate(body),
	)

	result := &model.BrokerResponse{
		StatusCode: resp.StatusCode,
		RawBody:    string(body),
		URL:        requestURL,
	}
	var parsed map[string]any
	if err := json.Unmarshal(body, &parsed); err == nil {
		result.Body = parsed
	}
	return result, nil
}

func truncate(body []byte) string {
	if len(body) <= maxLoggedBody {
		return string(body)
	}
	return string(body[:maxLoggedBody])
}
