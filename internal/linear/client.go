package linear

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mattjoyce/linear-relay/internal/apperr"
)

// Defaults for the Linear GraphQL client.
const (
	DefaultAPIURL  = "https://api.linear.app/graphql"
	DefaultTimeout = 10 * time.Second

	maxResponseSize = 1 << 20
)

const projectInitiativesQuery = `query GetProjectInitiatives($id: String!) {
  project(id: $id) {
    initiatives {
      nodes {
        id
        name
        targetDate
        status
      }
    }
  }
}`

// Initiative is a Linear initiative linked to a project.
type Initiative struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	TargetDate string `json:"targetDate,omitempty"`
	Status     string `json:"status,omitempty"`
}

// ClientConfig configures a Client.
type ClientConfig struct {
	APIURL  string
	APIKey  string
	Timeout time.Duration
}

// Client queries the Linear GraphQL API.
type Client struct {
	apiURL     string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a Client. An empty APIKey is accepted here and reported
// as a configuration error on the first fetch.
func NewClient(cfg ClientConfig, logger *slog.Logger) *Client {
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Client{
		apiURL:     cfg.APIURL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type projectInitiativesResponse struct {
	Data *struct {
		Project *struct {
			Initiatives struct {
				Nodes []Initiative `json:"nodes"`
			} `json:"initiatives"`
		} `json:"project"`
	} `json:"data"`
	Errors []graphQLError `json:"errors"`
}

// FetchInitiatives returns the initiatives linked to projectID.
func (c *Client) FetchInitiatives(ctx context.Context, projectID string) ([]Initiative, error) {
	const op = "linear.fetch_initiatives"

	if c.apiKey == "" {
		return nil, apperr.Configuration(op, "LINEAR_API_KEY is not set")
	}

	payload, err := json.Marshal(graphQLRequest{
		Query:     projectInitiativesQuery,
		Variables: map[string]any{"id": projectID},
	})
	if err != nil {
		return nil, apperr.New(apperr.KindUnexpected, op, "encode query", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(payload))
	if err != nil {
		return nil, apperr.Upstream(op, "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperr.Upstream(op, "request failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, apperr.Upstream(op, "read response", err)
	}

	c.logger.Debug("linear query finished",
		"project_id", projectID,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	var out projectInitiativesResponse
	decodeErr := json.Unmarshal(raw, &out)

	if len(out.Errors) > 0 {
		msgs := make([]string, 0, len(out.Errors))
		for _, e := range out.Errors {
			msgs = append(msgs, e.Message)
		}
		return nil, apperr.Upstream(op, fmt.Sprintf("graphql errors (status %d): %s", resp.StatusCode, strings.Join(msgs, "; ")), nil)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apperr.Upstream(op, fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}
	if decodeErr != nil {
		return nil, apperr.Upstream(op, "decode response", decodeErr)
	}
	if out.Data == nil || out.Data.Project == nil {
		return nil, apperr.Upstream(op, fmt.Sprintf("project %q not found", projectID), nil)
	}

	nodes := out.Data.Project.Initiatives.Nodes
	if nodes == nil {
		nodes = []Initiative{}
	}
	return nodes, nil
}
