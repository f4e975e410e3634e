package inference

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// StateActive is the deployment state the manager will adopt.
const StateActive = "Active"

// Deployment is one entry from the deployment registry.
type Deployment struct {
	InstanceName string `json:"instance_name"`
	State        string `json:"state"`
	URL          string `json:"url"`
}

// Registry lists model deployments. The core only reads from the registry;
// it never provisions or mutates deployments.
type Registry interface {
	ListDeployments(ctx context.Context) ([]Deployment, error)
}

// HTTPRegistry talks to a deployment registry over HTTP.
type HTTPRegistry struct {
	baseURL string
	token   string
	client  *http.Client
}

type listDeploymentsResponse struct {
	Deployments []Deployment `json:"deployments"`
	Error       string       `json:"error,omitempty"`
}

// NewHTTPRegistry creates a registry client for the given base URL.
// The token is sent as a bearer credential when non-empty.
func NewHTTPRegistry(baseURL, token string) *HTTPRegistry {
	return &HTTPRegistry{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// ListDeployments fetches the current deployment list.
func (r *HTTPRegistry) ListDeployments(ctx context.Context) ([]Deployment, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/v1/deployments", nil)
	if err != nil {
		return nil, fmt.Errorf("create registry request: %w", err)
	}
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("registry request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("registry status %d: %s", resp.StatusCode, string(body))
	}

	var result listDeploymentsResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode registry response: %w", err)
	}
	if result.Error != "" {
		return nil, fmt.Errorf("registry error: %s", result.Error)
	}

	return result.Deployments, nil
}
