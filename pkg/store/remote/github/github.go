// Package github implements remote.Remote on the GitHub Contents API,
// storing each record as a file in a directory of a repository.
package github

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	apiBase = "https://api.github.com"

	acceptHeader = "application/vnd.github.v3+json"
)

// Config holds the repository coordinates and credentials.
type Config struct {
	// Repo is the "owner/name" repository slug.
	Repo string

	// Dir is the directory inside the repository holding record blobs.
	Dir string

	// Token is a GitHub API token with contents read/write access.
	Token string

	// BaseURL overrides the API host, for tests and GitHub Enterprise.
	BaseURL string
}

// Store is a remote.Remote over the GitHub Contents API.
type Store struct {
	config Config
	client *http.Client
}

// NewStore creates a GitHub-backed remote store.
func NewStore(config Config) *Store {
	if config.BaseURL == "" {
		config.BaseURL = apiBase
	}
	return &Store{
		config: config,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

type contentsEntry struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type contentsFile struct {
	Content string `json:"content"`
}

type putRequest struct {
	Message string `json:"message"`
	Content string `json:"content"`
}

// List returns the blob names in the record directory. A missing directory
// is an empty store, not an error.
func (s *Store) List(ctx context.Context) ([]string, error) {
	body, status, err := s.do(ctx, http.MethodGet, s.dirURL(), nil)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, nil
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("github list status %d: %s", status, string(body))
	}

	var entries []contentsEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("decode github listing: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type == "file" {
			names = append(names, e.Name)
		}
	}
	return names, nil
}

// Get fetches one blob by name and decodes its base64 content.
func (s *Store) Get(ctx context.Context, name string) ([]byte, error) {
	body, status, err := s.do(ctx, http.MethodGet, s.dirURL()+"/"+name, nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("github get %s status %d: %s", name, status, string(body))
	}

	var file contentsFile
	if err := json.Unmarshal(body, &file); err != nil {
		return nil, fmt.Errorf("decode github content: %w", err)
	}

	data, err := base64.StdEncoding.DecodeString(file.Content)
	if err != nil {
		return nil, fmt.Errorf("decode github blob %s: %w", name, err)
	}
	return data, nil
}

// Put uploads one blob. GitHub answers 422 when the file already exists;
// records are immutable, so that counts as success.
func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	payload, err := json.Marshal(putRequest{
		Message: "Add record " + name,
		Content: base64.StdEncoding.EncodeToString(data),
	})
	if err != nil {
		return fmt.Errorf("marshal github put: %w", err)
	}

	body, status, err := s.do(ctx, http.MethodPut, s.dirURL()+"/"+name, payload)
	if err != nil {
		return err
	}

	switch status {
	case http.StatusOK, http.StatusCreated, http.StatusUnprocessableEntity:
		return nil
	default:
		return fmt.Errorf("github put %s status %d: %s", name, status, string(body))
	}
}

func (s *Store) dirURL() string {
	return fmt.Sprintf("%s/repos/%s/contents/%s", s.config.BaseURL, s.config.Repo, s.config.Dir)
}

func (s *Store) do(ctx context.Context, method, url string, payload []byte) ([]byte, int, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("create github request: %w", err)
	}
	req.Header.Set("Accept", acceptHeader)
	if s.config.Token != "" {
		req.Header.Set("Authorization", "token "+s.config.Token)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("github request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("read github response: %w", err)
	}
	return body, resp.StatusCode, nil
}
