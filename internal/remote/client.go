package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hpungsan/shard/internal/errors"
	"github.com/hpungsan/shard/internal/project"
)

// HTTPClient talks to a shard document-store server (see Server) over JSON.
type HTTPClient struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewHTTPClient creates a client for the server at baseURL authenticating
// with the given bearer token.
func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// listResponse is the wire shape of a ListAll reply.
type listResponse struct {
	Projects []project.Project `json:"projects"`
}

// ListAll implements Client.
func (c *HTTPClient) ListAll(ctx context.Context, identity string) ([]project.Project, error) {
	var out listResponse
	if err := c.do(ctx, http.MethodGet, c.projectsURL(identity), nil, &out); err != nil {
		return nil, errors.NewRemoteFailed("list", err)
	}
	return out.Projects, nil
}

// Upsert implements Client.
func (c *HTTPClient) Upsert(ctx context.Context, identity string, p project.Project) error {
	body, err := json.Marshal(p)
	if err != nil {
		return errors.NewInternal(err)
	}
	u := c.projectsURL(identity) + "/" + url.PathEscape(p.ID)
	if err := c.do(ctx, http.MethodPut, u, body, nil); err != nil {
		return errors.NewRemoteFailed("upsert", err)
	}
	return nil
}

// Delete implements Client.
func (c *HTTPClient) Delete(ctx context.Context, identity string, projectID string) error {
	u := c.projectsURL(identity) + "/" + url.PathEscape(projectID)
	if err := c.do(ctx, http.MethodDelete, u, nil, nil); err != nil {
		return errors.NewRemoteFailed("delete", err)
	}
	return nil
}

func (c *HTTPClient) projectsURL(identity string) string {
	return c.baseURL + "/v1/users/" + url.PathEscape(identity) + "/projects"
}

func (c *HTTPClient) do(ctx context.Context, method, u string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: status %d: %s", method, u, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
