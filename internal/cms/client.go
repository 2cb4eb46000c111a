// Package cms reads and writes stories through the Storyblok management API.
package cms

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

	"golang.org/x/time/rate"
)

// Story is a CMS entry. Content holds the component fields, including the
// rich-text body.
type Story struct {
	ID        int64          `json:"id,omitempty"`
	UUID      string         `json:"uuid,omitempty"`
	Name      string         `json:"name"`
	Slug      string         `json:"slug"`
	FullSlug  string         `json:"full_slug,omitempty"`
	ParentID  int64          `json:"parent_id,omitempty"`
	IsFolder  bool           `json:"is_folder,omitempty"`
	Content   map[string]any `json:"content,omitempty"`
	Published bool           `json:"published,omitempty"`
}

// Client communicates with one space of the management API.
type Client struct {
	baseURL    string
	spaceID    string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient builds a client. rps bounds request rate; zero disables the
// limit.
func NewClient(baseURL, spaceID, token string, rps float64) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		spaceID: spaceID,
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	if rps > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
	return c
}

type storyEnvelope struct {
	Story       Story `json:"story"`
	Publish     int   `json:"publish,omitempty"`
	ForceUpdate int   `json:"force_update,omitempty"`
}

// GetByPath returns the story at fullSlug, or nil when there is none.
func (c *Client) GetByPath(ctx context.Context, fullSlug string) (*Story, error) {
	q := url.Values{}
	q.Set("with_slug", strings.Trim(fullSlug, "/"))
	var result struct {
		Stories []Story `json:"stories"`
	}
	if err := c.do(ctx, http.MethodGet, "/stories?"+q.Encode(), nil, &result, http.StatusOK); err != nil {
		return nil, fmt.Errorf("get story %s: %w", fullSlug, err)
	}
	if len(result.Stories) == 0 {
		return nil, nil
	}
	return &result.Stories[0], nil
}

// Create adds and publishes a story.
func (c *Client) Create(ctx context.Context, s Story) (*Story, error) {
	var out storyEnvelope
	if err := c.do(ctx, http.MethodPost, "/stories", storyEnvelope{Story: s, Publish: 1}, &out, http.StatusOK, http.StatusCreated); err != nil {
		return nil, fmt.Errorf("create story %s: %w", s.Slug, err)
	}
	return &out.Story, nil
}

// Update replaces and republishes the story with the given id.
func (c *Client) Update(ctx context.Context, id int64, s Story) (*Story, error) {
	var out storyEnvelope
	path := fmt.Sprintf("/stories/%d", id)
	if err := c.do(ctx, http.MethodPut, path, storyEnvelope{Story: s, Publish: 1, ForceUpdate: 1}, &out, http.StatusOK); err != nil {
		return nil, fmt.Errorf("update story %d: %w", id, err)
	}
	return &out.Story, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any, ok ...int) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal: %w", err)
		}
		body = bytes.NewReader(raw)
	}
	u := c.baseURL + "/spaces/" + url.PathEscape(c.spaceID) + path
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	accepted := false
	for _, code := range ok {
		if resp.StatusCode == code {
			accepted = true
			break
		}
	}
	if !accepted {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

// StatusError is a non-success response from the API.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.Code, e.Body)
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
