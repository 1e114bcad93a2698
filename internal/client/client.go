// Package client talks to the SmartMark HTTP API.
package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/MrSnakeDoc/smartmark/internal/api"
	"github.com/MrSnakeDoc/smartmark/internal/domain"
	"github.com/MrSnakeDoc/smartmark/internal/realtime"
	"github.com/MrSnakeDoc/smartmark/internal/session"
	"github.com/MrSnakeDoc/smartmark/internal/utils"
)

var _ session.Source = (*Client)(nil)

// Error is a non-2xx answer from the API.
type Error struct {
	StatusCode int
	Body       api.ErrorResponse
}

func (e *Error) Error() string {
	if e.Body.Error == "" {
		return fmt.Sprintf("api returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("api returned status %d: %s", e.StatusCode, e.Body.Error)
}

// IsDuplicate reports whether err is a 409 duplicate answer.
func IsDuplicate(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusConflict {
		return apiErr, true
	}
	return nil, false
}

type Client struct {
	base  *url.URL
	token string
	http  *http.Client
	// stream has no timeout: the event feed stays open until cancelled.
	stream *http.Client
}

// New returns a client for the API at baseURL, authenticating with token.
func New(baseURL, token string, timeout time.Duration) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("empty api url")
	}
	if !strings.Contains(baseURL, "://") {
		baseURL = "http://" + baseURL
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse api url: %w", err)
	}
	base.RawQuery = ""
	base.Fragment = ""

	return &Client{
		base:   base,
		token:  token,
		http:   &http.Client{Timeout: timeout},
		stream: &http.Client{},
	}, nil
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := c.base.JoinPath(path)
	u.RawQuery = query.Encode()
	return u.String()
}

func (c *Client) newRequest(ctx context.Context, method, endpoint string, body any) (*http.Request, error) {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		r = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, r)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer utils.Close(resp.Body)

	if resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &Error{StatusCode: resp.StatusCode}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	_ = json.Unmarshal(data, &apiErr.Body)
	return apiErr
}

// Create submits a URL for ingestion. A 409 comes back as an *Error, see
// IsDuplicate.
func (c *Client) Create(ctx context.Context, rawURL, title string) (*api.CreateBookmarkResponse, error) {
	req, err := c.newRequest(ctx, http.MethodPost, c.endpoint("/api/bookmarks", nil),
		api.CreateBookmarkRequest{URL: rawURL, Title: title})
	if err != nil {
		return nil, err
	}
	var out api.CreateBookmarkResponse
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Bookmarks lists the caller's bookmarks filtered and ordered by q.
func (c *Client) Bookmarks(ctx context.Context, q domain.ListQuery) (*api.ListBookmarksResponse, error) {
	values := url.Values{}
	if q.Search != "" {
		values.Set("q", q.Search)
	}
	if q.Category != "" {
		values.Set("category", string(q.Category))
	}
	if q.Tag != "" {
		values.Set("tag", q.Tag)
	}
	if q.Sort != "" {
		values.Set("sort", string(q.Sort))
	}

	req, err := c.newRequest(ctx, http.MethodGet, c.endpoint("/api/bookmarks", values), nil)
	if err != nil {
		return nil, err
	}
	var out api.ListBookmarksResponse
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// List returns every bookmark of the caller, newest first.
func (c *Client) List(ctx context.Context) ([]*domain.Bookmark, error) {
	resp, err := c.Bookmarks(ctx, domain.ListQuery{})
	if err != nil {
		return nil, err
	}
	return resp.Bookmarks, nil
}

func (c *Client) Delete(ctx context.Context, id string) error {
	req, err := c.newRequest(ctx, http.MethodDelete, c.endpoint("/api/bookmarks/"+url.PathEscape(id), nil), nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

// Stream opens the caller's change feed. The returned channel is closed when
// ctx is done or the server ends the stream.
func (c *Client) Stream(ctx context.Context) (<-chan realtime.Event, error) {
	req, err := c.newRequest(ctx, http.MethodGet, c.endpoint("/api/events", nil), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.stream.Do(req)
	if err != nil {
		return nil, fmt.Errorf("connect to event stream: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer utils.Close(resp.Body)
		return nil, decodeError(resp)
	}

	events := make(chan realtime.Event)
	go func() {
		defer close(events)
		defer utils.Close(resp.Body)
		readEvents(ctx, resp.Body, events)
	}()
	return events, nil
}

// readEvents decodes server-sent "change" events until body ends.
// Comments (heartbeats) and other event names are skipped.
func readEvents(ctx context.Context, body io.Reader, out chan<- realtime.Event) {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64<<10), 1<<20)

	var (
		name string
		data bytes.Buffer
	)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if (name == "" || name == api.EventChange) && data.Len() > 0 {
				var e realtime.Event
				if err := json.Unmarshal(data.Bytes(), &e); err == nil && e.Validate() == nil {
					select {
					case out <- e:
					case <-ctx.Done():
						return
					}
				}
			}
			name = ""
			data.Reset()
		case strings.HasPrefix(line, ":"):
		case strings.HasPrefix(line, "event:"):
			name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
	}
}
