package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/banshee-data/motion.report/internal/commands"
	"github.com/banshee-data/motion.report/internal/db"
	"github.com/banshee-data/motion.report/internal/httputil"
)

// Client talks to a running tracker's HTTP API.
type Client struct {
	BaseURL string
	HTTP    httputil.HTTPClient
}

func NewClient(baseURL string, hc httputil.HTTPClient) *Client {
	if hc == nil {
		hc = httputil.NewStandardClient(nil)
	}
	return &Client{BaseURL: strings.TrimRight(baseURL, "/"), HTTP: hc}
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if err := httputil.ReadJSONResponse(resp, out); err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) Status(ctx context.Context) (*StatusResponse, error) {
	var st StatusResponse
	if err := c.do(ctx, http.MethodGet, "/api/status", nil, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (c *Client) Sessions(ctx context.Context) ([]db.Session, error) {
	var sessions []db.Session
	if err := c.do(ctx, http.MethodGet, "/api/sessions", nil, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (c *Client) Samples(ctx context.Context, id string) ([]db.AngleSample, error) {
	var samples []db.AngleSample
	if err := c.do(ctx, http.MethodGet, "/api/sessions/"+url.PathEscape(id)+"/samples", nil, &samples); err != nil {
		return nil, err
	}
	return samples, nil
}

// Send posts a command to the tracker's frame loop.
func (c *Client) Send(ctx context.Context, cmd commands.Command) error {
	path := "/api/recording/" + cmd.String()
	if cmd == commands.Quit {
		path = "/api/quit"
	}
	var resp CommandResponse
	return c.do(ctx, http.MethodPost, path, nil, &resp)
}
