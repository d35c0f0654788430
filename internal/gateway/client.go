// Package gateway is the typed read-only client for the river-patrol portal
// API. It owns request construction, auth-header injection, and the
// transport/server error split; pagination policy and pacing live in the
// collector.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/jonesrussell/riverstats/internal/logger"
	"github.com/jonesrussell/riverstats/internal/models"
)

const (
	// DefaultBaseURL is the production portal API.
	DefaultBaseURL = "https://xhbr.rwan.org.cn/prod-api"

	activityListPath   = "/portal/ums/active/home/list"
	activityDetailPath = "/portal/ums/active/info"
	patrolListPath     = "/portal/ums/patrol/home/list_new"

	// The portal rejects requests without a browser user agent.
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

	businessOK = 200
)

// TokenSource supplies the bearer token for authenticated calls.
type TokenSource interface {
	Token() (string, error)
}

// PageResult is one page of a list response.
type PageResult struct {
	Code  int               `json:"code"`
	Msg   string            `json:"msg"`
	Total int               `json:"total"`
	Rows  []json.RawMessage `json:"rows"`
}

// Client issues paginated GET requests against the portal API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	orgID      string
	tokens     TokenSource
	log        logger.Logger
}

// New creates a gateway client. tokens may be nil when no authenticated
// calls will be made.
func New(httpClient *http.Client, baseURL, orgID string, tokens TokenSource, log logger.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		orgID:      orgID,
		tokens:     tokens,
		log:        log,
	}
}

// ListActivities fetches one page of the public activity list.
func (c *Client) ListActivities(ctx context.Context, page, pageSize int) (*PageResult, error) {
	params := map[string]string{
		"pageNum":  strconv.Itoa(page),
		"pageSize": strconv.Itoa(pageSize),
		"orgId":    c.orgID,
	}
	return c.getPage(ctx, activityListPath, params)
}

// ListPatrolRecords fetches one page of the patrol or evaluation list,
// selected by kind.
func (c *Client) ListPatrolRecords(ctx context.Context, page, pageSize int, kind models.Kind) (*PageResult, error) {
	params := map[string]string{
		"useType":  strconv.Itoa(kind.UseType()),
		"pageNum":  strconv.Itoa(page),
		"pageSize": strconv.Itoa(pageSize),
		"orgId":    c.orgID,
	}
	return c.getPage(ctx, patrolListPath, params)
}

// GetActivityDetail fetches one activity's detail payload, including its
// member roster. This endpoint requires the bearer token. The payload is
// returned raw: detail envelopes come in several shapes and decoding them is
// the normalizer's job.
func (c *Client) GetActivityDetail(ctx context.Context, id int64) (json.RawMessage, error) {
	if c.tokens == nil {
		return nil, &AuthError{Msg: "no token source configured"}
	}
	token, err := c.tokens.Token()
	if err != nil {
		return nil, &AuthError{Msg: fmt.Sprintf("read token: %v", err)}
	}
	if token == "" {
		return nil, &AuthError{Msg: "no auth token configured, run: riverstats auth set-token"}
	}

	path := fmt.Sprintf("%s/%d", activityDetailPath, id)
	params := map[string]string{
		"pageNum":  "1",
		"pageSize": "10",
	}
	return c.get(ctx, path, params, token)
}

// getPage performs a list GET and decodes the page envelope, turning a
// non-200 business code into a ServerError.
func (c *Client) getPage(ctx context.Context, path string, params map[string]string) (*PageResult, error) {
	body, err := c.get(ctx, path, params, "")
	if err != nil {
		return nil, err
	}

	var page PageResult
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, &ServerError{Msg: fmt.Sprintf("malformed response: %v", err)}
	}
	if page.Code != businessOK {
		return nil, &ServerError{Code: page.Code, Msg: page.Msg}
	}
	return &page, nil
}

// get performs one GET request. A non-empty token is sent as the
// Authorization header.
func (c *Client) get(ctx context.Context, path string, params map[string]string, token string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	q := req.URL.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	req.URL.RawQuery = q.Encode()

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/json;charset=UTF-8")
	if token != "" {
		req.Header.Set("Authorization", token)
	}

	c.log.Debug("GET", logger.String("path", path))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Op: "GET " + path, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, &AuthError{Msg: "authentication failed, token may have expired"}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ServerError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: "read " + path, Err: err}
	}
	return body, nil
}
