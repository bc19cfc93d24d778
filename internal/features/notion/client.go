package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"notisync/internal/features/audit"

	"go.uber.org/zap"
)

const (
	defaultVersion = "2025-09-03"
	requestTimeout = 15 * time.Second
	summaryLimit   = 256
)

// Client is the remote API surface the sync core consumes. Every call is
// attributable to the credential's owner and individually timeoutable.
type Client interface {
	GetDatabase(ctx context.Context, cred Credential, databaseID string) (*Database, error)
	GetDataSource(ctx context.Context, cred Credential, dataSourceID string) (*DataSource, error)
	QueryDataSource(ctx context.Context, cred Credential, dataSourceID, cursor string, pageSize int) (*QueryResult, error)
	GetPage(ctx context.Context, cred Credential, pageID string) (*Record, error)
	GetBlockChildren(ctx context.Context, cred Credential, blockID string) ([]Block, error)
	Search(ctx context.Context, cred Credential, cursor string) (*SearchResult, error)
}

type HTTPClient struct {
	BaseURL string
	Http    *http.Client
	Audit   audit.Service
	Logger  *zap.Logger
}

func NewClient(baseURL string, auditService audit.Service, logger *zap.Logger) Client {
	return &HTTPClient{
		BaseURL: baseURL,
		Http: &http.Client{
			Timeout: requestTimeout,
		},
		Audit:  auditService,
		Logger: logger,
	}
}

func (c *HTTPClient) GetDatabase(ctx context.Context, cred Credential, databaseID string) (*Database, error) {
	var db Database
	if err := c.do(ctx, cred, http.MethodGet, "/databases/"+databaseID, nil, &db); err != nil {
		return nil, err
	}
	return &db, nil
}

func (c *HTTPClient) GetDataSource(ctx context.Context, cred Credential, dataSourceID string) (*DataSource, error) {
	var ds DataSource
	if err := c.do(ctx, cred, http.MethodGet, "/data_sources/"+dataSourceID, nil, &ds); err != nil {
		return nil, err
	}
	return &ds, nil
}

func (c *HTTPClient) QueryDataSource(ctx context.Context, cred Credential, dataSourceID, cursor string, pageSize int) (*QueryResult, error) {
	body := map[string]any{
		"page_size": pageSize,
	}
	if cursor != "" {
		body["start_cursor"] = cursor
	}

	var result QueryResult
	if err := c.do(ctx, cred, http.MethodPost, "/data_sources/"+dataSourceID+"/query", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) GetPage(ctx context.Context, cred Credential, pageID string) (*Record, error) {
	var page Record
	if err := c.do(ctx, cred, http.MethodGet, "/pages/"+pageID, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *HTTPClient) GetBlockChildren(ctx context.Context, cred Credential, blockID string) ([]Block, error) {
	var out []Block
	cursor := ""
	for {
		path := "/blocks/" + blockID + "/children?page_size=100"
		if cursor != "" {
			path += "&start_cursor=" + cursor
		}

		var page struct {
			Results    []Block `json:"results"`
			HasMore    bool    `json:"has_more"`
			NextCursor string  `json:"next_cursor"`
		}
		if err := c.do(ctx, cred, http.MethodGet, path, nil, &page); err != nil {
			return nil, err
		}

		out = append(out, page.Results...)
		if !page.HasMore {
			return out, nil
		}
		cursor = page.NextCursor
	}
}

func (c *HTTPClient) Search(ctx context.Context, cred Credential, cursor string) (*SearchResult, error) {
	body := map[string]any{
		"page_size": 100,
	}
	if cursor != "" {
		body["start_cursor"] = cursor
	}

	var result SearchResult
	if err := c.do(ctx, cred, http.MethodPost, "/search", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// do issues one request with the per-call timeout, records it to the audit
// log, and decodes a 2xx body into out.
func (c *HTTPClient) do(ctx context.Context, cred Credential, method, path string, body any, out any) error {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	url := c.BaseURL + path

	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	version := cred.Version
	if version == "" {
		version = defaultVersion
	}
	req.Header.Set("Authorization", "Bearer "+cred.Token)
	req.Header.Set("Notion-Version", version)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.Http.Do(req)
	if err != nil {
		c.record(ctx, cred, method, url, 0, start, "", err)
		return fmt.Errorf("request to %s failed: %w", url, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.record(ctx, cred, method, url, resp.StatusCode, start, "", err)
		return fmt.Errorf("failed to read response from %s: %w", url, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := fmt.Errorf("remote API returned %d for %s: %s", resp.StatusCode, url, summarize(data))
		c.record(ctx, cred, method, url, resp.StatusCode, start, summarize(data), apiErr)
		return apiErr
	}

	c.record(ctx, cred, method, url, resp.StatusCode, start, summarize(data), nil)

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to decode response from %s: %w", url, err)
		}
	}
	return nil
}

func (c *HTTPClient) record(ctx context.Context, cred Credential, method, url string, status int, start time.Time, summary string, callErr error) {
	entry := audit.CallLog{
		OwnerID:    cred.OwnerID,
		Method:     method,
		URL:        url,
		Status:     status,
		DurationMs: time.Since(start).Milliseconds(),
		Success:    callErr == nil,
		Summary:    summary,
		Timestamp:  time.Now(),
	}
	if callErr != nil {
		entry.Error = callErr.Error()
	}

	// Audit writes use a detached context so a cancelled call still gets logged.
	c.Audit.RecordCall(context.WithoutCancel(ctx), entry)
}

func summarize(body []byte) string {
	if len(body) > summaryLimit {
		return string(body[:summaryLimit])
	}
	return string(body)
}
