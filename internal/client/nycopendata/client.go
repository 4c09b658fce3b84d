package nycopendata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"propwatch/internal/cache"
	"propwatch/internal/models"
)

const DefaultBaseURL = "https://data.cityofnewyork.us/resource"

// Socrata dataset ids queried by the ingestion pipeline.
const (
	DatasetDOBPermits    = "ipu4-2q9a"
	DatasetDOBViolations = "3h2n-5cm9"
	DatasetECBViolations = "6bgk-3dad"
	Dataset311Complaints = "erm2-nwe9"
	DatasetAssessments   = "8y4t-faws"
)

const defaultComplaintLimit = 1000

type Options struct {
	HTTPClient     *http.Client
	BaseURL        string
	AppToken       string
	ComplaintLimit int
	Cache          *cache.Cache
}

// Client queries NYC Open Data. It does not paginate beyond the provider
// default and does not retry; transport errors and non-2xx statuses surface
// as errors to the caller.
type Client struct {
	host           string
	appToken       string
	httpClient     *http.Client
	complaintLimit int
	cache          *cache.Cache
}

func NewClient(opts Options) *Client {
	host := strings.TrimRight(opts.BaseURL, "/")
	if host == "" {
		host = DefaultBaseURL
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	complaintLimit := opts.ComplaintLimit
	if complaintLimit <= 0 {
		complaintLimit = defaultComplaintLimit
	}
	return &Client{
		host:           host,
		appToken:       opts.AppToken,
		httpClient:     httpClient,
		complaintLimit: complaintLimit,
		cache:          opts.Cache,
	}
}

type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("open data request failed: status=%d body=%s", e.Status, e.Body)
}

// FetchDataset runs one GET against a dataset endpoint and decodes the result
// rows as untyped records. Responses pass through the read-through cache when
// one is configured; cache failures fall back to a direct fetch.
func (c *Client) FetchDataset(ctx context.Context, datasetID string, params url.Values) ([]map[string]any, error) {
	key := cache.Key(models.SourceNYCOpenData, datasetID, params)
	if payload, ok := c.cache.Get(ctx, key); ok {
		return decodeRecords(payload)
	}

	payload, err := c.doRequest(ctx, datasetID, params)
	if err != nil {
		return nil, err
	}
	c.cache.Set(ctx, key, payload)
	return decodeRecords(payload)
}

func (c *Client) doRequest(ctx context.Context, datasetID string, params url.Values) ([]byte, error) {
	fullURL := c.host + "/" + datasetID + ".json"
	if len(params) > 0 {
		fullURL = fullURL + "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.appToken != "" {
		req.Header.Set("X-App-Token", c.appToken)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Status: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

func decodeRecords(payload []byte) ([]map[string]any, error) {
	var records []map[string]any
	if err := json.Unmarshal(payload, &records); err != nil {
		return nil, fmt.Errorf("failed to decode records: %w", err)
	}
	return records, nil
}

// FetchPermitsByBIN returns DOB permit filings for a building, optionally
// restricted to filings after since (YYYY-MM-DD).
func (c *Client) FetchPermitsByBIN(ctx context.Context, bin, since string) ([]map[string]any, error) {
	params := url.Values{}
	params.Set("bin", bin)
	if since != "" {
		params.Set("$where", "filing_date > '"+since+"'")
	}
	return c.FetchDataset(ctx, DatasetDOBPermits, params)
}

func (c *Client) FetchViolationsByBIN(ctx context.Context, bin, since string) ([]map[string]any, error) {
	params := url.Values{}
	params.Set("bin", bin)
	if since != "" {
		params.Set("$where", "issue_date > '"+since+"'")
	}
	return c.FetchDataset(ctx, DatasetDOBViolations, params)
}

func (c *Client) FetchECBViolationsByBIN(ctx context.Context, bin, since string) ([]map[string]any, error) {
	params := url.Values{}
	params.Set("bin", bin)
	if since != "" {
		params.Set("$where", "issue_date > '"+since+"'")
	}
	return c.FetchDataset(ctx, DatasetECBViolations, params)
}

// Fetch311ComplaintsByBBL returns 311 complaints for a tax lot, capped at the
// configured complaint limit.
func (c *Client) Fetch311ComplaintsByBBL(ctx context.Context, bbl, since string) ([]map[string]any, error) {
	where := "bbl = '" + bbl + "'"
	if since != "" {
		where += " AND created_date > '" + since + "'"
	}
	params := url.Values{}
	params.Set("$where", where)
	params.Set("$limit", strconv.Itoa(c.complaintLimit))
	return c.FetchDataset(ctx, Dataset311Complaints, params)
}

// FetchAssessmentsByBBL returns property valuation/assessment rows for a tax lot.
func (c *Client) FetchAssessmentsByBBL(ctx context.Context, bbl string) ([]map[string]any, error) {
	params := url.Values{}
	params.Set("bble", bbl)
	return c.FetchDataset(ctx, DatasetAssessments, params)
}
