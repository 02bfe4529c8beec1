package zipnova

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tournevent/invoicebridge/pkg/carrier"
)

const maxErrorBody = 4 << 10

// HTTPAPIClient is the production implementation of APIClient using HTTP.
type HTTPAPIClient struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client
}

// HTTPAPIClientConfig holds configuration for the HTTP client.
type HTTPAPIClientConfig struct {
	BaseURL  string
	Username string
	Password string
	Timeout  time.Duration
}

// NewHTTPAPIClient creates a new HTTP-based API client for production use.
func NewHTTPAPIClient(cfg HTTPAPIClientConfig) *HTTPAPIClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &HTTPAPIClient{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		username: cfg.Username,
		password: cfg.Password,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// CreateShipment posts the request to {base}/shipments. Any 2xx answer is
// decoded as a JSON object; numbers are kept as json.Number so large ids
// survive intact.
func (c *HTTPAPIClient) CreateShipment(ctx context.Context, req *carrier.ShipmentRequest) (*ShipmentResponse, error) {
	resp, err := c.postJSON(ctx, "/shipments", req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return nil, readAPIError(resp)
	}

	var body map[string]any
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return &ShipmentResponse{StatusCode: resp.StatusCode, Body: body}, nil
}

func (c *HTTPAPIClient) postJSON(ctx context.Context, path string, payload any) (*http.Response, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %s payload: %w", ErrEncodeRequest, path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("building %s request: %w", path, err)
	}
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "invoicebridge/1.0")

	return c.httpClient.Do(req)
}

// readAPIError turns a non-2xx answer into an APIError. Zipnova reports
// validation problems as {code, message, errors}; gateways in front of it
// sometimes answer {error} or plain text.
func readAPIError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	apiErr := &APIError{StatusCode: resp.StatusCode}

	if json.Unmarshal(raw, apiErr) == nil && (apiErr.Code != "" || apiErr.Message != "") {
		return apiErr
	}

	var gatewayErr struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(raw, &gatewayErr) == nil && gatewayErr.Error != "" {
		apiErr.Message = gatewayErr.Error
		return apiErr
	}

	apiErr.Message = strings.TrimSpace(string(raw))
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}

var _ APIClient = (*HTTPAPIClient)(nil)
