// Package churnapi is the HTTP client for the remote ChurnInsight backend.
// All transport failures are converted to the error taxonomy in
// internal/utils at this boundary; nothing above it sees a raw error.
package churnapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/hackathon/churninsight-go/internal/config"
	"github.com/hackathon/churninsight-go/internal/models"
	"github.com/hackathon/churninsight-go/internal/utils"
)

// Client is the ChurnInsight backend HTTP client.
type Client struct {
	HTTPClient *http.Client
	baseURL    string
	timeout    time.Duration
	logger     *logrus.Logger
}

// NewClient creates a new backend client instance.
//
// Parameters:
//
//	cfg: Backend API configuration.
//	logger: Logger instance.
//
// Returns:
//
//	*Client: Initialized client.
func NewClient(cfg *config.APIConfig, logger *logrus.Logger) *Client {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	client := &Client{
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		timeout: timeout,
		logger:  logger,
	}
	logger.WithField("base_url", client.baseURL).Debug("ChurnInsight client initialized")
	return client
}

// Predict submits a customer feature vector for churn prediction.
//
// Parameters:
//
//	ctx: Context.
//	req: Prediction request with customer id and features.
//
// Returns:
//
//	*models.PredictResponse: Prediction envelope.
//	error: TransportError or RemoteError on failure.
func (c *Client) Predict(ctx context.Context, req *models.PredictionRequest) (*models.PredictResponse, error) {
	var response models.PredictResponse
	err := c.makeRequest(ctx, http.MethodPost, "/api/predict", req, &response)
	if err != nil {
		return nil, err
	}
	return &response, nil
}

// Health checks the backend and, through it, the ML service. The backend
// answers 503 with a well-formed body when the ML service is down, so the
// body is parsed on any status code.
func (c *Client) Health(ctx context.Context) (*models.HealthStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/health", nil)
	if err != nil {
		return nil, utils.NewTransportError(err)
	}
	c.setHeaders(req, false)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, utils.NewTransportError(err)
	}
	defer c.closeBody(resp)

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, utils.NewTransportError(err)
	}

	var health models.HealthStatus
	if err := json.Unmarshal(respBody, &health); err != nil {
		return nil, utils.NewRemoteError(resp.StatusCode, "respuesta de salud ilegible", "/api/health", nil)
	}
	return &health, nil
}

// History retrieves the most recent prediction records, unscoped.
//
// Parameters:
//
//	ctx: Context.
//	page: 0-based page index.
//	size: Records per page.
//
// Returns:
//
//	*models.HistoryPage: One page of records.
//	error: TransportError or RemoteError on failure.
func (c *Client) History(ctx context.Context, page, size int) (*models.HistoryPage, error) {
	path := "/api/history?" + pageParams(page, size).Encode()
	var response models.HistoryPage
	err := c.makeRequest(ctx, http.MethodGet, path, nil, &response)
	if err != nil {
		return nil, err
	}
	return &response, nil
}

// HistoryByCustomer retrieves prediction records scoped server-side to one
// customer id.
func (c *Client) HistoryByCustomer(ctx context.Context, customerID string, page, size int) (*models.HistoryPage, error) {
	path := fmt.Sprintf("/api/history/%s?%s", url.PathEscape(customerID), pageParams(page, size).Encode())
	var response models.HistoryPage
	err := c.makeRequest(ctx, http.MethodGet, path, nil, &response)
	if err != nil {
		return nil, err
	}
	return &response, nil
}

// HistoryByDateRange retrieves prediction records inside a date range.
// startDate and endDate are "YYYY-MM-DD HH:MM:SS" strings.
func (c *Client) HistoryByDateRange(ctx context.Context, startDate, endDate string, page, size int) (*models.HistoryPage, error) {
	params := pageParams(page, size)
	params.Set("startDate", startDate)
	params.Set("endDate", endDate)

	path := "/api/history/filter?" + params.Encode()
	var response models.HistoryPage
	err := c.makeRequest(ctx, http.MethodGet, path, nil, &response)
	if err != nil {
		return nil, err
	}
	return &response, nil
}

// RiskFactors retrieves behavioral signals for a customer. Callers degrade
// to "no factors identified" when this fails.
func (c *Client) RiskFactors(ctx context.Context, customerID string) (*models.RiskFactors, error) {
	path := fmt.Sprintf("/api/risk-factors/%s", url.PathEscape(customerID))
	var response models.RiskFactors
	err := c.makeRequest(ctx, http.MethodGet, path, nil, &response)
	if err != nil {
		return nil, err
	}
	return &response, nil
}

// KPIs retrieves the aggregate dashboard counters.
func (c *Client) KPIs(ctx context.Context) (*models.KPIs, error) {
	var response models.KPIs
	err := c.makeRequest(ctx, http.MethodGet, "/api/kpis", nil, &response)
	if err != nil {
		return nil, err
	}
	return &response, nil
}

func pageParams(page, size int) url.Values {
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	params.Set("size", strconv.Itoa(size))
	return params
}

// makeRequest is a helper method to make HTTP requests to the backend.
func (c *Client) makeRequest(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	requestURL := c.baseURL + path

	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, requestURL, reqBody)
	if err != nil {
		return utils.NewTransportError(err)
	}
	c.setHeaders(req, body != nil)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		c.logger.WithError(err).WithField("path", path).Warn("Backend request failed")
		return utils.NewTransportError(err)
	}
	defer c.closeBody(resp)

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return utils.NewTransportError(err)
	}

	if resp.StatusCode >= 400 {
		var errorResp models.APIError
		if err := json.Unmarshal(respBody, &errorResp); err == nil && errorResp.Error != "" {
			status := errorResp.Status
			if status == 0 {
				status = resp.StatusCode
			}
			return utils.NewRemoteError(status, errorResp.Error, errorResp.Path, errorResp.Details)
		}
		return utils.NewRemoteError(resp.StatusCode, strings.TrimSpace(string(respBody)), path, nil)
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}

	return nil
}

func (c *Client) setHeaders(req *http.Request, hasBody bool) {
	if hasBody {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "ChurnInsight-Go/1.0")
	req.Header.Set("X-Request-ID", uuid.New().String())
}

func (c *Client) closeBody(resp *http.Response) {
	if err := resp.Body.Close(); err != nil {
		c.logger.WithError(err).Debug("Error closing response body")
	}
}

// BaseURL returns the base URL of the backend.
//
// Returns:
//
//	string: The base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}
