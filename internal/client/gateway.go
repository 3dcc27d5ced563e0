// Package client is a typed HTTP client for the claims gateway API,
// used by the claimsctl CLI and the seeder tooling.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/NASWA-OpenUI/Playground/internal/health"
	"github.com/NASWA-OpenUI/Playground/internal/models"
)

// GatewayClient talks to a running claims gateway.
type GatewayClient struct {
	baseURL string
	client  *http.Client
}

// ClaimsResponse is the list envelope returned by claim queries.
type ClaimsResponse struct {
	Claims []models.Claim `json:"claims"`
	Count  int            `json:"count"`
}

// ServicesResponse is the list envelope returned by registry queries.
type ServicesResponse struct {
	Services []models.ServiceRegistration `json:"services"`
	Count    int                          `json:"count"`
}

// StatsResponse is the body of GET /api/claims/stats.
type StatsResponse struct {
	StatusCounts map[string]int `json:"statusCounts"`
	SourceCounts map[string]int `json:"sourceCounts"`
	Total        int            `json:"total"`
	Timestamp    time.Time      `json:"timestamp"`
}

// NewGatewayClient creates a client for the gateway at baseURL.
func NewGatewayClient(baseURL string) *GatewayClient {
	return &GatewayClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *GatewayClient) do(method, path string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		data, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("gateway returned %d: %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("gateway returned %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// CreateClaim submits a new claim.
func (c *GatewayClient) CreateClaim(claim *models.Claim) (*models.Claim, error) {
	var created models.Claim
	if err := c.do(http.MethodPost, "/api/claims", claim, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// GetClaim fetches a claim by reference id.
func (c *GatewayClient) GetClaim(ref string) (*models.Claim, error) {
	var claim models.Claim
	if err := c.do(http.MethodGet, "/api/claims/"+ref, nil, &claim); err != nil {
		return nil, err
	}
	return &claim, nil
}

// ListClaims fetches all claims, optionally filtered by a single query
// parameter such as status or stage.
func (c *GatewayClient) ListClaims(filterKey, filterValue string) (*ClaimsResponse, error) {
	path := "/api/claims"
	if filterKey != "" {
		path += "?" + filterKey + "=" + filterValue
	}
	var resp ClaimsResponse
	if err := c.do(http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateClaimStatus sets a claim's status.
func (c *GatewayClient) UpdateClaimStatus(ref, statusCode, displayName, updatedBy, notes string) (*models.Claim, error) {
	body := map[string]string{
		"statusCode":        statusCode,
		"statusDisplayName": displayName,
		"updatedBy":         updatedBy,
		"notes":             notes,
	}
	var claim models.Claim
	if err := c.do(http.MethodPut, "/api/claims/"+ref+"/status", body, &claim); err != nil {
		return nil, err
	}
	return &claim, nil
}

// AdvanceClaim advances a claim's workflow one step.
func (c *GatewayClient) AdvanceClaim(ref, updatedBy string) (*models.Claim, error) {
	body := map[string]string{"updatedBy": updatedBy}
	var claim models.Claim
	if err := c.do(http.MethodPost, "/api/claims/"+ref+"/advance", body, &claim); err != nil {
		return nil, err
	}
	return &claim, nil
}

// RecordClaimError records a processing error against a claim.
func (c *GatewayClient) RecordClaimError(ref, message, updatedBy string) (*models.Claim, error) {
	body := map[string]string{"errorMessage": message, "updatedBy": updatedBy}
	var claim models.Claim
	if err := c.do(http.MethodPost, "/api/claims/"+ref+"/error", body, &claim); err != nil {
		return nil, err
	}
	return &claim, nil
}

// AddClaimNote appends a processing note to a claim.
func (c *GatewayClient) AddClaimNote(ref, note, updatedBy string) (*models.Claim, error) {
	body := map[string]string{"note": note, "updatedBy": updatedBy}
	var claim models.Claim
	if err := c.do(http.MethodPost, "/api/claims/"+ref+"/note", body, &claim); err != nil {
		return nil, err
	}
	return &claim, nil
}

// GetStats fetches claim statistics.
func (c *GatewayClient) GetStats() (*StatsResponse, error) {
	var stats StatsResponse
	if err := c.do(http.MethodGet, "/api/claims/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// RegisterService registers a service with the gateway.
func (c *GatewayClient) RegisterService(serviceID, name, technology, protocol, endpoint string) (*models.ServiceRegistration, error) {
	body := map[string]string{
		"serviceId":  serviceID,
		"name":       name,
		"technology": technology,
		"protocol":   protocol,
		"endpoint":   endpoint,
	}
	var reg models.ServiceRegistration
	if err := c.do(http.MethodPost, "/api/services/register", body, &reg); err != nil {
		return nil, err
	}
	return &reg, nil
}

// Heartbeat refreshes a service's heartbeat.
func (c *GatewayClient) Heartbeat(serviceID string) (*models.ServiceRegistration, error) {
	var reg models.ServiceRegistration
	if err := c.do(http.MethodPost, "/api/services/"+serviceID+"/heartbeat", nil, &reg); err != nil {
		return nil, err
	}
	return &reg, nil
}

// ListServices fetches all service registrations.
func (c *GatewayClient) ListServices() (*ServicesResponse, error) {
	var resp ServicesResponse
	if err := c.do(http.MethodGet, "/api/services", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UnregisterService removes a service registration.
func (c *GatewayClient) UnregisterService(serviceID string) error {
	return c.do(http.MethodDelete, "/api/services/"+serviceID, nil, nil)
}

// GetHealthStatus fetches the aggregated health snapshot.
func (c *GatewayClient) GetHealthStatus() (*health.Snapshot, error) {
	var snapshot health.Snapshot
	if err := c.do(http.MethodGet, "/api/health/status", nil, &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}
