package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NASWA-OpenUI/Playground/internal/events"
	"github.com/NASWA-OpenUI/Playground/internal/handlers"
	"github.com/NASWA-OpenUI/Playground/internal/health"
	"github.com/NASWA-OpenUI/Playground/internal/models"
	"github.com/NASWA-OpenUI/Playground/internal/registry"
	"github.com/NASWA-OpenUI/Playground/internal/repository"
	"github.com/NASWA-OpenUI/Playground/internal/workflow"
)

func setupServer(t *testing.T) *httptest.Server {
	t.Helper()

	claimStore := repository.NewInMemoryClaimStore()
	registryStore := repository.NewInMemoryRegistryStore()

	engine := workflow.NewEngine(claimStore, events.NopPublisher{})
	reg := registry.NewRegistry(registryStore, 2*time.Minute)
	monitor := health.NewMonitor(reg)

	h := handlers.NewHandler(engine, reg, monitor, nil)
	srv := httptest.NewServer(NewRouter(h))
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func submitClaim(t *testing.T, srv *httptest.Server, ref string) models.Claim {
	t.Helper()
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/claims", map[string]string{
		"claimReferenceId": ref,
		"sourceSystem":     "claimant-portal",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created models.Claim
	decodeBody(t, resp, &created)
	return created
}

func TestHealthCheck(t *testing.T) {
	srv := setupServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))

	var body map[string]string
	decodeBody(t, resp, &body)
	assert.Equal(t, "healthy", body["status"])
}

func TestCreateClaim(t *testing.T) {
	srv := setupServer(t)

	created := submitClaim(t, srv, "CLM-300")
	assert.Equal(t, models.StatusReceived, created.StatusCode)
	assert.Equal(t, models.StageInitial, created.WorkflowStage)
	assert.NotEmpty(t, created.ID)

	// Duplicate reference id conflicts.
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/claims", map[string]string{
		"claimReferenceId": "CLM-300",
		"sourceSystem":     "claimant-portal",
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestCreateClaimValidation(t *testing.T) {
	srv := setupServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/claims", map[string]string{
		"sourceSystem": "claimant-portal",
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetClaim(t *testing.T) {
	srv := setupServer(t)
	submitClaim(t, srv, "CLM-301")

	resp, err := http.Get(srv.URL + "/api/claims/CLM-301")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var claim models.Claim
	decodeBody(t, resp, &claim)
	assert.Equal(t, "CLM-301", claim.ClaimReferenceID)

	resp, err = http.Get(srv.URL + "/api/claims/CLM-MISSING")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListClaimsWithFilters(t *testing.T) {
	srv := setupServer(t)
	submitClaim(t, srv, "CLM-310")
	submitClaim(t, srv, "CLM-311")

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/claims/CLM-311/advance", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	var list struct {
		Claims []models.Claim `json:"claims"`
		Count  int            `json:"count"`
	}

	resp, err := http.Get(srv.URL + "/api/claims")
	require.NoError(t, err)
	decodeBody(t, resp, &list)
	assert.Equal(t, 2, list.Count)

	resp, err = http.Get(srv.URL + "/api/claims?status=AWAITING_EMPLOYER")
	require.NoError(t, err)
	decodeBody(t, resp, &list)
	require.Equal(t, 1, list.Count)
	assert.Equal(t, "CLM-311", list.Claims[0].ClaimReferenceID)

	resp, err = http.Get(srv.URL + "/api/claims/status/RECEIVED")
	require.NoError(t, err)
	decodeBody(t, resp, &list)
	require.Equal(t, 1, list.Count)
	assert.Equal(t, "CLM-310", list.Claims[0].ClaimReferenceID)

	resp, err = http.Get(srv.URL + "/api/claims/workflow/EMPLOYER_VERIFICATION")
	require.NoError(t, err)
	decodeBody(t, resp, &list)
	assert.Equal(t, 1, list.Count)
}

func TestAdvanceClaimWorkflow(t *testing.T) {
	srv := setupServer(t)
	submitClaim(t, srv, "CLM-320")

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/claims/CLM-320/advance", map[string]string{"updatedBy": "processor"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var claim models.Claim
	decodeBody(t, resp, &claim)
	assert.Equal(t, models.StatusAwaitingEmployer, claim.StatusCode)
	assert.Equal(t, models.StageEmployerVerification, claim.WorkflowStage)
	assert.Equal(t, "processor", claim.UpdatedBy)
}

func TestAdvanceClaimWorkflowIllegalTransition(t *testing.T) {
	srv := setupServer(t)
	submitClaim(t, srv, "CLM-321")

	for i := 0; i < 3; i++ {
		resp := doJSON(t, http.MethodPost, srv.URL+"/api/claims/CLM-321/advance", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()
	}

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/claims/CLM-321/advance", nil)
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	var body map[string]string
	decodeBody(t, resp, &body)
	assert.Contains(t, body["error"], "cannot advance workflow")
}

func TestUpdateClaimStatus(t *testing.T) {
	srv := setupServer(t)
	submitClaim(t, srv, "CLM-330")

	resp := doJSON(t, http.MethodPut, srv.URL+"/api/claims/CLM-330/status", map[string]string{
		"statusCode":        "APPROVED",
		"statusDisplayName": "Approved",
		"notes":             "benefit year established",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var claim models.Claim
	decodeBody(t, resp, &claim)
	assert.Equal(t, models.StatusApproved, claim.StatusCode)
	assert.Equal(t, "api", claim.UpdatedBy)

	// Unknown statuses are rejected.
	resp = doJSON(t, http.MethodPut, srv.URL+"/api/claims/CLM-330/status", map[string]string{
		"statusCode": "BOGUS",
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRecordClaimErrorEscalatesOverHTTP(t *testing.T) {
	srv := setupServer(t)
	submitClaim(t, srv, "CLM-340")

	var claim models.Claim
	for i := 0; i < 3; i++ {
		resp := doJSON(t, http.MethodPost, srv.URL+"/api/claims/CLM-340/error", map[string]string{
			"errorMessage": fmt.Sprintf("tax service timeout %d", i+1),
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		decodeBody(t, resp, &claim)
	}

	assert.Equal(t, 3, claim.ErrorCount)
	assert.Equal(t, models.StatusError, claim.StatusCode)
	assert.Equal(t, "Error - Requires Manual Review", claim.StatusDisplayName)
}

func TestClaimNotes(t *testing.T) {
	srv := setupServer(t)
	submitClaim(t, srv, "CLM-350")

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/claims/CLM-350/note", map[string]string{
		"note":      "Claimant confirmed mailing address",
		"updatedBy": "call-center",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp, err := http.Get(srv.URL + "/api/claims/CLM-350/notes")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		ClaimReferenceID string   `json:"claimReferenceId"`
		Notes            []string `json:"notes"`
	}
	decodeBody(t, resp, &body)
	assert.Equal(t, "CLM-350", body.ClaimReferenceID)
	require.Len(t, body.Notes, 2)
	assert.Equal(t, "Claim received from claimant-portal", body.Notes[0])
	assert.Contains(t, body.Notes[1], "Claimant confirmed mailing address")
}

func TestClaimStatistics(t *testing.T) {
	srv := setupServer(t)
	submitClaim(t, srv, "CLM-360")
	submitClaim(t, srv, "CLM-361")

	resp, err := http.Get(srv.URL + "/api/claims/stats")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stats struct {
		StatusCounts map[string]int `json:"statusCounts"`
		SourceCounts map[string]int `json:"sourceCounts"`
		Total        int            `json:"total"`
		Timestamp    time.Time      `json:"timestamp"`
	}
	decodeBody(t, resp, &stats)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 2, stats.StatusCounts["RECEIVED"])
	assert.Equal(t, 2, stats.SourceCounts["claimant-portal"])
	assert.False(t, stats.Timestamp.IsZero())
}

func TestClaimsForProcessing(t *testing.T) {
	srv := setupServer(t)
	submitClaim(t, srv, "CLM-370")
	submitClaim(t, srv, "CLM-371")

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/claims/processing", map[string]any{
		"statusCodes": []string{"RECEIVED"},
		"limit":       1,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var list struct {
		Count int `json:"count"`
	}
	decodeBody(t, resp, &list)
	assert.Equal(t, 1, list.Count)

	// statusCodes is mandatory.
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/claims/processing", map[string]any{})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestReadyQueues(t *testing.T) {
	srv := setupServer(t)
	submitClaim(t, srv, "CLM-380")

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/claims/CLM-380/advance", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	var list struct {
		Count int `json:"count"`
	}

	resp, err := http.Get(srv.URL + "/api/claims/ready/employer-verification")
	require.NoError(t, err)
	decodeBody(t, resp, &list)
	assert.Equal(t, 1, list.Count)

	resp, err = http.Get(srv.URL + "/api/claims/ready/tax-calculation")
	require.NoError(t, err)
	decodeBody(t, resp, &list)
	assert.Equal(t, 0, list.Count)
}

func TestServiceRegistrationLifecycle(t *testing.T) {
	srv := setupServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/services/register", map[string]string{
		"serviceId":  "employer-svc",
		"name":       "Employer Service",
		"technology": "node",
		"protocol":   "GraphQL",
		"endpoint":   "http://employer:4000",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var reg models.ServiceRegistration
	decodeBody(t, resp, &reg)
	assert.Equal(t, "UP", reg.Status)
	assert.Equal(t, "Service registered", reg.LastMessage)

	// Heartbeat via the path variant.
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/services/employer-svc/heartbeat", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp, &reg)
	assert.Equal(t, "Heartbeat received", reg.LastMessage)

	// Heartbeat via the body variant.
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/services/heartbeat", map[string]string{"serviceId": "employer-svc"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	var list struct {
		Services []models.ServiceRegistration `json:"services"`
		Count    int                          `json:"count"`
	}
	resp, err := http.Get(srv.URL + "/api/services")
	require.NoError(t, err)
	decodeBody(t, resp, &list)
	require.Equal(t, 1, list.Count)
	assert.Equal(t, "employer-svc", list.Services[0].ServiceID)

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/api/services/employer-svc", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var deleted map[string]string
	decodeBody(t, resp, &deleted)
	assert.Equal(t, "unregistered", deleted["status"])

	resp, err = http.Get(srv.URL + "/api/services/employer-svc")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHeartbeatUnknownService(t *testing.T) {
	srv := setupServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/services/ghost/heartbeat", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHealthStatusEndpoint(t *testing.T) {
	srv := setupServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/services/register", map[string]string{
		"serviceId":  "tax-svc",
		"name":       "Tax Service",
		"technology": "dotnet",
		"protocol":   "SOAP",
		"endpoint":   "http://tax:8081",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp, err := http.Get(srv.URL + "/api/health/status")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var snapshot health.Snapshot
	decodeBody(t, resp, &snapshot)
	assert.Equal(t, "RUNNING", snapshot.GatewayStatus)
	assert.Equal(t, 1, snapshot.ActiveConnections)
	require.Contains(t, snapshot.Services, "tax-svc")
	assert.Equal(t, models.HealthUp, snapshot.Services["tax-svc"].Health)
}

func TestSweeperStatsWithoutSweeper(t *testing.T) {
	srv := setupServer(t)

	resp, err := http.Get(srv.URL + "/api/health/sweeper")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMethodNotAllowed(t *testing.T) {
	srv := setupServer(t)

	resp := doJSON(t, http.MethodPut, srv.URL+"/api/claims", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := setupServer(t)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
