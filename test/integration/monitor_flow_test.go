// FILE: test/integration/monitor_flow_test.go
// PURPOSE: Full-container REST flow against an offline simulation link.
// NOTE: Self-contained. No simulation, NATS, or Redis required; the point is
// that the monitor stays useful (and honest) when everything else is down.
package integration

import (
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"emergence-monitor-be/internal/bootstrap"
	"emergence-monitor-be/internal/config"
	"emergence-monitor-be/internal/dto"
	"emergence-monitor-be/internal/model"
	"emergence-monitor-be/internal/pkg/serverutils"
	"emergence-monitor-be/internal/server"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
)

func TestMonitorFlowOffline(t *testing.T) {
	// Setup
	// Load .env from root (2 levels up) because tests run in package dir
	if err := godotenv.Load("../../.env"); err != nil {
		t.Logf("Warning: Could not load ../../.env: %v", err)
	}

	// Force the hermetic configuration: no brokers, no auth, logs in tmp.
	t.Setenv("NATS_URL", "")
	t.Setenv("REDIS_URL", "")
	t.Setenv("DASHBOARD_JWT_SECRET", "")
	t.Setenv("LOG_FILE_PATH", filepath.Join(t.TempDir(), "monitor-test.log"))

	cfg := config.Load()
	container := bootstrap.NewContainer(cfg)
	srv := server.New(cfg, container)
	app := srv.GetApp()

	t.Run("Status reports disconnected link", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/monitor/v1/status", nil)
		resp, _ := app.Test(req, -1)

		assert.Equal(t, 200, resp.StatusCode)

		var result serverutils.Response[dto.StatusResponse]
		json.NewDecoder(resp.Body).Decode(&result)

		assert.True(t, result.Success)
		assert.False(t, result.Data.Channel.Connected)
		assert.Equal(t, "interactive", result.Data.Mode)
		assert.True(t, result.Data.InputEnabled)
		assert.Equal(t, "none", result.Data.Phase)
		assert.Equal(t, 0, result.Data.ActiveAlerts)
		assert.Equal(t, 0, result.Data.Dashboards)
	})

	t.Run("Metrics empty but well-formed", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/monitor/v1/metrics", nil)
		resp, _ := app.Test(req, -1)

		assert.Equal(t, 200, resp.StatusCode)

		var result serverutils.Response[map[string]interface{}]
		json.NewDecoder(resp.Body).Decode(&result)

		assert.True(t, result.Success)
		assert.Equal(t, "none", result.Data["phase"])
		derived, ok := result.Data["derived"].([]interface{})
		assert.True(t, ok)
		assert.Len(t, derived, 3)
	})

	t.Run("Start learning fails with 503 while link down", func(t *testing.T) {
		body, _ := json.Marshal(dto.StartLearningRequest{Steps: 10, DelayMs: 100})

		req := httptest.NewRequest("POST", "/api/monitor/v1/learning/start", strings.NewReader(string(body)))
		req.Header.Set("Content-Type", "application/json")

		resp, _ := app.Test(req, -1)
		assert.Equal(t, 503, resp.StatusCode)
	})

	t.Run("Failed start releases the session slot", func(t *testing.T) {
		// A second attempt must hit the same 503, not a 409 from a
		// phantom pending session left by the first failure.
		body, _ := json.Marshal(dto.StartLearningRequest{Steps: 10, DelayMs: 100})

		req := httptest.NewRequest("POST", "/api/monitor/v1/learning/start", strings.NewReader(string(body)))
		req.Header.Set("Content-Type", "application/json")

		resp, _ := app.Test(req, -1)
		assert.Equal(t, 503, resp.StatusCode)
	})

	t.Run("Prompt fails with 503 while link down", func(t *testing.T) {
		body, _ := json.Marshal(dto.PromptRequest{Text: "anyone home?"})

		req := httptest.NewRequest("POST", "/api/monitor/v1/prompt", strings.NewReader(string(body)))
		req.Header.Set("Content-Type", "application/json")

		resp, _ := app.Test(req, -1)
		assert.Equal(t, 503, resp.StatusCode)
	})

	t.Run("Stop without session yields 409", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/monitor/v1/learning/stop", nil)
		req.Header.Set("Content-Type", "application/json")

		resp, _ := app.Test(req, -1)
		assert.Equal(t, 409, resp.StatusCode)
	})

	t.Run("Invalid start request yields 400", func(t *testing.T) {
		// steps is required and must be positive
		req := httptest.NewRequest("POST", "/api/monitor/v1/learning/start", strings.NewReader(`{"steps":0}`))
		req.Header.Set("Content-Type", "application/json")

		resp, _ := app.Test(req, -1)
		assert.Equal(t, 400, resp.StatusCode)
	})

	t.Run("Alerts expose the threshold table", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/monitor/v1/alerts", nil)
		resp, _ := app.Test(req, -1)

		assert.Equal(t, 200, resp.StatusCode)

		var result serverutils.Response[dto.AlertsResponse]
		json.NewDecoder(resp.Body).Decode(&result)

		assert.True(t, result.Success)
		assert.Empty(t, result.Data.Active)
		assert.Contains(t, result.Data.Thresholds, "negentropy")
		assert.Contains(t, result.Data.Thresholds, "feedback")
		assert.Contains(t, result.Data.Thresholds, "resilience")
	})

	t.Run("Interactions start empty", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/monitor/v1/interactions", nil)
		resp, _ := app.Test(req, -1)

		assert.Equal(t, 200, resp.StatusCode)

		var result serverutils.Response[[]model.Interaction]
		json.NewDecoder(resp.Body).Decode(&result)

		assert.True(t, result.Success)
		assert.Empty(t, result.Data)
	})

	t.Run("Graph endpoint reports no frame yet", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/monitor/v1/graph", nil)
		resp, _ := app.Test(req, -1)

		assert.Equal(t, 200, resp.StatusCode)

		var result serverutils.Response[dto.GraphResponse]
		json.NewDecoder(resp.Body).Decode(&result)

		assert.True(t, result.Success)
		assert.Nil(t, result.Data.Frame)
	})

	t.Run("Dashboard socket requires an upgrade", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/ws", nil)
		resp, _ := app.Test(req, -1)

		assert.Equal(t, 426, resp.StatusCode)
	})
}
