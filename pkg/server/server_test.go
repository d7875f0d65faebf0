package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sudoersllc/opsbox-rego/pkg/models/api"
	"github.com/sudoersllc/opsbox-rego/pkg/models/domain"
	"github.com/sudoersllc/opsbox-rego/pkg/services/policy"
)

func testDependencies(t *testing.T) Dependencies {
	t.Helper()
	reg := policy.NewRegistry()
	require.NoError(t, reg.Register(domain.Policy{
		Name:     "idle-instance",
		Resource: "ec2_instances",
		Predicate: domain.And(
			domain.Leaf("state", domain.OpEq, "running"),
			domain.LeafParam("avg_cpu_utilization", domain.OpLt, "cpu_threshold"),
		),
		Params: []domain.ThresholdParam{
			{Name: "cpu_threshold", Type: domain.ParamPercent, Default: 5},
		},
	}))
	reg.Freeze()

	return Dependencies{
		Engine:   policy.NewEngine(reg),
		Registry: reg,
	}
}

func TestNewWebAPI_ShutdownTimeout(t *testing.T) {
	logger := zerolog.Nop()

	configured := NewWebAPI(logger, Config{
		Addr:            ":8080",
		ShutdownTimeout: 3 * time.Second,
		Dependencies:    testDependencies(t),
	})
	assert.Equal(t, 3*time.Second, configured.shutdownTimeout)

	defaulted := NewWebAPI(logger, Config{
		Addr:         ":8080",
		Dependencies: testDependencies(t),
	})
	assert.Equal(t, defaultShutdownTimeout, defaulted.shutdownTimeout)
}

func TestWebAPI_Endpoints(t *testing.T) {
	logger := zerolog.New(zerolog.NewTestWriter(t))

	config := Config{
		Addr:            ":8080",
		ShutdownTimeout: 10 * time.Second,
		Dependencies:    testDependencies(t),
	}
	router := ConfigureRouter(&logger, config)
	testServer := httptest.NewServer(router)
	defer testServer.Close()

	asOf := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	evaluateBody := api.EvaluateRequest{
		Snapshot: api.Snapshot{
			Resource: "ec2_instances",
			AsOf:     asOf,
			Records: []map[string]any{
				{"instance_id": "i-1", "state": "running", "avg_cpu_utilization": 1.5},
				{"instance_id": "i-2", "state": "running", "avg_cpu_utilization": 75.0},
			},
		},
	}

	t.Run("ListPolicies", func(t *testing.T) {
		resp, err := http.Get(testServer.URL + "/api/v1/policies")
		require.NoError(t, err, "Failed to send request")
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var policies []api.Policy
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&policies))
		require.Len(t, policies, 1)
		assert.Equal(t, "idle-instance", policies[0].Name)
		assert.Equal(t, "ec2_instances", policies[0].Resource)
	})

	t.Run("Evaluate", func(t *testing.T) {
		payload, err := json.Marshal(evaluateBody)
		require.NoError(t, err)

		resp, err := http.Post(
			testServer.URL+"/api/v1/policies/idle-instance/evaluate",
			"application/json",
			bytes.NewReader(payload),
		)
		require.NoError(t, err, "Failed to send request")
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var report api.Report
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
		assert.Equal(t, "idle-instance", report.Policy)
		assert.Equal(t, api.Stats{Total: 2, Matched: 1, MatchedPercentage: 50}, report.Stats)
	})

	t.Run("Evaluate_UnknownPolicy", func(t *testing.T) {
		payload, err := json.Marshal(evaluateBody)
		require.NoError(t, err)

		resp, err := http.Post(
			testServer.URL+"/api/v1/policies/missing/evaluate",
			"application/json",
			bytes.NewReader(payload),
		)
		require.NoError(t, err, "Failed to send request")
		defer resp.Body.Close()

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("Evaluate_BadOverride", func(t *testing.T) {
		body := evaluateBody
		body.Overrides = map[string]any{"cpu_threshold": -1}
		payload, err := json.Marshal(body)
		require.NoError(t, err)

		resp, err := http.Post(
			testServer.URL+"/api/v1/policies/idle-instance/evaluate",
			"application/json",
			bytes.NewReader(payload),
		)
		require.NoError(t, err, "Failed to send request")
		defer resp.Body.Close()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		msg, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.NotEmpty(t, msg)
	})
}
