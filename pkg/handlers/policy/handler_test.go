package policy

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"github.com/sudoersllc/opsbox-rego/pkg/models/api"
	"github.com/sudoersllc/opsbox-rego/pkg/models/domain"
	"github.com/sudoersllc/opsbox-rego/pkg/services/policy"
)

func setupHandler(t *testing.T) *Handler {
	t.Helper()
	reg := policy.NewRegistry()
	assert.NoError(t, reg.Register(domain.Policy{
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
	assert.NoError(t, reg.Register(domain.Policy{
		Name:      "stray-volume",
		Resource:  "ec2_volumes",
		Predicate: domain.Leaf("state", domain.OpNeq, "in-use"),
	}))
	reg.Freeze()
	return NewHandler(policy.NewEngine(reg), reg)
}

func evaluateRequest(t *testing.T, handler *Handler, policyName string, body api.EvaluateRequest) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	assert.NoError(t, err)

	req := httptest.NewRequest("POST", "/policies/"+policyName+"/evaluate", bytes.NewReader(payload))
	rec := httptest.NewRecorder()

	ctx := chi.NewRouteContext()
	ctx.URLParams.Add("policy", policyName)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, ctx))

	handler.Evaluate(rec, req)
	return rec
}

func TestListPolicies(t *testing.T) {
	handler := setupHandler(t)

	req := httptest.NewRequest("GET", "/policies", nil)
	rec := httptest.NewRecorder()
	handler.ListPolicies(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var response []api.Policy
	assert.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
	assert.Len(t, response, 2)
	assert.Equal(t, "idle-instance", response[0].Name)
	assert.Equal(t, "stray-volume", response[1].Name)
	assert.Equal(t, "percent", response[0].Params[0].Type)
}

func TestEvaluate(t *testing.T) {
	handler := setupHandler(t)
	asOf := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)

	snapshot := api.Snapshot{
		Resource: "ec2_instances",
		AsOf:     asOf,
		Records: []map[string]any{
			{"instance_id": "i-1", "state": "running", "avg_cpu_utilization": 2.0},
			{"instance_id": "i-2", "state": "running", "avg_cpu_utilization": 80.0},
			{"instance_id": "i-3", "state": "stopped", "avg_cpu_utilization": 0.0},
		},
	}

	t.Run("successful evaluation", func(t *testing.T) {
		rec := evaluateRequest(t, handler, "idle-instance", api.EvaluateRequest{Snapshot: snapshot})
		assert.Equal(t, http.StatusOK, rec.Code)

		var report api.Report
		assert.NoError(t, json.NewDecoder(rec.Body).Decode(&report))
		assert.Equal(t, "idle-instance", report.Policy)
		assert.Equal(t, api.Stats{Total: 3, Matched: 1, MatchedPercentage: 33}, report.Stats)
		assert.Equal(t, "i-1", report.Matched[0]["instance_id"])
	})

	t.Run("override applied", func(t *testing.T) {
		rec := evaluateRequest(t, handler, "idle-instance", api.EvaluateRequest{
			Snapshot:  snapshot,
			Overrides: map[string]any{"cpu_threshold": 90},
		})
		assert.Equal(t, http.StatusOK, rec.Code)

		var report api.Report
		assert.NoError(t, json.NewDecoder(rec.Body).Decode(&report))
		assert.Equal(t, 2, report.Stats.Matched)
	})

	t.Run("unknown policy returns 404", func(t *testing.T) {
		rec := evaluateRequest(t, handler, "does-not-exist", api.EvaluateRequest{Snapshot: snapshot})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("resource mismatch returns 400", func(t *testing.T) {
		rec := evaluateRequest(t, handler, "stray-volume", api.EvaluateRequest{Snapshot: snapshot})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("invalid override returns 400", func(t *testing.T) {
		rec := evaluateRequest(t, handler, "idle-instance", api.EvaluateRequest{
			Snapshot:  snapshot,
			Overrides: map[string]any{"cpu_threshold": 150},
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed body returns 400", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/policies/idle-instance/evaluate", bytes.NewReader([]byte("{not json")))
		rec := httptest.NewRecorder()

		ctx := chi.NewRouteContext()
		ctx.URLParams.Add("policy", "idle-instance")
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, ctx))

		handler.Evaluate(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("empty snapshot yields zero stats", func(t *testing.T) {
		rec := evaluateRequest(t, handler, "idle-instance", api.EvaluateRequest{
			Snapshot: api.Snapshot{Resource: "ec2_instances", AsOf: asOf},
		})
		assert.Equal(t, http.StatusOK, rec.Code)

		var report api.Report
		assert.NoError(t, json.NewDecoder(rec.Body).Decode(&report))
		assert.Equal(t, api.Stats{Total: 0, Matched: 0, MatchedPercentage: 0}, report.Stats)
		assert.NotNil(t, report.Matched)
		assert.Empty(t, report.Matched)
	})
}
