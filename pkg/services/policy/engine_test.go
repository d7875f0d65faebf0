package policy

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/sudoersllc/opsbox-rego/pkg/models/domain"
)

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	reg := NewRegistry()

	policies := []domain.Policy{
		{
			Name:     "idle-instance",
			Resource: "ec2_instances",
			Predicate: domain.And(
				domain.Leaf("state", domain.OpEq, "running"),
				domain.LeafParam("avg_cpu_utilization", domain.OpLt, "cpu_threshold"),
			),
			Params: []domain.ThresholdParam{
				{Name: "cpu_threshold", Type: domain.ParamPercent, Default: 5},
			},
		},
		{
			Name:      "stray-volume",
			Resource:  "ec2_volumes",
			Predicate: domain.Leaf("state", domain.OpNeq, "in-use"),
		},
		{
			Name:     "no-healthy-targets",
			Resource: "elbs",
			Predicate: domain.ForAll("InstanceHealth",
				domain.Leaf("State", domain.OpEq, "unhealthy"),
			),
		},
	}
	for _, p := range policies {
		assert.NoError(t, reg.Register(p))
	}
	reg.Freeze()
	return reg
}

func instanceSnapshot() domain.Snapshot {
	records := []domain.Record{
		{"instance_id": "i-01", "state": "running", "avg_cpu_utilization": 2.0},
		{"instance_id": "i-02", "state": "running", "avg_cpu_utilization": 55.0},
		{"instance_id": "i-03", "state": "stopped", "avg_cpu_utilization": 0.0},
		{"instance_id": "i-04", "state": "running", "avg_cpu_utilization": 4.5},
		{"instance_id": "i-05", "state": "running", "avg_cpu_utilization": 80.0},
		{"instance_id": "i-06", "state": "running", "avg_cpu_utilization": 1.0},
		{"instance_id": "i-07", "state": "stopped", "avg_cpu_utilization": 0.0},
		{"instance_id": "i-08", "state": "running", "avg_cpu_utilization": 60.0},
		{"instance_id": "i-09", "state": "running", "avg_cpu_utilization": 30.0},
		{"instance_id": "i-10", "state": "running", "avg_cpu_utilization": 12.0},
	}
	return domain.Snapshot{
		Resource: "ec2_instances",
		AsOf:     time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		Records:  records,
	}
}

func TestEngineEvaluate(t *testing.T) {
	engine := NewEngine(testRegistry(t))

	t.Run("idle instances matched in snapshot order", func(t *testing.T) {
		report, err := engine.Evaluate(instanceSnapshot(), "idle-instance", nil)
		assert.NoError(t, err)

		assert.Equal(t, "idle-instance", report.Policy)
		assert.Equal(t, domain.Stats{Total: 10, Matched: 3, MatchedPercentage: 30}, report.Stats)
		assert.Equal(t, map[string]any{"cpu_threshold": 5.0}, report.Thresholds)

		ids := make([]string, 0, len(report.Matched))
		for _, rec := range report.Matched {
			ids = append(ids, rec["instance_id"].(string))
		}
		assert.Equal(t, []string{"i-01", "i-04", "i-06"}, ids)
	})

	t.Run("empty snapshot yields zero stats", func(t *testing.T) {
		snapshot := domain.Snapshot{Resource: "ec2_instances", AsOf: time.Now().UTC()}
		report, err := engine.Evaluate(snapshot, "idle-instance", nil)
		assert.NoError(t, err)
		assert.Equal(t, domain.Stats{Total: 0, Matched: 0, MatchedPercentage: 0}, report.Stats)
		assert.Empty(t, report.Matched)
		assert.NotNil(t, report.Matched)
	})

	t.Run("no matches yields empty matched and zero percent", func(t *testing.T) {
		records := make([]domain.Record, 5)
		for i := range records {
			records[i] = domain.Record{"volume_id": "vol", "state": "in-use"}
		}
		snapshot := domain.Snapshot{Resource: "ec2_volumes", AsOf: time.Now().UTC(), Records: records}

		report, err := engine.Evaluate(snapshot, "stray-volume", nil)
		assert.NoError(t, err)
		assert.Equal(t, domain.Stats{Total: 5, Matched: 0, MatchedPercentage: 0}, report.Stats)
		assert.Empty(t, report.Matched)
	})

	t.Run("out-of-range override fails with configuration error", func(t *testing.T) {
		_, err := engine.Evaluate(instanceSnapshot(), "idle-instance", map[string]any{"cpu_threshold": 150})
		var confErr *ConfigurationError
		assert.ErrorAs(t, err, &confErr)
	})

	t.Run("valid override takes effect", func(t *testing.T) {
		report, err := engine.Evaluate(instanceSnapshot(), "idle-instance", map[string]any{"cpu_threshold": 50})
		assert.NoError(t, err)
		assert.Equal(t, 5, report.Stats.Matched)
		assert.Equal(t, map[string]any{"cpu_threshold": 50.0}, report.Thresholds)
	})

	t.Run("empty health list matches for-all vacuously", func(t *testing.T) {
		snapshot := domain.Snapshot{
			Resource: "elbs",
			AsOf:     time.Now().UTC(),
			Records: []domain.Record{
				{"name": "elb-empty", "InstanceHealth": []any{}},
				{"name": "elb-healthy", "InstanceHealth": []any{map[string]any{"State": "healthy"}}},
				{"name": "elb-bad", "InstanceHealth": []any{map[string]any{"State": "unhealthy"}}},
			},
		}
		report, err := engine.Evaluate(snapshot, "no-healthy-targets", nil)
		assert.NoError(t, err)

		names := make([]string, 0, len(report.Matched))
		for _, rec := range report.Matched {
			names = append(names, rec["name"].(string))
		}
		assert.Equal(t, []string{"elb-empty", "elb-bad"}, names)
	})

	t.Run("unknown policy is not found", func(t *testing.T) {
		_, err := engine.Evaluate(instanceSnapshot(), "does-not-exist", nil)
		var nfErr *NotFoundError
		assert.ErrorAs(t, err, &nfErr)
	})

	t.Run("resource kind mismatch fails", func(t *testing.T) {
		_, err := engine.Evaluate(instanceSnapshot(), "stray-volume", nil)
		var confErr *ConfigurationError
		assert.ErrorAs(t, err, &confErr)
	})
}

func TestEngineDeterminism(t *testing.T) {
	engine := NewEngine(testRegistry(t))
	snapshot := instanceSnapshot()

	first, err := engine.Evaluate(snapshot, "idle-instance", map[string]any{"cpu_threshold": 10})
	assert.NoError(t, err)

	firstJSON, err := json.Marshal(first)
	assert.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := engine.Evaluate(snapshot, "idle-instance", map[string]any{"cpu_threshold": 10})
		assert.NoError(t, err)

		againJSON, err := json.Marshal(again)
		assert.NoError(t, err)
		assert.Equal(t, string(firstJSON), string(againJSON))
	}
}

func TestEngineRoundingMode(t *testing.T) {
	reg := NewRegistry()
	assert.NoError(t, reg.Register(domain.Policy{
		Name:      "stray-volume",
		Resource:  "ec2_volumes",
		Predicate: domain.Leaf("state", domain.OpNeq, "in-use"),
	}))
	reg.Freeze()

	snapshot := domain.Snapshot{
		Resource: "ec2_volumes",
		AsOf:     time.Now().UTC(),
		Records: []domain.Record{
			{"state": "available"},
			{"state": "available"},
			{"state": "in-use"},
		},
	}

	truncEngine := NewEngine(reg)
	report, err := truncEngine.Evaluate(snapshot, "stray-volume", nil)
	assert.NoError(t, err)
	assert.Equal(t, 66, report.Stats.MatchedPercentage)

	halfUpEngine := NewEngine(reg)
	halfUpEngine.SetRounding(RoundHalfUp)
	report, err = halfUpEngine.Evaluate(snapshot, "stray-volume", nil)
	assert.NoError(t, err)
	assert.Equal(t, 67, report.Stats.MatchedPercentage)
}
