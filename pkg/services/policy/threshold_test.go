package policy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/sudoersllc/opsbox-rego/pkg/models/domain"
)

func percentPolicy() domain.Policy {
	return domain.Policy{
		Name:      "idle-instance",
		Resource:  "ec2_instances",
		Predicate: domain.LeafParam("avg_cpu_utilization", domain.OpLt, "cpu_threshold"),
		Params: []domain.ThresholdParam{
			{Name: "cpu_threshold", Type: domain.ParamPercent, Default: 5},
		},
	}
}

func TestResolve(t *testing.T) {
	t.Run("default applies without override", func(t *testing.T) {
		th, err := Resolve(percentPolicy(), nil)
		assert.NoError(t, err)
		assert.Equal(t, 5.0, th["cpu_threshold"].Number)
	})

	t.Run("valid override takes precedence", func(t *testing.T) {
		th, err := Resolve(percentPolicy(), map[string]any{"cpu_threshold": 10})
		assert.NoError(t, err)
		assert.Equal(t, 10.0, th["cpu_threshold"].Number)
	})

	t.Run("percentage over 100 is rejected, not clamped", func(t *testing.T) {
		_, err := Resolve(percentPolicy(), map[string]any{"cpu_threshold": 150})
		var confErr *ConfigurationError
		assert.ErrorAs(t, err, &confErr)
	})

	t.Run("negative percentage is rejected", func(t *testing.T) {
		_, err := Resolve(percentPolicy(), map[string]any{"cpu_threshold": -1})
		var confErr *ConfigurationError
		assert.ErrorAs(t, err, &confErr)
	})

	t.Run("wrong type is rejected", func(t *testing.T) {
		_, err := Resolve(percentPolicy(), map[string]any{"cpu_threshold": "five"})
		var confErr *ConfigurationError
		assert.ErrorAs(t, err, &confErr)
	})

	t.Run("undeclared parameter is rejected", func(t *testing.T) {
		_, err := Resolve(percentPolicy(), map[string]any{"memory_threshold": 10})
		var confErr *ConfigurationError
		assert.ErrorAs(t, err, &confErr)
	})
}

func TestResolveDuration(t *testing.T) {
	p := domain.Policy{
		Name:      "old-snapshots",
		Resource:  "ec2_snapshots",
		Predicate: domain.LeafParam("start_time", domain.OpBefore, "max_age"),
		Params: []domain.ThresholdParam{
			{Name: "max_age", Type: domain.ParamDuration, Default: 90 * 24 * time.Hour},
		},
	}

	t.Run("time.Duration default", func(t *testing.T) {
		th, err := Resolve(p, nil)
		assert.NoError(t, err)
		assert.Equal(t, 90*24*time.Hour, th["max_age"].Duration())
	})

	t.Run("numeric override is seconds", func(t *testing.T) {
		th, err := Resolve(p, map[string]any{"max_age": 3600})
		assert.NoError(t, err)
		assert.Equal(t, time.Hour, th["max_age"].Duration())
	})

	t.Run("negative duration is rejected", func(t *testing.T) {
		_, err := Resolve(p, map[string]any{"max_age": -60})
		var confErr *ConfigurationError
		assert.ErrorAs(t, err, &confErr)
	})
}

func TestResolveTimestamp(t *testing.T) {
	p := domain.Policy{
		Name:      "cutoff-check",
		Resource:  "things",
		Predicate: domain.LeafParam("created_at", domain.OpBefore, "cutoff"),
		Params: []domain.ThresholdParam{
			{Name: "cutoff", Type: domain.ParamTimestamp, Default: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)},
		},
	}

	t.Run("RFC3339 override parses", func(t *testing.T) {
		th, err := Resolve(p, map[string]any{"cutoff": "2026-03-01T00:00:00Z"})
		assert.NoError(t, err)
		assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), th["cutoff"].Time)
	})

	t.Run("non-timestamp override is rejected", func(t *testing.T) {
		_, err := Resolve(p, map[string]any{"cutoff": 42})
		var confErr *ConfigurationError
		assert.ErrorAs(t, err, &confErr)
	})

	t.Run("report value is RFC3339", func(t *testing.T) {
		th, err := Resolve(p, nil)
		assert.NoError(t, err)
		assert.Equal(t, "2026-01-01T00:00:00Z", th["cutoff"].Value())
	})
}
