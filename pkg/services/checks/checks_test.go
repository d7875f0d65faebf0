package checks

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/sudoersllc/opsbox-rego/pkg/models/domain"
	"github.com/sudoersllc/opsbox-rego/pkg/services/policy"
)

func catalogEngine(t *testing.T) *policy.Engine {
	t.Helper()
	reg := policy.NewRegistry()
	assert.NoError(t, RegisterAll(reg))
	reg.Freeze()
	return policy.NewEngine(reg)
}

func TestRegisterAll(t *testing.T) {
	reg := policy.NewRegistry()
	assert.NoError(t, RegisterAll(reg))
	reg.Freeze()

	for _, name := range []string{
		"idle-instance", "stray-volume", "no-healthy-targets",
		"overdue-api-keys", "storage-class-usage", "efs-high-io-limit",
		"azure-high-cost-service", "azure-idle-vm", "azure-db-low-cpu",
		"azure-db-high-cpu", "azure-db-low-storage", "azure-db-failed-connections",
	} {
		_, err := reg.Lookup(name)
		assert.NoError(t, err, name)
	}
}

func TestOverdueAPIKeys(t *testing.T) {
	engine := catalogEngine(t)
	asOf := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	snapshot := domain.Snapshot{
		Resource: "iam_users",
		AsOf:     asOf,
		Records: []domain.Record{
			{
				"user_name": "rotated",
				"access_keys": []any{
					map[string]any{"status": "Active", "create_date": asOf.Add(-30 * 24 * time.Hour).Format(time.RFC3339)},
				},
			},
			{
				"user_name": "overdue",
				"access_keys": []any{
					map[string]any{"status": "Active", "create_date": asOf.Add(-120 * 24 * time.Hour).Format(time.RFC3339)},
				},
			},
			{
				"user_name": "inactive-old-key",
				"access_keys": []any{
					map[string]any{"status": "Inactive", "create_date": asOf.Add(-400 * 24 * time.Hour).Format(time.RFC3339)},
				},
			},
			{
				"user_name":   "no-keys",
				"access_keys": []any{},
			},
		},
	}

	report, err := engine.Evaluate(snapshot, "overdue-api-keys", nil)
	assert.NoError(t, err)
	assert.Equal(t, 1, report.Stats.Matched)
	assert.Equal(t, "overdue", report.Matched[0]["user_name"])
	assert.Equal(t, 25, report.Stats.MatchedPercentage)
}

func TestIdleInstanceDefaults(t *testing.T) {
	engine := catalogEngine(t)

	snapshot := domain.Snapshot{
		Resource: "ec2_instances",
		AsOf:     time.Now().UTC(),
		Records: []domain.Record{
			{"instance_id": "i-1", "state": "running", "avg_cpu_utilization": 0.4},
			{"instance_id": "i-2", "state": "running", "avg_cpu_utilization": 40.0},
			{"instance_id": "i-3", "state": "stopped", "avg_cpu_utilization": 0.0},
		},
	}

	report, err := engine.Evaluate(snapshot, "idle-instance", nil)
	assert.NoError(t, err)
	assert.Equal(t, 1, report.Stats.Matched)
	assert.Equal(t, "i-1", report.Matched[0]["instance_id"])
}

func TestStorageClassUsage(t *testing.T) {
	engine := catalogEngine(t)

	snapshot := domain.Snapshot{
		Resource: "s3_objects",
		AsOf:     time.Now().UTC(),
		Records: []domain.Record{
			{"key": "a.parquet", "storage_class": "STANDARD"},
			{"key": "b.parquet", "storage_class": "GLACIER"},
			{"key": "c.parquet", "storage_class": "STANDARD_IA"},
		},
	}

	report, err := engine.Evaluate(snapshot, "storage-class-usage", nil)
	assert.NoError(t, err)
	assert.Equal(t, 1, report.Stats.Matched)
	assert.Equal(t, 33, report.Stats.MatchedPercentage)
}

func TestEFSHighIOLimit(t *testing.T) {
	engine := catalogEngine(t)

	snapshot := domain.Snapshot{
		Resource: "efs_filesystems",
		AsOf:     time.Now().UTC(),
		Records: []domain.Record{
			{"id": "fs-quiet", "name": "logs", "percent_io_limit": 12.5},
			{"id": "fs-at-limit", "name": "shared", "percent_io_limit": 60.0},
			{"id": "fs-hot", "name": "scratch", "percent_io_limit": 93.1},
		},
	}

	report, err := engine.Evaluate(snapshot, "efs-high-io-limit", nil)
	assert.NoError(t, err)
	assert.Equal(t, 2, report.Stats.Matched)
	assert.Equal(t, "fs-at-limit", report.Matched[0]["id"])

	report, err = engine.Evaluate(snapshot, "efs-high-io-limit", map[string]any{"io_limit_threshold": 90})
	assert.NoError(t, err)
	assert.Equal(t, 1, report.Stats.Matched)
	assert.Equal(t, "fs-hot", report.Matched[0]["id"])
}

func TestAzureIdleVM(t *testing.T) {
	engine := catalogEngine(t)

	snapshot := domain.Snapshot{
		Resource: "azure_vms",
		AsOf:     time.Now().UTC(),
		Records: []domain.Record{
			{"vm_id": "vm-idle", "power_state": "running", "avg_cpu_utilization": 0.3, "vm_size": "Standard_D2s_v3"},
			{"vm_id": "vm-busy", "power_state": "running", "avg_cpu_utilization": 47.0, "vm_size": "Standard_D4s_v3"},
			{"vm_id": "vm-off", "power_state": "deallocated", "avg_cpu_utilization": 0.0, "vm_size": "Standard_B1s"},
		},
	}

	report, err := engine.Evaluate(snapshot, "azure-idle-vm", nil)
	assert.NoError(t, err)
	assert.Equal(t, 1, report.Stats.Matched)
	assert.Equal(t, "vm-idle", report.Matched[0]["vm_id"])
}

func TestAzureDBChecks(t *testing.T) {
	engine := catalogEngine(t)

	snapshot := domain.Snapshot{
		Resource: "azure_sql_dbs",
		AsOf:     time.Now().UTC(),
		Records: []domain.Record{
			{"uri": "db-cold", "cpu_percent": 0.0, "storage_percent": 4.0, "connection_failed": 0.0},
			{"uri": "db-steady", "cpu_percent": 35.0, "storage_percent": 61.0, "connection_failed": 1.0},
			{"uri": "db-hot", "cpu_percent": 92.0, "storage_percent": 88.0, "connection_failed": 7.0},
		},
	}

	cases := []struct {
		policy  string
		matched []string
	}{
		{"azure-db-low-cpu", []string{"db-cold"}},
		{"azure-db-high-cpu", []string{"db-hot"}},
		{"azure-db-low-storage", []string{"db-cold"}},
		{"azure-db-failed-connections", []string{"db-hot"}},
	}
	for _, tc := range cases {
		t.Run(tc.policy, func(t *testing.T) {
			report, err := engine.Evaluate(snapshot, tc.policy, nil)
			assert.NoError(t, err)
			assert.Equal(t, len(tc.matched), report.Stats.Matched)
			for i, uri := range tc.matched {
				assert.Equal(t, uri, report.Matched[i]["uri"])
			}
		})
	}

	report, err := engine.Evaluate(snapshot, "azure-db-low-cpu", map[string]any{"cpu_percent_lower_bound": 40})
	assert.NoError(t, err)
	assert.Equal(t, 2, report.Stats.Matched)
}

func TestEmptyZones(t *testing.T) {
	engine := catalogEngine(t)

	snapshot := domain.Snapshot{
		Resource: "r53_zones",
		AsOf:     time.Now().UTC(),
		Records: []domain.Record{
			{"zone_id": "Z1", "name": "empty.example.com.", "record_count": 2.0},
			{"zone_id": "Z2", "name": "used.example.com.", "record_count": 14.0},
		},
	}

	report, err := engine.Evaluate(snapshot, "empty-zones", nil)
	assert.NoError(t, err)
	assert.Equal(t, 1, report.Stats.Matched)
	assert.Equal(t, "Z1", report.Matched[0]["zone_id"])
}
