package checks

import (
	"github.com/sudoersllc/opsbox-rego/pkg/models/domain"
)

// Azure returns the built-in Azure check catalog: VM and SQL database
// checks over metric snapshots, plus cost checks over snapshots from
// the Azure cost provider.
func Azure() []domain.Policy {
	return []domain.Policy{
		{
			Name:        "azure-idle-vm",
			Resource:    "azure_vms",
			Description: "Running Azure VMs with average CPU utilization at or below the idle threshold.",
			Predicate: domain.And(
				domain.Leaf("power_state", domain.OpEq, "running"),
				domain.LeafParam("avg_cpu_utilization", domain.OpLte, "cpu_idle_threshold"),
			),
			Params: []domain.ThresholdParam{
				{Name: "cpu_idle_threshold", Type: domain.ParamPercent, Default: 1,
					Description: "Average CPU percentage at or below which a running VM counts as idle."},
			},
		},
		{
			Name:        "azure-db-low-cpu",
			Resource:    "azure_sql_dbs",
			Description: "Azure SQL databases whose average CPU percentage sits at or below the lower bound.",
			Predicate:   domain.LeafParam("cpu_percent", domain.OpLte, "cpu_percent_lower_bound"),
			Params: []domain.ThresholdParam{
				{Name: "cpu_percent_lower_bound", Type: domain.ParamPercent, Default: 0,
					Description: "CPU percentage at or below which a database is underused."},
			},
		},
		{
			Name:        "azure-db-high-cpu",
			Resource:    "azure_sql_dbs",
			Description: "Azure SQL databases whose average CPU percentage exceeds the upper bound.",
			Predicate:   domain.LeafParam("cpu_percent", domain.OpGt, "cpu_percent_upper_bound"),
			Params: []domain.ThresholdParam{
				{Name: "cpu_percent_upper_bound", Type: domain.ParamPercent, Default: 80,
					Description: "CPU percentage above which a database is flagged."},
			},
		},
		{
			Name:        "azure-db-low-storage",
			Resource:    "azure_sql_dbs",
			Description: "Azure SQL databases using less storage than the lower bound, candidates for a smaller tier.",
			Predicate:   domain.LeafParam("storage_percent", domain.OpLte, "storage_percent_lower_bound"),
			Params: []domain.ThresholdParam{
				{Name: "storage_percent_lower_bound", Type: domain.ParamPercent, Default: 25,
					Description: "Storage percentage at or below which a database is over-provisioned."},
			},
		},
		{
			Name:        "azure-db-failed-connections",
			Resource:    "azure_sql_dbs",
			Description: "Azure SQL databases with more failed connections than the upper bound in the observation window.",
			Predicate:   domain.LeafParam("connection_failed", domain.OpGt, "connections_failed_upper_bound"),
			Params: []domain.ThresholdParam{
				{Name: "connections_failed_upper_bound", Type: domain.ParamCount, Default: 2,
					Description: "Failed connection count above which a database is flagged."},
			},
		},
		{
			Name:        "azure-high-cost-service",
			Resource:    "azure_cost",
			Description: "Azure services whose cost in the observation window exceeds the threshold.",
			Predicate:   domain.LeafParam("amount", domain.OpGt, "cost_threshold"),
			Params: []domain.ThresholdParam{
				{Name: "cost_threshold", Type: domain.ParamCount, Default: 100,
					Description: "Cost amount above which a service is flagged."},
			},
		},
		{
			Name:        "azure-untagged-cost",
			Resource:    "azure_cost",
			Description: "Cost rows not attributable to a service dimension.",
			Predicate:   domain.Leaf("service", domain.OpEmptyString, nil),
		},
	}
}
