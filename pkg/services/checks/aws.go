package checks

import (
	"time"

	"github.com/sudoersllc/opsbox-rego/pkg/models/domain"
)

const day = 24 * time.Hour

// AWS returns the built-in AWS check catalog. Every check is pure data:
// a predicate tree plus named threshold parameters with defaults, all
// served by the one evaluation engine.
func AWS() []domain.Policy {
	return []domain.Policy{
		{
			Name:        "idle-instance",
			Resource:    "ec2_instances",
			Description: "Running EC2 instances with average CPU utilization below the threshold.",
			Predicate: domain.And(
				domain.Leaf("state", domain.OpEq, "running"),
				domain.LeafParam("avg_cpu_utilization", domain.OpLt, "cpu_threshold"),
			),
			Params: []domain.ThresholdParam{
				{Name: "cpu_threshold", Type: domain.ParamPercent, Default: 5,
					Description: "Average CPU percentage below which a running instance counts as idle."},
			},
		},
		{
			Name:        "stray-instance",
			Resource:    "ec2_instances",
			Description: "EC2 instances left in the stopped state.",
			Predicate:   domain.Leaf("state", domain.OpEq, "stopped"),
		},
		{
			Name:        "stray-volume",
			Resource:    "ec2_volumes",
			Description: "EBS volumes not attached to any instance.",
			Predicate:   domain.Leaf("state", domain.OpNeq, "in-use"),
		},
		{
			Name:        "old-snapshots",
			Resource:    "ec2_snapshots",
			Description: "EBS snapshots older than the retention threshold.",
			Predicate:   domain.LeafParam("start_time", domain.OpBefore, "max_age"),
			Params: []domain.ThresholdParam{
				{Name: "max_age", Type: domain.ParamDuration, Default: 365 * day,
					Description: "Snapshot age beyond which it is flagged."},
			},
		},
		{
			Name:        "unattached-eips",
			Resource:    "ec2_eips",
			Description: "Elastic IPs without an association.",
			Predicate:   domain.Leaf("association_id", domain.OpEmptyString, nil),
		},
		{
			Name:        "no-healthy-targets",
			Resource:    "elbs",
			Description: "Load balancers whose every registered target is unhealthy. A load balancer with no health entries at all also matches.",
			Predicate: domain.ForAll("InstanceHealth",
				domain.Leaf("State", domain.OpEq, "unhealthy"),
			),
		},
		{
			Name:        "high-error-rate",
			Resource:    "elbs",
			Description: "Load balancers whose 5xx error rate exceeds the threshold.",
			Predicate:   domain.LeafParam("error_rate", domain.OpGt, "error_rate_threshold"),
			Params: []domain.ThresholdParam{
				{Name: "error_rate_threshold", Type: domain.ParamPercent, Default: 5,
					Description: "Error percentage above which a load balancer is flagged."},
			},
		},
		{
			Name:        "inactive-load-balancers",
			Resource:    "elbs",
			Description: "Load balancers that served no requests in the observation window.",
			Predicate:   domain.Leaf("request_count", domain.OpEq, 0),
		},
		{
			Name:        "low-request-counts",
			Resource:    "elbs",
			Description: "Load balancers serving fewer requests than the threshold.",
			Predicate:   domain.LeafParam("request_count", domain.OpLt, "request_threshold"),
			Params: []domain.ThresholdParam{
				{Name: "request_threshold", Type: domain.ParamCount, Default: 100,
					Description: "Request count below which a load balancer is considered underused."},
			},
		},
		{
			Name:        "overdue-api-keys",
			Resource:    "iam_users",
			Description: "IAM users holding an active access key older than the rotation threshold.",
			Predicate: domain.Exists("access_keys", domain.And(
				domain.Leaf("status", domain.OpEq, "Active"),
				domain.LeafParam("create_date", domain.OpBefore, "max_key_age"),
			)),
			Params: []domain.ThresholdParam{
				{Name: "max_key_age", Type: domain.ParamDuration, Default: 90 * day,
					Description: "Access key age beyond which rotation is overdue."},
			},
		},
		{
			Name:        "console-access",
			Resource:    "iam_users",
			Description: "IAM users with console password access enabled.",
			Predicate:   domain.Leaf("password_enabled", domain.OpEq, true),
		},
		{
			Name:        "mfa-disabled",
			Resource:    "iam_users",
			Description: "IAM users with console access but no MFA device.",
			Predicate: domain.And(
				domain.Leaf("password_enabled", domain.OpEq, true),
				domain.Leaf("mfa_active", domain.OpEq, false),
			),
		},
		{
			Name:        "unused-policies",
			Resource:    "iam_policies",
			Description: "Customer-managed IAM policies with zero attachments.",
			Predicate:   domain.Leaf("attachment_count", domain.OpEq, 0),
		},
		{
			Name:        "unused-buckets",
			Resource:    "s3_buckets",
			Description: "S3 buckets holding no objects.",
			Predicate:   domain.Leaf("object_count", domain.OpEq, 0),
		},
		{
			Name:        "object-last-modified",
			Resource:    "s3_objects",
			Description: "S3 objects not modified within the staleness threshold.",
			Predicate:   domain.LeafParam("last_modified", domain.OpBefore, "max_age"),
			Params: []domain.ThresholdParam{
				{Name: "max_age", Type: domain.ParamDuration, Default: 90 * day,
					Description: "Object age beyond which it is considered stale."},
			},
		},
		{
			Name:        "storage-class-usage",
			Resource:    "s3_objects",
			Description: "S3 objects still on the STANDARD storage class, candidates for cheaper tiers.",
			Predicate:   domain.Leaf("storage_class", domain.OpInSet, []any{"STANDARD"}),
		},
		{
			Name:        "rds-idle",
			Resource:    "rds_instances",
			Description: "RDS instances with average connections below the threshold.",
			Predicate:   domain.LeafParam("avg_connections", domain.OpLt, "connection_threshold"),
			Params: []domain.ThresholdParam{
				{Name: "connection_threshold", Type: domain.ParamCount, Default: 1,
					Description: "Average connection count below which an instance is idle."},
			},
		},
		{
			Name:        "empty-storage",
			Resource:    "rds_instances",
			Description: "RDS instances using less storage than the utilization threshold.",
			Predicate:   domain.LeafParam("storage_used_percent", domain.OpLt, "utilization_threshold"),
			Params: []domain.ThresholdParam{
				{Name: "utilization_threshold", Type: domain.ParamPercent, Default: 10,
					Description: "Storage utilization percentage below which an instance is over-provisioned."},
			},
		},
		{
			Name:        "scaling-down",
			Resource:    "rds_instances",
			Description: "Available RDS instances whose CPU utilization suggests a smaller instance class.",
			Predicate: domain.And(
				domain.Leaf("state", domain.OpEq, "available"),
				domain.LeafParam("avg_cpu_utilization", domain.OpLt, "cpu_threshold"),
			),
			Params: []domain.ThresholdParam{
				{Name: "cpu_threshold", Type: domain.ParamPercent, Default: 20,
					Description: "CPU percentage below which downsizing is suggested."},
			},
		},
		{
			Name:        "rds-old-snapshots",
			Resource:    "rds_snapshots",
			Description: "RDS snapshots older than the retention threshold.",
			Predicate:   domain.LeafParam("create_time", domain.OpBefore, "max_age"),
			Params: []domain.ThresholdParam{
				{Name: "max_age", Type: domain.ParamDuration, Default: 365 * day,
					Description: "Snapshot age beyond which it is flagged."},
			},
		},
		{
			Name:        "efs-high-io-limit",
			Resource:    "efs_filesystems",
			Description: "EFS file systems whose PercentIOLimit metric reached the threshold, approaching the I/O capacity of the file system.",
			Predicate:   domain.LeafParam("percent_io_limit", domain.OpGte, "io_limit_threshold"),
			Params: []domain.ThresholdParam{
				{Name: "io_limit_threshold", Type: domain.ParamPercent, Default: 60,
					Description: "PercentIOLimit value at or above which a file system is flagged."},
			},
		},
		{
			Name:        "empty-zones",
			Resource:    "r53_zones",
			Description: "Route53 hosted zones holding only the default NS and SOA record sets.",
			Predicate:   domain.Leaf("record_count", domain.OpLte, 2),
		},
		{
			Name:        "high-daily-cost",
			Resource:    "aws_cost",
			Description: "Services whose daily unblended cost exceeds the threshold.",
			Predicate:   domain.LeafParam("amount", domain.OpGt, "daily_cost_threshold"),
			Params: []domain.ThresholdParam{
				{Name: "daily_cost_threshold", Type: domain.ParamCount, Default: 100,
					Description: "Daily USD amount above which a service is flagged."},
			},
		},
	}
}
