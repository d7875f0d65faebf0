package aws

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/aws/aws-sdk-go-v2/service/rds"

	"github.com/sudoersllc/opsbox-rego/pkg/models/domain"
)

type rdsInstanceProvider struct {
	client *rds.Client
	cw     *cloudwatch.Client
}

func NewRDSInstanceProvider(cfg aws.Config) *rdsInstanceProvider {
	return &rdsInstanceProvider{
		client: rds.NewFromConfig(cfg),
		cw:     cloudwatch.NewFromConfig(cfg),
	}
}

func (p *rdsInstanceProvider) Resource() string {
	return "rds_instances"
}

func (p *rdsInstanceProvider) Collect(ctx context.Context) (domain.Snapshot, error) {
	asOf := time.Now().UTC()

	var records []domain.Record
	paginator := rds.NewDescribeDBInstancesPaginator(p.client, &rds.DescribeDBInstancesInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return domain.Snapshot{}, fmt.Errorf("failed to describe RDS instances: %w", err)
		}
		for _, instance := range page.DBInstances {
			id := aws.ToString(instance.DBInstanceIdentifier)

			avgConnections, err := p.averageMetric(ctx, id, "DatabaseConnections", asOf)
			if err != nil {
				return domain.Snapshot{}, err
			}
			avgCPU, err := p.averageMetric(ctx, id, "CPUUtilization", asOf)
			if err != nil {
				return domain.Snapshot{}, err
			}
			freeStorage, err := p.averageMetric(ctx, id, "FreeStorageSpace", asOf)
			if err != nil {
				return domain.Snapshot{}, err
			}

			allocatedBytes := float64(aws.ToInt32(instance.AllocatedStorage)) * 1024 * 1024 * 1024
			usedPercent := 0.0
			if allocatedBytes > 0 {
				usedPercent = (allocatedBytes - freeStorage) / allocatedBytes * 100
			}

			records = append(records, domain.Record{
				"db_instance_identifier": id,
				"state":                  aws.ToString(instance.DBInstanceStatus),
				"engine":                 aws.ToString(instance.Engine),
				"instance_class":         aws.ToString(instance.DBInstanceClass),
				"avg_connections":        avgConnections,
				"avg_cpu_utilization":    avgCPU,
				"storage_used_percent":   usedPercent,
				"allocated_storage":      float64(aws.ToInt32(instance.AllocatedStorage)),
			})
		}
	}

	return domain.Snapshot{Resource: p.Resource(), AsOf: asOf, Records: records}, nil
}

func (p *rdsInstanceProvider) averageMetric(ctx context.Context, id, metric string, asOf time.Time) (float64, error) {
	resp, err := p.cw.GetMetricStatistics(ctx, &cloudwatch.GetMetricStatisticsInput{
		Namespace:  aws.String("AWS/RDS"),
		MetricName: aws.String(metric),
		Dimensions: []cwtypes.Dimension{
			{Name: aws.String("DBInstanceIdentifier"), Value: aws.String(id)},
		},
		StartTime:  aws.Time(asOf.AddDate(0, 0, -MetricsWindowDays)),
		EndTime:    aws.Time(asOf),
		Period:     aws.Int32(3600),
		Statistics: []cwtypes.Statistic{cwtypes.StatisticAverage},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to get %s for %s: %w", metric, id, err)
	}
	if len(resp.Datapoints) == 0 {
		return 0, nil
	}
	var sum float64
	for _, dp := range resp.Datapoints {
		sum += aws.ToFloat64(dp.Average)
	}
	return sum / float64(len(resp.Datapoints)), nil
}

type rdsSnapshotProvider struct {
	client *rds.Client
}

func NewRDSSnapshotProvider(cfg aws.Config) *rdsSnapshotProvider {
	return &rdsSnapshotProvider{client: rds.NewFromConfig(cfg)}
}

func (p *rdsSnapshotProvider) Resource() string {
	return "rds_snapshots"
}

func (p *rdsSnapshotProvider) Collect(ctx context.Context) (domain.Snapshot, error) {
	asOf := time.Now().UTC()

	var records []domain.Record
	paginator := rds.NewDescribeDBSnapshotsPaginator(p.client, &rds.DescribeDBSnapshotsInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return domain.Snapshot{}, fmt.Errorf("failed to describe RDS snapshots: %w", err)
		}
		for _, snapshot := range page.DBSnapshots {
			rec := domain.Record{
				"snapshot_id":            aws.ToString(snapshot.DBSnapshotIdentifier),
				"db_instance_identifier": aws.ToString(snapshot.DBInstanceIdentifier),
				"state":                  aws.ToString(snapshot.Status),
				"allocated_storage":      float64(aws.ToInt32(snapshot.AllocatedStorage)),
			}
			if snapshot.SnapshotCreateTime != nil {
				rec["create_time"] = snapshot.SnapshotCreateTime.UTC().Format(time.RFC3339)
			}
			records = append(records, rec)
		}
	}

	return domain.Snapshot{Resource: p.Resource(), AsOf: asOf, Records: records}, nil
}
