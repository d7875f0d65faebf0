package aws

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/sudoersllc/opsbox-rego/pkg/models/domain"
)

type ec2InstanceProvider struct {
	client *ec2.Client
	cw     *cloudwatch.Client
}

func NewEC2InstanceProvider(cfg aws.Config) *ec2InstanceProvider {
	return &ec2InstanceProvider{
		client: ec2.NewFromConfig(cfg),
		cw:     cloudwatch.NewFromConfig(cfg),
	}
}

func (p *ec2InstanceProvider) Resource() string {
	return "ec2_instances"
}

func (p *ec2InstanceProvider) Collect(ctx context.Context) (domain.Snapshot, error) {
	asOf := time.Now().UTC()

	var records []domain.Record
	paginator := ec2.NewDescribeInstancesPaginator(p.client, &ec2.DescribeInstancesInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return domain.Snapshot{}, fmt.Errorf("failed to describe EC2 instances: %w", err)
		}
		for _, reservation := range page.Reservations {
			for _, instance := range reservation.Instances {
				instanceID := aws.ToString(instance.InstanceId)

				avgCPU, err := p.averageCPU(ctx, instanceID, asOf)
				if err != nil {
					return domain.Snapshot{}, err
				}

				rec := domain.Record{
					"instance_id":         instanceID,
					"state":               string(instance.State.Name),
					"instance_type":       string(instance.InstanceType),
					"avg_cpu_utilization": avgCPU,
					"tags":                tagMap(instance.Tags),
				}
				if instance.Placement != nil {
					rec["region"] = aws.ToString(instance.Placement.AvailabilityZone)
				}
				if instance.LaunchTime != nil {
					rec["launch_time"] = instance.LaunchTime.UTC().Format(time.RFC3339)
				}
				records = append(records, rec)
			}
		}
	}

	return domain.Snapshot{Resource: p.Resource(), AsOf: asOf, Records: records}, nil
}

func (p *ec2InstanceProvider) averageCPU(ctx context.Context, instanceID string, asOf time.Time) (float64, error) {
	resp, err := p.cw.GetMetricStatistics(ctx, &cloudwatch.GetMetricStatisticsInput{
		Namespace:  aws.String("AWS/EC2"),
		MetricName: aws.String("CPUUtilization"),
		Dimensions: []cwtypes.Dimension{
			{Name: aws.String("InstanceId"), Value: aws.String(instanceID)},
		},
		StartTime:  aws.Time(asOf.AddDate(0, 0, -MetricsWindowDays)),
		EndTime:    aws.Time(asOf),
		Period:     aws.Int32(3600),
		Statistics: []cwtypes.Statistic{cwtypes.StatisticAverage},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to get CPU utilization for %s: %w", instanceID, err)
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

type ec2VolumeProvider struct {
	client *ec2.Client
}

func NewEC2VolumeProvider(cfg aws.Config) *ec2VolumeProvider {
	return &ec2VolumeProvider{client: ec2.NewFromConfig(cfg)}
}

func (p *ec2VolumeProvider) Resource() string {
	return "ec2_volumes"
}

func (p *ec2VolumeProvider) Collect(ctx context.Context) (domain.Snapshot, error) {
	asOf := time.Now().UTC()

	var records []domain.Record
	paginator := ec2.NewDescribeVolumesPaginator(p.client, &ec2.DescribeVolumesInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return domain.Snapshot{}, fmt.Errorf("failed to describe EBS volumes: %w", err)
		}
		for _, volume := range page.Volumes {
			rec := domain.Record{
				"volume_id": aws.ToString(volume.VolumeId),
				"state":     string(volume.State),
				"size":      float64(aws.ToInt32(volume.Size)),
				"tags":      tagMap(volume.Tags),
			}
			if volume.CreateTime != nil {
				rec["create_time"] = volume.CreateTime.UTC().Format(time.RFC3339)
			}
			records = append(records, rec)
		}
	}

	return domain.Snapshot{Resource: p.Resource(), AsOf: asOf, Records: records}, nil
}

type ec2SnapshotProvider struct {
	client *ec2.Client
}

func NewEC2SnapshotProvider(cfg aws.Config) *ec2SnapshotProvider {
	return &ec2SnapshotProvider{client: ec2.NewFromConfig(cfg)}
}

func (p *ec2SnapshotProvider) Resource() string {
	return "ec2_snapshots"
}

func (p *ec2SnapshotProvider) Collect(ctx context.Context) (domain.Snapshot, error) {
	asOf := time.Now().UTC()

	var records []domain.Record
	paginator := ec2.NewDescribeSnapshotsPaginator(p.client, &ec2.DescribeSnapshotsInput{
		OwnerIds: []string{"self"},
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return domain.Snapshot{}, fmt.Errorf("failed to describe EBS snapshots: %w", err)
		}
		for _, snapshot := range page.Snapshots {
			rec := domain.Record{
				"snapshot_id": aws.ToString(snapshot.SnapshotId),
				"volume_id":   aws.ToString(snapshot.VolumeId),
				"state":       string(snapshot.State),
				"size":        float64(aws.ToInt32(snapshot.VolumeSize)),
				"tags":        tagMap(snapshot.Tags),
			}
			if snapshot.StartTime != nil {
				rec["start_time"] = snapshot.StartTime.UTC().Format(time.RFC3339)
			}
			records = append(records, rec)
		}
	}

	return domain.Snapshot{Resource: p.Resource(), AsOf: asOf, Records: records}, nil
}

type ec2EIPProvider struct {
	client *ec2.Client
}

func NewEC2EIPProvider(cfg aws.Config) *ec2EIPProvider {
	return &ec2EIPProvider{client: ec2.NewFromConfig(cfg)}
}

func (p *ec2EIPProvider) Resource() string {
	return "ec2_eips"
}

func (p *ec2EIPProvider) Collect(ctx context.Context) (domain.Snapshot, error) {
	asOf := time.Now().UTC()

	resp, err := p.client.DescribeAddresses(ctx, &ec2.DescribeAddressesInput{})
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("failed to describe Elastic IPs: %w", err)
	}

	var records []domain.Record
	for _, address := range resp.Addresses {
		records = append(records, domain.Record{
			"public_ip":      aws.ToString(address.PublicIp),
			"allocation_id":  aws.ToString(address.AllocationId),
			"association_id": aws.ToString(address.AssociationId),
			"instance_id":    aws.ToString(address.InstanceId),
			"tags":           tagMap(address.Tags),
		})
	}

	return domain.Snapshot{Resource: p.Resource(), AsOf: asOf, Records: records}, nil
}

func tagMap(tags []types.Tag) map[string]any {
	out := make(map[string]any, len(tags))
	for _, tag := range tags {
		out[aws.ToString(tag.Key)] = aws.ToString(tag.Value)
	}
	return out
}
