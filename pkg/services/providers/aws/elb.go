package aws

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	elbv2 "github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2"
	elbtypes "github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2/types"

	"github.com/sudoersllc/opsbox-rego/pkg/models/domain"
)

type elbProvider struct {
	client *elbv2.Client
	cw     *cloudwatch.Client
}

func NewELBProvider(cfg aws.Config) *elbProvider {
	return &elbProvider{
		client: elbv2.NewFromConfig(cfg),
		cw:     cloudwatch.NewFromConfig(cfg),
	}
}

func (p *elbProvider) Resource() string {
	return "elbs"
}

func (p *elbProvider) Collect(ctx context.Context) (domain.Snapshot, error) {
	asOf := time.Now().UTC()

	var records []domain.Record
	paginator := elbv2.NewDescribeLoadBalancersPaginator(p.client, &elbv2.DescribeLoadBalancersInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return domain.Snapshot{}, fmt.Errorf("failed to describe load balancers: %w", err)
		}
		for _, lb := range page.LoadBalancers {
			arn := aws.ToString(lb.LoadBalancerArn)

			health, err := p.targetHealth(ctx, arn)
			if err != nil {
				return domain.Snapshot{}, err
			}

			dimension := metricDimension(arn)
			requestCount, err := p.sumMetric(ctx, dimension, "RequestCount", asOf)
			if err != nil {
				return domain.Snapshot{}, err
			}
			errorCount, err := p.sumMetric(ctx, dimension, "HTTPCode_ELB_5XX_Count", asOf)
			if err != nil {
				return domain.Snapshot{}, err
			}
			errorRate := 0.0
			if requestCount > 0 {
				errorRate = errorCount / requestCount * 100
			}

			records = append(records, domain.Record{
				"name":           aws.ToString(lb.LoadBalancerName),
				"arn":            arn,
				"type":           string(lb.Type),
				"state":          string(lb.State.Code),
				"InstanceHealth": health,
				"request_count":  requestCount,
				"error_rate":     errorRate,
			})
		}
	}

	return domain.Snapshot{Resource: p.Resource(), AsOf: asOf, Records: records}, nil
}

func (p *elbProvider) targetHealth(ctx context.Context, lbARN string) ([]any, error) {
	groups, err := p.client.DescribeTargetGroups(ctx, &elbv2.DescribeTargetGroupsInput{
		LoadBalancerArn: aws.String(lbARN),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to describe target groups for %s: %w", lbARN, err)
	}

	health := []any{}
	for _, group := range groups.TargetGroups {
		resp, err := p.client.DescribeTargetHealth(ctx, &elbv2.DescribeTargetHealthInput{
			TargetGroupArn: group.TargetGroupArn,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to describe target health for %s: %w", aws.ToString(group.TargetGroupArn), err)
		}
		for _, desc := range resp.TargetHealthDescriptions {
			entry := map[string]any{
				"State": healthState(desc.TargetHealth),
			}
			if desc.Target != nil {
				entry["Target"] = aws.ToString(desc.Target.Id)
			}
			health = append(health, entry)
		}
	}
	return health, nil
}

func healthState(th *elbtypes.TargetHealth) string {
	if th == nil {
		return ""
	}
	return string(th.State)
}

// metricDimension trims the ALB ARN down to the app/name/id form that
// CloudWatch expects as the LoadBalancer dimension value.
func metricDimension(arn string) string {
	const marker = ":loadbalancer/"
	if idx := strings.Index(arn, marker); idx >= 0 {
		return arn[idx+len(marker):]
	}
	return arn
}

func (p *elbProvider) sumMetric(ctx context.Context, dimension, metric string, asOf time.Time) (float64, error) {
	resp, err := p.cw.GetMetricStatistics(ctx, &cloudwatch.GetMetricStatisticsInput{
		Namespace:  aws.String("AWS/ApplicationELB"),
		MetricName: aws.String(metric),
		Dimensions: []cwtypes.Dimension{
			{Name: aws.String("LoadBalancer"), Value: aws.String(dimension)},
		},
		StartTime:  aws.Time(asOf.AddDate(0, 0, -MetricsWindowDays)),
		EndTime:    aws.Time(asOf),
		Period:     aws.Int32(3600),
		Statistics: []cwtypes.Statistic{cwtypes.StatisticSum},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to get %s for %s: %w", metric, dimension, err)
	}
	var sum float64
	for _, dp := range resp.Datapoints {
		sum += aws.ToFloat64(dp.Sum)
	}
	return sum, nil
}
