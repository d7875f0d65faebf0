package aws

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer/types"

	"github.com/sudoersllc/opsbox-rego/pkg/models/domain"
)

// CostWindowDays is the Cost Explorer lookback for daily spend records.
const CostWindowDays = 30

type costProvider struct {
	client *costexplorer.Client
}

func NewCostProvider(cfg aws.Config) *costProvider {
	return &costProvider{client: costexplorer.NewFromConfig(cfg)}
}

func (p *costProvider) Resource() string {
	return "aws_cost"
}

func (p *costProvider) Collect(ctx context.Context) (domain.Snapshot, error) {
	asOf := time.Now().UTC()
	start := asOf.AddDate(0, 0, -CostWindowDays)

	input := &costexplorer.GetCostAndUsageInput{
		TimePeriod: &types.DateInterval{
			Start: aws.String(start.Format("2006-01-02")),
			End:   aws.String(asOf.Format("2006-01-02")),
		},
		Granularity: types.GranularityDaily,
		Metrics:     []string{"UnblendedCost"},
		Filter: &types.Expression{
			Not: &types.Expression{
				Dimensions: &types.DimensionValues{
					Key:    types.DimensionRecordType,
					Values: []string{"Credit", "Refund"},
				},
			},
		},
		GroupBy: []types.GroupDefinition{
			{
				Type: types.GroupDefinitionTypeDimension,
				Key:  aws.String("SERVICE"),
			},
		},
	}

	var records []domain.Record
	for {
		result, err := p.client.GetCostAndUsage(ctx, input)
		if err != nil {
			return domain.Snapshot{}, fmt.Errorf("failed to get cost and usage: %w", err)
		}

		for _, resultByTime := range result.ResultsByTime {
			usageDate := aws.ToString(resultByTime.TimePeriod.Start)
			for _, group := range resultByTime.Groups {
				metric, ok := group.Metrics["UnblendedCost"]
				if !ok {
					continue
				}
				amount, err := strconv.ParseFloat(aws.ToString(metric.Amount), 64)
				if err != nil {
					return domain.Snapshot{}, fmt.Errorf("failed to parse cost amount: %w", err)
				}

				service := ""
				if len(group.Keys) > 0 {
					service = group.Keys[0]
				}

				records = append(records, domain.Record{
					"service":    service,
					"amount":     amount,
					"currency":   aws.ToString(metric.Unit),
					"usage_date": usageDate,
				})
			}
		}

		if result.NextPageToken == nil {
			break
		}
		input.NextPageToken = result.NextPageToken
	}

	return domain.Snapshot{Resource: p.Resource(), AsOf: asOf, Records: records}, nil
}
