package azure

import (
	"context"
	"fmt"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/costmanagement/armcostmanagement"

	"github.com/sudoersllc/opsbox-rego/pkg/models/domain"
)

// CostWindowDays is the cost management lookback for daily spend records.
const CostWindowDays = 30

type costProvider struct {
	factory        *armcostmanagement.ClientFactory
	subscriptionID string
	scope          string
}

func NewCostProvider(cfg *Config) (*costProvider, error) {
	factory, err := armcostmanagement.NewClientFactory(cfg.Credentials, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cost management client factory: %w", err)
	}
	return &costProvider{
		factory:        factory,
		subscriptionID: cfg.SubscriptionID,
		scope:          fmt.Sprintf("/subscriptions/%s", cfg.SubscriptionID),
	}, nil
}

func (p *costProvider) Resource() string {
	return "azure_cost"
}

func (p *costProvider) Collect(ctx context.Context) (domain.Snapshot, error) {
	asOf := time.Now().UTC()
	timeFrom := asOf.AddDate(0, 0, -CostWindowDays)

	exportType := armcostmanagement.ExportTypeActualCost
	granularity := armcostmanagement.GranularityTypeDaily
	timeframe := armcostmanagement.TimeframeTypeCustom
	dimension := armcostmanagement.QueryColumnTypeDimension

	params := armcostmanagement.QueryDefinition{
		Type: &exportType,
		Dataset: &armcostmanagement.QueryDataset{
			Granularity: &granularity,
			Grouping: []*armcostmanagement.QueryGrouping{
				{
					Name: to.Ptr("ServiceName"),
					Type: &dimension,
				},
			},
		},
		Timeframe: &timeframe,
		TimePeriod: &armcostmanagement.QueryTimePeriod{
			From: &timeFrom,
			To:   &asOf,
		},
	}

	client := p.factory.NewQueryClient()
	result, err := client.Usage(ctx, p.scope, params, nil)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("failed to query Azure costs: %w", err)
	}

	var records []domain.Record
	for _, row := range result.Properties.Rows {
		if len(row) < 2 {
			continue
		}

		amount, ok := row[0].(float64)
		if !ok {
			continue
		}

		rec := domain.Record{
			"subscription_id": p.subscriptionID,
			"amount":          amount,
			"currency":        "USD",
		}
		if len(row) > 2 {
			rec["service"] = fmt.Sprintf("%v", row[2])
		} else {
			rec["service"] = ""
		}
		if len(row) > 1 {
			rec["usage_date"] = fmt.Sprintf("%v", row[1])
		}
		records = append(records, rec)
	}

	return domain.Snapshot{Resource: p.Resource(), AsOf: asOf, Records: records}, nil
}
