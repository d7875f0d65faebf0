package aws

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/route53"

	"github.com/sudoersllc/opsbox-rego/pkg/models/domain"
)

type route53ZoneProvider struct {
	client *route53.Client
}

func NewRoute53ZoneProvider(cfg aws.Config) *route53ZoneProvider {
	return &route53ZoneProvider{client: route53.NewFromConfig(cfg)}
}

func (p *route53ZoneProvider) Resource() string {
	return "r53_zones"
}

func (p *route53ZoneProvider) Collect(ctx context.Context) (domain.Snapshot, error) {
	asOf := time.Now().UTC()

	var records []domain.Record
	paginator := route53.NewListHostedZonesPaginator(p.client, &route53.ListHostedZonesInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return domain.Snapshot{}, fmt.Errorf("failed to list hosted zones: %w", err)
		}
		for _, zone := range page.HostedZones {
			rec := domain.Record{
				"zone_id":      aws.ToString(zone.Id),
				"name":         aws.ToString(zone.Name),
				"record_count": float64(aws.ToInt64(zone.ResourceRecordSetCount)),
			}
			if zone.Config != nil {
				rec["private"] = zone.Config.PrivateZone
			}
			records = append(records, rec)
		}
	}

	return domain.Snapshot{Resource: p.Resource(), AsOf: asOf, Records: records}, nil
}
