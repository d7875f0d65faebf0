package adapters

import (
	"github.com/sudoersllc/opsbox-rego/pkg/models/api"
	"github.com/sudoersllc/opsbox-rego/pkg/models/domain"
)

func MapAPISnapshotToDomain(s api.Snapshot) domain.Snapshot {
	records := make([]domain.Record, 0, len(s.Records))
	for _, rec := range s.Records {
		records = append(records, domain.Record(rec))
	}
	return domain.Snapshot{
		Resource: s.Resource,
		AsOf:     s.AsOf,
		Records:  records,
	}
}

func MapDomainSnapshotToAPI(s domain.Snapshot) api.Snapshot {
	records := make([]map[string]any, 0, len(s.Records))
	for _, rec := range s.Records {
		records = append(records, map[string]any(rec))
	}
	return api.Snapshot{
		Resource: s.Resource,
		AsOf:     s.AsOf,
		Records:  records,
	}
}

func MapDomainReportToAPI(r domain.Report) api.Report {
	matched := make([]map[string]any, 0, len(r.Matched))
	for _, rec := range r.Matched {
		matched = append(matched, map[string]any(rec))
	}
	return api.Report{
		Policy:     r.Policy,
		Thresholds: r.Thresholds,
		Matched:    matched,
		Stats: api.Stats{
			Total:             r.Stats.Total,
			Matched:           r.Stats.Matched,
			MatchedPercentage: r.Stats.MatchedPercentage,
		},
	}
}

func MapDomainPolicyToAPI(p domain.Policy) api.Policy {
	params := make([]api.PolicyParam, 0, len(p.Params))
	for _, param := range p.Params {
		params = append(params, api.PolicyParam{
			Name:        param.Name,
			Type:        string(param.Type),
			Default:     param.Default,
			Description: param.Description,
		})
	}
	return api.Policy{
		Name:        p.Name,
		Resource:    p.Resource,
		Description: p.Description,
		Params:      params,
	}
}
