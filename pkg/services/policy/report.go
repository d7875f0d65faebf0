package policy

import (
	"fmt"
	"reflect"

	"github.com/sudoersllc/opsbox-rego/pkg/models/domain"
)

// buildReport assembles the finding report. Its only validation is the
// stable-order invariant: matched must be an order-preserving
// subsequence of the snapshot's records, since downstream consumers
// rely on first-seen ordering.
func buildReport(
	policyName string,
	thresholds Thresholds,
	snapshot domain.Snapshot,
	matched []domain.Record,
	stats domain.Stats,
) (domain.Report, error) {
	if !isSubsequence(snapshot.Records, matched) {
		return domain.Report{}, fmt.Errorf(
			"policy %q: matched records do not preserve snapshot order", policyName)
	}
	if matched == nil {
		matched = []domain.Record{}
	}
	return domain.Report{
		Policy:     policyName,
		Thresholds: thresholds.Values(),
		Matched:    matched,
		Stats:      stats,
	}, nil
}

func isSubsequence(records, matched []domain.Record) bool {
	next := 0
	for _, rec := range records {
		if next == len(matched) {
			return true
		}
		if reflect.DeepEqual(rec, matched[next]) {
			next++
		}
	}
	return next == len(matched)
}
