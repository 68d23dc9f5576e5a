package billing

import (
	"sort"

	"github.com/greenhangar/ghe-billing/internal/model"
)

type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// Summary backs the ledger overview: contract counts per status and the
// rounded totals of the contracts that would be billed.
type Summary struct {
	Contracts int           `json:"contracts"`
	Cancelled int           `json:"cancelled"`
	ByStatus  []StatusCount `json:"by_status"`
	Eligible  Totals        `json:"eligible"`
}

func Summarize(contracts []model.Contract) Summary {
	counts := make(map[string]int)
	eligible := make([]model.Contract, 0, len(contracts))
	cancelled := 0
	for _, c := range contracts {
		counts[c.Status]++
		if c.IsCancelled() {
			cancelled++
			continue
		}
		eligible = append(eligible, c)
	}

	byStatus := make([]StatusCount, 0, len(counts))
	for status, count := range counts {
		byStatus = append(byStatus, StatusCount{Status: status, Count: count})
	}
	sort.Slice(byStatus, func(i, j int) bool {
		return byStatus[i].Status < byStatus[j].Status
	})

	return Summary{
		Contracts: len(contracts),
		Cancelled: cancelled,
		ByStatus:  byStatus,
		Eligible:  Aggregate(eligible).Rounded(),
	}
}
