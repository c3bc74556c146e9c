package core

import (
	"sort"

	"github.com/montanaflynn/stats"
)

// StatusTotal is the count and amount for one status.
type StatusTotal struct {
	Status Status  `json:"status"`
	Count  int     `json:"count"`
	Amount float64 `json:"amount"`
}

// AdvisorTotal is the count and amount for one advisor.
type AdvisorTotal struct {
	Advisor string  `json:"advisor"`
	Count   int     `json:"count"`
	Amount  float64 `json:"amount"`
}

// KPIs summarizes a view.
//
// Means over an empty set are reported as 0, never NaN.
type KPIs struct {
	Count          int            `json:"count"`
	TotalAmount    float64        `json:"totalAmount"`
	FundedAmount   float64        `json:"fundedAmount"`
	MeanDaysOpen   float64        `json:"meanDaysOpen"`
	AvgFundingDays float64        `json:"avgFundingDays"`
	ByStatus       []StatusTotal  `json:"byStatus"`
	ByAdvisor      []AdvisorTotal `json:"byAdvisor"`
}

// Aggregate computes the KPIs of view. It never fails.
func Aggregate(view []Record) KPIs {
	k := KPIs{Count: len(view)}

	byStatus := make(map[Status]*StatusTotal, len(statusOrder))
	for _, s := range statusOrder {
		byStatus[s] = &StatusTotal{Status: s}
	}
	byAdvisor := make(map[string]*AdvisorTotal)

	days := make(stats.Float64Data, 0, len(view))
	var fundingDays stats.Float64Data

	for _, r := range view {
		k.TotalAmount += r.Amount
		days = append(days, float64(r.DaysOpen))

		if r.Status == StatusEntregada {
			k.FundedAmount += r.Amount
			fundingDays = append(fundingDays, float64(r.DaysOpen))
		}

		if st, ok := byStatus[r.Status]; ok {
			st.Count++
			st.Amount += r.Amount
		}

		at, ok := byAdvisor[r.Advisor]
		if !ok {
			at = &AdvisorTotal{Advisor: r.Advisor}
			byAdvisor[r.Advisor] = at
		}
		at.Count++
		at.Amount += r.Amount
	}

	k.MeanDaysOpen = meanOrZero(days)
	k.AvgFundingDays = meanOrZero(fundingDays)

	k.ByStatus = make([]StatusTotal, 0, len(statusOrder))
	for _, s := range statusOrder {
		k.ByStatus = append(k.ByStatus, *byStatus[s])
	}

	k.ByAdvisor = make([]AdvisorTotal, 0, len(byAdvisor))
	for _, at := range byAdvisor {
		k.ByAdvisor = append(k.ByAdvisor, *at)
	}
	sort.Slice(k.ByAdvisor, func(i, j int) bool {
		if k.ByAdvisor[i].Amount != k.ByAdvisor[j].Amount {
			return k.ByAdvisor[i].Amount > k.ByAdvisor[j].Amount
		}
		return k.ByAdvisor[i].Advisor < k.ByAdvisor[j].Advisor
	})

	return k
}

func meanOrZero(data stats.Float64Data) float64 {
	if len(data) == 0 {
		return 0
	}
	m, err := stats.Mean(data)
	if err != nil {
		return 0
	}
	return m
}
