package admin

import (
	"fmt"
	"sort"

	"github.com/smilepat/vocab-cat-engine/internal/models"
)

// minBandPool is the smallest per-CEFR pool that keeps the exposure gate
// from starving selection at that band.
const minBandPool = 25

// gini measures inequality of administered counts across the bank.
// 0 is perfectly even usage, 1 is all usage on one item.
func gini(counts []int64) float64 {
	n := len(counts)
	if n == 0 {
		return 0
	}
	sorted := make([]int64, n)
	copy(sorted, counts)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var total int64
	for _, c := range sorted {
		total += c
	}
	if total == 0 {
		return 0
	}

	var weighted float64
	for i, c := range sorted {
		weighted += float64(2*(i+1)-n-1) * float64(c)
	}
	return weighted / (float64(n) * float64(total))
}

// BandExposure aggregates usage over one CEFR band.
type BandExposure struct {
	Band         models.CEFRBand `json:"band"`
	Items        int             `json:"items"`
	Administered int64           `json:"administered_total"`
	MeanRate     float64         `json:"mean_rate"`
	Overused     int             `json:"overused"`
	Unused       int             `json:"unused"`
}

// ExpansionTarget recommends new items for a band whose pool runs thin.
type ExpansionTarget struct {
	Band           models.CEFRBand `json:"band"`
	Items          int             `json:"items"`
	RecommendedAdd int             `json:"recommended_add"`
	Reason         string          `json:"reason"`
}

// bandBreakdown folds per-item exposure into per-CEFR aggregates.
func bandBreakdown(items []models.Item, counts map[int]int64, sessions int64, maxRate float64) []BandExposure {
	byBand := make(map[models.CEFRBand]*BandExposure)
	for _, band := range models.CEFROrder {
		byBand[band] = &BandExposure{Band: band}
	}
	for i := range items {
		it := &items[i]
		agg, ok := byBand[it.CEFR]
		if !ok {
			continue
		}
		agg.Items++
		count := counts[it.ID]
		agg.Administered += count
		if count == 0 {
			agg.Unused++
			continue
		}
		if sessions > 0 && float64(count)/float64(sessions) > maxRate {
			agg.Overused++
		}
	}

	out := make([]BandExposure, 0, len(models.CEFROrder))
	for _, band := range models.CEFROrder {
		agg := byBand[band]
		if agg.Items > 0 && sessions > 0 {
			agg.MeanRate = float64(agg.Administered) / float64(sessions) / float64(agg.Items)
		}
		out = append(out, *agg)
	}
	return out
}

// expansionTargets flags bands whose pools are too small or carrying too
// much of the selection load.
func expansionTargets(bands []BandExposure) []ExpansionTarget {
	var out []ExpansionTarget
	for _, b := range bands {
		switch {
		case b.Items < minBandPool:
			out = append(out, ExpansionTarget{
				Band:           b.Band,
				Items:          b.Items,
				RecommendedAdd: minBandPool - b.Items,
				Reason:         fmt.Sprintf("pool below %d items", minBandPool),
			})
		case b.Overused > 0:
			out = append(out, ExpansionTarget{
				Band:           b.Band,
				Items:          b.Items,
				RecommendedAdd: 2 * b.Overused,
				Reason:         fmt.Sprintf("%d items at the exposure cap", b.Overused),
			})
		}
	}
	return out
}
