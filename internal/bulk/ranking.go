package bulk

import (
	"cmp"
	"slices"

	"github.com/seenimoa/equiscore/internal/scoring"
)

// Top returns the n best entries, optionally restricted to sector. A
// non-positive n returns every match.
func (r *Ranking) Top(n int, sector string) []Entry {
	var out []Entry
	for _, e := range r.Entries {
		if sector != "" && e.Sector != sector {
			continue
		}
		out = append(out, e)
		if n > 0 && len(out) == n {
			break
		}
	}
	return out
}

// SectorLeaders returns the highest scoring company of each sector, ranked
// among themselves.
func (r *Ranking) SectorLeaders() []Entry {
	seen := map[string]bool{}
	var leaders []Entry
	for _, e := range r.Entries {
		if seen[e.Sector] {
			continue
		}
		seen[e.Sector] = true
		leaders = append(leaders, e)
	}
	for i := range leaders {
		leaders[i].Rank = i + 1
	}
	return leaders
}

// SectorStat aggregates the scores of one sector.
type SectorStat struct {
	Sector       string  `json:"sector"`
	AverageScore float64 `json:"average_score"`
	Companies    int     `json:"companies"`
	Leader       string  `json:"leader"`
}

// SectorSummary returns per-sector averages, best average first.
func (r *Ranking) SectorSummary() []SectorStat {
	idx := map[string]int{}
	var out []SectorStat
	for _, e := range r.Entries {
		i, ok := idx[e.Sector]
		if !ok {
			i = len(out)
			idx[e.Sector] = i
			out = append(out, SectorStat{Sector: e.Sector, Leader: e.Symbol})
		}
		out[i].AverageScore += e.FinalScore
		out[i].Companies++
	}
	for i := range out {
		out[i].AverageScore /= float64(out[i].Companies)
	}
	slices.SortStableFunc(out, func(x, y SectorStat) int {
		if c := cmp.Compare(y.AverageScore, x.AverageScore); c != 0 {
			return c
		}
		return cmp.Compare(x.Sector, y.Sector)
	})
	return out
}

// TierCount is the number of companies in a rating tier.
type TierCount struct {
	Tier  string `json:"tier"`
	Count int    `json:"count"`
}

// RatingDistribution counts entries per tier, best tier first. Every tier is
// listed, including empty ones.
func (r *Ranking) RatingDistribution() []TierCount {
	tiers := []string{
		scoring.LabelExcellent,
		scoring.LabelGood,
		scoring.LabelAverage,
		scoring.LabelBelowAverage,
		scoring.LabelPoor,
	}
	counts := map[string]int{}
	for _, e := range r.Entries {
		counts[e.Tier]++
	}
	out := make([]TierCount, len(tiers))
	for i, t := range tiers {
		out[i] = TierCount{Tier: t, Count: counts[t]}
	}
	return out
}
