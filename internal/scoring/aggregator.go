package scoring

import (
	"sort"
	"time"
)

// CategoryScore is the weighted contribution of one category. Score is not
// re-normalized to 0-100; PercentOfMax is.
type CategoryScore struct {
	Category     Category `json:"category"`
	Score        float64  `json:"score"`
	Weight       float64  `json:"weight"`
	MaxPossible  float64  `json:"max_possible"`
	PercentOfMax float64  `json:"percent_of_max"`
	NumMetrics   int      `json:"num_metrics"`
	Rating       string   `json:"rating"`
}

// Recommendation is the investment call derived from the final score.
type Recommendation struct {
	Action  string `json:"action"`
	Summary string `json:"summary"`
}

// Result holds a complete scoring run.
type Result struct {
	Metrics        []ScoredMetric  `json:"metrics"`
	Categories     []CategoryScore `json:"categories"`
	FinalScore     float64         `json:"final_score"`
	Tier           string          `json:"tier"`
	OverallRating  string          `json:"overall_rating"`
	Recommendation Recommendation  `json:"recommendation"`
	ScoredAt       time.Time       `json:"scored_at"`
}

// Metric returns the scored metric with the given name.
func (r *Result) Metric(name string) (ScoredMetric, bool) {
	for _, m := range r.Metrics {
		if m.Name == name {
			return m, true
		}
	}
	return ScoredMetric{}, false
}

// Category returns the score of category c.
func (r *Result) Category(c Category) (CategoryScore, bool) {
	for _, cs := range r.Categories {
		if cs.Category == c {
			return cs, true
		}
	}
	return CategoryScore{}, false
}

// Strengths returns the n highest-scoring metrics.
func (r *Result) Strengths(n int) []ScoredMetric {
	sorted := r.sortedByScore()
	return sorted[:min(n, len(sorted))]
}

// Weaknesses returns the n lowest-scoring metrics, lowest first.
func (r *Result) Weaknesses(n int) []ScoredMetric {
	sorted := r.sortedByScore()
	out := make([]ScoredMetric, 0, min(n, len(sorted)))
	for i := len(sorted) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, sorted[i])
	}
	return out
}

// MissingCount returns how many metrics were scored as missing data.
func (r *Result) MissingCount() int {
	n := 0
	for _, m := range r.Metrics {
		if m.Missing() {
			n++
		}
	}
	return n
}

func (r *Result) sortedByScore() []ScoredMetric {
	sorted := make([]ScoredMetric, len(r.Metrics))
	copy(sorted, r.Metrics)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})
	return sorted
}

// ScoreAll normalizes raw values and aggregates them. Registered metrics
// absent from raw are scored as missing data; unregistered names are an
// error.
func (r *Registry) ScoreAll(raw map[string]float64) (*Result, error) {
	for name := range raw {
		if _, ok := r.byName[name]; !ok {
			return nil, &UnknownMetricError{Name: name, Known: r.Names()}
		}
	}
	scored := make([]ScoredMetric, 0, len(r.defs))
	for _, d := range r.defs {
		scored = append(scored, Normalize(d, raw[d.Name]))
	}
	return Aggregate(scored, r), nil
}

// Aggregate reduces scored metrics into category scores and the final score.
// The final score is the direct weighted sum over metrics; category scores
// are informational and do not feed back into it.
func Aggregate(scored []ScoredMetric, reg *Registry) *Result {
	res := &Result{
		Metrics:  scored,
		ScoredAt: time.Now(),
	}

	byCat := make(map[Category]*CategoryScore, len(Categories))
	for _, c := range Categories {
		byCat[c] = &CategoryScore{Category: c, Weight: reg.CategoryWeight(c)}
	}

	for _, m := range scored {
		res.FinalScore += m.Contribution()
		cs, ok := byCat[m.Category]
		if !ok {
			continue
		}
		cs.Score += m.Contribution()
		cs.NumMetrics++
	}

	for _, c := range Categories {
		cs := byCat[c]
		cs.MaxPossible = cs.Weight * 100
		if cs.MaxPossible > 0 {
			cs.PercentOfMax = cs.Score / cs.MaxPossible * 100
		}
		cs.Rating = Tier(cs.PercentOfMax)
		res.Categories = append(res.Categories, *cs)
	}

	res.Tier = Tier(res.FinalScore)
	res.OverallRating = OverallRating(res.FinalScore)
	res.Recommendation = Recommend(res.FinalScore)
	return res
}

// Tier maps a 0-100 value onto the five rating tiers.
func Tier(x float64) string {
	switch {
	case x >= 80:
		return LabelExcellent
	case x >= 60:
		return LabelGood
	case x >= 40:
		return LabelAverage
	case x >= 20:
		return LabelBelowAverage
	default:
		return LabelPoor
	}
}

// OverallRating returns the descriptive rating for a final score.
func OverallRating(final float64) string {
	switch Tier(final) {
	case LabelExcellent:
		return "Excellent - Strong fundamentals across the board"
	case LabelGood:
		return "Good - Solid company with minor weaknesses"
	case LabelAverage:
		return "Average - Mixed signals, requires deeper analysis"
	case LabelBelowAverage:
		return "Below Average - Significant concerns"
	default:
		return "Poor - Weak fundamentals"
	}
}

// Recommend derives the investment recommendation for a final score.
func Recommend(final float64) Recommendation {
	switch Tier(final) {
	case LabelExcellent:
		return Recommendation{"STRONG BUY", "Excellent fundamentals across all categories. Strong financial health, high profitability, robust growth, and good efficiency."}
	case LabelGood:
		return Recommendation{"BUY", "Good fundamentals with solid performance in most categories. Some minor areas of concern but overall strong company."}
	case LabelAverage:
		return Recommendation{"HOLD", "Mixed fundamentals. Company shows strength in some areas but has notable weaknesses requiring attention."}
	case LabelBelowAverage:
		return Recommendation{"SELL", "Below average fundamentals. Significant concerns across multiple categories suggest caution."}
	default:
		return Recommendation{"STRONG SELL", "Poor fundamentals. Weak performance across most categories indicates high risk."}
	}
}
