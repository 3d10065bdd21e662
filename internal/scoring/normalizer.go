package scoring

import "math"

// Interpretation labels attached to normalized scores.
const (
	LabelMissing      = "Missing Data"
	LabelExcellent    = "Excellent"
	LabelVeryGood     = "Very Good"
	LabelGood         = "Good"
	LabelAverage      = "Average"
	LabelBelowAverage = "Below Average"
	LabelPoor         = "Poor"
)

// ScoredMetric is one raw metric mapped onto the 0-100 scale.
type ScoredMetric struct {
	Name           string    `json:"name"`
	Label          string    `json:"label"`
	Unit           string    `json:"unit,omitempty"`
	Category       Category  `json:"category"`
	Direction      Direction `json:"direction"`
	Weight         float64   `json:"weight"`
	RawValue       float64   `json:"raw_value"`
	Score          float64   `json:"normalized_score"`
	Interpretation string    `json:"interpretation"`
}

// Contribution is the metric's share of the final score.
func (s ScoredMetric) Contribution() float64 {
	return s.Score * s.Weight
}

// Missing reports whether the raw value was treated as absent.
func (s ScoredMetric) Missing() bool {
	return s.Interpretation == LabelMissing
}

// Normalize looks up name and scores value against it.
func (r *Registry) Normalize(name string, value float64) (ScoredMetric, error) {
	def, err := r.Lookup(name)
	if err != nil {
		return ScoredMetric{}, err
	}
	return Normalize(def, value), nil
}

// Normalize maps a raw value onto [0,100] using the bands of def.
//
// A raw value of exactly zero (or NaN) is missing data and scores 0.
// +Inf saturates: 100 for higher-is-better, 0 for lower-is-better.
func Normalize(def MetricDefinition, value float64) ScoredMetric {
	s := ScoredMetric{
		Name:      def.Name,
		Label:     def.Label,
		Unit:      def.Unit,
		Category:  def.Category,
		Direction: def.Direction,
		Weight:    def.Weight,
		RawValue:  value,
	}

	if value == 0 || math.IsNaN(value) {
		s.Score, s.Interpretation = 0, LabelMissing
		return s
	}

	var score float64
	if def.Direction == LowerIsBetter {
		score, s.Interpretation = scoreLower(def, value)
	} else {
		score, s.Interpretation = scoreHigher(def, value)
	}
	s.Score = clamp(score, 0, 100)
	return s
}

func scoreHigher(def MetricDefinition, v float64) (float64, string) {
	imin, imax, amin := def.IdealMin, def.IdealMax, def.AcceptableMin

	switch {
	case math.IsInf(v, 1) || v >= imax:
		return 100, LabelExcellent
	case math.IsInf(v, -1):
		return 0, LabelPoor
	case v >= imin:
		return lerp(80, 100, v-imin, imax-imin), LabelVeryGood
	case v >= amin:
		score := lerp(40, 80, v-amin, imin-amin)
		if score >= 60 {
			return score, LabelGood
		}
		return score, LabelAverage
	}

	score := 0.0
	if amin > 0 {
		score = math.Max(0, v/amin*40)
	}
	if score >= 20 {
		return score, LabelBelowAverage
	}
	return score, LabelPoor
}

func scoreLower(def MetricDefinition, v float64) (float64, string) {
	imin, imax, amax := def.IdealMin, def.IdealMax, def.EffectiveAcceptableMax()

	switch {
	case math.IsInf(v, 1):
		return 0, LabelPoor
	case math.IsInf(v, -1) || v <= imin:
		return 100, LabelExcellent
	case v <= imax:
		return lerp(80, 100, imax-v, imax-imin), LabelVeryGood
	case v <= amax:
		score := lerp(40, 80, amax-v, amax-imax)
		if score >= 60 {
			return score, LabelGood
		}
		return score, LabelAverage
	}

	score := 0.0
	if amax != 0 {
		score = math.Max(0, 40*(1-(v-amax)/amax))
	}
	if score >= 20 {
		return score, LabelBelowAverage
	}
	return score, LabelPoor
}

// lerp maps offset/width onto [lo,hi]. A zero-width band saturates to hi.
func lerp(lo, hi, offset, width float64) float64 {
	if width == 0 {
		return hi
	}
	return lo + offset/width*(hi-lo)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
