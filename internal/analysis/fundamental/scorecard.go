package fundamental

import (
	"fmt"

	"github.com/seenimoa/equiscore/internal/scoring"
	"github.com/seenimoa/equiscore/pkg/models"
)

// Scorecard is the complete fundamental analysis of one company.
type Scorecard struct {
	Company   models.Company  `json:"company_info"`
	Year      int             `json:"year"`
	Metrics   Metrics         `json:"metrics"`
	Result    *scoring.Result `json:"score"`
	Quality   QualityScore    `json:"quality"`
	Intrinsic IntrinsicValue  `json:"intrinsic_value"`
}

// Analyze computes and scores the metrics of snap for baseYear (0 selects
// the latest year). A nil registry uses the default table.
func Analyze(snap *models.Snapshot, baseYear int, reg *scoring.Registry) (*Scorecard, error) {
	if reg == nil {
		reg = scoring.DefaultRegistry()
	}
	calc, err := NewCalculator(snap, baseYear)
	if err != nil {
		return nil, err
	}
	m := calc.Compute()
	res, err := reg.ScoreAll(m.Raw())
	if err != nil {
		return nil, fmt.Errorf("scoring %s: %w", snap.Company.Symbol, err)
	}
	return &Scorecard{
		Company:   snap.Company,
		Year:      calc.BaseYear,
		Metrics:   m,
		Result:    res,
		Quality:   calc.Quality(),
		Intrinsic: calc.Intrinsic(),
	}, nil
}
