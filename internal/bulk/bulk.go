// Package bulk scores many companies concurrently and ranks them.
package bulk

import (
	"cmp"
	"context"
	"fmt"
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/equiscore/internal/analysis/fundamental"
	"github.com/seenimoa/equiscore/internal/scoring"
	"github.com/seenimoa/equiscore/pkg/logger"
	"github.com/seenimoa/equiscore/pkg/models"
)

// Options configure an Analyzer.
type Options struct {
	Workers  int               // concurrent scorers; defaults to GOMAXPROCS
	BaseYear int               // 0 selects each company's latest year
	Registry *scoring.Registry // nil uses the default table
	Log      *logger.Logger

	// Progress, when set, is called once per company as it finishes.
	// Calls are serialised.
	Progress func(Progress)
}

// Progress reports one finished company of a running bulk job.
type Progress struct {
	RunID  string  `json:"run_id"`
	Symbol string  `json:"symbol"`
	Done   int     `json:"done"`
	Total  int     `json:"total"`
	Score  float64 `json:"score,omitempty"`
	Error  string  `json:"error,omitempty"`
}

// Analyzer runs bulk scoring.
type Analyzer struct {
	workers  int
	baseYear int
	reg      *scoring.Registry
	log      *logger.Logger
	progress func(Progress)
}

// New creates an Analyzer.
func New(opts Options) *Analyzer {
	a := &Analyzer{
		workers:  opts.Workers,
		baseYear: opts.BaseYear,
		reg:      opts.Registry,
		log:      opts.Log,
		progress: opts.Progress,
	}
	if a.workers <= 0 {
		a.workers = runtime.GOMAXPROCS(0)
	}
	if a.reg == nil {
		a.reg = scoring.DefaultRegistry()
	}
	if a.log == nil {
		a.log = logger.Nop()
	}
	return a
}

// Entry is one ranked company.
type Entry struct {
	Rank         int                          `json:"rank"`
	Symbol       string                       `json:"symbol"`
	Company      string                       `json:"company"`
	Sector       string                       `json:"sector"`
	Industry     string                       `json:"industry"`
	CurrentPrice float64                      `json:"current_price"`
	MarketCap    float64                      `json:"market_cap"`
	FinalScore   float64                      `json:"final_score"`
	Tier         string                       `json:"tier"`
	Rating       string                       `json:"rating"`
	Action       string                       `json:"action"`
	Categories   map[scoring.Category]float64 `json:"category_scores"`
	Card         *fundamental.Scorecard       `json:"-"`
}

// Failure records a company that could not be scored.
type Failure struct {
	Symbol  string `json:"symbol"`
	Company string `json:"company"`
	Reason  string `json:"error"`
	cause   error
}

// Cause returns the error that stopped the company from being scored.
func (f Failure) Cause() error { return f.cause }

// Ranking is the result of a bulk run.
type Ranking struct {
	RunID       string        `json:"run_id"`
	GeneratedAt time.Time     `json:"generated_at"`
	BaseYear    int           `json:"base_year,omitempty"`
	Elapsed     time.Duration `json:"elapsed"`
	Entries     []Entry       `json:"entries"`
	Failures    []Failure     `json:"failures,omitempty"`
}

// Run scores each snapshot independently. Per-company failures are
// collected in the ranking; only cancellation of ctx fails the run.
func (a *Analyzer) Run(ctx context.Context, snaps []models.Snapshot) (*Ranking, error) {
	start := time.Now()
	runID := uuid.NewString()
	log := a.log.WithFields(map[string]any{"run_id": runID, "companies": len(snaps), "workers": a.workers})
	log.Info("bulk run started")

	cards := make([]*fundamental.Scorecard, len(snaps))
	var (
		mu       sync.Mutex
		failures []Failure
		done     int
	)
	report := func(p Progress) {
		mu.Lock()
		defer mu.Unlock()
		done++
		if a.progress != nil {
			p.RunID, p.Done, p.Total = runID, done, len(snaps)
			a.progress(p)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i := range snaps {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			snap := &snaps[i]
			card, err := fundamental.Analyze(snap, a.baseYear, a.reg)
			if err != nil {
				log.WithField("symbol", snap.Company.Symbol).WithError(err).Warn("company not scored")
				mu.Lock()
				failures = append(failures, Failure{
					Symbol:  snap.Company.Symbol,
					Company: snap.Company.Name,
					Reason:  err.Error(),
					cause:   err,
				})
				mu.Unlock()
				report(Progress{Symbol: snap.Company.Symbol, Error: err.Error()})
				return nil // non-fatal
			}
			cards[i] = card
			report(Progress{Symbol: snap.Company.Symbol, Score: card.Result.FinalScore})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("bulk run %s: %w", runID, err)
	}

	r := &Ranking{
		RunID:       runID,
		GeneratedAt: start,
		BaseYear:    a.baseYear,
		Failures:    failures,
	}
	for _, card := range cards {
		if card != nil {
			r.Entries = append(r.Entries, newEntry(card))
		}
	}
	rank(r.Entries)
	slices.SortFunc(r.Failures, func(x, y Failure) int { return cmp.Compare(x.Symbol, y.Symbol) })
	r.Elapsed = time.Since(start)

	log.WithFields(map[string]any{"scored": len(r.Entries), "failed": len(r.Failures)}).Info("bulk run finished")
	return r, nil
}

func newEntry(card *fundamental.Scorecard) Entry {
	res := card.Result
	e := Entry{
		Symbol:       card.Company.Symbol,
		Company:      card.Company.Name,
		Sector:       card.Company.SectorOrNA(),
		Industry:     card.Company.Industry,
		CurrentPrice: card.Company.CurrentPrice,
		MarketCap:    card.Company.MarketCap,
		FinalScore:   res.FinalScore,
		Tier:         res.Tier,
		Rating:       res.OverallRating,
		Action:       res.Recommendation.Action,
		Categories:   make(map[scoring.Category]float64, len(res.Categories)),
		Card:         card,
	}
	if e.Industry == "" {
		e.Industry = "N/A"
	}
	for _, c := range res.Categories {
		e.Categories[c.Category] = c.Score
	}
	return e
}

// rank sorts entries by final score, highest first, and assigns 1-based
// ranks. Ties keep symbol order.
func rank(entries []Entry) {
	slices.SortStableFunc(entries, func(x, y Entry) int {
		if c := cmp.Compare(y.FinalScore, x.FinalScore); c != 0 {
			return c
		}
		return cmp.Compare(x.Symbol, y.Symbol)
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
}
