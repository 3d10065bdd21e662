package report

import (
	"bytes"
	"fmt"
	"html/template"
	"sync"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"

	"github.com/seenimoa/equiscore/internal/analysis/fundamental"
	"github.com/seenimoa/equiscore/pkg/utils"
)

var (
	markdown = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	)
	page = sync.OnceValue(func() *template.Template {
		return template.Must(template.New("page").Parse(pageTemplate))
	})
)

type pageData struct {
	Title     string
	Generated string
	Body      template.HTML
	Charts    []template.HTML
}

// RenderHTML converts md to HTML and wraps it in a standalone page. Charts
// are inline SVG documents appended after the body.
func RenderHTML(title, md string, generated time.Time, charts ...string) (string, error) {
	var body bytes.Buffer
	if err := markdown.Convert([]byte(md), &body); err != nil {
		return "", fmt.Errorf("converting markdown: %w", err)
	}

	data := pageData{
		Title:     title,
		Generated: utils.FormatDateTimeIST(generated),
		Body:      template.HTML(body.String()),
	}
	for _, c := range charts {
		if c != "" {
			data.Charts = append(data.Charts, template.HTML(c))
		}
	}

	var out bytes.Buffer
	if err := page().Execute(&out, data); err != nil {
		return "", fmt.Errorf("executing template: %w", err)
	}
	return out.String(), nil
}

// ScoreHTML renders the scorecard page with its gauge, category and
// metric charts.
func ScoreHTML(card *fundamental.Scorecard, generated time.Time) (string, error) {
	if card == nil || card.Result == nil {
		return "", fmt.Errorf("scorecard is nil")
	}
	title := fmt.Sprintf("%s: Fundamental Analysis", card.Company.Symbol)
	return RenderHTML(title, ScoreMarkdown(card, generated), generated,
		GaugeChart(card.Result.FinalScore, "Fundamental Score", 240),
		CategoryChart(card.Result, ChartConfig{}),
		MetricScoreChart(card.Result, ChartConfig{}),
	)
}
