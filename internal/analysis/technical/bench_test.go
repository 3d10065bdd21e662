package technical

import (
	"math/rand"
	"testing"
	"time"

	"github.com/seenimoa/equiscore/pkg/models"
)

// benchBars creates a synthetic random walk of daily bars.
func benchBars(n int) []models.Bar {
	bars := make([]models.Bar, n)
	rng := rand.New(rand.NewSource(42))
	price := 2500.0
	t := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)

	for i := range bars {
		change := (rng.Float64() - 0.48) * 50 // slight upward bias
		open := price
		close := price + change
		high := max(open, close) + rng.Float64()*20
		low := min(open, close) - rng.Float64()*20
		bars[i] = models.NewBar(t, open, high, low, close, float64(rng.Intn(5_000_000)+100_000))
		price = close
		t = t.AddDate(0, 0, 1)
	}
	return bars
}

// ── Moving Average Benchmarks ──

func BenchmarkSMA20_500(b *testing.B) {
	data := models.Closes(benchBars(500))
	b.ResetTimer()
	for b.Loop() {
		SMA(data, 20)
	}
}

func BenchmarkSMA200_5000(b *testing.B) {
	data := models.Closes(benchBars(5000))
	b.ResetTimer()
	for b.Loop() {
		SMA(data, 200)
	}
}

func BenchmarkEWM26_500(b *testing.B) {
	data := models.Closes(benchBars(500))
	b.ResetTimer()
	for b.Loop() {
		EWM(data, 26)
	}
}

// ── Oscillator Benchmarks ──

func BenchmarkRSI14_500(b *testing.B) {
	data := models.Closes(benchBars(500))
	b.ResetTimer()
	for b.Loop() {
		RSI(data, 14)
	}
}

func BenchmarkMACD_500(b *testing.B) {
	data := models.Closes(benchBars(500))
	b.ResetTimer()
	for b.Loop() {
		MACD(data, 12, 26, 9)
	}
}

func BenchmarkBollingerBands_500(b *testing.B) {
	data := models.Closes(benchBars(500))
	b.ResetTimer()
	for b.Loop() {
		BollingerBands(data, 20, 2)
	}
}

func BenchmarkATR14_500(b *testing.B) {
	bars := benchBars(500)
	b.ResetTimer()
	for b.Loop() {
		ATR(bars, 14)
	}
}

// ── Aggregate Benchmarks ──

func BenchmarkComputeAll_2500(b *testing.B) {
	bars := benchBars(2500)
	p := DefaultParams()
	b.ResetTimer()
	for b.Loop() {
		ComputeAll(bars, p)
	}
}

func BenchmarkGenerateSignals(b *testing.B) {
	ind := ComputeAll(benchBars(500), DefaultParams())
	b.ResetTimer()
	for b.Loop() {
		GenerateSignals(ind)
	}
}
