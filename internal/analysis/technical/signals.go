package technical

import (
	"fmt"
	"math"
)

// SignalType is the direction a signal points.
type SignalType string

const (
	SignalBuy     SignalType = "BUY"
	SignalSell    SignalType = "SELL"
	SignalNeutral SignalType = "NEUTRAL"
)

// Signal is one indicator's reading of the latest bar.
type Signal struct {
	Source     string     `json:"source"`
	Type       SignalType `json:"type"`
	Confidence float64    `json:"confidence"`
	Reason     string     `json:"reason"`
	Price      float64    `json:"price"`
}

// Bias is the weighted aggregate of a set of signals.
type Bias struct {
	Type       SignalType `json:"type"`
	Label      string     `json:"label"`
	Confidence float64    `json:"confidence"`
	NetScore   float64    `json:"net_score"`
}

// GenerateSignals produces signals from the latest indicator readings.
// Indicators still in warm-up are skipped.
func GenerateSignals(ind *Indicators) []Signal {
	if ind == nil {
		return nil
	}
	lr := ind.Latest
	price := lr.Close
	var signals []Signal

	// --- RSI signals ---
	if !math.IsNaN(lr.RSI) {
		if lr.RSI < 30 {
			signals = append(signals, Signal{
				Source:     "RSI",
				Type:       SignalBuy,
				Confidence: 0.5 + (30-lr.RSI)/100,
				Reason:     fmt.Sprintf("RSI oversold at %.1f", lr.RSI),
				Price:      price,
			})
		} else if lr.RSI > 70 {
			signals = append(signals, Signal{
				Source:     "RSI",
				Type:       SignalSell,
				Confidence: 0.5 + (lr.RSI-70)/100,
				Reason:     fmt.Sprintf("RSI overbought at %.1f", lr.RSI),
				Price:      price,
			})
		}
	}

	// --- MACD signals ---
	// MACD has no warm-up, so require enough bars for the slow EWM to settle.
	if len(ind.Close) >= max(ind.Params.MACDSlow, 26) && price != 0 {
		m := lr.MACD
		if m.Histogram > 0 {
			signals = append(signals, Signal{
				Source:     "MACD",
				Type:       SignalBuy,
				Confidence: clampf(0.5+m.Histogram/price*100, 0, 1),
				Reason:     fmt.Sprintf("MACD above signal line (histogram: %.2f)", m.Histogram),
				Price:      price,
			})
		} else if m.Histogram < 0 {
			signals = append(signals, Signal{
				Source:     "MACD",
				Type:       SignalSell,
				Confidence: clampf(0.5-m.Histogram/price*100, 0, 1),
				Reason:     fmt.Sprintf("MACD below signal line (histogram: %.2f)", m.Histogram),
				Price:      price,
			})
		}
	}

	// --- Bollinger Band signals ---
	if bb := lr.Bollinger; !math.IsNaN(bb.Upper) && bb.Width > 0 {
		if price < bb.Lower {
			signals = append(signals, Signal{
				Source:     "Bollinger",
				Type:       SignalBuy,
				Confidence: 0.6,
				Reason:     fmt.Sprintf("Price (%.2f) below lower Bollinger Band (%.2f)", price, bb.Lower),
				Price:      price,
			})
		} else if price > bb.Upper {
			signals = append(signals, Signal{
				Source:     "Bollinger",
				Type:       SignalSell,
				Confidence: 0.6,
				Reason:     fmt.Sprintf("Price (%.2f) above upper Bollinger Band (%.2f)", price, bb.Upper),
				Price:      price,
			})
		}
	}

	// --- Moving Average crossover signals ---
	sma50, ok50 := lr.MA[50]
	sma200, ok200 := lr.MA[200]
	if ok50 && ok200 && !math.IsNaN(sma50) && !math.IsNaN(sma200) {
		if sma50 > sma200 && price > sma50 {
			signals = append(signals, Signal{
				Source:     "MA_Golden_Cross",
				Type:       SignalBuy,
				Confidence: 0.7,
				Reason:     fmt.Sprintf("SMA50 (%.2f) above SMA200 (%.2f), golden cross", sma50, sma200),
				Price:      price,
			})
		} else if sma50 < sma200 && price < sma50 {
			signals = append(signals, Signal{
				Source:     "MA_Death_Cross",
				Type:       SignalSell,
				Confidence: 0.7,
				Reason:     fmt.Sprintf("SMA50 (%.2f) below SMA200 (%.2f), death cross", sma50, sma200),
				Price:      price,
			})
		}
	}

	// --- Price vs SMA20 ---
	if sma20, ok := lr.MA[20]; ok && !math.IsNaN(sma20) && sma20 != 0 {
		pctDiff := (price - sma20) / sma20 * 100
		if pctDiff < -3 {
			signals = append(signals, Signal{
				Source:     "SMA20",
				Type:       SignalBuy,
				Confidence: clampf(0.4+(-pctDiff)/20, 0, 0.9),
				Reason:     fmt.Sprintf("Price %.1f%% below SMA20 (%.2f)", pctDiff, sma20),
				Price:      price,
			})
		} else if pctDiff > 5 {
			signals = append(signals, Signal{
				Source:     "SMA20",
				Type:       SignalSell,
				Confidence: clampf(0.4+pctDiff/20, 0, 0.9),
				Reason:     fmt.Sprintf("Price %.1f%% above SMA20 (%.2f)", pctDiff, sma20),
				Price:      price,
			})
		}
	}

	return signals
}

// sourceWeights weight signals during aggregation; unknown sources weigh 1.
var sourceWeights = map[string]float64{
	"RSI":             1.0,
	"MACD":            1.2,
	"Bollinger":       0.8,
	"MA_Golden_Cross": 1.3,
	"MA_Death_Cross":  1.3,
	"SMA20":           0.7,
}

// AggregateSignal computes a weighted aggregate from multiple signals.
func AggregateSignal(signals []Signal) Bias {
	if len(signals) == 0 {
		return Bias{Type: SignalNeutral, Label: "Neutral"}
	}

	var buyScore, sellScore, totalWeight float64
	for _, sig := range signals {
		w := sourceWeights[sig.Source]
		if w == 0 {
			w = 1.0
		}
		switch sig.Type {
		case SignalBuy:
			buyScore += w * sig.Confidence
		case SignalSell:
			sellScore += w * sig.Confidence
		}
		totalWeight += w
	}

	netScore := (buyScore - sellScore) / totalWeight // -1 to +1 range

	switch {
	case netScore > 0.3:
		return Bias{SignalBuy, "Strong Bullish", clampf(0.7+netScore*0.3, 0, 1), netScore}
	case netScore > 0.1:
		return Bias{SignalBuy, "Bullish", clampf(0.5+netScore*0.3, 0, 1), netScore}
	case netScore < -0.3:
		return Bias{SignalSell, "Strong Bearish", clampf(0.7-netScore*0.3, 0, 1), netScore}
	case netScore < -0.1:
		return Bias{SignalSell, "Bearish", clampf(0.5-netScore*0.3, 0, 1), netScore}
	default:
		return Bias{SignalNeutral, "Neutral", 0.4, netScore}
	}
}

// SummarizeSignals returns a one-line count of signals by direction.
func SummarizeSignals(signals []Signal) string {
	buy, sell, neutral := 0, 0, 0
	for _, s := range signals {
		switch s.Type {
		case SignalBuy:
			buy++
		case SignalSell:
			sell++
		default:
			neutral++
		}
	}
	return fmt.Sprintf("%d buy, %d sell, %d neutral signals", buy, sell, neutral)
}

func clampf(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
