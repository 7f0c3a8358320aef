// Package indicators provides windowed technical-analysis computations over
// price series. All functions return a slice aligned with the input: entries
// before the warm-up window are NaN so callers can tell "no value yet" apart
// from a real zero.
package indicators

import (
	"errors"
	"math"
)

// ErrInsufficientData is returned when a series is shorter than the
// indicator's warm-up window.
var ErrInsufficientData = errors.New("insufficient data for indicator")

// SMA computes the simple moving average with the given period.
func SMA(prices []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, errors.New("sma: period must be positive")
	}
	if len(prices) < period {
		return nil, ErrInsufficientData
	}

	out := nanSlice(len(prices))
	sum := 0.0
	for i, p := range prices {
		sum += p
		if i >= period {
			sum -= prices[i-period]
		}
		if i >= period-1 {
			out[i] = sum / float64(period)
		}
	}
	return out, nil
}

// EMA computes the exponential moving average, seeded with the SMA of the
// first period values.
func EMA(prices []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, errors.New("ema: period must be positive")
	}
	if len(prices) < period {
		return nil, ErrInsufficientData
	}

	out := nanSlice(len(prices))
	seed := 0.0
	for _, p := range prices[:period] {
		seed += p
	}
	prev := seed / float64(period)
	out[period-1] = prev

	multiplier := 2.0 / float64(period+1)
	for i := period; i < len(prices); i++ {
		prev = (prices[i]-prev)*multiplier + prev
		out[i] = prev
	}
	return out, nil
}

// RSI computes the Relative Strength Index using Wilder smoothing.
// Values range 0..100; an all-gain window yields 100.
func RSI(prices []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, errors.New("rsi: period must be positive")
	}
	if len(prices) < period+1 {
		return nil, ErrInsufficientData
	}

	out := nanSlice(len(prices))

	avgGain, avgLoss := 0.0, 0.0
	for i := 1; i <= period; i++ {
		change := prices[i] - prices[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss += -change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	out[period] = rsiValue(avgGain, avgLoss)

	for i := period + 1; i < len(prices); i++ {
		change := prices[i] - prices[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		out[i] = rsiValue(avgGain, avgLoss)
	}
	return out, nil
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// BollingerBands holds the three band series produced by Bollinger.
type BollingerBands struct {
	Upper  []float64
	Middle []float64
	Lower  []float64
}

// Bollinger computes Bollinger Bands: an SMA middle band with upper/lower
// bands stdDevs population standard deviations away.
func Bollinger(prices []float64, period int, stdDevs float64) (BollingerBands, error) {
	middle, err := SMA(prices, period)
	if err != nil {
		return BollingerBands{}, err
	}

	upper := nanSlice(len(prices))
	lower := nanSlice(len(prices))
	for i := period - 1; i < len(prices); i++ {
		mean := middle[i]
		variance := 0.0
		for _, p := range prices[i-period+1 : i+1] {
			d := p - mean
			variance += d * d
		}
		sd := math.Sqrt(variance / float64(period))
		upper[i] = mean + stdDevs*sd
		lower[i] = mean - stdDevs*sd
	}
	return BollingerBands{Upper: upper, Middle: middle, Lower: lower}, nil
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
