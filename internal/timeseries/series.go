// Package timeseries provides daily price series types and the alignment
// logic that reconciles assets trading on different calendars (equities on
// business days, crypto every day) onto a common date axis.
package timeseries

import (
	"math"
	"sort"
	"time"
)

// Point is a single daily closing price.
type Point struct {
	Date  time.Time `json:"date"`
	Price float64   `json:"price"`
}

// Series is an ordered sequence of daily closing prices for one symbol.
type Series []Point

// Day truncates a timestamp to its UTC calendar date. All series dates are
// normalized through this before comparison.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Sorted returns a copy of the series normalized to UTC dates and sorted
// ascending by date.
func (s Series) Sorted() Series {
	out := make(Series, len(s))
	for i, p := range s {
		out[i] = Point{Date: Day(p.Date), Price: p.Price}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// Returns computes daily simple returns from a price vector:
// r[t] = (p[t] − p[t−1]) / p[t−1]. The result has len(prices)−1 entries.
// Entries where either endpoint is undefined (NaN) or the previous price
// is zero are NaN.
func Returns(prices []float64) []float64 {
	if len(prices) < 2 {
		return nil
	}
	returns := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		prev, cur := prices[i-1], prices[i]
		if math.IsNaN(prev) || math.IsNaN(cur) || prev == 0 {
			returns[i-1] = math.NaN()
			continue
		}
		returns[i-1] = (cur - prev) / prev
	}
	return returns
}

// Defined filters NaN entries out of a vector.
func Defined(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// Overlap keeps only the index positions where both vectors are defined,
// returning the two filtered vectors. Used to restrict pairwise statistics
// to the shared date range.
func Overlap(x, y []float64) ([]float64, []float64) {
	n := len(x)
	if len(y) < n {
		n = len(y)
	}
	xs := make([]float64, 0, n)
	ys := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		xs = append(xs, x[i])
		ys = append(ys, y[i])
	}
	return xs, ys
}
