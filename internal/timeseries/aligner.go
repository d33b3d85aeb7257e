package timeseries

import (
	"math"
	"sort"
	"time"
)

// Aligned holds per-symbol price vectors over a shared date axis. Each
// vector has one entry per date; entries before a symbol's first known
// price are NaN and must be excluded from downstream computations.
type Aligned struct {
	Dates  []time.Time
	prices map[string][]float64
	index  map[time.Time]int
}

// Align merges per-symbol daily series onto the union of their dates
// within [start, end], forward-filling each symbol: a date's value is the
// most recent known price at or before that date. Alignment never
// back-fills: a past date never sees a future price. Dates before a
// symbol's first known price stay NaN.
//
// A price known before the window start seeds the fill, so a symbol whose
// calendar skips the first days of the window still gets values there.
func Align(seriesBySymbol map[string]Series, start, end time.Time) *Aligned {
	start, end = Day(start), Day(end)

	sorted := make(map[string]Series, len(seriesBySymbol))
	dateSet := make(map[time.Time]struct{})
	for symbol, series := range seriesBySymbol {
		s := series.Sorted()
		sorted[symbol] = s
		for _, p := range s {
			if p.Date.Before(start) || p.Date.After(end) {
				continue
			}
			dateSet[p.Date] = struct{}{}
		}
	}

	dates := make([]time.Time, 0, len(dateSet))
	for d := range dateSet {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	aligned := &Aligned{
		Dates:  dates,
		prices: make(map[string][]float64, len(sorted)),
		index:  make(map[time.Time]int, len(dates)),
	}
	for i, d := range dates {
		aligned.index[d] = i
	}

	for symbol, s := range sorted {
		values := make([]float64, len(dates))
		last := math.NaN()
		j := 0
		for i, d := range dates {
			for j < len(s) && !s[j].Date.After(d) {
				last = s[j].Price
				j++
			}
			values[i] = last
		}
		aligned.prices[symbol] = values
	}

	return aligned
}

// Symbols returns the symbols present in the aligned set.
func (a *Aligned) Symbols() []string {
	symbols := make([]string, 0, len(a.prices))
	for s := range a.prices {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return symbols
}

// Prices returns the forward-filled price vector for a symbol, one entry
// per date in Dates. Returns nil if the symbol was not aligned.
func (a *Aligned) Prices(symbol string) []float64 {
	return a.prices[symbol]
}

// PriceAt returns the forward-filled price for a symbol on a date. The
// second return is false when the date is not on the axis or the symbol
// has no price yet at that date.
func (a *Aligned) PriceAt(symbol string, date time.Time) (float64, bool) {
	i, ok := a.index[Day(date)]
	if !ok {
		return 0, false
	}
	values := a.prices[symbol]
	if values == nil || math.IsNaN(values[i]) {
		return 0, false
	}
	return values[i], true
}

// PriceAsOf returns the last defined price for a symbol at or before the
// given date, searching backwards along the axis. The second return is
// false when the symbol has no price at or before that date.
func (a *Aligned) PriceAsOf(symbol string, date time.Time) (float64, bool) {
	values := a.prices[symbol]
	if values == nil {
		return 0, false
	}
	day := Day(date)
	i := sort.Search(len(a.Dates), func(i int) bool { return a.Dates[i].After(day) }) - 1
	for ; i >= 0; i-- {
		if !math.IsNaN(values[i]) {
			return values[i], true
		}
	}
	return 0, false
}

// Returns computes the aligned daily return vector for a symbol
// (len(Dates)−1 entries, NaN where undefined).
func (a *Aligned) Returns(symbol string) []float64 {
	return Returns(a.prices[symbol])
}
