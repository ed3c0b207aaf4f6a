package signals

import "math"

// Frequency counts exact line texts across one document. It is built fresh
// per document and never shared between documents.
type Frequency map[string]int

// Add records one occurrence of text.
func (f Frequency) Add(text string) { f[text]++ }

// IsRepeated reports whether text occurs more than once in the document,
// the mark of running headers and footers.
func (f Frequency) IsRepeated(text string) bool { return f[text] > 1 }

// RoundSize rounds a font size to one decimal place.
func RoundSize(s float64) float64 { return math.Round(s*10) / 10 }

// DominantSize returns the most frequent size, rounded to one decimal. Ties go
// to the size seen first. An empty input yields 0.
func DominantSize(sizes []float64) float64 {
	counts := make(map[float64]int, len(sizes))
	order := make([]float64, 0, len(sizes))
	for _, s := range sizes {
		s = RoundSize(s)
		if counts[s] == 0 {
			order = append(order, s)
		}
		counts[s]++
	}
	var best float64
	bestN := 0
	for _, s := range order {
		if counts[s] > bestN {
			best, bestN = s, counts[s]
		}
	}
	return best
}
