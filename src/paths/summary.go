package paths

import "math"

// PathSummary aggregates the loaded points of one path.
type PathSummary struct {
	Path       int64
	Points     int
	FirstStep  int64
	LastStep   int64
	MinPrice   float64
	MaxPrice   float64
	FinalPrice float64 // price at the last loaded row of the path
}

// Summarize returns one summary per path in first-appearance order.
func (t *Table) Summarize() []PathSummary {
	if t.Len() == 0 {
		return nil
	}
	index := map[int64]int{}
	var out []PathSummary
	for _, r := range t.Rows {
		i, ok := index[r.Path]
		if !ok {
			i = len(out)
			index[r.Path] = i
			out = append(out, PathSummary{
				Path:      r.Path,
				FirstStep: r.Step,
				MinPrice:  math.Inf(1),
				MaxPrice:  math.Inf(-1),
			})
		}
		s := &out[i]
		s.Points++
		s.LastStep = r.Step
		s.FinalPrice = r.Price
		if r.Price < s.MinPrice {
			s.MinPrice = r.Price
		}
		if r.Price > s.MaxPrice {
			s.MaxPrice = r.Price
		}
	}
	return out
}

// PriceRange returns the min and max price over all rows. ok is false for an empty table.
func (t *Table) PriceRange() (min, max float64, ok bool) {
	if t.Len() == 0 {
		return 0, 0, false
	}
	min, max = math.Inf(1), math.Inf(-1)
	for _, r := range t.Rows {
		if r.Price < min {
			min = r.Price
		}
		if r.Price > max {
			max = r.Price
		}
	}
	return min, max, true
}
