package paths

// Column names required in the source file. Only these are read.
const (
	ColPath  = "path"
	ColStep  = "step"
	ColPrice = "price"
)

var columnNames = [...]string{ColPath, ColStep, ColPrice}

// Row is one (path, step, price) triple from the source file.
type Row struct {
	Path  int64
	Step  int64
	Price float64
}

// Table is the accumulated result of a subset load. Rows are kept in
// source file order. A Table with zero rows still reports its columns.
type Table struct {
	Rows []Row
}

// NewTable returns an empty table with the standard columns.
func NewTable() *Table { return &Table{Rows: []Row{}} }

// Columns returns the column names, in order.
func (t *Table) Columns() []string {
	out := make([]string, len(columnNames))
	copy(out, columnNames[:])
	return out
}

// Len returns the number of rows; a nil table has none.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// PathSeries holds the points of one path, ready for plotting (x=step, y=price).
type PathSeries struct {
	Path   int64
	Steps  []float64
	Prices []float64
}

// GroupByPath splits the table into one series per distinct path. Series
// appear in order of each path's first row; points keep table order.
func (t *Table) GroupByPath() []PathSeries {
	if t.Len() == 0 {
		return nil
	}
	index := map[int64]int{}
	var out []PathSeries
	for _, r := range t.Rows {
		i, ok := index[r.Path]
		if !ok {
			i = len(out)
			index[r.Path] = i
			out = append(out, PathSeries{Path: r.Path})
		}
		out[i].Steps = append(out[i].Steps, float64(r.Step))
		out[i].Prices = append(out[i].Prices, r.Price)
	}
	return out
}

// PathCount returns the number of distinct paths in the table.
func (t *Table) PathCount() int {
	if t.Len() == 0 {
		return 0
	}
	seen := make(map[int64]struct{})
	for _, r := range t.Rows {
		seen[r.Path] = struct{}{}
	}
	return len(seen)
}
