// Package paths loads a bounded subset of a per-path price CSV.
//
// The source file is produced by a Monte Carlo simulator and can hold millions
// of rows (one per path and step). LoadSubset streams it in fixed-size batches,
// keeps rows of the first KeepPaths paths whose step matches the stride, and
// returns them in file order. Memory stays at one batch plus the survivors.
package paths

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/KamilKalowski/mc-sim/src/logging"
)

// maxChunkPrealloc caps the initial batch buffer so huge ChunkSize values
// do not allocate up front.
const maxChunkPrealloc = 64 * 1024

// LoadStats describes one completed load.
type LoadStats struct {
	Chunks      int
	RowsScanned int
	RowsKept    int
	Elapsed     time.Duration
}

// LoadSubset reads the CSV at path and returns the rows selected by opts.
func LoadSubset(path string, opts Options) (*Table, error) {
	t, _, err := LoadSubsetWithStats(path, opts)
	return t, err
}

// LoadSubsetWithStats is LoadSubset plus counters for the load.
func LoadSubsetWithStats(path string, opts Options) (*Table, LoadStats, error) {
	if err := opts.Validate(); err != nil {
		return nil, LoadStats{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, LoadStats{}, err
	}
	defer f.Close()
	logging.Debugf("[paths] reading %s (keep_paths=%d, step_stride=%d, chunksize=%d)", path, opts.KeepPaths, opts.StepStride, opts.ChunkSize)
	t, st, err := load(f, opts)
	if err != nil {
		return nil, st, fmt.Errorf("%s: %w", path, err)
	}
	return t, st, nil
}

// LoadSubsetFrom is LoadSubset over an already opened reader. The caller owns r.
func LoadSubsetFrom(r io.Reader, opts Options) (*Table, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	t, _, err := load(r, opts)
	return t, err
}

// columnIndex holds the positions of the required columns in a record.
type columnIndex struct {
	path, step, price int
}

func (c columnIndex) width() int {
	w := c.path
	if c.step > w {
		w = c.step
	}
	if c.price > w {
		w = c.price
	}
	return w + 1
}

// locateColumns finds the required columns by name. Extra columns are ignored;
// for duplicated names the first occurrence wins.
func locateColumns(header []string) (columnIndex, error) {
	pos := map[string]int{}
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		name = strings.TrimSpace(name)
		if _, dup := pos[name]; !dup {
			pos[name] = i
		}
	}
	var idx columnIndex
	for _, c := range []struct {
		name string
		dst  *int
	}{{ColPath, &idx.path}, {ColStep, &idx.step}, {ColPrice, &idx.price}} {
		i, ok := pos[c.name]
		if !ok {
			return columnIndex{}, fmt.Errorf("%w: %q", ErrMissingColumn, c.name)
		}
		*c.dst = i
	}
	return idx, nil
}

func load(r io.Reader, opts Options) (*Table, LoadStats, error) {
	start := time.Now()
	var st LoadStats

	cr := csv.NewReader(r)
	cr.ReuseRecord = true
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, st, errors.New("empty input: no header row")
		}
		return nil, st, fmt.Errorf("read header: %w", err)
	}
	cols, err := locateColumns(header)
	if err != nil {
		return nil, st, err
	}

	prealloc := opts.ChunkSize
	if prealloc > maxChunkPrealloc {
		prealloc = maxChunkPrealloc
	}
	chunk := make([]Row, 0, prealloc)
	var parts [][]Row
	total := 0
	for {
		var done bool
		chunk, done, err = readChunk(cr, cols, opts.ChunkSize, st.RowsScanned, chunk[:0])
		if err != nil {
			return nil, st, err
		}
		if len(chunk) > 0 {
			st.Chunks++
			st.RowsScanned += len(chunk)
			if kept := FilterChunk(chunk, opts); len(kept) > 0 {
				parts = append(parts, kept)
				total += len(kept)
			}
		}
		if done {
			break
		}
	}

	t := &Table{Rows: make([]Row, 0, total)}
	for _, p := range parts {
		t.Rows = append(t.Rows, p...)
	}
	st.RowsKept = total
	st.Elapsed = time.Since(start)
	logging.Debugf("[paths] scanned %d rows in %d chunks, kept %d (%s)", st.RowsScanned, st.Chunks, st.RowsKept, st.Elapsed)
	return t, st, nil
}

// readChunk appends up to size parsed rows to buf. done is true once the
// input is exhausted. offset is the number of data rows read before this chunk.
func readChunk(cr *csv.Reader, cols columnIndex, size, offset int, buf []Row) ([]Row, bool, error) {
	need := cols.width()
	for len(buf) < size {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return buf, true, nil
		}
		if err != nil {
			return nil, false, fmt.Errorf("read row %d: %w", offset+len(buf)+1, err)
		}
		row, err := parseRow(rec, cols, need)
		if err != nil {
			return nil, false, fmt.Errorf("row %d: %w", offset+len(buf)+1, err)
		}
		buf = append(buf, row)
	}
	return buf, false, nil
}

func parseRow(rec []string, cols columnIndex, need int) (Row, error) {
	if len(rec) < need {
		return Row{}, fmt.Errorf("expected at least %d fields, got %d", need, len(rec))
	}
	p, err := strconv.ParseInt(strings.TrimSpace(rec[cols.path]), 10, 64)
	if err != nil {
		return Row{}, fmt.Errorf("column %q: %w", ColPath, err)
	}
	s, err := strconv.ParseInt(strings.TrimSpace(rec[cols.step]), 10, 64)
	if err != nil {
		return Row{}, fmt.Errorf("column %q: %w", ColStep, err)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(rec[cols.price]), 64)
	if err != nil {
		return Row{}, fmt.Errorf("column %q: %w", ColPrice, err)
	}
	return Row{Path: p, Step: s, Price: v}, nil
}

// FilterChunk returns the rows of chunk that opts keeps, in order. The
// result never aliases chunk, so chunk may be reused afterwards.
func FilterChunk(chunk []Row, opts Options) []Row {
	var kept []Row
	for _, r := range chunk {
		if opts.Keep(r) {
			kept = append(kept, r)
		}
	}
	return kept
}
