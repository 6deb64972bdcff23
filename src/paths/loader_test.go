package paths

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

// writeCSV writes content to a temp file and returns its path.
func writeCSV(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "per_path_price_output.csv")
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return p
}

// writeGrid writes nPaths x nSteps rows in simulator order (path-major) with
// price = path*1000 + step.
func writeGrid(t *testing.T, nPaths, nSteps int) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("path,step,price\n")
	for p := 0; p < nPaths; p++ {
		for s := 0; s < nSteps; s++ {
			fmt.Fprintf(&b, "%d,%d,%g\n", p, s, float64(p*1000+s))
		}
	}
	return writeCSV(t, b.String())
}

func opts(keep, stride, chunk int) Options {
	return Options{KeepPaths: keep, StepStride: stride, ChunkSize: chunk}
}

func TestLoadSubset_Example(t *testing.T) {
	p := writeCSV(t, "path,step,price\n0,0,1.0\n1,1,2.0\n0,2,3.0\n")
	tbl, err := LoadSubset(p, opts(1, 2, 200_000))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := []Row{{0, 0, 1.0}, {0, 2, 3.0}}
	if !reflect.DeepEqual(tbl.Rows, want) {
		t.Fatalf("unexpected rows: got %+v want %+v", tbl.Rows, want)
	}
}

func TestLoadSubset_KeepZeroIsEmptyWithColumns(t *testing.T) {
	p := writeGrid(t, 20, 50)
	tbl, err := LoadSubset(p, opts(0, 1, 7))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tbl == nil {
		t.Fatalf("expected non-nil empty table")
	}
	if tbl.Len() != 0 {
		t.Fatalf("expected 0 rows, got %d", tbl.Len())
	}
	if got := tbl.Columns(); !reflect.DeepEqual(got, []string{"path", "step", "price"}) {
		t.Fatalf("unexpected columns %v", got)
	}
}

func TestLoadSubset_Invariants(t *testing.T) {
	p := writeGrid(t, 30, 40)
	cases := []struct {
		keep, stride int
	}{
		{1, 1}, {5, 1}, {5, 3}, {10, 4}, {30, 7}, {100, 2},
	}
	for _, c := range cases {
		tbl, err := LoadSubset(p, opts(c.keep, c.stride, 13))
		if err != nil {
			t.Fatalf("keep=%d stride=%d: %v", c.keep, c.stride, err)
		}
		expected := 0
		for pp := 0; pp < 30 && pp < c.keep; pp++ {
			for s := 0; s < 40; s++ {
				if c.stride <= 1 || s%c.stride == 0 {
					expected++
				}
			}
		}
		if tbl.Len() != expected {
			t.Fatalf("keep=%d stride=%d: expected %d rows got %d", c.keep, c.stride, expected, tbl.Len())
		}
		for i, r := range tbl.Rows {
			if r.Path >= int64(c.keep) {
				t.Fatalf("row %d path %d not below keep_paths=%d", i, r.Path, c.keep)
			}
			if c.stride > 1 && r.Step%int64(c.stride) != 0 {
				t.Fatalf("row %d step %d not divisible by stride %d", i, r.Step, c.stride)
			}
			if r.Price != float64(r.Path*1000+r.Step) {
				t.Fatalf("row %d price mismatch: %+v", i, r)
			}
			if i > 0 {
				prev := tbl.Rows[i-1]
				if prev.Path > r.Path || (prev.Path == r.Path && prev.Step >= r.Step) {
					t.Fatalf("file order broken at row %d: %+v then %+v", i, prev, r)
				}
			}
		}
	}
}

func TestLoadSubset_ChunkSizeDoesNotChangeResult(t *testing.T) {
	// Interleaved layout (step-major) so chunk boundaries cut across paths.
	var b strings.Builder
	b.WriteString("path,step,price\n")
	for s := 0; s < 25; s++ {
		for p := 0; p < 9; p++ {
			fmt.Fprintf(&b, "%d,%d,%d.5\n", p, s, p+s)
		}
	}
	path := writeCSV(t, b.String())
	ref, err := LoadSubset(path, opts(4, 3, 1_000_000))
	if err != nil {
		t.Fatalf("reference load: %v", err)
	}
	for _, cs := range []int{1, 2, 3, 8, 9, 10, 224, 225, 226} {
		got, err := LoadSubset(path, opts(4, 3, cs))
		if err != nil {
			t.Fatalf("chunksize=%d: %v", cs, err)
		}
		if !reflect.DeepEqual(got.Rows, ref.Rows) {
			t.Fatalf("chunksize=%d changed result: got %d rows want %d", cs, got.Len(), ref.Len())
		}
	}
}

func TestLoadSubsetWithStats_Counts(t *testing.T) {
	p := writeGrid(t, 4, 10)
	tbl, st, err := LoadSubsetWithStats(p, opts(2, 1, 15))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if st.RowsScanned != 40 {
		t.Fatalf("expected 40 rows scanned, got %d", st.RowsScanned)
	}
	if st.Chunks != 3 {
		t.Fatalf("expected 3 chunks (15+15+10), got %d", st.Chunks)
	}
	if st.RowsKept != 20 || tbl.Len() != 20 {
		t.Fatalf("expected 20 rows kept, stats=%d table=%d", st.RowsKept, tbl.Len())
	}
}

func TestLoadSubset_ExtraColumnsAnyOrder(t *testing.T) {
	p := writeCSV(t, "\ufeffprice,label,step,path,weight\n10.5,a,0,0,1\n11.5,b,1,0,1\n99,c,0,5,1\n")
	tbl, err := LoadSubset(p, opts(1, 1, 2))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := []Row{{0, 0, 10.5}, {0, 1, 11.5}}
	if !reflect.DeepEqual(tbl.Rows, want) {
		t.Fatalf("unexpected rows: %+v", tbl.Rows)
	}
}

func TestLoadSubset_NegativePathsNotRetained(t *testing.T) {
	p := writeCSV(t, "path,step,price\n-1,0,1\n0,0,2\n")
	tbl, err := LoadSubset(p, opts(1, 1, 10))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tbl.Len() != 1 || tbl.Rows[0].Path != 0 {
		t.Fatalf("expected only path 0, got %+v", tbl.Rows)
	}
}

func TestLoadSubset_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadSubset(filepath.Join(t.TempDir(), "nope.csv"), DefaultOptions())
		if !errors.Is(err, os.ErrNotExist) {
			t.Fatalf("expected not-exist error, got %v", err)
		}
	})
	t.Run("missing column", func(t *testing.T) {
		p := writeCSV(t, "path,step,value\n0,0,1\n")
		_, err := LoadSubset(p, DefaultOptions())
		if !errors.Is(err, ErrMissingColumn) {
			t.Fatalf("expected ErrMissingColumn, got %v", err)
		}
		if !strings.Contains(err.Error(), `"price"`) {
			t.Fatalf("error should name the column: %v", err)
		}
	})
	t.Run("empty file", func(t *testing.T) {
		p := writeCSV(t, "")
		if _, err := LoadSubset(p, DefaultOptions()); err == nil {
			t.Fatalf("expected error for empty file")
		}
	})
	t.Run("malformed value", func(t *testing.T) {
		p := writeCSV(t, "path,step,price\n0,0,1\n0,x,2\n")
		_, err := LoadSubset(p, DefaultOptions())
		if err == nil || !strings.Contains(err.Error(), "row 2") || !strings.Contains(err.Error(), `"step"`) {
			t.Fatalf("expected row 2 step parse error, got %v", err)
		}
	})
	t.Run("malformed value outside retained set", func(t *testing.T) {
		// Parsing happens before filtering, so unretained rows still fail.
		p := writeCSV(t, "path,step,price\n0,0,1\n9,0,abc\n")
		if _, err := LoadSubset(p, opts(1, 1, 1)); err == nil {
			t.Fatalf("expected price parse error")
		}
	})
	t.Run("ragged record", func(t *testing.T) {
		p := writeCSV(t, "path,step,price\n0,0,1\n0,1\n")
		if _, err := LoadSubset(p, DefaultOptions()); err == nil {
			t.Fatalf("expected csv field count error")
		}
	})
	t.Run("header only", func(t *testing.T) {
		p := writeCSV(t, "path,step,price\n")
		tbl, err := LoadSubset(p, DefaultOptions())
		if err != nil {
			t.Fatalf("header-only file should load: %v", err)
		}
		if tbl.Len() != 0 || len(tbl.Columns()) != 3 {
			t.Fatalf("expected empty table with 3 columns")
		}
	})
}

func TestLoadSubset_InvalidOptions(t *testing.T) {
	p := writeGrid(t, 2, 2)
	for _, o := range []Options{opts(-1, 1, 1), opts(1, 0, 1), opts(1, -3, 1), opts(1, 1, 0)} {
		if _, err := LoadSubset(p, o); !errors.Is(err, ErrInvalidOptions) {
			t.Fatalf("options %+v: expected ErrInvalidOptions, got %v", o, err)
		}
		if _, err := LoadSubsetFrom(strings.NewReader("path,step,price\n"), o); !errors.Is(err, ErrInvalidOptions) {
			t.Fatalf("reader options %+v: expected ErrInvalidOptions, got %v", o, err)
		}
	}
}

func TestLoadSubsetFrom_Reader(t *testing.T) {
	in := "path,step,price\n0,0,100\n0,1,101.25\n1,0,100\n"
	tbl, err := LoadSubsetFrom(strings.NewReader(in), opts(200, 1, 1))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tbl.Len() != 3 || tbl.Rows[1].Price != 101.25 {
		t.Fatalf("unexpected rows %+v", tbl.Rows)
	}
}

func TestFilterChunk_DoesNotAlias(t *testing.T) {
	chunk := []Row{{0, 0, 1}, {1, 0, 2}, {0, 1, 3}}
	kept := FilterChunk(chunk, opts(1, 1, 3))
	chunk[0].Price = 42
	if len(kept) != 2 || kept[0].Price != 1 {
		t.Fatalf("filtered rows alias the input chunk: %+v", kept)
	}
	if FilterChunk(chunk, opts(0, 1, 3)) != nil {
		t.Fatalf("expected nil for nothing kept")
	}
}
