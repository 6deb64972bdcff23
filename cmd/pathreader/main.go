package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/KamilKalowski/mc-sim/src/config"
	"github.com/KamilKalowski/mc-sim/src/logging"
	"github.com/KamilKalowski/mc-sim/src/paths"
)

func main() {
	fs := flag.CommandLine
	configPath := fs.String("config", "", "Optional config file (yaml/json/toml)")
	fs.String("file", config.DefaultFile, "Path to per-path price CSV")
	fs.Int("keep-paths", paths.DefaultOptions().KeepPaths, "Load paths 0..N-1")
	fs.Int("step-stride", paths.DefaultOptions().StepStride, "Keep only steps divisible by this stride")
	fs.Int("chunksize", paths.DefaultOptions().ChunkSize, "Rows read per batch")
	fs.String("log-level", "info", "Log level (debug|info|warn|error)")
	flag.Parse()

	cfg, err := config.Load(*configPath, fs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	logging.SetLogLevel(cfg.LogLevel)
	if err := run(cfg, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg *config.Configuration, w io.Writer) error {
	tbl, st, err := paths.LoadSubsetWithStats(cfg.File, cfg.Options())
	if err != nil {
		return err
	}
	logging.Debugf("[reader] %s: %d chunks, %d rows scanned", cfg.File, st.Chunks, st.RowsScanned)
	return writeReport(w, tbl, st)
}

// writeReport prints totals followed by one line per path.
func writeReport(w io.Writer, tbl *paths.Table, st paths.LoadStats) error {
	fmt.Fprintf(w, "Rows scanned: %d\n", st.RowsScanned)
	fmt.Fprintf(w, "Rows kept: %d\n", tbl.Len())
	fmt.Fprintf(w, "Paths: %d\n", tbl.PathCount())
	sums := tbl.Summarize()
	if len(sums) == 0 {
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "path\tpoints\tfirst_step\tlast_step\tmin_price\tmax_price\tfinal_price")
	for _, s := range sums {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%d\t%.4f\t%.4f\t%.4f\n", s.Path, s.Points, s.FirstStep, s.LastStep, s.MinPrice, s.MaxPrice, s.FinalPrice)
	}
	return tw.Flush()
}
