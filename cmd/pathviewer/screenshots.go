package main

import (
	"bytes"
	"fmt"
	png "image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/KamilKalowski/mc-sim/src/config"
	"github.com/KamilKalowski/mc-sim/src/logging"
	"github.com/KamilKalowski/mc-sim/src/paths"
)

// RunScreenshotMode loads the configured subset and writes the chart to outPath
// as PNG. It runs headlessly without creating a UI window.
func RunScreenshotMode(cfg *config.Configuration, outPath string) error {
	defer logging.TimeTrack(time.Now(), "[viewer] screenshot "+outPath)
	if dir := filepath.Dir(outPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create out dir: %w", err)
		}
	}
	tbl, st, err := paths.LoadSubsetWithStats(cfg.File, cfg.Options())
	if err != nil {
		return err
	}
	logging.Infof("[viewer] loaded %d rows of %d paths for screenshot (scanned %d)", tbl.Len(), tbl.PathCount(), st.RowsScanned)
	state := &uiState{cfg: cfg, table: tbl, stats: st}
	img := renderPathsChart(state)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("png encode %s: %w", outPath, err)
	}
	if err := os.WriteFile(outPath, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", outPath, err)
	}
	return nil
}
