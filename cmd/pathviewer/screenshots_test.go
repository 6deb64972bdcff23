package main

import (
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writePriceCSV(t *testing.T, nPaths, nSteps int) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("path,step,price\n")
	for p := 0; p < nPaths; p++ {
		price := 100.0
		for s := 0; s < nSteps; s++ {
			fmt.Fprintf(&b, "%d,%d,%.4f\n", p, s, price)
			if (p+s)%2 == 0 {
				price *= 1.01
			} else {
				price *= 0.995
			}
		}
	}
	p := filepath.Join(t.TempDir(), "per_path_price_output.csv")
	if err := os.WriteFile(p, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return p
}

func TestRunScreenshotMode_WritesPNG(t *testing.T) {
	cfg := testConfig()
	cfg.File = writePriceCSV(t, 12, 40)
	cfg.KeepPaths = 5
	cfg.StepStride = 2
	cfg.Caption = true
	out := filepath.Join(t.TempDir(), "shots", "paths.png")
	if err := RunScreenshotMode(cfg, out); err != nil {
		t.Fatalf("screenshot: %v", err)
	}
	f, err := os.Open(out)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if b := img.Bounds(); b.Dx() != cfg.Width || b.Dy() != cfg.Height {
		t.Fatalf("unexpected bounds %v", b)
	}
}

func TestRunScreenshotMode_MissingFile(t *testing.T) {
	cfg := testConfig()
	cfg.File = filepath.Join(t.TempDir(), "missing.csv")
	out := filepath.Join(t.TempDir(), "paths.png")
	if err := RunScreenshotMode(cfg, out); err == nil {
		t.Fatalf("expected error for missing input")
	}
	if _, err := os.Stat(out); err == nil {
		t.Fatalf("no output should be written on error")
	}
}
