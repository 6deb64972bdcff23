package main

import (
	"flag"
	"fmt"
	"image"
	png "image/png"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	fyne "fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"github.com/KamilKalowski/mc-sim/src/config"
	"github.com/KamilKalowski/mc-sim/src/logging"
	"github.com/KamilKalowski/mc-sim/src/paths"
)

const (
	keepPathsStep = 50
	keepPathsMax  = 5000
	maxRecent     = 10
)

var strideOptions = []string{"1", "2", "4", "8", "16"}

type uiState struct {
	app    fyne.App
	window fyne.Window

	cfg   *config.Configuration
	table *paths.Table
	stats paths.LoadStats

	// widgets
	chartCanvas *canvas.Image
	fileLabel   *widget.Label
	keepLabel   *widget.Label
	statusLabel *widget.Label
}

func main() {
	fs := flag.CommandLine
	configPath := fs.String("config", "", "Optional config file (yaml/json/toml)")
	fs.String("file", config.DefaultFile, "Path to per-path price CSV (columns path,step,price)")
	fs.Int("keep-paths", paths.DefaultOptions().KeepPaths, "Plot paths 0..N-1")
	fs.Int("step-stride", paths.DefaultOptions().StepStride, "Keep only steps divisible by this stride")
	fs.Int("chunksize", paths.DefaultOptions().ChunkSize, "Rows read per batch (memory bound only)")
	fs.String("title", config.DefaultTitle, "Chart title")
	fs.Float64("opacity", 0.4, "Line opacity in [0,1]")
	fs.Int("width", 0, "Chart width in px (0 = follow window)")
	fs.Int("height", 0, "Chart height in px (0 = follow window)")
	fs.Bool("caption", false, "Stamp a paths/points caption onto the chart")
	fs.String("log-level", "info", "Log level (debug|info|warn|error)")
	screenshot := fs.String("screenshot", "", "Render the chart headlessly to this PNG and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath, fs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	logging.SetLogLevel(cfg.LogLevel)

	if *screenshot != "" {
		if err := RunScreenshotMode(cfg, *screenshot); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("[viewer] wrote %s\n", *screenshot)
		return
	}

	runUI(cfg)
}

// runUI opens the viewer window. Settings left at their defaults are restored
// from the previous session.
func runUI(cfg *config.Configuration) {
	a := app.NewWithID("com.mcsim.pathviewer")
	w := a.NewWindow("MC Path Viewer")
	w.Resize(fyne.NewSize(1200, 800))

	state := &uiState{app: a, window: w, cfg: cfg, table: paths.NewTable()}
	loadPrefs(state)

	state.fileLabel = widget.NewLabel(shortenPath(state.cfg.File, 60))
	state.keepLabel = widget.NewLabel(strconv.Itoa(state.cfg.KeepPaths))
	state.statusLabel = widget.NewLabel("")

	setKeep := func(delta int) {
		if n := stepKeepPaths(state.cfg.KeepPaths, delta); n != state.cfg.KeepPaths {
			state.cfg.KeepPaths = n
			state.keepLabel.SetText(strconv.Itoa(n))
			savePrefs(state)
			loadAll(state)
		}
	}
	decK := widget.NewButton("-", func() { setKeep(-keepPathsStep) })
	incK := widget.NewButton("+", func() { setKeep(keepPathsStep) })
	strideSelect := widget.NewSelect(strideChoices(state.cfg.StepStride), nil)
	strideSelect.Selected = strconv.Itoa(state.cfg.StepStride)
	captionChk := widget.NewCheck("Caption", nil)
	captionChk.SetChecked(state.cfg.Caption)

	state.chartCanvas = canvas.NewImageFromImage(image.NewRGBA(image.Rect(0, 0, 100, 60)))
	state.chartCanvas.FillMode = canvas.ImageFillContain
	state.chartCanvas.SetMinSize(fyne.NewSize(1000, 450))

	top := container.NewHBox(
		widget.NewButton("Open…", func() { openFileDialog(state) }),
		widget.NewButton("Reload", func() { loadAll(state) }),
		widget.NewLabel("Paths:"), decK, state.keepLabel, incK,
		widget.NewLabel("Stride:"), strideSelect,
		captionChk,
		widget.NewLabel("File:"), state.fileLabel,
	)
	// redraw whenever the chart area changes width
	chartArea := container.New(&widthWatcher{onChange: func() {
		fyne.Do(func() { redrawChart(state) })
	}}, container.NewScroll(state.chartCanvas))
	w.SetContent(container.NewBorder(top, state.statusLabel, nil, nil, chartArea))

	// callbacks are wired after the canvas exists
	strideSelect.OnChanged = func(v string) {
		n, ok := parseStride(v)
		if !ok || n == state.cfg.StepStride {
			return
		}
		state.cfg.StepStride = n
		savePrefs(state)
		loadAll(state)
	}
	captionChk.OnChanged = func(b bool) {
		state.cfg.Caption = b
		savePrefs(state)
		redrawChart(state)
	}
	w.SetOnClosed(func() { savePrefs(state) })

	buildMenus(state)
	loadAll(state)
	w.ShowAndRun()
}

// menus and dialogs
func buildMenus(state *uiState) {
	if state == nil || state.window == nil || state.app == nil {
		return
	}
	var items []*fyne.MenuItem
	for _, f := range recentFiles(state) {
		f := f
		items = append(items, fyne.NewMenuItem(shortenPath(f, 60), func() { openPath(state, f) }))
	}
	clearRecent := fyne.NewMenuItem("Clear Recent", func() { clearRecentFiles(state); buildMenus(state) })
	recentMenu := fyne.NewMenu("Open Recent", append(items, clearRecent)...)
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Open…", func() { openFileDialog(state) }),
		fyne.NewMenuItem("Reload", func() { loadAll(state) }),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Export Chart PNG…", func() { exportChartPNG(state, "paths_chart.png") }),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Quit", func() { state.window.Close() }),
	)
	state.window.SetMainMenu(fyne.NewMainMenu(fileMenu, recentMenu))

	canv := state.window.Canvas()
	if canv != nil {
		for _, mod := range []fyne.KeyModifier{fyne.KeyModifierSuper, fyne.KeyModifierControl} {
			canv.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyO, Modifier: mod}, func(fyne.Shortcut) { openFileDialog(state) })
			canv.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyR, Modifier: mod}, func(fyne.Shortcut) { loadAll(state) })
			canv.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyW, Modifier: mod}, func(fyne.Shortcut) { state.window.Close() })
		}
	}
}

func openFileDialog(state *uiState) {
	d := dialog.NewFileOpen(func(rc fyne.URIReadCloser, err error) {
		if err != nil || rc == nil {
			return
		}
		p := rc.URI().Path()
		rc.Close()
		openPath(state, p)
	}, state.window)
	d.Show()
}

func openPath(state *uiState, p string) {
	state.cfg.File = p
	if state.fileLabel != nil {
		state.fileLabel.SetText(shortenPath(p, 60))
	}
	addRecentFile(state, p)
	savePrefs(state)
	buildMenus(state)
	loadAll(state)
}

// widthWatcher stretches its objects over the whole area and calls onChange
// when the width differs from the previous layout pass.
type widthWatcher struct {
	width    float32
	onChange func()
}

func (l *widthWatcher) Layout(objects []fyne.CanvasObject, size fyne.Size) {
	for _, o := range objects {
		o.Move(fyne.NewPos(0, 0))
		o.Resize(size)
	}
	if size.Width != l.width {
		l.width = size.Width
		if l.onChange != nil {
			l.onChange()
		}
	}
}

func (l *widthWatcher) MinSize(objects []fyne.CanvasObject) fyne.Size {
	ms := fyne.NewSize(0, 0)
	for _, o := range objects {
		ms = ms.Max(o.MinSize())
	}
	return ms
}

// loadAll reloads the subset and redraws. On error the previous chart stays.
func loadAll(state *uiState) {
	if state.cfg.File == "" {
		return
	}
	defer logging.TimeTrack(time.Now(), "[viewer] load "+state.cfg.File)
	tbl, st, err := paths.LoadSubsetWithStats(state.cfg.File, state.cfg.Options())
	if err != nil {
		logging.Errorf("[viewer] load %s: %v", state.cfg.File, err)
		if state.window != nil {
			dialog.ShowError(err, state.window)
		}
		return
	}
	state.table, state.stats = tbl, st
	logging.Infof("[viewer] loaded %d rows of %d paths (scanned %d rows in %d chunks, %s)",
		tbl.Len(), tbl.PathCount(), st.RowsScanned, st.Chunks, st.Elapsed.Round(time.Millisecond))
	if state.statusLabel != nil {
		state.statusLabel.SetText(statusText(state))
	}
	redrawChart(state)
}

func statusText(state *uiState) string {
	return fmt.Sprintf("%d paths, %d points | scanned %d rows in %d chunks | keep_paths=%d stride=%d",
		state.table.PathCount(), state.table.Len(), state.stats.RowsScanned, state.stats.Chunks,
		state.cfg.KeepPaths, state.cfg.StepStride)
}

func redrawChart(state *uiState) {
	img := renderPathsChart(state)
	if img == nil || state.chartCanvas == nil {
		return
	}
	state.chartCanvas.Image = img
	cw, chh := chartSize(state)
	state.chartCanvas.SetMinSize(fyne.NewSize(float32(cw), float32(chh)))
	state.chartCanvas.Refresh()
}

func exportChartPNG(state *uiState, defaultName string) {
	if state.chartCanvas == nil || state.chartCanvas.Image == nil {
		dialog.ShowInformation("Export", "No chart to export.", state.window)
		return
	}
	fsd := dialog.NewFileSave(func(wc fyne.URIWriteCloser, err error) {
		if err != nil || wc == nil {
			return
		}
		defer wc.Close()
		if err := png.Encode(wc, state.chartCanvas.Image); err != nil {
			dialog.ShowError(err, state.window)
		}
	}, state.window)
	fsd.SetFileName(defaultName)
	fsd.Show()
}

// recent files helpers
func recentFiles(state *uiState) []string {
	raw := state.app.Preferences().StringWithFallback("recentFiles", "")
	return existingPaths(strings.Split(raw, "\n"))
}

func existingPaths(list []string) []string {
	out := make([]string, 0, len(list))
	for _, p := range list {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err == nil {
			out = append(out, p)
		}
	}
	return out
}

func addRecentFile(state *uiState, p string) {
	list := pushRecent(recentFiles(state), p, maxRecent)
	state.app.Preferences().SetString("recentFiles", strings.Join(list, "\n"))
}

// pushRecent puts p first, drops duplicates and keeps at most n entries.
func pushRecent(list []string, p string, n int) []string {
	out := []string{p}
	for _, f := range list {
		if f != p && len(out) < n {
			out = append(out, f)
		}
	}
	return out
}

func clearRecentFiles(state *uiState) {
	state.app.Preferences().SetString("recentFiles", "")
}

func savePrefs(state *uiState) {
	if state == nil || state.app == nil {
		return
	}
	prefs := state.app.Preferences()
	prefs.SetString("lastFile", state.cfg.File)
	prefs.SetInt("keepPaths", state.cfg.KeepPaths)
	prefs.SetInt("stepStride", state.cfg.StepStride)
	prefs.SetBool("caption", state.cfg.Caption)
}

// loadPrefs restores the last session for every setting still at its default.
// Values from the config file, MCVIZ_* variables or flags are kept.
func loadPrefs(state *uiState) {
	if state == nil || state.app == nil {
		return
	}
	prefs := state.app.Preferences()
	cfg := state.cfg
	if !cfg.IsSet("file") {
		if f := prefs.StringWithFallback("lastFile", ""); f != "" {
			cfg.File = f
		}
	}
	if !cfg.IsSet("keep_paths") {
		if n := prefs.IntWithFallback("keepPaths", cfg.KeepPaths); n >= 0 {
			cfg.KeepPaths = n
		}
	}
	if !cfg.IsSet("step_stride") {
		if n := prefs.IntWithFallback("stepStride", cfg.StepStride); n >= 1 {
			cfg.StepStride = n
		}
	}
	if !cfg.IsSet("caption") {
		cfg.Caption = prefs.BoolWithFallback("caption", cfg.Caption)
	}
}

// stepKeepPaths moves n by delta within 0..keepPathsMax. A value already above
// the maximum (set by config) is never raised further and never snapped down.
func stepKeepPaths(n, delta int) int {
	next := n + delta
	switch {
	case next < 0:
		return 0
	case delta > 0 && next > keepPathsMax:
		if n >= keepPathsMax {
			return n
		}
		return keepPathsMax
	}
	return next
}

// strideChoices returns the stride menu, including current when it is not
// one of the presets.
func strideChoices(current int) []string {
	out := append([]string(nil), strideOptions...)
	cur := strconv.Itoa(current)
	for _, v := range out {
		if v == cur {
			return out
		}
	}
	out = append(out, cur)
	sort.Slice(out, func(i, j int) bool {
		a, _ := strconv.Atoi(out[i])
		b, _ := strconv.Atoi(out[j])
		return a < b
	})
	return out
}

func parseStride(v string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// shortenPath keeps the tail of p, so the file name survives, within n bytes.
func shortenPath(p string, n int) string {
	if len(p) <= n {
		return p
	}
	if tail := n - 3; tail >= len(filepath.Base(p)) {
		return "..." + p[len(p)-tail:]
	}
	return "..." + filepath.Base(p)
}
