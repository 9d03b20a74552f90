package main

import (
	"fmt"
	"math"
	"os"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/unimpc/internal/export"
	"github.com/san-kum/unimpc/internal/storage"
	"github.com/san-kum/unimpc/internal/viz"
)

var svgOut string

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTRAJ\tCTRL\tTIME\tDURATION\tDT\tRMSE\tFAILED")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2fs\t%.3fs\t%.4f\t%d\n",
			run.ID,
			run.Trajectory,
			run.Controller,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Metrics["tracking_rmse"],
			run.FailedTicks,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	series, err := st.LoadStates(runID)
	if err != nil {
		return err
	}

	if len(series.States) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("trajectory: %s  controller: %s\n", meta.Trajectory, meta.Controller)
	fmt.Printf("samples: %d\n\n", len(series.States))

	fmt.Println(pathView(series))

	captions := []string{"x", "y", "theta"}
	for i, caption := range captions {
		data := column(series.States, i)
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(caption+" vs time"),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	if len(series.Controls) > 1 {
		graph := asciigraph.PlotMany([][]float64{column(series.Controls, 0), column(series.Controls, 1)},
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.SeriesColors(asciigraph.Default, asciigraph.Red),
			asciigraph.Caption("v (default) and omega (red)"),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	if errs := trackingErrors(series); len(errs) > 1 {
		graph := asciigraph.Plot(errs,
			asciigraph.Height(8),
			asciigraph.Width(80),
			asciigraph.Caption("position error"),
		)
		fmt.Println(graph)
	}

	return nil
}

// pathView draws the robot path solid and the reference dotted.
func pathView(series *storage.Series) string {
	canvas := viz.NewCanvas(60, 20)
	path, ref := points(series)

	view := viz.FitViewport(canvas, append(append([]viz.Point{}, path...), ref...))
	canvas.Dotted(view, ref)
	canvas.Polyline(view, path)
	return canvas.String()
}

func points(series *storage.Series) (path, ref []viz.Point) {
	path = make([]viz.Point, len(series.States))
	for i, x := range series.States {
		path[i] = viz.Point{X: x[0], Y: x[1]}
	}
	ref = make([]viz.Point, len(series.Refs))
	for i, r := range series.Refs {
		ref[i] = viz.Point{X: r[0], Y: r[1]}
	}
	return path, ref
}

func column(rows [][]float64, i int) []float64 {
	out := make([]float64, len(rows))
	for r, row := range rows {
		if i < len(row) {
			out[r] = row[i]
		}
	}
	return out
}

func trackingErrors(series *storage.Series) []float64 {
	n := min(len(series.Refs), len(series.States))
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = math.Hypot(series.States[i][0]-series.Refs[i][0], series.States[i][1]-series.Refs[i][1])
	}
	return out
}

func exportRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	series, err := st.LoadStates(runID)
	if err != nil {
		return err
	}

	if svgOut != "" {
		f, err := os.Create(svgOut)
		if err != nil {
			return err
		}
		defer f.Close()
		path, ref := points(series)
		return export.PathSVG(f, path, ref, 800, 600, export.DefaultStyle)
	}

	return storage.ExportJSON(os.Stdout, *meta, series.Result(*meta))
}
