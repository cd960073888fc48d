// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Oct 17th 2026
// Project: A Monte Carlo Study of Robust Regression under Heavy-Tailed Noise
// Class: 02-613 at Caregie Mellon University

package main

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	_ "gonum.org/v1/plot/vg/vgimg" // png backend
)

// methodColors keeps one colour per estimator across all figures
var methodColors = map[string]color.Color{
	"OLS":   color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff},
	"LAD":   color.RGBA{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff},
	"Huber": color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff},
}

// FigureName is the file name of the (gamma, snr) small multiple
func FigureName(gamma, snr float64) string {
	return fmt.Sprintf("mse_vs_df_gamma%s_snr%s.png", formatFloat(gamma), formatFloat(snr))
}

// dfPositions places the df values on evenly spaced categorical x positions,
// so df = inf gets the last slot instead of an infinite coordinate
func dfPositions(rows []SummaryRow) ([]float64, map[float64]float64) {
	seen := make(map[float64]bool)
	var dfs []float64
	for _, s := range rows {
		if !seen[s.DF] {
			seen[s.DF] = true
			dfs = append(dfs, s.DF)
		}
	}
	sort.Float64s(dfs)

	pos := make(map[float64]float64, len(dfs))
	for i, df := range dfs {
		pos[df] = float64(i)
	}
	return dfs, pos
}

// PlotMSEvsDF writes one PNG per (gamma, snr) with mean mse against df,
// one line per method. width and height are in inches.
// Returns the paths of the files written.
func PlotMSEvsDF(rows []SummaryRow, outDir string, width, height float64) ([]string, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("no summary rows to plot")
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", outDir, err)
	}

	dfs, pos := dfPositions(rows)
	ticks := make([]plot.Tick, len(dfs))
	for i, df := range dfs {
		ticks[i] = plot.Tick{Value: float64(i), Label: formatFloat(df)}
	}

	// Group by (gamma, snr), keeping the summary order
	type panelKey struct{ gamma, snr float64 }
	var order []panelKey
	panels := make(map[panelKey][]SummaryRow)
	for _, s := range rows {
		k := panelKey{s.Gamma, s.SNR}
		if _, ok := panels[k]; !ok {
			order = append(order, k)
		}
		panels[k] = append(panels[k], s)
	}

	var written []string
	for _, k := range order {
		p := plot.New()
		p.Title.Text = fmt.Sprintf("MSE vs Tail Heaviness (γ=%s, SNR=%s)", formatFloat(k.gamma), formatFloat(k.snr))
		p.X.Label.Text = "Degrees of Freedom (df)"
		p.Y.Label.Text = "Mean Squared Error (MSE)"
		p.X.Tick.Marker = plot.ConstantTicks(ticks)
		p.X.Min, p.X.Max = -0.5, float64(len(dfs))-0.5
		p.Legend.Top = true
		p.Add(plotter.NewGrid())

		// One line per method
		byMethod := make(map[string]plotter.XYs)
		var methods []string
		for _, s := range panels[k] {
			if math.IsNaN(s.MeanMSE) || math.IsInf(s.MeanMSE, 0) {
				continue
			}
			if _, ok := byMethod[s.Method]; !ok {
				methods = append(methods, s.Method)
			}
			byMethod[s.Method] = append(byMethod[s.Method], plotter.XY{X: pos[s.DF], Y: s.MeanMSE})
		}

		for _, m := range methods {
			xys := byMethod[m]
			sort.Slice(xys, func(i, j int) bool { return xys[i].X < xys[j].X })

			line, points, err := plotter.NewLinePoints(xys)
			if err != nil {
				return written, fmt.Errorf("plot %s (gamma=%g, snr=%g): %w", m, k.gamma, k.snr, err)
			}
			c, ok := methodColors[m]
			if !ok {
				c = color.Black
			}
			line.Color = c
			points.Color = c
			points.Shape = draw.CircleGlyph{}
			p.Add(line, points)
			p.Legend.Add(m, line, points)
		}

		path := filepath.Join(outDir, FigureName(k.gamma, k.snr))
		if err := p.Save(vg.Length(width)*vg.Inch, vg.Length(height)*vg.Inch, path); err != nil {
			return written, fmt.Errorf("save %s: %w", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}
