package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/san-kum/unimpc/internal/viz"
)

// CanvasToSVG converts a Braille canvas to SVG format
func CanvasToSVG(canvas *viz.Canvas, scale float64) string {
	if canvas == nil {
		return ""
	}

	width := float64(canvas.Width) * scale * 2   // 2 sub-pixels per char
	height := float64(canvas.Height) * scale * 4 // 4 sub-pixels per char

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<g fill="#00ff00">
`, width, height, width, height)

	dotRadius := scale * 0.4
	for y := 0; y < canvas.Height*4; y++ {
		for x := 0; x < canvas.Width*2; x++ {
			if !canvas.IsSet(x, y) {
				continue
			}
			fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n",
				float64(x)*scale+scale/2, float64(y)*scale+scale/2, dotRadius)
		}
	}

	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// Style sets colors of a path plot.
type Style struct {
	Path       string
	Reference  string
	Background string
}

var DefaultStyle = Style{Path: "#00ccff", Reference: "#888899", Background: "#0a0a0a"}

// PathSVG writes the robot path as a solid line over the dashed reference,
// both in world coordinates fitted to a width x height image with y up.
func PathSVG(w io.Writer, path, ref []viz.Point, width, height int, style Style) error {
	if len(path) < 2 {
		return fmt.Errorf("need at least 2 path points, got %d", len(path))
	}

	all := append(append([]viz.Point{}, path...), ref...)
	minX, maxX, minY, maxY := bounds(all)

	// Add padding
	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	minY -= rangeY * 0.1
	rangeX *= 1.2
	rangeY *= 1.2

	// equal scale on both axes so circles stay round
	scale := min(float64(width)/rangeX, float64(height)/rangeY)
	project := func(p viz.Point) (float64, float64) {
		return (p.X - minX) * scale, float64(height) - (p.Y-minY)*scale
	}

	_, err := fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
`, width, height, width, height, style.Background)
	if err != nil {
		return err
	}

	if len(ref) >= 2 {
		if _, err := fmt.Fprintf(w, "<path fill=\"none\" stroke=\"%s\" stroke-width=\"1\" stroke-dasharray=\"4 3\" d=\"%s\"/>\n",
			style.Reference, pathData(ref, project)); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "<path fill=\"none\" stroke=\"%s\" stroke-width=\"1.5\" d=\"%s\"/>\n",
		style.Path, pathData(path, project)); err != nil {
		return err
	}

	sx, sy := project(path[0])
	_, err = fmt.Fprintf(w, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"3\" fill=\"%s\"/>\n</svg>\n", sx, sy, style.Path)
	return err
}

func pathData(pts []viz.Point, project func(viz.Point) (float64, float64)) string {
	var sb strings.Builder
	for i, p := range pts {
		x, y := project(p)
		if i == 0 {
			fmt.Fprintf(&sb, "M%.1f,%.1f", x, y)
		} else {
			fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
		}
	}
	return sb.String()
}

func bounds(pts []viz.Point) (minX, maxX, minY, maxY float64) {
	minX, maxX = pts[0].X, pts[0].X
	minY, maxY = pts[0].Y, pts[0].Y
	for _, p := range pts {
		minX, maxX = min(minX, p.X), max(maxX, p.X)
		minY, maxY = min(minY, p.Y), max(maxY, p.Y)
	}
	return
}
