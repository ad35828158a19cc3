// Command calibtest calibrates a page image from two reference pairs and prints the transform
// together with round-trip residuals.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"plan-digitizer/internal/calibration"
	"plan-digitizer/internal/image"
	"plan-digitizer/pkg/geometry"
)

func main() {
	pagePath := flag.String("page", "", "Path to the page image (png, jpeg or tiff)")
	pixelArg := flag.String("pixel", "", "Pixel references x1,y1,x2,y2")
	realArg := flag.String("real", "", "Real references x1,y1,x2,y2")
	probeArg := flag.String("probe", "", "Extra pixel points to transform: x,y[;x,y...]")
	flag.Parse()

	if *pixelArg == "" || *realArg == "" {
		fmt.Println("Usage: calibtest -pixel x1,y1,x2,y2 -real x1,y1,x2,y2 [-page <image>] [-probe x,y;...]")
		os.Exit(1)
	}

	pixel, err := parsePair(*pixelArg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Bad -pixel: %v\n", err)
		os.Exit(1)
	}
	realRefs, err := parsePair(*realArg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Bad -real: %v\n", err)
		os.Exit(1)
	}

	if *pagePath != "" {
		page, err := image.Load(*pagePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load page: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("=== Page: %s ===\n", *pagePath)
		fmt.Printf("Format: %s, size %dx%d", page.Format, page.Width(), page.Height())
		if page.DPI > 0 {
			fmt.Printf(", %.0f DPI", page.DPI)
		}
		fmt.Println()
		if err := page.CheckClicks(pixel[0], pixel[1]); err != nil {
			fmt.Fprintf(os.Stderr, "Reference outside page: %v\n", err)
			os.Exit(1)
		}
	}

	t, err := calibration.CalculateTransformation(pixel, realRefs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Calibration failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\n=== Transform ===")
	for _, row := range t.Rows() {
		fmt.Printf("  [% .6f % .6f % .6f]\n", row[0], row[1], row[2])
	}
	fmt.Printf("Scale: %.6g real units/pixel\n", t.Scale())
	fmt.Printf("Rotation: %.4f deg\n", t.RotationDegrees())
	fmt.Printf("Residual: %.3g\n", calibration.Residual(t, pixel[:], realRefs[:]))

	inv, err := t.Inverse()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Inverse failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("\n=== Round trip ===")
	for i, p := range pixel {
		r := t.Apply(p)
		back := inv.Apply(r)
		fmt.Printf("  ref %d: pixel (%.2f, %.2f) -> real (%.4f, %.4f) -> pixel (%.2f, %.2f), drift %.2g\n",
			i+1, p.X, p.Y, r.X, r.Y, back.X, back.Y, p.Distance(back))
	}

	if *probeArg != "" {
		fmt.Println("\n=== Probes ===")
		for _, s := range strings.Split(*probeArg, ";") {
			p, err := parsePoint(s)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Bad probe %q: %v\n", s, err)
				continue
			}
			r := t.Apply(p)
			fmt.Printf("  pixel (%.2f, %.2f) -> real (%.4f, %.4f)\n", p.X, p.Y, r.X, r.Y)
		}
	}
}

func parseFloats(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	out := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func parsePair(s string) ([2]geometry.Point2D, error) {
	v, err := parseFloats(s)
	if err != nil {
		return [2]geometry.Point2D{}, err
	}
	if len(v) != 4 {
		return [2]geometry.Point2D{}, fmt.Errorf("want 4 values, got %d", len(v))
	}
	return [2]geometry.Point2D{{X: v[0], Y: v[1]}, {X: v[2], Y: v[3]}}, nil
}

func parsePoint(s string) (geometry.Point2D, error) {
	v, err := parseFloats(s)
	if err != nil {
		return geometry.Point2D{}, err
	}
	if len(v) != 2 {
		return geometry.Point2D{}, fmt.Errorf("want 2 values, got %d", len(v))
	}
	return geometry.Point2D{X: v[0], Y: v[1]}, nil
}
