package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
)

// CSV file names written by WriteCSVDir.
const (
	PointsFile         = "points.csv"
	LinesFile          = "lines.csv"
	CurvePositionsFile = "curve_positions.csv"
)

func ftoa(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

// WritePointsCSV writes a header and one record per point.
func WritePointsCSV(w io.Writer, rows []PointRow) error {
	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"id", "x", "y", "z", "description", "hidden"})
	for _, r := range rows {
		_ = cw.Write([]string{strconv.Itoa(r.ID), ftoa(r.X), ftoa(r.Y), ftoa(r.Z), r.Description, strconv.FormatBool(r.Hidden)})
	}
	cw.Flush()
	return cw.Error()
}

// WriteLinesCSV writes a header and one record per line.
func WriteLinesCSV(w io.Writer, rows []LineRow) error {
	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"id", "start_id", "end_id", "start_z", "end_z", "description", "hidden"})
	for _, r := range rows {
		_ = cw.Write([]string{strconv.Itoa(r.ID), strconv.Itoa(r.StartID), strconv.Itoa(r.EndID),
			ftoa(r.StartZ), ftoa(r.EndZ), r.Description, strconv.FormatBool(r.Hidden)})
	}
	cw.Flush()
	return cw.Error()
}

// WriteCurvePositionsCSV writes a header and one record per curve position.
func WriteCurvePositionsCSV(w io.Writer, rows []CurvePosition) error {
	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"curve_id", "position", "point_id", "line_id"})
	for _, r := range rows {
		_ = cw.Write([]string{strconv.Itoa(r.CurveID), strconv.Itoa(r.Position), strconv.Itoa(r.PointID), strconv.Itoa(r.LineID)})
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVDir writes the three tables as CSV files into dir, creating it if needed.
func (t Tables) WriteCSVDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	writers := []struct {
		name  string
		write func(io.Writer) error
	}{
		{PointsFile, func(w io.Writer) error { return WritePointsCSV(w, t.Points) }},
		{LinesFile, func(w io.Writer) error { return WriteLinesCSV(w, t.Lines) }},
		{CurvePositionsFile, func(w io.Writer) error { return WriteCurvePositionsCSV(w, t.CurvePositions) }},
	}
	for _, wr := range writers {
		if err := writeFile(filepath.Join(dir, wr.name), wr.write); err != nil {
			return err
		}
	}
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
