package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"plan-digitizer/internal/app"
	"plan-digitizer/internal/audit"
	"plan-digitizer/internal/config"
	"plan-digitizer/internal/edit"
	"plan-digitizer/internal/export"
	"plan-digitizer/internal/logging"
	"plan-digitizer/internal/version"
	"plan-digitizer/pkg/geometry"

	"github.com/spf13/cobra"
)

// cfg is filled by setup before any subcommand runs.
var cfg = config.Default()

func setup(cmd *cobra.Command, _ []string) error {
	path, _ := cmd.Flags().GetString("config")
	loaded, err := config.Load(path)
	if err != nil {
		return err
	}
	cfg = loaded
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.LogLevel = level
	}
	handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: logging.ParseLevel(cfg.LogLevel)})
	logging.SetLogger(slog.New(handler))
	return nil
}

func openState(path string) (*app.State, error) {
	s := app.NewState(cfg)
	if err := s.LoadProject(path); err != nil {
		return nil, err
	}
	return s, nil
}

func save(cmd *cobra.Command, s *app.State) error {
	out, _ := cmd.Flags().GetString("output")
	if err := s.SaveProject(out); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "saved %s\n", s.ProjectPath)
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runAudit(cmd *cobra.Command, args []string) error {
	s, err := openState(args[0])
	if err != nil {
		return err
	}
	report := audit.Run(s.Project, audit.Options{OverlapTolerance: cfg.OverlapTolerance})

	w := cmd.OutOrStdout()
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		if err := printJSON(w, report); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(w, "%d points, %d lines, %d curves\n", report.Points, report.Lines, report.Curves)
		for _, is := range report.Issues {
			fmt.Fprintf(w, "  [%s] %s\n", is.Kind, is.Message)
		}
		if report.Clean() {
			fmt.Fprintln(w, "no issues")
		}
	}
	if strict, _ := cmd.Flags().GetBool("strict"); strict && !report.Clean() {
		return fmt.Errorf("%d issue(s) found", len(report.Issues))
	}
	return nil
}

func runTrace(cmd *cobra.Command, args []string) error {
	start, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid point id %q: %w", args[1], err)
	}
	s, err := openState(args[0])
	if err != nil {
		return err
	}
	depth, _ := cmd.Flags().GetInt("max-depth")
	if depth <= 0 {
		depth = cfg.TraceMaxDepth
	}

	trace := audit.TraceDirectional
	if undirected, _ := cmd.Flags().GetBool("undirected"); undirected {
		trace = audit.TraceConnected
	}
	res, err := trace(s.Project, start, depth)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return printJSON(w, res)
	}
	fmt.Fprintf(w, "points:    %v\n", res.Points)
	fmt.Fprintf(w, "lines:     %v\n", res.Lines)
	fmt.Fprintf(w, "curves:    %v\n", res.Curves)
	fmt.Fprintf(w, "endpoints: %v\n", res.Endpoints)
	fmt.Fprintf(w, "branches:  %v\n", res.Branches)
	if res.Truncated {
		fmt.Fprintf(w, "stopped at depth %d\n", depth)
	}
	return nil
}

func runMigrate(cmd *cobra.Command, args []string) error {
	s, err := openState(args[0])
	if err != nil {
		return err
	}
	r := s.LastMigration
	w := cmd.OutOrStdout()
	for _, c := range r.Curves {
		fmt.Fprintf(w, "curve %d: matched %d, synthesized %d, base line created %t\n",
			c.CurveID, c.Matched, c.Synthesized, c.BaseLineCreated)
	}
	for _, id := range r.Skipped {
		fmt.Fprintf(w, "curve %d: skipped, no arc data\n", id)
	}
	if !r.Changed() {
		fmt.Fprintln(w, "already up to date")
		return nil
	}
	return save(cmd, s)
}

func runMerge(cmd *cobra.Command, args []string) error {
	s, err := openState(args[0])
	if err != nil {
		return err
	}
	decimals, _ := cmd.Flags().GetInt("decimals")
	if decimals < 0 {
		decimals = cfg.MergeDecimals
	}
	var res edit.MergeResult
	if err := s.Apply(func(e *edit.Editor) error {
		res, err = e.MergeDuplicatePoints(decimals)
		return err
	}); err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	for _, msg := range res.Warnings {
		fmt.Fprintln(w, "warning:", msg)
	}
	fmt.Fprintf(w, "merged %d group(s), removed %d line(s)\n", len(res.Merged), len(res.RemovedLines))
	return save(cmd, s)
}

func interiorFlag(cmd *cobra.Command) int {
	n, _ := cmd.Flags().GetInt("interior")
	if n < 0 {
		n = cfg.InteriorCount
	}
	return n
}

func runNormalize(cmd *cobra.Command, args []string) error {
	s, err := openState(args[0])
	if err != nil {
		return err
	}
	var changed []int
	if err := s.Apply(func(e *edit.Editor) error {
		changed, err = e.NormalizeCurves(interiorFlag(cmd))
		return err
	}); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "normalized %d curve(s)\n", len(changed))
	return save(cmd, s)
}

func runExport(cmd *cobra.Command, args []string) error {
	dir, _ := cmd.Flags().GetString("csv")
	toSQL, _ := cmd.Flags().GetBool("sql")
	if dir == "" && !toSQL {
		return errors.New("nothing to do: pass --csv <dir> and/or --sql")
	}
	s, err := openState(args[0])
	if err != nil {
		return err
	}
	n := interiorFlag(cmd)
	if normalize, _ := cmd.Flags().GetBool("normalize"); normalize {
		// Interpolated points only reach the export; the project file is not rewritten.
		if err := s.Apply(func(e *edit.Editor) error {
			_, err := e.NormalizeCurves(n)
			return err
		}); err != nil {
			return err
		}
	}
	tables := export.Build(s.Project, n)
	w := cmd.OutOrStdout()

	if dir != "" {
		if err := tables.WriteCSVDir(dir); err != nil {
			return err
		}
		fmt.Fprintf(w, "wrote CSV to %s\n", dir)
	}
	if toSQL {
		driver, _ := cmd.Flags().GetString("driver")
		if driver == "" {
			driver = cfg.Export.Driver
		}
		dsn, _ := cmd.Flags().GetString("dsn")
		if dsn == "" {
			dsn = cfg.Export.DSN
		}
		ctx := context.Background()
		sink, err := export.OpenSQL(ctx, driver, dsn)
		if err != nil {
			return err
		}
		defer func() { _ = sink.Close() }()
		if err := sink.Write(ctx, tables); err != nil {
			return err
		}
		fmt.Fprintf(w, "wrote %d points, %d lines, %d curve positions via %s\n",
			len(tables.Points), len(tables.Lines), len(tables.CurvePositions), driver)
	}
	return nil
}

func pair(values []float64, name string) ([2]geometry.Point2D, error) {
	if len(values) != 4 {
		return [2]geometry.Point2D{}, fmt.Errorf("--%s needs 4 values x1,y1,x2,y2, got %d", name, len(values))
	}
	return [2]geometry.Point2D{{X: values[0], Y: values[1]}, {X: values[2], Y: values[3]}}, nil
}

func runCalibrate(cmd *cobra.Command, args []string) error {
	pixelVals, _ := cmd.Flags().GetFloat64Slice("pixel")
	realVals, _ := cmd.Flags().GetFloat64Slice("real")
	pixel, err := pair(pixelVals, "pixel")
	if err != nil {
		return err
	}
	realRefs, err := pair(realVals, "real")
	if err != nil {
		return err
	}

	s, err := openState(args[0])
	if err != nil {
		return err
	}
	if page, _ := cmd.Flags().GetString("page"); page != "" {
		if err := s.LoadPage(page); err != nil {
			return err
		}
	}
	t, err := s.Calibrate(pixel, realRefs)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "scale %.6g, rotation %.4f deg\n", t.Scale(), t.RotationDegrees())
	return save(cmd, s)
}

func runVersion(cmd *cobra.Command) error {
	_, err := fmt.Fprintln(cmd.OutOrStdout(), version.String())
	return err
}
