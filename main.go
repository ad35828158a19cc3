// Package main provides the entry point for the digitizer command line.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "digitizer",
		Short: "Inspect and maintain digitized plan projects",
		Long: `digitizer works on project files produced by the plan digitizer: calibrated
points, lines and curves traced from a page image at one or more elevations.

Commands load a project (migrating legacy curves on the way), run one operation
and, where the operation changes the project, save it back.`,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
	}
	rootCmd.PersistentFlags().String("config", "", "Path to YAML config (default: built-in settings)")
	rootCmd.PersistentFlags().String("log-level", "", "Override log level: debug|info|warn|error")

	auditCmd := &cobra.Command{
		Use:   "audit <project>",
		Short: "Report elevation mismatches and structural problems",
		Args:  cobra.ExactArgs(1),
		RunE:  runAudit,
	}
	auditCmd.Flags().Bool("json", false, "Print the report as JSON")
	auditCmd.Flags().Bool("strict", false, "Exit with an error when any issue is found")

	traceCmd := &cobra.Command{
		Use:   "trace <project> <point-id>",
		Short: "List everything reachable from a point",
		Args:  cobra.ExactArgs(2),
		RunE:  runTrace,
	}
	traceCmd.Flags().Bool("undirected", false, "Follow lines and curves in both directions")
	traceCmd.Flags().Int("max-depth", 0, "Depth limit (default: trace_max_depth from config)")
	traceCmd.Flags().Bool("json", false, "Print the result as JSON")

	migrateCmd := &cobra.Command{
		Use:   "migrate <project>",
		Short: "Upgrade legacy curves and rehydrate id counters",
		Args:  cobra.ExactArgs(1),
		RunE:  runMigrate,
	}
	migrateCmd.Flags().StringP("output", "o", "", "Write to this path instead of overwriting the project")

	mergeCmd := &cobra.Command{
		Use:   "merge <project>",
		Short: "Fold duplicate points sharing position and elevation",
		Args:  cobra.ExactArgs(1),
		RunE:  runMerge,
	}
	mergeCmd.Flags().Int("decimals", -1, "Rounding decimals (default: merge_decimals from config)")
	mergeCmd.Flags().StringP("output", "o", "", "Write to this path instead of overwriting the project")

	normalizeCmd := &cobra.Command{
		Use:   "normalize <project>",
		Short: "Resample every curve to a fixed number of arc points",
		Args:  cobra.ExactArgs(1),
		RunE:  runNormalize,
	}
	normalizeCmd.Flags().Int("interior", -1, "Interior points per curve (default: interior_count from config)")
	normalizeCmd.Flags().StringP("output", "o", "", "Write to this path instead of overwriting the project")

	exportCmd := &cobra.Command{
		Use:   "export <project>",
		Short: "Export points, lines and curve positions as CSV or into a database",
		Args:  cobra.ExactArgs(1),
		RunE:  runExport,
	}
	exportCmd.Flags().String("csv", "", "Directory to write CSV files into")
	exportCmd.Flags().Bool("sql", false, "Write into the database named by the export config")
	exportCmd.Flags().String("driver", "", "Override export driver: sqlite|pgx")
	exportCmd.Flags().String("dsn", "", "Override export DSN")
	exportCmd.Flags().Int("interior", -1, "Interior positions per curve (default: interior_count from config)")
	exportCmd.Flags().Bool("normalize", false, "Interpolate short curves in page space before exporting instead of padding them")

	calibrateCmd := &cobra.Command{
		Use:   "calibrate <project>",
		Short: "Set the page-to-real transform from two reference pairs",
		Args:  cobra.ExactArgs(1),
		RunE:  runCalibrate,
	}
	calibrateCmd.Flags().Float64Slice("pixel", nil, "Pixel references x1,y1,x2,y2")
	calibrateCmd.Flags().Float64Slice("real", nil, "Real references x1,y1,x2,y2")
	calibrateCmd.Flags().String("page", "", "Page image used to bounds-check the pixel references")
	calibrateCmd.Flags().StringP("output", "o", "", "Write to this path instead of overwriting the project")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVersion(cmd)
		},
	}

	rootCmd.AddCommand(auditCmd, traceCmd, migrateCmd, mergeCmd, normalizeCmd, exportCmd, calibrateCmd, versionCmd)
	return rootCmd
}
