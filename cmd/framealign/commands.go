package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"framealign/framework"
	"framealign/internal/config"
)

var (
	outPath     string
	minConf     float64
	overwrite   bool
	workers     int
	indexCSV    string
	reportPath  string
	specDir     string
	taxonomy    string
	outputDir   string
	showSummary bool
	force       bool
)

var realignCmd = &cobra.Command{
	Use:   "realign [workbook]",
	Short: "Suggest framework nodes for epics and tickets",
	Long: `Scores every epic and ticket row against the Framework_Index nodes, writes
Framework_Suggested, Framework_Confidence and Framework_Top3, fills
Framework_Node when the best score reaches --min-conf, and rebuilds the
Framework_Coverage and review sheets.

Without a workbook argument the newest .xlsx below the current directory is
used, ignoring earlier _MAPPED outputs.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRealign,
}

var reviewCmd = &cobra.Command{
	Use:   "review [workbook]",
	Short: "Rebuild the review sheets from stored assignments",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runReview,
}

var applyMapCmd = &cobra.Command{
	Use:   "apply-map <in-workbook> <map.csv> <out-workbook>",
	Short: "Write reviewed nodes from a sheet,row,framework_node_final CSV",
	Args:  cobra.ExactArgs(3),
	RunE:  runApplyMap,
}

var syncCmd = &cobra.Command{
	Use:   "sync <workbook>",
	Short: "Rewrite Framework_Index from a CSV and add node drop-downs",
	Args:  cobra.ExactArgs(1),
	RunE:  runSync,
}

var driftCmd = &cobra.Command{
	Use:   "drift [workbook]",
	Short: "Report tickets with missing or stale alignment fields",
	Long: `Adds any missing required columns to the tickets sheet and reports rows with
empty required fields or a Framework_Path that does not exist on disk.

The realm check is opt-in: rows are checked against the *.md file names of a
realm spec directory only when --spec-dir or drift.realm_spec_dir is set.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runDrift,
}

var classifyCmd = &cobra.Command{
	Use:   "classify <input.csv>",
	Short: "Align the rows of a CSV file against a taxonomy file",
	Args:  cobra.ExactArgs(1),
	RunE:  runClassify,
}

var initConfigCmd = &cobra.Command{
	Use:   "init-config",
	Short: "Write a config file with the default settings",
	Args:  cobra.NoArgs,
	RunE:  runInitConfig,
}

func init() {
	realignCmd.Flags().StringVarP(&outPath, "out", "o", "", "Output workbook (default: <input>_MAPPED)")
	realignCmd.Flags().Float64Var(&minConf, "min-conf", framework.DefaultMinConfidence, "Minimum confidence to auto-fill Framework_Node")
	realignCmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing Framework_Node values")
	realignCmd.Flags().IntVar(&workers, "workers", 0, "Rows scored in parallel (default from config)")

	reviewCmd.Flags().StringVarP(&outPath, "out", "o", "", "Output workbook (default: update in place)")
	reviewCmd.Flags().Float64Var(&minConf, "min-conf", framework.DefaultMinConfidence, "Confidence below which rows are reviewed")

	syncCmd.Flags().StringVar(&indexCSV, "index", "Framework_Index.csv", "CSV with a Framework_Node column")
	syncCmd.Flags().StringVarP(&outPath, "out", "o", "", "Output workbook (default: <input>_ALIGNED)")

	driftCmd.Flags().StringVar(&reportPath, "report", "", "Drift report CSV (default from config)")
	driftCmd.Flags().StringVar(&specDir, "spec-dir", "", "Directory whose *.md files name the allowed realms")

	classifyCmd.Flags().StringVar(&taxonomy, "taxonomy", "", "Taxonomy file: Framework_Node CSV or a newline/comma separated list")
	classifyCmd.Flags().StringVarP(&outPath, "out", "o", "", "Result CSV (default: <output-dir>/result_<timestamp>.csv)")
	classifyCmd.Flags().StringVar(&outputDir, "output-dir", "csv", "Directory for result CSVs when --out is omitted")
	classifyCmd.Flags().Float64Var(&minConf, "min-conf", framework.DefaultMinConfidence, "Minimum confidence to fill a row")
	classifyCmd.Flags().BoolVar(&showSummary, "stdout", false, "Print a result preview")
	_ = classifyCmd.MarkFlagRequired("taxonomy")

	initConfigCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")
}

// applyAlignmentFlags copies explicitly set alignment flags over the config.
func applyAlignmentFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	if flags.Lookup("min-conf") != nil && flags.Changed("min-conf") {
		cfg.Alignment.MinConfidence = minConf
	}
	if flags.Lookup("overwrite") != nil && flags.Changed("overwrite") {
		cfg.Alignment.Overwrite = overwrite
	}
	if flags.Lookup("workers") != nil && flags.Changed("workers") {
		cfg.Alignment.Workers = workers
	}
}

func runRealign(cmd *cobra.Command, args []string) error {
	applyAlignmentFlags(cmd)
	input, err := workbookArg(args)
	if err != nil {
		return err
	}
	svc, err := newService()
	if err != nil {
		return err
	}
	res, err := svc.Realign(input, outPath)
	if err != nil {
		return fmt.Errorf("realign: %w", err)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Input : %s\n", res.Input)
	fmt.Fprintf(out, "Output: %s\n", res.Output)
	fmt.Fprintf(out, "Sheets updated: %s\n", strings.Join(res.Targets, ", "))
	for _, set := range res.Report.Sets {
		if set.Err != nil {
			fmt.Fprintf(out, "  %s: skipped (%v)\n", set.Name, set.Err)
			continue
		}
		fmt.Fprintf(out, "  %s: %d rows, %d filled, %d to review\n", set.Name, len(set.Results), set.Filled(), len(set.Review))
	}
	fmt.Fprintf(out, "Review sheets: %s\n", strings.Join(res.ReviewSheets, ", "))
	fmt.Fprintf(out, "Coverage sheet: %s\n", cfg.Workbook.CoverageSheet)
	return nil
}

func runReview(cmd *cobra.Command, args []string) error {
	applyAlignmentFlags(cmd)
	input, err := workbookArg(args)
	if err != nil {
		return err
	}
	svc, err := newService()
	if err != nil {
		return err
	}
	counts, err := svc.RebuildReview(input, outPath)
	if err != nil {
		return fmt.Errorf("review: %w", err)
	}
	for name, n := range counts {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d rows\n", name, n)
	}
	return nil
}

func runApplyMap(cmd *cobra.Command, args []string) error {
	svc, err := newService()
	if err != nil {
		return err
	}
	updated, err := svc.ApplyManualMap(args[0], args[1], args[2])
	if err != nil {
		return fmt.Errorf("apply-map: %w", err)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Input : %s\n", args[0])
	fmt.Fprintf(out, "Map   : %s\n", args[1])
	fmt.Fprintf(out, "Output: %s\n", args[2])
	fmt.Fprintf(out, "Rows updated: %d\n", updated)
	return nil
}

func runSync(cmd *cobra.Command, args []string) error {
	svc, err := newService()
	if err != nil {
		return err
	}
	res, err := svc.SyncFramework(args[0], indexCSV, outPath)
	if err != nil {
		return fmt.Errorf("sync: %w", err)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Wrote: %s\n", res.Output)
	fmt.Fprintf(out, "Framework nodes: %d\n", res.Nodes)
	fmt.Fprintf(out, "Updated sheets: %s\n", strings.Join(res.Targets, ", "))
	if !res.DropLists {
		fmt.Fprintln(out, "Drop-down validation is not supported by this workbook format")
	}
	return nil
}

func runDrift(cmd *cobra.Command, args []string) error {
	if reportPath != "" {
		cfg.Drift.ReportPath = reportPath
	}
	if specDir != "" {
		cfg.Drift.RealmSpecDir = specDir
	}
	input, err := workbookArg(args)
	if err != nil {
		return err
	}
	svc, err := newService()
	if err != nil {
		return err
	}
	res, err := svc.DriftCheck(input)
	if err != nil {
		return fmt.Errorf("drift: %w", err)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Tickets sheet: %s\n", res.Sheet)
	fmt.Fprintf(out, "Detected header row: %d\n", res.HeaderRow)
	if len(res.AddedColumns) > 0 {
		fmt.Fprintf(out, "Added missing alignment columns: %s\n", strings.Join(res.AddedColumns, ", "))
	}
	fmt.Fprintf(out, "Drift report written: %s\n", res.ReportPath)
	fmt.Fprintf(out, "Issues found: %d\n", len(res.Issues))
	if len(res.Issues) == 0 {
		fmt.Fprintln(out, "No drift detected for required alignment fields.")
	}
	return nil
}

func runClassify(cmd *cobra.Command, args []string) error {
	applyAlignmentFlags(cmd)
	output, err := resolveOutputPath(outPath, outputDir)
	if err != nil {
		return err
	}
	svc, err := newService()
	if err != nil {
		return err
	}
	res, err := svc.ClassifyCSV(args[0], taxonomy, output)
	if err != nil {
		return fmt.Errorf("classify: %w", err)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Results written to %s\n", res.Output)
	if showSummary {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "==== Result preview ====")
		for i, r := range res.Set.Results {
			label := r.ID
			if label == "" {
				label = fmt.Sprintf("row %d", r.Row)
			}
			fmt.Fprintf(out, "%d. %s\n", i+1, label)
			if len(r.Top) == 0 {
				fmt.Fprintln(out, "    no suggestion")
				continue
			}
			for _, c := range r.Top {
				fmt.Fprintf(out, "      - %s (score=%.3f)\n", c.Label, c.Score)
			}
		}
	}
	return nil
}

func runInitConfig(cmd *cobra.Command, args []string) error {
	path := config.ResolvePath(configPath)
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("check config: %w", err)
	}
	if err := config.Save(path, config.Default()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}

func resolveOutputPath(path, dir string) (string, error) {
	if path != "" {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("resolve output path: %w", err)
		}
		return absPath, nil
	}
	if dir == "" {
		dir = "csv"
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve output dir: %w", err)
	}
	filename := fmt.Sprintf("result_%s.csv", time.Now().Format("20060102150405"))
	return filepath.Join(absDir, filename), nil
}
