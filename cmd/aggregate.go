package cmd

import (
	"github.com/KaramelBytes/csvtally/internal/analysis"
	"github.com/KaramelBytes/csvtally/internal/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	aggFormat         string
	aggOutputPath     string
	aggSkipUnreadable bool
)

var aggregateCmd = &cobra.Command{
	Use:   "aggregate <files...>",
	Short: "Merge CSV/TSV/XLSX exports into per-product or per-variety totals",
	Long: `Aggregate reads every file (glob patterns allowed) in order and prints the
merged totals, the same result /api/aggregate returns.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := checkFormat(aggFormat)
		if err != nil {
			return err
		}
		files, err := utils.ExpandInputs(args)
		if err != nil {
			return err
		}
		c, err := currentConfig()
		if err != nil {
			return err
		}
		log, err := newLogger(c)
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		skip := c.SkipUnreadableFiles
		if cmd.Flags().Changed("skip-unreadable") {
			skip = aggSkipUnreadable
		}
		p := analysis.NewPipeline(log, analysis.Options{SkipUnreadable: skip})
		rep, err := p.Aggregate(cmd.Context(), pathSources(files))
		if err != nil {
			return err
		}
		for _, name := range rep.Skipped {
			log.Warn("file skipped", zap.String("file", name), zap.String("run_id", rep.RunID))
		}

		out, err := renderEntries(format, rep.Entries)
		if err != nil {
			return err
		}
		return emit(cmd.OutOrStdout(), aggOutputPath, out)
	},
}

func init() {
	rootCmd.AddCommand(aggregateCmd)
	aggregateCmd.Flags().StringVarP(&aggFormat, "format", "f", formatTable, "output format: table|json|yaml")
	aggregateCmd.Flags().StringVarP(&aggOutputPath, "output", "o", "", "write result to file instead of stdout")
	aggregateCmd.Flags().BoolVar(&aggSkipUnreadable, "skip-unreadable", false, "skip files that cannot be decoded or parsed (overrides config)")
}

func pathSources(files []string) []analysis.Source {
	srcs := make([]analysis.Source, len(files))
	for i, f := range files {
		srcs[i] = analysis.PathSource(f)
	}
	return srcs
}
