package cmd

import (
	"github.com/KaramelBytes/csvtally/internal/analysis"
	"github.com/KaramelBytes/csvtally/internal/utils"
	"github.com/spf13/cobra"
)

var (
	uniqFormat     string
	uniqOutputPath string
)

var uniqueCmd = &cobra.Command{
	Use:   "unique <files...>",
	Short: "Count occurrences of each 商品名 per file",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := checkFormat(uniqFormat)
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

		rep, err := analysis.NewPipeline(log, analysis.Options{}).Unique(cmd.Context(), pathSources(files))
		if err != nil {
			return err
		}
		out, err := renderUnique(format, rep.Files)
		if err != nil {
			return err
		}
		return emit(cmd.OutOrStdout(), uniqOutputPath, out)
	},
}

func init() {
	rootCmd.AddCommand(uniqueCmd)
	uniqueCmd.Flags().StringVarP(&uniqFormat, "format", "f", formatTable, "output format: table|json|yaml")
	uniqueCmd.Flags().StringVarP(&uniqOutputPath, "output", "o", "", "write result to file instead of stdout")
}
