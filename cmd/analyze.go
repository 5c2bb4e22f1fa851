package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/competitor-map/internal/render"
)

var (
	analyzeFormat string
	analyzeOutput string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Count competitors per store and export the results",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("analyze"); err != nil {
			return err
		}
		r, err := render.ForFormat(analyzeFormat, renderStyle(cfg))
		if err != nil {
			return err
		}

		res, err := analyze(cmd.Context(), cfg)
		if err != nil {
			return err
		}

		data, err := render.ToBytes(cmd.Context(), r, res)
		if err != nil {
			return err
		}
		if err := writeArtifact(cmd.OutOrStdout(), analyzeOutput, data); err != nil {
			return err
		}

		zap.L().Info("analyze complete",
			zap.String("run_id", res.RunID),
			zap.String("format", analyzeFormat),
			zap.String("output", analyzeOutput),
			zap.Int("stores", len(res.Stores)),
			zap.Int("rejected", len(res.Rejections)),
		)
		return nil
	},
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeFormat, "format", render.FormatJSON, "output format: json, yaml, xlsx or geojson")
	analyzeCmd.Flags().StringVarP(&analyzeOutput, "output", "o", "", "output file (default stdout)")
	rootCmd.AddCommand(analyzeCmd)
}
