package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/competitor-map/internal/render"
)

var plotOutput string

var plotCmd = &cobra.Command{
	Use:   "plot",
	Short: "Render the interactive store and competitor map as HTML",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("plot"); err != nil {
			return err
		}

		res, err := analyze(cmd.Context(), cfg)
		if err != nil {
			return err
		}

		data, err := render.ToBytes(cmd.Context(), render.NewHTML(renderStyle(cfg)), res)
		if err != nil {
			return err
		}
		if err := writeArtifact(cmd.OutOrStdout(), plotOutput, data); err != nil {
			return err
		}

		zap.L().Info("map written",
			zap.String("run_id", res.RunID),
			zap.String("output", plotOutput),
			zap.Int("stores", len(res.Stores)),
			zap.Int("competitors", len(res.Competitors)),
		)
		return nil
	},
}

func init() {
	plotCmd.Flags().StringVarP(&plotOutput, "output", "o", "map.html", "output HTML file")
	rootCmd.AddCommand(plotCmd)
}
