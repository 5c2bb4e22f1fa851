package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/competitor-map/internal/config"
)

var cfg *config.Config

var (
	storesPath       string
	storesSheet      string
	competitorsPath  string
	competitorsSheet string
)

var rootCmd = &cobra.Command{
	Use:   "competitor-map",
	Short: "Count and map competitors around retail stores",
	Long:  "Loads store and competitor locations, counts competitors within configurable mile radii of every store in a planar UTM frame, and renders an interactive map, exports or a dashboard.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		applyInputFlags(cmd, c)
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
	SilenceUsage: true,
}

// applyInputFlags overrides configured input paths with flags the user set.
func applyInputFlags(cmd *cobra.Command, c *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("stores") {
		c.Input.Stores.Path = storesPath
	}
	if flags.Changed("stores-sheet") {
		c.Input.Stores.Sheet = storesSheet
	}
	if flags.Changed("competitors") {
		c.Input.Competitors.Path = competitorsPath
	}
	if flags.Changed("competitors-sheet") {
		c.Input.Competitors.Sheet = competitorsSheet
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&storesPath, "stores", "", "store table (.csv, .tsv, .xlsx or .shp)")
	pf.StringVar(&storesSheet, "stores-sheet", "", "xlsx sheet of the store table (default first sheet)")
	pf.StringVar(&competitorsPath, "competitors", "", "competitor table (.csv, .tsv, .xlsx or .shp)")
	pf.StringVar(&competitorsSheet, "competitors-sheet", "", "xlsx sheet of the competitor table (default first sheet)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
