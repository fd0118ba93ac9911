package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/snowline-maps/terrain-export/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "terrain-export",
	Short: "Export avalanche-terrain areas from PostGIS as GeoJSON, KML, or KMZ",
	Long:  "Queries the terrain layer tables for one area, assembles the per-layer features, and writes a GeoJSON FeatureCollection or a styled KML/KMZ document.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
