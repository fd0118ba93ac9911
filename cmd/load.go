package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/snowline-maps/terrain-export/internal/db"
	"github.com/snowline-maps/terrain-export/internal/loader"
)

var (
	loadTable     string
	loadShapefile string
	loadArea      int
	loadReplace   bool
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Bulk-load a terrain layer shapefile into PostGIS",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		pool, err := db.Connect(ctx, cfg.Store.DatabaseURL, cfg.Store.Pool)
		if err != nil {
			return err
		}
		defer pool.Close()

		n, err := loader.Load(ctx, pool, loader.Options{
			Table:     loadTable,
			Path:      loadShapefile,
			AreaID:    loadArea,
			Replace:   loadReplace,
			BatchSize: cfg.Loader.BatchSize,
		})
		if err != nil {
			return err
		}

		zap.L().Info("load complete", zap.String("table", loadTable), zap.Int64("rows", n))
		return nil
	},
}

func init() {
	loadCmd.Flags().StringVar(&loadTable, "table", "", "target layer table")
	loadCmd.Flags().StringVar(&loadShapefile, "shapefile", "", "path to the .shp file")
	loadCmd.Flags().IntVar(&loadArea, "area", 0, "override area_id for every record")
	loadCmd.Flags().BoolVar(&loadReplace, "replace", false, "truncate the table before loading")
	_ = loadCmd.MarkFlagRequired("table")
	_ = loadCmd.MarkFlagRequired("shapefile")
	rootCmd.AddCommand(loadCmd)
}
