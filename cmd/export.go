package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/snowline-maps/terrain-export/internal/db"
	"github.com/snowline-maps/terrain-export/internal/export"
	"github.com/snowline-maps/terrain-export/internal/layer"
)

var (
	exportArea     int
	exportLang     string
	exportFormat   string
	exportOut      string
	exportIconSize int
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export one area to a GeoJSON, KML, or KMZ file",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if exportFormat != "kmz" {
			if _, err := layer.ParseFormat(exportFormat); err != nil {
				return err
			}
		}

		pool, err := db.Connect(ctx, cfg.Store.DatabaseURL, cfg.Store.Pool)
		if err != nil {
			return err
		}
		defer pool.Close()

		lang := exportLang
		if lang == "" {
			lang = cfg.Export.Lang
		}
		iconSize := exportIconSize
		if iconSize == 0 {
			iconSize = cfg.Export.IconSize
		}

		exp := export.New(pool, layer.ParseLocale(lang), cfg.Export.IconDir, iconSize)

		out := exportOut
		if out == "" {
			out = filepath.Join(cfg.Export.OutDir,
				fmt.Sprintf("area-%d-%s.%s", exportArea, lang, exportFormat))
		}

		f, err := os.Create(out)
		if err != nil {
			return eris.Wrapf(err, "create %s", out)
		}
		defer f.Close() //nolint:errcheck

		switch exportFormat {
		case "geojson":
			fc, err := exp.GeoJSON(ctx, exportArea)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(f)
			enc.SetIndent("", "  ")
			if err := enc.Encode(fc); err != nil {
				return eris.Wrap(err, "encode FeatureCollection")
			}
		case "kml":
			doc, err := exp.KML(ctx, exportArea)
			if err != nil {
				return err
			}
			if err := doc.WriteIndent(f, "", "  "); err != nil {
				return eris.Wrap(err, "write KML")
			}
		case "kmz":
			if err := exp.KMZ(ctx, exportArea, os.DirFS(cfg.Export.IconPath), f); err != nil {
				return err
			}
		}

		zap.L().Info("export written",
			zap.Int("area", exportArea),
			zap.String("format", exportFormat),
			zap.String("path", out),
		)
		return nil
	},
}

func init() {
	exportCmd.Flags().IntVar(&exportArea, "area", 0, "area id to export")
	exportCmd.Flags().StringVar(&exportLang, "lang", "", "display-name language: en or fr (default from config)")
	exportCmd.Flags().StringVar(&exportFormat, "format", "geojson", "output format: geojson, kml, or kmz")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output file (default area-<id>-<lang>.<format>)")
	exportCmd.Flags().IntVar(&exportIconSize, "icons", 0, "icon size: 11 or 15 (default from config)")
	_ = exportCmd.MarkFlagRequired("area")
	rootCmd.AddCommand(exportCmd)
}
