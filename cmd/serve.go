package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/snowline-maps/terrain-export/internal/config"
	"github.com/snowline-maps/terrain-export/internal/db"
	"github.com/snowline-maps/terrain-export/internal/export"
	"github.com/snowline-maps/terrain-export/internal/layer"
	"github.com/snowline-maps/terrain-export/internal/style"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve area exports over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		pool, err := db.Connect(ctx, cfg.Store.DatabaseURL, cfg.Store.Pool)
		if err != nil {
			return err
		}
		defer pool.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newExportMux(cfg, pool),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			_ = srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// newExportMux builds the export routes. Split out so handler behavior is
// testable against a mock pool.
func newExportMux(cfg *config.Config, pool db.Pool) *http.ServeMux {
	limiter := rate.NewLimiter(rate.Limit(cfg.Server.RatePerSecond), cfg.Server.RateBurst)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	mux.HandleFunc("GET /areas/{id}/{file}", func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, `{"error":"rate limit exceeded"}`, http.StatusTooManyRequests)
			return
		}

		log := zap.L().With(
			zap.String("request_id", uuid.NewString()),
			zap.String("path", r.URL.Path),
		)

		areaID, err := strconv.Atoi(r.PathValue("id"))
		if err != nil {
			http.Error(w, `{"error":"area id must be an integer"}`, http.StatusBadRequest)
			return
		}

		ext, ok := strings.CutPrefix(r.PathValue("file"), "export.")
		if !ok {
			http.NotFound(w, r)
			return
		}

		locale := layer.ParseLocale(r.URL.Query().Get("lang"))
		iconSize := style.NormalizeIconSize(atoiDefault(r.URL.Query().Get("icons"), cfg.Export.IconSize))

		exp := export.New(pool, locale, cfg.Export.IconDir, iconSize)

		switch ext {
		case "geojson":
			fc, err := exp.GeoJSON(r.Context(), areaID)
			if err != nil {
				writeExportError(w, log, err)
				return
			}
			w.Header().Set("Content-Type", "application/geo+json")
			_ = json.NewEncoder(w).Encode(fc)

		case "kml":
			doc, err := exp.KML(r.Context(), areaID)
			if err != nil {
				writeExportError(w, log, err)
				return
			}
			w.Header().Set("Content-Type", "application/vnd.google-earth.kml+xml")
			if err := doc.WriteIndent(w, "", "  "); err != nil {
				log.Error("write KML response", zap.Error(err))
			}

		case "kmz":
			doc, err := exp.KML(r.Context(), areaID)
			if err != nil {
				writeExportError(w, log, err)
				return
			}
			w.Header().Set("Content-Type", "application/vnd.google-earth.kmz")
			if err := exp.WriteArchive(doc, os.DirFS(cfg.Export.IconPath), w); err != nil {
				log.Error("write KMZ response", zap.Error(err))
			}

		default:
			http.NotFound(w, r)
		}
	})

	return mux
}

func writeExportError(w http.ResponseWriter, log *zap.Logger, err error) {
	if eris.Is(err, export.ErrAreaNotFound) {
		http.Error(w, `{"error":"area not found"}`, http.StatusNotFound)
		return
	}
	log.Error("export failed", zap.Error(err))
	http.Error(w, `{"error":"export failed"}`, http.StatusInternalServerError)
}

func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
