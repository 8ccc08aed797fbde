// Command tzgen produces the distributable timezone artifacts: the encoded
// dataset and the grid-cell candidate cache.
//
// Usage:
//
//	tzgen --geojson ne_10m_time_zones.geojson --out-dir ./artifacts
//	tzgen --fetch --out-dir ./artifacts
package main

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/pflag"

	"github.com/gridpoint/tzcache/pkg/tz"
)

func main() {
	var (
		geojsonPath string
		fetch       bool
		outDir      string
		workers     int
		verbose     bool
	)

	pflag.StringVar(&geojsonPath, "geojson", "", "path to the Natural Earth timezone GeoJSON")
	pflag.BoolVar(&fetch, "fetch", false, "download the GeoJSON from "+tz.NaturalEarthURL)
	pflag.StringVar(&outDir, "out-dir", ".", "directory to write artifacts into")
	pflag.IntVar(&workers, "workers", 0, "sweep worker count (0 = all CPUs)")
	pflag.BoolVar(&verbose, "verbose", false, "enable debug logging")
	pflag.Parse()

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if err := run(logger, geojsonPath, fetch, outDir, workers); err != nil {
		logger.Error("generation failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger, geojsonPath string, fetch bool, outDir string, workers int) error {
	var (
		raw []byte
		err error
	)

	switch {
	case fetch:
		logger.Info("fetching source dataset", "url", tz.NaturalEarthURL)
		raw, err = fetchGeoJSON(tz.NaturalEarthURL)
	case geojsonPath != "":
		logger.Info("reading source dataset", "path", geojsonPath)
		raw, err = os.ReadFile(geojsonPath)
	default:
		return fmt.Errorf("either --geojson or --fetch is required")
	}
	if err != nil {
		return err
	}

	fc, err := tz.FeaturesFromGeoJSON(raw)
	if err != nil {
		return err
	}
	logger.Info("parsed source dataset", "features", len(fc.Features))

	opts := tz.DefaultBuildOptions()
	opts.Workers = workers
	opts.Progress = func(done, total int) {
		if done%90 == 0 || done == total {
			logger.Debug("sweep progress", "bands", done, "total", total)
		}
	}

	datasetPath := filepath.Join(outDir, tz.DatasetArtifactName)
	cachePath := filepath.Join(outDir, tz.CacheArtifactName)

	start := time.Now()
	if err := tz.GenerateArtifacts(fc, datasetPath, cachePath, opts); err != nil {
		return err
	}

	logger.Info("artifacts written",
		"dataset", datasetPath,
		"cache", cachePath,
		"elapsed", time.Since(start).Round(time.Millisecond))
	return nil
}

func fetchGeoJSON(url string) ([]byte, error) {
	resp, err := http.Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetch source dataset: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch source dataset: %s returned %s", url, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fetch source dataset: %w", err)
	}
	return data, nil
}
