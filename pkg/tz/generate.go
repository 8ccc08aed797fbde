package tz

import (
	"github.com/paulmach/orb/geojson"
)

// Source data conventions. The core never fetches NaturalEarthURL itself;
// retrieval is the calling tool's responsibility. The constants are passed
// explicitly into the generation entry points rather than consulted
// implicitly.
const (
	// NaturalEarthURL is the public location of the Natural Earth 10m
	// timezone boundary dataset.
	NaturalEarthURL = "https://raw.githubusercontent.com/nvkelso/natural-earth-vector/master/geojson/ne_10m_time_zones.geojson"

	// DatasetArtifactName is the conventional dataset artifact filename.
	DatasetArtifactName = "ne_10m_time_zones.tzd"

	// CacheArtifactName is the conventional cache artifact filename.
	CacheArtifactName = "ne_time_zone_cache.tzc"
)

// GenerateDatasetArtifact builds a dataset from a parsed feature collection
// and writes the encoded artifact to datasetPath.
//
// This entry point is active only in self-contained generation mode; normal
// library use loads a prebuilt artifact through ReadDatasetArtifact.
func GenerateDatasetArtifact(fc *geojson.FeatureCollection, datasetPath string) error {
	ds, err := NewDataset(fc)
	if err != nil {
		return err
	}
	return WriteDatasetArtifact(datasetPath, ds)
}

// GenerateCacheArtifact reads a dataset artifact back, runs the grid sweep,
// and writes the encoded cache artifact to cachePath.
//
// Reading the dataset through the same decode path that normal use takes
// guarantees the cache is built against exactly what consumers will load.
func GenerateCacheArtifact(datasetPath, cachePath string, opts BuildOptions) error {
	ds, err := ReadDatasetArtifact(datasetPath)
	if err != nil {
		return err
	}

	cache, err := BuildCache(ds, opts)
	if err != nil {
		return err
	}

	return WriteCacheArtifact(cachePath, cache)
}

// GenerateArtifacts produces both artifacts: the dataset artifact first, then
// the cache artifact built from it.
func GenerateArtifacts(fc *geojson.FeatureCollection, datasetPath, cachePath string, opts BuildOptions) error {
	if err := GenerateDatasetArtifact(fc, datasetPath); err != nil {
		return err
	}
	return GenerateCacheArtifact(datasetPath, cachePath, opts)
}
