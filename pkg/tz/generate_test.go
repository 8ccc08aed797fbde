package tz

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/require"
)

func TestGenerateArtifacts(t *testing.T) {
	dir := t.TempDir()
	datasetPath := filepath.Join(dir, DatasetArtifactName)
	cachePath := filepath.Join(dir, CacheArtifactName)

	fc := collection(zoneFeature(-9.5, -9.5, 9.5, 9.5, geojson.Properties{
		"tz_name1st": "Test/Zone",
	}))

	err := GenerateArtifacts(fc, datasetPath, cachePath, BuildOptions{Workers: 4})
	require.NoError(t, err)

	// Both artifacts load back through the normal decode path.
	ds, err := ReadDatasetArtifact(datasetPath)
	require.NoError(t, err)
	require.Equal(t, 1, ds.Len())
	require.Equal(t, "Test/Zone", ds.Record(0).Identifier)

	cache, err := ReadCacheArtifact(cachePath)
	require.NoError(t, err)
	require.Equal(t, CellCount, cache.Len())

	entry, ok := cache.Lookup(0, 0)
	require.True(t, ok)
	require.Equal(t, CacheEntry{0}, entry)
}

func TestGenerateArtifactsDeterministic(t *testing.T) {
	dir := t.TempDir()
	fc := collection(zoneFeature(-9.5, -9.5, 9.5, 9.5, nil))

	pathsA := [2]string{filepath.Join(dir, "a.tzd"), filepath.Join(dir, "a.tzc")}
	pathsB := [2]string{filepath.Join(dir, "b.tzd"), filepath.Join(dir, "b.tzc")}

	require.NoError(t, GenerateArtifacts(fc, pathsA[0], pathsA[1], BuildOptions{Workers: 1}))
	require.NoError(t, GenerateArtifacts(fc, pathsB[0], pathsB[1], BuildOptions{Workers: 8}))

	for i := range pathsA {
		a, err := os.ReadFile(pathsA[i])
		require.NoError(t, err)
		b, err := os.ReadFile(pathsB[i])
		require.NoError(t, err)
		require.Equal(t, a, b, "artifact %d differs between runs", i)
	}
}

func TestGenerateDatasetArtifactMalformedInput(t *testing.T) {
	dir := t.TempDir()
	datasetPath := filepath.Join(dir, DatasetArtifactName)

	feature := zoneFeature(0, 0, 1, 1, nil)
	delete(feature.Properties, "places")

	err := GenerateDatasetArtifact(collection(feature), datasetPath)
	require.Error(t, err)

	// Fail-fast: no partial artifact may exist.
	_, statErr := os.Stat(datasetPath)
	require.True(t, os.IsNotExist(statErr), "no artifact should be written on failure")
}

func TestGenerateCacheArtifactMissingDataset(t *testing.T) {
	dir := t.TempDir()

	err := GenerateCacheArtifact(
		filepath.Join(dir, "missing.tzd"),
		filepath.Join(dir, CacheArtifactName),
		BuildOptions{Workers: 1})
	require.Error(t, err)
}
