// Package tz builds the spatial acceleration cache for coordinate-to-timezone
// lookups.
//
// Given the Natural Earth timezone boundary dataset, the package maps every
// 1-degree grid cell on Earth to the small set of timezone polygons whose
// geometry intersects that cell. A point-resolution consumer looks up the
// cell for a coordinate and runs a precise point-in-polygon test against only
// the listed candidates instead of the whole dataset.
//
// # Generation Mode
//
// Artifacts are produced offline in self-contained generation mode:
//
//	fc, err := tz.FeaturesFromFile("ne_10m_time_zones.geojson")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	err = tz.GenerateArtifacts(fc,
//	    tz.DatasetArtifactName, tz.CacheArtifactName,
//	    tz.DefaultBuildOptions())
//
// The cache is write-once, read-many: it is rebuilt from scratch whenever the
// source dataset changes, never updated incrementally.
//
// # Loading Artifacts
//
// Normal use loads prebuilt artifacts and never runs the sweep:
//
//	ds, err := tz.ReadDatasetArtifact(tz.DatasetArtifactName)
//	cache, err := tz.ReadCacheArtifact(tz.CacheArtifactName)
//
//	entry, _ := cache.Lookup(-122, 37) // candidate record ids for the cell
//	for _, id := range entry {
//	    record := ds.Record(int(id))
//	    // precise point-in-polygon test against record.Geometry
//	}
//
// # Failure Model
//
// Every operation is fail-fast: a malformed source feature aborts dataset
// construction, a cell with more candidates than the fixed capacity aborts
// the sweep, and a truncated or mismatched artifact fails to decode. No
// partial artifacts are ever written — a half-built cache would cause silent
// false-negative lookups at runtime, which is worse than no cache.
package tz
