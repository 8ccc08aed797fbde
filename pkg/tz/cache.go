package tz

import (
	"runtime"
	"sort"
	"sync"

	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"

	"github.com/gridpoint/tzcache/internal/geometry"
)

// Grid extents. Each cell (lng, lat) names the unit rectangle
// [lng, lng+1) x [lat, lat+1), so the southwest-most cell is (-180, -90)
// and the northeast-most is (179, 89).
const (
	MinCellLng = -180
	MaxCellLng = 179
	MinCellLat = -90
	MaxCellLat = 89

	// CellCount is the total number of grid cells (360 * 180).
	CellCount = (MaxCellLng - MinCellLng + 1) * (MaxCellLat - MinCellLat + 1)
)

// CellKey identifies a 1-degree grid cell by its integer southwest corner.
type CellKey struct {
	Lng int16
	Lat int16
}

// CacheEntry is the list of record ids whose geometry intersects a cell's
// rectangle, in ascending-id order. Ids are unique within a dataset, so no
// duplicates occur.
type CacheEntry []int16

// Cache maps every grid cell to its candidate timezone records. It is built
// once per dataset and never mutated afterwards.
//
// The cache is an acceleration structure: resolving a coordinate means
// looking up its cell, then running a precise point-in-polygon test against
// only the listed candidates instead of the whole dataset.
type Cache struct {
	cells map[CellKey]CacheEntry
}

// Lookup returns the candidate entry for the cell containing the given
// integer cell coordinates. The second return is false for coordinates
// outside the grid.
func (c *Cache) Lookup(lng, lat int16) (CacheEntry, bool) {
	entry, ok := c.cells[CellKey{Lng: lng, Lat: lat}]
	return entry, ok
}

// Len returns the number of cells in the cache.
func (c *Cache) Len() int {
	return len(c.cells)
}

// cellBound returns the unit rectangle named by a cell.
func cellBound(lng, lat int16) orb.Bound {
	return orb.Bound{
		Min: orb.Point{float64(lng), float64(lat)},
		Max: orb.Point{float64(lng) + 1, float64(lat) + 1},
	}
}

// indexedRecord wraps a record for R-tree storage.
type indexedRecord struct {
	id   int16
	geom orb.Geometry
	bbox orb.Bound
}

// Bounds implements rtreego.Spatial.
func (r *indexedRecord) Bounds() rtreego.Rect {
	point := rtreego.Point{r.bbox.Min[0], r.bbox.Min[1]}

	// R-tree rectangles need non-zero dimensions; a degenerate bbox gets a
	// small epsilon (~11 meters at the equator).
	const epsilon = 0.0001
	lngLength := r.bbox.Max[0] - r.bbox.Min[0]
	latLength := r.bbox.Max[1] - r.bbox.Min[1]
	if lngLength < epsilon {
		lngLength = epsilon
	}
	if latLength < epsilon {
		latLength = epsilon
	}

	rect, _ := rtreego.NewRect(point, []float64{lngLength, latLength})
	return rect
}

// recordIndex prunes per-cell intersection tests to records whose bounding
// box overlaps the cell. The precise predicate still decides membership, so
// the result set is exactly the full linear scan's.
type recordIndex struct {
	rtree *rtreego.Rtree
}

func newRecordIndex(ds *Dataset) *recordIndex {
	rtree := rtreego.NewTree(2, 25, 50)
	for _, record := range ds.Records() {
		// Index the geometry's own bound, not the feature-declared bbox:
		// a feature that understates its bbox must not hide candidates
		// from the sweep.
		rtree.Insert(&indexedRecord{
			id:   int16(record.ID),
			geom: record.Geometry,
			bbox: record.Geometry.Bound(),
		})
	}
	return &recordIndex{rtree: rtree}
}

// candidates returns the ids of records intersecting the cell rectangle, in
// ascending-id order.
func (ri *recordIndex) candidates(bound orb.Bound) []int16 {
	// The R-tree search wants overlapping interiors, but boundary contact
	// counts as intersecting here. Pad the query so touching boxes survive
	// the prefilter; the precise predicate rejects any false positives.
	const pad = 1e-9
	point := rtreego.Point{bound.Min[0] - pad, bound.Min[1] - pad}
	rect, _ := rtreego.NewRect(point, []float64{
		bound.Max[0] - bound.Min[0] + 2*pad,
		bound.Max[1] - bound.Min[1] + 2*pad,
	})

	hits := ri.rtree.SearchIntersect(rect)
	if len(hits) == 0 {
		return nil
	}

	// R-tree results come back in tree order; restore ascending-id order
	// before the precise tests so entries stay id-sorted.
	records := make([]*indexedRecord, len(hits))
	for i, hit := range hits {
		records[i] = hit.(*indexedRecord)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].id < records[j].id })

	var ids []int16
	for _, record := range records {
		if geometry.BoundIntersects(bound, record.geom) {
			ids = append(ids, record.id)
		}
	}
	return ids
}

// bandResult holds one longitude band's cells, latitude index 0 = MinCellLat.
type bandResult struct {
	lng     int16
	entries [MaxCellLat - MinCellLat + 1]CacheEntry
	err     error
}

// BuildCache runs the grid sweep: for every 1-degree cell on Earth it
// computes the set of dataset records whose geometry intersects the cell's
// unit rectangle.
//
// Longitude bands are distributed across a worker pool; latitudes within one
// band are processed sequentially. Each cell is computed by exactly one
// worker, so accumulation needs no per-key locking. A failure in any band
// aborts the whole build; there is no partial result.
//
// This is an offline batch cost, O(360 * 180 * |dataset|) intersection tests
// before R-tree pruning, never exercised on a runtime hot path.
func BuildCache(ds *Dataset, opts BuildOptions) (*Cache, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	const totalBands = MaxCellLng - MinCellLng + 1
	if workers > totalBands {
		workers = totalBands
	}

	index := newRecordIndex(ds)

	if workers == 1 {
		return buildCacheSerial(index, opts)
	}

	jobs := make(chan int16, totalBands)
	results := make(chan bandResult, totalBands)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for lng := range jobs {
				results <- sweepBand(index, lng)
			}
		}()
	}

	for lng := MinCellLng; lng <= MaxCellLng; lng++ {
		jobs <- int16(lng)
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	// Drain band results into the final plain map. No writes happen after
	// this loop finishes.
	cells := make(map[CellKey]CacheEntry, CellCount)
	done := 0
	for result := range results {
		done++
		if opts.Progress != nil {
			opts.Progress(done, totalBands)
		}

		if result.err != nil {
			// Results channel is buffered for every band, so remaining
			// workers finish without blocking.
			return nil, result.err
		}

		for i, entry := range result.entries {
			key := CellKey{Lng: result.lng, Lat: int16(MinCellLat + i)}
			cells[key] = entry
		}
	}

	return &Cache{cells: cells}, nil
}

// buildCacheSerial sweeps all bands on the calling goroutine.
func buildCacheSerial(index *recordIndex, opts BuildOptions) (*Cache, error) {
	const totalBands = MaxCellLng - MinCellLng + 1

	cells := make(map[CellKey]CacheEntry, CellCount)
	for lng := MinCellLng; lng <= MaxCellLng; lng++ {
		result := sweepBand(index, int16(lng))
		if result.err != nil {
			return nil, result.err
		}
		for i, entry := range result.entries {
			cells[CellKey{Lng: result.lng, Lat: int16(MinCellLat + i)}] = entry
		}
		if opts.Progress != nil {
			opts.Progress(lng-MinCellLng+1, totalBands)
		}
	}

	return &Cache{cells: cells}, nil
}

// sweepBand computes candidate entries for every cell in one longitude band.
func sweepBand(index *recordIndex, lng int16) bandResult {
	result := bandResult{lng: lng}

	for lat := MinCellLat; lat <= MaxCellLat; lat++ {
		ids := index.candidates(cellBound(lng, int16(lat)))
		if len(ids) > CandidateCapacity {
			result.err = &CapacityExceededError{Lng: lng, Lat: int16(lat), Count: len(ids)}
			return result
		}
		result.entries[lat-MinCellLat] = ids
	}

	return result
}
