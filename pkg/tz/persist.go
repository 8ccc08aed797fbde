package tz

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/natefinch/atomic"
	"github.com/paulmach/orb"
)

// Artifact format constants. Both artifacts carry an uncompressed header
// (magic + version) followed by a zstd-compressed payload.
const (
	datasetMagic = "TZD1"
	cacheMagic   = "TZC1"

	artifactVersion    = 1
	artifactHeaderSize = 6 // magic(4) + version(2)

	maxStringLen = math.MaxUint16
)

// Geometry type tags in the dataset payload.
const (
	geomTagPolygon      = 1
	geomTagMultiPolygon = 2
)

// EncodeDataset serializes a dataset into a compact binary artifact.
// The byte sequence is deterministic for a given dataset.
func EncodeDataset(ds *Dataset) ([]byte, error) {
	w := newBinWriter()
	w.u32(uint32(ds.Len()))

	for _, record := range ds.Records() {
		w.u32(uint32(record.ID))
		if err := w.str(record.Identifier); err != nil {
			return nil, fmt.Errorf("record %d: %w", record.ID, err)
		}
		if err := w.str(record.Description); err != nil {
			return nil, fmt.Errorf("record %d: %w", record.ID, err)
		}
		if err := w.str(record.DSTDescription); err != nil {
			return nil, fmt.Errorf("record %d: %w", record.ID, err)
		}
		if err := w.str(record.Offset); err != nil {
			return nil, fmt.Errorf("record %d: %w", record.ID, err)
		}
		w.f64(record.Zone)
		w.u32(uint32(int32(record.RawOffset)))
		w.f64(record.BBox.Min[0])
		w.f64(record.BBox.Min[1])
		w.f64(record.BBox.Max[0])
		w.f64(record.BBox.Max[1])
		if err := w.geometry(record.Geometry); err != nil {
			return nil, fmt.Errorf("record %d: %w", record.ID, err)
		}
	}

	return sealArtifact(datasetMagic, w.bytes())
}

// DecodeDataset reconstructs a dataset from an encoded artifact.
// Truncated, corrupted, or schema-mismatched input fails with *DecodeError.
func DecodeDataset(data []byte) (*Dataset, error) {
	payload, err := openArtifact("dataset", datasetMagic, data)
	if err != nil {
		return nil, err
	}

	r := &binReader{artifact: "dataset", data: payload}
	count := r.u32()
	if r.err != nil {
		return nil, r.err
	}

	records := make([]Record, 0, count)
	for i := uint32(0); i < count; i++ {
		record := Record{
			ID:             int(r.u32()),
			Identifier:     r.str(),
			Description:    r.str(),
			DSTDescription: r.str(),
			Offset:         r.str(),
			Zone:           r.f64(),
		}
		record.RawOffset = int(int32(r.u32()))
		record.BBox = orb.Bound{
			Min: orb.Point{r.f64(), r.f64()},
			Max: orb.Point{r.f64(), r.f64()},
		}
		record.Geometry = r.geometry()
		if r.err != nil {
			return nil, r.err
		}
		records = append(records, record)
	}

	if err := r.finish(); err != nil {
		return nil, err
	}
	return &Dataset{records: records}, nil
}

// EncodeCache serializes a spatial cache into a compact binary artifact.
//
// Cells are written in fixed order (longitude ascending, then latitude), as
// fixed-width records of cell key plus sentinel-padded candidate array, so
// the byte sequence is deterministic for a given cache. A cell whose entry
// exceeds CandidateCapacity fails with *CapacityExceededError.
func EncodeCache(c *Cache) ([]byte, error) {
	w := newBinWriter()
	w.u32(uint32(c.Len()))

	for lng := MinCellLng; lng <= MaxCellLng; lng++ {
		for lat := MinCellLat; lat <= MaxCellLat; lat++ {
			entry, ok := c.Lookup(int16(lng), int16(lat))
			if !ok {
				continue
			}
			ids, err := NewCandidateIDs(entry)
			if err != nil {
				if capErr, isCap := err.(*CapacityExceededError); isCap {
					capErr.Lng, capErr.Lat = int16(lng), int16(lat)
				}
				return nil, err
			}
			w.i16(int16(lng))
			w.i16(int16(lat))
			for _, id := range ids {
				w.i16(id)
			}
		}
	}

	return sealArtifact(cacheMagic, w.bytes())
}

// DecodeCache reconstructs a spatial cache from an encoded artifact.
func DecodeCache(data []byte) (*Cache, error) {
	payload, err := openArtifact("cache", cacheMagic, data)
	if err != nil {
		return nil, err
	}

	r := &binReader{artifact: "cache", data: payload}
	count := r.u32()
	if r.err != nil {
		return nil, r.err
	}

	cells := make(map[CellKey]CacheEntry, count)
	for i := uint32(0); i < count; i++ {
		key := CellKey{Lng: r.i16(), Lat: r.i16()}
		var ids CandidateIDs
		for j := range ids {
			ids[j] = r.i16()
		}
		if r.err != nil {
			return nil, r.err
		}

		// Valid arrays hold ids followed only by sentinel padding. An id
		// after a sentinel means the record is corrupt; dropping it would
		// silently lose candidates.
		entry := make(CacheEntry, 0, CandidateCapacity)
		padded := false
		for _, id := range ids {
			switch {
			case id == NoCandidate:
				padded = true
			case padded:
				return nil, &DecodeError{
					Artifact: "cache",
					Reason:   fmt.Sprintf("cell (%d,%d) has candidate id %d after sentinel padding", key.Lng, key.Lat, id),
				}
			default:
				entry = append(entry, id)
			}
		}
		cells[key] = entry
	}

	if err := r.finish(); err != nil {
		return nil, err
	}
	return &Cache{cells: cells}, nil
}

// WriteDatasetArtifact encodes the dataset and writes it atomically.
func WriteDatasetArtifact(path string, ds *Dataset) error {
	data, err := EncodeDataset(ds)
	if err != nil {
		return err
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write dataset artifact: %w", err)
	}
	return nil
}

// ReadDatasetArtifact reads and decodes a dataset artifact.
func ReadDatasetArtifact(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset artifact: %w", err)
	}
	return DecodeDataset(data)
}

// WriteCacheArtifact encodes the cache and writes it atomically.
func WriteCacheArtifact(path string, c *Cache) error {
	data, err := EncodeCache(c)
	if err != nil {
		return err
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write cache artifact: %w", err)
	}
	return nil
}

// ReadCacheArtifact reads and decodes a cache artifact.
func ReadCacheArtifact(path string) (*Cache, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cache artifact: %w", err)
	}
	return DecodeCache(data)
}

// sealArtifact prepends the header and compresses the payload.
func sealArtifact(magic string, payload []byte) ([]byte, error) {
	// Encoder concurrency is pinned to one goroutine so the compressed
	// bytes are identical run to run.
	enc, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedDefault),
		zstd.WithEncoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("init compressor: %w", err)
	}
	defer enc.Close()

	out := make([]byte, artifactHeaderSize, artifactHeaderSize+len(payload)/2)
	copy(out[0:4], magic)
	binary.LittleEndian.PutUint16(out[4:6], artifactVersion)
	return enc.EncodeAll(payload, out), nil
}

// openArtifact validates the header and decompresses the payload.
func openArtifact(artifact, magic string, data []byte) ([]byte, error) {
	if len(data) < artifactHeaderSize {
		return nil, &DecodeError{Artifact: artifact, Reason: "file too small"}
	}
	if string(data[0:4]) != magic {
		return nil, &DecodeError{Artifact: artifact, Reason: "invalid magic"}
	}
	if version := binary.LittleEndian.Uint16(data[4:6]); version != artifactVersion {
		return nil, &DecodeError{
			Artifact: artifact,
			Reason:   fmt.Sprintf("version %d, want %d", version, artifactVersion),
		}
	}

	dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("init decompressor: %w", err)
	}
	defer dec.Close()

	payload, err := dec.DecodeAll(data[artifactHeaderSize:], nil)
	if err != nil {
		return nil, &DecodeError{Artifact: artifact, Reason: "corrupt payload: " + err.Error()}
	}
	return payload, nil
}

// binWriter accumulates the little-endian payload.
type binWriter struct {
	buf bytes.Buffer
}

func newBinWriter() *binWriter {
	return &binWriter{}
}

func (w *binWriter) bytes() []byte { return w.buf.Bytes() }

func (w *binWriter) u16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	w.buf.Write(b[:])
}

func (w *binWriter) i16(v int16) { w.u16(uint16(v)) }

func (w *binWriter) u32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf.Write(b[:])
}

func (w *binWriter) f64(v float64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], math.Float64bits(v))
	w.buf.Write(b[:])
}

// str writes a length-prefixed string (2-byte length).
func (w *binWriter) str(s string) error {
	if len(s) > maxStringLen {
		return fmt.Errorf("string field of %d bytes exceeds %d byte limit", len(s), maxStringLen)
	}
	w.u16(uint16(len(s)))
	w.buf.WriteString(s)
	return nil
}

func (w *binWriter) ring(r orb.Ring) {
	w.u32(uint32(len(r)))
	for _, pt := range r {
		w.f64(pt[0])
		w.f64(pt[1])
	}
}

func (w *binWriter) polygon(p orb.Polygon) {
	w.u32(uint32(len(p)))
	for _, r := range p {
		w.ring(r)
	}
}

func (w *binWriter) geometry(g orb.Geometry) error {
	switch geom := g.(type) {
	case orb.Polygon:
		w.buf.WriteByte(geomTagPolygon)
		w.polygon(geom)
	case orb.MultiPolygon:
		w.buf.WriteByte(geomTagMultiPolygon)
		w.u32(uint32(len(geom)))
		for _, p := range geom {
			w.polygon(p)
		}
	default:
		return fmt.Errorf("unsupported geometry type %T", g)
	}
	return nil
}

// binReader consumes the little-endian payload with a sticky error, so a
// truncated artifact surfaces a single *DecodeError instead of a panic.
type binReader struct {
	artifact string
	data     []byte
	pos      int
	err      error
}

func (r *binReader) fail(reason string) {
	if r.err == nil {
		r.err = &DecodeError{Artifact: r.artifact, Reason: reason}
	}
}

func (r *binReader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if r.pos+n > len(r.data) {
		r.fail("truncated payload")
		return nil
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b
}

func (r *binReader) u8() byte {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *binReader) u16() uint16 {
	b := r.take(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (r *binReader) i16() int16 { return int16(r.u16()) }

func (r *binReader) u32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *binReader) f64() float64 {
	b := r.take(8)
	if b == nil {
		return 0
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(b))
}

func (r *binReader) str() string {
	n := int(r.u16())
	b := r.take(n)
	if b == nil {
		return ""
	}
	return string(b)
}

func (r *binReader) ring() orb.Ring {
	n := r.u32()
	if r.err != nil {
		return nil
	}
	if int(n)*16 > len(r.data)-r.pos {
		r.fail("ring point count exceeds payload")
		return nil
	}
	ring := make(orb.Ring, n)
	for i := range ring {
		ring[i] = orb.Point{r.f64(), r.f64()}
	}
	return ring
}

func (r *binReader) polygon() orb.Polygon {
	n := r.u32()
	if r.err != nil {
		return nil
	}
	if int(n) > len(r.data)-r.pos {
		r.fail("ring count exceeds payload")
		return nil
	}
	poly := make(orb.Polygon, 0, n)
	for i := uint32(0); i < n && r.err == nil; i++ {
		poly = append(poly, r.ring())
	}
	return poly
}

func (r *binReader) geometry() orb.Geometry {
	switch tag := r.u8(); tag {
	case geomTagPolygon:
		return r.polygon()
	case geomTagMultiPolygon:
		n := r.u32()
		if r.err != nil {
			return nil
		}
		if int(n) > len(r.data)-r.pos {
			r.fail("polygon count exceeds payload")
			return nil
		}
		mp := make(orb.MultiPolygon, 0, n)
		for i := uint32(0); i < n && r.err == nil; i++ {
			mp = append(mp, r.polygon())
		}
		return mp
	default:
		if r.err == nil {
			r.fail(fmt.Sprintf("unknown geometry tag %d", tag))
		}
		return nil
	}
}

// finish reports the sticky error, or trailing garbage after the last field.
func (r *binReader) finish() error {
	if r.err != nil {
		return r.err
	}
	if r.pos != len(r.data) {
		r.fail(fmt.Sprintf("%d trailing bytes after payload", len(r.data)-r.pos))
	}
	return r.err
}
