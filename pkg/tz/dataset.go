package tz

import (
	"fmt"
	"math"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Record is one timezone boundary polygon plus its metadata, extracted from a
// Natural Earth timezone feature.
//
// Records compare equal by ID. IDs are assigned sequentially from input
// feature order, so they are unique and position-equal within one build but
// not stable across rebuilds or dataset versions.
type Record struct {
	// ID is the index of the record in the dataset.
	ID int

	// Identifier is the IANA TZ identifier (e.g., "America/Los_Angeles").
	// Empty when the source feature does not carry one.
	Identifier string

	// Description lists the places the timezone covers.
	Description string

	// DSTDescription lists daylight savings information.
	// Empty when the source feature does not carry one.
	DSTDescription string

	// Offset is the display offset string (e.g., "UTC-8:00").
	Offset string

	// Zone is the offset in hours (e.g., -8.0).
	Zone float64

	// RawOffset is the offset in seconds, round(Zone * 3600).
	RawOffset int

	// BBox is the axis-aligned bounding rectangle of the geometry.
	BBox orb.Bound

	// Geometry is the boundary polygon or multipolygon in WGS-84
	// [lon, lat] decimal degrees.
	Geometry orb.Geometry
}

// Dataset is an ordered, immutable collection of timezone records for one
// build. Record order equals input feature order.
type Dataset struct {
	records []Record
}

// NewDataset builds a dataset from a parsed feature collection.
//
// Each feature must carry "places" (string), "time_zone" (string), and "zone"
// (number) properties and a polygon or multipolygon geometry. "dst_places"
// and "tz_name1st" are optional. The first missing or mistyped field, or an
// unusable geometry, aborts construction with a *MalformedInputError —
// an incomplete record is unsafe for point resolution.
func NewDataset(fc *geojson.FeatureCollection) (*Dataset, error) {
	if fc == nil {
		return nil, &MalformedInputError{FeatureIndex: -1, Reason: "feature collection is nil"}
	}

	records := make([]Record, 0, len(fc.Features))
	for i, feature := range fc.Features {
		record, err := newRecord(i, feature)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	return &Dataset{records: records}, nil
}

// newRecord converts one feature into a record, validating every required
// field up front.
func newRecord(id int, feature *geojson.Feature) (Record, error) {
	if feature == nil {
		return Record{}, &MalformedInputError{FeatureIndex: id, Reason: "feature is nil"}
	}

	description, err := requiredString(id, feature.Properties, "places")
	if err != nil {
		return Record{}, err
	}
	offset, err := requiredString(id, feature.Properties, "time_zone")
	if err != nil {
		return Record{}, err
	}
	zone, err := requiredNumber(id, feature.Properties, "zone")
	if err != nil {
		return Record{}, err
	}
	dstDescription, err := optionalString(id, feature.Properties, "dst_places")
	if err != nil {
		return Record{}, err
	}
	identifier, err := optionalString(id, feature.Properties, "tz_name1st")
	if err != nil {
		return Record{}, err
	}

	switch feature.Geometry.(type) {
	case orb.Polygon, orb.MultiPolygon:
	case nil:
		return Record{}, &MalformedInputError{FeatureIndex: id, Reason: "feature has no geometry"}
	default:
		return Record{}, &MalformedInputError{
			FeatureIndex: id,
			Reason:       fmt.Sprintf("geometry type %q is not a polygon or multipolygon", feature.Geometry.GeoJSONType()),
		}
	}

	// Prefer the feature's own bbox; fall back to the geometry's bound when
	// the feature does not carry a usable one.
	bbox := feature.Geometry.Bound()
	if feature.BBox.Valid() {
		bbox = feature.BBox.Bound()
	}

	return Record{
		ID:             id,
		Identifier:     identifier,
		Description:    description,
		DSTDescription: dstDescription,
		Offset:         offset,
		Zone:           zone,
		RawOffset:      int(math.Round(zone * 3600)),
		BBox:           bbox,
		Geometry:       feature.Geometry,
	}, nil
}

// Len returns the number of records in the dataset.
func (d *Dataset) Len() int {
	return len(d.records)
}

// Record returns the record at index i. Panics if i is out of range.
func (d *Dataset) Record(i int) Record {
	return d.records[i]
}

// Records returns all records in input order. The returned slice must not be
// modified.
func (d *Dataset) Records() []Record {
	return d.records
}

// FeaturesFromGeoJSON parses a GeoJSON feature collection from raw bytes.
func FeaturesFromGeoJSON(data []byte) (*geojson.FeatureCollection, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parse geojson: %w", err)
	}
	return fc, nil
}

// FeaturesFromFile reads and parses a GeoJSON feature collection from a file.
func FeaturesFromFile(path string) (*geojson.FeatureCollection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read geojson: %w", err)
	}
	return FeaturesFromGeoJSON(data)
}

func requiredString(id int, props geojson.Properties, key string) (string, error) {
	value, ok := props[key]
	if !ok || value == nil {
		return "", &MalformedInputError{FeatureIndex: id, Field: key, Reason: "is missing"}
	}
	s, ok := value.(string)
	if !ok {
		return "", &MalformedInputError{
			FeatureIndex: id,
			Field:        key,
			Reason:       fmt.Sprintf("must be a string, got %T", value),
		}
	}
	return s, nil
}

// optionalString treats a missing key or JSON null as absent, but still
// rejects a present value of the wrong type.
func optionalString(id int, props geojson.Properties, key string) (string, error) {
	value, ok := props[key]
	if !ok || value == nil {
		return "", nil
	}
	s, ok := value.(string)
	if !ok {
		return "", &MalformedInputError{
			FeatureIndex: id,
			Field:        key,
			Reason:       fmt.Sprintf("must be a string or null, got %T", value),
		}
	}
	return s, nil
}

func requiredNumber(id int, props geojson.Properties, key string) (float64, error) {
	value, ok := props[key]
	if !ok || value == nil {
		return 0, &MalformedInputError{FeatureIndex: id, Field: key, Reason: "is missing"}
	}
	switch n := value.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	default:
		return 0, &MalformedInputError{
			FeatureIndex: id,
			Field:        key,
			Reason:       fmt.Sprintf("must be a number, got %T", value),
		}
	}
}
