package tz

import (
	"fmt"
)

// MalformedInputError indicates a source feature that cannot produce a
// complete timezone record. Dataset construction aborts on the first one;
// partial records are never produced.
type MalformedInputError struct {
	FeatureIndex int
	Field        string
	Reason       string
}

func (e *MalformedInputError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("malformed feature %d: property %q %s",
			e.FeatureIndex, e.Field, e.Reason)
	}
	return fmt.Sprintf("malformed feature %d: %s", e.FeatureIndex, e.Reason)
}

// CapacityExceededError indicates a grid cell with more candidate timezones
// than the fixed encoding can hold. This signals that CandidateCapacity needs
// raising for a denser dataset; candidate lists are never truncated silently.
type CapacityExceededError struct {
	Lng, Lat int16
	Count    int
}

func (e *CapacityExceededError) Error() string {
	return fmt.Sprintf("cell (%d,%d) has %d candidate timezones, capacity is %d",
		e.Lng, e.Lat, e.Count, CandidateCapacity)
}

// DecodeError indicates a persisted artifact that is truncated, corrupted,
// or written by an incompatible version.
type DecodeError struct {
	Artifact string // "dataset" or "cache"
	Reason   string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s artifact: %s", e.Artifact, e.Reason)
}
