package tz

// CandidateCapacity is the fixed number of candidate slots per grid cell.
//
// This number is selected based on the existing Natural Earth data and may
// need to be raised for a newer, denser dataset. Keeping the candidates in a
// small inline array avoids per-cell pointer indirection across all ~64,800
// entries, which matters for the runtime query path that consumes the cache.
const CandidateCapacity = 5

// NoCandidate marks an unused slot in a CandidateIDs array.
const NoCandidate int16 = -1

// CandidateIDs is the fixed-width encoding of one cell's candidate list.
// The first len(entry) slots hold record ids in ascending order; the rest
// hold NoCandidate.
type CandidateIDs [CandidateCapacity]int16

// NewCandidateIDs encodes a candidate list into a fixed-width array.
//
// A list longer than CandidateCapacity fails with *CapacityExceededError;
// it is never truncated silently.
func NewCandidateIDs(ids []int16) (CandidateIDs, error) {
	if len(ids) > CandidateCapacity {
		return CandidateIDs{}, &CapacityExceededError{Count: len(ids)}
	}

	out := CandidateIDs{NoCandidate, NoCandidate, NoCandidate, NoCandidate, NoCandidate}
	copy(out[:], ids)
	return out, nil
}

// IDs returns the used slots as a slice, excluding sentinel padding.
func (c CandidateIDs) IDs() []int16 {
	for i, id := range c {
		if id == NoCandidate {
			return c[:i:i]
		}
	}
	return c[:]
}
