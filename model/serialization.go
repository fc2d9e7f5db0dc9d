package model

import (
	"encoding/json"
	"fmt"
)

// ParseOptions controls flag/segment deserialization.
type ParseOptions struct {
	// DisablePreprocessing skips populating the transient interned
	// artifacts. Evaluation still works; artifacts are built on demand.
	// Exists so the on-demand path stays exercised.
	DisablePreprocessing bool
}

// ParseFeatureFlag deserializes a flag from its canonical JSON form and
// preprocesses it.
func ParseFeatureFlag(data []byte) (*FeatureFlag, error) {
	return ParseFeatureFlagWithOptions(data, ParseOptions{})
}

// ParseFeatureFlagWithOptions is ParseFeatureFlag with explicit options.
func ParseFeatureFlagWithOptions(data []byte, opts ParseOptions) (*FeatureFlag, error) {
	var f FeatureFlag
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse feature flag: %w", err)
	}
	if !opts.DisablePreprocessing {
		PreprocessFlag(&f)
	}
	return &f, nil
}

// ParseSegment deserializes a segment from its canonical JSON form and
// preprocesses it.
func ParseSegment(data []byte) (*Segment, error) {
	return ParseSegmentWithOptions(data, ParseOptions{})
}

// ParseSegmentWithOptions is ParseSegment with explicit options.
func ParseSegmentWithOptions(data []byte, opts ParseOptions) (*Segment, error) {
	var s Segment
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse segment: %w", err)
	}
	if !opts.DisablePreprocessing {
		PreprocessSegment(&s)
	}
	return &s, nil
}

// MarshalFeatureFlag serializes a flag. A deleted flag serializes as the
// version-and-deleted tombstone so stores can replace items without
// retaining their contents.
func MarshalFeatureFlag(f *FeatureFlag) ([]byte, error) {
	if f.Deleted {
		return tombstone(f.Version), nil
	}
	return json.Marshal(f)
}

// MarshalSegment serializes a segment, with the same tombstone form for
// deleted items.
func MarshalSegment(s *Segment) ([]byte, error) {
	if s.Deleted {
		return tombstone(s.Version), nil
	}
	return json.Marshal(s)
}

func tombstone(version int) []byte {
	return fmt.Appendf(nil, `{"version":%d,"deleted":true}`, version)
}
