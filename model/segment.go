package model

// Segment is a reusable named set of users, defined by inclusion and
// exclusion key lists plus matching rules. An unbounded ("big") segment has
// no rules; its membership lives in an external store addressed by
// (key, generation).
type Segment struct {
	Key        string        `json:"key"`
	Included   []string      `json:"included,omitempty"`
	Excluded   []string      `json:"excluded,omitempty"`
	Salt       string        `json:"salt"`
	Rules      []SegmentRule `json:"rules,omitempty"`
	Version    int           `json:"version"`
	Deleted    bool          `json:"deleted,omitempty"`
	Unbounded  bool          `json:"unbounded,omitempty"`
	Generation *int          `json:"generation,omitempty"`

	Preprocessed *SegmentPreprocessed `json:"-"`
}

// SegmentRule is a conjunction of clauses with an optional percentage
// weight. A rule without a weight includes every matching user; with a
// weight, a matching user is included iff their bucket value falls under
// weight/100000, bucketing by BucketBy (default "key") with the segment's
// key and salt.
type SegmentRule struct {
	ID       string        `json:"id,omitempty"`
	Clauses  []Clause      `json:"clauses,omitempty"`
	Weight   *int          `json:"weight,omitempty"`
	BucketBy UserAttribute `json:"bucketBy,omitempty"`
}
