// Package model defines the immutable data model shared by every part of the
// evaluation engine: feature flags, user segments, users, evaluation results,
// and the preprocessing layer that interns evaluation artifacts after
// deserialization.
//
// Flags and segments are plain JSON-shaped structs. The field names and enum
// spellings are the canonical on-the-wire form and must not change. Instances
// are immutable once preprocessed; the evaluator only ever reads them.
package model

// Operator represents a clause comparison operator (string values map
// directly to the wire format).
type Operator string

// Supported clause operators.
const (
	OperatorIn                 Operator = "in"
	OperatorEndsWith           Operator = "endsWith"
	OperatorStartsWith         Operator = "startsWith"
	OperatorMatches            Operator = "matches"
	OperatorContains           Operator = "contains"
	OperatorLessThan           Operator = "lessThan"
	OperatorLessThanOrEqual    Operator = "lessThanOrEqual"
	OperatorGreaterThan        Operator = "greaterThan"
	OperatorGreaterThanOrEqual Operator = "greaterThanOrEqual"
	OperatorBefore             Operator = "before"
	OperatorAfter              Operator = "after"
	OperatorSemVerEqual        Operator = "semVerEqual"
	OperatorSemVerLessThan     Operator = "semVerLessThan"
	OperatorSemVerGreaterThan  Operator = "semVerGreaterThan"
	OperatorSegmentMatch       Operator = "segmentMatch"
)

// RolloutKind distinguishes a plain percentage rollout from an experiment.
type RolloutKind string

const (
	RolloutKindRollout    RolloutKind = "rollout"
	RolloutKindExperiment RolloutKind = "experiment"
)

// FeatureFlag is a versioned flag configuration entity. Identity is Key;
// Version increases monotonically with each change.
type FeatureFlag struct {
	Key                    string             `json:"key"`
	Version                int                `json:"version"`
	On                     bool               `json:"on"`
	Prerequisites          []Prerequisite     `json:"prerequisites,omitempty"`
	Salt                   string             `json:"salt"`
	Targets                []Target           `json:"targets,omitempty"`
	Rules                  []Rule             `json:"rules,omitempty"`
	Fallthrough            VariationOrRollout `json:"fallthrough"`
	OffVariation           *int               `json:"offVariation,omitempty"`
	Variations             []any              `json:"variations"`
	ClientSide             bool               `json:"clientSide"`
	TrackEvents            bool               `json:"trackEvents"`
	TrackEventsFallthrough bool               `json:"trackEventsFallthrough"`
	DebugEventsUntilDate   *int64             `json:"debugEventsUntilDate,omitempty"`
	Deleted                bool               `json:"deleted,omitempty"`

	// Preprocessed holds interned evaluation artifacts. It is populated by
	// PreprocessFlag after deserialization and never serialized. The
	// evaluator works correctly, if less efficiently, when it is nil.
	Preprocessed *FlagPreprocessed `json:"-"`
}

// Prerequisite is a dependency on another flag producing a specific
// variation index.
type Prerequisite struct {
	Key       string `json:"key"`
	Variation int    `json:"variation"`

	Preprocessed *PrerequisitePreprocessed `json:"-"`
}

// Target is an explicit user-key list mapped to a fixed variation.
type Target struct {
	Values    []string `json:"values"`
	Variation int      `json:"variation"`

	Preprocessed *TargetPreprocessed `json:"-"`
}

// Rule is an ordered targeting rule: a conjunction of clauses plus either a
// fixed variation or a rollout. Rule order within a flag is significant;
// the first matching rule wins.
type Rule struct {
	ID      string   `json:"id"`
	Clauses []Clause `json:"clauses,omitempty"`
	VariationOrRollout
	TrackEvents bool `json:"trackEvents"`

	Preprocessed *RulePreprocessed `json:"-"`
}

// Clause is a single targeting predicate. Values are ORed: the clause
// matches if the user attribute matches any of them under Op. Negate is
// applied afterward, but only when the attribute is present on the user;
// a segmentMatch clause ignores the attribute and always applies Negate.
type Clause struct {
	Attribute UserAttribute `json:"attribute"`
	Op        Operator      `json:"op"`
	Values    []any         `json:"values"`
	Negate    bool          `json:"negate"`

	Preprocessed *ClausePreprocessed `json:"-"`
}

// VariationOrRollout designates either a fixed variation index or a
// weighted rollout. Exactly one of the two must be set; anything else is a
// malformed flag.
type VariationOrRollout struct {
	Variation *int     `json:"variation,omitempty"`
	Rollout   *Rollout `json:"rollout,omitempty"`
}

// Rollout assigns variations over the [0,1) bucket space by weight.
type Rollout struct {
	Variations []WeightedVariation `json:"variations"`
	BucketBy   UserAttribute       `json:"bucketBy,omitempty"`
	Kind       RolloutKind         `json:"kind,omitempty"`
	Seed       *int                `json:"seed,omitempty"`
}

// IsExperiment reports whether this rollout drives experiment analytics.
func (r *Rollout) IsExperiment() bool {
	return r.Kind == RolloutKindExperiment
}

// WeightedVariation is one slice of a rollout. Weight is in parts per
// 100000. Untracked suppresses the inExperiment reason flag for
// experiments.
type WeightedVariation struct {
	Variation int  `json:"variation"`
	Weight    int  `json:"weight"`
	Untracked bool `json:"untracked"`
}
