package model

import (
	"encoding/json"
	"fmt"
)

// NoVariation is the variation index used when a result carries no
// variation (off with no off variation, or an error).
const NoVariation = -1

// ReasonKind is the tag of a Reason.
type ReasonKind string

// Reason kinds, spelled as they appear on the wire.
const (
	ReasonOff                ReasonKind = "OFF"
	ReasonFallthrough        ReasonKind = "FALLTHROUGH"
	ReasonTargetMatch        ReasonKind = "TARGET_MATCH"
	ReasonRuleMatch          ReasonKind = "RULE_MATCH"
	ReasonPrerequisiteFailed ReasonKind = "PREREQUISITE_FAILED"
	ReasonError              ReasonKind = "ERROR"
)

// EvalErrorKind describes why an evaluation produced an error result.
type EvalErrorKind string

const (
	EvalErrorUserNotSpecified EvalErrorKind = "USER_NOT_SPECIFIED"
	EvalErrorMalformedFlag    EvalErrorKind = "MALFORMED_FLAG"
	// EvalErrorFlagNotFound and the kinds below are produced by the client
	// facade, never by the evaluator itself; they are defined here so the
	// whole error taxonomy shares one type.
	EvalErrorFlagNotFound   EvalErrorKind = "FLAG_NOT_FOUND"
	EvalErrorException      EvalErrorKind = "EXCEPTION"
	EvalErrorClientNotReady EvalErrorKind = "CLIENT_NOT_READY"
)

// BigSegmentsStatus is the per-evaluation availability indicator for
// unbounded segment lookups.
type BigSegmentsStatus string

const (
	BigSegmentsHealthy       BigSegmentsStatus = "HEALTHY"
	BigSegmentsStale         BigSegmentsStatus = "STALE"
	BigSegmentsStoreError    BigSegmentsStatus = "STORE_ERROR"
	BigSegmentsNotConfigured BigSegmentsStatus = "NOT_CONFIGURED"
)

var bigSegmentsStatusRank = map[BigSegmentsStatus]int{
	BigSegmentsHealthy:       0,
	BigSegmentsStale:         1,
	BigSegmentsStoreError:    2,
	BigSegmentsNotConfigured: 3,
}

// WorseBigSegmentsStatus reduces two statuses to the worse one, under the
// fixed ordering HEALTHY < STALE < STORE_ERROR < NOT_CONFIGURED.
func WorseBigSegmentsStatus(a, b BigSegmentsStatus) BigSegmentsStatus {
	if bigSegmentsStatusRank[b] > bigSegmentsStatusRank[a] {
		return b
	}
	return a
}

// Reason is a tagged description of why an evaluation produced its value.
// It is an immutable comparable value; construct with the New*Reason
// functions and compare with ==.
type Reason struct {
	kind              ReasonKind
	ruleIndex         int
	ruleID            string
	prerequisiteKey   string
	inExperiment      bool
	errorKind         EvalErrorKind
	bigSegmentsStatus BigSegmentsStatus
}

// NewOffReason returns the OFF reason.
func NewOffReason() Reason {
	return Reason{kind: ReasonOff, ruleIndex: NoVariation}
}

// NewFallthroughReason returns a FALLTHROUGH reason.
func NewFallthroughReason(inExperiment bool) Reason {
	return Reason{kind: ReasonFallthrough, ruleIndex: NoVariation, inExperiment: inExperiment}
}

// NewTargetMatchReason returns the TARGET_MATCH reason.
func NewTargetMatchReason() Reason {
	return Reason{kind: ReasonTargetMatch, ruleIndex: NoVariation}
}

// NewRuleMatchReason returns a RULE_MATCH reason for the rule at the given
// index.
func NewRuleMatchReason(ruleIndex int, ruleID string, inExperiment bool) Reason {
	return Reason{kind: ReasonRuleMatch, ruleIndex: ruleIndex, ruleID: ruleID, inExperiment: inExperiment}
}

// NewPrerequisiteFailedReason returns a PREREQUISITE_FAILED reason naming
// the prerequisite flag that did not produce the required variation.
func NewPrerequisiteFailedReason(prereqKey string) Reason {
	return Reason{kind: ReasonPrerequisiteFailed, ruleIndex: NoVariation, prerequisiteKey: prereqKey}
}

// NewErrorReason returns an ERROR reason.
func NewErrorReason(errorKind EvalErrorKind) Reason {
	return Reason{kind: ReasonError, ruleIndex: NoVariation, errorKind: errorKind}
}

// Kind returns the reason's tag.
func (r Reason) Kind() ReasonKind { return r.kind }

// RuleIndex returns the matched rule index for RULE_MATCH reasons, or -1.
func (r Reason) RuleIndex() int { return r.ruleIndex }

// RuleID returns the matched rule ID for RULE_MATCH reasons.
func (r Reason) RuleID() string { return r.ruleID }

// PrerequisiteKey returns the failed prerequisite flag key for
// PREREQUISITE_FAILED reasons.
func (r Reason) PrerequisiteKey() string { return r.prerequisiteKey }

// InExperiment reports whether the result was produced by a tracked
// experiment variation.
func (r Reason) InExperiment() bool { return r.inExperiment }

// ErrorKind returns the error kind for ERROR reasons.
func (r Reason) ErrorKind() EvalErrorKind { return r.errorKind }

// BigSegmentsStatus returns the worst big-segment store status observed
// during the evaluation, or "" if no unbounded segment was consulted.
func (r Reason) BigSegmentsStatus() BigSegmentsStatus { return r.bigSegmentsStatus }

// WithBigSegmentsStatus returns a copy of the reason carrying the given
// status.
func (r Reason) WithBigSegmentsStatus(status BigSegmentsStatus) Reason {
	r.bigSegmentsStatus = status
	return r
}

// String renders the reason in the compact diagnostic form used in log
// output, e.g. RULE_MATCH(1,rule-id).
func (r Reason) String() string {
	switch r.kind {
	case ReasonRuleMatch:
		return fmt.Sprintf("%s(%d,%s)", r.kind, r.ruleIndex, r.ruleID)
	case ReasonPrerequisiteFailed:
		return fmt.Sprintf("%s(%s)", r.kind, r.prerequisiteKey)
	case ReasonError:
		return fmt.Sprintf("%s(%s)", r.kind, r.errorKind)
	default:
		return string(r.kind)
	}
}

type reasonJSON struct {
	Kind              ReasonKind        `json:"kind"`
	RuleIndex         *int              `json:"ruleIndex,omitempty"`
	RuleID            string            `json:"ruleId,omitempty"`
	PrerequisiteKey   string            `json:"prerequisiteKey,omitempty"`
	InExperiment      bool              `json:"inExperiment,omitempty"`
	ErrorKind         EvalErrorKind     `json:"errorKind,omitempty"`
	BigSegmentsStatus BigSegmentsStatus `json:"bigSegmentsStatus,omitempty"`
}

// MarshalJSON renders the reason in the canonical wire shape.
func (r Reason) MarshalJSON() ([]byte, error) {
	out := reasonJSON{
		Kind:              r.kind,
		RuleID:            r.ruleID,
		PrerequisiteKey:   r.prerequisiteKey,
		InExperiment:      r.inExperiment,
		ErrorKind:         r.errorKind,
		BigSegmentsStatus: r.bigSegmentsStatus,
	}
	if r.kind == ReasonRuleMatch {
		idx := r.ruleIndex
		out.RuleIndex = &idx
	}
	return json.Marshal(out)
}

// UnmarshalJSON parses the canonical wire shape.
func (r *Reason) UnmarshalJSON(data []byte) error {
	var in reasonJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	r.kind = in.Kind
	r.ruleIndex = NoVariation
	if in.RuleIndex != nil {
		r.ruleIndex = *in.RuleIndex
	}
	r.ruleID = in.RuleID
	r.prerequisiteKey = in.PrerequisiteKey
	r.inExperiment = in.InExperiment
	r.errorKind = in.ErrorKind
	r.bigSegmentsStatus = in.BigSegmentsStatus
	return nil
}

// EvalResult is the immutable output of one flag evaluation: the variation
// value, its index (NoVariation if none), and the reason. Results produced
// from a preprocessed flag are interned singletons; equality is structural
// either way.
type EvalResult struct {
	value               any
	variationIndex      int
	reason              Reason
	forceReasonTracking bool
}

// NewEvalResult returns a result with the given value, variation index and
// reason.
func NewEvalResult(value any, variationIndex int, reason Reason) *EvalResult {
	return &EvalResult{value: value, variationIndex: variationIndex, reason: reason}
}

// NewEvalResultError returns an error result: null value, no variation,
// ERROR reason of the given kind.
func NewEvalResultError(errorKind EvalErrorKind) *EvalResult {
	return &EvalResult{value: nil, variationIndex: NoVariation, reason: NewErrorReason(errorKind)}
}

// Value returns the variation value (nil for error results or an off
// result with no off variation).
func (r *EvalResult) Value() any { return r.value }

// VariationIndex returns the variation index, or NoVariation.
func (r *EvalResult) VariationIndex() int { return r.variationIndex }

// Reason returns the evaluation reason.
func (r *EvalResult) Reason() Reason { return r.reason }

// ForceReasonTracking reports whether the flag configuration demands that
// the reason be included in analytics events for this result.
func (r *EvalResult) ForceReasonTracking() bool { return r.forceReasonTracking }

// IsError reports whether the result carries an ERROR reason.
func (r *EvalResult) IsError() bool { return r.reason.kind == ReasonError }

// WithForceReasonTracking returns a result with the tracking flag set,
// copying only when the value changes.
func (r *EvalResult) WithForceReasonTracking(track bool) *EvalResult {
	if r.forceReasonTracking == track {
		return r
	}
	c := *r
	c.forceReasonTracking = track
	return &c
}

// WithReason returns a result carrying a different reason, copying only
// when the reason changes.
func (r *EvalResult) WithReason(reason Reason) *EvalResult {
	if r.reason == reason {
		return r
	}
	c := *r
	c.reason = reason
	return &c
}

// Equal compares two results structurally.
func (r *EvalResult) Equal(other *EvalResult) bool {
	if r == nil || other == nil {
		return r == other
	}
	return r.variationIndex == other.variationIndex &&
		r.reason == other.reason &&
		r.forceReasonTracking == other.forceReasonTracking &&
		ValuesEqual(r.value, other.value)
}

// String renders the result in a compact diagnostic form.
func (r *EvalResult) String() string {
	return fmt.Sprintf("{%v, %d, %s}", r.value, r.variationIndex, r.reason)
}

type evalResultJSON struct {
	Value          any    `json:"value"`
	VariationIndex *int   `json:"variationIndex,omitempty"`
	Reason         Reason `json:"reason"`
}

// MarshalJSON renders the result with variationIndex omitted when there is
// no variation.
func (r *EvalResult) MarshalJSON() ([]byte, error) {
	out := evalResultJSON{Value: r.value, Reason: r.reason}
	if r.variationIndex != NoVariation {
		idx := r.variationIndex
		out.VariationIndex = &idx
	}
	return json.Marshal(out)
}
