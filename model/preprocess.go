package model

import (
	"regexp"
	"time"

	"github.com/Masterminds/semver/v3"
)

// Preprocessing runs once per flag or segment, immediately after
// deserialization, and interns every immutable artifact the evaluator
// would otherwise rebuild on each call: per-variation results for each
// section, per-rule match reasons, per-prerequisite failure results, and
// parsed clause values. The preprocessed tables are plain slices indexed
// by variation or rule index so steady-state lookups are integer-indexed
// and allocation-free.
//
// The evaluator must behave identically when preprocessing was skipped;
// in that case it builds equivalent artifacts on demand.

// PrecomputedResults is a fixed table of interned results indexed by
// variation, with a parallel table for the inExperiment variants when the
// owning section is an experiment rollout.
type PrecomputedResults struct {
	regular      []*EvalResult
	inExperiment []*EvalResult
}

// ForVariation returns the interned result for a variation index, or nil
// if the index is out of range or the needed variant was not built.
func (p *PrecomputedResults) ForVariation(variation int, inExperiment bool) *EvalResult {
	if p == nil || variation < 0 {
		return nil
	}
	table := p.regular
	if inExperiment {
		table = p.inExperiment
	}
	if variation >= len(table) {
		return nil
	}
	return table[variation]
}

// FlagPreprocessed holds a flag's interned artifacts.
type FlagPreprocessed struct {
	// OffResult is the complete result served when the flag is off. Nil
	// when the off variation index is out of range (that case is an
	// evaluation-time error).
	OffResult *EvalResult

	// FallthroughResults indexes fallthrough results by variation.
	FallthroughResults PrecomputedResults
}

// PrerequisitePreprocessed holds the interned short-circuit result served
// when this prerequisite fails.
type PrerequisitePreprocessed struct {
	FailedResult *EvalResult
}

// TargetPreprocessed holds a target's key set and interned match result.
type TargetPreprocessed struct {
	ValuesSet   map[string]struct{}
	MatchResult *EvalResult
}

// RulePreprocessed holds a rule's interned reason and per-variation
// results.
type RulePreprocessed struct {
	MatchReason Reason
	Results     PrecomputedResults
}

// ClauseValueParsed carries the parsed form of one clause value for the
// operators that need one. A nil pointer means the value does not parse
// for that operator and can never match.
type ClauseValueParsed struct {
	Regex  *regexp.Regexp
	Time   *time.Time
	SemVer *semver.Version
}

// ClausePreprocessed holds per-clause lookup structures.
type ClausePreprocessed struct {
	// ValuesSet is a constant-time membership set for the "in" operator.
	// Nil when any clause value is a composite (those fall back to a
	// linear scan).
	ValuesSet map[any]struct{}

	// Values parallels Clause.Values for operators with a parsed form.
	Values []ClauseValueParsed
}

// SegmentPreprocessed holds a segment's interned key sets.
type SegmentPreprocessed struct {
	IncludedSet map[string]struct{}
	ExcludedSet map[string]struct{}
}

// PreprocessFlag populates the flag's transient preprocessed artifacts.
// It is idempotent and must be called before the flag is shared between
// goroutines, since it mutates the transient fields.
func PreprocessFlag(f *FeatureFlag) {
	fp := &FlagPreprocessed{}
	fp.OffResult = offResultOrNil(f, NewOffReason())
	fp.FallthroughResults = precomputeResults(f, f.Fallthrough.Rollout, f.TrackEventsFallthrough, func(inExperiment bool) Reason {
		return NewFallthroughReason(inExperiment)
	})
	f.Preprocessed = fp

	for i := range f.Prerequisites {
		p := &f.Prerequisites[i]
		p.Preprocessed = &PrerequisitePreprocessed{
			FailedResult: offResultOrNil(f, NewPrerequisiteFailedReason(p.Key)),
		}
	}
	for i := range f.Targets {
		t := &f.Targets[i]
		tp := &TargetPreprocessed{ValuesSet: stringSet(t.Values)}
		if t.Variation >= 0 && t.Variation < len(f.Variations) {
			tp.MatchResult = NewEvalResult(f.Variations[t.Variation], t.Variation, NewTargetMatchReason())
		}
		t.Preprocessed = tp
	}
	for i := range f.Rules {
		r := &f.Rules[i]
		reason := NewRuleMatchReason(i, r.ID, false)
		r.Preprocessed = &RulePreprocessed{
			MatchReason: reason,
			Results: precomputeResults(f, r.Rollout, r.TrackEvents, func(inExperiment bool) Reason {
				return NewRuleMatchReason(i, r.ID, inExperiment)
			}),
		}
		for j := range r.Clauses {
			preprocessClause(&r.Clauses[j])
		}
	}
}

// PreprocessSegment populates the segment's transient preprocessed
// artifacts. Same idempotence and sharing rules as PreprocessFlag.
func PreprocessSegment(s *Segment) {
	s.Preprocessed = &SegmentPreprocessed{
		IncludedSet: stringSet(s.Included),
		ExcludedSet: stringSet(s.Excluded),
	}
	for i := range s.Rules {
		for j := range s.Rules[i].Clauses {
			preprocessClause(&s.Rules[i].Clauses[j])
		}
	}
}

// offResultOrNil builds the complete result for the flag's off variation
// with the given reason, or nil when the off variation is out of range.
func offResultOrNil(f *FeatureFlag, reason Reason) *EvalResult {
	if f.OffVariation == nil {
		return NewEvalResult(nil, NoVariation, reason)
	}
	idx := *f.OffVariation
	if idx < 0 || idx >= len(f.Variations) {
		return nil
	}
	return NewEvalResult(f.Variations[idx], idx, reason)
}

// precomputeResults builds the per-variation result table for a flag
// section. The inExperiment variants are built only when the section's
// rollout is an experiment, since no other configuration can produce them.
func precomputeResults(f *FeatureFlag, rollout *Rollout, forceTracking bool, mkReason func(inExperiment bool) Reason) PrecomputedResults {
	out := PrecomputedResults{regular: make([]*EvalResult, len(f.Variations))}
	for i, value := range f.Variations {
		out.regular[i] = NewEvalResult(value, i, mkReason(false)).WithForceReasonTracking(forceTracking)
	}
	if rollout != nil && rollout.IsExperiment() {
		out.inExperiment = make([]*EvalResult, len(f.Variations))
		for i, value := range f.Variations {
			out.inExperiment[i] = NewEvalResult(value, i, mkReason(true)).WithForceReasonTracking(forceTracking)
		}
	}
	return out
}

func preprocessClause(c *Clause) {
	switch c.Op {
	case OperatorIn:
		set := make(map[any]struct{}, len(c.Values))
		for _, v := range c.Values {
			key, ok := comparableValueKey(v)
			if !ok {
				set = nil
				break
			}
			set[key] = struct{}{}
		}
		c.Preprocessed = &ClausePreprocessed{ValuesSet: set}
	case OperatorMatches:
		c.Preprocessed = &ClausePreprocessed{Values: parseValues(c.Values, func(v any, out *ClauseValueParsed) {
			out.Regex, _ = ParseRegex(v)
		})}
	case OperatorBefore, OperatorAfter:
		c.Preprocessed = &ClausePreprocessed{Values: parseValues(c.Values, func(v any, out *ClauseValueParsed) {
			if t, ok := ParseDateTime(v); ok {
				out.Time = &t
			}
		})}
	case OperatorSemVerEqual, OperatorSemVerLessThan, OperatorSemVerGreaterThan:
		c.Preprocessed = &ClausePreprocessed{Values: parseValues(c.Values, func(v any, out *ClauseValueParsed) {
			out.SemVer, _ = ParseSemVer(v)
		})}
	}
}

func parseValues(values []any, parse func(v any, out *ClauseValueParsed)) []ClauseValueParsed {
	out := make([]ClauseValueParsed, len(values))
	for i, v := range values {
		parse(v, &out[i])
	}
	return out
}

func stringSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
