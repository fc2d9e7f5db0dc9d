// Package engine implements the deterministic flag evaluation engine: the
// section-by-section state machine (off, prerequisites, targets, rules,
// fallthrough), the clause operator dispatcher, segment membership
// including unbounded segments, and the prerequisite observation sink.
//
// Evaluation is pure with respect to the flag graph: Evaluate never
// mutates flags, segments or users, performs no I/O of its own, and is
// safe to call concurrently on the same data. All per-call state lives in
// a scratch scope on the caller's stack.
package engine

import (
	"fmt"
	"log/slog"

	"github.com/flaglink/flaglink/model"
	"github.com/flaglink/flaglink/rollout"
)

// FlagKeyForceEvalError is a test-instrumentation flag key: evaluating a
// flag with this key forces an internal panic, exercising the recovery
// path that converts unexpected faults into MALFORMED_FLAG error results.
// Callers can use it to verify their own exception-safety wrapping.
const FlagKeyForceEvalError = "$ flag key that forces an eval error $"

// FlagLookup retrieves flags by key, returning nil for an unknown key.
// Lookups are expected to be non-blocking in-memory reads.
type FlagLookup interface {
	GetFlag(key string) *model.FeatureFlag
}

// SegmentLookup retrieves segments by key, returning nil for an unknown
// key.
type SegmentLookup interface {
	GetSegment(key string) *model.Segment
}

// Evaluator evaluates feature flags for users. It holds only read
// references; a single Evaluator may be used concurrently from any number
// of goroutines.
type Evaluator struct {
	flags       FlagLookup
	segments    SegmentLookup
	bigSegments BigSegmentProvider
	errorLogger *slog.Logger
}

// EvaluatorOption is an optional parameter for NewEvaluator.
type EvaluatorOption interface {
	apply(e *Evaluator)
}

type evaluatorOptionBigSegmentProvider struct{ provider BigSegmentProvider }

// EvaluatorOptionBigSegmentProvider specifies a provider for unbounded
// segment membership. Without one (or with nil), every unbounded segment
// lookup reports a NOT_CONFIGURED status and matches nothing.
func EvaluatorOptionBigSegmentProvider(provider BigSegmentProvider) EvaluatorOption {
	return evaluatorOptionBigSegmentProvider{provider: provider}
}

func (o evaluatorOptionBigSegmentProvider) apply(e *Evaluator) {
	e.bigSegments = o.provider
}

type evaluatorOptionErrorLogger struct{ logger *slog.Logger }

// EvaluatorOptionErrorLogger specifies a logger for conditions that should
// not be possible and deserve investigation, such as malformed flags. The
// hot path never logs. If the parameter is nil, no logging is done.
func EvaluatorOptionErrorLogger(logger *slog.Logger) EvaluatorOption {
	return evaluatorOptionErrorLogger{logger: logger}
}

func (o evaluatorOptionErrorLogger) apply(e *Evaluator) {
	e.errorLogger = o.logger
}

// NewEvaluator returns an Evaluator backed by the given lookups.
func NewEvaluator(flags FlagLookup, segments SegmentLookup, opts ...EvaluatorOption) *Evaluator {
	e := &Evaluator{flags: flags, segments: segments}
	for _, o := range opts {
		o.apply(e)
	}
	return e
}

// malformedFlagError is the internal signal for data-model errors; it
// propagates up the prerequisite recursion and becomes a single
// ERROR(MALFORMED_FLAG) result at the top level.
type malformedFlagError struct {
	flagKey string
	message string
}

func (e malformedFlagError) Error() string {
	return fmt.Sprintf("malformed flag %q: %s", e.flagKey, e.message)
}

// evalScope is the per-call scratch state: the visited stacks guarding
// prerequisite and segment cycles, and the worst big-segment status seen.
type evalScope struct {
	owner           *Evaluator
	user            *model.User
	sink            PrerequisiteEventSink
	prereqStack     []string
	segmentStack    []string
	bigSegmentsSeen bool
	bigSegments     model.BigSegmentsStatus
}

// Evaluate computes the result of a flag for a user. It always returns
// exactly one result and never panics: input errors and malformed flag
// data come back as ERROR results, and any unexpected internal fault is
// recovered and converted to ERROR(MALFORMED_FLAG). Prerequisite
// evaluations are reported through prereqSink as they happen; pass nil
// for no observation. Events recorded before a fault remain delivered.
func (e *Evaluator) Evaluate(flag *model.FeatureFlag, user *model.User, prereqSink PrerequisiteEventSink) (result *model.EvalResult) {
	defer func() {
		if r := recover(); r != nil {
			flagKey := ""
			if flag != nil {
				flagKey = flag.Key
			}
			e.logError("unexpected panic evaluating flag", "flagKey", flagKey, "panic", r)
			result = model.NewEvalResultError(model.EvalErrorMalformedFlag)
		}
	}()

	if user == nil {
		return model.NewEvalResultError(model.EvalErrorUserNotSpecified)
	}
	if flag.Key == FlagKeyForceEvalError {
		panic(fmt.Sprintf("internal error forced by flag key %q", flag.Key))
	}

	if prereqSink == nil {
		prereqSink = noopSink{}
	}
	scope := evalScope{owner: e, user: user, sink: prereqSink, prereqStack: []string{flag.Key}}

	res, err := scope.evaluateFlag(flag)
	if err != nil {
		e.logError("flag evaluation failed", "flagKey", flag.Key, "error", err)
		return model.NewEvalResultError(model.EvalErrorMalformedFlag)
	}
	if scope.bigSegmentsSeen {
		res = res.WithReason(res.Reason().WithBigSegmentsStatus(scope.bigSegments))
	}
	return res
}

func (e *Evaluator) logError(msg string, args ...any) {
	if e.errorLogger != nil {
		e.errorLogger.Error(msg, args...)
	}
}

// evaluateFlag walks the flag's sections in order: off, prerequisites,
// targets, rules, fallthrough. The first terminal section wins.
func (es *evalScope) evaluateFlag(flag *model.FeatureFlag) (*model.EvalResult, error) {
	if !flag.On {
		return es.offResult(flag, model.NewOffReason())
	}
	if failed, err := es.checkPrerequisites(flag); err != nil || failed != nil {
		return failed, err
	}
	if res, err := es.checkTargets(flag); err != nil || res != nil {
		return res, err
	}
	for i := range flag.Rules {
		rule := &flag.Rules[i]
		if !es.ruleMatchesUser(rule) {
			continue
		}
		return es.resultForVariationOrRollout(flag, &rule.VariationOrRollout,
			rulePrecomputed(rule), rule.TrackEvents, func(inExperiment bool) model.Reason {
				return model.NewRuleMatchReason(i, rule.ID, inExperiment)
			})
	}
	var pre *model.PrecomputedResults
	if flag.Preprocessed != nil {
		pre = &flag.Preprocessed.FallthroughResults
	}
	return es.resultForVariationOrRollout(flag, &flag.Fallthrough, pre,
		flag.TrackEventsFallthrough, model.NewFallthroughReason)
}

// checkPrerequisites evaluates each prerequisite in order, recording an
// event per evaluated prerequisite. The first failure short-circuits with
// the flag's off variation and a PREREQUISITE_FAILED reason; events
// already recorded stand. A nil, nil return means all prerequisites held.
func (es *evalScope) checkPrerequisites(flag *model.FeatureFlag) (*model.EvalResult, error) {
	for i := range flag.Prerequisites {
		p := &flag.Prerequisites[i]

		for _, visited := range es.prereqStack {
			if visited == p.Key {
				return nil, malformedFlagError{flagKey: flag.Key,
					message: fmt.Sprintf("prerequisite cycle through %q", p.Key)}
			}
		}

		prereqOK := false
		prereqFlag := es.owner.flags.GetFlag(p.Key)
		if prereqFlag != nil {
			es.prereqStack = append(es.prereqStack, p.Key)
			prereqResult, err := es.evaluateFlag(prereqFlag)
			es.prereqStack = es.prereqStack[:len(es.prereqStack)-1]
			if err != nil {
				return nil, err
			}
			es.sink.RecordPrerequisiteEvaluation(PrerequisiteEvent{
				Flag:         prereqFlag,
				PrereqOfFlag: flag,
				User:         es.user,
				Result:       prereqResult,
			})
			prereqOK = prereqFlag.On && prereqResult.VariationIndex() == p.Variation
		}
		if !prereqOK {
			if p.Preprocessed != nil && p.Preprocessed.FailedResult != nil {
				return p.Preprocessed.FailedResult, nil
			}
			return es.offResult(flag, model.NewPrerequisiteFailedReason(p.Key))
		}
	}
	return nil, nil
}

// checkTargets scans targets in order and returns the interned match
// result for the first target containing the user's key, or nil.
func (es *evalScope) checkTargets(flag *model.FeatureFlag) (*model.EvalResult, error) {
	for i := range flag.Targets {
		t := &flag.Targets[i]
		if !targetHasKey(t, es.user.Key) {
			continue
		}
		if t.Preprocessed != nil && t.Preprocessed.MatchResult != nil {
			return t.Preprocessed.MatchResult, nil
		}
		return es.variationResult(flag, t.Variation, model.NewTargetMatchReason())
	}
	return nil, nil
}

func targetHasKey(t *model.Target, key string) bool {
	if t.Preprocessed != nil && t.Preprocessed.ValuesSet != nil {
		_, found := t.Preprocessed.ValuesSet[key]
		return found
	}
	for _, v := range t.Values {
		if v == key {
			return true
		}
	}
	return false
}

func (es *evalScope) ruleMatchesUser(rule *model.Rule) bool {
	for i := range rule.Clauses {
		if !es.clauseMatchesUser(&rule.Clauses[i]) {
			return false
		}
	}
	return true
}

func rulePrecomputed(rule *model.Rule) *model.PrecomputedResults {
	if rule.Preprocessed == nil {
		return nil
	}
	return &rule.Preprocessed.Results
}

// resultForVariationOrRollout resolves a variation-or-rollout to a final
// result, preferring the interned table when one is available.
func (es *evalScope) resultForVariationOrRollout(flag *model.FeatureFlag, vr *model.VariationOrRollout,
	pre *model.PrecomputedResults, forceTracking bool, mkReason func(inExperiment bool) model.Reason) (*model.EvalResult, error) {

	variation, inExperiment, err := es.variationOrRolloutIndex(flag, vr)
	if err != nil {
		return nil, err
	}
	if res := pre.ForVariation(variation, inExperiment); res != nil {
		return res, nil
	}
	res, err := es.variationResult(flag, variation, mkReason(inExperiment))
	if err != nil {
		return nil, err
	}
	return res.WithForceReasonTracking(forceTracking), nil
}

// variationOrRolloutIndex resolves the variation index designated by a
// VariationOrRollout, bucketing the user when it is a rollout. The second
// return reports whether the selection counts as a tracked experiment.
func (es *evalScope) variationOrRolloutIndex(flag *model.FeatureFlag, vr *model.VariationOrRollout) (int, bool, error) {
	if vr.Variation != nil && vr.Rollout != nil {
		return model.NoVariation, false, malformedFlagError{flagKey: flag.Key,
			message: "rule or fallthrough has both a variation and a rollout"}
	}
	if vr.Variation != nil {
		return *vr.Variation, false, nil
	}
	ro := vr.Rollout
	wv, ok := rollout.VariationForUser(ro, es.user, flag.Key, flag.Salt)
	if !ok {
		return model.NoVariation, false, malformedFlagError{flagKey: flag.Key,
			message: "rule or fallthrough has neither a variation nor a non-empty rollout"}
	}
	inExperiment := ro.IsExperiment() && !wv.Untracked
	return wv.Variation, inExperiment, nil
}

// variationResult builds a result for a variation index, range-checking
// against the flag's variation list.
func (es *evalScope) variationResult(flag *model.FeatureFlag, variation int, reason model.Reason) (*model.EvalResult, error) {
	if variation < 0 || variation >= len(flag.Variations) {
		return nil, malformedFlagError{flagKey: flag.Key,
			message: fmt.Sprintf("variation index %d out of range", variation)}
	}
	return model.NewEvalResult(flag.Variations[variation], variation, reason), nil
}

// offResult resolves the flag's off variation with the given reason; a
// flag with no off variation yields a null value and no variation index.
func (es *evalScope) offResult(flag *model.FeatureFlag, reason model.Reason) (*model.EvalResult, error) {
	if flag.Preprocessed != nil && reason.Kind() == model.ReasonOff {
		if res := flag.Preprocessed.OffResult; res != nil {
			return res, nil
		}
		// A preprocessed flag with no interned off result has an
		// out-of-range off variation; fall through to report it.
	}
	if flag.OffVariation == nil {
		return model.NewEvalResult(nil, model.NoVariation, reason), nil
	}
	return es.variationResult(flag, *flag.OffVariation, reason)
}
