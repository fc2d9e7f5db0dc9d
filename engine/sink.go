package engine

import "github.com/flaglink/flaglink/model"

// PrerequisiteEvent describes one prerequisite flag evaluation observed
// while evaluating an owning flag.
type PrerequisiteEvent struct {
	// Flag is the prerequisite flag that was evaluated.
	Flag *model.FeatureFlag
	// PrereqOfFlag is the flag whose prerequisite list caused the
	// evaluation.
	PrereqOfFlag *model.FeatureFlag
	// User is the user the evaluation was for.
	User *model.User
	// Result is the prerequisite flag's own evaluation result.
	Result *model.EvalResult
}

// PrerequisiteEventSink receives prerequisite evaluations as they happen,
// synchronously on the evaluating goroutine, in depth-first left-to-right
// order. Implementations shared between goroutines must be safe for
// concurrent use.
type PrerequisiteEventSink interface {
	RecordPrerequisiteEvaluation(event PrerequisiteEvent)
}

// PrerequisiteEventRecorder is a sink that collects events in order.
type PrerequisiteEventRecorder struct {
	Events []PrerequisiteEvent
}

// RecordPrerequisiteEvaluation appends the event.
func (r *PrerequisiteEventRecorder) RecordPrerequisiteEvaluation(event PrerequisiteEvent) {
	r.Events = append(r.Events, event)
}

type noopSink struct{}

func (noopSink) RecordPrerequisiteEvaluation(PrerequisiteEvent) {}
