package engine

import (
	"testing"

	"github.com/flaglink/flaglink/model"
)

// testData is the in-memory flag/segment lookup used by all engine tests.
type testData struct {
	flags    map[string]*model.FeatureFlag
	segments map[string]*model.Segment
}

func (d *testData) GetFlag(key string) *model.FeatureFlag { return d.flags[key] }

func (d *testData) GetSegment(key string) *model.Segment { return d.segments[key] }

func newTestData() *testData {
	return &testData{
		flags:    map[string]*model.FeatureFlag{},
		segments: map[string]*model.Segment{},
	}
}

func (d *testData) withFlags(flags ...*model.FeatureFlag) *testData {
	for _, f := range flags {
		d.flags[f.Key] = f
	}
	return d
}

func (d *testData) withSegments(segments ...*model.Segment) *testData {
	for _, s := range segments {
		d.segments[s.Key] = s
	}
	return d
}

func basicEvaluator(opts ...EvaluatorOption) *Evaluator {
	return NewEvaluator(newTestData(), newTestData(), opts...)
}

func intPtr(n int) *int { return &n }

func boolPtr(b bool) *bool { return &b }

// Three-way flags distinguish off, fallthrough and match outcomes.
const (
	offVariation         = 0
	fallthroughVariation = 1
	matchVariation       = 2
)

func threeWayFlag(key string) *model.FeatureFlag {
	return &model.FeatureFlag{
		Key:          key,
		Version:      1,
		On:           true,
		Salt:         "saltyA",
		OffVariation: intPtr(offVariation),
		Fallthrough:  model.VariationOrRollout{Variation: intPtr(fallthroughVariation)},
		Variations:   []any{"off", "fall", "match"},
	}
}

// Red/green flags exercise prerequisites: green is the "good" variation.
const (
	redVariation   = 0
	greenVariation = 1
)

func redGreenFlag(key string) *model.FeatureFlag {
	return &model.FeatureFlag{
		Key:          key,
		Version:      1,
		On:           true,
		Salt:         "saltyB",
		OffVariation: intPtr(redVariation),
		Fallthrough:  model.VariationOrRollout{Variation: intPtr(greenVariation)},
		Variations:   []any{"red", "green"},
	}
}

func keyInClause(keys ...string) model.Clause {
	values := make([]any, len(keys))
	for i, k := range keys {
		values[i] = k
	}
	return model.Clause{Attribute: model.UserAttrKey, Op: model.OperatorIn, Values: values}
}

func segmentMatchClause(segmentKeys ...string) model.Clause {
	values := make([]any, len(segmentKeys))
	for i, k := range segmentKeys {
		values[i] = k
	}
	return model.Clause{Op: model.OperatorSegmentMatch, Values: values}
}

func expectResult(t *testing.T, got *model.EvalResult, wantValue any, wantIndex int, wantReason model.Reason) {
	t.Helper()
	if !model.ValuesEqual(got.Value(), wantValue) || got.VariationIndex() != wantIndex || got.Reason() != wantReason {
		t.Fatalf("result = %s, want {%v, %d, %s}", got, wantValue, wantIndex, wantReason)
	}
}

func expectMalformed(t *testing.T, got *model.EvalResult) {
	t.Helper()
	if !got.IsError() || got.Reason().ErrorKind() != model.EvalErrorMalformedFlag {
		t.Fatalf("result = %s, want ERROR(MALFORMED_FLAG)", got)
	}
}

// stubMembership answers Contains from a fixed map; absent keys return nil.
type stubMembership map[string]bool

func (m stubMembership) Contains(userHash string) *bool {
	if v, ok := m[userHash]; ok {
		return boolPtr(v)
	}
	return nil
}

// stubBigSegmentProvider returns a canned membership and status per
// segment key.
type stubBigSegmentProvider struct {
	memberships map[string]BigSegmentMembership
	statuses    map[string]model.BigSegmentsStatus
	queries     []string
}

func (p *stubBigSegmentProvider) GetMembership(segmentKey string, generation int) (BigSegmentMembership, model.BigSegmentsStatus) {
	p.queries = append(p.queries, segmentKey)
	status, ok := p.statuses[segmentKey]
	if !ok {
		status = model.BigSegmentsHealthy
	}
	return p.memberships[segmentKey], status
}
