package model

import (
	"encoding/json"
	"testing"
)

func TestReasonString(t *testing.T) {
	tests := []struct {
		reason Reason
		want   string
	}{
		{reason: NewOffReason(), want: "OFF"},
		{reason: NewFallthroughReason(false), want: "FALLTHROUGH"},
		{reason: NewTargetMatchReason(), want: "TARGET_MATCH"},
		{reason: NewRuleMatchReason(1, "rule-id", false), want: "RULE_MATCH(1,rule-id)"},
		{reason: NewPrerequisiteFailedReason("other-flag"), want: "PREREQUISITE_FAILED(other-flag)"},
		{reason: NewErrorReason(EvalErrorMalformedFlag), want: "ERROR(MALFORMED_FLAG)"},
	}

	for _, tt := range tests {
		if got := tt.reason.String(); got != tt.want {
			t.Fatalf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestReasonJSONRoundTrip(t *testing.T) {
	reasons := []Reason{
		NewOffReason(),
		NewFallthroughReason(true),
		NewRuleMatchReason(0, "r0", false).WithBigSegmentsStatus(BigSegmentsStale),
		NewPrerequisiteFailedReason("p"),
		NewErrorReason(EvalErrorUserNotSpecified),
	}

	for _, reason := range reasons {
		data, err := json.Marshal(reason)
		if err != nil {
			t.Fatalf("Marshal(%s): %v", reason, err)
		}
		var parsed Reason
		if err := json.Unmarshal(data, &parsed); err != nil {
			t.Fatalf("Unmarshal(%s): %v", data, err)
		}
		if parsed != reason {
			t.Fatalf("round trip of %s produced %s", reason, parsed)
		}
	}
}

func TestReasonJSONSpellings(t *testing.T) {
	data, err := json.Marshal(NewRuleMatchReason(1, "rule-id", true))
	if err != nil {
		t.Fatal(err)
	}
	want := `{"kind":"RULE_MATCH","ruleIndex":1,"ruleId":"rule-id","inExperiment":true}`
	if string(data) != want {
		t.Fatalf("Marshal() = %s, want %s", data, want)
	}
}

func TestWorseBigSegmentsStatus(t *testing.T) {
	tests := []struct {
		a, b, want BigSegmentsStatus
	}{
		{a: BigSegmentsHealthy, b: BigSegmentsHealthy, want: BigSegmentsHealthy},
		{a: BigSegmentsHealthy, b: BigSegmentsStale, want: BigSegmentsStale},
		{a: BigSegmentsStale, b: BigSegmentsHealthy, want: BigSegmentsStale},
		{a: BigSegmentsStale, b: BigSegmentsStoreError, want: BigSegmentsStoreError},
		{a: BigSegmentsStoreError, b: BigSegmentsNotConfigured, want: BigSegmentsNotConfigured},
		{a: BigSegmentsNotConfigured, b: BigSegmentsHealthy, want: BigSegmentsNotConfigured},
	}

	for _, tt := range tests {
		if got := WorseBigSegmentsStatus(tt.a, tt.b); got != tt.want {
			t.Fatalf("WorseBigSegmentsStatus(%s, %s) = %s, want %s", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestEvalResultEqualIsStructural(t *testing.T) {
	a := NewEvalResult("green", 1, NewFallthroughReason(false))
	b := NewEvalResult("green", 1, NewFallthroughReason(false))
	if a == b {
		t.Fatal("test requires two distinct instances")
	}
	if !a.Equal(b) {
		t.Fatal("structurally identical results should be Equal")
	}
	if a.Equal(NewEvalResult("green", 2, NewFallthroughReason(false))) {
		t.Fatal("different variation indexes should not be Equal")
	}
	if a.Equal(NewEvalResult("red", 1, NewFallthroughReason(false))) {
		t.Fatal("different values should not be Equal")
	}
	if a.Equal(a.WithForceReasonTracking(true)) {
		t.Fatal("different tracking flags should not be Equal")
	}
}

func TestEvalResultWithForceReasonTrackingCopiesOnlyOnChange(t *testing.T) {
	r := NewEvalResult("v", 0, NewOffReason())
	if r.WithForceReasonTracking(false) != r {
		t.Fatal("no-op WithForceReasonTracking should return the same instance")
	}
	tracked := r.WithForceReasonTracking(true)
	if tracked == r || !tracked.ForceReasonTracking() || r.ForceReasonTracking() {
		t.Fatal("WithForceReasonTracking(true) should copy, leaving the original unchanged")
	}
}

func TestEvalResultError(t *testing.T) {
	r := NewEvalResultError(EvalErrorMalformedFlag)
	if !r.IsError() || r.Value() != nil || r.VariationIndex() != NoVariation {
		t.Fatalf("error result = %s", r)
	}
	if r.Reason().ErrorKind() != EvalErrorMalformedFlag {
		t.Fatalf("error kind = %s", r.Reason().ErrorKind())
	}
}

func TestEvalResultJSONOmitsMissingVariation(t *testing.T) {
	data, err := json.Marshal(NewEvalResultError(EvalErrorUserNotSpecified))
	if err != nil {
		t.Fatal(err)
	}
	want := `{"value":null,"reason":{"kind":"ERROR","errorKind":"USER_NOT_SPECIFIED"}}`
	if string(data) != want {
		t.Fatalf("Marshal() = %s, want %s", data, want)
	}
}
