package engine

import (
	"testing"

	"github.com/flaglink/flaglink/model"
)

func TestOperatorMatch(t *testing.T) {
	tests := []struct {
		name        string
		op          model.Operator
		userValue   any
		clauseValue any
		want        bool
	}{
		{name: "in string equal", op: model.OperatorIn, userValue: "x", clauseValue: "x", want: true},
		{name: "in string unequal", op: model.OperatorIn, userValue: "x", clauseValue: "y", want: false},
		{name: "in number cross-type", op: model.OperatorIn, userValue: 99, clauseValue: 99.0, want: true},
		{name: "in number vs string", op: model.OperatorIn, userValue: 99, clauseValue: "99", want: false},
		{name: "in bool", op: model.OperatorIn, userValue: true, clauseValue: true, want: true},

		{name: "startsWith true", op: model.OperatorStartsWith, userValue: "xyz", clauseValue: "x", want: true},
		{name: "startsWith false", op: model.OperatorStartsWith, userValue: "x", clauseValue: "xyz", want: false},
		{name: "startsWith non-string", op: model.OperatorStartsWith, userValue: 1, clauseValue: "1", want: false},
		{name: "endsWith true", op: model.OperatorEndsWith, userValue: "xyz", clauseValue: "z", want: true},
		{name: "endsWith false", op: model.OperatorEndsWith, userValue: "z", clauseValue: "xyz", want: false},
		{name: "contains true", op: model.OperatorContains, userValue: "xyz", clauseValue: "y", want: true},
		{name: "contains false", op: model.OperatorContains, userValue: "xyz", clauseValue: "w", want: false},

		{name: "matches true", op: model.OperatorMatches, userValue: "hello world", clauseValue: "hello.*rld", want: true},
		{name: "matches unanchored", op: model.OperatorMatches, userValue: "hello world", clauseValue: "world", want: true},
		{name: "matches false", op: model.OperatorMatches, userValue: "hello world", clauseValue: "aloha", want: false},
		{name: "matches invalid pattern", op: model.OperatorMatches, userValue: "hello", clauseValue: "***bad rg", want: false},
		{name: "matches non-string attr", op: model.OperatorMatches, userValue: 3, clauseValue: "3", want: false},

		{name: "lessThan true", op: model.OperatorLessThan, userValue: 1, clauseValue: 1.99999, want: true},
		{name: "lessThan false equal", op: model.OperatorLessThan, userValue: 1, clauseValue: 1.0, want: false},
		{name: "lessThanOrEqual equal", op: model.OperatorLessThanOrEqual, userValue: 1, clauseValue: 1.0, want: true},
		{name: "greaterThan true", op: model.OperatorGreaterThan, userValue: 2, clauseValue: 1.99999, want: true},
		{name: "greaterThan false", op: model.OperatorGreaterThan, userValue: 2, clauseValue: 2.0, want: false},
		{name: "greaterThanOrEqual equal", op: model.OperatorGreaterThanOrEqual, userValue: 2, clauseValue: 2.0, want: true},
		{name: "numeric with string operand", op: model.OperatorLessThan, userValue: 1, clauseValue: "2", want: false},

		{name: "before with numbers", op: model.OperatorBefore, userValue: float64(1000000000000), clauseValue: float64(1000000000001), want: true},
		{name: "before equal is false", op: model.OperatorBefore, userValue: float64(1000000000000), clauseValue: float64(1000000000000), want: false},
		{name: "before rfc3339", op: model.OperatorBefore, userValue: "1970-01-01T00:00:00Z", clauseValue: "1970-01-01T00:00:01Z", want: true},
		{name: "before mixed forms", op: model.OperatorBefore, userValue: float64(0), clauseValue: "1970-01-01T00:00:01Z", want: true},
		{name: "after rfc3339", op: model.OperatorAfter, userValue: "1970-01-01T00:00:02Z", clauseValue: "1970-01-01T00:00:01Z", want: true},
		{name: "after false", op: model.OperatorAfter, userValue: "1970-01-01T00:00:01Z", clauseValue: "1970-01-01T00:00:01Z", want: false},
		{name: "date invalid string", op: model.OperatorBefore, userValue: "not a date", clauseValue: "1970-01-01T00:00:01Z", want: false},

		{name: "semVerEqual", op: model.OperatorSemVerEqual, userValue: "2.0.0", clauseValue: "2.0.0", want: true},
		{name: "semVerEqual shortened", op: model.OperatorSemVerEqual, userValue: "2", clauseValue: "2.0.0", want: true},
		{name: "semVerEqual shortened minor", op: model.OperatorSemVerEqual, userValue: "2.1", clauseValue: "2.1.0", want: true},
		{name: "semVerLessThan", op: model.OperatorSemVerLessThan, userValue: "2.0.0", clauseValue: "2.0.1", want: true},
		{name: "semVerLessThan prerelease", op: model.OperatorSemVerLessThan, userValue: "2.0.0-rc1", clauseValue: "2.0.0", want: true},
		{name: "semVerGreaterThan", op: model.OperatorSemVerGreaterThan, userValue: "2.0.1", clauseValue: "2.0.0", want: true},
		{name: "semVer invalid", op: model.OperatorSemVerEqual, userValue: "hello", clauseValue: "2.0.0", want: false},

		{name: "unknown operator", op: model.Operator("unsupported"), userValue: "x", clauseValue: "x", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := operatorMatch(tt.op, tt.userValue, tt.clauseValue, nil); got != tt.want {
				t.Fatalf("operatorMatch(%s, %v, %v) = %v, want %v", tt.op, tt.userValue, tt.clauseValue, got, tt.want)
			}
		})
	}
}

// The preprocessed path must agree with the on-demand path for every
// operator that has a parsed form.
func TestOperatorMatchPreprocessedAgreesWithOnDemand(t *testing.T) {
	clauses := []model.Clause{
		{Op: model.OperatorMatches, Values: []any{"^user"}},
		{Op: model.OperatorBefore, Values: []any{"2030-01-01T00:00:00Z"}},
		{Op: model.OperatorSemVerGreaterThan, Values: []any{"1.2"}},
	}
	userValues := []any{"userkey", "2020-05-01T00:00:00Z", "1.3.0", 7, nil}

	for i := range clauses {
		plain := clauses[i]
		holder := &model.FeatureFlag{Rules: []model.Rule{{Clauses: []model.Clause{clauses[i]}}}}
		model.PreprocessFlag(holder)
		preprocessed := &holder.Rules[0].Clauses[0]

		for _, uv := range userValues {
			for j, cv := range plain.Values {
				got := operatorMatch(plain.Op, uv, cv, nil)
				want := operatorMatch(preprocessed.Op, uv, cv, &preprocessed.Preprocessed.Values[j])
				if got != want {
					t.Fatalf("op %s value %v: on-demand %v, preprocessed %v", plain.Op, uv, got, want)
				}
			}
		}
	}
}
