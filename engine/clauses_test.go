package engine

import (
	"testing"

	"github.com/flaglink/flaglink/model"
)

// clauseScope builds a minimal scope for direct clause-matching tests.
func clauseScope(user *model.User, data *testData) *evalScope {
	if data == nil {
		data = newTestData()
	}
	return &evalScope{owner: NewEvaluator(data, data), user: user}
}

func TestClauseMatchesBuiltInAttribute(t *testing.T) {
	user := &model.User{Key: "x", Name: strPtr("Bob")}
	c := model.Clause{Attribute: model.UserAttrName, Op: model.OperatorIn, Values: []any{"Bob"}}

	if !clauseScope(user, nil).clauseMatchesUser(&c) {
		t.Fatal("clause should match the name attribute")
	}
}

func TestClauseMatchesCustomAttribute(t *testing.T) {
	user := &model.User{Key: "x", Custom: map[string]any{"legs": 4.0}}
	c := model.Clause{Attribute: "legs", Op: model.OperatorIn, Values: []any{4.0}}

	if !clauseScope(user, nil).clauseMatchesUser(&c) {
		t.Fatal("clause should match the custom attribute")
	}
}

func TestClauseMatchesAnyOfItsValues(t *testing.T) {
	user := &model.User{Key: "x", Name: strPtr("Bob")}
	c := model.Clause{Attribute: model.UserAttrName, Op: model.OperatorIn, Values: []any{"Alice", "Bob"}}

	if !clauseScope(user, nil).clauseMatchesUser(&c) {
		t.Fatal("any clause value may match")
	}
}

func TestClauseMatchesAnyElementOfArrayAttribute(t *testing.T) {
	user := &model.User{Key: "x", Custom: map[string]any{"groups": []any{"admins", "devs"}}}

	match := model.Clause{Attribute: "groups", Op: model.OperatorIn, Values: []any{"devs"}}
	if !clauseScope(user, nil).clauseMatchesUser(&match) {
		t.Fatal("any attribute element may match")
	}

	noMatch := model.Clause{Attribute: "groups", Op: model.OperatorIn, Values: []any{"ops"}}
	if clauseScope(user, nil).clauseMatchesUser(&noMatch) {
		t.Fatal("no attribute element matches")
	}
}

func TestClauseNegation(t *testing.T) {
	user := &model.User{Key: "x", Name: strPtr("Bob")}

	c := model.Clause{Attribute: model.UserAttrName, Op: model.OperatorIn, Values: []any{"Bob"}, Negate: true}
	if clauseScope(user, nil).clauseMatchesUser(&c) {
		t.Fatal("negate should invert a match")
	}

	c.Values = []any{"Alice"}
	if !clauseScope(user, nil).clauseMatchesUser(&c) {
		t.Fatal("negate should invert a non-match")
	}
}

func TestClauseWithMissingAttributeNeverMatchesEvenNegated(t *testing.T) {
	user := model.NewUser("x")
	c := model.Clause{Attribute: model.UserAttrName, Op: model.OperatorIn, Values: []any{"Bob"}, Negate: true}

	if clauseScope(user, nil).clauseMatchesUser(&c) {
		t.Fatal("a missing attribute must not match, negated or not")
	}
}

func TestClauseInSetFastPathAgreesWithLinearScan(t *testing.T) {
	values := []any{"a", "b", 3.0, true, nil}
	userValues := []any{"a", "c", 3, 3.5, true, false, nil, []any{"a"}}

	plain := model.Clause{Attribute: "attr", Op: model.OperatorIn, Values: values}
	holder := &model.FeatureFlag{Rules: []model.Rule{{Clauses: []model.Clause{{Attribute: "attr", Op: model.OperatorIn, Values: values}}}}}
	model.PreprocessFlag(holder)
	preprocessed := &holder.Rules[0].Clauses[0]
	if preprocessed.Preprocessed == nil || preprocessed.Preprocessed.ValuesSet == nil {
		t.Fatal("expected a preprocessed value set")
	}

	for _, uv := range userValues {
		user := &model.User{Key: "x", Custom: map[string]any{"attr": uv}}
		got := clauseScope(user, nil).clauseMatchesUser(preprocessed)
		want := clauseScope(user, nil).clauseMatchesUser(&plain)
		if got != want {
			t.Fatalf("user value %v: fast path %v, linear %v", uv, got, want)
		}
	}
}

func TestSegmentMatchClause(t *testing.T) {
	segment := &model.Segment{Key: "segkey", Included: []string{"userkey"}}
	data := newTestData().withSegments(segment)

	c := segmentMatchClause("segkey")
	if !clauseScope(model.NewUser("userkey"), data).clauseMatchesUser(&c) {
		t.Fatal("user in segment should match")
	}
	if clauseScope(model.NewUser("other"), data).clauseMatchesUser(&c) {
		t.Fatal("user outside segment should not match")
	}

	unknown := segmentMatchClause("no-such-segment")
	if clauseScope(model.NewUser("userkey"), data).clauseMatchesUser(&unknown) {
		t.Fatal("unknown segment should not match")
	}

	negated := segmentMatchClause("segkey")
	negated.Negate = true
	if clauseScope(model.NewUser("userkey"), data).clauseMatchesUser(&negated) {
		t.Fatal("negate applies to segment matches")
	}
	if !clauseScope(model.NewUser("other"), data).clauseMatchesUser(&negated) {
		t.Fatal("negate applies to segment non-matches")
	}
}

func TestSegmentMatchClauseMatchesAnyReferencedSegment(t *testing.T) {
	a := &model.Segment{Key: "seg-a", Included: []string{"someone-else"}}
	b := &model.Segment{Key: "seg-b", Included: []string{"userkey"}}
	data := newTestData().withSegments(a, b)

	c := segmentMatchClause("seg-a", "seg-b")
	if !clauseScope(model.NewUser("userkey"), data).clauseMatchesUser(&c) {
		t.Fatal("membership in any referenced segment should match")
	}
}

func strPtr(s string) *string { return &s }
