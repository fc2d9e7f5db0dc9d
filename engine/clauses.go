package engine

import "github.com/flaglink/flaglink/model"

// clauseMatchesUser evaluates a single clause against the user. A
// segmentMatch clause treats each clause value as a segment key and
// matches if the user is in any of them. For other operators the user
// attribute is resolved first: a missing attribute never matches and is
// not negated; an array-valued attribute matches if any element matches.
func (es *evalScope) clauseMatchesUser(c *model.Clause) bool {
	if c.Op == model.OperatorSegmentMatch {
		return maybeNegate(c, es.clauseMatchesAnySegment(c))
	}

	userValue, ok := es.user.GetAttribute(c.Attribute)
	if !ok {
		return false
	}
	if elements, isSlice := userValue.([]any); isSlice {
		for _, element := range elements {
			if clauseMatchesValue(c, element) {
				return maybeNegate(c, true)
			}
		}
		return maybeNegate(c, false)
	}
	return maybeNegate(c, clauseMatchesValue(c, userValue))
}

// clauseMatchesValue tests one attribute value against the clause's value
// list (OR semantics), using the preprocessed fast paths when present.
func clauseMatchesValue(c *model.Clause, userValue any) bool {
	if c.Op == model.OperatorIn && c.Preprocessed != nil && c.Preprocessed.ValuesSet != nil {
		return inSetMatch(c.Preprocessed.ValuesSet, userValue)
	}
	for i, clauseValue := range c.Values {
		var parsed *model.ClauseValueParsed
		if c.Preprocessed != nil && i < len(c.Preprocessed.Values) {
			parsed = &c.Preprocessed.Values[i]
		}
		if operatorMatch(c.Op, userValue, clauseValue, parsed) {
			return true
		}
	}
	return false
}

func maybeNegate(c *model.Clause, matched bool) bool {
	if c.Negate {
		return !matched
	}
	return matched
}

func (es *evalScope) clauseMatchesAnySegment(c *model.Clause) bool {
	for _, v := range c.Values {
		segmentKey, ok := model.StringValue(v)
		if !ok {
			continue
		}
		if es.segmentKeyMatchesUser(segmentKey) {
			return true
		}
	}
	return false
}
