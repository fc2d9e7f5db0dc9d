package engine

import (
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/flaglink/flaglink/model"
)

// operatorMatch evaluates one (attribute value, operator, clause value)
// triple. Missing or type-mismatched inputs yield false, never an error.
// When the clause was preprocessed, parsed carries the clause value's
// compiled regex / parsed timestamp / parsed semver so the hot path skips
// re-parsing; a nil parsed falls back to parsing on demand.
func operatorMatch(op model.Operator, userValue, clauseValue any, parsed *model.ClauseValueParsed) bool {
	switch op {
	case model.OperatorIn:
		return model.ValuesEqual(userValue, clauseValue)

	case model.OperatorStartsWith:
		return stringMatch(userValue, clauseValue, strings.HasPrefix)
	case model.OperatorEndsWith:
		return stringMatch(userValue, clauseValue, strings.HasSuffix)
	case model.OperatorContains:
		return stringMatch(userValue, clauseValue, strings.Contains)

	case model.OperatorMatches:
		s, ok := model.StringValue(userValue)
		if !ok {
			return false
		}
		if parsed != nil {
			return parsed.Regex != nil && parsed.Regex.MatchString(s)
		}
		rx, ok := model.ParseRegex(clauseValue)
		return ok && rx.MatchString(s)

	case model.OperatorLessThan:
		return numericMatch(userValue, clauseValue, func(a, b float64) bool { return a < b })
	case model.OperatorLessThanOrEqual:
		return numericMatch(userValue, clauseValue, func(a, b float64) bool { return a <= b })
	case model.OperatorGreaterThan:
		return numericMatch(userValue, clauseValue, func(a, b float64) bool { return a > b })
	case model.OperatorGreaterThanOrEqual:
		return numericMatch(userValue, clauseValue, func(a, b float64) bool { return a >= b })

	case model.OperatorBefore:
		return dateMatch(userValue, clauseValue, parsed, time.Time.Before)
	case model.OperatorAfter:
		return dateMatch(userValue, clauseValue, parsed, time.Time.After)

	case model.OperatorSemVerEqual:
		return semVerMatch(userValue, clauseValue, parsed, func(a, b *semver.Version) bool { return a.Equal(b) })
	case model.OperatorSemVerLessThan:
		return semVerMatch(userValue, clauseValue, parsed, func(a, b *semver.Version) bool { return a.LessThan(b) })
	case model.OperatorSemVerGreaterThan:
		return semVerMatch(userValue, clauseValue, parsed, func(a, b *semver.Version) bool { return a.GreaterThan(b) })

	default:
		// segmentMatch is handled by the clause matcher; any unknown
		// operator matches nothing.
		return false
	}
}

func stringMatch(userValue, clauseValue any, cmp func(s, substr string) bool) bool {
	u, ok := model.StringValue(userValue)
	if !ok {
		return false
	}
	c, ok := model.StringValue(clauseValue)
	if !ok {
		return false
	}
	return cmp(u, c)
}

func numericMatch(userValue, clauseValue any, cmp func(a, b float64) bool) bool {
	u, ok := model.NumberValue(userValue)
	if !ok {
		return false
	}
	c, ok := model.NumberValue(clauseValue)
	if !ok {
		return false
	}
	return cmp(u, c)
}

func dateMatch(userValue, clauseValue any, parsed *model.ClauseValueParsed, cmp func(a, b time.Time) bool) bool {
	u, ok := model.ParseDateTime(userValue)
	if !ok {
		return false
	}
	if parsed != nil {
		return parsed.Time != nil && cmp(u, *parsed.Time)
	}
	c, ok := model.ParseDateTime(clauseValue)
	return ok && cmp(u, c)
}

func semVerMatch(userValue, clauseValue any, parsed *model.ClauseValueParsed, cmp func(a, b *semver.Version) bool) bool {
	u, ok := model.ParseSemVer(userValue)
	if !ok {
		return false
	}
	if parsed != nil {
		return parsed.SemVer != nil && cmp(u, parsed.SemVer)
	}
	c, ok := model.ParseSemVer(clauseValue)
	return ok && cmp(u, c)
}

// inSetMatch is the preprocessed fast path for the "in" operator: a
// constant-time membership probe over the clause's value set. Composite
// user values can never be in the set (it only holds primitives).
func inSetMatch(set map[any]struct{}, userValue any) bool {
	key, ok := comparableKey(userValue)
	if !ok {
		return false
	}
	_, found := set[key]
	return found
}

func comparableKey(v any) (any, bool) {
	if v == nil {
		return nil, true
	}
	if f, ok := model.NumberValue(v); ok {
		return f, true
	}
	switch v.(type) {
	case string, bool:
		return v, true
	}
	return nil, false
}
