package model

import (
	"encoding/json"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"time"

	"github.com/Masterminds/semver/v3"
)

// ValuesEqual compares two JSON-typed values with JSON semantics: numbers
// compare across Go numeric types, everything else compares structurally.
func ValuesEqual(a, b any) bool {
	if af, ok := NumberValue(a); ok {
		bf, ok := NumberValue(b)
		return ok && af == bf
	}
	if as, ok := a.(string); ok {
		bs, ok := b.(string)
		return ok && as == bs
	}
	if ab, ok := a.(bool); ok {
		bb, ok := b.(bool)
		return ok && ab == bb
	}
	return reflect.DeepEqual(a, b)
}

// NumberValue coerces int, int32, int64, float32, float64 and json.Number
// values to float64. Other types, including the unsigned and smaller
// integer types, booleans, strings and composites, are not numbers.
func NumberValue(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// StringValue returns v as a string if it is one.
func StringValue(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

// comparableValueKey normalizes a primitive value for use as a map key so
// that set membership agrees with ValuesEqual. The second return is false
// for composite or otherwise unhashable values.
func comparableValueKey(v any) (any, bool) {
	if v == nil {
		return nil, true
	}
	if f, ok := NumberValue(v); ok {
		return f, true
	}
	switch v.(type) {
	case string, bool:
		return v, true
	}
	return nil, false
}

// BucketableStringValue renders an attribute value as the string fed into
// the bucketing hash. Strings pass through; integers (including the
// integral floats produced by JSON decoding) are formatted as decimal
// integers. Anything else is not bucketable.
func BucketableStringValue(v any) (string, bool) {
	switch n := v.(type) {
	case string:
		return n, true
	case int:
		return strconv.Itoa(n), true
	case int32:
		return strconv.FormatInt(int64(n), 10), true
	case int64:
		return strconv.FormatInt(n, 10), true
	case float64:
		if math.Trunc(n) == n && !math.IsInf(n, 0) {
			return strconv.FormatInt(int64(n), 10), true
		}
		return "", false
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return strconv.FormatInt(i, 10), true
		}
		return "", false
	default:
		return "", false
	}
}

// ParseDateTime interprets a clause or attribute value as a point in time:
// either a millisecond epoch number or an RFC3339 string.
func ParseDateTime(v any) (time.Time, bool) {
	if f, ok := NumberValue(v); ok {
		return time.UnixMilli(int64(f)).UTC(), true
	}
	if s, ok := v.(string); ok {
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	}
	return time.Time{}, false
}

// ParseSemVer interprets a value as a semantic version. Shortened forms
// ("1", "1.2") are tolerated and padded with zero components.
func ParseSemVer(v any) (*semver.Version, bool) {
	s, ok := v.(string)
	if !ok || s == "" {
		return nil, false
	}
	ver, err := semver.NewVersion(s)
	if err != nil {
		return nil, false
	}
	return ver, true
}

// ParseRegex compiles a value as a regular expression pattern.
func ParseRegex(v any) (*regexp.Regexp, bool) {
	s, ok := v.(string)
	if !ok {
		return nil, false
	}
	rx, err := regexp.Compile(s)
	if err != nil {
		return nil, false
	}
	return rx, true
}
