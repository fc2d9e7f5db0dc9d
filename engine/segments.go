package engine

import (
	"github.com/flaglink/flaglink/model"
	"github.com/flaglink/flaglink/rollout"
)

// segmentKeyMatchesUser resolves a segment reference from a segmentMatch
// clause. An unknown segment matches nothing. A segment already being
// matched higher up this evaluation (a reference cycle) is treated as
// non-matching rather than recursed into.
func (es *evalScope) segmentKeyMatchesUser(segmentKey string) bool {
	for _, visited := range es.segmentStack {
		if visited == segmentKey {
			return false
		}
	}
	segment := es.owner.segments.GetSegment(segmentKey)
	if segment == nil {
		return false
	}
	es.segmentStack = append(es.segmentStack, segmentKey)
	matched := es.segmentMatchesUser(segment)
	es.segmentStack = es.segmentStack[:len(es.segmentStack)-1]
	return matched
}

// segmentMatchesUser applies segment membership in fixed order: the
// exclusion list wins, then the inclusion list, then (for unbounded
// segments) the external membership store, then the segment rules.
func (es *evalScope) segmentMatchesUser(segment *model.Segment) bool {
	if segmentKeyListContains(segment.Preprocessed, segment, es.user.Key, false) {
		return false
	}
	if segmentKeyListContains(segment.Preprocessed, segment, es.user.Key, true) {
		return true
	}
	if segment.Unbounded {
		return es.unboundedSegmentMatchesUser(segment)
	}
	for i := range segment.Rules {
		if es.segmentRuleMatchesUser(segment, &segment.Rules[i]) {
			return true
		}
	}
	return false
}

func segmentKeyListContains(pre *model.SegmentPreprocessed, segment *model.Segment, key string, included bool) bool {
	if pre != nil {
		set := pre.ExcludedSet
		if included {
			set = pre.IncludedSet
		}
		_, found := set[key]
		return found
	}
	list := segment.Excluded
	if included {
		list = segment.Included
	}
	for _, k := range list {
		if k == key {
			return true
		}
	}
	return false
}

// unboundedSegmentMatchesUser consults the big-segment store. The worst
// status seen across the whole evaluation is recorded on the scope and
// surfaces in the top-level reason. Unbounded segments have no rules, so
// an unanswerable lookup simply does not match.
func (es *evalScope) unboundedSegmentMatchesUser(segment *model.Segment) bool {
	if es.owner.bigSegments == nil || segment.Generation == nil {
		es.noteBigSegmentsStatus(model.BigSegmentsNotConfigured)
		return false
	}
	membership, status := es.owner.bigSegments.GetMembership(segment.Key, *segment.Generation)
	if status == "" {
		status = model.BigSegmentsNotConfigured
	}
	es.noteBigSegmentsStatus(status)
	if status == model.BigSegmentsNotConfigured || membership == nil {
		return false
	}
	included := membership.Contains(BigSegmentUserHash(es.user.Key))
	return included != nil && *included
}

func (es *evalScope) noteBigSegmentsStatus(status model.BigSegmentsStatus) {
	if !es.bigSegmentsSeen {
		es.bigSegmentsSeen = true
		es.bigSegments = status
		return
	}
	es.bigSegments = model.WorseBigSegmentsStatus(es.bigSegments, status)
}

// segmentRuleMatchesUser requires every clause to match; a weighted rule
// additionally buckets the user by the rule's bucket-by attribute with
// the segment's key and salt.
func (es *evalScope) segmentRuleMatchesUser(segment *model.Segment, rule *model.SegmentRule) bool {
	for i := range rule.Clauses {
		if !es.clauseMatchesUser(&rule.Clauses[i]) {
			return false
		}
	}
	if rule.Weight == nil {
		return true
	}
	bucket := rollout.Bucket(es.user, segment.Key, segment.Salt, rule.BucketBy, nil)
	return bucket < float64(*rule.Weight)/100000.0
}
