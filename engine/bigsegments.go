package engine

import (
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/flaglink/flaglink/model"
)

// BigSegmentMembership is a queryable snapshot of one unbounded segment
// generation. Contains returns nil when the store has no explicit entry
// for the user hash, true/false otherwise.
type BigSegmentMembership interface {
	Contains(userHash string) *bool
}

// BigSegmentProvider supplies membership data for unbounded segments,
// addressed by (segment key, generation). The lookup may block briefly
// (it can reach an external store); its availability status is folded
// into the evaluation result rather than raised as an error.
type BigSegmentProvider interface {
	GetMembership(segmentKey string, generation int) (BigSegmentMembership, model.BigSegmentsStatus)
}

// BigSegmentUserHash returns the hash under which a user's big-segment
// membership is stored. External stores key members by this value instead
// of the raw user key.
func BigSegmentUserHash(userKey string) string {
	return strconv.FormatUint(xxhash.Sum64String(userKey), 16)
}
