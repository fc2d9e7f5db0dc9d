// Package rollout provides deterministic user bucketing for percentage
// rollouts and experiments.
//
// The bucket value is a float in [0, 1) derived from SHA-1 over either
// "seed.attrValue" (seeded experiments) or "flagKey.salt.attrValue"
// (plain rollouts). The same inputs always produce the same bucket, so a
// user's assignment is stable across evaluations and across every SDK in
// the product family: the first 15 hex characters of the digest, read as
// a 60-bit integer and divided by 2^60-1, are pinned by shared test
// vectors to 7 decimal places. Do not change any constant here.
package rollout

import (
	"crypto/sha1"
	"encoding/hex"
	"strconv"

	"github.com/flaglink/flaglink/model"
)

const longScale = float64(0xFFFFFFFFFFFFFFF)

// Bucket computes the user's bucket value for a flag or segment key. The
// bucketBy attribute defaults to the user key; attributes that are neither
// strings nor integers are not bucketable and hash to 0.0. A secondary key,
// when present, is appended to the attribute value unless a seed is set.
func Bucket(user *model.User, key, salt string, bucketBy model.UserAttribute, seed *int) float64 {
	bucket, _ := BucketValue(user, key, salt, bucketBy, seed)
	return bucket
}

// BucketValue is Bucket plus a report of whether the bucket-by attribute
// was actually bucketable. Rollout selection needs the distinction: an
// unbucketable attribute assigns the last weighted variation rather than
// whatever variation owns bucket 0.0.
func BucketValue(user *model.User, key, salt string, bucketBy model.UserAttribute, seed *int) (float64, bool) {
	if user == nil {
		return 0, false
	}
	if bucketBy == "" {
		bucketBy = model.UserAttrKey
	}
	attrValue, ok := user.GetAttribute(bucketBy)
	if !ok {
		return 0, false
	}
	idHash, ok := model.BucketableStringValue(attrValue)
	if !ok {
		return 0, false
	}
	if seed == nil && user.Secondary != nil {
		idHash = idHash + "." + *user.Secondary
	}

	var input string
	if seed != nil {
		input = strconv.Itoa(*seed) + "." + idHash
	} else {
		input = key + "." + salt + "." + idHash
	}

	sum := sha1.Sum([]byte(input))
	hexDigest := hex.EncodeToString(sum[:])
	// First 15 hex characters = 60 bits; always parses.
	n, _ := strconv.ParseUint(hexDigest[:15], 16, 64)
	return float64(n) / longScale, true
}

// VariationForUser buckets the user and selects the owning weighted
// variation. A user whose bucket-by attribute is not bucketable gets the
// last variation in the list. The second return is false only for an
// empty variation list.
func VariationForUser(ro *model.Rollout, user *model.User, key, salt string) (model.WeightedVariation, bool) {
	if ro == nil || len(ro.Variations) == 0 {
		return model.WeightedVariation{}, false
	}
	bucket, bucketable := BucketValue(user, key, salt, ro.BucketBy, ro.Seed)
	if !bucketable {
		return ro.Variations[len(ro.Variations)-1], true
	}
	return Choose(ro, bucket)
}

// Choose selects the weighted variation owning the given bucket value by
// accumulating weights (parts per 100000) in order. When the weights sum
// to less than 100000 and the bucket falls past the end, the last
// variation wins. Choose sees only the bucket value, so a bucket of 0.0
// selects the first variation with a positive weight; the last-variation
// assignment for an unbucketable bucket-by attribute is made by
// VariationForUser, not here. The second return is false only for an
// empty variation list, which callers treat as a malformed flag.
func Choose(ro *model.Rollout, bucket float64) (model.WeightedVariation, bool) {
	if ro == nil || len(ro.Variations) == 0 {
		return model.WeightedVariation{}, false
	}
	sum := 0.0
	for _, wv := range ro.Variations {
		sum += float64(wv.Weight) / 100000.0
		if bucket < sum {
			return wv, true
		}
	}
	return ro.Variations[len(ro.Variations)-1], true
}
