package sweep

import (
	"hash/fnv"
	"math"
	"strconv"
)

// PositiveHash returns a non-negative decimal hash of text.
//
// The hash is FNV-1a 64 reinterpreted as int64; negative results are folded
// into range by adding MaxInt64+1. It is stable across runs and platforms but
// unrelated to any other tool's job hashes, so hashes must not be compared
// against artifacts produced by a different implementation.
func PositiveHash(text string) string {
	h := fnv.New64a()
	h.Write([]byte(text))
	v := int64(h.Sum64())
	if v < 0 {
		v += math.MaxInt64
		v++
	}
	return strconv.FormatInt(v, 10)
}
