package model

import (
	"sort"
	"strconv"
)

// SortKeys orders record keys the way the realtime store does: keys that
// parse as 32-bit integers come first in numeric order, all other keys
// follow in lexicographic order. Push-generated keys are time-prefixed,
// so lexicographic order is also creation order.
func SortKeys(keys []string) {
	sort.Slice(keys, func(i, j int) bool { return lessKey(keys[i], keys[j]) })
}

func lessKey(a, b string) bool {
	ai, aInt := intKey(a)
	bi, bInt := intKey(b)
	switch {
	case aInt && bInt:
		if ai != bi {
			return ai < bi
		}
		return a < b
	case aInt:
		return true
	case bInt:
		return false
	default:
		return a < b
	}
}

func intKey(k string) (int64, bool) {
	n, err := strconv.ParseInt(k, 10, 32)
	if err != nil {
		return 0, false
	}
	return n, true
}
