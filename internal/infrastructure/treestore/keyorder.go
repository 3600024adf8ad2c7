package treestore

import (
	"sort"
	"strconv"
)

// KeyLess orders child keys the way the hosted tree store does: keys that
// read as canonical integers come first in numeric order, every other key
// follows in byte order.
func KeyLess(a, b string) bool {
	na, aInt := intKey(a)
	nb, bInt := intKey(b)
	switch {
	case aInt && bInt:
		return na < nb
	case aInt != bInt:
		return aInt
	default:
		return a < b
	}
}

// SortKeys sorts keys in place by KeyLess.
func SortKeys(keys []string) {
	sort.Slice(keys, func(i, j int) bool { return KeyLess(keys[i], keys[j]) })
}

// SortNodes sorts nodes in place by KeyLess on their keys.
func SortNodes(nodes []Node) {
	sort.Slice(nodes, func(i, j int) bool { return KeyLess(nodes[i].Key, nodes[j].Key) })
}

func intKey(k string) (int64, bool) {
	if k == "" || (len(k) > 1 && k[0] == '0') {
		return 0, false
	}
	n, err := strconv.ParseInt(k, 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
