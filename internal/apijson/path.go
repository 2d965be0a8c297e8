package apijson

import "strings"

// GetPath walks dot-separated object keys from n. It reports false as soon as
// a step lands on a non-object or a missing key. The first matching key wins
// when an object repeats it. An empty path returns n itself.
func GetPath(n Node, path string) (Node, bool) {
	if path == "" {
		return n, true
	}
	cur := n
	for _, segment := range strings.Split(path, ".") {
		next, ok := lookup(cur, segment)
		if !ok {
			return Node{}, false
		}
		cur = next
	}
	return cur, true
}

func lookup(n Node, key string) (Node, bool) {
	var (
		found Node
		ok    bool
	)
	n.Entries(func(k string, v Node) bool {
		if k == key {
			found, ok = v, true
			return false
		}
		return true
	})
	return found, ok
}
