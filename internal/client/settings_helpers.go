package client

import "strings"

// buildNestedMap expands dotted setting keys into the nested object form the
// create-index API expects, e.g. {"index.number_of_shards": 1} becomes
// {"index": {"number_of_shards": 1}}. Keys sharing a prefix end up under the
// same parent. A leaf value and a branch on the same path resolve in favour
// of the branch.
func buildNestedMap(flat map[string]any) map[string]any {
	root := make(map[string]any)
	for key, val := range flat {
		segs := strings.Split(key, ".")
		node := root
		for _, seg := range segs[:len(segs)-1] {
			child, ok := node[seg].(map[string]any)
			if !ok {
				child = make(map[string]any)
				node[seg] = child
			}
			node = child
		}
		leaf := segs[len(segs)-1]
		if existing, ok := node[leaf].(map[string]any); ok {
			if incoming, ok := val.(map[string]any); ok {
				mergeNestedMaps(existing, incoming)
			}
			continue
		}
		node[leaf] = val
	}
	return root
}

// mergeNestedMaps merges src into dst, descending where both sides hold maps.
func mergeNestedMaps(dst, src map[string]any) {
	for k, v := range src {
		d, dok := dst[k].(map[string]any)
		s, sok := v.(map[string]any)
		if dok && sok {
			mergeNestedMaps(d, s)
			continue
		}
		dst[k] = v
	}
}
