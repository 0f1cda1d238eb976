package data

import "maps"

// deepMerge returns a new map holding base overlaid with over. Nested maps are merged
// recursively; every other value in over replaces the one in base.
func deepMerge(base, over map[string]any) map[string]any {
	out := maps.Clone(base)
	if out == nil {
		out = make(map[string]any, len(over))
	}
	for k, v := range over {
		overMap, ok := v.(map[string]any)
		if !ok {
			out[k] = v
			continue
		}
		if baseMap, ok := out[k].(map[string]any); ok {
			out[k] = deepMerge(baseMap, overMap)
			continue
		}
		out[k] = deepMerge(nil, overMap)
	}
	return out
}
