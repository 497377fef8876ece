package criteria

import (
	"reflect"
	"sort"
)

// DeepMerge returns a new map holding dst overlaid with src. Nested objects
// are merged recursively; arrays and scalars in src replace the dst value
// as a whole. Neither input is modified.
func DeepMerge(dst, src map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(dst)+len(src))
	for k, v := range dst {
		out[k] = cloneValue(v)
	}
	for k, v := range src {
		srcMap, srcIsMap := v.(map[string]interface{})
		dstMap, dstIsMap := out[k].(map[string]interface{})
		if srcIsMap && dstIsMap {
			out[k] = DeepMerge(dstMap, srcMap)
			continue
		}
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		return DeepMerge(nil, t)
	case []interface{}:
		cp := make([]interface{}, len(t))
		for i := range t {
			cp[i] = cloneValue(t[i])
		}
		return cp
	default:
		return v
	}
}

// Diff returns, sorted, the names whose definition differs structurally
// between a and b: added, removed or changed entries. Diff(a, b) == Diff(b, a).
func Diff(a, b Map) []string {
	rawA, rawB := a.ToRaw(), b.ToRaw()

	changed := make([]string, 0)
	for name, defA := range rawA {
		defB, ok := rawB[name]
		if !ok || !reflect.DeepEqual(defA, defB) {
			changed = append(changed, name)
		}
	}
	for name := range rawB {
		if _, ok := rawA[name]; !ok {
			changed = append(changed, name)
		}
	}
	sort.Strings(changed)
	return changed
}

// Equal reports whether two maps are structurally identical.
func Equal(a, b Map) bool {
	return len(Diff(a, b)) == 0
}
