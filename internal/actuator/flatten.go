package actuator

import (
	"sort"
	"strconv"
)

// FlatProperty is one leaf of a bean's property tree with its dotted path.
type FlatProperty struct {
	Key   string
	Value string
}

// Flatten turns nested bean properties into dotted keys, using [i] for list
// elements, sorted by key. Empty maps and lists are kept as leaves.
func Flatten(properties map[string]any) []FlatProperty {
	flat := make(map[string]string)
	for key, value := range properties {
		flatten(key, value, flat)
	}

	keys := make([]string, 0, len(flat))
	for key := range flat {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := make([]FlatProperty, 0, len(keys))
	for _, key := range keys {
		out = append(out, FlatProperty{Key: key, Value: flat[key]})
	}
	return out
}

func flatten(prefix string, value any, flat map[string]string) {
	switch v := value.(type) {
	case map[string]any:
		if len(v) == 0 {
			flat[prefix] = "{}"
			return
		}
		for key, nested := range v {
			flatten(prefix+"."+key, nested, flat)
		}
	case []any:
		if len(v) == 0 {
			flat[prefix] = "[]"
			return
		}
		for i, nested := range v {
			flatten(prefix+"["+strconv.Itoa(i)+"]", nested, flat)
		}
	default:
		flat[prefix] = stringify(v)
	}
}
