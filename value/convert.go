package value

import (
	"fmt"
	"sort"
	gotime "time"
)

// FromGo converts a native Go value into a runtime Value, for embedding code
// that feeds plain Go data into a ViewModel. Maps with string keys become
// hashes keyed by String; map iteration order is made deterministic by
// sorting the keys.
func FromGo(v interface{}) Value {
	switch x := v.(type) {
	case nil:
		return NilValue
	case Value:
		return x
	case bool:
		return BoolValue(x)
	case int:
		return NewNumber(float64(x))
	case int8:
		return NewNumber(float64(x))
	case int16:
		return NewNumber(float64(x))
	case int32:
		return NewNumber(float64(x))
	case int64:
		return NewNumber(float64(x))
	case uint:
		return NewNumber(float64(x))
	case uint8:
		return NewNumber(float64(x))
	case uint16:
		return NewNumber(float64(x))
	case uint32:
		return NewNumber(float64(x))
	case uint64:
		return NewNumber(float64(x))
	case float32:
		return NewNumber(float64(x))
	case float64:
		return NewNumber(x)
	case string:
		return NewString(x)
	case gotime.Time:
		return NewTime(x.Unix())
	case []interface{}:
		items := make([]Value, len(x))
		for i, el := range x {
			items[i] = FromGo(el)
		}
		return NewArray(items)
	case []string:
		items := make([]Value, len(x))
		for i, el := range x {
			items[i] = NewString(el)
		}
		return NewArray(items)
	case map[string]interface{}:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		h := NewHash()
		for _, k := range keys {
			h.Set(NewString(k), FromGo(x[k]))
		}
		return h
	default:
		return NewString(fmt.Sprintf("%v", x))
	}
}
