package clients

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ListSeparator joins list values into the single string the gateway expects.
const ListSeparator = ", "

// FlattenForm converts a nested configuration mapping into form fields.
// Lists become ListSeparator-joined strings, nested mappings become dotted
// keys, booleans and numbers are rendered canonically and nil values are dropped.
// No field of the result ever carries more than one value.
func FlattenForm(values map[string]any) url.Values {
	form := url.Values{}
	for key, value := range values {
		flattenInto(form, key, value)
	}
	return form
}

// MergeForm copies every field of src into dst, overwriting existing fields.
func MergeForm(dst, src url.Values) url.Values {
	if dst == nil {
		dst = url.Values{}
	}
	for key, values := range src {
		dst[key] = append([]string(nil), values...)
	}
	return dst
}

func flattenInto(form url.Values, key string, value any) {
	switch v := value.(type) {
	case nil:
	case map[string]any:
		for k, nested := range v {
			flattenInto(form, key+"."+k, nested)
		}
	case map[string]string:
		for k, nested := range v {
			form.Set(key+"."+k, nested)
		}
	default:
		if s, ok := FormValue(value); ok {
			form.Set(key, s)
		}
	}
}

// FormValue renders a scalar or list as a single form value.
// It reports false for nil.
func FormValue(value any) (string, bool) {
	switch v := value.(type) {
	case nil:
		return "", false
	case string:
		return v, true
	case bool:
		return strconv.FormatBool(v), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), true
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(v), true
	case json.Number:
		return v.String(), true
	case []string:
		return strings.Join(v, ListSeparator), true
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := FormValue(item); ok {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ListSeparator), true
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v), true
		}
		return string(encoded), true
	}
}
