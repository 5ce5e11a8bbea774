package viewmodel

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

var ErrNotObject = fmt.Errorf("payload is not a JSON object")

// object is a decoded JSON object. Numbers are kept as json.Number so that ids and epochs survive intact.
type object map[string]interface{}

func decodeObject(raw json.RawMessage) (object, error) {
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()

	var value interface{}
	if err := decoder.Decode(&value); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotObject, err)
	}
	m, ok := value.(map[string]interface{})
	if !ok {
		return nil, ErrNotObject
	}
	return m, nil
}

func asObject(v interface{}) object {
	if m, ok := v.(map[string]interface{}); ok {
		return m
	}
	return nil
}

// value returns the first key holding a non-null value.
func (o object) value(keys ...string) interface{} {
	for _, key := range keys {
		if v, ok := o[key]; ok && v != nil {
			return v
		}
	}
	return nil
}

func (o object) obj(key string) object {
	return asObject(o[key])
}

func (o object) list(key string) []interface{} {
	if l, ok := o[key].([]interface{}); ok {
		return l
	}
	return nil
}

// str returns the first key holding a non-empty scalar, rendered as a string.
func (o object) str(keys ...string) string {
	for _, key := range keys {
		if s := scalarString(o[key]); s != "" {
			return s
		}
	}
	return ""
}

func scalarString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case map[string]interface{}, []interface{}:
		return ""
	default:
		return fmt.Sprint(t)
	}
}

// rawString renders any decoded value for diagnostics.
func rawString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return "null"
	case map[string]interface{}, []interface{}:
		content, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(content)
	default:
		return scalarString(t)
	}
}

func toFloat(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case int32:
		return float64(t), true
	case uint64:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

type keyValue struct {
	key   string
	value interface{}
}

// pairs reads MLflow key/value collections. Both the array form [{key, value}] and the plain object form
// are accepted; the object form is returned in key order.
func pairs(v interface{}) []keyValue {
	switch t := v.(type) {
	case []interface{}:
		ret := make([]keyValue, 0, len(t))
		for _, item := range t {
			entry := asObject(item)
			if entry == nil {
				continue
			}
			key := entry.str("key", "name")
			if key == "" {
				continue
			}
			ret = append(ret, keyValue{key: key, value: entry["value"]})
		}
		return ret
	case map[string]interface{}:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		ret := make([]keyValue, 0, len(keys))
		for _, k := range keys {
			ret = append(ret, keyValue{key: k, value: t[k]})
		}
		return ret
	default:
		return nil
	}
}

const reservedTagPrefix = "mlflow."

func tagValue(v interface{}, key string) string {
	for _, kv := range pairs(v) {
		if kv.key == key {
			return scalarString(kv.value)
		}
	}
	return ""
}

// flattenTags renders user-visible tags as "key: value", dropping the reserved mlflow namespace.
func flattenTags(v interface{}) []string {
	ret := make([]string, 0)
	for _, kv := range pairs(v) {
		if strings.HasPrefix(kv.key, reservedTagPrefix) {
			continue
		}
		ret = append(ret, kv.key+": "+scalarString(kv.value))
	}
	return ret
}
