package protocol

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"runtime"
)

// NewReply builds a success frame for id, coercing the value into a
// JSON-encodable shape.
func NewReply(id string, value any) Reply {
	return Reply{ID: id, Tag: TagResponse, Response: Coerce(value)}
}

// NewErrorReply builds a failure frame for id.
func NewErrorReply(id, kind, message string) ErrorReply {
	return ErrorReply{ID: id, Tag: TagError, Error: ErrorInfo{Kind: kind, Message: message}}
}

// Coerce prepares an arbitrary resolved value for JSON encoding. JSON-native
// values pass through (containers recursively); funcs render as go:///
// reference strings; anything json.Marshal rejects falls back to its
// printed form. Replies must always encode: a value that cannot be encoded
// must never cost the caller its reply.
func Coerce(value any) any {
	switch v := value.(type) {
	case nil, bool, string,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return v
	case float64:
		// json.Marshal rejects NaN and the infinities
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Sprint(v)
		}
		return v
	case float32:
		if f := float64(v); math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Sprint(v)
		}
		return v
	case []any:
		out := make([]any, len(v))
		for i, elem := range v {
			out[i] = Coerce(elem)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, elem := range v {
			out[k] = Coerce(elem)
		}
		return out
	case json.Marshaler:
		return v
	case error:
		return v.Error()
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Func {
		return funcReference(rv)
	}
	if _, err := json.Marshal(value); err == nil {
		return value
	}
	return fmt.Sprint(value)
}

// funcReference renders a func value as an importable-symbol string,
// mirroring how modules and classes are surfaced rather than dropped.
func funcReference(rv reflect.Value) string {
	name := "func"
	if fn := runtime.FuncForPC(rv.Pointer()); fn != nil {
		name = fn.Name()
	}
	return "go:///" + name
}
