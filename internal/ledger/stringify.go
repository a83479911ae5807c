package ledger

import (
	"encoding/json"
	"strconv"
)

// errorShaped is the flattened form an error-shaped value reduces to
// before storage: {name, message}.
type errorShaped struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

// SafeStringify renders a value for storage in the ledger's value_json
// column. It never raises: large integers are represented as decimal
// strings (sidestepping float64 precision loss in the eventual JSON
// round-trip), any error-shaped object flattens to {name, message}, and
// any marshaling failure degrades to a diagnostic payload instead of
// propagating.
func SafeStringify(v interface{}) (result string) {
	defer func() {
		if recover() != nil {
			result = `{"error":"Failed to serialize value"}`
		}
	}()

	b, err := json.Marshal(normalize(v))
	if err != nil {
		return `{"error":"Failed to serialize value"}`
	}
	return string(b)
}

func normalize(v interface{}) interface{} {
	switch t := v.(type) {
	case int64:
		return bigIntString(t)
	case int:
		return bigIntString(int64(t))
	case error:
		return errorShaped{Name: "error", Message: t.Error()}
	case map[string]interface{}:
		if shaped, ok := asErrorShaped(t); ok {
			return shaped
		}
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[k] = normalize(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = normalize(val)
		}
		return out
	default:
		return v
	}
}

// asErrorShaped recognizes a map carrying both "name" and "message" string
// fields as an error-shaped value.
func asErrorShaped(m map[string]interface{}) (errorShaped, bool) {
	name, hasName := m["name"].(string)
	msg, hasMsg := m["message"].(string)
	if hasName && hasMsg {
		return errorShaped{Name: name, Message: msg}, true
	}
	return errorShaped{}, false
}

const maxSafeInt = 1 << 53

// bigIntString keeps small integers as native JSON numbers (so history
// payloads stay readable) and switches to a decimal string once the value
// would lose precision round-tripping through float64-based JSON readers.
func bigIntString(n int64) interface{} {
	if n > -maxSafeInt && n < maxSafeInt {
		return n
	}
	return strconv.FormatInt(n, 10)
}
