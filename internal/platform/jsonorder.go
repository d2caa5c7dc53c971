// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package platform

import (
	"bytes"
	"encoding/json"
)

// orderedKeys returns the keys of a JSON object in document order.
// Anything other than an object yields nil.
func orderedKeys(raw json.RawMessage) []string {
	var keys []string
	walkObject(raw, func(key string, _ json.RawMessage) {
		keys = append(keys, key)
	})
	return keys
}

// orderedStrings returns the string values of a JSON object in document
// order, skipping values that are not strings.
func orderedStrings(raw json.RawMessage) []string {
	var vals []string
	walkObject(raw, func(_ string, v json.RawMessage) {
		var s string
		if json.Unmarshal(v, &s) == nil && s != "" {
			vals = append(vals, s)
		}
	})
	return vals
}

// stringAt returns the string value stored under key, or "".
func stringAt(raw json.RawMessage, key string) string {
	var m map[string]json.RawMessage
	if json.Unmarshal(raw, &m) != nil {
		return ""
	}
	var s string
	if json.Unmarshal(m[key], &s) != nil {
		return ""
	}
	return s
}

func walkObject(raw json.RawMessage, fn func(key string, value json.RawMessage)) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return
		}
		key, ok := tok.(string)
		if !ok {
			return
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return
		}
		fn(key, value)
	}
}
