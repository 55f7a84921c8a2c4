// Package jsonx has small helpers for working with loosely typed JSON.
package jsonx

import "github.com/goccy/go-json"

// ToDynamicJSON round trips val through JSON into a map[string]any. It is
// the bridge between typed schema values and APIs that take loose JSON
// objects, such as function parameter schemas on model requests.
func ToDynamicJSON(val any) (map[string]any, error) {
	result := make(map[string]any)
	b, err := json.Marshal(val)
	if err != nil {
		return nil, err
	}
	if err = json.Unmarshal(b, &result); err != nil {
		return nil, err
	}
	return result, nil
}
