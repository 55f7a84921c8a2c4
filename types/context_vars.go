// Package types provides the core value types shared across the loom engine.
package types

import "github.com/goccy/go-json"

// ContextVars is the mutable key-value environment of a conversation. Flow
// nodes substitute these values into message templates, hooks read and write
// them, and subroutines receive a deep copy so that nested runs can never
// alias their parent's environment.
//
// Example:
//
//	vars := types.ContextVars{
//	    "user":     "ada",
//	    "topic":    "query planners",
//	    "attempts": 0,
//	}
//
// used with a message template:
//
//	flow.NewEmit("greet", "Hello {{.user}}, let's talk about {{.topic}}.")
//
// ContextVars is a plain map and is not safe for concurrent mutation. The
// engine itself is single threaded per run, so this only matters when hooks
// hand the state to other goroutines.
type ContextVars map[string]any

// String returns the JSON rendering of the variables, or the empty string
// when marshaling fails. Meant for logs and debug output.
func (cv ContextVars) String() string {
	data, err := json.Marshal(cv)
	if err != nil {
		return ""
	}
	return string(data)
}

// Get returns the value stored under key, when present.
func (cv ContextVars) Get(key string) (any, bool) {
	v, ok := cv[key]
	return v, ok
}

// GetString returns the value under key when it is a string, otherwise the
// empty string.
func (cv ContextVars) GetString(key string) string {
	if s, ok := cv[key].(string); ok {
		return s
	}
	return ""
}

// Clone returns a deep copy of the variables. Nested maps and slices are
// copied recursively; any other value is assigned as is, so pointer values
// stored by the caller keep their aliasing.
func (cv ContextVars) Clone() ContextVars {
	if cv == nil {
		return nil
	}
	out := make(ContextVars, len(cv))
	for k, v := range cv {
		out[k] = cloneValue(v)
	}
	return out
}

// CloneMap deep copies an arbitrary string keyed map using the same rules as
// ContextVars.Clone. Used for per message metadata.
func CloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch tv := v.(type) {
	case map[string]any:
		return CloneMap(tv)
	case ContextVars:
		return tv.Clone()
	case []any:
		out := make([]any, len(tv))
		for i, e := range tv {
			out[i] = cloneValue(e)
		}
		return out
	case []string:
		out := make([]string, len(tv))
		copy(out, tv)
		return out
	default:
		return v
	}
}
