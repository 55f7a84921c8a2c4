// Package reflectx has the reflection helpers the tool layer needs to turn
// plain Go functions into callable tool definitions.
package reflectx

import (
	"reflect"
	"runtime"
	"strings"
)

// IsFunction reports whether fn is a function value.
func IsFunction(fn any) bool {
	if fn == nil {
		return false
	}
	return reflect.TypeOf(fn).Kind() == reflect.Func
}

// FunctionName resolves the name a function was declared with. Values of a
// named function type report the type name; declared functions and methods
// report their runtime symbol with the package path and the method closure
// suffix trimmed.
func FunctionName(fn any) string {
	if !IsFunction(fn) {
		return ""
	}

	val := reflect.ValueOf(fn)
	typ := val.Type()
	if typ.Name() != "" {
		return typ.String()
	}

	rf := runtime.FuncForPC(val.Pointer())
	if rf == nil {
		return typ.String()
	}
	name := rf.Name()
	if lastDot := strings.LastIndex(name, "."); lastDot >= 0 {
		name = name[lastDot+1:]
	}
	return strings.TrimSuffix(name, "-fm")
}

// IsRefinedType reports whether value is exactly the type R, not merely a
// type convertible to it.
func IsRefinedType[R any](value reflect.Type) bool {
	var toMatch R
	return reflect.TypeOf(toMatch) == value
}
