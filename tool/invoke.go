package tool

import (
	"encoding"
	"fmt"
	"reflect"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/tidwall/gjson"

	"github.com/casualjim/loom/pkg/reflectx"
	"github.com/casualjim/loom/types"
)

// Invoke calls the tool's function with arguments bound from the model
// supplied JSON object. vars is injected into ContextVars parameters. The
// string result is the text spliced into the transcript; a non nil
// ContextVars result is the updated variable set the caller should merge.
func (td Definition) Invoke(arguments string, vars types.ContextVars) (string, types.ContextVars, error) {
	if !reflectx.IsFunction(td.Function) {
		return "", nil, fmt.Errorf("tool %s has no function", td.Name)
	}
	return callFunction(td.Function, td.bindArguments(arguments), vars)
}

// bindArguments resolves the JSON arguments into positional values using the
// same parameter naming the schema advertises. A missing or malformed
// argument binds as an invalid value; the call fills those parameters with
// their zero value.
func (td Definition) bindArguments(arguments string) []reflect.Value {
	parsed := gjson.Parse(arguments)
	typ := reflect.TypeOf(td.Function)

	var bound []reflect.Value
	pos := 0
	for i := 0; i < typ.NumIn(); i++ {
		if reflectx.IsRefinedType[types.ContextVars](typ.In(i)) {
			continue
		}

		name := fmt.Sprintf("param%d", pos)
		if td.Parameters != nil {
			if p, ok := td.Parameters[name]; ok {
				name = p
			}
		}
		pos++

		val := parsed.Get(name)
		if !val.Exists() {
			bound = append(bound, reflect.Value{})
			continue
		}
		bound = append(bound, reflect.ValueOf(val.Value()))
	}
	return bound
}

func callFunction(fn any, args []reflect.Value, vars types.ContextVars) (string, types.ContextVars, error) {
	val := reflect.ValueOf(fn)
	typ := val.Type()

	callArgs := make([]reflect.Value, typ.NumIn())
	ai := 0
	for fi := 0; fi < typ.NumIn(); fi++ {
		paramType := typ.In(fi)
		if reflectx.IsRefinedType[types.ContextVars](paramType) {
			if vars == nil {
				vars = make(types.ContextVars)
			}
			callArgs[fi] = reflect.ValueOf(vars)
			continue
		}

		callArgs[fi] = reflect.Zero(paramType)
		if ai < len(args) {
			if arg := args[ai]; arg.IsValid() && arg.Type().ConvertibleTo(paramType) {
				callArgs[fi] = arg.Convert(paramType)
			}
		}
		ai++
	}

	results := val.Call(callArgs)

	if len(results) == 2 {
		if errv := results[1]; !errv.IsNil() {
			return "", nil, errv.Interface().(error)
		}
		results = results[:1]
	}
	if len(results) == 0 {
		return "", nil, nil
	}
	return formatResult(results[0].Interface())
}

func formatResult(v any) (string, types.ContextVars, error) {
	switch rv := v.(type) {
	case nil:
		return "", nil, nil
	case error:
		return "", nil, rv
	case types.ContextVars:
		return "", rv, nil
	case string:
		return rv, nil, nil
	case time.Time:
		return rv.Format(time.RFC3339), nil, nil
	case int, int8, int16, int32, int64:
		return strconv.FormatInt(reflect.ValueOf(rv).Int(), 10), nil, nil
	case uint, uint8, uint16, uint32, uint64:
		return strconv.FormatUint(reflect.ValueOf(rv).Uint(), 10), nil, nil
	case float32:
		return strconv.FormatFloat(float64(rv), 'f', -1, 32), nil, nil
	case float64:
		return strconv.FormatFloat(rv, 'f', -1, 64), nil, nil
	case encoding.TextMarshaler:
		b, err := rv.MarshalText()
		if err != nil {
			return "", nil, err
		}
		return string(b), nil, nil
	case fmt.Stringer:
		return rv.String(), nil, nil
	default:
		b, err := json.Marshal(rv)
		if err != nil {
			return "", nil, err
		}
		return string(b), nil, nil
	}
}
