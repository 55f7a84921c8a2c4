package tool

import (
	"fmt"
	"reflect"

	"github.com/fogfish/opts"
	"github.com/goccy/go-json"
	"github.com/invopop/jsonschema"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/casualjim/loom/pkg/reflectx"
	"github.com/casualjim/loom/pkg/stdx"
	"github.com/casualjim/loom/session"
	"github.com/casualjim/loom/types"
)

// Definition describes one callable tool: the function itself plus the
// metadata a provider advertises for it. Parameters maps positional paramN
// keys to the names the schema should use.
type Definition struct {
	Name        string
	Description string
	Parameters  map[string]string
	Function    any
}

// Option configures a definition during New.
type Option = opts.Option[Definition]

// Name sets the tool's advertised name. Unset, the function's own name is
// used.
var Name = opts.ForName[Definition, string]("Name")

// Description sets the human readable description the model sees.
var Description = opts.ForName[Definition, string]("Description")

// Parameters names the function's inputs, in order. A ContextVars input does
// not count; it is injected by the engine, not supplied by the model.
func Parameters(parameters ...string) Option {
	return opts.Type[Definition](func(o *Definition) error {
		o.Parameters = make(map[string]string, len(parameters))
		for i, p := range parameters {
			o.Parameters[fmt.Sprintf("param%d", i)] = p
		}
		return nil
	})
}

var errType = reflect.TypeOf((*error)(nil)).Elem()

// New builds a definition from the provided function. The function may
// return nothing, a single value, or a value and an error.
func New(f any, options ...Option) (Definition, error) {
	if !reflectx.IsFunction(f) {
		return Definition{}, fmt.Errorf("provided value is not a function")
	}

	typ := reflect.TypeOf(f)
	switch typ.NumOut() {
	case 0, 1:
	case 2:
		if typ.Out(1) != errType {
			return Definition{}, fmt.Errorf("second return value must be error, got %s", typ.Out(1))
		}
	default:
		return Definition{}, fmt.Errorf("tool functions return at most two values, got %d", typ.NumOut())
	}

	var def Definition
	if err := opts.Apply(&def, options); err != nil {
		return Definition{}, err
	}
	if def.Name == "" {
		def.Name = reflectx.FunctionName(f)
	}

	def.Function = f
	return def, nil
}

// Must is New with errors turned into panics, for package-level tool vars.
func Must(f any, options ...Option) Definition {
	return stdx.Must1(New(f, options...))
}

var functionReflector = jsonschema.Reflector{
	AllowAdditionalProperties: true,
	DoNotReference:            true,
}

// ToNameAndSchema resolves the advertised name and builds the JSON schema of
// the function's parameters from its signature.
func (td Definition) ToNameAndSchema() (string, *jsonschema.Schema) {
	name := td.Name
	if name == "" {
		name = reflectx.FunctionName(td.Function)
	}

	schema := &jsonschema.Schema{
		Type:       "object",
		Properties: orderedmap.New[string, *jsonschema.Schema](),
	}

	typ := reflect.TypeOf(td.Function)
	if typ == nil || typ.Kind() != reflect.Func {
		return name, schema
	}

	var required []string
	pos := 0
	for i := 0; i < typ.NumIn(); i++ {
		paramType := typ.In(i)
		if reflectx.IsRefinedType[types.ContextVars](paramType) {
			continue
		}

		paramName := fmt.Sprintf("param%d", pos)
		if td.Parameters != nil {
			if p, ok := td.Parameters[paramName]; ok {
				paramName = p
			}
		}
		pos++

		propSchema := functionReflector.ReflectFromType(paramType)
		propSchema.Version = ""
		schema.Properties.Set(paramName, propSchema)
		required = append(required, paramName)
	}
	if len(required) > 0 {
		schema.Required = required
	}

	return name, schema
}

// Spec converts the definition into the provider neutral shape advertised on
// model requests.
func (td Definition) Spec() (session.ToolSpec, error) {
	name, schema := td.ToNameAndSchema()
	raw, err := json.Marshal(schema)
	if err != nil {
		return session.ToolSpec{}, fmt.Errorf("tool %s schema: %w", name, err)
	}
	return session.ToolSpec{
		Name:        name,
		Description: td.Description,
		Schema:      raw,
	}, nil
}
