package models

import (
	"reflect"
	"slices"

	"github.com/invopop/jsonschema"
)

var schemaTypes = map[string]reflect.Type{
	"profile":  reflect.TypeFor[Profile](),
	"category": reflect.TypeFor[Category](),
	"post":     reflect.TypeFor[Post](),
	"comment":  reflect.TypeFor[Comment](),
	"resource": reflect.TypeFor[Resource](),
	"user":     reflect.TypeFor[User](),
	"session":  reflect.TypeFor[Session](),
}

// SchemaNames lists the models Schema knows about, sorted.
func SchemaNames() []string {
	names := make([]string, 0, len(schemaTypes))
	for name := range schemaTypes {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Schema returns the JSON schema of the named model, or nil if unknown.
//
// Properties are inlined; descriptions come from `jsonschema:"description=..."`
// tags.
func Schema(name string) *jsonschema.Schema {
	t, ok := schemaTypes[name]
	if !ok {
		return nil
	}
	r := jsonschema.Reflector{Anonymous: true, DoNotReference: true}
	return r.ReflectFromType(t)
}
