package streams

// Schema is a JSON-schema field declaration. It is consumed by downstream
// validation; nothing in the tap infers or rewrites it.
type Schema struct {
	Type       []string           `json:"type,omitempty"`
	Format     string             `json:"format,omitempty"`
	Properties map[string]*Schema `json:"properties,omitempty"`
	Items      *Schema            `json:"items,omitempty"`
}

// Property is a named schema, used to build objects.
type Property struct {
	Name   string
	Schema *Schema
}

// Prop declares a property.
func Prop(name string, s *Schema) Property {
	return Property{Name: name, Schema: s}
}

// All scalar helpers are nullable: WooCommerce sends null (or "", which the
// pager turns into null) for most unset fields.

func StringType() *Schema  { return &Schema{Type: []string{"string", "null"}} }
func IntegerType() *Schema { return &Schema{Type: []string{"integer", "null"}} }
func NumberType() *Schema  { return &Schema{Type: []string{"number", "null"}} }
func BooleanType() *Schema { return &Schema{Type: []string{"boolean", "null"}} }

// DateTimeType is a string in date-time format.
func DateTimeType() *Schema {
	return &Schema{Type: []string{"string", "null"}, Format: "date-time"}
}

// AnyType accepts any JSON value.
func AnyType() *Schema { return &Schema{} }

// ObjectType declares a nullable object with the given properties.
func ObjectType(props ...Property) *Schema {
	s := &Schema{Type: []string{"object", "null"}, Properties: make(map[string]*Schema, len(props))}
	for _, p := range props {
		s.Properties[p.Name] = p.Schema
	}
	return s
}

// ArrayType declares a nullable array of items.
func ArrayType(items *Schema) *Schema {
	return &Schema{Type: []string{"array", "null"}, Items: items}
}

// RecordSchema declares the top-level (non-nullable) object of a stream.
func RecordSchema(props ...Property) *Schema {
	s := ObjectType(props...)
	s.Type = []string{"object"}
	return s
}

// Has reports whether the object schema declares property name.
func (s *Schema) Has(name string) bool {
	if s == nil {
		return false
	}
	_, ok := s.Properties[name]
	return ok
}
