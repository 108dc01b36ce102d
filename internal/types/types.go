// Package types provides the Go structs for the schema editor's field tree.
// The JSON shape matches what the browser builder and the generation assistant
// exchange, so field names are camelCase on the wire.
package types

// FieldType is the kind of a schema field. The values are the exact strings
// used on the wire and in schema files.
type FieldType string

const (
	FieldString     FieldType = "string"
	FieldNumber     FieldType = "number"
	FieldBoolean    FieldType = "boolean"
	FieldDate       FieldType = "Date"
	FieldObjectID   FieldType = "ObjectId"
	FieldArray      FieldType = "array"
	FieldObject     FieldType = "object"
	FieldEnum       FieldType = "enum"
	FieldMixed      FieldType = "mixed"
	FieldBuffer     FieldType = "Buffer"
	FieldMap        FieldType = "Map"
	FieldDecimal128 FieldType = "Decimal128"
)

// FieldTypes lists every FieldType in display order.
var FieldTypes = []FieldType{
	FieldString, FieldNumber, FieldBoolean, FieldDate, FieldObjectID, FieldArray,
	FieldObject, FieldEnum, FieldMixed, FieldBuffer, FieldMap, FieldDecimal128,
}

// Valid reports whether t is one of the known field types.
func (t FieldType) Valid() bool {
	for _, known := range FieldTypes {
		if t == known {
			return true
		}
	}
	return false
}

// RuleType is the kind of a validation rule.
type RuleType string

const (
	RuleMin       RuleType = "min"
	RuleMax       RuleType = "max"
	RuleMinLength RuleType = "minLength"
	RuleMaxLength RuleType = "maxLength"
	RuleMatch     RuleType = "match"
	RuleValidate  RuleType = "validate"
	RuleCustom    RuleType = "custom"
)

// ValidationRule is one constraint attached to a field. Rules are kept in
// authoring order; duplicates of the same type are legal.
type ValidationRule struct {
	Type    RuleType `json:"type"`
	Value   Literal  `json:"value"`
	Message string   `json:"message,omitempty"`
}

// EnumValue is one key/value member of an enumeration.
type EnumValue struct {
	Key         string `json:"key"`
	Value       string `json:"value"`
	Description string `json:"description,omitempty"`
}

// Field is one property definition. Object fields and arrays of objects carry
// their shape in NestedFields, so a field list is a forest of arbitrary depth.
type Field struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Type     FieldType `json:"type"`
	Required bool      `json:"required"`
	Unique   bool      `json:"unique"`

	Index      bool     `json:"index,omitempty"`
	Sparse     bool     `json:"sparse,omitempty"`
	Immutable  bool     `json:"immutable,omitempty"`
	Deprecated bool     `json:"deprecated,omitempty"`
	Default    *Literal `json:"default,omitempty"`

	Ref       string `json:"ref,omitempty"`
	RefPath   string `json:"refPath,omitempty"`
	Populate  bool   `json:"populate,omitempty"`
	Select    *bool  `json:"select,omitempty"` // only an explicit false is rendered
	Transform string `json:"transform,omitempty"`
	Alias     string `json:"alias,omitempty"`

	Validation []ValidationRule `json:"validation,omitempty"`
	Enum       []EnumValue      `json:"enum,omitempty"`

	ArrayType     FieldType `json:"arrayType,omitempty"`
	ArrayRef      string    `json:"arrayRef,omitempty"`
	ArrayMinItems *int      `json:"arrayMinItems,omitempty"`
	ArrayMaxItems *int      `json:"arrayMaxItems,omitempty"`

	NestedFields []Field `json:"nestedFields,omitempty"`

	Description string `json:"description,omitempty"`
	Example     string `json:"example,omitempty"`
	Virtual     bool   `json:"virtual,omitempty"`
	Getter      string `json:"getter,omitempty"`
	Setter      string `json:"setter,omitempty"`

	// IsExpanded is editor presentation state and never affects generation.
	IsExpanded bool `json:"isExpanded,omitempty"`
}

// HasNestedShape reports whether the field's NestedFields describe a shape:
// an object, or an array whose elements are objects.
func (f Field) HasNestedShape() bool {
	if f.NestedFields == nil {
		return false
	}
	switch f.Type {
	case FieldObject:
		return true
	case FieldArray:
		return f.ArrayType == FieldObject
	}
	return false
}

// Clone returns a deep copy of the field and its subtree.
func (f Field) Clone() Field {
	out := f
	if f.Default != nil {
		d := *f.Default
		out.Default = &d
	}
	if f.Select != nil {
		s := *f.Select
		out.Select = &s
	}
	if f.ArrayMinItems != nil {
		n := *f.ArrayMinItems
		out.ArrayMinItems = &n
	}
	if f.ArrayMaxItems != nil {
		n := *f.ArrayMaxItems
		out.ArrayMaxItems = &n
	}
	if f.Validation != nil {
		out.Validation = append([]ValidationRule{}, f.Validation...)
	}
	if f.Enum != nil {
		out.Enum = append([]EnumValue{}, f.Enum...)
	}
	if f.NestedFields != nil {
		out.NestedFields = CloneFields(f.NestedFields)
	}
	return out
}

// CloneFields deep-copies a field list. A nil list stays nil.
func CloneFields(fields []Field) []Field {
	if fields == nil {
		return nil
	}
	out := make([]Field, len(fields))
	for i, f := range fields {
		out[i] = f.Clone()
	}
	return out
}

// IndexType is the index kind tag carried by an IndexDefinition.
type IndexType string

const (
	IndexSingle   IndexType = "single"
	IndexCompound IndexType = "compound"
	IndexText     IndexType = "text"
	Index2DSphere IndexType = "2dsphere"
	IndexHashed   IndexType = "hashed"
)

// IndexDefinition is a schema-level index over one or more fields.
type IndexDefinition struct {
	Fields     []string  `json:"fields"`
	Type       IndexType `json:"type"`
	Unique     bool      `json:"unique,omitempty"`
	Sparse     bool      `json:"sparse,omitempty"`
	Background bool      `json:"background,omitempty"`
}

// EnumDecl is a schema-level enumeration, independent of any field.
type EnumDecl struct {
	Name        string      `json:"name"`
	Values      []EnumValue `json:"values"`
	Description string      `json:"description,omitempty"`
}

// Options is the schema options record rendered into the model declaration.
type Options struct {
	Timestamps         bool   `json:"timestamps"`
	VersionKey         bool   `json:"versionKey"`
	Collection         string `json:"collection,omitempty"`
	DiscriminatorKey   string `json:"discriminatorKey,omitempty"`
	Strict             bool   `json:"strict"`
	ValidateBeforeSave bool   `json:"validateBeforeSave"`
	AutoIndex          bool   `json:"autoIndex"`
}

// DefaultOptions returns the options a new schema starts with.
func DefaultOptions() Options {
	return Options{
		Timestamps:         true,
		VersionKey:         false,
		Strict:             true,
		ValidateBeforeSave: true,
		AutoIndex:          true,
	}
}

// Hooks lists lifecycle hook stage names, e.g. "save" or "remove".
type Hooks struct {
	Pre  []string `json:"pre"`
	Post []string `json:"post"`
}

// Schema is the root aggregate describing one document type.
type Schema struct {
	Name     string            `json:"name"`
	Fields   []Field           `json:"fields"`
	Imports  []string          `json:"imports"`
	Enums    []EnumDecl        `json:"enums"`
	Indexes  []IndexDefinition `json:"indexes,omitempty"`
	Options  Options           `json:"options"`
	Hooks    Hooks             `json:"hooks"`
	Virtuals []string          `json:"virtuals"`
	Methods  []string          `json:"methods"`
	Statics  []string          `json:"statics"`
}

// NewSchema returns an empty schema with the default options record.
func NewSchema(name string) Schema {
	return Schema{
		Name:     name,
		Fields:   []Field{},
		Imports:  []string{},
		Enums:    []EnumDecl{},
		Indexes:  []IndexDefinition{},
		Options:  DefaultOptions(),
		Hooks:    Hooks{Pre: []string{}, Post: []string{}},
		Virtuals: []string{},
		Methods:  []string{},
		Statics:  []string{},
	}
}

// Normalize replaces nil lists with empty ones so the schema encodes with
// [] rather than null.
func (s Schema) Normalize() Schema {
	if s.Fields == nil {
		s.Fields = []Field{}
	}
	if s.Imports == nil {
		s.Imports = []string{}
	}
	if s.Enums == nil {
		s.Enums = []EnumDecl{}
	}
	if s.Hooks.Pre == nil {
		s.Hooks.Pre = []string{}
	}
	if s.Hooks.Post == nil {
		s.Hooks.Post = []string{}
	}
	if s.Virtuals == nil {
		s.Virtuals = []string{}
	}
	if s.Methods == nil {
		s.Methods = []string{}
	}
	if s.Statics == nil {
		s.Statics = []string{}
	}
	return s
}

// Clone returns a deep copy of the schema.
func (s Schema) Clone() Schema {
	out := s
	out.Fields = CloneFields(s.Fields)
	out.Imports = cloneStrings(s.Imports)
	if s.Enums != nil {
		out.Enums = make([]EnumDecl, len(s.Enums))
		for i, e := range s.Enums {
			e.Values = append([]EnumValue(nil), e.Values...)
			out.Enums[i] = e
		}
	}
	if s.Indexes != nil {
		out.Indexes = make([]IndexDefinition, len(s.Indexes))
		for i, idx := range s.Indexes {
			idx.Fields = cloneStrings(idx.Fields)
			out.Indexes[i] = idx
		}
	}
	out.Hooks = Hooks{Pre: cloneStrings(s.Hooks.Pre), Post: cloneStrings(s.Hooks.Post)}
	out.Virtuals = cloneStrings(s.Virtuals)
	out.Methods = cloneStrings(s.Methods)
	out.Statics = cloneStrings(s.Statics)
	return out
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string{}, s...)
}
