package codegen

import (
	"embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/matthewbaird/dtobuddy/internal/types"
)

//go:embed templates/*
var templateFS embed.FS

var stubs = template.Must(template.ParseFS(templateFS, "templates/stubs.tmpl"))

// dateNow is the default sentinel rendered as a bare function reference.
const dateNow = "Date.now"

// GenerateSchemaDeclaration renders the model file: imports, the schema
// construction with its options, index registrations, placeholder stubs for
// virtuals, methods, statics and hooks, and the model binding.
func GenerateSchemaDeclaration(s types.Schema) string {
	n := s.Name
	schemaVar := n + "Schema"

	var virtuals, methods, statics, hooks []string
	for _, v := range s.Virtuals {
		virtuals = append(virtuals, stub("virtual", schemaVar, v))
	}
	for _, m := range s.Methods {
		methods = append(methods, stub("method", schemaVar, m))
	}
	for _, st := range s.Statics {
		statics = append(statics, stub("static", schemaVar, st))
	}
	for _, h := range s.Hooks.Pre {
		hooks = append(hooks, stub("pre", schemaVar, h))
	}
	for _, h := range s.Hooks.Post {
		hooks = append(hooks, stub("post", schemaVar, h))
	}

	return joinSections(
		modelImports(s),
		schemaConstruction(s),
		indexRegistrations(schemaVar, s.Indexes),
		strings.Join(virtuals, "\n\n"),
		strings.Join(methods, "\n\n"),
		strings.Join(statics, "\n\n"),
		strings.Join(hooks, "\n\n"),
		"const "+n+": Model<"+n+"SchemaDto> = model("+quote(n)+", "+schemaVar+");",
		"export { "+n+" };",
	)
}

func modelImports(s types.Schema) string {
	names := append([]string{s.Name + "SchemaDto"}, enumNames(s.Fields)...)
	return `import { Model, Schema, model } from "mongoose";` + "\n" +
		"import { " + strings.Join(names, ", ") + " } from " + quote(dtoImportPath(s.Name)) + ";"
}

func schemaConstruction(s types.Schema) string {
	var b strings.Builder
	b.WriteString("const " + s.Name + "Schema = new Schema<" + s.Name + "SchemaDto>(\n")
	if len(s.Fields) == 0 {
		b.WriteString("  {},\n")
	} else {
		defs := make([]string, len(s.Fields))
		for i, f := range s.Fields {
			defs[i] = "    " + f.Name + ": " + FieldDefinition(f)
		}
		b.WriteString("  {\n" + strings.Join(defs, ",\n") + "\n  },\n")
	}

	o := s.Options
	b.WriteString("  {\n")
	fmt.Fprintf(&b, "    timestamps: %t,\n", o.Timestamps)
	fmt.Fprintf(&b, "    versionKey: %t,\n", o.VersionKey)
	fmt.Fprintf(&b, "    strict: %t,\n", o.Strict)
	fmt.Fprintf(&b, "    validateBeforeSave: %t,\n", o.ValidateBeforeSave)
	fmt.Fprintf(&b, "    autoIndex: %t,\n", o.AutoIndex)
	if o.Collection != "" {
		b.WriteString("    collection: " + quote(o.Collection) + ",\n")
	}
	if o.DiscriminatorKey != "" {
		b.WriteString("    discriminatorKey: " + quote(o.DiscriminatorKey) + ",\n")
	}
	b.WriteString("  }\n);")
	return b.String()
}

func indexRegistrations(schemaVar string, indexes []types.IndexDefinition) string {
	lines := make([]string, 0, len(indexes))
	for _, idx := range indexes {
		keys := make([]string, len(idx.Fields))
		for i, name := range idx.Fields {
			keys[i] = name + ": 1"
		}
		var opts []string
		if idx.Unique {
			opts = append(opts, "unique: true")
		}
		if idx.Sparse {
			opts = append(opts, "sparse: true")
		}
		if idx.Background {
			opts = append(opts, "background: true")
		}
		line := schemaVar + ".index({ " + strings.Join(keys, ", ") + " }"
		if len(opts) > 0 {
			line += ", { " + strings.Join(opts, ", ") + " }"
		}
		lines = append(lines, line+");")
	}
	return strings.Join(lines, "\n")
}

// ── Field definitions ────────────────────────────────────────────────────────

// MongooseType maps a field to its schema-level type expression. Arrays and
// objects render their full structural expression.
func MongooseType(f types.Field) string {
	switch f.Type {
	case types.FieldString, types.FieldEnum:
		return "String"
	case types.FieldNumber:
		return "Number"
	case types.FieldBoolean:
		return "Boolean"
	case types.FieldDate:
		return "Date"
	case types.FieldObjectID:
		return "Schema.Types.ObjectId"
	case types.FieldBuffer:
		return "Buffer"
	case types.FieldMixed:
		return "Schema.Types.Mixed"
	case types.FieldMap:
		return "Map"
	case types.FieldDecimal128:
		return "Schema.Types.Decimal128"
	case types.FieldArray:
		if f.HasNestedShape() {
			defs := nestedDefinitions(f.NestedFields)
			return "[{\n" + strings.Join(append(defs, "    _id: false"), ",\n") + "\n  }]"
		}
		if f.ArrayType == types.FieldObjectID && f.ArrayRef != "" {
			return "[{ type: Schema.Types.ObjectId, ref: " + quote(f.ArrayRef) + " }]"
		}
		return "[" + mongooseArrayElem(f.ArrayType) + "]"
	case types.FieldObject:
		if f.NestedFields == nil {
			return "Schema.Types.Mixed"
		}
		if len(f.NestedFields) == 0 {
			return "{}"
		}
		return "{\n" + strings.Join(nestedDefinitions(f.NestedFields), ",\n") + "\n  }"
	default:
		return "Schema.Types.Mixed"
	}
}

func mongooseArrayElem(t types.FieldType) string {
	switch t {
	case types.FieldObjectID:
		return "Schema.Types.ObjectId"
	case types.FieldString:
		return "String"
	case types.FieldNumber:
		return "Number"
	case types.FieldBoolean:
		return "Boolean"
	case types.FieldDate:
		return "Date"
	case types.FieldDecimal128:
		return "Schema.Types.Decimal128"
	default:
		return "Schema.Types.Mixed"
	}
}

func nestedDefinitions(fields []types.Field) []string {
	defs := make([]string, len(fields))
	for i, f := range fields {
		defs[i] = "    " + f.Name + ": " + FieldDefinition(f)
	}
	return defs
}

// FieldDefinition renders one field's schema definition. Scalars with no
// options render as the bare type; anything else gets an options object.
func FieldDefinition(f types.Field) string {
	base := MongooseType(f)
	if f.Type == types.FieldArray || f.Type == types.FieldObject {
		return base
	}

	opts := []string{"type: " + base}
	if f.Required {
		opts = append(opts, "required: true")
	}
	if f.Unique {
		opts = append(opts, "unique: true")
	}
	if f.Index {
		opts = append(opts, "index: true")
	}
	if f.Sparse {
		opts = append(opts, "sparse: true")
	}
	if f.Immutable {
		opts = append(opts, "immutable: true")
	}
	if f.Default != nil && *f.Default != "" {
		opts = append(opts, "default: "+defaultValue(f))
	}
	if f.Ref != "" {
		opts = append(opts, "ref: "+quote(f.Ref))
	}
	if f.RefPath != "" {
		opts = append(opts, "refPath: "+quote(f.RefPath))
	}
	if f.Alias != "" {
		opts = append(opts, "alias: "+quote(f.Alias))
	}
	if f.Select != nil && !*f.Select {
		opts = append(opts, "select: false")
	}
	for _, rule := range f.Validation {
		switch rule.Type {
		case types.RuleMin, types.RuleMax, types.RuleMinLength, types.RuleMaxLength, types.RuleMatch:
			opts = append(opts, string(rule.Type)+": "+rule.Value.String())
		}
	}
	if f.Type == types.FieldEnum {
		opts = append(opts, "enum: Object.values("+EnumName(f.Name)+")")
	}

	if len(opts) == 1 {
		return base
	}
	return "{\n      " + strings.Join(opts, ",\n      ") + "\n    }"
}

func defaultValue(f types.Field) string {
	v := f.Default.String()
	switch {
	case f.Type == types.FieldString:
		return quote(v)
	case v == dateNow:
		return dateNow
	default:
		return v
	}
}

type stubData struct {
	Schema string
	Name   string
}

func stub(kind, schemaVar, name string) string {
	var b strings.Builder
	if err := stubs.ExecuteTemplate(&b, kind, stubData{Schema: schemaVar, Name: name}); err != nil {
		panic(fmt.Sprintf("codegen: executing %s stub: %v", kind, err))
	}
	return b.String()
}
