package codegen

import (
	"strings"

	"github.com/matthewbaird/dtobuddy/internal/types"
)

// GenerateTypeDefinition renders the DTO file: imports, enum declarations,
// nested shape interfaces, the root Dto type, its derived aliases and the
// export list.
func GenerateTypeDefinition(s types.Schema) string {
	enums := enumFields(s.Fields)
	extra := schemaEnums(s.Enums, enums)

	var decls []string
	for _, f := range enums {
		decls = append(decls, enumDecl(EnumName(f.Name), f.Enum))
	}
	for _, e := range extra {
		decls = append(decls, enumDecl(e.Name, e.Values))
	}

	return joinSections(
		dtoImports(s.Imports),
		strings.Join(decls, "\n\n"),
		strings.Join(nestedInterfaces(s.Fields, s.Name), "\n\n"),
		rootType(s),
		derivedTypes(s.Name),
		dtoExports(s.Name, enums, extra),
	)
}

func dtoImports(extra []string) string {
	lines := []string{`import { Document, Types } from "mongoose";`}
	for _, imp := range extra {
		if strings.TrimSpace(imp) != "" {
			lines = append(lines, imp)
		}
	}
	return strings.Join(lines, "\n")
}

func enumDecl(name string, values []types.EnumValue) string {
	if len(values) == 0 {
		return "enum " + name + " {}"
	}
	members := make([]string, len(values))
	for i, v := range values {
		members[i] = "  " + v.Key + " = " + quote(v.Value)
	}
	return "enum " + name + " {\n" + strings.Join(members, ",\n") + "\n}"
}

// nestedInterfaces declares one interface per nested shape, pre-order. Each
// declaration's name becomes the prefix for the shapes beneath it.
func nestedInterfaces(fields []types.Field, prefix string) []string {
	var out []string
	for _, f := range fields {
		if !f.HasNestedShape() {
			continue
		}
		suffix := "Type"
		if f.Type == types.FieldArray {
			suffix = "ItemType"
		}
		name := prefix + Pascal(f.Name) + suffix
		out = append(out, interfaceDecl(name, f.NestedFields))
		out = append(out, nestedInterfaces(f.NestedFields, name)...)
	}
	return out
}

func interfaceDecl(name string, fields []types.Field) string {
	if len(fields) == 0 {
		return "interface " + name + " {}"
	}
	lines := make([]string, len(fields))
	for i, f := range fields {
		lines[i] = memberLine(f)
	}
	return "interface " + name + " {\n" + strings.Join(lines, "\n") + "\n}"
}

func rootType(s types.Schema) string {
	var b strings.Builder
	b.WriteString("type " + s.Name + "Dto = {\n")
	for _, f := range s.Fields {
		b.WriteString(memberLine(f))
		if f.Deprecated {
			b.WriteString(" @deprecated")
		}
		b.WriteString("\n")
	}
	b.WriteString("};")
	return b.String()
}

func derivedTypes(n string) string {
	return strings.Join([]string{
		"type " + n + "SchemaDto = " + n + "Dto & Document;",
		"type Create" + n + "Dto = Omit<" + n + "Dto, '_id' | 'createdAt' | 'updatedAt'>;",
		"type Update" + n + "Dto = Partial<Create" + n + "Dto>;",
		"type " + n + "PopulatedDto = " + n + "Dto; // Add populated field types as needed",
	}, "\n")
}

func dtoExports(n string, enums []types.Field, extra []types.EnumDecl) string {
	names := []string{
		n + "Dto",
		n + "SchemaDto",
		"Create" + n + "Dto",
		"Update" + n + "Dto",
		n + "PopulatedDto",
	}
	for _, f := range enums {
		names = append(names, EnumName(f.Name))
	}
	for _, e := range extra {
		names = append(names, e.Name)
	}
	return "export {\n  " + strings.Join(names, ",\n  ") + "\n};"
}
