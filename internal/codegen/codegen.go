// Package codegen renders a schema snapshot into two TypeScript artifacts:
// the DTO type definitions and the Mongoose schema/model declaration.
//
// Every function here is pure. The same schema always yields byte-identical
// output, and the schema is never modified. Malformed input (an empty field
// name, a nested list on a scalar field) is rendered as given, never rejected.
package codegen

import (
	"strings"

	"github.com/matthewbaird/dtobuddy/internal/types"
)

// Artifacts holds both generated files for one schema.
type Artifacts struct {
	DTO       string `json:"dto"`
	Model     string `json:"model"`
	DTOFile   string `json:"dtoFile"`
	ModelFile string `json:"modelFile"`
}

// Generate renders both artifacts and their conventional file names.
func Generate(s types.Schema) Artifacts {
	return Artifacts{
		DTO:       GenerateTypeDefinition(s),
		Model:     GenerateSchemaDeclaration(s),
		DTOFile:   DTOFileName(s.Name),
		ModelFile: ModelFileName(s.Name),
	}
}

// joinSections separates non-empty sections with one blank line and
// terminates the text with a newline.
func joinSections(sections ...string) string {
	kept := sections[:0:0]
	for _, s := range sections {
		if s != "" {
			kept = append(kept, s)
		}
	}
	return strings.Join(kept, "\n\n") + "\n"
}

// enumFields returns every enum-typed field in the tree, pre-order, keeping
// only the first field for each generated enum name.
func enumFields(fields []types.Field) []types.Field {
	var out []types.Field
	seen := map[string]bool{}
	var walk func([]types.Field)
	walk = func(list []types.Field) {
		for _, f := range list {
			if f.Type == types.FieldEnum {
				name := EnumName(f.Name)
				if !seen[name] {
					seen[name] = true
					out = append(out, f)
				}
			}
			if f.HasNestedShape() {
				walk(f.NestedFields)
			}
		}
	}
	walk(fields)
	return out
}

// schemaEnums drops schema-level enums whose name is already declared by an
// enum field or by an earlier schema-level enum. Field enums win.
func schemaEnums(decls []types.EnumDecl, fieldEnums []types.Field) []types.EnumDecl {
	seen := map[string]bool{}
	for _, f := range fieldEnums {
		seen[EnumName(f.Name)] = true
	}
	var out []types.EnumDecl
	for _, e := range decls {
		if seen[e.Name] {
			continue
		}
		seen[e.Name] = true
		out = append(out, e)
	}
	return out
}

// enumNames lists the generated names of every enum-typed field, pre-order.
func enumNames(fields []types.Field) []string {
	var names []string
	for _, f := range enumFields(fields) {
		names = append(names, EnumName(f.Name))
	}
	return names
}
