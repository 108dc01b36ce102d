package codegen

import (
	"strings"

	"github.com/matthewbaird/dtobuddy/internal/types"
)

// TSType maps a field to its TypeScript type expression. Object shapes are
// rendered inline, so the expression is self-contained at any depth.
func TSType(f types.Field) string {
	switch f.Type {
	case types.FieldString:
		return "string"
	case types.FieldNumber:
		return "number"
	case types.FieldBoolean:
		return "boolean"
	case types.FieldDate:
		return "Date"
	case types.FieldObjectID:
		return "Types.ObjectId"
	case types.FieldBuffer:
		return "Buffer"
	case types.FieldMixed:
		return "any"
	case types.FieldMap:
		return "Map<string, any>"
	case types.FieldDecimal128:
		return "Types.Decimal128"
	case types.FieldArray:
		if f.HasNestedShape() {
			return inlineObject(f.NestedFields) + "[]"
		}
		return tsArrayElem(f.ArrayType) + "[]"
	case types.FieldObject:
		if f.NestedFields != nil {
			return inlineObject(f.NestedFields)
		}
		return "object"
	case types.FieldEnum:
		return EnumName(f.Name)
	default:
		return "any"
	}
}

func tsArrayElem(t types.FieldType) string {
	switch t {
	case types.FieldObjectID:
		return "Types.ObjectId"
	case types.FieldDecimal128:
		return "Types.Decimal128"
	case "":
		return "any"
	default:
		return string(t)
	}
}

func inlineObject(fields []types.Field) string {
	if len(fields) == 0 {
		return "{}"
	}
	lines := make([]string, len(fields))
	for i, f := range fields {
		lines[i] = "    " + f.Name + optionalMark(f) + ": " + TSType(f) + ";"
	}
	return "{\n" + strings.Join(lines, "\n") + "\n  }"
}

func optionalMark(f types.Field) string {
	if f.Required {
		return ""
	}
	return "?"
}

// memberLine renders one member of a declared type body.
func memberLine(f types.Field) string {
	line := "  " + f.Name + optionalMark(f) + ": " + TSType(f) + ";"
	if f.Description != "" {
		line += " // " + f.Description
	}
	return line
}
