package codegen

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// ── Name utilities ───────────────────────────────────────────────────────────

// Pascal upper-cases the first rune of s and leaves the rest untouched, so
// "status" becomes "Status" and "firstName" becomes "FirstName".
func Pascal(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// EnumName is the declaration name for an enum-typed field.
func EnumName(fieldName string) string {
	return Pascal(fieldName) + "Enum"
}

// DTOFileName is the conventional file name of the type-definition artifact.
func DTOFileName(schemaName string) string {
	return strings.ToLower(schemaName) + ".dto.ts"
}

// ModelFileName is the conventional file name of the schema-declaration
// artifact.
func ModelFileName(schemaName string) string {
	return strings.ToLower(schemaName) + ".model.ts"
}

// dtoImportPath is where the model file imports its types from.
func dtoImportPath(schemaName string) string {
	return "../dtos/" + strings.ToLower(schemaName) + ".dto"
}

var quoteReplacer = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// quote renders s as a double-quoted TypeScript string literal.
func quote(s string) string {
	return `"` + quoteReplacer.Replace(s) + `"`
}
