package fieldtree

import (
	"github.com/matthewbaird/dtobuddy/internal/types"
)

// Patch is a partial field update. Nil members are left untouched. A Default
// set to the empty literal clears the field's default.
type Patch struct {
	Name       *string          `json:"name,omitempty"`
	Type       *types.FieldType `json:"type,omitempty"`
	Required   *bool            `json:"required,omitempty"`
	Unique     *bool            `json:"unique,omitempty"`
	Index      *bool            `json:"index,omitempty"`
	Sparse     *bool            `json:"sparse,omitempty"`
	Immutable  *bool            `json:"immutable,omitempty"`
	Deprecated *bool            `json:"deprecated,omitempty"`
	Default    *types.Literal   `json:"default,omitempty"`

	Ref       *string `json:"ref,omitempty"`
	RefPath   *string `json:"refPath,omitempty"`
	Populate  *bool   `json:"populate,omitempty"`
	Select    *bool   `json:"select,omitempty"`
	Transform *string `json:"transform,omitempty"`
	Alias     *string `json:"alias,omitempty"`

	Validation *[]types.ValidationRule `json:"validation,omitempty"`
	Enum       *[]types.EnumValue      `json:"enum,omitempty"`

	ArrayType     *types.FieldType `json:"arrayType,omitempty"`
	ArrayRef      *string          `json:"arrayRef,omitempty"`
	ArrayMinItems *int             `json:"arrayMinItems,omitempty"`
	ArrayMaxItems *int             `json:"arrayMaxItems,omitempty"`

	NestedFields *[]types.Field `json:"nestedFields,omitempty"`

	Description *string `json:"description,omitempty"`
	Example     *string `json:"example,omitempty"`
	Virtual     *bool   `json:"virtual,omitempty"`
	Getter      *string `json:"getter,omitempty"`
	Setter      *string `json:"setter,omitempty"`
	IsExpanded  *bool   `json:"isExpanded,omitempty"`
}

// Apply returns f with the patch merged in, then enforces the shape rules
// that come with a type change: a new object or array-of-object field gets an
// empty nested list, and a new enum field gets one blank member.
func (p Patch) Apply(f types.Field) types.Field {
	setString(&f.Name, p.Name)
	if p.Type != nil {
		f.Type = *p.Type
	}
	setBool(&f.Required, p.Required)
	setBool(&f.Unique, p.Unique)
	setBool(&f.Index, p.Index)
	setBool(&f.Sparse, p.Sparse)
	setBool(&f.Immutable, p.Immutable)
	setBool(&f.Deprecated, p.Deprecated)
	if p.Default != nil {
		if *p.Default == "" {
			f.Default = nil
		} else {
			d := *p.Default
			f.Default = &d
		}
	}

	setString(&f.Ref, p.Ref)
	setString(&f.RefPath, p.RefPath)
	setBool(&f.Populate, p.Populate)
	if p.Select != nil {
		s := *p.Select
		f.Select = &s
	}
	setString(&f.Transform, p.Transform)
	setString(&f.Alias, p.Alias)

	if p.Validation != nil {
		f.Validation = *p.Validation
	}
	if p.Enum != nil {
		f.Enum = *p.Enum
	}

	if p.ArrayType != nil {
		f.ArrayType = *p.ArrayType
	}
	setString(&f.ArrayRef, p.ArrayRef)
	if p.ArrayMinItems != nil {
		n := *p.ArrayMinItems
		f.ArrayMinItems = &n
	}
	if p.ArrayMaxItems != nil {
		n := *p.ArrayMaxItems
		f.ArrayMaxItems = &n
	}

	if p.NestedFields != nil {
		f.NestedFields = *p.NestedFields
	}

	setString(&f.Description, p.Description)
	setString(&f.Example, p.Example)
	setBool(&f.Virtual, p.Virtual)
	setString(&f.Getter, p.Getter)
	setString(&f.Setter, p.Setter)
	setBool(&f.IsExpanded, p.IsExpanded)

	if p.Type == nil && p.ArrayType == nil {
		return f
	}
	switch {
	case f.Type == types.FieldObject && p.Type != nil:
		if f.NestedFields == nil {
			f.NestedFields = []types.Field{}
		}
	case f.Type == types.FieldEnum && p.Type != nil:
		if f.Enum == nil {
			f.Enum = []types.EnumValue{{Key: "", Value: ""}}
		}
	case f.Type == types.FieldArray && f.ArrayType == types.FieldObject:
		if f.NestedFields == nil {
			f.NestedFields = []types.Field{}
		}
	}
	return f
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

// Ptr returns a pointer to v, for building patches in code.
func Ptr[T any](v T) *T { return &v }
