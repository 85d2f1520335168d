package models

import "strings"

// ExtensionKey is the vendor extension that carries a user supplied schema override
const ExtensionKey = "x-postgresqlSchema"

// ArgumentKind tags a data type argument for rendering
type ArgumentKind string

const (
	StringArgument  ArgumentKind = "string"
	IntegerArgument ArgumentKind = "integer"
	FloatArgument   ArgumentKind = "float"
)

// DataTypeArgument is a single argument of a column data type, eg. the 255 in VARCHAR(255)
type DataTypeArgument struct {
	Kind    ArgumentKind `yaml:"kind" json:"kind"`
	Value   string       `yaml:"argumentValue" json:"argumentValue"`
	HasMore bool         `yaml:"hasMore" json:"hasMore"`
}

// DefaultKind tags a column default
type DefaultKind string

const (
	NullDefault    DefaultKind = "null"
	KeywordDefault DefaultKind = "keyword"
	NumericDefault DefaultKind = "numeric"
	StringDefault  DefaultKind = "string"
)

// ColumnDefault describes how a default value must be rendered
type ColumnDefault struct {
	Kind  DefaultKind `yaml:"kind" json:"kind"`
	Value string      `yaml:"defaultValue" json:"defaultValue"`
}

// IsKeyword reports whether the default renders without quoting
func (d ColumnDefault) IsKeyword() bool {
	return d.Kind == NullDefault || d.Kind == KeywordDefault
}

// TableDefinition is the table a model maps to
type TableDefinition struct {
	Name    string `yaml:"tblName" json:"tblName"`
	Schema  string `yaml:"tblSchema" json:"tblSchema"`
	Comment string `yaml:"tblComment,omitempty" json:"tblComment,omitempty"`
}

// ColumnDefinition is the column a property maps to.
// A nil Default means the column has no default clause.
type ColumnDefinition struct {
	Name              string             `yaml:"colName" json:"colName"`
	DataType          string             `yaml:"colDataType" json:"colDataType"`
	DataTypeArguments []DataTypeArgument `yaml:"colDataTypeArguments,omitempty" json:"colDataTypeArguments,omitempty"`
	Unsigned          bool               `yaml:"colUnsigned,omitempty" json:"colUnsigned,omitempty"`
	NotNull           bool               `yaml:"colNotNull" json:"colNotNull"`
	Default           *ColumnDefault     `yaml:"colDefault,omitempty" json:"colDefault,omitempty"`
	Comment           string             `yaml:"colComment,omitempty" json:"colComment,omitempty"`
}

// EnumDefinition is a named PostgreSQL enumerated type
type EnumDefinition struct {
	Name     string             `yaml:"enumName" json:"enumName"`
	TypeName string             `yaml:"enumTypeName" json:"enumTypeName"`
	Values   []DataTypeArgument `yaml:"enumDataArguments" json:"enumDataArguments"`
}

// PropertySchema is the annotation attached to a property
type PropertySchema struct {
	Column *ColumnDefinition `yaml:"columnDefinition,omitempty" json:"columnDefinition,omitempty"`
	Enum   *EnumDefinition   `yaml:"enumDefinition,omitempty" json:"enumDefinition,omitempty"`
}

// ModelSchema is the annotation attached to a model
type ModelSchema struct {
	Table *TableDefinition `yaml:"tableDefinition,omitempty" json:"tableDefinition,omitempty"`
}

// Property represents a single model property as produced by the schema loader
type Property struct {
	BaseName         string
	DataType         string
	DataFormat       string
	Description      string
	Required         bool
	DefaultValue     *string
	Minimum          *string
	Maximum          *string
	ExclusiveMinimum bool
	ExclusiveMaximum bool
	MinLength        *int
	MaxLength        *int
	IsEnum           bool
	AllowableValues  []interface{}
	// Ref is the name of the referenced model for $ref properties
	Ref      string
	Override *PropertySchema
	Schema   *PropertySchema
}

// HasOverride reports whether the property carries a user supplied annotation
func (p *Property) HasOverride() bool {
	return p.Override != nil
}

// Effective returns the user supplied annotation when present, otherwise the derived one
func (p *Property) Effective() *PropertySchema {
	if p.Override != nil {
		return p.Override
	}
	return p.Schema
}

// Model represents a named entity of the source schema
type Model struct {
	Name        string
	Description string
	Properties  []*Property
	Override    *ModelSchema
	Schema      *ModelSchema
}

// HasOverride reports whether the model carries a user supplied annotation
func (m *Model) HasOverride() bool {
	return m.Override != nil
}

// Effective returns the user supplied annotation when present, otherwise the derived one
func (m *Model) Effective() *ModelSchema {
	if m.Override != nil {
		return m.Override
	}
	return m.Schema
}

// Property looks a property up by its base name
func (m *Model) Property(baseName string) *Property {
	for _, p := range m.Properties {
		if p.BaseName == baseName {
			return p
		}
	}
	return nil
}

// Columns returns the effective column definitions in property order
func (m *Model) Columns() []*ColumnDefinition {
	var columns []*ColumnDefinition
	for _, p := range m.Properties {
		if s := p.Effective(); s != nil && s.Column != nil {
			columns = append(columns, s.Column)
		}
	}
	return columns
}

// TypeWithArguments renders a column type with its arguments, eg. VARCHAR(255)
func (c *ColumnDefinition) TypeWithArguments() string {
	if len(c.DataTypeArguments) == 0 {
		return c.DataType
	}
	var b strings.Builder
	b.WriteString(c.DataType)
	b.WriteString("(")
	for _, arg := range c.DataTypeArguments {
		if arg.Kind == StringArgument {
			b.WriteString("'" + arg.Value + "'")
		} else {
			b.WriteString(arg.Value)
		}
		if arg.HasMore {
			b.WriteString(", ")
		}
	}
	b.WriteString(")")
	return b.String()
}

// Reference is a property pointing at another model, the analogue of a foreign key
type Reference struct {
	Model           string
	Property        string
	ReferencedModel string
	IsNullable      bool
}
