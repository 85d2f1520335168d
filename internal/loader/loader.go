package loader

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/vitebski/postgresql-schema-generator/pkg/models"
	"gopkg.in/yaml.v3"
)

// ErrNoSchemas is returned when a document declares no model schemas
var ErrNoSchemas = errors.New("no schemas found under components.schemas or definitions")

// schemaDoc is a model schema as found in the document
type schemaDoc struct {
	Type        string    `yaml:"type"`
	Description string    `yaml:"description"`
	Required    []string  `yaml:"required"`
	Properties  yaml.Node `yaml:"properties"`
	Extension   yaml.Node `yaml:"x-postgresqlSchema"`
}

// propertyDoc is a property schema as found in the document.
// yaml.Node fields keep the literal text of numbers and are zero when absent.
type propertyDoc struct {
	Type                 typeList      `yaml:"type"`
	Format               string        `yaml:"format"`
	Description          string        `yaml:"description"`
	Ref                  string        `yaml:"$ref"`
	AllOf                []propertyDoc `yaml:"allOf"`
	Default              yaml.Node     `yaml:"default"`
	Minimum              yaml.Node     `yaml:"minimum"`
	Maximum              yaml.Node     `yaml:"maximum"`
	ExclusiveMinimum     yaml.Node     `yaml:"exclusiveMinimum"`
	ExclusiveMaximum     yaml.Node     `yaml:"exclusiveMaximum"`
	MinLength            *int          `yaml:"minLength"`
	MaxLength            *int          `yaml:"maxLength"`
	Enum                 []interface{} `yaml:"enum"`
	AdditionalProperties yaml.Node     `yaml:"additionalProperties"`
	Extension            yaml.Node     `yaml:"x-postgresqlSchema"`
}

// typeList accepts both `type: string` and `type: [string, "null"]`
type typeList []string

func (t *typeList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		*t = typeList{value.Value}
		return nil
	case yaml.SequenceNode:
		var types []string
		if err := value.Decode(&types); err != nil {
			return err
		}
		*t = types
		return nil
	}
	return fmt.Errorf("line %d: unexpected type declaration", value.Line)
}

// primary returns the first declared type other than null
func (t typeList) primary() string {
	for _, v := range t {
		if v != "null" {
			return v
		}
	}
	return ""
}

// SchemaLoader reads model definitions from an OpenAPI document
type SchemaLoader struct {
	Logger *logrus.Logger
}

// NewSchemaLoader creates a new schema loader
func NewSchemaLoader(logger *logrus.Logger) *SchemaLoader {
	return &SchemaLoader{Logger: logger}
}

// Load reads and parses the document at path. YAML and JSON are both accepted.
func (l *SchemaLoader) Load(path string) ([]*models.Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	l.Logger.Infof("Loading schemas from %s", path)
	return l.Parse(data)
}

// Parse converts the document schemas to models, keeping declaration order
func (l *SchemaLoader) Parse(data []byte) ([]*models.Model, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, ErrNoSchemas
	}
	doc := root.Content[0]

	schemas := lookup(lookup(doc, "components"), "schemas")
	if schemas == nil {
		schemas = lookup(doc, "definitions")
	}
	if schemas == nil || schemas.Kind != yaml.MappingNode || len(schemas.Content) == 0 {
		return nil, ErrNoSchemas
	}

	var result []*models.Model
	for i := 0; i+1 < len(schemas.Content); i += 2 {
		name := schemas.Content[i].Value
		model, err := l.parseModel(name, schemas.Content[i+1])
		if err != nil {
			return nil, err
		}
		result = append(result, model)
	}

	l.Logger.Infof("Loaded %d models", len(result))
	return result, nil
}

func (l *SchemaLoader) parseModel(name string, node *yaml.Node) (*models.Model, error) {
	var s schemaDoc
	if err := node.Decode(&s); err != nil {
		return nil, fmt.Errorf("schema %s: %w", name, err)
	}

	model := &models.Model{Name: name, Description: s.Description}
	if !isAbsent(s.Extension) {
		var override models.ModelSchema
		if err := s.Extension.Decode(&override); err != nil {
			return nil, fmt.Errorf("schema %s: %s: %w", name, models.ExtensionKey, err)
		}
		model.Override = &override
	}

	required := make(map[string]bool, len(s.Required))
	for _, r := range s.Required {
		required[r] = true
	}

	if s.Properties.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(s.Properties.Content); i += 2 {
			baseName := s.Properties.Content[i].Value
			property, err := l.parseProperty(baseName, s.Properties.Content[i+1])
			if err != nil {
				return nil, fmt.Errorf("schema %s: %w", name, err)
			}
			property.Required = required[baseName]
			model.Properties = append(model.Properties, property)
		}
	}

	return model, nil
}

func (l *SchemaLoader) parseProperty(baseName string, node *yaml.Node) (*models.Property, error) {
	var p propertyDoc
	if err := node.Decode(&p); err != nil {
		return nil, fmt.Errorf("property %s: %w", baseName, err)
	}

	property := &models.Property{
		BaseName:    baseName,
		DataFormat:  p.Format,
		Description: p.Description,
		MinLength:   p.MinLength,
		MaxLength:   p.MaxLength,
	}

	ref := p.Ref
	if ref == "" && len(p.AllOf) == 1 {
		ref = p.AllOf[0].Ref
	}
	if ref != "" {
		property.Ref = refName(ref)
		property.DataType = property.Ref
	} else {
		property.DataType = MapDataType(p.Type.primary(), p.Format, !isAbsent(p.AdditionalProperties))
	}

	if !isAbsent(p.Default) {
		def, err := scalarText(&p.Default)
		if err != nil {
			return nil, fmt.Errorf("property %s: default: %w", baseName, err)
		}
		property.DefaultValue = def
	}

	property.Minimum = numericText(&p.Minimum)
	property.Maximum = numericText(&p.Maximum)
	property.ExclusiveMinimum = l.exclusiveBound(baseName, &p.ExclusiveMinimum, &property.Minimum)
	property.ExclusiveMaximum = l.exclusiveBound(baseName, &p.ExclusiveMaximum, &property.Maximum)

	for _, v := range p.Enum {
		if v == nil {
			continue
		}
		property.AllowableValues = append(property.AllowableValues, v)
	}
	property.IsEnum = len(property.AllowableValues) > 0

	if !isAbsent(p.Extension) {
		var override models.PropertySchema
		if err := p.Extension.Decode(&override); err != nil {
			return nil, fmt.Errorf("property %s: %s: %w", baseName, models.ExtensionKey, err)
		}
		property.Override = &override
	}

	return property, nil
}

// exclusiveBound handles both the boolean (OpenAPI 3.0) and the numeric (OpenAPI 3.1) form.
// The numeric form replaces the inclusive bound.
func (l *SchemaLoader) exclusiveBound(baseName string, node *yaml.Node, bound **string) bool {
	if isAbsent(*node) {
		return false
	}
	switch node.ShortTag() {
	case "!!bool":
		var b bool
		if err := node.Decode(&b); err != nil {
			l.Logger.Warningf("Property '%s' has invalid exclusive bound '%s'", baseName, node.Value)
			return false
		}
		return b
	case "!!int", "!!float":
		v := node.Value
		*bound = &v
		return true
	}
	l.Logger.Warningf("Property '%s' has invalid exclusive bound '%s'", baseName, node.Value)
	return false
}

// MapDataType maps an OpenAPI type and format to the data type the classifier dispatches on
func MapDataType(typ, format string, hasAdditionalProperties bool) string {
	switch typ {
	case "array", "object":
		return "JSONB"
	case "boolean":
		return "BOOLEAN"
	case "integer":
		if format == "int64" {
			return "BIGINT"
		}
		return "INT"
	case "number":
		return "DECIMAL"
	case "file":
		return "BYTEA"
	case "string":
		switch format {
		case "date":
			return "DATE"
		case "date-time":
			return "TIMESTAMP"
		case "binary":
			return "BYTEA"
		case "uuid":
			return "UUID"
		}
		return "TEXT"
	case "":
		if hasAdditionalProperties {
			return "JSONB"
		}
		return "TEXT"
	}
	return typ
}

func lookup(node *yaml.Node, key string) *yaml.Node {
	if node == nil || node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}

func refName(ref string) string {
	return ref[strings.LastIndex(ref, "/")+1:]
}

func isAbsent(node yaml.Node) bool {
	return node.Kind == 0
}

func numericText(node *yaml.Node) *string {
	if node.Kind != yaml.ScalarNode || node.ShortTag() == "!!null" {
		return nil
	}
	v := node.Value
	return &v
}

// scalarText returns the literal text of a default value. Structured defaults are rendered as JSON.
func scalarText(node *yaml.Node) (*string, error) {
	if node.Kind == yaml.ScalarNode {
		if node.ShortTag() == "!!null" {
			return nil, nil
		}
		v := node.Value
		return &v, nil
	}
	var v interface{}
	if err := node.Decode(&v); err != nil {
		return nil, err
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	s := string(b)
	return &s, nil
}
