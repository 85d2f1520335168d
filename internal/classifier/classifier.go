package classifier

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/vitebski/postgresql-schema-generator/internal/defaults"
	"github.com/vitebski/postgresql-schema-generator/internal/enums"
	"github.com/vitebski/postgresql-schema-generator/internal/naming"
	"github.com/vitebski/postgresql-schema-generator/internal/typematch"
	"github.com/vitebski/postgresql-schema-generator/pkg/models"
)

// EnumMaxElements is the largest number of values kept for one enumeration
const EnumMaxElements = 65535

// EnumTypeSuffix is appended to the column name to build an enum type name
const EnumTypeSuffix = "_enum"

const (
	decimalPrecision = 20
	decimalScale     = 9
	defaultVarchar   = 255
)

// Classifier derives a column definition for each model property
type Classifier struct {
	Names               *naming.Normalizer
	Types               *typematch.Matcher
	Enums               *enums.Registry
	JSONDataTypeEnabled bool
	Logger              *logrus.Logger
}

// NewClassifier creates a classifier bound to one enum registry
func NewClassifier(names *naming.Normalizer, types *typematch.Matcher, registry *enums.Registry, jsonDataTypeEnabled bool, logger *logrus.Logger) *Classifier {
	return &Classifier{
		Names:               names,
		Types:               types,
		Enums:               registry,
		JSONDataTypeEnabled: jsonDataTypeEnabled,
		Logger:              logger,
	}
}

// Classify attaches a derived PropertySchema to property.
// Properties with a user supplied override are left untouched.
func (c *Classifier) Classify(model *models.Model, property *models.Property) error {
	if property.HasOverride() {
		c.Logger.Infof("Found %s in '%s' property, autogeneration skipped", models.ExtensionKey, property.BaseName)
		return nil
	}

	name, err := c.Names.ColumnName(property.BaseName)
	if err != nil {
		return fmt.Errorf("property '%s' of model '%s': %w", property.BaseName, model.Name, err)
	}

	column := &models.ColumnDefinition{Name: name}
	schema := &models.PropertySchema{Column: column}

	kind := KindOf(property.DataType)
	switch kind {
	case KindBoolean:
		column.DataType = "BOOLEAN"
	case KindInteger:
		c.buildInteger(column, property)
	case KindDecimal:
		c.buildDecimal(column, property)
	case KindString:
		if err := c.buildString(schema, property); err != nil {
			return fmt.Errorf("property '%s' of model '%s': %w", property.BaseName, model.Name, err)
		}
	case KindDate:
		column.DataType = property.DataType
	case KindJSON:
		column.DataType = property.DataType
		if !c.JSONDataTypeEnabled {
			column.DataType = "TEXT"
		}
	case KindUUID:
		column.DataType = property.DataType
	case KindUnknown:
		c.buildUnknown(model, column, property)
	default:
		return fmt.Errorf("property '%s' of model '%s': unhandled column kind %v", property.BaseName, model.Name, kind)
	}

	if kind != KindUUID {
		c.applyNullability(model, column, property)
	}

	if property.Description != "" {
		column.Comment = property.Description
	}

	property.Schema = schema
	return nil
}

func (c *Classifier) buildInteger(column *models.ColumnDefinition, property *models.Property) {
	if property.IsEnum {
		column.DataType = "ENUM"
		column.DataTypeArguments = c.enumArguments(property)
		return
	}

	if property.DataFormat == "int64" {
		column.DataType = string(typematch.BigInt)
		return
	}

	min := c.parseIntegerBound(property, "minimum", property.Minimum)
	max := c.parseIntegerBound(property, "maximum", property.Maximum)
	if property.ExclusiveMinimum && min != nil && *min < math.MaxInt64 {
		*min++
	}
	if property.ExclusiveMaximum && max != nil && *max > math.MinInt64 {
		*max--
	}

	unsigned := min != nil && *min >= 0
	column.Unsigned = unsigned
	column.DataType = string(c.Types.MatchIntegerType(min, max, &unsigned))
}

func (c *Classifier) buildDecimal(column *models.ColumnDefinition, property *models.Property) {
	if property.IsEnum {
		column.DataType = "ENUM"
		column.DataTypeArguments = c.enumArguments(property)
		return
	}

	min := c.parseDecimalBound(property, "minimum", property.Minimum)
	if property.ExclusiveMinimum && min != nil {
		*min++
	}

	column.DataType = "DECIMAL"
	column.Unsigned = min != nil && *min >= 0
	column.DataTypeArguments = []models.DataTypeArgument{
		c.argument(decimalPrecision, true),
		c.argument(decimalScale, false),
	}
}

func (c *Classifier) buildString(schema *models.PropertySchema, property *models.Property) error {
	column := schema.Column

	if property.IsEnum {
		values := c.enumArguments(property)
		candidate := enums.Fit(column.Name, EnumTypeSuffix, enums.MaxNameLength)
		typeName, reused, err := c.Enums.Register(candidate, enums.Signature(values))
		if err != nil {
			return err
		}
		if !reused {
			schema.Enum = &models.EnumDefinition{
				Name:     column.Name,
				TypeName: typeName,
				Values:   values,
			}
		}
		column.DataType = typeName
		return nil
	}

	maxLength := property.MaxLength
	if maxLength != nil && *maxLength < 1 {
		c.Logger.Warningf("Property '%s' has 'maxLength' %d, ignoring it", property.BaseName, *maxLength)
		maxLength = nil
	}

	matched := c.Types.MatchStringType(property.MinLength, maxLength)
	column.DataType = string(matched)
	if matched == typematch.Char || matched == typematch.Varchar {
		length := defaultVarchar
		if maxLength != nil {
			length = *maxLength
		}
		column.DataTypeArguments = []models.DataTypeArgument{c.argument(length, false)}
	}
	return nil
}

func (c *Classifier) buildUnknown(model *models.Model, column *models.ColumnDefinition, property *models.Property) {
	if typematch.IsPostgresqlDataType(property.DataType) {
		c.Logger.Warningf("Property '%s' of model '%s' has PostgreSQL data type '%s' without a dedicated mapping, using TEXT",
			property.BaseName, model.Name, property.DataType)
	} else {
		c.Logger.Warningf("Property '%s' of model '%s' has unmapped data type '%s' (format '%s'), using TEXT",
			property.BaseName, model.Name, property.DataType, property.DataFormat)
	}
	column.DataType = string(typematch.Text)
}

func (c *Classifier) applyNullability(model *models.Model, column *models.ColumnDefinition, property *models.Property) {
	if property.Required {
		column.NotNull = true
		return
	}

	column.NotNull = false
	def, err := defaults.Format(property.DefaultValue, column.DataType)
	if err != nil {
		var unsupported *defaults.UnsupportedDefaultError
		if errors.As(err, &unsupported) {
			c.Logger.Warningf("Property '%s' of model '%s' mapped to %s data type which doesn't support default value",
				property.BaseName, model.Name, unsupported.DataType)
		} else {
			c.Logger.Warningf("Property '%s' of model '%s': %v", property.BaseName, model.Name, err)
		}
		column.Default = nil
		return
	}
	column.Default = def
}

// enumArguments converts the allowable values to string arguments, dropping values past EnumMaxElements
func (c *Classifier) enumArguments(property *models.Property) []models.DataTypeArgument {
	values := property.AllowableValues
	if len(values) > EnumMaxElements {
		c.Logger.Warningf("ENUM column '%s' can have maximum of %d distinct elements, %d values will be skipped starting with '%v'",
			property.BaseName, EnumMaxElements, len(values)-EnumMaxElements, values[EnumMaxElements])
		values = values[:EnumMaxElements]
	}

	args := make([]models.DataTypeArgument, len(values))
	for i, v := range values {
		args[i] = c.argument(fmt.Sprint(v), i+1 < len(values))
	}
	return args
}

// argument tags a data type argument by its Go type
func (c *Classifier) argument(value interface{}, hasMore bool) models.DataTypeArgument {
	switch v := value.(type) {
	case string:
		return models.DataTypeArgument{Kind: models.StringArgument, Value: v, HasMore: hasMore}
	case int:
		return models.DataTypeArgument{Kind: models.IntegerArgument, Value: strconv.Itoa(v), HasMore: hasMore}
	case int32:
		return models.DataTypeArgument{Kind: models.IntegerArgument, Value: strconv.FormatInt(int64(v), 10), HasMore: hasMore}
	case int64:
		return models.DataTypeArgument{Kind: models.IntegerArgument, Value: strconv.FormatInt(v, 10), HasMore: hasMore}
	case float32:
		return models.DataTypeArgument{Kind: models.FloatArgument, Value: strconv.FormatFloat(float64(v), 'f', -1, 32), HasMore: hasMore}
	case float64:
		return models.DataTypeArgument{Kind: models.FloatArgument, Value: strconv.FormatFloat(v, 'f', -1, 64), HasMore: hasMore}
	default:
		c.Logger.Warningf("PostgreSQL data type argument can be primitive type only. Type '%T' is provided", value)
		return models.DataTypeArgument{Kind: models.StringArgument, Value: fmt.Sprint(value), HasMore: hasMore}
	}
}

func (c *Classifier) parseIntegerBound(property *models.Property, field string, raw *string) *int64 {
	if raw == nil {
		return nil
	}
	if v, err := strconv.ParseInt(*raw, 10, 64); err == nil {
		return &v
	}
	f, err := strconv.ParseFloat(*raw, 64)
	if err != nil || math.IsNaN(f) {
		c.Logger.Warningf("Property '%s' has invalid %s '%s', ignoring it", property.BaseName, field, *raw)
		return nil
	}

	var v int64
	switch {
	case f >= math.MaxInt64:
		v = math.MaxInt64
	case f <= math.MinInt64:
		v = math.MinInt64
	default:
		v = int64(math.Trunc(f))
	}
	return &v
}

func (c *Classifier) parseDecimalBound(property *models.Property, field string, raw *string) *float64 {
	if raw == nil {
		return nil
	}
	f, err := strconv.ParseFloat(*raw, 64)
	if err != nil || math.IsNaN(f) {
		c.Logger.Warningf("Property '%s' has invalid %s '%s', ignoring it", property.BaseName, field, *raw)
		return nil
	}
	return &f
}
