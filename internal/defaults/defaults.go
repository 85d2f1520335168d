package defaults

import (
	"fmt"
	"strings"

	"github.com/vitebski/postgresql-schema-generator/pkg/models"
)

const (
	// SerialDefaultValue makes an integer column auto-generated
	SerialDefaultValue = "SERIAL DEFAULT VALUE"
	// CurrentTimestamp is the current time keyword for timestamp columns
	CurrentTimestamp = "CURRENT_TIMESTAMP"
)

// UnsupportedDefaultError is returned for column types that cannot carry a default value
type UnsupportedDefaultError struct {
	DataType string
}

func (e *UnsupportedDefaultError) Error() string {
	return fmt.Sprintf("the %s data type cannot be assigned a default value", e.DataType)
}

// Format describes how raw must be rendered as the default of a dataType column.
// A nil raw value or the NULL literal yields the NULL keyword.
func Format(raw *string, dataType string) (*models.ColumnDefault, error) {
	if raw == nil || strings.EqualFold(*raw, "NULL") {
		return &models.ColumnDefault{Kind: models.NullDefault, Value: "NULL"}, nil
	}
	value := *raw

	switch strings.ToUpper(dataType) {
	case "SMALLINT", "INT", "BIGINT":
		if value == SerialDefaultValue {
			return &models.ColumnDefault{Kind: models.KeywordDefault, Value: value}, nil
		}
		return &models.ColumnDefault{Kind: models.NumericDefault, Value: value}, nil
	case "TIMESTAMP", "DATETIME":
		if value == CurrentTimestamp {
			return &models.ColumnDefault{Kind: models.KeywordDefault, Value: value}, nil
		}
		return &models.ColumnDefault{Kind: models.StringDefault, Value: value}, nil
	case "BLOB", "BYTEA", "TEXT", "GEOMETRY", "JSON", "JSONB":
		return nil, &UnsupportedDefaultError{DataType: strings.ToUpper(dataType)}
	default:
		return &models.ColumnDefault{Kind: models.StringDefault, Value: value}, nil
	}
}
