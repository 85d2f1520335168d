package classifier

import "strings"

// ColumnKind groups resolved data types by the builder that handles them
type ColumnKind int

const (
	KindUnknown ColumnKind = iota
	KindBoolean
	KindInteger
	KindDecimal
	KindString
	KindDate
	KindJSON
	KindUUID
)

// Kinds lists every column kind
var Kinds = []ColumnKind{KindUnknown, KindBoolean, KindInteger, KindDecimal, KindString, KindDate, KindJSON, KindUUID}

var kindNames = map[ColumnKind]string{
	KindUnknown: "unknown",
	KindBoolean: "boolean",
	KindInteger: "integer",
	KindDecimal: "decimal",
	KindString:  "string",
	KindDate:    "date",
	KindJSON:    "json",
	KindUUID:    "uuid",
}

func (k ColumnKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "invalid"
}

var dataTypeKinds = map[string]ColumnKind{
	"BOOLEAN":   KindBoolean,
	"SMALLINT":  KindInteger,
	"INT":       KindInteger,
	"BIGINT":    KindInteger,
	"DECIMAL":   KindDecimal,
	"BYTEA":     KindString,
	"TEXT":      KindString,
	"DATE":      KindDate,
	"TIMESTAMP": KindDate,
	"JSON":      KindJSON,
	"JSONB":     KindJSON,
	"UUID":      KindUUID,
}

// KindOf maps a resolved data type to its column kind, case-insensitively.
// Anything unrecognized, typically a model reference, is KindUnknown.
func KindOf(dataType string) ColumnKind {
	if kind, ok := dataTypeKinds[strings.ToUpper(dataType)]; ok {
		return kind
	}
	return KindUnknown
}
