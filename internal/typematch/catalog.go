package typematch

import "strings"

var (
	numericTypes = []string{
		"BIGINT", "BIGSERIAL", "BIT", "BOOLEAN", "DEC", "DECIMAL", "DOUBLE", "DOUBLE PRECISION", "FLOAT",
		"INT", "INTEGER", "MONEY", "NUMERIC", "REAL", "SERIAL", "SMALLINT",
	}
	dateAndTimeTypes = []string{"DATE", "TIME", "TIMESTAMP"}
	stringTypes      = []string{"BYTEA", "CHAR", "CHARACTER", "CHARACTER VARYING", "ENUM", "SET", "TEXT", "VARCHAR"}
	spatialTypes     = []string{"BOX", "CIRCLE", "LSEG", "PATH", "POINT", "POLYGON"}
	jsonTypes        = []string{"JSON", "JSONB"}
)

var catalog = func() map[string]struct{} {
	c := make(map[string]struct{})
	for _, group := range [][]string{numericTypes, dateAndTimeTypes, stringTypes, spatialTypes, jsonTypes} {
		for _, t := range group {
			c[t] = struct{}{}
		}
	}
	return c
}()

// IsPostgresqlDataType reports whether dataType names a known PostgreSQL type, case-insensitively
func IsPostgresqlDataType(dataType string) bool {
	_, ok := catalog[strings.ToUpper(dataType)]
	return ok
}
