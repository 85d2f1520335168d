package generator

import (
	"strconv"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitebski/postgresql-schema-generator/pkg/models"
)

func newTestGenerator(enums []*models.EnumDefinition) *DataGenerator {
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel) // Suppress log output during tests
	return NewDataGenerator(enums, logger)
}

func column(name, dataType string, args ...string) *models.Property {
	def := &models.ColumnDefinition{Name: name, DataType: dataType}
	for i, a := range args {
		def.DataTypeArguments = append(def.DataTypeArguments, models.DataTypeArgument{
			Kind: models.IntegerArgument, Value: a, HasMore: i+1 < len(args),
		})
	}
	return &models.Property{BaseName: name, Schema: &models.PropertySchema{Column: def}}
}

func sampleTable() *models.Model {
	return &models.Model{
		Name:   "Order",
		Schema: &models.ModelSchema{Table: &models.TableDefinition{Name: "order", Schema: "public"}},
		Properties: []*models.Property{
			column("id", "BIGINT"),
			column("quantity", "SMALLINT"),
			column("email", "VARCHAR", "12"),
			column("code", "CHAR", "3"),
			column("price", "DECIMAL", "20", "9"),
			column("complete", "BOOLEAN"),
			column("ship_date", "TIMESTAMP"),
			column("status", "status_enum"),
			column("meta", "JSONB"),
			column("external_id", "UUID"),
		},
	}
}

func unquote(t *testing.T, literal string) string {
	t.Helper()
	require.True(t, strings.HasPrefix(literal, "'") && strings.HasSuffix(literal, "'"), "not a string literal: %s", literal)
	return strings.ReplaceAll(literal[1:len(literal)-1], "''", "'")
}

func TestGenerateRowsIsDeterministic(t *testing.T) {
	enums := []*models.EnumDefinition{{Name: "status", TypeName: "status_enum", Values: []models.DataTypeArgument{
		{Kind: models.StringArgument, Value: "placed", HasMore: true},
		{Kind: models.StringArgument, Value: "delivered"},
	}}}

	first := newTestGenerator(enums).GenerateRows(sampleTable(), 5, 42)
	second := newTestGenerator(enums).GenerateRows(sampleTable(), 5, 42)

	require.Len(t, first, 5)
	assert.Equal(t, first, second)
	for _, row := range first {
		assert.Len(t, row, 10)
	}
}

func TestGenerateRowsRespectsColumnTypes(t *testing.T) {
	enums := []*models.EnumDefinition{{Name: "status", TypeName: "status_enum", Values: []models.DataTypeArgument{
		{Kind: models.StringArgument, Value: "placed", HasMore: true},
		{Kind: models.StringArgument, Value: "delivered"},
	}}}

	rows := newTestGenerator(enums).GenerateRows(sampleTable(), 20, 7)
	require.Len(t, rows, 20)

	for _, row := range rows {
		_, err := strconv.ParseInt(row[0], 10, 64)
		assert.NoError(t, err, "BIGINT")

		quantity, err := strconv.Atoi(row[1])
		require.NoError(t, err, "SMALLINT")
		assert.LessOrEqual(t, quantity, 32767)

		assert.LessOrEqual(t, utf8.RuneCountInString(unquote(t, row[2])), 12)
		assert.LessOrEqual(t, utf8.RuneCountInString(unquote(t, row[3])), 3)

		parts := strings.Split(row[4], ".")
		require.Len(t, parts, 2)
		assert.Len(t, parts[1], 9)

		assert.Contains(t, []string{"TRUE", "FALSE"}, row[5])
		assert.Len(t, unquote(t, row[6]), len("2006-01-02 15:04:05"))
		assert.Contains(t, []string{"'placed'", "'delivered'"}, row[7])
		assert.True(t, strings.HasPrefix(unquote(t, row[8]), "{"))
		assert.Regexp(t, `^'[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}'$`, row[9])
	}
}

func TestGenerateRowsEmpty(t *testing.T) {
	g := newTestGenerator(nil)

	assert.Nil(t, g.GenerateRows(sampleTable(), 0, 1))
	assert.Nil(t, g.GenerateRows(&models.Model{Name: "Empty"}, 3, 1))
}

func TestGenerateValueSyntheticEnum(t *testing.T) {
	g := newTestGenerator(nil)
	col := &models.ColumnDefinition{Name: "level", DataType: "ENUM", DataTypeArguments: []models.DataTypeArgument{
		{Kind: models.StringArgument, Value: "1", HasMore: true},
		{Kind: models.StringArgument, Value: "2"},
	}}

	for i := 0; i < 10; i++ {
		assert.Contains(t, []string{"'1'", "'2'"}, g.GenerateValue(col))
	}

	assert.Equal(t, "NULL", g.GenerateValue(&models.ColumnDefinition{Name: "empty", DataType: "ENUM"}))
}

func TestGenerateValueUnknownType(t *testing.T) {
	logger, hook := test.NewNullLogger()
	g := NewDataGenerator(nil, logger)

	value := g.GenerateValue(&models.ColumnDefinition{Name: "shape", DataType: "GEOMETRY"})
	unquote(t, value)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}

func TestGenerateValueBinaryAndDate(t *testing.T) {
	g := newTestGenerator(nil)

	assert.Regexp(t, `^'\\x([0-9a-f]{2})+'$`, g.GenerateValue(&models.ColumnDefinition{Name: "photo", DataType: "BYTEA"}))
	assert.Regexp(t, `^'\d{4}-\d{2}-\d{2}'$`, g.GenerateValue(&models.ColumnDefinition{Name: "born", DataType: "DATE"}))
}

func TestTableSeed(t *testing.T) {
	assert.Equal(t, TableSeed(1, "order"), TableSeed(1, "order"))
	assert.NotEqual(t, TableSeed(1, "order"), TableSeed(1, "pet"))
	assert.NotEqual(t, TableSeed(1, "order"), TableSeed(2, "order"))
}

func TestQuote(t *testing.T) {
	assert.Equal(t, "'O''Hara'", quote("O'Hara"))
	assert.Equal(t, "''", quote(""))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "héll", truncate("héllo", 4))
	assert.Equal(t, "abc", truncate("abc", 10))
}
