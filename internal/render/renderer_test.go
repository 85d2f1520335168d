package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitebski/postgresql-schema-generator/internal/annotator"
	"github.com/vitebski/postgresql-schema-generator/internal/config"
	"github.com/vitebski/postgresql-schema-generator/internal/defaults"
	"github.com/vitebski/postgresql-schema-generator/pkg/models"
)

func newTestRenderer() *Renderer {
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel) // Suppress log output during tests
	return NewRenderer(logger)
}

func withColumn(name string, def *models.ColumnDefinition) *models.Property {
	return &models.Property{BaseName: name, Schema: &models.PropertySchema{Column: def}}
}

func sampleResult() *annotator.Result {
	statusEnum := &models.EnumDefinition{Name: "status", TypeName: "status_enum", Values: []models.DataTypeArgument{
		{Kind: models.StringArgument, Value: "placed", HasMore: true},
		{Kind: models.StringArgument, Value: "isn't"},
	}}

	order := &models.Model{
		Name:   "Order",
		Schema: &models.ModelSchema{Table: &models.TableDefinition{Name: "order", Schema: "public", Comment: "Pet's /* order */"}},
		Properties: []*models.Property{
			withColumn("id", &models.ColumnDefinition{Name: "id", DataType: "BIGINT", NotNull: true}),
			withColumn("status", &models.ColumnDefinition{Name: "status", DataType: "status_enum",
				Default: &models.ColumnDefault{Kind: models.NullDefault, Value: "NULL"}, Comment: "Order Status"}),
			withColumn("name", &models.ColumnDefinition{Name: "name", DataType: "VARCHAR",
				DataTypeArguments: []models.DataTypeArgument{{Kind: models.IntegerArgument, Value: "255"}},
				Default:           &models.ColumnDefault{Kind: models.StringDefault, Value: "O'Hara"}}),
		},
	}
	user := &models.Model{
		Name:   "User",
		Schema: &models.ModelSchema{Table: &models.TableDefinition{Name: "user", Schema: "public"}},
		Properties: []*models.Property{
			withColumn("id", &models.ColumnDefinition{Name: "id", DataType: "INT",
				Default: &models.ColumnDefault{Kind: models.KeywordDefault, Value: defaults.SerialDefaultValue}}),
			withColumn("level", &models.ColumnDefinition{Name: "level", DataType: "ENUM", DataTypeArguments: []models.DataTypeArgument{
				{Kind: models.StringArgument, Value: "1", HasMore: true},
				{Kind: models.StringArgument, Value: "2"},
			}}),
		},
	}

	return &annotator.Result{
		DatabaseName: "petstore_db",
		Models:       []*models.Model{order, user},
		Tables:       []*models.Model{order, user},
		Enums:        []*models.EnumDefinition{statusEnum},
	}
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, newTestRenderer().Render(&buf, sampleResult(), []string{"User", "Order"}, nil))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "--\n-- PostgreSQL schema\n-- Database: petstore_db\n--\n"))
	assert.Contains(t, out, `CREATE TYPE "status_enum" AS ENUM ('placed', 'isn''t');`)
	assert.Contains(t, out, "CREATE TABLE IF NOT EXISTS \"public\".\"order\" (\n"+
		"  \"id\" BIGINT NOT NULL,\n"+
		"  \"status\" \"status_enum\" DEFAULT NULL,\n"+
		"  \"name\" VARCHAR(255) DEFAULT 'O''Hara'\n"+
		");")
	assert.Contains(t, out, `COMMENT ON TABLE "public"."order" IS 'Pets /_* order *_/';`)
	assert.Contains(t, out, `COMMENT ON COLUMN "public"."order"."status" IS 'Order Status';`)
	assert.Contains(t, out, `  "id" SERIAL,`)
	assert.Contains(t, out, `  "level" TEXT CHECK ("level" IN ('1', '2'))`)
	assert.NotContains(t, out, "INSERT INTO")

	assert.Less(t, strings.Index(out, `"public"."user"`), strings.Index(out, `"public"."order"`))
}

func TestRenderSamples(t *testing.T) {
	logger, hook := test.NewNullLogger()
	r := NewRenderer(logger)

	samples := map[string][][]string{
		"User": {
			{"1", "'2'"},
			{"2"},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, sampleResult(), nil, samples))
	out := buf.String()

	assert.Contains(t, out, `INSERT INTO "public"."user" ("id", "level") VALUES (1, '2');`)
	assert.Equal(t, 1, strings.Count(out, "INSERT INTO"))

	var warned bool
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.WarnLevel && strings.Contains(entry.Message, "has 1 values") {
			warned = true
		}
	}
	assert.True(t, warned)
}

func TestRenderOverrides(t *testing.T) {
	override := &models.Model{
		Name:     "Legacy",
		Override: &models.ModelSchema{Table: &models.TableDefinition{Name: "legacy_users"}},
		Properties: []*models.Property{
			{BaseName: "kind", Override: &models.PropertySchema{
				Column: &models.ColumnDefinition{Name: "kind", DataType: "kind_type", NotNull: true},
				Enum: &models.EnumDefinition{Name: "kind", TypeName: "kind_type", Values: []models.DataTypeArgument{
					{Kind: models.StringArgument, Value: "a"},
				}},
			}},
		},
	}
	result := &annotator.Result{Tables: []*models.Model{override}}

	var buf bytes.Buffer
	require.NoError(t, newTestRenderer().Render(&buf, result, nil, nil))
	out := buf.String()

	assert.NotContains(t, out, "-- Database:")
	assert.Contains(t, out, `CREATE TYPE "kind_type" AS ENUM ('a');`)
	assert.Contains(t, out, "CREATE TABLE IF NOT EXISTS \"legacy_users\" (\n  \"kind\" \"kind_type\" NOT NULL\n);")
}

func TestRenderDropsInvalidNumericDefault(t *testing.T) {
	logger, hook := test.NewNullLogger()
	result := &annotator.Result{Tables: []*models.Model{{
		Name:   "Item",
		Schema: &models.ModelSchema{Table: &models.TableDefinition{Name: "item"}},
		Properties: []*models.Property{
			withColumn("qty", &models.ColumnDefinition{Name: "qty", DataType: "INT",
				Default: &models.ColumnDefault{Kind: models.NumericDefault, Value: "1); DROP TABLE x; --"}}),
			withColumn("rank", &models.ColumnDefinition{Name: "rank", DataType: "INT",
				Default: &models.ColumnDefault{Kind: models.NumericDefault, Value: "-2"}}),
		},
	}}}

	var buf bytes.Buffer
	require.NoError(t, NewRenderer(logger).Render(&buf, result, nil, nil))
	out := buf.String()

	assert.NotContains(t, out, "DROP TABLE")
	assert.Contains(t, out, "  \"qty\" INT,\n")
	assert.Contains(t, out, `"rank" INT DEFAULT -2`)
	var warned bool
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.WarnLevel && strings.Contains(entry.Message, "not a number") {
			warned = true
		}
	}
	assert.True(t, warned)
	assert.Equal(t, "1); DROP TABLE x; --", result.Tables[0].Properties[0].Schema.Column.Default.Value, "input models are left untouched")
}

func TestRenderKeepsOverrideEnumValues(t *testing.T) {
	input := []*models.Model{
		{Name: "Pet", Properties: []*models.Property{
			{BaseName: "status", DataType: "TEXT", IsEnum: true, AllowableValues: []interface{}{"x", "y"}},
		}},
		{Name: "Order", Properties: []*models.Property{
			{BaseName: "status", DataType: "TEXT", Override: &models.PropertySchema{
				Column: &models.ColumnDefinition{Name: "status", DataType: "status_enum"},
				Enum: &models.EnumDefinition{Name: "status", TypeName: "status_enum", Values: []models.DataTypeArgument{
					{Kind: models.StringArgument, Value: "placed", HasMore: true},
					{Kind: models.StringArgument, Value: "approved"},
				}},
			}},
		}},
	}
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel)
	result, err := annotator.NewAnnotator(config.Default(), logger).Run(input)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, newTestRenderer().Render(&buf, result, nil, nil))
	out := buf.String()

	assert.Contains(t, out, `CREATE TYPE "status_enum" AS ENUM ('placed', 'approved');`)
	assert.Contains(t, out, `CREATE TYPE "status_enum_2" AS ENUM ('x', 'y');`)
	assert.Contains(t, out, `"status" "status_enum_2" DEFAULT NULL`)
	assert.Contains(t, out, `"status" "status_enum"`+"\n);")
}

func TestValidDefault(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"0", true},
		{"-12", true},
		{"+3.5", true},
		{".5", true},
		{"1e10", true},
		{"", false},
		{"1 OR 1", false},
		{"NaN", false},
		{"0x1F", false},
	}

	for _, tt := range tests {
		def := &models.ColumnDefault{Kind: models.NumericDefault, Value: tt.value}
		assert.Equal(t, tt.want, validDefault(def), tt.value)
	}
	assert.True(t, validDefault(nil))
	assert.True(t, validDefault(&models.ColumnDefault{Kind: models.StringDefault, Value: "a b"}))
}

func TestRenderSkipsModelsWithoutTable(t *testing.T) {
	result := &annotator.Result{Tables: []*models.Model{{Name: "Loose"}}}

	var buf bytes.Buffer
	require.NoError(t, newTestRenderer().Render(&buf, result, nil, nil))
	assert.NotContains(t, buf.String(), "CREATE TABLE")
}

func TestOrderTables(t *testing.T) {
	a, b, c := &models.Model{Name: "A"}, &models.Model{Name: "B"}, &models.Model{Name: "C"}

	ordered := orderTables([]*models.Model{a, b, c}, []string{"C", "Missing", "A", "C"})
	assert.Equal(t, []*models.Model{c, a, b}, ordered)
}

func TestColumnDefinition(t *testing.T) {
	tests := []struct {
		name   string
		column *models.ColumnDefinition
		want   string
	}{
		{"plain", &models.ColumnDefinition{Name: "age", DataType: "SMALLINT"}, `"age" SMALLINT`},
		{"decimal", &models.ColumnDefinition{Name: "price", DataType: "DECIMAL", DataTypeArguments: []models.DataTypeArgument{
			{Kind: models.IntegerArgument, Value: "20", HasMore: true}, {Kind: models.IntegerArgument, Value: "9"},
		}, Default: &models.ColumnDefault{Kind: models.NumericDefault, Value: "1.5"}}, `"price" DECIMAL(20, 9) DEFAULT 1.5`},
		{"timestamp keyword", &models.ColumnDefinition{Name: "at", DataType: "TIMESTAMP",
			Default: &models.ColumnDefault{Kind: models.KeywordDefault, Value: defaults.CurrentTimestamp}}, `"at" TIMESTAMP DEFAULT CURRENT_TIMESTAMP`},
		{"bigserial", &models.ColumnDefinition{Name: "id", DataType: "BIGINT", NotNull: true,
			Default: &models.ColumnDefault{Kind: models.KeywordDefault, Value: defaults.SerialDefaultValue}}, `"id" BIGSERIAL NOT NULL`},
		{"quoted name", &models.ColumnDefinition{Name: `a"b`, DataType: "TEXT"}, `"a""b" TEXT`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, columnDefinition(tt.column, nil))
		})
	}
}

func TestLiteral(t *testing.T) {
	assert.Equal(t, "'plain'", literal("plain"))
	assert.Equal(t, "'it''s'", literal("it's"))
	assert.Equal(t, ` E'C:\\temp'`, literal(`C:\temp`))
	assert.Equal(t, `"na""me"`, quoteIdentifier(`na"me`))
}
