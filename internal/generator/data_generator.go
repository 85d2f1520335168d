package generator

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/jaswdr/faker"
	"github.com/sirupsen/logrus"
	"github.com/vitebski/postgresql-schema-generator/pkg/models"
	"github.com/zeebo/xxh3"
)

// sampleEpoch anchors generated dates so that a seed always yields the same rows
var sampleEpoch = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

const maxSampleTextLength = 100

// DataGenerator generates sample rows for annotated tables.
// Every value is returned as a PostgreSQL literal.
type DataGenerator struct {
	Faker faker.Faker
	// Enums maps an enum type name to its values
	Enums  map[string][]string
	Logger *logrus.Logger
}

// NewDataGenerator creates a new data generator that knows the given enum types
func NewDataGenerator(enumDefinitions []*models.EnumDefinition, logger *logrus.Logger) *DataGenerator {
	enums := make(map[string][]string, len(enumDefinitions))
	for _, def := range enumDefinitions {
		values := make([]string, len(def.Values))
		for i, v := range def.Values {
			values[i] = v.Value
		}
		enums[def.TypeName] = values
	}

	return &DataGenerator{
		Faker:  faker.New(),
		Enums:  enums,
		Logger: logger,
	}
}

// TableSeed derives the seed used for one table from the run seed
func TableSeed(seed int64, tableName string) int64 {
	return seed ^ int64(xxh3.HashString(tableName))
}

// GenerateRows generates n rows for table, one literal per effective column.
// The same seed and table always produce the same rows.
func (dg *DataGenerator) GenerateRows(table *models.Model, n int, seed int64) [][]string {
	columns := table.Columns()
	if n <= 0 || len(columns) == 0 {
		return nil
	}

	name := table.Name
	if s := table.Effective(); s != nil && s.Table != nil {
		name = s.Table.Name
	}
	dg.Faker = faker.NewWithSeed(rand.NewSource(TableSeed(seed, name)))

	rows := make([][]string, 0, n)
	for i := 0; i < n; i++ {
		row := make([]string, len(columns))
		for j, column := range columns {
			row[j] = dg.GenerateValue(column)
		}
		rows = append(rows, row)
	}

	dg.Logger.Debugf("Generated %d sample rows for table %s", len(rows), name)
	return rows
}

// GenerateValue generates a literal for a column based on its name, type and arguments
func (dg *DataGenerator) GenerateValue(column *models.ColumnDefinition) string {
	dataType := strings.ToUpper(column.DataType)

	switch dataType {
	case "CHAR", "VARCHAR":
		return quote(truncate(dg.generateString(column.Name), argumentLength(column, 255)))
	case "TEXT", "CITEXT":
		return quote(dg.generateString(column.Name))
	case "SMALLINT":
		return strconv.Itoa(dg.Faker.IntBetween(0, 32767))
	case "INT", "INTEGER", "SERIAL":
		return strconv.Itoa(dg.Faker.IntBetween(1, 1000000))
	case "BIGINT", "BIGSERIAL":
		return strconv.FormatInt(dg.Faker.Int64Between(1, 1000000000000), 10)
	case "DECIMAL", "NUMERIC", "REAL", "DOUBLE PRECISION":
		return dg.generateDecimal(column)
	case "BOOLEAN":
		if dg.Faker.IntBetween(0, 1) == 1 {
			return "TRUE"
		}
		return "FALSE"
	case "DATE":
		return quote(dg.generateDate().Format("2006-01-02"))
	case "TIMESTAMP", "TIMESTAMPTZ":
		return quote(dg.generateDateTime().Format("2006-01-02 15:04:05"))
	case "UUID":
		return quote(dg.generateUUID())
	case "JSON", "JSONB":
		return quote(dg.generateJSON(column.Name))
	case "BYTEA":
		return quote(dg.generateBinary())
	case "ENUM":
		var values []string
		for _, arg := range column.DataTypeArguments {
			values = append(values, arg.Value)
		}
		return dg.pick(column, values)
	}

	if values, ok := dg.Enums[column.DataType]; ok {
		return dg.pick(column, values)
	}

	dg.Logger.Warningf("No specific generator for type %s, using default string", column.DataType)
	return quote(dg.Faker.Lorem().Word())
}

func (dg *DataGenerator) pick(column *models.ColumnDefinition, values []string) string {
	if len(values) == 0 {
		dg.Logger.Warningf("Enum column %s has no values, using NULL", column.Name)
		return "NULL"
	}
	return quote(values[dg.Faker.IntBetween(0, len(values)-1)])
}

// generateString generates a string value, preferring a realistic value for well known column names
func (dg *DataGenerator) generateString(columnName string) string {
	name := strings.ToLower(columnName)
	for _, rule := range nameRules {
		for _, fragment := range rule.fragments {
			if strings.Contains(name, fragment) {
				return rule.generate(dg.Faker, name)
			}
		}
	}

	length := dg.Faker.IntBetween(1, maxSampleTextLength)
	if length <= 5 {
		return dg.Faker.RandomStringWithLength(length)
	} else if length <= 10 {
		return dg.Faker.Lorem().Word()
	} else if length <= 50 {
		return dg.Faker.Lorem().Sentence(length / 10)
	}
	return dg.Faker.Lorem().Paragraph(length / 30)
}

type nameRule struct {
	fragments []string
	generate  func(f faker.Faker, name string) string
}

// nameRules are matched in order against the lowercased column name
var nameRules = []nameRule{
	{[]string{"email"}, func(f faker.Faker, _ string) string { return f.Internet().Email() }},
	{[]string{"filename", "file_name"}, func(f faker.Faker, _ string) string { return f.File().FilenameWithExtension() }},
	{[]string{"name"}, personName},
	{[]string{"phone"}, func(f faker.Faker, _ string) string { return f.Phone().Number() }},
	{[]string{"address"}, func(f faker.Faker, _ string) string { return f.Address().Address() }},
	{[]string{"city"}, func(f faker.Faker, _ string) string { return f.Address().City() }},
	{[]string{"country"}, func(f faker.Faker, _ string) string { return f.Address().Country() }},
	{[]string{"zip", "postal"}, func(f faker.Faker, _ string) string { return f.Address().PostCode() }},
	{[]string{"description", "summary"}, func(f faker.Faker, _ string) string { return f.Lorem().Paragraph(3) }},
	{[]string{"title"}, func(f faker.Faker, _ string) string { return f.Lorem().Sentence(4) }},
	{[]string{"url", "website"}, func(f faker.Faker, _ string) string { return f.Internet().URL() }},
	{[]string{"password"}, func(f faker.Faker, _ string) string { return f.Internet().Password() }},
	{[]string{"token"}, func(f faker.Faker, _ string) string { return f.RandomStringWithLength(32) }},
	{[]string{"color", "colour"}, func(f faker.Faker, _ string) string { return f.Color().Hex() }},
	{[]string{"mimetype", "mime_type"}, func(f faker.Faker, _ string) string { return "application/" + f.Lorem().Word() }},
}

func personName(f faker.Faker, name string) string {
	switch {
	case strings.Contains(name, "first"):
		return f.Person().FirstName()
	case strings.Contains(name, "last"):
		return f.Person().LastName()
	case strings.Contains(name, "user"):
		return f.Internet().User()
	case strings.Contains(name, "company"), strings.Contains(name, "business"):
		return f.Company().Name()
	}
	return f.Person().Name()
}

// generateDecimal generates a decimal value rounded to the scale argument, if any
func (dg *DataGenerator) generateDecimal(column *models.ColumnDefinition) string {
	scale := 2
	if len(column.DataTypeArguments) > 1 {
		if s, err := strconv.Atoi(column.DataTypeArguments[1].Value); err == nil && s >= 0 {
			scale = s
		}
	}
	whole := dg.Faker.IntBetween(0, 999999)
	if scale == 0 {
		return strconv.Itoa(whole)
	}
	fraction := make([]byte, scale)
	for i := range fraction {
		fraction[i] = byte('0' + dg.Faker.IntBetween(0, 9))
	}
	return fmt.Sprintf("%d.%s", whole, fraction)
}

// generateDate generates a date within the five years before the sample epoch
func (dg *DataGenerator) generateDate() time.Time {
	return sampleEpoch.AddDate(0, 0, -dg.Faker.IntBetween(0, 365*5))
}

func (dg *DataGenerator) generateDateTime() time.Time {
	return dg.generateDate().Add(time.Duration(dg.Faker.IntBetween(0, 24*60*60-1)) * time.Second)
}

// generateUUID generates a version 4 UUID from the seeded source
func (dg *DataGenerator) generateUUID() string {
	b := make([]byte, 16)
	for i := range b {
		b[i] = byte(dg.Faker.IntBetween(0, 255))
	}
	b[6] = (b[6] & 0x0f) | 0x40
	b[8] = (b[8] & 0x3f) | 0x80
	return fmt.Sprintf("%x-%x-%x-%x-%x", b[0:4], b[4:6], b[6:8], b[8:10], b[10:16])
}

// generateBinary generates a short bytea value in hex format
func (dg *DataGenerator) generateBinary() string {
	data := make([]byte, dg.Faker.IntBetween(1, 16))
	for i := range data {
		data[i] = byte(dg.Faker.IntBetween(0, 255))
	}
	return `\x` + hex.EncodeToString(data)
}

// generateJSON generates a JSON document shaped after the column name
func (dg *DataGenerator) generateJSON(columnName string) string {
	name := strings.ToLower(columnName)

	var data interface{}
	switch {
	case strings.Contains(name, "address"):
		data = map[string]interface{}{
			"street":  dg.Faker.Address().StreetAddress(),
			"city":    dg.Faker.Address().City(),
			"zipCode": dg.Faker.Address().PostCode(),
			"country": dg.Faker.Address().Country(),
		}
	case strings.Contains(name, "person"), strings.Contains(name, "user"):
		data = map[string]interface{}{
			"firstName": dg.Faker.Person().FirstName(),
			"lastName":  dg.Faker.Person().LastName(),
			"email":     dg.Faker.Internet().Email(),
		}
	case strings.Contains(name, "tags"):
		tags := make([]string, dg.Faker.IntBetween(1, 4))
		for i := range tags {
			tags[i] = dg.Faker.Lorem().Word()
		}
		data = tags
	case strings.Contains(name, "meta"), strings.Contains(name, "attributes"):
		data = map[string]interface{}{
			"created": dg.generateDateTime().Format(time.RFC3339),
			"author":  dg.Faker.Person().Name(),
			"version": fmt.Sprintf("%d.%d.%d", dg.Faker.IntBetween(0, 9), dg.Faker.IntBetween(0, 9), dg.Faker.IntBetween(0, 9)),
		}
	default:
		data = map[string]interface{}{
			"id":      dg.Faker.IntBetween(1, 1000),
			"name":    dg.Faker.Lorem().Word(),
			"enabled": dg.Faker.IntBetween(0, 1) == 1,
		}
	}

	jsonBytes, err := json.Marshal(data)
	if err != nil {
		dg.Logger.Errorf("Error generating JSON: %v", err)
		return "{}"
	}
	return string(jsonBytes)
}

// argumentLength returns the length argument of a CHAR or VARCHAR column
func argumentLength(column *models.ColumnDefinition, fallback int) int {
	if len(column.DataTypeArguments) == 0 {
		return fallback
	}
	length, err := strconv.Atoi(column.DataTypeArguments[0].Value)
	if err != nil || length <= 0 {
		return fallback
	}
	return length
}

func truncate(s string, length int) string {
	runes := []rune(s)
	if len(runes) <= length {
		return s
	}
	return string(runes[:length])
}

// quote renders s as a standard conforming string literal
func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
