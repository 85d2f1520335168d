package render

import (
	"fmt"
	"io"
	"regexp"
	"slices"
	"strings"
	"text/template"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"github.com/vitebski/postgresql-schema-generator/internal/annotator"
	"github.com/vitebski/postgresql-schema-generator/internal/defaults"
	"github.com/vitebski/postgresql-schema-generator/internal/naming"
	"github.com/vitebski/postgresql-schema-generator/pkg/models"
)

const ddlTemplate = `--
-- PostgreSQL schema
{{- with .DatabaseName}}
-- Database: {{.}}
{{- end}}
--
{{- range .Enums}}

CREATE TYPE {{.TypeName}} AS ENUM ({{join .Values ", "}});
{{- end}}
{{- range $table := .Tables}}

CREATE TABLE IF NOT EXISTS {{$table.Qualified}} (
{{- range $i, $column := $table.Columns}}
  {{$column.Definition}}{{if lt $i $table.Last}},{{end}}
{{- end}}
);
{{- with $table.Comment}}
COMMENT ON TABLE {{$table.Qualified}} IS '{{.}}';
{{- end}}
{{- range $column := $table.Columns}}
{{- if $column.Comment}}
COMMENT ON COLUMN {{$table.Qualified}}.{{$column.Name}} IS '{{$column.Comment}}';
{{- end}}
{{- end}}
{{- if $table.Rows}}
{{range $table.Rows}}
INSERT INTO {{$table.Qualified}} ({{$table.ColumnList}}) VALUES ({{join . ", "}});
{{- end}}
{{- end}}
{{- end}}
`

var ddl = template.Must(template.New("ddl").Funcs(template.FuncMap{
	"join": strings.Join,
}).Parse(ddlTemplate))

// numericLiteral matches the numeric constants accepted unquoted in a DEFAULT clause
var numericLiteral = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// serialTypes replaces an integer type whose default is the serial keyword
var serialTypes = map[string]string{
	"SMALLINT": "SMALLSERIAL",
	"INT":      "SERIAL",
	"BIGINT":   "BIGSERIAL",
}

type document struct {
	DatabaseName string
	Enums        []enumView
	Tables       []tableView
}

type enumView struct {
	TypeName string
	Values   []string
}

type tableView struct {
	Qualified  string
	Comment    string
	Columns    []columnView
	Last       int
	ColumnList string
	Rows       [][]string
}

type columnView struct {
	Name       string
	Definition string
	Comment    string
}

// Renderer writes annotated models as PostgreSQL DDL
type Renderer struct {
	Logger *logrus.Logger
}

// NewRenderer creates a new renderer
func NewRenderer(logger *logrus.Logger) *Renderer {
	return &Renderer{Logger: logger}
}

// Render writes the enum types and tables of result to w. Tables are written in
// order, given as model names; tables missing from order follow in result order.
// samples maps a model name to rows of literals, one per effective column.
func (r *Renderer) Render(w io.Writer, result *annotator.Result, order []string, samples map[string][][]string) error {
	doc := document{DatabaseName: result.DatabaseName}

	enumTypes := make(map[string]bool)
	enumValues := make(map[string][]models.DataTypeArgument)
	addEnum := func(def *models.EnumDefinition) {
		if def == nil {
			return
		}
		if enumTypes[def.TypeName] {
			if !sameValues(enumValues[def.TypeName], def.Values) {
				r.Logger.Warningf("Enum type %s is defined again with different values, keeping the first definition", def.TypeName)
			}
			return
		}
		enumTypes[def.TypeName] = true
		enumValues[def.TypeName] = def.Values
		view := enumView{TypeName: quoteIdentifier(def.TypeName)}
		for _, v := range def.Values {
			view.Values = append(view.Values, literal(v.Value))
		}
		doc.Enums = append(doc.Enums, view)
	}
	for _, def := range result.Enums {
		addEnum(def)
	}

	tables := orderTables(result.Tables, order)
	for _, model := range slices.Concat(tables, result.Models) {
		for _, p := range model.Properties {
			if p.HasOverride() {
				addEnum(p.Override.Enum)
			}
		}
	}

	for _, model := range tables {
		view, ok := r.tableView(model, enumTypes, samples[model.Name])
		if ok {
			doc.Tables = append(doc.Tables, view)
		}
	}

	if err := ddl.Execute(w, doc); err != nil {
		return fmt.Errorf("render schema: %w", err)
	}
	r.Logger.Infof("Rendered %d enum types and %d tables", len(doc.Enums), len(doc.Tables))
	return nil
}

func (r *Renderer) tableView(model *models.Model, enumTypes map[string]bool, rows [][]string) (tableView, bool) {
	schema := model.Effective()
	if schema == nil || schema.Table == nil {
		r.Logger.Warningf("Model '%s' has no table definition, skipping", model.Name)
		return tableView{}, false
	}

	view := tableView{
		Qualified: qualifiedName(schema.Table),
		Comment:   escapeComment(schema.Table.Comment),
	}

	var names []string
	for _, column := range model.Columns() {
		if !validDefault(column.Default) {
			r.Logger.Warningf("Column %s of table %s has numeric default %q which is not a number, dropping it",
				column.Name, view.Qualified, column.Default.Value)
			stripped := *column
			stripped.Default = nil
			column = &stripped
		}
		name := quoteIdentifier(column.Name)
		names = append(names, name)
		view.Columns = append(view.Columns, columnView{
			Name:       name,
			Definition: columnDefinition(column, enumTypes),
			Comment:    escapeComment(column.Comment),
		})
	}
	view.Last = len(view.Columns) - 1
	view.ColumnList = strings.Join(names, ", ")

	for _, row := range rows {
		if len(row) != len(view.Columns) {
			r.Logger.Warningf("Sample row for table %s has %d values, expected %d, skipping", view.Qualified, len(row), len(view.Columns))
			continue
		}
		view.Rows = append(view.Rows, row)
	}

	return view, true
}

// orderTables sorts models by the given model names, keeping unlisted models in input order
func orderTables(tables []*models.Model, order []string) []*models.Model {
	byName := make(map[string]*models.Model, len(tables))
	for _, t := range tables {
		byName[t.Name] = t
	}

	seen := make(map[string]bool, len(tables))
	var ordered []*models.Model
	for _, name := range order {
		if t, ok := byName[name]; ok && !seen[name] {
			ordered = append(ordered, t)
			seen[name] = true
		}
	}
	for _, t := range tables {
		if !seen[t.Name] {
			ordered = append(ordered, t)
			seen[t.Name] = true
		}
	}
	return ordered
}

// columnDefinition renders "name" TYPE [NOT NULL] [DEFAULT ...]
func columnDefinition(column *models.ColumnDefinition, enumTypes map[string]bool) string {
	name := quoteIdentifier(column.Name)
	dataType := column.TypeWithArguments()
	def := column.Default

	switch {
	case strings.EqualFold(column.DataType, "ENUM"):
		values := make([]string, len(column.DataTypeArguments))
		for i, arg := range column.DataTypeArguments {
			values[i] = literal(arg.Value)
		}
		dataType = fmt.Sprintf("TEXT CHECK (%s IN (%s))", name, strings.Join(values, ", "))
	case enumTypes[column.DataType]:
		dataType = quoteIdentifier(column.DataType)
	}

	if def != nil && def.Kind == models.KeywordDefault && def.Value == defaults.SerialDefaultValue {
		if serial, ok := serialTypes[strings.ToUpper(column.DataType)]; ok {
			dataType = serial
		}
		def = nil
	}

	var b strings.Builder
	b.WriteString(name)
	b.WriteString(" ")
	b.WriteString(dataType)
	if column.NotNull {
		b.WriteString(" NOT NULL")
	}
	if def != nil {
		b.WriteString(" DEFAULT ")
		b.WriteString(defaultValue(def))
	}
	return b.String()
}

// validDefault reports whether def can be written into a DEFAULT clause as is
func validDefault(def *models.ColumnDefault) bool {
	if def == nil || def.Kind != models.NumericDefault {
		return true
	}
	return numericLiteral.MatchString(def.Value)
}

func sameValues(a, b []models.DataTypeArgument) bool {
	return slices.EqualFunc(a, b, func(x, y models.DataTypeArgument) bool {
		return x.Kind == y.Kind && x.Value == y.Value
	})
}

func defaultValue(def *models.ColumnDefault) string {
	if def.Kind == models.StringDefault {
		return literal(def.Value)
	}
	return def.Value
}

func qualifiedName(table *models.TableDefinition) string {
	if table.Schema == "" {
		return quoteIdentifier(table.Name)
	}
	return quoteIdentifier(table.Schema) + "." + quoteIdentifier(table.Name)
}

func quoteIdentifier(name string) string {
	return pq.QuoteIdentifier(name)
}

// literal quotes value as a string constant, switching to the escape syntax when it holds backslashes
func literal(value string) string {
	return pq.QuoteLiteral(value)
}

func escapeComment(comment string) string {
	return naming.EscapeUnsafeCharacters(naming.EscapeQuotationMark(comment))
}
