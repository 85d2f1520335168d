package analyzer

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitebski/postgresql-schema-generator/pkg/models"
	"github.com/yourbasic/graph"
)

func newTestAnalyzer(input []*models.Model) *SchemaAnalyzer {
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel) // Suppress log output during tests
	return NewSchemaAnalyzer(input, logger)
}

func ref(name, target string, required bool) *models.Property {
	return &models.Property{BaseName: name, DataType: target, Ref: target, Required: required}
}

func plain(name string) *models.Property {
	return &models.Property{BaseName: name, DataType: "TEXT"}
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}

func TestNewSchemaAnalyzer(t *testing.T) {
	analyzer := newTestAnalyzer(nil)

	require.NotNil(t, analyzer)
	assert.NotNil(t, analyzer.References)
	assert.NotNil(t, analyzer.ManyToManyTables)
	assert.NotNil(t, analyzer.TableIndexMap)
	assert.NotNil(t, analyzer.IndexTableMap)
}

func TestAnalyzeSchema(t *testing.T) {
	analyzer := newTestAnalyzer([]*models.Model{
		{Name: "Post", Properties: []*models.Property{plain("title"), ref("author", "User", true), ref("ghost", "Missing", false)}},
		{Name: "User", Properties: []*models.Property{plain("name")}},
	})

	require.NoError(t, analyzer.AnalyzeSchema())
	assert.Equal(t, []string{"Post", "User"}, analyzer.Tables)
	require.Len(t, analyzer.References["Post"], 1)
	assert.Equal(t, models.Reference{Model: "Post", Property: "author", ReferencedModel: "User", IsNullable: false}, analyzer.References["Post"][0])
	assert.True(t, analyzer.DependencyGraph.Edge(0, 1))
	assert.Equal(t, int64(1), analyzer.DependencyGraph.Cost(0, 1))
}

func TestDetectManyToManyTables(t *testing.T) {
	analyzer := newTestAnalyzer([]*models.Model{
		{Name: "User", Properties: []*models.Property{plain("name")}},
		{Name: "Post", Properties: []*models.Property{plain("title"), ref("author", "User", true)}},
		{Name: "UserPost", Properties: []*models.Property{plain("id"), ref("user", "User", true), ref("post", "Post", true)}},
	})

	require.NoError(t, analyzer.AnalyzeSchema())
	assert.True(t, analyzer.ManyToManyTables["UserPost"])
	assert.False(t, analyzer.ManyToManyTables["Post"])
}

func TestGetCircularTables(t *testing.T) {
	analyzer := newTestAnalyzer(nil)
	analyzer.Tables = []string{"Employee", "Department", "Office"}
	analyzer.IndexTableMap = map[int]string{0: "Employee", 1: "Department", 2: "Office"}

	// Employee <-> Department, Department -> Office
	analyzer.DependencyGraph = graph.New(3)
	analyzer.DependencyGraph.AddCost(0, 1, 1)
	analyzer.DependencyGraph.AddCost(1, 0, 1)
	analyzer.DependencyGraph.AddCost(1, 2, 1)

	circularTables := analyzer.GetCircularTables()
	assert.True(t, circularTables["Employee"])
	assert.True(t, circularTables["Department"])
	assert.False(t, circularTables["Office"])
	assert.Equal(t, [][]string{{"Employee", "Department"}}, analyzer.DirectCircularDeps)
}

func TestGetCircularTablesLongCycle(t *testing.T) {
	analyzer := newTestAnalyzer([]*models.Model{
		{Name: "A", Properties: []*models.Property{ref("b", "B", false)}},
		{Name: "B", Properties: []*models.Property{ref("c", "C", false)}},
		{Name: "C", Properties: []*models.Property{ref("a", "A", false), ref("self", "C", false)}},
		{Name: "D", Properties: []*models.Property{ref("a", "A", false)}},
	})
	require.NoError(t, analyzer.AnalyzeSchema())

	circularTables := analyzer.GetCircularTables()
	assert.Equal(t, map[string]bool{"A": true, "B": true, "C": true}, circularTables)
	assert.Empty(t, analyzer.DirectCircularDeps)
}

func TestGetTableCreationOrder(t *testing.T) {
	analyzer := newTestAnalyzer([]*models.Model{
		{Name: "Comment", Properties: []*models.Property{plain("body"), ref("post", "Post", true)}},
		{Name: "UserPost", Properties: []*models.Property{ref("user", "User", true), ref("post", "Post", true)}},
		{Name: "Post", Properties: []*models.Property{plain("title"), ref("author", "User", true)}},
		{Name: "User", Properties: []*models.Property{plain("name"), ref("manager", "User", false)}},
	})
	require.NoError(t, analyzer.AnalyzeSchema())

	orderedTables, circularTables := analyzer.GetTableCreationOrder()
	require.Len(t, orderedTables, 4)
	assert.Empty(t, circularTables)

	assert.Less(t, indexOf(orderedTables, "User"), indexOf(orderedTables, "Post"))
	assert.Less(t, indexOf(orderedTables, "Post"), indexOf(orderedTables, "Comment"))
	assert.Equal(t, "UserPost", orderedTables[len(orderedTables)-1], "many-to-many tables come last")
}

func TestGetTableCreationOrderWithCycle(t *testing.T) {
	analyzer := newTestAnalyzer([]*models.Model{
		{Name: "Employee", Properties: []*models.Property{ref("department", "Department", true)}},
		{Name: "Department", Properties: []*models.Property{ref("head", "Employee", false)}},
		{Name: "Badge", Properties: []*models.Property{plain("code")}},
	})
	require.NoError(t, analyzer.AnalyzeSchema())

	orderedTables, circularTables := analyzer.GetTableCreationOrder()
	assert.Equal(t, []string{"Badge", "Department", "Employee"}, orderedTables)
	assert.Len(t, circularTables, 2)
}
