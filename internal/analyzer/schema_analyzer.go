package analyzer

import (
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/vitebski/postgresql-schema-generator/pkg/models"
	"github.com/yourbasic/graph"
)

// SchemaAnalyzer analyzes model references, detects cycles, and sorts tables for creation
type SchemaAnalyzer struct {
	Models             []*models.Model
	Tables             []string
	References         map[string][]models.Reference
	ManyToManyTables   map[string]bool
	DependencyGraph    *graph.Mutable
	TableIndexMap      map[string]int
	IndexTableMap      map[int]string
	DirectCircularDeps [][]string
	Logger             *logrus.Logger
}

// NewSchemaAnalyzer creates a new schema analyzer
func NewSchemaAnalyzer(input []*models.Model, logger *logrus.Logger) *SchemaAnalyzer {
	return &SchemaAnalyzer{
		Models:           input,
		References:       make(map[string][]models.Reference),
		ManyToManyTables: make(map[string]bool),
		TableIndexMap:    make(map[string]int),
		IndexTableMap:    make(map[int]string),
		Logger:           logger,
	}
}

// AnalyzeSchema builds the reference graph of the models
func (sa *SchemaAnalyzer) AnalyzeSchema() error {
	sa.Tables = nil
	for i, model := range sa.Models {
		sa.Tables = append(sa.Tables, model.Name)
		sa.TableIndexMap[model.Name] = i
		sa.IndexTableMap[i] = model.Name
	}

	sa.DependencyGraph = graph.New(len(sa.Tables))

	for _, model := range sa.Models {
		for _, property := range model.Properties {
			if property.Ref == "" {
				continue
			}

			ref := models.Reference{
				Model:           model.Name,
				Property:        property.BaseName,
				ReferencedModel: property.Ref,
				IsNullable:      !property.Required,
			}

			destIdx, ok := sa.TableIndexMap[property.Ref]
			if !ok {
				sa.Logger.Warningf("Property '%s' of model '%s' references unknown model '%s'", property.BaseName, model.Name, property.Ref)
				continue
			}
			sa.References[model.Name] = append(sa.References[model.Name], ref)

			// Use weight=1 for required references
			// Use weight=2 for optional references
			weight := int64(2)
			if !ref.IsNullable {
				weight = int64(1)
			}
			sa.DependencyGraph.AddCost(sa.TableIndexMap[model.Name], destIdx, weight)
		}
	}

	sa.detectManyToManyTables()

	sa.Logger.Infof("Analyzed %d models with %d referencing models", len(sa.Tables), len(sa.References))
	return nil
}

// detectManyToManyTables detects models that only link other models together
func (sa *SchemaAnalyzer) detectManyToManyTables() {
	for _, model := range sa.Models {
		refs, hasRefs := sa.References[model.Name]
		if !hasRefs || len(model.Properties) == 0 {
			continue
		}

		// A link model has at least 2 references, to at least 2 different models,
		// and references make up at least half of its properties
		if len(refs) < 2 || float64(len(refs))/float64(len(model.Properties)) < 0.5 {
			continue
		}

		referenced := make(map[string]bool)
		for _, ref := range refs {
			referenced[ref.ReferencedModel] = true
		}
		if len(referenced) >= 2 {
			sa.ManyToManyTables[model.Name] = true
		}
	}
}

// GetCircularTables returns models involved in reference cycles
func (sa *SchemaAnalyzer) GetCircularTables() map[string]bool {
	circularTables := make(map[string]bool)
	sa.DirectCircularDeps = [][]string{}

	if sa.DependencyGraph == nil {
		return circularTables
	}

	for _, component := range graph.StrongComponents(sa.DependencyGraph) {
		if len(component) < 2 {
			continue
		}
		for _, v := range component {
			circularTables[sa.IndexTableMap[v]] = true
		}
	}

	// Record direct circular dependencies once per pair
	for i := 0; i < len(sa.Tables); i++ {
		for j := i + 1; j < len(sa.Tables); j++ {
			if sa.DependencyGraph.Edge(i, j) && sa.DependencyGraph.Edge(j, i) {
				sa.DirectCircularDeps = append(sa.DirectCircularDeps, []string{sa.IndexTableMap[i], sa.IndexTableMap[j]})
			}
		}
	}

	return circularTables
}

// GetTableCreationOrder determines the order in which tables should be created.
// Referenced models come first, link models and models in cycles come last.
func (sa *SchemaAnalyzer) GetTableCreationOrder() ([]string, map[string]bool) {
	circularTables := sa.GetCircularTables()

	n := len(sa.Tables)
	creation := graph.New(n)
	if sa.DependencyGraph != nil {
		for v := 0; v < n; v++ {
			sa.DependencyGraph.Visit(v, func(w int, _ int64) (skip bool) {
				// Skip self-references and cycles
				if v == w || circularTables[sa.IndexTableMap[v]] || circularTables[sa.IndexTableMap[w]] {
					return
				}
				creation.Add(w, v)
				return
			})
		}
	}

	var orderedTables []string
	order, ok := graph.TopSort(creation)
	if !ok {
		sa.Logger.Warningf("Unexpected cycle while sorting tables, using declaration order")
		order = make([]int, n)
		for i := range order {
			order[i] = i
		}
	}
	for _, v := range order {
		table := sa.IndexTableMap[v]
		if !circularTables[table] {
			orderedTables = append(orderedTables, table)
		}
	}

	var circularTablesList []string
	for table := range circularTables {
		circularTablesList = append(circularTablesList, table)
	}
	sort.Strings(circularTablesList)
	orderedTables = append(orderedTables, circularTablesList...)

	// Move many-to-many tables to the end
	var finalOrderedTables []string
	var manyToManyTablesList []string
	for _, table := range orderedTables {
		if sa.ManyToManyTables[table] {
			manyToManyTablesList = append(manyToManyTablesList, table)
		} else {
			finalOrderedTables = append(finalOrderedTables, table)
		}
	}
	finalOrderedTables = append(finalOrderedTables, manyToManyTablesList...)

	return finalOrderedTables, circularTables
}
