package populator

import (
	"github.com/sirupsen/logrus"
	"github.com/vitebski/postgresql-schema-generator/internal/analyzer"
	"github.com/vitebski/postgresql-schema-generator/internal/annotator"
	"github.com/vitebski/postgresql-schema-generator/internal/generator"
	"github.com/vitebski/postgresql-schema-generator/pkg/models"
)

// SamplePopulator generates sample rows for every annotated table in creation order
type SamplePopulator struct {
	SchemaAnalyzer *analyzer.SchemaAnalyzer
	DataGenerator  *generator.DataGenerator
	NumRecords     int
	Seed           int64
	RowCounts      map[string]int
	Logger         *logrus.Logger
}

// NewSamplePopulator creates a new sample populator
func NewSamplePopulator(
	schemaAnalyzer *analyzer.SchemaAnalyzer,
	dataGenerator *generator.DataGenerator,
	numRecords int,
	seed int64,
	logger *logrus.Logger,
) *SamplePopulator {
	return &SamplePopulator{
		SchemaAnalyzer: schemaAnalyzer,
		DataGenerator:  dataGenerator,
		NumRecords:     numRecords,
		Seed:           seed,
		RowCounts:      make(map[string]int),
		Logger:         logger,
	}
}

// Populate returns sample rows keyed by model name.
// Tables are visited in creation order so that link tables are sized after the tables they join.
func (sp *SamplePopulator) Populate(result *annotator.Result) map[string][][]string {
	byName := make(map[string]*models.Model, len(result.Tables))
	for _, model := range result.Tables {
		byName[model.Name] = model
	}

	orderedTables, _ := sp.SchemaAnalyzer.GetTableCreationOrder()
	samples := make(map[string][][]string, len(byName))

	for _, table := range orderedTables {
		model, ok := byName[table]
		if !ok {
			continue
		}
		sp.populateTable(model, samples)
	}

	// Tables the analyzer did not see keep their place at the end
	for _, model := range result.Tables {
		if _, done := samples[model.Name]; !done {
			sp.populateTable(model, samples)
		}
	}

	return samples
}

func (sp *SamplePopulator) populateTable(model *models.Model, samples map[string][][]string) {
	if len(model.Columns()) == 0 {
		sp.Logger.Warningf("No columns found for table: %s", model.Name)
		samples[model.Name] = nil
		return
	}

	// Determine how many records to generate
	numRecords := sp.NumRecords
	if sp.SchemaAnalyzer.ManyToManyTables[model.Name] {
		numRecords = sp.calculateManyToManyRecords(sp.SchemaAnalyzer.References[model.Name])
	}

	rows := sp.DataGenerator.GenerateRows(model, numRecords, sp.Seed)
	samples[model.Name] = rows
	sp.RowCounts[model.Name] = len(rows)

	sp.Logger.Infof("Generated %d sample records for table %s", len(rows), model.Name)
}

// calculateManyToManyRecords calculates how many records to generate for a link table
func (sp *SamplePopulator) calculateManyToManyRecords(references []models.Reference) int {
	// Get unique referenced tables
	referencedTables := make(map[string]bool)
	for _, ref := range references {
		referencedTables[ref.ReferencedModel] = true
	}

	// Calculate based on the number of records in referenced tables
	totalPossibleCombinations := 1
	for refTable := range referencedTables {
		count := sp.RowCounts[refTable]
		if count == 0 {
			return 0
		}
		totalPossibleCombinations *= count
		if totalPossibleCombinations > 2*sp.NumRecords {
			break
		}
	}

	// Use the smaller of: total possible combinations or 2*NumRecords
	if totalPossibleCombinations > 2*sp.NumRecords {
		return 2 * sp.NumRecords
	}
	return totalPossibleCombinations
}
