package annotator

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"github.com/vitebski/postgresql-schema-generator/internal/classifier"
	"github.com/vitebski/postgresql-schema-generator/internal/config"
	"github.com/vitebski/postgresql-schema-generator/internal/enums"
	"github.com/vitebski/postgresql-schema-generator/internal/naming"
	"github.com/vitebski/postgresql-schema-generator/internal/typematch"
	"github.com/vitebski/postgresql-schema-generator/pkg/models"
)

// ErrRunInProgress is returned when Run is called while another run is active
var ErrRunInProgress = errors.New("annotation run already in progress")

// Failure records a model or property that could not be annotated
type Failure struct {
	Model    string
	Property string
	Err      error
}

func (f Failure) String() string {
	if f.Property == "" {
		return fmt.Sprintf("%s: %v", f.Model, f.Err)
	}
	return fmt.Sprintf("%s.%s: %v", f.Model, f.Property, f.Err)
}

// Result is the outcome of one annotation run
type Result struct {
	DatabaseName string
	// Models holds every input model in input order, annotated or overridden
	Models []*models.Model
	// Tables holds the models that carry an effective table definition
	Tables []*models.Model
	Enums  []*models.EnumDefinition
	// EnumTypeNames lists every enum type name in use, user-defined ones first
	EnumTypeNames []string
	Failures      []Failure
	// Skipped counts models and properties left untouched because of an override
	Skipped int
}

// Annotator attaches table, column and enum definitions to loaded models
type Annotator struct {
	Options config.Options
	Logger  *logrus.Logger

	running atomic.Bool
}

// NewAnnotator creates a new annotator
func NewAnnotator(options config.Options, logger *logrus.Logger) *Annotator {
	return &Annotator{
		Options: options,
		Logger:  logger,
	}
}

// Run annotates every model. Each run uses its own enum registry.
// A model or property whose identifier is empty is recorded as a failure and skipped.
func (a *Annotator) Run(input []*models.Model) (*Result, error) {
	if !a.running.CompareAndSwap(false, true) {
		return nil, ErrRunInProgress
	}
	defer a.running.Store(false)

	names := naming.NewNormalizer(a.Logger)
	registry := enums.NewRegistry(a.Logger)
	c := classifier.NewClassifier(names, typematch.NewMatcher(a.Logger), registry, a.Options.JSONDataTypeEnabled, a.Logger)

	options := a.Options
	if err := options.SetDefaultDatabaseName(a.Options.DefaultDatabaseName, names, a.Logger); err != nil {
		return nil, err
	}

	result := &Result{
		DatabaseName: options.DefaultDatabaseName,
		Models:       input,
	}

	schemaName, err := names.TableName(naming.DefaultSchema)
	if err != nil {
		return nil, err
	}

	result.Failures = append(result.Failures, a.reserveOverrideEnums(input, registry)...)

	for _, model := range input {
		if model.HasOverride() {
			a.Logger.Infof("Found %s in '%s' model, autogeneration skipped", models.ExtensionKey, model.Name)
			result.Skipped++
			if model.Override.Table != nil {
				result.Tables = append(result.Tables, model)
			}
			continue
		}

		tableName, err := names.TableName(model.Name)
		if err != nil {
			a.Logger.Errorf("Skipping model '%s': %v", model.Name, err)
			result.Failures = append(result.Failures, Failure{Model: model.Name, Err: err})
			continue
		}
		model.Schema = &models.ModelSchema{Table: &models.TableDefinition{
			Name:    tableName,
			Schema:  schemaName,
			Comment: model.Description,
		}}

		for _, property := range model.Properties {
			if property.HasOverride() {
				result.Skipped++
			}
			if err := c.Classify(model, property); err != nil {
				a.Logger.Errorf("Skipping property '%s' of model '%s': %v", property.BaseName, model.Name, err)
				result.Failures = append(result.Failures, Failure{Model: model.Name, Property: property.BaseName, Err: err})
				continue
			}
			if property.Schema != nil && property.Schema.Enum != nil {
				result.Enums = append(result.Enums, property.Schema.Enum)
			}
		}

		result.Tables = append(result.Tables, model)
	}

	result.EnumTypeNames = registry.Names()
	a.Logger.Infof("Annotated %d tables with %d enum types (%d names in use, %d skipped, %d failures)",
		len(result.Tables), len(result.Enums), registry.Len(), result.Skipped, len(result.Failures))
	return result, nil
}

// reserveOverrideEnums claims the type names of user-defined enums so that no
// generated enum takes one of them with other values
func (a *Annotator) reserveOverrideEnums(input []*models.Model, registry *enums.Registry) []Failure {
	var failures []Failure
	for _, model := range input {
		for _, property := range model.Properties {
			if !property.HasOverride() || property.Override.Enum == nil {
				continue
			}
			def := property.Override.Enum
			if err := registry.Reserve(def.TypeName, enums.Signature(def.Values)); err != nil {
				a.Logger.Errorf("Enum of property '%s' in model '%s': %v", property.BaseName, model.Name, err)
				failures = append(failures, Failure{Model: model.Name, Property: property.BaseName, Err: err})
			}
		}
	}
	return failures
}
