package main

import (
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/vitebski/postgresql-schema-generator/internal/analyzer"
	"github.com/vitebski/postgresql-schema-generator/internal/annotator"
	"github.com/vitebski/postgresql-schema-generator/internal/config"
	"github.com/vitebski/postgresql-schema-generator/internal/generator"
	"github.com/vitebski/postgresql-schema-generator/internal/loader"
	"github.com/vitebski/postgresql-schema-generator/internal/populator"
	"github.com/vitebski/postgresql-schema-generator/internal/render"
	"github.com/vitebski/postgresql-schema-generator/internal/utils"
)

// EnvSamples sets the number of sample rows when --samples is not given
const EnvSamples = "PGSCHEMA_SAMPLES"

func main() {
	var (
		input               string
		output              string
		configFile          string
		databaseName        string
		jsonDataTypeEnabled bool
		envFile             string
		logLevel            string
		analyzeOnly         bool
		samples             int
		seed                int64
	)

	rootCmd := &cobra.Command{
		Use:   "postgresql-schema",
		Short: "A tool to generate a PostgreSQL schema from OpenAPI models",
		Long: `PostgreSQL Schema Generator

A Go tool that turns the models of an OpenAPI document into PostgreSQL
tables, columns and enum types, honoring x-postgresqlSchema overrides,
and optionally emits deterministic sample rows.`,
		Run: func(cmd *cobra.Command, args []string) {
			// Setup logging
			logger := utils.SetupLogging(logLevel)

			// Load environment variables
			utils.LoadEnvironmentVariables(envFile, logger)

			// Resolve options: defaults or file, then environment, then flags
			options := config.Default()
			if configFile != "" {
				var err error
				if options, err = config.LoadFile(configFile); err != nil {
					logger.Errorf("Failed to load options: %v", err)
					os.Exit(1)
				}
			}
			options.ApplyEnv()
			if cmd.Flags().Changed("default-database-name") {
				options.DefaultDatabaseName = databaseName
			}
			if cmd.Flags().Changed("json-data-type-enabled") {
				options.JSONDataTypeEnabled = jsonDataTypeEnabled
			}
			if !cmd.Flags().Changed("samples") {
				samples = utils.GetEnvInt(EnvSamples, samples)
			}

			// Load models
			schemaLoader := loader.NewSchemaLoader(logger)
			loaded, err := schemaLoader.Load(input)
			if err != nil {
				logger.Errorf("Failed to load schemas: %v", err)
				os.Exit(1)
			}

			// Create schema analyzer
			schemaAnalyzer := analyzer.NewSchemaAnalyzer(loaded, logger)
			if err := schemaAnalyzer.AnalyzeSchema(); err != nil {
				logger.Errorf("Failed to analyze schema: %v", err)
				os.Exit(1)
			}

			// If analyze-only mode, exit here
			if analyzeOnly {
				utils.PrintSchemaAnalysis(os.Stdout, schemaAnalyzer)
				logger.Info("Analyze-only mode, exiting without generating the schema")
				return
			}

			// Annotate models
			result, err := annotator.NewAnnotator(options, logger).Run(loaded)
			if err != nil {
				logger.Errorf("Failed to annotate models: %v", err)
				os.Exit(1)
			}

			order, circularTables := schemaAnalyzer.GetTableCreationOrder()
			if len(circularTables) > 0 {
				logger.Infof("%d models reference each other in cycles", len(circularTables))
			}

			var rows map[string][][]string
			if samples > 0 {
				rows = generateSamples(schemaAnalyzer, result, samples, seed, logger)
			}

			if err := write(output, result, order, rows, logger); err != nil {
				logger.Errorf("Failed to write schema: %v", err)
				os.Exit(1)
			}

			// Print summary
			utils.PrintSummary(os.Stderr, result)
		},
	}

	// Define flags
	rootCmd.Flags().StringVarP(&input, "input", "i", "", "Path to the OpenAPI document (YAML or JSON)")
	rootCmd.Flags().StringVarP(&output, "output", "o", "", "Path to the generated SQL file (default: stdout)")
	rootCmd.Flags().StringVarP(&configFile, "config", "c", "", "Path to a YAML options file")
	rootCmd.Flags().StringVarP(&databaseName, "default-database-name", "d", "", "Default database name")
	rootCmd.Flags().BoolVar(&jsonDataTypeEnabled, "json-data-type-enabled", true, "Use JSONB for object and array properties, TEXT otherwise")
	rootCmd.Flags().StringVarP(&envFile, "env-file", "e", ".env", "Path to .env file")
	rootCmd.Flags().StringVarP(&logLevel, "log-level", "l", "", "Log level (debug, info, warn, error)")
	rootCmd.Flags().BoolVarP(&analyzeOnly, "analyze-only", "a", false, "Only analyze the model references without generating the schema")
	rootCmd.Flags().IntVarP(&samples, "samples", "s", 0, "Number of sample rows to generate per table")
	rootCmd.Flags().Int64Var(&seed, "seed", 1, "Seed for sample row generation")
	rootCmd.MarkFlagRequired("input")

	// Execute
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// generateSamples generates rows for every table, keyed by model name
func generateSamples(schemaAnalyzer *analyzer.SchemaAnalyzer, result *annotator.Result, n int, seed int64, logger *logrus.Logger) map[string][][]string {
	enums := slices.Clone(result.Enums)
	for _, model := range result.Tables {
		for _, p := range model.Properties {
			if p.HasOverride() && p.Override.Enum != nil {
				enums = append(enums, p.Override.Enum)
			}
		}
	}

	dataGenerator := generator.NewDataGenerator(enums, logger)
	return populator.NewSamplePopulator(schemaAnalyzer, dataGenerator, n, seed, logger).Populate(result)
}

func write(path string, result *annotator.Result, order []string, rows map[string][][]string, logger *logrus.Logger) error {
	var w io.Writer = os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	if err := render.NewRenderer(logger).Render(w, result, order, rows); err != nil {
		return err
	}
	if path != "" {
		logger.Infof("Schema written to %s", path)
	}
	return nil
}
