package utils

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/vitebski/postgresql-schema-generator/internal/analyzer"
	"github.com/vitebski/postgresql-schema-generator/internal/annotator"
	"github.com/vitebski/postgresql-schema-generator/pkg/models"
)

// EnvLogLevel selects the log level when none is given on the command line
const EnvLogLevel = "PGSCHEMA_LOG_LEVEL"

// SetupLogging configures the logging system
func SetupLogging(logLevel string) *logrus.Logger {
	// Create a new logger
	logger := logrus.New()

	// Get log level from environment variable or parameter
	levelStr := logLevel
	if levelStr == "" {
		levelStr = os.Getenv(EnvLogLevel)
		if levelStr == "" {
			levelStr = "info"
		}
	}

	// Parse log level
	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		level = logrus.InfoLevel
	}

	// Configure logger. Stdout is reserved for the generated schema.
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	logger.SetOutput(os.Stderr)

	logger.Debugf("Logging configured with level: %s", level)
	return logger
}

// LoadEnvironmentVariables loads environment variables from .env file.
// It reports whether a file was loaded.
func LoadEnvironmentVariables(envFile string, logger *logrus.Logger) bool {
	// Check if a sample .env file exists but not the actual .env file
	if _, err := os.Stat(envFile); os.IsNotExist(err) {
		sampleEnvFile := envFile + ".sample"
		if _, err := os.Stat(sampleEnvFile); err == nil {
			logger.Infof("No %s file found, but %s exists. Consider copying %s to %s and updating it.",
				envFile, sampleEnvFile, sampleEnvFile, envFile)
		}
		logger.Debugf("No %s file found, using existing environment variables", envFile)
		return false
	}

	if err := godotenv.Load(envFile); err != nil {
		logger.Warningf("Error loading %s file: %v", envFile, err)
		return false
	}
	logger.Infof("Loaded environment variables from %s", envFile)

	if logger.Level == logrus.DebugLevel {
		for _, env := range os.Environ() {
			if strings.HasPrefix(env, "PGSCHEMA_") {
				logger.Debugf("%s", env)
			}
		}
	}

	return true
}

// GetEnvInt gets an integer value from environment variable
func GetEnvInt(varName string, defaultValue int) int {
	value := os.Getenv(varName)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intValue
}

// PrintSummary prints a summary of the annotation run
func PrintSummary(w io.Writer, result *annotator.Result) {
	var properties int
	for _, model := range result.Models {
		properties += len(model.Properties)
	}

	fmt.Fprintln(w, "\n"+strings.Repeat("=", 50))
	fmt.Fprintln(w, "SCHEMA GENERATION SUMMARY")
	fmt.Fprintln(w, strings.Repeat("=", 50))
	if result.DatabaseName != "" {
		fmt.Fprintf(w, "Database name: %s\n", result.DatabaseName)
	}
	fmt.Fprintf(w, "Models processed: %d\n", len(result.Models))
	fmt.Fprintf(w, "Properties processed: %d\n", properties)
	fmt.Fprintf(w, "Tables generated: %d\n", len(result.Tables))
	fmt.Fprintf(w, "Enum types generated: %d\n", len(result.Enums))
	fmt.Fprintf(w, "Enum type names in use: %d\n", len(result.EnumTypeNames))
	fmt.Fprintf(w, "Skipped because of %s: %d\n", models.ExtensionKey, result.Skipped)
	fmt.Fprintf(w, "Failures: %d\n", len(result.Failures))

	if len(result.Failures) > 0 {
		fmt.Fprintln(w, "\nFailures:")
		for _, failure := range result.Failures {
			fmt.Fprintf(w, "  - %s\n", failure)
		}
	}

	fmt.Fprintln(w, strings.Repeat("=", 50))
}

// PrintSchemaAnalysis prints a detailed analysis of the model references
func PrintSchemaAnalysis(w io.Writer, schemaAnalyzer *analyzer.SchemaAnalyzer) {
	tables := schemaAnalyzer.Tables
	references := schemaAnalyzer.References
	manyToManyTables := schemaAnalyzer.ManyToManyTables

	// Get table order and circular dependencies
	orderedTables, circularTables := schemaAnalyzer.GetTableCreationOrder()

	fmt.Fprintln(w, "\n"+strings.Repeat("=", 80))
	fmt.Fprintln(w, "SCHEMA ANALYSIS REPORT")
	fmt.Fprintln(w, strings.Repeat("=", 80))

	// Basic statistics
	fmt.Fprintln(w, "\n1. BASIC STATISTICS")
	fmt.Fprintf(w, "   Total models: %d\n", len(tables))
	fmt.Fprintf(w, "   Models with references: %d\n", len(references))
	fmt.Fprintf(w, "   Many-to-many link models: %d\n", len(manyToManyTables))
	fmt.Fprintf(w, "   Models in circular references: %d\n", len(circularTables))

	// Table categories
	var standaloneTables []string
	var dependentTables []string

	for _, table := range tables {
		if _, hasRefs := references[table]; !hasRefs && !circularTables[table] {
			standaloneTables = append(standaloneTables, table)
		} else if !circularTables[table] && !manyToManyTables[table] {
			dependentTables = append(dependentTables, table)
		}
	}

	fmt.Fprintln(w, "\n2. MODEL CATEGORIES")
	fmt.Fprintf(w, "   Standalone models (no references): %d\n", len(standaloneTables))
	fmt.Fprintf(w, "   Dependent models (with references, no cycles): %d\n", len(dependentTables))

	// Circular dependencies
	if len(circularTables) > 0 {
		fmt.Fprintln(w, "\n3. CIRCULAR REFERENCES")
		fmt.Fprintf(w, "   Models involved: %s\n", strings.Join(sortedKeys(circularTables), ", "))

		if len(schemaAnalyzer.DirectCircularDeps) > 0 {
			fmt.Fprintln(w, "\n   Direct circular references:")
			for _, dep := range schemaAnalyzer.DirectCircularDeps {
				if len(dep) >= 2 {
					fmt.Fprintf(w, "     %s <-> %s\n", dep[0], dep[1])
				}
			}
		}
	}

	// Many-to-many tables
	if len(manyToManyTables) > 0 {
		fmt.Fprintln(w, "\n4. MANY-TO-MANY LINK MODELS")
		fmt.Fprintf(w, "   Models: %s\n", strings.Join(sortedKeys(manyToManyTables), ", "))
	}

	// Table creation order
	fmt.Fprintln(w, "\n5. TABLE CREATION ORDER")
	for i, table := range orderedTables {
		category := "Standalone"
		if manyToManyTables[table] {
			category = "Many-to-Many"
		} else if circularTables[table] {
			category = "Circular"
		} else if _, hasRefs := references[table]; hasRefs {
			category = "Dependent"
		}
		fmt.Fprintf(w, "   %3d. %s (%s)\n", i+1, table, category)
	}

	fmt.Fprintln(w, "\n"+strings.Repeat("=", 80))
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
