package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/vitebski/postgresql-schema-generator/internal/naming"
	"gopkg.in/yaml.v3"
)

// Environment variables recognized by Options.ApplyEnv
const (
	EnvDefaultDatabaseName = "PGSCHEMA_DEFAULT_DATABASE_NAME"
	EnvJSONDataTypeEnabled = "PGSCHEMA_JSON_DATA_TYPE_ENABLED"
)

// Options are the generation options
type Options struct {
	// DefaultDatabaseName is escaped before use, empty means no database name
	DefaultDatabaseName string `yaml:"defaultDatabaseName"`
	// JSONDataTypeEnabled renders JSON capable columns as TEXT when false
	JSONDataTypeEnabled bool `yaml:"jsonDataTypeEnabled"`
}

// Default returns the default options
func Default() Options {
	return Options{
		DefaultDatabaseName: "",
		JSONDataTypeEnabled: true,
	}
}

// LoadFile reads options from a YAML file on top of the defaults
func LoadFile(path string) (Options, error) {
	o := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return o, err
	}
	if err := yaml.Unmarshal(b, &o); err != nil {
		return o, fmt.Errorf("parse %s: %w", path, err)
	}
	return o, nil
}

// ApplyEnv overrides options with the values found in the environment
func (o *Options) ApplyEnv() {
	o.DefaultDatabaseName = getenv(EnvDefaultDatabaseName, o.DefaultDatabaseName)
	o.JSONDataTypeEnabled = getenvBool(EnvJSONDataTypeEnabled, o.JSONDataTypeEnabled)
}

// SetDefaultDatabaseName stores name escaped as a database identifier. An empty name is ignored.
func (o *Options) SetDefaultDatabaseName(name string, names *naming.Normalizer, logger *logrus.Logger) error {
	if name == "" {
		return nil
	}
	escaped, err := names.DatabaseName(name)
	if err != nil {
		return fmt.Errorf("default database name: %w", err)
	}
	if escaped != name {
		logger.Errorf("Invalid database name. '%s' cannot be used as PostgreSQL identifier. Escaped value '%s' will be used instead.", name, escaped)
	}
	o.DefaultDatabaseName = escaped
	return nil
}

func getenv(k, fallback string) string {
	if v, ok := os.LookupEnv(k); ok && strings.TrimSpace(v) != "" {
		return v
	}
	return fallback
}

func getenvBool(k string, fallback bool) bool {
	if v, ok := os.LookupEnv(k); ok {
		v = strings.TrimSpace(strings.ToLower(v))
		if v == "1" || v == "true" || v == "yes" {
			return true
		}
		if v == "0" || v == "false" || v == "no" {
			return false
		}
	}
	return fallback
}
