package naming

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// IdentifierMaxLength is the longest identifier PostgreSQL accepts without truncation warnings
const IdentifierMaxLength = 64

// Prefixes and suffixes used to wrap digits-only identifiers
const (
	TablePrefix    = "tbl_"
	TableSuffix    = ""
	ColumnPrefix   = "col_"
	ColumnSuffix   = ""
	DatabasePrefix = ""
	DatabaseSuffix = "_db"
)

// DefaultSchema is the schema every generated table lives in
const DefaultSchema = "public"

// ErrEmptyIdentifier is matched by every EmptyIdentifierError
var ErrEmptyIdentifier = errors.New("empty identifier")

// EmptyIdentifierError is returned when nothing is left of a name after escaping
type EmptyIdentifierError struct {
	Name string
}

func (e *EmptyIdentifierError) Error() string {
	return fmt.Sprintf("empty database/table/column name for %q not allowed", e.Name)
}

func (e *EmptyIdentifierError) Is(target error) bool {
	return target == ErrEmptyIdentifier
}

var camelCaseBoundary = regexp.MustCompile(`([^_A-Z])([A-Z])`)

// Normalizer turns arbitrary source names into PostgreSQL identifiers
type Normalizer struct {
	MaxLength int
	Logger    *logrus.Logger
}

// NewNormalizer creates a normalizer with the default identifier length limit
func NewNormalizer(logger *logrus.Logger) *Normalizer {
	return &Normalizer{
		MaxLength: IdentifierMaxLength,
		Logger:    logger,
	}
}

func isQuotedIdentifierRune(r rune) bool {
	return r >= 0x0001 && r <= 0xFFFF
}

func isUnquotedIdentifierRune(r rune) bool {
	switch {
	case r >= '0' && r <= '9', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '$', r == '_':
		return true
	}
	return r >= 0x0080 && r <= 0xFFFF
}

// strip keeps the runes accepted by allowed. Invalid UTF-8 bytes are always dropped.
func strip(s string, allowed func(rune) bool) (string, bool) {
	var b strings.Builder
	changed := false
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		i += size
		if (r == utf8.RuneError && size == 1) || !allowed(r) {
			changed = true
			continue
		}
		b.WriteRune(r)
	}
	return b.String(), changed
}

// EscapeQuotedIdentifier removes characters that cannot appear in a double quoted identifier.
// Allowed ranges are U+0001..U+007F and U+0080..U+FFFF.
func (n *Normalizer) EscapeQuotedIdentifier(identifier string) string {
	escaped, changed := strip(identifier, isQuotedIdentifierRune)
	if changed {
		n.Logger.Warningf("Identifier '%s' contains unsafe characters out of U+0001..U+007F and U+0080..U+FFFF range", identifier)
	}
	return escaped
}

// EscapeUnquotedIdentifier removes characters that cannot appear in a bare identifier.
// Allowed ranges are [0-9a-zA-Z$_] and U+0080..U+FFFF.
func (n *Normalizer) EscapeUnquotedIdentifier(identifier string) string {
	escaped, changed := strip(identifier, isUnquotedIdentifierRune)
	if changed {
		n.Logger.Warningf("Identifier '%s' contains unsafe characters out of [0-9,a-z,A-Z$_] and U+0080..U+FFFF range", identifier)
	}
	return escaped
}

// Normalize converts name into a snake_case identifier meant to be used inside double quotes
func (n *Normalizer) Normalize(name, prefix, suffix string, maxLength int) (string, error) {
	return n.normalize(name, n.EscapeQuotedIdentifier(name), prefix, suffix, maxLength)
}

// NormalizeUnquoted is Normalize for identifiers embedded without quotes
func (n *Normalizer) NormalizeUnquoted(name, prefix, suffix string, maxLength int) (string, error) {
	return n.normalize(name, n.EscapeUnquotedIdentifier(name), prefix, suffix, maxLength)
}

func (n *Normalizer) normalize(name, escaped, prefix, suffix string, maxLength int) (string, error) {
	trimmed := strings.TrimRightFunc(escaped, unicode.IsSpace)
	if trimmed != escaped {
		n.Logger.Warningf("Database, table, and column names cannot end with space characters. Check '%s' name", name)
		escaped = trimmed
	}

	if isDigitsOnly(escaped) {
		n.Logger.Warningf("Database, table, and column names cannot consist solely of digits. Check '%s' name", name)
		escaped = prefix + escaped + suffix
	}

	if escaped == "" {
		return "", &EmptyIdentifierError{Name: name}
	}

	escaped = camelCaseBoundary.ReplaceAllString(escaped, "${1}_${2}")
	escaped = cases.Lower(language.Und).String(escaped)

	if maxLength > 0 && utf8.RuneCountInString(escaped) > maxLength {
		n.Logger.Warningf("Identifier cannot exceed %d chars. Name '%s' will be truncated", maxLength, name)
		escaped = string([]rune(escaped)[:maxLength])
	}

	return escaped, nil
}

func isDigitsOnly(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// TableName converts name to a valid table name, eg. "UserAccount" becomes "user_account"
func (n *Normalizer) TableName(name string) (string, error) {
	return n.identifier(name, TablePrefix, TableSuffix)
}

// ColumnName converts name to a valid column name
func (n *Normalizer) ColumnName(name string) (string, error) {
	return n.identifier(name, ColumnPrefix, ColumnSuffix)
}

// DatabaseName converts name to a valid database name
func (n *Normalizer) DatabaseName(name string) (string, error) {
	return n.identifier(name, DatabasePrefix, DatabaseSuffix)
}

func (n *Normalizer) identifier(name, prefix, suffix string) (string, error) {
	identifier, err := n.Normalize(name, prefix, suffix, n.MaxLength)
	if err != nil {
		return "", err
	}
	if IsReservedWord(identifier) {
		n.Logger.Warningf("'%s' is a PostgreSQL reserved word. Do not use that word or properly escape it with double quotes", identifier)
	}
	return identifier, nil
}

// EscapeQuotationMark removes single quotes so the value can be embedded in a string literal
func EscapeQuotationMark(input string) string {
	return strings.ReplaceAll(input, "'", "")
}

// EscapeUnsafeCharacters breaks comment delimiters apart
func EscapeUnsafeCharacters(input string) string {
	return strings.ReplaceAll(strings.ReplaceAll(input, "*/", "*_/"), "/*", "/_*")
}
