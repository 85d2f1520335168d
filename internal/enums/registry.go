package enums

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"github.com/vitebski/postgresql-schema-generator/pkg/models"
)

// DefaultMaxAttempts bounds the number of names tried for one candidate
const DefaultMaxAttempts = 1000

// MaxNameLength is the number of bytes PostgreSQL keeps of a type name
const MaxNameLength = 63

var (
	// ErrNameSpaceExhausted is returned when no free name is found for a candidate
	ErrNameSpaceExhausted = errors.New("enum type name space exhausted")
	// ErrNameConflict is returned when a fixed name is already bound to other values
	ErrNameConflict = errors.New("enum type name already defined with different values")
)

// Registry keeps the enum type names allocated during one generation run.
// It is not safe for concurrent use.
type Registry struct {
	MaxAttempts int
	MaxLength   int
	Logger      *logrus.Logger

	signatures map[string]string
	names      []string
}

// NewRegistry creates an empty registry
func NewRegistry(logger *logrus.Logger) *Registry {
	return &Registry{
		MaxAttempts: DefaultMaxAttempts,
		MaxLength:   MaxNameLength,
		Logger:      logger,
		signatures:  make(map[string]string),
	}
}

// Reserve binds name to signature as given. Names taken by user-defined enums are
// reserved before generation so that generated enums reuse or rename around them.
func (r *Registry) Reserve(name, signature string) error {
	if r.signatures == nil {
		r.signatures = make(map[string]string)
	}
	existing, used := r.signatures[name]
	if !used {
		r.signatures[name] = signature
		r.names = append(r.names, name)
		return nil
	}
	if existing != signature {
		return fmt.Errorf("%w: %q", ErrNameConflict, name)
	}
	return nil
}

// Register allocates a type name for an enum whose values serialize to signature.
// A taken name with the same signature is reused. A taken name with a different
// signature moves on to candidate_2, candidate_3 and so on. The candidate is
// shortened so that every tried name, suffix included, fits in MaxLength bytes.
func (r *Registry) Register(candidate, signature string) (string, bool, error) {
	if r.signatures == nil {
		r.signatures = make(map[string]string)
	}
	maxAttempts := r.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	maxLength := r.MaxLength
	if maxLength <= 0 {
		maxLength = MaxNameLength
	}

	name := Fit(candidate, "", maxLength)
	for attempt := 1; ; attempt++ {
		existing, used := r.signatures[name]
		if !used {
			r.signatures[name] = signature
			r.names = append(r.names, name)
			return name, false, nil
		}
		if existing == signature {
			r.Logger.Infof("ENUM '%s' has the same values, reusing it", name)
			return name, true, nil
		}

		r.Logger.Warningf("ENUM name '%s' is already used with different values", name)
		if attempt >= maxAttempts {
			return "", false, fmt.Errorf("%w: %q after %d attempts", ErrNameSpaceExhausted, candidate, attempt)
		}
		name = Fit(candidate, "_"+strconv.Itoa(attempt+1), maxLength)
	}
}

// Len returns the number of allocated names
func (r *Registry) Len() int {
	return len(r.names)
}

// Names returns the allocated names in allocation order
func (r *Registry) Names() []string {
	return append([]string(nil), r.names...)
}

// Fit appends suffix to base, cutting base on a rune boundary so that the
// result is at most maxLength bytes long
func Fit(base, suffix string, maxLength int) string {
	limit := maxLength - len(suffix)
	if limit < 0 {
		limit = 0
	}
	if len(base) > limit {
		cut := limit
		for cut > 0 && !utf8.RuneStart(base[cut]) {
			cut--
		}
		base = base[:cut]
	}
	return base + suffix
}

// Signature serializes an ordered value list
func Signature(values []models.DataTypeArgument) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = string(v.Kind) + ":" + strconv.Quote(v.Value)
	}
	return "[" + strings.Join(parts, ",") + "]"
}
