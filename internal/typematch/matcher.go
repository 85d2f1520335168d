package typematch

import (
	"math"

	"github.com/sirupsen/logrus"
	"golang.org/x/exp/constraints"
)

// IntegerType is one of the PostgreSQL integer column types
type IntegerType string

const (
	SmallInt IntegerType = "SMALLINT"
	Int      IntegerType = "INT"
	BigInt   IntegerType = "BIGINT"
)

// StringType is one of the PostgreSQL character column types
type StringType string

const (
	Char    StringType = "CHAR"
	Varchar StringType = "VARCHAR"
	Text    StringType = "TEXT"
)

const (
	defaultMinLength = 0
	defaultMaxLength = 65535
	maxSizedLength   = 255
)

// Matcher picks the narrowest column type for a numeric or string domain
type Matcher struct {
	Logger *logrus.Logger
}

// NewMatcher creates a new type matcher
func NewMatcher(logger *logrus.Logger) *Matcher {
	return &Matcher{Logger: logger}
}

// ordered returns the bounds in ascending order
func ordered[T constraints.Ordered](min, max T) (T, T) {
	if min > max {
		return max, min
	}
	return min, max
}

// MatchIntegerType finds the best fitting integer type for the optional bounds.
// Swapped bounds are tolerated. unsigned is accepted for callers that track it, it does not change the result.
func (m *Matcher) MatchIntegerType(minimum, maximum *int64, unsigned *bool) IntegerType {
	min := int64(math.MinInt32)
	if minimum != nil {
		min = *minimum
	}
	max := int64(math.MaxInt32)
	if maximum != nil {
		max = *maximum
	}
	if minimum != nil && maximum != nil && *minimum > *maximum {
		m.Logger.Warningf("Property 'minimum' (%d) cannot be greater than 'maximum' (%d)", *minimum, *maximum)
	}

	actualMin, actualMax := ordered(min, max)
	switch {
	case actualMin >= math.MinInt16 && actualMax <= math.MaxInt16:
		return SmallInt
	case actualMin >= math.MinInt32 && actualMax <= math.MaxInt32:
		return Int
	case actualMin < math.MinInt32 || actualMax > math.MaxInt32:
		return BigInt
	}
	return Int
}

// MatchStringType finds the best fitting character type for the optional length bounds.
// Negative lengths are treated as absent.
func (m *Matcher) MatchStringType(minLength, maxLength *int) StringType {
	min := defaultMinLength
	if minLength != nil && *minLength >= 0 {
		min = *minLength
	}
	max := defaultMaxLength
	if maxLength != nil && *maxLength >= 0 {
		max = *maxLength
	}
	if minLength != nil && maxLength != nil && *minLength > *maxLength {
		m.Logger.Warningf("Property 'minLength' (%d) cannot be greater than 'maxLength' (%d)", *minLength, *maxLength)
	}

	actualMin, actualMax := ordered(min, max)
	switch {
	case actualMin == actualMax && actualMax <= maxSizedLength:
		return Char
	case actualMax <= maxSizedLength:
		return Varchar
	}
	return Text
}
