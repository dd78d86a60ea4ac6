package field

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Converter translates between a domain representation and the native form
// of a descriptor's kind. ToDriver must return a value the kind accepts;
// FromDriver receives the kind's native value and never sees NULL.
type Converter interface {
	ToDriver(v any) (any, error)
	FromDriver(v any) (any, error)
}

// ConverterFuncs adapts a pair of functions to Converter. A nil function is
// the identity.
type ConverterFuncs struct {
	To   func(any) (any, error)
	From func(any) (any, error)
}

// ToDriver implements Converter.
func (c ConverterFuncs) ToDriver(v any) (any, error) {
	if c.To == nil {
		return v, nil
	}
	return c.To(v)
}

// FromDriver implements Converter.
func (c ConverterFuncs) FromDriver(v any) (any, error) {
	if c.From == nil {
		return v, nil
	}
	return c.From(v)
}

// EnumString stores a string-backed enum in a KindString column.
func EnumString[E ~string]() Converter {
	return ConverterFuncs{
		To: func(v any) (any, error) {
			switch e := v.(type) {
			case E:
				return string(e), nil
			case string:
				return e, nil
			}
			return nil, fmt.Errorf("%w: cannot use %T as enum", ErrKindMismatch, v)
		},
		From: func(v any) (any, error) {
			s, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("%w: enum column holds %T", ErrKindMismatch, v)
			}
			return E(s), nil
		},
	}
}

// dateLayouts are tried in order by ParseValue for KindDate.
var dateLayouts = []string{time.RFC3339Nano, "2006-01-02 15:04:05", time.DateOnly}

// ParseValue parses the textual form of a value of the given kind, as typed
// on a command line.
func ParseValue(kind DataKind, s string) (any, error) {
	switch kind {
	case KindBoolean:
		return strconv.ParseBool(s)
	case KindInteger:
		n, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			return nil, err
		}
		return int32(n), nil
	case KindLong:
		return strconv.ParseInt(s, 10, 64)
	case KindDouble:
		return strconv.ParseFloat(s, 64)
	case KindString:
		return s, nil
	case KindBytes:
		return []byte(s), nil
	case KindDate:
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, nil
			}
		}
		return nil, fmt.Errorf("cannot parse %q as date (want one of %s)", s, strings.Join(dateLayouts, ", "))
	case KindUUID:
		return uuid.Parse(s)
	default:
		return nil, fmt.Errorf("cannot parse values of kind %s", kind)
	}
}
