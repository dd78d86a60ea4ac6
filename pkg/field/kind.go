package field

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DataKind is the semantic kind of a column. The kind decides how a domain
// value is bound as a parameter and which typed accessor reads it back.
type DataKind int

// Supported data kinds.
const (
	KindUnknown DataKind = iota
	KindBoolean
	KindInteger
	KindLong
	KindDouble
	KindString
	KindBytes
	KindDate
	KindUUID
)

// ErrKindMismatch is wrapped by every conversion failure between a domain
// value and the kind a descriptor declares.
var ErrKindMismatch = errors.New("value does not match data kind")

var kindNames = [...]string{
	KindUnknown: "unknown",
	KindBoolean: "boolean",
	KindInteger: "integer",
	KindLong:    "long",
	KindDouble:  "double",
	KindString:  "string",
	KindBytes:   "bytes",
	KindDate:    "date",
	KindUUID:    "uuid",
}

// kindAliases maps common SQL and Go spellings onto kinds.
var kindAliases = map[string]DataKind{
	"bool":      KindBoolean,
	"int":       KindInteger,
	"int32":     KindInteger,
	"int64":     KindLong,
	"bigint":    KindLong,
	"float":     KindDouble,
	"float64":   KindDouble,
	"text":      KindString,
	"varchar":   KindString,
	"blob":      KindBytes,
	"bytea":     KindBytes,
	"time":      KindDate,
	"timestamp": KindDate,
}

// String returns the lower-case kind name.
func (k DataKind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("DataKind(%d)", int(k))
	}
	return kindNames[k]
}

// IsInteger reports whether the kind holds whole numbers.
func (k DataKind) IsInteger() bool {
	return k == KindInteger || k == KindLong
}

// ParseKind resolves a kind from its name or a common alias, ignoring case.
func ParseKind(name string) (DataKind, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for k, kn := range kindNames {
		if kn == n && DataKind(k) != KindUnknown {
			return DataKind(k), nil
		}
	}
	if k, ok := kindAliases[n]; ok {
		return k, nil
	}
	return KindUnknown, fmt.Errorf("unknown data kind %q", name)
}

// null returns the typed null bound for a nil domain value of this kind.
func (k DataKind) null() any {
	switch k {
	case KindBoolean:
		return sql.NullBool{}
	case KindInteger:
		return sql.NullInt32{}
	case KindLong:
		return sql.NullInt64{}
	case KindDouble:
		return sql.NullFloat64{}
	case KindString:
		return sql.NullString{}
	case KindBytes:
		return sql.Null[[]byte]{}
	case KindDate:
		return sql.NullTime{}
	case KindUUID:
		return uuid.NullUUID{}
	default:
		return nil
	}
}

// native converts a non-nil domain value into the driver-native form of
// the kind.
func (k DataKind) native(v any) (any, error) {
	switch k {
	case KindBoolean:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case KindInteger:
		if n, ok := toInt64(v); ok {
			if n < math.MinInt32 || n > math.MaxInt32 {
				return nil, fmt.Errorf("%w: %d overflows %s", ErrKindMismatch, n, k)
			}
			return int32(n), nil
		}
	case KindLong:
		if n, ok := toInt64(v); ok {
			return n, nil
		}
	case KindDouble:
		switch f := v.(type) {
		case float32:
			return float64(f), nil
		case float64:
			return f, nil
		}
	case KindString:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case KindBytes:
		if b, ok := v.([]byte); ok {
			return b, nil
		}
	case KindDate:
		if t, ok := v.(time.Time); ok {
			return t, nil
		}
	case KindUUID:
		switch u := v.(type) {
		case uuid.UUID:
			return u, nil
		case [16]byte:
			return uuid.UUID(u), nil
		case string:
			parsed, err := uuid.Parse(u)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", ErrKindMismatch, err)
			}
			return parsed, nil
		}
	}
	return nil, fmt.Errorf("%w: cannot use %T as %s", ErrKindMismatch, v, k)
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint:
		if uint64(n) > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	}
	return 0, false
}

// dest allocates the typed scan destination for the kind.
func (k DataKind) dest() any {
	switch k {
	case KindBoolean:
		return new(sql.NullBool)
	case KindInteger:
		return new(sql.NullInt32)
	case KindLong:
		return new(sql.NullInt64)
	case KindDouble:
		return new(sql.NullFloat64)
	case KindString:
		return new(sql.NullString)
	case KindBytes:
		return new(sql.Null[[]byte])
	case KindDate:
		return new(sql.NullTime)
	case KindUUID:
		return new(uuid.NullUUID)
	default:
		return new(any)
	}
}

// read extracts the value from a destination allocated by dest. NULL reads
// as nil.
func (k DataKind) read(dest any) (any, error) {
	switch k {
	case KindBoolean:
		d, ok := dest.(*sql.NullBool)
		if !ok {
			return nil, destError(dest, k)
		}
		if !d.Valid {
			return nil, nil
		}
		return d.Bool, nil
	case KindInteger:
		d, ok := dest.(*sql.NullInt32)
		if !ok {
			return nil, destError(dest, k)
		}
		if !d.Valid {
			return nil, nil
		}
		return d.Int32, nil
	case KindLong:
		d, ok := dest.(*sql.NullInt64)
		if !ok {
			return nil, destError(dest, k)
		}
		if !d.Valid {
			return nil, nil
		}
		return d.Int64, nil
	case KindDouble:
		d, ok := dest.(*sql.NullFloat64)
		if !ok {
			return nil, destError(dest, k)
		}
		if !d.Valid {
			return nil, nil
		}
		return d.Float64, nil
	case KindString:
		d, ok := dest.(*sql.NullString)
		if !ok {
			return nil, destError(dest, k)
		}
		if !d.Valid {
			return nil, nil
		}
		return d.String, nil
	case KindBytes:
		d, ok := dest.(*sql.Null[[]byte])
		if !ok {
			return nil, destError(dest, k)
		}
		if !d.Valid {
			return nil, nil
		}
		return d.V, nil
	case KindDate:
		d, ok := dest.(*sql.NullTime)
		if !ok {
			return nil, destError(dest, k)
		}
		if !d.Valid {
			return nil, nil
		}
		return d.Time, nil
	case KindUUID:
		d, ok := dest.(*uuid.NullUUID)
		if !ok {
			return nil, destError(dest, k)
		}
		if !d.Valid {
			return nil, nil
		}
		return d.UUID, nil
	default:
		d, ok := dest.(*any)
		if !ok {
			return nil, destError(dest, k)
		}
		return *d, nil
	}
}

func destError(dest any, k DataKind) error {
	return fmt.Errorf("destination %T does not belong to %s", dest, k)
}
