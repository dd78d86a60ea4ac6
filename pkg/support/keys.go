package support

import "strings"

// KeyHolder receives the keys a database generated for an insert. It is
// owned by the caller; the connection only writes to it.
type KeyHolder interface {
	AddKey(column string, value any)
}

// KeyHolderFunc adapts a function to KeyHolder.
type KeyHolderFunc func(column string, value any)

// AddKey implements KeyHolder.
func (f KeyHolderFunc) AddKey(column string, value any) { f(column, value) }

// Key is one generated column value.
type Key struct {
	Column string
	Value  any
}

// Keys is a KeyHolder that records keys in arrival order.
type Keys struct {
	keys []Key
}

// AddKey implements KeyHolder.
func (k *Keys) AddKey(column string, value any) {
	k.keys = append(k.keys, Key{Column: column, Value: value})
}

// Len returns the number of keys received.
func (k *Keys) Len() int { return len(k.keys) }

// All returns the received keys in arrival order.
func (k *Keys) All() []Key {
	out := make([]Key, len(k.keys))
	copy(out, k.keys)
	return out
}

// Get returns the first value received for column, matched case-insensitively.
func (k *Keys) Get(column string) (any, bool) {
	for _, key := range k.keys {
		if strings.EqualFold(key.Column, column) {
			return key.Value, true
		}
	}
	return nil, false
}

// Int64 returns the first value for column as an int64, if it is integral.
func (k *Keys) Int64(column string) (int64, bool) {
	v, ok := k.Get(column)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int64:
		return n, true
	case int32:
		return int64(n), true
	case int:
		return int64(n), true
	}
	return 0, false
}
