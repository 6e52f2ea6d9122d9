package nano

import (
	"encoding/json"
	"net/url"
	"strconv"
)

// Optional holds a value together with a marker recording whether the value
// was set. The zero value is unset. An Optional set to the zero value of T is
// distinct from an unset one, and is encoded.
type Optional[T any] struct {
	value T
	set   bool
}

// Some returns an Optional set to v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, set: true}
}

// Get returns the value, and whether it was set.
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.set
}

// IsSet reports whether the value was set.
func (o Optional[T]) IsSet() bool {
	return o.set
}

// Or returns the value if set, or def otherwise.
func (o Optional[T]) Or(def T) T {
	if o.set {
		return o.value
	}
	return def
}

// param is one row of an options type's parameter table.
type param struct {
	key   string
	value string
	set   bool
}

func optBool(key string, o Optional[bool]) param {
	v, ok := o.Get()
	return param{key: key, value: strconv.FormatBool(v), set: ok}
}

func optInt(key string, o Optional[int64]) param {
	v, ok := o.Get()
	return param{key: key, value: strconv.FormatInt(v, 10), set: ok}
}

func optString[T ~string](key string, o Optional[T]) param {
	v, ok := o.Get()
	return param{key: key, value: string(v), set: ok}
}

// encodeParams builds query values from a parameter table. Unset rows are
// skipped.
func encodeParams(table ...param) url.Values {
	v := url.Values{}
	for _, p := range table {
		if p.set {
			v.Set(p.key, p.value)
		}
	}
	return v
}

// field is one row of a JSON body table.
type field struct {
	key   string
	value interface{}
	set   bool
}

func optField[T any](key string, o Optional[T]) field {
	v, ok := o.Get()
	return field{key: key, value: v, set: ok}
}

// listField is set when the slice is non-nil. An empty, non-nil slice is
// encoded as [].
func listField[T any](key string, v []T) field {
	return field{key: key, value: v, set: v != nil}
}

func anyField(key string, v interface{}) field {
	return field{key: key, value: v, set: v != nil}
}

// encodeFields marshals a JSON body table to an object, skipping unset rows.
func encodeFields(table ...field) ([]byte, error) {
	m := make(map[string]interface{}, len(table))
	for _, f := range table {
		if f.set {
			m[f.key] = f.value
		}
	}
	return json.Marshal(m)
}
