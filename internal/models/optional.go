package models

import (
	"bytes"
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Optional is a patch field for a nullable column. The zero value leaves the
// column alone; a JSON null clears it and any other value replaces it.
type Optional[T any] struct {
	Set   bool
	Null  bool
	Value T
}

func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: v}
}

func Null[T any]() Optional[T] {
	return Optional[T]{Set: true, Null: true}
}

// Ptr returns the new value for the column, nil meaning NULL
func (o Optional[T]) Ptr() *T {
	if o.Null {
		return nil
	}
	v := o.Value
	return &v
}

// UnmarshalJSON is only called for keys present in the document, null
// included, which is what tells a clear apart from an omitted field
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	var zero T
	*o = Optional[T]{Set: true, Value: zero}
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Null = true
		return nil
	}
	return json.Unmarshal(data, &o.Value)
}

// NullDecimalOf converts a set optional decimal to its column value
func NullDecimalOf(o Optional[decimal.Decimal]) decimal.NullDecimal {
	if o.Null {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(o.Value)
}
