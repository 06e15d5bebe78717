package model

import (
	"bytes"
	"encoding/json"
)

type fieldState uint8

const (
	fieldUnset fieldState = iota
	fieldClear
	fieldSet
)

// Field is an optional update to one stored value. It has three states:
//
//	Unset     leave the stored value alone (JSON: key absent)
//	Clear     remove the stored value      (JSON: null)
//	Set(v)    store v                      (JSON: any other value)
//
// The zero Field is Unset, so a decoded request struct only carries the
// fields the client actually sent. Tag Field members with `json:",omitzero"`
// so Unset fields are also dropped when encoding.
type Field[T any] struct {
	state fieldState
	value T
}

func Unset[T any]() Field[T] { return Field[T]{} }

func Clear[T any]() Field[T] { return Field[T]{state: fieldClear} }

func Set[T any](v T) Field[T] { return Field[T]{state: fieldSet, value: v} }

func (f Field[T]) IsUnset() bool { return f.state == fieldUnset }
func (f Field[T]) IsClear() bool { return f.state == fieldClear }
func (f Field[T]) IsSet() bool   { return f.state == fieldSet }

// IsZero reports whether f is Unset. encoding/json uses it for omitzero.
func (f Field[T]) IsZero() bool { return f.IsUnset() }

// Get returns the value and true when f is Set.
func (f Field[T]) Get() (T, bool) {
	return f.value, f.state == fieldSet
}

// Value returns the value when Set and the zero T otherwise.
func (f Field[T]) Value() T {
	if f.state != fieldSet {
		var zero T
		return zero
	}
	return f.value
}

func (f *Field[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*f = Clear[T]()
		return nil
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = Set(v)
	return nil
}

func (f Field[T]) MarshalJSON() ([]byte, error) {
	if f.state != fieldSet {
		return []byte("null"), nil
	}
	return json.Marshal(f.value)
}
