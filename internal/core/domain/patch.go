package domain

import (
	"fmt"

	"github.com/oapi-codegen/nullable"
)

// Patcher is a partial update. Fields renders only the supplied attributes,
// keyed by their wire names.
type Patcher interface {
	Fields() (map[string]any, error)
}

// Fields is a raw, already-validated patch.
type Fields map[string]any

func (f Fields) Fields() (map[string]any, error) { return f, nil }

type fieldSet map[string]any

// text copies a free-text field; an explicit null clears it.
func (f fieldSet) text(key string, v nullable.Nullable[string]) {
	if !v.IsSpecified() {
		return
	}
	if v.IsNull() {
		f[key] = ""
		return
	}
	f[key] = v.MustGet()
}

func enumField[E ~string](f fieldSet, key string, v nullable.Nullable[E], valid func(E) bool) error {
	if !v.IsSpecified() {
		return nil
	}
	if v.IsNull() {
		return fmt.Errorf("%w: %s cannot be null", ErrInvalidInput, key)
	}
	e := v.MustGet()
	if !valid(e) {
		return fmt.Errorf("%w: %s has invalid value %q", ErrInvalidInput, key, e)
	}
	f[key] = string(e)
	return nil
}
