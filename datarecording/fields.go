package datarecording

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/fatih/structs"
)

// ErrInvalidEntry is returned when a sample entry cannot be mapped to
// table columns.
var ErrInvalidEntry = errors.New("entry is invalid")

func isAllowedKind(kind reflect.Kind) bool {
	switch kind {
	case
		reflect.Bool,
		reflect.Int,
		reflect.Int8,
		reflect.Int16,
		reflect.Int32,
		reflect.Int64,
		reflect.Uint,
		reflect.Uint8,
		reflect.Uint16,
		reflect.Uint32,
		reflect.Uint64,
		reflect.Float32,
		reflect.Float64,
		reflect.String:
		return true
	default:
		return false
	}
}

// checkStructFields makes sure every field of the entry becomes a column.
// Unexported fields would be skipped by structs and shift the columns.
func checkStructFields(entry any) error {
	t := reflect.TypeOf(entry)
	if t == nil || t.Kind() != reflect.Struct {
		return fmt.Errorf("%w: %T is not a struct", ErrInvalidEntry, entry)
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if !field.IsExported() || !isAllowedKind(field.Type.Kind()) {
			return fmt.Errorf("%w: field %s of %T",
				ErrInvalidEntry, field.Name, entry)
		}
	}

	return nil
}

// fieldNames returns the column names of a struct entry.
func fieldNames(entry any) ([]string, error) {
	if err := checkStructFields(entry); err != nil {
		return nil, err
	}

	return structs.Names(entry), nil
}

func fieldValues(entry any) []any {
	return structs.Values(entry)
}
