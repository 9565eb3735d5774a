// Copyright 2026 The GridTrace Authors
// SPDX-License-Identifier: Apache-2.0

package dataset

import (
	"fmt"
	"strings"
)

// Type is the declared type of a dataset column.
type Type int

const (
	// Float64 is a 64-bit floating point column.
	Float64 Type = iota
	// Int64 is a 64-bit signed integer column.
	Int64
	// Varchar is a variable-length string column.
	Varchar
	// Boolean is a true/false column.
	Boolean
)

// String returns the lowercase name used in schema listings and CLI flags.
func (t Type) String() string {
	switch t {
	case Float64:
		return "double"
	case Int64:
		return "bigint"
	case Varchar:
		return "varchar"
	case Boolean:
		return "boolean"
	default:
		return fmt.Sprintf("type(%d)", int(t))
	}
}

// ParseType is the inverse of Type.String.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "double", "float64":
		return Float64, nil
	case "bigint", "int64":
		return Int64, nil
	case "varchar", "string":
		return Varchar, nil
	case "boolean", "bool":
		return Boolean, nil
	default:
		return 0, fmt.Errorf("unknown column type %q", s)
	}
}

// Field is one named, typed column.
type Field struct {
	Name string
	Type Type
}

// Schema describes the ordered columns shared by every row of a partition.
type Schema []Field

// ParseSchema parses a comma-separated "name:type" list, e.g.
// "id:bigint,lat:double,long:double,infected:bigint".
func ParseSchema(s string) (Schema, error) {
	if strings.TrimSpace(s) == "" {
		return nil, fmt.Errorf("empty schema declaration")
	}

	parts := strings.Split(s, ",")
	schema := make(Schema, 0, len(parts))
	seen := make(map[string]bool, len(parts))

	for _, part := range parts {
		name, typeName, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("column %q: want name:type", part)
		}

		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("column %q: empty name", part)
		}

		if seen[name] {
			return nil, fmt.Errorf("duplicate column %q", name)
		}

		seen[name] = true

		t, err := ParseType(typeName)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", name, err)
		}

		schema = append(schema, Field{Name: name, Type: t})
	}

	return schema, nil
}

// Index returns the position of the named column, or -1 if absent.
func (s Schema) Index(name string) int {
	for i, f := range s {
		if f.Name == name {
			return i
		}
	}

	return -1
}

// Equal reports whether two schemas declare the same columns in the same
// order with the same types.
func (s Schema) Equal(other Schema) bool {
	if len(s) != len(other) {
		return false
	}

	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}

	return true
}

// Diff describes, column by column, how other deviates from s. Used to make
// schema-mismatch errors actionable.
func (s Schema) Diff(other Schema) string {
	var diffs []string

	if len(s) != len(other) {
		diffs = append(diffs, fmt.Sprintf("column count %d vs %d", len(s), len(other)))
	}

	n := min(len(s), len(other))
	for i := 0; i < n; i++ {
		if s[i] != other[i] {
			diffs = append(diffs, fmt.Sprintf(
				"column %d: %s %s vs %s %s",
				i, s[i].Name, s[i].Type, other[i].Name, other[i].Type,
			))
		}
	}

	return strings.Join(diffs, "; ")
}

// Clone returns a copy that can be extended without aliasing s.
func (s Schema) Clone() Schema {
	out := make(Schema, len(s))
	copy(out, s)

	return out
}

// String renders the schema in the ParseSchema format.
func (s Schema) String() string {
	parts := make([]string, len(s))
	for i, f := range s {
		parts[i] = f.Name + ":" + f.Type.String()
	}

	return strings.Join(parts, ",")
}
