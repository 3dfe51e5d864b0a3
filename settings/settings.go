// Package settings provides the string-typed key/value store shared by the
// document parser and its pluggable engines.
//
// Every component owns its own Settings built from a Schema. The schema fixes
// the vocabulary of keys and the kind of value each key accepts, so Configure
// rejects unknown keys and unparseable values immediately instead of failing
// later at render time.
package settings

import (
	"errors"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// Sentinel errors for settings operations.
var (
	// ErrUnknownKey indicates the key is not part of the component's schema.
	ErrUnknownKey = errors.New("no such configuration key")

	// ErrInvalidValue indicates a recognized key received a value of the wrong kind.
	ErrInvalidValue = errors.New("invalid configuration value")

	// ErrTypeConversion indicates a stored value could not be read as the requested type.
	ErrTypeConversion = fmt.Errorf("%w: type conversion failed", ErrInvalidValue)
)

// Kind describes the values a key accepts.
type Kind struct {
	name   string
	values []string
}

// Value kinds.
var (
	Bool   = Kind{name: "bool"}
	Int    = Kind{name: "int"}
	String = Kind{name: "string"}
	Color  = Kind{name: "color"}
)

// OneOf returns a kind accepting exactly the given values.
func OneOf(values ...string) Kind {
	return Kind{name: "enum", values: values}
}

// colorPattern accepts #rgb, #rrggbb and CSS color keywords.
var colorPattern = regexp.MustCompile(`^(#[0-9A-Fa-f]{3}|#[0-9A-Fa-f]{6}|[A-Za-z]+)$`)

// Validate reports whether value is acceptable for the kind.
func (k Kind) Validate(value string) error {
	switch k.name {
	case "bool":
		if _, err := strconv.ParseBool(value); err != nil {
			return fmt.Errorf("%q is not a boolean", value)
		}
	case "int":
		if _, err := strconv.Atoi(value); err != nil {
			return fmt.Errorf("%q is not an integer", value)
		}
	case "color":
		if !colorPattern.MatchString(value) {
			return fmt.Errorf("%q is not a color", value)
		}
	case "enum":
		if !slices.Contains(k.values, value) {
			return fmt.Errorf("%q is not one of %s", value, strings.Join(k.values, ", "))
		}
	}
	return nil
}

// String returns the kind name.
func (k Kind) String() string {
	if k.name == "enum" {
		return "one of " + strings.Join(k.values, "|")
	}
	return k.name
}

// Schema maps every recognized key to the kind of value it accepts.
type Schema map[string]Kind

// Settings is a component's configuration table.
// Not safe for concurrent mutation.
type Settings struct {
	schema  Schema
	values  map[string]string
	version uint64
}

// New creates Settings for schema, initialized from defaults.
// The defaults map is copied. Keys missing from defaults stay unset and
// reading them returns ErrUnknownKey.
func New(schema Schema, defaults map[string]string) *Settings {
	values := maps.Clone(defaults)
	if values == nil {
		values = map[string]string{}
	}
	return &Settings{
		schema: maps.Clone(schema),
		values: values,
	}
}

// Configure sets key to value.
// Returns ErrUnknownKey if the key is not recognized and ErrInvalidValue if
// value does not fit the key's kind. On error the settings are unchanged.
func (s *Settings) Configure(key, value string) error {
	if err := s.Check(key, value); err != nil {
		return err
	}
	s.values[key] = value
	s.version++
	return nil
}

// Check reports the error Configure would return for key and value without
// changing anything.
func (s *Settings) Check(key, value string) error {
	kind, ok := s.schema[key]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	if err := kind.Validate(value); err != nil {
		return fmt.Errorf("%w for key %q: %v", ErrInvalidValue, key, err)
	}
	return nil
}

// Apply configures every entry of values. All entries are checked first, so
// either all of them are stored or none is.
func (s *Settings) Apply(values map[string]string) error {
	for _, key := range slices.Sorted(maps.Keys(values)) {
		if err := s.Check(key, values[key]); err != nil {
			return err
		}
	}
	maps.Copy(s.values, values)
	s.version++
	return nil
}

// ConfigureBool sets a boolean key using the "1"/"0" encoding.
func (s *Settings) ConfigureBool(key string, value bool) error {
	if value {
		return s.Configure(key, "1")
	}
	return s.Configure(key, "0")
}

// Get returns the raw string stored for key.
func (s *Settings) Get(key string) (string, error) {
	v, ok := s.values[key]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	return v, nil
}

// Bool reads key as a boolean.
func (s *Settings) Bool(key string) (bool, error) {
	return Value[bool](s, key)
}

// Int reads key as an integer.
func (s *Settings) Int(key string) (int, error) {
	return Value[int](s, key)
}

// Settings returns a copy of the whole table.
func (s *Settings) Settings() map[string]string {
	return maps.Clone(s.values)
}

// ReplaceSettings replaces the whole table. Keys are not checked against the
// schema: bulk replacement is trusted.
func (s *Settings) ReplaceSettings(values map[string]string) {
	s.values = maps.Clone(values)
	if s.values == nil {
		s.values = map[string]string{}
	}
	s.version++
}

// Keys returns the recognized keys in sorted order.
func (s *Settings) Keys() []string {
	return slices.Sorted(maps.Keys(s.schema))
}

// Version increases on every mutation. Engines use it to detect that a
// derived object (a configured markdown parser, for example) is stale.
func (s *Settings) Version() uint64 {
	return s.version
}

// Scalar is the set of types Value can parse.
type Scalar interface {
	bool | int | int64 | float64 | string
}

// Value reads key and parses it as T.
// Returns ErrUnknownKey for a missing key and ErrTypeConversion if the stored
// string does not parse as T.
func Value[T Scalar](s *Settings, key string) (T, error) {
	var zero T
	raw, err := s.Get(key)
	if err != nil {
		return zero, err
	}

	var out any
	switch any(zero).(type) {
	case bool:
		out, err = strconv.ParseBool(raw)
	case int:
		out, err = strconv.Atoi(raw)
	case int64:
		out, err = strconv.ParseInt(raw, 10, 64)
	case float64:
		out, err = strconv.ParseFloat(raw, 64)
	case string:
		out = raw
	}
	if err != nil {
		return zero, fmt.Errorf("%w: key %q: %q as %T", ErrTypeConversion, key, raw, zero)
	}
	return out.(T), nil
}
