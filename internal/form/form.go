// Package form holds schema-driven form state for the create commands:
// field defaults, validation and values remembered between runs.
package form

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sort"
	"strings"
)

// ErrUnknownField is returned when setting a field the schema does not declare.
var ErrUnknownField = errors.New("unknown field")

// Field declares one form field.
type Field struct {
	Default    string
	Validators []Validator
	Cacheable  bool
}

// Schema maps field names to their declarations.
type Schema map[string]Field

// ValueCache remembers cacheable field values between runs.
type ValueCache interface {
	LoadFormValues(ctx context.Context, form string) (map[string]string, error)
	SaveFormValues(ctx context.Context, form string, values map[string]string) error
}

// Errors maps field names to validation messages.
type Errors map[string][]string

// Error lists every message, fields in name order.
func (e Errors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+strings.Join(e[f], ", "))
	}
	return strings.Join(parts, "; ")
}

// Form is the state of one form.
type Form struct {
	cache  ValueCache
	schema Schema
	values map[string]string
	name   string
}

// New creates a form with every field at its default. cache may be nil.
func New(name string, schema Schema, cache ValueCache) *Form {
	values := make(map[string]string, len(schema))
	for field, def := range schema {
		values[field] = def.Default
	}
	return &Form{
		cache:  cache,
		schema: schema,
		values: values,
		name:   name,
	}
}

// Name returns the form name used as the cache key.
func (f *Form) Name() string {
	return f.name
}

// Load replaces defaults of cacheable fields with remembered values.
func (f *Form) Load(ctx context.Context) error {
	if f.cache == nil {
		return nil
	}
	cached, err := f.cache.LoadFormValues(ctx, f.name)
	if err != nil {
		return fmt.Errorf("failed to load %s form values: %w", f.name, err)
	}
	for field, value := range cached {
		if def, ok := f.schema[field]; ok && def.Cacheable {
			f.values[field] = value
		}
	}
	return nil
}

// Save remembers the current values of cacheable fields.
func (f *Form) Save(ctx context.Context) error {
	if f.cache == nil {
		return nil
	}
	values := make(map[string]string)
	for field, def := range f.schema {
		if def.Cacheable && f.values[field] != "" {
			values[field] = f.values[field]
		}
	}
	if err := f.cache.SaveFormValues(ctx, f.name, values); err != nil {
		return fmt.Errorf("failed to save %s form values: %w", f.name, err)
	}
	return nil
}

// Get returns the value of field.
func (f *Form) Get(field string) string {
	return f.values[field]
}

// Set changes the value of a declared field.
func (f *Form) Set(field, value string) error {
	if _, ok := f.schema[field]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	f.values[field] = value
	return nil
}

// Values returns a copy of every field value.
func (f *Form) Values() map[string]string {
	return maps.Clone(f.values)
}

// Fields returns the declared field names in order.
func (f *Form) Fields() []string {
	names := make([]string, 0, len(f.schema))
	for name := range f.schema {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate runs every validator and returns nil when the form is valid.
func (f *Form) Validate() Errors {
	errs := Errors{}
	for field, def := range f.schema {
		value := f.values[field]
		for _, validate := range def.Validators {
			if msg := validate(value); msg != "" {
				errs[field] = append(errs[field], msg)
			}
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}
