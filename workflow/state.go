package workflow

import (
	"fmt"
	"maps"
	"sync"
)

// Rule is the merge policy of a state field.
type Rule int

const (
	// Replace keeps the most recent value.
	Replace Rule = iota
	// Append concatenates sequences in update order.
	Append
	// ReplaceIfPresent behaves like Replace but ignores zero values.
	ReplaceIfPresent
)

func (r Rule) String() string {
	switch r {
	case Replace:
		return "replace"
	case Append:
		return "append"
	case ReplaceIfPresent:
		return "replace_if_present"
	default:
		return fmt.Sprintf("rule(%d)", int(r))
	}
}

// Field is the untyped view of a Key used by Schema.
type Field interface {
	Name() string
	Rule() Rule
	initial() any
	merge(current, update any) (any, error)
}

// Key is a typed state field with a default value and a merge rule.
// Define keys as package-level variables and share them between nodes.
type Key[T any] struct {
	name   string
	rule   Rule
	def    func() T
	reduce func(current, update T) T
}

// ReplaceKey declares a last-write-wins field.
func ReplaceKey[T any](name string, def T) Key[T] {
	return Key[T]{
		name:   name,
		rule:   Replace,
		def:    func() T { return def },
		reduce: func(_, update T) T { return update },
	}
}

// AppendKey declares a sequence field whose updates are appended in order.
// The default is an empty sequence.
func AppendKey[E any](name string) Key[[]E] {
	return Key[[]E]{
		name: name,
		rule: Append,
		def:  func() []E { return []E{} },
		reduce: func(current, update []E) []E {
			out := make([]E, 0, len(current)+len(update))
			out = append(out, current...)
			return append(out, update...)
		},
	}
}

// ReplaceIfPresentKey declares a field that only zero values cannot overwrite.
func ReplaceIfPresentKey[T comparable](name string, def T) Key[T] {
	var zero T
	return Key[T]{
		name: name,
		rule: ReplaceIfPresent,
		def:  func() T { return def },
		reduce: func(current, update T) T {
			if update == zero {
				return current
			}
			return update
		},
	}
}

// Name returns the field name.
func (k Key[T]) Name() string { return k.name }

// Rule returns the merge rule.
func (k Key[T]) Rule() Rule { return k.rule }

// String implements fmt.Stringer for debugging.
func (k Key[T]) String() string { return k.name }

// Default returns a fresh default value.
func (k Key[T]) Default() T { return k.def() }

func (k Key[T]) initial() any { return k.def() }

func (k Key[T]) merge(current, update any) (any, error) {
	u, err := k.cast(update)
	if err != nil {
		return nil, err
	}
	c, err := k.cast(current)
	if err != nil {
		return nil, err
	}
	return k.reduce(c, u), nil
}

func (k Key[T]) cast(v any) (T, error) {
	var zero T
	if v == nil {
		return zero, nil
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %q wants %T, got %T", ErrFieldType, k.name, zero, v)
	}
	return typed, nil
}

// Schema is the closed set of fields a state may hold.
type Schema struct {
	fields map[string]Field
	order  []string
}

// NewSchema builds a schema from keys. Field names must be unique.
func NewSchema(fields ...Field) (*Schema, error) {
	s := &Schema{fields: make(map[string]Field, len(fields))}
	for _, f := range fields {
		if _, dup := s.fields[f.Name()]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateField, f.Name())
		}
		s.fields[f.Name()] = f
		s.order = append(s.order, f.Name())
	}
	return s, nil
}

// MustSchema is like NewSchema but panics on error.
func MustSchema(fields ...Field) *Schema {
	s, err := NewSchema(fields...)
	if err != nil {
		panic(err)
	}
	return s
}

// Fields returns field names in declaration order.
func (s *Schema) Fields() []string {
	return append([]string(nil), s.order...)
}

// NewState returns a state holding every default with seed merged on top.
func (s *Schema) NewState(seed Update) (*State, error) {
	st := &State{schema: s, data: make(map[string]any, len(s.fields))}
	for name, f := range s.fields {
		st.data[name] = f.initial()
	}
	if err := st.Apply(seed); err != nil {
		return nil, err
	}
	st.run = newExecution("", defaultGraphOptions())
	return st, nil
}

// Update is a partial state: field name to value.
type Update map[string]any

// With sets key to value in u and returns u, allocating when u is nil.
func With[T any](u Update, key Key[T], value T) Update {
	if u == nil {
		u = Update{}
	}
	u[key.name] = value
	return u
}

// Combine folds updates into one update whose application equals applying
// each update in order.
func Combine(s *Schema, updates ...Update) (Update, error) {
	out := Update{}
	for _, u := range updates {
		for name, v := range u {
			f, ok := s.fields[name]
			if !ok {
				return nil, fmt.Errorf("%w: %q", ErrUnknownField, name)
			}
			prev, seen := out[name]
			if !seen {
				if _, err := f.merge(nil, v); err != nil {
					return nil, err
				}
				out[name] = v
				continue
			}
			merged, err := f.merge(prev, v)
			if err != nil {
				return nil, err
			}
			out[name] = merged
		}
	}
	return out, nil
}

// State holds the running values of a graph invocation.
type State struct {
	mu     sync.RWMutex
	schema *Schema
	data   map[string]any
	run    *execution
}

// Apply merges u into the state. Either every field merges or none does.
func (s *State) Apply(u Update) error {
	if len(u) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make(map[string]any, len(u))
	for name, v := range u {
		f, ok := s.schema.fields[name]
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownField, name)
		}
		merged, err := f.merge(s.data[name], v)
		if err != nil {
			return err
		}
		next[name] = merged
	}
	maps.Copy(s.data, next)
	return nil
}

// Value returns the raw value of a field.
func (s *State) Value(name string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[name]
	return v, ok
}

// Snapshot returns a shallow copy of all fields.
func (s *State) Snapshot() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.data)
}

// Get returns the value of key, or its default when the state does not
// declare it.
func Get[T any](s *State, key Key[T]) T {
	v, ok := s.Value(key.name)
	if !ok {
		return key.Default()
	}
	typed, err := key.cast(v)
	if err != nil {
		return key.Default()
	}
	return typed
}
