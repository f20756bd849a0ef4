package envconfig

import (
	"fmt"
	"sort"
	"strconv"
	"sync/atomic"
)

// Config is the validated, typed-access view over loaded properties. It only
// ever exposes values for declared keys. Reads are safe against a concurrent
// Reload: the backing map is replaced by a single atomic pointer swap, so a
// reader observes either the old or the new mapping, never a partial merge.
type Config[T Property] struct {
	keys  []T
	props atomic.Pointer[map[string]string]
}

func newConfig[T Property](keys []T) *Config[T] {
	c := &Config[T]{keys: keys}
	empty := map[string]string{}
	c.props.Store(&empty)
	return c
}

func (c *Config[T]) replace(m map[string]string) {
	c.props.Store(&m)
}

func (c *Config[T]) snapshot() map[string]string {
	return *c.props.Load()
}

// Keys returns the declared property keys.
func (c *Config[T]) Keys() []T {
	out := make([]T, len(c.keys))
	copy(out, c.keys)
	return out
}

// StringValue returns the loaded value for prop, or its declared default
// when no source provided one. Returns "" for an absent key without a
// default.
func (c *Config[T]) StringValue(prop T) string {
	value, _ := c.lookup(prop)
	return value
}

// lookup resolves prop to (value, present). A key is present when a source
// provided it or it carries a non-empty default.
func (c *Config[T]) lookup(prop T) (string, bool) {
	if value, ok := c.snapshot()[prop.NameInFile()]; ok {
		return value, true
	}
	if def := prop.DefaultValue(); def != "" {
		return def, true
	}
	return "", false
}

// BoolValue parses the string value of prop as a boolean. ok is false when
// the key is absent; a present but unparseable value yields an error.
func (c *Config[T]) BoolValue(prop T) (value, ok bool, err error) {
	raw, present := c.lookup(prop)
	if !present {
		return false, false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false, fmt.Errorf("property %s is not a boolean: %q", prop.NameInFile(), raw)
	}
	return v, true, nil
}

// Int64Value parses the string value of prop as an int64. ok is false when
// the key is absent; a present but unparseable value yields an error.
func (c *Config[T]) Int64Value(prop T) (value int64, ok bool, err error) {
	raw, present := c.lookup(prop)
	if !present {
		return 0, false, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("property %s is not an integer: %q", prop.NameInFile(), raw)
	}
	return v, true, nil
}

// IntValue parses the string value of prop as an int. ok is false when the
// key is absent; a present but unparseable value yields an error.
func (c *Config[T]) IntValue(prop T) (value int, ok bool, err error) {
	raw, present := c.lookup(prop)
	if !present {
		return 0, false, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, fmt.Errorf("property %s is not an integer: %q", prop.NameInFile(), raw)
	}
	return v, true, nil
}

// DisplayValue returns the value of prop in a form safe for display. Secured
// values have every even-indexed character masked with '#'; public and empty
// values pass through unmodified.
func (c *Config[T]) DisplayValue(prop T) string {
	value := c.StringValue(prop)
	if prop.Type() != Secured || value == "" {
		return value
	}

	masked := []rune(value)
	for i := 0; i < len(masked); i += 2 {
		masked[i] = '#'
	}
	return string(masked)
}

// DisplayEntry is one (key name, display value) pair.
type DisplayEntry struct {
	Name  string
	Value string
}

// DisplayValues returns the display value of every declared key that is
// either present in the loaded sources or has a non-empty display value,
// sorted by key name.
func (c *Config[T]) DisplayValues() []DisplayEntry {
	props := c.snapshot()

	entries := make([]DisplayEntry, 0, len(c.keys))
	for _, key := range c.keys {
		name := key.NameInFile()
		value := c.DisplayValue(key)
		if _, present := props[name]; !present && value == "" {
			continue
		}
		entries = append(entries, DisplayEntry{Name: name, Value: value})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries
}
