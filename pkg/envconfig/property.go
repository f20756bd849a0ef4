// Package envconfig loads layered property files with environment overrides
package envconfig

// PropertyType controls how a property value may be displayed
type PropertyType int

const (
	// Public values are displayed as-is
	Public PropertyType = iota
	// Secured values are partially masked for display
	Secured
)

// String returns the string representation of PropertyType
func (t PropertyType) String() string {
	switch t {
	case Public:
		return "public"
	case Secured:
		return "secured"
	default:
		return "unknown"
	}
}

// Property is the metadata capability every recognized configuration key
// must expose. A service declares one concrete Property set (typically a
// slice of consts with a lookup table) and hands it to the loader; the
// loader only ever surfaces values for declared keys.
type Property interface {
	// NameInFile is the key as it appears in property sources
	NameInFile() string

	// DefaultValue is the fallback when no source provides the key.
	// An empty string means the key has no default.
	DefaultValue() string

	// Type reports whether the value is safe to display unmasked
	Type() PropertyType
}

// ValueProcessor transforms a value during normalization, after the merge
// and trimming steps. Typical uses are decryption and placeholder
// resolution.
type ValueProcessor func(key, value string) string
