// Package attribute parses HLS attribute lists (the KEY=VALUE,... text that
// follows a tag name) into typed values.
package attribute

import "fmt"

// Kind identifies which member of the Value union is populated.
type Kind int

// Value kinds.
const (
	// KindText is an empty unquoted value (KEY=).
	KindText Kind = iota
	// KindQuotedString is a double-quoted string, stored without the quotes.
	KindQuotedString
	// KindEnumerated is an unquoted token such as AUDIO, YES or PQ.
	KindEnumerated
	// KindInteger is a decimal integer.
	KindInteger
	// KindDecimal is a decimal floating point number.
	KindDecimal
	// KindResolution is a WIDTHxHEIGHT pair.
	KindResolution
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindQuotedString:
		return "quoted-string"
	case KindEnumerated:
		return "enumerated"
	case KindInteger:
		return "integer"
	case KindDecimal:
		return "decimal"
	case KindResolution:
		return "resolution"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Value is a single typed attribute value. The zero Value is an empty Text.
type Value struct {
	kind Kind
	raw  string
	text string
	i    int64
	f    float64
	res  Resolution
}

func textValue(s string) Value {
	return Value{kind: KindText, raw: s, text: s}
}

func enumValue(s string) Value {
	return Value{kind: KindEnumerated, raw: s, text: s}
}

// Kind returns the kind of the value.
func (v Value) Kind() Kind {
	return v.kind
}

// Raw returns the value exactly as it appeared in the attribute list,
// including quotes for quoted strings.
func (v Value) Raw() string {
	return v.raw
}

// String returns the textual form of the value. Quoted strings are returned
// without their quotes; every other kind returns its source text.
func (v Value) String() string {
	return v.text
}

// Int64 returns the integer held by a KindInteger value.
func (v Value) Int64() (int64, bool) {
	if v.kind != KindInteger {
		return 0, false
	}
	return v.i, true
}

// Float64 returns the number held by a KindDecimal or KindInteger value.
func (v Value) Float64() (float64, bool) {
	if v.kind != KindDecimal && v.kind != KindInteger {
		return 0, false
	}
	return v.f, true
}

// Resolution returns the pair held by a KindResolution value.
func (v Value) Resolution() (Resolution, bool) {
	if v.kind != KindResolution {
		return Resolution{}, false
	}
	return v.res, true
}

// List maps attribute names (case-sensitive) to their values.
type List map[string]Value

// Get returns the value stored under key.
func (l List) Get(key string) (Value, bool) {
	v, ok := l[key]
	return v, ok
}

// Has reports whether key is present.
func (l List) Has(key string) bool {
	_, ok := l[key]
	return ok
}
