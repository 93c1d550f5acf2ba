package dataset

import (
	"bytes"
	"encoding/base64"
	"strconv"
)

type valueKind uint8

const (
	kindNull valueKind = iota
	kindText
	kindBinary
)

// Value is a single cell value. A Value is one of three kinds: null,
// text (the empty string is a text value, distinct from null), or binary.
// The zero Value is null.
type Value struct {
	kind valueKind
	text string
	data []byte
}

// Null returns the null value.
func Null() Value {
	return Value{}
}

// String returns a text value. String("") is the empty string, not null.
func String(s string) Value {
	return Value{kind: kindText, text: s}
}

// Binary returns a binary value holding a copy of b.
func Binary(b []byte) Value {
	return Value{kind: kindBinary, data: bytes.Clone(b)}
}

// IsNull reports whether the value is null.
func (v Value) IsNull() bool {
	return v.kind == kindNull
}

// IsBinary reports whether the value is binary.
func (v Value) IsBinary() bool {
	return v.kind == kindBinary
}

// Text returns the text content. It is "" for null and binary values.
func (v Value) Text() string {
	return v.text
}

// Bytes returns the binary content. It is nil for null and text values.
func (v Value) Bytes() []byte {
	return bytes.Clone(v.data)
}

// Equal reports whether two values have the same kind and content.
// Null equals only null; the empty string equals only the empty string.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case kindText:
		return v.text == o.text
	case kindBinary:
		return bytes.Equal(v.data, o.data)
	default:
		return true
	}
}

// Key returns a type-tagged encoding of the value for lexicographic
// ordering. Null sorts before any text; binary sorts after all text.
// Distinct values never share a key.
func (v Value) Key() string {
	switch v.kind {
	case kindText:
		return "\x01" + v.text
	case kindBinary:
		return "\x02" + string(v.data)
	default:
		return "\x00"
	}
}

// String renders the value for diagnostics: NULL for null, the quoted
// text for text values, and a base64 form for binary values.
func (v Value) String() string {
	switch v.kind {
	case kindText:
		return strconv.Quote(v.text)
	case kindBinary:
		return "[base64]" + base64.StdEncoding.EncodeToString(v.data)
	default:
		return "NULL"
	}
}
