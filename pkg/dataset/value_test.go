package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValue_NullVsEmptyString(t *testing.T) {
	null := Null()
	empty := String("")

	assert.True(t, null.IsNull())
	assert.False(t, empty.IsNull())
	assert.False(t, null.Equal(empty))
	assert.False(t, empty.Equal(null))
	assert.True(t, null.Equal(Null()))
	assert.True(t, empty.Equal(String("")))
}

func TestValue_ZeroValueIsNull(t *testing.T) {
	var v Value
	assert.True(t, v.IsNull())
	assert.True(t, v.Equal(Null()))
}

func TestValue_TextEquality(t *testing.T) {
	assert.True(t, String("a").Equal(String("a")))
	assert.False(t, String("a").Equal(String("b")))
	assert.False(t, String("1").Equal(Binary([]byte("1"))))
}

func TestValue_BinaryEquality(t *testing.T) {
	a := Binary([]byte{1, 2, 3})
	b := Binary([]byte{1, 2, 3})
	c := Binary([]byte{1, 2, 4})

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.True(t, a.IsBinary())
}

func TestValue_BinaryCopiesInput(t *testing.T) {
	buf := []byte{1, 2, 3}
	v := Binary(buf)
	buf[0] = 9

	assert.Equal(t, []byte{1, 2, 3}, v.Bytes())
}

func TestValue_KeyOrdering(t *testing.T) {
	// Null sorts before any text, the empty string before non-empty text,
	// binary after all text.
	assert.Less(t, Null().Key(), String("").Key())
	assert.Less(t, String("").Key(), String("a").Key())
	assert.Less(t, String("zzz").Key(), Binary([]byte{0}).Key())
}

func TestValue_KeyDistinguishesKinds(t *testing.T) {
	assert.NotEqual(t, Null().Key(), String("").Key())
	assert.NotEqual(t, String("abc").Key(), Binary([]byte("abc")).Key())
}

func TestValue_String(t *testing.T) {
	assert.Equal(t, "NULL", Null().String())
	assert.Equal(t, `""`, String("").String())
	assert.Equal(t, `"hello"`, String("hello").String())
	assert.Equal(t, "[base64]AQID", Binary([]byte{1, 2, 3}).String())
}
