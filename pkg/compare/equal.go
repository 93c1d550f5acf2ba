package compare

import (
	"bytes"
	"strconv"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/seijikohara/db-tester-sub006/pkg/dataset"
)

// Comparer decides whether an actual value is acceptable for an expected
// one. Custom comparers are registered per table column via WithComparer.
type Comparer func(expected, actual dataset.Value) bool

// timeLayouts are the timestamp spellings Equivalent recognizes.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Equivalent is the default Comparer. Null equals only null; binary
// equals binary with the same bytes. Text compares by NFC-normalized
// string equality, then by integer, floating-point, boolean, and
// timestamp value, so "1.0" matches "1" and "TRUE" matches "1".
func Equivalent(expected, actual dataset.Value) bool {
	if expected.IsNull() || actual.IsNull() {
		return expected.IsNull() && actual.IsNull()
	}
	if expected.IsBinary() || actual.IsBinary() {
		return expected.IsBinary() && actual.IsBinary() &&
			bytes.Equal(expected.Bytes(), actual.Bytes())
	}

	e := norm.NFC.String(expected.Text())
	a := norm.NFC.String(actual.Text())
	if e == a {
		return true
	}

	ei, eIntErr := strconv.ParseInt(e, 10, 64)
	ai, aIntErr := strconv.ParseInt(a, 10, 64)
	if eIntErr == nil && aIntErr == nil {
		return ei == ai
	}

	ef, eFloatErr := strconv.ParseFloat(e, 64)
	af, aFloatErr := strconv.ParseFloat(a, 64)
	if eFloatErr == nil && aFloatErr == nil {
		return ef == af
	}

	eb, eBoolErr := strconv.ParseBool(e)
	ab, aBoolErr := strconv.ParseBool(a)
	if eBoolErr == nil && aBoolErr == nil {
		return eb == ab
	}

	if et, ok := parseTime(e); ok {
		if at, ok := parseTime(a); ok {
			return et.Equal(at)
		}
	}
	return false
}

func parseTime(s string) (time.Time, bool) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
