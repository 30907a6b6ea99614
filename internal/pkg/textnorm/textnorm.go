// Package textnorm canonicalizes free-text spreadsheet and database values so
// that equivalent inputs compare equal.
package textnorm

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// nameSeparators splits a cell holding several names: Arabic/Latin commas,
// semicolon, slash, line breaks, a spaced hyphen, or a spaced "and" (و / and).
var nameSeparators = regexp.MustCompile(`[،,;/\r\n]+|\s+-\s+|\s+و\s+|\s+(?i:and)\s+`)

// Text returns v as a trimmed string with internal whitespace runs collapsed
// to a single space. nil and NaN yield "". Numbers use their shortest form.
func Text(v any) string {
	return Spaces(raw(v))
}

// Spaces collapses whitespace in an already-stringified value.
func Spaces(s string) string {
	if s == "" {
		return ""
	}
	return strings.Join(strings.Fields(norm.NFC.String(s)), " ")
}

// Equal reports whether a and b normalize to the same text.
func Equal(a, b any) bool {
	return Text(a) == Text(b)
}

// SplitNames splits a multi-name cell into normalized names, dropping blanks
// and repeated names while keeping first-seen order.
func SplitNames(cell any) []string {
	s := strings.TrimSpace(norm.NFC.String(raw(cell)))
	if s == "" {
		return nil
	}

	parts := nameSeparators.Split(s, -1)
	seen := make(map[string]struct{}, len(parts))
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		name := Spaces(p)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}

func raw(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case *string:
		if x == nil {
			return ""
		}
		return *x
	case []byte:
		return string(x)
	case float64:
		if math.IsNaN(x) {
			return ""
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		if math.IsNaN(float64(x)) {
			return ""
		}
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}
