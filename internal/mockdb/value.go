// Comparison and matching of loosely typed record values.

package mockdb

import (
	"cmp"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// toNumber returns v as a float64 if it holds any numeric kind.
func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// looseEqual compares two values the way a dynamically typed client would:
// numbers of any kind compare by value, a numeric string equals the number it
// spells, and booleans equal 1 and 0.
func looseEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	na, aNum := toNumber(a)
	nb, bNum := toNumber(b)
	switch {
	case aNum && bNum:
		return na == nb
	case aNum:
		return numberEqualsLoose(na, b)
	case bNum:
		return numberEqualsLoose(nb, a)
	}
	switch va := a.(type) {
	case string:
		if vb, ok := b.(string); ok {
			return va == vb
		}
		if vb, ok := b.(bool); ok {
			return numberEqualsLoose(boolNumber(vb), va)
		}
	case bool:
		switch vb := b.(type) {
		case bool:
			return va == vb
		case string:
			return numberEqualsLoose(boolNumber(va), vb)
		}
	}
	return false
}

func numberEqualsLoose(n float64, other any) bool {
	switch o := other.(type) {
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(o), 64)
		return err == nil && f == n
	case bool:
		return boolNumber(o) == n
	default:
		return false
	}
}

func boolNumber(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// compareValues compares two values for sorting, returning -1, 0, or 1.
// nil sorts before everything else.
func compareValues(a, b any) int {
	if a == nil && b == nil {
		return 0
	}
	if a == nil {
		return -1
	}
	if b == nil {
		return 1
	}
	if na, ok := toNumber(a); ok {
		if nb, ok := toNumber(b); ok {
			return cmp.Compare(na, nb)
		}
	}
	switch va := a.(type) {
	case string:
		if vb, ok := b.(string); ok {
			return cmp.Compare(va, vb)
		}
	case bool:
		if vb, ok := b.(bool); ok {
			return cmp.Compare(boolNumber(va), boolNumber(vb))
		}
	}
	return cmp.Compare(toString(a), toString(b))
}

// toString converts a value to its string representation.
func toString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	default:
		if n, ok := toNumber(v); ok {
			if n == math.Trunc(n) && math.Abs(n) < 1e15 {
				return strconv.FormatInt(int64(n), 10)
			}
			return strconv.FormatFloat(n, 'g', -1, 64)
		}
		return fmt.Sprint(v)
	}
}

// likePattern compiles a SQL LIKE pattern, where % matches any run of
// characters, _ matches exactly one and \ makes the next character literal.
func likePattern(pattern string, caseInsensitive bool) *regexp.Regexp {
	var sb, lit strings.Builder
	if caseInsensitive {
		sb.WriteString("(?is)")
	} else {
		sb.WriteString("(?s)")
	}
	sb.WriteString("^")
	flush := func() {
		sb.WriteString(regexp.QuoteMeta(lit.String()))
		lit.Reset()
	}
	escaped := false
	for _, c := range pattern {
		switch {
		case escaped:
			lit.WriteRune(c)
			escaped = false
		case c == '\\':
			escaped = true
		case c == '%':
			flush()
			sb.WriteString(".*")
		case c == '_':
			flush()
			sb.WriteString(".")
		default:
			lit.WriteRune(c)
		}
	}
	if escaped {
		lit.WriteRune('\\')
	}
	flush()
	sb.WriteString("$")
	return regexp.MustCompile(sb.String())
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike quotes s so that it matches itself literally inside a LIKE
// pattern.
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}
