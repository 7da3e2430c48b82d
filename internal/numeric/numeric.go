// Package numeric provides fast ASCII-span numeric parsing and the
// whitespace/CSV splitters the text-based spectrum formats (SPE, TKA,
// Amptek MCA) depend on, including the Cambio zero-compression
// fix-up described in spec.md section 4.1.
package numeric

import (
	"math"
	"strconv"
	"strings"
)

// ParseDouble parses a leading float64 out of s, tolerating leading
// whitespace. It mirrors spec.md's "N.M.P is tolerated" rule: a second
// decimal point terminates the number instead of producing an error, which
// matters for the fast split_to_floats path below.
func ParseDouble(s string) (value float64, consumed int, ok bool) {
	s = strings.TrimLeft(s, " \t")
	leading := len(s)
	trimmed := leading
	// Scan forward once for the float-shaped prefix; a second '.', a
	// misplaced sign, or any other non-numeric byte ends it.
	dotSeen := false
	afterExponent := false
	end := len(s)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '.':
			if dotSeen {
				end = i
				i = len(s) // break outer loop
				continue
			}
			dotSeen = true
		case c == '+' || c == '-':
			// A sign is only valid at the very start, or immediately
			// after an exponent marker (e.g. the "+01" in "1.0E+01").
			if i != 0 && !afterExponent {
				end = i
				i = len(s)
				continue
			}
		case c == 'e' || c == 'E':
			afterExponent = true
			continue
		case c >= '0' && c <= '9':
		default:
			end = i
			i = len(s)
		}
		afterExponent = false
	}
	candidate := s[:end]
	v, err := strconv.ParseFloat(candidate, 64)
	if err != nil || candidate == "" {
		return 0, 0, false
	}
	return v, (leading - trimmed) + end, true
}

// ParseFloat32 parses a float32 from s using the same tolerant rule as
// ParseDouble.
func ParseFloat32(s string) (value float32, consumed int, ok bool) {
	v, n, ok := ParseDouble(s)
	return float32(v), n, ok
}

// ParseInt parses a leading base-10 integer out of s, tolerating leading
// whitespace; rejects empty/ambiguous input.
func ParseInt(s string) (value int64, consumed int, ok bool) {
	trimmed := strings.TrimLeft(s, " \t")
	off := len(s) - len(trimmed)
	end := 0
	for end < len(trimmed) {
		c := trimmed[end]
		if c == '+' || c == '-' {
			if end != 0 {
				break
			}
			end++
			continue
		}
		if c < '0' || c > '9' {
			break
		}
		end++
	}
	if end == 0 || (end == 1 && (trimmed[0] == '+' || trimmed[0] == '-')) {
		return 0, 0, false
	}
	v, err := strconv.ParseInt(trimmed[:end], 10, 64)
	if err != nil {
		return 0, 0, false
	}
	return v, off + end, true
}

// SplitToFloats splits input on any byte in delims and parses each non-empty
// token as a float64. When cambioZeroCompressFix is true, a token that is
// the single glyph "0" (no decimal point) is emitted as math.SmallestNonzeroFloat32
// converted to float64, rather than 0.0 — matching the Cambio N42 asymmetry
// where a bare "0" signals run-length-encoded zeros but "0.000" means a
// single channel of zero.
func SplitToFloats(input string, delims string, cambioZeroCompressFix bool) []float64 {
	if delims == "" {
		delims = " \t,\r\n"
	}
	isDelim := func(r rune) bool { return strings.ContainsRune(delims, r) }

	var out []float64
	for _, tok := range strings.FieldsFunc(input, isDelim) {
		if cambioZeroCompressFix && tok == "0" {
			out = append(out, float64(math.SmallestNonzeroFloat32))
			continue
		}
		v, _, ok := ParseDouble(tok)
		if !ok {
			continue
		}
		out = append(out, v)
	}
	return out
}

// SplitToInts is the integer counterpart of SplitToFloats, without the
// Cambio fix-up (integer count formats like CHN/TKA don't carry the
// ambiguity that motivates it).
func SplitToInts(input string, delims string) []int64 {
	if delims == "" {
		delims = " \t,\r\n"
	}
	isDelim := func(r rune) bool { return strings.ContainsRune(delims, r) }

	var out []int64
	for _, tok := range strings.FieldsFunc(input, isDelim) {
		v, _, ok := ParseInt(tok)
		if !ok {
			continue
		}
		out = append(out, v)
	}
	return out
}

// UTF8LimitStrSize returns the longest prefix of s, measured in bytes, that
// is at most maxBytes long and does not split a UTF-8 rune.
func UTF8LimitStrSize(s string, maxBytes int) string {
	if len(s) <= maxBytes {
		return s
	}
	end := 0
	for i, r := range s {
		size := len(string(r))
		if i+size > maxBytes {
			break
		}
		end = i + size
	}
	return s[:end]
}
