// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package decoder recovers structured mappings from near-JSON text produced
// by best-effort upstream extractors. Strictly valid JSON always takes the
// strict path, so well-formed input is never altered by the repair passes.
package decoder

import (
	"encoding/json"
	"strings"
)

// Parse attempts to decode raw text into a JSON object. The second return
// value is false when the input is unrecoverable; Parse never returns an
// error and never panics.
//
// Strategies are tried in order, first success wins:
//  1. strict JSON parse
//  2. repair pass (quote normalization, trailing comma removal) + strict parse
//  3. literal normalization (True/False/None) + repair pass + strict parse
func Parse(raw string) (map[string]interface{}, bool) {
	if strings.TrimSpace(raw) == "" {
		return nil, false
	}

	if m, ok := parseStrict(raw); ok {
		return m, true
	}

	repaired := RepairJSON(raw)
	if m, ok := parseStrict(repaired); ok {
		return m, true
	}

	// Extractors sometimes emit Python-style literals instead of JSON.
	// Only an object result is accepted; lists and scalars are non-matches.
	normalized := normalizeLiterals(repaired)
	if m, ok := parseStrict(normalized); ok {
		return m, true
	}

	return nil, false
}

// parseStrict decodes raw as a JSON object. Non-object JSON (arrays,
// scalars) is rejected.
func parseStrict(raw string) (map[string]interface{}, bool) {
	var m map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, false
	}
	if m == nil {
		return nil, false
	}
	return m, true
}

// RepairJSON applies two heuristics to near-JSON text: single-quoted spans
// become double-quoted (apostrophes inside double-quoted spans are left
// alone), and trailing commas immediately before a closing brace or bracket
// are dropped. It is a heuristic scanner, not a full lexer.
func RepairJSON(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))

	inDouble := false
	inSingle := false
	escaped := false

	for i := 0; i < len(raw); i++ {
		c := raw[i]

		if escaped {
			b.WriteByte(c)
			escaped = false
			continue
		}

		switch c {
		case '\\':
			b.WriteByte(c)
			if inDouble || inSingle {
				escaped = true
			}
		case '"':
			if inSingle {
				// A bare double quote inside a converted span must be
				// escaped to keep the output valid.
				b.WriteString(`\"`)
				continue
			}
			inDouble = !inDouble
			b.WriteByte(c)
		case '\'':
			if inDouble {
				b.WriteByte(c)
				continue
			}
			inSingle = !inSingle
			b.WriteByte('"')
		case ',':
			if inDouble || inSingle {
				b.WriteByte(c)
				continue
			}
			// Drop the comma when the next non-whitespace byte closes a
			// container.
			if next := nextNonSpace(raw, i+1); next == '}' || next == ']' {
				continue
			}
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}

	return b.String()
}

// normalizeLiterals rewrites Python constant literals into their JSON
// equivalents outside of double-quoted spans.
func normalizeLiterals(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))

	inString := false
	escaped := false

	for i := 0; i < len(raw); i++ {
		c := raw[i]

		if escaped {
			b.WriteByte(c)
			escaped = false
			continue
		}

		if c == '\\' && inString {
			b.WriteByte(c)
			escaped = true
			continue
		}

		if c == '"' {
			inString = !inString
			b.WriteByte(c)
			continue
		}

		if !inString {
			if lit, repl := matchLiteral(raw, i); lit > 0 {
				b.WriteString(repl)
				i += lit - 1
				continue
			}
		}

		b.WriteByte(c)
	}

	return b.String()
}

// matchLiteral reports the length of a Python constant literal starting at
// offset i and its JSON replacement, or 0 when none matches. Word boundaries
// are checked on both sides so identifiers like "Trueish" pass through.
func matchLiteral(raw string, i int) (int, string) {
	literals := []struct {
		python string
		json   string
	}{
		{"True", "true"},
		{"False", "false"},
		{"None", "null"},
	}

	for _, lit := range literals {
		if !strings.HasPrefix(raw[i:], lit.python) {
			continue
		}
		if i > 0 && isWordByte(raw[i-1]) {
			continue
		}
		end := i + len(lit.python)
		if end < len(raw) && isWordByte(raw[end]) {
			continue
		}
		return len(lit.python), lit.json
	}
	return 0, ""
}

func isWordByte(c byte) bool {
	return c == '_' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9')
}

// nextNonSpace returns the first non-whitespace byte at or after offset i,
// or 0 when the rest of the string is whitespace.
func nextNonSpace(raw string, i int) byte {
	for ; i < len(raw); i++ {
		switch raw[i] {
		case ' ', '\t', '\n', '\r':
			continue
		default:
			return raw[i]
		}
	}
	return 0
}
