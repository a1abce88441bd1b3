package utils

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	hjson "github.com/hjson/hjson-go/v4"
)

// ParseHJSON parses Human-friendly JSON (Hjson) and returns standard JSON.
// Hjson supports comments, unquoted keys, unquoted strings and optional commas,
// which suits hand-edited input tables.
func ParseHJSON(hjsonData string) (string, error) {
	var result interface{}
	err := hjson.Unmarshal([]byte(hjsonData), &result)
	if err != nil {
		return "", fmt.Errorf("HJSON_PARSE_ERROR: %v", err)
	}

	jsonBytes, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("JSON_MARSHAL_ERROR: %v", err)
	}

	return string(jsonBytes), nil
}

// RepairJSON fixes trailing commas, single quotes, unquoted keys and
// unclosed brackets using github.com/RealAlexandreAI/json-repair.
// The repairer round-trips decimals through float32 and rebuilds objects as
// maps, so each number in its output is traced back to the input literal it
// came from and written at full precision.
func RepairJSON(malformedJSON string) (string, error) {
	repaired, err := jsonrepair.RepairJSON(malformedJSON)
	if err != nil {
		return "", fmt.Errorf("JSON_REPAIR_FAILED: %v", err)
	}
	return restoreNumbers(malformedJSON, repaired)
}

// restoreNumbers replaces every number of repaired with the input value whose
// exact or float32-rounded form it equals. A number with no source, or with
// two distinct candidate sources, is an error.
func restoreNumbers(original, repaired string) (string, error) {
	sources := map[float64][]float64{}
	for _, sp := range numberSpans(original) {
		v, err := strconv.ParseFloat(original[sp[0]:sp[1]], 64)
		if err != nil {
			continue
		}
		sources[v] = append(sources[v], v)
		if img := float64(float32(v)); img != v {
			sources[img] = append(sources[img], v)
		}
	}

	var b strings.Builder
	last := 0
	for _, sp := range numberSpans(repaired) {
		tok := repaired[sp[0]:sp[1]]
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return "", fmt.Errorf("JSON_REPAIR_FAILED: %v", err)
		}
		cands := sources[v]
		if len(cands) == 0 {
			return "", fmt.Errorf("JSON_REPAIR_FAILED: %s has no source value", tok)
		}
		for _, c := range cands[1:] {
			if c != cands[0] {
				return "", fmt.Errorf("JSON_REPAIR_FAILED: %s matches both %v and %v", tok, cands[0], c)
			}
		}
		b.WriteString(repaired[last:sp[0]])
		b.WriteString(strconv.FormatFloat(cands[0], 'g', -1, 64))
		last = sp[1]
	}
	b.WriteString(repaired[last:])
	return b.String(), nil
}

// numberSpans locates numeric literals outside quoted strings. Digits that
// continue a word (unquoted keys such as k2) are not numbers.
func numberSpans(s string) [][2]int {
	var spans [][2]int
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '"' || c == '\'' {
			i = skipString(s, i)
			continue
		}
		if !(c == '-' || isDigit(c)) || (i > 0 && isWordByte(s[i-1])) {
			continue
		}
		j := i + 1
		digits := isDigit(c)
		for j < len(s) {
			d := s[j]
			if isDigit(d) {
				digits = true
			} else if !(d == '.' || d == 'e' || d == 'E' || ((d == '+' || d == '-') && (s[j-1] == 'e' || s[j-1] == 'E'))) {
				break
			}
			j++
		}
		if digits {
			spans = append(spans, [2]int{i, j})
		}
		i = j - 1
	}
	return spans
}

func skipString(s string, start int) int {
	quote := s[start]
	for i := start + 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case quote:
			return i
		}
	}
	return len(s)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isWordByte(c byte) bool {
	return isDigit(c) || c == '_' || c == '.' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// SmartDecode tries multiple parsing strategies and decodes into out.
// Order of attempts:
// 1. Standard JSON
// 2. Hjson
// 3. JSON repair for anything still broken (unclosed brackets, single quotes)
func SmartDecode(input string, out interface{}) error {
	// Try 1: Standard JSON
	if err := json.Unmarshal([]byte(input), out); err == nil {
		return nil
	}

	// Try 2: Hjson
	if hjsonResult, err := ParseHJSON(input); err == nil {
		if err := json.Unmarshal([]byte(hjsonResult), out); err == nil {
			return nil
		}
	}

	// Try 3: JSON Repair
	repaired, err := RepairJSON(input)
	if err != nil {
		return fmt.Errorf("SMART_PARSE_FAILED: %v", err)
	}
	if err := json.Unmarshal([]byte(repaired), out); err != nil {
		return fmt.Errorf("SMART_PARSE_FAILED: %v", err)
	}
	return nil
}
