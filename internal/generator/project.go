package generator

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Helpers for projecting the loosely-typed model output onto content
// structs. Each accepts a list of alternative keys since models drift
// between camelCase and snake_case.

func lookup(m map[string]any, keys ...string) (any, bool) {
	if m == nil {
		return nil, false
	}
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func getMap(m map[string]any, keys ...string) map[string]any {
	v, ok := lookup(m, keys...)
	if !ok {
		return nil
	}
	sub, _ := v.(map[string]any)
	return sub
}

func getString(m map[string]any, keys ...string) string {
	v, ok := lookup(m, keys...)
	if !ok {
		return ""
	}
	return stringify(v)
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			if s := stringify(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	case nil:
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

// getStrings accepts either a JSON array or a single comma separated string.
func getStrings(m map[string]any, keys ...string) []string {
	v, ok := lookup(m, keys...)
	if !ok {
		return nil
	}
	var out []string
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			if s := stringify(item); s != "" {
				out = append(out, s)
			}
		}
	case string:
		for _, s := range strings.Split(t, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

var numberRe = regexp.MustCompile(`-?\d[\d.,]*`)

// parseAmount reads numbers such as "$1,299.99", "1.299,99 €", "12,5" or
// "1 299". When both separators appear the last one is the decimal point; a
// lone comma followed by exactly three digits, or a repeated separator,
// groups thousands.
func parseAmount(s string) (float64, bool) {
	match := strings.TrimRight(numberRe.FindString(strings.ReplaceAll(s, " ", "")), ".,")
	if match == "" || match == "-" {
		return 0, false
	}

	dot, comma := strings.LastIndex(match, "."), strings.LastIndex(match, ",")
	switch {
	case dot >= 0 && comma >= 0:
		if comma > dot {
			match = strings.ReplaceAll(match, ".", "")
			match = strings.Replace(match, ",", ".", 1)
		} else {
			match = strings.ReplaceAll(match, ",", "")
		}
	case comma >= 0:
		if strings.Count(match, ",") > 1 || len(match)-comma-1 == 3 {
			match = strings.ReplaceAll(match, ",", "")
		} else {
			match = strings.Replace(match, ",", ".", 1)
		}
	case dot >= 0 && strings.Count(match, ".") > 1:
		match = strings.ReplaceAll(match, ".", "")
	}

	f, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// getNumber reads a number, tolerating price strings (see parseAmount).
func getNumber(m map[string]any, keys ...string) (float64, bool) {
	v, ok := lookup(m, keys...)
	if !ok {
		return 0, false
	}
	switch t := v.(type) {
	case float64:
		return t, true
	case string:
		return parseAmount(t)
	}
	return 0, false
}

func getFloat(m map[string]any, keys ...string) float64 {
	f, _ := getNumber(m, keys...)
	return f
}

// getStringMap flattens an object of scalars into a string map.
func getStringMap(m map[string]any, keys ...string) map[string]string {
	sub := getMap(m, keys...)
	if len(sub) == 0 {
		return nil
	}
	out := make(map[string]string, len(sub))
	for k, v := range sub {
		if s := stringify(v); s != "" {
			out[k] = s
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// getMaps returns the object elements of an array.
func getMaps(m map[string]any, keys ...string) []map[string]any {
	v, ok := lookup(m, keys...)
	if !ok {
		return nil
	}
	items, _ := v.([]any)
	var out []map[string]any
	for _, item := range items {
		if obj, ok := item.(map[string]any); ok {
			out = append(out, obj)
		}
	}
	return out
}
