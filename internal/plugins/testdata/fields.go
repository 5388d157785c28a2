package testdata

import "strings"

// Field is one key/value pair of a test case's input data.
type Field struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// ParseFields decodes test_data text, one `key: "value"` pair per line.
// Each line is split at its first ": ". Lines without the separator or
// with an empty key or value are skipped. One pair of surrounding quotes
// is removed from the value.
func ParseFields(s string) []Field {
	var out []Field
	for _, line := range strings.Split(s, "\n") {
		key, value, ok := strings.Cut(line, ": ")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = unquote(strings.TrimSpace(value))
		if key == "" || value == "" {
			continue
		}
		out = append(out, Field{Key: key, Value: value})
	}
	return out
}

// FormatFields encodes fields as `key: "value"` lines. Pairs with an empty
// key or value are dropped.
func FormatFields(fields []Field) string {
	var b strings.Builder
	for _, f := range fields {
		key, value := strings.TrimSpace(f.Key), strings.TrimSpace(f.Value)
		if key == "" || value == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(key)
		b.WriteString(`: "`)
		b.WriteString(value)
		b.WriteByte('"')
	}
	return b.String()
}

func unquote(v string) string {
	if len(v) >= 2 && v[0] == '"' && v[len(v)-1] == '"' {
		return v[1 : len(v)-1]
	}
	return v
}
