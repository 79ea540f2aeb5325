package note

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

var sections = []string{"subjective", "objective", "assessment", "plan", "summary"}

// SanitizeJSON coerces raw model or client JSON into a GeneratedNote.
// Anything that is not a JSON object yields an all-empty note. For each
// section: arrays are joined with newlines, null or missing becomes "",
// objects become compact JSON in their original key order and scalars
// their text form. Text is never HTML-escaped.
func SanitizeJSON(raw []byte) GeneratedNote {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return GeneratedNote{}
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return GeneratedNote{}
	}
	out := make([]string, len(sections))
	for i, k := range sections {
		out[i] = rawSection(obj[k])
	}
	return GeneratedNote{Subjective: out[0], Objective: out[1], Assessment: out[2], Plan: out[3], Summary: out[4]}
}

// IsNull reports whether raw is absent or the JSON literal null.
func IsNull(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) == 0 || bytes.Equal(t, []byte("null"))
}

func rawSection(r json.RawMessage) string {
	r = bytes.TrimSpace(r)
	if len(r) > 0 && r[0] == '[' {
		var arr []json.RawMessage
		if err := json.Unmarshal(r, &arr); err != nil {
			return ""
		}
		parts := make([]string, len(arr))
		for i, el := range arr {
			parts[i] = rawScalar(el)
		}
		return strings.Join(parts, "\n")
	}
	return rawScalar(r)
}

func rawScalar(r json.RawMessage) string {
	r = bytes.TrimSpace(r)
	if len(r) == 0 {
		return ""
	}
	switch r[0] {
	case 'n':
		return ""
	case '"':
		var s string
		if err := json.Unmarshal(r, &s); err != nil {
			return ""
		}
		return s
	case '{', '[':
		var buf bytes.Buffer
		if err := json.Compact(&buf, r); err != nil {
			return ""
		}
		return buf.String()
	case 't', 'f':
		return string(r)
	default:
		f, err := strconv.ParseFloat(string(r), 64)
		if err != nil {
			return string(r)
		}
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
}

// SanitizeGenerated is SanitizeJSON for an already decoded value. Go maps
// do not keep key order, so nested objects come out with sorted keys.
func SanitizeGenerated(v interface{}) GeneratedNote {
	switch t := v.(type) {
	case json.RawMessage:
		return SanitizeJSON(t)
	case []byte:
		return SanitizeJSON(t)
	case map[string]interface{}:
		if t == nil {
			return GeneratedNote{}
		}
		b, err := encodeJSON(t)
		if err != nil {
			return GeneratedNote{}
		}
		return SanitizeJSON(b)
	default:
		return GeneratedNote{}
	}
}

func encodeJSON(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
