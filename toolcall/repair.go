package toolcall

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	errNotObject     = errors.New("arguments are not a JSON object")
	codeFenceRe      = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$")
	errEmptyArgument = errors.New("empty arguments")
)

// NormalizeArguments returns the compact JSON object text for raw tool
// arguments. Valid input is only compacted; invalid input gets exactly one
// tolerant repair pass before an error is returned.
func NormalizeArguments(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "{}", nil
	}
	if out, err := asObject(s); err == nil {
		return out, nil
	}

	repaired := Repair(s)
	out, err := asObject(repaired)
	if err != nil {
		return "", fmt.Errorf("decode %q: %w", truncate(raw, 120), err)
	}
	return out, nil
}

// FromRaw converts a vendor arguments value into text. Some vendors send a
// structured object where a pre-serialized string is expected.
func FromRaw(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ""
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return s
		}
	}
	return string(trimmed)
}

// asObject validates s as a JSON object, unwrapping one level of string
// encoding, and returns it compacted.
func asObject(s string) (string, error) {
	if s == "" {
		return "", errEmptyArgument
	}
	if !json.Valid([]byte(s)) {
		return "", errors.New("invalid JSON")
	}
	if s[0] == '"' {
		var inner string
		if err := json.Unmarshal([]byte(s), &inner); err != nil {
			return "", err
		}
		inner = strings.TrimSpace(inner)
		if inner == "" {
			return "{}", nil
		}
		if !json.Valid([]byte(inner)) {
			return "", errors.New("invalid JSON in string-encoded arguments")
		}
		s = inner
	}
	if s[0] != '{' {
		return "", errNotObject
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(s)); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Repair applies best-effort fixes for malformations typically caused by
// fragment boundaries or chatty models: code fences, trailing garbage after
// the first object, trailing commas, unterminated strings and missing
// closing brackets.
func Repair(s string) string {
	s = strings.TrimSpace(s)
	if m := codeFenceRe.FindStringSubmatch(s); m != nil {
		s = m[1]
	}
	if i := strings.IndexByte(s, '{'); i > 0 {
		s = s[i:]
	}
	if first, ok := firstValue(s); ok {
		return first
	}
	return closeOpen(s)
}

// firstValue returns the first complete JSON value of s, dropping anything
// after it (e.g. duplicated objects from a resent fragment).
func firstValue(s string) (string, bool) {
	dec := json.NewDecoder(strings.NewReader(s))
	var v json.RawMessage
	if err := dec.Decode(&v); err != nil {
		return "", false
	}
	return string(v), true
}

// closeOpen terminates an unterminated string, drops trailing commas before
// closers and appends the closers for every bracket still open at the end of
// s. String contents are copied verbatim.
func closeOpen(s string) string {
	var (
		out      = make([]byte, 0, len(s)+4)
		stack    []byte
		inString bool
		escaped  bool
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			out = append(out, c)
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			out = dropTrailingComma(out)
			if len(stack) > 0 && stack[len(stack)-1] == c {
				stack = stack[:len(stack)-1]
			}
		}
		out = append(out, c)
	}

	if inString {
		if escaped {
			out = append(out, '\\')
		}
		out = append(out, '"')
	} else {
		out = dropTrailingComma(out)
	}
	for i := len(stack) - 1; i >= 0; i-- {
		out = append(out, stack[i])
	}
	return string(out)
}

// dropTrailingComma removes a comma (and the whitespace after it) ending b.
func dropTrailingComma(b []byte) []byte {
	trimmed := bytes.TrimRight(b, " \t\r\n")
	if n := len(trimmed); n > 0 && trimmed[n-1] == ',' {
		return trimmed[:n-1]
	}
	return b
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
