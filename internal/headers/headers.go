// Package headers parses the extra-headers input into request headers.
package headers

import (
	"net/http"
	"sort"
	"strings"

	"golang.org/x/net/http/httpguts"
)

// Map holds header values keyed by lower-cased header name
type Map map[string]string

// Parse reads a block of "Key: Value" lines. Blank lines are dropped, only
// the first colon separates key from value, and repeated keys are joined
// with ", " in the order they appear. A line without a colon becomes a key
// with an empty value.
func Parse(raw string) Map {
	parsed := make(Map)

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		key, value := line, ""
		if idx := strings.Index(line, ":"); idx >= 0 {
			key, value = line[:idx], line[idx+1:]
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		if existing, ok := parsed[key]; ok && existing != "" {
			parsed[key] = existing + ", " + value
		} else {
			parsed[key] = value
		}
	}

	return parsed
}

// String renders the map as a canonical header block sorted by name
func (m Map) String() string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, len(keys))
	for i, k := range keys {
		lines[i] = k + ": " + m[k]
	}
	return strings.Join(lines, "\n")
}

// Invalid returns, sorted, the names that are not valid HTTP header field
// names, such as a line without a colon that contains spaces
func (m Map) Invalid() []string {
	var names []string
	for k := range m {
		if !httpguts.ValidHeaderFieldName(k) {
			names = append(names, k)
		}
	}
	sort.Strings(names)
	return names
}

// Apply sets every valid header on h. Invalid names are skipped so they
// cannot fail the request.
func (m Map) Apply(h http.Header) {
	for k, v := range m {
		if !httpguts.ValidHeaderFieldName(k) {
			continue
		}
		h.Set(k, v)
	}
}
