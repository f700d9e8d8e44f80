package mapping

import (
	"strconv"
	"strings"
)

// MapFieldValue resolves a dotted/indexed path like "fields.components[0].name"
// against a semi-structured record. It returns nil as soon as any segment is
// missing, nil, or of the wrong shape; it never panics. Missing data is an
// expected condition, not an error.
func MapFieldValue(record map[string]any, path string) any {
	if record == nil || path == "" {
		return nil
	}

	current := any(record)
	for _, segment := range strings.Split(path, ".") {
		name, indexes, ok := parseSegment(segment)
		if !ok {
			return nil
		}

		if name != "" {
			m, ok := current.(map[string]any)
			if !ok {
				return nil
			}
			v, exists := m[name]
			if !exists || v == nil {
				return nil
			}
			current = v
		}

		for _, idx := range indexes {
			list, ok := current.([]any)
			if !ok || idx < 0 || idx >= len(list) {
				return nil
			}
			v := list[idx]
			if v == nil {
				return nil
			}
			current = v
		}
	}

	return current
}

// MapFieldString resolves a path and coerces the result to a string. Non-string
// leaves resolve to the empty string, like a missing segment.
func MapFieldString(record map[string]any, path string) string {
	v := MapFieldValue(record, path)
	if v == nil {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}

// parseSegment splits one path segment into its field name and index suffixes,
// e.g. "components[0]" -> ("components", [0]). A bare index segment like
// "[2]" (continuing a previous list) is also accepted.
func parseSegment(segment string) (string, []int, bool) {
	if segment == "" {
		return "", nil, false
	}

	bracket := strings.IndexByte(segment, '[')
	if bracket == -1 {
		if strings.IndexByte(segment, ']') != -1 {
			return "", nil, false
		}
		return segment, nil, true
	}

	name := segment[:bracket]
	rest := segment[bracket:]

	var indexes []int
	for rest != "" {
		if rest[0] != '[' {
			return "", nil, false
		}
		close := strings.IndexByte(rest, ']')
		if close == -1 {
			return "", nil, false
		}
		idx, err := strconv.Atoi(rest[1:close])
		if err != nil {
			return "", nil, false
		}
		indexes = append(indexes, idx)
		rest = rest[close+1:]
	}

	return name, indexes, true
}
