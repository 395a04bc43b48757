package expr

import "strings"

// Loop carries the bindings available inside one repeatable-block instance:
// the positional pseudo-variables and the instance's own unprefixed values.
type Loop struct {
	Index  int
	First  bool
	Last   bool
	Values map[string]any
}

// Context is the data scope template expressions evaluate against: live field
// values (flat, and again nested under "formData"), the case context, and
// optional loop bindings.
type Context struct {
	Values map[string]any
	Case   map[string]any
	Loop   *Loop
}

// Lookup resolves a dotted path against the context. Unknown identifiers
// report ok=false; callers treat that as undefined, never as an error.
func (c Context) Lookup(path string) (any, bool) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, false
	}

	if c.Loop != nil {
		switch path {
		case "@index":
			return c.Loop.Index, true
		case "@first":
			return c.Loop.First, true
		case "@last":
			return c.Loop.Last, true
		}
		if value, ok := lookupMap(c.Loop.Values, path); ok {
			return value, true
		}
	}

	if rest, ok := strings.CutPrefix(path, "formData."); ok {
		return lookupMap(c.Values, rest)
	}
	if value, ok := lookupMap(c.Values, path); ok {
		return value, true
	}
	return lookupMap(c.Case, path)
}

func lookupMap(values map[string]any, path string) (any, bool) {
	if len(values) == 0 || path == "" {
		return nil, false
	}

	// Prefer exact match for dotted keys (repeatable-group ids are dotted).
	if v, ok := values[path]; ok {
		return v, true
	}

	parts := strings.Split(path, ".")
	var current any = values
	for _, part := range parts {
		if part == "" {
			return nil, false
		}
		if part == "length" {
			if length, ok := lengthOf(current); ok {
				current = length
				continue
			}
		}
		switch typed := current.(type) {
		case map[string]any:
			next, ok := typed[part]
			if !ok {
				return nil, false
			}
			current = next
		case map[string]string:
			next, ok := typed[part]
			if !ok {
				return nil, false
			}
			current = next
		default:
			return nil, false
		}
	}
	return current, true
}

func lengthOf(value any) (int, bool) {
	switch typed := value.(type) {
	case []any:
		return len(typed), true
	case []string:
		return len(typed), true
	case []map[string]any:
		return len(typed), true
	case string:
		return len(typed), true
	default:
		return 0, false
	}
}
