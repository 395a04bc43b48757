// Package validation compiles resolved descriptors into executable
// validation schemas.
package validation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/goliatone/go-formflow/pkg/descriptor"
)

// Issue represents a validation failure with the dotted path of the offending
// value.
type Issue struct {
	Path    string `json:"path,omitempty"`
	Message string `json:"message"`
}

// Result captures the outcome of validating a value set against a compiled
// schema.
type Result struct {
	Valid  bool    `json:"valid"`
	Issues []Issue `json:"issues,omitempty"`
}

// ScalarSchema validates a single value-bearing field: a type-driven coercion
// step followed by the field's ordered rule chain. A field with no rules
// still owns a coherent, permissive entry.
type ScalarSchema struct {
	Type  descriptor.FieldType
	rules []compiledRule
}

// Validate coerces the value to the field's native type and runs the rule
// chain. The returned issues carry the supplied path.
func (s ScalarSchema) Validate(path string, value any) []Issue {
	typed := s.Type.Coerce(value)
	var issues []Issue
	for _, rule := range s.rules {
		if ok := rule.check(typed); !ok {
			issues = append(issues, Issue{Path: path, Message: rule.message})
		}
	}
	return issues
}

// GroupSchema validates a repeatable group: an array whose elements are
// objects of the group's de-prefixed field schemas, with optional length
// bounds taken from the owning block.
type GroupSchema struct {
	MinItems *int
	MaxItems *int
	Element  map[string]ScalarSchema
}

// Validate checks the array length bounds and every element's members.
func (g GroupSchema) Validate(path string, value any) []Issue {
	items, ok := asInstances(value)
	if !ok && value != nil {
		return []Issue{{Path: path, Message: "must be a list of entries"}}
	}

	var issues []Issue
	if g.MinItems != nil && len(items) < *g.MinItems {
		issues = append(issues, Issue{
			Path:    path,
			Message: fmt.Sprintf("requires at least %d entries", *g.MinItems),
		})
	}
	if g.MaxItems != nil && len(items) > *g.MaxItems {
		issues = append(issues, Issue{
			Path:    path,
			Message: fmt.Sprintf("allows at most %d entries", *g.MaxItems),
		})
	}

	for i, item := range items {
		for member, schema := range g.Element {
			memberPath := fmt.Sprintf("%s[%d].%s", path, i, member)
			issues = append(issues, schema.Validate(memberPath, item[member])...)
		}
	}
	return issues
}

func asInstances(value any) ([]map[string]any, bool) {
	switch typed := value.(type) {
	case nil:
		return nil, true
	case []map[string]any:
		return typed, true
	case []any:
		out := make([]map[string]any, 0, len(typed))
		for _, item := range typed {
			entry, ok := item.(map[string]any)
			if !ok {
				return nil, false
			}
			out = append(out, entry)
		}
		return out, true
	default:
		return nil, false
	}
}

// Schema maps top-level field paths to scalar schemas and repeatable group
// ids to array schemas.
type Schema struct {
	Fields map[string]ScalarSchema
	Groups map[string]GroupSchema
}

// Validate runs every entry against the supplied value set.
func (s Schema) Validate(values map[string]any) Result {
	var issues []Issue
	for _, path := range sortedKeys(s.Fields) {
		issues = append(issues, s.Fields[path].Validate(path, values[path])...)
	}
	for _, group := range sortedKeys(s.Groups) {
		issues = append(issues, s.Groups[group].Validate(group, values[group])...)
	}
	return Result{Valid: len(issues) == 0, Issues: issues}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func deprefix(fieldID, groupID string) string {
	return strings.TrimPrefix(fieldID, groupID+".")
}
