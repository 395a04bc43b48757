package validation

import (
	"errors"
	"testing"

	"github.com/goliatone/go-formflow/pkg/descriptor"
)

func intptr(v int) *int { return &v }

func compiledFixture(t *testing.T) Schema {
	t.Helper()
	d := descriptor.Descriptor{
		Blocks: []descriptor.Block{
			{
				ID: "applicant",
				Fields: []descriptor.Field{
					{
						ID:   "name",
						Type: descriptor.FieldTypeText,
						Validation: []descriptor.ValidationRule{
							{Kind: descriptor.ValidationRuleRequired},
							{Kind: descriptor.ValidationRuleMinLength, Parameter: "2"},
						},
					},
					{
						ID:   "zip",
						Type: descriptor.FieldTypeText,
						Validation: []descriptor.ValidationRule{
							{Kind: descriptor.ValidationRulePattern, Parameter: `^\d{5}$`, Message: "must be a 5 digit code"},
						},
					},
					{
						ID:   "age",
						Type: descriptor.FieldTypeNumber,
						Validation: []descriptor.ValidationRule{
							{Kind: descriptor.ValidationRuleMin, Parameter: "18"},
							{Kind: descriptor.ValidationRuleMax, Parameter: "120"},
						},
					},
					{
						ID:   "terms",
						Type: descriptor.FieldTypeCheckbox,
						Validation: []descriptor.ValidationRule{
							{Kind: descriptor.ValidationRuleRequired, Message: "must be accepted"},
						},
					},
					{ID: "more", Type: descriptor.FieldTypePopinTrigger},
				},
			},
			{
				ID:           "contacts",
				Repeatable:   true,
				MinInstances: intptr(1),
				MaxInstances: intptr(3),
				Fields: []descriptor.Field{
					{
						ID:                "contacts.phone",
						Type:              descriptor.FieldTypeText,
						RepeatableGroupID: "contacts",
						Validation: []descriptor.ValidationRule{
							{Kind: descriptor.ValidationRuleRequired},
						},
					},
					{
						ID:                "contacts.email",
						Type:              descriptor.FieldTypeText,
						RepeatableGroupID: "contacts",
					},
				},
			},
			{
				ID:           "shadow-template",
				TemplateOnly: true,
				Fields: []descriptor.Field{
					{ID: "ghost", Type: descriptor.FieldTypeText, Validation: []descriptor.ValidationRule{{Kind: "bogus"}}},
				},
			},
		},
	}

	schema, err := Compile(d)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	return schema
}

func TestCompile_SchemaShape(t *testing.T) {
	schema := compiledFixture(t)

	for _, id := range []string{"name", "zip", "age", "terms"} {
		if _, ok := schema.Fields[id]; !ok {
			t.Fatalf("missing scalar entry for %q", id)
		}
	}
	if _, ok := schema.Fields["more"]; ok {
		t.Fatalf("popin trigger must not own a schema entry")
	}
	if _, ok := schema.Fields["ghost"]; ok {
		t.Fatalf("template-only block must be skipped at compile time")
	}

	group, ok := schema.Groups["contacts"]
	if !ok {
		t.Fatalf("missing group entry for contacts")
	}
	if group.MinItems == nil || *group.MinItems != 1 {
		t.Fatalf("group min bound = %v, want 1", group.MinItems)
	}
	if group.MaxItems == nil || *group.MaxItems != 3 {
		t.Fatalf("group max bound = %v, want 3", group.MaxItems)
	}
	if _, ok := group.Element["phone"]; !ok {
		t.Fatalf("group element keys must be de-prefixed: %v", group.Element)
	}
}

func TestValidate_GroupCardinalityBoundaries(t *testing.T) {
	schema := compiledFixture(t)
	instances := func(n int) []any {
		out := make([]any, 0, n)
		for i := 0; i < n; i++ {
			out = append(out, map[string]any{"phone": "555-0100"})
		}
		return out
	}

	cases := []struct {
		name  string
		count int
		valid bool
	}{
		{"below min", 0, false},
		{"at min", 1, true},
		{"at max", 3, true},
		{"above max", 4, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			values := map[string]any{
				"name":     "Ada",
				"zip":      "12345",
				"age":      float64(30),
				"terms":    true,
				"contacts": instances(tc.count),
			}
			result := schema.Validate(values)
			if result.Valid != tc.valid {
				t.Fatalf("count %d: valid = %v, want %v; issues %v", tc.count, result.Valid, tc.valid, result.Issues)
			}
		})
	}
}

func TestValidate_PatternAndRequiredOrdering(t *testing.T) {
	schema := compiledFixture(t)
	base := func() map[string]any {
		return map[string]any{
			"name":     "Ada",
			"zip":      "12345",
			"age":      float64(30),
			"terms":    true,
			"contacts": []any{map[string]any{"phone": "555-0100"}},
		}
	}

	ok := schema.Validate(base())
	if !ok.Valid {
		t.Fatalf("conforming values must pass: %v", ok.Issues)
	}

	bad := base()
	bad["zip"] = "1234a"
	result := schema.Validate(bad)
	if result.Valid {
		t.Fatalf("pattern violation must fail")
	}
	found := false
	for _, issue := range result.Issues {
		if issue.Path == "zip" && issue.Message == "must be a 5 digit code" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected zip pattern issue, got %v", result.Issues)
	}

	// An empty optional value is a required concern, not a pattern one.
	empty := base()
	empty["zip"] = ""
	if result := schema.Validate(empty); !result.Valid {
		t.Fatalf("empty value must pass pattern-only rules: %v", result.Issues)
	}
}

func TestValidate_CoercionBeforeRules(t *testing.T) {
	schema := compiledFixture(t)
	values := map[string]any{
		"name":     "Ada",
		"zip":      "12345",
		"age":      "42",
		"terms":    "true",
		"contacts": []any{map[string]any{"phone": "555-0100"}},
	}
	if result := schema.Validate(values); !result.Valid {
		t.Fatalf("string forms of number/checkbox values must coerce: %v", result.Issues)
	}

	values["age"] = "12"
	result := schema.Validate(values)
	if result.Valid {
		t.Fatalf("coerced number must still hit the min bound")
	}
}

func TestValidate_RequiredCheckbox(t *testing.T) {
	schema := compiledFixture(t)
	values := map[string]any{
		"name":     "Ada",
		"zip":      "12345",
		"age":      float64(30),
		"terms":    false,
		"contacts": []any{map[string]any{"phone": "555-0100"}},
	}
	result := schema.Validate(values)
	if result.Valid {
		t.Fatalf("unchecked required checkbox must fail")
	}
	if result.Issues[len(result.Issues)-1].Path != "terms" && result.Issues[0].Path != "terms" {
		t.Fatalf("expected a terms issue, got %v", result.Issues)
	}
}

func TestValidate_GroupMemberPaths(t *testing.T) {
	schema := compiledFixture(t)
	values := map[string]any{
		"name":     "Ada",
		"zip":      "12345",
		"age":      float64(30),
		"terms":    true,
		"contacts": []any{map[string]any{"email": "a@example.com"}},
	}
	result := schema.Validate(values)
	if result.Valid {
		t.Fatalf("missing required group member must fail")
	}
	found := false
	for _, issue := range result.Issues {
		if issue.Path == "contacts[0].phone" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected indexed member path, got %v", result.Issues)
	}
}

func TestCompile_Errors(t *testing.T) {
	cases := []struct {
		name string
		rule descriptor.ValidationRule
		kind string
	}{
		{"unknown kind", descriptor.ValidationRule{Kind: "uniqueEmail"}, "uniqueEmail"},
		{"missing parameter", descriptor.ValidationRule{Kind: descriptor.ValidationRuleMinLength}, descriptor.ValidationRuleMinLength},
		{"non numeric bound", descriptor.ValidationRule{Kind: descriptor.ValidationRuleMin, Parameter: "lots"}, descriptor.ValidationRuleMin},
		{"broken pattern", descriptor.ValidationRule{Kind: descriptor.ValidationRulePattern, Parameter: "("}, descriptor.ValidationRulePattern},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := descriptor.Descriptor{
				Blocks: []descriptor.Block{
					{
						ID: "b",
						Fields: []descriptor.Field{
							{ID: "f", Type: descriptor.FieldTypeText, Validation: []descriptor.ValidationRule{tc.rule}},
						},
					},
				},
			}
			_, err := Compile(d)
			var compileErr SchemaCompileError
			if !errors.As(err, &compileErr) {
				t.Fatalf("expected SchemaCompileError, got %v", err)
			}
			if compileErr.FieldID != "f" || compileErr.Kind != tc.kind {
				t.Fatalf("error context wrong: %+v", compileErr)
			}
		})
	}
}
