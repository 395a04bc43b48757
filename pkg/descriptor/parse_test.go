package descriptor

import (
	"strings"
	"testing"
)

func TestParse_JSONDocument(t *testing.T) {
	raw := []byte(`{
  "version": "1",
  "blocks": [
    {
      "id": "applicant",
      "title": "Applicant",
      "fields": [
        {
          "id": "name",
          "type": "text",
          "label": "Full name",
          "validation": [{"kind": "required", "message": "name is required"}]
        },
        {
          "id": "country",
          "type": "dropdown",
          "isDiscriminant": true,
          "items": [{"value": "US", "label": "United States"}]
        }
      ],
      "status": {"hidden": "{{isEmpty caseId}}"}
    }
  ],
  "submission": {"method": "POST", "url": "/api/applications"}
}`)

	d, err := Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(d.Blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(d.Blocks))
	}
	block := d.Blocks[0]
	if block.Status == nil || block.Status.Hidden != "{{isEmpty caseId}}" {
		t.Fatalf("status not parsed: %#v", block.Status)
	}
	if !block.Fields[1].IsDiscriminant {
		t.Fatalf("discriminant flag lost")
	}
	if d.Submission == nil || d.Submission.Method != "POST" {
		t.Fatalf("submission not parsed: %#v", d.Submission)
	}
}

func TestParse_YAMLDocument(t *testing.T) {
	raw := []byte(`
version: "1"
blocks:
  - id: contacts
    repeatable: true
    repeatableBlockRef: contact-template
    minInstances: 1
  - id: contact-template
    fields:
      - id: phone
        type: text
`)

	d, err := Parse(raw)
	if err != nil {
		t.Fatalf("parse yaml: %v", err)
	}
	if !d.Blocks[0].Repeatable || d.Blocks[0].RepeatableBlockRef != "contact-template" {
		t.Fatalf("repeatable block not parsed: %#v", d.Blocks[0])
	}
	if d.Blocks[0].MinInstances == nil || *d.Blocks[0].MinInstances != 1 {
		t.Fatalf("minInstances not parsed")
	}
}

func TestParse_SanitizesMarkup(t *testing.T) {
	raw := []byte(`{
  "blocks": [
    {
      "id": "b",
      "title": "Hello <script>alert(1)</script>",
      "fields": [{"id": "f", "type": "text", "label": "<b>Name</b>"}]
    }
  ]
}`)

	d, err := Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if strings.Contains(d.Blocks[0].Title, "<script>") {
		t.Fatalf("script tag survived sanitization: %q", d.Blocks[0].Title)
	}
	if d.Blocks[0].Fields[0].Label != "Name" {
		t.Fatalf("label markup survived: %q", d.Blocks[0].Fields[0].Label)
	}
}

func TestParse_StructuralInvariants(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{
			name: "duplicate block ids",
			raw:  `{"blocks": [{"id": "a"}, {"id": "a"}]}`,
		},
		{
			name: "duplicate field ids",
			raw:  `{"blocks": [{"id": "a", "fields": [{"id": "f", "type": "text"}, {"id": "f", "type": "text"}]}]}`,
		},
		{
			name: "items and dataSource together",
			raw: `{"blocks": [{"id": "a", "fields": [{"id": "f", "type": "dropdown",
				"items": [{"value": "x"}],
				"dataSource": {"url": "/opts", "itemShape": {"value": "{{id}}", "label": "{{name}}"}}}]}]}`,
		},
		{
			name: "subFormRef and repeatableBlockRef together",
			raw:  `{"blocks": [{"id": "a", "subFormRef": "x", "repeatableBlockRef": "y"}]}`,
		},
		{
			name: "unknown field type",
			raw:  `{"blocks": [{"id": "a", "fields": [{"id": "f", "type": "slider"}]}]}`,
		},
		{
			name: "max below min",
			raw:  `{"blocks": [{"id": "a", "repeatable": true, "repeatableBlockRef": "t", "minInstances": 3, "maxInstances": 1}]}`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Parse([]byte(tc.raw)); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestFieldType_Coerce(t *testing.T) {
	if got := FieldTypeNumber.Coerce("42.5"); got != 42.5 {
		t.Fatalf("number coercion = %#v", got)
	}
	if got := FieldTypeNumber.Coerce("abc"); got != "abc" {
		t.Fatalf("non-numeric string should pass through, got %#v", got)
	}
	if got := FieldTypeCheckbox.Coerce("TRUE"); got != true {
		t.Fatalf("checkbox coercion = %#v", got)
	}
	if got := FieldTypeCheckbox.Coerce("false"); got != false {
		t.Fatalf("checkbox coercion = %#v", got)
	}
	if got := FieldTypeText.Coerce("42"); got != "42" {
		t.Fatalf("text coercion should pass through, got %#v", got)
	}
}

func TestClone_IsDeep(t *testing.T) {
	min := 1
	d := Descriptor{
		Blocks: []Block{
			{
				ID:           "a",
				MinInstances: &min,
				Fields: []Field{
					{
						ID:         "f",
						Type:       FieldTypeText,
						Validation: []ValidationRule{{Kind: ValidationRuleRequired}},
						Status:     &Status{Hidden: "{{flag}}"},
					},
				},
			},
		},
	}

	clone := d.Clone()
	clone.Blocks[0].Fields[0].Validation[0].Kind = "mutated"
	clone.Blocks[0].Fields[0].Status.Hidden = "mutated"
	*clone.Blocks[0].MinInstances = 9

	if d.Blocks[0].Fields[0].Validation[0].Kind != ValidationRuleRequired {
		t.Fatalf("validation slice shared between clone and original")
	}
	if d.Blocks[0].Fields[0].Status.Hidden != "{{flag}}" {
		t.Fatalf("status shared between clone and original")
	}
	if *d.Blocks[0].MinInstances != 1 {
		t.Fatalf("minInstances shared between clone and original")
	}
}
