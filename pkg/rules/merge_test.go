package rules

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formflow/pkg/descriptor"
)

func strptr(s string) *string { return &s }

func baseDescriptor() descriptor.Descriptor {
	return descriptor.Descriptor{
		Blocks: []descriptor.Block{
			{
				ID: "applicant",
				Status: &descriptor.Status{
					Hidden:   `{{eq mode "review"}}`,
					Disabled: `{{locked}}`,
				},
				Fields: []descriptor.Field{
					{
						ID:   "name",
						Type: descriptor.FieldTypeText,
						Validation: []descriptor.ValidationRule{
							{Kind: descriptor.ValidationRuleRequired},
							{Kind: descriptor.ValidationRuleMaxLength, Parameter: "40"},
						},
					},
					{
						ID:     "email",
						Type:   descriptor.FieldTypeText,
						Status: &descriptor.Status{Hidden: `{{isEmpty name}}`},
					},
				},
			},
		},
	}
}

func TestMerge_PurityAndDeterminism(t *testing.T) {
	base := baseDescriptor()
	snapshot := base.Clone()
	delta := descriptor.RuleDelta{
		Fields: []descriptor.DeltaEntry{
			{
				ID:         "name",
				Validation: []descriptor.ValidationRule{{Kind: descriptor.ValidationRuleMinLength, Parameter: "2"}},
				Status:     &descriptor.StatusDelta{Hidden: strptr(`{{eq country "UK"}}`)},
			},
		},
	}
	deltaSnapshot := descriptor.RuleDelta{
		Fields: []descriptor.DeltaEntry{
			{
				ID:         "name",
				Validation: []descriptor.ValidationRule{{Kind: descriptor.ValidationRuleMinLength, Parameter: "2"}},
				Status:     &descriptor.StatusDelta{Hidden: strptr(`{{eq country "UK"}}`)},
			},
		},
	}

	first := Merge(base, delta)
	second := Merge(base, delta)

	if diff := cmp.Diff(snapshot, base); diff != "" {
		t.Fatalf("merge mutated the resolved descriptor (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(deltaSnapshot, delta); diff != "" {
		t.Fatalf("merge mutated the delta (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("merge is not deterministic (-first +second):\n%s", diff)
	}
}

func TestMerge_ValidationFullyReplaces(t *testing.T) {
	delta := descriptor.RuleDelta{
		Fields: []descriptor.DeltaEntry{
			{ID: "name", Validation: []descriptor.ValidationRule{{Kind: descriptor.ValidationRuleMinLength, Parameter: "2"}}},
		},
	}

	got := Merge(baseDescriptor(), delta)

	field := got.Blocks[0].Fields[0]
	if len(field.Validation) != 1 || field.Validation[0].Kind != descriptor.ValidationRuleMinLength {
		t.Fatalf("delta validation should replace, not append: %#v", field.Validation)
	}
}

func TestMerge_EmptyValidationSliceClearsRules(t *testing.T) {
	delta := descriptor.RuleDelta{
		Fields: []descriptor.DeltaEntry{
			{ID: "name", Validation: []descriptor.ValidationRule{}},
		},
	}

	got := Merge(baseDescriptor(), delta)

	if len(got.Blocks[0].Fields[0].Validation) != 0 {
		t.Fatalf("non-nil empty slice should clear base rules: %#v", got.Blocks[0].Fields[0].Validation)
	}
}

func TestMerge_NilValidationLeavesRules(t *testing.T) {
	delta := descriptor.RuleDelta{
		Fields: []descriptor.DeltaEntry{
			{ID: "name", Status: &descriptor.StatusDelta{Disabled: strptr(`{{submitted}}`)}},
		},
	}

	got := Merge(baseDescriptor(), delta)

	field := got.Blocks[0].Fields[0]
	if len(field.Validation) != 2 {
		t.Fatalf("status-only entry must leave validation intact: %#v", field.Validation)
	}
	if field.Status == nil || field.Status.Disabled != `{{submitted}}` {
		t.Fatalf("disabled expression not applied: %#v", field.Status)
	}
}

func TestMerge_StatusKeysReplaceIndependently(t *testing.T) {
	delta := descriptor.RuleDelta{
		Blocks: []descriptor.DeltaEntry{
			{ID: "applicant", Status: &descriptor.StatusDelta{Hidden: strptr(`{{eq stage "done"}}`)}},
		},
	}

	got := Merge(baseDescriptor(), delta)

	status := got.Blocks[0].Status
	if status.Hidden != `{{eq stage "done"}}` {
		t.Fatalf("hidden not replaced: %q", status.Hidden)
	}
	if status.Disabled != `{{locked}}` {
		t.Fatalf("disabled should survive a hidden-only delta: %q", status.Disabled)
	}
}

func TestMerge_EmptyStringClearsStatusKey(t *testing.T) {
	delta := descriptor.RuleDelta{
		Fields: []descriptor.DeltaEntry{
			{ID: "email", Status: &descriptor.StatusDelta{Hidden: strptr("")}},
		},
	}

	got := Merge(baseDescriptor(), delta)

	if got.Blocks[0].Fields[1].Status != nil {
		t.Fatalf("clearing the only expression should drop the status entirely: %#v", got.Blocks[0].Fields[1].Status)
	}
}

func TestMerge_UnknownIDsIgnored(t *testing.T) {
	base := baseDescriptor()
	delta := descriptor.RuleDelta{
		Blocks: []descriptor.DeltaEntry{{ID: "ghost", Status: &descriptor.StatusDelta{Hidden: strptr("x")}}},
		Fields: []descriptor.DeltaEntry{{ID: "phantom", Validation: []descriptor.ValidationRule{{Kind: descriptor.ValidationRuleRequired}}}},
	}

	got := Merge(base, delta)

	if diff := cmp.Diff(base, got); diff != "" {
		t.Fatalf("delta targeting unknown ids must be a no-op (-want +got):\n%s", diff)
	}
}

func TestMerge_EmptyDeltaIsIdentity(t *testing.T) {
	base := baseDescriptor()
	got := Merge(base, descriptor.RuleDelta{})
	if diff := cmp.Diff(base, got); diff != "" {
		t.Fatalf("empty delta should be identity (-want +got):\n%s", diff)
	}
}
