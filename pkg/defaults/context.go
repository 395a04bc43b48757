package defaults

import "github.com/goliatone/go-formflow/pkg/descriptor"

// IdentifyDiscriminantFields filters the fields whose values change the
// applicable business rules.
func IdentifyDiscriminantFields(fields []descriptor.Field) []descriptor.Field {
	var out []descriptor.Field
	for _, field := range fields {
		if field.IsDiscriminant {
			out = append(out, field)
		}
	}
	return out
}

// Discriminants collects the discriminant fields across every primary block.
func Discriminants(d descriptor.Descriptor) []descriptor.Field {
	var out []descriptor.Field
	for _, block := range d.PrimaryBlocks() {
		out = append(out, IdentifyDiscriminantFields(block.Fields)...)
	}
	return out
}

// UpdateCaseContext returns a new context holding the discriminant fields'
// current values merged over the previous context. Neither input is mutated.
func UpdateCaseContext(prev descriptor.CaseContext, formValues map[string]any, discriminants []descriptor.Field) descriptor.CaseContext {
	out := prev.Clone()
	if out == nil {
		out = make(descriptor.CaseContext)
	}
	for _, field := range discriminants {
		if value, ok := formValues[field.ID]; ok {
			out[field.ID] = value
		}
	}
	return out
}

// HasContextChanged performs a shallow key-wise inequality check restricted
// to keys present in either context.
func HasContextChanged(a, b descriptor.CaseContext) bool {
	for key, value := range a {
		if !equalValue(value, b[key]) {
			return true
		}
	}
	for key := range b {
		if _, ok := a[key]; !ok {
			return true
		}
	}
	return false
}

func equalValue(a, b any) bool {
	if left, ok := a.([]string); ok {
		right, ok := b.([]string)
		return ok && equalStrings(left, right)
	}
	if left, ok := a.([]any); ok {
		right, ok := b.([]any)
		if !ok || len(left) != len(right) {
			return false
		}
		for i := range left {
			if !equalValue(left[i], right[i]) {
				return false
			}
		}
		return true
	}
	return a == b
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
