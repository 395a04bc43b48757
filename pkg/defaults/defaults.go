// Package defaults derives initial values and discriminant case contexts
// from resolved descriptors.
package defaults

import (
	"github.com/goliatone/go-formflow/pkg/descriptor"
	"github.com/goliatone/go-formflow/pkg/expr"
)

// Extract computes the initial value set for a resolved descriptor. Literal
// defaults pass through as authored; template defaults evaluate against the
// context and coerce to the field's native type. Fields without a default
// receive their type-appropriate empty value.
//
// For a repeatable group, one seed instance is emitted when any member field
// declares a default; otherwise the group seeds an empty array.
//
// Expression faults never abort extraction: the affected value degrades to
// empty and the fault is returned for the caller to log.
func Extract(d descriptor.Descriptor, ctx expr.Context) (map[string]any, []error) {
	values := make(map[string]any)
	var faults []error

	type groupSeed struct {
		instance map[string]any
		seeded   bool
	}
	groups := make(map[string]*groupSeed)
	var groupOrder []string

	for _, block := range d.PrimaryBlocks() {
		for _, field := range block.Fields {
			if !field.Type.ValueBearing() {
				continue
			}
			value, declared, err := fieldDefault(field, ctx)
			if err != nil {
				faults = append(faults, err)
			}

			if field.RepeatableGroupID == "" {
				values[field.ID] = value
				continue
			}

			seed, ok := groups[field.RepeatableGroupID]
			if !ok {
				seed = &groupSeed{instance: make(map[string]any)}
				groups[field.RepeatableGroupID] = seed
				groupOrder = append(groupOrder, field.RepeatableGroupID)
			}
			member := deprefix(field.ID, field.RepeatableGroupID)
			seed.instance[member] = value
			seed.seeded = seed.seeded || declared
		}
	}

	for _, groupID := range groupOrder {
		seed := groups[groupID]
		if seed.seeded {
			values[groupID] = []any{seed.instance}
		} else {
			values[groupID] = []any{}
		}
	}
	return values, faults
}

func fieldDefault(field descriptor.Field, ctx expr.Context) (any, bool, error) {
	if field.DefaultValue == nil {
		return field.Type.EmptyValue(), false, nil
	}
	raw, isString := field.DefaultValue.(string)
	if !isString || !expr.IsExpression(raw) {
		return field.DefaultValue, true, nil
	}
	rendered, err := expr.EvalString(raw, ctx)
	if err != nil {
		return field.Type.EmptyValue(), true, err
	}
	if rendered == "" {
		return field.Type.EmptyValue(), true, nil
	}
	return field.Type.Coerce(rendered), true, nil
}

func deprefix(fieldID, groupID string) string {
	if len(fieldID) > len(groupID)+1 && fieldID[:len(groupID)+1] == groupID+"." {
		return fieldID[len(groupID)+1:]
	}
	return fieldID
}
