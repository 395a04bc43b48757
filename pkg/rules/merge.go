// Package rules overlays incremental rule deltas onto resolved descriptors.
package rules

import "github.com/goliatone/go-formflow/pkg/descriptor"

// Merge overlays a rule delta onto a resolved descriptor and returns a new
// descriptor. Neither input is mutated and the operation is deterministic:
// identical inputs always produce structurally equal output.
//
// For every block or field id present in the delta a non-nil validation slice
// fully replaces the base rules, and status.hidden / status.disabled replace
// independently — an entry supplying only hidden leaves the base disabled
// expression untouched. Ids absent from the delta copy through unchanged.
func Merge(resolved descriptor.Descriptor, delta descriptor.RuleDelta) descriptor.Descriptor {
	out := resolved.Clone()
	if delta.Empty() {
		return out
	}

	blockEntries := indexEntries(delta.Blocks)
	fieldEntries := indexEntries(delta.Fields)

	for i := range out.Blocks {
		block := &out.Blocks[i]
		if entry, ok := blockEntries[block.ID]; ok {
			block.Status = mergeStatus(block.Status, entry.Status)
		}
		for j := range block.Fields {
			field := &block.Fields[j]
			entry, ok := fieldEntries[field.ID]
			if !ok {
				continue
			}
			if entry.Validation != nil {
				field.Validation = append([]descriptor.ValidationRule(nil), entry.Validation...)
			}
			field.Status = mergeStatus(field.Status, entry.Status)
		}
	}
	return out
}

func indexEntries(entries []descriptor.DeltaEntry) map[string]descriptor.DeltaEntry {
	if len(entries) == 0 {
		return nil
	}
	out := make(map[string]descriptor.DeltaEntry, len(entries))
	for _, entry := range entries {
		out[entry.ID] = entry
	}
	return out
}

func mergeStatus(base *descriptor.Status, delta *descriptor.StatusDelta) *descriptor.Status {
	if delta == nil {
		return base
	}
	merged := descriptor.Status{}
	if base != nil {
		merged = *base
	}
	if delta.Hidden != nil {
		merged.Hidden = *delta.Hidden
	}
	if delta.Disabled != nil {
		merged.Disabled = *delta.Disabled
	}
	if merged == (descriptor.Status{}) {
		return nil
	}
	return &merged
}
