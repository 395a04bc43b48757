package descriptor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Parse decodes a descriptor document from JSON or YAML bytes, sanitizes its
// human-readable strings and enforces the structural invariants that must hold
// before resolution.
func Parse(raw []byte) (Descriptor, error) {
	var d Descriptor
	if err := unmarshalDocument(raw, &d); err != nil {
		return Descriptor{}, fmt.Errorf("descriptor: parse: %w", err)
	}
	sanitizeBlocks(d.Blocks)
	if err := Validate(d); err != nil {
		return Descriptor{}, err
	}
	return d, nil
}

// ParseSubForm decodes a sub-form document from JSON or YAML bytes.
func ParseSubForm(raw []byte) (SubForm, error) {
	var s SubForm
	if err := unmarshalDocument(raw, &s); err != nil {
		return SubForm{}, fmt.Errorf("descriptor: parse sub-form: %w", err)
	}
	if strings.TrimSpace(s.ID) == "" {
		return SubForm{}, fmt.Errorf("descriptor: sub-form document has no id")
	}
	s.Title = sanitizeMarkup(s.Title)
	sanitizeBlocks(s.Blocks)
	if err := validateBlocks(s.Blocks, "sub-form "+s.ID); err != nil {
		return SubForm{}, err
	}
	return s, nil
}

// ParseDelta decodes a rule-delta document from JSON or YAML bytes.
func ParseDelta(raw []byte) (RuleDelta, error) {
	var delta RuleDelta
	if err := unmarshalDocument(raw, &delta); err != nil {
		return RuleDelta{}, fmt.Errorf("descriptor: parse delta: %w", err)
	}
	return delta, nil
}

func unmarshalDocument(raw []byte, target any) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return fmt.Errorf("document is empty")
	}
	if trimmed[0] == '{' || trimmed[0] == '[' {
		return json.Unmarshal(trimmed, target)
	}
	return yaml.Unmarshal(trimmed, target)
}

// Validate checks the invariants a descriptor must satisfy before it enters
// the resolution pipeline.
func Validate(d Descriptor) error {
	return validateBlocks(d.Blocks, "descriptor")
}

func validateBlocks(blocks []Block, scope string) error {
	seen := make(map[string]struct{}, len(blocks))
	for _, block := range blocks {
		id := strings.TrimSpace(block.ID)
		if id == "" {
			return fmt.Errorf("descriptor: %s declares a block with no id", scope)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("descriptor: %s declares duplicate block id %q", scope, id)
		}
		seen[id] = struct{}{}

		if block.SubFormRef != "" && block.RepeatableBlockRef != "" {
			return fmt.Errorf("descriptor: block %q declares both subFormRef and repeatableBlockRef", id)
		}
		if block.Repeatable && block.RepeatableBlockRef == "" && len(block.Fields) == 0 {
			return fmt.Errorf("descriptor: repeatable block %q has neither fields nor a repeatableBlockRef", id)
		}
		if block.MinInstances != nil && *block.MinInstances < 0 {
			return fmt.Errorf("descriptor: block %q declares negative minInstances", id)
		}
		if block.MinInstances != nil && block.MaxInstances != nil && *block.MaxInstances < *block.MinInstances {
			return fmt.Errorf("descriptor: block %q declares maxInstances below minInstances", id)
		}
		if err := validateFields(block); err != nil {
			return err
		}
	}
	return nil
}

func validateFields(block Block) error {
	seen := make(map[string]struct{}, len(block.Fields))
	for _, field := range block.Fields {
		id := strings.TrimSpace(field.ID)
		if id == "" {
			return fmt.Errorf("descriptor: block %q declares a field with no id", block.ID)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("descriptor: block %q declares duplicate field id %q", block.ID, id)
		}
		seen[id] = struct{}{}

		if !field.Type.Known() {
			return fmt.Errorf("descriptor: field %q has unknown type %q", id, field.Type)
		}
		if len(field.Items) > 0 && field.DataSource != nil {
			return fmt.Errorf("descriptor: field %q declares both items and dataSource", id)
		}
	}
	return nil
}
