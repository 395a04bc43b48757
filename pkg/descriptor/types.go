package descriptor

// FieldType enumerates the closed set of field kinds a descriptor may declare.
// Value-bearing kinds map to one coercion rule and one schema entry; action
// kinds (popin triggers) never carry a value and are skipped by the compiler.
type FieldType string

const (
	FieldTypeText         FieldType = "text"
	FieldTypeDropdown     FieldType = "dropdown"
	FieldTypeAutocomplete FieldType = "autocomplete"
	FieldTypeDate         FieldType = "date"
	FieldTypeCheckbox     FieldType = "checkbox"
	FieldTypeNumber       FieldType = "number"
	FieldTypeFile         FieldType = "file"
	FieldTypePopinTrigger FieldType = "popinTrigger"
)

const (
	ValidationRuleRequired  = "required"
	ValidationRuleMin       = "min"
	ValidationRuleMax       = "max"
	ValidationRuleMinLength = "minLength"
	ValidationRuleMaxLength = "maxLength"
	ValidationRulePattern   = "pattern"
)

// ValidationRule represents a single validation constraint applied to a field.
// Length and numeric kinds encode their threshold in Parameter; pattern rules
// carry the regular expression. Message overrides the default error text.
type ValidationRule struct {
	Kind      string `json:"kind" yaml:"kind"`
	Parameter string `json:"parameter,omitempty" yaml:"parameter,omitempty"`
	Message   string `json:"message,omitempty" yaml:"message,omitempty"`
}

// Status holds the template expressions deciding whether an element is hidden
// or disabled. Empty expressions mean "never".
type Status struct {
	Hidden   string `json:"hidden,omitempty" yaml:"hidden,omitempty"`
	Disabled string `json:"disabled,omitempty" yaml:"disabled,omitempty"`
}

// Option is a static choice for dropdown/autocomplete fields.
type Option struct {
	Value string `json:"value" yaml:"value"`
	Label string `json:"label,omitempty" yaml:"label,omitempty"`
}

// ItemShape describes how remote data-source items map onto options. Both
// entries are value-interpolation templates evaluated per item.
type ItemShape struct {
	ValueTemplate string `json:"value" yaml:"value"`
	LabelTemplate string `json:"label" yaml:"label"`
}

// DataSource declares a remote option source. Mutually exclusive with static
// Items on the owning field. The engine only carries the shape; fetching is
// the UI collaborator's job.
type DataSource struct {
	URLTemplate string    `json:"url" yaml:"url"`
	ItemShape   ItemShape `json:"itemShape" yaml:"itemShape"`
	Auth        string    `json:"auth,omitempty" yaml:"auth,omitempty"`
}

// Field models a single input or action inside a block.
type Field struct {
	ID                string           `json:"id" yaml:"id"`
	Type              FieldType        `json:"type" yaml:"type"`
	Label             string           `json:"label,omitempty" yaml:"label,omitempty"`
	Description       string           `json:"description,omitempty" yaml:"description,omitempty"`
	Items             []Option         `json:"items,omitempty" yaml:"items,omitempty"`
	DataSource        *DataSource      `json:"dataSource,omitempty" yaml:"dataSource,omitempty"`
	Validation        []ValidationRule `json:"validation,omitempty" yaml:"validation,omitempty"`
	Status            *Status          `json:"status,omitempty" yaml:"status,omitempty"`
	DefaultValue      any              `json:"defaultValue,omitempty" yaml:"defaultValue,omitempty"`
	RepeatableGroupID string           `json:"repeatableGroupId,omitempty" yaml:"repeatableGroupId,omitempty"`
	IsDiscriminant    bool             `json:"isDiscriminant,omitempty" yaml:"isDiscriminant,omitempty"`
	PopinRef          string           `json:"popinRef,omitempty" yaml:"popinRef,omitempty"`
}

// PopinConfig carries the load/submit endpoints for a popin block.
type PopinConfig struct {
	LoadURL   string `json:"loadUrl,omitempty" yaml:"loadUrl,omitempty"`
	SubmitURL string `json:"submitUrl,omitempty" yaml:"submitUrl,omitempty"`
}

// Block is a titled group of fields. A block may additionally be a structural
// placeholder: a sub-form reference, a repeatable instance of a template
// block, or a popin target.
type Block struct {
	ID                 string       `json:"id" yaml:"id"`
	Title              string       `json:"title,omitempty" yaml:"title,omitempty"`
	Description        string       `json:"description,omitempty" yaml:"description,omitempty"`
	Fields             []Field      `json:"fields,omitempty" yaml:"fields,omitempty"`
	Status             *Status      `json:"status,omitempty" yaml:"status,omitempty"`
	Repeatable         bool         `json:"repeatable,omitempty" yaml:"repeatable,omitempty"`
	RepeatableBlockRef string       `json:"repeatableBlockRef,omitempty" yaml:"repeatableBlockRef,omitempty"`
	MinInstances       *int         `json:"minInstances,omitempty" yaml:"minInstances,omitempty"`
	MaxInstances       *int         `json:"maxInstances,omitempty" yaml:"maxInstances,omitempty"`
	Popin              bool         `json:"popin,omitempty" yaml:"popin,omitempty"`
	PopinConfig        *PopinConfig `json:"popinConfig,omitempty" yaml:"popinConfig,omitempty"`
	SubFormRef         string       `json:"subFormRef,omitempty" yaml:"subFormRef,omitempty"`
	SubFormInstanceID  string       `json:"subFormInstanceId,omitempty" yaml:"subFormInstanceId,omitempty"`
	// TemplateOnly marks blocks that exist solely as repeatable templates.
	// Resolution sets it; PrimaryBlocks skips them.
	TemplateOnly bool `json:"templateOnly,omitempty" yaml:"templateOnly,omitempty"`
}

// Submission configures where the collected values are posted.
type Submission struct {
	Method      string `json:"method,omitempty" yaml:"method,omitempty"`
	URLTemplate string `json:"url,omitempty" yaml:"url,omitempty"`
}

// Descriptor is the full declarative form document.
type Descriptor struct {
	Version    string      `json:"version,omitempty" yaml:"version,omitempty"`
	Blocks     []Block     `json:"blocks" yaml:"blocks"`
	Submission *Submission `json:"submission,omitempty" yaml:"submission,omitempty"`
}

// SubForm is an externally defined block subtree spliced into a host
// descriptor by reference.
type SubForm struct {
	ID         string      `json:"id" yaml:"id"`
	Title      string      `json:"title,omitempty" yaml:"title,omitempty"`
	Version    string      `json:"version,omitempty" yaml:"version,omitempty"`
	Blocks     []Block     `json:"blocks" yaml:"blocks"`
	Submission *Submission `json:"submission,omitempty" yaml:"submission,omitempty"`
}

// CaseContext is the flat map of discriminant field values plus externally
// supplied case attributes. Values are scalars or string arrays.
type CaseContext map[string]any

// PrimaryBlocks returns the blocks that participate in the primary render
// enumeration: template-only and popin blocks are reference targets, never
// iterated directly.
func (d Descriptor) PrimaryBlocks() []Block {
	out := make([]Block, 0, len(d.Blocks))
	for _, block := range d.Blocks {
		if block.TemplateOnly || block.Popin {
			continue
		}
		out = append(out, block)
	}
	return out
}

// Block looks up a block by id.
func (d Descriptor) Block(id string) (Block, bool) {
	for _, block := range d.Blocks {
		if block.ID == id {
			return block, true
		}
	}
	return Block{}, false
}

// HasReferences reports whether any structural placeholder remains.
func (d Descriptor) HasReferences() bool {
	for _, block := range d.Blocks {
		if block.SubFormRef != "" {
			return true
		}
		if block.Repeatable && block.RepeatableBlockRef != "" && len(block.Fields) == 0 {
			return true
		}
	}
	return false
}

// ValueBearing reports whether the field kind carries a submitted value.
func (t FieldType) ValueBearing() bool {
	switch t {
	case FieldTypePopinTrigger:
		return false
	default:
		return true
	}
}

// Known reports whether the field kind is part of the closed set.
func (t FieldType) Known() bool {
	switch t {
	case FieldTypeText, FieldTypeDropdown, FieldTypeAutocomplete, FieldTypeDate,
		FieldTypeCheckbox, FieldTypeNumber, FieldTypeFile, FieldTypePopinTrigger:
		return true
	}
	return false
}

// EmptyValue returns the type-appropriate empty value used when a field
// declares no default.
func (t FieldType) EmptyValue() any {
	switch t {
	case FieldTypeCheckbox:
		return false
	case FieldTypeNumber:
		return float64(0)
	case FieldTypeFile:
		return nil
	default:
		return ""
	}
}
