package descriptor

// StatusDelta replaces individual status expressions. Nil pointers leave the
// base expression untouched; a pointer to the empty string clears it.
type StatusDelta struct {
	Hidden   *string `json:"hidden,omitempty" yaml:"hidden,omitempty"`
	Disabled *string `json:"disabled,omitempty" yaml:"disabled,omitempty"`
}

// DeltaEntry overlays one block or field identified by id. A non-nil
// Validation slice fully replaces the base rules; Status keys replace
// independently.
type DeltaEntry struct {
	ID         string           `json:"id" yaml:"id"`
	Validation []ValidationRule `json:"validation,omitempty" yaml:"validation,omitempty"`
	Status     *StatusDelta     `json:"status,omitempty" yaml:"status,omitempty"`
}

// RuleDelta is the incremental overlay returned by the rule provider for a
// given case context. Ids absent from the delta are untouched.
type RuleDelta struct {
	Blocks []DeltaEntry `json:"blocks,omitempty" yaml:"blocks,omitempty"`
	Fields []DeltaEntry `json:"fields,omitempty" yaml:"fields,omitempty"`
}

// Empty reports whether the delta carries no overrides at all.
func (d RuleDelta) Empty() bool {
	return len(d.Blocks) == 0 && len(d.Fields) == 0
}
