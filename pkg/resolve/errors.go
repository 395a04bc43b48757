package resolve

import "fmt"

// MissingSubFormError reports a subFormRef id the provider could not resolve.
// Resolution aborts entirely; no partial descriptor is produced.
type MissingSubFormError struct {
	ID string
}

func (e MissingSubFormError) Error() string {
	return fmt.Sprintf("resolve: sub-form %q not found", e.ID)
}

// MissingTemplateBlockError reports a repeatableBlockRef with no matching
// non-repeatable template block in the descriptor.
type MissingTemplateBlockError struct {
	BlockID string
}

func (e MissingTemplateBlockError) Error() string {
	return fmt.Sprintf("resolve: template block %q not found", e.BlockID)
}

// CyclicReferenceError reports a sub-form id re-encountered while it is still
// being resolved.
type CyclicReferenceError struct {
	ID string
}

func (e CyclicReferenceError) Error() string {
	return fmt.Sprintf("resolve: cyclic sub-form reference %q", e.ID)
}
