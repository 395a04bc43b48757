package resolve

import (
	"context"
	"errors"
	"fmt"

	"github.com/goliatone/go-formflow/pkg/descriptor"
)

const (
	defaultMaxDepth     = 32
	defaultMaxDocuments = 128
)

// Options configures resolution guardrails.
type Options struct {
	// MaxDepth caps the nesting depth of sub-form references.
	MaxDepth int
	// MaxDocuments caps the number of unique sub-form documents fetched
	// during a single resolution.
	MaxDocuments int
}

// Resolver expands sub-form and repeatable-block-template references into a
// self-contained descriptor. It never mutates its input: either a fully
// resolved copy is returned or an error with no partial output.
type Resolver struct {
	provider Provider
	opts     Options
}

// NewResolver constructs a resolver with the supplied provider and options.
func NewResolver(provider Provider, opts Options) *Resolver {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = defaultMaxDepth
	}
	if opts.MaxDocuments <= 0 {
		opts.MaxDocuments = defaultMaxDocuments
	}
	return &Resolver{provider: provider, opts: opts}
}

// Resolve expands every structural reference in the descriptor. The result is
// deep-equal to the input when no references are present.
func (r *Resolver) Resolve(ctx context.Context, d descriptor.Descriptor) (descriptor.Descriptor, error) {
	if r == nil {
		return descriptor.Descriptor{}, errors.New("resolve: resolver is nil")
	}

	out := d.Clone()
	session := &session{
		provider: r.provider,
		opts:     r.opts,
		cache:    make(map[string]descriptor.SubForm),
	}
	state := &resolveState{inStack: make(map[string]struct{})}

	blocks, err := session.expandSubForms(ctx, out.Blocks, state)
	if err != nil {
		return descriptor.Descriptor{}, err
	}
	blocks, err = expandRepeatables(blocks)
	if err != nil {
		return descriptor.Descriptor{}, err
	}
	out.Blocks = blocks
	return out, nil
}

type session struct {
	provider Provider
	opts     Options
	cache    map[string]descriptor.SubForm
}

// expandSubForms collects the distinct referenced ids at this level, fetches
// them all up front (any miss aborts the whole resolution), then splices each
// sub-form's blocks in place of its referencing block, recursing into spliced
// content before instance-id suffixing so nested ids pick up the suffix too.
func (s *session) expandSubForms(ctx context.Context, blocks []descriptor.Block, state *resolveState) ([]descriptor.Block, error) {
	refs := collectSubFormRefs(blocks)
	if len(refs) == 0 {
		return blocks, nil
	}
	if len(state.stack) >= s.opts.MaxDepth {
		return nil, fmt.Errorf("resolve: sub-form nesting exceeds %d", s.opts.MaxDepth)
	}

	for _, id := range refs {
		if state.contains(id) {
			return nil, CyclicReferenceError{ID: id}
		}
		if err := s.fetch(ctx, id); err != nil {
			return nil, err
		}
	}

	out := make([]descriptor.Block, 0, len(blocks))
	for _, block := range blocks {
		if block.SubFormRef == "" || block.Popin {
			out = append(out, block)
			continue
		}

		sub := s.cache[block.SubFormRef].Clone()
		state.push(block.SubFormRef)
		spliced, err := s.expandSubForms(ctx, sub.Blocks, state)
		state.pop()
		if err != nil {
			return nil, err
		}
		if block.SubFormInstanceID != "" {
			suffixIDs(spliced, block.SubFormInstanceID)
		}
		out = append(out, spliced...)
	}
	return out, nil
}

func (s *session) fetch(ctx context.Context, id string) error {
	if _, ok := s.cache[id]; ok {
		return nil
	}
	if len(s.cache) >= s.opts.MaxDocuments {
		return fmt.Errorf("resolve: exceeded max documents (%d)", s.opts.MaxDocuments)
	}
	if s.provider == nil {
		return MissingSubFormError{ID: id}
	}
	doc, err := s.provider.SubForm(ctx, id)
	if err != nil {
		if errors.Is(err, ErrSubFormNotFound) {
			return MissingSubFormError{ID: id}
		}
		return fmt.Errorf("resolve: fetch sub-form %q: %w", id, err)
	}
	s.cache[id] = doc
	return nil
}

// collectSubFormRefs returns the distinct subFormRef ids in declaration
// order. Instance ids only disambiguate spliced ids; they never affect which
// documents are fetched. Popin blocks are reference-only targets and are
// passed through unexpanded.
func collectSubFormRefs(blocks []descriptor.Block) []string {
	var refs []string
	seen := make(map[string]struct{})
	for _, block := range blocks {
		if block.SubFormRef == "" || block.Popin {
			continue
		}
		if _, dup := seen[block.SubFormRef]; dup {
			continue
		}
		seen[block.SubFormRef] = struct{}{}
		refs = append(refs, block.SubFormRef)
	}
	return refs
}

func suffixIDs(blocks []descriptor.Block, instanceID string) {
	for i := range blocks {
		blocks[i].ID = blocks[i].ID + "-" + instanceID
		if blocks[i].RepeatableBlockRef != "" {
			blocks[i].RepeatableBlockRef = blocks[i].RepeatableBlockRef + "-" + instanceID
		}
		for j := range blocks[i].Fields {
			blocks[i].Fields[j].ID = blocks[i].Fields[j].ID + "-" + instanceID
		}
	}
}

// expandRepeatables copies template-block fields into every repeatable block
// referencing them, namespacing field ids by repeatable group. Template
// blocks are marked resolution-only so render enumeration skips them.
func expandRepeatables(blocks []descriptor.Block) ([]descriptor.Block, error) {
	templates := make(map[string]int)
	for i, block := range blocks {
		if !block.Repeatable {
			templates[block.ID] = i
		}
	}

	used := make(map[int]struct{})
	for i, block := range blocks {
		if !block.Repeatable || block.RepeatableBlockRef == "" || block.Popin {
			continue
		}
		if len(block.Fields) > 0 {
			// Already expanded; resolution is idempotent.
			continue
		}
		tmplIdx, ok := templates[block.RepeatableBlockRef]
		if !ok {
			return nil, MissingTemplateBlockError{BlockID: block.RepeatableBlockRef}
		}
		used[tmplIdx] = struct{}{}

		template := blocks[tmplIdx]
		fields := make([]descriptor.Field, 0, len(template.Fields))
		for _, field := range template.Fields {
			copied := field.Clone()
			groupID := copied.RepeatableGroupID
			if groupID == "" {
				groupID = block.ID
			}
			copied.RepeatableGroupID = groupID
			copied.ID = groupID + "." + field.ID
			fields = append(fields, copied)
		}
		blocks[i].Fields = fields
	}

	for idx := range used {
		blocks[idx].TemplateOnly = true
	}
	return blocks, nil
}

// resolveState is the explicit in-progress id set threaded through sub-form
// expansion so cycle detection does not depend on call-stack depth.
type resolveState struct {
	stack   []string
	inStack map[string]struct{}
}

func (s *resolveState) push(id string) {
	s.stack = append(s.stack, id)
	s.inStack[id] = struct{}{}
}

func (s *resolveState) pop() {
	if len(s.stack) == 0 {
		return
	}
	last := s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]
	delete(s.inStack, last)
}

func (s *resolveState) contains(id string) bool {
	_, ok := s.inStack[id]
	return ok
}
