// Package formflow drives dynamic, rule-adjustable forms: a declarative
// descriptor enumerates blocks, fields, option sources, validation rules and
// template-expressed status conditions; the engine resolves structural
// references, merges incremental rule deltas, compiles executable validation
// schemas and extracts initial values.
package formflow

import (
	"context"

	"github.com/goliatone/go-formflow/pkg/descriptor"
	"github.com/goliatone/go-formflow/pkg/pipeline"
	"github.com/goliatone/go-formflow/pkg/resolve"
	"github.com/goliatone/go-formflow/pkg/validation"
)

// Descriptor aliases the declarative form document.
type Descriptor = descriptor.Descriptor

// Block groups fields inside a descriptor.
type Block = descriptor.Block

// Field is a single input or action definition.
type Field = descriptor.Field

// RuleDelta is the incremental overlay returned by a rule provider.
type RuleDelta = descriptor.RuleDelta

// CaseContext holds discriminant values plus external case attributes.
type CaseContext = descriptor.CaseContext

// ValidationSchema is the compiled, executable form of a descriptor's rules.
type ValidationSchema = validation.Schema

// NewEngine exposes the pipeline constructor from the top-level module.
func NewEngine(options ...pipeline.Option) *pipeline.Engine {
	return pipeline.New(options...)
}

// NewSubFormRepository creates a caller-owned sub-form registry.
func NewSubFormRepository() *resolve.Repository {
	return resolve.NewRepository()
}

// Resolve expands a descriptor's structural references using the supplied
// sub-form provider. It is the simplest entry point for callers that do not
// need a long-lived engine.
func Resolve(ctx context.Context, provider resolve.Provider, d Descriptor) (Descriptor, error) {
	return resolve.NewResolver(provider, resolve.Options{}).Resolve(ctx, d)
}

// Compile turns a resolved descriptor into an executable validation schema.
func Compile(resolved Descriptor) (ValidationSchema, error) {
	return validation.Compile(resolved)
}
