// Package pipeline wires the engine components together: reference
// resolution, rule merging, schema compilation and default extraction, plus
// the debounced re-hydration cycle that keeps rules in sync with
// discriminant edits.
package pipeline

import (
	"context"
	"log"

	"github.com/goliatone/go-formflow/pkg/defaults"
	"github.com/goliatone/go-formflow/pkg/descriptor"
	"github.com/goliatone/go-formflow/pkg/expr"
	"github.com/goliatone/go-formflow/pkg/resolve"
	"github.com/goliatone/go-formflow/pkg/rules"
	"github.com/goliatone/go-formflow/pkg/validation"
)

// RuleProvider fetches the rule delta applicable to a case context.
type RuleProvider interface {
	Rules(ctx context.Context, cc descriptor.CaseContext) (descriptor.RuleDelta, error)
}

// RuleProviderFunc adapts a function into a RuleProvider.
type RuleProviderFunc func(ctx context.Context, cc descriptor.CaseContext) (descriptor.RuleDelta, error)

// Rules delegates to the underlying function.
func (fn RuleProviderFunc) Rules(ctx context.Context, cc descriptor.CaseContext) (descriptor.RuleDelta, error) {
	return fn(ctx, cc)
}

// Option customises the engine configuration.
type Option func(*Engine)

// WithSubFormProvider injects the provider used to fetch sub-form documents.
func WithSubFormProvider(provider resolve.Provider) Option {
	return func(e *Engine) {
		e.subForms = provider
	}
}

// WithResolveOptions overrides the resolution guardrails.
func WithResolveOptions(opts resolve.Options) Option {
	return func(e *Engine) {
		e.resolveOpts = opts
	}
}

// WithRuleProvider injects the rule-delta provider used during re-hydration.
func WithRuleProvider(provider RuleProvider) Option {
	return func(e *Engine) {
		e.ruleProvider = provider
	}
}

// WithLogger overrides the logger absorbed expression faults are reported to.
func WithLogger(logger *log.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// Engine exposes the four engine entry points to external collaborators. It
// is stateless; every call is a pure function of its inputs apart from the
// sub-form fetches performed by ResolveReferences.
type Engine struct {
	subForms     resolve.Provider
	resolveOpts  resolve.Options
	ruleProvider RuleProvider
	logger       *log.Logger
	resolver     *resolve.Resolver
}

// New constructs an Engine applying any provided options. Missing
// dependencies fall back to empty in-memory implementations so callers can
// start with a single constructor call.
func New(options ...Option) *Engine {
	e := &Engine{}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(e)
	}
	if e.subForms == nil {
		e.subForms = resolve.NewRepository()
	}
	if e.logger == nil {
		e.logger = log.Default()
	}
	e.resolver = resolve.NewResolver(e.subForms, e.resolveOpts)
	return e
}

// ResolveReferences expands every sub-form and repeatable-template reference.
// Structural failures abort the call; no partial descriptor is returned.
func (e *Engine) ResolveReferences(ctx context.Context, d descriptor.Descriptor) (descriptor.Descriptor, error) {
	return e.resolver.Resolve(ctx, d)
}

// MergeRules overlays a rule delta onto a resolved descriptor.
func (e *Engine) MergeRules(resolved descriptor.Descriptor, delta descriptor.RuleDelta) descriptor.Descriptor {
	return rules.Merge(resolved, delta)
}

// CompileSchema turns a resolved descriptor into an executable validation
// schema.
func (e *Engine) CompileSchema(resolved descriptor.Descriptor) (validation.Schema, error) {
	return validation.Compile(resolved)
}

// ExtractDefaults computes the initial value set. Absorbed expression faults
// are logged and never fatal.
func (e *Engine) ExtractDefaults(resolved descriptor.Descriptor, caseCtx descriptor.CaseContext) map[string]any {
	values, faults := defaults.Extract(resolved, expr.Context{Case: caseCtx})
	for _, fault := range faults {
		e.logger.Printf("formflow: default expression degraded: %v", fault)
	}
	return values
}

// UpdateCaseContext derives the next case context from the live form values.
func (e *Engine) UpdateCaseContext(resolved descriptor.Descriptor, prev descriptor.CaseContext, formValues map[string]any) descriptor.CaseContext {
	return defaults.UpdateCaseContext(prev, formValues, defaults.Discriminants(resolved))
}

// Hidden evaluates a status hidden expression against the context. Faults
// degrade to visible and are logged.
func (e *Engine) Hidden(status *descriptor.Status, ctx expr.Context) bool {
	return e.statusFlag(status, ctx, true)
}

// Disabled evaluates a status disabled expression against the context.
// Faults degrade to enabled and are logged.
func (e *Engine) Disabled(status *descriptor.Status, ctx expr.Context) bool {
	return e.statusFlag(status, ctx, false)
}

func (e *Engine) statusFlag(status *descriptor.Status, ctx expr.Context, hidden bool) bool {
	if status == nil {
		return false
	}
	raw := status.Disabled
	if hidden {
		raw = status.Hidden
	}
	if raw == "" {
		return false
	}
	value, err := expr.EvalBool(raw, ctx)
	if err != nil {
		e.logger.Printf("formflow: status expression degraded: %v", err)
	}
	return value
}
