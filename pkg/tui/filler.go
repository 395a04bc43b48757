// Package tui drives a resolved descriptor through terminal prompts. It is a
// reference implementation of the engine's UI collaborator, not a rendering
// framework: it consumes the resolved descriptor, the compiled schema and the
// extracted defaults exactly the way a graphical client would.
package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-formflow/pkg/descriptor"
	"github.com/goliatone/go-formflow/pkg/expr"
	"github.com/goliatone/go-formflow/pkg/pipeline"
	"github.com/goliatone/go-formflow/pkg/validation"
)

// Option customises the filler.
type Option func(*Filler)

// WithDriver swaps the prompt driver (tests inject a scripted one).
func WithDriver(driver PromptDriver) Option {
	return func(f *Filler) {
		f.driver = driver
	}
}

// Filler collects values for a resolved descriptor interactively.
type Filler struct {
	engine *pipeline.Engine
	driver PromptDriver
}

// New constructs a Filler with the survey driver by default.
func New(engine *pipeline.Engine, options ...Option) *Filler {
	f := &Filler{engine: engine, driver: newSurveyDriver()}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(f)
	}
	return f
}

// Fill prompts for every visible field of the resolved descriptor, seeds the
// prompts from the extracted defaults, and validates the collected values
// against the compiled schema. The value set is returned even when
// validation fails so callers can re-prompt.
func (f *Filler) Fill(ctx context.Context, resolved descriptor.Descriptor, schema validation.Schema, caseCtx descriptor.CaseContext) (map[string]any, validation.Result, error) {
	values := f.engine.ExtractDefaults(resolved, caseCtx)

	for _, block := range resolved.PrimaryBlocks() {
		evalCtx := expr.Context{Values: values, Case: caseCtx}
		if f.engine.Hidden(block.Status, evalCtx) {
			continue
		}
		if err := f.fillBlock(ctx, block, values, caseCtx); err != nil {
			return nil, validation.Result{}, err
		}
	}

	return values, schema.Validate(values), nil
}

func (f *Filler) fillBlock(ctx context.Context, block descriptor.Block, values map[string]any, caseCtx descriptor.CaseContext) error {
	groups := groupIDs(block)
	if len(groups) > 0 {
		for _, groupID := range groups {
			if err := f.fillGroup(ctx, block, groupID, values, caseCtx); err != nil {
				return err
			}
		}
		return nil
	}

	for _, field := range block.Fields {
		evalCtx := expr.Context{Values: values, Case: caseCtx}
		if !field.Type.ValueBearing() || f.engine.Hidden(field.Status, evalCtx) {
			continue
		}
		if f.engine.Disabled(field.Status, evalCtx) {
			continue
		}
		value, err := f.promptField(ctx, field, values[field.ID])
		if err != nil {
			return err
		}
		values[field.ID] = value
	}
	return nil
}

func (f *Filler) fillGroup(ctx context.Context, block descriptor.Block, groupID string, values map[string]any, caseCtx descriptor.CaseContext) error {
	members := groupMembers(block, groupID)
	min, max := instanceBounds(block)

	var instances []any
	for {
		index := len(instances)
		if max != nil && index >= *max {
			break
		}
		if index >= min {
			more, err := f.driver.Confirm(ctx, ConfirmConfig{
				Message: fmt.Sprintf("Add %s entry %d?", labelFor(block, groupID), index+1),
				Default: index == 0,
			})
			if err != nil {
				return err
			}
			if !more {
				break
			}
		}

		instance := make(map[string]any, len(members))
		for _, field := range members {
			loop := &expr.Loop{Index: index, First: index == 0, Values: instance}
			evalCtx := expr.Context{Values: values, Case: caseCtx, Loop: loop}
			if f.engine.Hidden(field.Status, evalCtx) || f.engine.Disabled(field.Status, evalCtx) {
				continue
			}
			member := strings.TrimPrefix(field.ID, groupID+".")
			value, err := f.promptField(ctx, field, nil)
			if err != nil {
				return err
			}
			instance[member] = value
		}
		instances = append(instances, instance)
	}

	values[groupID] = instances
	return nil
}

func (f *Filler) promptField(ctx context.Context, field descriptor.Field, seed any) (any, error) {
	message := field.Label
	if message == "" {
		message = field.ID
	}

	switch field.Type {
	case descriptor.FieldTypeCheckbox:
		def, _ := field.Type.Coerce(seed).(bool)
		return f.driver.Confirm(ctx, ConfirmConfig{Message: message, Default: def, Help: field.Description})
	case descriptor.FieldTypeDropdown, descriptor.FieldTypeAutocomplete:
		if len(field.Items) == 0 {
			// Remote option sources are fetched by the embedding client;
			// fall back to free input here.
			return f.driver.Input(ctx, InputConfig{Message: message, Default: renderSeed(seed), Help: field.Description})
		}
		options := make([]string, len(field.Items))
		defaultIndex := 0
		for i, item := range field.Items {
			label := item.Label
			if label == "" {
				label = item.Value
			}
			options[i] = label
			if seed != nil && item.Value == renderSeed(seed) {
				defaultIndex = i
			}
		}
		chosen, err := f.driver.Select(ctx, SelectConfig{Message: message, Options: options, DefaultIndex: defaultIndex, Help: field.Description})
		if err != nil {
			return nil, err
		}
		return field.Items[chosen].Value, nil
	case descriptor.FieldTypeNumber:
		raw, err := f.driver.Input(ctx, InputConfig{
			Message: message,
			Default: renderSeed(seed),
			Help:    field.Description,
			Validator: func(answer string) error {
				if strings.TrimSpace(answer) == "" {
					return nil
				}
				if _, err := strconv.ParseFloat(strings.TrimSpace(answer), 64); err != nil {
					return fmt.Errorf("%q is not a number", answer)
				}
				return nil
			},
		})
		if err != nil {
			return nil, err
		}
		return field.Type.Coerce(raw), nil
	default:
		return f.driver.Input(ctx, InputConfig{Message: message, Default: renderSeed(seed), Help: field.Description})
	}
}

func groupIDs(block descriptor.Block) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, field := range block.Fields {
		if field.RepeatableGroupID == "" {
			continue
		}
		if _, dup := seen[field.RepeatableGroupID]; dup {
			continue
		}
		seen[field.RepeatableGroupID] = struct{}{}
		out = append(out, field.RepeatableGroupID)
	}
	return out
}

func groupMembers(block descriptor.Block, groupID string) []descriptor.Field {
	var out []descriptor.Field
	for _, field := range block.Fields {
		if field.RepeatableGroupID == groupID && field.Type.ValueBearing() {
			out = append(out, field)
		}
	}
	return out
}

func instanceBounds(block descriptor.Block) (int, *int) {
	min := 0
	if block.MinInstances != nil && *block.MinInstances > 0 {
		min = *block.MinInstances
	}
	return min, block.MaxInstances
}

func labelFor(block descriptor.Block, groupID string) string {
	if block.Title != "" {
		return block.Title
	}
	return groupID
}

func renderSeed(seed any) string {
	switch v := seed.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
