package validation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goliatone/go-formflow/pkg/descriptor"
)

// SchemaCompileError reports a malformed validation-rule descriptor: an
// unknown kind or a missing/invalid required parameter. Compilation aborts.
type SchemaCompileError struct {
	FieldID string
	Kind    string
	Message string
}

func (e SchemaCompileError) Error() string {
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = "invalid rule"
	}
	if e.FieldID == "" {
		return fmt.Sprintf("validation: %s rule: %s", e.Kind, msg)
	}
	return fmt.Sprintf("validation: field %q: %s rule: %s", e.FieldID, e.Kind, msg)
}

// Compile turns a resolved descriptor into an executable validation schema.
// Non-grouped value-bearing fields become scalar entries keyed by field id;
// each distinct repeatable group becomes an array entry whose element schema
// holds the group's de-prefixed field schemas plus the owning block's
// instance bounds.
func Compile(d descriptor.Descriptor) (Schema, error) {
	schema := Schema{
		Fields: make(map[string]ScalarSchema),
		Groups: make(map[string]GroupSchema),
	}

	for _, block := range d.PrimaryBlocks() {
		for _, field := range block.Fields {
			if !field.Type.ValueBearing() {
				continue
			}
			scalar, err := compileField(field)
			if err != nil {
				return Schema{}, err
			}
			if field.RepeatableGroupID == "" {
				schema.Fields[field.ID] = scalar
				continue
			}

			group, ok := schema.Groups[field.RepeatableGroupID]
			if !ok {
				group = GroupSchema{Element: make(map[string]ScalarSchema)}
				if block.MinInstances != nil && *block.MinInstances != 0 {
					min := *block.MinInstances
					group.MinItems = &min
				}
				if block.MaxInstances != nil {
					max := *block.MaxInstances
					group.MaxItems = &max
				}
			}
			group.Element[deprefix(field.ID, field.RepeatableGroupID)] = scalar
			schema.Groups[field.RepeatableGroupID] = group
		}
	}
	return schema, nil
}

func compileField(field descriptor.Field) (ScalarSchema, error) {
	scalar := ScalarSchema{Type: field.Type}
	for _, rule := range field.Validation {
		compiled, err := compileRule(field, rule)
		if err != nil {
			return ScalarSchema{}, err
		}
		scalar.rules = append(scalar.rules, compiled)
	}
	return scalar, nil
}

type compiledRule struct {
	kind    string
	message string
	check   func(value any) bool
}

func compileRule(field descriptor.Field, rule descriptor.ValidationRule) (compiledRule, error) {
	out := compiledRule{kind: rule.Kind, message: rule.Message}

	switch rule.Kind {
	case descriptor.ValidationRuleRequired:
		out.check = checkRequired
		if out.message == "" {
			out.message = "is required"
		}
	case descriptor.ValidationRuleMinLength:
		limit, err := intParameter(field, rule)
		if err != nil {
			return compiledRule{}, err
		}
		out.check = func(value any) bool {
			str, ok := value.(string)
			return !ok || str == "" || len(str) >= limit
		}
		if out.message == "" {
			out.message = fmt.Sprintf("must be at least %d characters", limit)
		}
	case descriptor.ValidationRuleMaxLength:
		limit, err := intParameter(field, rule)
		if err != nil {
			return compiledRule{}, err
		}
		out.check = func(value any) bool {
			str, ok := value.(string)
			return !ok || len(str) <= limit
		}
		if out.message == "" {
			out.message = fmt.Sprintf("must be at most %d characters", limit)
		}
	case descriptor.ValidationRulePattern:
		if strings.TrimSpace(rule.Parameter) == "" {
			return compiledRule{}, SchemaCompileError{FieldID: field.ID, Kind: rule.Kind, Message: "missing pattern parameter"}
		}
		re, err := regexp.Compile(rule.Parameter)
		if err != nil {
			return compiledRule{}, SchemaCompileError{FieldID: field.ID, Kind: rule.Kind, Message: err.Error()}
		}
		out.check = func(value any) bool {
			str, ok := value.(string)
			return !ok || str == "" || re.MatchString(str)
		}
		if out.message == "" {
			out.message = "has an invalid format"
		}
	case descriptor.ValidationRuleMin:
		bound, err := floatParameter(field, rule)
		if err != nil {
			return compiledRule{}, err
		}
		out.check = func(value any) bool {
			number, ok := value.(float64)
			return !ok || number >= bound
		}
		if out.message == "" {
			out.message = fmt.Sprintf("must be at least %v", bound)
		}
	case descriptor.ValidationRuleMax:
		bound, err := floatParameter(field, rule)
		if err != nil {
			return compiledRule{}, err
		}
		out.check = func(value any) bool {
			number, ok := value.(float64)
			return !ok || number <= bound
		}
		if out.message == "" {
			out.message = fmt.Sprintf("must be at most %v", bound)
		}
	default:
		return compiledRule{}, SchemaCompileError{FieldID: field.ID, Kind: rule.Kind, Message: "unknown rule kind"}
	}
	return out, nil
}

// checkRequired fails on nil, empty strings, empty arrays and unchecked
// checkboxes. Zero is a value.
func checkRequired(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(v) != ""
	case bool:
		return v
	case []any:
		return len(v) > 0
	case []string:
		return len(v) > 0
	default:
		return true
	}
}

func intParameter(field descriptor.Field, rule descriptor.ValidationRule) (int, error) {
	raw := strings.TrimSpace(rule.Parameter)
	if raw == "" {
		return 0, SchemaCompileError{FieldID: field.ID, Kind: rule.Kind, Message: "missing parameter"}
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, SchemaCompileError{FieldID: field.ID, Kind: rule.Kind, Message: fmt.Sprintf("parameter %q is not an integer", raw)}
	}
	return value, nil
}

func floatParameter(field descriptor.Field, rule descriptor.ValidationRule) (float64, error) {
	raw := strings.TrimSpace(rule.Parameter)
	if raw == "" {
		return 0, SchemaCompileError{FieldID: field.ID, Kind: rule.Kind, Message: "missing parameter"}
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, SchemaCompileError{FieldID: field.ID, Kind: rule.Kind, Message: fmt.Sprintf("parameter %q is not a number", raw)}
	}
	return value, nil
}
