// Package openapi bootstraps form descriptors from OpenAPI documents so
// existing API schemas can seed a descriptor without hand-authoring.
package openapi

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formflow/pkg/descriptor"
)

// ImportOptions selects and labels the imported operation.
type ImportOptions struct {
	// OperationID pins the import to a specific operation. Empty imports the
	// first operation carrying a request body.
	OperationID string
	// BlockID overrides the id of the generated block (defaults to the
	// operation id).
	BlockID string
}

// Import converts an OpenAPI operation's request schema into a form
// descriptor: one block whose fields mirror the schema's scalar properties,
// with required/length/pattern/bound constraints mapped onto validation
// rules.
func Import(ctx context.Context, raw []byte, opts ImportOptions) (descriptor.Descriptor, error) {
	if len(raw) == 0 {
		return descriptor.Descriptor{}, errors.New("openapi: document payload is empty")
	}

	loader := &openapi3.Loader{Context: ctx}
	spec, err := loader.LoadFromData(raw)
	if err != nil {
		return descriptor.Descriptor{}, fmt.Errorf("openapi: load document: %w", err)
	}
	if spec.Paths == nil || spec.Paths.Len() == 0 {
		return descriptor.Descriptor{}, errors.New("openapi: document does not contain any paths")
	}

	opID, method, path, operation, err := selectOperation(spec, opts.OperationID)
	if err != nil {
		return descriptor.Descriptor{}, err
	}

	schema := requestSchema(operation.RequestBody)
	if schema == nil {
		return descriptor.Descriptor{}, fmt.Errorf("openapi: operation %q has no request schema", opID)
	}

	blockID := opts.BlockID
	if blockID == "" {
		blockID = opID
	}

	block := descriptor.Block{
		ID:          blockID,
		Title:       strings.TrimSpace(operation.Summary),
		Description: strings.TrimSpace(operation.Description),
		Fields:      convertProperties(schema),
	}

	d := descriptor.Descriptor{
		Version: "1",
		Blocks:  []descriptor.Block{block},
		Submission: &descriptor.Submission{
			Method:      method,
			URLTemplate: path,
		},
	}
	if err := descriptor.Validate(d); err != nil {
		return descriptor.Descriptor{}, err
	}
	return d, nil
}

func selectOperation(spec *openapi3.T, wanted string) (string, string, string, *openapi3.Operation, error) {
	type candidate struct {
		id        string
		method    string
		path      string
		operation *openapi3.Operation
	}
	var candidates []candidate

	for path, item := range spec.Paths.Map() {
		if item == nil {
			continue
		}
		for method, operation := range map[string]*openapi3.Operation{
			"POST":  item.Post,
			"PUT":   item.Put,
			"PATCH": item.Patch,
		} {
			if operation == nil {
				continue
			}
			opID := operation.OperationID
			if opID == "" {
				opID = strings.ToLower(method) + ":" + path
			}
			candidates = append(candidates, candidate{id: opID, method: method, path: path, operation: operation})
		}
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].id < candidates[j].id })

	for _, c := range candidates {
		if wanted == "" || c.id == wanted {
			return c.id, c.method, c.path, c.operation, nil
		}
	}
	if wanted != "" {
		return "", "", "", nil, fmt.Errorf("openapi: operation %q not found", wanted)
	}
	return "", "", "", nil, errors.New("openapi: no importable operation found")
}

func requestSchema(requestBody *openapi3.RequestBodyRef) *openapi3.Schema {
	if requestBody == nil || requestBody.Value == nil {
		return nil
	}
	content := requestBody.Value.Content
	for _, mediaType := range []string{"application/json", "application/x-www-form-urlencoded", "multipart/form-data"} {
		if mt, ok := content[mediaType]; ok && mt.Schema != nil {
			return mt.Schema.Value
		}
	}
	for _, mt := range content {
		if mt.Schema != nil {
			return mt.Schema.Value
		}
	}
	return nil
}

func convertProperties(schema *openapi3.Schema) []descriptor.Field {
	required := make(map[string]struct{}, len(schema.Required))
	for _, name := range schema.Required {
		required[name] = struct{}{}
	}

	names := make([]string, 0, len(schema.Properties))
	for name := range schema.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	fields := make([]descriptor.Field, 0, len(names))
	for _, name := range names {
		ref := schema.Properties[name]
		if ref == nil || ref.Value == nil {
			continue
		}
		property := ref.Value
		fieldType, ok := fieldTypeFor(property)
		if !ok {
			// Nested objects and arrays do not map onto flat descriptor
			// fields; they stay with the API client.
			continue
		}

		field := descriptor.Field{
			ID:          name,
			Type:        fieldType,
			Label:       strings.TrimSpace(property.Title),
			Description: strings.TrimSpace(property.Description),
		}
		if property.Default != nil {
			field.DefaultValue = property.Default
		}
		for _, raw := range property.Enum {
			value := fmt.Sprint(raw)
			field.Items = append(field.Items, descriptor.Option{Value: value, Label: value})
		}
		if _, isRequired := required[name]; isRequired {
			field.Validation = append(field.Validation, descriptor.ValidationRule{
				Kind: descriptor.ValidationRuleRequired,
			})
		}
		field.Validation = append(field.Validation, convertConstraints(property)...)
		fields = append(fields, field)
	}
	return fields
}

func fieldTypeFor(property *openapi3.Schema) (descriptor.FieldType, bool) {
	switch firstSchemaType(property.Type) {
	case "string":
		if len(property.Enum) > 0 {
			return descriptor.FieldTypeDropdown, true
		}
		switch property.Format {
		case "date", "date-time":
			return descriptor.FieldTypeDate, true
		case "binary":
			return descriptor.FieldTypeFile, true
		}
		return descriptor.FieldTypeText, true
	case "boolean":
		return descriptor.FieldTypeCheckbox, true
	case "number", "integer":
		return descriptor.FieldTypeNumber, true
	default:
		return "", false
	}
}

func firstSchemaType(types *openapi3.Types) string {
	if types == nil {
		return ""
	}
	values := types.Slice()
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func convertConstraints(property *openapi3.Schema) []descriptor.ValidationRule {
	var rules []descriptor.ValidationRule
	if property.MinLength != 0 {
		rules = append(rules, descriptor.ValidationRule{
			Kind:      descriptor.ValidationRuleMinLength,
			Parameter: strconv.FormatUint(property.MinLength, 10),
		})
	}
	if property.MaxLength != nil {
		rules = append(rules, descriptor.ValidationRule{
			Kind:      descriptor.ValidationRuleMaxLength,
			Parameter: strconv.FormatUint(*property.MaxLength, 10),
		})
	}
	if property.Pattern != "" {
		rules = append(rules, descriptor.ValidationRule{
			Kind:      descriptor.ValidationRulePattern,
			Parameter: property.Pattern,
		})
	}
	if property.Min != nil {
		rules = append(rules, descriptor.ValidationRule{
			Kind:      descriptor.ValidationRuleMin,
			Parameter: strconv.FormatFloat(*property.Min, 'f', -1, 64),
		})
	}
	if property.Max != nil {
		rules = append(rules, descriptor.ValidationRule{
			Kind:      descriptor.ValidationRuleMax,
			Parameter: strconv.FormatFloat(*property.Max, 'f', -1, 64),
		})
	}
	return rules
}
