// Package testsupport provides shared fixtures for engine tests.
package testsupport

import (
	"testing"

	"github.com/goliatone/go-formflow/pkg/descriptor"
	"github.com/goliatone/go-formflow/pkg/resolve"
)

// AddressSubForm returns the canonical sub-form document used across the
// resolution tests: a single block with street/city/zip fields.
func AddressSubForm() descriptor.SubForm {
	return descriptor.SubForm{
		ID:      "address",
		Title:   "Address",
		Version: "1",
		Blocks: []descriptor.Block{
			{
				ID:    "address-block",
				Title: "Address",
				Fields: []descriptor.Field{
					{ID: "street", Type: descriptor.FieldTypeText, Label: "Street"},
					{ID: "city", Type: descriptor.FieldTypeText, Label: "City"},
					{
						ID:    "zip",
						Type:  descriptor.FieldTypeText,
						Label: "ZIP",
						Validation: []descriptor.ValidationRule{
							{Kind: descriptor.ValidationRulePattern, Parameter: `^\d{5}$`, Message: "must be a 5-digit code"},
						},
					},
				},
			},
		},
	}
}

// ContactDescriptor returns a descriptor exercising every structural feature:
// a plain block with a discriminant dropdown, a sub-form reference and a
// repeatable block backed by a template.
func ContactDescriptor() descriptor.Descriptor {
	minInstances := 1
	maxInstances := 3
	return descriptor.Descriptor{
		Version: "1",
		Blocks: []descriptor.Block{
			{
				ID:    "applicant",
				Title: "Applicant",
				Fields: []descriptor.Field{
					{
						ID:    "name",
						Type:  descriptor.FieldTypeText,
						Label: "Full name",
						Validation: []descriptor.ValidationRule{
							{Kind: descriptor.ValidationRuleRequired},
						},
					},
					{
						ID:             "country",
						Type:           descriptor.FieldTypeDropdown,
						Label:          "Country",
						IsDiscriminant: true,
						Items: []descriptor.Option{
							{Value: "US", Label: "United States"},
							{Value: "CA", Label: "Canada"},
							{Value: "UK", Label: "United Kingdom"},
						},
					},
					{
						ID:           "newsletter",
						Type:         descriptor.FieldTypeCheckbox,
						Label:        "Subscribe",
						DefaultValue: "true",
					},
				},
			},
			{ID: "billing", SubFormRef: "address", SubFormInstanceID: "billing"},
			{
				ID:    "contact-template",
				Title: "Contact",
				Fields: []descriptor.Field{
					{ID: "phone", Type: descriptor.FieldTypeText, Label: "Phone"},
					{ID: "email", Type: descriptor.FieldTypeText, Label: "Email"},
				},
			},
			{
				ID:                 "contacts",
				Title:              "Contacts",
				Repeatable:         true,
				RepeatableBlockRef: "contact-template",
				MinInstances:       &minInstances,
				MaxInstances:       &maxInstances,
			},
		},
	}
}

// NewRepository returns a repository pre-loaded with the address sub-form.
func NewRepository(t *testing.T) *resolve.Repository {
	t.Helper()
	repo := resolve.NewRepository()
	if err := repo.Register(AddressSubForm()); err != nil {
		t.Fatalf("register sub-form: %v", err)
	}
	return repo
}
