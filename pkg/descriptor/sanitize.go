package descriptor

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	labelPolicyOnce sync.Once
	labelPolicy     *bluemonday.Policy
)

// sanitizeMarkup strips markup from human-readable strings. Descriptor and
// sub-form documents arrive from remote providers; titles, labels and
// descriptions are the only places free text reaches a renderer.
func sanitizeMarkup(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	return strings.TrimSpace(labelSanitizer().Sanitize(trimmed))
}

func labelSanitizer() *bluemonday.Policy {
	labelPolicyOnce.Do(func() {
		labelPolicy = bluemonday.StrictPolicy()
	})
	return labelPolicy
}

func sanitizeBlocks(blocks []Block) {
	for i := range blocks {
		blocks[i].Title = sanitizeMarkup(blocks[i].Title)
		blocks[i].Description = sanitizeMarkup(blocks[i].Description)
		for j := range blocks[i].Fields {
			field := &blocks[i].Fields[j]
			field.Label = sanitizeMarkup(field.Label)
			field.Description = sanitizeMarkup(field.Description)
			for k := range field.Items {
				field.Items[k].Label = sanitizeMarkup(field.Items[k].Label)
			}
		}
	}
}
