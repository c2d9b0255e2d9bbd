package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildPagePrompt_FirstPage(t *testing.T) {
	prompt := BuildPagePrompt(1, 3, 0)

	assert.Contains(t, prompt, "page 1 of 3")
	assert.Contains(t, prompt, "JSON TEMPLATE:")
	assert.Contains(t, prompt, jsonTemplate)
	assert.Contains(t, prompt, "Use null for any field that is not printed")
	assert.NotContains(t, prompt, "Earlier pages")
}

func TestBuildPagePrompt_ContinuationPage(t *testing.T) {
	prompt := BuildPagePrompt(2, 3, 4)

	assert.Contains(t, prompt, "page 2 of 3")
	assert.Contains(t, prompt, "already yielded 4 product(s)")
	assert.Contains(t, prompt, "Do not repeat products from earlier pages")
}

func TestBuildPagePrompt_TemplateFieldNames(t *testing.T) {
	// The template must carry exactly the field names the parser reads.
	for _, field := range []string{
		`"products"`, `"name"`, `"material_code"`, `"category"`, `"model"`,
		`"composition"`, `"colors"`, `"color_code"`, `"color_name"`, `"sizes"`,
		`"size"`, `"quantity"`, `"unit_price"`, `"sales_price"`, `"subtotal"`,
		`"total_price"`, `"order_info"`, `"total_pieces"`, `"total_value"`,
	} {
		assert.True(t, strings.Contains(jsonTemplate, field), "template missing %s", field)
	}
}
