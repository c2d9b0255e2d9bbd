package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecoverPartial_SalvagesFragments(t *testing.T) {
	// Truncated reply: opening prose, one complete product object, then the
	// payload breaks off mid-way. Nothing here parses as a whole document.
	text := `{"products": [` +
		`{"name": "Polo Shirt", "material_code": "K-807", "colors": [{"color_code": "04", "color_name": "Navy", "sizes": [{"size": "M", "quantity": 6}], "unit_price": 12.5, "subtotal": 75.0}]}` +
		`, {"name": "Chino", "colors": [{"color_name": "Beige", "sizes": [{"size": "32",`

	result := RecoverPartial(text)
	require.NotNil(t, result)
	assert.True(t, result.PartiallyRecovered)

	require.Len(t, result.Products, 1)
	p := result.Products[0]
	assert.Equal(t, "Polo Shirt", *p.Name)
	assert.Equal(t, "K-807", *p.MaterialCode)
	require.Len(t, p.Colors, 1)
	require.NotNil(t, p.TotalPrice)
	assert.Equal(t, 75.0, *p.TotalPrice)
}

func TestRecoverPartial_NormalizesCurlyQuotes(t *testing.T) {
	text := `{“name”: “Sweater”, “colors”: [{“color_name”: “Grey”, “sizes”: [{“size”: “L”, “quantity”: 3}]}]} and then the reply trails off {`

	result := RecoverPartial(text)
	require.NotNil(t, result)
	require.Len(t, result.Products, 1)
	assert.Equal(t, "Sweater", *result.Products[0].Name)
}

func TestRecoverPartial_RequiresColors(t *testing.T) {
	text := `{"name": "Orphan Product", "material_code": "X1"} with no color breakdown anywhere`
	assert.Nil(t, RecoverPartial(text))
}

func TestRecoverPartial_NothingSalvageable(t *testing.T) {
	assert.Nil(t, RecoverPartial("no structured data at all"))
	assert.Nil(t, RecoverPartial(`{"name": "Broken", "colors": [{"sizes": [{"size": "M", "quantity": 0}]}]}`))
}

func TestRecoverPartial_MultipleFragments(t *testing.T) {
	text := `garbage {"name": "A", "colors": [{"color_name": "Red", "sizes": [{"size": "S", "quantity": 1}]}]} more garbage ` +
		`{"name": "B", "colors": [{"color_name": "Blue", "sizes": [{"size": "M", "quantity": 2}]}]} end`

	result := RecoverPartial(text)
	require.NotNil(t, result)
	require.Len(t, result.Products, 2)
	assert.Equal(t, "A", *result.Products[0].Name)
	assert.Equal(t, "B", *result.Products[1].Name)
}
