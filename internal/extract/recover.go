package extract

import (
	"encoding/json"
	"strings"

	"orderlens/internal/domain"
)

// RecoverPartial salvages individual product objects out of a reply that
// failed every parse strategy. It normalizes curly quotes, scans for product
// fragments that carry a colors collection, and runs each through the same
// validation as a full parse. A nil result means nothing was recoverable.
func RecoverPartial(text string) *domain.ExtractionResult {
	normalized := normalizeQuotes(text)

	out := &domain.ExtractionResult{
		Products:           []domain.Product{},
		OrderInfo:          domain.OrderInfo{},
		PartiallyRecovered: true,
	}

	offset := 0
	for {
		idx := strings.Index(normalized[offset:], `{"name":`)
		if idx < 0 {
			break
		}
		start := offset + idx
		fragment, ok := balancedObject(normalized, start)
		if !ok {
			offset = start + 1
			continue
		}
		offset = start + len(fragment)

		if !strings.Contains(fragment, `"colors"`) {
			continue
		}
		var pm map[string]interface{}
		if err := json.Unmarshal([]byte(fragment), &pm); err != nil {
			continue
		}
		if p, ok := buildProduct(pm); ok {
			out.Products = append(out.Products, p)
		}
	}

	if len(out.Products) == 0 {
		return nil
	}
	return out
}

var quoteReplacer = strings.NewReplacer(
	"“", `"`,
	"”", `"`,
	"‘", "'",
	"’", "'",
)

func normalizeQuotes(s string) string {
	return quoteReplacer.Replace(s)
}
