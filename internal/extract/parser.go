package extract

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"orderlens/internal/domain"
)

// fencedBlock matches a ``` or ```json fenced block and captures its body.
var fencedBlock = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)\\s*```")

// strategy attempts to locate one structured candidate in raw model text.
// A miss (ok=false) hands over to the next strategy in order.
type strategy struct {
	name string
	fn   func(text string) (interface{}, bool)
}

// strategies are tried in order; the first hit wins and its candidate goes
// through the repair pass regardless of which strategy produced it.
var strategies = []strategy{
	{name: "fenced_block", fn: fencedBlockCandidate},
	{name: "embedded_object", fn: embeddedObjectCandidate},
	{name: "whole_text", fn: wholeTextCandidate},
}

// ParseModelOutput turns a model's free-text reply into a validated
// ExtractionResult. It fails with a ParseError when no strategy yields a
// syntactically valid payload, or when the payload is not an object.
func ParseModelOutput(text string) (*domain.ExtractionResult, error) {
	for _, s := range strategies {
		candidate, ok := s.fn(text)
		if !ok {
			continue
		}
		m, ok := candidate.(map[string]interface{})
		if !ok {
			return nil, newParseError("malformed top-level payload")
		}
		return repair(m), nil
	}
	return nil, newParseError("no valid structured payload found")
}

// fencedBlockCandidate takes the first fenced block that holds valid JSON.
func fencedBlockCandidate(text string) (interface{}, bool) {
	for _, match := range fencedBlock.FindAllStringSubmatch(text, -1) {
		var candidate interface{}
		if err := json.Unmarshal([]byte(match[1]), &candidate); err == nil {
			return candidate, true
		}
	}
	return nil, false
}

// embeddedObjectCandidate scans the whole text for balanced-brace objects
// that contain a products collection and keeps the longest one.
func embeddedObjectCandidate(text string) (interface{}, bool) {
	var best map[string]interface{}
	bestLen := 0
	for i := 0; i < len(text); i++ {
		if text[i] != '{' {
			continue
		}
		fragment, ok := balancedObject(text, i)
		if !ok || len(fragment) <= bestLen {
			continue
		}
		var m map[string]interface{}
		if err := json.Unmarshal([]byte(fragment), &m); err != nil {
			continue
		}
		if _, hasProducts := m["products"]; !hasProducts {
			continue
		}
		best = m
		bestLen = len(fragment)
	}
	if best == nil {
		return nil, false
	}
	return best, true
}

// wholeTextCandidate parses the entire response as one JSON value.
func wholeTextCandidate(text string) (interface{}, bool) {
	var candidate interface{}
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &candidate); err != nil {
		return nil, false
	}
	return candidate, true
}

// balancedObject returns the substring of a brace-balanced object starting at
// start, tracking string literals and escapes so braces inside values do not
// end the scan early.
func balancedObject(text string, start int) (string, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if escaped {
			escaped = false
			continue
		}
		switch ch {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return text[start : i+1], true
				}
			}
		}
	}
	return "", false
}

// repair applies the validation/defaulting pass to a decoded payload:
// products defaulted to an empty list, order_info to an empty mapping,
// malformed entries dropped, quantities and prices coerced.
func repair(m map[string]interface{}) *domain.ExtractionResult {
	out := &domain.ExtractionResult{
		Products:  []domain.Product{},
		OrderInfo: domain.OrderInfo{},
	}

	if rawProducts, ok := m["products"].([]interface{}); ok {
		for _, entry := range rawProducts {
			pm, ok := entry.(map[string]interface{})
			if !ok {
				continue
			}
			if p, ok := buildProduct(pm); ok {
				out.Products = append(out.Products, p)
			}
		}
	}

	if rawInfo, ok := m["order_info"].(map[string]interface{}); ok {
		for key, val := range rawInfo {
			out.OrderInfo[key] = val
		}
	}
	if val, present := out.OrderInfo["total_pieces"]; present {
		if f, ok := toNumber(val); ok {
			out.OrderInfo["total_pieces"] = int(f)
		} else {
			delete(out.OrderInfo, "total_pieces")
		}
	}
	if val, present := out.OrderInfo["total_value"]; present {
		if f, ok := toNumber(val); ok {
			out.OrderInfo["total_value"] = f
		} else {
			delete(out.OrderInfo, "total_value")
		}
	}

	return out
}

// buildProduct validates and defaults one product entry. It reports false
// when the product has no valid colors left after filtering.
func buildProduct(pm map[string]interface{}) (domain.Product, bool) {
	p := domain.Product{
		Name:         optString(pm["name"]),
		MaterialCode: optString(pm["material_code"]),
		Category:     optString(pm["category"]),
		Model:        optString(pm["model"]),
		Composition:  optString(pm["composition"]),
		Colors:       []domain.Color{},
	}

	if rawColors, ok := pm["colors"].([]interface{}); ok {
		for _, entry := range rawColors {
			cm, ok := entry.(map[string]interface{})
			if !ok {
				continue
			}
			if c, ok := buildColor(cm); ok {
				p.Colors = append(p.Colors, c)
			}
		}
	}
	if len(p.Colors) == 0 {
		return domain.Product{}, false
	}

	// An explicit numeric total wins; otherwise derive it from the color
	// subtotals, treating colors without a subtotal as contributing nothing.
	if total, ok := toNumber(pm["total_price"]); ok {
		p.TotalPrice = &total
	} else {
		sum := 0.0
		found := false
		for i := range p.Colors {
			if p.Colors[i].Subtotal != nil {
				sum += *p.Colors[i].Subtotal
				found = true
			}
		}
		if found {
			p.TotalPrice = &sum
		}
	}

	return p, true
}

// buildColor validates and defaults one color entry. It reports false when
// no size with a positive quantity survives.
func buildColor(cm map[string]interface{}) (domain.Color, bool) {
	c := domain.Color{
		ColorCode: optString(cm["color_code"]),
		ColorName: optString(cm["color_name"]),
		Sizes:     []domain.SizeEntry{},
	}

	if rawSizes, ok := cm["sizes"].([]interface{}); ok {
		for _, entry := range rawSizes {
			sm, ok := entry.(map[string]interface{})
			if !ok {
				continue
			}
			if _, present := sm["quantity"]; !present {
				continue
			}
			label := stringValue(sm["size"])
			if label == "" {
				continue
			}
			quantity, ok := toNumber(sm["quantity"])
			if !ok || quantity <= 0 {
				continue
			}
			c.Sizes = append(c.Sizes, domain.SizeEntry{Size: label, Quantity: quantity})
		}
	}
	if len(c.Sizes) == 0 {
		return domain.Color{}, false
	}

	c.UnitPrice = optNumber(cm["unit_price"])
	c.SalesPrice = optNumber(cm["sales_price"])
	c.Subtotal = optNumber(cm["subtotal"])

	return c, true
}

// optString coerces a scalar into an optional string field. Numeric values
// (e.g. purely numeric material codes) are formatted; anything else is nil.
func optString(v interface{}) *string {
	s := stringValue(v)
	if s == "" {
		return nil
	}
	return &s
}

func stringValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return ""
	}
}

// toNumber coerces numbers and numeric strings to float64.
func toNumber(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case int:
		return float64(val), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func optNumber(v interface{}) *float64 {
	if f, ok := toNumber(v); ok {
		return &f
	}
	return nil
}
