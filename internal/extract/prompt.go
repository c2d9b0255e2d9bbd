package extract

import (
	"fmt"
	"strings"
)

// jsonTemplate is included verbatim in every page prompt so models anchor on
// the exact field names and nesting the parser expects.
const jsonTemplate = `{
  "products": [
    {
      "name": "PRODUCT NAME",
      "material_code": "PRODUCT CODE",
      "category": "CATEGORY",
      "model": "MODEL",
      "composition": "FABRIC COMPOSITION",
      "colors": [
        {
          "color_code": "COLOR CODE",
          "color_name": "COLOR NAME",
          "sizes": [
            {"size": "S", "quantity": 10},
            {"size": "M", "quantity": 20},
            {"size": "L", "quantity": 15}
          ],
          "unit_price": 25.50,
          "sales_price": 45.00,
          "subtotal": 1147.50
        }
      ],
      "total_price": 1147.50
    }
  ],
  "order_info": {
    "order_number": "ORDER NUMBER",
    "date": "DATE",
    "customer": "CUSTOMER NAME",
    "total_pieces": 45,
    "total_value": 1147.50
  }
}`

// BuildPagePrompt assembles the extraction prompt for one page of a document.
// priorProductCount is the number of products already extracted from earlier
// pages; it is only mentioned on continuation pages so the model knows not to
// repeat them.
func BuildPagePrompt(pageNumber, totalPages, priorProductCount int) string {
	var b strings.Builder

	b.WriteString("You are an expert at reading apparel and textile order documents. ")
	fmt.Fprintf(&b, "You are looking at page %d of %d of a product order document.\n\n", pageNumber, totalPages)

	if pageNumber > 1 {
		fmt.Fprintf(&b, "Earlier pages of this document already yielded %d product(s). ", priorProductCount)
		b.WriteString("Extract only the products visible on THIS page. Do not repeat products from earlier pages. ")
		b.WriteString("If this page only continues a table from a previous page, extract the rows shown here.\n\n")
	}

	b.WriteString("Extract every product order line on this page into structured JSON.\n\n")

	b.WriteString("SIZE TABLES:\n")
	b.WriteString("Order documents usually lay out sizes as table columns with quantities underneath. ")
	b.WriteString("Map each quantity to the size heading directly above it, by position. ")
	b.WriteString("For example, with size headings S M L XL and the quantity row 0 12 8 0, ")
	b.WriteString("the result is M=12 and L=8; sizes with quantity 0 are real columns but carry no order.\n")
	b.WriteString("Include every size that has a quantity greater than zero. Never shift quantities between columns.\n\n")

	b.WriteString("PRODUCT CODES:\n")
	b.WriteString("Material or article codes are typically alphanumeric (e.g. 2412106, ART-4450, K-807). ")
	b.WriteString("Copy them exactly as printed, including leading zeros and separators.\n\n")

	b.WriteString("FOR EACH PRODUCT capture: name, material_code, category, model, composition, ")
	b.WriteString("and its colors. FOR EACH COLOR capture: color_code, color_name, the per-size ")
	b.WriteString("quantities, unit_price, sales_price, and subtotal when printed.\n\n")

	b.WriteString("CRITICAL RULES:\n")
	b.WriteString("1. Respond with JSON only, matching the template below. No commentary before or after.\n")
	b.WriteString("2. Use null for any field that is not printed on the page. Never invent values.\n")
	b.WriteString("3. Quantities must be numbers, not strings.\n")
	b.WriteString("4. Keep prices as plain numbers without currency symbols.\n")
	b.WriteString("5. If the page has no product lines at all, return an empty products list.\n\n")

	b.WriteString("JSON TEMPLATE:\n")
	b.WriteString(jsonTemplate)

	return b.String()
}
