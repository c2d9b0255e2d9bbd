package export

import (
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"orderlens/internal/domain"
)

const sheetName = "Sheet1"

// columns defines the worksheet header row: one row per product/color/size.
var columns = []string{
	"Material Code",
	"Base Code",
	"Product Name",
	"Category",
	"Model",
	"Color Code",
	"Color Name",
	"Size",
	"Quantity",
	"Unit Price",
	"Sales Price",
	"Order Number",
	"Date",
	"Document Type",
}

// WriteWorkbook flattens an extraction result into an xlsx workbook and
// writes it to w. Products that repeat a material code get a .N suffix so
// each product keeps a distinct code; the original stays in Base Code.
func WriteWorkbook(w io.Writer, result *domain.ExtractionResult, documentType string) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetRow(sheetName, "A1", toRow(columns)); err != nil {
		return fmt.Errorf("writing header row: %w", err)
	}

	orderNumber := stringField(result.OrderInfo, "order_number")
	orderDate := stringField(result.OrderInfo, "date")

	rowIdx := 2
	codeCounts := map[string]int{}
	for i := range result.Products {
		p := &result.Products[i]

		baseCode := deref(p.MaterialCode)
		displayCode := baseCode
		if baseCode != "" {
			if n := codeCounts[baseCode]; n > 0 {
				displayCode = fmt.Sprintf("%s.%d", baseCode, n)
			}
			codeCounts[baseCode]++
		}

		for j := range p.Colors {
			c := &p.Colors[j]
			for _, size := range c.Sizes {
				row := []interface{}{
					displayCode,
					baseCode,
					deref(p.Name),
					deref(p.Category),
					deref(p.Model),
					deref(c.ColorCode),
					deref(c.ColorName),
					size.Size,
					size.Quantity,
					numberCell(c.UnitPrice),
					numberCell(c.SalesPrice),
					orderNumber,
					orderDate,
					documentType,
				}
				cell, err := excelize.CoordinatesToCellName(1, rowIdx)
				if err != nil {
					return fmt.Errorf("addressing row %d: %w", rowIdx, err)
				}
				if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
					return fmt.Errorf("writing row %d: %w", rowIdx, err)
				}
				rowIdx++
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func toRow(values []string) *[]interface{} {
	row := make([]interface{}, len(values))
	for i, v := range values {
		row[i] = v
	}
	return &row
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// numberCell keeps absent prices as blank cells rather than zeros.
func numberCell(v *float64) interface{} {
	if v == nil {
		return ""
	}
	return *v
}

func stringField(info domain.OrderInfo, key string) string {
	if info == nil {
		return ""
	}
	if s, ok := info[key].(string); ok {
		return s
	}
	return ""
}

// nonAlphanumeric matches characters that are not alphanumeric, hyphen, or underscore.
var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// multiUnderscore matches consecutive underscores.
var multiUnderscore = regexp.MustCompile(`_{2,}`)

// SanitizeFilename cleans a document name for use in Content-Disposition.
// Replaces non-alphanumeric chars (except - _) with _, collapses consecutive
// underscores, and truncates to 100 chars.
func SanitizeFilename(name string) string {
	s := nonAlphanumeric.ReplaceAllString(name, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}

// BuildFilename returns a sanitized attachment filename.
// Format: {sanitized_document_name}_{model}_{YYYY-MM-DD}.xlsx
func BuildFilename(documentName, model string) string {
	sanitized := SanitizeFilename(documentName)
	date := time.Now().Format("2006-01-02")
	return fmt.Sprintf("%s_%s_%s.xlsx", sanitized, model, date)
}
