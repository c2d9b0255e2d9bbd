package preprocess

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"orderlens/internal/port"
)

// PopplerConverter renders documents into per-page images. PDFs go through
// poppler's pdftoppm; single-image uploads (jpg/png) pass through as one page.
type PopplerConverter struct {
	dpi int
}

// NewPopplerConverter creates a converter rendering PDF pages at the given DPI.
func NewPopplerConverter(dpi int) *PopplerConverter {
	if dpi <= 0 {
		dpi = 150
	}
	return &PopplerConverter{dpi: dpi}
}

var _ port.PageConverter = (*PopplerConverter)(nil)

func (c *PopplerConverter) Convert(ctx context.Context, documentPath string) ([]port.PageImage, error) {
	switch strings.ToLower(filepath.Ext(documentPath)) {
	case ".pdf":
		return c.convertPDF(ctx, documentPath)
	case ".jpg", ".jpeg":
		return singleImage(documentPath, "image/jpeg")
	case ".png":
		return singleImage(documentPath, "image/png")
	default:
		return nil, &ConversionError{Path: documentPath, Err: fmt.Errorf("unsupported document extension %q", filepath.Ext(documentPath))}
	}
}

func (c *PopplerConverter) convertPDF(ctx context.Context, documentPath string) ([]port.PageImage, error) {
	tmpDir, err := os.MkdirTemp("", "orderlens-pages-*")
	if err != nil {
		return nil, &ConversionError{Path: documentPath, Err: err}
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			log.Printf("PopplerConverter.convertPDF: cleaning up %s: %v", tmpDir, err)
		}
	}()

	prefix := filepath.Join(tmpDir, "page")
	cmd := exec.CommandContext(ctx, "pdftoppm", "-png", "-r", fmt.Sprintf("%d", c.dpi), documentPath, prefix)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, &ConversionError{Path: documentPath, Err: fmt.Errorf("pdftoppm: %v: %s", err, strings.TrimSpace(string(out)))}
	}

	entries, err := filepath.Glob(prefix + "-*.png")
	if err != nil {
		return nil, &ConversionError{Path: documentPath, Err: err}
	}
	if len(entries) == 0 {
		return nil, &ConversionError{Path: documentPath, Err: fmt.Errorf("pdftoppm produced no pages")}
	}
	// pdftoppm zero-pads page numbers, so lexicographic order is page order.
	sort.Strings(entries)

	pages := make([]port.PageImage, 0, len(entries))
	for i, entry := range entries {
		data, err := os.ReadFile(entry)
		if err != nil {
			return nil, &ConversionError{Path: documentPath, Err: err}
		}
		pages = append(pages, port.PageImage{
			PageNumber:  i + 1,
			Bytes:       data,
			ContentType: "image/png",
		})
	}
	return pages, nil
}

func singleImage(documentPath, contentType string) ([]port.PageImage, error) {
	data, err := os.ReadFile(documentPath)
	if err != nil {
		return nil, &ConversionError{Path: documentPath, Err: err}
	}
	return []port.PageImage{{PageNumber: 1, Bytes: data, ContentType: contentType}}, nil
}
