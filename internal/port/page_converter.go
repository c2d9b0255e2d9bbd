package port

import "context"

// PageImage is one rendered page of a document, in page order.
type PageImage struct {
	PageNumber  int
	Bytes       []byte
	ContentType string
}

// PageConverter turns an uploaded document into an ordered sequence of page
// images. Implementations must be deterministic: same document, same pages in
// the same order.
type PageConverter interface {
	Convert(ctx context.Context, documentPath string) ([]PageImage, error)
}
