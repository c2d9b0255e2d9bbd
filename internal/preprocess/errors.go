package preprocess

import "fmt"

// ConversionError indicates a document could not be rendered into page
// images. It fails every model run of the job, since no model can proceed
// without pages.
type ConversionError struct {
	Path string
	Err  error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("converting document %s: %v", e.Path, e.Err)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}
