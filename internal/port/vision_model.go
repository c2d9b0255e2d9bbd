package port

import "context"

// PageInput carries one page image and the instruction prompt for a model call.
type PageInput struct {
	ImageBytes  []byte
	ContentType string
	Prompt      string
}

// VisionModel abstracts one vision-language model provider. Generate sends a
// single page image with its prompt and returns the model's raw text reply.
type VisionModel interface {
	Name() string
	Generate(ctx context.Context, input PageInput) (string, error)
}
