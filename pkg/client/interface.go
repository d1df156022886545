// Package client defines the vision backends the focus locator can ask where
// the subject of a photo is.
package client

import (
	"context"
	"time"

	"github.com/menta2k/thumbnailer/pkg/types"
)

// DefaultTimeout bounds a model call when the caller's context has no
// deadline. CPU inference on a multimodal model is slow.
const DefaultTimeout = 300 * time.Second

// Request is one prompt plus one base64 encoded image.
type Request struct {
	Model    string
	Prompt   string
	ImageB64 string
	// MIME is the encoded image type, "image/jpeg" when empty.
	MIME string
}

// ContentType returns the request's MIME type with the default applied.
func (r Request) ContentType() string {
	if r.MIME == "" {
		return "image/jpeg"
	}
	return r.MIME
}

// VisionClient is implemented by pkg/ollama and pkg/llamacpp.
type VisionClient interface {
	// SimpleQuery returns the model's free text answer.
	SimpleQuery(ctx context.Context, req Request) (string, error)
	// AnalyzeImage expects a JSON subject description and parses it.
	AnalyzeImage(ctx context.Context, req Request) (*types.AnalysisResult, error)
}

// WithDefaultTimeout applies DefaultTimeout when ctx has no deadline.
func WithDefaultTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, DefaultTimeout)
}
