// Package vision holds the clients for the external image classification
// services. Each engine independently turns an image URL into one Analysis;
// the ingestion handler fires all engines concurrently and appends whatever
// comes back, whenever it comes back.
package vision

import (
	"context"

	"github.com/rohanmehra24/memory-lane/models"
)

type Engine interface {
	// Name is the stable engine identifier stored in Analysis.API.
	Name() string

	// Analyze classifies the image at the given public URL.
	Analyze(ctx context.Context, imageURL string) (models.Analysis, error)
}
