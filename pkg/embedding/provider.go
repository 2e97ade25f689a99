package embedding

import "context"

// Provider turns memory text into a vector for the memories.embedding column.
type Provider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}
