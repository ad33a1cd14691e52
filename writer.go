package gleaner

import "context"

// ContentWriter persists extracted content outside the process.
type ContentWriter interface {
	// Write stores content and returns where it was written.
	Write(ctx context.Context, content *ExtractedContent) (string, error)
}
