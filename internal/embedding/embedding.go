// Package embedding provides the text embedding functions the knowledge
// store is built around. Embeddings are an injected capability: the store
// never cares whether vectors come from a remote API or the local
// deterministic fallback, only that identical text yields identical
// vectors.
package embedding

import "context"

// Dimensions is the vector size of the local embedding function. Remote
// models define their own dimensionality; within one collection a single
// function must be used for both ingestion and queries.
const Dimensions = 384

// Func maps text to a fixed-length vector. Implementations must be
// deterministic for identical input.
type Func func(ctx context.Context, text string) ([]float32, error)
