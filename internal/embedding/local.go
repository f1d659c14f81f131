package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// NewLocal returns a deterministic embedding function that needs no
// network access. It hashes word unigrams and character trigrams into a
// fixed number of buckets and L2-normalises the result, which is enough
// for the modest retrieval quality this store needs when no embedding
// API is configured.
func NewLocal() Func {
	return func(_ context.Context, text string) ([]float32, error) {
		vec := make([]float32, Dimensions)

		for _, token := range tokenize(text) {
			vec[bucket(token)]++

			// Character trigrams give partial-word matches some signal.
			runes := []rune(token)
			for i := 0; i+3 <= len(runes); i++ {
				vec[bucket("tri:"+string(runes[i:i+3]))] += 0.5
			}
		}

		normalize(vec)
		return vec, nil
	}
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '.'
	})
}

func bucket(token string) int {
	h := fnv.New64a()
	_, _ = h.Write([]byte(token))
	return int(h.Sum64() % uint64(Dimensions))
}

func normalize(vec []float32) {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	norm := float32(math.Sqrt(sum))
	for i := range vec {
		vec[i] /= norm
	}
}
