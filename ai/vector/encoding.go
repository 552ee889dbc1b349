package vector

import (
	"encoding/json"
	"fmt"
)

// EncodeEmbedding renders an embedding as a JSON array, e.g. "[0.1,0.2]".
func EncodeEmbedding(embedding []float32) (string, error) {
	if len(embedding) == 0 {
		return "", ErrEmptyVector
	}
	data, err := json.Marshal(embedding)
	if err != nil {
		return "", fmt.Errorf("encode embedding: %w", err)
	}
	return string(data), nil
}

// DecodeEmbedding parses the text produced by EncodeEmbedding.
func DecodeEmbedding(text string) ([]float32, error) {
	var embedding []float32
	if err := json.Unmarshal([]byte(text), &embedding); err != nil {
		return nil, fmt.Errorf("decode embedding: %w", err)
	}
	if len(embedding) == 0 {
		return nil, ErrEmptyVector
	}
	return embedding, nil
}
