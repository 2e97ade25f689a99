package ollama

import (
	"context"
	"os"
	"testing"
	"time"

	"eq-coach-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs against a local Ollama; set OLLAMA_INTEGRATION=true and optionally
// OLLAMA_BASE_URL / LLM_MODEL.
func TestLocalOllamaStreams(t *testing.T) {
	if os.Getenv("OLLAMA_INTEGRATION") != "true" {
		t.Skip("Skipping integration test: OLLAMA_INTEGRATION not set")
	}

	baseURL := os.Getenv("OLLAMA_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	model := os.Getenv("LLM_MODEL")
	if model == "" {
		model = "llama3"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	chunks := 0
	full, err := NewOllamaProvider(baseURL, model).ChatStream(ctx, []llm.Message{
		{Role: "system", Content: "Answer in one short sentence."},
		{Role: "user", Content: "How do I calm down before a hard conversation?"},
	}, func(string) { chunks++ }, llm.WithMaxTokens(64))

	require.NoError(t, err)
	assert.NotEmpty(t, full)
	assert.Positive(t, chunks)
}
