// Package gemini implements orpipe.EmbeddingProvider against the Gemini
// embedContent endpoint, for the Modeler's optional retrieval path.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/orpipe/orpipe"
)

var baseURL = "https://generativelanguage.googleapis.com/v1beta"

// Embedding implements orpipe.EmbeddingProvider for Gemini embedding models.
type Embedding struct {
	apiKey     string
	model      string
	dims       int
	httpClient *http.Client
}

var _ orpipe.EmbeddingProvider = (*Embedding)(nil)

// NewEmbedding creates a Gemini embedding provider for the given model and
// output dimensionality.
func NewEmbedding(apiKey, model string, dims int) *Embedding {
	return &Embedding{apiKey: apiKey, model: model, dims: dims, httpClient: &http.Client{}}
}

// Name implements orpipe.EmbeddingProvider.
func (e *Embedding) Name() string { return "gemini" }

// Dimensions implements orpipe.EmbeddingProvider.
func (e *Embedding) Dimensions() int { return e.dims }

// Embed implements orpipe.EmbeddingProvider, embedding each text with a
// sequential request (the embedContent endpoint is single-text per call).
func (e *Embedding) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	url := fmt.Sprintf("%s/models/%s:embedContent?key=%s", baseURL, e.model, e.apiKey)

	embeddings := make([][]float32, 0, len(texts))
	for _, text := range texts {
		vec, err := e.embedOne(ctx, url, text)
		if err != nil {
			return nil, err
		}
		embeddings = append(embeddings, vec)
	}
	return embeddings, nil
}

func (e *Embedding) embedOne(ctx context.Context, url, text string) ([]float32, error) {
	body := map[string]any{
		"content": map[string]any{
			"parts": []map[string]any{{"text": text}},
		},
		"outputDimensionality": e.dims,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, &orpipe.ErrLLM{Provider: "gemini", Message: "marshal embed body: " + err.Error()}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(string(payload)))
	if err != nil {
		return nil, &orpipe.ErrLLM{Provider: "gemini", Message: "create embed request: " + err.Error()}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(httpReq)
	if err != nil {
		return nil, &orpipe.ErrLLM{Provider: "gemini", Message: "embed request failed: " + err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &orpipe.ErrLLM{Provider: "gemini", Message: "failed to read embed response: " + err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &orpipe.ErrHTTP{Status: resp.StatusCode, Body: string(respBody)}
	}

	var parsed embedResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, &orpipe.ErrLLM{Provider: "gemini", Message: "failed to parse embed response: " + err.Error()}
	}
	if parsed.Embedding == nil {
		return nil, &orpipe.ErrLLM{Provider: "gemini", Message: "missing embedding.values in response"}
	}

	vec := make([]float32, len(parsed.Embedding.Values))
	for i, v := range parsed.Embedding.Values {
		vec[i] = float32(v)
	}
	return vec, nil
}

type embedResponse struct {
	Embedding *embedValues `json:"embedding"`
}

type embedValues struct {
	Values []float64 `json:"values"`
}
