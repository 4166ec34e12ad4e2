package analyze

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/phuslu/log"
)

const (
	defaultOllamaURL   = "http://127.0.0.1:11434"
	defaultOllamaModel = "nomic-embed-text"

	// Embedding models have small context windows; the head of a posting
	// carries the signal.
	maxEmbedTextLen = 2000
)

// LocalBackend scores by cosine similarity between profile and posting
// embeddings from a local Ollama server. No text leaves the machine.
type LocalBackend struct {
	baseURL string
	model   string
	class   Class
	httpc   *http.Client
	log     log.Logger
}

func NewLocalBackend(baseURL, model string, class Class, logger log.Logger) *LocalBackend {
	if baseURL == "" {
		baseURL = defaultOllamaURL
	}
	if model == "" {
		model = defaultOllamaModel
	}
	if class != ClassGPU {
		class = ClassCPU
	}
	return &LocalBackend{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		model:   model,
		class:   class,
		httpc:   &http.Client{Timeout: 60 * time.Second},
		log:     logger,
	}
}

func (b *LocalBackend) Name() string { return "local" }
func (b *LocalBackend) Class() Class { return b.class }

// Healthy probes the Ollama tags endpoint; anything but a 200 means the
// server is absent or still loading.
func (b *LocalBackend) Healthy(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+"/api/tags", nil)
	if err != nil {
		return err
	}
	resp, err := b.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: ollama unreachable: %v", ErrBackendDown, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: ollama health status %d", ErrBackendDown, resp.StatusCode)
	}
	return nil
}

func (b *LocalBackend) Score(ctx context.Context, profileText string, postings []Posting) ([]Scored, error) {
	if len(postings) == 0 {
		return nil, nil
	}

	profVec, err := b.embed(ctx, profileText)
	if err != nil {
		return nil, fmt.Errorf("embed profile: %w", err)
	}

	out := make([]Scored, len(postings))
	for i, p := range postings {
		text := p.Title + "\n" + p.Description
		if len(text) > maxEmbedTextLen {
			text = text[:maxEmbedTextLen]
		}
		vec, err := b.embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embed posting %d: %w", i, err)
		}
		cos, err := cosine(profVec, vec)
		if err != nil {
			return nil, fmt.Errorf("posting %d: %w", i, err)
		}
		// Map [-1,1] onto [0,1]. Confidence is fixed: embeddings rank
		// well but are no judge of their own certainty.
		out[i] = Scored{Score: clamp01((cos + 1) / 2), Confidence: 0.6}
	}
	return out, nil
}

type ollamaEmbedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbedResponse struct {
	Embedding []float64 `json:"embedding"`
}

func (b *LocalBackend) embed(ctx context.Context, text string) ([]float64, error) {
	body, err := json.Marshal(ollamaEmbedRequest{Model: b.model, Prompt: text})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/api/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slurp, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("ollama embeddings: status %d: %s", resp.StatusCode, strings.TrimSpace(string(slurp)))
	}

	var er ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return nil, fmt.Errorf("decode embedding: %w", err)
	}
	if len(er.Embedding) == 0 {
		return nil, fmt.Errorf("ollama returned an empty embedding")
	}
	return er.Embedding, nil
}

func cosine(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("embedding dimensions differ: %d vs %d", len(a), len(b))
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0, fmt.Errorf("zero-magnitude embedding")
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb)), nil
}
