package analyze

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/phuslu/log"
)

const (
	defaultClaudeModel = "claude-3-5-haiku-latest"
	claudeMaxTokens    = 1024

	// Descriptions are truncated before prompting; past this point the
	// extra text is boilerplate benefits and legal footers.
	maxPromptDescLen = 4000
)

// ClaudeBackend scores postings with the Anthropic API. One request per
// batch; the model returns a JSON array with one verdict per posting.
type ClaudeBackend struct {
	client anthropic.Client
	model  string
	log    log.Logger
}

func NewClaudeBackend(apiKey, model string, logger log.Logger) (*ClaudeBackend, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("claude backend: no API key configured")
	}
	if model == "" {
		model = defaultClaudeModel
	}
	return &ClaudeBackend{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
		log:    logger,
	}, nil
}

func (b *ClaudeBackend) Name() string { return "claude" }

// Class is cpu: the call is network-bound and long prompts get flaky,
// so small batches keep retries cheap.
func (b *ClaudeBackend) Class() Class { return ClassCPU }

func (b *ClaudeBackend) Healthy(ctx context.Context) error {
	// Key presence was checked at construction; a paid round trip per run
	// is not worth it. Request failures trip the analyzer's breaker.
	return ctx.Err()
}

type claudeVerdict struct {
	Index      int     `json:"index"`
	Score      float64 `json:"score"`
	Confidence float64 `json:"confidence"`
}

func (b *ClaudeBackend) Score(ctx context.Context, profileText string, postings []Posting) ([]Scored, error) {
	if len(postings) == 0 {
		return nil, nil
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(b.model),
		MaxTokens:   claudeMaxTokens,
		Temperature: anthropic.Float(0),
		System: []anthropic.TextBlockParam{
			{Text: scoringSystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(buildScoringPrompt(profileText, postings))),
		},
	}

	resp, err := b.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("claude scoring call: %w", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == anthropic.ContentBlockTypeText {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return nil, fmt.Errorf("claude scoring call: empty response")
	}

	verdicts, err := parseVerdicts(text.String())
	if err != nil {
		return nil, fmt.Errorf("claude scoring call: %w", err)
	}

	out := make([]Scored, len(postings))
	seen := make([]bool, len(postings))
	for _, v := range verdicts {
		if v.Index < 0 || v.Index >= len(postings) || seen[v.Index] {
			continue
		}
		seen[v.Index] = true
		out[v.Index] = Scored{Score: clamp01(v.Score), Confidence: clamp01(v.Confidence)}
	}
	for i, ok := range seen {
		if !ok {
			return nil, fmt.Errorf("claude scoring call: posting %d missing from response", i)
		}
	}
	return out, nil
}

const scoringSystemPrompt = `You score job postings for fit against one candidate profile.
Score each posting independently on its own merits; never rank postings against each other.
Respond with a JSON array only, no prose: [{"index":0,"score":0.0,"confidence":0.0}, ...]
score is the fit in [0,1]; confidence is how sure you are in [0,1].`

func buildScoringPrompt(profileText string, postings []Posting) string {
	var sb strings.Builder
	sb.WriteString("Candidate profile:\n")
	sb.WriteString(profileText)
	sb.WriteString("\n\nPostings:\n")
	for i, p := range postings {
		desc := p.Description
		if len(desc) > maxPromptDescLen {
			desc = desc[:maxPromptDescLen]
		}
		fmt.Fprintf(&sb, "\n--- posting %d ---\nTitle: %s\nCompany: %s\n%s\n", i, p.Title, p.Company, desc)
	}
	return sb.String()
}

// parseVerdicts tolerates prose or code fences around the JSON array.
func parseVerdicts(s string) ([]claudeVerdict, error) {
	start := strings.IndexByte(s, '[')
	end := strings.LastIndexByte(s, ']')
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON array in response")
	}
	var out []claudeVerdict
	if err := json.Unmarshal([]byte(s[start:end+1]), &out); err != nil {
		return nil, fmt.Errorf("decode verdicts: %w", err)
	}
	return out, nil
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
